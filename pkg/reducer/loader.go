package reducer

import (
	"github.com/rmohr/treereduce/pkg/grammar"
	"github.com/rmohr/treereduce/pkg/tree"
)

// TreeLoader turns intermediate results back into syntax trees.
type TreeLoader interface {
	Load(text string) (*tree.Tree, error)
}

type GrammarLoader struct {
	Grammar *grammar.Grammar
}

func (l GrammarLoader) Load(text string) (*tree.Tree, error) {
	return l.Grammar.Parse(text)
}
