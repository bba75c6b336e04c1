package reducer

import (
	"strings"

	"github.com/rmohr/treereduce/pkg/dd"
	"github.com/rmohr/treereduce/pkg/run"
	"github.com/rmohr/treereduce/pkg/tree"
)

// Slicer cuts the text of a tree into a list and glues candidates back
// together.
type Slicer[E any] interface {
	Slice(t *tree.Tree) []E
	Join(list []E) string
}

// ListReducer ignores the tree structure and reduces a flat list.
type ListReducer[E any] struct {
	Slicer        Slicer[E]
	ListReduction dd.Reduction
	Fixpoint      bool

	name string
}

func (l *ListReducer[E]) Name() string {
	return displayName(l.name, l.Fixpoint)
}

func (l *ListReducer[E]) Reduce(t *tree.Tree, r *run.Run) (string, error) {
	list := l.Slicer.Slice(t)
	return repeat(r, len(l.Slicer.Join(list)), l.Fixpoint, func() (string, error) {
		reduced, err := dd.Reduce(l.ListReduction, list, func(candidate []E) (bool, error) {
			return r.Test(l.Slicer.Join(candidate))
		}, false)
		if err != nil {
			return "", err
		}
		list = reduced
		return l.Slicer.Join(list), nil
	})
}

// newListReducer binds a slicer. An empty reduction name defers to the
// configured list reduction.
func newListReducer[E any](slicer Slicer[E], reduction string) factory {
	return func(cfg Config, name string, fixpoint bool) (run.Reducer, error) {
		var red dd.Reduction
		var err error
		if reduction == "" {
			red, err = cfg.listReduction("DDMin")
		} else {
			red, err = dd.New(reduction)
		}
		if err != nil {
			return nil, err
		}
		return &ListReducer[E]{Slicer: slicer, ListReduction: red, Fixpoint: fixpoint, name: name}, nil
	}
}

// tokenSlicer keeps every token together with the skipped text in front of
// it.
type tokenSlicer struct{}

func (tokenSlicer) Slice(t *tree.Tree) []tree.Token {
	if t.Root() == tree.None {
		return nil
	}
	return t.Tokens(t.Root())
}

func (tokenSlicer) Join(tokens []tree.Token) string {
	var b strings.Builder
	for _, token := range tokens {
		token.AppendTo(&b)
	}
	return b.String()
}

type lineSlicer struct{}

func (lineSlicer) Slice(t *tree.Tree) []string {
	return strings.Split(t.Print(t.Root()), "\n")
}

func (lineSlicer) Join(lines []string) string {
	return strings.Join(lines, "\n")
}

type charSlicer struct{}

func (charSlicer) Slice(t *tree.Tree) []string {
	return strings.Split(t.Print(t.Root()), "")
}

func (charSlicer) Join(chars []string) string {
	return strings.Join(chars, "")
}
