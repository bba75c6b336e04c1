package printer

import (
	"strings"

	"github.com/rmohr/treereduce/pkg/grammar"
	"github.com/rmohr/treereduce/pkg/tree"
)

const DefaultSeparator = " "

// Joiner serializes tokens and (partially removed) syntax trees. Between
// two tokens that would lex differently when glued together it inserts a
// separator.
type Joiner struct {
	Lexer     *grammar.Lexer
	Separator string
	// TryFormat keeps line breaks of the input where tokens were dropped
	// in between.
	TryFormat bool
}

func NewJoiner(lexer *grammar.Lexer, tryFormat bool) *Joiner {
	return &Joiner{Lexer: lexer, Separator: DefaultSeparator, TryFormat: tryFormat}
}

func consecutive(first, second tree.Token) bool {
	if !first.IsOriginal() || !second.IsOriginal() {
		return false
	}
	begin := second.Begin
	if len(second.Skipped) > 0 {
		begin = second.Skipped[0].Begin
	}
	return first.End.Offset == begin.Offset
}

// NeedsSeparator reports whether second can't directly follow first.
// Tokens with an empty symbol match any lexed symbol.
func (j *Joiner) NeedsSeparator(first, second tree.Token) bool {
	if second.Symbol == tree.EOF {
		return false
	}
	if first.Symbol == "" && second.Symbol == "" {
		return true
	}
	if consecutive(first, second) {
		return false
	}

	var b strings.Builder
	b.WriteString(first.Text)
	second.AppendTo(&b)
	tokens, err := j.Lexer.Lex(b.String())
	if err != nil {
		return true
	}
	tokens = tokens[:len(tokens)-1]
	if len(tokens) < 2 {
		return true
	}
	if first.Symbol != "" && tokens[0].Symbol != first.Symbol {
		return true
	}
	return second.Symbol != "" && tokens[len(tokens)-1].Symbol != second.Symbol
}

// lineBreak reports whether a line break should be emitted before second.
func (j *Joiner) lineBreak(first, second tree.Token) bool {
	if second.Symbol == tree.EOF || consecutive(first, second) {
		return false
	}
	if first.End.Line < 0 || second.Begin.Line < 0 || first.End.Line == second.Begin.Line {
		return false
	}
	for _, s := range second.Skipped {
		if strings.Contains(s.Text, "\n") {
			return false
		}
	}
	return true
}

func (j *Joiner) Join(tokens []tree.Token) string {
	var b strings.Builder
	for i, token := range tokens {
		brk := false
		if i > 0 && j.TryFormat {
			brk = j.lineBreak(tokens[i-1], token)
			if brk {
				b.WriteString("\n")
			}
		}
		for _, s := range token.Skipped {
			b.WriteString(s.Text)
		}
		if i > 0 && !brk && j.NeedsSeparator(tokens[i-1], token) {
			b.WriteString(j.Separator)
		}
		b.WriteString(token.Text)
	}
	return b.String()
}

// JoinTree serializes the tree as if all nodes in removed were replaced by
// the replacement tokens of their expected symbol. Without replacements
// removed nodes are simply dropped.
func (j *Joiner) JoinTree(t *tree.Tree, removed tree.NodeSet, replacements map[tree.Symbol][]tree.Token) string {
	return j.Join(j.Tokens(t, removed, replacements))
}

// JoinNode serializes the subtree rooted at id like JoinTree.
func (j *Joiner) JoinNode(t *tree.Tree, id tree.NodeID, removed tree.NodeSet, replacements map[tree.Symbol][]tree.Token) string {
	return j.Join(j.NodeTokens(t, id, removed, replacements))
}

// Tokens returns the token sequence JoinTree serializes.
func (j *Joiner) Tokens(t *tree.Tree, removed tree.NodeSet, replacements map[tree.Symbol][]tree.Token) []tree.Token {
	return j.NodeTokens(t, t.Root(), removed, replacements)
}

func (j *Joiner) NodeTokens(t *tree.Tree, root tree.NodeID, removed tree.NodeSet, replacements map[tree.Symbol][]tree.Token) []tree.Token {
	if root == tree.None {
		return nil
	}
	var tokens []tree.Token
	t.Walk(root, func(id tree.NodeID) bool {
		if !removed.Has(id) {
			if t.IsLeaf(id) {
				tokens = append(tokens, t.Token(id))
			}
			return true
		}
		if replacements == nil || j.nullableListItem(t, id, removed) {
			return false
		}
		replacement := replacements[t.Expected(id)]
		begin, end := tree.Unknown, tree.Unknown
		if j.TryFormat {
			begin, end = span(t, id)
		}
		for _, r := range replacement {
			tokens = append(tokens, r.WithPosition(begin, end))
		}
		return false
	})
	return tokens
}

// nullableListItem reports whether a removed list item can vanish without
// a replacement. Of a PLUS list whose items are all removed the first one
// is replaced.
func (j *Joiner) nullableListItem(t *tree.Tree, id tree.NodeID, removed tree.NodeSet) bool {
	if !t.IsListItem(id) {
		return false
	}
	parent := t.Parent(id)
	switch t.Symbol(parent) {
	case tree.Optional, tree.Star:
		return true
	case tree.Plus:
		for _, sibling := range t.Children(parent) {
			if !removed.Has(sibling) {
				return true
			}
		}
	}
	return t.Child(parent, 0) != id
}

// span returns the source range of the original tokens below a node.
func span(t *tree.Tree, id tree.NodeID) (begin, end tree.Position) {
	begin, end = tree.Unknown, tree.Unknown
	for _, token := range t.Tokens(id) {
		if !token.IsOriginal() {
			continue
		}
		if begin == tree.Unknown {
			begin = token.Begin
		}
		end = token.End
	}
	return begin, end
}

// JoinReplacements renders a replacement table.
func (j *Joiner) JoinReplacements(replacements map[tree.Symbol][]tree.Token) map[tree.Symbol]string {
	joined := make(map[tree.Symbol]string, len(replacements))
	for symbol, tokens := range replacements {
		joined[symbol] = j.Join(tokens)
	}
	return joined
}
