package printer

import (
	"testing"

	. "github.com/onsi/gomega"
	"github.com/rmohr/treereduce/pkg/grammar"
	"github.com/rmohr/treereduce/pkg/tree"
)

func arith(g *WithT) *grammar.Grammar {
	gr, err := grammar.LoadGrammarFile("../grammar/testdata/arith.yaml")
	g.Expect(err).ToNot(HaveOccurred())
	return gr
}

func TestJoinSeparators(t *testing.T) {
	tests := []struct {
		name  string
		given []tree.Token
		want  string
	}{
		{
			name:  "should separate identifiers",
			given: []tree.Token{tree.NewToken("ID", "a"), tree.NewToken("ID", "b")},
			want:  "a b",
		},
		{
			name:  "should not separate a number and an operator",
			given: []tree.Token{tree.NewToken("NUM", "1"), tree.NewToken("'+'", "+"), tree.NewToken("NUM", "2")},
			want:  "1+2",
		},
		{
			name:  "should separate a keyword from an identifier",
			given: []tree.Token{tree.NewToken("'print'", "print"), tree.NewToken("ID", "x")},
			want:  "print x",
		},
		{
			name:  "should separate tokens that fail to lex together",
			given: []tree.Token{tree.NewToken("'/'", "/"), tree.NewToken("'/'", "/")},
			want:  "/ /",
		},
		{
			name:  "should always separate tokens without symbols",
			given: []tree.Token{tree.NewToken("", "+"), tree.NewToken("", "+")},
			want:  "+ +",
		},
		{
			name:  "should not separate EOF",
			given: []tree.Token{tree.NewToken("ID", "a"), tree.NewToken(tree.EOF, "")},
			want:  "a",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := NewGomegaWithT(t)
			j := NewJoiner(arith(g).Lexer(), false)
			g.Expect(j.Join(tt.given)).To(Equal(tt.want))
		})
	}
}

func TestJoinTree(t *testing.T) {
	g := NewGomegaWithT(t)
	gr := arith(g)
	j := NewJoiner(gr.Lexer(), false)
	tables, err := gr.ComputeTables(j.Join, nil)
	g.Expect(err).ToNot(HaveOccurred())

	tr, err := gr.Parse("a = 1 + 2;")
	g.Expect(err).ToNot(HaveOccurred())

	find := func(symbol tree.Symbol, nth int) tree.NodeID {
		for _, id := range tr.Nodes(tr.Root()) {
			if tr.Symbol(id) == symbol {
				if nth == 0 {
					return id
				}
				nth--
			}
		}
		t.Fatalf("no %s node", symbol)
		return tree.None
	}

	g.Expect(j.JoinTree(tr, nil, tables.Replacements)).To(Equal("a = 1 + 2;"))
	// the second list item is the '+' continuation of expr
	g.Expect(j.JoinTree(tr, tree.NewNodeSet(find(tree.ListItem, 1)), tables.Replacements)).To(Equal("a = 1;"))
	g.Expect(j.JoinTree(tr, tree.NewNodeSet(find("factor", 0)), tables.Replacements)).To(Equal("a =0 + 2;"))
	g.Expect(j.JoinTree(tr, tree.NewNodeSet(find("stmt", 0)), tables.Replacements)).To(Equal("{}"))
	g.Expect(j.JoinTree(tr, tree.NewNodeSet(find(tree.ListItem, 0)), tables.Replacements)).To(Equal(""))
	g.Expect(j.JoinTree(tr, tree.NewNodeSet(find("factor", 0)), nil)).To(Equal("a = + 2;"))
}

func TestJoinTreePlusList(t *testing.T) {
	g := NewGomegaWithT(t)
	j := NewJoiner(arith(g).Lexer(), false)

	tr := tree.New()
	first := tr.NewInner(tree.ListItem, tr.NewLeaf(tree.NewToken("ID", "a")))
	second := tr.NewInner(tree.ListItem, tr.NewLeaf(tree.NewToken("ID", "b")))
	tr.SetExpected(first, "ID")
	tr.SetExpected(second, "ID")
	tr.SetRoot(tr.NewInner("list", tr.NewInner(tree.Plus, first, second)))
	replacements := map[tree.Symbol][]tree.Token{"ID": {tree.NewToken("ID", "x")}}

	g.Expect(j.JoinTree(tr, nil, replacements)).To(Equal("a b"))
	g.Expect(j.JoinTree(tr, tree.NewNodeSet(first), replacements)).To(Equal("b"))
	g.Expect(j.JoinTree(tr, tree.NewNodeSet(second), replacements)).To(Equal("a"))
	g.Expect(j.JoinTree(tr, tree.NewNodeSet(first, second), replacements)).To(Equal("x"))
}

func TestTryFormat(t *testing.T) {
	g := NewGomegaWithT(t)
	gr := arith(g)

	tr, err := gr.Parse("a = 1;\nb = 2;")
	g.Expect(err).ToNot(HaveOccurred())

	// drop "b" and with it the newline in front of it
	tokens := tr.Tokens(tr.Root())
	partial := []tree.Token{tokens[0], tokens[1], tokens[2], tokens[3], tokens[5], tokens[6], tokens[7]}

	plain := NewJoiner(gr.Lexer(), false)
	formatted := NewJoiner(gr.Lexer(), true)
	g.Expect(plain.Join(tokens)).To(Equal("a = 1;\nb = 2;"))
	g.Expect(formatted.Join(tokens)).To(Equal("a = 1;\nb = 2;"))
	g.Expect(plain.Join(partial)).To(Equal("a = 1; = 2;"))
	g.Expect(formatted.Join(partial)).To(Equal("a = 1;\n = 2;"))
}

func TestJoinReplacements(t *testing.T) {
	g := NewGomegaWithT(t)
	j := NewJoiner(arith(g).Lexer(), false)

	joined := j.JoinReplacements(map[tree.Symbol][]tree.Token{
		"stmt": {tree.NewToken("ID", "a"), tree.NewToken("'='", "="), tree.NewToken("NUM", "0"), tree.NewToken("';'", ";")},
	})
	g.Expect(joined).To(HaveKeyWithValue(tree.Symbol("stmt"), "a=0;"))
}
