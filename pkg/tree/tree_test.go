package tree

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	. "github.com/onsi/gomega"
)

// expr builds Expr(Add(Num("1"), PLUS, Num("2"))) with a space before the
// operator and the second number.
func expr() (t *Tree, add, one, two NodeID) {
	t = New()
	one = t.NewInner("num", t.NewLeaf(tok("NUM", "1", "", 0)))
	plus := t.NewLeaf(tok("PLUS", "+", " ", 2))
	two = t.NewInner("num", t.NewLeaf(tok("NUM", "2", " ", 4)))
	add = t.NewInner("add", one, plus, two)
	t.SetRoot(t.NewInner("expr", add))
	return
}

func tok(symbol Symbol, text, space string, offset int) Token {
	token := Token{
		Symbol: symbol,
		Text:   text,
		Begin:  Position{Offset: offset, Line: 1, Column: offset},
		End:    Position{Offset: offset + len(text), Line: 1, Column: offset + len(text)},
	}
	if space != "" {
		token.Skipped = []Token{{Symbol: "WS", Text: space, Begin: Position{Offset: offset - len(space)}}}
	}
	return token
}

func TestTreeBasics(t *testing.T) {
	g := NewGomegaWithT(t)
	tr, add, one, _ := expr()

	g.Expect(tr.Print(tr.Root())).To(Equal("1 + 2"))
	g.Expect(tr.Size(tr.Root())).To(Equal(7))
	g.Expect(tr.NumberOfTerminals(tr.Root())).To(Equal(3))
	g.Expect(tr.Parent(one)).To(Equal(add))
	g.Expect(tr.Parent(tr.Root())).To(Equal(None))
	g.Expect(tr.String()).To(Equal(`(expr (add (num NUM:"1") PLUS:"+" (num NUM:"2")))`))
}

func TestReplaceWithKeepsExpectedSymbol(t *testing.T) {
	g := NewGomegaWithT(t)
	tr, add, one, _ := expr()

	tr.ReplaceWith(add, one)

	g.Expect(tr.Print(tr.Root())).To(Equal("1"))
	g.Expect(tr.Symbol(one)).To(Equal(Symbol("num")))
	g.Expect(tr.Expected(one)).To(Equal(Symbol("add")))
	g.Expect(tr.Parent(one)).To(Equal(tr.Root()))
	g.Expect(tr.Parent(add)).To(Equal(None))
}

func TestReplaceRoot(t *testing.T) {
	g := NewGomegaWithT(t)
	tr, _, _, two := expr()

	tr.ReplaceWith(tr.Root(), two)

	g.Expect(tr.Root()).To(Equal(two))
	g.Expect(tr.Print(tr.Root())).To(Equal(" 2"))
}

func TestCloneIsIndependent(t *testing.T) {
	g := NewGomegaWithT(t)
	tr, add, one, _ := expr()

	clone := tr.Clone()
	clone.ReplaceWith(add, one)

	g.Expect(tr.Print(tr.Root())).To(Equal("1 + 2"))
	g.Expect(clone.Print(clone.Root())).To(Equal("1"))
	g.Expect(clone.Symbol(one)).To(Equal(tr.Symbol(one)))
}

func TestPrune(t *testing.T) {
	g := NewGomegaWithT(t)
	tr, add, _, two := expr()

	pruned := tr.Prune(NewNodeSet(two))

	g.Expect(pruned.Print(pruned.Root())).To(Equal("1 +"))
	g.Expect(pruned.NumChildren(add)).To(Equal(2))
	g.Expect(tr.NumChildren(add)).To(Equal(3))

	g.Expect(tr.Prune(NewNodeSet(tr.Root())).Root()).To(Equal(None))
}

func TestPrunedTokens(t *testing.T) {
	tr, _, one, _ := expr()

	pruned := tr.Prune(NewNodeSet(one))

	want := []Token{tok("PLUS", "+", " ", 2), tok("NUM", "2", " ", 4)}
	if diff := cmp.Diff(want, pruned.Tokens(pruned.Root())); diff != "" {
		t.Errorf("unexpected tokens (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(tr.Tokens(tr.Root()), tr.Clone().Tokens(tr.Root())); diff != "" {
		t.Errorf("clone changed the tokens (-want +got):\n%s", diff)
	}
}

func TestAuxiliaryNodes(t *testing.T) {
	g := NewGomegaWithT(t)
	tr := New()
	item := tr.NewInner(ListItem, tr.NewLeaf(NewToken("A", "a")))
	plus := tr.NewInner(Plus, item)
	tr.SetRoot(tr.NewInner("list", plus))

	g.Expect(tr.IsQuantifier(plus)).To(BeTrue())
	g.Expect(tr.IsAuxiliary(plus)).To(BeTrue())
	g.Expect(tr.IsListItem(item)).To(BeTrue())
	g.Expect(tr.IsAuxiliary(tr.Root())).To(BeFalse())
	g.Expect(tr.Token(tr.Child(item, 0)).IsOriginal()).To(BeFalse())
}

func TestFold(t *testing.T) {
	g := NewGomegaWithT(t)
	tr, _, _, _ := expr()

	depth := Fold(tr, tr.Root(),
		func(NodeID, Token) int { return 1 },
		func(_ NodeID, _ Symbol, children []int) int {
			max := 0
			for _, c := range children {
				if c > max {
					max = c
				}
			}
			return max + 1
		})
	g.Expect(depth).To(Equal(4))
}

func TestNodeSetSorted(t *testing.T) {
	g := NewGomegaWithT(t)
	s := NewNodeSet(5, 1, 3)
	g.Expect(s.Sorted()).To(Equal([]NodeID{1, 3, 5}))
	g.Expect(s.Has(3)).To(BeTrue())
	g.Expect(NodeSet(nil).Has(3)).To(BeFalse())
}

func TestStatistics(t *testing.T) {
	g := NewGomegaWithT(t)
	tr := New()
	first := tr.NewInner(ListItem, tr.NewLeaf(NewToken("A", "a")))
	second := tr.NewInner(ListItem, tr.NewLeaf(NewToken("A", "a")))
	star := tr.NewInner(Star, first, second)
	opt := tr.NewInner(Optional, tr.NewInner(ListItem, tr.NewLeaf(NewToken("B", "b"))))
	tr.SetRoot(tr.NewInner("list", star, opt))

	g.Expect(tr.Statistics(tr.Root())).To(Equal(Statistics{
		Terminals:             3,
		NonTerminals:          6,
		Auxiliary:             5,
		Quantifiers:           2,
		SingleItemQuantifiers: 1,
		ListItems:             3,
	}))
	g.Expect(tr.Statistics(None)).To(Equal(Statistics{}))
}

func TestTokenAppendTo(t *testing.T) {
	g := NewGomegaWithT(t)
	var b strings.Builder
	b.WriteString("x")
	tok("PLUS", "+", " ", 2).AppendTo(&b)
	tok("NUM", "1", "", 3).AppendTo(&b)
	g.Expect(b.String()).To(Equal("x +1"))
	g.Expect(tok("NUM", "2", "\t", 4).String()).To(Equal("\t2"))
}
