package reducer

import (
	"strings"
	"testing"

	. "github.com/onsi/gomega"

	"github.com/rmohr/treereduce/pkg/dd"
	"github.com/rmohr/treereduce/pkg/tree"
)

// sum builds (expr (add (num NUM:"1") (num NUM:"2"))).
func sum() *tree.Tree {
	t := tree.New()
	one := t.NewInner("num", t.NewLeaf(tree.NewToken("NUM", "1")))
	two := t.NewInner("num", t.NewLeaf(tree.NewToken("NUM", "2")))
	t.SetRoot(t.NewInner("expr", t.NewInner("add", one, two)))
	return t
}

func TestHDDKeepsTheBranchWithTheProperty(t *testing.T) {
	g := NewGomegaWithT(t)
	f := newFixture(g)
	red, err := New("BaseHDD", f.config())
	g.Expect(err).ToNot(HaveOccurred())

	rec := &recorder{holds: func(text string) bool { return strings.Contains(text, "1") }}
	result, _ := reduce(g, sum(), red, rec, true)
	g.Expect(result).To(Equal("1"))
	g.Expect(rec.tested).To(ContainElement(""))
}

func TestHDDLevels(t *testing.T) {
	g := NewGomegaWithT(t)
	f := newFixture(g)
	tr := f.parse(g, "a = 1;\nb = 2;\n")
	p := (&HDDVariant{Joiner: f.joiner}).newPass(tr)

	level := p.levelNodes(tr.Root())
	g.Expect(level).To(HaveLen(3))
	g.Expect(tr.IsListItem(level[0])).To(BeTrue())
	g.Expect(tr.IsListItem(level[1])).To(BeTrue())
	g.Expect(tr.Symbol(level[2])).To(Equal(tree.EOF))

	p.SkipTerminalNodes = true
	g.Expect(p.levelNodes(tr.Root())).To(Equal(level[:2]))

	p.removed.Add(level[0])
	g.Expect(p.levelNodes(tr.Root())).To(Equal(level[1:2]))
}

func TestHDDHideUnremovable(t *testing.T) {
	checks := func(g *WithT, hide bool) int {
		f := newFixture(g)
		red, err := dd.New("DDMin")
		g.Expect(err).ToNot(HaveOccurred())
		h := &HDD{HDDVariant: HDDVariant{
			Joiner:          f.joiner,
			Replacements:    map[tree.Symbol][]tree.Token{"num": {tree.NewToken("NUM", "1")}},
			ListReduction:   red,
			HideUnremovable: hide,
		}}
		rec := &recorder{holds: func(string) bool { return false }}
		_, r := reduce(g, sum(), h, rec, false)
		return r.NumberOfChecks()
	}

	g := NewGomegaWithT(t)
	hidden := checks(g, true)
	g.Expect(hidden).To(BeNumerically(">", 0))
	g.Expect(checks(g, false)).To(BeNumerically(">", hidden))
}

func TestHDDrQueueOrder(t *testing.T) {
	tests := []struct {
		traversal  Traversal
		appendMode Append
		want       []tree.NodeID
	}{
		{traversal: DepthFirst, appendMode: Forward, want: []tree.NodeID{3, 4, 1, 2}},
		{traversal: DepthFirst, appendMode: Backward, want: []tree.NodeID{4, 3, 1, 2}},
		{traversal: BreadthFirst, appendMode: Forward, want: []tree.NodeID{1, 2, 3, 4}},
		{traversal: BreadthFirst, appendMode: Backward, want: []tree.NodeID{1, 2, 4, 3}},
	}
	for _, tt := range tests {
		g := NewGomegaWithT(t)
		h := &HDDr{Traversal: tt.traversal, Append: tt.appendMode}
		g.Expect(h.enqueue([]tree.NodeID{1, 2}, []tree.NodeID{3, 4})).To(Equal(tt.want))
	}
}
