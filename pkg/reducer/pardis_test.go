package reducer

import (
	"math"
	"testing"

	. "github.com/onsi/gomega"

	"github.com/rmohr/treereduce/pkg/dd"
	"github.com/rmohr/treereduce/pkg/order"
	"github.com/rmohr/treereduce/pkg/tree"
)

// sample builds (r (a x y) (b z)) and returns the ids by name.
func sample() (*tree.Tree, map[string]tree.NodeID) {
	t := tree.New()
	ids := map[string]tree.NodeID{}
	leaf := func(name string) tree.NodeID {
		ids[name] = t.NewLeaf(tree.NewToken(tree.Symbol(name), name))
		return ids[name]
	}
	ids["a"] = t.NewInner("a", leaf("x"), leaf("y"))
	ids["b"] = t.NewInner("b", leaf("z"))
	ids["r"] = t.NewInner("r", ids["a"], ids["b"])
	t.SetRoot(ids["r"])
	return t, ids
}

func TestPriorities(t *testing.T) {
	tr, ids := sample()
	bfs := order.BFSRank(tr, tr.Root())

	tests := []struct {
		name     string
		priority PriorityFunc
		node     string
		want     order.Priority
	}{
		{name: "pardis", priority: PardisPriority, node: "a", want: order.Priority{2, 4}},
		{name: "pardis root", priority: PardisPriority, node: "r", want: order.Priority{3, 6}},
		{name: "hybrid", priority: HybridPriority, node: "a", want: order.Priority{2, 6, 4}},
		{name: "hybrid root", priority: HybridPriority, node: "r", want: order.Priority{3, math.MaxInt, 6}},
		{name: "perses", priority: PersesPriority, node: "b", want: order.Priority{3, 6, -5}},
		{name: "perses root", priority: PersesPriority, node: "r", want: order.Priority{math.MaxInt, math.MaxInt, -6}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := NewGomegaWithT(t)
			g.Expect(tt.priority(tr, ids[tt.node], bfs)).To(Equal(tt.want))
		})
	}
}

func TestPardisHybridBatches(t *testing.T) {
	tr, ids := sample()
	for _, hybrid := range []bool{true, false} {
		g := NewGomegaWithT(t)
		p := &pardisPass{Pardis: &Pardis{Hybrid: hybrid}, t: tr, worklist: order.NewWorklist()}
		p.worklist.Push(ids["a"], order.Priority{1, 6, 4})
		p.worklist.Push(ids["b"], order.Priority{1, 6, 5})
		p.worklist.Push(ids["x"], order.Priority{1, 4, 1})

		if hybrid {
			g.Expect(p.next()).To(Equal([]tree.NodeID{ids["b"], ids["a"]}))
			g.Expect(p.next()).To(Equal([]tree.NodeID{ids["x"]}))
		} else {
			g.Expect(p.next()).To(Equal([]tree.NodeID{ids["b"]}))
		}
	}
}

func TestPardisNullabilityPruning(t *testing.T) {
	checks := func(g *WithT, pruning bool) int {
		f := newFixture(g)
		red, err := dd.New("OPDD")
		g.Expect(err).ToNot(HaveOccurred())
		p := &Pardis{
			Joiner:             f.joiner,
			ListReduction:      red,
			Priority:           PardisPriority,
			NullabilityPruning: pruning,
		}
		rec := &recorder{holds: func(string) bool { return false }}
		result, r := reduce(g, f.parse(g, "a = 1;\n{ b = 2; }\n"), p, rec, false)
		g.Expect(result).To(Equal("a = 1;\n{ b = 2; }\n"))
		return r.NumberOfChecks()
	}

	g := NewGomegaWithT(t)
	pruned := checks(g, true)
	g.Expect(pruned).To(BeNumerically(">", 0))
	g.Expect(checks(g, false)).To(BeNumerically(">", pruned))
}

func TestPardisNullable(t *testing.T) {
	g := NewGomegaWithT(t)
	f := newFixture(g)
	tr := f.parse(g, "a = 1;\n{ b = 2; }\n")
	p := &pardisPass{Pardis: &Pardis{NullabilityPruning: true}, t: tr, removed: tree.NodeSet{}}

	var items []tree.NodeID
	var plus tree.NodeID
	for _, id := range tr.Nodes(tr.Root()) {
		if tr.IsListItem(id) {
			items = append(items, id)
		}
		if tr.Symbol(id) == tree.Plus {
			plus = id
		}
	}
	g.Expect(items).To(HaveLen(3))
	top, block, inner := items[0], items[1], items[2]

	g.Expect(p.nullable(top)).To(BeTrue())
	g.Expect(p.nullable(inner)).To(BeFalse())
	g.Expect(p.nullable(plus)).To(BeFalse())
	g.Expect(p.nullable(tr.Root())).To(BeFalse())

	p.removed.Add(top)
	g.Expect(p.nullable(block)).To(BeFalse())

	p.NullabilityPruning = false
	g.Expect(p.nullable(inner)).To(BeTrue())
	g.Expect(p.nullable(block)).To(BeFalse())
}
