package order

import (
	"testing"

	. "github.com/onsi/gomega"

	"github.com/rmohr/treereduce/pkg/tree"
)

// sample builds (r (a x y) (b z)) and returns the tree and its ids.
func sample() (*tree.Tree, map[string]tree.NodeID) {
	t := tree.New()
	ids := map[string]tree.NodeID{}
	leaf := func(name string) tree.NodeID {
		ids[name] = t.NewLeaf(tree.NewToken(tree.Symbol(name), name))
		return ids[name]
	}
	x, y, z := leaf("x"), leaf("y"), leaf("z")
	ids["a"] = t.NewInner("a", x, y)
	ids["b"] = t.NewInner("b", z)
	ids["r"] = t.NewInner("r", ids["a"], ids["b"])
	t.SetRoot(ids["r"])
	return t, ids
}

func TestTraverse(t *testing.T) {
	tests := []struct {
		name        string
		rightToLeft bool
		want        []string
	}{
		{
			name: "should visit nodes breadth first",
			want: []string{"r", "a", "b", "x", "y", "z"},
		},
		{
			name:        "should visit children from right to left",
			rightToLeft: true,
			want:        []string{"r", "b", "a", "z", "y", "x"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := NewGomegaWithT(t)
			tr, ids := sample()
			var want []tree.NodeID
			for _, name := range tt.want {
				want = append(want, ids[name])
			}
			g.Expect(Traverse(tr, tr.Root(), tt.rightToLeft)).To(Equal(want))
		})
	}
}

func TestBFSRank(t *testing.T) {
	g := NewGomegaWithT(t)
	tr, ids := sample()
	rank := BFSRank(tr, tr.Root())
	g.Expect(rank).To(HaveLen(6))
	g.Expect(rank[ids["r"]]).To(Equal(6))
	g.Expect(rank[ids["b"]]).To(Equal(5))
	g.Expect(rank[ids["a"]]).To(Equal(4))
	g.Expect(rank[ids["z"]]).To(Equal(3))
	g.Expect(rank[ids["x"]]).To(Equal(1))

	g.Expect(BFSRank(tr, tree.None)).To(BeEmpty())
}

func TestPriority(t *testing.T) {
	g := NewGomegaWithT(t)
	g.Expect(Priority{3, 1}.Before(Priority{2, 9})).To(BeTrue())
	g.Expect(Priority{3, 1}.Before(Priority{3, 2})).To(BeFalse())
	g.Expect(Priority{3, -1}.Before(Priority{3, -2})).To(BeTrue())
	g.Expect(Priority{3, 1}.Before(Priority{3, 1})).To(BeFalse())
	g.Expect(Priority{3, 1}.Equal(Priority{3, 1})).To(BeTrue())
}

func TestWorklist(t *testing.T) {
	g := NewGomegaWithT(t)
	w := NewWorklist()
	_, _, ok := w.Peek()
	g.Expect(ok).To(BeFalse())

	w.Push(4, Priority{1, 7})
	w.Push(2, Priority{5, 1})
	w.Push(9, Priority{5, 3})
	w.Push(1, Priority{1, 7})
	w.Push(3, Priority{1, 7})

	id, p, ok := w.Peek()
	g.Expect(ok).To(BeTrue())
	g.Expect(id).To(Equal(tree.NodeID(9)))
	g.Expect(p).To(Equal(Priority{5, 3}))

	var order []tree.NodeID
	for w.Len() > 0 {
		id, _ := w.Pop()
		order = append(order, id)
	}
	// equal priorities come out by ascending id
	g.Expect(order).To(Equal([]tree.NodeID{9, 2, 1, 3, 4}))
}
