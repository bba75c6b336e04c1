package order

import (
	"container/heap"

	"github.com/rmohr/treereduce/pkg/tree"
)

// BFSRank numbers the subtree rooted at root breadth first, visiting the
// children of a node from right to left. The root gets the size of the
// subtree, every following node one less than its predecessor. A higher
// rank therefore means closer to the root and further right.
func BFSRank(t *tree.Tree, root tree.NodeID) map[tree.NodeID]int {
	rank := map[tree.NodeID]int{}
	if root == tree.None {
		return rank
	}
	next := t.Size(root)
	for _, id := range Traverse(t, root, true) {
		rank[id] = next
		next--
	}
	return rank
}

// Traverse returns the nodes of the subtree rooted at root in breadth first
// order.
func Traverse(t *tree.Tree, root tree.NodeID, rightToLeft bool) (ids []tree.NodeID) {
	queue := []tree.NodeID{root}
	for {
		if len(queue) == 0 {
			break
		}
		next := queue[0]
		queue = queue[1:]
		ids = append(ids, next)
		children := t.Children(next)
		if rightToLeft {
			for i := len(children) - 1; i >= 0; i-- {
				queue = append(queue, children[i])
			}
		} else {
			queue = append(queue, children...)
		}
	}
	return
}

// Priority is compared lexicographically, higher values first.
type Priority []int

// Before reports whether p is served before o.
func (p Priority) Before(o Priority) bool {
	for i := 0; i < len(p) && i < len(o); i++ {
		if p[i] != o[i] {
			return p[i] > o[i]
		}
	}
	return len(p) > len(o)
}

func (p Priority) Equal(o Priority) bool {
	if len(p) != len(o) {
		return false
	}
	for i := range p {
		if p[i] != o[i] {
			return false
		}
	}
	return true
}

type entry struct {
	id       tree.NodeID
	priority Priority
}

type entries []entry

func (e entries) Len() int { return len(e) }

// Less breaks ties between equal priorities by the lower node id.
func (e entries) Less(i, j int) bool {
	if e[i].priority.Equal(e[j].priority) {
		return e[i].id < e[j].id
	}
	return e[i].priority.Before(e[j].priority)
}

func (e entries) Swap(i, j int) { e[i], e[j] = e[j], e[i] }

func (e *entries) Push(x interface{}) { *e = append(*e, x.(entry)) }

func (e *entries) Pop() interface{} {
	old := *e
	last := old[len(old)-1]
	*e = old[:len(old)-1]
	return last
}

// Worklist is a priority queue of tree nodes.
type Worklist struct {
	entries entries
}

func NewWorklist() *Worklist {
	return &Worklist{}
}

func (w *Worklist) Len() int {
	return w.entries.Len()
}

func (w *Worklist) Push(id tree.NodeID, priority Priority) {
	heap.Push(&w.entries, entry{id: id, priority: priority})
}

func (w *Worklist) Pop() (tree.NodeID, Priority) {
	e := heap.Pop(&w.entries).(entry)
	return e.id, e.priority
}

// Peek returns the next node without removing it.
func (w *Worklist) Peek() (tree.NodeID, Priority, bool) {
	if w.Len() == 0 {
		return tree.None, nil, false
	}
	return w.entries[0].id, w.entries[0].priority, true
}
