package reducer

import (
	"math"

	"github.com/rmohr/treereduce/pkg/dd"
	"github.com/rmohr/treereduce/pkg/order"
	"github.com/rmohr/treereduce/pkg/printer"
	"github.com/rmohr/treereduce/pkg/run"
	"github.com/rmohr/treereduce/pkg/tree"
)

// PriorityFunc ranks a node for the Pardis worklist. bfs is the breadth
// first rank of every node at the start of the iteration.
type PriorityFunc func(t *tree.Tree, id tree.NodeID, bfs map[tree.NodeID]int) order.Priority

var (
	// PardisPriority prefers nodes with many terminals.
	PardisPriority PriorityFunc = func(t *tree.Tree, id tree.NodeID, bfs map[tree.NodeID]int) order.Priority {
		return order.Priority{t.NumberOfTerminals(id), bfs[id]}
	}
	// HybridPriority groups siblings of equal weight.
	HybridPriority PriorityFunc = func(t *tree.Tree, id tree.NodeID, bfs map[tree.NodeID]int) order.Priority {
		parentRank := math.MaxInt
		if parent := t.Parent(id); parent != tree.None {
			parentRank = bfs[parent]
		}
		return order.Priority{t.NumberOfTerminals(id), parentRank, bfs[id]}
	}
	// PersesPriority ranks nodes by their parent, siblings left to right.
	PersesPriority PriorityFunc = func(t *tree.Tree, id tree.NodeID, bfs map[tree.NodeID]int) order.Priority {
		parent := t.Parent(id)
		if parent == tree.None {
			return order.Priority{math.MaxInt, math.MaxInt, -bfs[id]}
		}
		return order.Priority{t.NumberOfTerminals(parent), bfs[parent], -bfs[id]}
	}
)

// Pardis tries to delete nullable nodes in priority order. Nodes that can't
// be deleted are descended into.
type Pardis struct {
	Joiner        *printer.Joiner
	ListReduction dd.Reduction
	Priority      PriorityFunc
	// Hybrid pops all nodes of equal weight that share a parent at once.
	Hybrid bool
	// NullabilityPruning skips nodes whose deletion was already tried by
	// deleting an ancestor.
	NullabilityPruning bool
	Fixpoint           bool

	name string
}

func newPardis(priority PriorityFunc, hybrid bool) factory {
	return func(cfg Config, name string, fixpoint bool) (run.Reducer, error) {
		red, err := cfg.listReduction("OPDD")
		if err != nil {
			return nil, err
		}
		return &Pardis{
			Joiner:             cfg.Joiner,
			ListReduction:      red,
			Priority:           priority,
			Hybrid:             hybrid,
			NullabilityPruning: true,
			Fixpoint:           fixpoint,
			name:               name,
		}, nil
	}
}

func (p *Pardis) Name() string {
	name := p.name
	if name == "" {
		name = "Pardis"
	}
	return displayName(name, p.Fixpoint)
}

func (p *Pardis) Reduce(t *tree.Tree, r *run.Run) (string, error) {
	best := t
	return repeat(r, len(t.Print(t.Root())), p.Fixpoint, func() (string, error) {
		pass := &pardisPass{Pardis: p, t: best, removed: tree.NodeSet{}}
		if err := pass.iterate(r); err != nil {
			return "", err
		}
		best = best.Prune(pass.removed)
		return p.Joiner.JoinTree(best, nil, nil), nil
	})
}

type pardisPass struct {
	*Pardis
	t        *tree.Tree
	removed  tree.NodeSet
	bfs      map[tree.NodeID]int
	priority map[tree.NodeID]order.Priority
	worklist *order.Worklist
}

func (p *pardisPass) iterate(r *run.Run) error {
	p.bfs = order.BFSRank(p.t, p.t.Root())
	p.priority = map[tree.NodeID]order.Priority{}
	p.worklist = order.NewWorklist()
	p.push(p.t.Root())

	for p.worklist.Len() > 0 {
		var nullable []tree.NodeID
		for _, id := range p.next() {
			if p.nullable(id) {
				nullable = append(nullable, id)
			} else {
				p.push(p.t.Children(id)...)
			}
		}
		if len(nullable) == 0 {
			continue
		}
		kept, err := p.reduceList(r, nullable)
		if err != nil {
			return err
		}
		for _, id := range kept {
			p.push(p.t.Children(id)...)
		}
	}
	return nil
}

func (p *pardisPass) push(ids ...tree.NodeID) {
	for _, id := range nonTerminals(p.t, ids) {
		if p.removed.Has(id) {
			continue
		}
		prio, cached := p.priority[id]
		if !cached {
			prio = p.Priority(p.t, id, p.bfs)
			p.priority[id] = prio
		}
		p.worklist.Push(id, prio)
	}
}

// next pops the head of the worklist. In hybrid mode following nodes of the
// same weight and parent come along.
func (p *pardisPass) next() []tree.NodeID {
	head, prio := p.worklist.Pop()
	nodes := []tree.NodeID{head}
	if !p.Hybrid {
		return nodes
	}
	parent := p.t.Parent(head)
	for {
		id, next, ok := p.worklist.Peek()
		if !ok || next[0] != prio[0] || p.t.Parent(id) != parent {
			return nodes
		}
		p.worklist.Pop()
		nodes = append(nodes, id)
	}
}

func (p *pardisPass) nullable(id tree.NodeID) bool {
	symbol := p.t.Symbol(id)
	if symbol != tree.ListItem && symbol != tree.Star && symbol != tree.Optional {
		return false
	}
	parent := p.t.Parent(id)
	if parent == tree.None {
		return true
	}
	if p.t.Symbol(parent) == tree.Plus && keptChildren(p.t, parent, p.removed) == 1 {
		return false
	}
	if !p.NullabilityPruning || keptChildren(p.t, parent, p.removed) != 1 {
		return true
	}
	if symbol == tree.ListItem {
		return false
	}
	for chain := parent; ; chain = p.t.Parent(chain) {
		above := p.t.Parent(chain)
		if above == tree.None || keptChildren(p.t, above, p.removed) != 1 {
			return true
		}
		if s := p.t.Symbol(above); s == tree.Star || s == tree.Optional {
			return false
		}
	}
}

// reduceList deletes as many of the nodes as possible. The last kept item of
// a PLUS list stays.
func (p *pardisPass) reduceList(r *run.Run, nodes []tree.NodeID) ([]tree.NodeID, error) {
	keepOne := false
	if parent := p.t.Parent(nodes[0]); parent != tree.None && p.t.Symbol(parent) == tree.Plus {
		batch := tree.NewNodeSet(nodes...)
		keepOne = true
		for _, item := range p.t.Children(parent) {
			if !p.removed.Has(item) && !batch.Has(item) {
				keepOne = false
				break
			}
		}
	}
	kept, err := dd.Reduce(p.ListReduction, nodes, func(candidate []tree.NodeID) (bool, error) {
		if keepOne && len(candidate) == 0 {
			return false, nil
		}
		return r.Test(p.Joiner.JoinTree(p.t, removedExcept(p.removed, nodes, candidate), nil))
	}, !keepOne)
	if err != nil {
		return nil, err
	}
	p.removed = removedExcept(p.removed, nodes, kept)
	return kept, nil
}
