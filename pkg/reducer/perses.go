package reducer

import (
	"sort"

	"github.com/rmohr/treereduce/pkg/dd"
	"github.com/rmohr/treereduce/pkg/grammar"
	"github.com/rmohr/treereduce/pkg/order"
	"github.com/rmohr/treereduce/pkg/printer"
	"github.com/rmohr/treereduce/pkg/run"
	"github.com/rmohr/treereduce/pkg/tree"
)

const (
	DefaultBFSDepth = 4
	UnboundedBFS    = -1

	PreReducerMinNodes = 1000
	PreReducerMaxNodes = 50000
)

// Perses processes the nodes with the most terminals first. A node is
// replaced by its smallest compatible descendant, the items of a list are
// reduced with a list reduction.
type Perses struct {
	Joiner        *printer.Joiner
	Subsumption   map[tree.Symbol]grammar.SymbolSet
	ListReduction dd.Reduction
	// BFSDepth bounds the search for replacement descendants.
	BFSDepth int
	// SkipRegularNodes only reduces lists.
	SkipRegularNodes bool
	// Subtrees with fewer nodes than MinNodes are skipped, subtrees with
	// more than MaxNodes are only descended into. Zero disables a bound.
	MinNodes int
	MaxNodes int
	Fixpoint bool

	name string
}

func newPerses(bfsDepth int, skipRegular bool, minNodes, maxNodes int) factory {
	return func(cfg Config, name string, fixpoint bool) (run.Reducer, error) {
		red, err := cfg.listReduction("DDMin")
		if err != nil {
			return nil, err
		}
		tables, err := cfg.tables(name)
		if err != nil {
			return nil, err
		}
		return &Perses{
			Joiner:           cfg.Joiner,
			Subsumption:      tables.Subsumption,
			ListReduction:    red,
			BFSDepth:         bfsDepth,
			SkipRegularNodes: skipRegular,
			MinNodes:         minNodes,
			MaxNodes:         maxNodes,
			Fixpoint:         fixpoint,
			name:             name,
		}, nil
	}
}

func (p *Perses) Name() string {
	name := p.name
	if name == "" {
		name = "Perses"
	}
	return displayName(name, p.Fixpoint)
}

func (p *Perses) serialize(t *tree.Tree) string {
	return p.Joiner.JoinTree(t, nil, nil)
}

func (p *Perses) Reduce(t *tree.Tree, r *run.Run) (string, error) {
	best := t.Clone()
	return repeat(r, len(p.serialize(best)), p.Fixpoint, func() (string, error) {
		reduced, err := p.iterate(best, r)
		if err != nil {
			return "", err
		}
		best = reduced
		return p.serialize(best), nil
	})
}

func (p *Perses) iterate(t *tree.Tree, r *run.Run) (*tree.Tree, error) {
	worklist := order.NewWorklist()
	p.push(worklist, t, t.Root())

	for worklist.Len() > 0 {
		current, _ := worklist.Pop()
		if !attached(t, current) {
			continue
		}
		size := t.Size(current)

		var next []tree.NodeID
		var err error
		switch {
		case p.MinNodes > 0 && size < p.MinNodes:
			continue
		case p.MaxNodes > 0 && size > p.MaxNodes:
			next = t.Children(current)
		case t.IsQuantifier(current):
			next, err = p.reduceQuantifier(t, current, r)
		case p.SkipRegularNodes:
			next = t.Children(current)
		default:
			t, next, err = p.reduceRegular(t, current, r)
		}
		if err != nil {
			return nil, err
		}
		p.push(worklist, t, next...)
	}
	return t, nil
}

// push queues inner nodes by their number of terminals. Ties are broken by
// the breadth first rank in the current tree.
func (p *Perses) push(worklist *order.Worklist, t *tree.Tree, ids ...tree.NodeID) {
	ids = nonTerminals(t, ids)
	if len(ids) == 0 {
		return
	}
	rank := order.BFSRank(t, t.Root())
	for _, id := range ids {
		worklist.Push(id, order.Priority{t.NumberOfTerminals(id), rank[id]})
	}
}

// reduceRegular tries to replace a node by one of its descendants. On
// success the modified copy of the tree is returned.
func (p *Perses) reduceRegular(t *tree.Tree, id tree.NodeID, r *run.Run) (*tree.Tree, []tree.NodeID, error) {
	expected := t.Expected(id)
	subsumed := p.Subsumption[expected]
	compatible := func(symbol tree.Symbol) bool {
		return symbol == expected || subsumed.Has(symbol)
	}

	start := id
	if t.IsListItem(id) && t.NumChildren(id) == 1 {
		start = t.Child(id, 0)
	}

	candidates := boundedBFS(t, start, p.BFSDepth, func(c tree.NodeID) bool {
		return compatible(t.Symbol(c))
	})
	if parent := t.Parent(id); parent != tree.None {
		if symbol := t.Symbol(parent); symbol == tree.Star || symbol == tree.Plus {
			candidates = append(candidates, boundedBFS(t, start, p.BFSDepth, func(c tree.NodeID) bool {
				// empty lists would leave an empty item
				if !t.IsQuantifier(c) || t.NumChildren(c) == 0 {
					return false
				}
				for _, item := range t.Children(c) {
					if !compatible(t.Expected(item)) {
						return false
					}
				}
				return true
			})...)
		}
	}

	lengths := make(map[tree.NodeID]int, len(candidates))
	for _, c := range candidates {
		lengths[c] = len(t.Print(c))
	}
	sort.SliceStable(candidates, func(i, j int) bool {
		return lengths[candidates[i]] < lengths[candidates[j]]
	})

	for _, candidate := range candidates {
		c := t.Clone()
		replacement := candidate
		if c.IsListItem(id) {
			replacement = c.NewInner(tree.ListItem, candidate)
		}
		c.ReplaceWith(id, replacement)
		ok, err := r.Test(p.serialize(c))
		if err != nil {
			return t, nil, err
		}
		if ok {
			return c, []tree.NodeID{replacement}, nil
		}
	}
	return t, t.Children(id), nil
}

// reduceQuantifier reduces the items of a list in place. PLUS lists keep at
// least one item.
func (p *Perses) reduceQuantifier(t *tree.Tree, id tree.NodeID, r *run.Run) ([]tree.NodeID, error) {
	items := append([]tree.NodeID(nil), t.Children(id)...)
	if len(items) == 0 {
		return nil, nil
	}
	keepOne := t.Symbol(id) == tree.Plus
	kept, err := dd.Reduce(p.ListReduction, items, func(candidate []tree.NodeID) (bool, error) {
		if keepOne && len(candidate) == 0 {
			return false, nil
		}
		return r.Test(p.Joiner.JoinTree(t, removedExcept(nil, items, candidate), nil))
	}, !keepOne)
	if err != nil {
		return nil, err
	}
	t.SetChildren(id, kept)
	return kept, nil
}

// boundedBFS collects the descendants of a node that match, looking at most
// depth levels deep. Matches are not descended into.
func boundedBFS(t *tree.Tree, id tree.NodeID, depth int, match func(tree.NodeID) bool) []tree.NodeID {
	var result []tree.NodeID
	queue := append([]tree.NodeID(nil), t.Children(id)...)
	remaining := depth
	for len(queue) > 0 && remaining != 0 {
		if remaining != UnboundedBFS {
			remaining--
		}
		level := queue
		queue = nil
		for _, candidate := range level {
			if match(candidate) {
				result = append(result, candidate)
				continue
			}
			if remaining != 0 {
				queue = append(queue, t.Children(candidate)...)
			}
		}
	}
	return result
}

// attached reports whether a node is still part of the tree.
func attached(t *tree.Tree, id tree.NodeID) bool {
	for id != t.Root() {
		id = t.Parent(id)
		if id == tree.None {
			return false
		}
	}
	return true
}
