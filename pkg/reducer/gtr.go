package reducer

import (
	"github.com/rmohr/treereduce/pkg/dd"
	"github.com/rmohr/treereduce/pkg/grammar"
	"github.com/rmohr/treereduce/pkg/printer"
	"github.com/rmohr/treereduce/pkg/run"
	"github.com/rmohr/treereduce/pkg/tree"
)

// DeletionFilter decides whether GTR may try to delete a node.
type DeletionFilter func(t *tree.Tree, id tree.NodeID) bool

// SubstitutionFilter decides whether GTR may try to replace a node by one of
// its descendants.
type SubstitutionFilter func(t *tree.Tree, substituted, substitution tree.NodeID) bool

func DeleteAll(*tree.Tree, tree.NodeID) bool { return true }

func SubstituteAll(*tree.Tree, tree.NodeID, tree.NodeID) bool { return true }

// GrammarFilter only admits transformations after which the parent still
// has a shape the grammar can produce.
type GrammarFilter struct {
	PossibleSubTrees map[tree.Symbol][]grammar.SubTreeSequence
	Subsumption      map[tree.Symbol]grammar.SymbolSet
}

func (f *GrammarFilter) CanDelete(t *tree.Tree, id tree.NodeID) bool {
	if t.IsListItem(id) {
		// PLUS lists are guarded during the list reduction
		return true
	}
	parent := t.Parent(id)
	if parent == tree.None || t.IsListItem(parent) {
		return false
	}
	return f.matchesOne(t, parent, id, tree.None)
}

func (f *GrammarFilter) CanSubstitute(t *tree.Tree, substituted, substitution tree.NodeID) bool {
	if t.IsAuxiliary(substituted) {
		return false
	}
	parent := t.Parent(substituted)
	if parent == tree.None {
		return false
	}
	if f.subsumes(t.Expected(substituted), t.Symbol(substitution)) {
		return true
	}
	if t.IsAuxiliary(parent) {
		return false
	}
	return f.matchesOne(t, parent, substituted, substitution)
}

func (f *GrammarFilter) subsumes(general, special tree.Symbol) bool {
	return general == special || f.Subsumption[general].Has(special)
}

// matchesOne checks the children of parent, with original replaced by
// replacement or deleted if replacement is None, against the possible
// shapes of the parent.
func (f *GrammarFilter) matchesOne(t *tree.Tree, parent, original, replacement tree.NodeID) bool {
	shapes, known := f.PossibleSubTrees[t.Symbol(parent)]
	if !known {
		return false
	}
	var children []tree.NodeID
	for _, child := range t.Children(parent) {
		switch {
		case child != original:
			children = append(children, child)
		case replacement != tree.None:
			children = append(children, replacement)
		}
	}
	for _, shape := range shapes {
		if len(shape) == 0 {
			if replacement == tree.None && t.NumChildren(parent) == 1 {
				return true
			}
			continue
		}
		if f.matches(t, shape[0], parent, children) {
			return true
		}
	}
	return false
}

func (f *GrammarFilter) matches(t *tree.Tree, shape *grammar.SubTree, parent tree.NodeID, children []tree.NodeID) bool {
	if !f.subsumes(shape.Symbol, t.Symbol(parent)) || len(shape.Children) != len(children) {
		return false
	}
	for i, child := range children {
		if !f.matchesExpected(t, child, shape.Children[i]) {
			return false
		}
	}
	return true
}

func (f *GrammarFilter) matchesExpected(t *tree.Tree, id tree.NodeID, shape *grammar.SubTree) bool {
	if !t.IsQuantifier(id) {
		return f.subsumes(shape.Symbol, t.Symbol(id))
	}
	if t.Symbol(id) != shape.Symbol || len(shape.Children) != 1 {
		return false
	}
	item := shape.Children[0].Symbol
	for _, child := range t.Children(id) {
		if !f.subsumes(item, t.Expected(child)) {
			return false
		}
	}
	return true
}

// GTR is generalized tree reduction: level by level, nodes are deleted with
// a list reduction and then replaced by smaller descendants.
type GTR struct {
	Joiner        *printer.Joiner
	ListReduction dd.Reduction
	CanDelete     DeletionFilter
	CanSubstitute SubstitutionFilter

	SkipTerminalNodes bool
	SkipTerminalTrees bool
	Fixpoint          bool

	name string
}

func newGTR(filtering bool) factory {
	return func(cfg Config, name string, fixpoint bool) (run.Reducer, error) {
		red, err := cfg.listReduction("DDMin")
		if err != nil {
			return nil, err
		}
		g := &GTR{
			Joiner:        cfg.Joiner,
			ListReduction: red,
			CanDelete:     DeleteAll,
			CanSubstitute: SubstituteAll,
			Fixpoint:      fixpoint,
			name:          name,
		}
		if filtering {
			tables, err := cfg.tables(name)
			if err != nil {
				return nil, err
			}
			filter := &GrammarFilter{PossibleSubTrees: tables.PossibleSubTrees, Subsumption: tables.Subsumption}
			g.CanDelete = filter.CanDelete
			g.CanSubstitute = filter.CanSubstitute
		}
		return g, nil
	}
}

func (g *GTR) Name() string {
	name := g.name
	if name == "" {
		name = "GTR"
	}
	return displayName(name, g.Fixpoint)
}

func (g *GTR) serialize(t *tree.Tree) string {
	return g.Joiner.JoinTree(t, nil, nil)
}

// Reduce runs GTR. The fixpoint variant iterates as long as the number of
// nodes goes down, hoisting a node can shrink the tree without changing the
// text.
func (g *GTR) Reduce(t *tree.Tree, r *run.Run) (string, error) {
	best := t
	size := func(string) int { return best.Size(best.Root()) }
	return repeatMeasured(r, size(""), g.Fixpoint, size, func() (string, error) {
		for level := 0; ; level++ {
			reachedEnd := true

			nodes := g.level(best, level)
			if len(nodes) > 0 {
				reachedEnd = false
				reduced, err := g.deleteNodes(best, nodes, r)
				if err != nil {
					return "", err
				}
				best = reduced
			}

			nodes = g.level(best, level)
			if len(nodes) > 0 {
				reachedEnd = false
				reduced, err := g.substituteNodes(best, nodes, r)
				if err != nil {
					return "", err
				}
				best = reduced
			}

			if reachedEnd {
				break
			}
		}
		return g.serialize(best), nil
	})
}

// level returns the nodes at the given depth. Quantifier nodes are not
// counted.
func (g *GTR) level(t *tree.Tree, level int) []tree.NodeID {
	var nodes []tree.NodeID
	var visit func(id tree.NodeID, current int)
	visit = func(id tree.NodeID, current int) {
		switch {
		case t.IsLeaf(id):
			if current == level && !g.SkipTerminalNodes {
				nodes = append(nodes, id)
			}
		case t.IsQuantifier(id):
			for _, child := range t.Children(id) {
				visit(child, current)
			}
		case g.SkipTerminalTrees && t.NumberOfTerminals(id) == 1:
		case current == level:
			nodes = append(nodes, id)
		default:
			for _, child := range t.Children(id) {
				visit(child, current+1)
			}
		}
	}
	if t.Root() != tree.None {
		visit(t.Root(), 0)
	}
	return nodes
}

// deleteNodes removes as many of the nodes as possible at once.
func (g *GTR) deleteNodes(t *tree.Tree, nodes []tree.NodeID, r *run.Run) (*tree.Tree, error) {
	var deletable []tree.NodeID
	plusLists := tree.NodeSet{}
	for _, id := range nodes {
		if !g.CanDelete(t, id) {
			continue
		}
		deletable = append(deletable, id)
		if parent := t.Parent(id); t.IsListItem(id) && t.Symbol(parent) == tree.Plus {
			plusLists.Add(parent)
		}
	}
	if len(deletable) == 0 {
		return t, nil
	}

	kept, err := dd.Reduce(g.ListReduction, deletable, func(candidate []tree.NodeID) (bool, error) {
		deleted := removedExcept(nil, deletable, candidate)
		for plus := range plusLists {
			if keptChildren(t, plus, deleted) == 0 {
				return false, nil
			}
		}
		return r.Test(g.Joiner.JoinTree(t, deleted, nil))
	}, true)
	if err != nil {
		return nil, err
	}
	return t.Prune(removedExcept(nil, deletable, kept)), nil
}

// substituteNodes hoists descendants into the place of the nodes until no
// smaller replacement passes.
func (g *GTR) substituteNodes(t *tree.Tree, nodes []tree.NodeID, r *run.Run) (*tree.Tree, error) {
	candidates := make(map[tree.NodeID][]tree.NodeID, len(nodes))
	replacements := make(map[tree.NodeID]tree.NodeID, len(nodes))
	for _, id := range nodes {
		replacements[id] = id
		for _, child := range descendantsThroughAuxiliary(t, id) {
			if g.CanSubstitute(t, id, child) {
				candidates[id] = append(candidates[id], child)
			}
		}
	}

	result := t
	for improved := true; improved; {
		improved = false
		for _, id := range nodes {
			current := replacements[id]
			for _, candidate := range candidates[id] {
				if t.Size(candidate) >= t.Size(current) {
					continue
				}
				replacements[id] = candidate
				transformed := applySubstitutions(t, nodes, replacements)

				hoist := t.NumChildren(current) == 1 && t.Child(current, 0) == candidate
				ok := hoist
				if !hoist {
					var err error
					if ok, err = r.Test(g.serialize(transformed)); err != nil {
						return nil, err
					}
				}
				if ok {
					improved = true
					current = candidate
					result = transformed
				} else {
					replacements[id] = current
				}
			}
		}
	}
	return result, nil
}

func applySubstitutions(t *tree.Tree, nodes []tree.NodeID, replacements map[tree.NodeID]tree.NodeID) *tree.Tree {
	c := t.Clone()
	for _, id := range nodes {
		if replacement := replacements[id]; replacement != id {
			c.ReplaceWith(id, replacement)
		}
	}
	return c
}

// descendantsThroughAuxiliary returns the children of a node, looking
// through list items and quantifier nodes.
func descendantsThroughAuxiliary(t *tree.Tree, id tree.NodeID) []tree.NodeID {
	var children []tree.NodeID
	for _, child := range t.Children(id) {
		if t.IsAuxiliary(child) {
			children = append(children, descendantsThroughAuxiliary(t, child)...)
		} else {
			children = append(children, child)
		}
	}
	return children
}
