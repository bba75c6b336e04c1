package reducer

import (
	"slices"
	"strings"

	"github.com/rmohr/treereduce/pkg/dd"
	"github.com/rmohr/treereduce/pkg/printer"
	"github.com/rmohr/treereduce/pkg/run"
	"github.com/rmohr/treereduce/pkg/tree"
)

// HDDVariant holds the settings HDD and HDDr share. Both keep a set of
// removed nodes for the whole reduction and serialize removed nodes as the
// replacement of their expected symbol.
type HDDVariant struct {
	Joiner *printer.Joiner
	// Replacements for removed nodes. Without replacements removed nodes
	// vanish.
	Replacements  map[tree.Symbol][]tree.Token
	ListReduction dd.Reduction

	SkipTerminalNodes bool
	// SkipTerminalTrees ignores inner nodes with a single terminal.
	SkipTerminalTrees bool
	// HideUnremovable ignores nodes whose text already is their replacement.
	HideUnremovable bool
	Fixpoint        bool
}

// hddPass is the state of one HDD or HDDr reduction.
type hddPass struct {
	*HDDVariant
	t       *tree.Tree
	removed tree.NodeSet
	texts   map[tree.Symbol]string
}

func (v *HDDVariant) newPass(t *tree.Tree) *hddPass {
	return &hddPass{
		HDDVariant: v,
		t:          t,
		removed:    tree.NodeSet{},
		texts:      v.Joiner.JoinReplacements(v.Replacements),
	}
}

func (p *hddPass) serialize(removed tree.NodeSet) string {
	return p.Joiner.JoinTree(p.t, removed, p.Replacements)
}

// replacementText is the text a node turns into when it is removed. Items
// of lists are dropped unless they are the last item of a PLUS list.
func (p *hddPass) replacementText(id tree.NodeID) string {
	if p.t.IsListItem(id) {
		parent := p.t.Parent(id)
		if p.t.Symbol(parent) != tree.Plus || p.t.NumChildren(parent) >= 2 {
			return ""
		}
	}
	return p.texts[p.t.Expected(id)]
}

func (p *hddPass) hasEmptyReplacement(id tree.NodeID) bool {
	return p.t.IsListItem(id) || p.replacementText(id) == ""
}

func (p *hddPass) unremovable(id tree.NodeID) bool {
	replacement := strings.TrimSpace(p.replacementText(id))
	text := strings.TrimSpace(p.Joiner.JoinNode(p.t, id, p.removed, p.Replacements))
	return text == replacement
}

// levelNodes returns the kept nodes one level below from. Quantifier nodes
// don't count as a level, list items do.
func (p *hddPass) levelNodes(from tree.NodeID) []tree.NodeID {
	var nodes []tree.NodeID
	var visit func(id tree.NodeID, level int)
	visit = func(id tree.NodeID, level int) {
		if p.removed.Has(id) {
			return
		}
		switch {
		case p.t.IsLeaf(id):
			if p.SkipTerminalNodes || level != 1 {
				return
			}
			if !p.HideUnremovable || !p.unremovable(id) {
				nodes = append(nodes, id)
			}
		case p.t.IsQuantifier(id):
			for _, child := range p.t.Children(id) {
				visit(child, level)
			}
		case level == 1:
			if p.SkipTerminalTrees && p.t.NumberOfTerminals(id) <= 1 {
				return
			}
			if !p.HideUnremovable || !p.unremovable(id) {
				nodes = append(nodes, id)
			}
		default:
			for _, child := range p.t.Children(id) {
				visit(child, level+1)
			}
		}
	}
	if from != tree.None {
		visit(from, 0)
	}
	return nodes
}

// emptiesPlusList reports whether removing nodes leaves a PLUS list without
// items although none of its items may vanish.
func (p *hddPass) emptiesPlusList(nodes []tree.NodeID, removed tree.NodeSet) bool {
	checked := tree.NodeSet{}
	for _, id := range nodes {
		parent := p.t.Parent(id)
		if parent == tree.None || checked.Has(parent) || p.t.Symbol(parent) != tree.Plus {
			continue
		}
		checked.Add(parent)
		keeps := false
		for _, sibling := range p.t.Children(parent) {
			if !removed.Has(sibling) || p.texts[p.t.Expected(sibling)] == "" {
				keeps = true
				break
			}
		}
		if !keeps {
			return true
		}
	}
	return false
}

// reduceList removes as many of the nodes as possible and returns the kept
// ones.
func (p *hddPass) reduceList(r *run.Run, nodes []tree.NodeID, keepOnePlus bool) ([]tree.NodeID, error) {
	kept, err := dd.Reduce(p.ListReduction, nodes, func(candidate []tree.NodeID) (bool, error) {
		removed := removedExcept(p.removed, nodes, candidate)
		if keepOnePlus && p.emptiesPlusList(nodes, removed) {
			return false, nil
		}
		return r.Test(p.serialize(removed))
	}, true)
	if err != nil {
		return nil, err
	}
	p.removed = removedExcept(p.removed, nodes, kept)
	return kept, nil
}

// HDD is hierarchical delta debugging: the nodes of each level of the tree
// are reduced as one list before descending into the kept ones.
type HDD struct {
	HDDVariant
	// Coarse only tries nodes that can vanish without a replacement.
	Coarse bool

	name string
}

func newHDD(coarse bool, withReplacements bool) factory {
	return func(cfg Config, name string, fixpoint bool) (run.Reducer, error) {
		red, err := cfg.listReduction("DDMin")
		if err != nil {
			return nil, err
		}
		h := &HDD{
			HDDVariant: HDDVariant{
				Joiner:        cfg.Joiner,
				ListReduction: red,
				Fixpoint:      fixpoint,
			},
			Coarse: coarse,
			name:   name,
		}
		if withReplacements {
			tables, err := cfg.tables(name)
			if err != nil {
				return nil, err
			}
			h.Replacements = tables.Replacements
			h.HideUnremovable = true
		}
		return h, nil
	}
}

func (h *HDD) Name() string {
	name := h.name
	if name == "" {
		name = "HDD"
		if h.Coarse {
			name = "CoarseHDD"
		}
	}
	return displayName(name, h.Fixpoint)
}

func (h *HDD) Reduce(t *tree.Tree, r *run.Run) (string, error) {
	p := h.newPass(t)
	return repeat(r, len(t.Print(t.Root())), h.Fixpoint, func() (string, error) {
		nodes := p.levelNodes(t.Root())
		for len(nodes) > 0 {
			candidates := nodes
			if h.Coarse {
				candidates = nil
				for _, id := range nodes {
					if p.hasEmptyReplacement(id) {
						candidates = append(candidates, id)
					}
				}
			}
			if len(candidates) > 0 {
				if _, err := p.reduceList(r, candidates, h.Coarse); err != nil {
					return "", err
				}
			}
			var next []tree.NodeID
			for _, id := range nodes {
				next = append(next, p.levelNodes(id)...)
			}
			nodes = next
		}
		return p.serialize(p.removed), nil
	})
}

type Traversal int

const (
	DepthFirst Traversal = iota
	BreadthFirst
)

type Append int

const (
	Forward Append = iota
	Backward
)

// HDDr is the recursive HDD variant: it reduces the children of one node at
// a time and queues the kept children.
type HDDr struct {
	HDDVariant
	Traversal Traversal
	Append    Append

	name string
}

func newHDDr(traversal Traversal, appendMode Append) factory {
	return func(cfg Config, name string, fixpoint bool) (run.Reducer, error) {
		red, err := cfg.listReduction("DDMin")
		if err != nil {
			return nil, err
		}
		tables, err := cfg.tables(name)
		if err != nil {
			return nil, err
		}
		return &HDDr{
			HDDVariant: HDDVariant{
				Joiner:          cfg.Joiner,
				Replacements:    tables.Replacements,
				ListReduction:   red,
				HideUnremovable: true,
				Fixpoint:        fixpoint,
			},
			Traversal: traversal,
			Append:    appendMode,
			name:      name,
		}, nil
	}
}

func (h *HDDr) Name() string {
	name := h.name
	if name == "" {
		name = "HDDr"
	}
	return displayName(name, h.Fixpoint)
}

func (h *HDDr) Reduce(t *tree.Tree, r *run.Run) (string, error) {
	p := h.newPass(t)
	return repeat(r, len(t.Print(t.Root())), h.Fixpoint, func() (string, error) {
		queue := []tree.NodeID{t.Root()}
		for len(queue) > 0 {
			current := queue[0]
			queue = queue[1:]
			nodes := p.levelNodes(current)
			if len(nodes) == 0 {
				continue
			}
			kept, err := p.reduceList(r, nodes, false)
			if err != nil {
				return "", err
			}
			queue = h.enqueue(queue, kept)
		}
		return p.serialize(p.removed), nil
	})
}

func (h *HDDr) enqueue(queue []tree.NodeID, nodes []tree.NodeID) []tree.NodeID {
	ordered := append([]tree.NodeID(nil), nodes...)
	if h.Append == Backward {
		slices.Reverse(ordered)
	}
	if h.Traversal == DepthFirst {
		return append(ordered, queue...)
	}
	return append(queue, ordered...)
}
