package tree

import (
	"fmt"
	"strings"
)

// Symbol names a grammar symbol. Token symbols are upper case by
// convention, rule symbols lower case. The angle bracket symbols below are
// reserved for the wrappers the parser inserts around quantified elements.
type Symbol string

const (
	ListItem Symbol = "<item>"
	Optional Symbol = "<?>"
	Star     Symbol = "<*>"
	Plus     Symbol = "<+>"
	EOF      Symbol = "<EOF>"
)

func (s Symbol) IsQuantifier() bool {
	return s == Optional || s == Star || s == Plus
}

func (s Symbol) IsAuxiliary() bool {
	return s == ListItem || s.IsQuantifier()
}

type NodeID int

const None NodeID = -1

type Kind uint8

const (
	Inner Kind = iota
	Leaf
)

type node struct {
	kind     Kind
	symbol   Symbol
	expected Symbol
	parent   NodeID
	children []NodeID
	token    Token
}

// Tree is an arena of syntax tree nodes. Node ids stay valid for the whole
// lifetime of a tree and are shared by all of its clones, which makes it
// possible to track a node across copies without any bookkeeping.
type Tree struct {
	nodes []node
	root  NodeID
}

func New() *Tree {
	return &Tree{root: None}
}

func (t *Tree) NewLeaf(token Token) NodeID {
	t.nodes = append(t.nodes, node{
		kind:     Leaf,
		symbol:   token.Symbol,
		expected: token.Symbol,
		parent:   None,
		token:    token,
	})
	return NodeID(len(t.nodes) - 1)
}

// NewInner creates an inner node and adopts the given children.
func (t *Tree) NewInner(symbol Symbol, children ...NodeID) NodeID {
	t.nodes = append(t.nodes, node{
		kind:     Inner,
		symbol:   symbol,
		expected: symbol,
		parent:   None,
	})
	id := NodeID(len(t.nodes) - 1)
	t.SetChildren(id, children)
	return id
}

func (t *Tree) Root() NodeID {
	return t.root
}

func (t *Tree) SetRoot(id NodeID) {
	t.node(id).parent = None
	t.root = id
}

func (t *Tree) node(id NodeID) *node {
	if id < 0 || int(id) >= len(t.nodes) {
		panic(fmt.Sprintf("unknown node id %d", id))
	}
	return &t.nodes[id]
}

func (t *Tree) Kind(id NodeID) Kind {
	return t.node(id).kind
}

func (t *Tree) IsLeaf(id NodeID) bool {
	return t.node(id).kind == Leaf
}

func (t *Tree) Symbol(id NodeID) Symbol {
	return t.node(id).symbol
}

// Expected returns the symbol the grammar expected at the position of the
// node. It differs from Symbol once a node was grafted somewhere else.
func (t *Tree) Expected(id NodeID) Symbol {
	return t.node(id).expected
}

func (t *Tree) SetExpected(id NodeID, symbol Symbol) {
	t.node(id).expected = symbol
}

func (t *Tree) Parent(id NodeID) NodeID {
	return t.node(id).parent
}

// Children returns the child ids of a node. The returned slice belongs to
// the tree and must not be modified.
func (t *Tree) Children(id NodeID) []NodeID {
	return t.node(id).children
}

func (t *Tree) Child(id NodeID, index int) NodeID {
	return t.node(id).children[index]
}

func (t *Tree) NumChildren(id NodeID) int {
	return len(t.node(id).children)
}

func (t *Tree) Token(id NodeID) Token {
	return t.node(id).token
}

func (t *Tree) IsAuxiliary(id NodeID) bool {
	n := t.node(id)
	return n.kind == Inner && n.symbol.IsAuxiliary()
}

func (t *Tree) IsQuantifier(id NodeID) bool {
	n := t.node(id)
	return n.kind == Inner && n.symbol.IsQuantifier()
}

func (t *Tree) IsListItem(id NodeID) bool {
	n := t.node(id)
	return n.kind == Inner && n.symbol == ListItem
}

// SetChildren replaces the children of an inner node. The new children are
// re-parented; previous children that are not part of the new list become
// detached.
func (t *Tree) SetChildren(id NodeID, children []NodeID) {
	n := t.node(id)
	if n.kind == Leaf && len(children) > 0 {
		panic(fmt.Sprintf("leaf %d (%s) can't have children", id, n.symbol))
	}
	for _, old := range n.children {
		if t.nodes[old].parent == id {
			t.nodes[old].parent = None
		}
	}
	n.children = append([]NodeID(nil), children...)
	for _, child := range n.children {
		t.node(child).parent = id
	}
}

// ReplaceWith grafts replacement at the position of old. The replacement
// inherits the expected symbol of old. Old becomes detached.
func (t *Tree) ReplaceWith(old, replacement NodeID) {
	if old == replacement {
		return
	}
	parent := t.node(old).parent
	t.node(replacement).expected = t.node(old).expected
	if prev := t.node(replacement).parent; prev != None && prev != parent {
		t.detach(prev, replacement)
	}
	if parent == None {
		if old != t.root {
			panic(fmt.Sprintf("can't replace detached node %d", old))
		}
		t.SetRoot(replacement)
		return
	}
	p := t.node(parent)
	for i, child := range p.children {
		if child == old {
			p.children[i] = replacement
		}
	}
	t.node(old).parent = None
	t.node(replacement).parent = parent
}

func (t *Tree) detach(parent, child NodeID) {
	p := t.node(parent)
	kept := p.children[:0:0]
	for _, c := range p.children {
		if c != child {
			kept = append(kept, c)
		}
	}
	p.children = kept
}

// Clone returns a deep copy that uses the same node ids.
func (t *Tree) Clone() *Tree {
	c := &Tree{
		nodes: make([]node, len(t.nodes)),
		root:  t.root,
	}
	copy(c.nodes, t.nodes)
	for i := range c.nodes {
		if c.nodes[i].children != nil {
			c.nodes[i].children = append([]NodeID(nil), c.nodes[i].children...)
		}
	}
	return c
}

// Prune returns a copy of the tree in which every node of removed is
// physically detached from its parent.
func (t *Tree) Prune(removed NodeSet) *Tree {
	c := t.Clone()
	if removed.Has(c.root) {
		c.root = None
		return c
	}
	c.Walk(c.root, func(id NodeID) bool {
		n := &c.nodes[id]
		if len(n.children) == 0 {
			return true
		}
		kept := make([]NodeID, 0, len(n.children))
		for _, child := range n.children {
			if removed.Has(child) {
				c.nodes[child].parent = None
			} else {
				kept = append(kept, child)
			}
		}
		n.children = kept
		return true
	})
	return c
}

// Walk visits the subtree rooted at id in pre-order. Returning false from
// visit skips the children of the visited node.
func (t *Tree) Walk(id NodeID, visit func(NodeID) bool) {
	if id == None {
		return
	}
	stack := []NodeID{id}
	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if !visit(cur) {
			continue
		}
		children := t.nodes[cur].children
		for i := len(children) - 1; i >= 0; i-- {
			stack = append(stack, children[i])
		}
	}
}

// Nodes returns the ids of the subtree rooted at id in pre-order.
func (t *Tree) Nodes(id NodeID) (ids []NodeID) {
	t.Walk(id, func(n NodeID) bool {
		ids = append(ids, n)
		return true
	})
	return
}

// Fold reduces the subtree rooted at id bottom-up.
func Fold[T any](t *Tree, id NodeID, leaf func(NodeID, Token) T, inner func(NodeID, Symbol, []T) T) T {
	n := t.node(id)
	switch n.kind {
	case Leaf:
		return leaf(id, n.token)
	default:
		results := make([]T, 0, len(n.children))
		for _, child := range n.children {
			results = append(results, Fold(t, child, leaf, inner))
		}
		return inner(id, n.symbol, results)
	}
}

// Size returns the number of nodes of the subtree.
func (t *Tree) Size(id NodeID) int {
	if id == None {
		return 0
	}
	size := 0
	t.Walk(id, func(NodeID) bool {
		size++
		return true
	})
	return size
}

func (t *Tree) NumberOfTerminals(id NodeID) int {
	if id == None {
		return 0
	}
	count := 0
	t.Walk(id, func(n NodeID) bool {
		if t.nodes[n].kind == Leaf {
			count++
		}
		return true
	})
	return count
}

// Leaves returns the leaf ids of the subtree from left to right.
func (t *Tree) Leaves(id NodeID) (leaves []NodeID) {
	t.Walk(id, func(n NodeID) bool {
		if t.nodes[n].kind == Leaf {
			leaves = append(leaves, n)
		}
		return true
	})
	return
}

func (t *Tree) Tokens(id NodeID) []Token {
	var tokens []Token
	for _, leaf := range t.Leaves(id) {
		tokens = append(tokens, t.nodes[leaf].token)
	}
	return tokens
}

// Print returns the text of the subtree including all skipped tokens.
func (t *Tree) Print(id NodeID) string {
	var b strings.Builder
	for _, leaf := range t.Leaves(id) {
		t.nodes[leaf].token.AppendTo(&b)
	}
	return b.String()
}

// String renders the whole tree as an s-expression. Leaves are rendered as
// SYMBOL:"text".
func (t *Tree) String() string {
	if t.root == None {
		return "()"
	}
	return t.Dump(t.root)
}

func (t *Tree) Dump(id NodeID) string {
	return Fold(t, id,
		func(_ NodeID, tok Token) string {
			return fmt.Sprintf("%s:%q", tok.Symbol, tok.Text)
		},
		func(_ NodeID, symbol Symbol, children []string) string {
			if len(children) == 0 {
				return fmt.Sprintf("(%s)", symbol)
			}
			return fmt.Sprintf("(%s %s)", symbol, strings.Join(children, " "))
		},
	)
}
