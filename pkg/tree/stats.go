package tree

// Statistics counts the kinds of nodes below a root.
type Statistics struct {
	Terminals    int
	NonTerminals int
	// Auxiliary nodes are quantifiers and list items, they are counted as
	// non-terminals as well.
	Auxiliary           int
	Quantifiers         int
	SingleItemQuantifiers int
	ListItems           int
}

func (t *Tree) Statistics(root NodeID) Statistics {
	var s Statistics
	if root == None {
		return s
	}
	t.Walk(root, func(id NodeID) bool {
		if t.IsLeaf(id) {
			s.Terminals++
			return true
		}
		s.NonTerminals++
		if t.IsAuxiliary(id) {
			s.Auxiliary++
		}
		if t.IsQuantifier(id) {
			s.Quantifiers++
			if t.NumChildren(id) == 1 {
				s.SingleItemQuantifiers++
			}
		}
		if t.IsListItem(id) {
			s.ListItems++
		}
		return true
	})
	return s
}
