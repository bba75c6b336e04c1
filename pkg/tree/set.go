package tree

import (
	"slices"

	"golang.org/x/exp/maps"
)

type NodeSet map[NodeID]struct{}

func NewNodeSet(ids ...NodeID) NodeSet {
	s := make(NodeSet, len(ids))
	s.Add(ids...)
	return s
}

func (s NodeSet) Add(ids ...NodeID) {
	for _, id := range ids {
		s[id] = struct{}{}
	}
}

func (s NodeSet) Remove(id NodeID) {
	delete(s, id)
}

func (s NodeSet) Has(id NodeID) bool {
	if s == nil {
		return false
	}
	_, ok := s[id]
	return ok
}

func (s NodeSet) Clone() NodeSet {
	c := make(NodeSet, len(s))
	for id := range s {
		c[id] = struct{}{}
	}
	return c
}

// Sorted returns the members in ascending id order.
func (s NodeSet) Sorted() []NodeID {
	ids := maps.Keys(s)
	slices.Sort(ids)
	return ids
}
