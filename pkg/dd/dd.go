package dd

import (
	"fmt"
	"slices"

	"golang.org/x/exp/maps"
)

// Test decides whether the list restricted to the kept indices still shows
// the property. A non-nil error aborts the reduction and is returned
// unchanged.
type Test func(kept []int) (bool, error)

// Reduction minimizes a list of n elements.
type Reduction interface {
	Name() string
	// ReduceIndices returns the kept indices in ascending order. With
	// testEmpty the empty list is tried first.
	ReduceIndices(n int, test Test, testEmpty bool) ([]int, error)
}

// Reduce applies a reduction to a concrete list.
func Reduce[E any](r Reduction, list []E, test func(candidate []E) (bool, error), testEmpty bool) ([]E, error) {
	kept, err := r.ReduceIndices(len(list), func(kept []int) (bool, error) {
		return test(Pick(list, kept))
	}, testEmpty)
	if err != nil {
		return nil, err
	}
	return Pick(list, kept), nil
}

func Pick[E any](list []E, indices []int) []E {
	picked := make([]E, 0, len(indices))
	for _, i := range indices {
		picked = append(picked, list[i])
	}
	return picked
}

func testEmptyList(test Test) (bool, error) {
	return test([]int{})
}

var factories = map[string]func() Reduction{
	"DDMin": func() Reduction {
		return &DDMin{name: "DDMin", ReduceToSubset: true, ReduceToComplement: true}
	},
	"DDMinReverse": func() Reduction {
		return &DDMin{name: "DDMinReverse", ReduceToSubset: true, ReduceToComplement: true, ReverseSubsets: true, ReverseComplements: true}
	},
	"DDMinSubsets": func() Reduction {
		return &DDMin{name: "DDMinSubsets", ReduceToSubset: true}
	},
	"DDMinSubsetsReverse": func() Reduction {
		return &DDMin{name: "DDMinSubsetsReverse", ReduceToSubset: true, ReverseSubsets: true}
	},
	"DDMinComplements": func() Reduction {
		return &DDMin{name: "DDMinComplements", ReduceToComplement: true}
	},
	"DDMinComplementsReverse": func() Reduction {
		return &DDMin{name: "DDMinComplementsReverse", ReduceToComplement: true, ReverseComplements: true}
	},
	"OPDD": func() Reduction {
		return &OPDD{name: "OPDD"}
	},
	"OPDDReverse": func() Reduction {
		return &OPDD{name: "OPDDReverse", ReverseSubsets: true, ReverseComplements: true}
	},
}

// New creates a list reduction by name.
func New(name string) (Reduction, error) {
	factory, exists := factories[name]
	if !exists {
		return nil, fmt.Errorf("unknown list reduction '%s', expected one of %v", name, Names())
	}
	return factory(), nil
}

func Names() []string {
	names := maps.Keys(factories)
	slices.Sort(names)
	return names
}
