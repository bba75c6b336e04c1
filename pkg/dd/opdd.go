package dd

// OPDD is the one-pass variant of delta debugging: instead of restarting
// after the first successful complement it folds over all groups and
// removes every group that can go.
type OPDD struct {
	ReverseSubsets     bool
	ReverseComplements bool

	name string
}

func NewOPDD() *OPDD {
	return &OPDD{name: "OPDD"}
}

func (o *OPDD) Name() string {
	if o.name == "" {
		return "OPDD"
	}
	return o.name
}

func (o *OPDD) ReduceIndices(n int, test Test, testEmpty bool) ([]int, error) {
	if testEmpty {
		if ok, err := testEmptyList(test); err != nil {
			return nil, err
		} else if ok {
			return []int{}, nil
		}
	}
	c, err := o.opdd(full(n), 2, failCache{}, test)
	if err != nil {
		return nil, err
	}
	return c.indices(), nil
}

func (o *OPDD) opdd(c configuration, n int, fails failCache, test Test) (configuration, error) {
	for {
		if c.cardinality() < 2 {
			return c, nil
		}

		reducedToSubset := false
		for _, i := range groupOrder(n, o.ReverseSubsets) {
			subset := c.subset(n, i)
			if fails.has(subset) {
				continue
			}
			ok, err := test(subset.indices())
			if err != nil {
				return nil, err
			}
			if ok {
				c, n = subset, 2
				reducedToSubset = true
				break
			}
			fails.add(subset)
		}
		if reducedToSubset {
			continue
		}

		// with two groups the complements are the subsets
		if n != 2 {
			var err error
			c, n, err = o.fold(c, n, fails, test)
			if err != nil {
				return nil, err
			}
		}

		if size := c.cardinality(); n < size {
			n = min(size, 2*n)
			continue
		}
		return c, nil
	}
}

// fold tries to drop each group in turn, keeping every removal that
// passes. It returns the remaining configuration and the number of
// remaining groups.
func (o *OPDD) fold(c configuration, n int, fails failCache, test Test) (configuration, int, error) {
	groups := make([]configuration, n)
	for i := range groups {
		groups[i] = c.subset(n, i)
	}
	retained := make([]bool, n)
	for i := range retained {
		retained[i] = true
	}
	remaining := n

	for _, i := range groupOrder(n, o.ReverseComplements) {
		if remaining == 1 {
			// dropping the last group would leave nothing to test
			break
		}
		var kept []configuration
		for j, group := range groups {
			if retained[j] && j != i {
				kept = append(kept, group)
			}
		}
		candidate := union(kept, len(c))
		if fails.has(candidate) {
			continue
		}
		ok, err := test(candidate.indices())
		if err != nil {
			return nil, 0, err
		}
		if ok {
			retained[i] = false
			remaining--
		} else {
			fails.add(candidate)
		}
	}

	var kept []configuration
	for j, group := range groups {
		if retained[j] {
			kept = append(kept, group)
		}
	}
	return union(kept, len(c)), remaining, nil
}
