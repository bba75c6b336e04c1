package dd

// DDMin is the classic delta debugging minimization. Subsets are tried
// before complements, each in forward or reverse group order.
type DDMin struct {
	ReduceToSubset     bool
	ReduceToComplement bool
	ReverseSubsets     bool
	ReverseComplements bool

	name string
}

func NewDDMin() *DDMin {
	return &DDMin{name: "DDMin", ReduceToSubset: true, ReduceToComplement: true}
}

func (d *DDMin) Name() string {
	if d.name == "" {
		return "DDMin"
	}
	return d.name
}

func (d *DDMin) ReduceIndices(n int, test Test, testEmpty bool) ([]int, error) {
	if testEmpty {
		if ok, err := testEmptyList(test); err != nil {
			return nil, err
		} else if ok {
			return []int{}, nil
		}
	}
	c, err := d.ddmin(full(n), 2, failCache{}, test)
	if err != nil {
		return nil, err
	}
	return c.indices(), nil
}

func (d *DDMin) ddmin(c configuration, n int, fails failCache, test Test) (configuration, error) {
	for {
		size := c.cardinality()
		if size < 2 {
			return c, nil
		}

		if d.ReduceToSubset {
			found, err := d.first(groupOrder(n, d.ReverseSubsets), func(i int) configuration {
				return c.subset(n, i)
			}, fails, test)
			if err != nil {
				return nil, err
			}
			if found != nil {
				c, n = found, 2
				continue
			}
		}

		// with two groups every complement is a subset
		if n != 2 && d.ReduceToComplement {
			found, err := d.first(groupOrder(n, d.ReverseComplements), func(i int) configuration {
				return c.complement(n, i)
			}, fails, test)
			if err != nil {
				return nil, err
			}
			if found != nil {
				c, n = found, max(n-1, 2)
				continue
			}
		}

		if n >= size {
			return c, nil
		}
		n = min(size, 2*n)
	}
}

// first returns the first candidate passing the test or nil.
func (d *DDMin) first(order []int, candidate func(i int) configuration, fails failCache, test Test) (configuration, error) {
	for _, i := range order {
		next := candidate(i)
		if fails.has(next) {
			continue
		}
		ok, err := test(next.indices())
		if err != nil {
			return nil, err
		}
		if ok {
			return next, nil
		}
		fails.add(next)
	}
	return nil, nil
}
