package dd

import "strings"

// configuration marks the kept positions of a list.
type configuration []bool

func full(n int) configuration {
	c := make(configuration, n)
	for i := range c {
		c[i] = true
	}
	return c
}

func (c configuration) cardinality() int {
	n := 0
	for _, kept := range c {
		if kept {
			n++
		}
	}
	return n
}

func (c configuration) key() string {
	var b strings.Builder
	b.Grow(len(c))
	for _, kept := range c {
		if kept {
			b.WriteByte('1')
		} else {
			b.WriteByte('0')
		}
	}
	return b.String()
}

func (c configuration) indices() []int {
	indices := make([]int, 0, len(c))
	for i, kept := range c {
		if kept {
			indices = append(indices, i)
		}
	}
	return indices
}

// bounds returns the first and last kept position (counted among the kept
// positions only) of group i when splitting into n groups.
func (c configuration) bounds(n, i int) (first, last int) {
	size := c.cardinality()
	s := subsetSize(size, n)
	first = i * s
	if i == n-1 {
		last = size - 1
	} else {
		last = (i+1)*s - 1
	}
	return first, last
}

// subset keeps only group i.
func (c configuration) subset(n, i int) configuration {
	first, last := c.bounds(n, i)
	return c.filter(func(actual int) bool { return actual >= first && actual <= last })
}

// complement keeps everything but group i.
func (c configuration) complement(n, i int) configuration {
	first, last := c.bounds(n, i)
	return c.filter(func(actual int) bool { return actual < first || actual > last })
}

func (c configuration) filter(keep func(actual int) bool) configuration {
	result := make(configuration, len(c))
	actual := 0
	for i, kept := range c {
		if !kept {
			continue
		}
		result[i] = keep(actual)
		actual++
	}
	return result
}

func union(configs []configuration, n int) configuration {
	result := make(configuration, n)
	for _, c := range configs {
		for i, kept := range c {
			if kept {
				result[i] = true
			}
		}
	}
	return result
}

// subsetSize makes the first n-1 groups as large as possible while keeping
// the last group non-empty.
func subsetSize(size, n int) int {
	if size%n == 0 || (size/n+1)*(n-1) >= size {
		return size / n
	}
	return size/n + 1
}

func groupOrder(n int, reverse bool) []int {
	order := make([]int, n)
	for i := range order {
		if reverse {
			order[i] = n - 1 - i
		} else {
			order[i] = i
		}
	}
	return order
}

type failCache map[string]struct{}

func (f failCache) has(c configuration) bool {
	_, ok := f[c.key()]
	return ok
}

func (f failCache) add(c configuration) {
	f[c.key()] = struct{}{}
}
