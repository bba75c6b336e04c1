package grammar

import (
	"fmt"
	"sort"
	"strings"

	"github.com/rmohr/treereduce/pkg/tree"
)

// Choice is a node of the grammar graph with one successor per
// alternative. Choices of rules and tokens carry a symbol, choices for
// nested groups are anonymous.
type Choice struct {
	Symbol       tree.Symbol
	Terminal     bool
	Alternatives []*Sequence
}

type Sequence struct {
	Elements []Element
}

// Element is a successor edge of a sequence. Quantifier is empty for
// unquantified elements.
type Element struct {
	Quantifier tree.Symbol
	Target     *Choice
}

func (e Element) Optional() bool {
	return e.Quantifier == tree.Optional || e.Quantifier == tree.Star
}

func (c *Choice) HasSymbol() bool {
	return c.Symbol != ""
}

// Graph is the bipartite choice/sequence graph of a grammar.
type Graph struct {
	Choices   []*Choice
	Sequences []*Sequence
	bySymbol  map[tree.Symbol]*Choice
}

// Graph builds the grammar graph. The start rule is terminated by EOF like
// its parse trees.
func (g *Grammar) Graph() *Graph {
	gg := &Graph{bySymbol: map[tree.Symbol]*Choice{}}
	for _, t := range g.Tokens {
		gg.choice(t.Name, true)
	}
	gg.choice(tree.EOF, true)
	for _, r := range g.Rules {
		gg.choice(r.Name, false)
	}
	for _, r := range g.Rules {
		c := gg.bySymbol[r.Name]
		c.Alternatives = gg.alternatives(g, r.expr)
		if r.Name == g.Start {
			for _, seq := range c.Alternatives {
				seq.Elements = append(seq.Elements, Element{Target: gg.bySymbol[tree.EOF]})
			}
		}
	}
	return gg
}

func (gg *Graph) Choice(symbol tree.Symbol) (*Choice, bool) {
	c, ok := gg.bySymbol[symbol]
	return c, ok
}

func (gg *Graph) choice(symbol tree.Symbol, terminal bool) *Choice {
	c := &Choice{Symbol: symbol, Terminal: terminal}
	gg.Choices = append(gg.Choices, c)
	if symbol != "" {
		gg.bySymbol[symbol] = c
	}
	return c
}

func (gg *Graph) alternatives(g *Grammar, e Expr) []*Sequence {
	var alts []Expr
	if alt, ok := e.(*Alt); ok {
		alts = alt.Alternatives
	} else {
		alts = []Expr{e}
	}
	var seqs []*Sequence
	for _, a := range alts {
		seq := &Sequence{}
		gg.elements(g, a, seq)
		gg.Sequences = append(gg.Sequences, seq)
		seqs = append(seqs, seq)
	}
	return seqs
}

func (gg *Graph) elements(g *Grammar, e Expr, seq *Sequence) {
	switch e := e.(type) {
	case *Seq:
		for _, item := range e.Items {
			gg.elements(g, item, seq)
		}
	case *Ref:
		seq.Elements = append(seq.Elements, Element{Target: gg.bySymbol[e.Symbol]})
	case *Alt:
		c := gg.choice("", false)
		c.Alternatives = gg.alternatives(g, e)
		seq.Elements = append(seq.Elements, Element{Target: c})
	case *Quant:
		var target *Choice
		if ref, ok := e.Expr.(*Ref); ok {
			target = gg.bySymbol[ref.Symbol]
		} else {
			target = gg.choice(g.ItemSymbol(e), false)
			target.Alternatives = gg.alternatives(g, e.Expr)
		}
		seq.Elements = append(seq.Elements, Element{Quantifier: e.Kind, Target: target})
	}
}

// analysis is a backward data flow problem over the grammar graph. Nodes
// without successors keep their initial value.
type analysis[T any] struct {
	initChoice         func(*Choice) T
	initSequence       func(*Sequence) T
	transferChoice     func(*Choice, T) T
	confluenceChoice   func(*Choice, []T) T
	confluenceSequence func(*Sequence, []T) T
	equal              func(a, b T) bool
}

func solve[T any](gg *Graph, a analysis[T]) map[*Choice]T {
	choices := map[*Choice]T{}
	sequences := map[*Sequence]T{}
	for _, c := range gg.Choices {
		choices[c] = a.initChoice(c)
	}
	for _, s := range gg.Sequences {
		sequences[s] = a.initSequence(s)
	}
	for changed := true; changed; {
		changed = false
		for _, s := range gg.Sequences {
			if len(s.Elements) == 0 {
				continue
			}
			in := make([]T, 0, len(s.Elements))
			for _, e := range s.Elements {
				in = append(in, choices[e.Target])
			}
			out := a.confluenceSequence(s, in)
			if !a.equal(out, sequences[s]) {
				sequences[s] = out
				changed = true
			}
		}
		for _, c := range gg.Choices {
			if len(c.Alternatives) == 0 {
				continue
			}
			in := make([]T, 0, len(c.Alternatives))
			for _, s := range c.Alternatives {
				in = append(in, sequences[s])
			}
			out := a.transferChoice(c, a.confluenceChoice(c, in))
			if !a.equal(out, choices[c]) {
				choices[c] = out
				changed = true
			}
		}
	}
	return choices
}

// filter keeps the values of choices with a symbol.
func filter[T any](values map[*Choice]T) map[tree.Symbol]T {
	result := map[tree.Symbol]T{}
	for c, v := range values {
		if c.HasSymbol() {
			result[c.Symbol] = v
		}
	}
	return result
}

// SubTree is a tree shape over grammar symbols.
type SubTree struct {
	Symbol   tree.Symbol
	Terminal bool
	Children []*SubTree
}

func leafShape(symbol tree.Symbol, terminal bool) *SubTree {
	return &SubTree{Symbol: symbol, Terminal: terminal}
}

func (s *SubTree) NumberOfTerminals() int {
	if s.Terminal {
		return 1
	}
	n := 0
	for _, c := range s.Children {
		n += c.NumberOfTerminals()
	}
	return n
}

func (s *SubTree) Size() int {
	n := 1
	for _, c := range s.Children {
		n += c.Size()
	}
	return n
}

func (s *SubTree) String() string {
	var b strings.Builder
	b.WriteString("(")
	b.WriteString(string(s.Symbol))
	for _, c := range s.Children {
		b.WriteString(" ")
		b.WriteString(c.String())
	}
	b.WriteString(")")
	return b.String()
}

// SubTreeSequence is an ordered list of shapes, e.g. the children of a
// node.
type SubTreeSequence []*SubTree

func (s SubTreeSequence) NumberOfTerminals() int {
	n := 0
	for _, t := range s {
		n += t.NumberOfTerminals()
	}
	return n
}

func (s SubTreeSequence) Size() int {
	n := 0
	for _, t := range s {
		n += t.Size()
	}
	return n
}

func (s SubTreeSequence) String() string {
	parts := make([]string, 0, len(s))
	for _, t := range s {
		parts = append(parts, t.String())
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

func sequencesKey(seqs []SubTreeSequence) string {
	if seqs == nil {
		return "<nil>"
	}
	parts := make([]string, 0, len(seqs))
	for _, s := range seqs {
		parts = append(parts, s.String())
	}
	return strings.Join(parts, ";")
}

func equalSequences(a, b []SubTreeSequence) bool {
	if (a == nil) != (b == nil) || len(a) != len(b) {
		return false
	}
	return sequencesKey(a) == sequencesKey(b)
}

func combinations(in [][]SubTreeSequence, limit int) []SubTreeSequence {
	result := []SubTreeSequence{{}}
	for _, options := range in {
		var next []SubTreeSequence
		for _, prefix := range result {
			for _, option := range options {
				combined := make(SubTreeSequence, 0, len(prefix)+len(option))
				combined = append(combined, prefix...)
				combined = append(combined, option...)
				next = append(next, combined)
				if limit > 0 && len(next) >= limit {
					break
				}
			}
			if limit > 0 && len(next) >= limit {
				break
			}
		}
		result = next
	}
	return result
}

// empty marks nullable nodes during the subsumption analysis.
const empty tree.Symbol = "<empty>"

type SymbolSet map[tree.Symbol]struct{}

func (s SymbolSet) Has(symbol tree.Symbol) bool {
	_, ok := s[symbol]
	return ok
}

func (s SymbolSet) Sorted() []tree.Symbol {
	symbols := make([]tree.Symbol, 0, len(s))
	for symbol := range s {
		symbols = append(symbols, symbol)
	}
	sort.Slice(symbols, func(i, j int) bool { return symbols[i] < symbols[j] })
	return symbols
}

func equalSets(a, b SymbolSet) bool {
	if len(a) != len(b) {
		return false
	}
	for symbol := range a {
		if !b.Has(symbol) {
			return false
		}
	}
	return true
}

func allOptional(s *Sequence) bool {
	for _, e := range s.Elements {
		if !e.Optional() {
			return false
		}
	}
	return true
}

// Subsumption computes for every symbol the set of symbols whose subtrees
// may take the place of a subtree of that symbol. Every symbol subsumes
// itself.
func Subsumption(gg *Graph) map[tree.Symbol]SymbolSet {
	values := solve(gg, analysis[SymbolSet]{
		initChoice: func(c *Choice) SymbolSet {
			init := SymbolSet{}
			if c.HasSymbol() {
				init[c.Symbol] = struct{}{}
			}
			return init
		},
		initSequence: func(s *Sequence) SymbolSet {
			init := SymbolSet{}
			if allOptional(s) {
				init[empty] = struct{}{}
			}
			return init
		},
		transferChoice: func(c *Choice, in SymbolSet) SymbolSet {
			if c.HasSymbol() {
				in[c.Symbol] = struct{}{}
			}
			return in
		},
		confluenceChoice: func(_ *Choice, in []SymbolSet) SymbolSet {
			out := SymbolSet{}
			for _, set := range in {
				for symbol := range set {
					out[symbol] = struct{}{}
				}
			}
			return out
		},
		confluenceSequence: func(s *Sequence, in []SymbolSet) SymbolSet {
			out := SymbolSet{}
			for i := range in {
				othersNullable := true
				for j, e := range s.Elements {
					if j != i && !e.Optional() && !in[j].Has(empty) {
						othersNullable = false
						break
					}
				}
				if othersNullable {
					for symbol := range in[i] {
						out[symbol] = struct{}{}
					}
				}
			}
			if allOptional(s) {
				out[empty] = struct{}{}
			}
			return out
		},
		equal: equalSets,
	})
	result := filter(values)
	for _, set := range result {
		delete(set, empty)
	}
	return result
}

// PossibleSubTrees computes for every rule the shapes its nodes can have:
// the node with its children as leaves, where quantifier children keep
// their item shapes.
func PossibleSubTrees(gg *Graph) map[tree.Symbol][]SubTreeSequence {
	return filter(solve(gg, analysis[[]SubTreeSequence]{
		initChoice: func(c *Choice) []SubTreeSequence {
			if c.Terminal {
				return []SubTreeSequence{{leafShape(c.Symbol, true)}}
			}
			return nil
		},
		initSequence: func(s *Sequence) []SubTreeSequence {
			if len(s.Elements) == 0 {
				return []SubTreeSequence{{}}
			}
			return nil
		},
		transferChoice: func(c *Choice, in []SubTreeSequence) []SubTreeSequence {
			if in == nil || !c.HasSymbol() {
				return in
			}
			seen := map[string]struct{}{}
			out := []SubTreeSequence{}
			for _, seq := range in {
				shape := seq
				if len(seq) > 0 {
					children := make([]*SubTree, 0, len(seq))
					for _, t := range seq {
						children = append(children, childShape(t))
					}
					shape = SubTreeSequence{{Symbol: c.Symbol, Children: children}}
				}
				key := shape.String()
				if _, dup := seen[key]; dup {
					continue
				}
				seen[key] = struct{}{}
				out = append(out, shape)
			}
			return out
		},
		confluenceChoice: func(_ *Choice, in [][]SubTreeSequence) []SubTreeSequence {
			var out []SubTreeSequence
			for _, seqs := range in {
				out = append(out, seqs...)
			}
			return out
		},
		confluenceSequence: func(s *Sequence, in [][]SubTreeSequence) []SubTreeSequence {
			parts := make([][]SubTreeSequence, 0, len(in))
			for i, seqs := range in {
				if seqs == nil {
					return nil
				}
				quantifier := s.Elements[i].Quantifier
				if quantifier == "" {
					parts = append(parts, seqs)
					continue
				}
				wrapped := make([]SubTreeSequence, 0, len(seqs))
				for _, seq := range seqs {
					wrapped = append(wrapped, SubTreeSequence{{Symbol: quantifier, Children: seq}})
				}
				parts = append(parts, wrapped)
			}
			return combinations(parts, 0)
		},
		equal: equalSequences,
	}))
}

func childShape(t *SubTree) *SubTree {
	if !t.Symbol.IsQuantifier() {
		return leafShape(t.Symbol, t.Terminal)
	}
	children := make([]*SubTree, 0, len(t.Children))
	for _, c := range t.Children {
		children = append(children, childShape(c))
	}
	return &SubTree{Symbol: t.Symbol, Children: children}
}

const maxMinTrees = 32

// MinTrees computes for every symbol the smallest trees it can derive.
// Smallest means fewest terminals, ties are broken by the number of nodes.
func MinTrees(gg *Graph) map[tree.Symbol][]SubTreeSequence {
	return filter(solve(gg, analysis[[]SubTreeSequence]{
		initChoice: func(c *Choice) []SubTreeSequence {
			if c.Terminal {
				return []SubTreeSequence{{leafShape(c.Symbol, true)}}
			}
			return nil
		},
		initSequence: func(s *Sequence) []SubTreeSequence {
			if len(s.Elements) == 0 {
				return []SubTreeSequence{{}}
			}
			return nil
		},
		transferChoice: func(c *Choice, in []SubTreeSequence) []SubTreeSequence {
			if in == nil || !c.HasSymbol() {
				return in
			}
			out := make([]SubTreeSequence, 0, len(in))
			for _, seq := range in {
				out = append(out, SubTreeSequence{{Symbol: c.Symbol, Children: seq}})
			}
			return out
		},
		confluenceChoice: func(_ *Choice, in [][]SubTreeSequence) []SubTreeSequence {
			var out []SubTreeSequence
			minTerminals, minSize := -1, -1
			seen := map[string]struct{}{}
			for _, seqs := range in {
				for _, seq := range seqs {
					terminals, size := seq.NumberOfTerminals(), seq.Size()
					if minTerminals != -1 && (terminals > minTerminals || terminals == minTerminals && size > minSize) {
						continue
					}
					if terminals != minTerminals || size != minSize {
						minTerminals, minSize = terminals, size
						out = nil
						seen = map[string]struct{}{}
					}
					key := seq.String()
					if _, dup := seen[key]; dup || len(out) >= maxMinTrees {
						continue
					}
					seen[key] = struct{}{}
					out = append(out, seq)
				}
			}
			return out
		},
		confluenceSequence: func(s *Sequence, in [][]SubTreeSequence) []SubTreeSequence {
			var parts [][]SubTreeSequence
			for i, seqs := range in {
				quantifier := s.Elements[i].Quantifier
				if quantifier != "" && quantifier != tree.Plus {
					continue
				}
				if seqs == nil {
					return nil
				}
				parts = append(parts, seqs)
			}
			return combinations(parts, maxMinTrees)
		},
		equal: equalSequences,
	}))
}

// Tokens flattens a shape into tokens, expanding every symbol that has a
// replacement.
func (s SubTreeSequence) Tokens(replacements map[tree.Symbol][]tree.Token) []tree.Token {
	var tokens []tree.Token
	var visit func(t *SubTree)
	visit = func(t *SubTree) {
		if r, ok := replacements[t.Symbol]; ok {
			tokens = append(tokens, r...)
			return
		}
		for _, c := range t.Children {
			visit(c)
		}
	}
	for _, t := range s {
		visit(t)
	}
	return tokens
}

func (gg *Graph) String() string {
	var b strings.Builder
	names := map[*Choice]string{}
	anonymous := 0
	for _, c := range gg.Choices {
		if c.HasSymbol() {
			names[c] = string(c.Symbol)
		} else {
			anonymous++
			names[c] = fmt.Sprintf("<group%d>", anonymous)
		}
	}
	for _, c := range gg.Choices {
		if c.Terminal {
			continue
		}
		fmt.Fprintf(&b, "%s:\n", names[c])
		for _, s := range c.Alternatives {
			parts := make([]string, 0, len(s.Elements))
			for _, e := range s.Elements {
				suffix := map[tree.Symbol]string{tree.Optional: "?", tree.Star: "*", tree.Plus: "+"}[e.Quantifier]
				parts = append(parts, names[e.Target]+suffix)
			}
			fmt.Fprintf(&b, "  | %s\n", strings.Join(parts, " "))
		}
	}
	return b.String()
}
