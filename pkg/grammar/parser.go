package grammar

import (
	"fmt"
	"sort"
	"strings"

	"github.com/rmohr/treereduce/pkg/tree"
)

// Parse lexes and parses text starting at the start rule. Quantified
// elements are wrapped into quantifier nodes whose children are list items.
func (g *Grammar) Parse(text string) (*tree.Tree, error) {
	tokens, err := g.Lexer().Lex(text)
	if err != nil {
		return nil, err
	}
	return g.ParseTokens(tokens)
}

// ParseTokens parses an EOF terminated token sequence.
func (g *Grammar) ParseTokens(tokens []tree.Token) (*tree.Tree, error) {
	p := &parser{
		grammar: g,
		tokens:  tokens,
		memo:    map[memoKey]*memoEntry{},
		expects: map[tree.Symbol]struct{}{},
	}
	root, end, ok := p.rule(g.Start, 0)
	eof := len(tokens) - 1
	if ok && end == eof {
		t := tree.New()
		id := p.build(t, root)
		t.SetChildren(id, append(t.Children(id), t.NewLeaf(tokens[eof])))
		t.SetRoot(id)
		return t, nil
	}
	if ok {
		p.expect(end, tree.EOF)
	}
	return nil, p.error()
}

type itemKind uint8

const (
	leafItem itemKind = iota
	ruleItem
	quantItem
	listItem
)

// item is the intermediate parse result. Trees are only built for the
// final derivation so memoized results can be shared freely.
type item struct {
	kind     itemKind
	symbol   tree.Symbol
	expected tree.Symbol
	token    int
	children []item
}

type memoKey struct {
	rule tree.Symbol
	pos  int
}

type memoEntry struct {
	result item
	end    int
	ok     bool
	active bool
}

type parser struct {
	grammar  *Grammar
	tokens   []tree.Token
	memo     map[memoKey]*memoEntry
	farthest int
	expects  map[tree.Symbol]struct{}
}

func (p *parser) rule(symbol tree.Symbol, pos int) (item, int, bool) {
	key := memoKey{rule: symbol, pos: pos}
	if e, exists := p.memo[key]; exists {
		// left recursion fails instead of looping
		if e.active {
			return item{}, pos, false
		}
		return e.result, e.end, e.ok
	}
	e := &memoEntry{active: true}
	p.memo[key] = e
	r := p.grammar.rules[symbol]
	children, end, ok := p.expr(r.expr, pos)
	e.active = false
	e.ok = ok
	e.end = end
	if ok {
		e.result = item{kind: ruleItem, symbol: symbol, expected: symbol, children: children}
	}
	return e.result, e.end, e.ok
}

func (p *parser) expr(e Expr, pos int) ([]item, int, bool) {
	switch e := e.(type) {
	case *Ref:
		if _, isRule := p.grammar.rules[e.Symbol]; isRule {
			result, end, ok := p.rule(e.Symbol, pos)
			if !ok {
				return nil, pos, false
			}
			return []item{result}, end, true
		}
		if p.tokens[pos].Symbol != e.Symbol {
			p.expect(pos, e.Symbol)
			return nil, pos, false
		}
		return []item{{kind: leafItem, symbol: e.Symbol, expected: e.Symbol, token: pos}}, pos + 1, true
	case *Seq:
		var items []item
		cur := pos
		for _, sub := range e.Items {
			result, end, ok := p.expr(sub, cur)
			if !ok {
				return nil, pos, false
			}
			items = append(items, result...)
			cur = end
		}
		return items, cur, true
	case *Alt:
		for _, alt := range e.Alternatives {
			if result, end, ok := p.expr(alt, pos); ok {
				return result, end, true
			}
		}
		return nil, pos, false
	case *Quant:
		return p.quantifier(e, pos)
	}
	panic(fmt.Sprintf("unknown expression %T", e))
}

func (p *parser) quantifier(q *Quant, pos int) ([]item, int, bool) {
	expected := p.grammar.ItemSymbol(q)
	var items []item
	cur := pos
	for {
		result, end, ok := p.expr(q.Expr, cur)
		if !ok {
			break
		}
		// empty matches only count where an item is mandatory
		if end == cur && (q.Kind != tree.Plus || len(items) > 0) {
			break
		}
		items = append(items, item{kind: listItem, symbol: tree.ListItem, expected: expected, children: result})
		progressed := end > cur
		cur = end
		if q.Kind == tree.Optional || !progressed {
			break
		}
	}
	if q.Kind == tree.Plus && len(items) == 0 {
		return nil, pos, false
	}
	return []item{{kind: quantItem, symbol: q.Kind, expected: q.Kind, children: items}}, cur, true
}

func (p *parser) expect(pos int, symbol tree.Symbol) {
	if pos < p.farthest {
		return
	}
	if pos > p.farthest {
		p.farthest = pos
		p.expects = map[tree.Symbol]struct{}{}
	}
	p.expects[symbol] = struct{}{}
}

func (p *parser) error() error {
	var expected []string
	for symbol := range p.expects {
		expected = append(expected, string(symbol))
	}
	sort.Strings(expected)
	token := p.tokens[p.farthest]
	found := token.Symbol
	if token.Text != "" {
		found = tree.Symbol(fmt.Sprintf("%s %q", token.Symbol, token.Text))
	}
	return fmt.Errorf("failed to parse input at line %d column %d: unexpected %s, expected one of [%s]",
		token.Begin.Line, token.Begin.Column, found, strings.Join(expected, ", "))
}

func (p *parser) build(t *tree.Tree, it item) tree.NodeID {
	var id tree.NodeID
	if it.kind == leafItem {
		id = t.NewLeaf(p.tokens[it.token])
	} else {
		children := make([]tree.NodeID, 0, len(it.children))
		for _, child := range it.children {
			children = append(children, p.build(t, child))
		}
		id = t.NewInner(it.symbol, children...)
	}
	t.SetExpected(id, it.expected)
	return id
}
