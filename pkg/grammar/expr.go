package grammar

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/rmohr/treereduce/pkg/tree"
)

// Expr is the right hand side of a parser rule.
type Expr interface {
	fmt.Stringer
	isExpr()
}

// Ref references a token or a rule. Quoted literals are resolved to their
// token symbol when the grammar is loaded.
type Ref struct {
	Symbol  tree.Symbol
	Literal string
}

type Seq struct {
	Items []Expr
}

// Alt is an ordered choice.
type Alt struct {
	Alternatives []Expr
}

type Quant struct {
	Kind tree.Symbol
	Expr Expr
}

func (*Ref) isExpr()   {}
func (*Seq) isExpr()   {}
func (*Alt) isExpr()   {}
func (*Quant) isExpr() {}

func (r *Ref) String() string {
	if r.Symbol == "" {
		return "'" + r.Literal + "'"
	}
	return string(r.Symbol)
}

func (s *Seq) String() string {
	parts := make([]string, 0, len(s.Items))
	for _, item := range s.Items {
		if _, isAlt := item.(*Alt); isAlt {
			parts = append(parts, "("+item.String()+")")
		} else {
			parts = append(parts, item.String())
		}
	}
	return strings.Join(parts, " ")
}

func (a *Alt) String() string {
	parts := make([]string, 0, len(a.Alternatives))
	for _, alt := range a.Alternatives {
		parts = append(parts, alt.String())
	}
	return strings.Join(parts, " | ")
}

func (q *Quant) String() string {
	suffix := map[tree.Symbol]string{tree.Optional: "?", tree.Star: "*", tree.Plus: "+"}[q.Kind]
	switch q.Expr.(type) {
	case *Ref:
		return q.Expr.String() + suffix
	default:
		return "(" + q.Expr.String() + ")" + suffix
	}
}

type exprParser struct {
	input string
	pos   int
}

func parseExpr(input string) (Expr, error) {
	p := &exprParser{input: input}
	e, err := p.alternatives()
	if err != nil {
		return nil, err
	}
	p.space()
	if p.pos < len(p.input) {
		return nil, fmt.Errorf("unexpected '%c' at offset %d", p.input[p.pos], p.pos)
	}
	return e, nil
}

func (p *exprParser) space() {
	for p.pos < len(p.input) && unicode.IsSpace(rune(p.input[p.pos])) {
		p.pos++
	}
}

func (p *exprParser) peek() byte {
	p.space()
	if p.pos >= len(p.input) {
		return 0
	}
	return p.input[p.pos]
}

func (p *exprParser) alternatives() (Expr, error) {
	var alts []Expr
	for {
		seq, err := p.sequence()
		if err != nil {
			return nil, err
		}
		alts = append(alts, seq)
		if p.peek() != '|' {
			break
		}
		p.pos++
	}
	if len(alts) == 1 {
		return alts[0], nil
	}
	return &Alt{Alternatives: alts}, nil
}

func (p *exprParser) sequence() (Expr, error) {
	var items []Expr
	for {
		c := p.peek()
		if c == 0 || c == '|' || c == ')' {
			break
		}
		item, err := p.postfix()
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	if len(items) == 1 {
		return items[0], nil
	}
	return &Seq{Items: items}, nil
}

func (p *exprParser) postfix() (Expr, error) {
	e, err := p.primary()
	if err != nil {
		return nil, err
	}
	for {
		var kind tree.Symbol
		switch p.peek() {
		case '?':
			kind = tree.Optional
		case '*':
			kind = tree.Star
		case '+':
			kind = tree.Plus
		default:
			return e, nil
		}
		p.pos++
		e = &Quant{Kind: kind, Expr: e}
	}
}

func (p *exprParser) primary() (Expr, error) {
	switch c := p.peek(); {
	case c == '(':
		p.pos++
		e, err := p.alternatives()
		if err != nil {
			return nil, err
		}
		if p.peek() != ')' {
			return nil, fmt.Errorf("missing ')' at offset %d", p.pos)
		}
		p.pos++
		return e, nil
	case c == '\'':
		return p.literal()
	case c == '_' || unicode.IsLetter(rune(c)):
		start := p.pos
		for p.pos < len(p.input) {
			r := rune(p.input[p.pos])
			if r != '_' && !unicode.IsLetter(r) && !unicode.IsDigit(r) {
				break
			}
			p.pos++
		}
		return &Ref{Symbol: tree.Symbol(p.input[start:p.pos])}, nil
	default:
		return nil, fmt.Errorf("unexpected '%c' at offset %d", c, p.pos)
	}
}

// literal reads a quoted literal. A backslash escapes the next character.
func (p *exprParser) literal() (Expr, error) {
	start := p.pos
	p.pos++
	var b strings.Builder
	for p.pos < len(p.input) {
		c := p.input[p.pos]
		switch c {
		case '\\':
			if p.pos+1 >= len(p.input) {
				return nil, fmt.Errorf("unterminated literal at offset %d", start)
			}
			b.WriteByte(p.input[p.pos+1])
			p.pos += 2
		case '\'':
			p.pos++
			if b.Len() == 0 {
				return nil, fmt.Errorf("empty literal at offset %d", start)
			}
			return &Ref{Literal: b.String()}, nil
		default:
			b.WriteByte(c)
			p.pos++
		}
	}
	return nil, fmt.Errorf("unterminated literal at offset %d", start)
}
