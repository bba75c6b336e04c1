package grammar

import (
	"fmt"
	"os"
	"regexp"
	"strings"

	"github.com/rmohr/treereduce/pkg/tree"
	"sigs.k8s.io/yaml"
)

// TokenRule describes a terminal. Either Pattern (a Go regular expression)
// or Literal has to be set. Skipped tokens (whitespace, comments) are not
// handed to the parser but stay attached to the next token.
type TokenRule struct {
	Name    tree.Symbol `json:"name"`
	Pattern string      `json:"pattern,omitempty"`
	Literal string      `json:"literal,omitempty"`
	Skip    bool        `json:"skip,omitempty"`

	re *regexp.Regexp
}

// Rule is a parser rule. Expr uses EBNF notation: juxtaposition for
// sequences, '|' for ordered alternatives, parentheses for grouping, the
// postfix quantifiers '?', '*' and '+' and quoted literals.
type Rule struct {
	Name tree.Symbol `json:"name"`
	Expr string      `json:"expr"`

	expr Expr
}

type Grammar struct {
	Name   string       `json:"name,omitempty"`
	Start  tree.Symbol  `json:"start,omitempty"`
	Tokens []*TokenRule `json:"tokens"`
	Rules  []*Rule      `json:"rules"`

	tokens map[tree.Symbol]*TokenRule
	rules  map[tree.Symbol]*Rule
	// items maps quantified groups to the symbol of their list items.
	items map[*Quant]tree.Symbol
}

func LoadGrammarFile(file string) (*Grammar, error) {
	data, err := os.ReadFile(file)
	if err != nil {
		return nil, fmt.Errorf("failed to read grammar %s: %v", file, err)
	}
	g, err := ParseGrammar(data)
	if err != nil {
		return nil, fmt.Errorf("failed to load grammar %s: %v", file, err)
	}
	return g, nil
}

// ParseGrammar reads a YAML grammar and resolves all symbol references.
func ParseGrammar(data []byte) (*Grammar, error) {
	g := &Grammar{}
	if err := yaml.UnmarshalStrict(data, g); err != nil {
		return nil, err
	}
	if err := g.init(); err != nil {
		return nil, err
	}
	return g, nil
}

func (g *Grammar) init() error {
	if len(g.Rules) == 0 {
		return fmt.Errorf("grammar has no rules")
	}
	if g.Start == "" {
		g.Start = g.Rules[0].Name
	}
	g.tokens = map[tree.Symbol]*TokenRule{}
	g.rules = map[tree.Symbol]*Rule{}
	g.items = map[*Quant]tree.Symbol{}

	for _, t := range g.Tokens {
		if err := g.addToken(t); err != nil {
			return err
		}
	}
	for _, r := range g.Rules {
		if r.Name == "" || strings.HasPrefix(string(r.Name), "<") {
			return fmt.Errorf("invalid rule name '%s'", r.Name)
		}
		if _, exists := g.rules[r.Name]; exists {
			return fmt.Errorf("rule %s is defined twice", r.Name)
		}
		if _, exists := g.tokens[r.Name]; exists {
			return fmt.Errorf("rule %s clashes with a token of the same name", r.Name)
		}
		g.rules[r.Name] = r
	}
	for _, r := range g.Rules {
		expr, err := parseExpr(r.Expr)
		if err != nil {
			return fmt.Errorf("failed to parse rule %s: %v", r.Name, err)
		}
		r.expr = expr
	}
	for _, r := range g.Rules {
		counter := 0
		if err := g.resolve(r, r.expr, &counter); err != nil {
			return err
		}
	}
	if _, exists := g.rules[g.Start]; !exists {
		return fmt.Errorf("start rule %s is not defined", g.Start)
	}
	return nil
}

func (g *Grammar) addToken(t *TokenRule) error {
	if t.Name == "" {
		return fmt.Errorf("token without name")
	}
	if _, exists := g.tokens[t.Name]; exists {
		return fmt.Errorf("token %s is defined twice", t.Name)
	}
	pattern := t.Pattern
	switch {
	case t.Literal != "" && t.Pattern != "":
		return fmt.Errorf("token %s has both a pattern and a literal", t.Name)
	case t.Literal != "":
		pattern = regexp.QuoteMeta(t.Literal)
	case t.Pattern == "":
		return fmt.Errorf("token %s has neither a pattern nor a literal", t.Name)
	}
	re, err := regexp.Compile(`^(?:` + pattern + `)`)
	if err != nil {
		return fmt.Errorf("failed to compile pattern of token %s: %v", t.Name, err)
	}
	re.Longest()
	t.re = re
	g.tokens[t.Name] = t
	return nil
}

// resolve checks references, turns quoted literals into token rules and
// assigns item symbols to quantified elements.
func (g *Grammar) resolve(r *Rule, e Expr, counter *int) error {
	switch e := e.(type) {
	case *Ref:
		if e.Literal != "" {
			e.Symbol = g.literalToken(e.Literal)
			return nil
		}
		if _, isToken := g.tokens[e.Symbol]; isToken {
			return nil
		}
		if _, isRule := g.rules[e.Symbol]; isRule {
			return nil
		}
		return fmt.Errorf("rule %s references undefined symbol %s", r.Name, e.Symbol)
	case *Seq:
		for _, item := range e.Items {
			if err := g.resolve(r, item, counter); err != nil {
				return err
			}
		}
	case *Alt:
		for _, alt := range e.Alternatives {
			if err := g.resolve(r, alt, counter); err != nil {
				return err
			}
		}
	case *Quant:
		if err := g.resolve(r, e.Expr, counter); err != nil {
			return err
		}
		if ref, ok := e.Expr.(*Ref); ok {
			g.items[e] = ref.Symbol
		} else {
			*counter++
			g.items[e] = tree.Symbol(fmt.Sprintf("%s#%d", r.Name, *counter))
		}
	}
	return nil
}

// literalToken returns the token for a quoted literal, defining an implicit
// token rule on first use.
func (g *Grammar) literalToken(literal string) tree.Symbol {
	for _, t := range g.Tokens {
		if t.Literal == literal {
			return t.Name
		}
	}
	name := tree.Symbol("'" + literal + "'")
	t := &TokenRule{Name: name, Literal: literal}
	// implicit literals take precedence over pattern tokens of equal length
	g.Tokens = append([]*TokenRule{t}, g.Tokens...)
	if err := g.addToken(t); err != nil {
		panic(err)
	}
	return name
}

func (g *Grammar) Token(symbol tree.Symbol) (*TokenRule, bool) {
	t, ok := g.tokens[symbol]
	return t, ok
}

func (g *Grammar) Rule(symbol tree.Symbol) (*Rule, bool) {
	r, ok := g.rules[symbol]
	return r, ok
}

func (g *Grammar) IsToken(symbol tree.Symbol) bool {
	_, ok := g.tokens[symbol]
	return ok || symbol == tree.EOF
}

// ItemSymbol returns the expected symbol of the list items produced by a
// quantified element.
func (g *Grammar) ItemSymbol(q *Quant) tree.Symbol {
	return g.items[q]
}

// Terminal resolves a terminal by name. Literals may be given quoted.
func (g *Grammar) Terminal(name string) (tree.Symbol, error) {
	if t, ok := g.tokens[tree.Symbol(name)]; ok {
		return t.Name, nil
	}
	if len(name) >= 2 && name[0] == '\'' && name[len(name)-1] == '\'' {
		for _, t := range g.Tokens {
			if t.Literal == name[1:len(name)-1] {
				return t.Name, nil
			}
		}
	}
	return "", fmt.Errorf("undefined terminal '%s'", name)
}
