package grammar

import (
	"fmt"
	"os"
	"sort"

	"github.com/rmohr/treereduce/pkg/tree"
	"sigs.k8s.io/yaml"
)

// JoinFunc renders a token sequence as text.
type JoinFunc func(tokens []tree.Token) string

// Tables bundles the grammar analyses the reducers consult.
type Tables struct {
	Subsumption      map[tree.Symbol]SymbolSet
	PossibleSubTrees map[tree.Symbol][]SubTreeSequence
	MinTrees         map[tree.Symbol][]SubTreeSequence
	// Replacements maps every symbol to the tokens of a smallest subtree
	// that can take the place of a node with that expected symbol.
	Replacements map[tree.Symbol][]tree.Token
}

// ComputeTables runs all grammar analyses. Overrides replace the computed
// smallest token of a symbol before replacements of the rules are derived.
func (g *Grammar) ComputeTables(join JoinFunc, overrides map[tree.Symbol][]tree.Token) (*Tables, error) {
	gg := g.Graph()
	minTokens, err := g.MinTokens()
	if err != nil {
		return nil, err
	}
	for symbol, tokens := range overrides {
		minTokens[symbol] = tokens
	}
	minTrees := MinTrees(gg)
	return &Tables{
		Subsumption:      Subsumption(gg),
		PossibleSubTrees: PossibleSubTrees(gg),
		MinTrees:         minTrees,
		Replacements:     minTokenSequences(minTrees, minTokens, join),
	}, nil
}

// MinTokens computes a shortest token for every terminal.
func (g *Grammar) MinTokens() (map[tree.Symbol][]tree.Token, error) {
	minTokens := map[tree.Symbol][]tree.Token{
		tree.EOF: {tree.NewToken(tree.EOF, "")},
	}
	for _, t := range g.Tokens {
		text := t.Literal
		if text == "" {
			s, err := MinString(t.Pattern)
			if err != nil {
				return nil, fmt.Errorf("failed to compute the smallest string of token %s: %v", t.Name, err)
			}
			text = s
		}
		minTokens[t.Name] = []tree.Token{tree.NewToken(t.Name, text)}
	}
	return minTokens, nil
}

func minTokenSequences(minTrees map[tree.Symbol][]SubTreeSequence, replacements map[tree.Symbol][]tree.Token, join JoinFunc) map[tree.Symbol][]tree.Token {
	result := map[tree.Symbol][]tree.Token{}
	for symbol, tokens := range replacements {
		result[symbol] = tokens
	}
	for symbol, seqs := range minTrees {
		if _, overridden := replacements[symbol]; overridden {
			continue
		}
		var shortest []tree.Token
		shortestLength := -1
		for _, seq := range seqs {
			tokens := seq.Tokens(replacements)
			if length := len(join(tokens)); shortestLength == -1 || length < shortestLength {
				shortest = tokens
				shortestLength = length
			}
		}
		if shortestLength != -1 {
			result[symbol] = shortest
		}
	}
	return result
}

// LoadReplacements reads a YAML mapping from symbols to replacement text.
// Terminals may be given by name or as quoted literal. The text is lexed
// with the grammar's lexer.
func (g *Grammar) LoadReplacements(file string) (map[tree.Symbol][]tree.Token, error) {
	data, err := os.ReadFile(file)
	if err != nil {
		return nil, fmt.Errorf("failed to read replacements %s: %v", file, err)
	}
	raw := map[string]string{}
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse replacements %s: %v", file, err)
	}
	return g.Replacements(raw)
}

func (g *Grammar) Replacements(raw map[string]string) (map[tree.Symbol][]tree.Token, error) {
	replacements := map[tree.Symbol][]tree.Token{}
	for name, text := range raw {
		symbol := tree.Symbol(name)
		if t, err := g.Terminal(name); err == nil {
			symbol = t
		} else if _, isRule := g.rules[symbol]; !isRule {
			return nil, fmt.Errorf("replacement for undefined symbol %s", name)
		}
		tokens, err := g.Lexer().Lex(text)
		if err != nil {
			return nil, fmt.Errorf("failed to lex replacement for %s: %v", name, err)
		}
		var replacement []tree.Token
		for _, token := range tokens[:len(tokens)-1] {
			replacement = append(replacement, tree.NewToken(token.Symbol, token.Text))
		}
		replacements[symbol] = replacement
	}
	return replacements, nil
}

// SortedSymbols returns the keys of a symbol table in order.
func SortedSymbols[T any](table map[tree.Symbol]T) []tree.Symbol {
	symbols := make([]tree.Symbol, 0, len(table))
	for symbol := range table {
		symbols = append(symbols, symbol)
	}
	sort.Slice(symbols, func(i, j int) bool { return symbols[i] < symbols[j] })
	return symbols
}
