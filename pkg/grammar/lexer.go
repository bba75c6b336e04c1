package grammar

import (
	"fmt"
	"strings"

	"github.com/rmohr/treereduce/pkg/tree"
)

type Lexer struct {
	rules []*TokenRule
}

func (g *Grammar) Lexer() *Lexer {
	return &Lexer{rules: g.Tokens}
}

// Lex splits text into tokens. At every position the longest match wins,
// ties go to the rule declared first. Skipped tokens are attached to the
// following token. The result always ends with an EOF token that carries
// the trailing skipped tokens.
func (l *Lexer) Lex(text string) ([]tree.Token, error) {
	var tokens []tree.Token
	var skipped []tree.Token
	pos := tree.Position{Offset: 0, Line: 1, Column: 1}

	for pos.Offset < len(text) {
		rule, length := l.match(text[pos.Offset:])
		if rule == nil {
			return nil, fmt.Errorf("failed to lex input at line %d column %d: unexpected %q", pos.Line, pos.Column, preview(text[pos.Offset:]))
		}
		value := text[pos.Offset : pos.Offset+length]
		end := advance(pos, value)
		token := tree.Token{Symbol: rule.Name, Text: value, Begin: pos, End: end}
		if rule.Skip {
			skipped = append(skipped, token)
		} else {
			token.Skipped = skipped
			skipped = nil
			tokens = append(tokens, token)
		}
		pos = end
	}
	tokens = append(tokens, tree.Token{Symbol: tree.EOF, Skipped: skipped, Begin: pos, End: pos})
	return tokens, nil
}

// Count returns the number of non-skipped tokens in text.
func (l *Lexer) Count(text string) (int, error) {
	tokens, err := l.Lex(text)
	if err != nil {
		return 0, err
	}
	return len(tokens) - 1, nil
}

func (l *Lexer) match(text string) (*TokenRule, int) {
	var best *TokenRule
	bestLength := 0
	for _, rule := range l.rules {
		loc := rule.re.FindStringIndex(text)
		if loc == nil || loc[1] == 0 {
			continue
		}
		if loc[1] > bestLength {
			best = rule
			bestLength = loc[1]
		}
	}
	return best, bestLength
}

func advance(pos tree.Position, value string) tree.Position {
	pos.Offset += len(value)
	if n := strings.Count(value, "\n"); n > 0 {
		pos.Line += n
		pos.Column = len(value) - strings.LastIndex(value, "\n")
	} else {
		pos.Column += len(value)
	}
	return pos
}

func preview(text string) string {
	if len(text) > 10 {
		return text[:10] + "..."
	}
	return text
}
