package tree

import "strings"

type Position struct {
	Offset int
	Line   int
	Column int
}

// Unknown marks tokens that were not read from the input, e.g. replacement
// tokens synthesized from the grammar.
var Unknown = Position{Offset: -1, Line: -1, Column: -1}

type Token struct {
	Symbol Symbol
	Text   string
	// Skipped holds the skipped tokens (whitespace, comments) that preceded
	// this token in the input.
	Skipped []Token
	Begin   Position
	End     Position
}

// NewToken creates a synthetic token without source position.
func NewToken(symbol Symbol, text string) Token {
	return Token{Symbol: symbol, Text: text, Begin: Unknown, End: Unknown}
}

func (t Token) IsOriginal() bool {
	return t.Begin.Offset >= 0
}

// WithPosition returns a copy without skipped tokens, positioned at the
// given range.
func (t Token) WithPosition(begin, end Position) Token {
	return Token{Symbol: t.Symbol, Text: t.Text, Begin: begin, End: end}
}

// SkippedText returns the concatenated text of the skipped tokens.
func (t Token) SkippedText() string {
	if len(t.Skipped) == 0 {
		return ""
	}
	var b strings.Builder
	for _, s := range t.Skipped {
		b.WriteString(s.Text)
	}
	return b.String()
}

// AppendTo appends the skipped text and the text of the token to b.
func (t Token) AppendTo(b *strings.Builder) {
	for _, s := range t.Skipped {
		b.WriteString(s.Text)
	}
	b.WriteString(t.Text)
}

func (t Token) String() string {
	var b strings.Builder
	t.AppendTo(&b)
	return b.String()
}
