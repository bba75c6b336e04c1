package grammar

import (
	"regexp/syntax"
	"strings"
	"unicode/utf8"
)

// MinString returns a shortest string matched by the regular expression.
// Among equally short candidates the first alternative and the lowest
// printable character of a class are preferred.
func MinString(pattern string) (string, error) {
	re, err := syntax.Parse(pattern, syntax.Perl)
	if err != nil {
		return "", err
	}
	return minString(re), nil
}

func minString(re *syntax.Regexp) string {
	switch re.Op {
	case syntax.OpLiteral:
		return string(re.Rune)
	case syntax.OpCharClass:
		return string(classRune(re.Rune))
	case syntax.OpAnyChar, syntax.OpAnyCharNotNL:
		return "a"
	case syntax.OpCapture:
		return minString(re.Sub[0])
	case syntax.OpStar, syntax.OpQuest:
		return ""
	case syntax.OpPlus:
		return minString(re.Sub[0])
	case syntax.OpRepeat:
		return strings.Repeat(minString(re.Sub[0]), re.Min)
	case syntax.OpConcat:
		var b strings.Builder
		for _, sub := range re.Sub {
			b.WriteString(minString(sub))
		}
		return b.String()
	case syntax.OpAlternate:
		shortest := ""
		for i, sub := range re.Sub {
			s := minString(sub)
			if i == 0 || utf8.RuneCountInString(s) < utf8.RuneCountInString(shortest) {
				shortest = s
			}
		}
		return shortest
	default:
		// anchors, word boundaries and empty matches
		return ""
	}
}

// classRune picks the first printable ASCII character of a character class
// and falls back to the lowest member.
func classRune(ranges []rune) rune {
	for i := 0; i+1 < len(ranges); i += 2 {
		lo, hi := ranges[i], ranges[i+1]
		if hi < ' ' || lo > '~' {
			continue
		}
		if lo < ' ' {
			return ' '
		}
		return lo
	}
	if len(ranges) == 0 {
		return 'a'
	}
	return ranges[0]
}
