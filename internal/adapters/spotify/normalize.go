package spotify

import (
	"strings"
	"unicode"
)

// noiseTokens are dropped from act names before matching. Festival line-ups
// decorate names with these ("The Foo (DJ set)", "Bar feat. Baz", "Live").
var noiseTokens = map[string]struct{}{
	"and":       {},
	"dj":        {},
	"feat":      {},
	"featuring": {},
	"ft":        {},
	"live":      {},
	"set":       {},
	"the":       {},
}

// normalizeSearchInput lowercases input, drops bracketed segments and
// punctuation, and removes noise tokens.
func normalizeSearchInput(input string) string {
	if input == "" {
		return ""
	}

	lower := strings.ToLower(input)
	filtered := stripBracketedSegments(lower)
	tokens := strings.Fields(cleanSeparators(filtered))

	cleaned := make([]string, 0, len(tokens))
	for _, token := range tokens {
		if _, drop := noiseTokens[token]; drop {
			continue
		}
		cleaned = append(cleaned, token)
	}
	if len(cleaned) == 0 {
		// a name made only of noise ("The The") is still a name
		return strings.Join(tokens, " ")
	}

	return strings.Join(cleaned, " ")
}

func stripBracketedSegments(input string) string {
	var out strings.Builder
	depth := 0
	for _, r := range input {
		switch r {
		case '(', '[':
			depth++
		case ')', ']':
			if depth > 0 {
				depth--
			}
		default:
			if depth == 0 {
				out.WriteRune(r)
			}
		}
	}

	return out.String()
}

func cleanSeparators(input string) string {
	var out strings.Builder
	lastSpace := false
	for _, r := range input {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			out.WriteRune(r)
			lastSpace = false
			continue
		}
		if !lastSpace {
			out.WriteRune(' ')
			lastSpace = true
		}
	}

	return out.String()
}
