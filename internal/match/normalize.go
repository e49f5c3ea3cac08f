package match

import (
	"strings"
	"unicode"
)

// Fold returns the comparison key of a member name. Case-sensitive matching
// compares names verbatim; otherwise names compare case-insensitively.
func Fold(s string, caseSensitive bool) string {
	if caseSensitive {
		return s
	}

	return strings.ToLower(s)
}

// SameName reports whether two member names match under the given mode.
func SameName(a, b string, caseSensitive bool) bool {
	if caseSensitive {
		return a == b
	}

	return strings.EqualFold(a, b)
}

// NormalizeIdent normalizes an identifier for fuzzy matching:
// CamelCase is tokenized, tokens are lower-cased and separators dropped.
//
//	"Order_ID" -> "orderid"
//	"customerName" -> "customername"
func NormalizeIdent(s string) string {
	return strings.Join(TokenizeIdent(s), "")
}

// TokenizeIdent splits an identifier into lowercase tokens.
//
//	"OrderID" -> ["order", "id"]
//	"XMLParser" -> ["xml", "parser"]
//	"home_city" -> ["home", "city"]
func TokenizeIdent(s string) []string {
	tokens := tokenizeCamelCase(s)
	for i, t := range tokens {
		tokens[i] = strings.ToLower(t)
	}

	return tokens
}

func tokenizeCamelCase(s string) []string {
	if s == "" {
		return nil
	}

	var tokens []string

	var current strings.Builder

	runes := []rune(s)
	for i, r := range runes {
		if isSeparator(r) {
			if current.Len() > 0 {
				tokens = append(tokens, current.String())
				current.Reset()
			}

			continue
		}

		if i > 0 && shouldStartNewToken(runes, i) && current.Len() > 0 {
			tokens = append(tokens, current.String())
			current.Reset()
		}

		current.WriteRune(r)
	}

	if current.Len() > 0 {
		tokens = append(tokens, current.String())
	}

	return tokens
}

func isSeparator(r rune) bool {
	return r == '_' || r == '-' || r == ' '
}

// shouldStartNewToken splits "orderID" before 'I' and "XMLParser" before 'P'.
func shouldStartNewToken(runes []rune, i int) bool {
	r := runes[i]
	prev := runes[i-1]
	isUpper := unicode.IsUpper(r)
	isPrevUpper := unicode.IsUpper(prev)

	if isUpper && !isPrevUpper && !isSeparator(prev) {
		return true
	}

	// end of an acronym
	hasNextLower := i+1 < len(runes) && unicode.IsLower(runes[i+1])

	return isUpper && isPrevUpper && hasNextLower
}
