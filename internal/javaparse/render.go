package javaparse

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// joinTokens renders a token sequence canonically. Layout differences in the
// original source never reach the rendering, while token boundaries that
// change meaning (- -j against --j) always do.
func joinTokens(tokens []string) string {
	var b strings.Builder
	prev := ""
	for _, tok := range tokens {
		if tok == "" {
			continue
		}
		if prev != "" && needsSpace(prev, tok) {
			b.WriteByte(' ')
		}
		b.WriteString(tok)
		prev = tok
	}
	return b.String()
}

// needsSpace reports whether a space separates prev and tok. Two words are
// always separated, as are two adjacent operator tokens, so a split operator
// never renders like the fused one. A word following a closed type
// (List<T> x, int[] x, int... x) is separated for readability.
func needsSpace(prev, tok string) bool {
	if startsWord(tok) {
		return endsWord(prev) || closesType(prev)
	}
	last, _ := utf8.DecodeLastRuneInString(prev)
	first, _ := utf8.DecodeRuneInString(tok)
	if !isOperatorRune(last) || !isOperatorRune(first) {
		return false
	}
	// Nested type arguments close as separate tokens: List<List<T>>.
	return !(onlyRune(prev, '>') && onlyRune(tok, '>'))
}

func closesType(s string) bool {
	return s == "..." || strings.HasSuffix(s, ">") || strings.HasSuffix(s, "]")
}

func onlyRune(s string, r rune) bool {
	return strings.Trim(s, string(r)) == ""
}

func isOperatorRune(r rune) bool {
	return strings.ContainsRune("+-*/%&|^!~<>=?:.@", r)
}

func startsWord(s string) bool {
	r, _ := utf8.DecodeRuneInString(s)
	return isWordRune(r)
}

func endsWord(s string) bool {
	r, _ := utf8.DecodeLastRuneInString(s)
	return isWordRune(r)
}

func isWordRune(r rune) bool {
	return r == '_' || r == '$' || unicode.IsLetter(r) || unicode.IsDigit(r)
}

// bracketList renders parameters the way they are keyed: "[a, b]".
func bracketList(items []string) string {
	return "[" + strings.Join(items, ", ") + "]"
}
