package query

import (
	"fmt"
	"strings"
	"unicode"
)

// operator keywords that may legally precede "(".
var keywords = map[string]bool{
	"and": true, "or": true, "not": true, "in": true,
	"contains": true, "matches": true, "startsWith": true, "endsWith": true,
}

// Validate rejects anything beyond comparisons, boolean logic and plain
// arithmetic over the step's flat fields.
func Validate(src string) error {
	src = strings.TrimSpace(src)
	if src == "" {
		return nil
	}

	illegalChars := []rune{'{', '}', '[', ']', ';', ':', '?', '@', '#', '$', '\\'}
	for _, ch := range illegalChars {
		if strings.ContainsRune(src, ch) {
			return fmt.Errorf("illegal character %q", ch)
		}
	}

	for i := 0; i < len(src); i++ {
		if src[i] != '.' {
			continue
		}
		// decimal literals such as 0.5 are fine
		if i > 0 && i < len(src)-1 && isDigit(src[i-1]) && isDigit(src[i+1]) {
			continue
		}
		return fmt.Errorf("dot access is not allowed")
	}

	for i := 0; i < len(src); i++ {
		if src[i] != '(' {
			continue
		}
		j := i - 1
		for j >= 0 && unicode.IsSpace(rune(src[j])) {
			j--
		}
		if j < 0 || !(unicode.IsLetter(rune(src[j])) || src[j] == '_') {
			continue
		}
		k := j
		for k >= 0 && (unicode.IsLetter(rune(src[k])) || isDigit(src[k]) || src[k] == '_') {
			k--
		}
		ident := src[k+1 : j+1]
		if ident != "" && !keywords[ident] {
			return fmt.Errorf("function calls are not allowed (found %q(...))", ident)
		}
	}

	return nil
}

func isDigit(b byte) bool { return b >= '0' && b <= '9' }
