package llm

import (
	"fmt"
	"strings"
)

// Models often wrap JSON bodies in prose or markdown fences even when told
// not to. These helpers pull the first complete JSON value out of a
// completion so a chatty prefix does not break the contract.

// FirstJSONArray returns the first balanced JSON array in text.
func FirstJSONArray(text string) (string, error) {
	return firstBalanced(text, '[', ']')
}

// FirstJSONObject returns the first balanced JSON object in text.
func FirstJSONObject(text string) (string, error) {
	return firstBalanced(text, '{', '}')
}

func firstBalanced(text string, open, close byte) (string, error) {
	start := strings.IndexByte(text, open)
	if start < 0 {
		return "", fmt.Errorf("%w: no %q found in completion", ErrInvalidResponse, string(open))
	}

	depth := 0
	inString := false
	escaped := false

	for i := start; i < len(text); i++ {
		c := text[i]

		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}

		switch c {
		case '"':
			inString = true
		case open:
			depth++
		case close:
			depth--
			if depth == 0 {
				return text[start : i+1], nil
			}
		}
	}

	return "", fmt.Errorf("%w: unterminated %q in completion", ErrInvalidResponse, string(open))
}
