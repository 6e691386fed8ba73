package args

import (
	"strings"
	"unicode"
)

// Split turns a script or parameter field into argument tokens.
//
// A field with a comma after its first character is split on commas and each
// segment is kept verbatim, whitespace included. Trailing empty segments are
// dropped. Any other field is whitespace tokenized.
func Split(field string) []string {
	if strings.IndexByte(field, ',') > 0 {
		return splitComma(field)
	}
	return Tokenize(field)
}

func splitComma(field string) []string {
	parts := strings.Split(field, ",")
	end := len(parts)
	for end > 0 && parts[end-1] == "" {
		end--
	}
	return parts[:end]
}

// Tokenize splits s on whitespace. Single or double quotes group text into
// one token and are removed. Backslashes are literal so Windows paths pass
// through unchanged.
func Tokenize(s string) []string {
	var (
		out     []string
		cur     strings.Builder
		quote   rune
		inToken bool
	)
	for _, r := range s {
		switch {
		case quote != 0:
			if r == quote {
				quote = 0
				continue
			}
			cur.WriteRune(r)
		case r == '"' || r == '\'':
			quote = r
			inToken = true
		case unicode.IsSpace(r):
			if inToken {
				out = append(out, cur.String())
				cur.Reset()
				inToken = false
			}
		default:
			cur.WriteRune(r)
			inToken = true
		}
	}
	if inToken {
		out = append(out, cur.String())
	}
	return out
}
