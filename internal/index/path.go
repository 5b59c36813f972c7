package index

import "strings"

// Normalize converts an entry name or lookup path to the form used as an index key.
//
// Leading and trailing slashes are trimmed, consecutive slashes collapse to
// one, and an empty result becomes ".". Dot elements are preserved as-is.
func Normalize(p string) string {
	p = strings.Trim(p, "/")
	if p == "" {
		return "."
	}
	if !strings.Contains(p, "//") {
		return p
	}

	parts := strings.Split(p, "/")
	result := parts[:0]
	for _, part := range parts {
		if part != "" {
			result = append(result, part)
		}
	}
	return strings.Join(result, "/")
}
