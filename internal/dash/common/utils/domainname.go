package utils

import (
	"strings"
	"unicode"
)

// CanonicalDomain returns a domain in the form the dashboard sends to the API:
// trimmed, lowercased and without trailing dots.
func CanonicalDomain(name string) string {
	name = strings.ToLower(strings.TrimSpace(name))
	for strings.HasSuffix(name, ".") {
		name = strings.TrimSuffix(name, ".")
	}
	return name
}

// StripWildcard removes a leading "*." or "." marker and canonicalizes the rest.
func StripWildcard(name string) string {
	name = strings.TrimSpace(name)
	name = strings.TrimPrefix(name, "*.")
	name = strings.TrimPrefix(name, ".")
	return CanonicalDomain(name)
}

// IsValidFQDN reports whether name looks like a fully qualified domain:
//   - at most 255 characters
//   - at least two labels, each 1 to 63 characters
//   - the first label starts with a letter or digit
func IsValidFQDN(name string) bool {
	if name == "" || len(name) > 255 {
		return false
	}
	labels := strings.Split(name, ".")
	if len(labels) < 2 {
		return false
	}
	for _, label := range labels {
		if len(label) == 0 || len(label) > 63 {
			return false
		}
	}
	first := []rune(labels[0])[0]
	return unicode.IsLetter(first) || unicode.IsDigit(first)
}
