package step

import (
	"regexp"
	"strings"
)

var schemeRe = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9+.\-]*:`)

// IsAbsoluteURL reports whether u starts with a scheme.
func IsAbsoluteURL(u string) bool {
	return schemeRe.MatchString(u)
}

// ResolveURL joins a relative url onto base with exactly one slash between
// them. Absolute urls, and any url when base is empty, are returned as is.
func ResolveURL(base, u string) string {
	if IsAbsoluteURL(u) || base == "" {
		return u
	}
	return strings.TrimRight(base, "/") + "/" + strings.TrimLeft(u, "/")
}
