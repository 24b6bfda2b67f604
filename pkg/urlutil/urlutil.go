package urlutil

import (
	"net/url"
	"strings"
)

// Canonicalize maps equivalent spellings of a link target to one form.
//
// Rules
//   - scheme and host are lowercased
//   - default ports are dropped (:80 for http, :443 for https)
//   - trailing slashes are removed, except for the root path
//   - fragment and query are removed
//
// Canonicalize is pure and idempotent.
func Canonicalize(sourceUrl url.URL) url.URL {
	canonical := sourceUrl

	canonical.Scheme = lowerASCII(canonical.Scheme)
	canonical.Host = lowerASCII(canonical.Host)

	if host, port := canonical.Hostname(), canonical.Port(); port != "" {
		if (canonical.Scheme == "http" && port == "80") ||
			(canonical.Scheme == "https" && port == "443") {
			canonical.Host = host
		}
	}

	if len(canonical.Path) > 1 {
		canonical.Path = stripTrailingSlash(canonical.Path)
		canonical.RawPath = ""
	}

	canonical.Fragment = ""
	canonical.RawFragment = ""
	canonical.RawQuery = ""
	canonical.ForceQuery = false

	return canonical
}

// Resolve turns an href or src attribute value into a canonical absolute URL.
// A nil base leaves relative references relative.
// It returns nil for empty values, fragment-only references, script
// pseudo-URLs and unparsable input.
func Resolve(base *url.URL, raw string) *url.URL {
	raw = strings.TrimSpace(raw)
	if raw == "" || strings.HasPrefix(raw, "#") {
		return nil
	}
	if strings.HasPrefix(lowerASCII(raw), "javascript:") {
		return nil
	}

	ref, err := url.Parse(raw)
	if err != nil {
		return nil
	}
	if base != nil {
		ref = base.ResolveReference(ref)
	}

	canonical := Canonicalize(*ref)
	return &canonical
}

// lowerASCII lowercases ASCII letters, allocating only when needed.
func lowerASCII(s string) string {
	var needsLower bool
	for i := 0; i < len(s); i++ {
		if s[i] >= 'A' && s[i] <= 'Z' {
			needsLower = true
			break
		}
	}
	if !needsLower {
		return s
	}
	b := []byte(s)
	for i := range b {
		if b[i] >= 'A' && b[i] <= 'Z' {
			b[i] += 'a' - 'A'
		}
	}
	return string(b)
}

func stripTrailingSlash(path string) string {
	for len(path) > 1 && path[len(path)-1] == '/' {
		path = path[:len(path)-1]
	}
	return path
}
