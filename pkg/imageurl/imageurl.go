// Package imageurl turns stored upload paths into absolute URLs that are safe
// to hand to a browser.
package imageurl

import (
	"net/url"
	"strings"
)

var poisoned = []string{"undefined", "null", "NaN"}

// Resolve joins path onto baseURL. It returns "" when path is blank, when the
// result carries a stringified JS null value, or when it is not an absolute
// http(s) URL.
func Resolve(baseURL, path string) string {
	clean := strings.TrimSpace(strings.ReplaceAll(path, `\`, "/"))
	if clean == "" {
		return ""
	}
	if strings.HasPrefix(clean, "http://") || strings.HasPrefix(clean, "https://") {
		return validate(clean)
	}

	final := strings.TrimRight(baseURL, "/") + "/" + strings.TrimLeft(clean, "/")
	return validate(final)
}

// Valid reports whether path resolves to a usable URL.
func Valid(baseURL, path string) bool {
	return Resolve(baseURL, path) != ""
}

func validate(raw string) string {
	for _, p := range poisoned {
		if strings.Contains(raw, p) {
			return ""
		}
	}
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		return ""
	}
	return raw
}
