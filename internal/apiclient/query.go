package apiclient

import (
	"net/url"
	"sort"
	"strings"
)

// AllSentinel is the select value meaning "no filter".
const AllSentinel = "all"

// IsUnset reports whether a filter value means "no filter".
func IsUnset(value string) bool {
	trimmed := strings.TrimSpace(value)
	return trimmed == "" || strings.EqualFold(trimmed, AllSentinel)
}

// BuildQuery serialises filters, omitting empty and "all" values. Concrete
// values are kept verbatim.
func BuildQuery(filters map[string]string) url.Values {
	values := url.Values{}
	keys := make([]string, 0, len(filters))
	for key := range filters {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		value := filters[key]
		if IsUnset(value) {
			continue
		}
		values.Set(key, value)
	}
	return values
}

func joinPath(base *url.URL, path string, query url.Values) string {
	resolved := *base
	cleanPath := strings.TrimLeft(path, "/")
	basePath := strings.TrimRight(base.Path, "/")
	// path segments arrive already escaped
	escaped := basePath + "/" + cleanPath
	if unescaped, err := url.PathUnescape(escaped); err == nil {
		resolved.Path = unescaped
		resolved.RawPath = escaped
	} else {
		resolved.Path = escaped
		resolved.RawPath = ""
	}
	if len(query) > 0 {
		resolved.RawQuery = query.Encode()
	} else {
		resolved.RawQuery = ""
	}
	return resolved.String()
}
