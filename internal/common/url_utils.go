package common

import (
	"fmt"
	"net/url"
	"sort"
	"strings"
)

// Query parameters that never affect page identity.
var trackingParams = map[string]bool{
	"fbclid":       true,
	"gclid":        true,
	"msclkid":      true,
	"mc_cid":       true,
	"mc_eid":       true,
	"ref":          true,
	"share":        true,
	"source":       true,
	"_hsenc":       true,
	"_hsmi":        true,
	"igshid":       true,
	"spm":          true,
	"utm_campaign": true,
	"utm_content":  true,
	"utm_medium":   true,
	"utm_source":   true,
	"utm_term":     true,
}

// NormalizeURL canonicalizes a URL so the same resource always keys to the
// same string: scheme and host lowercased, default ports stripped, fragment
// dropped, tracking parameters removed, remaining query parameters sorted,
// and the trailing slash on a non-root path removed.
func NormalizeURL(rawURL string) (string, error) {
	trimmed := strings.TrimSpace(rawURL)
	if trimmed == "" {
		return "", fmt.Errorf("empty URL")
	}

	parsed, err := url.Parse(trimmed)
	if err != nil {
		return "", fmt.Errorf("failed to parse URL %q: %w", rawURL, err)
	}
	if parsed.Scheme == "" || parsed.Host == "" {
		return "", fmt.Errorf("URL %q missing scheme or host", rawURL)
	}

	parsed.Scheme = strings.ToLower(parsed.Scheme)
	parsed.Host = strings.ToLower(parsed.Host)
	parsed.Fragment = ""

	// Strip default ports
	if (parsed.Scheme == "http" && strings.HasSuffix(parsed.Host, ":80")) ||
		(parsed.Scheme == "https" && strings.HasSuffix(parsed.Host, ":443")) {
		parsed.Host = parsed.Host[:strings.LastIndex(parsed.Host, ":")]
	}

	// Drop tracking parameters, sort the rest for a stable ordering
	if parsed.RawQuery != "" {
		query := parsed.Query()
		keys := make([]string, 0, len(query))
		for key := range query {
			if trackingParams[strings.ToLower(key)] || strings.HasPrefix(strings.ToLower(key), "utm_") {
				continue
			}
			keys = append(keys, key)
		}
		sort.Strings(keys)

		var builder strings.Builder
		for _, key := range keys {
			values := query[key]
			sort.Strings(values)
			for _, value := range values {
				if builder.Len() > 0 {
					builder.WriteByte('&')
				}
				builder.WriteString(url.QueryEscape(key))
				builder.WriteByte('=')
				builder.WriteString(url.QueryEscape(value))
			}
		}
		parsed.RawQuery = builder.String()
	}

	// Trailing slash is not significant except at the root
	if parsed.Path != "/" {
		parsed.Path = strings.TrimSuffix(parsed.Path, "/")
	}

	return parsed.String(), nil
}
