// Package urlutil holds the canonical URL form shared by the queue, the
// validator and the publisher key.
package urlutil

import (
	"fmt"
	"net/url"
	"strings"
)

// Normalize canonicalizes a URL for deduplication: scheme and host are
// lowercased, fragment and query are dropped, and a trailing slash is trimmed
// unless the path is exactly "/". Normalize is idempotent; identical inputs
// yield identical outputs across instances.
func Normalize(rawURL string) (string, error) {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return "", fmt.Errorf("failed to parse URL %q: %w", rawURL, err)
	}

	parsed.Fragment = ""
	parsed.RawQuery = ""

	parsed.Scheme = strings.ToLower(parsed.Scheme)
	parsed.Host = strings.ToLower(parsed.Host)

	if parsed.Path != "/" {
		parsed.Path = strings.TrimRight(parsed.Path, "/")
	}

	return parsed.String(), nil
}
