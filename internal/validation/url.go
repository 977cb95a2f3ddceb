package validation

import (
	"fmt"
	"net/url"
	"strings"
)

// ValidateStaticURL validates the prefix prepended to every emitted asset
// reference. It must be a path ("/static/") or an absolute http(s) URL and
// must end in a slash, since items are appended to it verbatim.
func ValidateStaticURL(rawURL string) error {
	if rawURL == "" {
		return fmt.Errorf("static URL cannot be empty")
	}

	parsed, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("invalid static URL: %w", err)
	}

	if parsed.Scheme != "" {
		if parsed.Scheme != "http" && parsed.Scheme != "https" {
			return fmt.Errorf("invalid static URL scheme: %s (only http/https allowed)", parsed.Scheme)
		}
		if parsed.Host == "" {
			return fmt.Errorf("static URL must have a valid hostname")
		}
	} else if !strings.HasPrefix(rawURL, "/") {
		return fmt.Errorf("static URL must be absolute or start with '/': %s", rawURL)
	}

	dangerous := []string{"\"", "'", "<", ">", "`", " ", "\n", "\r"}
	for _, char := range dangerous {
		if strings.Contains(rawURL, char) {
			return fmt.Errorf("static URL contains dangerous character: %q", char)
		}
	}

	if !strings.HasSuffix(rawURL, "/") {
		return fmt.Errorf("static URL must end with '/': %s", rawURL)
	}

	return nil
}
