package s3

import (
	"fmt"
	"net/url"
	"strings"
)

// Scheme is the URL scheme handled by ParseURL.
const Scheme = "s3"

// IsURL reports whether raw looks like an s3:// URL.
func IsURL(raw string) bool {
	return strings.HasPrefix(raw, Scheme+"://")
}

// ParseURL splits s3://bucket/path/to/key into bucket and key.
func ParseURL(raw string) (bucket, key string, err error) {
	u, err := url.Parse(raw)
	if err != nil {
		return "", "", fmt.Errorf("s3: parse url: %w", err)
	}
	if u.Scheme != Scheme {
		return "", "", fmt.Errorf("s3: unexpected scheme %q in %q", u.Scheme, raw)
	}
	key = strings.TrimPrefix(u.Path, "/")
	if u.Host == "" || key == "" {
		return "", "", fmt.Errorf("s3: url %q needs a bucket and a key", raw)
	}
	return u.Host, key, nil
}
