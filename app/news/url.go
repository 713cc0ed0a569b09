package news

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"net"
	"net/url"
	"strings"
)

var ErrMalformedURL = errors.New("malformed article URL")

// NormalizeURL canonicalises an article URL: absolute http(s) only, lower-case
// scheme and host, default port and fragment dropped.
func NormalizeURL(raw string) (string, error) {
	value := strings.TrimSpace(raw)
	if value == "" {
		return "", fmt.Errorf("empty URL: %w", ErrMalformedURL)
	}

	u, err := url.Parse(value)
	if err != nil {
		return "", fmt.Errorf("%q: %w", value, ErrMalformedURL)
	}

	u.Scheme = strings.ToLower(u.Scheme)
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", fmt.Errorf("%q: unsupported scheme: %w", value, ErrMalformedURL)
	}
	if u.Hostname() == "" {
		return "", fmt.Errorf("%q: missing host: %w", value, ErrMalformedURL)
	}

	host := strings.ToLower(u.Hostname())
	port := u.Port()
	if (u.Scheme == "http" && port == "80") || (u.Scheme == "https" && port == "443") {
		port = ""
	}
	switch {
	case port != "":
		host = net.JoinHostPort(host, port)
	case strings.Contains(host, ":"):
		host = "[" + host + "]"
	}
	u.Host = host
	u.Fragment = ""
	u.RawFragment = ""
	u.User = nil

	return u.String(), nil
}

// ArticleID derives the stable identifier of an article from its URL.
func ArticleID(rawURL string) (string, error) {
	normalized, err := NormalizeURL(rawURL)
	if err != nil {
		return "", err
	}

	hash := sha256.Sum256([]byte(normalized))
	return hex.EncodeToString(hash[:16]), nil
}
