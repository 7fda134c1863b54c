package pdfhelper

import (
	"fmt"
	"net/url"
	"os"
	"strings"
)

const (
	// DefaultBaseURL is used when no base URL is configured.
	DefaultBaseURL = "http://localhost:8000"

	// EnvBaseURL names the environment variable holding the backend base URL.
	EnvBaseURL = "PDFHELPER_API_URL"
)

// Endpoint paths relative to the base URL.
const (
	pathDocuments = "/get_documents/"
	pathUpload    = "/upload_pdf/"
	pathChat      = "/ws/chat"
)

// BaseURLFromEnv returns the base URL from EnvBaseURL, or DefaultBaseURL when
// it is unset or blank.
func BaseURLFromEnv() string {
	if v := strings.TrimSpace(os.Getenv(EnvBaseURL)); v != "" {
		return v
	}
	return DefaultBaseURL
}

// ChatURL derives the WebSocket chat endpoint from an HTTP base URL.
// https maps to wss and http to ws; ws and wss are kept as given.
func ChatURL(base string) (string, error) {
	u, err := parseBase(base)
	if err != nil {
		return "", err
	}

	switch u.Scheme {
	case "https", "wss":
		u.Scheme = "wss"
	case "http", "ws":
		u.Scheme = "ws"
	}
	u.Path = strings.TrimRight(u.Path, "/") + pathChat
	return u.String(), nil
}

// endpointURL joins an HTTP endpoint path onto the base URL.
func endpointURL(base, path string) (string, error) {
	u, err := parseBase(base)
	if err != nil {
		return "", err
	}

	switch u.Scheme {
	case "ws":
		u.Scheme = "http"
	case "wss":
		u.Scheme = "https"
	}
	u.Path = strings.TrimRight(u.Path, "/") + path
	return u.String(), nil
}

func parseBase(base string) (*url.URL, error) {
	u, err := url.Parse(strings.TrimSpace(base))
	if err != nil {
		return nil, fmt.Errorf("pdfhelper: invalid base URL %q: %w", base, err)
	}
	switch u.Scheme {
	case "http", "https", "ws", "wss":
	default:
		return nil, fmt.Errorf("pdfhelper: invalid base URL %q: unsupported scheme %q", base, u.Scheme)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("pdfhelper: invalid base URL %q: missing host", base)
	}
	u.RawQuery = ""
	u.Fragment = ""
	return u, nil
}
