package pdfhelper

import (
	"net/http"
	"time"

	"github.com/rs/zerolog"
)

// Defaults used when no option overrides them.
const (
	DefaultResponseTimeout    = 30 * time.Second
	DefaultUploadSuccessReset = 3 * time.Second
)

// --- Client Options ---

// ClientOption configures a Client.
type ClientOption func(*clientConfig)

type clientConfig struct {
	httpClient *http.Client
	logger     zerolog.Logger
	header     http.Header
}

// WithHTTPClient sets the HTTP client used for API calls and the WebSocket
// handshake.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *clientConfig) {
		c.httpClient = hc
	}
}

// WithLogger sets a structured logger for the client. Sessions opened through
// the client inherit it unless WithSessionLogger is given.
func WithLogger(logger zerolog.Logger) ClientOption {
	return func(c *clientConfig) {
		c.logger = logger
	}
}

// WithHeader adds an HTTP header to every request and to the WebSocket
// handshake.
func WithHeader(key, value string) ClientOption {
	return func(c *clientConfig) {
		if c.header == nil {
			c.header = http.Header{}
		}
		c.header.Add(key, value)
	}
}

// --- Session Options ---

// SessionOption configures a ChatSession.
type SessionOption func(*sessionConfig)

type sessionConfig struct {
	logger          *zerolog.Logger
	responseTimeout time.Duration
	marker          string
	onEvent         func(Event)
	onSend          func(string)
	onReceive       func(*ChatFrame)
}

func defaultSessionConfig() sessionConfig {
	return sessionConfig{
		responseTimeout: DefaultResponseTimeout,
		marker:          DefaultCompletionMarker,
	}
}

// WithSessionLogger sets a structured logger for the session.
func WithSessionLogger(logger zerolog.Logger) SessionOption {
	return func(c *sessionConfig) {
		c.logger = &logger
	}
}

// WithResponseTimeout sets how long Send waits for the completion marker
// before committing whatever was received. Non-positive values are ignored.
func WithResponseTimeout(d time.Duration) SessionOption {
	return func(c *sessionConfig) {
		if d > 0 {
			c.responseTimeout = d
		}
	}
}

// WithCompletionMarker sets the substring that marks the last fragment of an
// answer. Empty values are ignored.
func WithCompletionMarker(marker string) SessionOption {
	return func(c *sessionConfig) {
		if marker != "" {
			c.marker = marker
		}
	}
}

// WithOnEvent sets a callback invoked for every session event. It is called
// from the session's goroutines and must not block.
func WithOnEvent(fn func(Event)) SessionOption {
	return func(c *sessionConfig) {
		c.onEvent = fn
	}
}

// WithOnSend sets a callback invoked before each question is written.
func WithOnSend(fn func(text string)) SessionOption {
	return func(c *sessionConfig) {
		c.onSend = fn
	}
}

// WithOnReceive sets a callback invoked after each frame is decoded.
func WithOnReceive(fn func(*ChatFrame)) SessionOption {
	return func(c *sessionConfig) {
		c.onReceive = fn
	}
}

// --- Uploader Options ---

// UploaderOption configures an Uploader.
type UploaderOption func(*Uploader)

// WithSuccessReset sets how long the success state is kept before the
// uploader returns to idle.
func WithSuccessReset(d time.Duration) UploaderOption {
	return func(u *Uploader) {
		if d > 0 {
			u.successReset = d
		}
	}
}

// WithOnUploadChange sets a callback invoked after every state change,
// including the delayed return from success to idle.
func WithOnUploadChange(fn func(UploadState)) UploaderOption {
	return func(u *Uploader) {
		u.onChange = fn
	}
}
