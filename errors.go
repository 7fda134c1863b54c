package pdfhelper

import (
	"errors"
	"fmt"
)

// Sentinel errors for common conditions.
var (
	ErrClosed     = errors.New("pdfhelper: connection closed")
	ErrNotOpen    = errors.New("pdfhelper: connection not open")
	ErrEmptyInput = errors.New("pdfhelper: empty message")
	ErrBusy       = errors.New("pdfhelper: answer already pending")
	ErrNoFile     = errors.New("pdfhelper: no file selected")
	ErrNotPDF     = errors.New("pdfhelper: selected file is not a PDF")
	ErrNoResponse = errors.New("pdfhelper: no response received from the server")
)

// Inline error texts shown to the user. They match the backend's web client.
const (
	MsgNoResponse      = "No response received from the server"
	MsgFrameError      = "Error processing response from server"
	MsgConnectionError = "WebSocket connection error"
	MsgNoFile          = "Please select a file first"
	MsgNotPDF          = "Please select a PDF file"
	MsgUploadFailed    = "Failed to upload PDF. Please try again."
	MsgListFailed      = "Failed to fetch documents"
)

// ConnectionError represents a transport-level error.
type ConnectionError struct {
	Op  string
	URL string
	Err error
}

func (e *ConnectionError) Error() string {
	if e.URL != "" {
		return fmt.Sprintf("pdfhelper: %s %s: %v", e.Op, e.URL, e.Err)
	}
	return fmt.Sprintf("pdfhelper: %s: %v", e.Op, e.Err)
}

func (e *ConnectionError) Unwrap() error {
	return e.Err
}

// APIError is returned when the backend answers an HTTP call with a non-2xx
// status.
type APIError struct {
	Op         string
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	if e.Body != "" {
		return fmt.Sprintf("pdfhelper: %s: HTTP %d: %s", e.Op, e.StatusCode, e.Body)
	}
	return fmt.Sprintf("pdfhelper: %s: HTTP %d", e.Op, e.StatusCode)
}

// FrameError represents a socket frame that could not be decoded.
type FrameError struct {
	Raw string
	Err error
}

func (e *FrameError) Error() string {
	return fmt.Sprintf("pdfhelper: malformed frame: %v", e.Err)
}

func (e *FrameError) Unwrap() error {
	return e.Err
}
