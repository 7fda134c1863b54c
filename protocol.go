package pdfhelper

import (
	"encoding/json"
	"strings"
)

// DefaultCompletionMarker is the substring that marks the final fragment of an
// answer. The backend appends a source listing that starts with it.
const DefaultCompletionMarker = "Source PDF"

// Event types sent by the server on the chat socket.
const (
	EventTypeAnswer = "answer"
)

// Role represents the author of a chat message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is one entry of the chat transcript.
type Message struct {
	ID      string `json:"id"`
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// --- Events (Server -> Client) ---

// ChatFrame is a single JSON frame received on the chat socket.
type ChatFrame struct {
	EventType string `json:"event_type"`
	Data      string `json:"data"`
}

// IsAnswer returns true if the frame carries an answer fragment.
func (f *ChatFrame) IsAnswer() bool {
	return f.EventType == EventTypeAnswer
}

// ContainsMarker reports whether the frame's text contains marker.
// An empty marker never matches.
func (f *ChatFrame) ContainsMarker(marker string) bool {
	return marker != "" && strings.Contains(f.Data, marker)
}

// ParseFrame decodes a raw socket frame.
func ParseFrame(data []byte) (*ChatFrame, error) {
	var frame ChatFrame
	if err := json.Unmarshal(data, &frame); err != nil {
		return nil, &FrameError{Raw: string(data), Err: err}
	}
	return &frame, nil
}

// --- HTTP payloads ---

// documentList is the body of GET /get_documents/.
type documentList struct {
	Data []string `json:"data"`
}

// UploadResult is the decoded reply of POST /upload_pdf/.
// The reference backend only sets Message; any other keys are kept in Raw.
type UploadResult struct {
	Message string
	Raw     map[string]any
}
