package pdfhelper

// ConnState represents the state of a chat connection.
type ConnState string

const (
	// StateConnecting is reported by front ends while OpenChat is dialing.
	// A ChatSession itself starts in StateOpen.
	StateConnecting ConnState = "connecting"
	StateOpen       ConnState = "open"
	StateClosed     ConnState = "closed"
	StateErrored    ConnState = "errored"
)

// Event is a change in a ChatSession's observable state. Events are delivered
// through WithOnEvent in the order the session applied them.
type Event interface {
	Session() string
}

type eventBase struct {
	SessionID string
}

// Session returns the ID of the session that emitted the event.
func (e eventBase) Session() string {
	return e.SessionID
}

// EventStateChanged is emitted when the connection state changes.
type EventStateChanged struct {
	eventBase
	State ConnState
	Err   error
}

// EventSent is emitted when a question is appended, before it is written to
// the socket. A failed write follows it with EventConnectionError. Question is
// the user message; Placeholder is the empty assistant message that will
// receive the answer.
type EventSent struct {
	eventBase
	Question    Message
	Placeholder Message
}

// EventFragment is emitted for every answer fragment applied to the buffer.
type EventFragment struct {
	eventBase
	MessageID string
	Text      string
	Buffer    string
}

// EventCompleted is emitted when the completion marker arrives.
type EventCompleted struct {
	eventBase
	Message Message
}

// EventTimeout is emitted when the response timer expires first. Message holds
// the committed partial answer; Empty is set when nothing arrived at all.
type EventTimeout struct {
	eventBase
	Message Message
	Empty   bool
}

// EventFrameError is emitted when an inbound frame cannot be decoded.
type EventFrameError struct {
	eventBase
	Err error
}

// EventConnectionError is emitted when the transport fails.
type EventConnectionError struct {
	eventBase
	Err error
}
