package pdfhelper

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// ChatSession is one chat connection and the transcript built over it.
// It is safe for concurrent use by multiple goroutines.
// However, only one answer can be pending at a time.
type ChatSession struct {
	id     string
	cfg    sessionConfig
	logger zerolog.Logger
	ctx    context.Context
	cancel context.CancelFunc

	mu        sync.Mutex
	transport Transport // nil once the connection is gone
	state     ConnState
	messages  []Message
	buffer    strings.Builder
	pending   *pendingAnswer
	errText   string
	closed    bool
}

// pendingAnswer is the completion future for one Send. It is resolved exactly
// once, by the completion marker, the response timer or Close, whichever
// comes first.
type pendingAnswer struct {
	index  int // position of the placeholder in messages
	stream *AnswerStream
	done   chan struct{}
}

// NewChatSession creates a session over an already connected transport and
// starts reading from it. This is useful for testing or custom transport
// implementations.
func NewChatSession(ctx context.Context, transport Transport, opts ...SessionOption) *ChatSession {
	ctx, cancel := context.WithCancel(ctx)

	cfg := defaultSessionConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	id := uuid.NewString()
	logger := zerolog.Nop()
	if cfg.logger != nil {
		logger = *cfg.logger
	}

	s := &ChatSession{
		id:        id,
		cfg:       cfg,
		logger:    logger.With().Str("session_id", id).Logger(),
		ctx:       ctx,
		cancel:    cancel,
		transport: transport,
		state:     StateOpen,
	}

	go s.readLoop(transport)

	return s
}

// ID returns the session ID.
func (s *ChatSession) ID() string {
	return s.id
}

// State returns the current connection state.
func (s *ChatSession) State() ConnState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Messages returns a copy of the transcript.
func (s *ChatSession) Messages() []Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Message, len(s.messages))
	copy(out, s.messages)
	return out
}

// Buffer returns the text received so far for the pending answer.
func (s *ChatSession) Buffer() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.buffer.String()
}

// Pending reports whether an answer is in flight.
func (s *ChatSession) Pending() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pending != nil
}

// Err returns the inline error text, or "" when there is none.
// It is cleared by the next successful Send or when the connection opens.
func (s *ChatSession) Err() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.errText
}

// Send transmits a question and returns a stream for its answer.
//
// Send leaves the session untouched and returns ErrEmptyInput for blank text,
// ErrNotOpen when the connection is gone and ErrBusy while another answer is
// pending. Otherwise it appends the user message and an empty assistant
// placeholder, writes the raw text to the socket and arms the response timer.
func (s *ChatSession) Send(ctx context.Context, text string) (*AnswerStream, error) {
	if strings.TrimSpace(text) == "" {
		return nil, ErrEmptyInput
	}

	s.mu.Lock()
	if s.transport == nil || s.state != StateOpen {
		s.mu.Unlock()
		return nil, ErrNotOpen
	}
	if s.pending != nil {
		s.mu.Unlock()
		return nil, ErrBusy
	}

	question := Message{ID: uuid.NewString(), Role: RoleUser, Content: text}
	placeholder := Message{ID: uuid.NewString(), Role: RoleAssistant}
	s.messages = append(s.messages, question, placeholder)

	p := &pendingAnswer{
		index:  len(s.messages) - 1,
		stream: newAnswerStream(placeholder.ID),
		done:   make(chan struct{}),
	}
	s.pending = p
	s.buffer.Reset()
	s.errText = ""
	transport := s.transport
	s.mu.Unlock()

	// Observability hook
	if s.cfg.onSend != nil {
		s.cfg.onSend(text)
	}

	s.logger.Debug().
		Str("message_id", question.ID).
		Int("length", len(text)).
		Msg("sending question")

	// Sent goes out before the write: the reply can be applied by the read
	// loop before Send returns.
	s.emit(EventSent{eventBase: s.base(), Question: question, Placeholder: placeholder})

	if err := transport.Send(ctx, text); err != nil {
		s.logger.Warn().Err(err).Msg("failed to send question")
		s.mu.Lock()
		if s.pending == p {
			s.pending = nil
			s.errText = MsgConnectionError
			p.stream.finish(AnswerResult{}, err)
			close(p.done)
		}
		s.mu.Unlock()
		s.emit(EventConnectionError{eventBase: s.base(), Err: err})
		return nil, err
	}

	go s.await(p)

	return p.stream, nil
}

// Close closes the connection and stops the response timer.
func (s *ChatSession) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	transport := s.transport
	s.transport = nil
	changed := s.state != StateClosed
	s.state = StateClosed
	if p := s.pending; p != nil {
		msg := s.commit(p)
		p.stream.finish(AnswerResult{Text: msg.Content}, ErrClosed)
	}
	s.mu.Unlock()

	var err error
	if transport != nil {
		err = transport.Close()
	}
	s.cancel()

	if changed {
		s.emit(EventStateChanged{eventBase: s.base(), State: StateClosed})
	}
	return err
}

// await resolves p with the committed partial answer if the response timer
// fires before the completion marker arrives. The timer does not follow the
// session context: a lost connection still ends the answer on time.
func (s *ChatSession) await(p *pendingAnswer) {
	timer := time.NewTimer(s.cfg.responseTimeout)
	defer timer.Stop()

	select {
	case <-p.done:
	case <-timer.C:
		s.expire(p)
	}
}

// expire commits whatever was buffered for p.
func (s *ChatSession) expire(p *pendingAnswer) {
	s.mu.Lock()
	if s.pending != p {
		s.mu.Unlock()
		return
	}

	msg := s.commit(p)
	empty := msg.Content == ""
	if empty {
		s.errText = MsgNoResponse
		p.stream.finish(AnswerResult{TimedOut: true}, ErrNoResponse)
	} else {
		p.stream.finish(AnswerResult{Text: msg.Content, TimedOut: true}, nil)
	}
	s.mu.Unlock()

	s.logger.Warn().
		Str("message_id", msg.ID).
		Bool("empty", empty).
		Dur("timeout", s.cfg.responseTimeout).
		Msg("response timeout")

	s.emit(EventTimeout{eventBase: s.base(), Message: msg, Empty: empty})
}

// commit moves the buffer into the placeholder and clears the pending state.
// Must be called with s.mu held.
func (s *ChatSession) commit(p *pendingAnswer) Message {
	s.messages[p.index].Content = s.buffer.String()
	s.buffer.Reset()
	s.pending = nil
	close(p.done)
	return s.messages[p.index]
}

// readLoop reads frames from the transport and applies them in order.
func (s *ChatSession) readLoop(transport Transport) {
	for {
		data, err := transport.Receive(s.ctx)
		if err != nil {
			s.handleDisconnect(transport, err)
			return
		}
		s.handleFrame(data)
	}
}

// handleFrame applies one inbound frame.
func (s *ChatSession) handleFrame(data []byte) {
	frame, err := ParseFrame(data)
	if err != nil {
		s.mu.Lock()
		s.errText = MsgFrameError
		s.mu.Unlock()

		s.logger.Warn().Err(err).Int("size", len(data)).Msg("failed to parse frame")
		s.emit(EventFrameError{eventBase: s.base(), Err: err})
		return
	}

	// Observability hook
	if s.cfg.onReceive != nil {
		s.cfg.onReceive(frame)
	}

	if !frame.IsAnswer() {
		s.logger.Debug().Str("event_type", frame.EventType).Msg("ignoring frame")
		return
	}

	s.mu.Lock()
	p := s.pending
	if p == nil {
		s.mu.Unlock()
		s.logger.Warn().Int("length", len(frame.Data)).Msg("dropping fragment with no pending answer")
		return
	}

	s.buffer.WriteString(frame.Data)
	p.stream.push(frame.Data)
	events := []Event{EventFragment{
		eventBase: s.base(),
		MessageID: p.stream.MessageID(),
		Text:      frame.Data,
		Buffer:    s.buffer.String(),
	}}

	if frame.ContainsMarker(s.cfg.marker) {
		msg := s.commit(p)
		p.stream.finish(AnswerResult{Text: msg.Content, Complete: true}, nil)
		events = append(events, EventCompleted{eventBase: s.base(), Message: msg})
		s.logger.Debug().Str("message_id", msg.ID).Int("length", len(msg.Content)).Msg("answer complete")
	}
	s.mu.Unlock()

	for _, ev := range events {
		s.emit(ev)
	}
}

// handleDisconnect clears the connection handle after the read loop ends.
func (s *ChatSession) handleDisconnect(transport Transport, err error) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.transport = nil
	state := StateClosed
	if !errors.Is(err, ErrClosed) {
		state = StateErrored
		s.errText = MsgConnectionError
	}
	s.state = state
	s.mu.Unlock()

	_ = transport.Close()

	if state == StateErrored {
		s.logger.Error().Err(err).Msg("connection error")
		s.emit(EventConnectionError{eventBase: s.base(), Err: err})
	} else {
		s.logger.Info().Msg("connection closed")
	}
	s.emit(EventStateChanged{eventBase: s.base(), State: state, Err: err})
}

func (s *ChatSession) base() eventBase {
	return eventBase{SessionID: s.id}
}

// emit delivers an event to the WithOnEvent callback. Never call it with
// s.mu held: callbacks commonly read session state back.
func (s *ChatSession) emit(ev Event) {
	if s.cfg.onEvent != nil {
		s.cfg.onEvent(ev)
	}
}
