package pdfhelper

import (
	"context"
	"iter"
	"sync"
)

// Fragment is one chunk of streamed answer text.
type Fragment struct {
	Text string
}

// AnswerResult describes how an answer ended.
type AnswerResult struct {
	MessageID string
	Text      string
	Complete  bool
	TimedOut  bool
}

// AnswerStream provides streaming access to a single answer.
type AnswerStream struct {
	messageID string

	mu       sync.Mutex
	queue    []*Fragment
	notify   chan struct{}
	done     chan struct{}
	finished bool
	result   AnswerResult
	err      error
}

// newAnswerStream creates a stream for the placeholder message messageID.
func newAnswerStream(messageID string) *AnswerStream {
	return &AnswerStream{
		messageID: messageID,
		notify:    make(chan struct{}, 1),
		done:      make(chan struct{}),
		result:    AnswerResult{MessageID: messageID},
	}
}

// MessageID returns the ID of the assistant message this stream fills.
func (a *AnswerStream) MessageID() string {
	return a.messageID
}

// Next returns the next fragment, or nil once the answer has ended.
// Returns an error if the answer ended badly (ErrNoResponse, ErrClosed, ...).
// The context can be used to cancel waiting for the next fragment.
func (a *AnswerStream) Next(ctx context.Context) (*Fragment, error) {
	for {
		a.mu.Lock()
		if len(a.queue) > 0 {
			f := a.queue[0]
			a.queue[0] = nil
			a.queue = a.queue[1:]
			a.mu.Unlock()
			return f, nil
		}
		if a.finished {
			err := a.err
			a.mu.Unlock()
			return nil, err
		}
		a.mu.Unlock()

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-a.notify:
		case <-a.done:
		}
	}
}

// Chunks returns an iterator over all fragments of the answer.
func (a *AnswerStream) Chunks(ctx context.Context) iter.Seq2[*Fragment, error] {
	return func(yield func(*Fragment, error) bool) {
		for {
			f, err := a.Next(ctx)
			if err != nil {
				yield(nil, err)
				return
			}
			if f == nil {
				return
			}
			if !yield(f, nil) {
				return
			}
		}
	}
}

// Text waits for the answer to end and returns the committed text.
// A timed-out answer with partial content returns that content and no error.
func (a *AnswerStream) Text(ctx context.Context) (string, error) {
	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case <-a.done:
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	return a.result.Text, a.err
}

// Done returns a channel closed when the answer has ended.
func (a *AnswerStream) Done() <-chan struct{} {
	return a.done
}

// Result returns how the answer ended.
// Only valid after Done is closed.
func (a *AnswerStream) Result() AnswerResult {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.result
}

// push queues a fragment. It never blocks.
func (a *AnswerStream) push(text string) {
	a.mu.Lock()
	if a.finished {
		a.mu.Unlock()
		return
	}
	a.queue = append(a.queue, &Fragment{Text: text})
	a.mu.Unlock()

	select {
	case a.notify <- struct{}{}:
	default:
	}
}

// finish ends the stream. Later calls are ignored.
func (a *AnswerStream) finish(result AnswerResult, err error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.finished {
		return
	}
	a.finished = true
	result.MessageID = a.messageID
	a.result = result
	a.err = err
	close(a.done)
}
