package pdfhelper

import (
	"context"
	"sync"
)

// ListState represents the state of a Lister.
type ListState string

const (
	ListLoading ListState = "loading"
	ListReady   ListState = "ready"
	ListFailed  ListState = "error"
)

// DocumentSource returns the names of uploaded documents. *Client implements
// it.
type DocumentSource interface {
	ListDocuments(ctx context.Context) ([]string, error)
}

// Lister holds the current document list. Every Refresh replaces the list
// wholesale; there is no diffing, paging or caching.
// It is safe for concurrent use by multiple goroutines.
type Lister struct {
	src DocumentSource

	mu      sync.Mutex
	state   ListState
	docs    []string
	errText string
	seq     uint64
}

// NewLister creates a Lister in the loading state. Call Refresh to fill it.
func NewLister(src DocumentSource) *Lister {
	return &Lister{
		src:   src,
		state: ListLoading,
	}
}

// Refresh fetches the list again. When refreshes overlap, only the most
// recently started one is applied.
func (l *Lister) Refresh(ctx context.Context) ([]string, error) {
	l.mu.Lock()
	l.seq++
	seq := l.seq
	l.state = ListLoading
	l.mu.Unlock()

	docs, err := l.src.ListDocuments(ctx)

	l.mu.Lock()
	defer l.mu.Unlock()

	if seq != l.seq {
		return docs, err
	}
	if err != nil {
		l.state = ListFailed
		l.errText = MsgListFailed
		return nil, err
	}

	l.docs = append([]string(nil), docs...)
	l.state = ListReady
	l.errText = ""
	return docs, nil
}

// Documents returns a copy of the current list.
func (l *Lister) Documents() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string(nil), l.docs...)
}

// State returns the current state.
func (l *Lister) State() ListState {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.state
}

// Err returns the inline error text, or "" when there is none.
func (l *Lister) Err() string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.errText
}

// Empty reports whether the last refresh succeeded with no documents.
func (l *Lister) Empty() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.state == ListReady && len(l.docs) == 0
}
