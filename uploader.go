package pdfhelper

import (
	"context"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

// UploadState represents the state of an Uploader.
type UploadState string

const (
	UploadIdle      UploadState = "idle"
	UploadUploading UploadState = "uploading"
	UploadSuccess   UploadState = "success"
	UploadFailed    UploadState = "error"
)

// FileUploader uploads a file from disk. *Client implements it.
type FileUploader interface {
	UploadFile(ctx context.Context, path string) (*UploadResult, error)
}

// Uploader holds the state of a single-file upload form: the selected file,
// whether an upload is running, and the outcome of the last attempt.
// It is safe for concurrent use by multiple goroutines.
type Uploader struct {
	up           FileUploader
	successReset time.Duration
	onChange     func(UploadState)

	mu       sync.Mutex
	selected string
	state    UploadState
	errText  string
	reset    *time.Timer
	gen      uint64
}

// NewUploader creates an idle Uploader.
func NewUploader(up FileUploader, opts ...UploaderOption) *Uploader {
	u := &Uploader{
		up:           up,
		successReset: DefaultUploadSuccessReset,
		state:        UploadIdle,
	}
	for _, opt := range opts {
		opt(u)
	}
	return u
}

// Select records path as the file to upload and clears a previous error.
func (u *Uploader) Select(path string) {
	u.mu.Lock()
	u.selected = path
	u.errText = ""
	changed := u.state == UploadFailed
	if changed {
		u.state = UploadIdle
	}
	u.mu.Unlock()

	if changed {
		u.notify(UploadIdle)
	}
}

// Selected returns the selected path, or "" when nothing is selected.
func (u *Uploader) Selected() string {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.selected
}

// State returns the current state.
func (u *Uploader) State() UploadState {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.state
}

// Err returns the inline error text, or "" when there is none.
func (u *Uploader) Err() string {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.errText
}

// Upload submits the selected file.
//
// Without a selection it sets the inline error and returns ErrNoFile without
// touching the network; a file without a .pdf extension gets ErrNotPDF the
// same way. On success the selection is cleared and the state
// returns to idle after the success reset delay.
func (u *Uploader) Upload(ctx context.Context) (*UploadResult, error) {
	u.mu.Lock()
	if u.selected == "" {
		u.errText = MsgNoFile
		u.mu.Unlock()
		return nil, ErrNoFile
	}
	if !isPDF(u.selected) {
		u.errText = MsgNotPDF
		u.mu.Unlock()
		return nil, ErrNotPDF
	}
	if u.state == UploadUploading {
		u.mu.Unlock()
		return nil, ErrBusy
	}
	if u.reset != nil {
		u.reset.Stop()
		u.reset = nil
	}
	u.state = UploadUploading
	u.errText = ""
	path := u.selected
	u.mu.Unlock()

	u.notify(UploadUploading)

	result, err := u.up.UploadFile(ctx, path)

	u.mu.Lock()
	if err != nil {
		u.state = UploadFailed
		u.errText = MsgUploadFailed
		u.mu.Unlock()
		u.notify(UploadFailed)
		return nil, err
	}

	u.state = UploadSuccess
	u.selected = ""
	u.gen++
	gen := u.gen
	u.reset = time.AfterFunc(u.successReset, func() {
		u.mu.Lock()
		if u.gen != gen || u.state != UploadSuccess {
			u.mu.Unlock()
			return
		}
		u.state = UploadIdle
		u.reset = nil
		u.mu.Unlock()
		u.notify(UploadIdle)
	})
	u.mu.Unlock()

	u.notify(UploadSuccess)
	return result, nil
}

// Close stops the success reset timer.
func (u *Uploader) Close() {
	u.mu.Lock()
	defer u.mu.Unlock()
	if u.reset != nil {
		u.reset.Stop()
		u.reset = nil
	}
	u.gen++
}

func isPDF(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".pdf")
}

func (u *Uploader) notify(state UploadState) {
	if u.onChange != nil {
		u.onChange(state)
	}
}
