package tui

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chrisboulton/pdfhelper-go"
)

type fakeTransport struct {
	mu      sync.Mutex
	sent    []string
	inbound chan []byte
	closed  chan struct{}
	once    sync.Once
}

func newFakeTransport() *fakeTransport {
	return &fakeTransport{
		inbound: make(chan []byte, 16),
		closed:  make(chan struct{}),
	}
}

func (f *fakeTransport) Send(ctx context.Context, text string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, text)
	return nil
}

func (f *fakeTransport) Receive(ctx context.Context) ([]byte, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-f.closed:
		return nil, pdfhelper.ErrClosed
	case data := <-f.inbound:
		return data, nil
	}
}

func (f *fakeTransport) Close() error {
	f.once.Do(func() { close(f.closed) })
	return nil
}

func (f *fakeTransport) getSent() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.sent...)
}

type fakeBackend struct {
	transport *fakeTransport
	docs      []string
	listErr   error
	dialErr   error

	mu       sync.Mutex
	uploaded []string
}

func (b *fakeBackend) ListDocuments(ctx context.Context) ([]string, error) {
	return b.docs, b.listErr
}

func (b *fakeBackend) UploadFile(ctx context.Context, path string) (*pdfhelper.UploadResult, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.uploaded = append(b.uploaded, path)
	return &pdfhelper.UploadResult{Message: "ok"}, nil
}

func (b *fakeBackend) OpenChat(ctx context.Context, opts ...pdfhelper.SessionOption) (*pdfhelper.ChatSession, error) {
	if b.dialErr != nil {
		return nil, b.dialErr
	}
	return pdfhelper.NewChatSession(ctx, b.transport, opts...), nil
}

func newTestModel(t *testing.T, backend *fakeBackend) Model {
	t.Helper()
	if backend.transport == nil {
		backend.transport = newFakeTransport()
	}

	ctx, cancel := context.WithCancel(context.Background())
	m := New(ctx, backend, Options{})
	t.Cleanup(func() {
		cancel()
	})
	return m
}

func update(t *testing.T, m Model, msg tea.Msg) (Model, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(msg)
	nm, ok := next.(Model)
	require.True(t, ok)
	return nm, cmd
}

func connected(t *testing.T, m Model) Model {
	t.Helper()
	msg := m.connect()()
	m, _ = update(t, m, msg)
	t.Cleanup(m.Close)
	return m
}

func key(k tea.KeyType) tea.KeyMsg {
	return tea.KeyMsg{Type: k}
}

func TestModel_InitialView(t *testing.T) {
	m := newTestModel(t, &fakeBackend{})

	view := m.View()
	assert.Contains(t, view, "PDF Helper")
	assert.Contains(t, view, loadingDocs)
	assert.Contains(t, m.renderTranscript(), connectingText)
	assert.Equal(t, pdfhelper.StateConnecting, m.conn)
}

func TestModel_ConnectedEmptyTranscript(t *testing.T) {
	m := connected(t, newTestModel(t, &fakeBackend{}))

	assert.Equal(t, pdfhelper.StateOpen, m.conn)
	transcript := m.renderTranscript()
	assert.Contains(t, transcript, emptyTitle)
	assert.Contains(t, transcript, emptyHint)
}

func TestModel_ConnectFailure(t *testing.T) {
	m := newTestModel(t, &fakeBackend{dialErr: errors.New("connection refused")})
	m, _ = update(t, m, m.connect()())

	assert.Equal(t, pdfhelper.StateErrored, m.conn)
	assert.Contains(t, m.renderTranscript(), pdfhelper.MsgConnectionError)
	assert.Contains(t, m.statusView(), pdfhelper.MsgConnectionError)
	assert.False(t, m.canSend())
}

func TestModel_Documents(t *testing.T) {
	m := newTestModel(t, &fakeBackend{docs: []string{"doc1.pdf", "doc2.pdf"}})
	m, _ = update(t, m, m.refreshDocuments()())

	view := m.documentsView()
	assert.Contains(t, view, "doc1.pdf")
	assert.Contains(t, view, "doc2.pdf")
	assert.NotContains(t, view, noDocuments)
}

func TestModel_DocumentsEmpty(t *testing.T) {
	m := newTestModel(t, &fakeBackend{docs: []string{}})
	m, _ = update(t, m, m.refreshDocuments()())

	assert.Contains(t, m.documentsView(), noDocuments)
}

func TestModel_DocumentsError(t *testing.T) {
	m := newTestModel(t, &fakeBackend{listErr: errors.New("HTTP 500")})
	m, _ = update(t, m, m.refreshDocuments()())

	assert.Contains(t, m.documentsView(), pdfhelper.MsgListFailed)
}

func TestModel_FocusCycle(t *testing.T) {
	m := newTestModel(t, &fakeBackend{})
	require.Equal(t, paneChat, m.focus)

	m, _ = update(t, m, key(tea.KeyTab))
	assert.Equal(t, paneDocuments, m.focus)
	m, _ = update(t, m, key(tea.KeyTab))
	assert.Equal(t, paneUpload, m.focus)
	assert.True(t, m.path.Focused())
	assert.False(t, m.input.Focused())
	m, _ = update(t, m, key(tea.KeyTab))
	assert.Equal(t, paneChat, m.focus)
	m, _ = update(t, m, key(tea.KeyShiftTab))
	assert.Equal(t, paneUpload, m.focus)
}

func TestModel_Quit(t *testing.T) {
	m := newTestModel(t, &fakeBackend{})

	_, cmd := update(t, m, key(tea.KeyEsc))
	require.NotNil(t, cmd)
	assert.Equal(t, tea.QuitMsg{}, cmd())
}

func TestModel_SubmitQuestion(t *testing.T) {
	backend := &fakeBackend{}
	m := connected(t, newTestModel(t, backend))

	m.input.SetValue("What is X?")
	m, cmd := update(t, m, key(tea.KeyEnter))
	require.NotNil(t, cmd)
	assert.Empty(t, m.input.Value())

	m, _ = update(t, m, cmd())
	assert.Equal(t, []string{"What is X?"}, backend.transport.getSent())
	assert.True(t, m.session.Pending())
	assert.Contains(t, m.statusView(), thinkingText)

	// A second question is refused while the answer is pending.
	m.input.SetValue("another")
	m, cmd = update(t, m, key(tea.KeyEnter))
	assert.Nil(t, cmd)

	backend.transport.inbound <- []byte(`{"event_type":"answer","data":"X is a concept. "}`)
	backend.transport.inbound <- []byte(`{"event_type":"answer","data":"\n\nSource PDF：\n\n**doc1.pdf**"}`)
	require.Eventually(t, func() bool { return !m.session.Pending() }, time.Second, 5*time.Millisecond)

	m, _ = update(t, m, sessionEventMsg{})
	transcript := m.renderTranscript()
	assert.Contains(t, transcript, "What is X?")
	assert.Contains(t, transcript, "Sources: doc1.pdf")
	assert.Equal(t, "X is a concept. \n\nSource PDF：\n\n**doc1.pdf**", m.lastAnswer())
}

func TestModel_SubmitQuestion_Empty(t *testing.T) {
	backend := &fakeBackend{}
	m := connected(t, newTestModel(t, backend))

	m.input.SetValue("   ")
	_, cmd := update(t, m, key(tea.KeyEnter))
	assert.Nil(t, cmd)
	assert.Empty(t, backend.transport.getSent())
}

func TestModel_SubmitQuestion_NotConnected(t *testing.T) {
	m := newTestModel(t, &fakeBackend{})

	m.input.SetValue("hello")
	_, cmd := update(t, m, key(tea.KeyEnter))
	assert.Nil(t, cmd)
}

func TestModel_UploadNoFile(t *testing.T) {
	backend := &fakeBackend{}
	m := newTestModel(t, backend)
	t.Cleanup(m.Close)

	m, _ = update(t, m, key(tea.KeyShiftTab))
	require.Equal(t, paneUpload, m.focus)

	m, cmd := update(t, m, key(tea.KeyEnter))
	require.NotNil(t, cmd)
	m, _ = update(t, m, cmd())

	assert.Contains(t, m.uploadView(), pdfhelper.MsgNoFile)
	assert.Empty(t, backend.uploaded)
}

func TestModel_UploadNotPDF(t *testing.T) {
	backend := &fakeBackend{}
	m := newTestModel(t, backend)
	t.Cleanup(m.Close)

	m, _ = update(t, m, key(tea.KeyShiftTab))
	m.path.SetValue("/tmp/notes.txt")

	m, cmd := update(t, m, key(tea.KeyEnter))
	require.NotNil(t, cmd)
	m, _ = update(t, m, cmd())

	assert.Contains(t, m.uploadView(), pdfhelper.MsgNotPDF)
	assert.Empty(t, backend.uploaded)
}

func TestModel_UploadSuccess(t *testing.T) {
	backend := &fakeBackend{}
	m := newTestModel(t, backend)
	t.Cleanup(m.Close)

	m, _ = update(t, m, key(tea.KeyShiftTab))
	m.path.SetValue("/tmp/report.pdf")

	m, cmd := update(t, m, key(tea.KeyEnter))
	require.NotNil(t, cmd)
	m, _ = update(t, m, cmd())

	assert.Equal(t, []string{"/tmp/report.pdf"}, backend.uploaded)
	assert.Contains(t, m.uploadView(), uploadSuccess)

	// The uploader reports both transitions through the event channel.
	var states []pdfhelper.UploadState
	for len(states) < 2 {
		msg := <-m.events
		if s, ok := msg.(uploadStateMsg); ok {
			states = append(states, s.state)
		}
	}
	assert.Equal(t, []pdfhelper.UploadState{pdfhelper.UploadUploading, pdfhelper.UploadSuccess}, states)
}

func TestModel_CopyNothing(t *testing.T) {
	m := newTestModel(t, &fakeBackend{})

	m, cmd := update(t, m, key(tea.KeyCtrlY))
	assert.Nil(t, cmd)
	assert.Equal(t, "Nothing to copy yet", m.flash)

	// Any later key clears the notice.
	m, _ = update(t, m, key(tea.KeyTab))
	assert.Empty(t, m.flash)
}

func TestModel_Resize(t *testing.T) {
	m := newTestModel(t, &fakeBackend{})
	m, _ = update(t, m, tea.WindowSizeMsg{Width: 120, Height: 40})

	assert.Equal(t, 120, m.width)
	assert.Equal(t, 120-sidebarWidth-4-2, m.viewport.Width)
	assert.Greater(t, m.viewport.Height, 3)
}

func TestRenderAnswer(t *testing.T) {
	m := newTestModel(t, &fakeBackend{})

	assert.Contains(t, m.renderAnswer(""), "(no answer)")
	assert.Contains(t, m.renderAnswer("body\n\nSource PDF：\n\n**a.pdf**\n**b.pdf**"), "Sources: a.pdf, b.pdf")
	assert.NotContains(t, m.renderAnswer("no sources here"), "Sources:")
}
