// Package tui is the interactive terminal front end: a document list, an
// upload form and the streaming chat, composed on one screen.
package tui

import (
	"context"
	"strings"
	"time"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/chrisboulton/pdfhelper-go"
)

// Backend is what the UI needs from the server. *pdfhelper.Client
// implements it.
type Backend interface {
	ListDocuments(ctx context.Context) ([]string, error)
	UploadFile(ctx context.Context, path string) (*pdfhelper.UploadResult, error)
	OpenChat(ctx context.Context, opts ...pdfhelper.SessionOption) (*pdfhelper.ChatSession, error)
}

// Options tunes the UI.
type Options struct {
	SessionOptions     []pdfhelper.SessionOption
	CompletionMarker   string
	UploadSuccessDelay time.Duration
	Logger             zerolog.Logger
}

type pane int

const (
	paneChat pane = iota
	paneDocuments
	paneUpload
	paneCount
)

func (p pane) next() pane { return (p + 1) % paneCount }
func (p pane) prev() pane { return (p + paneCount - 1) % paneCount }

const sidebarWidth = 34

type connectedMsg struct {
	session *pdfhelper.ChatSession
	err     error
}

type sessionEventMsg struct {
	event pdfhelper.Event
}

type documentsMsg struct {
	docs []string
	err  error
}

type uploadStateMsg struct {
	state pdfhelper.UploadState
}

type uploadDoneMsg struct {
	err error
}

type sendDoneMsg struct {
	err error
}

type copiedMsg struct {
	err error
}

// Model is the root bubbletea model.
type Model struct {
	ctx     context.Context
	backend Backend
	opts    Options
	logger  zerolog.Logger

	// events carries session and uploader callbacks into the update loop
	events  chan tea.Msg
	forward func(tea.Msg)

	lister   *pdfhelper.Lister
	uploader *pdfhelper.Uploader
	session  *pdfhelper.ChatSession
	conn     pdfhelper.ConnState
	connErr  error

	focus    pane
	input    textarea.Model
	path     textinput.Model
	viewport viewport.Model
	spinner  spinner.Model
	renderer *glamour.TermRenderer
	mdStyle  string

	width  int
	height int
	flash  string
}

// New builds the model. ctx bounds every request the UI makes.
func New(ctx context.Context, backend Backend, opts Options) Model {
	if opts.CompletionMarker == "" {
		opts.CompletionMarker = pdfhelper.DefaultCompletionMarker
	}

	events := make(chan tea.Msg, 256)
	forward := func(msg tea.Msg) {
		select {
		case events <- msg:
		case <-ctx.Done():
		}
	}

	ta := textarea.New()
	ta.Placeholder = "Ask a question about your PDFs..."
	ta.ShowLineNumbers = false
	ta.SetHeight(2)
	ta.KeyMap.InsertNewline.SetEnabled(false)
	ta.Focus()

	ti := textinput.New()
	ti.Placeholder = "path/to/file.pdf"
	ti.Prompt = "> "

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = spinnerStyle

	m := Model{
		ctx:      ctx,
		backend:  backend,
		opts:     opts,
		logger:   opts.Logger,
		events:   events,
		forward:  forward,
		lister:   pdfhelper.NewLister(backend),
		conn:     pdfhelper.StateConnecting,
		focus:    paneChat,
		input:    ta,
		path:     ti,
		viewport: viewport.New(80, 10),
		spinner:  sp,
		mdStyle:  MarkdownStyle(),
	}
	m.uploader = pdfhelper.NewUploader(backend,
		pdfhelper.WithSuccessReset(opts.UploadSuccessDelay),
		pdfhelper.WithOnUploadChange(func(s pdfhelper.UploadState) {
			forward(uploadStateMsg{state: s})
		}),
	)
	m.resize(80, 24)
	m.refreshTranscript()
	return m
}

func waitForEvent(ch <-chan tea.Msg) tea.Cmd {
	return func() tea.Msg {
		msg, ok := <-ch
		if !ok {
			return nil
		}
		return msg
	}
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(
		textarea.Blink,
		m.spinner.Tick,
		m.connect(),
		m.refreshDocuments(),
		waitForEvent(m.events),
	)
}

// Close releases the chat connection and timers.
func (m Model) Close() {
	if m.session != nil {
		_ = m.session.Close()
	}
	m.uploader.Close()
}

func (m Model) connect() tea.Cmd {
	ctx, backend, forward := m.ctx, m.backend, m.forward
	opts := append([]pdfhelper.SessionOption{}, m.opts.SessionOptions...)
	opts = append(opts, pdfhelper.WithOnEvent(func(ev pdfhelper.Event) {
		forward(sessionEventMsg{event: ev})
	}))

	return func() tea.Msg {
		s, err := backend.OpenChat(ctx, opts...)
		return connectedMsg{session: s, err: err}
	}
}

func (m Model) refreshDocuments() tea.Cmd {
	ctx, l := m.ctx, m.lister
	return func() tea.Msg {
		docs, err := l.Refresh(ctx)
		return documentsMsg{docs: docs, err: err}
	}
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.resize(msg.Width, msg.Height)
		m.refreshTranscript()
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case connectedMsg:
		if msg.err != nil {
			m.logger.Error().Err(msg.err).Msg("chat connection failed")
			m.conn = pdfhelper.StateErrored
			m.connErr = msg.err
		} else {
			m.session = msg.session
			m.conn = msg.session.State()
			m.connErr = nil
		}
		m.refreshTranscript()
		return m, nil

	case sessionEventMsg:
		if ev, ok := msg.event.(pdfhelper.EventStateChanged); ok {
			m.conn = ev.State
			if ev.Err != nil {
				m.connErr = ev.Err
			}
		}
		m.refreshTranscript()
		return m, waitForEvent(m.events)

	case uploadStateMsg:
		var cmd tea.Cmd
		if msg.state == pdfhelper.UploadSuccess {
			m.path.Reset()
			cmd = m.refreshDocuments()
		}
		return m, tea.Batch(cmd, waitForEvent(m.events))

	case uploadDoneMsg:
		if msg.err != nil && !errors.Is(msg.err, pdfhelper.ErrNoFile) && !errors.Is(msg.err, pdfhelper.ErrNotPDF) {
			m.logger.Warn().Err(msg.err).Msg("upload failed")
		}
		return m, nil

	case documentsMsg:
		if msg.err != nil {
			m.logger.Warn().Err(msg.err).Msg("document refresh failed")
		}
		return m, nil

	case sendDoneMsg:
		if msg.err != nil {
			m.logger.Warn().Err(msg.err).Msg("send failed")
		}
		m.refreshTranscript()
		return m, nil

	case copiedMsg:
		if msg.err != nil {
			m.flash = "Copy failed: " + msg.err.Error()
		} else {
			m.flash = "Answer copied to clipboard"
		}
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	return m.updateFocused(msg)
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	m.flash = ""

	switch msg.String() {
	case "ctrl+c", "esc":
		return m, tea.Quit
	case "tab":
		return m, m.setFocus(m.focus.next())
	case "shift+tab":
		return m, m.setFocus(m.focus.prev())
	case "ctrl+y":
		return m, m.copyLastAnswer()
	case "pgup", "pgdown":
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		return m, cmd
	}

	switch m.focus {
	case paneChat:
		if msg.String() == "enter" {
			return m.submitQuestion()
		}
	case paneDocuments:
		if msg.String() == "r" {
			return m, m.refreshDocuments()
		}
		return m, nil
	case paneUpload:
		if msg.String() == "enter" {
			return m.submitUpload()
		}
	}

	return m.updateFocused(msg)
}

func (m Model) updateFocused(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch m.focus {
	case paneChat:
		m.input, cmd = m.input.Update(msg)
	case paneUpload:
		m.path, cmd = m.path.Update(msg)
	}
	return m, cmd
}

func (m *Model) setFocus(p pane) tea.Cmd {
	m.focus = p
	m.input.Blur()
	m.path.Blur()

	switch p {
	case paneChat:
		return m.input.Focus()
	case paneUpload:
		return m.path.Focus()
	}
	return nil
}

// canSend mirrors the send guard: an open connection and no pending answer.
func (m Model) canSend() bool {
	return m.session != nil && m.session.State() == pdfhelper.StateOpen && !m.session.Pending()
}

func (m Model) submitQuestion() (Model, tea.Cmd) {
	text := m.input.Value()
	if strings.TrimSpace(text) == "" || !m.canSend() {
		return m, nil
	}
	m.input.Reset()

	ctx, s := m.ctx, m.session
	return m, func() tea.Msg {
		_, err := s.Send(ctx, text)
		return sendDoneMsg{err: err}
	}
}

func (m Model) submitUpload() (Model, tea.Cmd) {
	if m.uploader.State() == pdfhelper.UploadUploading {
		return m, nil
	}
	m.uploader.Select(strings.TrimSpace(m.path.Value()))

	ctx, u := m.ctx, m.uploader
	return m, func() tea.Msg {
		_, err := u.Upload(ctx)
		return uploadDoneMsg{err: err}
	}
}

func (m Model) lastAnswer() string {
	if m.session == nil {
		return ""
	}
	msgs := m.session.Messages()
	for i := len(msgs) - 1; i >= 0; i-- {
		if msgs[i].Role == pdfhelper.RoleAssistant && msgs[i].Content != "" {
			return msgs[i].Content
		}
	}
	return ""
}

func (m *Model) copyLastAnswer() tea.Cmd {
	answer := m.lastAnswer()
	if answer == "" {
		m.flash = "Nothing to copy yet"
		return nil
	}
	return func() tea.Msg {
		return copiedMsg{err: clipboard.WriteAll(answer)}
	}
}

func (m *Model) resize(width, height int) {
	m.width, m.height = width, height

	chatWidth := max(width-sidebarWidth-4, 20)
	// header, status, help, input and the pane border
	m.viewport.Width = chatWidth - 2
	m.viewport.Height = max(height-2-1-m.input.Height()-3, 3)
	m.input.SetWidth(chatWidth - 2)
	m.path.Width = sidebarWidth - 8

	r, err := glamour.NewTermRenderer(
		glamour.WithStandardStyle(m.mdStyle),
		glamour.WithWordWrap(chatWidth-4),
	)
	if err != nil {
		m.logger.Warn().Err(err).Msg("markdown renderer unavailable")
		r = nil
	}
	m.renderer = r
}

func (m *Model) refreshTranscript() {
	m.viewport.SetContent(m.renderTranscript())
	m.viewport.GotoBottom()
}
