package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"

	"github.com/chrisboulton/pdfhelper-go"
)

var (
	titleStyle     = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("205"))
	subHeaderStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("63"))
	userLabelStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#FFFDF5"))
	botLabelStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("118"))
	mutedStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#888888"))
	errorStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true)
	successStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("118"))
	spinnerStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("63")).Bold(true)
	citationStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("213"))
	helpStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))

	paneStyle = lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("240"))

	focusedPaneStyle = paneStyle.BorderForeground(lipgloss.Color("62"))
)

// Texts shown in empty or transient states.
const (
	emptyTitle     = "How can I help you today?"
	emptyHint      = "Ask a question about your PDFs or upload a document to get started"
	noDocuments    = "No documents available. Upload a PDF to get started."
	uploadSuccess  = "PDF uploaded successfully!"
	thinkingText   = "Thinking..."
	uploadingText  = "Uploading..."
	loadingDocs    = "Loading documents..."
	connectingText = "Connecting to server..."
)

// MarkdownStyle picks the glamour style matching the terminal background.
func MarkdownStyle() string {
	if termenv.HasDarkBackground() {
		return "dark"
	}
	return "light"
}

func (m Model) View() string {
	header := titleStyle.Render("PDF Helper") + "  " + m.connView()

	left := lipgloss.JoinVertical(lipgloss.Left,
		m.paneFor(paneDocuments, sidebarWidth).Render(m.documentsView()),
		m.paneFor(paneUpload, sidebarWidth).Render(m.uploadView()),
	)

	chat := lipgloss.JoinVertical(lipgloss.Left,
		m.viewport.View(),
		m.statusView(),
		m.input.View(),
	)
	right := m.paneFor(paneChat, m.viewport.Width).Render(chat)

	body := lipgloss.JoinHorizontal(lipgloss.Top, left, right)
	return lipgloss.JoinVertical(lipgloss.Left, header, body, m.helpView())
}

func (m Model) paneFor(p pane, width int) lipgloss.Style {
	if m.focus == p {
		return focusedPaneStyle.Width(width)
	}
	return paneStyle.Width(width)
}

func (m Model) connView() string {
	switch m.conn {
	case pdfhelper.StateOpen:
		return successStyle.Render("● connected")
	case pdfhelper.StateConnecting:
		return mutedStyle.Render("○ connecting")
	case pdfhelper.StateClosed:
		return mutedStyle.Render("○ disconnected")
	default:
		return errorStyle.Render("● " + pdfhelper.MsgConnectionError)
	}
}

func (m Model) documentsView() string {
	var b strings.Builder
	b.WriteString(subHeaderStyle.Render("Documents") + "\n")

	docs := m.lister.Documents()
	switch {
	case m.lister.State() == pdfhelper.ListLoading && len(docs) == 0:
		b.WriteString(mutedStyle.Render(loadingDocs))
	case m.lister.Empty():
		b.WriteString(mutedStyle.Render(noDocuments))
	default:
		for _, d := range docs {
			b.WriteString("• " + d + "\n")
		}
	}

	if e := m.lister.Err(); e != "" {
		b.WriteString("\n" + errorStyle.Render(e))
	}
	return strings.TrimRight(b.String(), "\n")
}

func (m Model) uploadView() string {
	var b strings.Builder
	b.WriteString(subHeaderStyle.Render("Upload PDF") + "\n")
	b.WriteString(m.path.View() + "\n")

	switch m.uploader.State() {
	case pdfhelper.UploadUploading:
		b.WriteString(m.spinner.View() + " " + uploadingText)
	case pdfhelper.UploadSuccess:
		b.WriteString(successStyle.Render(uploadSuccess))
	}
	if e := m.uploader.Err(); e != "" {
		b.WriteString(errorStyle.Render(e))
	}
	return strings.TrimRight(b.String(), "\n")
}

func (m Model) statusView() string {
	switch {
	case m.flash != "":
		return mutedStyle.Render(m.flash)
	case m.session != nil && m.session.Err() != "":
		return errorStyle.Render(m.session.Err())
	case m.connErr != nil && m.conn != pdfhelper.StateOpen:
		return errorStyle.Render(pdfhelper.MsgConnectionError)
	case m.session != nil && m.session.Pending():
		return m.spinner.View() + " " + thinkingText
	}
	return ""
}

func (m Model) helpView() string {
	keys := "tab focus • enter send • ctrl+y copy answer • pgup/pgdn scroll • esc quit"
	switch m.focus {
	case paneDocuments:
		keys = "tab focus • r refresh • esc quit"
	case paneUpload:
		keys = "tab focus • enter upload • esc quit"
	}
	return helpStyle.Render(keys)
}

func (m Model) renderTranscript() string {
	if m.session == nil {
		if m.conn == pdfhelper.StateConnecting {
			return mutedStyle.Render(connectingText)
		}
		if m.connErr != nil {
			return errorStyle.Render(pdfhelper.MsgConnectionError) + "\n" + mutedStyle.Render(m.connErr.Error())
		}
		return ""
	}

	msgs := m.session.Messages()
	if len(msgs) == 0 {
		return titleStyle.Render(emptyTitle) + "\n" + mutedStyle.Render(emptyHint)
	}

	pending := m.session.Pending()
	var b strings.Builder
	for i, msg := range msgs {
		switch msg.Role {
		case pdfhelper.RoleUser:
			b.WriteString(userLabelStyle.Render("You") + "\n")
			b.WriteString(msg.Content + "\n\n")
		case pdfhelper.RoleAssistant:
			b.WriteString(botLabelStyle.Render("PDF Helper") + "\n")
			if pending && i == len(msgs)-1 {
				b.WriteString(m.session.Buffer() + "\n\n")
				continue
			}
			b.WriteString(m.renderAnswer(msg.Content) + "\n")
		}
	}
	return strings.TrimRight(b.String(), "\n")
}

// renderAnswer renders the answer body as Markdown and lists the cited
// documents below it.
func (m Model) renderAnswer(content string) string {
	if strings.TrimSpace(content) == "" {
		return mutedStyle.Render("(no answer)") + "\n"
	}

	body := content
	cites := pdfhelper.CitationsAfter(content, m.opts.CompletionMarker)
	if len(cites) > 0 {
		body = content[:strings.LastIndex(content, m.opts.CompletionMarker)]
	}

	out := m.markdown(body)
	if len(cites) > 0 {
		out += citationStyle.Render(fmt.Sprintf("Sources: %s", strings.Join(cites, ", "))) + "\n"
	}
	return out
}

func (m Model) markdown(s string) string {
	if m.renderer == nil {
		return s + "\n"
	}
	out, err := m.renderer.Render(s)
	if err != nil {
		return s + "\n"
	}
	return out
}
