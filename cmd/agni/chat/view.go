package chat

import (
	"fmt"
	"strings"

	"agni/cmd/agni/ui"
	"agni/internal/logging"
	"agni/internal/session"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
	"go.uber.org/zap"
)

const (
	welcomeTitle    = "Start a Conversation"
	welcomeSubtitle = "Upload documents and ask questions to get started"
	thinkingText    = "Thinking..."
	annotationLabel = "Enhanced Query:"
	emptyDocsText   = "No documents uploaded yet"
	sidebarTitle    = "Document Manager"
	sidebarSubtitle = "Upload and manage your documents"
	uploadingText   = "Uploading..."
)

// =============================================================================
// VIEW RENDERING
// =============================================================================

func (m Model) View() string {
	if !m.ready {
		return "Initializing..."
	}

	var main string
	if m.viewMode == FilePickerView {
		main = m.renderPicker()
	} else {
		main = m.styles.Transcript.Render(m.viewport.View())
	}
	main = lipgloss.JoinVertical(lipgloss.Left, main, m.renderStatusRow(), m.renderComposer())

	body := main
	if m.layout.ShowSidebar {
		body = lipgloss.JoinHorizontal(lipgloss.Top,
			m.renderSidebar(),
			strings.Repeat(" ", ui.PaneGap),
			main,
		)
	}

	return lipgloss.JoinVertical(lipgloss.Left, m.renderHeader(), body, m.renderFooter())
}

func (m Model) renderHeader() string {
	title := m.styles.Header.Render(m.cfg.UI.Title)
	switch m.health {
	case healthOnline:
		status := "● online"
		if m.healthDetail != "" {
			status += " · " + m.healthDetail
		}
		title += " " + m.styles.Online.Render(status)
	case healthOffline:
		title += " " + m.styles.Offline.Render("● offline")
	}

	sub := m.styles.HeaderSub.Render(m.cfg.UI.Subtitle)
	return lipgloss.JoinVertical(lipgloss.Left, title, sub)
}

func (m Model) renderFooter() string {
	bindings := m.keys.chatHelp()
	if m.viewMode == FilePickerView {
		bindings = m.keys.pickerHelp()
	}
	return m.styles.Footer.Render(m.help.ShortHelpView(bindings))
}

// renderStatusRow shows the upload notice, falling back to the status line.
func (m Model) renderStatusRow() string {
	if n, ok := m.state.Notice(); ok {
		style := m.styles.NoticeSuccess
		if n.Kind == session.NoticeError {
			style = m.styles.NoticeError
		}
		return style.Render(n.Message)
	}
	if m.statusLine != "" {
		return m.styles.Warning.Render(ansi.Truncate(m.statusLine, max(m.layout.TranscriptWidth, 1), "…"))
	}
	return ""
}

func (m Model) renderComposer() string {
	return m.styles.Composer.Render(m.textarea.View())
}

func (m Model) renderPicker() string {
	title := m.styles.Bold.Render("Select documents") + " " +
		m.styles.Muted.Render("("+m.policy.String()+")")
	body := lipgloss.JoinVertical(lipgloss.Left, title, m.filepicker.View())
	return m.styles.Transcript.
		Width(m.layout.TranscriptWidth).
		Height(m.layout.TranscriptHeight).
		Render(body)
}

func (m Model) renderSidebar() string {
	width := m.layout.SidebarContentWidth()
	var sb strings.Builder

	sb.WriteString(m.styles.Title.Render(sidebarTitle) + "\n")
	sb.WriteString(m.styles.Subtitle.Render(ansi.Wordwrap(sidebarSubtitle, width, " ")) + "\n")
	sb.WriteString(m.styles.RenderDivider(width) + "\n")

	uploaded := m.state.Uploaded()
	sb.WriteString(m.styles.Bold.Render(fmt.Sprintf("Uploaded (%d)", len(uploaded))) + "\n")
	if len(uploaded) == 0 {
		sb.WriteString(m.styles.Muted.Render(ansi.Wordwrap(emptyDocsText, width, " ")) + "\n")
	}
	for _, name := range uploaded {
		sb.WriteString(m.styles.FileItem.Render(ansi.Truncate("• "+name, width, "…")) + "\n")
	}

	if sel := m.state.Selection(); len(sel) > 0 {
		sb.WriteString("\n" + m.styles.Bold.Render(fmt.Sprintf("Selected (%d)", len(sel))) + "\n")
		for _, p := range baseNames(sel) {
			sb.WriteString(m.styles.Pending.Render(ansi.Truncate("+ "+p, width, "…")) + "\n")
		}
	}

	if m.state.UploadPhase() == session.InFlight {
		sb.WriteString("\n" + m.spinner.View() + " " + m.styles.Progress.Render(uploadingText) + "\n")
	}

	sb.WriteString("\n" + m.styles.Muted.Render(ansi.Wordwrap("Accepts "+m.policy.String(), width, " ")))

	return m.styles.Sidebar.
		Width(m.layout.SidebarWidth - ui.PanelBorderWidth*2).
		Height(m.layout.SidebarContentHeight()).
		Render(sb.String())
}

// renderTranscript renders every message plus the thinking row.
func (m Model) renderTranscript() string {
	msgs := m.state.Messages()
	if len(msgs) == 0 && !m.state.IsSending() {
		return m.renderWelcome()
	}

	var sb strings.Builder
	for _, msg := range msgs {
		if msg.Role == session.RoleUser {
			sb.WriteString(m.renderUserMessage(msg))
		} else {
			sb.WriteString(m.renderAssistantMessage(msg))
		}
		sb.WriteString("\n\n")
	}

	if m.state.IsSending() {
		sb.WriteString(m.spinner.View() + " " + m.styles.Muted.Render(thinkingText))
	}
	return strings.TrimRight(sb.String(), "\n")
}

func (m Model) renderWelcome() string {
	block := lipgloss.JoinVertical(lipgloss.Center,
		m.styles.Title.Render(welcomeTitle),
		m.styles.Subtitle.Render(welcomeSubtitle),
	)
	return lipgloss.Place(
		max(m.viewport.Width, 1), max(m.viewport.Height, 1),
		lipgloss.Center, lipgloss.Center,
		block,
	)
}

func (m Model) renderUserMessage(msg session.Message) string {
	width := m.layout.TranscriptWidth
	bubbleWidth := m.layout.BubbleWidth()

	caption := m.styles.Timestamp.Render("You · " + msg.Time.Format("15:04"))
	bubble := m.styles.UserBubble.Render(ansi.Wordwrap(msg.Content, bubbleWidth-2, " "))

	return lipgloss.JoinVertical(lipgloss.Right,
		lipgloss.PlaceHorizontal(width, lipgloss.Right, caption),
		lipgloss.PlaceHorizontal(width, lipgloss.Right, bubble),
	)
}

func (m Model) renderAssistantMessage(msg session.Message) string {
	bubbleWidth := m.layout.BubbleWidth()

	caption := m.styles.Timestamp.Render("Assistant · " + msg.Time.Format("15:04"))

	var bubble string
	if msg.IsError {
		bubble = m.styles.ErrorBubble.Render(ansi.Wordwrap(msg.Content, bubbleWidth-2, " "))
	} else {
		bubble = m.styles.AssistantBubble.Render(m.renderMarkdown(msg.Content, bubbleWidth-2))
	}

	parts := []string{caption, bubble}
	if msg.HasAnnotation() {
		note := m.styles.AnnotationLabel.Render(annotationLabel) + " " +
			m.styles.Annotation.Render(msg.EnhancedQuery)
		parts = append(parts, ansi.Wordwrap(note, bubbleWidth, " "))
	}
	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}

// renderMarkdown renders through glamour with caching, or wraps plain text
// when markdown is off or fails.
func (m Model) renderMarkdown(content string, width int) string {
	plain := ansi.Wordwrap(content, max(width, 1), " ")
	if m.renderer == nil || content == "" {
		return plain
	}
	key := ui.ComputeKey(content, width, m.styles.Theme.IsDark)
	return m.cache.GetOrCompute(key, func() string {
		out, ok := m.safeRenderMarkdown(content)
		if !ok {
			return plain
		}
		return strings.Trim(out, "\n")
	})
}

// safeRenderMarkdown renders markdown with panic recovery
func (m Model) safeRenderMarkdown(content string) (result string, ok bool) {
	defer func() {
		if r := recover(); r != nil {
			logging.Get(logging.CategoryUI).Warn("markdown render panicked", zap.Any("panic", r))
			result, ok = "", false
		}
	}()

	rendered, err := m.renderer.Render(content)
	if err != nil {
		logging.Get(logging.CategoryUI).Debug("markdown render failed", zap.Error(err))
		return "", false
	}
	return rendered, true
}
