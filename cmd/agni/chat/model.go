// Package chat provides the interactive terminal console for agni.
// It renders the document sidebar, the transcript and the composer, and
// turns key presses into chat and ingestion requests against the backend.
package chat

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"agni/cmd/agni/ui"
	"agni/internal/config"
	"agni/internal/documents"
	"agni/internal/logging"
	"agni/internal/session"

	"github.com/charmbracelet/bubbles/filepicker"
	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// renderCacheSize bounds cached markdown renders.
const renderCacheSize = 256

// New creates the console model.
func New(cfg Config, opts ...Option) Model {
	app := cfg.App
	if app == nil {
		app = config.DefaultConfig()
	}
	parent := cfg.Context
	if parent == nil {
		parent = context.Background()
	}
	ctx, cancel := context.WithCancel(parent)

	ta := textarea.New()
	ta.Placeholder = "Ask a question about your documents..."
	ta.ShowLineNumbers = false
	ta.Prompt = ""
	ta.CharLimit = 0
	ta.SetHeight(ui.ComposerHeight)
	ta.KeyMap.InsertNewline = defaultKeyMap().Newline
	ta.Focus()

	sp := spinner.New()
	sp.Spinner = spinner.Dot

	policy := documents.NewPolicy(app.Upload.AllowedExtensions)

	fp := filepicker.New()
	fp.AllowedTypes = policy.Extensions()
	fp.CurrentDirectory = startDirectory(app.Upload.StartDir)
	fp.ShowPermissions = false
	fp.ShowSize = true

	styles := ui.NewStyles(ui.ThemeFor(app.UI.Theme))
	sp.Style = styles.Spinner

	m := Model{
		textarea:   ta,
		viewport:   viewport.New(80, 20),
		spinner:    sp,
		filepicker: fp,
		help:       help.New(),
		keys:       defaultKeyMap(),
		styles:     styles,
		cache:      ui.NewRenderCache(renderCacheSize),
		markdown:   true,
		viewMode:   ChatView,
		state:      session.New(),
		policy:     policy,
		cfg:        app,
		sessionID:  uuid.NewString(),
		client:     cfg.Client,
		ctx:        ctx,
		cancel:     cancel,
		schedule: func(d time.Duration, msg tea.Msg) tea.Cmd {
			return tea.Tick(d, func(time.Time) tea.Msg { return msg })
		},
	}

	for _, opt := range opts {
		opt(&m)
	}

	logging.Boot("console created",
		zap.String("session_id", m.sessionID),
		zap.String("base_url", app.Backend.BaseURL),
		zap.Strings("allowed_extensions", policy.Extensions()),
	)
	return m
}

func startDirectory(dir string) string {
	if dir != "" {
		return dir
	}
	if wd, err := os.Getwd(); err == nil {
		return wd
	}
	return "."
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{textarea.Blink}
	if m.cfg.Backend.ProbeOnStart && m.client != nil {
		cmds = append(cmds, m.probeHealth())
	}
	return tea.Batch(cmds...)
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.resize(msg.Width, msg.Height)
		return m, nil

	case tea.KeyMsg:
		return m.handleKeyMsg(msg)

	case chatResultMsg:
		return m.handleChatResult(msg)

	case uploadResultMsg:
		return m.handleUploadResult(msg)

	case noticeExpiredMsg:
		if m.state.ExpireNotice(msg.token) {
			logging.Get(logging.CategoryUpload).Debug("notice cleared", zap.Uint64("token", msg.token))
		}
		return m, nil

	case healthResultMsg:
		if msg.err != nil {
			m.health = healthOffline
			m.healthDetail = ""
			logging.Get(logging.CategoryAPI).Warn("health probe failed", zap.Error(msg.err))
		} else {
			m.health = healthOnline
			if msg.resp != nil {
				m.healthDetail = msg.resp.System
			}
		}
		return m, nil

	case spinner.TickMsg:
		if !m.state.IsSending() && !m.state.IsUploading() {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		if m.state.IsSending() {
			m.refreshViewport()
		}
		return m, cmd
	}

	// Everything else (directory listings, cursor blinks) goes to the
	// components that own it.
	var cmds []tea.Cmd
	var cmd tea.Cmd
	m.filepicker, cmd = m.filepicker.Update(msg)
	cmds = append(cmds, cmd)
	m.textarea, cmd = m.textarea.Update(msg)
	cmds = append(cmds, cmd)
	return m, tea.Batch(cmds...)
}

// resize recomputes the layout and resizes every component.
func (m *Model) resize(width, height int) {
	m.width = width
	m.height = height
	m.layout = ui.NewLayout(width, height, m.state.PanelOpen())

	m.viewport.Width = m.layout.TranscriptWidth
	m.viewport.Height = m.layout.TranscriptHeight
	m.textarea.SetWidth(m.layout.ComposerWidth)
	m.filepicker.Height = max(m.layout.TranscriptHeight-2, 1)
	m.help.Width = m.layout.Width

	if m.markdown {
		m.renderer = newRenderer(m.styles.Theme, m.layout.BubbleWidth())
	}
	m.ready = true
	m.refreshViewport()
}

func newRenderer(theme ui.Theme, width int) *glamour.TermRenderer {
	style := "light"
	if theme.IsDark {
		style = "dark"
	}
	r, err := glamour.NewTermRenderer(
		glamour.WithStylePath(style),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		logging.Get(logging.CategoryUI).Warn("markdown renderer unavailable", zap.Error(err))
		return nil
	}
	return r
}

// refreshViewport re-renders the transcript and follows the newest message
// when the message count changed.
func (m *Model) refreshViewport() {
	m.viewport.SetContent(m.renderTranscript())

	count := m.state.MessageCount()
	if count != m.lastCount {
		m.lastCount = count
		m.viewport.GotoBottom()
	} else if m.state.IsSending() {
		m.viewport.GotoBottom()
	}
}

// shutdown cancels in-flight requests.
func (m Model) shutdown() {
	if m.cancel != nil {
		m.cancel()
	}
	logging.Boot("console closed",
		zap.String("session_id", m.sessionID),
		zap.Int("messages", m.state.MessageCount()),
		zap.Int("uploaded", len(m.state.Uploaded())),
	)
}

// Run starts the console in the alternate screen and blocks until it exits.
func Run(cfg Config, opts ...Option) error {
	m := New(cfg, opts...)
	defer m.shutdown()

	parent := cfg.Context
	if parent == nil {
		parent = context.Background()
	}

	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(parent))
	if _, err := p.Run(); err != nil {
		if errors.Is(err, tea.ErrProgramKilled) && parent.Err() != nil {
			return nil
		}
		return fmt.Errorf("console: %w", err)
	}
	return nil
}
