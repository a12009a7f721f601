package chat

import (
	"context"
	"time"

	"agni/cmd/agni/ui"
	"agni/internal/backend"
	"agni/internal/config"
	"agni/internal/documents"
	"agni/internal/session"

	"github.com/charmbracelet/bubbles/filepicker"
	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"
)

// =============================================================================
// CONFIGURATION
// =============================================================================

// Backend is the subset of the RAG client the console needs.
type Backend interface {
	Chat(ctx context.Context, message string) (*backend.ChatResponse, error)
	Ingest(ctx context.Context, files []backend.File) (*backend.IngestResponse, error)
	Health(ctx context.Context) (*backend.HealthResponse, error)
}

// Config holds configuration for initializing the chat interface.
type Config struct {
	App    *config.Config
	Client Backend

	// Context bounds every request; cancelled when the console quits.
	Context context.Context
}

// ViewMode determines which component is focused/active
type ViewMode int

const (
	ChatView ViewMode = iota
	FilePickerView
)

// healthState is the result of the startup probe.
type healthState int

const (
	healthUnknown healthState = iota
	healthOnline
	healthOffline
)

// Scheduler delivers msg after d. The default wraps tea.Tick.
type Scheduler func(d time.Duration, msg tea.Msg) tea.Cmd

// =============================================================================
// CORE TYPES
// =============================================================================

// Model is the Bubble Tea model for the console.
type Model struct {
	// UI Components
	textarea   textarea.Model
	viewport   viewport.Model
	spinner    spinner.Model
	filepicker filepicker.Model
	help       help.Model
	keys       keyMap
	styles     ui.Styles
	renderer   *glamour.TermRenderer
	cache      *ui.RenderCache
	markdown   bool

	viewMode ViewMode
	layout   ui.Layout
	width    int
	height   int
	ready    bool

	// State
	state     *session.State
	policy    documents.Policy
	cfg       *config.Config
	sessionID string
	lastCount int

	statusLine   string
	health       healthState
	healthDetail string

	// Backend
	client   Backend
	ctx      context.Context
	cancel   context.CancelFunc
	schedule Scheduler
}

// Option customizes a Model.
type Option func(*Model)

// WithScheduler replaces the notice-expiry scheduler.
func WithScheduler(s Scheduler) Option {
	return func(m *Model) { m.schedule = s }
}

// WithoutMarkdown renders assistant replies as plain text.
func WithoutMarkdown() Option {
	return func(m *Model) { m.markdown = false; m.renderer = nil }
}

// WithSession supplies the session state, e.g. one with a fixed clock.
func WithSession(s *session.State) Option {
	return func(m *Model) { m.state = s }
}

// =============================================================================
// MESSAGE TYPES
// =============================================================================

type (
	// chatResultMsg settles the outstanding chat request.
	chatResultMsg struct {
		reply   session.Reply
		err     error
		elapsed time.Duration
	}

	// uploadResultMsg settles the outstanding upload.
	uploadResultMsg struct {
		count int
		resp  *backend.IngestResponse
		err   error
	}

	// noticeExpiredMsg asks to clear the notice posted with token.
	noticeExpiredMsg struct {
		token uint64
	}

	// healthResultMsg carries the startup probe result.
	healthResultMsg struct {
		resp *backend.HealthResponse
		err  error
	}
)
