// Test utilities for driving the console model without a terminal.
package chat

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"agni/internal/backend"
	"agni/internal/config"
	"agni/internal/session"

	"github.com/charmbracelet/bubbles/cursor"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/x/ansi"
)

var testClock = time.Date(2025, 3, 1, 9, 30, 0, 0, time.UTC)

// =============================================================================
// MOCK BACKEND SERVER
// =============================================================================

// MockServer is an httptest backend that records chat and ingest calls.
type MockServer struct {
	*httptest.Server

	mu          sync.Mutex
	chatBodies  []string
	uploads     [][]string
	chatStatus  int
	chatReply   string
	ingestCode  int
	ingestCalls int
}

// NewMockServer starts a backend that answers chat with reply.
func NewMockServer(t *testing.T, reply string) *MockServer {
	t.Helper()
	ms := &MockServer{chatStatus: http.StatusOK, chatReply: reply, ingestCode: http.StatusOK}

	mux := http.NewServeMux()
	mux.HandleFunc("/chat", func(w http.ResponseWriter, r *http.Request) {
		var req backend.ChatRequest
		_ = json.NewDecoder(r.Body).Decode(&req)

		ms.mu.Lock()
		ms.chatBodies = append(ms.chatBodies, req.Message)
		status, body := ms.chatStatus, ms.chatReply
		ms.mu.Unlock()

		w.WriteHeader(status)
		_, _ = io.WriteString(w, body)
	})
	mux.HandleFunc("/api/documents/ingest", func(w http.ResponseWriter, r *http.Request) {
		var names []string
		if mr, err := r.MultipartReader(); err == nil {
			for {
				p, err := mr.NextPart()
				if err != nil {
					break
				}
				names = append(names, p.FormName()+":"+p.FileName())
			}
		}

		ms.mu.Lock()
		ms.ingestCalls++
		ms.uploads = append(ms.uploads, names)
		code := ms.ingestCode
		ms.mu.Unlock()

		w.WriteHeader(code)
		_, _ = io.WriteString(w, `{"status":"success","chunks_processed":3}`)
	})
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"status":"active","system":"Agni RAG"}`)
	})

	ms.Server = httptest.NewServer(mux)
	t.Cleanup(ms.Close)
	return ms
}

func (ms *MockServer) SetChat(status int, body string) {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	ms.chatStatus, ms.chatReply = status, body
}

func (ms *MockServer) SetIngestStatus(code int) {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	ms.ingestCode = code
}

func (ms *MockServer) ChatCalls() []string {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	return append([]string(nil), ms.chatBodies...)
}

func (ms *MockServer) IngestCalls() int {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	return ms.ingestCalls
}

func (ms *MockServer) Uploads() [][]string {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	return append([][]string(nil), ms.uploads...)
}

// =============================================================================
// MOCK BACKEND CLIENT
// =============================================================================

// panicBackend blows up on every call.
type panicBackend struct{}

func (panicBackend) Chat(context.Context, string) (*backend.ChatResponse, error) {
	panic("chat exploded")
}

func (panicBackend) Ingest(context.Context, []backend.File) (*backend.IngestResponse, error) {
	panic("ingest exploded")
}

func (panicBackend) Health(context.Context) (*backend.HealthResponse, error) {
	panic("health exploded")
}

// =============================================================================
// SCHEDULER RECORDER
// =============================================================================

type scheduledMsg struct {
	after time.Duration
	msg   tea.Msg
}

// scheduleRecorder captures notice timers instead of sleeping on them.
type scheduleRecorder struct {
	entries []scheduledMsg
}

func (r *scheduleRecorder) schedule(d time.Duration, msg tea.Msg) tea.Cmd {
	r.entries = append(r.entries, scheduledMsg{after: d, msg: msg})
	return nil
}

// =============================================================================
// MODEL CONSTRUCTION
// =============================================================================

type testSetup struct {
	cfg    *config.Config
	client Backend
	opts   []Option
}

// TestModelOption adjusts the test model before construction.
type TestModelOption func(*testSetup)

func withClient(c Backend) TestModelOption {
	return func(s *testSetup) { s.client = c }
}

func withConfig(fn func(*config.Config)) TestModelOption {
	return func(s *testSetup) { fn(s.cfg) }
}

func withOption(o Option) TestModelOption {
	return func(s *testSetup) { s.opts = append(s.opts, o) }
}

// NewTestModel builds a console pointed at baseURL, sized 100x40, with
// plain-text rendering and a recording scheduler.
func NewTestModel(t *testing.T, baseURL string, opts ...TestModelOption) (Model, *scheduleRecorder) {
	t.Helper()

	cfg := config.DefaultConfig()
	cfg.Backend.BaseURL = baseURL
	cfg.Backend.Timeout = 5 * time.Second
	cfg.Backend.HealthRetry = config.RetryConfig{Attempts: 1}
	cfg.Upload.StartDir = t.TempDir()
	cfg.UI.Theme = "light"

	setup := &testSetup{cfg: cfg}
	for _, opt := range opts {
		opt(setup)
	}
	if setup.client == nil {
		setup.client = backend.New(setup.cfg.Backend, backend.WithUserAgent("agni/test"))
	}

	rec := &scheduleRecorder{}
	base := []Option{
		WithoutMarkdown(),
		WithScheduler(rec.schedule),
		WithSession(session.New(session.WithClock(func() time.Time { return testClock }))),
	}

	m := New(Config{App: setup.cfg, Client: setup.client}, append(base, setup.opts...)...)
	m.textarea.Cursor.SetMode(cursor.CursorStatic)
	t.Cleanup(m.cancel)

	next, _ := m.Update(tea.WindowSizeMsg{Width: 100, Height: 40})
	return next.(Model), rec
}

// =============================================================================
// DRIVING HELPERS
// =============================================================================

// send runs one Update without executing the returned command.
func send(m Model, msg tea.Msg) (Model, tea.Cmd) {
	next, cmd := m.Update(msg)
	return next.(Model), cmd
}

// drive runs one Update and then every resulting command to completion,
// feeding back the messages the console owns.
func drive(t *testing.T, m Model, msg tea.Msg) Model {
	t.Helper()
	m, cmd := send(m, msg)
	return runCmds(t, m, cmd)
}

func runCmds(t *testing.T, m Model, cmd tea.Cmd) Model {
	t.Helper()
	queue := []tea.Cmd{cmd}
	for steps := 0; len(queue) > 0; steps++ {
		if steps > 100 {
			t.Fatalf("command loop did not settle")
		}
		c := queue[0]
		queue = queue[1:]
		if c == nil {
			continue
		}
		switch msg := c().(type) {
		case tea.BatchMsg:
			queue = append(queue, msg...)
		case chatResultMsg, uploadResultMsg, healthResultMsg, noticeExpiredMsg:
			var next tea.Cmd
			m, next = send(m, msg)
			queue = append(queue, next)
		default:
			// Directory listings for the file picker.
			if strings.HasPrefix(fmt.Sprintf("%T", msg), "filepicker.") {
				var next tea.Cmd
				m, next = send(m, msg)
				queue = append(queue, next)
			}
		}
	}
	return m
}

func typeText(m Model, text string) Model {
	m, _ = send(m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(text)})
	return m
}

var (
	keyEnter    = tea.KeyMsg{Type: tea.KeyEnter}
	keyAltEnter = tea.KeyMsg{Type: tea.KeyEnter, Alt: true}
	keyCtrlO    = tea.KeyMsg{Type: tea.KeyCtrlO}
	keyCtrlU    = tea.KeyMsg{Type: tea.KeyCtrlU}
	keyCtrlB    = tea.KeyMsg{Type: tea.KeyCtrlB}
	keyCtrlC    = tea.KeyMsg{Type: tea.KeyCtrlC}
	keyCtrlR    = tea.KeyMsg{Type: tea.KeyCtrlR}
	keyEsc      = tea.KeyMsg{Type: tea.KeyEsc}
	keyDown     = tea.KeyMsg{Type: tea.KeyDown}
)

func plainView(m Model) string {
	return ansi.Strip(m.View())
}

func writeDocs(t *testing.T, dir string, names ...string) []string {
	t.Helper()
	paths := make([]string, len(names))
	for i, name := range names {
		paths[i] = filepath.Join(dir, name)
		if err := os.WriteFile(paths[i], []byte("content of "+name), 0644); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
	}
	return paths
}

func plain(s string) string {
	return ansi.Strip(s)
}
