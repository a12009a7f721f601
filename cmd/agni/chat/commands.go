package chat

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"agni/internal/backend"
	"agni/internal/documents"
	"agni/internal/logging"
	"agni/internal/session"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// submit sends the composer draft. Blank drafts and sends while one is in
// flight are ignored.
func (m Model) submit() (tea.Model, tea.Cmd) {
	m.state.SetDraft(m.textarea.Value())
	text, ok := m.state.Submit()
	if !ok {
		return m, nil
	}

	m.textarea.Reset()
	m.textarea.Blur()
	m.statusLine = ""
	m.refreshViewport()

	logging.Chat("message submitted", zap.String("session_id", m.sessionID), zap.Int("length", len(text)))
	return m, tea.Batch(m.sendChat(text), m.spinner.Tick)
}

// sendChat issues the chat request. The returned command always yields
// exactly one chatResultMsg, even if the client panics.
func (m Model) sendChat(text string) tea.Cmd {
	client := m.client
	ctx := logging.ToContext(m.ctx, logging.CategoryChat, zap.String("session_id", m.sessionID))
	ctx = backend.WithRequestID(ctx, uuid.NewString())

	return func() tea.Msg {
		start := time.Now()
		var reply session.Reply
		err := session.Do(func() error {
			if client == nil {
				return fmt.Errorf("no backend configured")
			}
			resp, err := client.Chat(ctx, text)
			if err != nil {
				return err
			}
			reply = session.Reply{
				Response:      resp.Response,
				EnhancedQuery: resp.EnhancedQuery,
				Status:        resp.Status,
			}
			return nil
		})
		return chatResultMsg{reply: reply, err: err, elapsed: time.Since(start)}
	}
}

func (m Model) handleChatResult(msg chatResultMsg) (tea.Model, tea.Cmd) {
	if !m.state.ResolveChat(msg.reply, msg.err) {
		return m, nil
	}

	log := logging.Get(logging.CategoryChat).With(
		zap.String("session_id", m.sessionID),
		zap.Duration("elapsed", msg.elapsed),
	)
	if msg.err != nil {
		log.Warn("chat request failed",
			zap.Error(msg.err),
			zap.Int("status", backend.StatusCode(msg.err)),
			zap.Bool("network", backend.IsNetworkError(msg.err)),
		)
	} else {
		log.Debug("chat reply received", zap.Bool("enhanced", msg.reply.EnhancedQuery != ""))
	}

	m.refreshViewport()
	if m.viewMode != ChatView {
		return m, nil
	}
	focus := m.textarea.Focus()
	return m, focus
}

// openPicker shows the file picker and lists its directory.
func (m Model) openPicker() (tea.Model, tea.Cmd) {
	if m.state.IsUploading() {
		m.statusLine = "Upload in progress..."
		return m, nil
	}
	m.viewMode = FilePickerView
	m.textarea.Blur()
	return m, m.filepicker.Init()
}

// selectFiles adds the accepted paths to the selection and reports the rest.
func (m *Model) selectFiles(paths ...string) {
	if len(paths) == 0 {
		return
	}
	accepted, rejected := m.policy.Filter(paths)
	added := m.state.Select(accepted...)

	var parts []string
	if added > 0 {
		parts = append(parts, fmt.Sprintf("%d file(s) selected", len(m.state.Selection())))
	}
	for _, p := range rejected {
		if err := m.policy.Check(p); err != nil {
			parts = append(parts, err.Error())
		}
	}
	if len(parts) > 0 {
		m.statusLine = strings.Join(parts, "; ")
	}

	logging.Upload("files selected",
		zap.Int("accepted", added),
		zap.Int("rejected", len(rejected)),
	)
}

// uploadSelected sends the selection as one ingestion request.
func (m Model) uploadSelected() (tea.Model, tea.Cmd) {
	paths, ok := m.state.BeginUpload()
	if !ok {
		if !m.state.IsUploading() {
			m.statusLine = "No files selected. Press ctrl+o to choose documents."
		}
		return m, nil
	}

	var focus tea.Cmd
	if m.viewMode == FilePickerView {
		m.viewMode = ChatView
		if !m.state.IsSending() {
			focus = m.textarea.Focus()
		}
	}
	m.statusLine = ""

	logging.Upload("upload started",
		zap.String("session_id", m.sessionID),
		zap.Strings("files", baseNames(paths)),
		zap.Stringer("phase", m.state.UploadPhase()),
	)
	return m, tea.Batch(m.uploadCmd(paths), m.spinner.Tick, focus)
}

// uploadCmd reads paths and posts them. It always yields one uploadResultMsg.
func (m Model) uploadCmd(paths []string) tea.Cmd {
	client := m.client
	maxSize := m.cfg.Upload.MaxFileSize
	ctx := logging.ToContext(m.ctx, logging.CategoryUpload, zap.String("session_id", m.sessionID))
	ctx = backend.WithRequestID(ctx, uuid.NewString())

	return func() tea.Msg {
		var resp *backend.IngestResponse
		err := session.Do(func() error {
			if client == nil {
				return fmt.Errorf("no backend configured")
			}
			files, err := documents.Load(ctx, paths, maxSize)
			if err != nil {
				return err
			}
			resp, err = client.Ingest(ctx, files)
			return err
		})
		return uploadResultMsg{count: len(paths), resp: resp, err: err}
	}
}

func (m Model) handleUploadResult(msg uploadResultMsg) (tea.Model, tea.Cmd) {
	token, ok := m.state.ResolveUpload(msg.err)
	if !ok {
		return m, nil
	}

	log := logging.Get(logging.CategoryUpload).With(zap.String("session_id", m.sessionID))
	if msg.err != nil {
		log.Warn("upload failed", zap.Int("files", msg.count), zap.Error(msg.err))
	} else {
		fields := []zap.Field{zap.Int("files", msg.count)}
		if msg.resp != nil && msg.resp.Status != "" {
			fields = append(fields, zap.String("status", msg.resp.Status), zap.Int("chunks_processed", msg.resp.ChunksProcessed))
		}
		log.Info("files uploaded", fields...)
	}

	return m, m.schedule(m.cfg.Upload.NoticeTTL, noticeExpiredMsg{token: token})
}

// probeHealth checks the backend once (with retries inside the client).
func (m Model) probeHealth() tea.Cmd {
	client := m.client
	ctx := logging.ToContext(m.ctx, logging.CategoryAPI)
	return func() tea.Msg {
		var resp *backend.HealthResponse
		err := session.Do(func() error {
			var err error
			resp, err = client.Health(ctx)
			return err
		})
		return healthResultMsg{resp: resp, err: err}
	}
}

func baseNames(paths []string) []string {
	out := make([]string, len(paths))
	for i, p := range paths {
		out[i] = filepath.Base(p)
	}
	return out
}
