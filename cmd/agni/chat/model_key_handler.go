package chat

import (
	"fmt"
	"path/filepath"

	"agni/internal/logging"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"
)

// handleKeyMsg routes keyboard input. Global keys first, then the picker,
// then the composer.
func (m Model) handleKeyMsg(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if key.Matches(msg, m.keys.Quit) {
		m.cancel()
		return m, tea.Quit
	}

	if key.Matches(msg, m.keys.Upload) {
		return m.uploadSelected()
	}

	if m.viewMode == FilePickerView {
		return m.handlePickerKey(msg)
	}

	switch {
	case key.Matches(msg, m.keys.OpenPicker):
		return m.openPicker()

	case key.Matches(msg, m.keys.TogglePanel):
		open := m.state.TogglePanel()
		m.resize(m.width, m.height)
		logging.Get(logging.CategoryUI).Debug("document panel toggled", zap.Bool("open", open))
		return m, nil

	case key.Matches(msg, m.keys.ScrollUp):
		m.viewport.HalfPageUp()
		return m, nil

	case key.Matches(msg, m.keys.ScrollDown):
		m.viewport.HalfPageDown()
		return m, nil

	case isSubmitKey(msg, m.keys.Send):
		return m.submit()
	}

	// Composer input. A blurred textarea (send in flight) ignores keys.
	var cmd tea.Cmd
	m.textarea, cmd = m.textarea.Update(msg)
	if msg.Type == tea.KeyRunes {
		m.statusLine = ""
	}
	return m, cmd
}

// isSubmitKey reports a bare enter. Modified or pasted enters never submit.
func isSubmitKey(msg tea.KeyMsg, send key.Binding) bool {
	return !msg.Alt && !msg.Paste && key.Matches(msg, send)
}

func (m Model) handlePickerKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.ClosePicker):
		m.viewMode = ChatView
		if m.state.IsSending() {
			return m, nil
		}
		focus := m.textarea.Focus()
		return m, focus

	case key.Matches(msg, m.keys.Unselect):
		sel := m.state.Selection()
		if len(sel) > 0 && m.state.Deselect(sel[len(sel)-1]) {
			m.statusLine = fmt.Sprintf("Removed %s", filepath.Base(sel[len(sel)-1]))
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.filepicker, cmd = m.filepicker.Update(msg)

	if didSelect, path := m.filepicker.DidSelectFile(msg); didSelect {
		m.selectFiles(path)
		return m, cmd
	}

	if didSelect, path := m.filepicker.DidSelectDisabledFile(msg); didSelect {
		m.selectFiles(path)
		return m, cmd
	}

	return m, cmd
}
