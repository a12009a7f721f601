package session

import (
	"path/filepath"
	"slices"
	"strings"
	"time"
)

// State is the console's single state bag. It is not safe for concurrent use;
// the UI loop is its only writer.
type State struct {
	now func() time.Time

	draft    string
	messages []Message
	chat     Operation

	selection []string
	pending   []string
	uploaded  []string
	upload    Operation
	notices   NoticeBoard

	panelOpen bool
}

// Option configures a State.
type Option func(*State)

// WithClock sets the time source used to stamp messages.
func WithClock(now func() time.Time) Option {
	return func(s *State) { s.now = now }
}

// New returns an empty session with the document panel open.
func New(opts ...Option) *State {
	s := &State{now: time.Now, panelOpen: true}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// SetDraft replaces the composer text.
func (s *State) SetDraft(text string) { s.draft = text }

// Draft returns the composer text.
func (s *State) Draft() string { return s.draft }

// CanSubmit reports whether Submit would send.
func (s *State) CanSubmit() bool {
	return strings.TrimSpace(s.draft) != "" && !s.chat.InFlight()
}

// Submit appends the draft as a user message, clears it and marks a send in
// flight. It returns the text to send, or false when the draft is blank or a
// send is already outstanding.
func (s *State) Submit() (string, bool) {
	if !s.CanSubmit() {
		return "", false
	}
	text := s.draft
	s.chat.Begin()
	s.messages = append(s.messages, newUserMessage(text, s.now()))
	s.draft = ""
	return text, true
}

// ResolveChat settles the outstanding send. A nil err appends the reply; any
// error appends the apology. It returns false if no send was outstanding.
func (s *State) ResolveChat(reply Reply, err error) bool {
	if !s.chat.Settle(err) {
		return false
	}
	if err != nil {
		s.messages = append(s.messages, newErrorMessage(s.now()))
	} else {
		s.messages = append(s.messages, newAssistantMessage(reply, s.now()))
	}
	return true
}

// Messages returns a copy of the transcript.
func (s *State) Messages() []Message { return slices.Clone(s.messages) }

// MessageCount returns the transcript length.
func (s *State) MessageCount() int { return len(s.messages) }

// IsSending reports whether a chat request is outstanding.
func (s *State) IsSending() bool { return s.chat.InFlight() }

// ChatPhase exposes the chat operation's phase.
func (s *State) ChatPhase() Phase { return s.chat.Phase() }

// Select adds paths to the pending selection, skipping ones already selected.
// It returns how many were added. Selection is frozen while uploading.
func (s *State) Select(paths ...string) int {
	if s.upload.InFlight() {
		return 0
	}
	added := 0
	for _, p := range paths {
		if p == "" || slices.Contains(s.selection, p) {
			continue
		}
		s.selection = append(s.selection, p)
		added++
	}
	return added
}

// Deselect removes path from the selection.
func (s *State) Deselect(path string) bool {
	if s.upload.InFlight() {
		return false
	}
	i := slices.Index(s.selection, path)
	if i < 0 {
		return false
	}
	s.selection = slices.Delete(s.selection, i, i+1)
	return true
}

// Selection returns a copy of the files picked but not yet uploaded.
func (s *State) Selection() []string { return slices.Clone(s.selection) }

// BeginUpload marks an upload in flight and returns the files to send.
// Any notice from a previous upload is cleared.
// It returns false for an empty selection or when an upload is outstanding.
func (s *State) BeginUpload() ([]string, bool) {
	if len(s.selection) == 0 || s.upload.InFlight() {
		return nil, false
	}
	s.notices.Expire(s.notices.Token())
	s.upload.Begin()
	s.pending = slices.Clone(s.selection)
	return slices.Clone(s.pending), true
}

// ResolveUpload settles the outstanding upload. On success the base name of
// each sent file is appended in order. Either way the selection is cleared
// and a notice posted; the returned token identifies that notice for expiry.
// ok is false if no upload was outstanding.
func (s *State) ResolveUpload(err error) (token uint64, ok bool) {
	if !s.upload.Settle(err) {
		return 0, false
	}

	if err != nil {
		token = s.notices.Post(Notice{Kind: NoticeError, Message: UploadFailedText})
	} else {
		for _, p := range s.pending {
			s.uploaded = append(s.uploaded, filepath.Base(p))
		}
		token = s.notices.Post(Notice{Kind: NoticeSuccess, Message: UploadSucceededText})
	}

	s.pending = nil
	s.selection = nil
	return token, true
}

// IsUploading reports whether an upload is outstanding.
func (s *State) IsUploading() bool { return s.upload.InFlight() }

// UploadPhase exposes the upload operation's phase.
func (s *State) UploadPhase() Phase { return s.upload.Phase() }

// Uploaded returns the names of successfully uploaded files, in order.
func (s *State) Uploaded() []string { return slices.Clone(s.uploaded) }

// Notice returns the active upload notice.
func (s *State) Notice() (Notice, bool) { return s.notices.Current() }

// ExpireNotice clears the notice identified by token if it is still current.
func (s *State) ExpireNotice(token uint64) bool { return s.notices.Expire(token) }

// TogglePanel flips the document panel and returns the new value.
func (s *State) TogglePanel() bool {
	s.panelOpen = !s.panelOpen
	return s.panelOpen
}

// PanelOpen reports whether the document panel is shown.
func (s *State) PanelOpen() bool { return s.panelOpen }
