package session

// NoticeKind distinguishes success from error notices.
type NoticeKind string

const (
	NoticeSuccess NoticeKind = "success"
	NoticeError   NoticeKind = "error"
)

const (
	UploadSucceededText = "Files uploaded successfully!"
	UploadFailedText    = "Upload failed. Please try again."
)

// Notice is the transient upload banner.
type Notice struct {
	Kind    NoticeKind
	Message string
}

// NoticeBoard holds at most one notice. Every Post returns a fresh token;
// only the latest token can clear the board, so a stale timer is harmless.
type NoticeBoard struct {
	current *Notice
	token   uint64
}

// Post replaces the current notice and returns its token.
func (b *NoticeBoard) Post(n Notice) uint64 {
	b.token++
	b.current = &n
	return b.token
}

// Expire clears the notice if token is still current. It reports whether it did.
func (b *NoticeBoard) Expire(token uint64) bool {
	if b.current == nil || token != b.token {
		return false
	}
	b.current = nil
	return true
}

// Current returns the active notice.
func (b *NoticeBoard) Current() (Notice, bool) {
	if b.current == nil {
		return Notice{}, false
	}
	return *b.current, true
}

// Token returns the token of the most recent Post.
func (b *NoticeBoard) Token() uint64 { return b.token }
