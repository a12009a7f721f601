package ui

// Layout constants for the two-pane console
const (
	HeaderHeight      = 2
	FooterHeight      = 1
	ComposerHeight    = 3 // textarea rows
	ComposerChrome    = 2 // composer border
	NoticeHeight      = 1
	PanelBorderWidth  = 1
	PanelPaddingH     = 1
	SidebarRatio      = 0.30
	SidebarMinWidth   = 30
	SidebarMaxWidth   = 40
	PaneGap           = 1
	MinTranscriptW    = 20
	MinimumViewportH  = 1
	BubbleMaxRatio    = 0.8
	CompactModeWidth  = 60 // below this the sidebar is hidden even when open
	MinimumTermWidth  = 20
	MinimumTermHeight = 8
)

// Layout holds the pane dimensions computed from the terminal size.
type Layout struct {
	Width  int
	Height int

	ShowSidebar  bool
	SidebarWidth int

	TranscriptWidth  int
	TranscriptHeight int
	ComposerWidth    int
}

// NewLayout computes pane sizes for a terminal of width x height.
// panelOpen is the user's toggle; narrow terminals hide the sidebar anyway.
func NewLayout(width, height int, panelOpen bool) Layout {
	if width < MinimumTermWidth {
		width = MinimumTermWidth
	}
	if height < MinimumTermHeight {
		height = MinimumTermHeight
	}

	l := Layout{Width: width, Height: height}
	l.ShowSidebar = panelOpen && width >= CompactModeWidth

	main := width
	if l.ShowSidebar {
		l.SidebarWidth = clamp(int(float64(width)*SidebarRatio), SidebarMinWidth, SidebarMaxWidth)
		main = width - l.SidebarWidth - PaneGap
	}

	l.TranscriptWidth = max(main-PanelPaddingH*2, MinTranscriptW)
	l.ComposerWidth = max(main-(PanelBorderWidth+PanelPaddingH)*2, 1)

	l.TranscriptHeight = max(
		height-HeaderHeight-FooterHeight-NoticeHeight-ComposerHeight-ComposerChrome,
		MinimumViewportH,
	)
	return l
}

// SidebarContentWidth returns the usable width inside the bordered sidebar.
func (l Layout) SidebarContentWidth() int {
	return max(l.SidebarWidth-(PanelBorderWidth+PanelPaddingH)*2, 1)
}

// SidebarContentHeight returns the usable height inside the bordered sidebar.
func (l Layout) SidebarContentHeight() int {
	return max(l.Height-HeaderHeight-FooterHeight-PanelBorderWidth*2, 1)
}

// BubbleWidth returns the maximum width of a message bubble.
func (l Layout) BubbleWidth() int {
	return max(int(float64(l.TranscriptWidth)*BubbleMaxRatio), 1)
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
