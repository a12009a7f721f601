package ui

import "testing"

func TestDetectTheme(t *testing.T) {
	t.Setenv("COLORFGBG", "")
	t.Setenv("AGNI_DARK_MODE", "1")
	dark := DetectTheme()
	if !dark.IsDark {
		t.Fatalf("expected dark theme when AGNI_DARK_MODE=1")
	}

	t.Setenv("AGNI_DARK_MODE", "")
	light := DetectTheme()
	if light.IsDark {
		t.Fatalf("expected light theme when AGNI_DARK_MODE is unset")
	}
}

func TestDetectTheme_ColorFGBG(t *testing.T) {
	t.Setenv("AGNI_DARK_MODE", "")

	t.Setenv("COLORFGBG", "15;0")
	if !DetectTheme().IsDark {
		t.Errorf("expected dark theme for black background")
	}

	t.Setenv("COLORFGBG", "0;15")
	if DetectTheme().IsDark {
		t.Errorf("expected light theme for white background")
	}

	t.Setenv("COLORFGBG", "garbage")
	if DetectTheme().IsDark {
		t.Errorf("expected light fallback for unparseable COLORFGBG")
	}
}

func TestThemeFor(t *testing.T) {
	t.Setenv("AGNI_DARK_MODE", "")
	t.Setenv("COLORFGBG", "")

	if ThemeFor("dark").IsDark != true {
		t.Errorf("ThemeFor(dark) should be dark")
	}
	if ThemeFor("LIGHT").IsDark {
		t.Errorf("ThemeFor(LIGHT) should be light")
	}
	if ThemeFor("auto").IsDark {
		t.Errorf("ThemeFor(auto) should detect light with no hints")
	}
}

func TestRenderDivider(t *testing.T) {
	s := NewStyles(LightTheme())
	if got := s.RenderDivider(0); got != "" {
		t.Errorf("expected empty divider for zero width, got %q", got)
	}
	if s.RenderDivider(5) == "" {
		t.Errorf("expected non-empty divider")
	}
}

func TestNewStyles_ProgressUsesInfo(t *testing.T) {
	for _, theme := range []Theme{LightTheme(), DarkTheme()} {
		s := NewStyles(theme)
		if got := s.Progress.GetForeground(); got != Info {
			t.Errorf("progress foreground = %v, want %v", got, Info)
		}
	}
}
