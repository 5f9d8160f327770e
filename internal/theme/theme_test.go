package theme

import (
	"strings"
	"testing"
)

func TestValid(t *testing.T) {
	tests := []struct {
		mode     string
		expected bool
	}{
		{"light", true},
		{"dark", true},
		{"Light", false},
		{"solarized", false},
		{"", false},
	}

	for _, tt := range tests {
		if got := Valid(tt.mode); got != tt.expected {
			t.Errorf("Valid(%q) = %v, want %v", tt.mode, got, tt.expected)
		}
	}
}

func TestModes(t *testing.T) {
	modes := Modes()
	if len(modes) != 2 {
		t.Fatalf("Modes() returned %d themes, want 2", len(modes))
	}
	if modes[0] != "dark" || modes[1] != "light" {
		t.Errorf("Modes() = %v, want sorted [dark light]", modes)
	}
}

func TestNormalize(t *testing.T) {
	if got := Normalize("dark"); got != "dark" {
		t.Errorf("Normalize(dark) = %q", got)
	}
	if got := Normalize("midnight"); got != Default {
		t.Errorf("Normalize(midnight) = %q, want %q", got, Default)
	}
	if got := Normalize(""); got != Default {
		t.Errorf("Normalize(\"\") = %q, want %q", got, Default)
	}
}

func TestCSSRendersRootBlock(t *testing.T) {
	css, err := CSS("light")
	if err != nil {
		t.Fatalf("CSS(light) error = %v", err)
	}

	if !strings.HasPrefix(css, ":root {\n") {
		t.Errorf("CSS should start with a :root block, got %q", css[:20])
	}
	if !strings.Contains(css, "--matlab-blue: #0076A8;") {
		t.Error("light CSS missing the MATLAB blue variable")
	}
	if !strings.Contains(css, "--user-message-bg: #E1F0FA;") {
		t.Error("light CSS missing the user message background")
	}
	if !strings.HasSuffix(css, "}\n") {
		t.Error("CSS block should be closed")
	}
}

func TestCSSDarkDiffers(t *testing.T) {
	light, err := CSS("light")
	if err != nil {
		t.Fatalf("CSS(light) error = %v", err)
	}
	dark, err := CSS("dark")
	if err != nil {
		t.Fatalf("CSS(dark) error = %v", err)
	}

	if light == dark {
		t.Error("light and dark themes should render different CSS")
	}
	if !strings.Contains(dark, "--matlab-blue: #0097E6;") {
		t.Error("dark CSS missing its MATLAB blue variant")
	}
}

func TestCSSUnknownTheme(t *testing.T) {
	if _, err := CSS("sepia"); err == nil {
		t.Error("CSS for an unknown theme should fail")
	}
}

func TestValidatePalettes(t *testing.T) {
	if err := Validate(); err != nil {
		t.Errorf("built-in palettes should validate, got %v", err)
	}
}

func TestValidatePaletteRejectsBadColor(t *testing.T) {
	bad := Palette{"text-color": "not-a-color"}
	if err := validatePalette("bad", bad); err == nil {
		t.Error("validatePalette should reject a non-hex color")
	}

	shortHex := Palette{"text-color": "#FFF"}
	if err := validatePalette("short", shortHex); err == nil {
		t.Error("validatePalette should reject 3-digit hex")
	}
}
