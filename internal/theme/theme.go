package theme

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
)

// Default is the theme new accounts start with
const Default = "light"

// Palette maps CSS variable names to hex colors for one theme
type Palette map[string]string

// MATLAB-styled palettes matching the desktop product's color scheme
var palettes = map[string]Palette{
	"light": {
		"matlab-blue":     "#0076A8",
		"matlab-orange":   "#E76500",
		"matlab-light":    "#F7F7F7",
		"matlab-code-bg":  "#F5F7F9",
		"text-color":      "#222222",
		"text-secondary":  "#444444",
		"border-color":    "#CCCCCC",
		"user-message-bg": "#E1F0FA",
		"bot-message-bg":  "#FFFFFF",
		"hover-color":     "#005685",
		"header-bg":       "#F0F0F0",
		"input-bg":        "#FFFFFF",
		"input-text":      "#222222",
		"input-border":    "#BBBBBB",
		"button-bg":       "#0076A8",
		"button-hover":    "#0096D6",
		"navbar-bg":       "#F0F0F0",
	},
	"dark": {
		"matlab-blue":     "#0097E6",
		"matlab-orange":   "#FF8C42",
		"matlab-light":    "#333333",
		"matlab-code-bg":  "#2D2D2D",
		"text-color":      "#E0E0E0",
		"text-secondary":  "#B0B0B0",
		"border-color":    "#444444",
		"user-message-bg": "#2C3E50",
		"bot-message-bg":  "#343434",
		"hover-color":     "#005685",
		"header-bg":       "#212121",
		"input-bg":        "#3D3D3D",
		"input-text":      "#FFFFFF",
		"input-border":    "#555555",
		"button-bg":       "#0097E6",
		"button-hover":    "#00B4F0",
		"navbar-bg":       "#151515",
	},
}

var hexColorPattern = regexp.MustCompile(`^#[0-9A-Fa-f]{6}$`)

// Valid reports whether mode names a known theme
func Valid(mode string) bool {
	_, ok := palettes[mode]
	return ok
}

// Modes returns the available theme names, sorted
func Modes() []string {
	modes := make([]string, 0, len(palettes))
	for mode := range palettes {
		modes = append(modes, mode)
	}
	sort.Strings(modes)
	return modes
}

// Normalize returns mode if valid, the default theme otherwise. Stored
// settings can hold stale values after external edits.
func Normalize(mode string) string {
	if Valid(mode) {
		return mode
	}
	return Default
}

// CSS renders the theme's palette as a :root variable block
func CSS(mode string) (string, error) {
	palette, ok := palettes[mode]
	if !ok {
		return "", fmt.Errorf("unknown theme: %s", mode)
	}

	names := make([]string, 0, len(palette))
	for name := range palette {
		names = append(names, name)
	}
	sort.Strings(names)

	var sb strings.Builder
	sb.WriteString(":root {\n")
	for _, name := range names {
		fmt.Fprintf(&sb, "  --%s: %s;\n", name, palette[name])
	}
	sb.WriteString("}\n")
	return sb.String(), nil
}

// validatePalette checks every color is #RRGGBB
func validatePalette(name string, palette Palette) error {
	for variable, color := range palette {
		if !hexColorPattern.MatchString(color) {
			return fmt.Errorf("%s palette has invalid hex color for %s: %s", name, variable, color)
		}
	}
	return nil
}

// Validate checks all built-in palettes. Called at startup so a bad
// edit fails loudly instead of rendering broken CSS.
func Validate() error {
	for name, palette := range palettes {
		if err := validatePalette(name, palette); err != nil {
			return err
		}
	}
	return nil
}
