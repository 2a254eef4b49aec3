// Package styles provides shared lipgloss styles for CLI and TUI components,
// rebuilt whenever the light/dark theme changes.
package styles

import (
	"sync"

	glamouransi "github.com/charmbracelet/glamour/ansi"
	glamourstyles "github.com/charmbracelet/glamour/styles"
	"github.com/charmbracelet/lipgloss"
	"github.com/lucasb-eyer/go-colorful"
)

// Palette defines a minimal semantic theme palette.
type Palette struct {
	Dark       bool
	Primary    lipgloss.Color
	Secondary  lipgloss.Color
	Foreground lipgloss.Color
	Muted      lipgloss.Color
	Background lipgloss.Color
	Surface    lipgloss.Color
	Success    lipgloss.Color
	Warning    lipgloss.Color
	Error      lipgloss.Color
}

// palettes holds the built-in palettes keyed by theme name.
var palettes = map[string]Palette{
	"dark": { // tokyo-night
		Dark:       true,
		Primary:    lipgloss.Color("#7aa2f7"),
		Secondary:  lipgloss.Color("#7dcfff"),
		Foreground: lipgloss.Color("#c0caf5"),
		Muted:      lipgloss.Color("#565f89"),
		Background: lipgloss.Color("#1a1b26"),
		Surface:    lipgloss.Color("#3b4261"),
		Success:    lipgloss.Color("#9ece6a"),
		Warning:    lipgloss.Color("#e0af68"),
		Error:      lipgloss.Color("#f7768e"),
	},
	"light": { // tokyo-night day
		Primary:    lipgloss.Color("#2e7de9"),
		Secondary:  lipgloss.Color("#007197"),
		Foreground: lipgloss.Color("#3760bf"),
		Muted:      lipgloss.Color("#848cb5"),
		Background: lipgloss.Color("#e1e2e7"),
		Surface:    lipgloss.Color("#c4c8da"),
		Success:    lipgloss.Color("#587539"),
		Warning:    lipgloss.Color("#8c6c3e"),
		Error:      lipgloss.Color("#f52a65"),
	},
}

// PaletteFor returns the palette for a theme name ("light" or "dark").
func PaletteFor(name string) (Palette, bool) {
	p, ok := palettes[name]
	return p, ok
}

var mu sync.RWMutex

// current holds the active palette.
var current Palette

// Style exports.
var (
	// CLI styles.
	HeaderStyle  lipgloss.Style
	TitleStyle   lipgloss.Style
	MutedStyle   lipgloss.Style
	DividerStyle lipgloss.Style
	BorderStyle  lipgloss.Style
	ErrorStyle   lipgloss.Style
	SuccessStyle lipgloss.Style

	// Priority badges.
	PriorityHighStyle   lipgloss.Style
	PriorityMediumStyle lipgloss.Style
	PriorityLowStyle    lipgloss.Style

	// TUI styles.
	AppStyle           lipgloss.Style
	SelectedRowStyle   lipgloss.Style
	NormalRowStyle     lipgloss.Style
	FilterActiveStyle  lipgloss.Style
	FilterNormalStyle  lipgloss.Style
	StatusBarStyle     lipgloss.Style
	HelpStyle          lipgloss.Style
	EmptyStateStyle    lipgloss.Style
	OverdueStyle       lipgloss.Style
	FormTitleStyle     lipgloss.Style
	FormFieldStyle     lipgloss.Style
	FormFieldFocused   lipgloss.Style
	FormErrorStyle     lipgloss.Style
	FormHelpStyle      lipgloss.Style
	FormSubmittingText lipgloss.Style
)

// Current returns the active palette.
func Current() Palette {
	mu.RLock()
	defer mu.RUnlock()
	return current
}

// Apply switches to the palette of theme name. Unknown names are ignored.
func Apply(name string) {
	if p, ok := PaletteFor(name); ok {
		SetTheme(p)
	}
}

// SetTheme sets the active palette and rebuilds all global styles.
func SetTheme(p Palette) {
	mu.Lock()
	defer mu.Unlock()

	current = p

	HeaderStyle = lipgloss.NewStyle().
		Foreground(p.Primary).
		Bold(true)
	TitleStyle = lipgloss.NewStyle().
		Foreground(p.Foreground).
		Bold(true)
	MutedStyle = lipgloss.NewStyle().
		Foreground(p.Muted)
	DividerStyle = lipgloss.NewStyle().
		Foreground(p.Surface)
	BorderStyle = lipgloss.NewStyle().
		Foreground(p.Muted)
	ErrorStyle = lipgloss.NewStyle().
		Foreground(p.Error)
	SuccessStyle = lipgloss.NewStyle().
		Foreground(p.Success)

	PriorityHighStyle = lipgloss.NewStyle().Foreground(p.Error).Bold(true)
	PriorityMediumStyle = lipgloss.NewStyle().Foreground(p.Warning)
	PriorityLowStyle = lipgloss.NewStyle().Foreground(p.Success)

	AppStyle = lipgloss.NewStyle().
		Padding(1, 2)
	SelectedRowStyle = lipgloss.NewStyle().
		Foreground(p.Primary).
		Background(p.Surface).
		Bold(true)
	NormalRowStyle = lipgloss.NewStyle().
		Foreground(p.Foreground)
	FilterActiveStyle = lipgloss.NewStyle().
		Foreground(p.Background).
		Background(p.Primary).
		Padding(0, 1)
	FilterNormalStyle = lipgloss.NewStyle().
		Foreground(p.Muted).
		Padding(0, 1)
	StatusBarStyle = lipgloss.NewStyle().
		Foreground(p.Muted).
		MarginTop(1)
	HelpStyle = lipgloss.NewStyle().
		Foreground(p.Muted)
	EmptyStateStyle = lipgloss.NewStyle().
		Foreground(p.Muted).
		Italic(true).
		Padding(1, 0)
	OverdueStyle = lipgloss.NewStyle().
		Foreground(p.Error)

	FormTitleStyle = lipgloss.NewStyle().
		Foreground(p.Primary).
		Bold(true)
	FormFieldStyle = lipgloss.NewStyle().
		Border(lipgloss.ThickBorder(), false, false, false, true).
		BorderForeground(p.Muted).
		PaddingLeft(1)
	FormFieldFocused = lipgloss.NewStyle().
		Border(lipgloss.ThickBorder(), false, false, false, true).
		BorderForeground(p.Primary).
		PaddingLeft(1)
	FormErrorStyle = lipgloss.NewStyle().
		Foreground(p.Error)
	FormHelpStyle = lipgloss.NewStyle().
		Foreground(p.Muted)
	FormSubmittingText = lipgloss.NewStyle().
		Foreground(p.Warning).
		Italic(true)
}

// nolint:gochecknoinits // bootstrap default theme before any style is accessed.
func init() {
	SetTheme(palettes["light"])
}

func colorHexPtr(c lipgloss.Color) *string {
	if c == "" {
		return nil
	}
	cc, err := colorful.Hex(string(c))
	if err != nil {
		return nil
	}
	hex := cc.Hex()
	return &hex
}

// GlamourStyle returns a Glamour style config derived from the active theme.
func GlamourStyle() glamouransi.StyleConfig {
	p := Current()

	cfg := glamourstyles.LightStyleConfig
	if p.Dark {
		cfg = glamourstyles.DarkStyleConfig
	}

	fg := colorHexPtr(p.Foreground)
	primary := colorHexPtr(p.Primary)
	secondary := colorHexPtr(p.Secondary)
	muted := colorHexPtr(p.Muted)
	surface := colorHexPtr(p.Surface)

	cfg.Document.Color = fg

	cfg.Paragraph.Color = fg

	cfg.Heading.Color = primary
	cfg.H1.Color = fg
	cfg.H1.BackgroundColor = surface
	cfg.H2.Color = primary
	cfg.H3.Color = primary

	cfg.BlockQuote.Color = muted
	cfg.HorizontalRule.Color = muted

	cfg.Link.Color = secondary
	cfg.LinkText.Color = secondary

	cfg.Code.Color = secondary
	cfg.CodeBlock.Color = muted

	return cfg
}
