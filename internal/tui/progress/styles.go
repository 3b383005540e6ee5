package progress

import "github.com/charmbracelet/lipgloss"

// Colors used in the progress view.
var (
	ColorPrimary = lipgloss.Color("#7C3AED") // Purple
	ColorSuccess = lipgloss.Color("#10B981") // Green
	ColorWarning = lipgloss.Color("#F59E0B") // Amber
	ColorError   = lipgloss.Color("#EF4444") // Red
	ColorMuted   = lipgloss.Color("#9CA3AF") // Light gray
)

// Styles holds the styles for the progress view.
type Styles struct {
	Title    lipgloss.Style
	Elapsed  lipgloss.Style
	Spinner  lipgloss.Style
	Log      lipgloss.Style
	Help     lipgloss.Style
	StateOK  lipgloss.Style
	StateErr lipgloss.Style
	Warning  lipgloss.Style
}

// DefaultStyles returns the default styles.
func DefaultStyles() Styles {
	return Styles{
		Title: lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorPrimary),
		Elapsed: lipgloss.NewStyle().
			Foreground(ColorMuted),
		Spinner: lipgloss.NewStyle().
			Foreground(ColorPrimary),
		Log: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(ColorMuted),
		Help: lipgloss.NewStyle().
			Foreground(ColorMuted),
		StateOK: lipgloss.NewStyle().
			Foreground(ColorSuccess).
			Bold(true),
		StateErr: lipgloss.NewStyle().
			Foreground(ColorError).
			Bold(true),
		Warning: lipgloss.NewStyle().
			Foreground(ColorWarning).
			Italic(true),
	}
}
