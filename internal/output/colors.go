package output

import (
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-isatty"
	"github.com/muesli/termenv"
)

var (
	redStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	yellowStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))
	cyanStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("14"))
	greenStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	dimStyle    = lipgloss.NewStyle().Faint(true)
)

// colorEnabled is true when stdout is a terminal that supports color.
var colorEnabled = isatty.IsTerminal(os.Stdout.Fd()) &&
	termenv.DefaultOutput().Profile != termenv.Ascii

// SetColorEnabled overrides color detection; used in tests.
func SetColorEnabled(enabled bool) {
	colorEnabled = enabled
}

func render(style lipgloss.Style, text string) string {
	if !colorEnabled {
		return text
	}
	return style.Render(text)
}

// ColorRed colors text red
func ColorRed(text string) string { return render(redStyle, text) }

// ColorYellow colors text yellow
func ColorYellow(text string) string { return render(yellowStyle, text) }

// ColorCyan colors text cyan
func ColorCyan(text string) string { return render(cyanStyle, text) }

// ColorGreen colors text green
func ColorGreen(text string) string { return render(greenStyle, text) }

// ColorDim makes text dim/gray
func ColorDim(text string) string { return render(dimStyle, text) }
