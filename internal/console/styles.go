package console

import "github.com/charmbracelet/lipgloss"

var (
	// PrimaryColor is the main theme color.
	PrimaryColor = lipgloss.Color("#4ECDC4")
	// ErrorColor marks errors and an overspent budget.
	ErrorColor = lipgloss.Color("#FF6B6B")
	// MeanColor marks the mean line of the daily histogram.
	MeanColor = lipgloss.Color("#FFE66D")
	// SubtleColor is used for borders and hints.
	SubtleColor = lipgloss.Color("#666666")
)

// styles are bound to the renderer of the session's output, so colors are
// dropped when writing to something that is not a terminal.
type styles struct {
	title    lipgloss.Style
	header   lipgloss.Style
	cell     lipgloss.Style
	number   lipgloss.Style
	border   lipgloss.Style
	bar      lipgloss.Style
	mean     lipgloss.Style
	negative lipgloss.Style
	success  lipgloss.Style
	err      lipgloss.Style
	subtle   lipgloss.Style
}

func newStyles(r *lipgloss.Renderer) styles {
	return styles{
		title:    r.NewStyle().Bold(true).Foreground(PrimaryColor),
		header:   r.NewStyle().Bold(true).Padding(0, 1),
		cell:     r.NewStyle().Padding(0, 1),
		number:   r.NewStyle().Padding(0, 1).Align(lipgloss.Right),
		border:   r.NewStyle().Foreground(SubtleColor),
		bar:      r.NewStyle().Foreground(PrimaryColor),
		mean:     r.NewStyle().Foreground(MeanColor),
		negative: r.NewStyle().Foreground(ErrorColor),
		success:  r.NewStyle().Foreground(PrimaryColor),
		err:      r.NewStyle().Foreground(ErrorColor),
		subtle:   r.NewStyle().Foreground(SubtleColor),
	}
}
