package cli

import (
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"
)

var (
	headingStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("86"))

	resultStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("46"))

	mutedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240"))
)

func printHeading(w io.Writer, title string) {
	fmt.Fprintln(w, headingStyle.Render("== "+title+" =="))
}

func printResult(w io.Writer, result string) {
	fmt.Fprintln(w, resultStyle.Render("Result: "+result))
}

func printNote(w io.Writer, format string, args ...any) {
	fmt.Fprintln(w, mutedStyle.Render(fmt.Sprintf(format, args...)))
}
