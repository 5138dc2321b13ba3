package ui

import (
	"github.com/charmbracelet/glamour"
)

// defaultWrap is the word-wrap width when the terminal width is unknown.
const defaultWrap = 80

// RenderMarkdown renders Markdown for a terminal. Plain mode uses the
// "notty" style so output carries no escape sequences.
func RenderMarkdown(md string, width int, noColor bool) (string, error) {
	if width <= 0 {
		width = defaultWrap
	}
	style := glamour.WithAutoStyle()
	if noColor {
		style = glamour.WithStandardStyle("notty")
	}
	r, err := glamour.NewTermRenderer(style, glamour.WithWordWrap(width))
	if err != nil {
		return "", err
	}
	return r.Render(md)
}
