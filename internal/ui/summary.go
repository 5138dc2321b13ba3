package ui

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/Aman-CERP/livedoc/internal/cache"
)

// ScanSummary is what `livedoc scan` reports after a cycle.
type ScanSummary struct {
	Root       string          `json:"root"`
	Generation uint64          `json:"generation"`
	Modules    int             `json:"modules"`
	IndexKeys  int             `json:"index_keys"`
	Changed    bool            `json:"changed"`
	Stats      cache.ScanStats `json:"stats"`
}

// maxListedErrors caps the per-file failures printed under a summary.
const maxListedErrors = 10

// RenderScanSummary writes a human-readable summary. With boxed set the
// summary is wrapped in a rounded panel.
func RenderScanSummary(w io.Writer, s ScanSummary, styles Styles, boxed bool) {
	var lines []string

	st := s.Stats
	if s.Changed {
		lines = append(lines, styles.Success.Render("✓ Scan complete"))
	} else {
		lines = append(lines, styles.Dim.Render("No changes"))
	}
	lines = append(lines, fmt.Sprintf("%s %s", styles.Label.Render("Root:      "), s.Root))
	lines = append(lines, fmt.Sprintf("%s %s", styles.Label.Render("Files:     "),
		styles.Active.Render(fmt.Sprintf("%d", st.Files))))
	lines = append(lines, fmt.Sprintf("%s %d extracted, %d reused, %d removed",
		styles.Label.Render("Changes:   "), st.Extracted, st.Reused, st.Removed))
	lines = append(lines, fmt.Sprintf("%s %s", styles.Label.Render("Generation:"),
		styles.Active.Render(fmt.Sprintf("%d (%d modules, %d index keys)", s.Generation, s.Modules, s.IndexKeys))))
	lines = append(lines, fmt.Sprintf("%s %s", styles.Label.Render("Duration:  "), FormatDuration(st.Duration)))

	if st.Failed > 0 {
		lines = append(lines, "")
		lines = append(lines, styles.Warning.Render(fmt.Sprintf("⚠ %d files skipped", st.Failed)))
		for i, fe := range st.Errors {
			if i == maxListedErrors {
				lines = append(lines, styles.Dim.Render(fmt.Sprintf("  … and %d more", len(st.Errors)-maxListedErrors)))
				break
			}
			lines = append(lines, styles.Dim.Render(fmt.Sprintf("  %s: %v", fe.Path, fe.Err)))
		}
	}

	content := strings.Join(lines, "\n")
	if boxed {
		content = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color(ColorLime)).
			Padding(0, 2).
			Render(content)
	}
	_, _ = fmt.Fprintln(w, content)
}

// FormatDuration formats a duration in a human-friendly way.
func FormatDuration(d time.Duration) string {
	switch {
	case d < time.Millisecond:
		return fmt.Sprintf("%dµs", d.Microseconds())
	case d < time.Second:
		return fmt.Sprintf("%dms", d.Milliseconds())
	case d < time.Minute:
		return fmt.Sprintf("%.1fs", d.Seconds())
	}
	d = d.Round(time.Second)
	m := int(d.Minutes())
	s := int(d.Seconds()) % 60
	if s == 0 {
		return fmt.Sprintf("%dm", m)
	}
	return fmt.Sprintf("%dm %ds", m, s)
}
