package ui

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/Aman-CERP/livedoc/internal/cache"
	"github.com/Aman-CERP/livedoc/internal/export"
	"github.com/Aman-CERP/livedoc/internal/telemetry"
)

// BrowserOptions configures the interactive browser.
type BrowserOptions struct {
	NoColor bool
	// Limit caps the number of hits per query. Defaults to 100.
	Limit int
	// Metrics records the query behind every opened result.
	Metrics *telemetry.QueryMetrics
}

// RunBrowser runs the documentation browser until the user quits or ctx
// is cancelled. The view follows every generation the store publishes.
func RunBrowser(ctx context.Context, store *cache.Store, opts BrowserOptions) error {
	events, unsubscribe := store.Subscribe()
	defer unsubscribe()

	m := newBrowserModel(store, events, opts)
	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx))
	_, err := p.Run()
	if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
		return nil
	}
	return err
}

// Message types for bubbletea
type generationMsg cache.Event
type eventsClosedMsg struct{}

type browserMode int

const (
	modeSearch browserMode = iota
	modeDetail
)

// browserModel is the bubbletea model behind `livedoc browse`.
type browserModel struct {
	store   *cache.Store
	events  <-chan cache.Event
	styles  Styles
	noColor bool
	limit   int
	metrics *telemetry.QueryMetrics

	input     textinput.Model
	detail    viewport.Model
	mode      browserMode
	results   []cache.Result
	cursor    int
	lastQuery string
	openKey   string
	status    string

	generation uint64
	modules    int
	scans      *Sparkline
	width      int
	height     int
	quitting   bool
}

func newBrowserModel(store *cache.Store, events <-chan cache.Event, opts BrowserOptions) *browserModel {
	ti := textinput.New()
	ti.Prompt = "/ "
	ti.Placeholder = "search names and docstrings"
	ti.CharLimit = 256
	ti.Focus()

	if opts.Limit <= 0 {
		opts.Limit = 100
	}

	cur := store.Current()
	m := &browserModel{
		store:      store,
		events:     events,
		styles:     GetStyles(opts.NoColor),
		noColor:    opts.NoColor,
		limit:      opts.Limit,
		metrics:    opts.Metrics,
		input:      ti,
		detail:     viewport.New(80, 20),
		generation: cur.Seq,
		modules:    len(cur.Documents),
		scans:      NewSparkline(20),
		width:      80,
		height:     24,
	}
	m.refresh()
	return m
}

// waitForEvent delivers the next published generation as a message.
func waitForEvent(ch <-chan cache.Event) tea.Cmd {
	if ch == nil {
		return nil
	}
	return func() tea.Msg {
		ev, ok := <-ch
		if !ok {
			return eventsClosedMsg{}
		}
		return generationMsg(ev)
	}
}

// Init implements tea.Model.
func (m *browserModel) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, waitForEvent(m.events))
}

// Update implements tea.Model.
func (m *browserModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.input.Width = max(msg.Width-8, 10)
		m.detail.Width = max(msg.Width-2, 20)
		m.detail.Height = max(msg.Height-5, 3)
		if m.mode == modeDetail {
			m.renderDetail()
		}
		return m, nil

	case generationMsg:
		m.applyGeneration(cache.Event(msg))
		return m, waitForEvent(m.events)

	case eventsClosedMsg:
		return m, nil

	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC {
			m.quitting = true
			return m, tea.Quit
		}
		if m.mode == modeDetail {
			return m.updateDetail(msg)
		}
		return m.updateSearch(msg)
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m *browserModel) updateSearch(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc:
		if m.input.Value() == "" {
			m.quitting = true
			return m, tea.Quit
		}
		m.input.SetValue("")
		m.refresh()
		return m, nil
	case tea.KeyUp, tea.KeyCtrlP:
		if m.cursor > 0 {
			m.cursor--
		}
		return m, nil
	case tea.KeyDown, tea.KeyCtrlN:
		if m.cursor < len(m.results)-1 {
			m.cursor++
		}
		return m, nil
	case tea.KeyEnter:
		m.metrics.Record(telemetry.QueryEvent{
			Query:       strings.TrimSpace(m.lastQuery),
			Source:      telemetry.SourceTUI,
			ResultCount: len(m.results),
			Timestamp:   time.Now(),
		})
		if len(m.results) > 0 {
			m.open(m.results[m.cursor].File)
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	if m.input.Value() != m.lastQuery {
		m.refresh()
	}
	return m, cmd
}

func (m *browserModel) updateDetail(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc", "q", "backspace", "left":
		m.mode = modeSearch
		m.openKey = ""
		return m, nil
	}
	var cmd tea.Cmd
	m.detail, cmd = m.detail.Update(msg)
	return m, cmd
}

// refresh re-runs the current query against the published generation.
func (m *browserModel) refresh() {
	m.lastQuery = m.input.Value()
	m.results = m.store.Search(strings.TrimSpace(m.lastQuery), m.limit, 1)
	if m.cursor >= len(m.results) {
		m.cursor = max(len(m.results)-1, 0)
	}
}

func (m *browserModel) open(key string) {
	if _, ok := m.store.Document(key); !ok {
		m.status = fmt.Sprintf("%s is no longer documented", key)
		return
	}
	m.status = ""
	m.openKey = key
	m.mode = modeDetail
	m.detail.GotoTop()
	m.renderDetail()
}

// renderDetail renders the open module; a removed module returns to search.
func (m *browserModel) renderDetail() {
	d, ok := m.store.Document(m.openKey)
	if !ok {
		m.status = fmt.Sprintf("%s was removed", m.openKey)
		m.mode = modeSearch
		m.openKey = ""
		return
	}
	md := export.Module(d)
	out, err := RenderMarkdown(md, m.detail.Width, m.noColor)
	if err != nil {
		out = md
	}
	m.detail.SetContent(out)
}

func (m *browserModel) applyGeneration(ev cache.Event) {
	m.generation = ev.Generation
	m.modules = ev.Modules
	m.scans.Add(float64(m.store.LastStats().Duration.Microseconds()))
	m.refresh()
	if m.mode == modeDetail {
		m.renderDetail()
	}
}

// View implements tea.Model.
func (m *browserModel) View() string {
	if m.quitting {
		return ""
	}

	var sb strings.Builder
	sb.WriteString(m.styles.Header.Render("livedoc"))
	sb.WriteString("  ")
	sb.WriteString(m.styles.Dim.Render(fmt.Sprintf("generation %d · %d modules", m.generation, m.modules)))
	sb.WriteString("\n")

	if m.mode == modeDetail {
		sb.WriteString(m.styles.Active.Render(m.openKey))
		sb.WriteString("\n")
		sb.WriteString(m.detail.View())
	} else {
		sb.WriteString(m.input.View())
		sb.WriteString("\n\n")
		sb.WriteString(m.renderResults())
	}

	sb.WriteString("\n")
	sb.WriteString(m.renderStatusBar())
	return sb.String()
}

func (m *browserModel) renderResults() string {
	if len(m.results) == 0 {
		if m.generation == 0 {
			return m.styles.Dim.Render("Waiting for the first scan…")
		}
		return m.styles.Dim.Render("No matches")
	}

	rows := max(m.height-6, 1)
	offset := 0
	if m.cursor >= rows {
		offset = m.cursor - rows + 1
	}
	end := min(offset+rows, len(m.results))

	lines := make([]string, 0, end-offset)
	for i := offset; i < end; i++ {
		r := m.results[i]
		marker := "  "
		name := r.FQN
		if i == m.cursor {
			marker = m.styles.Selected.Render("› ")
			name = m.styles.Selected.Render(name)
		}
		line := fmt.Sprintf("%s%s %s  %s", marker,
			m.styles.Kind.Render(fmt.Sprintf("%-8s", r.Type)),
			name,
			m.styles.Dim.Render(r.File))
		if r.Snippet != "" {
			line += m.styles.Dim.Render("  " + truncate(r.Snippet, max(m.width-lipgloss.Width(line)-4, 0)))
		}
		lines = append(lines, line)
	}
	return strings.Join(lines, "\n")
}

func (m *browserModel) renderStatusBar() string {
	var parts []string
	if m.status != "" {
		parts = append(parts, m.styles.Warning.Render(m.status))
	}
	if m.scans.Count() > 0 {
		parts = append(parts, m.styles.Label.Render("scans ")+m.styles.Sparkline.Render(m.scans.Render()))
	}
	if m.mode == modeDetail {
		parts = append(parts, m.styles.Dim.Render("↑/↓ scroll · esc back · ctrl+c quit"))
	} else {
		parts = append(parts, m.styles.Dim.Render("↑/↓ select · enter open · esc clear/quit"))
	}
	return strings.Join(parts, m.styles.Dim.Render("  │  "))
}

// truncate shortens s to at most n runes, marking the cut with an ellipsis.
func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	if n <= 1 {
		return ""
	}
	return string(r[:n-1]) + "…"
}
