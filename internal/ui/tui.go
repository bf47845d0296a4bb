package ui

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/rixingyike/rustpress/internal/search"
)

// ErrNotTTY is returned when the interactive UI is asked to draw on
// something that is not a terminal.
var ErrNotTTY = errors.New("output is not a TTY")

// Searcher is the part of the engine the search box drives.
type Searcher interface {
	Search(ctx context.Context, query string) search.Response
	Navigator() *search.Navigator
}

// ReloadedMsg tells the search box the corpus was reloaded, so the current
// query is re-run.
type ReloadedMsg struct {
	Err error
}

type pollMsg time.Time

const pollInterval = 500 * time.Millisecond

// SearchModel is the bubbletea model for the interactive search box.
// Typing searches per keystroke; up and down move the selection; enter
// chooses the selected result; esc closes.
type SearchModel struct {
	ctx       context.Context
	engine    Searcher
	input     textinput.Model
	spinner   spinner.Model
	styles    Styles
	noColor   bool
	source    string
	resp      search.Response
	lastQuery string
	chosen    string
	reloadErr error
	width     int
	height    int
	quitting  bool
}

// NewSearchModel creates the search box model.
func NewSearchModel(ctx context.Context, engine Searcher, cfg Config) *SearchModel {
	styles := GetStyles(cfg.NoColor)

	ti := textinput.New()
	ti.Placeholder = "Search posts"
	ti.Prompt = "› "
	ti.PromptStyle = styles.Prompt
	ti.CharLimit = 256
	ti.Focus()

	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = styles.Prompt

	return &SearchModel{
		ctx:     ctx,
		engine:  engine,
		input:   ti,
		spinner: s,
		styles:  styles,
		noColor: cfg.NoColor,
		source:  cfg.Source,
		resp:    search.Response{Status: search.StatusEmptyQuery},
		width:   80,
		height:  24,
	}
}

func pollCmd() tea.Cmd {
	return tea.Tick(pollInterval, func(t time.Time) tea.Msg {
		return pollMsg(t)
	})
}

// Init implements tea.Model.
func (m *SearchModel) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, m.spinner.Tick, pollCmd())
}

func (m *SearchModel) runSearch() {
	m.lastQuery = m.input.Value()
	m.resp = m.engine.Search(m.ctx, m.lastQuery)
}

// Update implements tea.Model.
func (m *SearchModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc:
			m.quitting = true
			return m, tea.Quit
		case tea.KeyDown, tea.KeyCtrlN:
			m.engine.Navigator().Next()
			return m, nil
		case tea.KeyUp, tea.KeyCtrlP:
			m.engine.Navigator().Prev()
			return m, nil
		case tea.KeyEnter:
			if url, ok := m.engine.Navigator().Activate(); ok {
				m.chosen = url
				return m, tea.Quit
			}
			return m, nil
		}

		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		if m.input.Value() != m.lastQuery {
			m.runSearch()
		}
		return m, cmd

	case ReloadedMsg:
		m.reloadErr = msg.Err
		m.runSearch()
		return m, nil

	case pollMsg:
		if m.resp.Status == search.StatusLoading {
			m.runSearch()
		}
		return m, pollCmd()

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.input.Width = max(20, msg.Width-6)
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// View implements tea.Model.
func (m *SearchModel) View() string {
	if m.quitting {
		return ""
	}

	var sb strings.Builder
	title := "rustpress search"
	if m.source != "" {
		title += m.styles.Dim.Render(" • " + m.source)
	}
	sb.WriteString(m.styles.Header.Render(title))
	sb.WriteString("\n\n")
	sb.WriteString(m.input.View())
	sb.WriteString("\n\n")
	sb.WriteString(m.renderBody())
	sb.WriteString("\n")
	sb.WriteString(m.renderStatusBar())
	return sb.String()
}

func (m *SearchModel) renderBody() string {
	switch m.resp.Status {
	case search.StatusEmptyQuery:
		return m.styles.Dim.Render("Type to search.")
	case search.StatusLoading:
		msg := "Loading search index..."
		if m.reloadErr != nil {
			msg = "Search index unavailable: " + m.reloadErr.Error()
		}
		return m.spinner.View() + " " + m.styles.Warning.Render(msg)
	case search.StatusFailed:
		return m.styles.Error.Render("Search failed, please retry.")
	}

	if len(m.resp.Results) == 0 {
		return m.styles.Label.Render(fmt.Sprintf("No results for %q", m.resp.Query))
	}

	selected := m.engine.Navigator().Selected()
	first, last := m.visibleRange(selected)

	var lines []string
	for i := first; i < last; i++ {
		lines = append(lines, m.renderResult(m.resp.Results[i], i == selected))
	}
	if hidden := len(m.resp.Results) - (last - first); hidden > 0 {
		lines = append(lines, m.styles.Dim.Render(fmt.Sprintf("  … %d more", hidden)))
	}
	return strings.Join(lines, "\n")
}

// visibleRange picks the window of results that fits the terminal and
// contains the selection.
func (m *SearchModel) visibleRange(selected int) (int, int) {
	const linesPerResult = 3
	capacity := max(1, (m.height-8)/linesPerResult)
	n := len(m.resp.Results)
	if n <= capacity {
		return 0, n
	}
	first := 0
	if selected >= capacity {
		first = selected - capacity + 1
	}
	return first, min(n, first+capacity)
}

func (m *SearchModel) renderResult(r search.Result, selected bool) string {
	cursor := "  "
	title := RenderMarked(r.TitleHTML, m.styles, m.noColor)
	if selected {
		cursor = m.styles.Cursor.Render("› ")
		title = m.styles.Selected.Render(title)
	} else {
		title = m.styles.Title.Render(title)
	}

	excerpt := RenderMarked(r.Excerpt, m.styles, m.noColor)
	meta := r.URL
	if r.Date != "" {
		meta += " · " + r.Date
	}
	return fmt.Sprintf("%s%s\n    %s\n    %s", cursor, title, excerpt, m.styles.URL.Render(meta))
}

func (m *SearchModel) renderStatusBar() string {
	left := "↑/↓ navigate • enter open • esc close"
	if m.resp.Status == search.StatusOK {
		left = fmt.Sprintf("%d results • %s", len(m.resp.Results), left)
	}
	return m.styles.Dim.Render(left)
}

// Chosen returns the URL picked with enter, or "" if the box was closed.
func (m *SearchModel) Chosen() string {
	return m.chosen
}

// TUI runs the search box as a full-screen program.
type TUI struct {
	program *tea.Program
	model   *SearchModel
}

// NewTUI creates the interactive search box. cfg.Output must be a terminal.
func NewTUI(ctx context.Context, engine Searcher, cfg Config) (*TUI, error) {
	f, ok := cfg.Output.(*os.File)
	if !ok || !IsTTY(f) {
		return nil, ErrNotTTY
	}
	if DetectNoColor() {
		cfg.NoColor = true
	}

	model := NewSearchModel(ctx, engine, cfg)
	program := tea.NewProgram(model,
		tea.WithContext(ctx),
		tea.WithOutput(f),
		tea.WithAltScreen())

	return &TUI{program: program, model: model}, nil
}

// Run blocks until the box is closed and returns the chosen URL, if any.
func (t *TUI) Run() (string, error) {
	if _, err := t.program.Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return "", fmt.Errorf("run search UI: %w", err)
	}
	return t.model.Chosen(), nil
}

// NotifyReloaded re-runs the current query after a corpus reload. Safe to
// call from any goroutine.
func (t *TUI) NotifyReloaded(err error) {
	t.program.Send(ReloadedMsg{Err: err})
}
