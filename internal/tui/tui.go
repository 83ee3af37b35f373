package tui

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/Zuo-Peng/chatdigest/internal/index"
	"github.com/Zuo-Peng/chatdigest/internal/search"
)

type tuiMode int

const (
	modeSearch tuiMode = iota
	modeList
)

// Identities picks the sender colors in the list and preview.
type Identities struct {
	Teacher string
	Student string
}

// message types

type searchResultMsg struct {
	query   string
	results []search.Result
	err     error
}

type debounceTickMsg struct {
	query string
}

// model

type model struct {
	db          *index.DB
	who         Identities
	searchOpts  search.Options
	mode        tuiMode
	query       string
	results     []search.Result
	cursor      int
	listOffset  int
	filterInput textinput.Model
	preview     viewport.Model
	previewSeq  int // seq shown in the preview, 0 = none
	width       int
	height      int
	ready       bool
	quitting    bool
	selected    *search.Result
}

func newModel(db *index.DB, who Identities, mode tuiMode, query string, opts search.Options) model {
	ti := textinput.New()
	ti.Placeholder = "Search..."
	if mode == modeList {
		ti.Placeholder = "Filter..."
	}
	ti.Focus()
	ti.SetValue(query)
	ti.Prompt = "> "
	ti.PromptStyle = styleInputPrompt
	ti.TextStyle = styleInput
	ti.CharLimit = 256

	return model{
		db:          db,
		who:         who,
		searchOpts:  opts,
		mode:        mode,
		query:       query,
		filterInput: ti,
		preview:     viewport.New(0, 0),
	}
}

// Run starts the TUI on search results and blocks until it exits. If the
// user selects a message, its content is copied to the clipboard.
func Run(db *index.DB, who Identities, query string, opts search.Options) error {
	return run(newModel(db, who, modeSearch, query, opts))
}

// RunList starts the TUI in list mode, showing the whole sequence in order.
func RunList(db *index.DB, who Identities, opts search.Options) error {
	return run(newModel(db, who, modeList, "", opts))
}

func run(m model) error {
	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithMouseCellMotion())
	finalModel, err := p.Run()
	if err != nil {
		return fmt.Errorf("tui: %w", err)
	}

	fm := finalModel.(model)
	if fm.selected != nil {
		copyMessage(os.Stdout, fm.selected.Content, clipboard.WriteAll)
	}
	return nil
}

// copyMessage puts content on the clipboard, printing it instead when no
// clipboard is available.
func copyMessage(w io.Writer, content string, write func(string) error) {
	if err := write(content); err != nil {
		fmt.Fprintln(w, content)
		return
	}
	fmt.Fprintf(w, "Copied to clipboard: %s\n", firstLine(content))
}

func firstLine(s string) string {
	line, _, more := strings.Cut(s, "\n")
	if more {
		return line + " ..."
	}
	return line
}

// Init triggers the initial search/list load.
func (m model) Init() tea.Cmd {
	if m.mode == modeList || m.query != "" {
		return tea.Batch(textinput.Blink, m.refresh())
	}
	return textinput.Blink
}

// View renders the input row, the list and preview panels side by side, and
// the status bar.
func (m model) View() string {
	if m.quitting || !m.ready {
		return ""
	}
	l := m.layout()

	list := stylePanelBorder.Width(l.listW).Height(l.panelH).Render(m.renderList(l.listW, l.panelH))

	m.preview.Width, m.preview.Height = l.previewW, l.panelH
	preview := styleActiveBorder.Width(l.previewW).Height(l.panelH).Render(m.preview.View())

	return lipgloss.JoinVertical(lipgloss.Left,
		m.filterInput.View(),
		lipgloss.JoinHorizontal(lipgloss.Top, list, preview),
		m.statusBar(),
	)
}

var statusHints = []string{
	"click/up/dn navigate",
	"scroll/C-u/C-d preview",
	"C-q questions",
	"Enter copy message",
	"Esc quit",
}

func (m model) statusBar() string {
	parts := []string{fmt.Sprintf("%d messages", len(m.results))}
	if m.searchOpts.QuestionsOnly {
		parts = append(parts, "questions only")
	}
	return styleStatusBar.Render(strings.Join(append(parts, statusHints...), " | "))
}

// current is the result under the cursor.
func (m model) current() (search.Result, bool) {
	if m.cursor < 0 || m.cursor >= len(m.results) {
		return search.Result{}, false
	}
	return m.results[m.cursor], true
}

// refresh reruns the current query: a search in search mode, the filtered
// sequence in list mode. An empty query lists everything in list mode and
// nothing in search mode.
func (m model) refresh() tea.Cmd {
	db, opts, mode := m.db, m.searchOpts, m.mode
	opts.Query = m.query
	return func() tea.Msg {
		var (
			results []search.Result
			err     error
		)
		switch {
		case opts.Query != "":
			results, err = search.Search(db, opts)
		case mode == modeList:
			opts.Limit = 0
			results, err = search.ListAll(db, opts)
		}
		return searchResultMsg{query: opts.Query, results: results, err: err}
	}
}

func (m model) loadCurrentPreview() tea.Cmd {
	r, ok := m.current()
	if !ok || r.Seq == m.previewSeq {
		return nil
	}
	return m.previewCmd(r)
}
