package tui

import (
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
)

const debounceDelay = 200 * time.Millisecond

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		return m.resize(msg)
	case tea.KeyMsg:
		return m.onKey(msg)
	case tea.MouseMsg:
		return m.onMouse(msg)
	case debounceTickMsg:
		// typing moved on since the tick was scheduled
		if msg.query != m.query {
			return m, nil
		}
		return m, m.refresh()
	case searchResultMsg:
		return m.onResults(msg)
	case previewRenderedMsg:
		return m.onPreview(msg), nil
	}
	return m, nil
}

func (m model) resize(msg tea.WindowSizeMsg) (tea.Model, tea.Cmd) {
	m.width, m.height, m.ready = msg.Width, msg.Height, true
	l := m.layout()
	m.preview = newViewport(l.previewW, l.panelH)
	// rendered for the old width
	m.previewSeq = 0
	return m, m.loadCurrentPreview()
}

func (m model) onKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	h := m.layout().panelH
	switch {
	case key.Matches(msg, keys.Quit):
		m.quitting = true
		return m, tea.Quit
	case key.Matches(msg, keys.Enter):
		r, ok := m.current()
		if !ok {
			return m, nil
		}
		m.selected = &r
		m.quitting = true
		return m, tea.Quit
	case key.Matches(msg, keys.Questions):
		m.searchOpts.QuestionsOnly = !m.searchOpts.QuestionsOnly
		return m, m.refresh()
	case key.Matches(msg, keys.Up):
		return m.moveTo(m.cursor - 1)
	case key.Matches(msg, keys.Down):
		return m.moveTo(m.cursor + 1)
	case key.Matches(msg, keys.PreviewUp):
		m.preview.LineUp(h / 2)
		return m, nil
	case key.Matches(msg, keys.PreviewDn):
		m.preview.LineDown(h / 2)
		return m, nil
	case key.Matches(msg, keys.PageUp):
		m.preview.LineUp(h)
		return m, nil
	case key.Matches(msg, keys.PageDown):
		m.preview.LineDown(h)
		return m, nil
	}

	var cmd tea.Cmd
	m.filterInput, cmd = m.filterInput.Update(msg)
	if q := m.filterInput.Value(); q != m.query {
		m.query = q
		return m, tea.Batch(cmd, tea.Tick(debounceDelay, func(time.Time) tea.Msg {
			return debounceTickMsg{query: q}
		}))
	}
	return m, cmd
}

// moveTo selects result i and loads its preview.
func (m model) moveTo(i int) (tea.Model, tea.Cmd) {
	if i < 0 || i >= len(m.results) || i == m.cursor {
		return m, nil
	}
	m.cursor = i
	m.adjustListScroll(m.layout().panelH)
	return m, m.loadCurrentPreview()
}

func (m model) onMouse(msg tea.MouseMsg) (tea.Model, tea.Cmd) {
	if !m.ready || len(m.results) == 0 {
		return m, nil
	}
	where, idx := m.regionAt(msg.X, msg.Y)
	wheel := msg.Button == tea.MouseButtonWheelUp || msg.Button == tea.MouseButtonWheelDown

	switch {
	case where == regionList && msg.Button == tea.MouseButtonWheelUp:
		m.listOffset = max(m.listOffset-1, 0)
	case where == regionList && msg.Button == tea.MouseButtonWheelDown:
		last := max(len(m.results)-m.layout().panelH/linesPerItem, 0)
		if m.listOffset < last {
			m.listOffset++
		}
	case where == regionList && msg.Button == tea.MouseButtonLeft && msg.Action == tea.MouseActionPress:
		return m.moveTo(idx)
	case where == regionPreview && wheel:
		var cmd tea.Cmd
		m.preview, cmd = m.preview.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m model) onResults(msg searchResultMsg) (tea.Model, tea.Cmd) {
	if msg.query != m.query {
		return m, nil
	}
	m.results, m.cursor, m.listOffset = msg.results, 0, 0
	// highlights depend on the query
	m.previewSeq = 0
	switch {
	case msg.err != nil:
		m.results = nil
		m.preview.SetContent("Error: " + msg.err.Error())
	case len(m.results) == 0:
		m.preview.SetContent("")
	default:
		return m, m.loadCurrentPreview()
	}
	return m, nil
}

func (m model) onPreview(msg previewRenderedMsg) model {
	if msg.seq == m.previewSeq {
		return m
	}
	if r, ok := m.current(); ok && r.Seq != msg.seq {
		return m // cursor moved on
	}
	switch {
	case msg.err != nil:
		m.preview.SetContent("Preview error: " + msg.err.Error())
	case msg.hitLine > 0:
		m.preview.SetContent(msg.content)
		m.preview.SetYOffset(msg.hitLine)
	default:
		m.preview.SetContent(msg.content)
		m.preview.GotoTop()
	}
	m.previewSeq = msg.seq
	return m
}
