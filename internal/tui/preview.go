package tui

import (
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/Zuo-Peng/chatdigest/internal/render"
	"github.com/Zuo-Peng/chatdigest/internal/search"
)

// previewContext is how many messages around the selection the preview shows.
const previewContext = 10

// previewRenderedMsg is sent when an async preview render completes.
type previewRenderedMsg struct {
	seq     int
	content string
	hitLine int
	err     error
}

// previewCmd returns a tea.Cmd that renders the message preview async.
func (m model) previewCmd(r search.Result) tea.Cmd {
	db, query, width, who := m.db, m.query, m.layout().previewW, m.who
	return func() tea.Msg {
		content, hitLine, err := render.RenderMessage(db, r.Seq, render.Options{
			Context: previewContext,
			Width:   width,
			Query:   query,
			Teacher: who.Teacher,
			Student: who.Student,
		})
		return previewRenderedMsg{
			seq:     r.Seq,
			content: content,
			hitLine: hitLine,
			err:     err,
		}
	}
}

// newViewport creates a new viewport model with the given dimensions.
func newViewport(width, height int) viewport.Model {
	vp := viewport.New(width, height)
	vp.Style = stylePanelBorder
	return vp
}
