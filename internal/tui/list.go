package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"github.com/Zuo-Peng/chatdigest/internal/parse"
	"github.com/Zuo-Peng/chatdigest/internal/search"
)

// linesPerItem is the number of terminal lines each result occupies.
const linesPerItem = 2

const maxSenderWidth = 12

// renderList renders the left panel: search results list with scrolling.
func (m model) renderList(width, height int) string {
	if len(m.results) == 0 {
		empty := lipgloss.NewStyle().
			Foreground(colorDim).
			Width(width).
			Height(height).
			Align(lipgloss.Center, lipgloss.Center).
			Render("No results")
		return empty
	}

	var lines []string
	for i, r := range m.results {
		if i < m.listOffset {
			continue
		}
		if len(lines)+linesPerItem > height {
			break
		}
		rows := formatResultLine(r, m.who, width, i == m.cursor)
		lines = append(lines, rows...)
	}

	// Pad remaining lines
	for len(lines) < height {
		lines = append(lines, strings.Repeat(" ", width))
	}

	return strings.Join(lines, "\n")
}

// formatResultLine formats a single message as two lines:
//
//	line 1: [>] MM-DD HH:MM  sender  [subject] ?
//	line 2:    snippet (dimmed)
func formatResultLine(r search.Result, who Identities, width int, selected bool) []string {
	when := "--:-- --:--"
	if ts := r.Timestamp; len(ts) >= 16 {
		when = ts[5:16] // MM-DD HH:MM
	}

	sender := r.Sender
	if runewidth.StringWidth(sender) > maxSenderWidth {
		sender = runewidth.Truncate(sender, maxSenderWidth, "…")
	}
	switch r.Sender {
	case who.Teacher:
		sender = styleSenderTeacher.Render(sender)
	case who.Student:
		sender = styleSenderStudent.Render(sender)
	case parse.UnknownSender:
		sender = lipgloss.NewStyle().Foreground(colorDim).Render(sender)
	}

	var tags []string
	if r.Subject != parse.SubjectNone {
		tags = append(tags, styleSubject.Render(r.Subject.String()))
	}
	if r.IsQuestion {
		tags = append(tags, styleQuestion.Render("?"))
	}

	// Line 1: time sender tags
	line1 := strings.TrimRight(fmt.Sprintf("%s %s %s", when, sender, strings.Join(tags, " ")), " ")
	if selected {
		line1 = styleListSelected.Render("> ") + line1
	} else {
		line1 = "  " + line1
	}

	// Line 2: snippet (dimmed, indented)
	snippet := strings.ReplaceAll(r.Snippet, "\n", " ")
	snippet = strings.ReplaceAll(snippet, "\t", " ")
	snippet = strings.ReplaceAll(snippet, ">>>", "")
	snippet = strings.ReplaceAll(snippet, "<<<", "")
	snippetMax := width - 4 // indent
	if snippetMax < 0 {
		snippetMax = 0
	}
	if runewidth.StringWidth(snippet) > snippetMax {
		snippet = runewidth.Truncate(snippet, snippetMax, "")
	}
	line2 := "    " + lipgloss.NewStyle().Foreground(colorDim).Render(snippet)

	return []string{line1, line2}
}

// adjustListScroll keeps the cursor visible within the list viewport.
func (m *model) adjustListScroll(listHeight int) {
	visibleItems := listHeight / linesPerItem
	if visibleItems < 1 {
		visibleItems = 1
	}
	if m.cursor < m.listOffset {
		m.listOffset = m.cursor
	}
	if m.cursor >= m.listOffset+visibleItems {
		m.listOffset = m.cursor - visibleItems + 1
	}
}
