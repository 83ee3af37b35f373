package render

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/mattn/go-runewidth"

	"github.com/Zuo-Peng/chatdigest/internal/index"
	"github.com/Zuo-Peng/chatdigest/internal/parse"
)

const (
	colorReset    = "\033[0m"
	colorTeacher  = "\033[1;34m" // bold blue
	colorStudent  = "\033[1;32m" // bold green
	colorOther    = "\033[1;33m" // bold yellow
	colorDim      = "\033[2m"
	colorHit      = "\033[43m"   // yellow background
	colorBoldRed  = "\033[1;31m" // bold red for keyword highlights
	colorQuestion = "\033[1;35m" // bold magenta
)

type Options struct {
	Context int    // messages before/after the hit to show; <0 = all
	Width   int    // wrap width (0 = no wrap)
	Query   string // search query for keyword highlighting
	Teacher string
	Student string
}

// fts5Operators are FTS5 operators that should not be highlighted as keywords.
var fts5Operators = map[string]bool{
	"AND": true, "OR": true, "NOT": true, "NEAR": true,
	"and": true, "or": true, "not": true, "near": true,
}

// highlightKeywords wraps case-insensitive matches of query terms in bold red ANSI codes.
func highlightKeywords(text, query string) string {
	if query == "" {
		return text
	}
	terms := strings.Fields(query)
	var filtered []string
	for _, t := range terms {
		if !fts5Operators[t] {
			filtered = append(filtered, t)
		}
	}
	if len(filtered) == 0 {
		return text
	}
	for _, term := range filtered {
		lower := strings.ToLower(term)
		i := 0
		for i < len(text) {
			idx := strings.Index(strings.ToLower(text[i:]), lower)
			if idx < 0 {
				break
			}
			pos := i + idx
			orig := text[pos : pos+len(term)]
			replacement := colorBoldRed + orig + colorReset
			text = text[:pos] + replacement + text[pos+len(term):]
			i = pos + len(replacement)
		}
	}
	return text
}

// indentLines prepends each line of text with the given prefix.
func indentLines(text, prefix string) string {
	lines := strings.Split(text, "\n")
	for i, l := range lines {
		lines[i] = prefix + l
	}
	return strings.Join(lines, "\n")
}

// wrapLine breaks a single line into multiple lines that fit within maxWidth
// visible columns, correctly skipping ANSI escape sequences when measuring width.
func wrapLine(line string, maxWidth int) []string {
	if maxWidth <= 0 {
		return []string{line}
	}

	var result []string
	var cur strings.Builder
	visW := 0

	i := 0
	for i < len(line) {
		// check for ANSI escape sequence: ESC[ ... m
		if i+1 < len(line) && line[i] == '\033' && line[i+1] == '[' {
			j := i + 2
			for j < len(line) && line[j] != 'm' {
				j++
			}
			if j < len(line) {
				j++ // include 'm'
			}
			cur.WriteString(line[i:j])
			i = j
			continue
		}

		r, size := utf8.DecodeRuneInString(line[i:])
		rw := runewidth.RuneWidth(r)

		if visW+rw > maxWidth {
			result = append(result, cur.String())
			cur.Reset()
			visW = 0
		}

		cur.WriteRune(r)
		visW += rw
		i += size
	}

	if cur.Len() > 0 {
		result = append(result, cur.String())
	}

	if len(result) == 0 {
		return []string{""}
	}
	return result
}

// RenderMessage renders the messages around seq and returns the content,
// the 0-based line number of the hit message header (-1 if seq is not
// stored), and any error.
func RenderMessage(db *index.DB, seq int, opts Options) (string, int, error) {
	if opts.Context == 0 {
		opts.Context = 5
	}
	if opts.Context < 0 {
		opts.Context = 1000000 // no limit
	}

	msgs, hitIdx, total, err := db.GetMessagesWindow(seq, opts.Context)
	if err != nil {
		return "", -1, fmt.Errorf("get messages: %w", err)
	}
	if total == 0 {
		return "(no messages indexed)", -1, nil
	}
	if hitIdx < 0 {
		return "", -1, fmt.Errorf("message not found: %d", seq)
	}

	text, hitLine := Messages(msgs, hitIdx, total, opts)
	return text, hitLine, nil
}

// Messages renders a slice of stored messages. hitIdx marks the message to
// highlight (-1 for none) and total is the length of the whole sequence,
// used to report how many messages lie outside the slice.
func Messages(msgs []index.MessageRow, hitIdx, total int, opts Options) (string, int) {
	var b strings.Builder
	hitLine := -1
	lineCount := 0
	separator := colorDim + "--------------------------------------------------" + colorReset
	wrapW := opts.Width

	// helper to track line count; wraps long lines if Width is set
	writeLine := func(s string) {
		wrapped := wrapLine(s, wrapW)
		for _, wl := range wrapped {
			b.WriteString(wl)
			b.WriteString("\n")
			lineCount++
		}
	}

	if len(msgs) == 0 {
		return "", -1
	}

	if before := msgs[0].Seq - 1; before > 0 {
		writeLine(fmt.Sprintf("%s... (%d messages before) ...%s", colorDim, before, colorReset))
	}

	for i, m := range msgs {
		isHit := i == hitIdx

		// separator between messages
		if i > 0 {
			writeLine(separator)
		}

		if isHit {
			hitLine = lineCount
		}

		var tags []string
		if m.Subject != parse.SubjectNone {
			tags = append(tags, m.Subject.String())
		}
		if m.IsQuestion {
			tags = append(tags, colorQuestion+"Q"+colorReset)
		}
		tag := ""
		if len(tags) > 0 {
			tag = " [" + strings.Join(tags, " ") + "]"
		}

		ts := m.Timestamp
		if ts == "" {
			ts = "(no time)"
		}
		if isHit {
			writeLine(fmt.Sprintf("%s>> #%d %s > %s <<%s%s", colorHit, m.Seq, m.Sender, ts, colorReset, tag))
		} else {
			writeLine(fmt.Sprintf("%s#%d %s >%s %s%s%s%s", senderColor(m.Sender, opts), m.Seq, m.Sender,
				colorReset, colorDim, ts, colorReset, tag))
		}

		text := highlightKeywords(m.Content, opts.Query)
		for _, tl := range strings.Split(indentLines(text, "  "), "\n") {
			writeLine(tl)
		}
		for _, img := range m.Images {
			writeLine(fmt.Sprintf("  %s[image] %s%s", colorDim, img, colorReset))
		}
		if isHit && m.SourceFile != "" {
			writeLine(fmt.Sprintf("  %s%s:%d%s", colorDim, m.SourceFile, m.SourceLine, colorReset))
		}
		writeLine("") // blank line after message
	}

	if after := total - msgs[len(msgs)-1].Seq; after > 0 {
		writeLine(fmt.Sprintf("%s... (%d messages after) ...%s", colorDim, after, colorReset))
	}

	return b.String(), hitLine
}

func senderColor(sender string, opts Options) string {
	switch {
	case opts.Teacher != "" && sender == opts.Teacher:
		return colorTeacher
	case opts.Student != "" && sender == opts.Student:
		return colorStudent
	case sender == parse.UnknownSender:
		return colorDim
	}
	return colorOther
}
