package normalize

import (
	"bytes"
	"strings"
	"unicode"

	"golang.org/x/net/html"
)

// Line is one normalized line with its 1-indexed line number in the source.
// Text is empty only for blank-line markers.
type Line struct {
	No   int
	Text string
}

// Blank reports whether the line is a blank-line marker.
func (l Line) Blank() bool { return l.Text == "" }

// TextLines splits plain text into trimmed lines. A run of blank lines is
// kept as a single blank marker because blank lines terminate messages;
// leading and trailing blanks are dropped.
func TextLines(s string) []Line {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = strings.ReplaceAll(s, "\r", "\n")

	var out []Line
	for i, raw := range strings.Split(s, "\n") {
		text := cleanLine(raw)
		if text == "" {
			if len(out) > 0 && !out[len(out)-1].Blank() {
				out = append(out, Line{No: i + 1})
			}
			continue
		}
		out = append(out, Line{No: i + 1, Text: text})
	}
	if n := len(out); n > 0 && out[n-1].Blank() {
		out = out[:n-1]
	}
	return out
}

// HTMLLines strips markup from an HTML document and returns its text as
// trimmed, non-empty lines. style and script blocks are dropped with their
// content, every tag boundary breaks a line, and entities are decoded.
func HTMLLines(doc string) []Line {
	z := html.NewTokenizer(strings.NewReader(doc))

	var (
		out   []Line
		cur   strings.Builder
		curNo int
		no    = 1 // source line at the start of the current token
		raw   int // depth inside style/script
	)
	breakLine := func() {
		if text := cleanLine(cur.String()); text != "" {
			out = append(out, Line{No: curNo, Text: text})
		}
		cur.Reset()
		curNo = 0
	}

	for {
		tt := z.Next()
		// Text() unescapes in place, so count newlines on the raw bytes first.
		newlines := bytes.Count(z.Raw(), []byte{'\n'})

		switch tt {
		case html.ErrorToken:
			// io.EOF or a malformed tail; either way keep what we have
			breakLine()
			return out
		case html.StartTagToken:
			if isRawTag(z) {
				raw++
			}
			breakLine()
		case html.EndTagToken:
			if isRawTag(z) && raw > 0 {
				raw--
			}
			breakLine()
		case html.SelfClosingTagToken:
			breakLine()
		case html.TextToken:
			if raw > 0 {
				break
			}
			for i, part := range strings.Split(string(z.Text()), "\n") {
				if i > 0 {
					breakLine()
				}
				if curNo == 0 && strings.TrimSpace(part) != "" {
					curNo = no + i
				}
				cur.WriteString(part)
			}
		}
		no += newlines
	}
}

// Texts returns the text of each line, blank markers included.
func Texts(lines []Line) []string {
	out := make([]string, len(lines))
	for i, l := range lines {
		out[i] = l.Text
	}
	return out
}

func isRawTag(z *html.Tokenizer) bool {
	name, _ := z.TagName()
	switch string(name) {
	case "style", "script":
		return true
	}
	return false
}

// cleanLine maps every Unicode space separator (nbsp, ideographic space) to
// an ASCII space, drops zero-width characters, and trims.
func cleanLine(l string) string {
	l = strings.Map(func(r rune) rune {
		switch {
		case r == '\u200b' || r == '\ufeff':
			return -1
		case unicode.Is(unicode.Zs, r):
			return ' '
		}
		return r
	}, l)
	return strings.TrimSpace(l)
}
