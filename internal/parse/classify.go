package parse

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"
)

// LineKind is the category a line falls into. Categories are tested in
// declaration order after LineBlank; the first match wins.
type LineKind int

const (
	LineBlank LineKind = iota
	LineDateSeparator
	LineSenderTime
	LineTimestamped
	LineKnownSender
	LineText // continuation when a message is open, orphan otherwise
)

func (k LineKind) String() string {
	switch k {
	case LineBlank:
		return "blank"
	case LineDateSeparator:
		return "date-separator"
	case LineSenderTime:
		return "sender-time"
	case LineTimestamped:
		return "timestamped"
	case LineKnownSender:
		return "known-sender"
	case LineText:
		return "text"
	}
	return "LineKind(" + strconv.Itoa(int(k)) + ")"
}

// Line is a classified input line.
type Line struct {
	Kind      LineKind
	Text      string // trimmed input
	Date      string // LineDateSeparator: YYYY-MM-DD
	Sender    string // LineSenderTime, LineTimestamped (may be ""), LineKnownSender
	Time      string // LineSenderTime: HH:MM
	Timestamp string // LineTimestamped: YYYY-MM-DD HH:MM:SS
	Rest      string // LineTimestamped, LineKnownSender: content on the header line
}

// maxSenderRunes bounds a sender read from the text after a leading stamp.
const maxSenderRunes = 20

var (
	dateSepRE    = regexp.MustCompile(`[—\-]+\s*(\d{4})[-/](\d{1,2})[-/](\d{1,2})\s*[—\-]+`)
	senderTimeRE = regexp.MustCompile(`^(\S+)\s+(\d{1,2}):(\d{2})$`)
	stampRE      = regexp.MustCompile(`(\d{4})(?:[-/]|年)(\d{1,2})(?:[-/]|月)(\d{1,2})日?[\s,]\s*(\d{1,2}):(\d{1,2}):(\d{1,2})`)
)

// Classifier assigns a LineKind to each line. It holds no state; whether a
// message is open is passed in.
type Classifier struct {
	KnownSenders []string // checked in order, so list longer names first
}

// Classify categorizes a single line. open reports whether the assembler
// currently has a message open; known-sender prefixes only start a message
// when none is.
func (c Classifier) Classify(line string, open bool) Line {
	text := strings.TrimSpace(line)
	if text == "" {
		return Line{Kind: LineBlank}
	}

	if m := dateSepRE.FindStringSubmatch(text); m != nil {
		if date, ok := canonicalDate(m[1], m[2], m[3]); ok {
			return Line{Kind: LineDateSeparator, Text: text, Date: date}
		}
	}

	if m := senderTimeRE.FindStringSubmatch(text); m != nil {
		if hm, ok := canonicalClock(m[2], m[3]); ok {
			return Line{Kind: LineSenderTime, Text: text, Sender: m[1], Time: hm}
		}
	}

	if loc := stampRE.FindStringSubmatchIndex(text); loc != nil {
		g := func(i int) string { return text[loc[2*i]:loc[2*i+1]] }
		if ts, ok := canonicalStamp(g(1), g(2), g(3), g(4), g(5), g(6)); ok {
			sender, rest := splitStampLine(text[:loc[0]], text[loc[1]:])
			return Line{Kind: LineTimestamped, Text: text, Sender: sender, Timestamp: ts, Rest: rest}
		}
	}

	if !open {
		for _, name := range c.KnownSenders {
			if name != "" && strings.HasPrefix(text, name) {
				rest := strings.TrimSpace(strings.TrimLeft(text[len(name):], " \t:："))
				return Line{Kind: LineKnownSender, Text: text, Sender: name, Rest: rest}
			}
		}
	}

	return Line{Kind: LineText, Text: text}
}

// splitStampLine infers the sender and the remaining content of a line
// around its timestamp. A prefix wins: the text before its first colon, else
// its last word. With no prefix the sender is read from after the stamp.
func splitStampLine(prefix, suffix string) (sender, rest string) {
	prefix = strings.TrimSpace(strings.TrimRight(prefix, " \t[【(（"))
	rest = strings.TrimSpace(strings.TrimLeft(suffix, " \t]】)）"))

	if prefix != "" {
		if i := strings.IndexAny(prefix, ":："); i >= 0 {
			return strings.TrimSpace(prefix[:i]), rest
		}
		words := strings.Fields(prefix)
		return words[len(words)-1], rest
	}
	return senderFromRest(rest)
}

// senderFromRest handles lines that lead with the stamp:
// "<stamp> sender: content" and "<stamp> sender content". A lone token with
// nothing after it is content, not a sender.
func senderFromRest(rest string) (string, string) {
	if rest == "" {
		return "", ""
	}
	if i := strings.IndexAny(rest, ":："); i > 0 {
		head := strings.TrimSpace(rest[:i])
		if isSenderToken(head) {
			_, size := utf8.DecodeRuneInString(rest[i:])
			return head, strings.TrimSpace(rest[i+size:])
		}
	}
	head, tail, _ := strings.Cut(rest, " ")
	if tail = strings.TrimSpace(tail); tail != "" && isSenderToken(head) {
		return head, tail
	}
	return "", rest
}

func isSenderToken(s string) bool {
	return s != "" && !strings.ContainsAny(s, " \t") && utf8.RuneCountInString(s) <= maxSenderRunes
}

func canonicalDate(y, m, d string) (string, bool) {
	mi, _ := strconv.Atoi(m)
	di, _ := strconv.Atoi(d)
	if mi < 1 || mi > 12 || di < 1 || di > 31 {
		return "", false
	}
	return fmt.Sprintf("%s-%02d-%02d", y, mi, di), true
}

func canonicalClock(h, m string) (string, bool) {
	hi, _ := strconv.Atoi(h)
	mi, _ := strconv.Atoi(m)
	if hi > 23 || mi > 59 {
		return "", false
	}
	return fmt.Sprintf("%02d:%02d", hi, mi), true
}

func canonicalStamp(y, mo, d, h, mi, s string) (string, bool) {
	date, ok := canonicalDate(y, mo, d)
	if !ok {
		return "", false
	}
	clock, ok := canonicalClock(h, mi)
	if !ok {
		return "", false
	}
	si, _ := strconv.Atoi(s)
	if si > 59 {
		return "", false
	}
	return fmt.Sprintf("%s %s:%02d", date, clock, si), true
}

// CanonicalTimestamp finds the first recognizable timestamp in s and returns
// it as YYYY-MM-DD HH:MM:SS.
func CanonicalTimestamp(s string) (string, bool) {
	m := stampRE.FindStringSubmatch(s)
	if m == nil {
		return "", false
	}
	return canonicalStamp(m[1], m[2], m[3], m[4], m[5], m[6])
}
