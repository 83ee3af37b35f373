package pipeline

import "github.com/Zuo-Peng/chatdigest/internal/parse"

// Window is an inclusive date range of YYYY-MM-DD strings. An empty bound is
// open. Zero padding makes string order chronological order.
type Window struct {
	Start string
	End   string
}

// Contains reports whether a message dated date falls in the window. A
// message without a date is always kept.
func (w Window) Contains(date string) bool {
	if date == "" {
		return true
	}
	if w.Start != "" && date < w.Start {
		return false
	}
	if w.End != "" && date > w.End {
		return false
	}
	return true
}

func (w Window) String() string {
	start, end := w.Start, w.End
	if start == "" {
		start = "*"
	}
	if end == "" {
		end = "*"
	}
	return start + ".." + end
}

// Filter returns the messages inside the window and how many were left out.
func (w Window) Filter(msgs []parse.Message) ([]parse.Message, int) {
	out := make([]parse.Message, 0, len(msgs))
	for _, m := range msgs {
		if w.Contains(m.Date()) {
			out = append(out, m)
		}
	}
	return out, len(msgs) - len(out)
}
