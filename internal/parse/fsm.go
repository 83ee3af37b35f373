package parse

import (
	"slices"
	"strings"
	"time"

	"github.com/Zuo-Peng/chatdigest/internal/normalize"
)

// Mode is the assembler state.
type Mode int

const (
	Idle Mode = iota
	MessageOpen
)

func (m Mode) String() string {
	if m == MessageOpen {
		return "open"
	}
	return "idle"
}

// State is the context threaded through Step. CurrentDate is the date of the
// most recent separator and survives flushes; the open message does not.
type State struct {
	Mode        Mode
	CurrentDate string
	open        pending
}

type pending struct {
	timestamp string
	sender    string
	line      int
	lines     []string
}

// Machine is the line-to-message state machine. It is stateless itself; all
// state lives in the State values passed through Step.
type Machine struct {
	Classifier Classifier
	Now        func() time.Time // processing-time fallback; time.Now when nil
}

// Step feeds one line to the machine. It returns the next state and, when
// the line closed a message with content, that message.
func (m Machine) Step(st State, l normalize.Line) (State, Message, bool) {
	cl := m.Classifier.Classify(l.Text, st.Mode == MessageOpen)

	switch cl.Kind {
	case LineBlank:
		return st.flush()

	case LineDateSeparator:
		next, msg, ok := st.flush()
		next.CurrentDate = cl.Date
		return next, msg, ok

	case LineSenderTime:
		next, msg, ok := st.flush()
		ts := m.headerDate(st) + " " + cl.Time + ":00"
		return next.begin(ts, cl.Sender, l.No, ""), msg, ok

	case LineTimestamped:
		next, msg, ok := st.flush()
		return next.begin(cl.Timestamp, cl.Sender, l.No, cl.Rest), msg, ok

	case LineKnownSender:
		return st.begin(m.contextTimestamp(st), cl.Sender, l.No, cl.Rest), Message{}, false
	}

	if st.Mode == MessageOpen {
		st.open.lines = append(slices.Clip(st.open.lines), cl.Text)
		return st, Message{}, false
	}
	// orphan text
	return st.begin(m.contextTimestamp(st), UnknownSender, l.No, cl.Text), Message{}, false
}

// Finish flushes whatever is open at end of input.
func (m Machine) Finish(st State) (State, Message, bool) {
	return st.flush()
}

// Assemble runs a whole line sequence through the machine starting from st
// and returns the emitted messages and the final (idle) state.
func (m Machine) Assemble(st State, lines []normalize.Line) ([]Message, State) {
	var out []Message
	for _, l := range lines {
		var (
			msg Message
			ok  bool
		)
		st, msg, ok = m.Step(st, l)
		if ok {
			out = append(out, msg)
		}
	}
	st, msg, ok := m.Finish(st)
	if ok {
		out = append(out, msg)
	}
	return out, st
}

func (m Machine) now() time.Time {
	if m.Now != nil {
		return m.Now()
	}
	return time.Now()
}

// headerDate is the date a time-only header is placed on.
func (m Machine) headerDate(st State) string {
	if st.CurrentDate != "" {
		return st.CurrentDate
	}
	return m.now().Format(DateLayout)
}

// contextTimestamp stamps messages whose line carries no time at all.
func (m Machine) contextTimestamp(st State) string {
	if st.CurrentDate != "" {
		return st.CurrentDate + " 00:00:00"
	}
	return m.now().Format(TimestampLayout)
}

func (st State) begin(ts, sender string, line int, first string) State {
	if sender == "" {
		sender = UnknownSender
	}
	p := pending{timestamp: ts, sender: sender, line: line}
	if first != "" {
		p.lines = []string{first}
	}
	return State{Mode: MessageOpen, CurrentDate: st.CurrentDate, open: p}
}

// flush closes the open message. A header that collected no content is
// dropped here.
func (st State) flush() (State, Message, bool) {
	next := State{Mode: Idle, CurrentDate: st.CurrentDate}
	if st.Mode != MessageOpen || len(st.open.lines) == 0 {
		return next, Message{}, false
	}
	return next, Message{
		Timestamp:  st.open.timestamp,
		Sender:     st.open.sender,
		Content:    strings.Join(st.open.lines, "\n"),
		SourceLine: st.open.line,
	}, true
}
