package parse

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"github.com/Zuo-Peng/chatdigest/internal/normalize"
)

var fixedNow = time.Date(2025, 11, 3, 14, 5, 9, 0, time.Local)

func testMachine() Machine {
	return Machine{
		Classifier: Classifier{KnownSenders: []string{"孟秋璇", "孟祥志", "秋璇", "四叔"}},
		Now:        func() time.Time { return fixedNow },
	}
}

func numbered(texts ...string) []normalize.Line {
	out := make([]normalize.Line, len(texts))
	for i, t := range texts {
		out[i] = normalize.Line{No: i + 1, Text: t}
	}
	return out
}

func TestAssembleSeparatedTranscript(t *testing.T) {
	msgs, st := testMachine().Assemble(State{}, numbered(
		"—————  2025-10-7  —————",
		"孟秋璇  19:39",
		"这道物理题怎么做？",
		"孟祥志  22:15",
		"用牛顿第二定律",
	))

	want := []Message{
		{Timestamp: "2025-10-07 19:39:00", Sender: "孟秋璇", Content: "这道物理题怎么做？", SourceLine: 2},
		{Timestamp: "2025-10-07 22:15:00", Sender: "孟祥志", Content: "用牛顿第二定律", SourceLine: 4},
	}
	if !reflect.DeepEqual(msgs, want) {
		t.Fatalf("messages = %+v\nwant %+v", msgs, want)
	}
	if st.Mode != Idle || st.CurrentDate != "2025-10-07" {
		t.Fatalf("final state = %+v", st)
	}
}

func TestAssembleMultilineContent(t *testing.T) {
	msgs, _ := testMachine().Assemble(State{}, numbered(
		"您：2025-09-01 10:30:15 看第三题",
		"先画受力图",
		"再列方程",
		"",
		"补一句",
	))
	if len(msgs) != 2 {
		t.Fatalf("got %d messages, want 2: %+v", len(msgs), msgs)
	}
	if msgs[0].Content != "看第三题\n先画受力图\n再列方程" {
		t.Fatalf("content = %q", msgs[0].Content)
	}
	if msgs[1].Sender != UnknownSender {
		t.Fatalf("orphan sender = %q, want %q", msgs[1].Sender, UnknownSender)
	}
	// no separator seen, so the orphan falls back to processing time
	if msgs[1].Timestamp != fixedNow.Format(TimestampLayout) {
		t.Fatalf("orphan timestamp = %q", msgs[1].Timestamp)
	}
}

func TestAssembleDropsEmptyHeaders(t *testing.T) {
	msgs, _ := testMachine().Assemble(State{}, numbered(
		"—— 2025-09-02 ——",
		"秋璇 08:00",
		"孟祥志 08:01",
		"早",
		"四叔 23:59",
	))
	if len(msgs) != 1 {
		t.Fatalf("got %d messages, want 1: %+v", len(msgs), msgs)
	}
	if msgs[0].Sender != "孟祥志" || msgs[0].Timestamp != "2025-09-02 08:01:00" {
		t.Fatalf("message = %+v", msgs[0])
	}
}

func TestAssembleStampLineWithoutSender(t *testing.T) {
	msgs, _ := testMachine().Assemble(State{}, numbered(
		"2025-09-01 10:30:15 这道题怎么做？",
		"",
		"下一句",
	))
	if len(msgs) != 2 {
		t.Fatalf("got %d messages, want 2: %+v", len(msgs), msgs)
	}
	want := Message{Timestamp: "2025-09-01 10:30:15", Sender: UnknownSender, Content: "这道题怎么做？", SourceLine: 1}
	if !reflect.DeepEqual(msgs[0], want) {
		t.Fatalf("message = %+v, want %+v", msgs[0], want)
	}
	if msgs[1].Content != "下一句" {
		t.Fatalf("second message = %+v", msgs[1])
	}
}

func TestAssembleKnownSenderUsesDateContext(t *testing.T) {
	msgs, _ := testMachine().Assemble(State{}, numbered(
		"—— 2025-09-05 ——",
		"孟秋璇：老师我做完了",
	))
	if len(msgs) != 1 {
		t.Fatalf("got %d messages", len(msgs))
	}
	want := Message{Timestamp: "2025-09-05 00:00:00", Sender: "孟秋璇", Content: "老师我做完了", SourceLine: 2}
	if !reflect.DeepEqual(msgs[0], want) {
		t.Fatalf("message = %+v, want %+v", msgs[0], want)
	}
}

func TestAssembleSenderTimeWithoutDate(t *testing.T) {
	msgs, _ := testMachine().Assemble(State{}, numbered("四叔 7:30", "出发了"))
	if len(msgs) != 1 || msgs[0].Timestamp != "2025-11-03 07:30:00" {
		t.Fatalf("messages = %+v", msgs)
	}
}

func TestSeparatorClosesOpenMessage(t *testing.T) {
	m := testMachine()
	st, _, _ := m.Step(State{}, normalize.Line{No: 1, Text: "秋璇 21:00"})
	st, _, _ = m.Step(st, normalize.Line{No: 2, Text: "晚安"})
	if st.Mode != MessageOpen {
		t.Fatalf("mode = %s, want open", st.Mode)
	}
	st, msg, ok := m.Step(st, normalize.Line{No: 3, Text: "—— 2025-09-06 ——"})
	if !ok || msg.Content != "晚安" {
		t.Fatalf("separator did not flush: %+v %v", msg, ok)
	}
	if st.Mode != Idle || st.CurrentDate != "2025-09-06" {
		t.Fatalf("state = %+v", st)
	}
}

func TestEmittedMessagesHaveContentAndSender(t *testing.T) {
	inputs := [][]string{
		{"", "", "孟秋璇 10:00", "", "孟祥志 10:01", ""},
		{"   ", "随便说说", "秋璇", "四叔 9:00", "好"},
		{"—— 2025-1-1 ——", "—— 2025-1-2 ——", "x"},
	}
	for _, in := range inputs {
		msgs, st := testMachine().Assemble(State{}, numbered(in...))
		if st.Mode != Idle {
			t.Fatalf("%q: final mode %s", in, st.Mode)
		}
		for _, m := range msgs {
			if m.Content == "" || m.Sender == "" {
				t.Fatalf("%q: emitted %+v", in, m)
			}
		}
	}
}

func TestParserCarriesDateAcrossFiles(t *testing.T) {
	dir := t.TempDir()
	first := filepath.Join(dir, "a.txt")
	second := filepath.Join(dir, "b.txt")
	writeFile(t, first, "—— 2025-09-10 ——\n秋璇 20:00\n交作业\n")
	writeFile(t, second, "孟祥志 20:30\n收到\n")

	p := NewParser([]string{"秋璇", "孟祥志"}, func() time.Time { return fixedNow })
	if _, err := p.ParseText(first); err != nil {
		t.Fatal(err)
	}
	if got := p.DateContext(); got != "2025-09-10" {
		t.Fatalf("DateContext = %q", got)
	}

	r, err := p.ParseText(second)
	if err != nil {
		t.Fatal(err)
	}
	if len(r.Messages) != 1 || r.Messages[0].Timestamp != "2025-09-10 20:30:00" {
		t.Fatalf("messages = %+v", r.Messages)
	}
	if r.Messages[0].SourceFile != second {
		t.Fatalf("source file = %q", r.Messages[0].SourceFile)
	}

	p.Reset()
	if p.DateContext() != "" {
		t.Fatal("Reset kept the date context")
	}
}

func TestParseHTML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "chat.html")
	writeFile(t, path, `<html><head><style>p{color:red}</style></head><body>
<div>——— 2025-10-7 ———</div>
<p>孟秋璇 19:39</p>
<p>这道<b>物理</b>题怎么做&#xFF1F;</p>
</body></html>`)

	p := NewParser(nil, func() time.Time { return fixedNow })
	r, err := p.ParseHTML(path)
	if err != nil {
		t.Fatal(err)
	}
	if len(r.Messages) != 1 {
		t.Fatalf("got %d messages: %+v", len(r.Messages), r.Messages)
	}
	m := r.Messages[0]
	if m.Timestamp != "2025-10-07 19:39:00" || m.Sender != "孟秋璇" {
		t.Fatalf("message = %+v", m)
	}
	if m.Content != "这道\n物理\n题怎么做？" {
		t.Fatalf("content = %q", m.Content)
	}
	if r.Source.Kind != KindHTML {
		t.Fatalf("kind = %q", r.Source.Kind)
	}
}

func TestParseTextRejectsOversizedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "big.txt")
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	if err := f.Truncate(MaxFileSize + 1); err != nil {
		t.Fatal(err)
	}
	f.Close()

	if _, err := NewParser(nil, nil).ParseText(path); err == nil {
		t.Fatal("expected size error")
	}
}

func TestKindFor(t *testing.T) {
	tests := map[string]string{
		"a.txt":       KindText,
		"b.LOG":       KindText,
		"README":      KindText,
		"c.htm":       KindHTML,
		"d.html":      KindHTML,
		"e.json":      KindJSON,
		"f.eml":       KindMail,
		"g.png":       "",
		"archive.zip": "",
	}
	for in, want := range tests {
		if got := KindFor(in); got != want {
			t.Errorf("KindFor(%q) = %q, want %q", in, got, want)
		}
	}
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}
