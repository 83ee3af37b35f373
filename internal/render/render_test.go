package render

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/mattn/go-runewidth"

	"github.com/Zuo-Peng/chatdigest/internal/analyze"
	"github.com/Zuo-Peng/chatdigest/internal/config"
	"github.com/Zuo-Peng/chatdigest/internal/index"
	"github.com/Zuo-Peng/chatdigest/internal/parse"
	"github.com/Zuo-Peng/chatdigest/internal/pipeline"
)

func TestWrapLineCJKWidth(t *testing.T) {
	lines := wrapLine("一二三四五六", 4)
	if len(lines) != 3 {
		t.Fatalf("got %d lines: %q", len(lines), lines)
	}
	for _, l := range lines {
		if w := runewidth.StringWidth(l); w > 4 {
			t.Fatalf("line %q is %d columns wide", l, w)
		}
	}

	// escape sequences take no columns
	colored := colorDim + "abcd" + colorReset
	if got := wrapLine(colored, 4); len(got) != 1 {
		t.Fatalf("escapes counted toward width: %q", got)
	}
}

func TestHighlightKeywords(t *testing.T) {
	got := highlightKeywords("Energy and energy", "energy AND")
	want := colorBoldRed + "Energy" + colorReset + " and " + colorBoldRed + "energy" + colorReset
	if got != want {
		t.Fatalf("highlightKeywords = %q, want %q", got, want)
	}
	if highlightKeywords("text", "") != "text" {
		t.Fatal("empty query changed text")
	}
}

func TestRenderMessage(t *testing.T) {
	db, err := index.OpenDB(filepath.Join(t.TempDir(), "render.db"))
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()

	res := &pipeline.Result{}
	for i := 0; i < 20; i++ {
		res.Messages = append(res.Messages, parse.Message{
			Timestamp: "2025-09-01 10:00:00",
			Sender:    "您",
			Content:   "message " + string(rune('A'+i)),
		})
	}
	res.Messages[9].IsQuestion = true
	res.Messages[9].Subject = parse.SubjectMath
	res.Messages[9].SourceFile = "chat.txt"
	res.Messages[9].SourceLine = 40
	if _, err := db.ReplaceSequence(res, time.Now()); err != nil {
		t.Fatal(err)
	}

	out, hitLine, err := RenderMessage(db, 10, Options{Context: 2, Teacher: "您"})
	if err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(out, "\n")
	if hitLine < 0 || !strings.Contains(lines[hitLine], "#10") {
		t.Fatalf("hit line %d does not point at the hit header:\n%s", hitLine, out)
	}
	for _, want := range []string{"7 messages before", "8 messages after", "message J", "chat.txt:40", "math"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "message F") {
		t.Errorf("output includes messages outside the window:\n%s", out)
	}

	if _, _, err := RenderMessage(db, 99, Options{}); err == nil {
		t.Fatal("expected error for missing seq")
	}
}

func docsSequence() []parse.Message {
	seq := []parse.Message{
		{Timestamp: "2025-09-01 10:00:00", Sender: "您", Content: "这个函数的导数是什么？"},
		{Timestamp: "2025-09-01 10:02:00", Sender: "秋璇", Content: "是2x"},
		{Timestamp: "2025-09-20 19:00:00", Sender: "您", Content: "讲一下能量守恒"},
		{Timestamp: "2025-10-07 19:39:00", Sender: "您", Content: "这道物理题怎么做？"},
		{Timestamp: "2025-10-07 19:40:00", Sender: "四叔", Content: "吃饭了"},
		{Timestamp: "2025-10-07 19:45:00", Sender: "秋璇", Content: "用牛顿第二定律"},
		{Timestamp: "2025-10-08 08:00:00", Sender: "您", Content: strings.Repeat("长", 150)},
	}
	analyze.New(config.Default("")).Annotate(seq)
	return seq
}

func testDocs() Docs {
	cfg := config.Default("")
	return Docs{
		Analyzer: analyze.New(cfg),
		Label:    func(s parse.Subject) string { return cfg.SubjectLabel(string(s)) },
	}
}

func TestSubjectSummary(t *testing.T) {
	out := testDocs().SubjectSummary(docsSequence(), parse.SubjectPhysics)

	for _, want := range []string{
		"# 物理学习总结",
		"### 2025-09",
		"### 2025-10",
		"**2025-10-07**",
		"- [2025-10-07 19:39:00] 您: 这道物理题怎么做？",
		"### 问题1",
		"**问题**：这道物理题怎么做？",
		"**解答**：用牛顿第二定律",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("summary missing %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "导数") {
		t.Errorf("math message in physics summary:\n%s", out)
	}
	if strings.Index(out, "### 2025-09") > strings.Index(out, "### 2025-10") {
		t.Error("months out of order")
	}
}

func TestClassRecords(t *testing.T) {
	records := testDocs().ClassRecords(docsSequence())
	if len(records) != 2 {
		t.Fatalf("got %d months", len(records))
	}

	sep := records["2025-09"]
	for _, want := range []string{"# 2025-09上课记录", "## 2025-09-01", "是2x", "- 总提问次数：1", "- 数学相关：1"} {
		if !strings.Contains(sep, want) {
			t.Errorf("september record missing %q:\n%s", want, sep)
		}
	}
	oct := records["2025-10"]
	if !strings.Contains(oct, "### 学生回答\n\n用牛顿第二定律") || !strings.Contains(oct, "- 物理相关：1") {
		t.Errorf("october record:\n%s", oct)
	}
}

func TestWriteDocs(t *testing.T) {
	dir := t.TempDir()
	subjects := []parse.Subject{parse.SubjectMath, parse.SubjectPhysics, parse.SubjectChemistry}
	written, err := testDocs().WriteDocs(dir, docsSequence(), subjects)
	if err != nil {
		t.Fatal(err)
	}

	want := []string{
		filepath.Join(dir, "数学总结.md"),
		filepath.Join(dir, "物理总结.md"),
		filepath.Join(dir, "class_records", "2025-09.md"),
		filepath.Join(dir, "class_records", "2025-10.md"),
	}
	if len(written) != len(want) {
		t.Fatalf("written = %v", written)
	}
	for i, p := range want {
		if written[i] != p {
			t.Errorf("written[%d] = %s, want %s", i, written[i], p)
		}
		if _, err := os.Stat(p); err != nil {
			t.Error(err)
		}
	}
}

func TestExcerpt(t *testing.T) {
	long := strings.Repeat("长", 150)
	if got := excerpt(long); len([]rune(got)) != excerptRunes+3 {
		t.Fatalf("excerpt length = %d", len([]rune(got)))
	}
	if got := excerpt("a\nb  c"); got != "a b c" {
		t.Fatalf("excerpt = %q", got)
	}
}
