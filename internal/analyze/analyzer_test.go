package analyze

import (
	"testing"

	"github.com/Zuo-Peng/chatdigest/internal/config"
	"github.com/Zuo-Peng/chatdigest/internal/parse"
)

func defaultAnalyzer() *Analyzer {
	return New(config.Default(""))
}

func TestSubjectPriority(t *testing.T) {
	a := defaultAnalyzer()
	tests := []struct {
		content string
		want    parse.Subject
	}{
		{"这道物理题怎么做？", parse.SubjectPhysics},
		{"用牛顿第二定律", parse.SubjectPhysics},
		{"求这个函数的导数", parse.SubjectMath},
		{"配平这个氧化还原反应", parse.SubjectChemistry},
		// physics and chemistry both list 原子; physics is earlier
		{"原子结构", parse.SubjectPhysics},
		// all three match; math wins
		{"用方程算化学反应的能量", parse.SubjectMath},
		{"今天吃什么", parse.SubjectNone},
	}
	for _, tt := range tests {
		if got := a.Subject(tt.content); got != tt.want {
			t.Errorf("Subject(%q) = %s, want %s", tt.content, got, tt.want)
		}
	}
}

func TestSubjectOrderIsConfigurable(t *testing.T) {
	cfg := config.Default("")
	cfg.Subjects[0], cfg.Subjects[2] = cfg.Subjects[2], cfg.Subjects[0]
	a := New(cfg)
	if got := a.Subject("用方程算化学反应"); got != parse.SubjectChemistry {
		t.Fatalf("Subject = %s, want chemistry first", got)
	}
}

func TestIsQuestionOnlyForTeacher(t *testing.T) {
	a := defaultAnalyzer()
	tests := []struct {
		sender, content string
		want            bool
	}{
		{"您", "这道题怎么做？", true},
		{"您", "请写出步骤", true},
		{"您", "今天讲到这里", false},
		{"秋璇", "这道题怎么做？", false},
		{"孟秋璇", "这道物理题怎么做？", false},
	}
	for _, tt := range tests {
		if got := a.IsQuestion(tt.sender, tt.content); got != tt.want {
			t.Errorf("IsQuestion(%q, %q) = %v, want %v", tt.sender, tt.content, got, tt.want)
		}
	}

	a.Teacher = "孟秋璇"
	if !a.IsQuestion("孟秋璇", "这道物理题怎么做？") {
		t.Fatal("configured teacher identity not honored")
	}
}

func TestAnnotateIsRepeatable(t *testing.T) {
	a := defaultAnalyzer()
	msgs := []parse.Message{
		{Sender: "您", Content: "这个方程怎么解？"},
		{Sender: "秋璇", Content: "移项"},
	}
	a.Annotate(msgs)
	first := append([]parse.Message(nil), msgs...)
	a.Annotate(msgs)

	for i := range msgs {
		if msgs[i].Subject != first[i].Subject || msgs[i].IsQuestion != first[i].IsQuestion {
			t.Fatalf("msgs[%d] changed on second pass: %+v vs %+v", i, msgs[i], first[i])
		}
	}
	if msgs[0].Subject != parse.SubjectMath || !msgs[0].IsQuestion {
		t.Fatalf("question = %+v", msgs[0])
	}
	if msgs[1].IsQuestion {
		t.Fatal("student message flagged as question")
	}
}

func TestFindAnswer(t *testing.T) {
	a := defaultAnalyzer()
	seq := []parse.Message{
		{Sender: "您", Content: "q1？", IsQuestion: true},
		{Sender: "四叔", Content: "a"},
		{Sender: "秋璇", Content: "ans1"},
		{Sender: "您", Content: "q2？", IsQuestion: true},
		{Sender: "您", Content: "b"},
		{Sender: "四叔", Content: "c"},
		{Sender: "四叔", Content: "d"},
		{Sender: "四叔", Content: "e"},
		{Sender: "秋璇", Content: "too late"},
	}

	if got := a.FindAnswer(seq, 0); got != 2 {
		t.Fatalf("FindAnswer(0) = %d, want 2", got)
	}
	if got := a.FindAnswer(seq, 3); got != -1 {
		t.Fatalf("FindAnswer(3) = %d, want -1 (answer outside window)", got)
	}
	if got := a.FindAnswer(seq, 8); got != -1 {
		t.Fatalf("FindAnswer(last) = %d, want -1", got)
	}
	if got := a.FindAnswer(seq, 99); got != -1 {
		t.Fatalf("FindAnswer(out of range) = %d", got)
	}

	qs := a.Questions(seq)
	if len(qs) != 2 {
		t.Fatalf("got %d questions", len(qs))
	}
	if qs[0].Answer == nil || qs[0].Answer.Content != "ans1" {
		t.Fatalf("first answer = %+v", qs[0].Answer)
	}
	if qs[1].Answer != nil || qs[1].Index != 3 {
		t.Fatalf("second question = %+v", qs[1])
	}
}
