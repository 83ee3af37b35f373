// Package analyze labels messages with a subject and a question flag, and
// links teacher questions to the student's answers.
package analyze

import (
	"strings"

	"github.com/Zuo-Peng/chatdigest/internal/config"
	"github.com/Zuo-Peng/chatdigest/internal/parse"
)

// DefaultAnswerWindow is how many following messages are searched for an
// answer.
const DefaultAnswerWindow = 4

// SubjectRule is one entry of the ordered subject table.
type SubjectRule struct {
	Subject  parse.Subject
	Keywords []string
}

type Analyzer struct {
	Teacher          string
	Student          string
	Subjects         []SubjectRule // first match wins
	QuestionKeywords []string
	AnswerWindow     int
}

// New builds an Analyzer from configuration, keeping the configured order of
// the subject table.
func New(cfg *config.Config) *Analyzer {
	rules := make([]SubjectRule, 0, len(cfg.Subjects))
	for _, s := range cfg.Subjects {
		rules = append(rules, SubjectRule{
			Subject:  parse.Subject(s.Subject),
			Keywords: s.Keywords,
		})
	}
	return &Analyzer{
		Teacher:          cfg.Teacher,
		Student:          cfg.Student,
		Subjects:         rules,
		QuestionKeywords: cfg.QuestionKeywords,
		AnswerWindow:     cfg.AnswerWindow,
	}
}

// Subject returns the first subject any of whose keywords occurs in content.
func (a *Analyzer) Subject(content string) parse.Subject {
	for _, rule := range a.Subjects {
		if containsAny(content, rule.Keywords) {
			return rule.Subject
		}
	}
	return parse.SubjectNone
}

// IsQuestion is only ever true for messages sent by the teacher.
func (a *Analyzer) IsQuestion(sender, content string) bool {
	if a.Teacher == "" || sender != a.Teacher {
		return false
	}
	return containsAny(content, a.QuestionKeywords)
}

// Annotate sets Subject and IsQuestion on every message in place. Both are
// recomputed from scratch, so annotating twice changes nothing.
func (a *Analyzer) Annotate(msgs []parse.Message) {
	for i := range msgs {
		msgs[i].Subject = a.Subject(msgs[i].Content)
		msgs[i].IsQuestion = a.IsQuestion(msgs[i].Sender, msgs[i].Content)
	}
}

// FindAnswer returns the index of the student's answer to the question at i:
// the first student message among the next AnswerWindow messages. It returns
// -1 when there is none.
func (a *Analyzer) FindAnswer(seq []parse.Message, i int) int {
	if i < 0 || i >= len(seq) || a.Student == "" {
		return -1
	}
	window := a.AnswerWindow
	if window <= 0 {
		window = DefaultAnswerWindow
	}
	end := min(i+1+window, len(seq))
	for j := i + 1; j < end; j++ {
		if seq[j].Sender == a.Student {
			return j
		}
	}
	return -1
}

// QA is a question paired with its linked answer.
type QA struct {
	Index    int
	Question parse.Message
	Answer   *parse.Message
}

// Questions lists the question messages of seq in order, each with its answer
// when one is linked.
func (a *Analyzer) Questions(seq []parse.Message) []QA {
	var out []QA
	for i, m := range seq {
		if !m.IsQuestion {
			continue
		}
		qa := QA{Index: i, Question: m}
		if j := a.FindAnswer(seq, i); j >= 0 {
			ans := seq[j]
			qa.Answer = &ans
		}
		out = append(out, qa)
	}
	return out
}

func containsAny(s string, keywords []string) bool {
	for _, k := range keywords {
		if k != "" && strings.Contains(s, k) {
			return true
		}
	}
	return false
}
