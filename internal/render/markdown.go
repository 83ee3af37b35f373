package render

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/Zuo-Peng/chatdigest/internal/analyze"
	"github.com/Zuo-Peng/chatdigest/internal/parse"
)

// MaxSummaryQuestions caps the key-question section of a subject summary.
const MaxSummaryQuestions = 10

const (
	excerptRunes = 100
	undatedLabel = "未注明日期"
	placeholder  = "_待补充_"
)

// Labeler maps a subject to its display label.
type Labeler func(parse.Subject) string

// Docs renders markdown study notes from a canonical sequence. Questions
// are linked to answers against the whole sequence, not per subject.
type Docs struct {
	Analyzer *analyze.Analyzer
	Label    Labeler
}

func (d Docs) label(s parse.Subject) string {
	if d.Label != nil {
		if l := d.Label(s); l != "" {
			return l
		}
	}
	return s.String()
}

// SubjectSummary renders the summary of one subject: a timeline grouped by
// month and date, then the first questions with their linked answers.
func (d Docs) SubjectSummary(seq []parse.Message, subject parse.Subject) string {
	label := d.label(subject)

	byDate := make(map[string][]parse.Message)
	var dates []string
	for _, m := range seq {
		if m.Subject != subject {
			continue
		}
		date := m.Date()
		if date == "" {
			date = undatedLabel
		}
		if _, ok := byDate[date]; !ok {
			dates = append(dates, date)
		}
		byDate[date] = append(byDate[date], m)
	}
	sort.Slice(dates, func(i, j int) bool { return dateLess(dates[i], dates[j]) })

	var b strings.Builder
	fmt.Fprintf(&b, "# %s学习总结\n\n", label)
	b.WriteString("## 时间线\n\n")

	month := ""
	for i, date := range dates {
		if m := monthOf(date); i == 0 || m != month {
			if i > 0 {
				b.WriteString("\n---\n\n")
			}
			fmt.Fprintf(&b, "### %s\n\n", m)
			month = m
		}
		fmt.Fprintf(&b, "**%s**\n\n", date)
		for _, m := range byDate[date] {
			fmt.Fprintf(&b, "- [%s] %s: %s\n", m.Timestamp, m.Sender, excerpt(m.Content))
		}
		b.WriteString("\n")
	}

	b.WriteString("\n---\n\n")
	b.WriteString("## 重点问题\n\n")

	n := 0
	for _, qa := range d.Analyzer.Questions(seq) {
		if qa.Question.Subject != subject {
			continue
		}
		if n++; n > MaxSummaryQuestions {
			break
		}
		fmt.Fprintf(&b, "### 问题%d\n\n", n)
		fmt.Fprintf(&b, "**日期**：%s\n\n", qa.Question.Timestamp)
		fmt.Fprintf(&b, "**问题**：%s\n\n", qa.Question.Content)
		if qa.Answer != nil {
			fmt.Fprintf(&b, "**解答**：%s\n\n", qa.Answer.Content)
		}
		fmt.Fprintf(&b, "**知识点**：%s\n\n", placeholder)
		b.WriteString("---\n\n")
	}
	return b.String()
}

// ClassRecords renders one class record per month that has questions,
// keyed by YYYY-MM.
func (d Docs) ClassRecords(seq []parse.Message) map[string]string {
	byMonth := make(map[string][]analyze.QA)
	for _, qa := range d.Analyzer.Questions(seq) {
		m := monthOf(qa.Question.Date())
		byMonth[m] = append(byMonth[m], qa)
	}

	out := make(map[string]string, len(byMonth))
	for month, qas := range byMonth {
		out[month] = d.classRecord(month, qas)
	}
	return out
}

func (d Docs) classRecord(month string, qas []analyze.QA) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s上课记录\n\n", month)

	date := ""
	for i, qa := range qas {
		qd := qa.Question.Date()
		if qd == "" {
			qd = undatedLabel
		}
		if i == 0 || qd != date {
			fmt.Fprintf(&b, "## %s\n\n", qd)
			date = qd
		}
		fmt.Fprintf(&b, "### 提问内容\n\n%s\n\n", qa.Question.Content)
		if qa.Answer != nil {
			fmt.Fprintf(&b, "### 学生回答\n\n%s\n\n", qa.Answer.Content)
		}
		fmt.Fprintf(&b, "### 知识点\n\n%s\n\n", placeholder)
		b.WriteString("### 教学分析\n\n")
		for _, item := range []string{"回答质量评估", "理解程度分析", "需要加强的方面", "后续建议"} {
			fmt.Fprintf(&b, "**%s**：%s\n\n", item, placeholder)
		}
		b.WriteString("---\n\n")
	}

	b.WriteString("## 本月总结\n\n")
	b.WriteString("### 提问次数统计\n\n")
	fmt.Fprintf(&b, "- 总提问次数：%d\n", len(qas))

	counts := make(map[parse.Subject]int)
	var order []parse.Subject
	for _, qa := range qas {
		s := qa.Question.Subject
		if s == parse.SubjectNone {
			continue
		}
		if counts[s] == 0 {
			order = append(order, s)
		}
		counts[s]++
	}
	for _, s := range order {
		fmt.Fprintf(&b, "- %s相关：%d\n", d.label(s), counts[s])
	}

	b.WriteString("\n### 学习进展\n\n" + placeholder + "\n\n")
	b.WriteString("### 重点关注\n\n" + placeholder + "\n\n")
	return b.String()
}

// WriteDocs writes a summary for every subject in subjects that occurs in
// seq, plus the monthly class records under class_records/. It returns the
// written paths in order.
func (d Docs) WriteDocs(dir string, seq []parse.Message, subjects []parse.Subject) ([]string, error) {
	present := make(map[parse.Subject]bool)
	for _, m := range seq {
		present[m.Subject] = true
	}

	var written []string
	write := func(path, content string) error {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return fmt.Errorf("create docs dir: %w", err)
		}
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			return fmt.Errorf("write %s: %w", path, err)
		}
		written = append(written, path)
		return nil
	}

	for _, s := range subjects {
		if s == parse.SubjectNone || !present[s] {
			continue
		}
		path := filepath.Join(dir, d.label(s)+"总结.md")
		if err := write(path, d.SubjectSummary(seq, s)); err != nil {
			return written, err
		}
	}

	records := d.ClassRecords(seq)
	months := make([]string, 0, len(records))
	for m := range records {
		months = append(months, m)
	}
	sort.Slice(months, func(i, j int) bool { return dateLess(months[i], months[j]) })
	for _, m := range months {
		path := filepath.Join(dir, "class_records", m+".md")
		if err := write(path, records[m]); err != nil {
			return written, err
		}
	}
	return written, nil
}

func monthOf(date string) string {
	if len(date) >= 7 && date[4] == '-' {
		return date[:7]
	}
	return undatedLabel
}

// dateLess orders dates and months with the undated bucket last.
func dateLess(a, b string) bool {
	if a == undatedLabel || b == undatedLabel {
		return b == undatedLabel && a != undatedLabel
	}
	return a < b
}

func excerpt(content string) string {
	content = strings.Join(strings.Fields(content), " ")
	runes := []rune(content)
	if len(runes) <= excerptRunes {
		return content
	}
	return string(runes[:excerptRunes]) + "..."
}
