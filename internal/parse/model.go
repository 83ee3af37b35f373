package parse

import (
	"regexp"
	"time"
)

// UnknownSender marks a message whose sender could not be recovered.
const UnknownSender = "unknown"

const (
	TimestampLayout = "2006-01-02 15:04:05"
	DateLayout      = "2006-01-02"
)

// Subject is the subject-matter label of a message. The empty Subject
// means none matched.
type Subject string

const (
	SubjectNone      Subject = ""
	SubjectMath      Subject = "math"
	SubjectPhysics   Subject = "physics"
	SubjectChemistry Subject = "chemistry"
)

func (s Subject) String() string {
	if s == SubjectNone {
		return "none"
	}
	return string(s)
}

type Message struct {
	Timestamp  string   `json:"timestamp" yaml:"timestamp"` // YYYY-MM-DD HH:MM:SS or ""
	Sender     string   `json:"sender" yaml:"sender"`
	Content    string   `json:"content" yaml:"content"`
	Subject    Subject  `json:"subject,omitempty" yaml:"subject,omitempty"`
	IsQuestion bool     `json:"is_question" yaml:"is_question"`
	Images     []string `json:"images,omitempty" yaml:"images,omitempty"`

	SourceFile string `json:"source_file,omitempty" yaml:"source_file,omitempty"`
	SourceLine int    `json:"source_line,omitempty" yaml:"source_line,omitempty"` // header line, 1-indexed
}

// Date returns the YYYY-MM-DD portion of the timestamp, or "" if none can be
// extracted.
func (m Message) Date() string {
	return ExtractDate(m.Timestamp)
}

var (
	isoDateRE   = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}`)
	looseDateRE = regexp.MustCompile(`(\d{4})[-/年](\d{1,2})[-/月](\d{1,2})`)
)

// ExtractDate pulls a zero-padded date out of a timestamp string: the first
// ten characters when they already are YYYY-MM-DD, otherwise the first
// Y-M-D, Y/M/D or Y年M月D日 substring.
func ExtractDate(ts string) string {
	if isoDateRE.MatchString(ts) {
		return ts[:10]
	}
	if m := looseDateRE.FindStringSubmatch(ts); m != nil {
		return m[1] + "-" + pad2(m[2]) + "-" + pad2(m[3])
	}
	return ""
}

func pad2(s string) string {
	if len(s) == 1 {
		return "0" + s
	}
	return s
}

type SourceMeta struct {
	Path  string
	Kind  string // "text", "html", "json" or "mail"
	Mtime time.Time
	Size  int64
}

type ParseResult struct {
	Source   SourceMeta
	Messages []Message
}
