package parse

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/Zuo-Peng/chatdigest/internal/normalize"
)

// Source kinds.
const (
	KindText = "text"
	KindHTML = "html"
	KindJSON = "json"
	KindMail = "mail"
)

// MaxFileSize caps how much of a single source is read.
const MaxFileSize = 10 * 1024 * 1024 // 10MB

// KindFor maps a file name to its source kind, or "" when the file is not a
// chat source.
func KindFor(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".txt", ".log", "":
		return KindText
	case ".html", ".htm":
		return KindHTML
	case ".json":
		return KindJSON
	case ".eml":
		return KindMail
	}
	return ""
}

// Parser turns sources into messages. One Parser serves one pipeline run:
// the date context of the last separator carries over from file to file
// until Reset.
type Parser struct {
	machine  Machine
	state    State
	location *time.Location
}

func NewParser(knownSenders []string, now func() time.Time) *Parser {
	return &Parser{
		machine: Machine{
			Classifier: Classifier{KnownSenders: knownSenders},
			Now:        now,
		},
		location: time.Local,
	}
}

// Reset clears the carried date context.
func (p *Parser) Reset() {
	p.state = State{}
}

// DateContext is the date of the last separator seen in this run.
func (p *Parser) DateContext() string {
	return p.state.CurrentDate
}

func (p *Parser) ParseText(path string) (*ParseResult, error) {
	data, meta, err := readSource(path, KindText)
	if err != nil {
		return nil, err
	}
	return p.ParseBlob(meta, data, ""), nil
}

func (p *Parser) ParseHTML(path string) (*ParseResult, error) {
	data, meta, err := readSource(path, KindHTML)
	if err != nil {
		return nil, err
	}
	return p.ParseBlob(meta, data, ""), nil
}

// ParseBlob parses an in-memory text or HTML source (meta.Kind selects which)
// in the given declared charset, which may be empty.
func (p *Parser) ParseBlob(meta SourceMeta, data []byte, charset string) *ParseResult {
	text := normalize.Decode(data, charset)

	var lines []normalize.Line
	if meta.Kind == KindHTML {
		lines = normalize.HTMLLines(text)
	} else {
		lines = normalize.TextLines(text)
	}

	msgs, st := p.machine.Assemble(State{CurrentDate: p.state.CurrentDate}, lines)
	p.state = st
	for i := range msgs {
		msgs[i].SourceFile = meta.Path
	}
	return &ParseResult{Source: meta, Messages: msgs}
}

func readSource(path, kind string) ([]byte, SourceMeta, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, SourceMeta{}, err
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, SourceMeta{}, err
	}
	if info.Size() > MaxFileSize {
		return nil, SourceMeta{}, fmt.Errorf("%s: %d bytes exceeds the %d byte limit", path, info.Size(), MaxFileSize)
	}

	data, err := io.ReadAll(f)
	if err != nil {
		return nil, SourceMeta{}, err
	}
	return data, SourceMeta{
		Path:  path,
		Kind:  kind,
		Mtime: info.ModTime(),
		Size:  info.Size(),
	}, nil
}
