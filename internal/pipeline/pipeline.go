// Package pipeline runs chat sources through parsing, deduplication, date
// filtering, analysis and sequencing to produce the canonical sequence.
package pipeline

import (
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/Zuo-Peng/chatdigest/internal/analyze"
	"github.com/Zuo-Peng/chatdigest/internal/config"
	"github.com/Zuo-Peng/chatdigest/internal/parse"
	"github.com/Zuo-Peng/chatdigest/internal/scan"
)

type Stats struct {
	Files       int `json:"files" yaml:"files"`
	Errors      int `json:"errors" yaml:"errors"`
	Parsed      int `json:"parsed" yaml:"parsed"`
	Duplicates  int `json:"duplicates" yaml:"duplicates"`
	OutOfWindow int `json:"out_of_window" yaml:"out_of_window"`
	Kept        int `json:"kept" yaml:"kept"`
}

// SourceResult records what one input file contributed.
type SourceResult struct {
	File     scan.FileInfo
	Messages int // parsed, before dedupe and filtering
	Err      error
}

type Result struct {
	Messages []parse.Message // the canonical sequence
	Sources  []SourceResult
	Stats    Stats
	Window   Window
}

// Pipeline holds the state of one run: the parser's date context and the
// deduplicator's seen-set. Use a new Pipeline, or Reset, per independent run.
type Pipeline struct {
	parser   *parse.Parser
	dedupe   *Deduplicator
	window   Window
	analyzer *analyze.Analyzer
	log      zerolog.Logger
}

// New builds a pipeline from configuration. now resolves an open end date
// and stamps messages that carry no time; time.Now when nil.
func New(cfg *config.Config, now func() time.Time, log zerolog.Logger) *Pipeline {
	if now == nil {
		now = time.Now
	}
	start, end := cfg.Window(now())
	return &Pipeline{
		parser:   parse.NewParser(cfg.KnownSenders, now),
		dedupe:   NewDeduplicator(),
		window:   Window{Start: start, End: end},
		analyzer: analyze.New(cfg),
		log:      log,
	}
}

func (p *Pipeline) Analyzer() *analyze.Analyzer { return p.analyzer }

// Reset clears the per-run state so the pipeline can start a new batch.
func (p *Pipeline) Reset() {
	p.parser.Reset()
	p.dedupe.Reset()
}

// Run processes files strictly in order. A file that fails to parse is
// logged and skipped; it never aborts the batch.
func (p *Pipeline) Run(files []scan.FileInfo) *Result {
	res := &Result{Window: p.window}

	var parsed []parse.Message
	for _, f := range files {
		res.Stats.Files++
		msgs, err := p.parseFile(f)
		src := SourceResult{File: f, Messages: len(msgs), Err: err}
		res.Sources = append(res.Sources, src)
		if err != nil {
			res.Stats.Errors++
			p.log.Warn().Err(err).Str("path", f.Path).Str("kind", f.Kind).Msg("skipping source")
			continue
		}
		p.log.Debug().Str("path", f.Path).Int("messages", len(msgs)).Msg("parsed source")
		parsed = append(parsed, msgs...)
	}

	p.finish(res, parsed)
	return res
}

// RunRecords feeds pre-built messages, such as records from a JSON adapter,
// straight to the deduplicator.
func (p *Pipeline) RunRecords(msgs []parse.Message) *Result {
	res := &Result{Window: p.window}
	p.finish(res, msgs)
	return res
}

func (p *Pipeline) finish(res *Result, msgs []parse.Message) {
	res.Stats.Parsed = len(msgs)

	kept, dups := p.dedupe.Apply(msgs)
	res.Stats.Duplicates = dups

	kept, out := p.window.Filter(kept)
	res.Stats.OutOfWindow = out

	p.analyzer.Annotate(kept)
	res.Messages = Sequence(kept)
	res.Stats.Kept = len(res.Messages)

	p.log.Info().
		Int("files", res.Stats.Files).
		Int("errors", res.Stats.Errors).
		Int("parsed", res.Stats.Parsed).
		Int("duplicates", res.Stats.Duplicates).
		Int("out_of_window", res.Stats.OutOfWindow).
		Int("kept", res.Stats.Kept).
		Str("window", p.window.String()).
		Msg("pipeline finished")
}

func (p *Pipeline) parseFile(f scan.FileInfo) ([]parse.Message, error) {
	var (
		r   *parse.ParseResult
		err error
	)
	switch f.Kind {
	case parse.KindText:
		r, err = p.parser.ParseText(f.Path)
	case parse.KindHTML:
		r, err = p.parser.ParseHTML(f.Path)
	case parse.KindJSON:
		r, err = p.parser.ParseJSON(f.Path)
	case parse.KindMail:
		r, err = p.parser.ParseMail(f.Path)
	default:
		return nil, fmt.Errorf("unsupported source kind %q", f.Kind)
	}
	if err != nil {
		return nil, err
	}
	return r.Messages, nil
}
