package index

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/Zuo-Peng/chatdigest/internal/pipeline"
	"github.com/Zuo-Peng/chatdigest/internal/scan"
)

const timeLayout = time.RFC3339

type Stats struct {
	RunID string
	pipeline.Stats
}

func (s Stats) String() string {
	return fmt.Sprintf("run=%s files=%d errors=%d parsed=%d duplicates=%d out_of_window=%d kept=%d",
		s.RunID, s.Files, s.Errors, s.Parsed, s.Duplicates, s.OutOfWindow, s.Kept)
}

// IndexAll scans roots, runs the pipeline over every source and replaces the
// stored sequence with the result. The sequence depends on every file at
// once (cross-file dedupe, date context) so it is rebuilt whole.
func IndexAll(db *DB, p *pipeline.Pipeline, roots ...string) (Stats, error) {
	started := time.Now()

	files, err := scan.ScanRoots(roots...)
	if err != nil {
		return Stats{}, fmt.Errorf("scan: %w", err)
	}

	p.Reset()
	res := p.Run(files)

	id, err := db.ReplaceSequence(res, started)
	if err != nil {
		return Stats{Stats: res.Stats}, fmt.Errorf("store: %w", err)
	}
	return Stats{RunID: id, Stats: res.Stats}, nil
}

// ReplaceSequence stores res as the canonical sequence in a single
// transaction and records the run. Seq numbers start at 1. It returns the new run id.
func (d *DB) ReplaceSequence(res *pipeline.Result, startedAt time.Time) (string, error) {
	tx, err := d.db.Begin()
	if err != nil {
		return "", err
	}
	defer tx.Rollback()

	for _, stmt := range []string{"DELETE FROM messages", "DELETE FROM sources"} {
		if _, err := tx.Exec(stmt); err != nil {
			return "", err
		}
	}

	stmt, err := tx.Prepare(
		`INSERT INTO messages (seq, ts, sender, content, subject, is_question, images, source_file, source_line)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
	)
	if err != nil {
		return "", err
	}
	defer stmt.Close()

	for i, m := range res.Messages {
		images := []byte("[]")
		if len(m.Images) > 0 {
			if images, err = json.Marshal(m.Images); err != nil {
				return "", err
			}
		}
		if _, err := stmt.Exec(i+1, m.Timestamp, m.Sender, m.Content, string(m.Subject),
			m.IsQuestion, string(images), m.SourceFile, m.SourceLine); err != nil {
			return "", fmt.Errorf("insert message %d: %w", i+1, err)
		}
	}

	for _, s := range res.Sources {
		var errText string
		if s.Err != nil {
			errText = s.Err.Error()
		}
		if _, err := tx.Exec(
			`INSERT OR REPLACE INTO sources (path, kind, mtime, size, messages, error) VALUES (?, ?, ?, ?, ?, ?)`,
			s.File.Path, s.File.Kind, s.File.Mtime, s.File.Size, s.Messages, errText,
		); err != nil {
			return "", err
		}
	}

	id := uuid.NewString()
	st := res.Stats
	if _, err := tx.Exec(
		`INSERT INTO runs (id, started_at, finished_at, date_window, files, errors, parsed, duplicates, out_of_window, kept)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		id, startedAt.Format(timeLayout), time.Now().Format(timeLayout), res.Window.String(),
		st.Files, st.Errors, st.Parsed, st.Duplicates, st.OutOfWindow, st.Kept,
	); err != nil {
		return "", err
	}

	if err := tx.Commit(); err != nil {
		return "", err
	}
	return id, nil
}
