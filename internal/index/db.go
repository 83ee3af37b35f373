package index

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"

	"github.com/Zuo-Peng/chatdigest/internal/parse"
)

const schema = `
PRAGMA journal_mode = WAL;
PRAGMA synchronous = NORMAL;
PRAGMA busy_timeout = 5000;

CREATE TABLE IF NOT EXISTS messages (
    seq         INTEGER PRIMARY KEY,
    ts          TEXT NOT NULL DEFAULT '',
    sender      TEXT NOT NULL,
    content     TEXT NOT NULL,
    subject     TEXT NOT NULL DEFAULT '',
    is_question INTEGER NOT NULL DEFAULT 0,
    images      TEXT NOT NULL DEFAULT '[]',
    source_file TEXT NOT NULL DEFAULT '',
    source_line INTEGER NOT NULL DEFAULT 0
);

CREATE INDEX IF NOT EXISTS messages_ts ON messages(ts);

CREATE VIRTUAL TABLE IF NOT EXISTS messages_fts USING fts5(
    content,
    content=messages,
    content_rowid=seq,
    tokenize='unicode61'
);

-- triggers to keep FTS in sync
CREATE TRIGGER IF NOT EXISTS messages_ai AFTER INSERT ON messages BEGIN
    INSERT INTO messages_fts(rowid, content) VALUES (new.seq, new.content);
END;

CREATE TRIGGER IF NOT EXISTS messages_ad AFTER DELETE ON messages BEGIN
    INSERT INTO messages_fts(messages_fts, rowid, content) VALUES('delete', old.seq, old.content);
END;

CREATE TRIGGER IF NOT EXISTS messages_au AFTER UPDATE ON messages BEGIN
    INSERT INTO messages_fts(messages_fts, rowid, content) VALUES('delete', old.seq, old.content);
    INSERT INTO messages_fts(rowid, content) VALUES (new.seq, new.content);
END;

CREATE TABLE IF NOT EXISTS sources (
    path     TEXT PRIMARY KEY,
    kind     TEXT NOT NULL,
    mtime    INTEGER NOT NULL DEFAULT 0,
    size     INTEGER NOT NULL DEFAULT 0,
    messages INTEGER NOT NULL DEFAULT 0,
    error    TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS runs (
    id            TEXT PRIMARY KEY,
    started_at    TEXT NOT NULL,
    finished_at   TEXT NOT NULL,
    date_window   TEXT NOT NULL DEFAULT '',
    files         INTEGER NOT NULL DEFAULT 0,
    errors        INTEGER NOT NULL DEFAULT 0,
    parsed        INTEGER NOT NULL DEFAULT 0,
    duplicates    INTEGER NOT NULL DEFAULT 0,
    out_of_window INTEGER NOT NULL DEFAULT 0,
    kept          INTEGER NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS meta (key TEXT PRIMARY KEY, value TEXT);
`

type DB struct {
	db *sql.DB
}

func OpenDB(dbPath string) (*DB, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create db dir: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("init schema: %w", err)
	}

	d := &DB{db: db}
	if err := d.migrateSchemaVersion(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate schema: %w", err)
	}
	return d, nil
}

// schemaVersion should be bumped whenever parsing or analysis changes what
// gets stored, so the next ingest starts from an empty sequence.
const schemaVersion = "1"

func (d *DB) migrateSchemaVersion() error {
	var ver string
	err := d.db.QueryRow("SELECT value FROM meta WHERE key = 'schema_version'").Scan(&ver)
	if err == nil && ver == schemaVersion {
		return nil
	}
	for _, stmt := range []string{
		"DELETE FROM messages",
		"DELETE FROM sources",
	} {
		if _, err := d.db.Exec(stmt); err != nil {
			return err
		}
	}
	_, err = d.db.Exec("INSERT OR REPLACE INTO meta (key, value) VALUES ('schema_version', ?)", schemaVersion)
	return err
}

func (d *DB) Close() error {
	return d.db.Close()
}

func (d *DB) Raw() *sql.DB {
	return d.db
}

// MessageRow is a stored message with its position in the canonical
// sequence.
type MessageRow struct {
	Seq int
	parse.Message
}

// MessageColumns is the select list ScanMessage expects.
const MessageColumns = "seq, ts, sender, content, subject, is_question, images, source_file, source_line"

type rowScanner interface {
	Scan(dest ...any) error
}

// ScanMessage reads one row selected with MessageColumns.
func ScanMessage(rs rowScanner) (MessageRow, error) {
	var (
		m       MessageRow
		subject string
		images  string
	)
	if err := rs.Scan(&m.Seq, &m.Timestamp, &m.Sender, &m.Content, &subject,
		&m.IsQuestion, &images, &m.SourceFile, &m.SourceLine); err != nil {
		return MessageRow{}, err
	}
	m.Subject = parse.Subject(subject)
	if images != "" && images != "[]" {
		if err := json.Unmarshal([]byte(images), &m.Images); err != nil {
			return MessageRow{}, fmt.Errorf("message %d images: %w", m.Seq, err)
		}
	}
	return m, nil
}

func (d *DB) MessageCount() (int, error) {
	var n int
	err := d.db.QueryRow("SELECT COUNT(*) FROM messages").Scan(&n)
	return n, err
}

func (d *DB) SourceCount() (int, error) {
	var n int
	err := d.db.QueryRow("SELECT COUNT(*) FROM sources").Scan(&n)
	return n, err
}

// GetMessage returns the message at seq, or nil when there is none.
func (d *DB) GetMessage(seq int) (*MessageRow, error) {
	m, err := ScanMessage(d.db.QueryRow("SELECT "+MessageColumns+" FROM messages WHERE seq = ?", seq))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &m, nil
}

// GetMessages returns the whole canonical sequence in order.
func (d *DB) GetMessages() ([]MessageRow, error) {
	rows, err := d.db.Query("SELECT " + MessageColumns + " FROM messages ORDER BY seq")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var msgs []MessageRow
	for rows.Next() {
		m, err := ScanMessage(rows)
		if err != nil {
			return nil, err
		}
		msgs = append(msgs, m)
	}
	return msgs, rows.Err()
}

// GetMessagesWindow returns up to context messages on either side of seq,
// plus the index of seq within the returned slice (-1 if it is not stored)
// and the total number of messages.
func (d *DB) GetMessagesWindow(seq, context int) (msgs []MessageRow, hitIdx int, total int, err error) {
	if err = d.db.QueryRow("SELECT COUNT(*) FROM messages").Scan(&total); err != nil {
		return nil, -1, 0, err
	}

	rows, err := d.db.Query(
		"SELECT "+MessageColumns+" FROM messages WHERE seq BETWEEN ? AND ? ORDER BY seq",
		seq-context, seq+context,
	)
	if err != nil {
		return nil, -1, 0, err
	}
	defer rows.Close()

	hitIdx = -1
	for rows.Next() {
		m, err := ScanMessage(rows)
		if err != nil {
			return nil, -1, 0, err
		}
		if m.Seq == seq {
			hitIdx = len(msgs)
		}
		msgs = append(msgs, m)
	}
	return msgs, hitIdx, total, rows.Err()
}

type SourceRow struct {
	Path     string
	Kind     string
	Mtime    int64
	Size     int64
	Messages int
	Error    string
}

// Sources lists the inputs of the last ingest, failed ones included.
func (d *DB) Sources() ([]SourceRow, error) {
	rows, err := d.db.Query("SELECT path, kind, mtime, size, messages, error FROM sources ORDER BY path")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []SourceRow
	for rows.Next() {
		var s SourceRow
		if err := rows.Scan(&s.Path, &s.Kind, &s.Mtime, &s.Size, &s.Messages, &s.Error); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

type RunRow struct {
	ID          string
	StartedAt   string
	FinishedAt  string
	Window      string
	Files       int
	Errors      int
	Parsed      int
	Duplicates  int
	OutOfWindow int
	Kept        int
}

// LastRun returns the most recent ingest, or nil before the first one.
func (d *DB) LastRun() (*RunRow, error) {
	var r RunRow
	err := d.db.QueryRow(`
		SELECT id, started_at, finished_at, date_window, files, errors, parsed, duplicates, out_of_window, kept
		FROM runs ORDER BY finished_at DESC, rowid DESC LIMIT 1`,
	).Scan(&r.ID, &r.StartedAt, &r.FinishedAt, &r.Window, &r.Files, &r.Errors,
		&r.Parsed, &r.Duplicates, &r.OutOfWindow, &r.Kept)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &r, nil
}
