package search

import (
	"database/sql"
	"fmt"
	"strings"
	"unicode"

	"github.com/Zuo-Peng/chatdigest/internal/index"
)

type Result struct {
	index.MessageRow
	Snippet string
	Rank    float64
}

type Options struct {
	Query         string
	Sender        string // "" = all
	Subject       string // "" = all, "none" = unlabeled
	Since         string // "" = no filter, e.g. "2025-09-01"
	Until         string // inclusive
	QuestionsOnly bool
	Limit         int
}

// containsCJK returns true if the string contains any CJK Unified Ideograph.
// unicode61 does not segment Han text, so such queries go through LIKE.
func containsCJK(s string) bool {
	for _, r := range s {
		if unicode.Is(unicode.Han, r) {
			return true
		}
	}
	return false
}

// makeSnippet extracts a snippet around the first occurrence of query in text.
// Matching folds case rune by rune so positions line up with text.
func makeSnippet(text, query string, contextChars int) string {
	text = strings.ReplaceAll(text, "\n", " ")
	runes := []rune(text)
	q := []rune(query)
	runePos := indexFold(runes, q)
	if runePos < 0 {
		// no match, return head
		if len(runes) > contextChars*2 {
			return string(runes[:contextChars*2]) + "..."
		}
		return text
	}
	qLen := len(q)
	start := max(runePos-contextChars, 0)
	end := min(runePos+qLen+contextChars, len(runes))

	prefix, suffix := "", ""
	if start > 0 {
		prefix = "..."
	}
	if end < len(runes) {
		suffix = "..."
	}
	// wrap the matched part with markers
	snippet := string(runes[start:runePos]) +
		">>>" + string(runes[runePos:runePos+qLen]) + "<<<" +
		string(runes[runePos+qLen:end])
	return prefix + snippet + suffix
}

// indexFold returns the rune index of the first case-insensitive match of q
// in s, or -1.
func indexFold(s, q []rune) int {
	if len(q) == 0 {
		return -1
	}
	for i := 0; i+len(q) <= len(s); i++ {
		match := true
		for j, r := range q {
			if unicode.ToLower(s[i+j]) != unicode.ToLower(r) {
				match = false
				break
			}
		}
		if match {
			return i
		}
	}
	return -1
}

// Search finds messages matching opts.Query, best match first for FTS
// queries and in sequence order for CJK substring queries.
func Search(db *index.DB, opts Options) ([]Result, error) {
	if opts.Limit <= 0 {
		opts.Limit = 100
	}
	if strings.TrimSpace(opts.Query) == "" {
		return ListAll(db, opts)
	}
	if containsCJK(opts.Query) {
		return searchLike(db, opts)
	}
	return searchFTS(db, opts)
}

// ListAll returns the filtered sequence in order, without a text query.
func ListAll(db *index.DB, opts Options) ([]Result, error) {
	conditions, args := filters(opts)
	query := "SELECT " + columns("m") + ", '' AS snip, 0 AS rank FROM messages m"
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY m.seq"
	if opts.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, opts.Limit)
	}

	rows, err := db.Raw().Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("list query: %w", err)
	}
	defer rows.Close()

	results, err := scanResults(rows)
	if err != nil {
		return nil, err
	}
	for i := range results {
		results[i].Snippet = makeSnippet(results[i].Content, "", 30)
	}
	return results, nil
}

func searchFTS(db *index.DB, opts Options) ([]Result, error) {
	conditions, args := filters(opts)
	conditions = append([]string{"messages_fts MATCH ?"}, conditions...)
	args = append([]any{opts.Query}, args...)

	query := fmt.Sprintf(`
		SELECT
			%s,
			snippet(messages_fts, 0, '>>>', '<<<', '...', 40) AS snip,
			bm25(messages_fts) AS rank
		FROM messages_fts
		JOIN messages m ON messages_fts.rowid = m.seq
		WHERE %s
		ORDER BY rank
		LIMIT ?
	`, columns("m"), strings.Join(conditions, " AND "))
	args = append(args, opts.Limit)

	rows, err := db.Raw().Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("search query: %w", err)
	}
	defer rows.Close()

	return scanResults(rows)
}

func searchLike(db *index.DB, opts Options) ([]Result, error) {
	conditions, args := filters(opts)
	// LIKE match for CJK substring search
	conditions = append([]string{`m.content LIKE ? ESCAPE '\'`}, conditions...)
	args = append([]any{"%" + escapeLike(opts.Query) + "%"}, args...)

	query := fmt.Sprintf(`
		SELECT %s, '' AS snip, 0 AS rank
		FROM messages m
		WHERE %s
		ORDER BY m.seq
		LIMIT ?
	`, columns("m"), strings.Join(conditions, " AND "))
	args = append(args, opts.Limit)

	rows, err := db.Raw().Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("search query: %w", err)
	}
	defer rows.Close()

	results, err := scanResults(rows)
	if err != nil {
		return nil, err
	}
	for i := range results {
		results[i].Snippet = makeSnippet(results[i].Content, opts.Query, 30)
	}
	return results, nil
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, "%", `\%`, "_", `\_`)

// escapeLike makes % and _ in a query match literally.
func escapeLike(s string) string { return likeEscaper.Replace(s) }

func filters(opts Options) ([]string, []any) {
	var (
		conditions []string
		args       []any
	)
	if opts.Sender != "" {
		conditions = append(conditions, "m.sender = ?")
		args = append(args, opts.Sender)
	}
	switch opts.Subject {
	case "":
	case "none":
		conditions = append(conditions, "m.subject = ''")
	default:
		conditions = append(conditions, "m.subject = ?")
		args = append(args, opts.Subject)
	}
	// undated messages pass date filters, as they do in the pipeline
	if opts.Since != "" {
		conditions = append(conditions, "(m.ts = '' OR substr(m.ts, 1, 10) >= ?)")
		args = append(args, opts.Since)
	}
	if opts.Until != "" {
		conditions = append(conditions, "(m.ts = '' OR substr(m.ts, 1, 10) <= ?)")
		args = append(args, opts.Until)
	}
	if opts.QuestionsOnly {
		conditions = append(conditions, "m.is_question = 1")
	}
	return conditions, args
}

func columns(alias string) string {
	cols := strings.Split(index.MessageColumns, ", ")
	for i, c := range cols {
		cols[i] = alias + "." + c
	}
	return strings.Join(cols, ", ")
}

func scanResults(rows *sql.Rows) ([]Result, error) {
	var results []Result
	for rows.Next() {
		var (
			r       Result
			snippet string
			rank    float64
		)
		m, err := index.ScanMessage(scanTail{rows, &snippet, &rank})
		if err != nil {
			return nil, err
		}
		r.MessageRow, r.Snippet, r.Rank = m, snippet, rank
		results = append(results, r)
	}
	return results, rows.Err()
}

// scanTail appends the snippet and rank columns to a message scan.
type scanTail struct {
	rows    *sql.Rows
	snippet *string
	rank    *float64
}

func (s scanTail) Scan(dest ...any) error {
	return s.rows.Scan(append(dest, s.snippet, s.rank)...)
}
