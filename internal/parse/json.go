package parse

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// jsonRecord accepts the field aliases seen in JSON chat exports.
type jsonRecord struct {
	Time      json.RawMessage `json:"time"`
	Timestamp json.RawMessage `json:"timestamp"`
	Sender    string          `json:"sender"`
	From      string          `json:"from"`
	Content   string          `json:"content"`
	Text      string          `json:"text"`
	Images    []string        `json:"images"`
}

// ParseJSON reads a JSON export: an array of records, or an object with a
// "messages" array. Records skip the line machine entirely.
func (p *Parser) ParseJSON(path string) (*ParseResult, error) {
	data, meta, err := readSource(path, KindJSON)
	if err != nil {
		return nil, err
	}
	msgs, err := p.DecodeJSON(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	for i := range msgs {
		msgs[i].SourceFile = path
	}
	return &ParseResult{Source: meta, Messages: msgs}, nil
}

// DecodeJSON converts JSON records into messages. Records without content
// are dropped.
func (p *Parser) DecodeJSON(data []byte) ([]Message, error) {
	var records []jsonRecord

	trimmed := bytes.TrimSpace(data)
	if len(trimmed) > 0 && trimmed[0] == '{' {
		var wrapper struct {
			Messages []jsonRecord `json:"messages"`
		}
		if err := json.Unmarshal(trimmed, &wrapper); err != nil {
			return nil, fmt.Errorf("decode json: %w", err)
		}
		records = wrapper.Messages
	} else if err := json.Unmarshal(trimmed, &records); err != nil {
		return nil, fmt.Errorf("decode json: %w", err)
	}

	msgs := make([]Message, 0, len(records))
	for _, r := range records {
		content := strings.TrimSpace(firstNonEmpty(r.Content, r.Text))
		if content == "" {
			continue
		}
		raw := r.Time
		if len(raw) == 0 {
			raw = r.Timestamp
		}
		sender := strings.TrimSpace(firstNonEmpty(r.Sender, r.From))
		if sender == "" {
			sender = UnknownSender
		}
		msgs = append(msgs, Message{
			Timestamp: p.jsonTimestamp(raw),
			Sender:    sender,
			Content:   content,
			Images:    r.Images,
		})
	}
	return msgs, nil
}

// jsonTimestamp canonicalizes a time field: a stamp string, a bare date, or
// a unix epoch in seconds or milliseconds. Anything else yields "".
func (p *Parser) jsonTimestamp(raw json.RawMessage) string {
	if len(raw) == 0 || string(raw) == "null" {
		return ""
	}

	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		s = string(raw) // a JSON number
	}
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}

	if ts, ok := CanonicalTimestamp(s); ok {
		return ts
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t.In(p.location).Format(TimestampLayout)
	}
	if n, err := strconv.ParseFloat(s, 64); err == nil && n > 0 {
		return p.fromEpoch(n)
	}
	if d := ExtractDate(s); d != "" {
		return d + " 00:00:00"
	}
	return ""
}

func (p *Parser) fromEpoch(n float64) string {
	var t time.Time
	if n > 1e12 {
		t = time.UnixMilli(int64(n))
	} else {
		t = time.Unix(int64(n), 0)
	}
	return t.In(p.location).Format(TimestampLayout)
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
