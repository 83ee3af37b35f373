package pipeline

import "github.com/Zuo-Peng/chatdigest/internal/parse"

// Deduplicator drops messages whose content was already seen in this run,
// whatever their sender or timestamp. The first occurrence wins.
type Deduplicator struct {
	seen map[string]struct{}
}

func NewDeduplicator() *Deduplicator {
	return &Deduplicator{seen: make(map[string]struct{})}
}

// Apply returns the messages of msgs not seen before, in order, and the
// number dropped. The seen-set persists across calls until Reset.
func (d *Deduplicator) Apply(msgs []parse.Message) ([]parse.Message, int) {
	if d.seen == nil {
		d.seen = make(map[string]struct{})
	}
	out := make([]parse.Message, 0, len(msgs))
	for _, m := range msgs {
		if _, dup := d.seen[m.Content]; dup {
			continue
		}
		d.seen[m.Content] = struct{}{}
		out = append(out, m)
	}
	return out, len(msgs) - len(out)
}

func (d *Deduplicator) Reset() {
	clear(d.seen)
}

// Dedupe removes content duplicates from msgs using a fresh seen-set.
func Dedupe(msgs []parse.Message) []parse.Message {
	out, _ := NewDeduplicator().Apply(msgs)
	return out
}
