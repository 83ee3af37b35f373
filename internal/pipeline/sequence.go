package pipeline

import (
	"sort"

	"github.com/Zuo-Peng/chatdigest/internal/parse"
)

// Sequence returns msgs stably sorted by timestamp string. Canonical stamps
// are fixed width, so this is chronological; an empty timestamp sorts first.
// msgs is not modified.
func Sequence(msgs []parse.Message) []parse.Message {
	out := make([]parse.Message, len(msgs))
	copy(out, msgs)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Timestamp < out[j].Timestamp
	})
	return out
}
