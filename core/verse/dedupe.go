package verse

import (
	"strings"
	"unicode/utf8"
)

// Dedupe recovers the unique source verses of a performance sequence.
//
// Records are grouped by canonical identifier. Each group keeps the member with the
// longest trimmed content, so a verse stored truncated in one place and complete in
// another resolves to the complete text; ties keep the first member. Groups appear in
// first-seen order and each kept record has SourceID set to its identifier.
func Dedupe(records []Verse) []Verse {
	out := make([]Verse, 0, len(records))
	index := make(map[string]int, len(records))
	for _, r := range records {
		id := r.ID()
		r.SourceID = id
		i, seen := index[id]
		if !seen {
			index[id] = len(out)
			out = append(out, r)
			continue
		}
		if contentLength(r) > contentLength(out[i]) {
			out[i] = r
		}
	}
	return out
}

func contentLength(v Verse) int {
	return utf8.RuneCountInString(strings.TrimSpace(v.Content))
}
