package verse

import (
	"sort"
	"strconv"
	"strings"

	"github.com/FocuswithJustin/JuniperSongs/core/encoding"
)

// Serialize renders records as tagged markup: one <verse label="..."> element per record
// with non-empty content, in ascending Order, with no wrapping element.
// It returns "" when no record has content.
func Serialize(records []Verse) string {
	kept := make([]Verse, 0, len(records))
	for _, r := range records {
		if !r.IsPlaceholder() {
			kept = append(kept, r)
		}
	}
	if len(kept) == 0 {
		return ""
	}
	sortByOrder(kept)

	var sb strings.Builder
	for _, r := range kept {
		sb.WriteString(`<verse label="`)
		sb.WriteString(encoding.EscapeEntities(markupLabel(r)))
		sb.WriteString(`">`)
		sb.WriteString(encoding.EscapeEntities(r.Content))
		sb.WriteString("</verse>")
	}
	return sb.String()
}

// markupLabel picks the label written for a record. A label that already starts with the
// type prefix and carries a number is kept as the user wrote it; a numbered label with a
// different prefix is rebuilt on the type prefix; anything else is synthesized from the
// order. Choruses always synthesize as "c1".
// A prefixed label with no number is not kept: "chorus" on a chorus is written as "c1".
func markupLabel(r Verse) string {
	prefix := r.Type.Prefix()
	if label := strings.TrimSpace(r.Label); label != "" {
		if digits, ok := firstDigitRun(label); ok {
			if strings.HasPrefix(strings.ToLower(label), prefix) {
				return label
			}
			return prefix + digits
		}
	}
	if r.Type.Resolved() == TypeChorus {
		return "c1"
	}
	return prefix + strconv.Itoa(r.Order)
}

// sortByOrder sorts records in place by ascending Order, keeping input order for ties.
func sortByOrder(records []Verse) {
	sort.SliceStable(records, func(i, j int) bool {
		return records[i].Order < records[j].Order
	})
}
