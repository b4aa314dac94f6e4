package song

import (
	"strings"

	"github.com/FocuswithJustin/JuniperSongs/core/errors"
	"github.com/FocuswithJustin/JuniperSongs/core/verse"
)

// Normalize converts lyrics in any accepted form into stored form: markup holding each
// unique source verse once, and a canonical order string.
//
// An order string must pass verse.ValidateOrder. When none is given and the lyrics repeat
// a verse, the lyrics are taken as a performance sequence and its order is kept.
func Normalize(lyrics, order string) (string, string, error) {
	if err := verse.ValidateOrder(order); err != nil {
		return "", "", &errors.ValidationError{
			Field:   "verse_order",
			Value:   order,
			Message: err.Error(),
			Err:     err,
		}
	}
	return Compose(Decompose(lyrics, order))
}

// Decompose splits lyrics into their unique source verses and an order string. A valid
// order is kept in canonical form; otherwise the order is contracted from the lyrics when
// they repeat a verse, and left empty when they do not.
func Decompose(lyrics, order string) Draft {
	seq := identified(verse.Parse(lyrics))
	sources := uniqueSources(seq)

	draft := Draft{Sources: sources}
	if strings.TrimSpace(order) != "" && verse.ValidateOrder(order) == nil {
		tokens, _ := verse.ParseOrder(order)
		draft.Order = verse.FormatOrder(tokens)
	} else if len(sources) < len(seq) {
		draft.Order = verse.ToOrderString(seq)
	}
	return draft
}

// Contract reduces a performance sequence to its unique source verses and the order string
// that rebuilds the sequence from them. Every token of the order names one of the returned
// sources, including choruses whose labels carry no number.
func Contract(records []verse.Verse) ([]verse.Verse, string) {
	seq := identified(records)
	sources := uniqueSources(seq)
	if sources == nil {
		sources = []verse.Verse{}
	}
	return sources, verse.ToOrderString(seq)
}

// Compose renders a draft back into stored form.
func Compose(d Draft) (string, string, error) {
	if err := verse.ValidateOrder(d.Order); err != nil {
		return "", "", &errors.ValidationError{
			Field:   "verse_order",
			Value:   d.Order,
			Message: err.Error(),
			Err:     err,
		}
	}

	order := ""
	if strings.TrimSpace(d.Order) != "" {
		tokens, _ := verse.ParseOrder(d.Order)
		order = verse.FormatOrder(tokens)
	}
	return verse.Serialize(d.Sources), order, nil
}

// Sequence returns the verses to display, in performance order. Verses an order string
// names but the lyrics lack come back as empty records at their position; lyrics with no
// text yield the single placeholder record.
func Sequence(lyrics, order string) []verse.Verse {
	records := verse.Parse(lyrics)
	if strings.TrimSpace(order) == "" {
		return records
	}
	expanded, err := verse.Expand(order, records)
	if err != nil {
		return records
	}
	return expanded
}

// identified drops empty records and stamps each remaining one with its identifier, so
// contraction and deduplication agree on what a record names.
func identified(records []verse.Verse) []verse.Verse {
	out := make([]verse.Verse, 0, len(records))
	for _, r := range records {
		if r.IsPlaceholder() {
			continue
		}
		r.SourceID = r.ID()
		out = append(out, r)
	}
	return out
}

// uniqueSources dedupes a sequence and renumbers the survivors. Renumbering would change
// the identifier of a record whose label carries no number, so such records are relabelled
// with the identifier that order strings refer to.
func uniqueSources(seq []verse.Verse) []verse.Verse {
	sources := verse.Dedupe(seq)
	for i := range sources {
		src := &sources[i]
		if verse.Normalize("", src.Label, src.Type, 0) != src.SourceID {
			src.Label = src.SourceID
		}
		src.Order = i + 1
	}
	return sources
}
