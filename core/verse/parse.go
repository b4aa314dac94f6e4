package verse

import "strings"

// Format identifies a lyric representation.
type Format int

// Format constants.
const (
	FormatEmpty Format = iota
	FormatPlain
	FormatMarkup
)

// String returns the format name.
func (f Format) String() string {
	switch f {
	case FormatEmpty:
		return "empty"
	case FormatPlain:
		return "plain"
	case FormatMarkup:
		return "markup"
	default:
		return "unknown"
	}
}

// DetectFormat reports which representation input is in. Input that starts with '<' and
// mentions "verse" is treated as markup.
func DetectFormat(input string) Format {
	trimmed := strings.TrimSpace(input)
	switch {
	case trimmed == "":
		return FormatEmpty
	case strings.HasPrefix(trimmed, "<") && strings.Contains(trimmed, "verse"):
		return FormatMarkup
	default:
		return FormatPlain
	}
}

// Parse converts lyrics in either markup or plain text into records.
//
// Empty input yields the single placeholder record, as does markup whose verse elements
// are all empty. Markup that contains no recognizable verse element is parsed as plain
// text instead. Parse never fails; malformed input
// degrades to fewer, coarser records.
func Parse(input string) []Verse {
	switch DetectFormat(input) {
	case FormatEmpty:
		return []Verse{Placeholder()}
	case FormatMarkup:
		records, matched := parseMarkup(input)
		switch {
		case len(records) > 0:
			return records
		case matched:
			return []Verse{Placeholder()}
		}
		return parsePlain(input)
	default:
		return parsePlain(input)
	}
}

// parseMarkup parses verse elements, reporting whether any matched. Elements with no
// content are dropped and the rest are numbered from 1.
func parseMarkup(input string) ([]Verse, bool) {
	elements := scanElements(lyricsRegion(input))
	if len(elements) == 0 {
		return nil, false
	}

	records := make([]Verse, 0, len(elements))
	for _, el := range elements {
		content := elementContent(el.body)
		if content == "" {
			continue
		}
		t, label := resolveAttrs(el)
		records = append(records, Verse{
			Order:   len(records) + 1,
			Content: content,
			Label:   label,
			Type:    t,
		})
	}
	return records, true
}

// parsePlain splits text into blocks separated by one or more blank lines. Lines holding
// only whitespace count as blank.
func parsePlain(input string) []Verse {
	text := strings.ReplaceAll(input, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")

	var (
		records []Verse
		block   []string
	)
	flush := func() {
		content := strings.TrimSpace(strings.Join(block, "\n"))
		block = block[:0]
		if content == "" {
			return
		}
		records = append(records, Verse{
			Order:   len(records) + 1,
			Content: content,
			Type:    TypeVerse,
		})
	}

	for _, line := range strings.Split(text, "\n") {
		if strings.TrimSpace(line) == "" {
			flush()
			continue
		}
		block = append(block, line)
	}
	flush()

	if len(records) == 0 {
		return []Verse{Placeholder()}
	}
	return records
}
