package verse

import "strings"

// Type is the kind of lyric unit a record represents.
type Type string

// Verse type constants.
const (
	TypeVerse     Type = "verse"
	TypeChorus    Type = "chorus"
	TypeBridge    Type = "bridge"
	TypePreChorus Type = "pre-chorus"
	TypeTag       Type = "tag"
)

// typePrefixes maps each type to its identifier prefix.
var typePrefixes = map[Type]string{
	TypeVerse:     "v",
	TypeChorus:    "c",
	TypeBridge:    "b",
	TypePreChorus: "p",
	TypeTag:       "t",
}

// prefixTypes is the inverse of typePrefixes.
var prefixTypes = map[byte]Type{
	'v': TypeVerse,
	'c': TypeChorus,
	'b': TypeBridge,
	'p': TypePreChorus,
	't': TypeTag,
}

// Types lists every verse type in display order.
var Types = []Type{TypeVerse, TypeChorus, TypeBridge, TypePreChorus, TypeTag}

// IsValid returns true if t is one of the known verse types.
func (t Type) IsValid() bool {
	_, ok := typePrefixes[t]
	return ok
}

// Prefix returns the identifier prefix for the type.
// Unknown or empty types use the verse prefix.
func (t Type) Prefix() string {
	if p, ok := typePrefixes[t]; ok {
		return p
	}
	return "v"
}

// Resolved returns t, or TypeVerse when t is empty or unknown.
func (t Type) Resolved() Type {
	if t.IsValid() {
		return t
	}
	return TypeVerse
}

// TypeFromPrefix returns the type whose prefix is the given letter (case-insensitive).
func TypeFromPrefix(c byte) (Type, bool) {
	if c >= 'A' && c <= 'Z' {
		c += 'a' - 'A'
	}
	t, ok := prefixTypes[c]
	return t, ok
}

// ParseType resolves a type attribute value. It accepts full names ("chorus",
// "Pre-Chorus", "prechorus") and single prefix letters ("c").
func ParseType(s string) (Type, bool) {
	s = strings.ToLower(strings.TrimSpace(s))
	switch s {
	case "":
		return "", false
	case "verse":
		return TypeVerse, true
	case "chorus", "refrain":
		return TypeChorus, true
	case "bridge":
		return TypeBridge, true
	case "pre-chorus", "prechorus", "pre chorus":
		return TypePreChorus, true
	case "tag", "ending":
		return TypeTag, true
	}
	if len(s) == 1 {
		return TypeFromPrefix(s[0])
	}
	return "", false
}

// Verse is one lyric unit of a song.
type Verse struct {
	// Order is the 1-based position of the record in its sequence.
	Order int `json:"order"`

	// Content is the decoded lyric text.
	Content string `json:"content"`

	// Label is the display tag found in the source (e.g. "v1", "Chorus 1"); empty when absent.
	Label string `json:"label,omitempty"`

	// Type is the kind of lyric unit.
	Type Type `json:"type"`

	// SourceID is the canonical identifier ("v1", "c2") when known.
	SourceID string `json:"source_id,omitempty"`
}

// ID returns the canonical identifier of the record.
func (v Verse) ID() string {
	return Normalize(v.SourceID, v.Label, v.Type, v.Order)
}

// IsPlaceholder reports whether the record carries no lyric text.
func (v Verse) IsPlaceholder() bool {
	return strings.TrimSpace(v.Content) == ""
}

// Placeholder returns the record standing in for a song with no lyrics yet.
func Placeholder() Verse {
	return Verse{Order: 1, Type: TypeVerse}
}

// Dangling returns the 1-based orders of records with no content, which Expand emits for
// order-string tokens that name a missing source verse.
func Dangling(records []Verse) []int {
	var out []int
	for _, r := range records {
		if r.IsPlaceholder() {
			out = append(out, r.Order)
		}
	}
	return out
}
