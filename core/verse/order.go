package verse

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"
)

// ErrInvalidOrderFormat is returned for an order string that names no verse, or, from
// ValidateOrder, one that contains anything besides verse references.
var ErrInvalidOrderFormat = errors.New("invalid order format")

// OrderToken is one reference in an order string.
type OrderToken struct {
	// ID is the lower-cased reference, e.g. "c1".
	ID string `json:"id"`

	// Type is the verse type named by the prefix letter.
	Type Type `json:"type"`

	// Number is the verse number, or -1 when it does not fit an int.
	Number int `json:"number"`
}

// orderGrammar is the participle grammar for order notation.
// Examples: "v1 c1 v2 c1", "V1 C1", "v1  b1\nt1"
//
//nolint:govet // participle grammar tags are not standard struct tags
type orderGrammar struct {
	Items []*orderItem `@@*`
}

//nolint:govet // participle grammar tags are not standard struct tags
type orderItem struct {
	Ref  string `  @Ref`
	Junk string `| @Junk`
}

// orderLexer splits order notation into references and stray characters.
// Ref is tried first, so "v12" is one reference while "x" or a lone "v" is junk.
var orderLexer = lexer.MustSimple([]lexer.SimpleRule{
	{Name: "Ref", Pattern: `[vcbptVCBPT][0-9]+`},
	{Name: "Junk", Pattern: `[^\s]`},
	{Name: "Whitespace", Pattern: `\s+`},
})

// orderParser is the participle parser for order notation.
var orderParser = participle.MustBuild[orderGrammar](
	participle.Lexer(orderLexer),
	participle.Elide("Whitespace"),
)

// scanOrder returns the references and stray characters of an order string.
func scanOrder(s string) ([]OrderToken, []string, error) {
	parsed, err := orderParser.ParseString("", s)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %q: %v", ErrInvalidOrderFormat, s, err)
	}

	var (
		tokens []OrderToken
		junk   []string
	)
	for _, item := range parsed.Items {
		if item.Ref == "" {
			junk = append(junk, item.Junk)
			continue
		}
		tokens = append(tokens, newOrderToken(item.Ref))
	}
	return tokens, junk, nil
}

func newOrderToken(ref string) OrderToken {
	ref = strings.ToLower(ref)
	t, _ := TypeFromPrefix(ref[0])
	n, err := strconv.Atoi(ref[1:])
	if err != nil {
		return OrderToken{ID: ref, Type: t, Number: -1}
	}
	return OrderToken{ID: t.Prefix() + strconv.Itoa(n), Type: t, Number: n}
}

// ParseOrder tokenizes an order string. Characters outside verse references are ignored;
// a non-empty string without any reference is an error. Blank input yields no tokens.
func ParseOrder(s string) ([]OrderToken, error) {
	if strings.TrimSpace(s) == "" {
		return nil, nil
	}
	tokens, _, err := scanOrder(s)
	if err != nil {
		return nil, err
	}
	if len(tokens) == 0 {
		return nil, fmt.Errorf("%w: %q names no verse", ErrInvalidOrderFormat, s)
	}
	return tokens, nil
}

// ValidateOrder checks an order string strictly before it is saved: it must be blank or
// consist only of whitespace-separated verse references.
func ValidateOrder(s string) error {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	tokens, junk, err := scanOrder(s)
	if err != nil {
		return err
	}
	if len(junk) > 0 {
		return fmt.Errorf("%w: unexpected %q in %q", ErrInvalidOrderFormat, junk[0], s)
	}
	if len(tokens) == 0 {
		return fmt.Errorf("%w: %q names no verse", ErrInvalidOrderFormat, s)
	}
	return nil
}

// FormatOrder joins token IDs into canonical order notation.
func FormatOrder(tokens []OrderToken) string {
	ids := make([]string, len(tokens))
	for i, tok := range tokens {
		ids[i] = tok.ID
	}
	return strings.Join(ids, " ")
}

// ToOrderString contracts a performance sequence into order notation. Each record
// contributes its type prefix and the number from its source ID or label; without one,
// choruses use 1 and other types their Order.
func ToOrderString(records []Verse) string {
	sorted := append([]Verse(nil), records...)
	sortByOrder(sorted)

	parts := make([]string, 0, len(sorted))
	for _, r := range sorted {
		digits, ok := recordNumber(r)
		if !ok {
			if r.Type.Resolved() == TypeChorus {
				digits = "1"
			} else {
				digits = strconv.Itoa(r.Order)
			}
		}
		parts = append(parts, r.Type.Prefix()+digits)
	}
	return strings.Join(parts, " ")
}

// Expand replays source verses in the sequence an order string names.
//
// A blank order string returns a copy of sources. Each token produces a new record with
// Order set to its 1-based position and SourceID set to the token, so a chorus named three
// times appears three times. A token naming a missing source yields an empty placeholder
// at its position rather than failing the expansion.
func Expand(order string, sources []Verse) ([]Verse, error) {
	if strings.TrimSpace(order) == "" {
		return append([]Verse(nil), sources...), nil
	}
	tokens, err := ParseOrder(order)
	if err != nil {
		return nil, err
	}

	idx := newSourceIndex(sources)
	out := make([]Verse, len(tokens))
	for i, tok := range tokens {
		src, ok := idx.lookup(tok)
		if !ok {
			out[i] = Verse{Order: i + 1, Type: tok.Type, SourceID: tok.ID}
			continue
		}
		out[i] = Verse{
			Order:    i + 1,
			Content:  src.Content,
			Label:    src.Label,
			Type:     src.Type.Resolved(),
			SourceID: tok.ID,
		}
	}
	return out, nil
}

type sourceKey struct {
	t Type
	n int
}

// sourceIndex finds source verses by the number in their label, falling back to their
// Order, so sources whose Order drifted from their label are still found.
type sourceIndex struct {
	byNumber map[sourceKey]Verse
	byOrder  map[sourceKey]Verse
}

func newSourceIndex(sources []Verse) *sourceIndex {
	idx := &sourceIndex{
		byNumber: make(map[sourceKey]Verse, len(sources)),
		byOrder:  make(map[sourceKey]Verse, len(sources)),
	}
	for _, src := range sources {
		t := src.Type.Resolved()
		if digits, ok := recordNumber(src); ok {
			if n, err := strconv.Atoi(digits); err == nil {
				key := sourceKey{t, n}
				if _, seen := idx.byNumber[key]; !seen {
					idx.byNumber[key] = src
				}
			}
		}
		key := sourceKey{t, src.Order}
		if _, seen := idx.byOrder[key]; !seen {
			idx.byOrder[key] = src
		}
	}
	return idx
}

func (idx *sourceIndex) lookup(tok OrderToken) (Verse, bool) {
	key := sourceKey{tok.Type, tok.Number}
	if v, ok := idx.byNumber[key]; ok {
		return v, true
	}
	v, ok := idx.byOrder[key]
	return v, ok
}
