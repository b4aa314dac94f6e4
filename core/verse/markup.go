package verse

import (
	"strings"
	"unicode"

	"github.com/FocuswithJustin/JuniperSongs/core/encoding"
)

// element is one <verse> element found by the markup scanner.
type element struct {
	// rawAttrs is the attribute text between the tag name and the closing '>'.
	rawAttrs string
	attrs    map[string]string
	// body is the raw element content, CDATA and entities still encoded.
	body string
}

// lyricsRegion returns the content of an outer <lyrics> container, or s itself when there
// is none. A container without a closing tag runs to the end of the input.
func lyricsRegion(s string) string {
	start := indexTag(s, 0, "lyrics")
	if start < 0 {
		return s
	}
	open, _ := tagEnd(s, start)
	if open < 0 {
		return s
	}
	closeIdx := strings.Index(s[open:], "</lyrics")
	if closeIdx < 0 {
		return s[open:]
	}
	return s[open : open+closeIdx]
}

// scanElements returns the verse elements of s in document order. Elements without a
// closing tag end the scan.
func scanElements(s string) []element {
	var out []element
	pos := 0
	for pos < len(s) {
		start := indexTag(s, pos, "verse")
		if start < 0 {
			break
		}
		open, selfClosing := tagEnd(s, start)
		if open < 0 {
			break
		}

		raw := s[start+len("<verse") : open-1]
		if selfClosing {
			raw = strings.TrimSuffix(strings.TrimRightFunc(raw, unicode.IsSpace), "/")
			out = append(out, element{rawAttrs: raw, attrs: parseAttrs(raw)})
			pos = open
			continue
		}

		// A CDATA section may contain a literal "</verse>", so skip past it first.
		searchFrom := open
		body := strings.TrimLeftFunc(s[open:], unicode.IsSpace)
		if strings.HasPrefix(body, cdataOpen) {
			cdataStart := len(s) - len(body)
			if end := strings.Index(s[cdataStart:], cdataClose); end >= 0 {
				searchFrom = cdataStart + end + len(cdataClose)
			}
		}

		closeIdx := strings.Index(s[searchFrom:], "</verse")
		if closeIdx < 0 {
			break
		}
		closeAt := searchFrom + closeIdx
		next := len(s)
		if gt := strings.IndexByte(s[closeAt:], '>'); gt >= 0 {
			next = closeAt + gt + 1
		}

		out = append(out, element{rawAttrs: raw, attrs: parseAttrs(raw), body: s[open:closeAt]})
		pos = next
	}
	return out
}

// indexTag returns the index of the next "<name" open tag at or after from, where name is
// followed by whitespace, '>', '/' or the end of input.
func indexTag(s string, from int, name string) int {
	needle := "<" + name
	for from <= len(s) {
		i := strings.Index(s[from:], needle)
		if i < 0 {
			return -1
		}
		at := from + i
		after := at + len(needle)
		if after == len(s) || isTagBoundary(s[after]) {
			return at
		}
		from = after
	}
	return -1
}

func isTagBoundary(c byte) bool {
	return c == '>' || c == '/' || c == ' ' || c == '\t' || c == '\n' || c == '\r'
}

// tagEnd returns the index just past the '>' closing the tag that starts at start, and
// whether the tag is self-closing. Quoted attribute values may contain '>'.
func tagEnd(s string, start int) (int, bool) {
	var quote byte
	for i := start + 1; i < len(s); i++ {
		c := s[i]
		switch {
		case quote != 0:
			if c == quote {
				quote = 0
			}
		case c == '"' || c == '\'':
			quote = c
		case c == '>':
			return i + 1, i > start && s[i-1] == '/'
		}
	}
	return -1, false
}

// parseAttrs reads name=value pairs in any order. Values may be double-quoted,
// single-quoted or bare; names are lower-cased and values entity-decoded.
// The first occurrence of a name wins.
func parseAttrs(raw string) map[string]string {
	attrs := make(map[string]string)
	i := 0
	for i < len(raw) {
		for i < len(raw) && isSpaceByte(raw[i]) {
			i++
		}
		nameStart := i
		for i < len(raw) && !isSpaceByte(raw[i]) && raw[i] != '=' && raw[i] != '/' && raw[i] != '>' {
			i++
		}
		name := strings.ToLower(raw[nameStart:i])
		if name == "" {
			i++
			continue
		}

		for i < len(raw) && isSpaceByte(raw[i]) {
			i++
		}
		value := ""
		if i < len(raw) && raw[i] == '=' {
			i++
			for i < len(raw) && isSpaceByte(raw[i]) {
				i++
			}
			if i < len(raw) && (raw[i] == '"' || raw[i] == '\'') {
				quote := raw[i]
				i++
				valueStart := i
				for i < len(raw) && raw[i] != quote {
					i++
				}
				value = raw[valueStart:i]
				i++
			} else {
				valueStart := i
				for i < len(raw) && !isSpaceByte(raw[i]) {
					i++
				}
				value = raw[valueStart:i]
			}
		}

		if _, seen := attrs[name]; !seen {
			attrs[name] = encoding.DecodeEntities(value)
		}
	}
	return attrs
}

func isSpaceByte(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r'
}

const (
	cdataOpen  = "<![CDATA["
	cdataClose = "]]>"
)

// elementContent unwraps CDATA and decodes entities on the trimmed element body.
func elementContent(body string) string {
	content := strings.TrimSpace(body)
	if rest, ok := strings.CutPrefix(content, cdataOpen); ok {
		if end := strings.Index(rest, cdataClose); end >= 0 {
			rest = rest[:end]
		}
		content = strings.TrimSpace(rest)
	}
	return encoding.DecodeEntities(content)
}

// attrStrategy derives a type and label from a verse element's attributes.
type attrStrategy struct {
	name    string
	resolve func(el element) (Type, string, bool)
}

// attrStrategies are tried in order; the first that succeeds names the element.
// Elements no strategy recognizes are bare verses with no label.
var attrStrategies = []attrStrategy{
	{"type+label", typeAndLabel},
	{"label", labelOnly},
	{"type", typeOnly},
	{"raw-identifier", rawIdentifier},
}

// resolveAttrs returns the type and label for an element.
func resolveAttrs(el element) (Type, string) {
	for _, s := range attrStrategies {
		if t, label, ok := s.resolve(el); ok {
			return t, label
		}
	}
	return TypeVerse, ""
}

// typeAndLabel handles elements carrying both attributes. The label gets the type's
// prefix prepended unless it already starts with it: type="c" label="1" gives "c1".
func typeAndLabel(el element) (Type, string, bool) {
	label := strings.TrimSpace(el.attrs["label"])
	t, ok := ParseType(el.attrs["type"])
	if !ok || label == "" {
		return "", "", false
	}
	prefix := t.Prefix()
	if !strings.HasPrefix(strings.ToLower(label), prefix) {
		label = prefix + label
	}
	return t, label, true
}

// labelOnly derives the type from the label's leading word or letter.
func labelOnly(el element) (Type, string, bool) {
	label := strings.TrimSpace(el.attrs["label"])
	if label == "" {
		return "", "", false
	}
	return typeFromLabel(label), label, true
}

func typeOnly(el element) (Type, string, bool) {
	t, ok := ParseType(el.attrs["type"])
	if !ok {
		return "", "", false
	}
	return t, "", true
}

// rawIdentifier re-scans the raw attribute text for an identifier such as name="v1" or
// a malformed label=c2".
func rawIdentifier(el element) (Type, string, bool) {
	fields := strings.FieldsFunc(el.rawAttrs, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	for _, f := range fields {
		id := strings.ToLower(f)
		if t, _, ok := SplitID(id); ok {
			return t, id, true
		}
	}
	return "", "", false
}

// typeFromLabel resolves the type a label implies: a leading type word ("Chorus 2",
// "Refrain") first, then the leading prefix letter, then verse.
func typeFromLabel(label string) Type {
	word := strings.FieldsFunc(label, func(r rune) bool { return !unicode.IsLetter(r) })
	if len(word) > 0 && strings.HasPrefix(label, word[0]) {
		if t, ok := ParseType(word[0]); ok {
			return t
		}
	}
	if t, ok := TypeFromPrefix(label[0]); ok {
		return t
	}
	return TypeVerse
}
