// Package encoding provides the XML entity escaping shared by the lyric markup codecs.
package encoding

import "strings"

// Lyric markup uses exactly the five predefined XML entities, in named form, so stored
// lyrics stay readable and decode without a full XML parser.
var (
	entityEscaper = strings.NewReplacer(
		"&", "&amp;",
		"<", "&lt;",
		">", "&gt;",
		`"`, "&quot;",
		"'", "&apos;",
	)

	// Single pass, so "&amp;lt;" decodes to "&lt;" and not "<".
	entityDecoder = strings.NewReplacer(
		"&amp;", "&",
		"&lt;", "<",
		"&gt;", ">",
		"&quot;", `"`,
		"&apos;", "'",
	)

	textEscaper = strings.NewReplacer(
		"&", "&amp;",
		"<", "&lt;",
		">", "&gt;",
	)
)

// EscapeEntities escapes the five predefined XML entities (& < > " ').
func EscapeEntities(s string) string {
	if !strings.ContainsAny(s, `&<>"'`) {
		return s
	}
	return entityEscaper.Replace(s)
}

// DecodeEntities decodes the five predefined XML entities. Any other entity or numeric
// reference is left untouched.
func DecodeEntities(s string) string {
	if !strings.Contains(s, "&") {
		return s
	}
	return entityDecoder.Replace(s)
}

// EscapeXMLText escapes only the entities required inside element text (& < >).
func EscapeXMLText(s string) string {
	return textEscaper.Replace(s)
}

// EscapeXMLAttr escapes text for use in a double-quoted XML attribute.
func EscapeXMLAttr(s string) string {
	return strings.ReplaceAll(EscapeXMLText(s), `"`, "&quot;")
}
