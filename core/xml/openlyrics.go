package xml

import (
	"strings"
	"unicode"

	"github.com/antchfx/xmlquery"

	"github.com/FocuswithJustin/JuniperSongs/core/encoding"
	"github.com/FocuswithJustin/JuniperSongs/core/errors"
	"github.com/FocuswithJustin/JuniperSongs/core/verse"
)

// OpenLyricsNamespace is the XML namespace of OpenLyrics song documents.
const OpenLyricsNamespace = "http://openlyrics.info/namespace/2009/song"

// SongDocument is the content of an OpenLyrics document.
type SongDocument struct {
	Titles     []string
	Authors    []string
	Copyright  string
	CCLI       string
	VerseOrder string
	Verses     []verse.Verse
}

// Title returns the first title, or "" when the document has none.
func (d *SongDocument) Title() string {
	if len(d.Titles) == 0 {
		return ""
	}
	return d.Titles[0]
}

// Lyrics returns the verses in markup form.
func (d *SongDocument) Lyrics() string {
	return verse.Serialize(d.Verses)
}

// ReadSong reads an OpenLyrics document. Elements are matched by local name, so documents
// with or without the OpenLyrics namespace are accepted.
//
// Verse names such as "v1" or "c2" give the type and label; a type attribute is used when
// the name is not an identifier. Each <lines> element contributes one or more lines, with
// <br/> starting a new line; chords and comments inside lines are dropped. The verse order
// keeps only the verse references it contains, so part suffixes like "v1a" read as "v1".
func ReadSong(data []byte) (*SongDocument, error) {
	if result := Validate(data); !result.Valid {
		return nil, &errors.ParseError{Format: "OpenLyrics", Message: result.Errors[0].Message}
	}
	doc, err := Parse(data)
	if err != nil {
		return nil, &errors.ParseError{Format: "OpenLyrics", Message: err.Error(), Err: err}
	}

	root := doc.Root()
	if root == nil || root.Name() != "song" {
		return nil, errors.NewParse("OpenLyrics", "", "missing song element")
	}

	song := &SongDocument{
		Titles:    texts(root, "*[local-name()='properties']/*[local-name()='titles']/*[local-name()='title']"),
		Authors:   texts(root, "*[local-name()='properties']/*[local-name()='authors']/*[local-name()='author']"),
		Copyright: text(root, "*[local-name()='properties']/*[local-name()='copyright']"),
		CCLI:      text(root, "*[local-name()='properties']/*[local-name()='ccliNo']"),
	}
	if tokens, err := verse.ParseOrder(text(root, "*[local-name()='properties']/*[local-name()='verseOrder']")); err == nil {
		song.VerseOrder = verse.FormatOrder(tokens)
	}

	verses, err := root.XPath("*[local-name()='lyrics']/*[local-name()='verse']")
	if err != nil {
		return nil, err
	}
	for i, v := range verses {
		song.Verses = append(song.Verses, readVerse(v, i+1))
	}
	return song, nil
}

func readVerse(n *Node, order int) verse.Verse {
	v := verse.Verse{Order: order, Type: verse.TypeVerse}

	name := strings.ToLower(strings.TrimSpace(n.Attr("name")))
	if t, _, ok := verse.SplitID(name); ok {
		v.Type, v.Label = t, name
	} else if t, ok := verse.ParseType(n.Attr("type")); ok {
		v.Type = t
		v.Label = strings.TrimSpace(n.Attr("label"))
	} else {
		v.Label = strings.TrimSpace(n.Attr("label"))
	}

	var blocks []string
	for child := n.node.FirstChild; child != nil; child = child.NextSibling {
		if child.Type == xmlquery.ElementNode && child.Data == "lines" {
			blocks = append(blocks, linesText(child))
		}
	}
	if len(blocks) == 0 {
		blocks = append(blocks, collapseSpace(n.Text()))
	}
	v.Content = strings.TrimSpace(strings.Join(blocks, "\n"))
	return v
}

// linesText flattens a <lines> element into newline-separated text.
func linesText(lines *xmlquery.Node) string {
	var sb strings.Builder
	var walk func(*xmlquery.Node)
	walk = func(n *xmlquery.Node) {
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			switch c.Type {
			case xmlquery.TextNode, xmlquery.CharDataNode:
				sb.WriteString(collapseSpace(c.Data))
			case xmlquery.ElementNode:
				switch c.Data {
				case "br":
					sb.WriteString("\n")
				case "comment", "chord":
				default:
					walk(c)
				}
			}
		}
	}
	walk(lines)

	out := strings.Split(sb.String(), "\n")
	for i := range out {
		out[i] = strings.TrimSpace(out[i])
	}
	return strings.Join(out, "\n")
}

// collapseSpace replaces each run of whitespace with a single space.
func collapseSpace(s string) string {
	var sb strings.Builder
	space := false
	for _, r := range s {
		if unicode.IsSpace(r) {
			if !space {
				sb.WriteByte(' ')
			}
			space = true
			continue
		}
		space = false
		sb.WriteRune(r)
	}
	return sb.String()
}

func texts(n *Node, expr string) []string {
	nodes, err := n.XPath(expr)
	if err != nil {
		return nil
	}
	var out []string
	for _, t := range nodes {
		if s := strings.TrimSpace(t.Text()); s != "" {
			out = append(out, s)
		}
	}
	return out
}

func text(n *Node, expr string) string {
	found, err := n.XPathFirst(expr)
	if err != nil || found == nil {
		return ""
	}
	return strings.TrimSpace(found.Text())
}

// WriteSong renders a song as an OpenLyrics document. Empty verses are omitted and verse
// names are the records' canonical identifiers.
func WriteSong(d *SongDocument) []byte {
	var sb strings.Builder
	sb.WriteString(`<?xml version="1.0" encoding="UTF-8"?>` + "\n")
	sb.WriteString(`<song xmlns="` + OpenLyricsNamespace + `" version="0.9">` + "\n")
	sb.WriteString("  <properties>\n")

	sb.WriteString("    <titles>\n")
	for _, t := range d.Titles {
		sb.WriteString("      <title>" + encoding.EscapeXMLText(t) + "</title>\n")
	}
	sb.WriteString("    </titles>\n")
	if len(d.Authors) > 0 {
		sb.WriteString("    <authors>\n")
		for _, a := range d.Authors {
			sb.WriteString("      <author>" + encoding.EscapeXMLText(a) + "</author>\n")
		}
		sb.WriteString("    </authors>\n")
	}
	if d.Copyright != "" {
		sb.WriteString("    <copyright>" + encoding.EscapeXMLText(d.Copyright) + "</copyright>\n")
	}
	if d.CCLI != "" {
		sb.WriteString("    <ccliNo>" + encoding.EscapeXMLText(d.CCLI) + "</ccliNo>\n")
	}
	if d.VerseOrder != "" {
		sb.WriteString("    <verseOrder>" + encoding.EscapeXMLText(d.VerseOrder) + "</verseOrder>\n")
	}
	sb.WriteString("  </properties>\n")

	sb.WriteString("  <lyrics>\n")
	for _, v := range d.Verses {
		if v.IsPlaceholder() {
			continue
		}
		lines := strings.Split(v.Content, "\n")
		for i := range lines {
			lines[i] = encoding.EscapeXMLText(lines[i])
		}
		sb.WriteString(`    <verse name="` + encoding.EscapeXMLAttr(v.ID()) + `">` + "\n")
		sb.WriteString("      <lines>" + strings.Join(lines, "<br/>") + "</lines>\n")
		sb.WriteString("    </verse>\n")
	}
	sb.WriteString("  </lyrics>\n")
	sb.WriteString("</song>\n")
	return []byte(sb.String())
}
