package verse

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestDetectFormat(t *testing.T) {
	tests := []struct {
		input string
		want  Format
	}{
		{"", FormatEmpty},
		{" \n\t", FormatEmpty},
		{"Amazing grace", FormatPlain},
		{`<verse label="v1">A</verse>`, FormatMarkup},
		{"  <song><lyrics><verse>A</verse></lyrics></song>", FormatMarkup},
		{"<p>no verses here</p>", FormatPlain},
		{"verse 1 <b>", FormatPlain},
	}

	for _, tt := range tests {
		if got := DetectFormat(tt.input); got != tt.want {
			t.Errorf("DetectFormat(%q) = %v, want %v", tt.input, got, tt.want)
		}
	}
}

func TestParse(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []Verse
	}{
		{
			name:  "empty",
			input: "",
			want:  []Verse{{Order: 1, Type: TypeVerse}},
		},
		{
			name:  "whitespace only",
			input: "  \n\n\t ",
			want:  []Verse{{Order: 1, Type: TypeVerse}},
		},
		{
			name:  "plain two blocks",
			input: "Line 1\n\nLine 2",
			want: []Verse{
				{Order: 1, Content: "Line 1", Type: TypeVerse},
				{Order: 2, Content: "Line 2", Type: TypeVerse},
			},
		},
		{
			name:  "plain single block keeps line breaks",
			input: "  Amazing grace\nhow sweet the sound  \n",
			want: []Verse{
				{Order: 1, Content: "Amazing grace\nhow sweet the sound", Type: TypeVerse},
			},
		},
		{
			name:  "plain long breaks and CRLF",
			input: "A\n\n\n\nB\r\n\r\nC\n \nD",
			want: []Verse{
				{Order: 1, Content: "A", Type: TypeVerse},
				{Order: 2, Content: "B", Type: TypeVerse},
				{Order: 3, Content: "C", Type: TypeVerse},
				{Order: 4, Content: "D", Type: TypeVerse},
			},
		},
		{
			name:  "labelled markup",
			input: `<verse label="v1">A</verse><verse label="c1">B</verse>`,
			want: []Verse{
				{Order: 1, Content: "A", Label: "v1", Type: TypeVerse},
				{Order: 2, Content: "B", Label: "c1", Type: TypeChorus},
			},
		},
		{
			name:  "type then label",
			input: `<verse type="c" label="1">Chorus</verse>`,
			want:  []Verse{{Order: 1, Content: "Chorus", Label: "c1", Type: TypeChorus}},
		},
		{
			name:  "label then type",
			input: `<verse label="2" type="verse">Second</verse>`,
			want:  []Verse{{Order: 1, Content: "Second", Label: "v2", Type: TypeVerse}},
		},
		{
			name:  "type and prefixed label",
			input: `<verse type="chorus" label="c2">Again</verse>`,
			want:  []Verse{{Order: 1, Content: "Again", Label: "c2", Type: TypeChorus}},
		},
		{
			name:  "type only",
			input: `<verse type="bridge">Bridge text</verse>`,
			want:  []Verse{{Order: 1, Content: "Bridge text", Type: TypeBridge}},
		},
		{
			name:  "raw identifier fallback",
			input: `<verse name="p1">Pre</verse>`,
			want:  []Verse{{Order: 1, Content: "Pre", Label: "p1", Type: TypePreChorus}},
		},
		{
			name:  "human label",
			input: `<verse label='Chorus 2'>Sing</verse>`,
			want:  []Verse{{Order: 1, Content: "Sing", Label: "Chorus 2", Type: TypeChorus}},
		},
		{
			name:  "bare element decodes entities",
			input: `<verse>Bare &amp; free &lt;3</verse>`,
			want:  []Verse{{Order: 1, Content: "Bare & free <3", Type: TypeVerse}},
		},
		{
			name:  "entity in label",
			input: `<verse label="Chorus &amp; 1">X</verse>`,
			want:  []Verse{{Order: 1, Content: "X", Label: "Chorus & 1", Type: TypeChorus}},
		},
		{
			name:  "multiline content trimmed",
			input: "<verse label=\"v1\">\n  Line a\nLine b\n</verse>",
			want:  []Verse{{Order: 1, Content: "Line a\nLine b", Label: "v1", Type: TypeVerse}},
		},
		{
			name:  "CDATA content",
			input: `<verse label="v1"><![CDATA[Holy <b>righteous</b>]]></verse>`,
			want:  []Verse{{Order: 1, Content: "Holy <b>righteous</b>", Label: "v1", Type: TypeVerse}},
		},
		{
			name:  "CDATA hiding a closing tag",
			input: `<verse label="v1"><![CDATA[a </verse> b]]></verse><verse label="v2">c</verse>`,
			want: []Verse{
				{Order: 1, Content: "a </verse> b", Label: "v1", Type: TypeVerse},
				{Order: 2, Content: "c", Label: "v2", Type: TypeVerse},
			},
		},
		{
			name:  "legacy song document",
			input: `<?xml version="1.0"?><song><title>T</title><lyrics><verse label="v1">A</verse><verse label="t1">End</verse></lyrics></song>`,
			want: []Verse{
				{Order: 1, Content: "A", Label: "v1", Type: TypeVerse},
				{Order: 2, Content: "End", Label: "t1", Type: TypeTag},
			},
		},
		{
			name:  "dangling lyrics container",
			input: `<song><lyrics><verse label="v1">A</verse><verse label="b1">B</verse>`,
			want: []Verse{
				{Order: 1, Content: "A", Label: "v1", Type: TypeVerse},
				{Order: 2, Content: "B", Label: "b1", Type: TypeBridge},
			},
		},
		{
			name:  "self-closing element is skipped",
			input: `<verse label="v1"/><verse label="v2">B</verse>`,
			want:  []Verse{{Order: 1, Content: "B", Label: "v2", Type: TypeVerse}},
		},
		{
			name:  "empty element is skipped",
			input: `<verse label="v1"></verse><verse label="v2">B</verse><verse label="c1">  </verse><verse label="c2">C</verse>`,
			want: []Verse{
				{Order: 1, Content: "B", Label: "v2", Type: TypeVerse},
				{Order: 2, Content: "C", Label: "c2", Type: TypeChorus},
			},
		},
		{
			name:  "only empty elements",
			input: `<verse label="v1"></verse><verse/>`,
			want:  []Verse{Placeholder()},
		},
		{
			name:  "wrapper with similar name",
			input: `<verses><verse label="v1">A</verse></verses>`,
			want:  []Verse{{Order: 1, Content: "A", Label: "v1", Type: TypeVerse}},
		},
		{
			name:  "quoted angle bracket in attribute",
			input: `<verse label="a>b1">X</verse>`,
			want:  []Verse{{Order: 1, Content: "X", Label: "a>b1", Type: TypeVerse}},
		},
		{
			name:  "unclosed markup falls back to plain text",
			input: "<verse>broken",
			want:  []Verse{{Order: 1, Content: "<verse>broken", Type: TypeVerse}},
		},
		{
			name:  "markup heuristic without elements",
			input: "<p>universe</p>\n\nsecond",
			want: []Verse{
				{Order: 1, Content: "<p>universe</p>", Type: TypeVerse},
				{Order: 2, Content: "second", Type: TypeVerse},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Parse(tt.input)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("Parse(%q) mismatch (-want +got):\n%s", tt.input, diff)
			}
		})
	}
}

func TestParseNeverEmpty(t *testing.T) {
	inputs := []string{
		"not xml, just text",
		"<verse>broken",
		"<verse",
		"<",
		"<lyrics>",
		"<song><lyrics></lyrics></song> verse",
		`<verse label="`,
		"<verse label=\"v1\"><![CDATA[never closed",
	}
	for _, in := range inputs {
		got := Parse(in)
		if len(got) == 0 {
			t.Errorf("Parse(%q) returned no records", in)
		}
		for i, r := range got {
			if r.Order != i+1 {
				t.Errorf("Parse(%q)[%d].Order = %d, want %d", in, i, r.Order, i+1)
			}
		}
	}
}

func TestParseAttrs(t *testing.T) {
	got := parseAttrs(` Label="c1" type='chorus' bare data=x1 label="ignored"`)
	want := map[string]string{
		"label": "c1",
		"type":  "chorus",
		"bare":  "",
		"data":  "x1",
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("parseAttrs() mismatch (-want +got):\n%s", diff)
	}
}

func TestLyricsRegion(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"<verse>A</verse>", "<verse>A</verse>"},
		{"<song><lyrics>X</lyrics></song>", "X"},
		{`<lyrics xml:lang="en">X`, "X"},
		{"<lyricsheet>X</lyricsheet>", "<lyricsheet>X</lyricsheet>"},
	}
	for _, tt := range tests {
		if got := lyricsRegion(tt.input); got != tt.want {
			t.Errorf("lyricsRegion(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}
