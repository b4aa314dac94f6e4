package main

import (
	"encoding/json"
	"io"
	"strconv"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/FocuswithJustin/JuniperSongs/core/song"
	"github.com/FocuswithJustin/JuniperSongs/core/verse"
)

const previewWidth = 48

type columnAlignment int

const (
	alignLeft columnAlignment = iota
	alignRight
)

func renderTable(headers []string, rows [][]string, aligns []columnAlignment) string {
	columns := len(headers)
	if columns == 0 {
		return ""
	}

	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)

	header := make(table.Row, columns)
	for i := range columns {
		header[i] = headers[i]
	}
	tw.AppendHeader(header)

	for _, row := range rows {
		r := make(table.Row, columns)
		for i := range columns {
			if i < len(row) {
				r[i] = row[i]
			} else {
				r[i] = ""
			}
		}
		tw.AppendRow(r)
	}

	columnConfigs := make([]table.ColumnConfig, 0, columns)
	for i := range columns {
		align := text.AlignLeft
		if i < len(aligns) && aligns[i] == alignRight {
			align = text.AlignRight
		}
		columnConfigs = append(columnConfigs, table.ColumnConfig{
			Number:      i + 1,
			Align:       align,
			AlignHeader: text.AlignLeft,
		})
	}
	tw.SetColumnConfigs(columnConfigs)

	return tw.Render()
}

// verseTable lists records with their identifier and the first line of their text.
func verseTable(records []verse.Verse) string {
	rows := make([][]string, 0, len(records))
	for _, r := range records {
		id := r.ID()
		if r.IsPlaceholder() {
			id = "-"
		}
		rows = append(rows, []string{
			strconv.Itoa(r.Order),
			id,
			string(r.Type.Resolved()),
			r.Label,
			preview(r.Content),
		})
	}
	return renderTable(
		[]string{"#", "ID", "Type", "Label", "Text"},
		rows,
		[]columnAlignment{alignRight, alignLeft, alignLeft, alignLeft, alignLeft},
	)
}

func songTable(songs []song.Song) string {
	rows := make([][]string, 0, len(songs))
	for _, s := range songs {
		order := s.VerseOrder
		if order == "" {
			order = "-"
		}
		rows = append(rows, []string{
			s.ID,
			s.Title,
			s.Author,
			order,
			s.UpdatedAt.Local().Format("2006-01-02 15:04"),
		})
	}
	return renderTable(
		[]string{"ID", "Title", "Author", "Order", "Updated"},
		rows,
		[]columnAlignment{alignLeft, alignLeft, alignLeft, alignLeft, alignRight},
	)
}

// preview returns the first line of content, shortened to previewWidth runes.
func preview(content string) string {
	line, rest, more := strings.Cut(strings.TrimSpace(content), "\n")
	line = strings.TrimSpace(line)
	if r := []rune(line); len(r) > previewWidth {
		return string(r[:previewWidth-1]) + "…"
	}
	if more && strings.TrimSpace(rest) != "" {
		return line + " …"
	}
	return line
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
