package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/FocuswithJustin/JuniperSongs/core/song"
	"github.com/FocuswithJustin/JuniperSongs/core/xml"
	"github.com/FocuswithJustin/JuniperSongs/internal/archive"
	"github.com/FocuswithJustin/JuniperSongs/internal/songstore"
	"github.com/FocuswithJustin/JuniperSongs/internal/validation"
)

// SongsCmd groups the song library commands.
type SongsCmd struct {
	List   SongsListCmd   `cmd:"" help:"List songs"`
	Show   SongsShowCmd   `cmd:"" help:"Show a song in performance order"`
	Add    SongsAddCmd    `cmd:"" help:"Add a song"`
	Update SongsUpdateCmd `cmd:"" help:"Change a song"`
	Delete SongsDeleteCmd `cmd:"" help:"Delete a song"`
	Import SongsImportCmd `cmd:"" help:"Import songs from OpenLyrics, JSON, text or a bundle"`
	Export SongsExportCmd `cmd:"" help:"Export the library to a bundle"`
}

// withStore opens the song database for the duration of fn.
func withStore(env *Env, fn func(ctx context.Context, store *songstore.Store) error) error {
	ctx := context.Background()
	store, err := env.openStore(ctx)
	if err != nil {
		return err
	}
	defer store.Close()
	return fn(ctx, store)
}

// SongsListCmd lists the library.
type SongsListCmd struct {
	Query string `short:"q" help:"Only songs whose title or author contains this text"`
	JSON  bool   `name:"json" help:"Print songs as JSON"`
}

func (c *SongsListCmd) Run(env *Env) error {
	return withStore(env, func(ctx context.Context, store *songstore.Store) error {
		songs, err := store.List(ctx)
		if err != nil {
			return err
		}
		songs = filterSongs(songs, c.Query)

		if c.JSON {
			return writeJSON(env.Stdout, songs)
		}
		if len(songs) == 0 {
			fmt.Fprintln(env.Stdout, "No songs")
			return nil
		}
		fmt.Fprintln(env.Stdout, songTable(songs))
		return nil
	})
}

func filterSongs(songs []song.Song, query string) []song.Song {
	query = strings.ToLower(strings.TrimSpace(query))
	if query == "" {
		return songs
	}
	out := make([]song.Song, 0, len(songs))
	for _, s := range songs {
		if strings.Contains(strings.ToLower(s.Title), query) || strings.Contains(strings.ToLower(s.Author), query) {
			out = append(out, s)
		}
	}
	return out
}

// SongsShowCmd prints one song.
type SongsShowCmd struct {
	ID   string `arg:"" help:"Song ID"`
	JSON bool   `name:"json" help:"Print the stored song as JSON" xor:"format"`
	XML  bool   `name:"xml" help:"Print the song as OpenLyrics XML" xor:"format"`
}

func (c *SongsShowCmd) Run(env *Env) error {
	return withStore(env, func(ctx context.Context, store *songstore.Store) error {
		s, err := store.Get(ctx, c.ID)
		if err != nil {
			return err
		}

		switch {
		case c.JSON:
			return writeJSON(env.Stdout, s)
		case c.XML:
			_, err := env.Stdout.Write(xml.WriteSong(songDocument(s)))
			return err
		}

		fmt.Fprintf(env.Stdout, "Title:     %s\n", s.Title)
		if s.Author != "" {
			fmt.Fprintf(env.Stdout, "Author:    %s\n", s.Author)
		}
		if s.Copyright != "" {
			fmt.Fprintf(env.Stdout, "Copyright: %s\n", s.Copyright)
		}
		if s.CCLI != "" {
			fmt.Fprintf(env.Stdout, "CCLI:      %s\n", s.CCLI)
		}
		if s.VerseOrder != "" {
			fmt.Fprintf(env.Stdout, "Order:     %s\n", s.VerseOrder)
		}
		fmt.Fprintf(env.Stdout, "Revision:  %s\n", s.Revision)
		fmt.Fprintln(env.Stdout, verseTable(s.Sequence()))
		return nil
	})
}

func songDocument(s song.Song) *xml.SongDocument {
	doc := &xml.SongDocument{
		Titles:     []string{s.Title},
		Copyright:  s.Copyright,
		CCLI:       s.CCLI,
		VerseOrder: s.VerseOrder,
		Verses:     s.Draft().Sources,
	}
	if s.Author != "" {
		doc.Authors = strings.Split(s.Author, ", ")
	}
	return doc
}

// SongsAddCmd stores a new song from a lyrics file.
type SongsAddCmd struct {
	File      string `arg:"" optional:"" help:"Lyrics file (default: stdin)"`
	Title     string `required:"" help:"Song title"`
	Author    string `help:"Author"`
	Copyright string `help:"Copyright line"`
	CCLI      string `name:"ccli" help:"CCLI song number"`
	Order     string `help:"Verse order, e.g. \"v1 c1 v2 c1\""`
}

func (c *SongsAddCmd) Run(env *Env) error {
	lyrics, err := readInput(env, c.File)
	if err != nil {
		return err
	}
	return withStore(env, func(ctx context.Context, store *songstore.Store) error {
		created, err := store.Create(ctx, song.Song{
			Title:      c.Title,
			Author:     c.Author,
			Copyright:  c.Copyright,
			CCLI:       c.CCLI,
			Lyrics:     lyrics,
			VerseOrder: c.Order,
		})
		if err != nil {
			return err
		}
		fmt.Fprintf(env.Stdout, "Added %s (%s)\n", created.Title, created.ID)
		return nil
	})
}

// SongsUpdateCmd changes the given fields of a song. Unset flags keep their stored value.
type SongsUpdateCmd struct {
	ID         string `arg:"" help:"Song ID"`
	Title      string `help:"New title"`
	Author     string `help:"New author"`
	Copyright  string `help:"New copyright line"`
	CCLI       string `name:"ccli" help:"New CCLI song number"`
	Order      string `help:"New verse order" xor:"order"`
	ClearOrder bool   `help:"Remove the verse order" xor:"order"`
	Lyrics     string `help:"File with new lyrics (- for stdin)"`
	Revision   string `help:"Fail unless the song is still at this revision"`
}

func (c *SongsUpdateCmd) Run(env *Env) error {
	var lyrics string
	if c.Lyrics != "" {
		var err error
		if lyrics, err = readInput(env, c.Lyrics); err != nil {
			return err
		}
	}

	return withStore(env, func(ctx context.Context, store *songstore.Store) error {
		s, err := store.Get(ctx, c.ID)
		if err != nil {
			return err
		}
		if c.Revision != "" {
			s.Revision = c.Revision
		}
		setIf(&s.Title, c.Title)
		setIf(&s.Author, c.Author)
		setIf(&s.Copyright, c.Copyright)
		setIf(&s.CCLI, c.CCLI)
		setIf(&s.VerseOrder, c.Order)
		setIf(&s.Lyrics, lyrics)
		if c.ClearOrder {
			s.VerseOrder = ""
		}

		updated, err := store.Update(ctx, s)
		if err != nil {
			return err
		}
		fmt.Fprintf(env.Stdout, "Updated %s (revision %s)\n", updated.Title, updated.Revision)
		return nil
	})
}

func setIf(dst *string, value string) {
	if value != "" {
		*dst = value
	}
}

// SongsDeleteCmd removes a song.
type SongsDeleteCmd struct {
	ID string `arg:"" help:"Song ID"`
}

func (c *SongsDeleteCmd) Run(env *Env) error {
	return withStore(env, func(ctx context.Context, store *songstore.Store) error {
		if err := store.Delete(ctx, c.ID); err != nil {
			return err
		}
		fmt.Fprintf(env.Stdout, "Deleted %s\n", c.ID)
		return nil
	})
}

// SongsImportCmd adds songs from a file. The kind of file is taken from its extension and
// confirmed against its content.
type SongsImportCmd struct {
	Path  string `arg:"" type:"existingfile" help:"File to import (.xml, .json, .txt, .tar.xz, .tar.gz)"`
	Title string `help:"Title for a plain text import (default: file name)"`
}

// importedSong accepts lyrics as a string or in the legacy array-wrapped form.
type importedSong struct {
	song.Song
	Lyrics json.RawMessage `json:"lyrics"`
}

func (c *SongsImportCmd) Run(env *Env) error {
	info, err := os.Stat(c.Path)
	if err != nil {
		return err
	}
	if info.Size() > validation.MaxImportSize {
		return fmt.Errorf("%s is larger than %d bytes", c.Path, validation.MaxImportSize)
	}
	data, err := os.ReadFile(c.Path)
	if err != nil {
		return err
	}
	kind, err := validation.DetectImportType(bytes.NewReader(data), c.Path)
	if err != nil {
		return err
	}

	var songs []song.Song
	switch kind {
	case validation.FileTypeTarXZ, validation.FileTypeTarGZ:
		bundle, err := archive.ReadBundle(c.Path)
		if err != nil {
			return err
		}
		songs = bundle.Songs
	case validation.FileTypeXML:
		doc, err := xml.ReadSong(data)
		if err != nil {
			return err
		}
		songs = []song.Song{{
			Title:      doc.Title(),
			Author:     strings.Join(doc.Authors, ", "),
			Copyright:  doc.Copyright,
			CCLI:       doc.CCLI,
			Lyrics:     doc.Lyrics(),
			VerseOrder: doc.VerseOrder,
		}}
	case validation.FileTypeJSON:
		if songs, err = decodeSongs(data); err != nil {
			return err
		}
	case validation.FileTypeText:
		title := c.Title
		if title == "" {
			title = strings.TrimSuffix(filepath.Base(c.Path), filepath.Ext(c.Path))
		}
		songs = []song.Song{{Title: title, Lyrics: string(data)}}
	default:
		return fmt.Errorf("unsupported import file: %s", c.Path)
	}

	return withStore(env, func(ctx context.Context, store *songstore.Store) error {
		n, err := store.Restore(ctx, songs)
		if err != nil {
			return err
		}
		fmt.Fprintf(env.Stdout, "Imported %d song(s) from %s\n", n, c.Path)
		return nil
	})
}

// decodeSongs reads one song object or an array of them.
func decodeSongs(data []byte) ([]song.Song, error) {
	var docs []importedSong
	if trimmed := bytes.TrimSpace(data); len(trimmed) > 0 && trimmed[0] == '[' {
		if err := json.Unmarshal(trimmed, &docs); err != nil {
			return nil, fmt.Errorf("decode songs: %w", err)
		}
	} else {
		var doc importedSong
		if err := json.Unmarshal(trimmed, &doc); err != nil {
			return nil, fmt.Errorf("decode song: %w", err)
		}
		docs = append(docs, doc)
	}

	songs := make([]song.Song, 0, len(docs))
	for _, doc := range docs {
		lyrics, err := song.DecodeLyrics(doc.Lyrics)
		if err != nil {
			return nil, err
		}
		s := doc.Song
		s.Lyrics = lyrics
		songs = append(songs, s)
	}
	return songs, nil
}

// SongsExportCmd writes every song to a bundle.
type SongsExportCmd struct {
	Path string `arg:"" type:"path" help:"Bundle to write (.tar.xz or .tar.gz)"`
}

func (c *SongsExportCmd) Run(env *Env) error {
	return withStore(env, func(ctx context.Context, store *songstore.Store) error {
		songs, err := store.List(ctx)
		if err != nil {
			return err
		}
		manifest, err := archive.WriteBundle(c.Path, songs, time.Now())
		if err != nil {
			return err
		}
		fmt.Fprintf(env.Stdout, "Exported %d song(s) to %s\n", len(manifest.Songs), c.Path)
		return nil
	})
}
