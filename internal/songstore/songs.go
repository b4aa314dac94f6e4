package songstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/FocuswithJustin/JuniperSongs/core/cas"
	songerrors "github.com/FocuswithJustin/JuniperSongs/core/errors"
	"github.com/FocuswithJustin/JuniperSongs/core/song"
	"github.com/FocuswithJustin/JuniperSongs/internal/validation"
)

const songColumns = "id, title, author, copyright, ccli, lyrics, verse_order, revision, created_at, updated_at"

const upsertSQL = `INSERT INTO songs (` + songColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(id) DO UPDATE SET
    title = excluded.title,
    author = excluded.author,
    copyright = excluded.copyright,
    ccli = excluded.ccli,
    lyrics = excluded.lyrics,
    verse_order = excluded.verse_order,
    revision = excluded.revision,
    created_at = excluded.created_at,
    updated_at = excluded.updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

// prepare validates the editable fields and normalizes the lyrics in place.
func prepare(s *song.Song) error {
	s.Title = strings.TrimSpace(s.Title)
	s.Author = strings.TrimSpace(s.Author)
	s.Copyright = strings.TrimSpace(s.Copyright)
	s.CCLI = strings.TrimSpace(s.CCLI)
	if err := validation.ValidateSong(s.Title, s.Author, s.Copyright, s.CCLI, s.Lyrics); err != nil {
		return err
	}

	markup, order, err := song.Normalize(s.Lyrics, s.VerseOrder)
	if err != nil {
		return err
	}
	s.Lyrics = markup
	s.VerseOrder = order
	s.Revision = cas.Revision(markup, order)
	return nil
}

// Create stores a new song and returns it with its id, revision and timestamps assigned.
func (s *Store) Create(ctx context.Context, in song.Song) (song.Song, error) {
	if err := prepare(&in); err != nil {
		return song.Song{}, err
	}
	now := s.now().UTC()
	in.ID = uuid.NewString()
	in.CreatedAt = now
	in.UpdatedAt = now

	err := s.inTx(ctx, func(tx *sql.Tx) error {
		return insert(ctx, tx, in)
	})
	if err != nil {
		return song.Song{}, fmt.Errorf("create song: %w", err)
	}
	return in, nil
}

// Get returns the song with the given id.
func (s *Store) Get(ctx context.Context, id string) (song.Song, error) {
	row := s.db.QueryRowContext(ctx, "SELECT "+songColumns+" FROM songs WHERE id = ?", id)
	out, err := scanSong(row)
	if errors.Is(err, sql.ErrNoRows) {
		return song.Song{}, songerrors.NewNotFound("song", id)
	}
	if err != nil {
		return song.Song{}, fmt.Errorf("get song %s: %w", id, err)
	}
	return out, nil
}

// List returns every song ordered by title.
func (s *Store) List(ctx context.Context) ([]song.Song, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT "+songColumns+" FROM songs ORDER BY title COLLATE NOCASE, id")
	if err != nil {
		return nil, fmt.Errorf("list songs: %w", err)
	}
	defer rows.Close()

	songs := []song.Song{}
	for rows.Next() {
		out, err := scanSong(rows)
		if err != nil {
			return nil, fmt.Errorf("scan song: %w", err)
		}
		songs = append(songs, out)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate songs: %w", err)
	}
	return songs, nil
}

// Count returns the number of stored songs.
func (s *Store) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(1) FROM songs").Scan(&n); err != nil {
		return 0, fmt.Errorf("count songs: %w", err)
	}
	return n, nil
}

// Update replaces the editable fields of an existing song. When in.Revision is set it must
// match the stored revision, otherwise a ConflictError is returned and nothing is written.
func (s *Store) Update(ctx context.Context, in song.Song) (song.Song, error) {
	expected := in.Revision
	if err := prepare(&in); err != nil {
		return song.Song{}, err
	}

	var out song.Song
	err := s.inTx(ctx, func(tx *sql.Tx) error {
		row := tx.QueryRowContext(ctx, "SELECT "+songColumns+" FROM songs WHERE id = ?", in.ID)
		current, err := scanSong(row)
		if errors.Is(err, sql.ErrNoRows) {
			return songerrors.NewNotFound("song", in.ID)
		}
		if err != nil {
			return err
		}
		if expected != "" && expected != current.Revision {
			return songerrors.NewConflict(in.ID, expected, current.Revision)
		}

		in.CreatedAt = current.CreatedAt
		in.UpdatedAt = s.now().UTC()
		if _, err := tx.ExecContext(ctx, upsertSQL, songArgs(in)...); err != nil {
			return err
		}
		out = in
		return nil
	})
	if err != nil {
		return song.Song{}, wrapUnlessDomain(err, "update song "+in.ID)
	}
	return out, nil
}

// Delete removes the song with the given id.
func (s *Store) Delete(ctx context.Context, id string) error {
	var affected int64
	err := retryOnBusy(ctx, func() error {
		res, err := s.db.ExecContext(ctx, "DELETE FROM songs WHERE id = ?", id)
		if err != nil {
			return err
		}
		affected, err = res.RowsAffected()
		return err
	})
	if err != nil {
		return fmt.Errorf("delete song %s: %w", id, err)
	}
	if affected == 0 {
		return songerrors.NewNotFound("song", id)
	}
	return nil
}

// Restore writes songs from a backup, keeping their ids and creation times. Existing songs
// with the same id are overwritten. All songs are written in one transaction.
func (s *Store) Restore(ctx context.Context, songs []song.Song) (int, error) {
	prepared := make([]song.Song, 0, len(songs))
	now := s.now().UTC()
	for _, in := range songs {
		if err := prepare(&in); err != nil {
			return 0, fmt.Errorf("restore song %q: %w", in.Title, err)
		}
		if in.ID == "" {
			in.ID = uuid.NewString()
		} else if _, err := uuid.Parse(in.ID); err != nil {
			return 0, fmt.Errorf("restore song %q: %w", in.Title, songerrors.NewValidation("id", "must be a UUID"))
		}
		if in.CreatedAt.IsZero() {
			in.CreatedAt = now
		}
		if in.UpdatedAt.IsZero() {
			in.UpdatedAt = in.CreatedAt
		}
		prepared = append(prepared, in)
	}

	err := s.inTx(ctx, func(tx *sql.Tx) error {
		for _, in := range prepared {
			if _, err := tx.ExecContext(ctx, upsertSQL, songArgs(in)...); err != nil {
				return fmt.Errorf("write song %s: %w", in.ID, err)
			}
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("restore songs: %w", err)
	}
	s.logEvent("restore", "songs", len(prepared))
	return len(prepared), nil
}

func insert(ctx context.Context, tx *sql.Tx, in song.Song) error {
	_, err := tx.ExecContext(ctx,
		"INSERT INTO songs ("+songColumns+") VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)",
		songArgs(in)...)
	return err
}

func songArgs(in song.Song) []any {
	return []any{
		in.ID, in.Title, in.Author, in.Copyright, in.CCLI,
		in.Lyrics, in.VerseOrder, in.Revision,
		formatTime(in.CreatedAt), formatTime(in.UpdatedAt),
	}
}

func scanSong(row rowScanner) (song.Song, error) {
	var (
		out              song.Song
		created, updated string
	)
	if err := row.Scan(&out.ID, &out.Title, &out.Author, &out.Copyright, &out.CCLI,
		&out.Lyrics, &out.VerseOrder, &out.Revision, &created, &updated); err != nil {
		return song.Song{}, err
	}
	var err error
	if out.CreatedAt, err = parseTime(created); err != nil {
		return song.Song{}, err
	}
	if out.UpdatedAt, err = parseTime(updated); err != nil {
		return song.Song{}, err
	}
	return out, nil
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTime(value string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339Nano, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse timestamp %q: %w", value, err)
	}
	return t, nil
}

// wrapUnlessDomain adds context to storage failures but passes typed domain errors through.
func wrapUnlessDomain(err error, message string) error {
	if songerrors.Is(err, songerrors.ErrNotFound) || songerrors.Is(err, songerrors.ErrConflict) {
		return err
	}
	return fmt.Errorf("%s: %w", message, err)
}
