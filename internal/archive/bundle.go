package archive

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/FocuswithJustin/JuniperSongs/core/cas"
	"github.com/FocuswithJustin/JuniperSongs/core/errors"
	"github.com/FocuswithJustin/JuniperSongs/core/song"
)

const (
	// ManifestName is the path of the manifest inside a bundle.
	ManifestName = "manifest.json"

	// BundleVersion is the manifest format written by WriteBundle.
	BundleVersion = 1

	songsDir = "songs"
)

// Manifest lists the songs in a bundle.
type Manifest struct {
	Version   int       `json:"version"`
	CreatedAt time.Time `json:"created_at"`
	Songs     []Entry   `json:"songs"`
}

// Entry describes one song document in a bundle.
type Entry struct {
	ID       string         `json:"id"`
	Title    string         `json:"title"`
	Path     string         `json:"path"`
	Checksum cas.HashResult `json:"checksum"`
}

// Bundle is the content of a bundle file.
type Bundle struct {
	Manifest Manifest
	Songs    []song.Song
}

// bundledSong accepts lyrics as a string or in the legacy array-wrapped form.
type bundledSong struct {
	song.Song
	Lyrics json.RawMessage `json:"lyrics"`
}

// WriteBundle writes songs to a bundle at path and returns its manifest.
func WriteBundle(path string, songs []song.Song, now time.Time) (*Manifest, error) {
	w, err := NewWriter(path, now)
	if err != nil {
		return nil, err
	}

	manifest := &Manifest{Version: BundleVersion, CreatedAt: now.UTC(), Songs: make([]Entry, 0, len(songs))}
	for _, s := range songs {
		data, err := json.MarshalIndent(s, "", "  ")
		if err != nil {
			w.Abort()
			return nil, fmt.Errorf("encode song %s: %w", s.ID, err)
		}
		entry := Entry{
			ID:       s.ID,
			Title:    s.Title,
			Path:     songsDir + "/" + s.ID + ".json",
			Checksum: cas.Sum(data),
		}
		if err := w.WriteFile(entry.Path, data); err != nil {
			w.Abort()
			return nil, err
		}
		manifest.Songs = append(manifest.Songs, entry)
	}

	data, err := json.MarshalIndent(manifest, "", "  ")
	if err != nil {
		w.Abort()
		return nil, fmt.Errorf("encode manifest: %w", err)
	}
	if err := w.WriteFile(ManifestName, data); err != nil {
		w.Abort()
		return nil, err
	}
	if err := w.Commit(); err != nil {
		return nil, err
	}
	return manifest, nil
}

// ReadManifest reads only the manifest of the bundle at path.
func ReadManifest(path string) (*Manifest, error) {
	data, err := ReadFile(path, ManifestName)
	if err != nil {
		return nil, err
	}
	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, &errors.ParseError{Format: "bundle manifest", Path: path, Message: err.Error(), Err: err}
	}
	return &m, nil
}

// ReadBundle reads the bundle at path. Every song listed in the manifest must be present
// and match its checksums; songs come back in manifest order.
func ReadBundle(path string) (*Bundle, error) {
	r, err := NewReader(path)
	if err != nil {
		return nil, err
	}
	defer r.Close()

	var (
		manifest *Manifest
		files    = make(map[string][]byte)
	)
	err = r.Walk(func(name string, data []byte) (bool, error) {
		if name == ManifestName {
			manifest = &Manifest{}
			if err := json.Unmarshal(data, manifest); err != nil {
				return true, &errors.ParseError{Format: "bundle manifest", Path: path, Message: err.Error(), Err: err}
			}
			return false, nil
		}
		if strings.HasPrefix(name, songsDir+"/") {
			files[name] = data
		}
		return false, nil
	})
	if err != nil {
		return nil, err
	}
	if manifest == nil {
		return nil, errors.NewParse("bundle", path, "missing "+ManifestName)
	}
	if manifest.Version > BundleVersion {
		return nil, errors.NewParse("bundle", path, fmt.Sprintf("unsupported version %d", manifest.Version))
	}

	bundle := &Bundle{Manifest: *manifest, Songs: make([]song.Song, 0, len(manifest.Songs))}
	for _, entry := range manifest.Songs {
		data, ok := files[entry.Path]
		if !ok {
			return nil, errors.NewParse("bundle", path, "missing "+entry.Path)
		}
		if err := cas.Verify(data, entry.Checksum); err != nil {
			return nil, &errors.ParseError{Format: "bundle", Path: entry.Path, Message: err.Error(), Err: err}
		}
		s, err := decodeSong(data)
		if err != nil {
			return nil, errors.Wrapf(err, "song %s", entry.ID)
		}
		bundle.Songs = append(bundle.Songs, s)
	}
	return bundle, nil
}

func decodeSong(data []byte) (song.Song, error) {
	var b bundledSong
	if err := json.Unmarshal(data, &b); err != nil {
		return song.Song{}, &errors.ParseError{Format: "song", Message: err.Error(), Err: err}
	}
	lyrics, err := song.DecodeLyrics(b.Lyrics)
	if err != nil {
		return song.Song{}, err
	}
	s := b.Song
	s.Lyrics = lyrics
	return s, nil
}
