package api

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/google/uuid"

	songerrors "github.com/FocuswithJustin/JuniperSongs/core/errors"
	"github.com/FocuswithJustin/JuniperSongs/core/song"
	"github.com/FocuswithJustin/JuniperSongs/core/verse"
	"github.com/FocuswithJustin/JuniperSongs/internal/logging"
)

// SongRequest is the body of POST /songs and PUT /songs/:id. Lyrics may be a markup or plain
// text string, or a legacy array of verse objects.
type SongRequest struct {
	Title      string          `json:"title"`
	Author     string          `json:"author,omitempty"`
	Copyright  string          `json:"copyright,omitempty"`
	CCLI       string          `json:"ccli,omitempty"`
	Lyrics     json.RawMessage `json:"lyrics,omitempty"`
	VerseOrder string          `json:"verse_order,omitempty"`
	Revision   string          `json:"revision,omitempty"`
}

// SequenceInfo is the performance sequence of a song.
type SequenceInfo struct {
	ID       string        `json:"id"`
	Order    string        `json:"order"`
	Verses   []verse.Verse `json:"verses"`
	Dangling []int         `json:"dangling,omitempty"`
}

func (req SongRequest) song() (song.Song, error) {
	lyrics, err := song.DecodeLyrics(req.Lyrics)
	if err != nil {
		return song.Song{}, err
	}
	return song.Song{
		Title:      req.Title,
		Author:     req.Author,
		Copyright:  req.Copyright,
		CCLI:       req.CCLI,
		Lyrics:     lyrics,
		VerseOrder: req.VerseOrder,
		Revision:   req.Revision,
	}, nil
}

func (s *Server) handleSongs(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		s.listSongsHandler(w, r)
	case http.MethodPost:
		s.createSongHandler(w, r)
	default:
		respondError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "Only GET and POST are allowed")
	}
}

func (s *Server) listSongsHandler(w http.ResponseWriter, r *http.Request) {
	songs, err := s.songs.GetOrLoad(songListKey, func() ([]song.Song, error) {
		return s.store.List(r.Context())
	})
	if err != nil {
		respondErr(w, r, err)
		return
	}

	if q := strings.ToLower(strings.TrimSpace(r.URL.Query().Get("q"))); q != "" {
		matched := make([]song.Song, 0, len(songs))
		for _, sg := range songs {
			if strings.Contains(strings.ToLower(sg.Title), q) || strings.Contains(strings.ToLower(sg.Author), q) {
				matched = append(matched, sg)
			}
		}
		songs = matched
	}

	respondWithMeta(w, http.StatusOK, songs, &APIMeta{Total: len(songs)})
}

func (s *Server) createSongHandler(w http.ResponseWriter, r *http.Request) {
	var req SongRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	in, err := req.song()
	if err != nil {
		respondErr(w, r, err)
		return
	}

	created, err := s.store.Create(r.Context(), in)
	if err != nil {
		respondErr(w, r, err)
		return
	}

	s.songChanged(r, "created", created)
	setETag(w, created.Revision)
	w.Header().Set("Location", "/songs/"+created.ID)
	respond(w, http.StatusCreated, created)
}

func (s *Server) handleSongByID(w http.ResponseWriter, r *http.Request) {
	id, ok := songID(w, r)
	if !ok {
		return
	}

	switch r.Method {
	case http.MethodGet:
		s.getSongHandler(w, r, id)
	case http.MethodPut:
		s.updateSongHandler(w, r, id)
	case http.MethodDelete:
		s.deleteSongHandler(w, r, id)
	default:
		respondError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "Only GET, PUT and DELETE are allowed")
	}
}

func (s *Server) getSongHandler(w http.ResponseWriter, r *http.Request, id string) {
	sg, err := s.store.Get(r.Context(), id)
	if err != nil {
		respondErr(w, r, err)
		return
	}
	setETag(w, sg.Revision)
	respond(w, http.StatusOK, sg)
}

func (s *Server) updateSongHandler(w http.ResponseWriter, r *http.Request, id string) {
	var req SongRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	in, err := req.song()
	if err != nil {
		respondErr(w, r, err)
		return
	}
	in.ID = id
	if match := ifMatch(r); match != "" {
		in.Revision = match
	}

	updated, err := s.store.Update(r.Context(), in)
	if err != nil {
		respondErr(w, r, err)
		return
	}

	s.songChanged(r, "updated", updated)
	setETag(w, updated.Revision)
	respond(w, http.StatusOK, updated)
}

func (s *Server) deleteSongHandler(w http.ResponseWriter, r *http.Request, id string) {
	if err := s.store.Delete(r.Context(), id); err != nil {
		respondErr(w, r, err)
		return
	}

	s.songChanged(r, "deleted", song.Song{ID: id})
	respond(w, http.StatusOK, map[string]string{"message": "Song deleted", "id": id})
}

func (s *Server) handleSongDraft(w http.ResponseWriter, r *http.Request) {
	sg, ok := s.loadSong(w, r)
	if !ok {
		return
	}
	setETag(w, sg.Revision)
	respond(w, http.StatusOK, sg.Draft())
}

func (s *Server) handleSongSequence(w http.ResponseWriter, r *http.Request) {
	sg, ok := s.loadSong(w, r)
	if !ok {
		return
	}
	seq := sg.Sequence()
	setETag(w, sg.Revision)
	respond(w, http.StatusOK, SequenceInfo{
		ID:       sg.ID,
		Order:    sg.VerseOrder,
		Verses:   seq,
		Dangling: verse.Dangling(seq),
	})
}

// loadSong fetches the song named in the path for read-only sub-resources.
func (s *Server) loadSong(w http.ResponseWriter, r *http.Request) (song.Song, bool) {
	if r.Method != http.MethodGet {
		respondError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "Only GET is allowed")
		return song.Song{}, false
	}
	id, ok := songID(w, r)
	if !ok {
		return song.Song{}, false
	}
	sg, err := s.store.Get(r.Context(), id)
	if err != nil {
		respondErr(w, r, err)
		return song.Song{}, false
	}
	return sg, true
}

// songChanged invalidates the list cache, logs and broadcasts a library change.
func (s *Server) songChanged(r *http.Request, action string, sg song.Song) {
	s.songs.Invalidate()
	logging.SongEvent(r.Context(), action, sg.ID, sg.Title, "revision", sg.Revision)
	s.hub.Broadcast(SongMessage{
		Type:     "song",
		Action:   action,
		SongID:   sg.ID,
		Title:    sg.Title,
		Revision: sg.Revision,
	})
}

func songID(w http.ResponseWriter, r *http.Request) (string, bool) {
	id := r.PathValue("id")
	if _, err := uuid.Parse(id); err != nil {
		validErr := songerrors.NewValidation("id", "must be a UUID")
		respondError(w, http.StatusBadRequest, "INVALID_ID", validErr.Error())
		return "", false
	}
	return id, true
}

func setETag(w http.ResponseWriter, revision string) {
	if revision != "" {
		w.Header().Set("ETag", `"`+revision+`"`)
	}
}

// ifMatch returns the revision named in the If-Match header, if any.
func ifMatch(r *http.Request) string {
	value := strings.TrimSpace(r.Header.Get("If-Match"))
	value = strings.TrimPrefix(value, "W/")
	return strings.Trim(value, `"`)
}
