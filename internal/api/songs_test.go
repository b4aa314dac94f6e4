package api

import (
	"net/http"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/FocuswithJustin/JuniperSongs/core/song"
	"github.com/FocuswithJustin/JuniperSongs/core/verse"
)

const performance = `<verse label="v1">Amazing grace</verse>` +
	`<verse label="c1">My chains are gone</verse>` +
	`<verse label="v2">Twas grace that taught</verse>` +
	`<verse label="c1">My chains are gone</verse>`

func createSong(t *testing.T, h http.Handler, body any) song.Song {
	t.Helper()
	w := doRequest(t, h, http.MethodPost, "/songs", body, nil)
	if w.Code != http.StatusCreated {
		t.Fatalf("expected status 201, got %d: %s", w.Code, w.Body.String())
	}
	var created song.Song
	decodeEnvelope(t, w, &created)
	return created
}

func TestCreateAndGetSong(t *testing.T) {
	_, h := newTestServer(t, Config{})

	w := doRequest(t, h, http.MethodPost, "/songs", map[string]any{
		"title":  "Amazing Grace",
		"author": "John Newton",
		"lyrics": performance,
	}, nil)
	if w.Code != http.StatusCreated {
		t.Fatalf("expected status 201, got %d: %s", w.Code, w.Body.String())
	}
	var created song.Song
	decodeEnvelope(t, w, &created)

	if created.VerseOrder != "v1 c1 v2 c1" {
		t.Errorf("expected contracted order, got %q", created.VerseOrder)
	}
	if got := w.Header().Get("ETag"); got != `"`+created.Revision+`"` {
		t.Errorf("expected ETag for revision %q, got %q", created.Revision, got)
	}
	if got := w.Header().Get("Location"); got != "/songs/"+created.ID {
		t.Errorf("expected Location header, got %q", got)
	}

	w = doRequest(t, h, http.MethodGet, "/songs/"+created.ID, nil, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", w.Code)
	}
	var got song.Song
	decodeEnvelope(t, w, &got)
	if diff := cmp.Diff(created, got); diff != "" {
		t.Errorf("song mismatch (-want +got):\n%s", diff)
	}
}

func TestCreateSongLegacyLyrics(t *testing.T) {
	_, h := newTestServer(t, Config{})

	created := createSong(t, h, `{"title":"Legacy","lyrics":[{"order":1,"content":"<verse label=\"v1\">Old</verse>"}]}`)
	if created.Lyrics != `<verse label="v1">Old</verse>` {
		t.Errorf("expected unwrapped lyrics, got %q", created.Lyrics)
	}
}

func TestCreateSongErrors(t *testing.T) {
	_, h := newTestServer(t, Config{})

	tests := []struct {
		name       string
		body       any
		headers    map[string]string
		wantStatus int
		wantCode   string
	}{
		{"malformed json", `{"title":`, nil, http.StatusBadRequest, "INVALID_JSON"},
		{"missing title", map[string]any{"lyrics": "x"}, nil, http.StatusBadRequest, "INVALID_INPUT"},
		{"bad order", map[string]any{"title": "T", "verse_order": "v1, c1"}, nil, http.StatusBadRequest, "INVALID_INPUT"},
		{"bad legacy lyrics", `{"title":"T","lyrics":[{"content":`, nil, http.StatusBadRequest, "INVALID_JSON"},
		{"wrong content type", `{"title":"T"}`, map[string]string{"Content-Type": "text/plain"}, http.StatusUnsupportedMediaType, "UNSUPPORTED_MEDIA_TYPE"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := doRequest(t, h, http.MethodPost, "/songs", tt.body, tt.headers)
			if w.Code != tt.wantStatus {
				t.Errorf("expected status %d, got %d", tt.wantStatus, w.Code)
			}
			env := decodeEnvelope(t, w, nil)
			if env.Error == nil || env.Error.Code != tt.wantCode {
				t.Errorf("expected error code %s, got %+v", tt.wantCode, env.Error)
			}
		})
	}
}

func TestListSongsCachedAndInvalidated(t *testing.T) {
	_, h := newTestServer(t, Config{CacheTTL: time.Hour})

	createSong(t, h, map[string]any{"title": "Be Thou My Vision"})

	w := doRequest(t, h, http.MethodGet, "/songs", nil, nil)
	var songs []song.Song
	env := decodeEnvelope(t, w, &songs)
	if len(songs) != 1 || env.Meta == nil || env.Meta.Total != 1 {
		t.Fatalf("expected one song, got %d (meta %+v)", len(songs), env.Meta)
	}

	// A mutation must invalidate the cached list.
	createSong(t, h, map[string]any{"title": "Amazing Grace", "author": "John Newton"})

	w = doRequest(t, h, http.MethodGet, "/songs", nil, nil)
	songs = nil
	decodeEnvelope(t, w, &songs)
	if len(songs) != 2 {
		t.Fatalf("expected two songs after create, got %d", len(songs))
	}
	if songs[0].Title != "Amazing Grace" {
		t.Errorf("expected title order, got %q first", songs[0].Title)
	}

	w = doRequest(t, h, http.MethodGet, "/songs?q=newton", nil, nil)
	songs = nil
	decodeEnvelope(t, w, &songs)
	if len(songs) != 1 || songs[0].Title != "Amazing Grace" {
		t.Errorf("expected author search to match Amazing Grace, got %+v", songs)
	}
}

func TestUpdateSongRevisions(t *testing.T) {
	_, h := newTestServer(t, Config{})
	created := createSong(t, h, map[string]any{"title": "Amazing Grace", "lyrics": performance})

	// If-Match carrying the current revision succeeds.
	w := doRequest(t, h, http.MethodPut, "/songs/"+created.ID, map[string]any{
		"title":       "Amazing Grace",
		"lyrics":      created.Lyrics,
		"verse_order": "v1 v2 c1",
	}, map[string]string{"If-Match": `"` + created.Revision + `"`})
	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", w.Code, w.Body.String())
	}
	var updated song.Song
	decodeEnvelope(t, w, &updated)
	if updated.VerseOrder != "v1 v2 c1" {
		t.Errorf("expected new order, got %q", updated.VerseOrder)
	}

	// The body revision is stale now.
	w = doRequest(t, h, http.MethodPut, "/songs/"+created.ID, map[string]any{
		"title":    "Stale edit",
		"revision": created.Revision,
	}, nil)
	if w.Code != http.StatusConflict {
		t.Errorf("expected status 409, got %d", w.Code)
	}
	env := decodeEnvelope(t, w, nil)
	if env.Error == nil || env.Error.Code != "CONFLICT" {
		t.Errorf("expected CONFLICT, got %+v", env.Error)
	}
}

func TestSongByIDErrors(t *testing.T) {
	_, h := newTestServer(t, Config{})
	missing := "7d9f3c1e-0000-4000-8000-000000000001"

	tests := []struct {
		name       string
		method     string
		path       string
		body       any
		wantStatus int
	}{
		{"invalid id", http.MethodGet, "/songs/not-a-uuid", nil, http.StatusBadRequest},
		{"missing song", http.MethodGet, "/songs/" + missing, nil, http.StatusNotFound},
		{"update missing", http.MethodPut, "/songs/" + missing, map[string]any{"title": "T"}, http.StatusNotFound},
		{"delete missing", http.MethodDelete, "/songs/" + missing, nil, http.StatusNotFound},
		{"method not allowed", http.MethodPatch, "/songs/" + missing, nil, http.StatusMethodNotAllowed},
		{"draft of missing", http.MethodGet, "/songs/" + missing + "/draft", nil, http.StatusNotFound},
		{"sequence via post", http.MethodPost, "/songs/" + missing + "/sequence", nil, http.StatusMethodNotAllowed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := doRequest(t, h, tt.method, tt.path, tt.body, nil)
			if w.Code != tt.wantStatus {
				t.Errorf("expected status %d, got %d", tt.wantStatus, w.Code)
			}
		})
	}
}

func TestDeleteSong(t *testing.T) {
	_, h := newTestServer(t, Config{CacheTTL: time.Hour})
	created := createSong(t, h, map[string]any{"title": "Doomed"})

	// Warm the cache.
	doRequest(t, h, http.MethodGet, "/songs", nil, nil)

	w := doRequest(t, h, http.MethodDelete, "/songs/"+created.ID, nil, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", w.Code)
	}

	w = doRequest(t, h, http.MethodGet, "/songs", nil, nil)
	var songs []song.Song
	decodeEnvelope(t, w, &songs)
	if len(songs) != 0 {
		t.Errorf("expected empty list after delete, got %d", len(songs))
	}
}

func TestSongDraftAndSequence(t *testing.T) {
	_, h := newTestServer(t, Config{})
	created := createSong(t, h, map[string]any{"title": "Amazing Grace", "lyrics": performance})

	w := doRequest(t, h, http.MethodGet, "/songs/"+created.ID+"/draft", nil, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", w.Code)
	}
	var draft song.Draft
	decodeEnvelope(t, w, &draft)
	if len(draft.Sources) != 3 {
		t.Errorf("expected 3 sources, got %d", len(draft.Sources))
	}
	if draft.Order != "v1 c1 v2 c1" {
		t.Errorf("expected order v1 c1 v2 c1, got %q", draft.Order)
	}

	w = doRequest(t, h, http.MethodGet, "/songs/"+created.ID+"/sequence", nil, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", w.Code)
	}
	var seq SequenceInfo
	decodeEnvelope(t, w, &seq)
	var ids []string
	for _, v := range seq.Verses {
		ids = append(ids, v.ID())
	}
	if diff := cmp.Diff([]string{"v1", "c1", "v2", "c1"}, ids); diff != "" {
		t.Errorf("sequence mismatch (-want +got):\n%s", diff)
	}
	if len(seq.Dangling) != 0 {
		t.Errorf("expected no dangling references, got %v", seq.Dangling)
	}
}

func TestSongSequenceDangling(t *testing.T) {
	_, h := newTestServer(t, Config{})
	created := createSong(t, h, map[string]any{
		"title":       "Unfinished",
		"lyrics":      `<verse label="v1">A</verse>`,
		"verse_order": "v1 c1",
	})

	w := doRequest(t, h, http.MethodGet, "/songs/"+created.ID+"/sequence", nil, nil)
	var seq SequenceInfo
	decodeEnvelope(t, w, &seq)
	if diff := cmp.Diff([]int{2}, seq.Dangling); diff != "" {
		t.Errorf("dangling mismatch (-want +got):\n%s", diff)
	}
	if len(seq.Verses) != 2 || seq.Verses[1].Type != verse.TypeChorus {
		t.Errorf("expected chorus placeholder in position 2, got %+v", seq.Verses)
	}
}

func TestIfMatch(t *testing.T) {
	tests := map[string]string{
		`"abc"`:   "abc",
		`W/"abc"`: "abc",
		"abc":     "abc",
		"":        "",
	}
	for header, want := range tests {
		req, _ := http.NewRequest(http.MethodPut, "/songs/x", nil)
		if header != "" {
			req.Header.Set("If-Match", header)
		}
		if got := ifMatch(req); got != want {
			t.Errorf("ifMatch(%q): expected %q, got %q", header, want, got)
		}
	}
}
