package api

import (
	"net/http"

	songerrors "github.com/FocuswithJustin/JuniperSongs/core/errors"
	"github.com/FocuswithJustin/JuniperSongs/core/song"
	"github.com/FocuswithJustin/JuniperSongs/core/verse"
)

// LyricsRequest carries lyrics in markup or plain text.
type LyricsRequest struct {
	Lyrics string `json:"lyrics"`
}

// VersesRequest carries records to serialize or contract. When Verses is empty, Lyrics is
// parsed instead.
type VersesRequest struct {
	Verses []verse.Verse `json:"verses"`
	Lyrics string        `json:"lyrics,omitempty"`
}

// ExpandRequest names source lyrics and the order to replay them in.
type ExpandRequest struct {
	Lyrics string `json:"lyrics"`
	Order  string `json:"order"`
}

// ParseResult is the response of POST /verses/parse.
type ParseResult struct {
	Format string        `json:"format"`
	Verses []verse.Verse `json:"verses"`
}

// ExpandResult is the response of POST /order/expand.
type ExpandResult struct {
	Verses   []verse.Verse `json:"verses"`
	Dangling []int         `json:"dangling,omitempty"`
}

func (req VersesRequest) records() []verse.Verse {
	if len(req.Verses) > 0 {
		return req.Verses
	}
	return verse.Parse(req.Lyrics)
}

// requirePost rejects anything but POST on the stateless verse tools.
func requirePost(w http.ResponseWriter, r *http.Request) bool {
	if r.Method != http.MethodPost {
		respondError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "Only POST is allowed")
		return false
	}
	return true
}

func handleParseVerses(w http.ResponseWriter, r *http.Request) {
	var req LyricsRequest
	if !requirePost(w, r) || !decodeJSON(w, r, &req) {
		return
	}
	respond(w, http.StatusOK, ParseResult{
		Format: verse.DetectFormat(req.Lyrics).String(),
		Verses: verse.Parse(req.Lyrics),
	})
}

func handleRenderVerses(w http.ResponseWriter, r *http.Request) {
	var req VersesRequest
	if !requirePost(w, r) || !decodeJSON(w, r, &req) {
		return
	}
	respond(w, http.StatusOK, map[string]string{"lyrics": verse.Serialize(req.records())})
}

func handleDedupeVerses(w http.ResponseWriter, r *http.Request) {
	var req VersesRequest
	if !requirePost(w, r) || !decodeJSON(w, r, &req) {
		return
	}
	sources, order := song.Contract(req.records())
	respond(w, http.StatusOK, map[string]any{
		"verses": sources,
		"order":  order,
	})
}

func handleExpandOrder(w http.ResponseWriter, r *http.Request) {
	var req ExpandRequest
	if !requirePost(w, r) || !decodeJSON(w, r, &req) {
		return
	}

	expanded, err := verse.Expand(req.Order, verse.Parse(req.Lyrics))
	if err != nil {
		respondErr(w, r, &songerrors.ValidationError{
			Field:   "order",
			Value:   req.Order,
			Message: err.Error(),
			Err:     err,
		})
		return
	}
	respond(w, http.StatusOK, ExpandResult{
		Verses:   expanded,
		Dangling: verse.Dangling(expanded),
	})
}

func handleContractOrder(w http.ResponseWriter, r *http.Request) {
	var req VersesRequest
	if !requirePost(w, r) || !decodeJSON(w, r, &req) {
		return
	}
	respond(w, http.StatusOK, map[string]string{"order": verse.ToOrderString(req.records())})
}
