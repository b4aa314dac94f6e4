package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	songerrors "github.com/FocuswithJustin/JuniperSongs/core/errors"
	"github.com/FocuswithJustin/JuniperSongs/core/sqlite"
	"github.com/FocuswithJustin/JuniperSongs/internal/logging"
	"github.com/FocuswithJustin/JuniperSongs/internal/server"
	"github.com/FocuswithJustin/JuniperSongs/internal/validation"
)

// maxBodySize bounds request bodies: one song's lyrics plus its metadata.
const maxBodySize = validation.MaxLyricsSize + 64*1024

// APIResponse is the standard API response wrapper.
type APIResponse struct {
	Success bool      `json:"success"`
	Data    any       `json:"data,omitempty"`
	Error   *APIError `json:"error,omitempty"`
	Meta    *APIMeta  `json:"meta,omitempty"`
}

// APIError represents an API error.
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// APIMeta contains response metadata.
type APIMeta struct {
	Total     int    `json:"total,omitempty"`
	Timestamp string `json:"timestamp"`
}

// HealthInfo is the health check response.
type HealthInfo struct {
	Status  string `json:"status"`
	Version string `json:"version"`
	Uptime  string `json:"uptime"`
	Songs   int    `json:"songs"`
	Clients int    `json:"websocket_clients"`
	Driver  string `json:"driver"`
}

func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		respondError(w, http.StatusNotFound, "NOT_FOUND", "Endpoint not found")
		return
	}

	respond(w, http.StatusOK, map[string]any{
		"name":    "Juniper Songs API",
		"version": s.cfg.Version,
		"endpoints": []string{
			"GET /health",
			"GET /songs",
			"POST /songs",
			"GET /songs/:id",
			"PUT /songs/:id",
			"DELETE /songs/:id",
			"GET /songs/:id/draft",
			"GET /songs/:id/sequence",
			"POST /verses/parse",
			"POST /verses/render",
			"POST /verses/dedupe",
			"POST /order/expand",
			"POST /order/contract",
			"WS /ws",
		},
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		respondError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "Only GET is allowed")
		return
	}

	count, err := s.store.Count(r.Context())
	if err != nil {
		logging.ErrorContext(r.Context(), "health check failed", "error", err)
		respondError(w, http.StatusServiceUnavailable, "UNHEALTHY", "Song store unavailable")
		return
	}

	respond(w, http.StatusOK, HealthInfo{
		Status:  "healthy",
		Version: s.cfg.Version,
		Uptime:  time.Since(s.started).Round(time.Second).String(),
		Songs:   count,
		Clients: s.hub.ClientCount(),
		Driver:  sqlite.DriverType(),
	})
}

// decodeJSON reads a bounded JSON request body into dst.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	if ct := r.Header.Get("Content-Type"); ct != "" && !server.ValidateContentType(ct, []string{"application/json"}) {
		respondError(w, http.StatusUnsupportedMediaType, "UNSUPPORTED_MEDIA_TYPE", "Request body must be application/json")
		return false
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxBodySize)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		var tooLarge *http.MaxBytesError
		if songerrors.As(err, &tooLarge) {
			respondError(w, http.StatusRequestEntityTooLarge, "BODY_TOO_LARGE",
				fmt.Sprintf("Request body exceeds %d bytes", tooLarge.Limit))
			return false
		}
		parseErr := songerrors.NewParse("JSON", "request body", err.Error())
		respondError(w, http.StatusBadRequest, "INVALID_JSON", parseErr.Error())
		return false
	}
	return true
}

var codeStatus = map[string]int{
	songerrors.CodeInvalidInput: http.StatusBadRequest,
	songerrors.CodeNotFound:     http.StatusNotFound,
	songerrors.CodeConflict:     http.StatusConflict,
}

// respondErr maps domain errors onto HTTP statuses. Anything unclassified is logged and
// reported without detail.
func respondErr(w http.ResponseWriter, r *http.Request, err error) {
	code := songerrors.Code(err)
	if status, ok := codeStatus[code]; ok {
		respondError(w, status, code, err.Error())
		return
	}
	logging.ErrorContext(r.Context(), "request failed", "path", r.URL.Path, "error", err)
	respondError(w, http.StatusInternalServerError, code, "Internal server error")
}

func respond(w http.ResponseWriter, status int, data any) {
	respondWithMeta(w, status, data, &APIMeta{})
}

func respondWithMeta(w http.ResponseWriter, status int, data any, meta *APIMeta) {
	meta.Timestamp = time.Now().UTC().Format(time.RFC3339)
	writeJSON(w, status, APIResponse{
		Success: true,
		Data:    data,
		Meta:    meta,
	})
}

func respondError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, APIResponse{
		Success: false,
		Error: &APIError{
			Code:    code,
			Message: message,
		},
		Meta: &APIMeta{
			Timestamp: time.Now().UTC().Format(time.RFC3339),
		},
	})
}

func writeJSON(w http.ResponseWriter, status int, response APIResponse) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(response); err != nil {
		logging.Warn("failed to write response", "error", err)
	}
}
