package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/lostbyte/mainhero/internal/logger"
	"github.com/lostbyte/mainhero/internal/models"
	"github.com/lostbyte/mainhero/internal/pubsub"
	"github.com/lostbyte/mainhero/internal/store"
	"github.com/lostbyte/mainhero/internal/theme"
)

// APIHandlers contains all API handler methods
type APIHandlers struct {
	store  *store.Store
	theme  *theme.Watcher
	pubsub *pubsub.PubSub
}

// NewAPIHandlers creates a new API handlers instance. tw may be nil when no host theme is followed.
func NewAPIHandlers(s *store.Store, tw *theme.Watcher, ps *pubsub.PubSub) *APIHandlers {
	return &APIHandlers{
		store:  s,
		theme:  tw,
		pubsub: ps,
	}
}

// Register mounts every API route on mux
func (h *APIHandlers) Register(mux *http.ServeMux) {
	mux.HandleFunc("/api/collection", h.GetCollection)
	mux.HandleFunc("/api/characters/current", h.GetCurrentCharacter)
	mux.HandleFunc("/api/characters/add", h.AddCharacter)
	mux.HandleFunc("/api/characters/select", h.SelectCharacter)
	mux.HandleFunc("/api/characters/upsert", h.UpsertCharacter)
	mux.HandleFunc("/api/characters/delete", h.RemoveCharacter)
	mux.HandleFunc("/api/characters/move", h.MoveCharacter)
	mux.HandleFunc("/api/tokens/upsert", h.UpsertToken)
	mux.HandleFunc("/api/tokens/delete", h.RemoveToken)
	mux.HandleFunc("/api/tokens/select", h.SelectToken)
	mux.HandleFunc("/api/theme", h.GetTheme)
	mux.HandleFunc("/api/events", h.EventsSSE)
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}

func writeOK(w http.ResponseWriter) {
	writeJSON(w, map[string]bool{"ok": true})
}

// decode reads a POST body into v, writing the error response itself
func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return false
	}
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		logger.Warn("Failed to decode request", "path", r.URL.Path, "error", err)
		http.Error(w, err.Error(), http.StatusBadRequest)
		return false
	}
	return true
}

// GetCollection returns every character in display order plus the selection
func (h *APIHandlers) GetCollection(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	writeJSON(w, h.store.Data())
}

// GetCurrentCharacter returns the selected character, or null
func (h *APIHandlers) GetCurrentCharacter(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	c, found := h.store.CurrentCharacter()
	if !found {
		writeJSON(w, nil)
		return
	}
	writeJSON(w, c)
}

// AddCharacter creates a character with generated defaults
func (h *APIHandlers) AddCharacter(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	c := h.store.AddCharacter()
	logger.Info("Character added", "character_id", c.ID)
	writeJSON(w, c)
}

// SelectCharacter records the selection; a null id clears it
func (h *APIHandlers) SelectCharacter(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ID *string `json:"id"`
	}
	if !decode(w, r, &req) {
		return
	}

	id := ""
	if req.ID != nil {
		id = *req.ID
	}
	h.store.SelectCharacter(r.Context(), id)
	writeOK(w)
}

// UpsertCharacter inserts or fully replaces a character
func (h *APIHandlers) UpsertCharacter(w http.ResponseWriter, r *http.Request) {
	var c models.Character
	if !decode(w, r, &c) {
		return
	}
	if err := h.store.UpsertCharacter(c); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	writeOK(w)
}

// RemoveCharacter deletes a character
func (h *APIHandlers) RemoveCharacter(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ID string `json:"id"`
	}
	if !decode(w, r, &req) {
		return
	}
	if !h.store.RemoveCharacter(req.ID) {
		http.Error(w, "character not found", http.StatusNotFound)
		return
	}
	logger.Info("Character removed", "character_id", req.ID)
	writeOK(w)
}

// MoveCharacter swaps a character with its neighbour. Moving past either end succeeds without change.
func (h *APIHandlers) MoveCharacter(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ID        string `json:"id"`
		Direction string `json:"direction"`
	}
	if !decode(w, r, &req) {
		return
	}
	if req.Direction != "up" && req.Direction != "down" {
		http.Error(w, fmt.Sprintf("invalid direction %q", req.Direction), http.StatusBadRequest)
		return
	}
	moved, err := h.store.MoveCharacter(req.ID, req.Direction == "up")
	if errors.Is(err, store.ErrCharacterNotFound) {
		http.Error(w, "character not found", http.StatusNotFound)
		return
	}
	writeJSON(w, map[string]bool{"ok": true, "moved": moved})
}

// UpsertToken stores a token on a character
func (h *APIHandlers) UpsertToken(w http.ResponseWriter, r *http.Request) {
	var req struct {
		CharacterID string       `json:"characterId"`
		TokenID     string       `json:"tokenId"`
		Token       models.Token `json:"token"`
	}
	if !decode(w, r, &req) {
		return
	}
	if req.TokenID == "" {
		http.Error(w, "tokenId is required", http.StatusBadRequest)
		return
	}
	if !h.store.UpsertToken(req.CharacterID, req.TokenID, req.Token) {
		http.Error(w, "character not found", http.StatusNotFound)
		return
	}
	writeOK(w)
}

type tokenRef struct {
	CharacterID string `json:"characterId"`
	TokenID     string `json:"tokenId"`
}

// RemoveToken deletes a token from a character
func (h *APIHandlers) RemoveToken(w http.ResponseWriter, r *http.Request) {
	var req tokenRef
	if !decode(w, r, &req) {
		return
	}
	if !h.store.RemoveToken(req.CharacterID, req.TokenID) {
		http.Error(w, "token not found", http.StatusNotFound)
		return
	}
	writeOK(w)
}

// SelectToken picks the character's active token; an empty tokenId clears it
func (h *APIHandlers) SelectToken(w http.ResponseWriter, r *http.Request) {
	var req tokenRef
	if !decode(w, r, &req) {
		return
	}
	if !h.store.SelectToken(req.CharacterID, req.TokenID) {
		http.Error(w, "token not found", http.StatusNotFound)
		return
	}
	writeOK(w)
}

// GetTheme returns the host theme as CSS variables
func (h *APIHandlers) GetTheme(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if h.theme == nil {
		http.Error(w, "theme unavailable", http.StatusServiceUnavailable)
		return
	}
	vars, loaded := h.theme.Current()
	if !loaded {
		http.Error(w, "theme unavailable", http.StatusServiceUnavailable)
		return
	}
	writeJSON(w, vars)
}

// EventsSSE provides Server-Sent Events for realtime updates
func (h *APIHandlers) EventsSSE(w http.ResponseWriter, r *http.Request) {
	// Set headers for SSE
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("Access-Control-Allow-Origin", "*")

	eventChan := h.pubsub.Subscribe()
	defer h.pubsub.Unsubscribe(eventChan)

	fmt.Fprintf(w, "data: {\"type\":\"connected\"}\n\n")
	if f, ok := w.(http.Flusher); ok {
		f.Flush()
	}

	keepalive := time.NewTicker(30 * time.Second)
	defer keepalive.Stop()

	for {
		select {
		case event := <-eventChan:
			data, _ := json.Marshal(event)
			fmt.Fprintf(w, "data: %s\n\n", data)
			if f, ok := w.(http.Flusher); ok {
				f.Flush()
			}
		case <-r.Context().Done():
			logger.Debug("SSE client disconnected")
			return
		case <-keepalive.C:
			fmt.Fprintf(w, ": keepalive\n\n")
			if f, ok := w.(http.Flusher); ok {
				f.Flush()
			}
		}
	}
}
