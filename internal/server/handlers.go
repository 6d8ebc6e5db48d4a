package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/divyekant/docportal/internal/catalog"
	"github.com/divyekant/docportal/internal/chat"
)

// writeJSON marshals v as JSON and writes it to the response with the given status.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]any{"error": msg, "isError": true})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	_, err := os.Stat(s.opts.CatalogPath)
	writeJSON(w, http.StatusOK, map[string]any{
		"status":         "ok",
		"catalog_exists": err == nil,
		"chat_enabled":   s.opts.Relay != nil,
		"ingest_running": s.runs.Active() != nil,
	})
}

// listedEntry hides textContent unless it is set.
type listedEntry struct {
	catalog.Entry
	TextContent string `json:"textContent,omitempty"`
}

// loadCatalog reads the catalog file. A missing file is an empty catalog.
func (s *Server) loadCatalog() ([]catalog.Entry, error) {
	entries, err := catalog.Load(s.opts.CatalogPath)
	if errors.Is(err, os.ErrNotExist) {
		return []catalog.Entry{}, nil
	}
	return entries, err
}

// handleListDocuments returns the catalog. textContent is dropped unless
// ?full=1 is given.
func (s *Server) handleListDocuments(w http.ResponseWriter, r *http.Request) {
	entries, err := s.loadCatalog()
	if err != nil {
		s.logger.Error("server: load catalog", "error", err)
		writeError(w, http.StatusInternalServerError, "catalog unavailable")
		return
	}

	full := r.URL.Query().Get("full")
	if full == "1" || full == "true" {
		writeJSON(w, http.StatusOK, entries)
		return
	}

	out := make([]listedEntry, len(entries))
	for i, e := range entries {
		out[i] = listedEntry{Entry: e}
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleGetDocument(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil || id < 1 {
		writeError(w, http.StatusBadRequest, "document id must be a positive integer")
		return
	}

	entries, err := s.loadCatalog()
	if err != nil {
		s.logger.Error("server: load catalog", "error", err)
		writeError(w, http.StatusInternalServerError, "catalog unavailable")
		return
	}
	entry, ok := catalog.Find(entries, id)
	if !ok {
		writeError(w, http.StatusNotFound, "document not found")
		return
	}
	writeJSON(w, http.StatusOK, entry)
}

// Lookup resolves a document id against the current catalog file. It is
// meant for chat.WithLookup.
func (s *Server) Lookup(id int) (catalog.Entry, bool) {
	entries, err := s.loadCatalog()
	if err != nil {
		return catalog.Entry{}, false
	}
	return catalog.Find(entries, id)
}

// chatResponse is the assistant message returned by POST /api/chat.
type chatResponse struct {
	ID        string    `json:"id"`
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	if s.opts.Relay == nil {
		writeError(w, http.StatusServiceUnavailable, "chat is not configured")
		return
	}

	var req chat.Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	reply, err := s.opts.Relay.Send(r.Context(), req)
	switch {
	case errors.Is(err, chat.ErrInvalidRequest):
		writeError(w, http.StatusBadRequest, err.Error())
		return
	case err != nil:
		writeError(w, http.StatusBadGateway, chat.ErrFailed.Error())
		return
	}

	writeJSON(w, http.StatusOK, chatResponse{
		ID:        uuid.NewString(),
		Role:      "assistant",
		Content:   reply,
		Timestamp: time.Now().UTC(),
	})
}
