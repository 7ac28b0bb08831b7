package adapthttp

import (
	"encoding/json"
	"fmt"
	"net/http"

	"itemboard/internal/domain"

	"github.com/go-chi/chi/v5"
)

type itemRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

func (s *Server) handleItemCreate(w http.ResponseWriter, r *http.Request) {
	var req itemRequest
	if err := parseJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	id, err := s.items.Create(r.Context(), req.Title, req.Description, userFrom(r.Context()).ID)
	if err != nil {
		writeError(w, statusForError(err), err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"id": id})
}

func (s *Server) handleItemsList(w http.ResponseWriter, r *http.Request) {
	items, err := s.items.ListOnce(r.Context(), userFrom(r.Context()).ID)
	if err != nil {
		writeError(w, statusForError(err), err)
		return
	}
	if items == nil {
		items = []domain.Item{}
	}
	writeJSON(w, http.StatusOK, items)
}

func (s *Server) handleItemUpdate(w http.ResponseWriter, r *http.Request) {
	var req itemRequest
	if err := parseJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	if err := s.items.Update(r.Context(), chi.URLParam(r, "id"), req.Title, req.Description); err != nil {
		writeError(w, statusForError(err), err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleItemDelete(w http.ResponseWriter, r *http.Request) {
	if err := s.items.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeError(w, statusForError(err), err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleItemsStream pushes the live item snapshots over Server-Sent Events.
// Each event carries the complete current set; the stream ends when the
// client disconnects.
func (s *Server) handleItemsStream(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	// One-slot buffer; a newer snapshot replaces an undelivered older one.
	snapshots := make(chan []domain.Item, 1)
	cancel, err := s.items.Subscribe(r.Context(), userFrom(r.Context()).ID, func(items []domain.Item) {
		select {
		case <-snapshots:
		default:
		}
		snapshots <- items
	})
	if err != nil {
		writeError(w, statusForError(err), err)
		return
	}
	defer cancel()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			return
		case items := <-snapshots:
			data, err := json.Marshal(items)
			if err != nil {
				continue
			}
			fmt.Fprintf(w, "data: %s\n\n", data)
			flusher.Flush()
		}
	}
}
