package handlers

import (
	"net/http"

	"portwatch/internal/station"
)

// NewPortsHandler returns GET /ports handler serving resolved port views.
func NewPortsHandler(board *station.Board) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"ports": board.Views(),
		})
	}
}

// NewHealthHandler returns GET /health handler.
func NewHealthHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}
