package handlers

import (
	"encoding/json"
	"net/http"
)

// Lifecycle is the slice of the poll controller the view layer drives.
type Lifecycle interface {
	Pause()
	Resume()
	Running() bool
}

type visibilityRequest struct {
	Visible bool `json:"visible"`
}

// NewVisibilityHandler returns POST /visibility handler. The view layer
// reports tab visibility here; hidden suspends polling, visible resumes it
// with an immediate refresh.
func NewVisibilityHandler(lifecycle Lifecycle) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req visibilityRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid json")
			return
		}

		if req.Visible {
			lifecycle.Resume()
		} else {
			lifecycle.Pause()
		}
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"status":  "ok",
			"polling": lifecycle.Running(),
		})
	}
}
