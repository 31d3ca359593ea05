package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"portwatch/internal/api"
	"portwatch/internal/station"
)

// ControlHandler exposes start/stop commands to the view layer.
type ControlHandler struct {
	dispatcher *station.Dispatcher
	logger     *zap.Logger
}

// NewControlHandler builds handler set.
func NewControlHandler(dispatcher *station.Dispatcher, logger *zap.Logger) *ControlHandler {
	return &ControlHandler{dispatcher: dispatcher, logger: logger}
}

type controlRequest struct {
	Port int `json:"port"`
}

// Start handles POST /ports/start.
func (h *ControlHandler) Start(w http.ResponseWriter, r *http.Request) {
	h.dispatch(w, r, h.dispatcher.Activate)
}

// Stop handles POST /ports/stop.
func (h *ControlHandler) Stop(w http.ResponseWriter, r *http.Request) {
	h.dispatch(w, r, h.dispatcher.Deactivate)
}

func (h *ControlHandler) dispatch(w http.ResponseWriter, r *http.Request, command func(context.Context, int) (station.PortView, error)) {
	var req controlRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}

	view, err := command(r.Context(), req.Port)
	if err != nil {
		h.logger.Debug("command rejected", zap.Int("port", req.Port), zap.Error(err))
		writeError(w, commandStatus(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"port": view})
}

// commandStatus maps dispatcher failures to HTTP codes. Backend rejections
// keep their original status so the server's message passes through as-is.
func commandStatus(err error) int {
	var apiErr *api.Error
	switch {
	case errors.Is(err, station.ErrUnknownPort):
		return http.StatusNotFound
	case errors.Is(err, station.ErrNotLoggedIn):
		return http.StatusUnauthorized
	case errors.Is(err, station.ErrNotAllowed), errors.Is(err, station.ErrCommandPending):
		return http.StatusConflict
	case errors.As(err, &apiErr):
		if apiErr.Status >= 400 {
			return apiErr.Status
		}
		return http.StatusBadGateway
	default:
		return http.StatusBadGateway
	}
}
