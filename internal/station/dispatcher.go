package station

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"portwatch/internal/api"
	"portwatch/internal/identity"
	"portwatch/internal/metrics"
)

// Local command failures, rejected before any network call.
var (
	ErrUnknownPort    = errors.New("unknown port")
	ErrNotAllowed     = errors.New("not allowed in current port state")
	ErrNotLoggedIn    = errors.New("not logged in")
	ErrCommandPending = errors.New("another command is in progress for this port")
)

// CommandSender is the slice of the backend client the dispatcher needs.
type CommandSender interface {
	SendControl(ctx context.Context, deviceID string, port int, request api.ControlRequest) (api.ControlResponse, error)
}

// UserSource yields the current authenticated user.
type UserSource interface {
	Current() (identity.User, bool)
}

// Dispatcher issues start/stop commands with optimistic cache updates.
//
// A port's control stays locked while its command is in flight; commands on
// different ports run concurrently since each touches only its own entries.
type Dispatcher struct {
	board     *Board
	cache     *Cache
	sender    CommandSender
	users     UserSource
	stationID string
	logger    *zap.Logger

	mu       sync.Mutex
	inflight map[int]struct{}
}

// NewDispatcher wires the dispatcher.
func NewDispatcher(board *Board, cache *Cache, sender CommandSender, users UserSource, stationID string, logger *zap.Logger) *Dispatcher {
	return &Dispatcher{
		board:     board,
		cache:     cache,
		sender:    sender,
		users:     users,
		stationID: stationID,
		logger:    logger,
		inflight:  make(map[int]struct{}),
	}
}

// Activate starts charging on a port. Requires the port to resolve as
// available and a logged-in user; otherwise fails locally without touching
// the network. On success the session and an ON/online status override are
// applied so the UI updates before the next poll confirms.
func (d *Dispatcher) Activate(ctx context.Context, port int) (PortView, error) {
	id, ok := d.board.table.Lookup(port)
	if !ok {
		return PortView{}, fmt.Errorf("activate port %d: %w", port, ErrUnknownPort)
	}
	if !d.acquire(port) {
		return PortView{}, fmt.Errorf("activate port %d: %w", port, ErrCommandPending)
	}
	defer d.release(port)

	view, _ := d.board.View(port)
	if view.State != StateAvailable {
		return view, fmt.Errorf("activate port %d: %w", port, ErrNotAllowed)
	}
	user, ok := d.users.Current()
	if !ok {
		return view, fmt.Errorf("activate port %d: %w", port, ErrNotLoggedIn)
	}

	resp, err := d.sender.SendControl(ctx, id.DeviceID, id.DevicePort, api.ControlRequest{
		Command:   api.CommandOn,
		UserID:    user.ID,
		StationID: d.stationID,
	})
	metrics.ObserveCommand(api.CommandOn, err)
	if err != nil {
		d.logger.Warn("start command failed",
			zap.Int("port", port),
			zap.String("device", id.DeviceID),
			zap.Error(err))
		return view, err
	}
	if resp.SessionID == "" {
		return view, fmt.Errorf("activate port %d: response missing session id", port)
	}

	key := id.Key()
	d.cache.ApplyStartResult(key, ActiveSession{
		SessionID: resp.SessionID,
		UserID:    user.ID,
		DeviceID:  key.DeviceID,
		Port:      key.Port,
	})
	d.logger.Info("charging started",
		zap.Int("port", port),
		zap.String("session", resp.SessionID))

	updated, _ := d.board.View(port)
	return updated, nil
}

// Deactivate stops charging on a port. Requires the port to resolve as
// charging for the current user. On success the session entry is removed and
// the status overridden to OFF/online. On failure nothing is mutated and the
// server's message is returned verbatim.
func (d *Dispatcher) Deactivate(ctx context.Context, port int) (PortView, error) {
	id, ok := d.board.table.Lookup(port)
	if !ok {
		return PortView{}, fmt.Errorf("deactivate port %d: %w", port, ErrUnknownPort)
	}
	if !d.acquire(port) {
		return PortView{}, fmt.Errorf("deactivate port %d: %w", port, ErrCommandPending)
	}
	defer d.release(port)

	view, _ := d.board.View(port)
	if view.State != StateChargingMine {
		return view, fmt.Errorf("deactivate port %d: %w", port, ErrNotAllowed)
	}
	user, ok := d.users.Current()
	if !ok {
		return view, fmt.Errorf("deactivate port %d: %w", port, ErrNotLoggedIn)
	}

	_, err := d.sender.SendControl(ctx, id.DeviceID, id.DevicePort, api.ControlRequest{
		Command:   api.CommandOff,
		UserID:    user.ID,
		StationID: d.stationID,
	})
	metrics.ObserveCommand(api.CommandOff, err)
	if err != nil {
		d.logger.Warn("stop command failed",
			zap.Int("port", port),
			zap.String("device", id.DeviceID),
			zap.Error(err))
		return view, err
	}

	d.cache.ApplyStopResult(id.Key())
	d.logger.Info("charging stopped", zap.Int("port", port))

	updated, _ := d.board.View(port)
	return updated, nil
}

func (d *Dispatcher) acquire(port int) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, busy := d.inflight[port]; busy {
		return false
	}
	d.inflight[port] = struct{}{}
	return true
}

func (d *Dispatcher) release(port int) {
	d.mu.Lock()
	delete(d.inflight, port)
	d.mu.Unlock()
}
