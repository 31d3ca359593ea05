package station

import (
	"context"
	"errors"
	"sync"
	"testing"

	"go.uber.org/zap"

	"portwatch/internal/api"
	"portwatch/internal/identity"
)

type fakeSender struct {
	mu       sync.Mutex
	calls    int
	requests []api.ControlRequest
	response api.ControlResponse
	err      error
	block    chan struct{}
}

func (f *fakeSender) SendControl(ctx context.Context, deviceID string, port int, request api.ControlRequest) (api.ControlResponse, error) {
	f.mu.Lock()
	f.calls++
	f.requests = append(f.requests, request)
	block := f.block
	f.mu.Unlock()

	if block != nil {
		<-block
	}
	return f.response, f.err
}

func (f *fakeSender) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

type fakeUsers struct {
	user  identity.User
	found bool
}

func (f *fakeUsers) Current() (identity.User, bool) {
	return f.user, f.found
}

func newTestDispatcher(t *testing.T, sender *fakeSender, users *fakeUsers) (*Dispatcher, *Cache) {
	t.Helper()
	table, err := NewTable([]PortIdentity{
		{Number: 1, DeviceID: "D1", DevicePort: 1, Label: "Port 1"},
		{Number: 2, DeviceID: "D1", DevicePort: 2, Label: "Port 2"},
	})
	if err != nil {
		t.Fatalf("build table: %v", err)
	}
	cache := NewCache()
	board := NewBoard(table, cache)
	return NewDispatcher(board, cache, sender, users, "ST-01", zap.NewNop()), cache
}

func TestActivateRejectsUnavailablePortWithoutNetworkCall(t *testing.T) {
	sender := &fakeSender{}
	dispatcher, cache := newTestDispatcher(t, sender, &fakeUsers{user: identity.User{ID: 7}, found: true})

	// Port 1 occupied by someone else, port 2 offline.
	cache.ReplaceStatuses([]PortStatus{
		{DeviceID: "D1", Port: 1, ChargerState: ChargerOn, StatusMessage: StatusOnline},
	})

	for _, port := range []int{1, 2} {
		if _, err := dispatcher.Activate(context.Background(), port); !errors.Is(err, ErrNotAllowed) {
			t.Fatalf("port %d: expected ErrNotAllowed, got %v", port, err)
		}
	}
	if sender.callCount() != 0 {
		t.Fatalf("precondition failure must not reach the network, got %d calls", sender.callCount())
	}
}

func TestActivateRequiresIdentity(t *testing.T) {
	sender := &fakeSender{}
	dispatcher, cache := newTestDispatcher(t, sender, &fakeUsers{})
	cache.ReplaceStatuses([]PortStatus{
		{DeviceID: "D1", Port: 1, ChargerState: ChargerOff, StatusMessage: StatusOnline},
	})

	if _, err := dispatcher.Activate(context.Background(), 1); !errors.Is(err, ErrNotLoggedIn) {
		t.Fatalf("expected ErrNotLoggedIn, got %v", err)
	}
	if sender.callCount() != 0 {
		t.Fatalf("missing identity must not reach the network")
	}
}

func TestActivateUnknownPort(t *testing.T) {
	sender := &fakeSender{}
	dispatcher, _ := newTestDispatcher(t, sender, &fakeUsers{user: identity.User{ID: 7}, found: true})

	if _, err := dispatcher.Activate(context.Background(), 99); !errors.Is(err, ErrUnknownPort) {
		t.Fatalf("expected ErrUnknownPort, got %v", err)
	}
}

func TestActivateAppliesOptimisticState(t *testing.T) {
	sender := &fakeSender{response: api.ControlResponse{SessionID: "S1"}}
	dispatcher, cache := newTestDispatcher(t, sender, &fakeUsers{user: identity.User{ID: 7}, found: true})
	cache.ReplaceStatuses([]PortStatus{
		{DeviceID: "D1", Port: 1, ChargerState: ChargerOff, StatusMessage: StatusOnline},
	})

	view, err := dispatcher.Activate(context.Background(), 1)
	if err != nil {
		t.Fatalf("activate: %v", err)
	}
	if view.State != StateChargingMine {
		t.Fatalf("expected charging immediately after success, got %s", view.State)
	}
	if view.Button != "Stop Charging" {
		t.Fatalf("expected Stop Charging button, got %q", view.Button)
	}
	if view.Session == nil || view.Session.SessionID != "S1" {
		t.Fatalf("expected session S1, got %+v", view.Session)
	}

	req := sender.requests[0]
	if req.Command != api.CommandOn || req.UserID != 7 || req.StationID != "ST-01" {
		t.Fatalf("unexpected control request: %+v", req)
	}
}

func TestActivateFailureLeavesStateUntouched(t *testing.T) {
	sender := &fakeSender{err: &api.Error{Status: 409, Message: "Port already in use"}}
	dispatcher, cache := newTestDispatcher(t, sender, &fakeUsers{user: identity.User{ID: 7}, found: true})
	cache.ReplaceStatuses([]PortStatus{
		{DeviceID: "D1", Port: 1, ChargerState: ChargerOff, StatusMessage: StatusOnline},
	})

	_, err := dispatcher.Activate(context.Background(), 1)
	if err == nil || err.Error() != "Port already in use" {
		t.Fatalf("expected verbatim server message, got %v", err)
	}

	view, _ := dispatcher.board.View(1)
	if view.State != StateAvailable {
		t.Fatalf("failed command must not mutate state, got %s", view.State)
	}
}

func TestDeactivateFailureKeepsSession(t *testing.T) {
	sender := &fakeSender{err: &api.Error{Status: 400, Message: "Session already ended"}}
	dispatcher, cache := newTestDispatcher(t, sender, &fakeUsers{user: identity.User{ID: 7}, found: true})
	cache.ReplaceStatuses([]PortStatus{
		{DeviceID: "D1", Port: 1, ChargerState: ChargerOn, StatusMessage: StatusOnline},
	})
	cache.ReplaceSessions([]ActiveSession{{SessionID: "S1", UserID: 7, DeviceID: "D1", Port: 1}})

	_, err := dispatcher.Deactivate(context.Background(), 1)
	if err == nil || err.Error() != "Session already ended" {
		t.Fatalf("expected verbatim server message, got %v", err)
	}

	snap := cache.Snapshot()
	if _, ok := snap.Sessions[PortKey{DeviceID: "D1", Port: 1}]; !ok {
		t.Fatalf("session entry must remain after a failed stop")
	}
}

func TestDeactivateRemovesSessionOnSuccess(t *testing.T) {
	sender := &fakeSender{}
	dispatcher, cache := newTestDispatcher(t, sender, &fakeUsers{user: identity.User{ID: 7}, found: true})
	cache.ReplaceStatuses([]PortStatus{
		{DeviceID: "D1", Port: 1, ChargerState: ChargerOn, StatusMessage: StatusOnline},
	})
	cache.ReplaceSessions([]ActiveSession{{SessionID: "S1", UserID: 7, DeviceID: "D1", Port: 1}})

	view, err := dispatcher.Deactivate(context.Background(), 1)
	if err != nil {
		t.Fatalf("deactivate: %v", err)
	}
	if view.State != StateAvailable {
		t.Fatalf("expected available after stop, got %s", view.State)
	}
	if sender.requests[0].Command != api.CommandOff {
		t.Fatalf("expected OFF command, got %s", sender.requests[0].Command)
	}
}

func TestPerPortExclusion(t *testing.T) {
	block := make(chan struct{})
	sender := &fakeSender{response: api.ControlResponse{SessionID: "S1"}, block: block}
	dispatcher, cache := newTestDispatcher(t, sender, &fakeUsers{user: identity.User{ID: 7}, found: true})
	cache.ReplaceStatuses([]PortStatus{
		{DeviceID: "D1", Port: 1, ChargerState: ChargerOff, StatusMessage: StatusOnline},
		{DeviceID: "D1", Port: 2, ChargerState: ChargerOff, StatusMessage: StatusOnline},
	})

	started := make(chan struct{})
	done := make(chan error, 1)
	go func() {
		close(started)
		_, err := dispatcher.Activate(context.Background(), 1)
		done <- err
	}()
	<-started
	waitFor(t, func() bool { return sender.callCount() == 1 })

	// Same port: locked while the first command is in flight.
	if _, err := dispatcher.Activate(context.Background(), 1); !errors.Is(err, ErrCommandPending) {
		t.Fatalf("expected ErrCommandPending for same port, got %v", err)
	}

	// Different port: proceeds independently.
	close(block)
	if _, err := dispatcher.Activate(context.Background(), 2); err != nil {
		t.Fatalf("distinct port must not be blocked, got %v", err)
	}

	if err := <-done; err != nil {
		t.Fatalf("first activate: %v", err)
	}
}
