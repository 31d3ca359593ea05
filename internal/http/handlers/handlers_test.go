package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"portwatch/internal/api"
	"portwatch/internal/station"
)

type fakeLifecycle struct {
	paused  int
	resumed int
	running bool
}

func (f *fakeLifecycle) Pause()        { f.paused++; f.running = false }
func (f *fakeLifecycle) Resume()       { f.resumed++; f.running = true }
func (f *fakeLifecycle) Running() bool { return f.running }

func TestVisibilityHandlerDrivesLifecycle(t *testing.T) {
	lifecycle := &fakeLifecycle{running: true}
	handler := NewVisibilityHandler(lifecycle)

	rec := httptest.NewRecorder()
	handler(rec, httptest.NewRequest(http.MethodPost, "/visibility", strings.NewReader(`{"visible":false}`)))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if lifecycle.paused != 1 || lifecycle.resumed != 0 {
		t.Fatalf("hidden must pause: %+v", lifecycle)
	}

	rec = httptest.NewRecorder()
	handler(rec, httptest.NewRequest(http.MethodPost, "/visibility", strings.NewReader(`{"visible":true}`)))
	if lifecycle.resumed != 1 {
		t.Fatalf("visible must resume: %+v", lifecycle)
	}

	var body struct {
		Polling bool `json:"polling"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if !body.Polling {
		t.Fatalf("expected polling true after resume")
	}
}

func TestVisibilityHandlerRejectsBadJSON(t *testing.T) {
	handler := NewVisibilityHandler(&fakeLifecycle{})
	rec := httptest.NewRecorder()
	handler(rec, httptest.NewRequest(http.MethodPost, "/visibility", strings.NewReader(`{`)))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestCommandStatusMapping(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{station.ErrUnknownPort, http.StatusNotFound},
		{station.ErrNotLoggedIn, http.StatusUnauthorized},
		{station.ErrNotAllowed, http.StatusConflict},
		{station.ErrCommandPending, http.StatusConflict},
		{&api.Error{Status: 409, Message: "Port already in use"}, http.StatusConflict},
		{&api.Error{Status: 200, Message: "odd"}, http.StatusBadGateway},
	}
	for _, tc := range cases {
		if got := commandStatus(tc.err); got != tc.want {
			t.Fatalf("%v: expected %d, got %d", tc.err, tc.want, got)
		}
	}
}
