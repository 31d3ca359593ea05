package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Control commands accepted by the device control endpoint.
const (
	CommandOn  = "ON"
	CommandOff = "OFF"
)

// PortStatusRow is one entry of GET /api/devices/status.
type PortStatusRow struct {
	DeviceID      string `json:"device_id"`
	PortNumber    int    `json:"port_number_in_device"`
	ChargerState  string `json:"charger_state"`
	StatusMessage string `json:"status_message"`
}

// ConsumptionRow is one entry of GET /api/devices/consumption.
// Timestamps arrive as device uptime milliseconds.
type ConsumptionRow struct {
	DeviceID           string  `json:"device_id"`
	PortNumber         int     `json:"port_number"`
	CurrentConsumption float64 `json:"current_consumption"`
	TotalMAh           float64 `json:"total_mah"`
	Timestamp          int64   `json:"timestamp"`
}

// SessionRow is one entry of GET /api/sessions/active. The endpoint returns
// sessions for all users; filtering is the caller's job.
type SessionRow struct {
	SessionID string `json:"session_id"`
	UserID    int64  `json:"user_id"`
	DeviceID  string `json:"device_id"`
	Port      int    `json:"port_number"`
}

// ControlRequest is the body of POST /api/devices/{device}/{port}/control.
type ControlRequest struct {
	Command   string `json:"command"`
	UserID    int64  `json:"user_id"`
	StationID string `json:"station_id,omitempty"`
}

// ControlResponse carries the session id returned on a successful ON command.
type ControlResponse struct {
	SessionID string `json:"sessionId"`
}

// Error is a backend rejection. Message carries the server's error field
// verbatim so the UI can show it unchanged.
type Error struct {
	Status  int
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

// Client talks to the platform backend.
type Client struct {
	baseURL string
	token   string
	client  *http.Client
	logger  *zap.Logger
}

// NewClient builds the backend client.
func NewClient(baseURL, token string, timeout time.Duration, logger *zap.Logger) *Client {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Client{
		baseURL: baseURL,
		token:   token,
		client:  &http.Client{Timeout: timeout},
		logger:  logger,
	}
}

// FetchStatuses reads hardware state for every known port.
func (c *Client) FetchStatuses(ctx context.Context) ([]PortStatusRow, error) {
	var rows []PortStatusRow
	if err := c.getList(ctx, "/api/devices/status", false, &rows); err != nil {
		return nil, err
	}
	return rows, nil
}

// FetchConsumption reads telemetry for every known port.
func (c *Client) FetchConsumption(ctx context.Context) ([]ConsumptionRow, error) {
	var rows []ConsumptionRow
	if err := c.getList(ctx, "/api/devices/consumption", false, &rows); err != nil {
		return nil, err
	}
	return rows, nil
}

// FetchActiveSessions reads the global active-session list.
func (c *Client) FetchActiveSessions(ctx context.Context) ([]SessionRow, error) {
	var rows []SessionRow
	if err := c.getList(ctx, "/api/sessions/active", true, &rows); err != nil {
		return nil, err
	}
	return rows, nil
}

// SendControl issues a start/stop command to one port. Rejections come back
// as *Error with the server's message.
func (c *Client) SendControl(ctx context.Context, deviceID string, port int, request ControlRequest) (ControlResponse, error) {
	body, err := json.Marshal(request)
	if err != nil {
		return ControlResponse{}, err
	}

	url := fmt.Sprintf("%s/api/devices/%s/%d/control", c.baseURL, deviceID, port)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return ControlResponse{}, err
	}
	req.Header.Set("Content-Type", "application/json")
	c.setCommonHeaders(req, true)

	resp, err := c.client.Do(req)
	if err != nil {
		return ControlResponse{}, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return ControlResponse{}, err
	}

	if resp.StatusCode >= 300 {
		c.logger.Warn("control command rejected",
			zap.String("device", deviceID),
			zap.Int("port", port),
			zap.Int("status", resp.StatusCode))
		return ControlResponse{}, rejectionError(resp.StatusCode, data)
	}

	var result ControlResponse
	if len(data) > 0 {
		if err := json.Unmarshal(data, &result); err != nil {
			return ControlResponse{}, fmt.Errorf("api: decode control response: %w", err)
		}
	}
	return result, nil
}

// getList fetches a JSON array endpoint. Bodies that are not arrays (error
// objects, HTML error pages) are rejected before decoding so a bad payload
// never reaches the caches.
func (c *Client) getList(ctx context.Context, path string, authed bool, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return err
	}
	c.setCommonHeaders(req, authed)

	resp, err := c.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}

	if resp.StatusCode >= 300 {
		return rejectionError(resp.StatusCode, data)
	}

	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || trimmed[0] != '[' {
		return fmt.Errorf("api: %s returned non-array payload", path)
	}
	if err := json.Unmarshal(trimmed, out); err != nil {
		return fmt.Errorf("api: decode %s: %w", path, err)
	}
	return nil
}

func (c *Client) setCommonHeaders(req *http.Request, authed bool) {
	req.Header.Set("X-Request-ID", uuid.NewString())
	if authed && c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
}

func rejectionError(status int, body []byte) *Error {
	var payload struct {
		Error string `json:"error"`
	}
	message := ""
	if json.Unmarshal(body, &payload) == nil {
		message = payload.Error
	}
	if message == "" {
		message = fmt.Sprintf("request failed with status %d", status)
	}
	return &Error{Status: status, Message: message}
}
