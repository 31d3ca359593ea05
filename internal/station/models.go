package station

import "time"

// Charger state values reported by the hardware.
const (
	ChargerOn  = "ON"
	ChargerOff = "OFF"
)

// Reachability values reported alongside charger state.
const (
	StatusOnline  = "online"
	StatusOffline = "offline"
)

// PortKey addresses one physical connector on one device.
type PortKey struct {
	DeviceID string
	Port     int
}

// PortStatus is the last polled hardware state of a port.
type PortStatus struct {
	DeviceID      string    `json:"device_id"`
	Port          int       `json:"port_number"`
	ChargerState  string    `json:"charger_state"`
	StatusMessage string    `json:"status_message"`
	Timestamp     time.Time `json:"timestamp"`
}

// ActiveSession binds the current user to a port for one charging period.
type ActiveSession struct {
	SessionID string `json:"session_id"`
	UserID    int64  `json:"user_id"`
	DeviceID  string `json:"device_id"`
	Port      int    `json:"port_number"`
}

// PortConsumption is the last polled telemetry of a port. Timestamp is the
// device uptime in milliseconds, passed through as reported.
type PortConsumption struct {
	DeviceID  string  `json:"device_id"`
	Port      int     `json:"port_number"`
	Current   float64 `json:"current_consumption"`
	TotalMAh  float64 `json:"total_mah"`
	Timestamp int64   `json:"timestamp"`
}

// Key returns the map key for a status entry.
func (s PortStatus) Key() PortKey {
	return PortKey{DeviceID: s.DeviceID, Port: s.Port}
}

// Key returns the map key for a session entry.
func (s ActiveSession) Key() PortKey {
	return PortKey{DeviceID: s.DeviceID, Port: s.Port}
}

// Key returns the map key for a consumption entry.
func (c PortConsumption) Key() PortKey {
	return PortKey{DeviceID: c.DeviceID, Port: c.Port}
}
