package station

import "sync"

// Cache holds the three polled maps plus a pending-command overlay.
//
// Each poller replaces its map wholesale; nothing merges entries in place.
// Commands never touch the canonical maps either: their optimistic results
// live in the overlay until the next authoritative poll of the same source
// supersedes them.
type Cache struct {
	mu sync.RWMutex

	statuses    map[PortKey]PortStatus
	consumption map[PortKey]PortConsumption
	sessions    map[PortKey]ActiveSession

	statusOverrides map[PortKey]PortStatus
	addedSessions   map[PortKey]ActiveSession
	removedSessions map[PortKey]struct{}
}

// Snapshot is a point-in-time copy of the cache with the overlay merged in.
type Snapshot struct {
	Statuses    map[PortKey]PortStatus
	Consumption map[PortKey]PortConsumption
	Sessions    map[PortKey]ActiveSession
}

// NewCache returns an empty cache.
func NewCache() *Cache {
	return &Cache{
		statuses:        make(map[PortKey]PortStatus),
		consumption:     make(map[PortKey]PortConsumption),
		sessions:        make(map[PortKey]ActiveSession),
		statusOverrides: make(map[PortKey]PortStatus),
		addedSessions:   make(map[PortKey]ActiveSession),
		removedSessions: make(map[PortKey]struct{}),
	}
}

// ReplaceStatuses swaps in a fresh status map and drops status overrides,
// which are now superseded by server truth.
func (c *Cache) ReplaceStatuses(statuses []PortStatus) {
	next := make(map[PortKey]PortStatus, len(statuses))
	for _, s := range statuses {
		next[s.Key()] = s
	}

	c.mu.Lock()
	c.statuses = next
	c.statusOverrides = make(map[PortKey]PortStatus)
	c.mu.Unlock()
}

// ReplaceConsumption swaps in a fresh consumption map.
func (c *Cache) ReplaceConsumption(rows []PortConsumption) {
	next := make(map[PortKey]PortConsumption, len(rows))
	for _, r := range rows {
		next[r.Key()] = r
	}

	c.mu.Lock()
	c.consumption = next
	c.mu.Unlock()
}

// ReplaceSessions swaps in a fresh session map and drops local session edits.
// Callers pass only the current user's sessions.
func (c *Cache) ReplaceSessions(sessions []ActiveSession) {
	next := make(map[PortKey]ActiveSession, len(sessions))
	for _, s := range sessions {
		next[s.Key()] = s
	}

	c.mu.Lock()
	c.sessions = next
	c.addedSessions = make(map[PortKey]ActiveSession)
	c.removedSessions = make(map[PortKey]struct{})
	c.mu.Unlock()
}

// ApplyStartResult records the optimistic outcome of a successful start
// command: the new session plus an ON/online status override.
func (c *Cache) ApplyStartResult(key PortKey, session ActiveSession) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.addedSessions[key] = session
	delete(c.removedSessions, key)
	c.statusOverrides[key] = PortStatus{
		DeviceID:      key.DeviceID,
		Port:          key.Port,
		ChargerState:  ChargerOn,
		StatusMessage: StatusOnline,
	}
}

// ApplyStopResult records the optimistic outcome of a successful stop
// command: the session is hidden and status overridden to OFF/online.
func (c *Cache) ApplyStopResult(key PortKey) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.removedSessions[key] = struct{}{}
	delete(c.addedSessions, key)
	c.statusOverrides[key] = PortStatus{
		DeviceID:      key.DeviceID,
		Port:          key.Port,
		ChargerState:  ChargerOff,
		StatusMessage: StatusOnline,
	}
}

// Snapshot returns a deep copy with overlay entries merged on top of the
// canonical maps. Overrides keep the polled timestamp when one exists.
func (c *Cache) Snapshot() Snapshot {
	c.mu.RLock()
	defer c.mu.RUnlock()

	snap := Snapshot{
		Statuses:    make(map[PortKey]PortStatus, len(c.statuses)),
		Consumption: make(map[PortKey]PortConsumption, len(c.consumption)),
		Sessions:    make(map[PortKey]ActiveSession, len(c.sessions)),
	}
	for k, v := range c.statuses {
		snap.Statuses[k] = v
	}
	for k, v := range c.consumption {
		snap.Consumption[k] = v
	}
	for k, v := range c.sessions {
		if _, removed := c.removedSessions[k]; removed {
			continue
		}
		snap.Sessions[k] = v
	}
	for k, v := range c.addedSessions {
		snap.Sessions[k] = v
	}
	for k, v := range c.statusOverrides {
		if base, ok := snap.Statuses[k]; ok {
			v.Timestamp = base.Timestamp
		}
		snap.Statuses[k] = v
	}
	return snap
}
