package app

import (
	"context"
	"time"

	"go.uber.org/zap"

	"portwatch/internal/station"
)

// pollStatuses refreshes the hardware status map and mirrors the resolved
// views. A fetch error leaves the map untouched; the next tick retries.
func (a *App) pollStatuses(ctx context.Context) error {
	rows, err := a.apiClient.FetchStatuses(ctx)
	if err != nil {
		return err
	}

	now := time.Now().UTC()
	statuses := make([]station.PortStatus, 0, len(rows))
	for _, r := range rows {
		statuses = append(statuses, station.PortStatus{
			DeviceID:      r.DeviceID,
			Port:          r.PortNumber,
			ChargerState:  r.ChargerState,
			StatusMessage: r.StatusMessage,
			Timestamp:     now,
		})
	}
	a.cache.ReplaceStatuses(statuses)
	a.publishSnapshot(ctx)
	return nil
}

// pollConsumption refreshes the telemetry map.
func (a *App) pollConsumption(ctx context.Context) error {
	rows, err := a.apiClient.FetchConsumption(ctx)
	if err != nil {
		return err
	}

	consumption := make([]station.PortConsumption, 0, len(rows))
	for _, r := range rows {
		consumption = append(consumption, station.PortConsumption{
			DeviceID:  r.DeviceID,
			Port:      r.PortNumber,
			Current:   r.CurrentConsumption,
			TotalMAh:  r.TotalMAh,
			Timestamp: r.Timestamp,
		})
	}
	a.cache.ReplaceConsumption(consumption)
	return nil
}

// pollSessions refreshes the session map with only the current user's
// entries from the global active-session list.
func (a *App) pollSessions(ctx context.Context) error {
	rows, err := a.apiClient.FetchActiveSessions(ctx)
	if err != nil {
		return err
	}

	user, loggedIn := a.users.Current()
	sessions := make([]station.ActiveSession, 0)
	if loggedIn {
		for _, r := range rows {
			if r.UserID != user.ID {
				continue
			}
			sessions = append(sessions, station.ActiveSession{
				SessionID: r.SessionID,
				UserID:    r.UserID,
				DeviceID:  r.DeviceID,
				Port:      r.Port,
			})
		}
	}
	a.cache.ReplaceSessions(sessions)
	return nil
}

// publishSnapshot mirrors resolved views to redis, best-effort.
func (a *App) publishSnapshot(ctx context.Context) {
	if a.publisher == nil {
		return
	}
	if err := a.publisher.Publish(ctx, a.stationID, a.board.Views()); err != nil {
		a.logger.Warn("snapshot publish failed", zap.Error(err))
	}
}
