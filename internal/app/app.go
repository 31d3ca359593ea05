package app

import (
	"context"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"portwatch/internal/api"
	"portwatch/internal/config"
	httpserver "portwatch/internal/http"
	"portwatch/internal/http/handlers"
	"portwatch/internal/identity"
	"portwatch/internal/poller"
	"portwatch/internal/snapshot"
	"portwatch/internal/station"
)

// App wires the agent's dependency graph.
type App struct {
	server      *httpserver.Server
	controller  *poller.Controller
	redisClient *redis.Client
	publisher   *snapshot.Publisher

	apiClient *api.Client
	cache     *station.Cache
	board     *station.Board
	users     *identity.Provider
	stationID string
	logger    *zap.Logger
}

// New constructs the application graph.
func New(cfg *config.Config, logger *zap.Logger) (*App, error) {
	identities := make([]station.PortIdentity, 0, len(cfg.Station.Ports))
	for _, p := range cfg.Station.Ports {
		identities = append(identities, station.PortIdentity{
			Number:     p.Number,
			DeviceID:   p.DeviceID,
			DevicePort: p.DevicePort,
			Label:      p.Label,
		})
	}
	table, err := station.NewTable(identities)
	if err != nil {
		return nil, err
	}

	cache := station.NewCache()
	board := station.NewBoard(table, cache)

	users := identity.NewProvider()
	if cfg.Backend.Token != "" {
		if err := users.SetToken(cfg.Backend.Token); err != nil {
			// Polling still works without identity; commands will be
			// rejected with "not logged in".
			logger.Warn("backend token rejected", zap.Error(err))
		}
	}

	apiClient := api.NewClient(cfg.Backend.BaseURL, cfg.Backend.Token, cfg.BackendTimeout(), logger)
	dispatcher := station.NewDispatcher(board, cache, apiClient, users, cfg.Station.ID, logger)

	a := &App{
		apiClient: apiClient,
		cache:     cache,
		board:     board,
		users:     users,
		stationID: cfg.Station.ID,
		logger:    logger,
	}

	if cfg.Redis.Addr != "" {
		redisClient, err := snapshot.NewRedisClient(cfg.Redis.Addr, cfg.Redis.Password)
		if err != nil {
			return nil, err
		}
		a.redisClient = redisClient
		a.publisher = snapshot.NewPublisher(redisClient, cfg.SnapshotTTL())
	}

	a.controller = poller.NewController([]poller.Task{
		{Name: "status", Interval: cfg.StatusInterval(), Run: a.pollStatuses},
		{Name: "consumption", Interval: cfg.ConsumptionInterval(), Run: a.pollConsumption},
		{Name: "sessions", Interval: cfg.SessionsInterval(), Run: a.pollSessions},
	}, logger)

	controlHandler := handlers.NewControlHandler(dispatcher, logger)
	routes := httpserver.Routes{
		Ports:      handlers.NewPortsHandler(board),
		PortStart:  controlHandler.Start,
		PortStop:   controlHandler.Stop,
		Visibility: handlers.NewVisibilityHandler(a.controller),
		Health:     handlers.NewHealthHandler(),
		Metrics:    promhttp.Handler(),
	}
	a.server = httpserver.NewServer(cfg.HTTPAddress(), httpserver.NewRouter(routes), logger)

	return a, nil
}

// Run starts polling and serves the view surface until ctx is done.
func (a *App) Run(ctx context.Context) error {
	a.controller.Start(ctx)
	err := a.server.Run(ctx)
	a.controller.Stop()
	return err
}

// Close releases resources.
func (a *App) Close() {
	if a.redisClient != nil {
		if err := a.redisClient.Close(); err != nil {
			a.logger.Warn("failed to close redis", zap.Error(err))
		}
	}
}
