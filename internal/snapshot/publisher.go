package snapshot

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"portwatch/internal/station"
)

const dialTimeout = 5 * time.Second

// NewRedisClient returns a configured go-redis client validated with PING.
func NewRedisClient(addr, password string) (*redis.Client, error) {
	addr = strings.TrimSpace(addr)
	if addr == "" {
		return nil, errors.New("snapshot: redis addr is empty")
	}

	client := redis.NewClient(&redis.Options{
		Addr:        addr,
		Password:    password,
		DialTimeout: dialTimeout,
	})

	ctx, cancel := context.WithTimeout(context.Background(), dialTimeout)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, err
	}
	return client, nil
}

// Publisher mirrors resolved port views into redis so dashboard processes
// can read them without hitting the agent.
type Publisher struct {
	client *redis.Client
	ttl    time.Duration
}

// NewPublisher returns a redis-backed publisher.
func NewPublisher(client *redis.Client, ttl time.Duration) *Publisher {
	return &Publisher{client: client, ttl: ttl}
}

func (p *Publisher) key(stationID string) string {
	return fmt.Sprintf("portwatch:station:%s:ports", stationID)
}

// Publish stores the current port views under the station key.
func (p *Publisher) Publish(ctx context.Context, stationID string, views []station.PortView) error {
	data, err := json.Marshal(views)
	if err != nil {
		return err
	}
	return p.client.Set(ctx, p.key(stationID), data, p.ttl).Err()
}
