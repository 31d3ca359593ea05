package poller

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"portwatch/internal/metrics"
)

// Task is one periodic data source: a name, a cadence, and a fetch.
// A failed run is logged and retried by the next scheduled tick, never
// out of band.
type Task struct {
	Name     string
	Interval time.Duration
	Run      func(ctx context.Context) error
}

// Controller owns the lifecycle of all polling tasks.
//
// Start and Resume fire one immediate run per task, then fresh tickers; an
// interval never carries partial elapsed time across a pause. Pause cancels
// the run context shared by all tasks, so in-flight requests are aborted and
// a late response can never mutate state after suspension. Cached data is
// left in place while paused: stale values beat blank ones.
type Controller struct {
	tasks  []Task
	logger *zap.Logger

	mu      sync.Mutex
	cancel  context.CancelFunc
	wg      *sync.WaitGroup
	base    context.Context
	running bool
	stopped bool
}

// NewController returns a controller over the given tasks.
func NewController(tasks []Task, logger *zap.Logger) *Controller {
	return &Controller{tasks: tasks, logger: logger}
}

// Start begins polling. The base context bounds the controller's whole life;
// when it is done the controller stops for good.
func (c *Controller) Start(ctx context.Context) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.base != nil || c.stopped {
		return
	}
	c.base = ctx
	c.launchLocked()
}

// Pause suspends all tasks and aborts their in-flight requests. It blocks
// until every runner has returned.
func (c *Controller) Pause() {
	c.mu.Lock()
	if !c.running {
		c.mu.Unlock()
		return
	}
	c.running = false
	cancel := c.cancel
	wg := c.wg
	c.cancel = nil
	c.wg = nil
	c.mu.Unlock()

	cancel()
	wg.Wait()
	c.logger.Info("polling paused")
}

// Resume restarts all tasks: one immediate fetch each, then tickers from zero.
func (c *Controller) Resume() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.running || c.stopped || c.base == nil {
		return
	}
	c.launchLocked()
	c.logger.Info("polling resumed")
}

// Stop shuts the controller down permanently.
func (c *Controller) Stop() {
	c.mu.Lock()
	if c.stopped {
		c.mu.Unlock()
		return
	}
	c.stopped = true
	running := c.running
	c.running = false
	cancel := c.cancel
	wg := c.wg
	c.cancel = nil
	c.wg = nil
	c.mu.Unlock()

	if running && cancel != nil {
		cancel()
		wg.Wait()
	}
	c.logger.Info("polling stopped")
}

// Running reports whether tasks are currently scheduled.
func (c *Controller) Running() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.running
}

func (c *Controller) launchLocked() {
	ctx, cancel := context.WithCancel(c.base)
	wg := &sync.WaitGroup{}
	c.cancel = cancel
	c.wg = wg
	c.running = true
	for _, task := range c.tasks {
		wg.Add(1)
		go c.runTask(ctx, wg, task)
	}
}

func (c *Controller) runTask(ctx context.Context, wg *sync.WaitGroup, task Task) {
	defer wg.Done()

	c.runOnce(ctx, task)

	ticker := time.NewTicker(task.Interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.runOnce(ctx, task)
		}
	}
}

func (c *Controller) runOnce(ctx context.Context, task Task) {
	started := time.Now()
	err := task.Run(ctx)
	metrics.ObservePoll(task.Name, time.Since(started), err)
	if err != nil && !errors.Is(err, context.Canceled) {
		c.logger.Warn("poll failed",
			zap.String("source", task.Name),
			zap.Error(err))
	}
}
