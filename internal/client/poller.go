package client

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/mr1hm/go-campus-alerts/internal/metrics"
)

const DefaultPollInterval = 5 * time.Second

// Poller fetches the visible alerts on a fixed interval while a session token
// is set and feeds them to a Controller. Results are numbered as they are
// requested and only a result newer than the last applied one is used.
type Poller struct {
	fetcher  Fetcher
	ctrl     *Controller
	interval time.Duration
	metrics  *metrics.Metrics

	// lifecycle serializes Start, Stop, Login, Logout and Refresh
	lifecycle sync.Mutex

	mu       sync.Mutex
	parent   context.Context
	token    string
	loopCtx  context.Context
	cancel   context.CancelFunc
	loopDone chan struct{}
	issued   uint64
	applied  uint64
	failures int

	fetches sync.WaitGroup
}

func NewPoller(fetcher Fetcher, ctrl *Controller, interval time.Duration, m *metrics.Metrics) *Poller {
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	return &Poller{
		fetcher:  fetcher,
		ctrl:     ctrl,
		interval: interval,
		metrics:  m,
	}
}

// Start enables polling under ctx. Nothing is fetched until a token is set.
func (p *Poller) Start(ctx context.Context) {
	p.lifecycle.Lock()
	defer p.lifecycle.Unlock()

	p.mu.Lock()
	defer p.mu.Unlock()

	if p.parent != nil {
		return
	}
	p.parent = ctx
	if p.token != "" {
		p.startLoop()
	}
}

// Stop halts polling, waits for in-flight fetches and silences the alarm.
// The session and its dismissals are kept.
func (p *Poller) Stop() {
	p.lifecycle.Lock()
	defer p.lifecycle.Unlock()

	p.stopLoop()

	p.mu.Lock()
	p.parent = nil
	p.mu.Unlock()

	p.ctrl.StopAlarm()
}

// Login begins a new session with token and fetches immediately.
func (p *Poller) Login(token string) {
	p.lifecycle.Lock()
	defer p.lifecycle.Unlock()

	p.stopLoop()
	p.ctrl.Reset()

	p.mu.Lock()
	defer p.mu.Unlock()

	p.token = token
	p.failures = 0
	if p.parent != nil && token != "" {
		p.startLoop()
	}
}

// Logout stops polling, clears the display and forgets the token.
func (p *Poller) Logout() {
	p.lifecycle.Lock()
	defer p.lifecycle.Unlock()

	p.stopLoop()
	p.ctrl.Reset()

	p.mu.Lock()
	p.token = ""
	p.mu.Unlock()
}

// Refresh fetches now without waiting for the next tick.
func (p *Poller) Refresh() {
	p.lifecycle.Lock()
	defer p.lifecycle.Unlock()

	p.mu.Lock()
	ctx := p.loopCtx
	p.mu.Unlock()

	if ctx != nil {
		p.fetch(ctx)
	}
}

// Failures is the number of fetches that failed since the last success.
func (p *Poller) Failures() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.failures
}

// startLoop must be called with p.mu held.
func (p *Poller) startLoop() {
	ctx, cancel := context.WithCancel(p.parent)
	done := make(chan struct{})

	p.loopCtx = ctx
	p.cancel = cancel
	p.loopDone = done

	go p.run(ctx, done)
}

// stopLoop must be called with p.lifecycle held and p.mu not held. Every
// fetch issued before it returns is discarded.
func (p *Poller) stopLoop() {
	p.mu.Lock()
	cancel, done := p.cancel, p.loopDone
	p.loopCtx, p.cancel, p.loopDone = nil, nil, nil
	p.applied = p.issued
	p.mu.Unlock()

	if cancel != nil {
		cancel()
		<-done
	}
	p.fetches.Wait()
}

func (p *Poller) run(ctx context.Context, done chan<- struct{}) {
	defer close(done)
	slog.Info("starting alert poller", "interval", p.interval)

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	p.fetch(ctx)

	for {
		select {
		case <-ctx.Done():
			slog.Info("alert poller shutting down")
			return
		case <-ticker.C:
			p.fetch(ctx)
		}
	}
}

func (p *Poller) fetch(ctx context.Context) {
	p.mu.Lock()
	p.issued++
	seq := p.issued
	token := p.token
	p.mu.Unlock()

	p.fetches.Add(1)
	go func() {
		defer p.fetches.Done()

		alerts, err := p.fetcher.FetchAlerts(ctx, token)

		p.mu.Lock()
		defer p.mu.Unlock()

		if ctx.Err() != nil || seq <= p.applied {
			p.metrics.ClientFetch(metrics.FetchStale)
			slog.Debug("discarding stale alert fetch", "seq", seq, "applied", p.applied)
			return
		}
		if err != nil {
			p.failures++
			p.metrics.ClientFetch(metrics.FetchFailed)
			slog.Warn("alert fetch failed", "error", err, "consecutive_failures", p.failures)
			return
		}

		p.applied = seq
		p.failures = 0
		p.metrics.ClientFetch(metrics.FetchOK)
		p.ctrl.Apply(alerts)
		slog.Debug("applied alert fetch", "seq", seq, "count", len(alerts))
	}()
}
