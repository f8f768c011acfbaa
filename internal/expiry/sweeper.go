// Package expiry deactivates alerts whose expiresAt has passed. It is off by
// default; without it expiry is informational only.
package expiry

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/mr1hm/go-campus-alerts/internal/config"
	"github.com/mr1hm/go-campus-alerts/internal/metrics"
	"github.com/mr1hm/go-campus-alerts/internal/models"
	"github.com/mr1hm/go-campus-alerts/internal/worker"
)

type AlertStore interface {
	ExpiredAlerts(ctx context.Context, now time.Time) ([]models.Alert, error)
	SetAlertActive(ctx context.Context, id string, active bool) (*models.Alert, error)
}

type Sweeper struct {
	cfg     *config.Config
	alerts  AlertStore
	metrics *metrics.Metrics
	pool    *worker.Pool[models.Alert]
	wg      sync.WaitGroup
	now     func() time.Time
}

func NewSweeper(cfg *config.Config, alerts AlertStore, m *metrics.Metrics) *Sweeper {
	return &Sweeper{
		cfg:     cfg,
		alerts:  alerts,
		metrics: m,
		now:     time.Now,
	}
}

func (s *Sweeper) Start(ctx context.Context) {
	s.pool = worker.NewPool("expiry", s.cfg.Worker.Count, s.cfg.Worker.BufferSize, s.deactivate)
	s.pool.Start(ctx)

	s.wg.Add(1)
	go s.run(ctx, s.cfg.Expiry.SweepInterval)
}

func (s *Sweeper) run(ctx context.Context, interval time.Duration) {
	defer s.wg.Done()
	slog.Info("starting expiry sweeper", "interval", interval)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	s.sweep(ctx)

	for {
		select {
		case <-ctx.Done():
			slog.Info("expiry sweeper shutting down")
			return
		case <-ticker.C:
			s.sweep(ctx)
		}
	}
}

func (s *Sweeper) sweep(ctx context.Context) {
	expired, err := s.alerts.ExpiredAlerts(ctx, s.now())
	if err != nil {
		slog.Error("expiry sweep failed", "error", err)
		return
	}

	for _, a := range expired {
		if err := s.pool.Submit(ctx, a); err != nil {
			slog.Debug("expiry sweep interrupted", "error", err)
			return
		}
	}

	if len(expired) > 0 {
		slog.Info("expiry sweep queued deactivations", "count", len(expired))
	}
}

func (s *Sweeper) deactivate(ctx context.Context, a models.Alert) error {
	if _, err := s.alerts.SetAlertActive(ctx, a.ID, false); err != nil {
		return fmt.Errorf("deactivating expired alert %s: %w", a.ID, err)
	}

	s.metrics.AlertExpired()
	slog.Info("expired alert deactivated", "alert_id", a.ID, "expires_at", a.ExpiresAt)
	return nil
}

// Stop waits for the sweep loop, then for queued deactivations. Cancel the
// context passed to Start first.
func (s *Sweeper) Stop() {
	s.wg.Wait()
	if s.pool != nil {
		s.pool.Stop()
	}
	slog.Info("expiry sweeper stopped")
}
