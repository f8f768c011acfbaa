package alerting

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/mr1hm/go-campus-alerts/internal/metrics"
	"github.com/mr1hm/go-campus-alerts/internal/models"
	"github.com/mr1hm/go-campus-alerts/internal/repository"
)

const DefaultSource = "Institution Admin"

type CreateAlertInput struct {
	Title               string               `json:"title"`
	Description         string               `json:"description"`
	Severity            models.Severity      `json:"severity"`
	Source              string               `json:"source"`
	TargetInstitutionID string               `json:"targetInstitutionId"`
	TargetScope         models.TargetScope   `json:"targetScope"`
	TargetRegions       models.TargetRegions `json:"targetRegions"`
	ExpiresAt           *time.Time           `json:"expiresAt"`
}

type Service struct {
	alerts  repository.AlertRepository
	metrics *metrics.Metrics

	now   func() time.Time
	newID func() string
}

func NewService(alerts repository.AlertRepository, m *metrics.Metrics) *Service {
	return &Service{
		alerts:  alerts,
		metrics: m,
		now:     time.Now,
		newID:   uuid.NewString,
	}
}

// VisibleAlerts returns the active alerts user may see, newest first.
// Admins see every active alert. user must be the caller's current record,
// as read when the session was authenticated.
func (s *Service) VisibleAlerts(ctx context.Context, user *models.User) ([]models.Alert, error) {
	if user == nil {
		return nil, ErrUserNotFound
	}

	active := true
	alerts, err := s.alerts.ListAlerts(ctx, repository.AlertFilter{Active: &active})
	if err != nil {
		return nil, fmt.Errorf("listing active alerts: %w", err)
	}

	if user.Role.IsAdmin() {
		s.metrics.ObserveResolve(true, len(alerts))
		return alerts, nil
	}

	visible := ResolveVisibleAlerts(*user, alerts)
	s.metrics.ObserveResolve(false, len(visible))
	slog.Debug("resolved visible alerts", "user_id", user.ID, "active", len(alerts), "visible", len(visible))
	return visible, nil
}

// ListAlerts returns alerts unfiltered by targeting, for the admin view.
func (s *Service) ListAlerts(ctx context.Context, includeInactive bool) ([]models.Alert, error) {
	var filter repository.AlertFilter
	if !includeInactive {
		active := true
		filter.Active = &active
	}

	alerts, err := s.alerts.ListAlerts(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("listing alerts: %w", err)
	}
	return alerts, nil
}

func (s *Service) GetAlert(ctx context.Context, id string) (*models.Alert, error) {
	a, err := s.alerts.GetAlert(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrAlertNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("reading alert %s: %w", id, err)
	}
	return a, nil
}

// CreateAlert validates in and stores a new active alert issued by issuerID.
func (s *Service) CreateAlert(ctx context.Context, in CreateAlertInput, issuerID string) (*models.Alert, error) {
	now := s.now()

	a, err := s.buildAlert(in, issuerID, now)
	if err != nil {
		return nil, err
	}

	if err := s.alerts.AddAlert(ctx, a); err != nil {
		return nil, fmt.Errorf("storing alert: %w", err)
	}

	s.metrics.AlertCreated(string(a.Severity))
	slog.Info("alert created",
		"alert_id", a.ID,
		"severity", a.Severity,
		"scope", a.TargetScope,
		"issued_by", issuerID,
		"global", a.TargetRegions.IsGlobal(),
	)
	return a, nil
}

func (s *Service) buildAlert(in CreateAlertInput, issuerID string, now time.Time) (*models.Alert, error) {
	verr := &ValidationError{}

	title := strings.TrimSpace(in.Title)
	if title == "" {
		verr.add("title", "is required")
	}
	description := strings.TrimSpace(in.Description)
	if description == "" {
		verr.add("description", "is required")
	}

	severity := in.Severity
	if severity == "" {
		severity = models.SeverityInfo
	}
	if !severity.Valid() {
		verr.add("severity", fmt.Sprintf("must be one of info, warning, emergency (got %q)", in.Severity))
	}

	scope := in.TargetScope
	if scope == "" {
		scope = models.ScopeGlobal
	}
	if !scope.Valid() {
		verr.add("targetScope", fmt.Sprintf("must be one of global, state, district, city (got %q)", in.TargetScope))
	}

	if in.ExpiresAt != nil && !in.ExpiresAt.After(now) {
		verr.add("expiresAt", "must be in the future")
	}

	if !verr.empty() {
		return nil, verr
	}

	source := strings.TrimSpace(in.Source)
	if source == "" {
		source = DefaultSource
	}

	var expiresAt *time.Time
	if in.ExpiresAt != nil {
		t := in.ExpiresAt.UTC()
		expiresAt = &t
	}

	return &models.Alert{
		ID:                  s.newID(),
		Title:               title,
		Description:         description,
		Severity:            severity,
		Source:              source,
		TargetInstitutionID: strings.TrimSpace(in.TargetInstitutionID),
		TargetScope:         scope,
		TargetRegions:       in.TargetRegions.Normalize(),
		IssuedBy:            issuerID,
		Active:              true,
		ExpiresAt:           expiresAt,
		CreatedAt:           now.UTC(),
	}, nil
}

// SetAlertActive is idempotent. Callers must check the actor is an admin.
func (s *Service) SetAlertActive(ctx context.Context, id string, active bool) (*models.Alert, error) {
	a, err := s.alerts.SetActive(ctx, id, active)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrAlertNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("updating alert %s: %w", id, err)
	}

	s.metrics.AlertStateChanged(active)
	slog.Info("alert state changed", "alert_id", id, "active", active)
	return a, nil
}

// ExpiredAlerts returns active alerts whose expiresAt has passed at now.
func (s *Service) ExpiredAlerts(ctx context.Context, now time.Time) ([]models.Alert, error) {
	active := true
	alerts, err := s.alerts.ListAlerts(ctx, repository.AlertFilter{Active: &active, ExpiredBefore: &now})
	if err != nil {
		return nil, fmt.Errorf("listing expired alerts: %w", err)
	}
	return alerts, nil
}
