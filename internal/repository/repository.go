package repository

import (
	"context"
	"errors"
	"time"

	"github.com/mr1hm/go-campus-alerts/internal/models"
)

var (
	ErrNotFound  = errors.New("not found")
	ErrDuplicate = errors.New("already exists")
)

type AlertFilter struct {
	Limit         int
	Active        *bool
	Since         *time.Time
	ExpiredBefore *time.Time // expires_at set and <= this instant
}

// AlertRepository lists alerts newest first (createdAt descending).
type AlertRepository interface {
	AddAlert(ctx context.Context, a *models.Alert) error
	GetAlert(ctx context.Context, id string) (*models.Alert, error)
	ListAlerts(ctx context.Context, opts AlertFilter) ([]models.Alert, error)
	SetActive(ctx context.Context, id string, active bool) (*models.Alert, error)
}

type UserRepository interface {
	AddUser(ctx context.Context, u *models.User) error
	GetUser(ctx context.Context, id string) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	SetRole(ctx context.Context, id string, role models.Role) error
}
