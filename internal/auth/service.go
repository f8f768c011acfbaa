// Package auth registers users, checks passwords and maps session tokens to users.
package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/mr1hm/go-campus-alerts/internal/models"
	"github.com/mr1hm/go-campus-alerts/internal/repository"
)

const minPasswordLength = 6

var (
	ErrInvalidInput       = errors.New("invalid input")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrEmailTaken         = errors.New("email already registered")
	ErrUserNotFound       = errors.New("user not found")
)

type RegisterInput struct {
	Name     string          `json:"name"`
	Email    string          `json:"email"`
	Password string          `json:"password"`
	Location models.Location `json:"location"`
}

type Service struct {
	users      repository.UserRepository
	tokens     *Tokens
	bcryptCost int
	now        func() time.Time
}

func NewService(users repository.UserRepository, tokens *Tokens) *Service {
	return &Service{
		users:      users,
		tokens:     tokens,
		bcryptCost: bcrypt.DefaultCost,
		now:        time.Now,
	}
}

// Register creates a plain user. Admin roles are only granted through Promote.
func (s *Service) Register(ctx context.Context, in RegisterInput) (*models.User, string, error) {
	u, err := s.createUser(ctx, in, models.RoleUser)
	if err != nil {
		return nil, "", err
	}

	token, err := s.tokens.Issue(u.ID)
	if err != nil {
		return nil, "", err
	}
	return u, token, nil
}

func (s *Service) Login(ctx context.Context, email, password string) (*models.User, string, error) {
	u, err := s.users.GetUserByEmail(ctx, email)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, "", ErrInvalidCredentials
	}
	if err != nil {
		return nil, "", fmt.Errorf("looking up user: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		return nil, "", ErrInvalidCredentials
	}

	token, err := s.tokens.Issue(u.ID)
	if err != nil {
		return nil, "", err
	}
	return u, token, nil
}

// Authenticate resolves a bearer token to its stored user.
func (s *Service) Authenticate(ctx context.Context, token string) (*models.User, error) {
	userID, err := s.tokens.Parse(token)
	if err != nil {
		return nil, err
	}

	u, err := s.users.GetUser(ctx, userID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("%w: unknown subject", ErrInvalidToken)
	}
	if err != nil {
		return nil, fmt.Errorf("looking up user: %w", err)
	}
	return u, nil
}

func (s *Service) Promote(ctx context.Context, email string, role models.Role) (*models.User, error) {
	if !role.Valid() {
		return nil, fmt.Errorf("%w: unknown role %q", ErrInvalidInput, role)
	}

	u, err := s.users.GetUserByEmail(ctx, email)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("looking up user: %w", err)
	}

	if err := s.users.SetRole(ctx, u.ID, role); err != nil {
		return nil, fmt.Errorf("setting role: %w", err)
	}
	u.Role = role

	slog.Info("user role changed", "user_id", u.ID, "role", role)
	return u, nil
}

// IssueToken signs a session token for a registered user without a password
// check. It is meant for operator tooling that already has database access.
func (s *Service) IssueToken(ctx context.Context, email string) (string, error) {
	u, err := s.users.GetUserByEmail(ctx, email)
	if errors.Is(err, repository.ErrNotFound) {
		return "", ErrUserNotFound
	}
	if err != nil {
		return "", fmt.Errorf("looking up user: %w", err)
	}
	return s.tokens.Issue(u.ID)
}

// EnsureUser creates the account unless the email is already registered.
// It reports whether a user was created.
func (s *Service) EnsureUser(ctx context.Context, in RegisterInput, role models.Role) (*models.User, bool, error) {
	existing, err := s.users.GetUserByEmail(ctx, in.Email)
	if err == nil {
		return existing, false, nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return nil, false, fmt.Errorf("looking up user: %w", err)
	}

	u, err := s.createUser(ctx, in, role)
	if err != nil {
		return nil, false, err
	}
	return u, true, nil
}

func (s *Service) createUser(ctx context.Context, in RegisterInput, role models.Role) (*models.User, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, fmt.Errorf("%w: name is required", ErrInvalidInput)
	}
	addr, err := mail.ParseAddress(strings.TrimSpace(in.Email))
	if err != nil {
		return nil, fmt.Errorf("%w: email is not valid", ErrInvalidInput)
	}
	if len(in.Password) < minPasswordLength {
		return nil, fmt.Errorf("%w: password must be at least %d characters", ErrInvalidInput, minPasswordLength)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), s.bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("hashing password: %w", err)
	}

	u := &models.User{
		ID:           uuid.NewString(),
		Name:         name,
		Email:        strings.ToLower(addr.Address),
		PasswordHash: string(hash),
		Role:         role,
		Location: models.Location{
			State:    strings.TrimSpace(in.Location.State),
			District: strings.TrimSpace(in.Location.District),
			City:     strings.TrimSpace(in.Location.City),
			Country:  strings.TrimSpace(in.Location.Country),
		},
		CreatedAt: s.now().UTC(),
	}

	if err := s.users.AddUser(ctx, u); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, ErrEmailTaken
		}
		return nil, fmt.Errorf("storing user: %w", err)
	}

	slog.Info("user registered", "user_id", u.ID, "role", role)
	return u, nil
}
