package grpc

import (
	"context"
	"errors"
	"log/slog"
	"net"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"

	"github.com/mr1hm/go-campus-alerts/internal/alerting"
	"github.com/mr1hm/go-campus-alerts/internal/auth"
	"github.com/mr1hm/go-campus-alerts/internal/models"
)

type AlertService interface {
	VisibleAlerts(ctx context.Context, user *models.User) ([]models.Alert, error)
	ListAlerts(ctx context.Context, includeInactive bool) ([]models.Alert, error)
	CreateAlert(ctx context.Context, in alerting.CreateAlertInput, issuerID string) (*models.Alert, error)
	SetAlertActive(ctx context.Context, id string, active bool) (*models.Alert, error)
}

type Authenticator interface {
	Authenticate(ctx context.Context, token string) (*models.User, error)
}

type userKey struct{}

type Server struct {
	alerts     AlertService
	auth       Authenticator
	grpcServer *grpc.Server
}

func NewServer(alerts AlertService, authn Authenticator) *Server {
	s := &Server{
		alerts: alerts,
		auth:   authn,
	}
	s.grpcServer = grpc.NewServer(grpc.UnaryInterceptor(s.authInterceptor))
	registerAlertServiceServer(s.grpcServer, s)
	return s
}

func (s *Server) Start(addr string) error {
	lis, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}

	slog.Info("gRPC server listening", "addr", addr)
	return s.Serve(lis)
}

func (s *Server) Serve(lis net.Listener) error {
	return s.grpcServer.Serve(lis)
}

func (s *Server) Stop() {
	s.grpcServer.GracefulStop()
}

func (s *Server) ListAlerts(ctx context.Context, req *ListAlertsRequest) (*ListAlertsResponse, error) {
	user := userFromContext(ctx)

	var (
		alerts []models.Alert
		err    error
	)
	if req.IncludeInactive && user.Role.IsAdmin() {
		alerts, err = s.alerts.ListAlerts(ctx, true)
	} else {
		alerts, err = s.alerts.VisibleAlerts(ctx, user)
	}
	if err != nil {
		return nil, toStatus(err)
	}
	return &ListAlertsResponse{Alerts: alerts}, nil
}

func (s *Server) CreateAlert(ctx context.Context, req *CreateAlertRequest) (*AlertResponse, error) {
	user, err := requireAdmin(ctx)
	if err != nil {
		return nil, err
	}

	alert, err := s.alerts.CreateAlert(ctx, req.Alert, user.ID)
	if err != nil {
		return nil, toStatus(err)
	}
	return &AlertResponse{Alert: alert}, nil
}

func (s *Server) SetAlertActive(ctx context.Context, req *SetAlertActiveRequest) (*AlertResponse, error) {
	if _, err := requireAdmin(ctx); err != nil {
		return nil, err
	}
	if req.ID == "" {
		return nil, status.Error(codes.InvalidArgument, "id is required")
	}

	alert, err := s.alerts.SetAlertActive(ctx, req.ID, req.Active)
	if err != nil {
		return nil, toStatus(err)
	}
	return &AlertResponse{Alert: alert}, nil
}

// authInterceptor resolves the "authorization" metadata to a user for every call.
func (s *Server) authInterceptor(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
	md, _ := metadata.FromIncomingContext(ctx)
	values := md.Get("authorization")
	if len(values) == 0 {
		return nil, status.Error(codes.Unauthenticated, "missing bearer token")
	}
	token, ok := auth.BearerToken(values[0])
	if !ok {
		return nil, status.Error(codes.Unauthenticated, "missing bearer token")
	}

	user, err := s.auth.Authenticate(ctx, token)
	if err != nil {
		if errors.Is(err, auth.ErrInvalidToken) {
			return nil, status.Error(codes.Unauthenticated, "invalid token")
		}
		slog.Error("gRPC authentication failed", "method", info.FullMethod, "error", err)
		return nil, status.Error(codes.Internal, "internal error")
	}

	return handler(context.WithValue(ctx, userKey{}, user), req)
}

func userFromContext(ctx context.Context) *models.User {
	u, _ := ctx.Value(userKey{}).(*models.User)
	return u
}

func requireAdmin(ctx context.Context) (*models.User, error) {
	user := userFromContext(ctx)
	if user == nil || !user.Role.IsAdmin() {
		return nil, status.Error(codes.PermissionDenied, "admin role required")
	}
	return user, nil
}

func toStatus(err error) error {
	var verr *alerting.ValidationError
	switch {
	case errors.As(err, &verr):
		return status.Error(codes.InvalidArgument, verr.Error())
	case errors.Is(err, alerting.ErrNotFound):
		return status.Error(codes.NotFound, err.Error())
	default:
		slog.Error("gRPC request failed", "error", err)
		return status.Error(codes.Internal, "internal error")
	}
}
