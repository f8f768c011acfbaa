package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/mr1hm/go-campus-alerts/internal/alerting"
	"github.com/mr1hm/go-campus-alerts/internal/auth"
	"github.com/mr1hm/go-campus-alerts/internal/metrics"
	"github.com/mr1hm/go-campus-alerts/internal/models"
)

type AlertService interface {
	VisibleAlerts(ctx context.Context, user *models.User) ([]models.Alert, error)
	ListAlerts(ctx context.Context, includeInactive bool) ([]models.Alert, error)
	GetAlert(ctx context.Context, id string) (*models.Alert, error)
	CreateAlert(ctx context.Context, in alerting.CreateAlertInput, issuerID string) (*models.Alert, error)
	SetAlertActive(ctx context.Context, id string, active bool) (*models.Alert, error)
}

type AuthService interface {
	Register(ctx context.Context, in auth.RegisterInput) (*models.User, string, error)
	Login(ctx context.Context, email, password string) (*models.User, string, error)
	Authenticate(ctx context.Context, token string) (*models.User, error)
}

type Handler struct {
	alerts  AlertService
	auth    AuthService
	metrics *metrics.Metrics
}

func NewHandler(alerts AlertService, authSvc AuthService, m *metrics.Metrics) *Handler {
	return &Handler{
		alerts:  alerts,
		auth:    authSvc,
		metrics: m,
	}
}

func (h *Handler) RegisterRoutes(r *gin.Engine) {
	r.GET("/health", h.health)
	r.GET("/metrics", gin.WrapH(h.metrics.Handler()))

	authRoutes := r.Group("/api/auth")
	authRoutes.POST("/register", h.register)
	authRoutes.POST("/login", h.login)
	authRoutes.GET("/me", h.Authenticate(), h.me)

	alerts := r.Group("/api/alerts", h.Authenticate())
	alerts.GET("", h.getAlerts)
	alerts.POST("", RequireAdmin(), h.createAlert)
	alerts.GET("/:id", RequireAdmin(), h.getAlert)
	alerts.PUT("/:id", RequireAdmin(), h.updateAlert)
}

func (h *Handler) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// getAlerts returns the caller's visible alerts, newest first. Admins may pass
// include_inactive=true to see ended alerts as well.
func (h *Handler) getAlerts(c *gin.Context) {
	user := currentUser(c)
	ctx := c.Request.Context()

	var (
		alerts []models.Alert
		err    error
	)
	includeInactive, _ := strconv.ParseBool(c.Query("include_inactive"))
	if includeInactive && user.Role.IsAdmin() {
		alerts, err = h.alerts.ListAlerts(ctx, true)
	} else {
		alerts, err = h.alerts.VisibleAlerts(ctx, user)
	}
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, alerts)
}

func (h *Handler) getAlert(c *gin.Context) {
	alert, err := h.alerts.GetAlert(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, alert)
}

func (h *Handler) createAlert(c *gin.Context) {
	var in alerting.CreateAlertInput
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid alert payload"})
		return
	}

	alert, err := h.alerts.CreateAlert(c.Request.Context(), in, currentUser(c).ID)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, alert)
}

type updateAlertRequest struct {
	Active *bool `json:"active"`
}

func (h *Handler) updateAlert(c *gin.Context) {
	var req updateAlertRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Active == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "body must be {\"active\": bool}"})
		return
	}

	alert, err := h.alerts.SetAlertActive(c.Request.Context(), c.Param("id"), *req.Active)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, alert)
}

type sessionResponse struct {
	Token string       `json:"token"`
	User  *models.User `json:"user"`
}

func (h *Handler) register(c *gin.Context) {
	var in auth.RegisterInput
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid registration payload"})
		return
	}

	user, token, err := h.auth.Register(c.Request.Context(), in)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, sessionResponse{Token: token, User: user})
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *Handler) login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid login payload"})
		return
	}

	user, token, err := h.auth.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, sessionResponse{Token: token, User: user})
}

func (h *Handler) me(c *gin.Context) {
	c.JSON(http.StatusOK, currentUser(c))
}

// writeError maps service errors onto status codes.
func (h *Handler) writeError(c *gin.Context, err error) {
	var verr *alerting.ValidationError

	switch {
	case errors.As(err, &verr):
		c.JSON(http.StatusBadRequest, gin.H{"error": verr.Error(), "fields": verr.Fields})
	case errors.Is(err, alerting.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, auth.ErrInvalidInput):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, auth.ErrEmailTaken):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, auth.ErrInvalidCredentials):
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
	default:
		slog.Error("request failed", "method", c.Request.Method, "path", c.FullPath(), "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}
