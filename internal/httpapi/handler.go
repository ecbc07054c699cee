package httpapi

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/MrEthical07/sessionauth"
	"github.com/MrEthical07/sessionauth/middleware"
)

// Engine is the subset of *sessionauth.Engine the handlers call.
type Engine interface {
	Login(ctx context.Context, email, password string) (sessionauth.TokenPair, error)
	Refresh(ctx context.Context, refreshToken string) (sessionauth.TokenPair, error)
	Logout(ctx context.Context, accountID string) error
	ValidateAccess(ctx context.Context, accessToken string) (*sessionauth.AuthResult, error)
	Health(ctx context.Context) (time.Duration, error)
}

type loginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type refreshRequest struct {
	RefreshToken string `json:"refreshToken" binding:"required"`
}

// Handler serves the session endpoints.
type Handler struct {
	engine Engine
	logger *zap.Logger
}

func New(engine Engine, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{engine: engine, logger: logger}
}

// Register mounts the routes on r.
func (h *Handler) Register(r gin.IRouter) {
	auth := r.Group("/auth")
	auth.POST("/login", h.login)
	auth.POST("/refresh", h.refresh)
	auth.POST("/logout", middleware.RequireAccess(h.engine), h.logout)

	r.GET("/healthz", h.health)
}

// NewRouter returns a gin engine with recovery, request logging and the
// session routes.
func NewRouter(engine Engine, logger *zap.Logger) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), middleware.RequestLogger(logger))
	New(engine, logger).Register(r)
	return r
}

func (h *Handler) login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	pair, err := h.engine.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, pair)
}

func (h *Handler) refresh(c *gin.Context) {
	var req refreshRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	pair, err := h.engine.Refresh(c.Request.Context(), req.RefreshToken)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, pair)
}

func (h *Handler) logout(c *gin.Context) {
	accountID := middleware.AccountIDFromContext(c)
	if err := h.engine.Logout(c.Request.Context(), accountID); err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "logged out"})
}

func (h *Handler) health(c *gin.Context) {
	latency, err := h.engine.Health(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok", "redis_latency_ms": latency.Milliseconds()})
}

func (h *Handler) writeError(c *gin.Context, err error) {
	switch sessionauth.KindOf(err) {
	case sessionauth.KindInvalidCredentials, sessionauth.KindInvalidToken:
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
	case sessionauth.KindRateLimited:
		c.JSON(http.StatusTooManyRequests, gin.H{"error": "too many attempts"})
	default:
		h.logger.Warn("request failed", zap.String("path", c.FullPath()), zap.Error(err))
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "service unavailable"})
	}
}
