package http

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"taskboard/internal/auth"
	"taskboard/internal/repository"
	"taskboard/internal/service"
)

// Config carries the collaborators and settings of a Handler.
type Config struct {
	Users  service.UserService
	Tasks  service.TaskService
	Tokens *auth.TokenService
	Health repository.Pinger
	Logger *logrus.Logger

	// Production marks the session cookie Secure and SameSite=None.
	Production    bool
	AllowedOrigin string

	// TrustedProxies lists the proxy addresses or CIDRs whose
	// X-Forwarded-For header is honoured. Empty means the peer address is
	// always the client address.
	TrustedProxies []string

	// AuthRateLimit requests per AuthRateWindow per client address are
	// allowed on sign-in and sign-up.
	AuthRateLimit  int
	AuthRateWindow time.Duration
}

// Handler wires HTTP routes to domain services.
type Handler struct {
	users          service.UserService
	tasks          service.TaskService
	tokens         *auth.TokenService
	health         repository.Pinger
	logger         *logrus.Logger
	production     bool
	allowedOrigin  string
	trustedProxies []string
	authLimiter    *rateLimiter
}

func NewHandler(cfg Config) *Handler {
	if cfg.Logger == nil {
		cfg.Logger = logrus.New()
	}
	if cfg.AuthRateLimit <= 0 {
		cfg.AuthRateLimit = 100
	}
	if cfg.AuthRateWindow <= 0 {
		cfg.AuthRateWindow = 15 * time.Minute
	}
	return &Handler{
		users:          cfg.Users,
		tasks:          cfg.Tasks,
		tokens:         cfg.Tokens,
		health:         cfg.Health,
		logger:         cfg.Logger,
		production:     cfg.Production,
		allowedOrigin:  cfg.AllowedOrigin,
		trustedProxies: cfg.TrustedProxies,
		authLimiter:    newRateLimiter(cfg.AuthRateLimit, cfg.AuthRateWindow),
	}
}

func (h *Handler) RegisterRoutes(router *gin.Engine) error {
	var proxies []string
	if len(h.trustedProxies) > 0 {
		proxies = h.trustedProxies
	}
	if err := router.SetTrustedProxies(proxies); err != nil {
		return fmt.Errorf("trusted proxies: %w", err)
	}

	router.Use(requestLogger(h.logger), securityHeaders(), corsMiddleware(h.allowedOrigin))

	router.GET("/", func(c *gin.Context) {
		c.String(http.StatusOK, "TODO App")
	})
	router.GET("/health", h.healthCheck)

	user := router.Group("/user")
	{
		limited := h.authLimiter.middleware()
		user.POST("/sign-up", limited, h.signUp)
		user.POST("/sign-in", limited, h.signIn)
		user.GET("/logout", h.logout)
		user.GET("/profile", h.requireAuth(), h.getProfile)
		user.PUT("/profile", h.requireAuth(), h.updateProfile)
	}

	todo := router.Group("/todo", h.requireAuth())
	{
		todo.POST("", h.createTodo)
		todo.GET("", h.listTodos)
		todo.PUT("/:id", h.updateTodo)
		todo.DELETE("/:id", h.deleteTodo)
	}
	return nil
}

func (h *Handler) healthCheck(c *gin.Context) {
	if h.health == nil {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
		return
	}
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()
	if err := h.health.Ping(ctx); err != nil {
		entryFrom(c).WithError(err).Warn("health check failed")
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
