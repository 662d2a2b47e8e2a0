// Package dashboard exposes the dashboard queries and the ticket workflow
// over HTTP with gin.
package dashboard

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	coredash "github.com/kilianp07/feederwatch/core/dashboard"
	"github.com/kilianp07/feederwatch/core/logger"
	"github.com/kilianp07/feederwatch/core/tickets"
)

// Handler serves the dashboard API.
type Handler struct {
	svc     *coredash.Service
	tickets *tickets.Store
	log     logger.Logger
}

// NewRouter builds the gin engine. tk may be nil, in which case the ticket
// routes are not registered. A non-empty token protects /api and /admin.
func NewRouter(svc *coredash.Service, tk *tickets.Store, token string, log logger.Logger) *gin.Engine {
	h := &Handler{svc: svc, tickets: tk, log: log}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(requestLogger(log))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "service": "feederwatch"})
	})

	api := r.Group("/api", bearerAuth(token))
	{
		api.GET("/latest-data", h.latestData)
		api.GET("/customer/:id", h.customerHistory)
		api.GET("/engineer/:name", h.engineerTasks)
		api.GET("/admin/summary", h.adminSummary)
		if tk != nil {
			api.GET("/issues", h.listIssues)
			api.POST("/issues", h.raiseIssue)
			api.POST("/issues/:id/assign", h.assignIssue)
			api.POST("/issues/:id/resolve", h.resolveIssue)
			api.POST("/tasks/:customer_id/status", h.updateTaskStatus)
			api.GET("/notifications/:engineer", h.notifications)
		}
	}

	admin := r.Group("/admin", bearerAuth(token))
	{
		admin.GET("/charts/feeders", h.feederChart)
	}
	return r
}

// bearerAuth rejects requests without "Authorization: Bearer <token>". An
// empty token disables the check.
func bearerAuth(token string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if token == "" {
			c.Next()
			return
		}
		auth := c.GetHeader("Authorization")
		if !strings.HasPrefix(auth, "Bearer ") || strings.TrimPrefix(auth, "Bearer ") != token {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}
		c.Next()
	}
}

func requestLogger(log logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		log.Debugw("http request", map[string]any{
			"method":   c.Request.Method,
			"path":     c.FullPath(),
			"status":   c.Writer.Status(),
			"duration": time.Since(start).String(),
		})
	}
}
