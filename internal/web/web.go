package web

import (
	"context"
	"crypto/subtle"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"freerooms/internal/config"
	appLog "freerooms/internal/log"
	"freerooms/internal/metrics"
	"freerooms/internal/model"
	"freerooms/internal/rooms"
)

const (
	calendarContentType = "text/calendar;charset=UTF-8"
	calendarDisposition = "inline; filename=ADECal.ics"

	// ModeFreeRooms is the default calendar mode.
	ModeFreeRooms = "free-rooms"
	// ModeActivity answers with the activity level per interval.
	ModeActivity = "activity"

	rateLimitBurst = 5
)

// Calendars computes the calendars served over HTTP.
type Calendars interface {
	FreeRooms(ctx context.Context, set []model.Resource) (string, error)
	Activity(ctx context.Context, set []model.Resource) (string, error)
}

// Server serves the computed calendars plus health and metrics endpoints.
type Server struct {
	cfg    *config.Config
	cals   Calendars
	router *gin.Engine
}

// NewServer constructs a new Server.
func NewServer(cfg *config.Config, cals Calendars) *Server {
	s := &Server{cfg: cfg, cals: cals, router: gin.New()}
	s.router.Use(gin.Recovery(), requestLogger())
	s.registerRoutes()
	return s
}

// Handler returns the underlying http.Handler for this server.
func (s *Server) Handler() http.Handler {
	return s.router
}

// StartServer serves on cfg.Listen until ctx is cancelled, then shuts down
// gracefully.
func StartServer(ctx context.Context, cfg *config.Config, cals Calendars) error {
	s := NewServer(cfg, cals)
	srv := &http.Server{
		Addr:              cfg.Listen,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		appLog.Info("starting HTTP server", "listen", "http://"+cfg.Listen)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	appLog.Info("shutting down HTTP server")
	return srv.Shutdown(shutdownCtx)
}

func (s *Server) registerRoutes() {
	s.router.GET("/health", s.handleHealth)

	cal := s.router.Group("/")
	if s.basicAuthEnabled() {
		appLog.Info("HTTP basic auth enabled", "listen", "http://"+s.cfg.Listen)
		cal.Use(s.basicAuth())
	}
	cal.GET("/metrics", gin.WrapH(metrics.Handler()))

	if s.cfg != nil && s.cfg.RateLimitPerSec > 0 {
		cal.Use(rateLimit(s.cfg.RateLimitPerSec, rateLimitBurst))
	}
	cal.GET("/", s.handleCalendar)
	cal.GET("/calendar", s.handleCalendar)
}

func (s *Server) handleHealth(c *gin.Context) {
	c.String(http.StatusOK, "OK")
}

// handleCalendar answers GET /?mode=...&rooms=...
//   - mode:  "free-rooms" (default) or "activity" ("zik" is accepted too)
//   - rooms: comma separated room tokens (4, td4, TD04); empty means the
//     default free-room set
func (s *Server) handleCalendar(c *gin.Context) {
	mode := parseMode(c.Query("mode"))
	set := rooms.DefaultFreeSet()
	if raw := strings.TrimSpace(c.Query("rooms")); raw != "" {
		set = rooms.ParseList(raw)
		if len(set) == 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "no known room in rooms parameter"})
			return
		}
	}

	compute := s.cals.FreeRooms
	if mode == ModeActivity {
		compute = s.cals.Activity
	}

	body, err := compute(c.Request.Context(), set)
	if err != nil {
		appLog.Error("calendar request failed", err, "mode", mode, "rooms", model.SetKey(set))
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "calendar unavailable"})
		return
	}

	c.Header("Content-Disposition", calendarDisposition)
	c.Data(http.StatusOK, calendarContentType, []byte(body))
}

func parseMode(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "zik", ModeActivity:
		return ModeActivity
	default:
		return ModeFreeRooms
	}
}

// basicAuthEnabled reports whether HTTP Basic Auth is configured.
func (s *Server) basicAuthEnabled() bool {
	if s.cfg == nil || s.cfg.BasicAuth == nil {
		return false
	}
	// An empty username or password disables auth.
	return s.cfg.BasicAuth.Username != "" && s.cfg.BasicAuth.Password != ""
}

func (s *Server) basicAuth() gin.HandlerFunc {
	username := s.cfg.BasicAuth.Username
	password := s.cfg.BasicAuth.Password

	return func(c *gin.Context) {
		u, p, ok := c.Request.BasicAuth()
		if !ok || !secureCompare(u, username) || !secureCompare(p, password) {
			c.Header("WWW-Authenticate", `Basic realm="freerooms", charset="UTF-8"`)
			c.AbortWithStatus(http.StatusUnauthorized)
			return
		}
		c.Next()
	}
}

// secureCompare compares two strings in constant time.
func secureCompare(a, b string) bool {
	if len(a) != len(b) {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}

func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		started := time.Now()
		c.Next()
		appLog.Debug("http request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"client", c.ClientIP(),
			"duration_ms", time.Since(started).Milliseconds(),
		)
	}
}
