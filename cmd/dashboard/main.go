// Command dashboard is the farewell admin dashboard gateway: it owns the
// browser session, guards routes by role, resolves feature flags and proxies
// every data operation to the farewell REST backend.
package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/prakasajudha/farewell-pet/pkg/backend"
	"github.com/prakasajudha/farewell-pet/pkg/flags"
	"github.com/prakasajudha/farewell-pet/pkg/guard"
	"github.com/prakasajudha/farewell-pet/pkg/httpx"
	"github.com/prakasajudha/farewell-pet/pkg/metrics"
	"github.com/prakasajudha/farewell-pet/pkg/ratelimit"
	"github.com/prakasajudha/farewell-pet/pkg/session"
	"github.com/prakasajudha/farewell-pet/pkg/store"
	"github.com/prakasajudha/farewell-pet/pkg/telemetry"

	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"
)

type Server struct {
	Backend          *backend.Client
	Sessions         *session.Store
	Flags            *flags.Resolver
	Metrics          *metrics.Registry
	Guard            *guard.Middleware
	RateLimiter      ratelimit.Limiter
	RateLimitEnabled bool
	LoginPerMinute   int
	SessionTTL       time.Duration
	CookieSecure     bool
}

type initTelemetryFunc func(ctx context.Context, service string) (func(context.Context) error, error)
type openRedisFunc func(ctx context.Context) (*redis.Client, error)
type listenFunc func(server *http.Server) error

var (
	initTelemetryFn initTelemetryFunc = telemetry.Init
	openRedisFn     openRedisFunc     = store.NewRedis
	listenFn        listenFunc        = func(server *http.Server) error { return server.ListenAndServe() }
	logFatalf                         = log.Fatalf
)

func main() {
	if err := runDashboard(initTelemetryFn, openRedisFn, listenFn); err != nil {
		logFatalf("dashboard: %v", err)
	}
}

func runDashboard(initTelemetry initTelemetryFunc, openRedis openRedisFunc, listen listenFunc) error {
	ctx := context.Background()
	shutdown, err := initTelemetry(ctx, "farewell-dashboard")
	if err != nil {
		return fmt.Errorf("otel: %w", err)
	}
	defer func() { _ = shutdown(context.Background()) }()

	redisClient, err := openRedis(ctx)
	if err != nil {
		log.Printf("redis unavailable, falling back to in-memory sessions/limits: %v", err)
		redisClient = nil
	}
	if redisClient != nil {
		defer redisClient.Close()
	}
	kv := store.NewKV(ctx, redisClient)

	sessionTTL := time.Minute * time.Duration(envInt("SESSION_TTL_MIN", 12*60))
	if sessionTTL <= 0 {
		sessionTTL = 12 * time.Hour
	}
	upstreamTimeout := time.Millisecond * time.Duration(envInt("UPSTREAM_TIMEOUT_MS", 5000))

	client := backend.New(env("BACKEND_URL", "http://localhost:3000"), telemetry.InstrumentClient(&http.Client{Timeout: upstreamTimeout}))
	client.Retries = envInt("UPSTREAM_RETRIES", 1)
	client.RetryDelay = time.Millisecond * time.Duration(envInt("UPSTREAM_RETRY_DELAY_MS", 50))

	s := &Server{
		Backend:          client,
		Sessions:         session.NewStore(kv, sessionTTL),
		Flags:            &flags.Resolver{Source: client},
		Metrics:          metrics.NewRegistry(),
		RateLimitEnabled: env("RATE_LIMIT_ENABLED", "true") == "true",
		LoginPerMinute:   envInt("LOGIN_RATE_LIMIT_PER_MINUTE", 10),
		SessionTTL:       sessionTTL,
		CookieSecure:     env("COOKIE_SECURE", "true") == "true",
	}
	s.Guard = &guard.Middleware{
		Sessions: s.Sessions,
		Observe: func(p guard.Policy, d guard.Decision) {
			s.Metrics.IncGuard(p.String(), d.State.String(), d.Reason)
		},
	}
	if s.RateLimitEnabled {
		window := time.Second * time.Duration(envInt("RATE_LIMIT_WINDOW_SEC", 60))
		if redisClient != nil {
			s.RateLimiter = ratelimit.NewRedis(redisClient, window)
		} else {
			s.RateLimiter = ratelimit.NewInMemory(window)
		}
	}

	r := s.routes(env("CORS_ALLOWED_ORIGINS", ""))

	addr := env("ADDR", ":8090")
	log.Printf("dashboard listening on %s", addr)
	server := &http.Server{
		Addr:              addr,
		Handler:           r,
		ReadHeaderTimeout: envDurationSec("HTTP_READ_HEADER_TIMEOUT_SEC", 5),
		ReadTimeout:       envDurationSec("HTTP_READ_TIMEOUT_SEC", 15),
		WriteTimeout:      envDurationSec("HTTP_WRITE_TIMEOUT_SEC", 30),
		IdleTimeout:       envDurationSec("HTTP_IDLE_TIMEOUT_SEC", 120),
	}
	if listen == nil {
		return errors.New("listen function required")
	}
	return listen(server)
}

func (s *Server) routes(corsOrigins string) http.Handler {
	r := chi.NewRouter()
	r.Use(httpx.CORSMiddleware(corsOrigins))
	r.Use(httpx.SecurityHeadersMiddleware)
	r.Use(s.metricsMiddleware)
	r.Use(telemetry.HTTPMiddleware("farewell-dashboard"))

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		httpx.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok", "service": "dashboard"})
	})
	r.Post("/api/login", s.handleLogin)
	r.Post("/api/logout", s.handleLogout)
	r.Get("/api/unauthorized", s.handleUnauthorized)

	r.Group(func(r chi.Router) {
		r.Use(s.Guard.Require(guard.Authenticated))
		r.Get("/api/shell", s.handleShell)
		r.Get("/api/messages/public", s.handlePublicMessages)
		r.Get("/api/messages/mine", s.handleMyMessages)
		r.Post("/api/messages", s.handleSendMessage)
		r.Get("/api/stats", s.handleStats)
		r.Get("/api/leaderboard", s.handleLeaderboard)
		r.Get("/api/users", s.handleUsers)
		r.Get("/api/user-details", s.handleUserDetails)
		r.Put("/api/password", s.handleChangePassword)
	})

	r.Group(func(r chi.Router) {
		r.Use(s.Guard.Require(guard.AdminOrSemiAdmin))
		r.Get("/api/messages/favorites", s.handleFavoriteMessages)
		r.Put("/api/messages/{message_id}/favorite", s.handleToggleFavorite)
	})

	r.Group(func(r chi.Router) {
		r.Use(s.Guard.Require(guard.AdminOnly))
		r.Get("/api/settings", s.handleGetSettings)
		r.Put("/api/settings", s.handleUpdateSettings)
		r.Post("/api/users/register", s.handleRegisterUser)
		r.Get("/api/metrics", s.Metrics.Handler())
	})
	return r
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(statusCode int) {
	s.status = statusCode
	s.ResponseWriter.WriteHeader(statusCode)
}

func (s *Server) metricsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		start := time.Now()
		next.ServeHTTP(rec, r)
		s.Metrics.Observe(r.Method+" "+r.URL.Path, rec.status, time.Since(start))
	})
}

// clientIP prefers X-Forwarded-For from the fronting proxy, falling back to
// the socket address.
func clientIP(r *http.Request) string {
	if fwd := strings.TrimSpace(r.Header.Get("X-Forwarded-For")); fwd != "" {
		if idx := strings.Index(fwd, ","); idx >= 0 {
			fwd = fwd[:idx]
		}
		return strings.TrimSpace(fwd)
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

func env(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func envInt(k string, def int) int {
	if v := os.Getenv(k); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return def
}

func envDurationSec(k string, def int) time.Duration {
	return time.Second * time.Duration(envInt(k, def))
}
