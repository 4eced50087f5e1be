package server

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"github.com/gorilla/websocket"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/culturoquest/quest-server/internal/auth"
	"github.com/culturoquest/quest-server/internal/config"
	"github.com/culturoquest/quest-server/internal/leaderboard"
	"github.com/culturoquest/quest-server/internal/profile"
	ws "github.com/culturoquest/quest-server/pkg/http/ws"
)

// NewHTTPServer wires every route for the API service.
func NewHTTPServer(
	cfg *config.App,
	logger zerolog.Logger,
	pool *pgxpool.Pool,
	redisClient *redis.Client,
	authHandlers *auth.HTTPHandlers,
	authSvc *auth.Service,
	profileHandlers *profile.HTTPHandlers,
	lbHandler *leaderboard.HTTPHandler,
	hub *ws.Hub,
) *http.Server {
	mux := http.NewServeMux()

	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	mux.Handle("/metrics", promhttp.Handler())

	mux.Handle("/v1/ping", instrument("/v1/ping", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := pingDependencies(r.Context(), pool, redisClient); err != nil {
			logger.Error().Err(err).Msg("dependency ping failed")
			http.Error(w, "upstream error", http.StatusBadGateway)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"pong":true}`))
	})))

	// Auth endpoints
	mux.Handle("/v1/auth/register", instrument("/v1/auth/register", http.HandlerFunc(authHandlers.Register)))
	mux.Handle("/v1/auth/login", instrument("/v1/auth/login", http.HandlerFunc(authHandlers.Login)))
	mux.Handle("/v1/auth/refresh", instrument("/v1/auth/refresh", http.HandlerFunc(authHandlers.RefreshToken)))

	// Profile store endpoints (bearer token required)
	requireAuth := auth.RequireAuth(authSvc)
	mux.Handle("/v1/users/me", instrument("/v1/users/me", requireAuth(http.HandlerFunc(profileHandlers.GetMe))))
	mux.Handle("/v1/users/me/progress", instrument("/v1/users/me/progress", requireAuth(http.HandlerFunc(profileHandlers.UpdateProgress))))

	// Public leaderboard
	mux.Handle("/v1/leaderboard", instrument("/v1/leaderboard", http.HandlerFunc(lbHandler.HandleGet)))

	// Live leaderboard socket. Not instrumented: the metrics recorder does
	// not implement http.Hijacker, which the upgrade needs.
	if hub != nil {
		mux.HandleFunc("/ws/leaderboard", leaderboardSocket(hub, logger))
	}

	return &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: corsMiddleware(cfg.CORS, mux),
	}
}

// WSUpgrader handles WebSocket upgrades for the leaderboard socket.
var WSUpgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		// TODO: restrict to the configured CORS origins once the frontend
		// domains settle.
		return true
	},
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
}

func leaderboardSocket(hub *ws.Hub, logger zerolog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		raw, err := WSUpgrader.Upgrade(w, r, nil)
		if err != nil {
			logger.Warn().Err(err).Msg("websocket upgrade failed")
			return
		}

		conn := ws.NewConnection(raw, logger)
		id := hub.Register(conn)

		go conn.WritePump()
		go func() {
			conn.ReadPump()
			hub.Unregister(id)
		}()
	}
}

func corsMiddleware(cfg config.CORS, next http.Handler) http.Handler {
	allowed := make(map[string]struct{}, len(cfg.AllowedOrigins))
	for _, origin := range cfg.AllowedOrigins {
		allowed[origin] = struct{}{}
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		if origin != "" {
			if _, ok := allowed[origin]; ok {
				w.Header().Set("Access-Control-Allow-Origin", origin)
				w.Header().Set("Access-Control-Allow-Methods", strings.Join(cfg.AllowedMethods, ", "))
				w.Header().Set("Access-Control-Allow-Headers", strings.Join(cfg.AllowedHeaders, ", "))
				w.Header().Set("Access-Control-Max-Age", strconv.Itoa(cfg.MaxAge))
				if cfg.AllowCredentials {
					w.Header().Set("Access-Control-Allow-Credentials", "true")
				}
			}
			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusNoContent)
				return
			}
		}
		next.ServeHTTP(w, r)
	})
}

func pingDependencies(ctx context.Context, pool *pgxpool.Pool, redisClient *redis.Client) error {
	if err := pool.Ping(ctx); err != nil {
		return err
	}
	return redisClient.Ping(ctx).Err()
}
