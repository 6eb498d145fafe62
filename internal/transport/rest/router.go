package rest

import (
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"lingocache/internal/service"
	"lingocache/internal/transport/rest/handler"
	"lingocache/internal/transport/rest/middleware"
	"lingocache/internal/transport/ws"
)

// Container holds all dependencies for the router
type Container struct {
	Evaluations handler.Evaluator
	AuthService *service.AuthService // nil disables auth
	Telemetry   handler.StatsSource
	Scorer      handler.ScorerStats
	WSHub       *ws.Hub
	Metrics     prometheus.Gatherer
	Provider    string
	Backend     string
	CORSOrigins string
	Logger      *slog.Logger
}

// NewRouter creates the API router with all endpoints
func NewRouter(c *Container) http.Handler {
	r := mux.NewRouter()

	evalHandler := handler.NewEvaluationHandler(c.Evaluations, c.Logger)
	statsHandler := handler.NewStatsHandler(c.Telemetry, c.Scorer, c.Provider, c.Backend)
	authMW := middleware.NewAuthMiddleware(c.AuthService)

	// CORS middleware (apply first)
	r.Use(corsMiddleware(c.CORSOrigins))

	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	}).Methods("GET")

	if c.Metrics != nil {
		r.Handle("/metrics", promhttp.HandlerFor(c.Metrics, promhttp.HandlerOpts{})).Methods("GET")
	}

	v1 := r.PathPrefix("/v1").Subrouter()

	// Public routes
	if c.AuthService != nil {
		authHandler := handler.NewAuthHandler(c.AuthService)
		v1.HandleFunc("/auth/token", authHandler.Token).Methods("POST", "OPTIONS")
	}

	// WebSocket routes (token in query param)
	if c.WSHub != nil {
		wsHandler := ws.NewHandler(c.WSHub, c.AuthService, c.Logger)
		v1.HandleFunc("/ws/telemetry", wsHandler.Telemetry).Methods("GET")
	}

	// Client routes
	api := v1.NewRoute().Subrouter()
	api.Use(authMW.RequireClient)

	api.HandleFunc("/evaluations", evalHandler.Evaluate).Methods("POST", "OPTIONS")
	api.HandleFunc("/stats", statsHandler.Get).Methods("GET", "OPTIONS")

	return r
}

func corsMiddleware(allowedOrigins string) mux.MiddlewareFunc {
	if allowedOrigins == "" {
		allowedOrigins = "*"
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Access-Control-Allow-Origin", allowedOrigins)
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

			if r.Method == "OPTIONS" {
				w.WriteHeader(http.StatusOK)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
