package server

import (
	"database/sql"
	"net/http"

	"github.com/rs/cors"
	"github.com/rs/zerolog"

	"daily-goals-backend/internal/analytics"
	"daily-goals-backend/internal/auth"
	"daily-goals-backend/internal/goals"
	"daily-goals-backend/internal/logging"
	"daily-goals-backend/internal/metrics"
)

// Deps is everything the router needs to build the handlers.
type Deps struct {
	DB             *sql.DB
	Goals          *goals.Service
	Tokens         auth.Tokens
	Metrics        *metrics.Metrics
	Logger         zerolog.Logger
	AllowedOrigins []string
}

type router struct {
	mux     *http.ServeMux
	metrics *metrics.Metrics
	auth    auth.Middleware
}

func (rt *router) public(pattern, route string, h http.HandlerFunc) {
	rt.mux.Handle(pattern, rt.metrics.Instrument(route, h))
}

func (rt *router) private(pattern, route string, h http.HandlerFunc) {
	rt.mux.Handle(pattern, rt.metrics.Instrument(route, rt.auth.Wrap(h)))
}

// NewRouter wires every endpoint behind CORS and request logging.
func NewRouter(d Deps) http.Handler {
	if d.Metrics == nil {
		d.Metrics = metrics.New()
	}

	rt := &router{
		mux:     http.NewServeMux(),
		metrics: d.Metrics,
		auth:    auth.New(d.Tokens.Secret),
	}

	// Health endpoint
	rt.mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		if err := d.DB.PingContext(r.Context()); err != nil {
			http.Error(w, "db unavailable", http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte("OK"))
	})
	rt.mux.Handle("GET /metrics", d.Metrics.Handler())

	// ----- AUTH -----
	rt.public("POST /auth/register", "auth_register", auth.RegisterHandler(d.DB, d.Tokens))
	rt.public("POST /auth/login", "auth_login", auth.LoginHandler(d.DB, d.Tokens))
	rt.public("POST /auth/guest", "auth_guest", auth.GuestHandler(d.DB, d.Tokens))
	rt.private("POST /auth/link", "auth_link", auth.LinkHandler(d.DB, d.Tokens))
	rt.private("GET /auth/me", "auth_me", auth.MeHandler(d.DB))
	rt.private("POST /auth/logout", "auth_logout", auth.LogoutHandler())
	rt.private("DELETE /auth/account", "auth_delete_account", auth.DeleteAccountHandler(d.DB))

	// ----- GOALS -----
	rt.private("GET /goals", "goals_list", goals.ListGoalsHandler(d.Goals))
	rt.private("POST /goals", "goals_create", goals.CreateGoalHandler(d.Goals, d.DB))
	rt.private("PUT /goals/order", "goals_reorder", goals.ReorderGoalsHandler(d.Goals, d.DB))
	rt.private("PATCH /goals/{id}", "goals_update", goals.UpdateGoalHandler(d.Goals, d.DB))
	rt.private("DELETE /goals/{id}", "goals_delete", goals.DeleteGoalHandler(d.Goals, d.DB))
	rt.private("POST /goals/{id}/toggle", "goals_toggle", goals.ToggleGoalHandler(d.Goals, d.DB))

	// ----- PROGRESS -----
	rt.private("GET /progress/yearly", "progress_yearly", goals.YearlyProgressHandler(d.Goals))
	rt.private("GET /progress/{date}", "progress_get", goals.GetDailyProgressHandler(d.Goals))
	rt.private("PUT /progress/{date}", "progress_log", goals.LogDayHandler(d.Goals, d.DB))

	// ----- ANALYTICS -----
	rt.private("POST /analytics/app-opened", "analytics_app_opened", analytics.AppOpenedHandler(d.DB))

	origins := d.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	c := cors.New(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{
			http.MethodGet, http.MethodPost, http.MethodPut,
			http.MethodPatch, http.MethodDelete, http.MethodOptions,
		},
		AllowedHeaders: []string{
			"Content-Type", "Authorization", "Idempotency-Key",
			"X-Session-Id", "X-Platform", "X-App-Version", "X-Device-Locale",
			logging.RequestIDHeader,
		},
		ExposedHeaders:   []string{logging.RequestIDHeader},
		AllowCredentials: true,
	})

	return logging.Middleware(d.Logger, c.Handler(rt.mux))
}
