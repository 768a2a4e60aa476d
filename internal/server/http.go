package server

import (
	"context"
	"net/http"
	"sort"
	"time"

	"github.com/go-chi/cors"
	"github.com/rs/zerolog"

	"github.com/gokatarajesh/question-bank/internal/auth"
	"github.com/gokatarajesh/question-bank/internal/config"
	"github.com/gokatarajesh/question-bank/internal/creator"
	"github.com/gokatarajesh/question-bank/internal/dashboard"
	"github.com/gokatarajesh/question-bank/internal/metrics"
	"github.com/gokatarajesh/question-bank/internal/question"
	httperrors "github.com/gokatarajesh/question-bank/pkg/http/errors"
)

const readinessTimeout = 2 * time.Second

// Check reports whether a dependency is reachable.
type Check func(ctx context.Context) error

// Routes groups the module handlers; nil members are skipped.
type Routes struct {
	Questions *question.HTTPHandler
	Creator   *creator.HTTPHandler
	Dashboard *dashboard.HTTPHandler
	Auth      *auth.HTTPHandlers
	Stream    http.HandlerFunc
	// Guard wraps every mutating route.
	Guard question.Middleware
}

// NewHTTPServer wires health, metrics and module routes behind CORS, request
// logging and metrics middleware.
func NewHTTPServer(cfg *config.App, logger zerolog.Logger, routes Routes, checks map[string]Check) *http.Server {
	return &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           NewHandler(cfg, logger, routes, checks),
		ReadHeaderTimeout: 10 * time.Second,
	}
}

// NewHandler builds the full handler chain; split out for tests.
func NewHandler(cfg *config.App, logger zerolog.Logger, routes Routes, checks map[string]Check) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		httperrors.RespondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	mux.HandleFunc("GET /readyz", readinessHandler(logger, checks))
	mux.Handle("GET /metrics", metrics.Handler())

	if routes.Questions != nil {
		routes.Questions.Register(mux, routes.Guard)
	}
	if routes.Creator != nil {
		routes.Creator.Register(mux, routes.Guard)
	}
	if routes.Dashboard != nil {
		routes.Dashboard.Register(mux)
	}
	if routes.Auth != nil {
		routes.Auth.Register(mux)
	}
	if routes.Stream != nil {
		mux.HandleFunc("GET /ws/questions", routes.Stream)
	}

	var h http.Handler = mux
	h = metrics.Middleware(cfg.Name)(h)
	h = RequestLogger(logger)(h)
	h = cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORS.AllowedOrigins,
		AllowedMethods:   cfg.CORS.AllowedMethods,
		AllowedHeaders:   cfg.CORS.AllowedHeaders,
		ExposedHeaders:   []string{"Location", requestIDHeader},
		AllowCredentials: cfg.CORS.AllowCredentials,
		MaxAge:           cfg.CORS.MaxAge,
	})(h)
	return h
}

func readinessHandler(logger zerolog.Logger, checks map[string]Check) http.HandlerFunc {
	names := make([]string, 0, len(checks))
	for name := range checks {
		names = append(names, name)
	}
	sort.Strings(names)

	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), readinessTimeout)
		defer cancel()

		status := map[string]string{}
		ready := true
		for _, name := range names {
			if err := checks[name](ctx); err != nil {
				logger.Warn().Err(err).Str("dependency", name).Msg("readiness check failed")
				status[name] = "down"
				ready = false
				continue
			}
			status[name] = "up"
		}

		code := http.StatusOK
		overall := "ready"
		if !ready {
			code = http.StatusServiceUnavailable
			overall = "not_ready"
		}
		httperrors.RespondJSON(w, code, map[string]any{"status": overall, "dependencies": status})
	}
}
