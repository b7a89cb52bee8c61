// Package httpapi is the request boundary: it builds the caller context once
// per request, decodes payloads, and maps engine error kinds to HTTP status
// classes. No business rule lives here.
package httpapi

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"stagegate/internal/bootstrap/logging"
)

func NewRouter(gateSvc GateService, signoffSvc SignoffService) http.Handler {
	gates := &gateHTTPHandler{svc: gateSvc}
	signoffs := &signoffHTTPHandler{svc: signoffSvc}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(requestLogger)

	r.Route("/api", func(r chi.Router) {
		r.Route("/programs/{programID}", func(r chi.Router) {
			r.Post("/gates/{gateType}/evaluate", gates.handleEvaluate)
			r.Post("/criteria", gates.handleCreateCriterion)
			r.Get("/criteria", gates.handleListCriteria)
			r.Get("/signoffs/pending", signoffs.handlePending)
			r.Get("/signoffs/summary", signoffs.handleSummary)
		})

		r.Put("/criteria/{criterionID}", gates.handleUpdateCriterion)
		r.Delete("/criteria/{criterionID}", gates.handleDeleteCriterion)

		r.Get("/gates/{entityType}/{entityID}/history", gates.handleHistory)
		r.Get("/gates/{entityType}/{entityID}/scorecard", gates.handleScorecard)

		r.Post("/signoffs/approve", signoffs.handleApprove)
		r.Post("/signoffs/revoke", signoffs.handleRevoke)
		r.Get("/signoffs/{entityType}/{entityID}", signoffs.handleHistory)
		r.Get("/signoffs/{entityType}/{entityID}/approved", signoffs.handleIsApproved)
	})

	return r
}

func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		logging.Info(
			r.Context(),
			"http request",
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.Int("status", ww.Status()),
			slog.Duration("elapsed", time.Since(start)),
		)
	})
}
