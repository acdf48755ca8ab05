package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/a-h/templ"
	"github.com/couchcryptid/anaemia-predictor/internal/domain"
	"github.com/couchcryptid/anaemia-predictor/internal/pipeline"
	"github.com/couchcryptid/anaemia-predictor/internal/view"
	sharedobs "github.com/couchcryptid/storm-data-shared/observability"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const maxBodyBytes = 64 << 10

// Predictor runs one submission through the prediction pipeline.
type Predictor interface {
	Run(ctx context.Context, sub domain.Submission) (pipeline.Outcome, error)
}

// Server exposes the prediction page, the report download, the JSON API, and
// health, readiness, and metrics endpoints.
type Server struct {
	httpServer   *http.Server
	predictor    Predictor
	defaultTheme view.Theme
	logger       *slog.Logger
}

// NewServer creates an HTTP server with all routes registered.
func NewServer(addr string, predictor Predictor, ready sharedobs.ReadinessChecker, defaultTheme view.Theme, logger *slog.Logger) *Server {
	mux := http.NewServeMux()

	s := &Server{
		httpServer: &http.Server{
			Addr:         addr,
			Handler:      mux,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 30 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		predictor:    predictor,
		defaultTheme: defaultTheme,
		logger:       logger,
	}

	mux.HandleFunc("GET /{$}", s.handleIndex)
	mux.HandleFunc("POST /predict", s.handlePredict)
	mux.HandleFunc("POST /report", s.handleReport)
	mux.HandleFunc("POST /api/v1/predictions", s.handleAPIPredict)
	mux.HandleFunc("GET /healthz", sharedobs.LivenessHandler())
	mux.HandleFunc("GET /readyz", sharedobs.ReadinessHandler(ready))
	mux.Handle("GET /metrics", promhttp.Handler())

	return s
}

// Start begins listening. Returns http.ErrServerClosed on graceful shutdown.
func (s *Server) Start() error {
	s.logger.Info("http server starting", "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully drains connections within the given context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// ServeHTTP delegates to the underlying handler, useful for testing.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.httpServer.Handler.ServeHTTP(w, r)
}

func (s *Server) renderConfig(theme string) view.RenderConfig {
	return view.RenderConfig{Theme: view.ParseTheme(theme, s.defaultTheme)}
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	cfg := s.renderConfig(r.URL.Query().Get("theme"))
	s.renderPage(w, r, http.StatusOK, view.Page(cfg, view.PageData{Form: view.DefaultFormValues()}))
}

func (s *Server) handlePredict(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	form, theme, err := parseForm(r)
	cfg := s.renderConfig(theme)
	if err != nil {
		s.renderPage(w, r, http.StatusBadRequest, view.Page(cfg, view.PageData{Form: form, Error: err.Error()}))
		return
	}

	out, err := s.predictor.Run(r.Context(), form.Submission())
	if err != nil {
		status, msg := s.classifyError(err)
		s.renderPage(w, r, status, view.Page(cfg, view.PageData{Form: form, Error: msg}))
		return
	}
	s.renderPage(w, r, http.StatusOK, view.Page(cfg, view.PageData{Form: form, Outcome: &out}))
}

func (s *Server) handleReport(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	form, _, err := parseForm(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	out, err := s.predictor.Run(r.Context(), form.Submission())
	if err != nil {
		status, msg := s.classifyError(err)
		http.Error(w, msg, status)
		return
	}

	w.Header().Set("Content-Type", domain.ReportContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", domain.ReportFilename))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write([]byte(out.Report)); err != nil {
		s.logger.Warn("write report failed", "error", err)
	}
}

// apiResponse is the JSON shape of a prediction.
type apiResponse struct {
	pipeline.Outcome
	Warnings []string `json:"warnings"`
}

func (s *Server) handleAPIPredict(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)

	sub := domain.DefaultSubmission()
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&sub); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "decode request: " + err.Error()})
		return
	}

	out, err := s.predictor.Run(r.Context(), sub)
	if err != nil {
		status, msg := s.classifyError(err)
		writeJSON(w, status, map[string]string{"error": msg})
		return
	}

	warnings := out.Warnings()
	if warnings == nil {
		warnings = []string{}
	}
	writeJSON(w, http.StatusOK, apiResponse{Outcome: out, Warnings: warnings})
}

// classifyError maps pipeline errors to a status and a user-facing message.
func (s *Server) classifyError(err error) (int, string) {
	if errors.Is(err, domain.ErrInvalidInput) {
		return http.StatusBadRequest, err.Error()
	}
	s.logger.Error("prediction failed", "error", err)
	if errors.Is(err, domain.ErrModelUnavailable) {
		return http.StatusInternalServerError, "Prediction failed: the model is unavailable. Please try again later."
	}
	return http.StatusInternalServerError, "Prediction failed."
}

func (s *Server) renderPage(w http.ResponseWriter, r *http.Request, status int, c templ.Component) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := c.Render(r.Context(), w); err != nil {
		s.logger.Error("render page failed", "error", err)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v) //nolint:errcheck // best-effort response
}
