// Package http exposes the script engine over REST plus an SSE change
// feed. The admin side (steps, products, import/export) and the operator
// side (sessions) share one router.
package http

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	json "github.com/goccy/go-json"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/aretw0/roteiro/internal/logging"
	"github.com/aretw0/roteiro/internal/validator"
	"github.com/aretw0/roteiro/pkg/bundle"
	"github.com/aretw0/roteiro/pkg/domain"
	"github.com/aretw0/roteiro/pkg/persist"
	"github.com/aretw0/roteiro/pkg/render"
	"github.com/aretw0/roteiro/pkg/repository"
	"github.com/aretw0/roteiro/pkg/session"
)

// Server wires the repository, session manager and change bus into HTTP
// handlers.
type Server struct {
	repo     *repository.Repository
	sessions *session.Manager
	bus      *persist.Bus
	logger   *slog.Logger
	version  string
}

// Option configures the Server.
type Option func(*Server)

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) { s.logger = logger }
}

// WithVersion sets the version string reported by /info.
func WithVersion(version string) Option {
	return func(s *Server) { s.version = version }
}

// NewHandler builds the full route tree.
func NewHandler(repo *repository.Repository, sessions *session.Manager, bus *persist.Bus, opts ...Option) http.Handler {
	s := &Server{
		repo:     repo,
		sessions: sessions,
		bus:      bus,
		logger:   logging.NewNop(),
		version:  "dev",
	}
	for _, opt := range opts {
		opt(s)
	}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Get("/health", s.getHealth)
	r.Get("/info", s.getInfo)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())
	r.Get("/events", s.subscribeEvents)

	r.Route("/products", func(r chi.Router) {
		r.Get("/", s.listProducts)
		r.Post("/", s.createProduct)
		r.Route("/{productID}", func(r chi.Router) {
			r.Get("/", s.getProduct)
			r.Put("/", s.updateProduct)
			r.Delete("/", s.deleteProduct)
			r.Get("/steps", s.listProductSteps)
			r.Get("/validate", s.validateProduct)
			r.Get("/export", s.exportProduct)
			r.Get("/report.csv", s.exportProductCSV)
		})
	})

	r.Route("/steps", func(r chi.Router) {
		r.Get("/", s.listSteps)
		r.Post("/", s.createStep)
		r.Route("/{stepID}", func(r chi.Router) {
			r.Get("/", s.getStep)
			r.Put("/", s.updateStep)
			r.Delete("/", s.deleteStep)
			r.Put("/alert", s.setAlert)
			r.Put("/tabulations", s.setTabulations)
		})
	})

	r.Post("/import", s.importBundle)

	r.Route("/sessions", func(r chi.Router) {
		r.Get("/", s.listSessions)
		r.Post("/", s.startSession)
		r.Route("/{sessionID}", func(r chi.Router) {
			r.Get("/", s.getSession)
			r.Delete("/", s.endSession)
			r.Post("/advance", s.advanceSession)
			r.Post("/back", s.backSession)
			r.Get("/view", s.viewSession)
		})
	})

	return enableCORS(r)
}

func enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// -- Shared helpers --

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("http: response encode failed", "err", err)
	}
}

// writeError maps domain errors to status codes. A MissingStepError is the
// dead-end case the front end shows as a warning screen, so it gets its
// own payload shape with the offending step id.
func (s *Server) writeError(w http.ResponseWriter, err error) {
	var missing *domain.MissingStepError
	if errors.As(err, &missing) {
		s.writeJSON(w, http.StatusConflict, map[string]string{
			"error":   missing.Error(),
			"step_id": missing.StepID,
		})
		return
	}

	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, domain.ErrStepNotFound),
		errors.Is(err, domain.ErrProductNotFound),
		errors.Is(err, domain.ErrSessionNotFound):
		status = http.StatusNotFound
	case errors.Is(err, domain.ErrButtonNotFound):
		status = http.StatusBadRequest
	}
	if status == http.StatusInternalServerError {
		s.logger.Error("http: request failed", "err", err)
	}
	s.writeJSON(w, status, map[string]string{"error": err.Error()})
}

func (s *Server) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		s.writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return false
	}
	return true
}

// -- Meta --

func (s *Server) getHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) getInfo(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{
		"app":     "roteiro-http",
		"version": s.version,
	})
}

// -- Products --

func (s *Server) listProducts(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, s.repo.GetProducts())
}

func (s *Server) getProduct(w http.ResponseWriter, r *http.Request) {
	product, err := s.repo.GetProduct(chi.URLParam(r, "productID"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, product)
}

func (s *Server) createProduct(w http.ResponseWriter, r *http.Request) {
	var product domain.Product
	if !s.decode(w, r, &product) {
		return
	}
	if err := s.repo.CreateProduct(&product); err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, product)
}

func (s *Server) updateProduct(w http.ResponseWriter, r *http.Request) {
	var product domain.Product
	if !s.decode(w, r, &product) {
		return
	}
	product.ID = chi.URLParam(r, "productID")
	if err := s.repo.UpdateProduct(&product); err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, product)
}

func (s *Server) deleteProduct(w http.ResponseWriter, r *http.Request) {
	if err := s.repo.DeleteProduct(chi.URLParam(r, "productID")); err != nil {
		s.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) listProductSteps(w http.ResponseWriter, r *http.Request) {
	productID := chi.URLParam(r, "productID")
	if _, err := s.repo.GetProduct(productID); err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, s.repo.GetSteps(productID))
}

func (s *Server) validateProduct(w http.ResponseWriter, r *http.Request) {
	result, err := validator.ValidateProduct(s.repo, chi.URLParam(r, "productID"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, result)
}

// -- Steps --

func (s *Server) listSteps(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, s.repo.GetSteps(r.URL.Query().Get("product_id")))
}

func (s *Server) getStep(w http.ResponseWriter, r *http.Request) {
	step, err := s.repo.GetStep(chi.URLParam(r, "stepID"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, step)
}

func (s *Server) createStep(w http.ResponseWriter, r *http.Request) {
	var step domain.Step
	if !s.decode(w, r, &step) {
		return
	}
	if err := s.repo.CreateStep(&step); err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, step)
}

func (s *Server) updateStep(w http.ResponseWriter, r *http.Request) {
	var step domain.Step
	if !s.decode(w, r, &step) {
		return
	}
	step.ID = chi.URLParam(r, "stepID")
	if err := s.repo.UpdateStep(&step); err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, step)
}

func (s *Server) deleteStep(w http.ResponseWriter, r *http.Request) {
	if err := s.repo.DeleteStep(chi.URLParam(r, "stepID")); err != nil {
		s.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) setAlert(w http.ResponseWriter, r *http.Request) {
	var alert domain.Alert
	if !s.decode(w, r, &alert) {
		return
	}
	if err := s.repo.SetAlert(chi.URLParam(r, "stepID"), &alert); err != nil {
		s.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) setTabulations(w http.ResponseWriter, r *http.Request) {
	var tabs []domain.Tabulation
	if !s.decode(w, r, &tabs) {
		return
	}
	if err := s.repo.SetTabulations(chi.URLParam(r, "stepID"), tabs); err != nil {
		s.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// -- Import / export --

func (s *Server) importBundle(w http.ResponseWriter, r *http.Request) {
	data, err := io.ReadAll(r.Body)
	if err != nil {
		s.writeJSON(w, http.StatusBadRequest, map[string]string{"error": "unreadable body"})
		return
	}
	report, err := bundle.Import(s.repo, data)
	if err != nil {
		s.writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	s.writeJSON(w, http.StatusOK, report)
}

func (s *Server) exportProduct(w http.ResponseWriter, r *http.Request) {
	data, err := bundle.Export(s.repo, chi.URLParam(r, "productID"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Write(data)
}

func (s *Server) exportProductCSV(w http.ResponseWriter, r *http.Request) {
	productID := chi.URLParam(r, "productID")
	product, err := s.repo.GetProduct(productID)
	if err != nil {
		s.writeError(w, err)
		return
	}
	steps := s.repo.GetSteps(productID)

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", productID+".csv"))
	if err := bundle.WriteCSVReport(w, product, steps, time.Now()); err != nil {
		s.logger.Error("http: csv report write failed", "product_id", productID, "err", err)
	}
}

// -- Sessions --

type startSessionRequest struct {
	SessionID string `json:"session_id"`
	ProductID string `json:"product_id"`
}

func (s *Server) startSession(w http.ResponseWriter, r *http.Request) {
	var req startSessionRequest
	if !s.decode(w, r, &req) {
		return
	}
	if req.SessionID == "" || req.ProductID == "" {
		s.writeJSON(w, http.StatusBadRequest, map[string]string{"error": "session_id and product_id are required"})
		return
	}
	state, err := s.sessions.Start(r.Context(), req.SessionID, req.ProductID)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, state)
}

func (s *Server) listSessions(w http.ResponseWriter, r *http.Request) {
	ids, err := s.sessions.List(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}
	if ids == nil {
		ids = []string{}
	}
	s.writeJSON(w, http.StatusOK, ids)
}

func (s *Server) getSession(w http.ResponseWriter, r *http.Request) {
	state, err := s.sessions.Load(r.Context(), chi.URLParam(r, "sessionID"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, state)
}

func (s *Server) endSession(w http.ResponseWriter, r *http.Request) {
	if err := s.sessions.End(r.Context(), chi.URLParam(r, "sessionID")); err != nil {
		s.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type advanceRequest struct {
	ButtonID string `json:"button_id"`
}

func (s *Server) advanceSession(w http.ResponseWriter, r *http.Request) {
	var req advanceRequest
	if !s.decode(w, r, &req) {
		return
	}
	state, err := s.sessions.Advance(r.Context(), chi.URLParam(r, "sessionID"), req.ButtonID)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, state)
}

func (s *Server) backSession(w http.ResponseWriter, r *http.Request) {
	state, moved, err := s.sessions.Back(r.Context(), chi.URLParam(r, "sessionID"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{
		"moved": moved,
		"state": state,
	})
}

func (s *Server) viewSession(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	ph := render.Placeholders{
		OperatorName:      q.Get("operator"),
		CustomerFirstName: q.Get("customer"),
	}
	view, err := s.sessions.View(r.Context(), chi.URLParam(r, "sessionID"), ph)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, view)
}

// -- SSE --

// subscribeEvents streams the typed change feed. Each event tells the
// client something changed and what kind of thing it was; clients re-fetch
// rather than patching local state.
func (s *Server) subscribeEvents(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "Streaming not supported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	ch, cancel := s.bus.Subscribe()
	defer cancel()

	fmt.Fprintf(w, "event: ping\ndata: connected\n\n")
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			return
		case event, ok := <-ch:
			if !ok {
				return
			}
			data, err := json.Marshal(event)
			if err != nil {
				continue
			}
			fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event.Kind, data)
			flusher.Flush()
		}
	}
}
