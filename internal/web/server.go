package web

import (
	"context"
	"log/slog"
	"net/http"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/vbonduro/multirental/internal/service"
)

const requestIDHeader = "X-Request-ID"

type Server struct {
	catalog  *service.CatalogService
	engine   *service.TransitionEngine
	agg      *service.AggregationService
	validate *validator.Validate
	mux      *http.ServeMux
	logger   *slog.Logger
}

func NewServer(catalog *service.CatalogService, engine *service.TransitionEngine, agg *service.AggregationService, logger *slog.Logger) *Server {
	s := &Server{
		catalog:  catalog,
		engine:   engine,
		agg:      agg,
		validate: newValidator(),
		mux:      http.NewServeMux(),
		logger:   logger,
	}
	s.registerRoutes()
	return s
}

func (s *Server) registerRoutes() {
	s.mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	s.mux.HandleFunc("GET /branches", s.handleListBranches)
	s.mux.HandleFunc("POST /branches", s.handleCreateBranch)
	s.mux.HandleFunc("GET /branches/{id}", s.handleGetBranch)
	s.mux.HandleFunc("PATCH /branches/{id}", s.handleUpdateBranch)
	s.mux.HandleFunc("DELETE /branches/{id}", s.handleDeleteBranch)

	s.mux.HandleFunc("POST /branches/{id}/tools", s.handleRegisterTool)
	s.mux.HandleFunc("GET /branches/{id}/stock", s.handleListStock)
	s.mux.HandleFunc("GET /branches/{id}/transactions", s.handleBranchTransactions)
	s.mux.HandleFunc("POST /branches/{id}/stock/{code}/transitions", s.handleTransitionByCode)
	s.mux.HandleFunc("GET /branches/{id}/tools/{toolID}/total", s.handleToolTotal)
	s.mux.HandleFunc("GET /tools/{id}/totals", s.handleToolTotals)

	s.mux.HandleFunc("GET /stock-lines/{id}/transactions", s.handleStockLineHistory)
	s.mux.HandleFunc("POST /stock-lines/{id}/transitions", s.handleTransition)
	s.mux.HandleFunc("DELETE /stock-lines/{id}", s.handleDeleteStockLine)

	s.mux.HandleFunc("GET /search", s.handleSearch)
}

// newValidator reports field errors by their JSON names.
func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// securityHeaders adds defensive HTTP response headers to every response.
func securityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := w.Header()
		h.Set("X-Content-Type-Options", "nosniff")
		h.Set("X-Frame-Options", "DENY")
		h.Set("Referrer-Policy", "no-referrer")
		h.Set("Content-Security-Policy", "default-src 'none'; frame-ancestors 'none'")
		h.Set("Cache-Control", "no-store")
		next.ServeHTTP(w, r)
	})
}

type ctxKey struct{}

// requestID propagates the caller's X-Request-ID or assigns a fresh one.
func requestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(requestIDHeader)
		if id == "" || len(id) > 128 {
			id = uuid.NewString()
		}
		w.Header().Set(requestIDHeader, id)
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), ctxKey{}, id)))
	})
}

func requestIDFrom(ctx context.Context) string {
	id, _ := ctx.Value(ctxKey{}).(string)
	return id
}

// statusRecorder wraps http.ResponseWriter to capture the written status code.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func requestLogger(logger *slog.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		logger.Info("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"duration_ms", time.Since(start).Milliseconds(),
			"request_id", requestIDFrom(r.Context()),
		)
	})
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	requestID(requestLogger(s.logger, securityHeaders(s.mux))).ServeHTTP(w, r)
}

func (s *Server) ListenAndServe(addr string) error {
	s.logger.Info("starting server", "addr", addr)
	srv := &http.Server{
		Addr:         addr,
		Handler:      s,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}
	return srv.ListenAndServe()
}
