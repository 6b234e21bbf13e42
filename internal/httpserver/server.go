// Package httpserver exposes the REST API, the WhatsApp endpoints and
// the operational routes (health, metrics) on a single listener.
package httpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"fincontrol/internal/apperr"
	"fincontrol/internal/auth"
	"fincontrol/internal/gateway"
	"fincontrol/internal/metrics"
	"fincontrol/internal/repo"
)

// Handlers groups optional HTTP handlers to mount.
type Handlers struct {
	WhatsAppWebhook http.Handler
}

// Dependencies exposes core dependencies to handlers that need them.
type Dependencies struct {
	Repository repo.Repository
	Gateway    *gateway.Client
	Auth       *auth.Manager
}

// Server wraps an http.Server with predefined routes.
type Server struct {
	httpServer *http.Server
	logger     *slog.Logger
	metrics    *metrics.Metrics
	handlers   Handlers
	deps       Dependencies
	validate   *validator.Validate
	basePath   string
}

// New creates a new HTTP server listening on addr.
func New(addr string, logger *slog.Logger, metricRegistry *metrics.Metrics, handlers Handlers, deps Dependencies, basePath string) *Server {
	server := &Server{
		logger:   logger.With("component", "http"),
		metrics:  metricRegistry,
		handlers: handlers,
		deps:     deps,
		validate: validator.New(validator.WithRequiredStructEnabled()),
		basePath: normaliseBasePath(basePath),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", server.handleHealth)
	mux.Handle("GET /metrics", promhttp.Handler())

	if handlers.WhatsAppWebhook != nil {
		mux.Handle("POST /whatsapp/webhook", handlers.WhatsAppWebhook)
	}
	mux.HandleFunc("GET /whatsapp/qr", server.handleQR)
	mux.Handle("POST /whatsapp/send", server.requireAuth(server.handleSendMessage))
	mux.HandleFunc("GET /whatsapp/auth", server.handleGetSession)
	mux.HandleFunc("POST /whatsapp/auth", server.handleSaveSession)

	mux.HandleFunc("POST /users/register", server.handleRegister)
	mux.HandleFunc("POST /auth/token", server.handleLogin)
	mux.Handle("GET /users", server.requireAuth(server.handleListUsers))
	mux.Handle("GET /users/phone/{phone}", server.requireAuth(server.handleGetUserByPhone))
	mux.Handle("GET /users/{id}", server.requireAuth(server.handleGetUser))
	mux.Handle("PATCH /users/{id}", server.requireAuth(server.handleUpdateUser))
	mux.Handle("DELETE /users/{id}", server.requireAuth(server.handleDeleteUser))

	mux.Handle("POST /categories", server.requireAuth(server.handleCreateCategory))
	mux.Handle("GET /categories", server.requireAuth(server.handleListCategories))

	mux.Handle("POST /transactions", server.requireAuth(server.handleCreateTransaction))
	mux.Handle("GET /transactions", server.requireAuth(server.handleListTransactions))
	mux.Handle("PATCH /transactions/{id}", server.requireAuth(server.handleUpdateTransaction))
	mux.Handle("DELETE /transactions/{id}", server.requireAuth(server.handleDeleteTransaction))

	mux.Handle("GET /reports/summary", server.requireAuth(server.handlePeriodSummary))
	mux.Handle("GET /reports/monthly", server.requireAuth(server.handleMonthlyReport))
	mux.Handle("GET /reports/weekly", server.requireAuth(server.handleWeeklyDigest))

	handler := mountWithBasePath(server.basePath, mux)

	server.httpServer = &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	if server.basePath != "" {
		server.logger.Info("http server configured with base path", "base_path", server.basePath)
	}

	return server
}

// Start begins listening for incoming HTTP requests.
func (s *Server) Start() error {
	s.logger.Info("http server listening", "addr", s.httpServer.Addr)
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("http server listen: %w", err)
	}
	return nil
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down http server")
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type contextKey string

const claimsKey contextKey = "claims"

// requireAuth rejects requests without a valid bearer token and stores
// the verified claims on the request context.
func (s *Server) requireAuth(next http.HandlerFunc) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || token == "" {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "Token de autenticação ausente"})
			return
		}
		claims, err := s.deps.Auth.Verify(token)
		if err != nil {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"error": apperr.MessageOf(err)})
			return
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), claimsKey, claims)))
	})
}

func claimsFrom(r *http.Request) *auth.Claims {
	claims, _ := r.Context().Value(claimsKey).(*auth.Claims)
	return claims
}

// decodeValid decodes a JSON body into dst and runs struct validation.
func (s *Server) decodeValid(r *http.Request, dst any) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return apperr.New(apperr.Validation, "Corpo da requisição inválido")
	}
	if err := s.validate.Struct(dst); err != nil {
		return apperr.Wrap(apperr.Validation, "Campos obrigatórios ausentes ou inválidos", err)
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		http.Error(w, "failed to encode json", http.StatusInternalServerError)
	}
}

// writeError maps application errors onto HTTP statuses.
func (s *Server) writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch apperr.KindOf(err) {
	case apperr.Validation:
		status = http.StatusUnprocessableEntity
	case apperr.NotFound:
		status = http.StatusNotFound
	case apperr.Conflict:
		status = http.StatusConflict
	case apperr.Upstream:
		status = http.StatusBadGateway
	}
	if status >= 500 {
		s.logger.Error("request failed", "error", err)
		if s.metrics != nil {
			s.metrics.Errors.WithLabelValues("http").Inc()
		}
	}
	writeJSON(w, status, map[string]string{"error": apperr.MessageOf(err)})
}

func mountWithBasePath(basePath string, handler http.Handler) http.Handler {
	if basePath == "" {
		return handler
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasPrefix(r.URL.Path, basePath) {
			http.NotFound(w, r)
			return
		}
		if len(r.URL.Path) > len(basePath) && r.URL.Path[len(basePath)] != '/' {
			http.NotFound(w, r)
			return
		}
		trimmed := strings.TrimPrefix(r.URL.Path, basePath)
		if trimmed == "" {
			trimmed = "/"
		}
		r.URL.Path = trimmed
		if r.URL.RawPath != "" {
			rawTrimmed := strings.TrimPrefix(r.URL.RawPath, basePath)
			if rawTrimmed == "" {
				rawTrimmed = "/"
			}
			r.URL.RawPath = rawTrimmed
		}
		handler.ServeHTTP(w, r)
	})
}

func normaliseBasePath(base string) string {
	base = strings.TrimSpace(base)
	if base == "" || base == "/" {
		return ""
	}
	if !strings.HasPrefix(base, "/") {
		base = "/" + base
	}
	return strings.TrimSuffix(base, "/")
}
