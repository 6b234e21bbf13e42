// Package webhook receives parsed command events from the WhatsApp
// chat gateway and turns them into dispatcher calls. One request is
// one command; there is no conversation state here.
package webhook

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	"fincontrol/internal/apperr"
	"fincontrol/internal/command"
	"fincontrol/internal/metrics"
	"fincontrol/internal/money"
	"fincontrol/internal/render"
	"fincontrol/internal/repo"
)

// Request is the inbound webhook contract. Amount travels as a
// decimal string to avoid float rounding on the wire.
type Request struct {
	Type             string          `json:"type" validate:"required"`
	Phone            string          `json:"phone"`
	UserID           string          `json:"user_id"`
	Amount           string          `json:"amount"`
	Description      string          `json:"description"`
	Category         string          `json:"category"`
	Period           string          `json:"period"`
	TransactionID    string          `json:"transaction_id"`
	Date             string          `json:"date"`
	FinancialContext json.RawMessage `json:"financialContext"`
}

// Response is the reply contract consumed by the gateway.
type Response struct {
	Message string `json:"message"`
	Success bool   `json:"success"`
}

// Handler implements http.Handler for the webhook endpoint.
type Handler struct {
	logger     *slog.Logger
	metrics    *metrics.Metrics
	repo       repo.Repository
	dispatcher *command.Dispatcher
}

// NewHandler creates the webhook handler.
func NewHandler(logger *slog.Logger, metricRegistry *metrics.Metrics, repository repo.Repository, dispatcher *command.Dispatcher) *Handler {
	return &Handler{
		logger:     logger.With("component", "webhook"),
		metrics:    metricRegistry,
		repo:       repository,
		dispatcher: dispatcher,
	}
}

// ServeHTTP satisfies http.Handler.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	body, err := io.ReadAll(r.Body)
	if err != nil {
		writeResponse(w, http.StatusBadRequest, Response{Message: "Falha ao ler a requisição", Success: false})
		return
	}
	defer r.Body.Close()

	var req Request
	if err := json.Unmarshal(body, &req); err != nil {
		writeResponse(w, http.StatusUnprocessableEntity, Response{Message: "Requisição inválida", Success: false})
		return
	}

	payload, err := h.process(r.Context(), &req)
	if err != nil {
		h.writeError(w, req.Type, err)
		return
	}

	writeResponse(w, http.StatusOK, Response{Message: render.Message(payload), Success: true})
}

func (h *Handler) process(ctx context.Context, req *Request) (command.Payload, error) {
	kind, err := command.ParseKind(req.Type)
	if err != nil {
		return nil, err
	}

	// The gateway may resolve the user ahead of time; fall back to the
	// normalised phone lookup otherwise. No auto-provisioning here.
	var user *repo.User
	if req.UserID != "" {
		user, err = h.repo.GetUserByID(ctx, req.UserID)
	} else if req.Phone != "" {
		user, err = h.repo.GetUserByPhone(ctx, req.Phone)
	} else {
		return nil, apperr.New(apperr.Validation, "Informe phone ou user_id")
	}
	if err != nil {
		return nil, err
	}

	cmdReq := command.Request{
		Kind:             kind,
		User:             *user,
		Description:      req.Description,
		Category:         req.Category,
		Period:           req.Period,
		TransactionID:    req.TransactionID,
		FinancialContext: req.FinancialContext,
	}

	if req.Amount != "" {
		cents, err := money.ParseDecimal(req.Amount)
		if err != nil {
			return nil, apperr.Newf(apperr.Validation, "Valor inválido: %q", req.Amount)
		}
		cmdReq.AmountCents = &cents
	}
	if req.Date != "" {
		parsed, err := parseDate(req.Date)
		if err != nil {
			return nil, apperr.Newf(apperr.Validation, "Data inválida: %q", req.Date)
		}
		cmdReq.Date = &parsed
	}

	return h.dispatcher.Dispatch(ctx, cmdReq)
}

func (h *Handler) writeError(w http.ResponseWriter, commandType string, err error) {
	kind := apperr.KindOf(err)
	status := http.StatusInternalServerError
	switch kind {
	case apperr.Validation:
		status = http.StatusUnprocessableEntity
	case apperr.NotFound:
		status = http.StatusNotFound
	case apperr.Conflict:
		status = http.StatusConflict
	case apperr.Upstream:
		status = http.StatusBadGateway
	}

	// Client faults are expected traffic; only server-side failures
	// count as anomalies.
	if kind == apperr.Internal || kind == apperr.Upstream {
		h.logger.Error("webhook command failed", "command", commandType, "error", err)
		if h.metrics != nil {
			h.metrics.Errors.WithLabelValues("webhook").Inc()
		}
	} else {
		h.logger.Debug("webhook command rejected", "command", commandType, "error", err)
	}

	writeResponse(w, status, Response{Message: apperr.MessageOf(err), Success: false})
}

func writeResponse(w http.ResponseWriter, status int, resp Response) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(resp)
}

func parseDate(s string) (time.Time, error) {
	for _, layout := range []string{time.RFC3339, "2006-01-02T15:04:05", "2006-01-02"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, errors.New("unsupported date format")
}
