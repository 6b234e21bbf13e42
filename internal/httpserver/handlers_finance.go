package httpserver

import (
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"

	"fincontrol/internal/apperr"
	"fincontrol/internal/money"
	"fincontrol/internal/period"
	"fincontrol/internal/repo"
)

type createCategoryRequest struct {
	Name  string  `json:"name" validate:"required,min=1"`
	Kind  string  `json:"kind" validate:"required,oneof=INCOME EXPENSE"`
	Icon  *string `json:"icon"`
	Color *string `json:"color"`
}

type categoryResponse struct {
	ID    string  `json:"id"`
	Name  string  `json:"name"`
	Kind  string  `json:"kind"`
	Icon  *string `json:"icon,omitempty"`
	Color *string `json:"color,omitempty"`
}

type createTransactionRequest struct {
	Amount      string `json:"amount" validate:"required"`
	Description string `json:"description" validate:"required"`
	Category    string `json:"category" validate:"required"`
	Kind        string `json:"kind" validate:"required,oneof=INCOME EXPENSE"`
	Date        string `json:"date"`
}

type updateTransactionRequest struct {
	Amount      *string `json:"amount"`
	Description *string `json:"description"`
	Category    *string `json:"category"`
}

type transactionResponse struct {
	ID          string    `json:"id"`
	Amount      string    `json:"amount"`
	AmountCents int64     `json:"amountCents"`
	Description string    `json:"description"`
	Category    string    `json:"category"`
	Kind        string    `json:"kind"`
	Date        time.Time `json:"date"`
	CreatedAt   time.Time `json:"createdAt"`
}

func toTransactionResponse(t *repo.Transaction) transactionResponse {
	return transactionResponse{
		ID:          t.ID,
		Amount:      money.FormatDecimal(money.Abs(t.AmountCents)),
		AmountCents: t.AmountCents,
		Description: t.Description,
		Category:    t.Category,
		Kind:        t.Kind,
		Date:        t.Date,
		CreatedAt:   t.CreatedAt,
	}
}

func (s *Server) handleCreateCategory(w http.ResponseWriter, r *http.Request) {
	var req createCategoryRequest
	if err := s.decodeValid(r, &req); err != nil {
		s.writeError(w, err)
		return
	}

	category, err := s.deps.Repository.CreateCategory(r.Context(), repo.Category{
		ID:     uuid.NewString(),
		UserID: claimsFrom(r).UserID,
		Name:   req.Name,
		Kind:   req.Kind,
		Icon:   req.Icon,
		Color:  req.Color,
	})
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toCategoryResponse(category))
}

func (s *Server) handleListCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := s.deps.Repository.ListCategories(r.Context(), claimsFrom(r).UserID)
	if err != nil {
		s.writeError(w, err)
		return
	}

	out := make([]categoryResponse, 0, len(categories))
	for i := range categories {
		out = append(out, toCategoryResponse(&categories[i]))
	}
	writeJSON(w, http.StatusOK, out)
}

func toCategoryResponse(c *repo.Category) categoryResponse {
	return categoryResponse{
		ID:    c.ID,
		Name:  c.Name,
		Kind:  c.Kind,
		Icon:  c.Icon,
		Color: c.Color,
	}
}

func (s *Server) handleCreateTransaction(w http.ResponseWriter, r *http.Request) {
	var req createTransactionRequest
	if err := s.decodeValid(r, &req); err != nil {
		s.writeError(w, err)
		return
	}

	userID := claimsFrom(r).UserID

	cents, err := money.ParseDecimal(req.Amount)
	if err != nil {
		s.writeError(w, apperr.Newf(apperr.Validation, "Valor inválido: %q", req.Amount))
		return
	}
	cents = money.Abs(cents)
	if req.Kind == repo.KindExpense {
		cents = -cents
	}

	date := time.Now().In(period.Reference)
	if req.Date != "" {
		parsed, err := time.Parse(time.RFC3339, req.Date)
		if err != nil {
			s.writeError(w, apperr.Newf(apperr.Validation, "Data inválida: %q", req.Date))
			return
		}
		date = parsed
	}

	category, err := s.deps.Repository.EnsureCategory(r.Context(), userID, req.Category, req.Kind)
	if err != nil {
		s.writeError(w, err)
		return
	}

	tx, err := s.deps.Repository.InsertTransaction(r.Context(), repo.Transaction{
		ID:          uuid.NewString(),
		UserID:      userID,
		CategoryID:  category.ID,
		AmountCents: cents,
		Description: req.Description,
		Category:    category.Name,
		Kind:        req.Kind,
		Date:        date,
	})
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toTransactionResponse(tx))
}

func (s *Server) handleListTransactions(w http.ResponseWriter, r *http.Request) {
	userID := claimsFrom(r).UserID
	limit := queryInt(r, "limit", 0)

	var (
		txs []repo.Transaction
		err error
	)
	if category := r.URL.Query().Get("category"); category != "" {
		txs, err = s.deps.Repository.ListTransactionsByCategory(r.Context(), userID, category)
	} else {
		txs, err = s.deps.Repository.ListTransactions(r.Context(), userID, limit)
	}
	if err != nil {
		s.writeError(w, err)
		return
	}

	out := make([]transactionResponse, 0, len(txs))
	for i := range txs {
		out = append(out, toTransactionResponse(&txs[i]))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleUpdateTransaction(w http.ResponseWriter, r *http.Request) {
	var req updateTransactionRequest
	if err := s.decodeValid(r, &req); err != nil {
		s.writeError(w, err)
		return
	}

	userID := claimsFrom(r).UserID
	id := r.PathValue("id")

	upd := repo.TransactionUpdate{
		Description: req.Description,
		Category:    req.Category,
	}
	if req.Amount != nil {
		cents, err := money.ParseDecimal(*req.Amount)
		if err != nil {
			s.writeError(w, apperr.Newf(apperr.Validation, "Valor inválido: %q", *req.Amount))
			return
		}
		// The sign follows the stored kind, not the caller's input.
		existing, err := s.deps.Repository.GetTransaction(r.Context(), id, userID)
		if err != nil {
			s.writeError(w, err)
			return
		}
		cents = money.Abs(cents)
		if existing.Kind == repo.KindExpense {
			cents = -cents
		}
		upd.AmountCents = &cents
	}

	tx, err := s.deps.Repository.UpdateTransaction(r.Context(), id, userID, upd)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toTransactionResponse(tx))
}

func (s *Server) handleDeleteTransaction(w http.ResponseWriter, r *http.Request) {
	if err := s.deps.Repository.DeleteTransaction(r.Context(), r.PathValue("id"), claimsFrom(r).UserID); err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

func queryInt(r *http.Request, key string, fallback int) int {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return fallback
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return fallback
	}
	return n
}
