package httpserver

import (
	"errors"
	"net/http"
	"time"

	"fincontrol/internal/apperr"
	"fincontrol/internal/money"
	"fincontrol/internal/period"
	"fincontrol/internal/repo"
	"fincontrol/internal/report"
)

type categoryTotalResponse struct {
	Name        string `json:"name"`
	Amount      string `json:"amount"`
	AmountCents int64  `json:"amountCents"`
}

type summaryResponse struct {
	Period        string                  `json:"period,omitempty"`
	From          time.Time               `json:"from"`
	To            time.Time               `json:"to"`
	Income        string                  `json:"income"`
	IncomeCents   int64                   `json:"incomeCents"`
	IncomeCount   int                     `json:"incomeCount"`
	Expenses      string                  `json:"expenses"`
	ExpenseCents  int64                   `json:"expenseCents"`
	ExpenseCount  int                     `json:"expenseCount"`
	Balance       string                  `json:"balance"`
	BalanceCents  int64                   `json:"balanceCents"`
	Trend         string                  `json:"trend"`
	TopCategories []categoryTotalResponse `json:"topCategories"`
}

func toSummaryResponse(s *report.Summary, periodLabel string, from, to time.Time) summaryResponse {
	top := make([]categoryTotalResponse, 0, len(s.TopCategories))
	for _, c := range s.TopCategories {
		top = append(top, categoryTotalResponse{
			Name:        c.Name,
			Amount:      money.FormatDecimal(c.AmountCents),
			AmountCents: c.AmountCents,
		})
	}
	return summaryResponse{
		Period:        periodLabel,
		From:          from,
		To:            to,
		Income:        money.FormatDecimal(s.IncomeCents),
		IncomeCents:   s.IncomeCents,
		IncomeCount:   s.IncomeCount,
		Expenses:      money.FormatDecimal(s.ExpenseCents),
		ExpenseCents:  s.ExpenseCents,
		ExpenseCount:  s.ExpenseCount,
		Balance:       money.FormatDecimal(s.BalanceCents),
		BalanceCents:  s.BalanceCents,
		Trend:         string(s.Trend),
		TopCategories: top,
	}
}

// handlePeriodSummary aggregates the authenticated user's transactions
// over a named period (daily, weekly, monthly, yearly). Weekly here is
// the rolling seven-day window, same as the chat report.
func (s *Server) handlePeriodSummary(w http.ResponseWriter, r *http.Request) {
	p, err := period.Parse(r.URL.Query().Get("period"))
	if err != nil {
		s.writeError(w, err)
		return
	}

	now := time.Now().In(period.Reference)
	start, err := period.ResolveStart(p, now)
	if err != nil {
		s.writeError(w, err)
		return
	}

	txs, err := s.deps.Repository.ListTransactionsSince(r.Context(), claimsFrom(r).UserID, start)
	if err != nil {
		s.writeError(w, err)
		return
	}

	s.writeSummary(w, txs, report.ExpensesOnly, string(p), start, now)
}

// handleMonthlyReport aggregates one calendar month given by the year
// and month query parameters.
func (s *Server) handleMonthlyReport(w http.ResponseWriter, r *http.Request) {
	now := time.Now().In(period.Reference)
	year := queryInt(r, "year", now.Year())
	month := queryInt(r, "month", int(now.Month()))
	if month < 1 || month > 12 {
		s.writeError(w, apperr.Newf(apperr.Validation, "Mês inválido: %d", month))
		return
	}

	from := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, period.Reference)
	to := from.AddDate(0, 1, 0).Add(-time.Second)

	txs, err := s.deps.Repository.ListTransactionsBetween(r.Context(), claimsFrom(r).UserID, from, to)
	if err != nil {
		s.writeError(w, err)
		return
	}

	s.writeSummary(w, txs, report.AllTransactions, "", from, to)
}

// handleWeeklyDigest aggregates the current calendar week, Monday
// through Sunday.
func (s *Server) handleWeeklyDigest(w http.ResponseWriter, r *http.Request) {
	from, to := period.CalendarWeekBounds(time.Now().In(period.Reference))

	txs, err := s.deps.Repository.ListTransactionsBetween(r.Context(), claimsFrom(r).UserID, from, to)
	if err != nil {
		s.writeError(w, err)
		return
	}

	s.writeSummary(w, txs, report.AllTransactions, "", from, to)
}

// writeSummary aggregates and replies. Range reports rank every
// category; the chat-style period summary ranks expenses only.
func (s *Server) writeSummary(w http.ResponseWriter, txs []repo.Transaction, filter report.SignFilter, periodLabel string, from, to time.Time) {
	summary, err := report.Aggregate(txs, filter)
	if errors.Is(err, report.ErrNoTransactions) {
		writeJSON(w, http.StatusOK, toSummaryResponse(&report.Summary{Trend: report.TrendFlat}, periodLabel, from, to))
		return
	}
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toSummaryResponse(summary, periodLabel, from, to))
}
