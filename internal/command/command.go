// Package command implements the webhook command dispatcher. Each
// inbound request is processed as an atomic unit: no conversation
// state is kept between invocations, and a failed command is never
// retried.
package command

import (
	"encoding/json"
	"strings"
	"time"

	"fincontrol/internal/apperr"
	"fincontrol/internal/period"
	"fincontrol/internal/repo"
	"fincontrol/internal/report"
)

// Kind is the command type tag of an inbound webhook request.
type Kind string

const (
	KindIncome          Kind = "INCOME"
	KindExpense         Kind = "EXPENSE"
	KindBalance         Kind = "BALANCE"
	KindStatement       Kind = "STATEMENT"
	KindReport          Kind = "REPORT"
	KindCategories      Kind = "CATEGORIES"
	KindCategoryReport  Kind = "CATEGORY_REPORT"
	KindEdit            Kind = "EDIT"
	KindFinancialAdvice Kind = "FINANCIAL_ADVICE"
	KindHelpMessage     Kind = "HELP_MESSAGE"
	KindHelpDetails     Kind = "HELP_DETAILS"
)

// ParseKind normalises a command type string.
func ParseKind(s string) (Kind, error) {
	kind := Kind(strings.ToUpper(strings.TrimSpace(s)))
	switch kind {
	case KindIncome, KindExpense, KindBalance, KindStatement, KindReport,
		KindCategories, KindCategoryReport, KindEdit, KindFinancialAdvice,
		KindHelpMessage, KindHelpDetails:
		return kind, nil
	default:
		return "", apperr.Newf(apperr.Validation, "Tipo de comando inválido: %q", s)
	}
}

// Request is one parsed webhook command addressed to a resolved user.
type Request struct {
	Kind             Kind
	User             repo.User
	AmountCents      *int64
	Description      string
	Category         string
	Period           string
	TransactionID    string
	Date             *time.Time
	FinancialContext json.RawMessage
}

// Payload is the structured result of a dispatched command. The
// renderer maps each concrete type to a chat message; the dispatcher
// never formats text itself.
type Payload interface {
	payload()
}

// TransactionSaved confirms a newly persisted income or expense.
type TransactionSaved struct {
	Transaction repo.Transaction
}

// TransactionUpdated confirms an EDIT.
type TransactionUpdated struct {
	Transaction repo.Transaction
}

// BalanceSummary is the current net balance over all transactions.
type BalanceSummary struct {
	BalanceCents int64
	Trend        report.Trend
}

// EmptyBalance is the designated payload for BALANCE with no
// transactions: balance zero, rendered distinctly.
type EmptyBalance struct{}

// Statement lists the most recent transactions, capped for chat
// rendering.
type Statement struct {
	Transactions []repo.Transaction
}

// EmptyStatement is the payload for STATEMENT with no transactions.
type EmptyStatement struct{}

// PeriodReport carries the aggregate for a resolved period.
type PeriodReport struct {
	Period  period.Period
	Summary report.Summary
}

// EmptyReport is the payload for REPORT with no transactions in the
// period.
type EmptyReport struct {
	Period period.Period
}

// CategoryReport summarises one category across its history.
type CategoryReport struct {
	Category string
	Summary  report.CategorySummary
}

// EmptyCategory is the payload for CATEGORY_REPORT when the category
// has no transactions. It is never a zeroed CategoryReport.
type EmptyCategory struct {
	Category string
}

// CategoryList splits a user's categories by kind.
type CategoryList struct {
	Income  []repo.Category
	Expense []repo.Category
}

// Advice passes the advice generator's text through.
type Advice struct {
	Text string
}

// Help carries static help content for a command topic. Known is false
// when the requested topic does not exist.
type Help struct {
	Topic   string
	Details bool
	Known   bool
}

func (TransactionSaved) payload()   {}
func (TransactionUpdated) payload() {}
func (BalanceSummary) payload()     {}
func (EmptyBalance) payload()       {}
func (Statement) payload()          {}
func (EmptyStatement) payload()     {}
func (PeriodReport) payload()       {}
func (EmptyReport) payload()        {}
func (CategoryReport) payload()     {}
func (EmptyCategory) payload()      {}
func (CategoryList) payload()       {}
func (Advice) payload()             {}
func (Help) payload()               {}
