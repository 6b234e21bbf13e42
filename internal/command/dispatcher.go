package command

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"fincontrol/internal/apperr"
	"fincontrol/internal/metrics"
	"fincontrol/internal/money"
	"fincontrol/internal/period"
	"fincontrol/internal/repo"
	"fincontrol/internal/report"
)

// statementLimit caps STATEMENT output for chat rendering.
const statementLimit = 10

// AdviceProvider generates financial advice from an opaque context
// blob. Implemented by the advisor HTTP client.
type AdviceProvider interface {
	Advise(ctx context.Context, financialContext []byte) (string, error)
}

// Dispatcher routes a parsed webhook request to the matching command
// arm. Each arm works on data fetched for this request only.
type Dispatcher struct {
	repo    repo.Repository
	advisor AdviceProvider
	logger  *slog.Logger
	metrics *metrics.Metrics
	now     func() time.Time
}

// New creates a Dispatcher. now may be nil, defaulting to time.Now.
func New(repository repo.Repository, advisor AdviceProvider, logger *slog.Logger, metricRegistry *metrics.Metrics, now func() time.Time) *Dispatcher {
	if now == nil {
		now = time.Now
	}
	return &Dispatcher{
		repo:    repository,
		advisor: advisor,
		logger:  logger.With("component", "dispatcher"),
		metrics: metricRegistry,
		now:     now,
	}
}

// Dispatch executes one command and returns its structured payload.
// Errors carry the apperr taxonomy for boundary mapping.
func (d *Dispatcher) Dispatch(ctx context.Context, req Request) (Payload, error) {
	started := d.now()
	payload, err := d.dispatch(ctx, req)
	if d.metrics != nil {
		status := "ok"
		if err != nil {
			status = statusLabel(err)
		}
		d.metrics.WebhookCommands.WithLabelValues(string(req.Kind), status).Inc()
		d.metrics.WebhookLatency.WithLabelValues(string(req.Kind)).Observe(d.now().Sub(started).Seconds())
	}
	return payload, err
}

func (d *Dispatcher) dispatch(ctx context.Context, req Request) (Payload, error) {
	switch req.Kind {
	case KindIncome, KindExpense:
		return d.saveTransaction(ctx, req)
	case KindBalance:
		return d.balance(ctx, req)
	case KindStatement:
		return d.statement(ctx, req)
	case KindReport:
		return d.periodReport(ctx, req)
	case KindCategories:
		return d.categories(ctx, req)
	case KindCategoryReport:
		return d.categoryReport(ctx, req)
	case KindEdit:
		return d.edit(ctx, req)
	case KindFinancialAdvice:
		return d.advice(ctx, req)
	case KindHelpMessage, KindHelpDetails:
		return d.help(req), nil
	default:
		return nil, apperr.Newf(apperr.Validation, "Tipo de comando inválido: %q", string(req.Kind))
	}
}

// saveTransaction handles INCOME and EXPENSE. The amount is re-signed
// here: positive for income, negative for expense, regardless of the
// sign the caller supplied.
func (d *Dispatcher) saveTransaction(ctx context.Context, req Request) (Payload, error) {
	if req.AmountCents == nil {
		return nil, apperr.New(apperr.Validation, "Valor não informado")
	}
	if req.Category == "" {
		return nil, apperr.New(apperr.Validation, "Categoria não informada")
	}

	kind := repo.KindIncome
	cents := money.Abs(*req.AmountCents)
	if req.Kind == KindExpense {
		kind = repo.KindExpense
		cents = -cents
	}

	category, err := d.repo.EnsureCategory(ctx, req.User.ID, req.Category, kind)
	if err != nil {
		return nil, err
	}

	// Default to today at midnight in the reference zone; an explicit
	// date keeps its time of day.
	var date time.Time
	if req.Date != nil {
		date = req.Date.In(period.Reference)
	} else {
		now := d.now().In(period.Reference)
		date = time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, period.Reference)
	}

	saved, err := d.repo.InsertTransaction(ctx, repo.Transaction{
		UserID:      req.User.ID,
		CategoryID:  category.ID,
		AmountCents: cents,
		Description: req.Description,
		Category:    category.Name,
		Kind:        kind,
		Date:        date,
	})
	if err != nil {
		return nil, err
	}
	return TransactionSaved{Transaction: *saved}, nil
}

func (d *Dispatcher) balance(ctx context.Context, req Request) (Payload, error) {
	txs, err := d.repo.ListTransactions(ctx, req.User.ID, 0)
	if err != nil {
		return nil, err
	}
	summary, err := report.Aggregate(txs, report.ExpensesOnly)
	if errors.Is(err, report.ErrNoTransactions) {
		return EmptyBalance{}, nil
	}
	if err != nil {
		return nil, err
	}
	return BalanceSummary{BalanceCents: summary.BalanceCents, Trend: summary.Trend}, nil
}

func (d *Dispatcher) statement(ctx context.Context, req Request) (Payload, error) {
	txs, err := d.repo.ListTransactions(ctx, req.User.ID, statementLimit)
	if err != nil {
		return nil, err
	}
	if len(txs) == 0 {
		return EmptyStatement{}, nil
	}
	return Statement{Transactions: txs}, nil
}

func (d *Dispatcher) periodReport(ctx context.Context, req Request) (Payload, error) {
	p, err := period.Parse(req.Period)
	if err != nil {
		return nil, err
	}
	start, err := period.ResolveStart(p, d.now())
	if err != nil {
		return nil, err
	}
	txs, err := d.repo.ListTransactionsSince(ctx, req.User.ID, start)
	if err != nil {
		return nil, err
	}
	summary, err := report.Aggregate(txs, report.ExpensesOnly)
	if errors.Is(err, report.ErrNoTransactions) {
		return EmptyReport{Period: p}, nil
	}
	if err != nil {
		return nil, err
	}
	return PeriodReport{Period: p, Summary: *summary}, nil
}

func (d *Dispatcher) categories(ctx context.Context, req Request) (Payload, error) {
	categories, err := d.repo.ListCategories(ctx, req.User.ID)
	if err != nil {
		return nil, err
	}
	list := CategoryList{}
	for _, c := range categories {
		if c.Kind == repo.KindIncome {
			list.Income = append(list.Income, c)
		} else {
			list.Expense = append(list.Expense, c)
		}
	}
	return list, nil
}

func (d *Dispatcher) categoryReport(ctx context.Context, req Request) (Payload, error) {
	if req.Category == "" {
		return nil, apperr.New(apperr.Validation, "Categoria não informada")
	}
	txs, err := d.repo.ListTransactionsByCategory(ctx, req.User.ID, req.Category)
	if err != nil {
		return nil, err
	}
	summary, err := report.AggregateCategory(txs)
	if errors.Is(err, report.ErrNoTransactions) {
		return EmptyCategory{Category: req.Category}, nil
	}
	if err != nil {
		return nil, err
	}
	return CategoryReport{Category: req.Category, Summary: *summary}, nil
}

// edit applies partial updates to an owned transaction. The amount
// sign is re-derived from the stored transaction's kind, so an expense
// stays negative no matter what sign the caller supplied. Re-editing
// with the same positive input is therefore idempotent.
func (d *Dispatcher) edit(ctx context.Context, req Request) (Payload, error) {
	if req.TransactionID == "" {
		return nil, apperr.New(apperr.Validation, "Transação não informada")
	}

	existing, err := d.repo.GetTransaction(ctx, req.TransactionID, req.User.ID)
	if err != nil {
		return nil, err
	}

	upd := repo.TransactionUpdate{}
	if req.AmountCents != nil {
		cents := money.Abs(*req.AmountCents)
		if existing.Kind == repo.KindExpense {
			cents = -cents
		}
		upd.AmountCents = &cents
	}
	if req.Description != "" {
		upd.Description = &req.Description
	}
	if req.Category != "" {
		upd.Category = &req.Category
	}

	updated, err := d.repo.UpdateTransaction(ctx, req.TransactionID, req.User.ID, upd)
	if err != nil {
		return nil, err
	}
	return TransactionUpdated{Transaction: *updated}, nil
}

func (d *Dispatcher) advice(ctx context.Context, req Request) (Payload, error) {
	if len(req.FinancialContext) == 0 {
		return nil, apperr.New(apperr.Validation, "Contexto financeiro não informado")
	}
	if d.advisor == nil {
		return nil, apperr.New(apperr.Upstream, "Consultor financeiro indisponível")
	}
	text, err := d.advisor.Advise(ctx, req.FinancialContext)
	if err != nil {
		return nil, apperr.Wrap(apperr.Upstream, "Consultor financeiro indisponível", err)
	}
	return Advice{Text: text}, nil
}

func (d *Dispatcher) help(req Request) Payload {
	topic := normalizeTopic(req.Description)
	_, known := HelpTopic(topic)
	return Help{
		Topic:   topic,
		Details: req.Kind == KindHelpDetails,
		Known:   known,
	}
}

func statusLabel(err error) string {
	switch apperr.KindOf(err) {
	case apperr.Validation:
		return "validation"
	case apperr.NotFound:
		return "not_found"
	case apperr.Conflict:
		return "conflict"
	case apperr.Upstream:
		return "upstream"
	default:
		return "error"
	}
}
