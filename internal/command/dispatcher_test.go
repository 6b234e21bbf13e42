package command

import (
	"context"
	"errors"
	"io"
	"io/fs"
	"log/slog"
	"strconv"
	"testing"
	"time"

	"fincontrol/internal/apperr"
	"fincontrol/internal/period"
	"fincontrol/internal/repo"
)

// fakeRepo is an in-memory Repository for dispatcher tests.
type fakeRepo struct {
	categories   []repo.Category
	transactions []repo.Transaction
	nextID       int
}

func (f *fakeRepo) Close()                                     {}
func (f *fakeRepo) Ping(context.Context) error                 { return nil }
func (f *fakeRepo) RunMigrations(context.Context, fs.FS) error { return nil }

func (f *fakeRepo) CreateUser(context.Context, repo.User) (*repo.User, error) {
	return nil, errors.New("not implemented")
}
func (f *fakeRepo) GetUserByID(context.Context, string) (*repo.User, error) {
	return nil, errors.New("not implemented")
}
func (f *fakeRepo) GetUserByEmail(context.Context, string) (*repo.User, error) {
	return nil, errors.New("not implemented")
}
func (f *fakeRepo) GetUserByPhone(context.Context, string) (*repo.User, error) {
	return nil, errors.New("not implemented")
}
func (f *fakeRepo) ListUsers(context.Context, int, int) ([]repo.User, error) {
	return nil, errors.New("not implemented")
}
func (f *fakeRepo) UpdateUser(context.Context, string, repo.UserUpdate) (*repo.User, error) {
	return nil, errors.New("not implemented")
}
func (f *fakeRepo) DeleteUser(context.Context, string) error { return errors.New("not implemented") }

func (f *fakeRepo) EnsureCategory(_ context.Context, userID, name, kind string) (*repo.Category, error) {
	for _, c := range f.categories {
		if c.UserID == userID && c.Name == name && c.Kind == kind {
			return &c, nil
		}
	}
	c := repo.Category{ID: f.id(), UserID: userID, Name: name, Kind: kind}
	f.categories = append(f.categories, c)
	return &c, nil
}

func (f *fakeRepo) CreateCategory(_ context.Context, c repo.Category) (*repo.Category, error) {
	f.categories = append(f.categories, c)
	return &c, nil
}

func (f *fakeRepo) ListCategories(_ context.Context, userID string) ([]repo.Category, error) {
	var out []repo.Category
	for _, c := range f.categories {
		if c.UserID == userID {
			out = append(out, c)
		}
	}
	return out, nil
}

func (f *fakeRepo) InsertTransaction(_ context.Context, tx repo.Transaction) (*repo.Transaction, error) {
	if tx.ID == "" {
		tx.ID = f.id()
	}
	f.transactions = append(f.transactions, tx)
	return &tx, nil
}

func (f *fakeRepo) GetTransaction(_ context.Context, id, userID string) (*repo.Transaction, error) {
	for _, t := range f.transactions {
		if t.ID == id && t.UserID == userID {
			return &t, nil
		}
	}
	return nil, apperr.New(apperr.NotFound, "Transação não encontrada")
}

func (f *fakeRepo) ListTransactions(_ context.Context, userID string, limit int) ([]repo.Transaction, error) {
	var out []repo.Transaction
	for _, t := range f.transactions {
		if t.UserID == userID {
			out = append(out, t)
		}
	}
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (f *fakeRepo) ListTransactionsSince(_ context.Context, userID string, since time.Time) ([]repo.Transaction, error) {
	var out []repo.Transaction
	for _, t := range f.transactions {
		if t.UserID == userID && !t.Date.Before(since) {
			out = append(out, t)
		}
	}
	return out, nil
}

func (f *fakeRepo) ListTransactionsBetween(_ context.Context, userID string, from, to time.Time) ([]repo.Transaction, error) {
	var out []repo.Transaction
	for _, t := range f.transactions {
		if t.UserID == userID && !t.Date.Before(from) && !t.Date.After(to) {
			out = append(out, t)
		}
	}
	return out, nil
}

func (f *fakeRepo) ListTransactionsByCategory(_ context.Context, userID, category string) ([]repo.Transaction, error) {
	var out []repo.Transaction
	for _, t := range f.transactions {
		if t.UserID == userID && t.Category == category {
			out = append(out, t)
		}
	}
	return out, nil
}

func (f *fakeRepo) UpdateTransaction(_ context.Context, id, userID string, upd repo.TransactionUpdate) (*repo.Transaction, error) {
	for i, t := range f.transactions {
		if t.ID != id || t.UserID != userID {
			continue
		}
		if upd.AmountCents != nil {
			t.AmountCents = *upd.AmountCents
		}
		if upd.Description != nil {
			t.Description = *upd.Description
		}
		if upd.Category != nil {
			t.Category = *upd.Category
		}
		f.transactions[i] = t
		return &t, nil
	}
	return nil, apperr.New(apperr.NotFound, "Transação não encontrada")
}

func (f *fakeRepo) DeleteTransaction(_ context.Context, id, userID string) error {
	for i, t := range f.transactions {
		if t.ID == id && t.UserID == userID {
			f.transactions = append(f.transactions[:i], f.transactions[i+1:]...)
			return nil
		}
	}
	return apperr.New(apperr.NotFound, "Transação não encontrada")
}

func (f *fakeRepo) GetGatewaySession(context.Context) (*repo.GatewaySession, error) { return nil, nil }
func (f *fakeRepo) SaveGatewaySession(context.Context, []byte) error                { return nil }

func (f *fakeRepo) id() string {
	f.nextID++
	return "id-" + strconv.Itoa(f.nextID)
}

type fakeAdvisor struct {
	text string
	err  error
}

func (f fakeAdvisor) Advise(context.Context, []byte) (string, error) {
	return f.text, f.err
}

var testUser = repo.User{ID: "user-1", Name: "Maria", Phone: "5511999998888"}

func newTestDispatcher(r repo.Repository, advisor AdviceProvider) *Dispatcher {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	fixed := time.Date(2024, time.March, 15, 10, 0, 0, 0, period.Reference)
	return New(r, advisor, logger, nil, func() time.Time { return fixed })
}

func centsPtr(v int64) *int64 { return &v }

func TestDispatchSavesExpenseNegative(t *testing.T) {
	f := &fakeRepo{}
	d := newTestDispatcher(f, nil)

	payload, err := d.Dispatch(context.Background(), Request{
		Kind:        KindExpense,
		User:        testUser,
		AmountCents: centsPtr(5000),
		Description: "mercado",
		Category:    "alimentação",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	saved, ok := payload.(TransactionSaved)
	if !ok {
		t.Fatalf("expected TransactionSaved, got %T", payload)
	}
	if saved.Transaction.AmountCents != -5000 {
		t.Fatalf("expense amount = %d, want -5000", saved.Transaction.AmountCents)
	}
	if saved.Transaction.Kind != repo.KindExpense {
		t.Fatalf("kind = %s", saved.Transaction.Kind)
	}
	if len(f.categories) != 1 || f.categories[0].Name != "alimentação" {
		t.Fatalf("category not ensured: %+v", f.categories)
	}
	wantDate := time.Date(2024, time.March, 15, 0, 0, 0, 0, period.Reference)
	if !saved.Transaction.Date.Equal(wantDate) {
		t.Fatalf("default date = %v, want midnight %v", saved.Transaction.Date, wantDate)
	}
}

func TestDispatchSavesIncomePositiveEvenIfNegativeInput(t *testing.T) {
	f := &fakeRepo{}
	d := newTestDispatcher(f, nil)

	payload, err := d.Dispatch(context.Background(), Request{
		Kind:        KindIncome,
		User:        testUser,
		AmountCents: centsPtr(-100000),
		Description: "salário",
		Category:    "salário",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if payload.(TransactionSaved).Transaction.AmountCents != 100000 {
		t.Fatal("income amount should be re-signed positive")
	}
}

func TestDispatchSaveRequiresAmountAndCategory(t *testing.T) {
	d := newTestDispatcher(&fakeRepo{}, nil)

	_, err := d.Dispatch(context.Background(), Request{Kind: KindExpense, User: testUser, Category: "x"})
	if apperr.KindOf(err) != apperr.Validation {
		t.Fatalf("missing amount should be a validation error, got %v", err)
	}

	_, err = d.Dispatch(context.Background(), Request{Kind: KindExpense, User: testUser, AmountCents: centsPtr(100)})
	if apperr.KindOf(err) != apperr.Validation {
		t.Fatalf("missing category should be a validation error, got %v", err)
	}
}

func TestDispatchBalance(t *testing.T) {
	f := &fakeRepo{transactions: []repo.Transaction{
		{ID: "1", UserID: testUser.ID, AmountCents: 100000, Category: "salário", Kind: repo.KindIncome},
		{ID: "2", UserID: testUser.ID, AmountCents: -25000, Category: "mercado", Kind: repo.KindExpense},
	}}
	d := newTestDispatcher(f, nil)

	payload, err := d.Dispatch(context.Background(), Request{Kind: KindBalance, User: testUser})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	summary, ok := payload.(BalanceSummary)
	if !ok {
		t.Fatalf("expected BalanceSummary, got %T", payload)
	}
	if summary.BalanceCents != 75000 {
		t.Fatalf("balance = %d, want 75000", summary.BalanceCents)
	}
}

func TestDispatchBalanceEmpty(t *testing.T) {
	d := newTestDispatcher(&fakeRepo{}, nil)
	payload, err := d.Dispatch(context.Background(), Request{Kind: KindBalance, User: testUser})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := payload.(EmptyBalance); !ok {
		t.Fatalf("expected EmptyBalance, got %T", payload)
	}
}

func TestDispatchStatementEmpty(t *testing.T) {
	d := newTestDispatcher(&fakeRepo{}, nil)
	payload, err := d.Dispatch(context.Background(), Request{Kind: KindStatement, User: testUser})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := payload.(EmptyStatement); !ok {
		t.Fatalf("expected EmptyStatement, got %T", payload)
	}
}

func TestDispatchReportDefaultsToMonthly(t *testing.T) {
	// Fixed now is 2024-03-15; the February transaction must fall
	// outside the default monthly window.
	f := &fakeRepo{transactions: []repo.Transaction{
		{ID: "1", UserID: testUser.ID, AmountCents: -5000, Category: "mercado", Kind: repo.KindExpense,
			Date: time.Date(2024, time.March, 10, 12, 0, 0, 0, period.Reference)},
		{ID: "2", UserID: testUser.ID, AmountCents: -9000, Category: "mercado", Kind: repo.KindExpense,
			Date: time.Date(2024, time.February, 20, 12, 0, 0, 0, period.Reference)},
	}}
	d := newTestDispatcher(f, nil)

	payload, err := d.Dispatch(context.Background(), Request{Kind: KindReport, User: testUser})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	rep, ok := payload.(PeriodReport)
	if !ok {
		t.Fatalf("expected PeriodReport, got %T", payload)
	}
	if rep.Period != period.Monthly {
		t.Fatalf("period = %s, want MONTHLY", rep.Period)
	}
	if rep.Summary.ExpenseCents != 5000 {
		t.Fatalf("expenses = %d, want 5000", rep.Summary.ExpenseCents)
	}
}

func TestDispatchReportInvalidPeriod(t *testing.T) {
	d := newTestDispatcher(&fakeRepo{}, nil)
	_, err := d.Dispatch(context.Background(), Request{Kind: KindReport, User: testUser, Period: "quarterly"})
	if apperr.KindOf(err) != apperr.Validation {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestDispatchCategoriesSplitByKind(t *testing.T) {
	f := &fakeRepo{categories: []repo.Category{
		{ID: "1", UserID: testUser.ID, Name: "salário", Kind: repo.KindIncome},
		{ID: "2", UserID: testUser.ID, Name: "mercado", Kind: repo.KindExpense},
		{ID: "3", UserID: "someone-else", Name: "aluguel", Kind: repo.KindExpense},
	}}
	d := newTestDispatcher(f, nil)

	payload, err := d.Dispatch(context.Background(), Request{Kind: KindCategories, User: testUser})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	list := payload.(CategoryList)
	if len(list.Income) != 1 || list.Income[0].Name != "salário" {
		t.Fatalf("unexpected income categories: %+v", list.Income)
	}
	if len(list.Expense) != 1 || list.Expense[0].Name != "mercado" {
		t.Fatalf("unexpected expense categories: %+v", list.Expense)
	}
}

func TestDispatchCategoryReportEmpty(t *testing.T) {
	d := newTestDispatcher(&fakeRepo{}, nil)
	payload, err := d.Dispatch(context.Background(), Request{Kind: KindCategoryReport, User: testUser, Category: "viagem"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	empty, ok := payload.(EmptyCategory)
	if !ok {
		t.Fatalf("expected EmptyCategory, got %T", payload)
	}
	if empty.Category != "viagem" {
		t.Fatalf("category = %q", empty.Category)
	}
}

func TestDispatchEditResignsFromStoredKind(t *testing.T) {
	f := &fakeRepo{transactions: []repo.Transaction{
		{ID: "tx-1", UserID: testUser.ID, AmountCents: -5000, Category: "mercado", Kind: repo.KindExpense},
	}}
	d := newTestDispatcher(f, nil)

	payload, err := d.Dispatch(context.Background(), Request{
		Kind:          KindEdit,
		User:          testUser,
		TransactionID: "tx-1",
		AmountCents:   centsPtr(7500),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	updated := payload.(TransactionUpdated)
	if updated.Transaction.AmountCents != -7500 {
		t.Fatalf("amount = %d, want -7500", updated.Transaction.AmountCents)
	}

	// Editing again with the same positive input changes nothing.
	payload, err = d.Dispatch(context.Background(), Request{
		Kind:          KindEdit,
		User:          testUser,
		TransactionID: "tx-1",
		AmountCents:   centsPtr(7500),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if payload.(TransactionUpdated).Transaction.AmountCents != -7500 {
		t.Fatal("edit should be idempotent for the same input")
	}
}

func TestDispatchEditUnknownTransaction(t *testing.T) {
	d := newTestDispatcher(&fakeRepo{}, nil)
	_, err := d.Dispatch(context.Background(), Request{
		Kind:          KindEdit,
		User:          testUser,
		TransactionID: "missing",
		AmountCents:   centsPtr(100),
	})
	if apperr.KindOf(err) != apperr.NotFound {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestDispatchAdvice(t *testing.T) {
	d := newTestDispatcher(&fakeRepo{}, fakeAdvisor{text: "Guarde 10% do salário."})
	payload, err := d.Dispatch(context.Background(), Request{
		Kind:             KindFinancialAdvice,
		User:             testUser,
		FinancialContext: []byte(`{"saldo": 100}`),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if payload.(Advice).Text != "Guarde 10% do salário." {
		t.Fatalf("unexpected advice: %+v", payload)
	}
}

func TestDispatchAdviceUpstreamFailure(t *testing.T) {
	d := newTestDispatcher(&fakeRepo{}, fakeAdvisor{err: errors.New("boom")})
	_, err := d.Dispatch(context.Background(), Request{
		Kind:             KindFinancialAdvice,
		User:             testUser,
		FinancialContext: []byte(`{}`),
	})
	if apperr.KindOf(err) != apperr.Upstream {
		t.Fatalf("expected upstream error, got %v", err)
	}
}

func TestDispatchHelp(t *testing.T) {
	d := newTestDispatcher(&fakeRepo{}, nil)

	payload, err := d.Dispatch(context.Background(), Request{Kind: KindHelpMessage, User: testUser})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	help := payload.(Help)
	if help.Details {
		t.Fatal("HELP_MESSAGE should not be a details payload")
	}

	payload, err = d.Dispatch(context.Background(), Request{
		Kind:        KindHelpDetails,
		User:        testUser,
		Description: "Relatório",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	help = payload.(Help)
	if !help.Details || !help.Known || help.Topic != "relatorio" {
		t.Fatalf("unexpected help payload: %+v", help)
	}
}

func TestParseKind(t *testing.T) {
	if k, err := ParseKind(" income "); err != nil || k != KindIncome {
		t.Fatalf("ParseKind(income) = %s, %v", k, err)
	}
	if _, err := ParseKind("DANCE"); apperr.KindOf(err) != apperr.Validation {
		t.Fatalf("expected validation error, got %v", err)
	}
}
