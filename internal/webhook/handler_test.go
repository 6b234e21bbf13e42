package webhook

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"io/fs"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"fincontrol/internal/apperr"
	"fincontrol/internal/command"
	"fincontrol/internal/repo"
)

// stubRepo satisfies repo.Repository; tests embed it and override what
// they need.
type stubRepo struct{}

var errStub = errors.New("not implemented")

func (stubRepo) Close()                                     {}
func (stubRepo) Ping(context.Context) error                 { return nil }
func (stubRepo) RunMigrations(context.Context, fs.FS) error { return nil }

func (stubRepo) CreateUser(context.Context, repo.User) (*repo.User, error)      { return nil, errStub }
func (stubRepo) GetUserByID(context.Context, string) (*repo.User, error)        { return nil, errStub }
func (stubRepo) GetUserByEmail(context.Context, string) (*repo.User, error)     { return nil, errStub }
func (stubRepo) GetUserByPhone(context.Context, string) (*repo.User, error)     { return nil, errStub }
func (stubRepo) ListUsers(context.Context, int, int) ([]repo.User, error)       { return nil, errStub }
func (stubRepo) UpdateUser(context.Context, string, repo.UserUpdate) (*repo.User, error) {
	return nil, errStub
}
func (stubRepo) DeleteUser(context.Context, string) error { return errStub }

func (stubRepo) EnsureCategory(context.Context, string, string, string) (*repo.Category, error) {
	return nil, errStub
}
func (stubRepo) CreateCategory(context.Context, repo.Category) (*repo.Category, error) {
	return nil, errStub
}
func (stubRepo) ListCategories(context.Context, string) ([]repo.Category, error) {
	return nil, errStub
}

func (stubRepo) InsertTransaction(context.Context, repo.Transaction) (*repo.Transaction, error) {
	return nil, errStub
}
func (stubRepo) GetTransaction(context.Context, string, string) (*repo.Transaction, error) {
	return nil, errStub
}
func (stubRepo) ListTransactions(context.Context, string, int) ([]repo.Transaction, error) {
	return nil, errStub
}
func (stubRepo) ListTransactionsSince(context.Context, string, time.Time) ([]repo.Transaction, error) {
	return nil, errStub
}
func (stubRepo) ListTransactionsBetween(context.Context, string, time.Time, time.Time) ([]repo.Transaction, error) {
	return nil, errStub
}
func (stubRepo) ListTransactionsByCategory(context.Context, string, string) ([]repo.Transaction, error) {
	return nil, errStub
}
func (stubRepo) UpdateTransaction(context.Context, string, string, repo.TransactionUpdate) (*repo.Transaction, error) {
	return nil, errStub
}
func (stubRepo) DeleteTransaction(context.Context, string, string) error { return errStub }

func (stubRepo) GetGatewaySession(context.Context) (*repo.GatewaySession, error) { return nil, nil }
func (stubRepo) SaveGatewaySession(context.Context, []byte) error                { return nil }

// testRepo backs the webhook tests: one known user, in-memory
// transactions.
type testRepo struct {
	stubRepo
	user repo.User
	txs  []repo.Transaction
}

func (r *testRepo) GetUserByPhone(_ context.Context, phone string) (*repo.User, error) {
	if repo.NormalizePhone(phone) == r.user.Phone {
		u := r.user
		return &u, nil
	}
	return nil, apperr.New(apperr.NotFound, "Usuário não encontrado")
}

func (r *testRepo) GetUserByID(_ context.Context, id string) (*repo.User, error) {
	if id == r.user.ID {
		u := r.user
		return &u, nil
	}
	return nil, apperr.New(apperr.NotFound, "Usuário não encontrado")
}

func (r *testRepo) EnsureCategory(_ context.Context, userID, name, kind string) (*repo.Category, error) {
	return &repo.Category{ID: "cat-1", UserID: userID, Name: name, Kind: kind}, nil
}

func (r *testRepo) InsertTransaction(_ context.Context, tx repo.Transaction) (*repo.Transaction, error) {
	tx.ID = "a1b2c3d4-e5f6-7890-abcd-ef1234567890"
	r.txs = append(r.txs, tx)
	return &tx, nil
}

func (r *testRepo) ListTransactions(context.Context, string, int) ([]repo.Transaction, error) {
	return r.txs, nil
}

func (r *testRepo) ListTransactionsSince(context.Context, string, time.Time) ([]repo.Transaction, error) {
	return r.txs, nil
}

func newTestHandler(r repo.Repository) *Handler {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	dispatcher := command.New(r, nil, logger, nil, nil)
	return NewHandler(logger, nil, r, dispatcher)
}

func post(t *testing.T, h *Handler, body string) (*httptest.ResponseRecorder, Response) {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/whatsapp/webhook", strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	var resp Response
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid response body %q: %v", rec.Body.String(), err)
	}
	return rec, resp
}

func TestWebhookSavesExpense(t *testing.T) {
	r := &testRepo{user: repo.User{ID: "user-1", Name: "Maria", Phone: "5511999998888"}}
	h := newTestHandler(r)

	rec, resp := post(t, h, `{
		"type": "EXPENSE",
		"phone": "+5511999998888",
		"amount": "59,90",
		"description": "almoço",
		"category": "alimentação"
	}`)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	if !resp.Success {
		t.Fatalf("expected success, got %+v", resp)
	}
	if !strings.Contains(resp.Message, "Despesa registrada com sucesso") {
		t.Fatalf("unexpected message: %s", resp.Message)
	}
	if len(r.txs) != 1 || r.txs[0].AmountCents != -5990 {
		t.Fatalf("unexpected stored transactions: %+v", r.txs)
	}
}

func TestWebhookAcceptsWhatsAppSuffixedPhone(t *testing.T) {
	r := &testRepo{user: repo.User{ID: "user-1", Phone: "5511999998888"}}
	h := newTestHandler(r)

	rec, resp := post(t, h, `{"type": "BALANCE", "phone": "5511999998888@c.us"}`)
	if rec.Code != http.StatusOK || !resp.Success {
		t.Fatalf("status = %d, resp = %+v", rec.Code, resp)
	}
}

func TestWebhookUnknownUser(t *testing.T) {
	r := &testRepo{user: repo.User{ID: "user-1", Phone: "5511999998888"}}
	h := newTestHandler(r)

	rec, resp := post(t, h, `{"type": "BALANCE", "phone": "5511000000000"}`)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
	if resp.Success {
		t.Fatal("expected success=false")
	}
	if resp.Message != "Usuário não encontrado" {
		t.Fatalf("unexpected message: %s", resp.Message)
	}
}

func TestWebhookInvalidPeriod(t *testing.T) {
	r := &testRepo{user: repo.User{ID: "user-1", Phone: "5511999998888"}}
	h := newTestHandler(r)

	rec, resp := post(t, h, `{"type": "REPORT", "phone": "5511999998888", "period": "quarterly"}`)
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("status = %d, want 422", rec.Code)
	}
	if !strings.Contains(resp.Message, "Período inválido") {
		t.Fatalf("unexpected message: %s", resp.Message)
	}
}

func TestWebhookUnknownCommandType(t *testing.T) {
	h := newTestHandler(&testRepo{user: repo.User{ID: "u", Phone: "1"}})

	rec, _ := post(t, h, `{"type": "DANCE", "phone": "1"}`)
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("status = %d, want 422", rec.Code)
	}
}

func TestWebhookInvalidAmount(t *testing.T) {
	h := newTestHandler(&testRepo{user: repo.User{ID: "u", Phone: "5511999998888"}})

	rec, resp := post(t, h, `{"type": "EXPENSE", "phone": "5511999998888", "amount": "abc", "category": "x"}`)
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("status = %d, want 422", rec.Code)
	}
	if !strings.Contains(resp.Message, "Valor inválido") {
		t.Fatalf("unexpected message: %s", resp.Message)
	}
}

func TestWebhookMissingIdentity(t *testing.T) {
	h := newTestHandler(&testRepo{})

	rec, _ := post(t, h, `{"type": "BALANCE"}`)
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("status = %d, want 422", rec.Code)
	}
}

func TestWebhookRejectsNonPost(t *testing.T) {
	h := newTestHandler(&testRepo{})
	req := httptest.NewRequest(http.MethodGet, "/whatsapp/webhook", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusMethodNotAllowed {
		t.Fatalf("status = %d, want 405", rec.Code)
	}
}

func TestWebhookMalformedBody(t *testing.T) {
	h := newTestHandler(&testRepo{})
	rec, resp := post(t, h, `{not json`)
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("status = %d, want 422", rec.Code)
	}
	if resp.Success {
		t.Fatal("expected success=false")
	}
}

func TestWebhookResolvesByUserID(t *testing.T) {
	r := &testRepo{user: repo.User{ID: "user-1", Phone: "5511999998888"}}
	h := newTestHandler(r)

	rec, resp := post(t, h, `{"type": "BALANCE", "user_id": "user-1"}`)
	if rec.Code != http.StatusOK || !resp.Success {
		t.Fatalf("status = %d, resp = %+v", rec.Code, resp)
	}
}
