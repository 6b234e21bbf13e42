package repo

import (
	"context"
	"io/fs"
	"time"
)

// Repository defines the interface for data persistence. The command
// dispatcher and the HTTP handlers depend on this contract only; the
// connection lifecycle is owned by the composition root.
type Repository interface {
	// Lifecycle
	Close()
	Ping(ctx context.Context) error
	RunMigrations(ctx context.Context, filesystem fs.FS) error

	// Users
	CreateUser(ctx context.Context, user User) (*User, error)
	GetUserByID(ctx context.Context, id string) (*User, error)
	GetUserByEmail(ctx context.Context, email string) (*User, error)
	GetUserByPhone(ctx context.Context, phone string) (*User, error)
	ListUsers(ctx context.Context, offset, limit int) ([]User, error)
	UpdateUser(ctx context.Context, id string, upd UserUpdate) (*User, error)
	DeleteUser(ctx context.Context, id string) error

	// Categories
	EnsureCategory(ctx context.Context, userID, name, kind string) (*Category, error)
	CreateCategory(ctx context.Context, category Category) (*Category, error)
	ListCategories(ctx context.Context, userID string) ([]Category, error)

	// Transactions
	InsertTransaction(ctx context.Context, tx Transaction) (*Transaction, error)
	GetTransaction(ctx context.Context, id, userID string) (*Transaction, error)
	ListTransactions(ctx context.Context, userID string, limit int) ([]Transaction, error)
	ListTransactionsSince(ctx context.Context, userID string, since time.Time) ([]Transaction, error)
	ListTransactionsBetween(ctx context.Context, userID string, from, to time.Time) ([]Transaction, error)
	ListTransactionsByCategory(ctx context.Context, userID, category string) ([]Transaction, error)
	UpdateTransaction(ctx context.Context, id, userID string, upd TransactionUpdate) (*Transaction, error)
	DeleteTransaction(ctx context.Context, id, userID string) error

	// Gateway session
	GetGatewaySession(ctx context.Context) (*GatewaySession, error)
	SaveGatewaySession(ctx context.Context, credentials []byte) error
}
