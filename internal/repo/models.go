package repo

import "time"

// Transaction kinds. The stored amount sign always matches the kind:
// income >= 0, expense <= 0.
const (
	KindIncome  = "INCOME"
	KindExpense = "EXPENSE"
)

// User represents a row in the users table. Phone is canonical form:
// digits only, no "+" and no WhatsApp suffix.
type User struct {
	ID           string
	Email        string
	Name         string
	Phone        string
	PasswordHash string
	Role         string
	Active       bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// UserUpdate carries optional fields for a partial user update.
type UserUpdate struct {
	Name         *string
	Email        *string
	Phone        *string
	PasswordHash *string
	Active       *bool
}

// Category represents a row in the categories table. Name is unique
// per owner and kind.
type Category struct {
	ID        string
	UserID    string
	Name      string
	Kind      string
	Icon      *string
	Color     *string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Transaction represents a row in the transactions table. AmountCents
// is signed centavos.
type Transaction struct {
	ID          string
	UserID      string
	CategoryID  string
	AmountCents int64
	Description string
	Category    string
	Kind        string
	Date        time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// TransactionUpdate carries optional fields for a partial transaction
// update. AmountCents, when set, must already carry the sign matching
// the transaction's stored kind.
type TransactionUpdate struct {
	AmountCents *int64
	Description *string
	Category    *string
}

// GatewaySession is the single opaque credentials blob persisted for
// the WhatsApp gateway, keyed by a fixed identifier.
type GatewaySession struct {
	ID          string
	Credentials []byte
	UpdatedAt   time.Time
}

// SessionID is the fixed key under which gateway credentials are stored.
const SessionID = "whatsapp"
