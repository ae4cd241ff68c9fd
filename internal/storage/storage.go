package storage

import (
	"context"
	"errors"
	"time"

	"minibank/internal/domain/models"
)

// ErrNotFound is returned when no document matches the given filter.
var ErrNotFound = errors.New("not found")

// Scope narrows a date-range transaction query.
type Scope int

const (
	// ScopeAll matches transactions where the user is sender or receiver.
	ScopeAll Scope = iota
	// ScopeTransfers matches transactions sent by the user to another user.
	ScopeTransfers
	// ScopePayments matches transactions sent by the user with no receiver.
	ScopePayments
)

type Storage interface {
	SaveUser(ctx context.Context, user *models.User) error
	UpdateUser(ctx context.Context, user *models.User) error
	UserByID(ctx context.Context, id string) (*models.User, error)
	UserByCPF(ctx context.Context, cpf string) (*models.User, error)
	UserByDetails(ctx context.Context, cpf, agency, account string) (*models.User, error)
	UserByProfile(ctx context.Context, name, cpf, agency, account string) (*models.User, error)
	ListUsers(ctx context.Context) ([]*models.User, error)
	SaveTransaction(ctx context.Context, tx *models.Transaction) error
	TransactionByID(ctx context.Context, id string) (*models.Transaction, error)
	TransactionsInRange(ctx context.Context, userID string, begin, end time.Time, scope Scope) ([]*models.Transaction, error)
}
