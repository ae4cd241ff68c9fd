package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"minibank/internal/domain/models"
	"minibank/internal/storage"
)

// Storage keeps users and transactions in process memory. It backs the
// API tests and local development without a database.
type Storage struct {
	mu           sync.RWMutex
	users        map[string]*models.User
	order        []string
	transactions map[string]*models.Transaction
}

func New() *Storage {
	return &Storage{
		users:        make(map[string]*models.User),
		transactions: make(map[string]*models.Transaction),
	}
}

func (s *Storage) SaveUser(ctx context.Context, user *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.users[user.ID]; !ok {
		s.order = append(s.order, user.ID)
	}
	s.users[user.ID] = cloneUser(user)
	return nil
}

func (s *Storage) UpdateUser(ctx context.Context, user *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.users[user.ID]; !ok {
		return storage.ErrNotFound
	}
	s.users[user.ID] = cloneUser(user)
	return nil
}

func (s *Storage) UserByID(ctx context.Context, id string) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	user, ok := s.users[id]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return cloneUser(user), nil
}

func (s *Storage) UserByCPF(ctx context.Context, cpf string) (*models.User, error) {
	return s.userWhere(func(u *models.User) bool {
		return u.CPF == cpf
	})
}

func (s *Storage) UserByDetails(ctx context.Context, cpf, agency, account string) (*models.User, error) {
	return s.userWhere(func(u *models.User) bool {
		return u.CPF == cpf && u.Agency == agency && u.Account == account
	})
}

func (s *Storage) UserByProfile(ctx context.Context, name, cpf, agency, account string) (*models.User, error) {
	return s.userWhere(func(u *models.User) bool {
		return u.Name == name && u.CPF == cpf && u.Agency == agency && u.Account == account
	})
}

func (s *Storage) userWhere(match func(*models.User) bool) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, id := range s.order {
		if user := s.users[id]; match(user) {
			return cloneUser(user), nil
		}
	}
	return nil, storage.ErrNotFound
}

func (s *Storage) ListUsers(ctx context.Context) ([]*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	users := make([]*models.User, 0, len(s.order))
	for _, id := range s.order {
		users = append(users, cloneUser(s.users[id]))
	}
	return users, nil
}

func (s *Storage) SaveTransaction(ctx context.Context, tx *models.Transaction) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	clone := *tx
	s.transactions[tx.ID] = &clone
	return nil
}

func (s *Storage) TransactionByID(ctx context.Context, id string) (*models.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	tx, ok := s.transactions[id]
	if !ok {
		return nil, storage.ErrNotFound
	}
	clone := *tx
	return &clone, nil
}

func (s *Storage) TransactionsInRange(ctx context.Context, userID string, begin, end time.Time, scope storage.Scope) ([]*models.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var txs []*models.Transaction
	for _, tx := range s.transactions {
		if tx.Date.Before(begin) || tx.Date.After(end) {
			continue
		}
		if !inScope(tx, userID, scope) {
			continue
		}
		clone := *tx
		txs = append(txs, &clone)
	}

	sort.Slice(txs, func(i, j int) bool {
		if txs[i].Date.Equal(txs[j].Date) {
			return txs[i].ID < txs[j].ID
		}
		return txs[i].Date.Before(txs[j].Date)
	})
	return txs, nil
}

func inScope(tx *models.Transaction, userID string, scope storage.Scope) bool {
	switch scope {
	case storage.ScopeTransfers:
		return tx.FromUserID == userID && tx.ToUserID != ""
	case storage.ScopePayments:
		return tx.FromUserID == userID && tx.ToUserID == ""
	default:
		return tx.FromUserID == userID || tx.ToUserID == userID
	}
}

func cloneUser(user *models.User) *models.User {
	clone := *user
	clone.Favorites = append([]string(nil), user.Favorites...)
	clone.Transactions = append([]string(nil), user.Transactions...)
	return &clone
}
