package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"minibank/internal/domain/models"
	"minibank/internal/storage"
)

func day(d int) time.Time {
	return time.Date(2024, time.June, d, 12, 0, 0, 0, time.UTC)
}

func seedUser(t *testing.T, s *Storage, id, name, cpf string) {
	t.Helper()
	require.NoError(t, s.SaveUser(context.Background(), &models.User{
		ID:      id,
		Name:    name,
		CPF:     cpf,
		Account: "1234",
		Agency:  "001",
	}))
}

func TestUserLookups(t *testing.T) {
	s := New()
	ctx := context.Background()

	seedUser(t, s, "u1", "Ana", "111")
	seedUser(t, s, "u2", "Bob", "222")

	user, err := s.UserByID(ctx, "u1")
	require.NoError(t, err)
	require.Equal(t, "Ana", user.Name)

	user, err = s.UserByCPF(ctx, "222")
	require.NoError(t, err)
	require.Equal(t, "u2", user.ID)

	user, err = s.UserByDetails(ctx, "111", "001", "1234")
	require.NoError(t, err)
	require.Equal(t, "u1", user.ID)

	_, err = s.UserByDetails(ctx, "111", "002", "1234")
	require.ErrorIs(t, err, storage.ErrNotFound)

	user, err = s.UserByProfile(ctx, "Bob", "222", "001", "1234")
	require.NoError(t, err)
	require.Equal(t, "u2", user.ID)

	_, err = s.UserByProfile(ctx, "Robert", "222", "001", "1234")
	require.ErrorIs(t, err, storage.ErrNotFound)

	_, err = s.UserByID(ctx, "missing")
	require.ErrorIs(t, err, storage.ErrNotFound)
}

func TestUpdateUser(t *testing.T) {
	s := New()
	ctx := context.Background()

	seedUser(t, s, "u1", "Ana", "111")

	user, err := s.UserByID(ctx, "u1")
	require.NoError(t, err)
	user.Balance = 75
	user.Favorites = append(user.Favorites, "u2")
	require.NoError(t, s.UpdateUser(ctx, user))

	got, err := s.UserByID(ctx, "u1")
	require.NoError(t, err)
	require.Equal(t, float64(75), got.Balance)
	require.Equal(t, []string{"u2"}, got.Favorites)

	err = s.UpdateUser(ctx, &models.User{ID: "ghost"})
	require.ErrorIs(t, err, storage.ErrNotFound)
}

func TestReturnsDefensiveCopies(t *testing.T) {
	s := New()
	ctx := context.Background()

	seedUser(t, s, "u1", "Ana", "111")

	user, err := s.UserByID(ctx, "u1")
	require.NoError(t, err)
	user.Name = "Mallory"
	user.Favorites = append(user.Favorites, "u9")

	got, err := s.UserByID(ctx, "u1")
	require.NoError(t, err)
	require.Equal(t, "Ana", got.Name)
	require.Empty(t, got.Favorites)
}

func TestListUsersOrder(t *testing.T) {
	s := New()
	ctx := context.Background()

	seedUser(t, s, "u1", "Ana", "111")
	seedUser(t, s, "u2", "Bob", "222")
	seedUser(t, s, "u3", "Carl", "333")

	users, err := s.ListUsers(ctx)
	require.NoError(t, err)
	require.Len(t, users, 3)
	require.Equal(t, "Ana", users[0].Name)
	require.Equal(t, "Bob", users[1].Name)
	require.Equal(t, "Carl", users[2].Name)
}

func TestTransactionsInRange(t *testing.T) {
	s := New()
	ctx := context.Background()

	txs := []*models.Transaction{
		{ID: "t1", FromUserID: "u1", ToUserID: "u2", Amount: 10, Date: day(1)},
		{ID: "t2", FromUserID: "u1", ToUserID: "", Amount: 5, Date: day(2)},
		{ID: "t3", FromUserID: "u2", ToUserID: "u1", Amount: 7, Date: day(3)},
		{ID: "t4", FromUserID: "u1", ToUserID: "u2", Amount: 3, Date: day(20)},
	}
	for _, tx := range txs {
		require.NoError(t, s.SaveTransaction(ctx, tx))
	}

	got, err := s.TransactionsInRange(ctx, "u1", day(1), day(10), storage.ScopeAll)
	require.NoError(t, err)
	require.Len(t, got, 3)
	require.Equal(t, "t1", got[0].ID)
	require.Equal(t, "t2", got[1].ID)
	require.Equal(t, "t3", got[2].ID)

	got, err = s.TransactionsInRange(ctx, "u1", day(1), day(10), storage.ScopeTransfers)
	require.NoError(t, err)
	require.Len(t, got, 1)
	require.Equal(t, "t1", got[0].ID)

	got, err = s.TransactionsInRange(ctx, "u1", day(1), day(10), storage.ScopePayments)
	require.NoError(t, err)
	require.Len(t, got, 1)
	require.Equal(t, "t2", got[0].ID)

	got, err = s.TransactionsInRange(ctx, "u1", day(1), day(30), storage.ScopeAll)
	require.NoError(t, err)
	require.Len(t, got, 4)

	got, err = s.TransactionsInRange(ctx, "u1", day(25), day(30), storage.ScopeAll)
	require.NoError(t, err)
	require.Empty(t, got)

	tx, err := s.TransactionByID(ctx, "t2")
	require.NoError(t, err)
	require.Equal(t, "", tx.ToUserID)

	_, err = s.TransactionByID(ctx, "missing")
	require.ErrorIs(t, err, storage.ErrNotFound)
}
