package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/lib/pq"

	"minibank/internal/domain/models"
	"minibank/internal/storage"
)

type Storage struct {
	db *sql.DB
}

func New(dbUrl string) (*Storage, error) {
	db, err := sql.Open("postgres", dbUrl)
	if err != nil {
		return nil, fmt.Errorf("database connection error %s", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to connect database error %s", err)
	}

	return &Storage{db: db}, nil
}

func (s *Storage) Stop() error {
	return s.db.Close()
}

func (s *Storage) SaveUser(ctx context.Context, user *models.User) error {
	const op = "storage.postgres.SaveUser"

	stmt, err := s.db.Prepare("INSERT INTO users(id, name, cpf, account, agency, password_hash, balance) VALUES($1, $2, $3, $4, $5, $6, $7)")
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	_, err = stmt.ExecContext(ctx, user.ID, user.Name, user.CPF, user.Account, user.Agency, user.PasswordHash, user.Balance)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return s.saveFavorites(ctx, op, user)
}

// UpdateUser persists the user row and its favorites list. The
// transaction id list is derived from the transactions table and is not
// written here.
func (s *Storage) UpdateUser(ctx context.Context, user *models.User) error {
	const op = "storage.postgres.UpdateUser"

	stmt, err := s.db.Prepare("UPDATE users SET name = $2, cpf = $3, account = $4, agency = $5, password_hash = $6, balance = $7 WHERE id = $1")
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	res, err := stmt.ExecContext(ctx, user.ID, user.Name, user.CPF, user.Account, user.Agency, user.PasswordHash, user.Balance)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if affected == 0 {
		return storage.ErrNotFound
	}

	return s.saveFavorites(ctx, op, user)
}

func (s *Storage) saveFavorites(ctx context.Context, op string, user *models.User) error {
	_, err := s.db.ExecContext(ctx, "DELETE FROM favorites WHERE user_id = $1", user.ID)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	stmt, err := s.db.Prepare("INSERT INTO favorites(user_id, favorite_id, position) VALUES($1, $2, $3)")
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	for i, favoriteID := range user.Favorites {
		if _, err := stmt.ExecContext(ctx, user.ID, favoriteID, i); err != nil {
			return fmt.Errorf("%s: %w", op, err)
		}
	}

	return nil
}

func (s *Storage) UserByID(ctx context.Context, id string) (*models.User, error) {
	const op = "storage.postgres.UserByID"
	return s.userWhere(ctx, op, "id = $1", id)
}

func (s *Storage) UserByCPF(ctx context.Context, cpf string) (*models.User, error) {
	const op = "storage.postgres.UserByCPF"
	return s.userWhere(ctx, op, "cpf = $1", cpf)
}

func (s *Storage) UserByDetails(ctx context.Context, cpf, agency, account string) (*models.User, error) {
	const op = "storage.postgres.UserByDetails"
	return s.userWhere(ctx, op, "cpf = $1 AND agency = $2 AND account = $3", cpf, agency, account)
}

func (s *Storage) UserByProfile(ctx context.Context, name, cpf, agency, account string) (*models.User, error) {
	const op = "storage.postgres.UserByProfile"
	return s.userWhere(ctx, op, "name = $1 AND cpf = $2 AND agency = $3 AND account = $4", name, cpf, agency, account)
}

func (s *Storage) userWhere(ctx context.Context, op, where string, args ...any) (*models.User, error) {
	row := s.db.QueryRowContext(ctx, "SELECT id, name, cpf, account, agency, password_hash, balance FROM users WHERE "+where, args...)

	var user models.User
	err := row.Scan(&user.ID, &user.Name, &user.CPF, &user.Account, &user.Agency, &user.PasswordHash, &user.Balance)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if err := s.loadRefs(ctx, &user); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &user, nil
}

// loadRefs fills the favorites list (by stored position) and the shared
// transaction id list (by date) of a user row.
func (s *Storage) loadRefs(ctx context.Context, user *models.User) error {
	favRows, err := s.db.QueryContext(ctx, "SELECT favorite_id FROM favorites WHERE user_id = $1 ORDER BY position", user.ID)
	if err != nil {
		return err
	}
	defer favRows.Close()

	for favRows.Next() {
		var favoriteID string
		if err := favRows.Scan(&favoriteID); err != nil {
			return err
		}
		user.Favorites = append(user.Favorites, favoriteID)
	}
	if err := favRows.Err(); err != nil {
		return err
	}

	txRows, err := s.db.QueryContext(ctx, "SELECT id FROM transactions WHERE from_user = $1 OR to_user = $1 ORDER BY date, id", user.ID)
	if err != nil {
		return err
	}
	defer txRows.Close()

	for txRows.Next() {
		var txID string
		if err := txRows.Scan(&txID); err != nil {
			return err
		}
		user.Transactions = append(user.Transactions, txID)
	}
	return txRows.Err()
}

func (s *Storage) ListUsers(ctx context.Context) ([]*models.User, error) {
	const op = "storage.postgres.ListUsers"

	rows, err := s.db.QueryContext(ctx, "SELECT id, name, cpf, account, agency, password_hash, balance FROM users ORDER BY id")
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	var users []*models.User
	for rows.Next() {
		var user models.User
		if err := rows.Scan(&user.ID, &user.Name, &user.CPF, &user.Account, &user.Agency, &user.PasswordHash, &user.Balance); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		users = append(users, &user)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	for _, user := range users {
		if err := s.loadRefs(ctx, user); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
	}

	return users, nil
}

func (s *Storage) SaveTransaction(ctx context.Context, tx *models.Transaction) error {
	const op = "storage.postgres.SaveTransaction"

	stmt, err := s.db.Prepare("INSERT INTO transactions(id, from_user, to_user, amount, date, label) VALUES($1, $2, $3, $4, $5, $6)")
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	toUser := sql.NullString{String: tx.ToUserID, Valid: tx.ToUserID != ""}
	_, err = stmt.ExecContext(ctx, tx.ID, tx.FromUserID, toUser, tx.Amount, tx.Date, tx.Label)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

func (s *Storage) TransactionByID(ctx context.Context, id string) (*models.Transaction, error) {
	const op = "storage.postgres.TransactionByID"

	row := s.db.QueryRowContext(ctx, "SELECT id, from_user, to_user, amount, date, label FROM transactions WHERE id = $1", id)

	tx, err := scanTransaction(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return tx, nil
}

func (s *Storage) TransactionsInRange(ctx context.Context, userID string, begin, end time.Time, scope storage.Scope) ([]*models.Transaction, error) {
	const op = "storage.postgres.TransactionsInRange"

	query := "SELECT id, from_user, to_user, amount, date, label FROM transactions WHERE date >= $2 AND date <= $3 AND "
	switch scope {
	case storage.ScopeTransfers:
		query += "from_user = $1 AND to_user IS NOT NULL"
	case storage.ScopePayments:
		query += "from_user = $1 AND to_user IS NULL"
	default:
		query += "(from_user = $1 OR to_user = $1)"
	}
	query += " ORDER BY date, id"

	rows, err := s.db.QueryContext(ctx, query, userID, begin, end)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	var txs []*models.Transaction
	for rows.Next() {
		tx, err := scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		txs = append(txs, tx)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return txs, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanTransaction(row scanner) (*models.Transaction, error) {
	var tx models.Transaction
	var toUser sql.NullString
	if err := row.Scan(&tx.ID, &tx.FromUserID, &toUser, &tx.Amount, &tx.Date, &tx.Label); err != nil {
		return nil, err
	}
	tx.ToUserID = toUser.String
	return &tx, nil
}
