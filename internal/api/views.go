package api

import (
	"context"
	"net/http"

	"minibank/internal/domain/models"
)

// UserView is the public projection of a user. Favorites are rendered
// as names only; transactions are rendered in full.
type UserView struct {
	ID           string            `json:"id"`
	Name         string            `json:"name"`
	CPF          string            `json:"cpf"`
	Account      string            `json:"account"`
	Agency       string            `json:"agency"`
	Balance      float64           `json:"balance"`
	Transactions []TransactionView `json:"transactions"`
	Favorites    []string          `json:"favorites"`
}

// TransactionView renders party names instead of ids. A payment has no
// receiver and shows "Unknown".
type TransactionView struct {
	ID       string  `json:"id"`
	FromUser string  `json:"from_user"`
	ToUser   string  `json:"to_user"`
	Amount   float64 `json:"amount"`
	Date     int64   `json:"date"`
	Label    string  `json:"label"`
}

func (s *APIServer) transactionView(ctx context.Context, tx *models.Transaction) (TransactionView, error) {
	from, err := s.storage.UserByID(ctx, tx.FromUserID)
	if err != nil {
		return TransactionView{}, err
	}

	toName := "Unknown"
	if tx.ToUserID != "" {
		to, err := s.storage.UserByID(ctx, tx.ToUserID)
		if err != nil {
			return TransactionView{}, err
		}
		toName = to.Name
	}

	return TransactionView{
		ID:       tx.ID,
		FromUser: from.Name,
		ToUser:   toName,
		Amount:   tx.Amount,
		Date:     tx.Date.Unix(),
		Label:    tx.Label,
	}, nil
}

func (s *APIServer) userView(ctx context.Context, user *models.User) (UserView, error) {
	view := UserView{
		ID:           user.ID,
		Name:         user.Name,
		CPF:          user.CPF,
		Account:      user.Account,
		Agency:       user.Agency,
		Balance:      user.Balance,
		Transactions: make([]TransactionView, 0, len(user.Transactions)),
		Favorites:    make([]string, 0, len(user.Favorites)),
	}

	for _, id := range user.Transactions {
		tx, err := s.storage.TransactionByID(ctx, id)
		if err != nil {
			return UserView{}, err
		}
		txView, err := s.transactionView(ctx, tx)
		if err != nil {
			return UserView{}, err
		}
		view.Transactions = append(view.Transactions, txView)
	}

	for _, id := range user.Favorites {
		favorite, err := s.storage.UserByID(ctx, id)
		if err != nil {
			return UserView{}, err
		}
		view.Favorites = append(view.Favorites, favorite.Name)
	}

	return view, nil
}

func (s *APIServer) respondUserView(w http.ResponseWriter, r *http.Request, user *models.User) {
	view, err := s.userView(r.Context(), user)
	if err != nil {
		s.internalError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, view)
}
