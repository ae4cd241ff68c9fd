package api

import (
	"errors"
	"log/slog"
	"net/http"
	"slices"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"golang.org/x/crypto/bcrypt"

	"minibank/internal/domain/models"
	"minibank/internal/lib/session"
	"minibank/internal/storage"
)

func (s *APIServer) addUserHandler() http.HandlerFunc {
	return s.requireFields([]string{"name", "cpf", "account", "agency", "password"}, func(w http.ResponseWriter, r *http.Request, body map[string]any) {
		ctx := r.Context()
		cpf := stringField(body, "cpf")

		_, err := s.storage.UserByCPF(ctx, cpf)
		if err == nil {
			respondError(w, http.StatusForbidden, errForbidden, "user already exists")
			return
		}
		if !errors.Is(err, storage.ErrNotFound) {
			s.internalError(w, err)
			return
		}

		passHash, err := bcrypt.GenerateFromPassword([]byte(stringField(body, "password")), bcrypt.DefaultCost)
		if err != nil {
			s.internalError(w, err)
			return
		}

		user := &models.User{
			ID:           uuid.NewString(),
			Name:         stringField(body, "name"),
			CPF:          cpf,
			Account:      stringField(body, "account"),
			Agency:       stringField(body, "agency"),
			PasswordHash: string(passHash),
		}
		if err := s.storage.SaveUser(ctx, user); err != nil {
			s.internalError(w, err)
			return
		}

		s.logger.Info("user registered", slog.String("cpf", cpf))
		s.respondUserView(w, r, user)
	})
}

func (s *APIServer) listUsersHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		users, err := s.storage.ListUsers(r.Context())
		if err != nil {
			s.internalError(w, err)
			return
		}

		views := make([]UserView, 0, len(users))
		for _, user := range users {
			view, err := s.userView(r.Context(), user)
			if err != nil {
				s.internalError(w, err)
				return
			}
			views = append(views, view)
		}
		respondJSON(w, http.StatusOK, views)
	}
}

func (s *APIServer) addSessionHandler() http.HandlerFunc {
	return s.requireFields([]string{"cpf", "password"}, func(w http.ResponseWriter, r *http.Request, body map[string]any) {
		user, err := s.storage.UserByCPF(r.Context(), stringField(body, "cpf"))
		if errors.Is(err, storage.ErrNotFound) {
			respondError(w, http.StatusNotFound, errNotFound, "session not found")
			return
		}
		if err != nil {
			s.internalError(w, err)
			return
		}

		if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(stringField(body, "password"))) != nil {
			respondError(w, http.StatusNotFound, errNotFound, "session not found")
			return
		}

		token, err := session.NewToken(user.ID, s.config.SessionSecret, s.config.SessionTTL)
		if err != nil {
			s.internalError(w, err)
			return
		}
		http.SetCookie(w, &http.Cookie{
			Name:     sessionCookie,
			Value:    token,
			Path:     "/",
			HttpOnly: true,
		})

		s.logger.Info("session created", slog.String("cpf", user.CPF))
		s.respondUserView(w, r, user)
	})
}

func (s *APIServer) showSessionHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, err := s.sessionUser(r)
		if errors.Is(err, storage.ErrNotFound) {
			respondError(w, http.StatusNotFound, errNotFound, "session not found")
			return
		}
		if err != nil {
			s.internalError(w, err)
			return
		}
		s.respondUserView(w, r, user)
	}
}

func (s *APIServer) showBalanceHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, err := s.sessionUser(r)
		if errors.Is(err, storage.ErrNotFound) {
			respondError(w, http.StatusNotFound, errNotFound, "session not found")
			return
		}
		if err != nil {
			s.internalError(w, err)
			return
		}
		respondJSON(w, http.StatusOK, map[string]float64{"balance": user.Balance})
	}
}

func (s *APIServer) listTransactionsHandler(scope storage.Scope) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		begin, end, err := dateRange(mux.Vars(r))
		if err != nil {
			respondError(w, http.StatusBadRequest, errBadRequest, err.Error())
			return
		}
		if begin.After(end) {
			respondError(w, http.StatusBadRequest, errBadRequest, "date_begin should be lower than date_end")
			return
		}

		user, err := s.sessionUser(r)
		if errors.Is(err, storage.ErrNotFound) {
			respondError(w, http.StatusNotFound, errNotFound, "session not found")
			return
		}
		if err != nil {
			s.internalError(w, err)
			return
		}

		txs, err := s.storage.TransactionsInRange(r.Context(), user.ID, begin, end, scope)
		if err != nil {
			s.internalError(w, err)
			return
		}
		if len(txs) == 0 {
			respondJSON(w, http.StatusOK, map[string]string{"message": "no transactions"})
			return
		}

		views := make([]TransactionView, 0, len(txs))
		for _, tx := range txs {
			view, err := s.transactionView(r.Context(), tx)
			if err != nil {
				s.internalError(w, err)
				return
			}
			views = append(views, view)
		}
		respondJSON(w, http.StatusOK, views)
	}
}

func (s *APIServer) addTransferHandler() http.HandlerFunc {
	return s.requireFields([]string{"amount", "label", "cpf", "agency", "account"}, func(w http.ResponseWriter, r *http.Request, body map[string]any) {
		ctx := r.Context()

		amount, err := amountField(body)
		if err != nil {
			respondError(w, http.StatusBadRequest, errBadRequest, err.Error())
			return
		}

		s.balanceMu.Lock()
		defer s.balanceMu.Unlock()

		sender, err := s.sessionUser(r)
		if errors.Is(err, storage.ErrNotFound) {
			respondError(w, http.StatusNotFound, errNotFound, "session not found")
			return
		}
		if err != nil {
			s.internalError(w, err)
			return
		}

		receiver, err := s.storage.UserByDetails(ctx, stringField(body, "cpf"), stringField(body, "agency"), stringField(body, "account"))
		if errors.Is(err, storage.ErrNotFound) {
			respondError(w, http.StatusNotFound, errNotFound, "user does not exist")
			return
		}
		if err != nil {
			s.internalError(w, err)
			return
		}

		// sender and receiver are held as two copies of their documents;
		// the same account on both sides would let the second update
		// clobber the first and mint money.
		if receiver.ID == sender.ID {
			respondError(w, http.StatusForbidden, errForbidden, "cannot transfer to own account")
			return
		}

		if sender.Balance < amount {
			respondError(w, http.StatusForbidden, errForbidden, "insufficient funds")
			return
		}
		receiver.Balance += amount
		sender.Balance -= amount

		if !slices.Contains(sender.Favorites, receiver.ID) {
			sender.Favorites = append(sender.Favorites, receiver.ID)
		}

		transfer := &models.Transaction{
			ID:         uuid.NewString(),
			FromUserID: sender.ID,
			ToUserID:   receiver.ID,
			Amount:     amount,
			Date:       time.Now(),
			Label:      stringField(body, "label"),
		}
		if err := s.storage.SaveTransaction(ctx, transfer); err != nil {
			s.internalError(w, err)
			return
		}

		sender.Transactions = append(sender.Transactions, transfer.ID)
		receiver.Transactions = append(receiver.Transactions, transfer.ID)
		if err := s.storage.UpdateUser(ctx, sender); err != nil {
			s.internalError(w, err)
			return
		}
		if err := s.storage.UpdateUser(ctx, receiver); err != nil {
			s.internalError(w, err)
			return
		}

		s.logger.Info("transfer completed",
			slog.String("from", sender.CPF),
			slog.String("to", receiver.CPF),
			slog.Float64("amount", amount),
		)

		view, err := s.transactionView(ctx, transfer)
		if err != nil {
			s.internalError(w, err)
			return
		}
		respondJSON(w, http.StatusOK, view)
	})
}

func (s *APIServer) addPaymentHandler() http.HandlerFunc {
	return s.requireFields([]string{"code", "label", "amount"}, func(w http.ResponseWriter, r *http.Request, body map[string]any) {
		ctx := r.Context()

		amount, err := amountField(body)
		if err != nil {
			respondError(w, http.StatusBadRequest, errBadRequest, err.Error())
			return
		}

		s.balanceMu.Lock()
		defer s.balanceMu.Unlock()

		sender, err := s.sessionUser(r)
		if errors.Is(err, storage.ErrNotFound) {
			respondError(w, http.StatusNotFound, errNotFound, "session not found")
			return
		}
		if err != nil {
			s.internalError(w, err)
			return
		}

		if sender.Balance < amount {
			respondError(w, http.StatusForbidden, errForbidden, "insufficient funds")
			return
		}
		sender.Balance -= amount

		// The biller code is accepted but resolves no receiver.
		payment := &models.Transaction{
			ID:         uuid.NewString(),
			FromUserID: sender.ID,
			Amount:     amount,
			Date:       time.Now(),
			Label:      stringField(body, "label"),
		}
		if err := s.storage.SaveTransaction(ctx, payment); err != nil {
			s.internalError(w, err)
			return
		}

		sender.Transactions = append(sender.Transactions, payment.ID)
		if err := s.storage.UpdateUser(ctx, sender); err != nil {
			s.internalError(w, err)
			return
		}

		s.logger.Info("payment completed",
			slog.String("from", sender.CPF),
			slog.Float64("amount", amount),
		)

		view, err := s.transactionView(ctx, payment)
		if err != nil {
			s.internalError(w, err)
			return
		}
		respondJSON(w, http.StatusOK, view)
	})
}

func (s *APIServer) listFavoritesHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, err := s.sessionUser(r)
		if errors.Is(err, storage.ErrNotFound) {
			respondError(w, http.StatusNotFound, errNotFound, "session not found")
			return
		}
		if err != nil {
			s.internalError(w, err)
			return
		}

		if len(user.Favorites) == 0 {
			respondJSON(w, http.StatusOK, map[string]string{"message": "no favorites"})
			return
		}

		views := make([]UserView, 0, len(user.Favorites))
		for _, id := range user.Favorites {
			favorite, err := s.storage.UserByID(r.Context(), id)
			if err != nil {
				s.internalError(w, err)
				return
			}
			view, err := s.userView(r.Context(), favorite)
			if err != nil {
				s.internalError(w, err)
				return
			}
			views = append(views, view)
		}
		respondJSON(w, http.StatusOK, views)
	}
}

func (s *APIServer) showFavoriteHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		cpf := mux.Vars(r)["cpf"]

		user, err := s.sessionUser(r)
		if errors.Is(err, storage.ErrNotFound) {
			respondError(w, http.StatusNotFound, errNotFound, "session not found")
			return
		}
		if err != nil {
			s.internalError(w, err)
			return
		}

		candidate, err := s.storage.UserByCPF(r.Context(), cpf)
		if err != nil && !errors.Is(err, storage.ErrNotFound) {
			s.internalError(w, err)
			return
		}

		member := false
		for _, id := range user.Favorites {
			favorite, err := s.storage.UserByID(r.Context(), id)
			if err != nil {
				s.internalError(w, err)
				return
			}
			if favorite.CPF == cpf {
				member = true
				break
			}
		}
		if !member || candidate == nil {
			respondError(w, http.StatusNotFound, errNotFound, "favorite not found")
			return
		}

		s.respondUserView(w, r, candidate)
	}
}

func (s *APIServer) addFavoriteHandler() http.HandlerFunc {
	return s.requireFields([]string{"name", "agency", "account", "cpf"}, func(w http.ResponseWriter, r *http.Request, body map[string]any) {
		ctx := r.Context()

		user, err := s.sessionUser(r)
		if errors.Is(err, storage.ErrNotFound) {
			respondError(w, http.StatusNotFound, errNotFound, "session not found")
			return
		}
		if err != nil {
			s.internalError(w, err)
			return
		}

		favorite, err := s.storage.UserByProfile(ctx,
			stringField(body, "name"),
			stringField(body, "cpf"),
			stringField(body, "agency"),
			stringField(body, "account"),
		)
		if errors.Is(err, storage.ErrNotFound) {
			respondError(w, http.StatusNotFound, errNotFound, "user does no exist")
			return
		}
		if err != nil {
			s.internalError(w, err)
			return
		}

		if slices.Contains(user.Favorites, favorite.ID) {
			respondError(w, http.StatusForbidden, errForbidden, "user is already a favorite")
			return
		}

		user.Favorites = append(user.Favorites, favorite.ID)
		if err := s.storage.UpdateUser(ctx, user); err != nil {
			s.internalError(w, err)
			return
		}

		s.respondUserView(w, r, favorite)
	})
}
