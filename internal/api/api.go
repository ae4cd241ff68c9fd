package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"sync"

	"github.com/gorilla/mux"

	"minibank/internal/config"
	"minibank/internal/domain/models"
	"minibank/internal/lib/session"
	"minibank/internal/storage"
)

const sessionCookie = "session"

type contextKey string

const userIDKey contextKey = "user_id"

type APIServer struct {
	config  *config.Config
	logger  *slog.Logger
	server  *http.Server
	storage storage.Storage

	// balanceMu serializes the check-then-debit sequence of transfers and
	// payments so concurrent requests cannot spend the same funds twice.
	balanceMu sync.Mutex
}

func New(config *config.Config, logger *slog.Logger, storage storage.Storage) *APIServer {
	return &APIServer{
		config: config,
		logger: logger,
		server: &http.Server{
			Addr: config.ApiHost + ":" + strconv.Itoa(config.ApiPort),
		},
		storage: storage,
	}
}

func (s *APIServer) Start() error {
	s.logger.Info("Starting server", slog.String("port", strconv.Itoa(s.config.ApiPort)))

	s.server.Handler = s.Router()

	return s.server.ListenAndServe()
}

func (s *APIServer) MustStart() {
	err := s.Start()
	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		panic("Failed to start server: " + err.Error())
	}
}

func (s *APIServer) Stop(ctx context.Context) error {
	defer s.logger.Info("Server successfully stopped")
	return s.server.Shutdown(ctx)
}

func (s *APIServer) Router() http.Handler {
	router := mux.NewRouter()

	router.HandleFunc("/users", s.addUserHandler()).Methods("POST")
	router.HandleFunc("/users", s.listUsersHandler()).Methods("GET")
	router.HandleFunc("/sessions", s.addSessionHandler()).Methods("POST")
	router.HandleFunc("/sessions", s.authenticate(s.showSessionHandler())).Methods("GET")
	router.HandleFunc("/balances", s.authenticate(s.showBalanceHandler())).Methods("GET")

	registerRangeRoutes(router, "/extracts", s.authenticate(s.listTransactionsHandler(storage.ScopeAll)))

	router.HandleFunc("/transfers", s.authenticate(s.addTransferHandler())).Methods("POST")
	registerRangeRoutes(router, "/transfers", s.authenticate(s.listTransactionsHandler(storage.ScopeTransfers)))

	router.HandleFunc("/pay", s.authenticate(s.addPaymentHandler())).Methods("POST")
	registerRangeRoutes(router, "/pay", s.authenticate(s.listTransactionsHandler(storage.ScopePayments)))

	router.HandleFunc("/favorites", s.authenticate(s.addFavoriteHandler())).Methods("POST")
	router.HandleFunc("/favorites/", s.authenticate(s.listFavoritesHandler())).Methods("GET")
	router.HandleFunc("/favorites/{cpf}/", s.authenticate(s.showFavoriteHandler())).Methods("GET")

	return router
}

// registerRangeRoutes binds the three date-range forms of a listing
// endpoint: no dates, begin only, begin and end.
func registerRangeRoutes(router *mux.Router, prefix string, handler http.HandlerFunc) {
	router.HandleFunc(prefix+"/", handler).Methods("GET")
	router.HandleFunc(prefix+"/{begin}/", handler).Methods("GET")
	router.HandleFunc(prefix+"/{begin}/{end}/", handler).Methods("GET")
}

// authenticate gates a handler behind the session cookie. Any failure
// short-circuits with 403 before the handler runs.
func (s *APIServer) authenticate(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		cookie, err := r.Cookie(sessionCookie)
		if err != nil {
			respondError(w, http.StatusForbidden, errForbidden, "session not found")
			return
		}

		userID, err := session.ParseToken(cookie.Value, s.config.SessionSecret)
		if err != nil {
			respondError(w, http.StatusForbidden, errForbidden, "session not found")
			return
		}

		next(w, r.WithContext(context.WithValue(r.Context(), userIDKey, userID)))
	}
}

// sessionUser re-fetches the authenticated user by the id the gate put
// in the request context.
func (s *APIServer) sessionUser(r *http.Request) (*models.User, error) {
	userID, _ := r.Context().Value(userIDKey).(string)
	return s.storage.UserByID(r.Context(), userID)
}
