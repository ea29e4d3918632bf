package server

import (
	"context"
	"database/sql"
	"encoding/json"
	"io"
	"log/slog"
	"net"
	"net/http"
	"os"
	"strconv"
	"time"

	"bankledger/internal/config"
	"bankledger/internal/domain"
	"bankledger/internal/handler"
	"bankledger/internal/repository"
	"bankledger/internal/repository/memory"
	"bankledger/internal/service"

	"github.com/gorilla/mux"
	_ "github.com/lib/pq"
)

// Server wires the ledger services behind an HTTP surface.
type Server struct {
	router *mux.Router
	server *http.Server
	db     *sql.DB // nil when running on the in-memory store
	logger *slog.Logger
	port   string
}

func NewServer(cfg *config.Config, logger *slog.Logger) (*Server, error) {
	var store domain.Store
	var db *sql.DB

	switch cfg.StorageDriver {
	case "memory":
		store = memory.NewStore()
		if logger != nil {
			logger.Info("using in-memory store")
		}
	default:
		var err error
		db, err = sql.Open("postgres", cfg.GetDBConnectionString())
		if err != nil {
			return nil, err
		}

		db.SetMaxOpenConns(25)
		db.SetMaxIdleConns(25)
		db.SetConnMaxLifetime(5 * time.Minute)

		if err := db.Ping(); err != nil {
			db.Close()
			return nil, err
		}
		if logger != nil {
			logger.Info("connected to database", "db_name", cfg.DBName)
		}
		store = repository.NewStore(db, logger)
	}

	locks := service.NewAccountLocks()
	customerService := service.NewCustomerService(store, logger)
	accountService := service.NewAccountService(store, locks, logger)
	ledgerService := service.NewLedgerService(store, locks, logger)

	customerHandler := handler.NewCustomerHandler(customerService)
	accountHandler := handler.NewAccountHandler(accountService)
	ledgerHandler := handler.NewLedgerHandler(ledgerService)

	router := mux.NewRouter()
	router.Use(loggingMiddleware(logger))

	// Customer routes
	router.HandleFunc("/customers", customerHandler.Register).Methods("POST")
	router.HandleFunc("/customers", customerHandler.List).Methods("GET")
	router.HandleFunc("/customers/{customer_id}", customerHandler.Get).Methods("GET")
	router.HandleFunc("/customers/{customer_id}", customerHandler.UpdateProfile).Methods("PUT")
	router.HandleFunc("/customers/{customer_id}/accounts", customerHandler.ListAccounts).Methods("GET")
	router.HandleFunc("/customers/{customer_id}/balance", customerHandler.TotalBalance).Methods("GET")

	// Account routes
	router.HandleFunc("/accounts", accountHandler.Open).Methods("POST")
	router.HandleFunc("/accounts/{account_number}", accountHandler.Get).Methods("GET")
	router.HandleFunc("/accounts/{account_number}/deactivate", accountHandler.Deactivate).Methods("POST")
	router.HandleFunc("/accounts/{account_number}/transactions", accountHandler.Transactions).Methods("GET")

	// Money movement routes
	router.HandleFunc("/accounts/{account_number}/deposits", ledgerHandler.Deposit).Methods("POST")
	router.HandleFunc("/accounts/{account_number}/withdrawals", ledgerHandler.Withdraw).Methods("POST")
	router.HandleFunc("/accounts/{account_number}/salary-deposits", ledgerHandler.DepositSalary).Methods("POST")
	router.HandleFunc("/transfers", ledgerHandler.Transfer).Methods("POST")
	router.HandleFunc("/interest-runs", ledgerHandler.RunMonthlyInterest).Methods("POST")

	// Health check
	router.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		if db != nil {
			if err := db.Ping(); err != nil {
				w.WriteHeader(http.StatusServiceUnavailable)
				json.NewEncoder(w).Encode(map[string]string{"status": "unhealthy", "error": "database unavailable"})
				return
			}
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{
			"status":    "healthy",
			"bank":      cfg.BankName,
			"timestamp": time.Now().UTC().Format(time.RFC3339),
		})
	}).Methods("GET")

	return &Server{
		router: router,
		db:     db,
		logger: logger,
	}, nil
}

func loggingMiddleware(logger *slog.Logger) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			ww := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
			next.ServeHTTP(ww, r)

			logger.Info("request completed",
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.statusCode,
				"duration", time.Since(start),
			)
		})
	}
}

// responseWriter wraps http.ResponseWriter to capture the status code.
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// Start listens on the given port ("0" picks a free one) and serves in the
// background.
func (s *Server) Start(port string) (string, error) {
	listener, err := net.Listen("tcp", ":"+port)
	if err != nil {
		return "", err
	}

	addr := listener.Addr().(*net.TCPAddr)
	s.port = strconv.Itoa(addr.Port)

	s.server = &http.Server{
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	if s.logger != nil {
		s.logger.Info("starting server", "port", s.port)
	}

	go func() {
		if err := s.server.Serve(listener); err != nil && err != http.ErrServerClosed {
			if s.logger != nil {
				s.logger.Error("server failed", "error", err)
			}
		}
	}()

	return s.port, nil
}

// Stop gracefully shuts down the server and closes the database.
func (s *Server) Stop(ctx context.Context) error {
	if s.logger != nil {
		s.logger.Info("shutting down server")
	}

	if s.db != nil {
		s.db.Close()
	}
	if s.server != nil {
		return s.server.Shutdown(ctx)
	}
	return nil
}

func (s *Server) GetPort() string {
	return s.port
}

func (s *Server) GetBaseURL() string {
	return "http://localhost:" + s.port
}

func (s *Server) GetRouter() *mux.Router {
	return s.router
}

// StartServer builds and starts a server for the given configuration.
func StartServer(cfg *config.Config) (*Server, string, error) {
	var logger *slog.Logger
	if cfg.ServerPort == "0" {
		// Test environment - keep output quiet
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	} else {
		logger = slog.New(slog.NewJSONHandler(os.Stdout, nil))
	}

	server, err := NewServer(cfg, logger)
	if err != nil {
		return nil, "", err
	}

	port, err := server.Start(cfg.ServerPort)
	if err != nil {
		return nil, "", err
	}

	return server, port, nil
}
