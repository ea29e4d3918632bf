package repository

import (
	"database/sql"
	"log/slog"

	"bankledger/internal/domain"
	"bankledger/internal/errors"
)

// Querier is the subset of database/sql shared by *sql.DB and *sql.Tx, so
// the repositories run unchanged inside or outside a transaction.
type Querier interface {
	Exec(query string, args ...any) (sql.Result, error)
	Query(query string, args ...any) (*sql.Rows, error)
	QueryRow(query string, args ...any) *sql.Row
}

var (
	_ Querier = (*sql.DB)(nil)
	_ Querier = (*sql.Tx)(nil)
)

// Store is the Postgres-backed unit of work.
type Store struct {
	db      *sql.DB // nil inside a transaction
	querier Querier
	logger  *slog.Logger
}

func NewStore(db *sql.DB, logger *slog.Logger) *Store {
	return &Store{
		db:      db,
		querier: db,
		logger:  logger,
	}
}

var _ domain.Store = (*Store)(nil)

func (s *Store) Accounts() domain.AccountRepository {
	return &accountRepository{q: s.querier, logger: s.logger}
}

func (s *Store) Customers() domain.CustomerRepository {
	return &customerRepository{q: s.querier, logger: s.logger}
}

func (s *Store) Transactions() domain.TransactionRepository {
	return &transactionRepository{q: s.querier, logger: s.logger}
}

// WithTransaction runs fn against a store bound to a single database
// transaction, committing on nil and rolling back on error or panic.
func (s *Store) WithTransaction(fn func(domain.Store) error) error {
	if s.db == nil {
		return errors.NewAppError(errors.InternalError, "nested transactions are not supported")
	}

	tx, err := s.db.Begin()
	if err != nil {
		return errors.NewAppError(errors.InternalError, "failed to begin transaction").WithDetails(err.Error())
	}

	txStore := &Store{querier: tx, logger: s.logger}

	defer func() {
		if p := recover(); p != nil {
			tx.Rollback()
			panic(p)
		}
	}()

	if err := fn(txStore); err != nil {
		tx.Rollback()
		return err
	}

	return tx.Commit()
}
