package domain

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// The repository contracts are storage-agnostic: the ledger's correctness
// does not depend on whether records live in Postgres or in memory. Every
// call is fallible and implementations return the taxonomy errors from
// internal/errors (not-found, duplicates) so callers can distinguish them.

type AccountRepository interface {
	SaveAccount(account *Account) error
	GetAccount(number string) (*Account, error)
	// GetAccountsByCustomer returns the customer's accounts in
	// account-opening order.
	GetAccountsByCustomer(customerID uuid.UUID) ([]*Account, error)
	UpdateAccountBalance(number string, newBalance decimal.Decimal) error
	SetAccountActive(number string, active bool) error
	// MaxAccountNumberSuffix returns the highest numeric suffix among all
	// issued account numbers, or zero when none exist. Seeds the number
	// allocator across process restarts.
	MaxAccountNumberSuffix() (int64, error)
}

type CustomerRepository interface {
	SaveCustomer(customer *Customer) error
	GetCustomer(id uuid.UUID) (*Customer, error)
	GetAllCustomers() ([]*Customer, error)
	UpdateCustomer(customer *Customer) error
}

type TransactionRepository interface {
	AppendTransaction(tx *Transaction) error
	// GetTransactionsByAccount returns the account's log newest-first.
	GetTransactionsByAccount(number string) ([]*Transaction, error)
}

// Store aggregates the repositories behind one handle so the services run
// unchanged against either persistence adapter.
type Store interface {
	Accounts() AccountRepository
	Customers() CustomerRepository
	Transactions() TransactionRepository
}
