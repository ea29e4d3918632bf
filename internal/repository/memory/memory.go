// Package memory is the reference in-process persistence adapter. It keeps
// per-customer account lists in opening order and per-account logs in
// append order, and hands out copies so callers cannot mutate stored state
// behind the store's back.
package memory

import (
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"bankledger/internal/domain"
	"bankledger/internal/errors"
)

type Store struct {
	mu sync.RWMutex

	customers     map[uuid.UUID]*domain.Customer
	customerOrder []uuid.UUID

	accounts           map[string]*domain.Account
	accountsByCustomer map[uuid.UUID][]string

	logs map[string][]*domain.Transaction
}

func NewStore() *Store {
	return &Store{
		customers:          make(map[uuid.UUID]*domain.Customer),
		accounts:           make(map[string]*domain.Account),
		accountsByCustomer: make(map[uuid.UUID][]string),
		logs:               make(map[string][]*domain.Transaction),
	}
}

var _ domain.Store = (*Store)(nil)

func (s *Store) Accounts() domain.AccountRepository         { return s }
func (s *Store) Customers() domain.CustomerRepository       { return s }
func (s *Store) Transactions() domain.TransactionRepository { return s }

// --- customers ---

func (s *Store) SaveCustomer(customer *domain.Customer) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.customers[customer.ID]; exists {
		return errors.ErrDuplicateCustomer
	}
	clone := *customer
	s.customers[customer.ID] = &clone
	s.customerOrder = append(s.customerOrder, customer.ID)
	return nil
}

func (s *Store) GetCustomer(id uuid.UUID) (*domain.Customer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	customer, ok := s.customers[id]
	if !ok {
		return nil, errors.ErrCustomerNotFound
	}
	clone := *customer
	return &clone, nil
}

func (s *Store) GetAllCustomers() ([]*domain.Customer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	customers := make([]*domain.Customer, 0, len(s.customerOrder))
	for _, id := range s.customerOrder {
		clone := *s.customers[id]
		customers = append(customers, &clone)
	}
	return customers, nil
}

func (s *Store) UpdateCustomer(customer *domain.Customer) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.customers[customer.ID]; !ok {
		return errors.ErrCustomerNotFound
	}
	clone := *customer
	s.customers[customer.ID] = &clone
	return nil
}

// --- accounts ---

func (s *Store) SaveAccount(account *domain.Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.accounts[account.Number]; exists {
		return errors.ErrDuplicateAccount
	}
	clone := *account
	s.accounts[account.Number] = &clone
	s.accountsByCustomer[account.CustomerID] = append(s.accountsByCustomer[account.CustomerID], account.Number)
	return nil
}

func (s *Store) GetAccount(number string) (*domain.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	account, ok := s.accounts[number]
	if !ok {
		return nil, errors.ErrAccountNotFound
	}
	clone := *account
	return &clone, nil
}

func (s *Store) GetAccountsByCustomer(customerID uuid.UUID) ([]*domain.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	numbers := s.accountsByCustomer[customerID]
	accounts := make([]*domain.Account, 0, len(numbers))
	for _, number := range numbers {
		clone := *s.accounts[number]
		accounts = append(accounts, &clone)
	}
	return accounts, nil
}

func (s *Store) UpdateAccountBalance(number string, newBalance decimal.Decimal) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	account, ok := s.accounts[number]
	if !ok {
		return errors.ErrAccountNotFound
	}
	account.Balance = newBalance
	account.UpdatedAt = time.Now()
	return nil
}

func (s *Store) SetAccountActive(number string, active bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	account, ok := s.accounts[number]
	if !ok {
		return errors.ErrAccountNotFound
	}
	account.Active = active
	account.UpdatedAt = time.Now()
	return nil
}

func (s *Store) MaxAccountNumberSuffix() (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var highest int64
	for number := range s.accounts {
		digits := strings.TrimLeftFunc(number, func(r rune) bool { return r < '0' || r > '9' })
		suffix, err := strconv.ParseInt(digits, 10, 64)
		if err != nil {
			continue
		}
		if suffix > highest {
			highest = suffix
		}
	}
	return highest, nil
}

// --- transactions ---

func (s *Store) AppendTransaction(tx *domain.Transaction) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	clone := *tx
	s.logs[tx.AccountNumber] = append(s.logs[tx.AccountNumber], &clone)
	return nil
}

func (s *Store) GetTransactionsByAccount(number string) ([]*domain.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	log := s.logs[number]
	// stored oldest-first; the contract returns newest-first
	transactions := make([]*domain.Transaction, 0, len(log))
	for i := len(log) - 1; i >= 0; i-- {
		clone := *log[i]
		transactions = append(transactions, &clone)
	}
	return transactions, nil
}
