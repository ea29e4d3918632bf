package service

import (
	"log/slog"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"bankledger/internal/domain"
	"bankledger/internal/errors"
)

// startingAccountNumber matches the legacy numbering: the first account
// issued is <prefix>1001.
const startingAccountNumber = 1000

type AccountService struct {
	store   domain.Store
	locks   *AccountLocks
	numbers *numberAllocator
	logger  *slog.Logger
}

// transactionalStore is implemented by stores that can group writes into a
// single atomic unit.
type transactionalStore interface {
	WithTransaction(fn func(domain.Store) error) error
}

// NewAccountService seeds the number allocator from the highest number
// already persisted, so a restarted process resumes the sequence instead of
// reissuing numbers.
func NewAccountService(store domain.Store, locks *AccountLocks, logger *slog.Logger) *AccountService {
	start := int64(startingAccountNumber)
	if suffix, err := store.Accounts().MaxAccountNumberSuffix(); err != nil {
		logger.Warn("could not read highest issued account number, starting from the default", "error", err)
	} else if suffix > start {
		start = suffix
	}

	return &AccountService{
		store:   store,
		locks:   locks,
		numbers: newNumberAllocator(start),
		logger:  logger,
	}
}

type OpenAccountParams struct {
	CustomerID      uuid.UUID
	Type            domain.AccountType
	Branch          string
	InitialDeposit  decimal.Decimal
	EmployerName    string
	EmployerAddress string
}

// Open validates the variant's opening preconditions, allocates the next
// account number, and persists the account. Either the account is fully
// created (with its opening-deposit record where the variant has one) or
// nothing is.
func (s *AccountService) Open(params OpenAccountParams) (*domain.Account, error) {
	customer, err := s.store.Customers().GetCustomer(params.CustomerID)
	if err != nil {
		return nil, err
	}

	if !domain.ValidAccountType(params.Type) {
		return nil, errors.NewAppErrorf(errors.InvalidInput, "unknown account type %q", params.Type)
	}

	account, opening, err := domain.OpenAccount(s.numbers.Next(params.Type), customer, domain.OpenAccountSpec{
		Type:            params.Type,
		Branch:          params.Branch,
		InitialDeposit:  params.InitialDeposit,
		EmployerName:    params.EmployerName,
		EmployerAddress: params.EmployerAddress,
	})
	if err != nil {
		return nil, err
	}

	if err := s.persistOpening(account, opening); err != nil {
		return nil, err
	}

	s.logger.Info("account opened",
		"account_number", account.Number,
		"account_type", account.Type,
		"customer_id", customer.ID,
		"balance", account.Balance)
	return account, nil
}

// persistOpening commits the new account and its opening-deposit record.
// On a transactional store both land atomically; otherwise they are written
// sequentially and an append failure after the account committed is
// reported as a partial write.
func (s *AccountService) persistOpening(account *domain.Account, opening *domain.Transaction) error {
	if txStore, ok := s.store.(transactionalStore); ok {
		return txStore.WithTransaction(func(store domain.Store) error {
			if err := store.Accounts().SaveAccount(account); err != nil {
				return err
			}
			if opening != nil {
				return store.Transactions().AppendTransaction(opening)
			}
			return nil
		})
	}

	if err := s.store.Accounts().SaveAccount(account); err != nil {
		return err
	}
	if opening != nil {
		if err := s.store.Transactions().AppendTransaction(opening); err != nil {
			s.logger.Error("opening deposit was not recorded", "account_number", account.Number, "error", err)
			return errors.NewAppError(errors.PartialPersistence,
				"account saved but opening deposit was not recorded").WithDetails(err.Error())
		}
	}
	return nil
}

func (s *AccountService) Get(number string) (*domain.Account, error) {
	return s.store.Accounts().GetAccount(number)
}

// Deactivate closes the account for further operations. Accounts are never
// deleted and their numbers are never reissued. Holding the account lock
// keeps the deactivation from landing in the middle of an in-flight
// mutation.
func (s *AccountService) Deactivate(number string) error {
	unlock := s.locks.lock(number)
	defer unlock()

	if err := s.store.Accounts().SetAccountActive(number, false); err != nil {
		return err
	}
	s.logger.Info("account deactivated", "account_number", number)
	return nil
}

// Transactions returns the account's audit trail, newest-first by default
// or oldest-first when requested.
func (s *AccountService) Transactions(number string, oldestFirst bool) ([]*domain.Transaction, error) {
	if _, err := s.store.Accounts().GetAccount(number); err != nil {
		return nil, err
	}

	transactions, err := s.store.Transactions().GetTransactionsByAccount(number)
	if err != nil {
		return nil, err
	}
	if oldestFirst {
		for i, j := 0, len(transactions)-1; i < j; i, j = i+1, j-1 {
			transactions[i], transactions[j] = transactions[j], transactions[i]
		}
	}
	return transactions, nil
}
