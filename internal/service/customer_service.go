package service

import (
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"bankledger/internal/domain"
	"bankledger/internal/errors"
)

type CustomerService struct {
	store  domain.Store
	logger *slog.Logger
}

func NewCustomerService(store domain.Store, logger *slog.Logger) *CustomerService {
	return &CustomerService{
		store:  store,
		logger: logger,
	}
}

type RegisterCustomerParams struct {
	FirstName string
	Surname   string
	Address   string
	Phone     string
	Email     string
	Employed  bool
}

func (s *CustomerService) Register(params RegisterCustomerParams) (*domain.Customer, error) {
	if strings.TrimSpace(params.FirstName) == "" || strings.TrimSpace(params.Surname) == "" {
		return nil, errors.NewAppError(errors.InvalidInput, "first name and surname are required")
	}

	customer := newCustomer(params)
	if err := s.store.Customers().SaveCustomer(customer); err != nil {
		return nil, err
	}

	s.logger.Info("customer registered", "customer_id", customer.ID, "name", customer.FullName())
	return customer, nil
}

func (s *CustomerService) Get(id uuid.UUID) (*domain.Customer, error) {
	return s.store.Customers().GetCustomer(id)
}

func (s *CustomerService) ListAll() ([]*domain.Customer, error) {
	return s.store.Customers().GetAllCustomers()
}

// FindByPhone scans all customers for a matching phone number. Linear on
// purpose: the reference scale does not warrant an index.
func (s *CustomerService) FindByPhone(phone string) (*domain.Customer, error) {
	customers, err := s.store.Customers().GetAllCustomers()
	if err != nil {
		return nil, err
	}
	for _, customer := range customers {
		if customer.Phone == phone {
			return customer, nil
		}
	}
	return nil, errors.ErrCustomerNotFound
}

func (s *CustomerService) UpdateProfile(id uuid.UUID, update domain.ProfileUpdate) (*domain.Customer, error) {
	customer, err := s.store.Customers().GetCustomer(id)
	if err != nil {
		return nil, err
	}

	customer.ApplyProfile(update)
	if err := s.store.Customers().UpdateCustomer(customer); err != nil {
		return nil, err
	}

	s.logger.Info("customer profile updated", "customer_id", id)
	return customer, nil
}

// Accounts returns the customer's accounts in opening order, optionally
// filtered by variant. The slice and its elements are copies.
func (s *CustomerService) Accounts(id uuid.UUID, typeFilter domain.AccountType) ([]*domain.Account, error) {
	if _, err := s.store.Customers().GetCustomer(id); err != nil {
		return nil, err
	}

	accounts, err := s.store.Accounts().GetAccountsByCustomer(id)
	if err != nil {
		return nil, err
	}
	if typeFilter == "" {
		return accounts, nil
	}

	filtered := make([]*domain.Account, 0, len(accounts))
	for _, account := range accounts {
		if account.Type == typeFilter {
			filtered = append(filtered, account)
		}
	}
	return filtered, nil
}

// TotalBalance sums the customer's current account balances. Recomputed on
// every call rather than cached, so it cannot go stale after a mutation.
func (s *CustomerService) TotalBalance(id uuid.UUID) (decimal.Decimal, error) {
	accounts, err := s.Accounts(id, "")
	if err != nil {
		return decimal.Zero, err
	}

	total := decimal.Zero
	for _, account := range accounts {
		total = total.Add(account.Balance)
	}
	return total, nil
}

func newCustomer(params RegisterCustomerParams) *domain.Customer {
	now := time.Now()
	return &domain.Customer{
		ID:        uuid.New(),
		FirstName: params.FirstName,
		Surname:   params.Surname,
		Address:   params.Address,
		Phone:     params.Phone,
		Email:     params.Email,
		Employed:  params.Employed,
		CreatedAt: now,
		UpdatedAt: now,
	}
}
