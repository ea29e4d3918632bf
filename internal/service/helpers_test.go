package service

import (
	"io"
	"log/slog"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"bankledger/internal/domain"
	"bankledger/internal/repository/memory"
)

type fixture struct {
	store     *memory.Store
	customers *CustomerService
	accounts  *AccountService
	ledger    *LedgerService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := memory.NewStore()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	locks := NewAccountLocks()
	return &fixture{
		store:     store,
		customers: NewCustomerService(store, logger),
		accounts:  NewAccountService(store, locks, logger),
		ledger:    NewLedgerService(store, locks, logger),
	}
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func (f *fixture) registerCustomer(t *testing.T, employed bool) *domain.Customer {
	t.Helper()
	customer, err := f.customers.Register(RegisterCustomerParams{
		FirstName: "Kagiso",
		Surname:   "Moyo",
		Address:   "12 River Rd, Francistown",
		Phone:     "72000001",
		Email:     "kagiso@example.com",
		Employed:  employed,
	})
	require.NoError(t, err)
	return customer
}

func (f *fixture) openAccount(t *testing.T, customer *domain.Customer, params OpenAccountParams) *domain.Account {
	t.Helper()
	params.CustomerID = customer.ID
	if params.Branch == "" {
		params.Branch = "Main Branch"
	}
	account, err := f.accounts.Open(params)
	require.NoError(t, err)
	return account
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}
