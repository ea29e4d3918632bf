package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"bankledger/internal/errors"
)

type AccountType string

const (
	TypeSavings    AccountType = "SAVINGS"
	TypeInvestment AccountType = "INVESTMENT"
	TypeCheque     AccountType = "CHEQUE"
)

// MinimumInvestmentDeposit is the smallest opening deposit an investment
// account accepts.
var MinimumInvestmentDeposit = decimal.NewFromInt(500)

// accountPolicy holds the behavior that differs between account variants.
// All variants share the standard deposit and withdrawal mechanics; the
// table carries only the parts that diverge.
type accountPolicy struct {
	displayName        string
	numberPrefix       string
	monthlyRate        decimal.Decimal
	withdrawalsAllowed bool
}

var policies = map[AccountType]accountPolicy{
	TypeSavings: {
		displayName:        "Savings Account",
		numberPrefix:       "SAV",
		monthlyRate:        decimal.NewFromFloat(0.0005), // 0.05% monthly
		withdrawalsAllowed: false,
	},
	TypeInvestment: {
		displayName:        "Investment Account",
		numberPrefix:       "INV",
		monthlyRate:        decimal.NewFromFloat(0.05), // 5% monthly
		withdrawalsAllowed: true,
	},
	TypeCheque: {
		displayName:        "Cheque Account",
		numberPrefix:       "CHQ",
		monthlyRate:        decimal.Zero,
		withdrawalsAllowed: true,
	},
}

// ValidAccountType reports whether t is one of the three open-able variants.
func ValidAccountType(t AccountType) bool {
	_, ok := policies[t]
	return ok
}

// NumberPrefix returns the account-number prefix for the variant.
func NumberPrefix(t AccountType) string {
	return policies[t].numberPrefix
}

// Account is the polymorphic ledger entity. The variant in Type selects the
// withdrawal and interest policy; everything else behaves identically across
// variants. Accounts are never deleted, only deactivated.
type Account struct {
	Number          string          `json:"account_number"`
	Type            AccountType     `json:"account_type"`
	CustomerID      uuid.UUID       `json:"customer_id"`
	Branch          string          `json:"branch"`
	Balance         decimal.Decimal `json:"balance"`
	EmployerName    string          `json:"employer_name,omitempty"`
	EmployerAddress string          `json:"employer_address,omitempty"`
	Active          bool            `json:"active"`
	DateOpened      time.Time       `json:"date_opened"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

// OpenAccountSpec carries the variant-specific opening parameters.
type OpenAccountSpec struct {
	Type            AccountType
	Branch          string
	InitialDeposit  decimal.Decimal
	EmployerName    string
	EmployerAddress string
}

// OpenAccount validates the variant's opening preconditions and constructs
// the account. The returned transaction, when non-nil, is the opening
// deposit record and must be persisted alongside the account. On error
// nothing is created.
func OpenAccount(number string, customer *Customer, spec OpenAccountSpec) (*Account, *Transaction, error) {
	if !ValidAccountType(spec.Type) {
		return nil, nil, errors.NewAppErrorf(errors.InvalidInput, "unknown account type %q", spec.Type)
	}

	now := time.Now()
	account := &Account{
		Number:     number,
		Type:       spec.Type,
		CustomerID: customer.ID,
		Branch:     spec.Branch,
		Balance:    decimal.Zero,
		Active:     true,
		DateOpened: now,
		UpdatedAt:  now,
	}

	var opening *Transaction
	switch spec.Type {
	case TypeInvestment:
		if spec.InitialDeposit.LessThan(MinimumInvestmentDeposit) {
			return nil, nil, errors.NewAppErrorf(errors.PreconditionViolation,
				"investment account requires a minimum opening deposit of %s", MinimumInvestmentDeposit)
		}
		account.Balance = spec.InitialDeposit
		opening = newTransaction(number, TxOpeningDeposit, spec.InitialDeposit, account.Balance, "Account opening")
	case TypeCheque:
		if !customer.Employed {
			return nil, nil, errors.NewAppError(errors.PreconditionViolation,
				"cheque account can only be opened for employed customers")
		}
		if strings.TrimSpace(spec.EmployerName) == "" {
			return nil, nil, errors.NewAppError(errors.PreconditionViolation,
				"employer name is required for a cheque account")
		}
		if strings.TrimSpace(spec.EmployerAddress) == "" {
			return nil, nil, errors.NewAppError(errors.PreconditionViolation,
				"employer address is required for a cheque account")
		}
		account.EmployerName = spec.EmployerName
		account.EmployerAddress = spec.EmployerAddress
	}

	return account, opening, nil
}

func (a *Account) policy() accountPolicy {
	return policies[a.Type]
}

// Describe returns the variant's display name.
func (a *Account) Describe() string {
	return a.policy().displayName
}

// InterestRate returns the variant's fixed monthly rate.
func (a *Account) InterestRate() decimal.Decimal {
	return a.policy().monthlyRate
}

// canMutate is the shared upfront guard: invalid amounts and inactive
// accounts fail before any state change and produce no log entry.
func (a *Account) canMutate(amount decimal.Decimal) error {
	if !ValidAmount(amount) {
		return errors.ErrInvalidAmount
	}
	if !a.Active {
		return errors.ErrAccountInactive
	}
	return nil
}

func (a *Account) credit(txType TransactionType, amount decimal.Decimal, description string) *Transaction {
	a.Balance = a.Balance.Add(amount)
	a.UpdatedAt = time.Now()
	return newTransaction(a.Number, txType, amount, a.Balance, description)
}

// Deposit adds amount to the balance and returns the DEPOSIT record to
// persist. An empty description defaults to "Standard Deposit".
func (a *Account) Deposit(amount decimal.Decimal, description string) (*Transaction, error) {
	if err := a.canMutate(amount); err != nil {
		return nil, err
	}
	if description == "" {
		description = "Standard Deposit"
	}
	return a.credit(TxDeposit, amount, description), nil
}

// DepositSalary credits a salary payment on a cheque account. The entry is
// tagged SALARY and references the employer; it is otherwise an ordinary
// deposit.
func (a *Account) DepositSalary(amount decimal.Decimal, reference string) (*Transaction, error) {
	if a.Type != TypeCheque {
		return nil, errors.NewAppError(errors.InvalidInput, "salary deposits are only supported on cheque accounts")
	}
	if err := a.canMutate(amount); err != nil {
		return nil, err
	}
	description := fmt.Sprintf("Salary from %s - Ref: %s", a.EmployerName, reference)
	return a.credit(TxSalary, amount, description), nil
}

// debit applies the variant's withdrawal policy. A policy rejection returns
// both a WITHDRAWAL_FAILED record (the attempt is audited, balance
// unchanged) and the rejection error; callers must persist the record.
func (a *Account) debit(txType TransactionType, amount decimal.Decimal, description string) (*Transaction, error) {
	if err := a.canMutate(amount); err != nil {
		return nil, err
	}
	if !a.policy().withdrawalsAllowed {
		return newTransaction(a.Number, TxWithdrawalFailed, amount, a.Balance, "Withdrawals not permitted"),
			errors.ErrWithdrawalsNotPermitted
	}
	if amount.GreaterThan(a.Balance) {
		return newTransaction(a.Number, TxWithdrawalFailed, amount, a.Balance, "Insufficient funds"),
			errors.ErrInsufficientFunds
	}
	a.Balance = a.Balance.Sub(amount)
	a.UpdatedAt = time.Now()
	return newTransaction(a.Number, txType, amount, a.Balance, description), nil
}

// Withdraw subtracts amount from the balance and returns the WITHDRAWAL
// record to persist. An empty description defaults to "Standard Withdrawal".
func (a *Account) Withdraw(amount decimal.Decimal, description string) (*Transaction, error) {
	if description == "" {
		description = "Standard Withdrawal"
	}
	return a.debit(TxWithdrawal, amount, description)
}

// TransferOut is the source leg of a transfer. Same policy as Withdraw,
// logged as TRANSFER_OUT with the counterparty in the description.
func (a *Account) TransferOut(amount decimal.Decimal, toNumber string) (*Transaction, error) {
	return a.debit(TxTransferOut, amount, "Transfer to "+toNumber)
}

// TransferIn is the destination leg of a transfer.
func (a *Account) TransferIn(amount decimal.Decimal, fromNumber string) (*Transaction, error) {
	if err := a.canMutate(amount); err != nil {
		return nil, err
	}
	return a.credit(TxTransferIn, amount, "Transfer from "+fromNumber), nil
}

// MonthlyInterest computes one month of interest at the variant's rate
// without mutating anything.
func (a *Account) MonthlyInterest() decimal.Decimal {
	return a.Balance.Mul(a.policy().monthlyRate)
}

// ApplyInterest credits one month of interest. A zero result (cheque
// accounts, or a zero balance) is a no-op with no log entry, not an error.
func (a *Account) ApplyInterest() (*Transaction, error) {
	if !a.Active {
		return nil, errors.ErrAccountInactive
	}
	interest := a.MonthlyInterest()
	if !interest.IsPositive() {
		return nil, nil
	}
	return a.credit(TxInterest, interest, "Monthly interest payment"), nil
}
