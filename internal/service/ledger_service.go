package service

import (
	"log/slog"

	"github.com/shopspring/decimal"

	"bankledger/internal/domain"
	"bankledger/internal/errors"
)

// LedgerService owns the money-movement operations. One logical writer per
// account number: every mutation holds the account's lock, and transfers
// hold both locks in ascending account-number order. The registry is shared
// with the account service so deactivation serializes with mutations.
type LedgerService struct {
	store  domain.Store
	locks  *AccountLocks
	logger *slog.Logger
}

func NewLedgerService(store domain.Store, locks *AccountLocks, logger *slog.Logger) *LedgerService {
	return &LedgerService{
		store:  store,
		locks:  locks,
		logger: logger,
	}
}

func (s *LedgerService) Deposit(number string, amount decimal.Decimal, description string) (decimal.Decimal, error) {
	unlock := s.locks.lock(number)
	defer unlock()

	account, err := s.store.Accounts().GetAccount(number)
	if err != nil {
		return decimal.Zero, err
	}

	tx, err := account.Deposit(amount, description)
	if err != nil {
		return decimal.Zero, err
	}
	if err := s.persistMutation(account, tx); err != nil {
		return decimal.Zero, err
	}

	s.logger.Info("deposit applied", "account_number", number, "amount", amount, "balance", account.Balance)
	return account.Balance, nil
}

// DepositSalary credits a salary payment on a cheque account, tagged with
// the employer and the caller's payroll reference.
func (s *LedgerService) DepositSalary(number string, amount decimal.Decimal, reference string) (decimal.Decimal, error) {
	unlock := s.locks.lock(number)
	defer unlock()

	account, err := s.store.Accounts().GetAccount(number)
	if err != nil {
		return decimal.Zero, err
	}

	tx, err := account.DepositSalary(amount, reference)
	if err != nil {
		return decimal.Zero, err
	}
	if err := s.persistMutation(account, tx); err != nil {
		return decimal.Zero, err
	}

	s.logger.Info("salary credited", "account_number", number, "amount", amount, "reference", reference)
	return account.Balance, nil
}

func (s *LedgerService) Withdraw(number string, amount decimal.Decimal, description string) (decimal.Decimal, error) {
	unlock := s.locks.lock(number)
	defer unlock()

	account, err := s.store.Accounts().GetAccount(number)
	if err != nil {
		return decimal.Zero, err
	}

	tx, err := account.Withdraw(amount, description)
	if err != nil {
		// A policy rejection still produced an audit record; the
		// upfront validation failures did not.
		if tx != nil {
			if appendErr := s.recordRejection(tx); appendErr != nil {
				return decimal.Zero, appendErr
			}
		}
		return decimal.Zero, err
	}
	if err := s.persistMutation(account, tx); err != nil {
		return decimal.Zero, err
	}

	s.logger.Info("withdrawal applied", "account_number", number, "amount", amount, "balance", account.Balance)
	return account.Balance, nil
}

type TransferResult struct {
	SourceBalance      decimal.Decimal `json:"source_balance"`
	DestinationBalance decimal.Decimal `json:"destination_balance"`
}

// Transfer moves amount between two accounts as two sequential legs:
// withdraw from the source, then deposit to the destination. The legs are
// not atomic; if the destination leg fails after the source leg committed,
// the source stays debited and the failure is reported as
// partial_persistence. The insufficient-funds pre-check keeps the common
// failure out of that window.
func (s *LedgerService) Transfer(fromNumber, toNumber string, amount decimal.Decimal) (*TransferResult, error) {
	if !domain.ValidAmount(amount) {
		return nil, errors.ErrInvalidAmount
	}
	if fromNumber == toNumber {
		return nil, errors.ErrSameAccountTransfer
	}

	unlock := s.locks.lockPair(fromNumber, toNumber)
	defer unlock()

	source, err := s.store.Accounts().GetAccount(fromNumber)
	if err != nil {
		return nil, err
	}
	destination, err := s.store.Accounts().GetAccount(toNumber)
	if err != nil {
		return nil, err
	}

	if source.Balance.LessThan(amount) {
		return nil, errors.ErrInsufficientFunds
	}

	outTx, err := source.TransferOut(amount, toNumber)
	if err != nil {
		if outTx != nil {
			if appendErr := s.recordRejection(outTx); appendErr != nil {
				return nil, appendErr
			}
		}
		return nil, err
	}
	if err := s.persistMutation(source, outTx); err != nil {
		return nil, err
	}

	inTx, err := destination.TransferIn(amount, fromNumber)
	if err != nil {
		// The source leg has already committed: the amount is stranded.
		s.logger.Error("transfer destination leg rejected after source debit",
			"from", fromNumber, "to", toNumber, "amount", amount, "error", err)
		return nil, err
	}
	if err := s.persistMutation(destination, inTx); err != nil {
		s.logger.Error("transfer destination leg failed after source debit",
			"from", fromNumber, "to", toNumber, "amount", amount, "error", err)
		return nil, errors.NewAppError(errors.PartialPersistence,
			"source debited but destination credit failed").WithDetails(err.Error())
	}

	s.logger.Info("transfer completed",
		"from", fromNumber, "to", toNumber, "amount", amount,
		"source_balance", source.Balance, "destination_balance", destination.Balance)
	return &TransferResult{
		SourceBalance:      source.Balance,
		DestinationBalance: destination.Balance,
	}, nil
}

type InterestRunFailure struct {
	AccountNumber string `json:"account_number"`
	Error         string `json:"error"`
}

type InterestRunReport struct {
	AccountsProcessed int                  `json:"accounts_processed"`
	AccountsSkipped   int                  `json:"accounts_skipped"`
	TotalInterest     decimal.Decimal      `json:"total_interest"`
	Failures          []InterestRunFailure `json:"failures,omitempty"`
}

// PayMonthlyInterestToAll credits one month of interest to every account in
// the ledger. Best-effort: per-account failures are collected in the report
// and do not abort the run. Accounts whose variant earns nothing are
// skipped without a log entry.
func (s *LedgerService) PayMonthlyInterestToAll() (*InterestRunReport, error) {
	customers, err := s.store.Customers().GetAllCustomers()
	if err != nil {
		return nil, err
	}

	report := &InterestRunReport{TotalInterest: decimal.Zero}
	for _, customer := range customers {
		accounts, err := s.store.Accounts().GetAccountsByCustomer(customer.ID)
		if err != nil {
			s.logger.Error("interest run: failed to list accounts", "customer_id", customer.ID, "error", err)
			report.Failures = append(report.Failures, InterestRunFailure{Error: err.Error()})
			continue
		}
		for _, account := range accounts {
			if err := s.applyInterest(account.Number, report); err != nil {
				report.Failures = append(report.Failures, InterestRunFailure{
					AccountNumber: account.Number,
					Error:         err.Error(),
				})
			}
		}
	}

	s.logger.Info("interest run completed",
		"processed", report.AccountsProcessed,
		"skipped", report.AccountsSkipped,
		"total_interest", report.TotalInterest,
		"failures", len(report.Failures))
	return report, nil
}

func (s *LedgerService) applyInterest(number string, report *InterestRunReport) error {
	unlock := s.locks.lock(number)
	defer unlock()

	// Re-read under the lock so the computation sees the current balance.
	account, err := s.store.Accounts().GetAccount(number)
	if err != nil {
		return err
	}

	tx, err := account.ApplyInterest()
	if err != nil {
		return err
	}
	if tx == nil {
		report.AccountsSkipped++
		return nil
	}
	if err := s.persistMutation(account, tx); err != nil {
		return err
	}

	report.AccountsProcessed++
	report.TotalInterest = report.TotalInterest.Add(tx.Amount)
	return nil
}

// persistMutation commits a balance change together with its log entry. An
// append that fails after the balance update committed is a partial write
// and is reported as such rather than swallowed.
func (s *LedgerService) persistMutation(account *domain.Account, tx *domain.Transaction) error {
	if err := s.store.Accounts().UpdateAccountBalance(account.Number, account.Balance); err != nil {
		return err
	}
	if err := s.store.Transactions().AppendTransaction(tx); err != nil {
		s.logger.Error("transaction log append failed after balance update",
			"account_number", account.Number, "type", tx.Type, "error", err)
		return errors.NewAppError(errors.PartialPersistence,
			"balance updated but transaction was not recorded").WithDetails(err.Error())
	}
	return nil
}

// recordRejection persists the WITHDRAWAL_FAILED audit entry for a
// policy-rejected attempt. The audit trail is contractual, so a failure to
// record it is surfaced instead of the policy error.
func (s *LedgerService) recordRejection(tx *domain.Transaction) error {
	if err := s.store.Transactions().AppendTransaction(tx); err != nil {
		s.logger.Error("failed to record rejected attempt",
			"account_number", tx.AccountNumber, "error", err)
		return errors.NewAppError(errors.InternalError, "failed to record rejected attempt").WithDetails(err.Error())
	}
	return nil
}
