package repository

import (
	"database/sql"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"

	"bankledger/internal/domain"
	"bankledger/internal/errors"
)

type accountRepository struct {
	q      Querier
	logger *slog.Logger
}

func (r *accountRepository) SaveAccount(account *domain.Account) error {
	query := `
		INSERT INTO accounts
		(account_number, customer_id, account_type, balance, branch, employer_name, employer_address, is_active, date_opened, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`

	_, err := r.q.Exec(
		query,
		account.Number,
		account.CustomerID,
		string(account.Type),
		account.Balance.String(),
		account.Branch,
		account.EmployerName,
		account.EmployerAddress,
		account.Active,
		account.DateOpened,
		account.UpdatedAt,
	)

	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23505" { // unique_violation
			r.logger.Warn("duplicate account", "account_number", account.Number)
			return errors.ErrDuplicateAccount
		}
		r.logger.Error("failed to save account", "account_number", account.Number, "error", err)
		return errors.NewAppError(errors.InternalError, "failed to save account").WithDetails(err.Error())
	}

	return nil
}

const accountColumns = `account_number, customer_id, account_type, balance, branch, employer_name, employer_address, is_active, date_opened, updated_at`

func (r *accountRepository) GetAccount(number string) (*domain.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE account_number = $1`

	account, err := r.scanAccount(r.q.QueryRow(query, number))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, errors.ErrAccountNotFound
		}
		r.logger.Error("failed to get account", "account_number", number, "error", err)
		return nil, errors.NewAppError(errors.InternalError, "failed to get account").WithDetails(err.Error())
	}
	return account, nil
}

func (r *accountRepository) GetAccountsByCustomer(customerID uuid.UUID) ([]*domain.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE customer_id = $1 ORDER BY opened_seq`

	rows, err := r.q.Query(query, customerID)
	if err != nil {
		r.logger.Error("failed to list accounts", "customer_id", customerID, "error", err)
		return nil, errors.NewAppError(errors.InternalError, "failed to list accounts").WithDetails(err.Error())
	}
	defer rows.Close()

	var accounts []*domain.Account
	for rows.Next() {
		account, err := r.scanAccount(rows)
		if err != nil {
			return nil, errors.NewAppError(errors.InternalError, "failed to scan account").WithDetails(err.Error())
		}
		accounts = append(accounts, account)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.NewAppError(errors.InternalError, "failed to list accounts").WithDetails(err.Error())
	}
	return accounts, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func (r *accountRepository) scanAccount(row rowScanner) (*domain.Account, error) {
	var account domain.Account
	var accountType string
	var balanceStr string

	err := row.Scan(
		&account.Number,
		&account.CustomerID,
		&accountType,
		&balanceStr,
		&account.Branch,
		&account.EmployerName,
		&account.EmployerAddress,
		&account.Active,
		&account.DateOpened,
		&account.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	account.Type = domain.AccountType(accountType)
	balance, err := decimal.NewFromString(balanceStr)
	if err != nil {
		return nil, err
	}
	account.Balance = balance
	return &account, nil
}

func (r *accountRepository) UpdateAccountBalance(number string, newBalance decimal.Decimal) error {
	query := `UPDATE accounts SET balance = $1, updated_at = $2 WHERE account_number = $3`

	result, err := r.q.Exec(query, newBalance.String(), time.Now(), number)
	if err != nil {
		r.logger.Error("failed to update balance", "account_number", number, "error", err)
		return errors.NewAppError(errors.InternalError, "failed to update balance").WithDetails(err.Error())
	}
	return r.requireRow(result, number)
}

func (r *accountRepository) SetAccountActive(number string, active bool) error {
	query := `UPDATE accounts SET is_active = $1, updated_at = $2 WHERE account_number = $3`

	result, err := r.q.Exec(query, active, time.Now(), number)
	if err != nil {
		r.logger.Error("failed to update account status", "account_number", number, "error", err)
		return errors.NewAppError(errors.InternalError, "failed to update account status").WithDetails(err.Error())
	}
	return r.requireRow(result, number)
}

func (r *accountRepository) MaxAccountNumberSuffix() (int64, error) {
	query := `SELECT COALESCE(MAX(NULLIF(regexp_replace(account_number, '\D', '', 'g'), '')::BIGINT), 0) FROM accounts`

	var suffix int64
	if err := r.q.QueryRow(query).Scan(&suffix); err != nil {
		r.logger.Error("failed to determine highest account number", "error", err)
		return 0, errors.NewAppError(errors.InternalError, "failed to determine highest account number").WithDetails(err.Error())
	}
	return suffix, nil
}

func (r *accountRepository) requireRow(result sql.Result, number string) error {
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return errors.NewAppError(errors.InternalError, "failed to get rows affected").WithDetails(err.Error())
	}
	if rowsAffected == 0 {
		r.logger.Warn("no account found to update", "account_number", number)
		return errors.ErrAccountNotFound
	}
	return nil
}
