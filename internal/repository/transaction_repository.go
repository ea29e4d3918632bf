package repository

import (
	"log/slog"

	"github.com/shopspring/decimal"

	"bankledger/internal/domain"
	"bankledger/internal/errors"
)

type transactionRepository struct {
	q      Querier
	logger *slog.Logger
}

func (r *transactionRepository) AppendTransaction(tx *domain.Transaction) error {
	query := `
		INSERT INTO transactions
		(id, account_number, transaction_type, amount, balance_after, description, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	_, err := r.q.Exec(
		query,
		tx.ID,
		tx.AccountNumber,
		string(tx.Type),
		tx.Amount.String(),
		tx.BalanceAfter.String(),
		tx.Description,
		tx.Timestamp,
	)

	if err != nil {
		r.logger.Error("failed to append transaction",
			"account_number", tx.AccountNumber,
			"type", tx.Type,
			"amount", tx.Amount,
			"error", err)
		return errors.NewAppError(errors.InternalError, "failed to append transaction").WithDetails(err.Error())
	}

	return nil
}

func (r *transactionRepository) GetTransactionsByAccount(number string) ([]*domain.Transaction, error) {
	query := `
		SELECT id, account_number, transaction_type, amount, balance_after, description, created_at
		FROM transactions WHERE account_number = $1 ORDER BY seq DESC
	`

	rows, err := r.q.Query(query, number)
	if err != nil {
		r.logger.Error("failed to load transactions", "account_number", number, "error", err)
		return nil, errors.NewAppError(errors.InternalError, "failed to load transactions").WithDetails(err.Error())
	}
	defer rows.Close()

	var transactions []*domain.Transaction
	for rows.Next() {
		var tx domain.Transaction
		var txType, amountStr, balanceStr string

		err := rows.Scan(
			&tx.ID,
			&tx.AccountNumber,
			&txType,
			&amountStr,
			&balanceStr,
			&tx.Description,
			&tx.Timestamp,
		)
		if err != nil {
			return nil, errors.NewAppError(errors.InternalError, "failed to scan transaction").WithDetails(err.Error())
		}

		tx.Type = domain.TransactionType(txType)
		if tx.Amount, err = decimal.NewFromString(amountStr); err != nil {
			return nil, errors.NewAppError(errors.InternalError, "failed to parse amount").WithDetails(err.Error())
		}
		if tx.BalanceAfter, err = decimal.NewFromString(balanceStr); err != nil {
			return nil, errors.NewAppError(errors.InternalError, "failed to parse balance").WithDetails(err.Error())
		}
		transactions = append(transactions, &tx)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.NewAppError(errors.InternalError, "failed to load transactions").WithDetails(err.Error())
	}
	return transactions, nil
}
