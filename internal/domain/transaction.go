package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type TransactionType string

const (
	TxDeposit          TransactionType = "DEPOSIT"
	TxWithdrawal       TransactionType = "WITHDRAWAL"
	TxWithdrawalFailed TransactionType = "WITHDRAWAL_FAILED"
	TxInterest         TransactionType = "INTEREST"
	TxTransferIn       TransactionType = "TRANSFER_IN"
	TxTransferOut      TransactionType = "TRANSFER_OUT"
	TxOpeningDeposit   TransactionType = "OPENING_DEPOSIT"
	TxSalary           TransactionType = "SALARY"
)

// Transaction is one entry in an account's audit trail. Entries are written
// once per balance-affecting attempt, including rejected attempts, and are
// never edited or removed.
type Transaction struct {
	ID            uuid.UUID       `json:"id"`
	AccountNumber string          `json:"account_number"`
	Type          TransactionType `json:"type"`
	Amount        decimal.Decimal `json:"amount"`
	BalanceAfter  decimal.Decimal `json:"balance_after"`
	Description   string          `json:"description"`
	Timestamp     time.Time       `json:"timestamp"`
}

// Delta is the signed balance change this entry represents. Rejected
// attempts carry a zero delta: they are audit records, not balance changes.
func (t *Transaction) Delta() decimal.Decimal {
	switch t.Type {
	case TxWithdrawal, TxTransferOut:
		return t.Amount.Neg()
	case TxWithdrawalFailed:
		return decimal.Zero
	default:
		return t.Amount
	}
}

func newTransaction(accountNumber string, txType TransactionType, amount, balanceAfter decimal.Decimal, description string) *Transaction {
	return &Transaction{
		ID:            uuid.New(),
		AccountNumber: accountNumber,
		Type:          txType,
		Amount:        amount,
		BalanceAfter:  balanceAfter,
		Description:   description,
		Timestamp:     time.Now(),
	}
}
