package handler

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/shopspring/decimal"

	"bankledger/internal/errors"
	"bankledger/internal/service"
)

type LedgerHandler struct {
	ledgerService *service.LedgerService
}

func NewLedgerHandler(ledgerService *service.LedgerService) *LedgerHandler {
	return &LedgerHandler{
		ledgerService: ledgerService,
	}
}

type MovementRequest struct {
	Amount      string `json:"amount"`
	Description string `json:"description,omitempty"`
}

type BalanceResponse struct {
	AccountNumber string `json:"account_number"`
	Balance       string `json:"balance"`
}

func (h *LedgerHandler) Deposit(w http.ResponseWriter, r *http.Request) {
	h.applyMovement(w, r, h.ledgerService.Deposit)
}

func (h *LedgerHandler) Withdraw(w http.ResponseWriter, r *http.Request) {
	h.applyMovement(w, r, h.ledgerService.Withdraw)
}

func (h *LedgerHandler) applyMovement(w http.ResponseWriter, r *http.Request,
	apply func(string, decimal.Decimal, string) (decimal.Decimal, error)) {

	number := mux.Vars(r)["account_number"]

	var req MovementRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, errors.NewAppError(errors.InvalidInput, "invalid request body").WithDetails(err.Error()))
		return
	}

	amount, err := decimal.NewFromString(req.Amount)
	if err != nil {
		writeError(w, errors.NewAppError(errors.InvalidAmount, "invalid amount format").WithDetails(err.Error()))
		return
	}

	balance, err := apply(number, amount, req.Description)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, BalanceResponse{
		AccountNumber: number,
		Balance:       balance.String(),
	})
}

type SalaryDepositRequest struct {
	Amount    string `json:"amount"`
	Reference string `json:"reference"`
}

func (h *LedgerHandler) DepositSalary(w http.ResponseWriter, r *http.Request) {
	number := mux.Vars(r)["account_number"]

	var req SalaryDepositRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, errors.NewAppError(errors.InvalidInput, "invalid request body").WithDetails(err.Error()))
		return
	}

	amount, err := decimal.NewFromString(req.Amount)
	if err != nil {
		writeError(w, errors.NewAppError(errors.InvalidAmount, "invalid amount format").WithDetails(err.Error()))
		return
	}

	balance, err := h.ledgerService.DepositSalary(number, amount, req.Reference)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, BalanceResponse{
		AccountNumber: number,
		Balance:       balance.String(),
	})
}

type TransferRequest struct {
	SourceAccountNumber      string `json:"source_account_number"`
	DestinationAccountNumber string `json:"destination_account_number"`
	Amount                   string `json:"amount"`
}

type TransferResponse struct {
	SourceAccountNumber      string `json:"source_account_number"`
	DestinationAccountNumber string `json:"destination_account_number"`
	SourceBalance            string `json:"source_balance"`
	DestinationBalance       string `json:"destination_balance"`
}

func (h *LedgerHandler) Transfer(w http.ResponseWriter, r *http.Request) {
	var req TransferRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, errors.NewAppError(errors.InvalidInput, "invalid request body").WithDetails(err.Error()))
		return
	}

	amount, err := decimal.NewFromString(req.Amount)
	if err != nil {
		writeError(w, errors.NewAppError(errors.InvalidAmount, "invalid amount format").WithDetails(err.Error()))
		return
	}

	result, err := h.ledgerService.Transfer(req.SourceAccountNumber, req.DestinationAccountNumber, amount)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, TransferResponse{
		SourceAccountNumber:      req.SourceAccountNumber,
		DestinationAccountNumber: req.DestinationAccountNumber,
		SourceBalance:            result.SourceBalance.String(),
		DestinationBalance:       result.DestinationBalance.String(),
	})
}

type InterestRunResponse struct {
	AccountsProcessed int                          `json:"accounts_processed"`
	AccountsSkipped   int                          `json:"accounts_skipped"`
	TotalInterest     string                       `json:"total_interest"`
	Failures          []service.InterestRunFailure `json:"failures,omitempty"`
}

func (h *LedgerHandler) RunMonthlyInterest(w http.ResponseWriter, r *http.Request) {
	report, err := h.ledgerService.PayMonthlyInterestToAll()
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, InterestRunResponse{
		AccountsProcessed: report.AccountsProcessed,
		AccountsSkipped:   report.AccountsSkipped,
		TotalInterest:     report.TotalInterest.String(),
		Failures:          report.Failures,
	})
}
