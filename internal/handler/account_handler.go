package handler

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/shopspring/decimal"

	"bankledger/internal/domain"
	"bankledger/internal/errors"
	"bankledger/internal/service"
)

type AccountHandler struct {
	accountService *service.AccountService
}

func NewAccountHandler(accountService *service.AccountService) *AccountHandler {
	return &AccountHandler{
		accountService: accountService,
	}
}

type OpenAccountRequest struct {
	CustomerID      string `json:"customer_id"`
	AccountType     string `json:"account_type"`
	Branch          string `json:"branch"`
	InitialDeposit  string `json:"initial_deposit,omitempty"`
	EmployerName    string `json:"employer_name,omitempty"`
	EmployerAddress string `json:"employer_address,omitempty"`
}

type AccountResponse struct {
	AccountNumber string    `json:"account_number"`
	AccountType   string    `json:"account_type"`
	Description   string    `json:"description"`
	CustomerID    string    `json:"customer_id"`
	Branch        string    `json:"branch"`
	Balance       string    `json:"balance"`
	Active        bool      `json:"active"`
	DateOpened    time.Time `json:"date_opened"`
}

func accountResponse(account *domain.Account) AccountResponse {
	return AccountResponse{
		AccountNumber: account.Number,
		AccountType:   string(account.Type),
		Description:   account.Describe(),
		CustomerID:    account.CustomerID.String(),
		Branch:        account.Branch,
		Balance:       account.Balance.String(),
		Active:        account.Active,
		DateOpened:    account.DateOpened,
	}
}

func (h *AccountHandler) Open(w http.ResponseWriter, r *http.Request) {
	var req OpenAccountRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, errors.NewAppError(errors.InvalidInput, "invalid request body").WithDetails(err.Error()))
		return
	}

	customerID, err := uuid.Parse(req.CustomerID)
	if err != nil {
		writeError(w, errors.NewAppError(errors.InvalidInput, "invalid customer_id format"))
		return
	}

	initialDeposit := decimal.Zero
	if req.InitialDeposit != "" {
		initialDeposit, err = decimal.NewFromString(req.InitialDeposit)
		if err != nil {
			writeError(w, errors.NewAppError(errors.InvalidAmount, "invalid initial_deposit format"))
			return
		}
	}

	account, err := h.accountService.Open(service.OpenAccountParams{
		CustomerID:      customerID,
		Type:            domain.AccountType(req.AccountType),
		Branch:          req.Branch,
		InitialDeposit:  initialDeposit,
		EmployerName:    req.EmployerName,
		EmployerAddress: req.EmployerAddress,
	})
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, accountResponse(account))
}

func (h *AccountHandler) Get(w http.ResponseWriter, r *http.Request) {
	number := mux.Vars(r)["account_number"]

	account, err := h.accountService.Get(number)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, accountResponse(account))
}

func (h *AccountHandler) Deactivate(w http.ResponseWriter, r *http.Request) {
	number := mux.Vars(r)["account_number"]

	if err := h.accountService.Deactivate(number); err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"account_number": number,
		"active":         false,
	})
}

type TransactionResponse struct {
	ID           string    `json:"id"`
	Type         string    `json:"type"`
	Amount       string    `json:"amount"`
	BalanceAfter string    `json:"balance_after"`
	Description  string    `json:"description"`
	Timestamp    time.Time `json:"timestamp"`
}

func (h *AccountHandler) Transactions(w http.ResponseWriter, r *http.Request) {
	number := mux.Vars(r)["account_number"]
	oldestFirst := r.URL.Query().Get("order") == "asc"

	transactions, err := h.accountService.Transactions(number, oldestFirst)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	responses := make([]TransactionResponse, 0, len(transactions))
	for _, tx := range transactions {
		responses = append(responses, TransactionResponse{
			ID:           tx.ID.String(),
			Type:         string(tx.Type),
			Amount:       tx.Amount.String(),
			BalanceAfter: tx.BalanceAfter.String(),
			Description:  tx.Description,
			Timestamp:    tx.Timestamp,
		})
	}
	writeJSON(w, http.StatusOK, responses)
}
