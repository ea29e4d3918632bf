package handler

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"bankledger/internal/domain"
	"bankledger/internal/errors"
	"bankledger/internal/service"
)

type CustomerHandler struct {
	customerService *service.CustomerService
}

func NewCustomerHandler(customerService *service.CustomerService) *CustomerHandler {
	return &CustomerHandler{
		customerService: customerService,
	}
}

type RegisterCustomerRequest struct {
	FirstName string `json:"first_name"`
	Surname   string `json:"surname"`
	Address   string `json:"address"`
	Phone     string `json:"phone"`
	Email     string `json:"email"`
	Employed  bool   `json:"employed"`
}

type CustomerResponse struct {
	CustomerID string    `json:"customer_id"`
	FirstName  string    `json:"first_name"`
	Surname    string    `json:"surname"`
	Address    string    `json:"address"`
	Phone      string    `json:"phone"`
	Email      string    `json:"email"`
	Employed   bool      `json:"employed"`
	CreatedAt  time.Time `json:"created_at"`
}

func customerResponse(customer *domain.Customer) CustomerResponse {
	return CustomerResponse{
		CustomerID: customer.ID.String(),
		FirstName:  customer.FirstName,
		Surname:    customer.Surname,
		Address:    customer.Address,
		Phone:      customer.Phone,
		Email:      customer.Email,
		Employed:   customer.Employed,
		CreatedAt:  customer.CreatedAt,
	}
}

func (h *CustomerHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterCustomerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, errors.NewAppError(errors.InvalidInput, "invalid request body").WithDetails(err.Error()))
		return
	}

	customer, err := h.customerService.Register(service.RegisterCustomerParams{
		FirstName: req.FirstName,
		Surname:   req.Surname,
		Address:   req.Address,
		Phone:     req.Phone,
		Email:     req.Email,
		Employed:  req.Employed,
	})
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, customerResponse(customer))
}

func (h *CustomerHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := parseCustomerID(w, r)
	if !ok {
		return
	}

	customer, err := h.customerService.Get(id)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, customerResponse(customer))
}

func (h *CustomerHandler) List(w http.ResponseWriter, r *http.Request) {
	// Phone lookup shares the collection endpoint: /customers?phone=...
	if phone := r.URL.Query().Get("phone"); phone != "" {
		customer, err := h.customerService.FindByPhone(phone)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, []CustomerResponse{customerResponse(customer)})
		return
	}

	customers, err := h.customerService.ListAll()
	if err != nil {
		writeServiceError(w, err)
		return
	}

	responses := make([]CustomerResponse, 0, len(customers))
	for _, customer := range customers {
		responses = append(responses, customerResponse(customer))
	}
	writeJSON(w, http.StatusOK, responses)
}

func (h *CustomerHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	id, ok := parseCustomerID(w, r)
	if !ok {
		return
	}

	var update domain.ProfileUpdate
	if err := json.NewDecoder(r.Body).Decode(&update); err != nil {
		writeError(w, errors.NewAppError(errors.InvalidInput, "invalid request body").WithDetails(err.Error()))
		return
	}

	customer, err := h.customerService.UpdateProfile(id, update)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, customerResponse(customer))
}

func (h *CustomerHandler) ListAccounts(w http.ResponseWriter, r *http.Request) {
	id, ok := parseCustomerID(w, r)
	if !ok {
		return
	}

	typeFilter := domain.AccountType(r.URL.Query().Get("type"))
	if typeFilter != "" && !domain.ValidAccountType(typeFilter) {
		writeError(w, errors.NewAppErrorf(errors.InvalidInput, "unknown account type %q", typeFilter))
		return
	}

	accounts, err := h.customerService.Accounts(id, typeFilter)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	responses := make([]AccountResponse, 0, len(accounts))
	for _, account := range accounts {
		responses = append(responses, accountResponse(account))
	}
	writeJSON(w, http.StatusOK, responses)
}

func (h *CustomerHandler) TotalBalance(w http.ResponseWriter, r *http.Request) {
	id, ok := parseCustomerID(w, r)
	if !ok {
		return
	}

	total, err := h.customerService.TotalBalance(id)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"customer_id":   id.String(),
		"total_balance": total.String(),
	})
}

func parseCustomerID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(mux.Vars(r)["customer_id"])
	if err != nil {
		writeError(w, errors.NewAppError(errors.InvalidInput, "invalid customer_id format"))
		return uuid.Nil, false
	}
	return id, true
}
