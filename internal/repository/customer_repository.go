package repository

import (
	"database/sql"
	"log/slog"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"bankledger/internal/domain"
	"bankledger/internal/errors"
)

type customerRepository struct {
	q      Querier
	logger *slog.Logger
}

const customerColumns = `customer_id, first_name, surname, address, phone_number, email, employed, created_at, updated_at`

func (r *customerRepository) SaveCustomer(customer *domain.Customer) error {
	query := `
		INSERT INTO customers
		(customer_id, first_name, surname, address, phone_number, email, employed, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	_, err := r.q.Exec(
		query,
		customer.ID,
		customer.FirstName,
		customer.Surname,
		customer.Address,
		customer.Phone,
		customer.Email,
		customer.Employed,
		customer.CreatedAt,
		customer.UpdatedAt,
	)

	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23505" { // unique_violation
			r.logger.Warn("duplicate customer", "customer_id", customer.ID)
			return errors.ErrDuplicateCustomer
		}
		r.logger.Error("failed to save customer", "customer_id", customer.ID, "error", err)
		return errors.NewAppError(errors.InternalError, "failed to save customer").WithDetails(err.Error())
	}

	return nil
}

func (r *customerRepository) GetCustomer(id uuid.UUID) (*domain.Customer, error) {
	query := `SELECT ` + customerColumns + ` FROM customers WHERE customer_id = $1`

	customer, err := r.scanCustomer(r.q.QueryRow(query, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, errors.ErrCustomerNotFound
		}
		r.logger.Error("failed to get customer", "customer_id", id, "error", err)
		return nil, errors.NewAppError(errors.InternalError, "failed to get customer").WithDetails(err.Error())
	}
	return customer, nil
}

func (r *customerRepository) GetAllCustomers() ([]*domain.Customer, error) {
	query := `SELECT ` + customerColumns + ` FROM customers ORDER BY created_at, customer_id`

	rows, err := r.q.Query(query)
	if err != nil {
		r.logger.Error("failed to list customers", "error", err)
		return nil, errors.NewAppError(errors.InternalError, "failed to list customers").WithDetails(err.Error())
	}
	defer rows.Close()

	var customers []*domain.Customer
	for rows.Next() {
		customer, err := r.scanCustomer(rows)
		if err != nil {
			return nil, errors.NewAppError(errors.InternalError, "failed to scan customer").WithDetails(err.Error())
		}
		customers = append(customers, customer)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.NewAppError(errors.InternalError, "failed to list customers").WithDetails(err.Error())
	}
	return customers, nil
}

func (r *customerRepository) scanCustomer(row rowScanner) (*domain.Customer, error) {
	var customer domain.Customer
	err := row.Scan(
		&customer.ID,
		&customer.FirstName,
		&customer.Surname,
		&customer.Address,
		&customer.Phone,
		&customer.Email,
		&customer.Employed,
		&customer.CreatedAt,
		&customer.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &customer, nil
}

func (r *customerRepository) UpdateCustomer(customer *domain.Customer) error {
	query := `
		UPDATE customers
		SET first_name = $1, surname = $2, address = $3, phone_number = $4, email = $5, employed = $6, updated_at = $7
		WHERE customer_id = $8
	`

	result, err := r.q.Exec(
		query,
		customer.FirstName,
		customer.Surname,
		customer.Address,
		customer.Phone,
		customer.Email,
		customer.Employed,
		customer.UpdatedAt,
		customer.ID,
	)
	if err != nil {
		r.logger.Error("failed to update customer", "customer_id", customer.ID, "error", err)
		return errors.NewAppError(errors.InternalError, "failed to update customer").WithDetails(err.Error())
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return errors.NewAppError(errors.InternalError, "failed to get rows affected").WithDetails(err.Error())
	}
	if rowsAffected == 0 {
		return errors.ErrCustomerNotFound
	}
	return nil
}
