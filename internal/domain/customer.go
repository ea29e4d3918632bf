package domain

import (
	"time"

	"github.com/google/uuid"
)

// Customer owns a collection of accounts. Accounts are attached by the
// ledger during account opening, never directly by end-user actions.
type Customer struct {
	ID        uuid.UUID `json:"customer_id"`
	FirstName string    `json:"first_name"`
	Surname   string    `json:"surname"`
	Address   string    `json:"address"`
	Phone     string    `json:"phone"`
	Email     string    `json:"email"`
	Employed  bool      `json:"employed"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (c *Customer) FullName() string {
	return c.FirstName + " " + c.Surname
}

// ProfileUpdate carries the self-service editable fields. Nil fields are
// left unchanged.
type ProfileUpdate struct {
	FirstName *string `json:"first_name,omitempty"`
	Surname   *string `json:"surname,omitempty"`
	Address   *string `json:"address,omitempty"`
	Phone     *string `json:"phone,omitempty"`
	Email     *string `json:"email,omitempty"`
	Employed  *bool   `json:"employed,omitempty"`
}

// ApplyProfile updates the customer in place from the non-nil fields.
func (c *Customer) ApplyProfile(update ProfileUpdate) {
	if update.FirstName != nil {
		c.FirstName = *update.FirstName
	}
	if update.Surname != nil {
		c.Surname = *update.Surname
	}
	if update.Address != nil {
		c.Address = *update.Address
	}
	if update.Phone != nil {
		c.Phone = *update.Phone
	}
	if update.Email != nil {
		c.Email = *update.Email
	}
	if update.Employed != nil {
		c.Employed = *update.Employed
	}
	c.UpdatedAt = time.Now()
}
