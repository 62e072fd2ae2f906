package models

import (
	"strings"
	"time"
)

// Citizen is the canonical identity record referenced by every other module.
// Identity fields (national id, names, date of birth) are immutable after
// creation; only contact details and the active flag change.
type Citizen struct {
	DateOfBirth *time.Time `json:"date_of_birth,omitempty"`
	UserID      *string    `json:"user_id,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
	NationalID  string     `json:"national_id"`
	FirstName   string     `json:"first_name"`
	LastName    string     `json:"last_name"`
	Email       string     `json:"email"`
	Phone       string     `json:"phone"`
	Address     string     `json:"address"`
	CreatedBy   string     `json:"created_by"`
	ID          int64      `json:"id"`
	IsActive    bool       `json:"is_active"`
}

// FullName joins the name parts.
func (c *Citizen) FullName() string {
	return strings.TrimSpace(c.FirstName + " " + c.LastName)
}
