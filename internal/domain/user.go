package domain

import (
	"strings"
	"time"
)

// UserRole enumerates supported roles.
type UserRole string

const (
	UserRoleContributor UserRole = "contributor"
	UserRoleRecipient   UserRole = "recipient"
	UserRoleAdmin       UserRole = "admin"
)

// Valid reports whether r is a known role.
func (r UserRole) Valid() bool {
	switch r {
	case UserRoleContributor, UserRoleRecipient, UserRoleAdmin:
		return true
	}
	return false
}

// Location scopes a user or pool to a city within a province.
type Location struct {
	City       string `json:"city"`
	Province   string `json:"province"`
	PostalCode string `json:"postal_code,omitempty"`
}

// Normalize trims whitespace and upper-cases the province code.
func (l Location) Normalize() Location {
	return Location{
		City:       strings.TrimSpace(l.City),
		Province:   strings.ToUpper(strings.TrimSpace(l.Province)),
		PostalCode: strings.ToUpper(strings.ReplaceAll(strings.TrimSpace(l.PostalCode), " ", "")),
	}
}

// IsZero reports whether no city/province has been set.
func (l Location) IsZero() bool {
	return strings.TrimSpace(l.City) == "" || strings.TrimSpace(l.Province) == ""
}

// User represents an authenticated account within the platform.
type User struct {
	ID                 string
	AuthSubject        string
	Email              string
	Name               string
	Role               UserRole
	Location           Location
	CharityPreferences []string
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// IsAdmin reports whether the user may review and pay bills.
func (u User) IsAdmin() bool {
	return u.Role == UserRoleAdmin
}

// IsRecipient reports whether the user may submit bills and run campaigns.
func (u User) IsRecipient() bool {
	return u.Role == UserRoleRecipient
}
