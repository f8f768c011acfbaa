package models

import "time"

type Role string

const (
	RoleUser             Role = "user"
	RoleInstitutionAdmin Role = "institution_admin"
	RoleSuperAdmin       Role = "super_admin"
)

func (r Role) IsAdmin() bool {
	return r == RoleInstitutionAdmin || r == RoleSuperAdmin
}

func (r Role) Valid() bool {
	return r == RoleUser || r.IsAdmin()
}

type Location struct {
	State    string `json:"state"`
	District string `json:"district"`
	City     string `json:"city"`
	Country  string `json:"country"`
}

type User struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Role         Role      `json:"role"`
	Location     Location  `json:"location"`
	CreatedAt    time.Time `json:"createdAt"`
}
