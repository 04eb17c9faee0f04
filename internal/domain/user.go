package domain

import (
	"time"

	"github.com/diagnosis/hotel-bookings/internal/utils"
)

type Role string

const (
	RoleGuest    Role = "guest"
	RoleCustomer Role = "customer"
	RoleAdmin    Role = "admin"
)

func ParseRole(s string) (Role, bool) {
	switch Role(s) {
	case RoleGuest, RoleCustomer, RoleAdmin:
		return Role(s), true
	default:
		return "", false
	}
}

type User struct {
	ID           int64     `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Role         Role      `json:"role"`
	Phone        string    `json:"phone,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

const MinPasswordLen = 8

type CreateUserRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Phone    string `json:"phone,omitempty"`
	Role     Role   `json:"role,omitempty"`
}

func (r *CreateUserRequest) Normalize() {
	r.Email = utils.NormalizeEmail(r.Email)
	r.Name = utils.NormalizeString(r.Name)
	r.Phone = utils.NormalizePhone(r.Phone)
	if r.Role == "" {
		r.Role = RoleCustomer
	}
}

func (r *CreateUserRequest) Validate() error {
	v := &ValidationError{}
	if r.Name == "" {
		v.Add("name", "is required")
	}
	if r.Email == "" {
		v.Add("email", "is required")
	} else if !utils.IsValidEmail(r.Email) {
		v.Add("email", "invalid email format")
	}
	if len(r.Password) < MinPasswordLen {
		v.Add("password", "must be at least 8 characters")
	}
	if r.Phone != "" && !utils.IsValidPhone(r.Phone) {
		v.Add("phone", "invalid phone format")
	}
	if _, ok := ParseRole(string(r.Role)); !ok {
		v.Add("role", "must be one of guest, customer, admin")
	}
	return v.OrNil()
}

type UpdateUserRequest struct {
	Name     *string `json:"name,omitempty"`
	Phone    *string `json:"phone,omitempty"`
	Password *string `json:"password,omitempty"`
	Role     *Role   `json:"role,omitempty"`
}

func (r *UpdateUserRequest) Validate() error {
	v := &ValidationError{}
	if r.Name != nil {
		n := utils.NormalizeString(*r.Name)
		if n == "" {
			v.Add("name", "must not be empty")
		}
		r.Name = &n
	}
	if r.Phone != nil {
		p := utils.NormalizePhone(*r.Phone)
		if p != "" && !utils.IsValidPhone(p) {
			v.Add("phone", "invalid phone format")
		}
		r.Phone = &p
	}
	if r.Password != nil && len(*r.Password) < MinPasswordLen {
		v.Add("password", "must be at least 8 characters")
	}
	if r.Role != nil {
		if _, ok := ParseRole(string(*r.Role)); !ok {
			v.Add("role", "must be one of guest, customer, admin")
		}
	}
	return v.OrNil()
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (r *LoginRequest) Normalize() {
	r.Email = utils.NormalizeEmail(r.Email)
}

func (r *LoginRequest) Validate() error {
	v := &ValidationError{}
	if r.Email == "" {
		v.Add("email", "is required")
	}
	if r.Password == "" {
		v.Add("password", "is required")
	}
	return v.OrNil()
}

type LoginResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int64  `json:"expires_in"`
	User        *User  `json:"user"`
}

// Actor is the authenticated caller an operation runs on behalf of.
type Actor struct {
	UserID int64
	Email  string
	Role   Role
}

func (a Actor) IsAdmin() bool { return a.Role == RoleAdmin }

// CanAccess reports whether the actor may see or act on a resource owned by
// ownerID.
func (a Actor) CanAccess(ownerID int64) bool {
	return a.IsAdmin() || a.UserID == ownerID
}
