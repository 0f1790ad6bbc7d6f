package domain

import (
	"strings"
	"time"
)

// RoleAdmin — роль администратора магазина.
const RoleAdmin = "admin"

// RoleCustomer — роль зарегистрированного покупателя.
const RoleCustomer = "customer"

// AdminUser — учётная запись администратора.
type AdminUser struct {
	ID           int64
	Username     string
	PasswordHash string
	Role         string
}

// Customer — зарегистрированный покупатель.
type Customer struct {
	ID           int64
	Name         string
	Email        string
	Phone        string
	Address      string
	PasswordHash string
	CreatedAt    time.Time
}

// Signup — данные регистрации покупателя.
type Signup struct {
	Name     string
	Email    string
	Phone    string
	Address  string
	Password string
}

// Validate проверяет обязательные поля регистрации.
func (s Signup) Validate() error {
	switch {
	case strings.TrimSpace(s.Name) == "":
		return ErrCustomerNameRequired
	case strings.TrimSpace(s.Email) == "":
		return ErrEmailRequired
	case s.Password == "":
		return ErrPasswordRequired
	}
	return nil
}
