// Package account реализует вход администратора, регистрацию и вход покупателей.
package account

import (
	"context"
	"errors"
	"fmt"
	"strings"

	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/storefront/internal/domain"
)

// PasswordHasher хеширует и сверяет пароли.
type PasswordHasher interface {
	Hash(password string) (string, error)
	Verify(hash, password string) error
}

// TokenIssuer выпускает токены доступа.
type TokenIssuer interface {
	Issue(userID int64, role string) (string, error)
}

// Session — результат успешного входа.
type Session struct {
	UserID   int64
	Username string
	Role     string
	Token    string
	// Customer заполнен только для входа покупателя; PasswordHash очищен.
	Customer *domain.Customer
}

// Service объединяет хранилища учётных записей с hasher и issuer.
type Service struct {
	admins    domain.AdminRepository
	customers domain.CustomerRepository
	hasher    PasswordHasher
	tokens    TokenIssuer
	logger    *log.Entry
}

// NewService создаёт сервис учётных записей; nil logger заменяется на entry по умолчанию.
func NewService(
	admins domain.AdminRepository,
	customers domain.CustomerRepository,
	hasher PasswordHasher,
	tokens TokenIssuer,
	logger *log.Entry,
) *Service {
	if logger == nil {
		logger = log.WithField("component", "account-service")
	}
	return &Service{admins: admins, customers: customers, hasher: hasher, tokens: tokens, logger: logger}
}

// AdminLogin проверяет логин и пароль администратора.
// Неизвестный логин и неверный пароль неразличимы для вызывающего.
func (s *Service) AdminLogin(ctx context.Context, username, password string) (Session, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return Session{}, domain.ErrUsernameRequired
	}
	if password == "" {
		return Session{}, domain.ErrPasswordRequired
	}

	admin, err := s.admins.GetAdminByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, domain.ErrAdminNotFound) {
			return Session{}, domain.ErrInvalidCredentials
		}
		return Session{}, fmt.Errorf("load admin: %w", err)
	}
	if err := s.hasher.Verify(admin.PasswordHash, password); err != nil {
		s.logger.WithField("username", username).Warn("admin login rejected")
		return Session{}, err
	}

	token, err := s.tokens.Issue(admin.ID, admin.Role)
	if err != nil {
		return Session{}, err
	}
	return Session{UserID: admin.ID, Username: admin.Username, Role: admin.Role, Token: token}, nil
}

// CustomerSignup регистрирует покупателя; дубликат email возвращает ErrEmailTaken.
func (s *Service) CustomerSignup(ctx context.Context, signup domain.Signup) (domain.Customer, error) {
	if err := signup.Validate(); err != nil {
		return domain.Customer{}, err
	}

	hash, err := s.hasher.Hash(signup.Password)
	if err != nil {
		return domain.Customer{}, err
	}
	customer, err := s.customers.CreateCustomer(ctx, domain.Customer{
		Name:         strings.TrimSpace(signup.Name),
		Email:        strings.TrimSpace(signup.Email),
		Phone:        signup.Phone,
		Address:      signup.Address,
		PasswordHash: hash,
	})
	if err != nil {
		return domain.Customer{}, err
	}

	s.logger.WithField("customer_id", customer.ID).Info("customer registered")
	customer.PasswordHash = ""
	return customer, nil
}

// CustomerLogin проверяет email и пароль покупателя и возвращает его профиль без пароля.
func (s *Service) CustomerLogin(ctx context.Context, email, password string) (Session, error) {
	email = strings.TrimSpace(email)
	if email == "" {
		return Session{}, domain.ErrEmailRequired
	}
	if password == "" {
		return Session{}, domain.ErrPasswordRequired
	}

	customer, err := s.customers.GetCustomerByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrCustomerNotFound) {
			return Session{}, domain.ErrInvalidCredentials
		}
		return Session{}, fmt.Errorf("load customer: %w", err)
	}
	if err := s.hasher.Verify(customer.PasswordHash, password); err != nil {
		return Session{}, err
	}

	token, err := s.tokens.Issue(customer.ID, domain.RoleCustomer)
	if err != nil {
		return Session{}, err
	}
	customer.PasswordHash = ""
	return Session{
		UserID:   customer.ID,
		Username: customer.Email,
		Role:     domain.RoleCustomer,
		Token:    token,
		Customer: &customer,
	}, nil
}
