package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/vladislavdragonenkov/storefront/internal/domain"
)

// AccountRepository хранит администраторов и покупателей в PostgreSQL.
type AccountRepository struct {
	db *sql.DB
}

// NewAccountRepository создаёт PostgreSQL-реализацию AdminRepository и CustomerRepository.
func NewAccountRepository(store *Store) *AccountRepository {
	return &AccountRepository{db: store.DB()}
}

func (r *AccountRepository) CreateAdmin(ctx context.Context, admin domain.AdminUser) (domain.AdminUser, error) {
	if strings.TrimSpace(admin.Username) == "" {
		return domain.AdminUser{}, domain.ErrUsernameRequired
	}
	if admin.Role == "" {
		admin.Role = domain.RoleAdmin
	}

	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	err := r.db.QueryRowContext(ctx, `
		INSERT INTO admin_users (username, password_hash, role)
		VALUES ($1, $2, $3)
		RETURNING id
	`, admin.Username, admin.PasswordHash, admin.Role).Scan(&admin.ID)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.AdminUser{}, domain.ErrUsernameTaken
		}
		return domain.AdminUser{}, fmt.Errorf("insert admin: %w", err)
	}
	return admin, nil
}

func (r *AccountRepository) GetAdminByUsername(ctx context.Context, username string) (domain.AdminUser, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	var admin domain.AdminUser
	err := r.db.QueryRowContext(ctx, `
		SELECT id, username, password_hash, role
		FROM admin_users
		WHERE username = $1
	`, username).Scan(&admin.ID, &admin.Username, &admin.PasswordHash, &admin.Role)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.AdminUser{}, domain.ErrAdminNotFound
		}
		return domain.AdminUser{}, fmt.Errorf("select admin: %w", err)
	}
	return admin, nil
}

func (r *AccountRepository) CreateCustomer(ctx context.Context, customer domain.Customer) (domain.Customer, error) {
	customer.Email = strings.TrimSpace(customer.Email)
	if customer.Email == "" {
		return domain.Customer{}, domain.ErrEmailRequired
	}

	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	err := r.db.QueryRowContext(ctx, `
		INSERT INTO customers (name, email, phone, address, password_hash)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at
	`,
		customer.Name, customer.Email, customer.Phone, customer.Address, customer.PasswordHash,
	).Scan(&customer.ID, &customer.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.Customer{}, domain.ErrEmailTaken
		}
		return domain.Customer{}, fmt.Errorf("insert customer: %w", err)
	}
	customer.CreatedAt = customer.CreatedAt.UTC()
	return customer, nil
}

// GetCustomerByEmail ищет покупателя без учёта регистра email.
func (r *AccountRepository) GetCustomerByEmail(ctx context.Context, email string) (domain.Customer, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	var customer domain.Customer
	err := r.db.QueryRowContext(ctx, `
		SELECT id, name, email, phone, address, password_hash, created_at
		FROM customers
		WHERE LOWER(email) = LOWER($1)
	`, strings.TrimSpace(email)).Scan(
		&customer.ID, &customer.Name, &customer.Email, &customer.Phone,
		&customer.Address, &customer.PasswordHash, &customer.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Customer{}, domain.ErrCustomerNotFound
		}
		return domain.Customer{}, fmt.Errorf("select customer: %w", err)
	}
	customer.CreatedAt = customer.CreatedAt.UTC()
	return customer, nil
}

var (
	_ domain.AdminRepository    = (*AccountRepository)(nil)
	_ domain.CustomerRepository = (*AccountRepository)(nil)
)
