package memory

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/vladislavdragonenkov/storefront/internal/domain"
)

// AccountRepository хранит администраторов и покупателей в памяти.
type AccountRepository struct {
	mu             sync.RWMutex
	admins         map[string]domain.AdminUser
	customers      map[string]domain.Customer
	nextAdminID    int64
	nextCustomerID int64
}

// NewAccountRepository создаёт пустое in-memory хранилище учётных записей.
func NewAccountRepository() *AccountRepository {
	return &AccountRepository{
		admins:    make(map[string]domain.AdminUser),
		customers: make(map[string]domain.Customer),
	}
}

func (r *AccountRepository) CreateAdmin(_ context.Context, admin domain.AdminUser) (domain.AdminUser, error) {
	if strings.TrimSpace(admin.Username) == "" {
		return domain.AdminUser{}, domain.ErrUsernameRequired
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.admins[admin.Username]; exists {
		return domain.AdminUser{}, domain.ErrUsernameTaken
	}
	if admin.Role == "" {
		admin.Role = domain.RoleAdmin
	}
	r.nextAdminID++
	admin.ID = r.nextAdminID
	r.admins[admin.Username] = admin
	return admin, nil
}

func (r *AccountRepository) GetAdminByUsername(_ context.Context, username string) (domain.AdminUser, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	admin, ok := r.admins[username]
	if !ok {
		return domain.AdminUser{}, domain.ErrAdminNotFound
	}
	return admin, nil
}

// CreateCustomer сохраняет покупателя; email сравнивается без учёта регистра.
func (r *AccountRepository) CreateCustomer(_ context.Context, customer domain.Customer) (domain.Customer, error) {
	key := emailKey(customer.Email)
	if key == "" {
		return domain.Customer{}, domain.ErrEmailRequired
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.customers[key]; exists {
		return domain.Customer{}, domain.ErrEmailTaken
	}
	r.nextCustomerID++
	customer.ID = r.nextCustomerID
	customer.CreatedAt = time.Now().UTC()
	r.customers[key] = customer
	return customer, nil
}

func (r *AccountRepository) GetCustomerByEmail(_ context.Context, email string) (domain.Customer, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	customer, ok := r.customers[emailKey(email)]
	if !ok {
		return domain.Customer{}, domain.ErrCustomerNotFound
	}
	return customer, nil
}

func emailKey(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

var (
	_ domain.AdminRepository    = (*AccountRepository)(nil)
	_ domain.CustomerRepository = (*AccountRepository)(nil)
)
