// Package seed заполняет пустое хранилище данными по умолчанию.
package seed

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/storefront/internal/domain"
)

const (
	defaultAdminUsername = "admin"
	defaultAdminPassword = "admin"
)

var defaultCategories = []string{"Engine Parts", "Accessories", "Tires"}

type defaultProduct struct {
	name     string
	price    int64
	stock    int
	category string
}

var defaultProducts = []defaultProduct{
	{name: "Recaro Seat Black", price: 15000, stock: 5, category: "Accessories"},
	{name: "Recaro Seat Red", price: 16000, stock: 3, category: "Accessories"},
	{name: `Car Tire 17"`, price: 8000, stock: 10, category: "Tires"},
}

// Hasher хеширует пароль администратора по умолчанию.
type Hasher interface {
	Hash(password string) (string, error)
}

// Report описывает, что было создано.
type Report struct {
	Admin      bool
	Categories int
	Products   int
}

// Defaults создаёт администратора admin/admin, категории и товары по умолчанию.
// Каждая часть заполняется только если соответствующее хранилище пусто.
func Defaults(
	ctx context.Context,
	catalog domain.CatalogRepository,
	admins domain.AdminRepository,
	hasher Hasher,
	logger *log.Entry,
) (Report, error) {
	if logger == nil {
		logger = log.WithField("component", "seed")
	}

	var report Report
	created, err := seedAdmin(ctx, admins, hasher)
	if err != nil {
		return report, err
	}
	report.Admin = created

	categoryIDs, err := seedCategories(ctx, catalog, &report)
	if err != nil {
		return report, err
	}
	if err := seedProducts(ctx, catalog, categoryIDs, &report); err != nil {
		return report, err
	}

	logger.WithFields(log.Fields{
		"admin":      report.Admin,
		"categories": report.Categories,
		"products":   report.Products,
	}).Info("default data seeded")
	return report, nil
}

func seedAdmin(ctx context.Context, admins domain.AdminRepository, hasher Hasher) (bool, error) {
	_, err := admins.GetAdminByUsername(ctx, defaultAdminUsername)
	if err == nil {
		return false, nil
	}
	if !errors.Is(err, domain.ErrAdminNotFound) {
		return false, fmt.Errorf("lookup default admin: %w", err)
	}

	hash, err := hasher.Hash(defaultAdminPassword)
	if err != nil {
		return false, err
	}
	_, err = admins.CreateAdmin(ctx, domain.AdminUser{
		Username:     defaultAdminUsername,
		PasswordHash: hash,
		Role:         domain.RoleAdmin,
	})
	if errors.Is(err, domain.ErrUsernameTaken) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("create default admin: %w", err)
	}
	return true, nil
}

func seedCategories(ctx context.Context, catalog domain.CatalogRepository, report *Report) (map[string]int64, error) {
	existing, err := catalog.ListCategories(ctx)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}

	ids := make(map[string]int64, len(defaultCategories))
	for _, c := range existing {
		ids[c.Name] = c.ID
	}
	if len(existing) > 0 {
		return ids, nil
	}

	for _, name := range defaultCategories {
		category, err := catalog.CreateCategory(ctx, domain.Category{Name: name})
		if err != nil {
			return nil, fmt.Errorf("create category %q: %w", name, err)
		}
		ids[name] = category.ID
		report.Categories++
	}
	return ids, nil
}

func seedProducts(ctx context.Context, catalog domain.CatalogRepository, categoryIDs map[string]int64, report *Report) error {
	existing, err := catalog.ListProducts(ctx)
	if err != nil {
		return fmt.Errorf("list products: %w", err)
	}
	if len(existing) > 0 {
		return nil
	}

	for _, p := range defaultProducts {
		product := domain.Product{
			Name:  p.name,
			Price: decimal.NewFromInt(p.price),
			Stock: p.stock,
		}
		if id, ok := categoryIDs[p.category]; ok {
			product.CategoryID = &id
		}
		if _, err := catalog.CreateProduct(ctx, product); err != nil {
			return fmt.Errorf("create product %q: %w", p.name, err)
		}
		report.Products++
	}
	return nil
}
