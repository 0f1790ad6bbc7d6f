package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/vladislavdragonenkov/storefront/internal/domain"
)

const productColumns = `
	p.id, p.name, p.price, p.stock, p.image, p.category_id, COALESCE(c.name, '')
	FROM products p
	LEFT JOIN categories c ON c.id = p.category_id`

type catalogRepository struct {
	db *sql.DB
}

// NewCatalogRepository создаёт PostgreSQL-реализацию CatalogRepository.
func NewCatalogRepository(store *Store) domain.CatalogRepository {
	return &catalogRepository{db: store.DB()}
}

func (r *catalogRepository) ListCategories(ctx context.Context) ([]domain.Category, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	rows, err := r.db.QueryContext(ctx, `SELECT id, name FROM categories ORDER BY name, id`)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	defer rows.Close()

	categories := make([]domain.Category, 0)
	for rows.Next() {
		var c domain.Category
		if err := rows.Scan(&c.ID, &c.Name); err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		categories = append(categories, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate categories: %w", err)
	}
	return categories, nil
}

func (r *catalogRepository) CreateCategory(ctx context.Context, category domain.Category) (domain.Category, error) {
	if err := category.Validate(); err != nil {
		return domain.Category{}, err
	}

	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	category.Name = strings.TrimSpace(category.Name)
	err := r.db.QueryRowContext(ctx, `INSERT INTO categories (name) VALUES ($1) RETURNING id`, category.Name).Scan(&category.ID)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.Category{}, domain.ErrCategoryExists
		}
		return domain.Category{}, fmt.Errorf("insert category: %w", err)
	}
	return category, nil
}

func (r *catalogRepository) DeleteCategory(ctx context.Context, id int64) error {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	res, err := r.db.ExecContext(ctx, `DELETE FROM categories WHERE id = $1`, id)
	if err != nil {
		if isForeignKeyViolation(err) {
			return domain.ErrCategoryInUse
		}
		return fmt.Errorf("delete category: %w", err)
	}
	return expectAffected(res, domain.ErrCategoryNotFound)
}

func (r *catalogRepository) ListProducts(ctx context.Context) ([]domain.Product, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	rows, err := r.db.QueryContext(ctx, `SELECT `+productColumns+` ORDER BY p.id`)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	defer rows.Close()

	products := make([]domain.Product, 0)
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		products = append(products, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate products: %w", err)
	}
	return products, nil
}

func (r *catalogRepository) GetProduct(ctx context.Context, id int64) (domain.Product, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	p, err := scanProduct(r.db.QueryRowContext(ctx, `SELECT `+productColumns+` WHERE p.id = $1`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Product{}, domain.ErrProductNotFound
	}
	return p, err
}

func (r *catalogRepository) CreateProduct(ctx context.Context, product domain.Product) (domain.Product, error) {
	if err := product.Validate(); err != nil {
		return domain.Product{}, err
	}

	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	err := r.db.QueryRowContext(ctx, `
		INSERT INTO products (name, price, stock, image, category_id)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id
	`, product.Name, product.Price, product.Stock, product.Image, nullableID(product.CategoryID)).Scan(&product.ID)
	if err != nil {
		if isForeignKeyViolation(err) {
			return domain.Product{}, domain.ErrCategoryNotFound
		}
		return domain.Product{}, fmt.Errorf("insert product: %w", err)
	}
	return r.GetProduct(ctx, product.ID)
}

func (r *catalogRepository) UpdateProduct(ctx context.Context, product domain.Product) error {
	if err := product.Validate(); err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	res, err := r.db.ExecContext(ctx, `
		UPDATE products
		SET name = $2,
		    price = $3,
		    stock = $4,
		    image = $5,
		    category_id = $6
		WHERE id = $1
	`, product.ID, product.Name, product.Price, product.Stock, product.Image, nullableID(product.CategoryID))
	if err != nil {
		if isForeignKeyViolation(err) {
			return domain.ErrCategoryNotFound
		}
		return fmt.Errorf("update product: %w", err)
	}
	return expectAffected(res, domain.ErrProductNotFound)
}

func (r *catalogRepository) DeleteProduct(ctx context.Context, id int64) error {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	res, err := r.db.ExecContext(ctx, `DELETE FROM products WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete product: %w", err)
	}
	return expectAffected(res, domain.ErrProductNotFound)
}

// SetStock перезаписывает остаток абсолютным значением без чтения текущего.
func (r *catalogRepository) SetStock(ctx context.Context, id int64, stock int) error {
	if stock < 0 {
		return domain.ErrStockNegative
	}

	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	res, err := r.db.ExecContext(ctx, `UPDATE products SET stock = $2 WHERE id = $1`, id, stock)
	if err != nil {
		return fmt.Errorf("set product stock: %w", err)
	}
	return expectAffected(res, domain.ErrProductNotFound)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanProduct(row rowScanner) (domain.Product, error) {
	var (
		p          domain.Product
		categoryID sql.NullInt64
	)
	if err := row.Scan(&p.ID, &p.Name, &p.Price, &p.Stock, &p.Image, &categoryID, &p.CategoryName); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Product{}, err
		}
		return domain.Product{}, fmt.Errorf("scan product: %w", err)
	}
	if categoryID.Valid {
		id := categoryID.Int64
		p.CategoryID = &id
	}
	return p, nil
}

func nullableID(id *int64) sql.NullInt64 {
	if id == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: *id, Valid: true}
}

func expectAffected(res sql.Result, notFound error) error {
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return notFound
	}
	return nil
}

var _ domain.CatalogRepository = (*catalogRepository)(nil)
