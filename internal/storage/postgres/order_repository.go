package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/vladislavdragonenkov/storefront/internal/domain"
)

type orderRepository struct {
	db *sql.DB
}

// NewOrderRepository создаёт PostgreSQL-реализацию OrderRepository.
func NewOrderRepository(store *Store) domain.OrderRepository {
	return &orderRepository{db: store.DB()}
}

// Create сохраняет заказ и все позиции в одной транзакции.
func (r *orderRepository) Create(ctx context.Context, order domain.Order) (domain.Order, error) {
	if errs := order.ValidateInvariants(); len(errs) > 0 {
		return domain.Order{}, errs[0]
	}
	if order.Status == "" {
		order.Status = domain.OrderStatusPlaced
	}

	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	items := make([]domain.OrderItem, len(order.Items))
	copy(items, order.Items)

	err := inTx(ctx, r.db, func(tx *sql.Tx) error {
		if err := tx.QueryRowContext(ctx, `
			INSERT INTO orders (customer_name, email, address, payment_method, total, status)
			VALUES ($1, $2, $3, $4, $5, $6)
			RETURNING id, created_at
		`,
			order.CustomerName, order.Email, order.Address, order.PaymentMethod,
			order.Total, string(order.Status),
		).Scan(&order.ID, &order.CreatedAt); err != nil {
			return fmt.Errorf("insert order: %w", err)
		}

		for i := range items {
			items[i].OrderID = order.ID
			if err := tx.QueryRowContext(ctx, `
				INSERT INTO order_items (order_id, product_name, price, quantity)
				VALUES ($1, $2, $3, $4)
				RETURNING id
			`, order.ID, items[i].ProductName, items[i].Price, items[i].Quantity).Scan(&items[i].ID); err != nil {
				return fmt.Errorf("insert order item: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return domain.Order{}, err
	}

	order.Items = items
	order.CreatedAt = order.CreatedAt.UTC()
	return order, nil
}

// List читает заказы с позициями одним запросом, от новых к старым.
func (r *orderRepository) List(ctx context.Context) ([]domain.Order, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	rows, err := r.db.QueryContext(ctx, `
		SELECT o.id, o.customer_name, o.email, o.address, o.payment_method, o.total, o.status, o.created_at,
		       i.id, i.product_name, i.price, i.quantity
		FROM orders o
		LEFT JOIN order_items i ON i.order_id = o.id
		ORDER BY o.created_at DESC, o.id DESC, i.id ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	defer rows.Close()

	orders := make([]domain.Order, 0)
	for rows.Next() {
		var (
			order     domain.Order
			status    string
			itemID    sql.NullInt64
			itemName  sql.NullString
			itemPrice decimal.NullDecimal
			itemQty   sql.NullInt32
		)
		if err := rows.Scan(
			&order.ID, &order.CustomerName, &order.Email, &order.Address, &order.PaymentMethod,
			&order.Total, &status, &order.CreatedAt,
			&itemID, &itemName, &itemPrice, &itemQty,
		); err != nil {
			return nil, fmt.Errorf("scan order row: %w", err)
		}

		if n := len(orders); n == 0 || orders[n-1].ID != order.ID {
			order.Status = domain.OrderStatus(status)
			order.CreatedAt = order.CreatedAt.UTC()
			order.Items = make([]domain.OrderItem, 0, 1)
			orders = append(orders, order)
		}
		if itemID.Valid {
			last := &orders[len(orders)-1]
			last.Items = append(last.Items, domain.OrderItem{
				ID:          itemID.Int64,
				OrderID:     order.ID,
				ProductName: itemName.String,
				Price:       itemPrice.Decimal,
				Quantity:    int(itemQty.Int32),
			})
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate order rows: %w", err)
	}
	return orders, nil
}

func (r *orderRepository) MarkInventoryUnreconciled(ctx context.Context, id int64) error {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	res, err := r.db.ExecContext(ctx, `UPDATE orders SET status = $2 WHERE id = $1`,
		id, string(domain.OrderStatusInventoryUnreconciled))
	if err != nil {
		return fmt.Errorf("mark order inventory unreconciled: %w", err)
	}
	return expectAffected(res, domain.ErrOrderNotFound)
}

var _ domain.OrderRepository = (*orderRepository)(nil)
