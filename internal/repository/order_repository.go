package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"pizza-shop/internal/domain"

	"github.com/google/uuid"
)

var ErrOrderNotFound = errors.New("order not found")

const orderColumns = `id, user_id, ship_address, ship_city, ship_state, ship_country,
		ship_pin_code, ship_phone_no, payment_id, payment_status,
		items_price, tax_price, shipping_price, total_price,
		order_status, paid_at, delivered_at, created_at`

// OrderRepository defines the interface for order ledger access
type OrderRepository interface {
	Create(ctx context.Context, order *domain.Order) error
	Delete(ctx context.Context, id uuid.UUID) error
	FindByID(ctx context.Context, id uuid.UUID) (*domain.Order, error)
	FindByPaymentOrderID(ctx context.Context, paymentOrderID string) (*domain.Order, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]*domain.Order, error)
	List(ctx context.Context, status *domain.OrderStatus, page, pageSize int) ([]*domain.Order, int, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status domain.OrderStatus, deliveredAt *time.Time) error
	UpdatePayment(ctx context.Context, id uuid.UUID, paymentID, paymentStatus string, paidAt time.Time, status domain.OrderStatus) error
	SetPaymentOrderID(ctx context.Context, id uuid.UUID, paymentOrderID, paymentStatus string) error
	Count(ctx context.Context) (int, error)
	CountPending(ctx context.Context) (int, error)
}

type orderRepository struct {
	db *sql.DB
}

// NewOrderRepository creates a new instance of OrderRepository
func NewOrderRepository(db *sql.DB) OrderRepository {
	return &orderRepository{db: db}
}

// Create inserts an order and its line-item snapshots in one transaction
func (r *orderRepository) Create(ctx context.Context, order *domain.Order) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	orderQuery := `
		INSERT INTO orders (id, user_id, ship_address, ship_city, ship_state, ship_country,
			ship_pin_code, ship_phone_no, payment_id, payment_status,
			items_price, tax_price, shipping_price, total_price,
			order_status, paid_at, delivered_at, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)
	`

	_, err = tx.ExecContext(
		ctx,
		orderQuery,
		order.ID,
		order.UserID,
		order.Shipping.Address,
		order.Shipping.City,
		order.Shipping.State,
		order.Shipping.Country,
		order.Shipping.PinCode,
		order.Shipping.PhoneNo,
		order.Payment.ID,
		order.Payment.Status,
		order.ItemsPrice,
		order.TaxPrice,
		order.ShippingPrice,
		order.TotalPrice,
		order.Status,
		order.PaidAt,
		order.DeliveredAt,
		order.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create order: %w", err)
	}

	itemQuery := `
		INSERT INTO order_items (order_id, position, name, quantity, price, image_url, category, item_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	for i, item := range order.Items {
		_, err = tx.ExecContext(ctx, itemQuery,
			order.ID, i, item.Name, item.Quantity, item.Price, item.ImageURL, item.Category, item.ItemID)
		if err != nil {
			return fmt.Errorf("failed to create order item: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit order: %w", err)
	}

	return nil
}

// Delete removes an order, used as the compensating rollback when payment
// intent creation fails. Line items go with it via ON DELETE CASCADE.
func (r *orderRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM orders WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete order: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return ErrOrderNotFound
	}

	return nil
}

func scanOrder(row interface{ Scan(...any) error }) (*domain.Order, error) {
	order := &domain.Order{}
	err := row.Scan(
		&order.ID,
		&order.UserID,
		&order.Shipping.Address,
		&order.Shipping.City,
		&order.Shipping.State,
		&order.Shipping.Country,
		&order.Shipping.PinCode,
		&order.Shipping.PhoneNo,
		&order.Payment.ID,
		&order.Payment.Status,
		&order.ItemsPrice,
		&order.TaxPrice,
		&order.ShippingPrice,
		&order.TotalPrice,
		&order.Status,
		&order.PaidAt,
		&order.DeliveredAt,
		&order.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return order, nil
}

func (r *orderRepository) loadItems(ctx context.Context, order *domain.Order) error {
	query := `
		SELECT name, quantity, price, image_url, category, item_id
		FROM order_items
		WHERE order_id = $1
		ORDER BY position ASC
	`

	rows, err := r.db.QueryContext(ctx, query, order.ID)
	if err != nil {
		return fmt.Errorf("failed to load order items: %w", err)
	}
	defer rows.Close()

	items := []domain.OrderItem{}
	for rows.Next() {
		var item domain.OrderItem
		if err := rows.Scan(&item.Name, &item.Quantity, &item.Price, &item.ImageURL, &item.Category, &item.ItemID); err != nil {
			return fmt.Errorf("failed to scan order item: %w", err)
		}
		items = append(items, item)
	}
	if err = rows.Err(); err != nil {
		return fmt.Errorf("error iterating order items: %w", err)
	}

	order.Items = items
	return nil
}

// FindByID retrieves an order with its line items
func (r *orderRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.Order, error) {
	query := fmt.Sprintf(`SELECT %s FROM orders WHERE id = $1`, orderColumns)

	order, err := scanOrder(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("failed to find order: %w", err)
	}

	if err := r.loadItems(ctx, order); err != nil {
		return nil, err
	}
	return order, nil
}

// FindByPaymentOrderID locates an order by the gateway order id recorded at
// checkout, used by the payment callback.
func (r *orderRepository) FindByPaymentOrderID(ctx context.Context, paymentOrderID string) (*domain.Order, error) {
	query := fmt.Sprintf(`SELECT %s FROM orders WHERE payment_id = $1`, orderColumns)

	order, err := scanOrder(r.db.QueryRowContext(ctx, query, paymentOrderID))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("failed to find order by payment id: %w", err)
	}

	if err := r.loadItems(ctx, order); err != nil {
		return nil, err
	}
	return order, nil
}

// ListByUser retrieves a user's orders, newest first
func (r *orderRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]*domain.Order, error) {
	query := fmt.Sprintf(`SELECT %s FROM orders WHERE user_id = $1 ORDER BY created_at DESC`, orderColumns)

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}
	defer rows.Close()

	orders := []*domain.Order{}
	for rows.Next() {
		order, err := scanOrder(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan order: %w", err)
		}
		orders = append(orders, order)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating orders: %w", err)
	}

	for _, order := range orders {
		if err := r.loadItems(ctx, order); err != nil {
			return nil, err
		}
	}

	return orders, nil
}

// List retrieves orders with optional status filtering and pagination, newest
// first, for the admin view.
func (r *orderRepository) List(ctx context.Context, status *domain.OrderStatus, page, pageSize int) ([]*domain.Order, int, error) {
	whereClause := ""
	args := []any{}
	argIndex := 1

	if status != nil {
		whereClause = fmt.Sprintf("WHERE order_status = $%d", argIndex)
		args = append(args, *status)
		argIndex++
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM orders %s", whereClause)
	var total int
	if err := r.db.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count orders: %w", err)
	}

	offset := (page - 1) * pageSize

	query := fmt.Sprintf(`
		SELECT %s
		FROM orders
		%s
		ORDER BY created_at DESC
		LIMIT $%d OFFSET $%d
	`, orderColumns, whereClause, argIndex, argIndex+1)
	args = append(args, pageSize, offset)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list orders: %w", err)
	}
	defer rows.Close()

	orders := []*domain.Order{}
	for rows.Next() {
		order, err := scanOrder(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan order: %w", err)
		}
		orders = append(orders, order)
	}
	if err = rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("error iterating orders: %w", err)
	}

	for _, order := range orders {
		if err := r.loadItems(ctx, order); err != nil {
			return nil, 0, err
		}
	}

	return orders, total, nil
}

// UpdateStatus sets the order status; a Delivered transition carries the
// delivery timestamp.
func (r *orderRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status domain.OrderStatus, deliveredAt *time.Time) error {
	query := `UPDATE orders SET order_status = $2, delivered_at = COALESCE($3, delivered_at) WHERE id = $1`

	result, err := r.db.ExecContext(ctx, query, id, status, deliveredAt)
	if err != nil {
		return fmt.Errorf("failed to update order status: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return ErrOrderNotFound
	}

	return nil
}

// UpdatePayment records the completed payment and the resulting status
func (r *orderRepository) UpdatePayment(ctx context.Context, id uuid.UUID, paymentID, paymentStatus string, paidAt time.Time, status domain.OrderStatus) error {
	query := `
		UPDATE orders
		SET payment_id = $2, payment_status = $3, paid_at = $4, order_status = $5
		WHERE id = $1
	`

	result, err := r.db.ExecContext(ctx, query, id, paymentID, paymentStatus, paidAt, status)
	if err != nil {
		return fmt.Errorf("failed to update order payment: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return ErrOrderNotFound
	}

	return nil
}

// SetPaymentOrderID records the gateway order id created for this order
func (r *orderRepository) SetPaymentOrderID(ctx context.Context, id uuid.UUID, paymentOrderID, paymentStatus string) error {
	query := `UPDATE orders SET payment_id = $2, payment_status = $3 WHERE id = $1`

	result, err := r.db.ExecContext(ctx, query, id, paymentOrderID, paymentStatus)
	if err != nil {
		return fmt.Errorf("failed to set payment order id: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return ErrOrderNotFound
	}

	return nil
}

// Count returns the total number of orders
func (r *orderRepository) Count(ctx context.Context) (int, error) {
	var count int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM orders`).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count orders: %w", err)
	}
	return count, nil
}

// CountPending counts orders still being prepared
func (r *orderRepository) CountPending(ctx context.Context) (int, error) {
	query := `SELECT COUNT(*) FROM orders WHERE order_status IN ($1, $2, $3)`

	var count int
	err := r.db.QueryRowContext(ctx, query,
		domain.StatusProcessing, domain.StatusOrderReceived, domain.StatusInTheKitchen).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count pending orders: %w", err)
	}
	return count, nil
}
