package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"pizza-shop/internal/domain"

	"github.com/google/uuid"
)

var (
	ErrItemNotFound      = errors.New("catalog item not found")
	ErrItemAlreadyExists = errors.New("item with this name already exists in category")
	ErrInvalidCategory   = errors.New("invalid category")
)

// StockOperation selects how AdjustStock applies a quantity.
type StockOperation string

const (
	StockSet      StockOperation = "set"
	StockAdd      StockOperation = "add"
	StockSubtract StockOperation = "subtract"
)

// categoryTables maps a category tag to its collection. Every category-aware
// query goes through this table; the table names are a closed set, never
// client input.
var categoryTables = map[domain.Category]string{
	domain.CategoryBase:   "pizza_bases",
	domain.CategorySauce:  "sauces",
	domain.CategoryCheese: "cheeses",
	domain.CategoryVeggie: "veggies",
	domain.CategoryMeat:   "meats",
}

const itemColumns = `id, name, description, price, image_url, stock, threshold, is_available, created_at, updated_at`

// CatalogRepository defines data access for the five catalog collections.
type CatalogRepository interface {
	Create(ctx context.Context, item *domain.CatalogItem) error
	Update(ctx context.Context, item *domain.CatalogItem) error
	Delete(ctx context.Context, category domain.Category, id uuid.UUID) error
	FindByID(ctx context.Context, category domain.Category, id uuid.UUID) (*domain.CatalogItem, error)
	List(ctx context.Context, category domain.Category, availableOnly bool) ([]*domain.CatalogItem, error)
	ListLowStock(ctx context.Context, category domain.Category) ([]*domain.CatalogItem, error)
	DecrementStock(ctx context.Context, category domain.Category, id uuid.UUID, quantity int) (*domain.CatalogItem, error)
	AdjustStock(ctx context.Context, category domain.Category, id uuid.UUID, op StockOperation, quantity int) (*domain.CatalogItem, error)
	ToggleAvailability(ctx context.Context, category domain.Category, id uuid.UUID) (*domain.CatalogItem, error)
}

type catalogRepository struct {
	db *sql.DB
}

// NewCatalogRepository creates a new instance of CatalogRepository
func NewCatalogRepository(db *sql.DB) CatalogRepository {
	return &catalogRepository{db: db}
}

func tableFor(category domain.Category) (string, error) {
	table, ok := categoryTables[category]
	if !ok {
		return "", ErrInvalidCategory
	}
	return table, nil
}

func scanItem(row interface{ Scan(...any) error }, category domain.Category) (*domain.CatalogItem, error) {
	item := &domain.CatalogItem{Category: category}
	err := row.Scan(
		&item.ID,
		&item.Name,
		&item.Description,
		&item.Price,
		&item.ImageURL,
		&item.Stock,
		&item.Threshold,
		&item.IsAvailable,
		&item.CreatedAt,
		&item.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return item, nil
}

// Create inserts a new item into its category collection
func (r *catalogRepository) Create(ctx context.Context, item *domain.CatalogItem) error {
	table, err := tableFor(item.Category)
	if err != nil {
		return err
	}

	query := fmt.Sprintf(`
		INSERT INTO %s (id, name, description, price, image_url, stock, threshold, is_available, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $6 > 0, $8, $9)
	`, table)

	_, err = r.db.ExecContext(
		ctx,
		query,
		item.ID,
		item.Name,
		item.Description,
		item.Price,
		item.ImageURL,
		item.Stock,
		item.Threshold,
		item.CreatedAt,
		item.UpdatedAt,
	)

	if err != nil {
		if isUniqueViolation(err) {
			return ErrItemAlreadyExists
		}
		return fmt.Errorf("failed to create %s item: %w", item.Category, err)
	}

	item.IsAvailable = item.Stock > 0
	return nil
}

// Update replaces the descriptive fields and stock of an item. Availability is
// recomputed from stock in the same statement.
func (r *catalogRepository) Update(ctx context.Context, item *domain.CatalogItem) error {
	table, err := tableFor(item.Category)
	if err != nil {
		return err
	}

	query := fmt.Sprintf(`
		UPDATE %s
		SET name = $2, description = $3, price = $4, image_url = $5,
		    stock = $6, threshold = $7, is_available = $6 > 0, updated_at = $8
		WHERE id = $1
	`, table)

	result, err := r.db.ExecContext(
		ctx,
		query,
		item.ID,
		item.Name,
		item.Description,
		item.Price,
		item.ImageURL,
		item.Stock,
		item.Threshold,
		item.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrItemAlreadyExists
		}
		return fmt.Errorf("failed to update %s item: %w", item.Category, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return ErrItemNotFound
	}

	item.IsAvailable = item.Stock > 0
	return nil
}

// Delete removes an item. Historical order line items keep their snapshots, so
// deleting a referenced item only orphans the weak back-reference.
func (r *catalogRepository) Delete(ctx context.Context, category domain.Category, id uuid.UUID) error {
	table, err := tableFor(category)
	if err != nil {
		return err
	}

	result, err := r.db.ExecContext(ctx, fmt.Sprintf(`DELETE FROM %s WHERE id = $1`, table), id)
	if err != nil {
		return fmt.Errorf("failed to delete %s item: %w", category, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return ErrItemNotFound
	}

	return nil
}

// FindByID retrieves a single item from its category collection
func (r *catalogRepository) FindByID(ctx context.Context, category domain.Category, id uuid.UUID) (*domain.CatalogItem, error) {
	table, err := tableFor(category)
	if err != nil {
		return nil, err
	}

	query := fmt.Sprintf(`SELECT %s FROM %s WHERE id = $1`, itemColumns, table)

	item, err := scanItem(r.db.QueryRowContext(ctx, query, id), category)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrItemNotFound
		}
		return nil, fmt.Errorf("failed to find %s item: %w", category, err)
	}

	return item, nil
}

// List retrieves items in a category, optionally only available ones
func (r *catalogRepository) List(ctx context.Context, category domain.Category, availableOnly bool) ([]*domain.CatalogItem, error) {
	table, err := tableFor(category)
	if err != nil {
		return nil, err
	}

	query := fmt.Sprintf(`SELECT %s FROM %s`, itemColumns, table)
	if availableOnly {
		query += ` WHERE is_available = TRUE`
	}
	query += ` ORDER BY created_at DESC`

	return r.queryItems(ctx, query, category)
}

// ListLowStock retrieves items at or below their restock threshold, lowest
// stock first.
func (r *catalogRepository) ListLowStock(ctx context.Context, category domain.Category) ([]*domain.CatalogItem, error) {
	table, err := tableFor(category)
	if err != nil {
		return nil, err
	}

	query := fmt.Sprintf(`SELECT %s FROM %s WHERE stock <= threshold ORDER BY stock ASC`, itemColumns, table)
	return r.queryItems(ctx, query, category)
}

// DecrementStock applies an order quantity to an item's stock as a single
// atomic conditional update: stock floors at zero and availability is
// recomputed in the same statement, so concurrent orders cannot race past
// zero.
func (r *catalogRepository) DecrementStock(ctx context.Context, category domain.Category, id uuid.UUID, quantity int) (*domain.CatalogItem, error) {
	table, err := tableFor(category)
	if err != nil {
		return nil, err
	}

	query := fmt.Sprintf(`
		UPDATE %s
		SET stock = GREATEST(stock - $2, 0),
		    is_available = GREATEST(stock - $2, 0) > 0,
		    updated_at = now()
		WHERE id = $1
		RETURNING %s
	`, table, itemColumns)

	item, err := scanItem(r.db.QueryRowContext(ctx, query, id, quantity), category)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrItemNotFound
		}
		return nil, fmt.Errorf("failed to decrement %s stock: %w", category, err)
	}

	return item, nil
}

// AdjustStock sets, adds to, or subtracts from an item's stock. Subtraction
// floors at zero; availability always tracks the new stock.
func (r *catalogRepository) AdjustStock(ctx context.Context, category domain.Category, id uuid.UUID, op StockOperation, quantity int) (*domain.CatalogItem, error) {
	table, err := tableFor(category)
	if err != nil {
		return nil, err
	}

	var expr string
	switch op {
	case StockAdd:
		expr = "stock + $2"
	case StockSubtract:
		expr = "GREATEST(stock - $2, 0)"
	case StockSet:
		expr = "GREATEST($2, 0)"
	default:
		return nil, fmt.Errorf("unknown stock operation %q", op)
	}

	query := fmt.Sprintf(`
		UPDATE %s
		SET stock = %s,
		    is_available = (%s) > 0,
		    updated_at = now()
		WHERE id = $1
		RETURNING %s
	`, table, expr, expr, itemColumns)

	item, err := scanItem(r.db.QueryRowContext(ctx, query, id, quantity), category)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrItemNotFound
		}
		return nil, fmt.Errorf("failed to adjust %s stock: %w", category, err)
	}

	return item, nil
}

// ToggleAvailability flips the availability flag without touching stock
func (r *catalogRepository) ToggleAvailability(ctx context.Context, category domain.Category, id uuid.UUID) (*domain.CatalogItem, error) {
	table, err := tableFor(category)
	if err != nil {
		return nil, err
	}

	query := fmt.Sprintf(`
		UPDATE %s
		SET is_available = NOT is_available, updated_at = now()
		WHERE id = $1
		RETURNING %s
	`, table, itemColumns)

	item, err := scanItem(r.db.QueryRowContext(ctx, query, id), category)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrItemNotFound
		}
		return nil, fmt.Errorf("failed to toggle %s item: %w", category, err)
	}

	return item, nil
}

func (r *catalogRepository) queryItems(ctx context.Context, query string, category domain.Category) ([]*domain.CatalogItem, error) {
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list %s items: %w", category, err)
	}
	defer rows.Close()

	items := []*domain.CatalogItem{}
	for rows.Next() {
		item, err := scanItem(rows, category)
		if err != nil {
			return nil, fmt.Errorf("failed to scan %s item: %w", category, err)
		}
		items = append(items, item)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating %s items: %w", category, err)
	}

	return items, nil
}
