package service

import (
	"context"
	"time"

	"pizza-shop/internal/domain"
	"pizza-shop/internal/mailer"
	"pizza-shop/internal/repository"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ItemInput carries the admin-supplied fields of a catalog item.
type ItemInput struct {
	Name        string
	Description string
	Price       float64
	ImageURL    string
	Stock       int
	Threshold   int
}

// StockUpdateEntry is one entry of a bulk stock update.
type StockUpdateEntry struct {
	Category  domain.Category
	ItemID    uuid.UUID
	Operation repository.StockOperation
	Quantity  int
}

// StockUpdateResult reports the outcome of one bulk update entry.
type StockUpdateResult struct {
	ItemID  uuid.UUID           `json:"itemId"`
	Success bool                `json:"success"`
	Error   string              `json:"error,omitempty"`
	Item    *domain.CatalogItem `json:"item,omitempty"`
}

// LowStockReport summarizes a low stock sweep across all categories.
type LowStockReport struct {
	Items         []*domain.CatalogItem   `json:"items"`
	CountByType   map[domain.Category]int `json:"countByType"`
	AlertsSent    int                     `json:"alertsSent"`
	AlertFailures int                     `json:"alertFailures"`
}

// InventoryService defines catalog and stock management business logic
type InventoryService interface {
	CreateItem(ctx context.Context, category domain.Category, input ItemInput) (*domain.CatalogItem, error)
	UpdateItem(ctx context.Context, category domain.Category, id uuid.UUID, input ItemInput) (*domain.CatalogItem, error)
	DeleteItem(ctx context.Context, category domain.Category, id uuid.UUID) error
	GetItem(ctx context.Context, category domain.Category, id uuid.UUID) (*domain.CatalogItem, error)
	ListItems(ctx context.Context, category domain.Category, availableOnly bool) ([]*domain.CatalogItem, error)
	ListAll(ctx context.Context, availableOnly bool) (map[domain.Category][]*domain.CatalogItem, error)
	AdjustStock(ctx context.Context, category domain.Category, id uuid.UUID, op repository.StockOperation, quantity int) (*domain.CatalogItem, error)
	ToggleAvailability(ctx context.Context, category domain.Category, id uuid.UUID) (*domain.CatalogItem, error)
	BulkStockUpdate(ctx context.Context, entries []StockUpdateEntry) []StockUpdateResult
	ListLowStock(ctx context.Context, category domain.Category) ([]*domain.CatalogItem, error)
	CheckLowStock(ctx context.Context) (*LowStockReport, error)
}

type inventoryService struct {
	catalogRepo repository.CatalogRepository
	mail        mailer.Mailer
	logger      *zap.Logger
}

// NewInventoryService creates a new instance of InventoryService
func NewInventoryService(catalogRepo repository.CatalogRepository, mail mailer.Mailer, logger *zap.Logger) InventoryService {
	return &inventoryService{
		catalogRepo: catalogRepo,
		mail:        mail,
		logger:      logger,
	}
}

// CreateItem adds a new item to a category collection. An unset threshold
// falls back to the category default.
func (s *inventoryService) CreateItem(ctx context.Context, category domain.Category, input ItemInput) (*domain.CatalogItem, error) {
	threshold := input.Threshold
	if threshold <= 0 {
		threshold = category.DefaultThreshold()
	}

	now := time.Now()
	item := &domain.CatalogItem{
		ID:          uuid.New(),
		Category:    category,
		Name:        input.Name,
		Description: input.Description,
		Price:       input.Price,
		ImageURL:    input.ImageURL,
		Stock:       input.Stock,
		Threshold:   threshold,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.catalogRepo.Create(ctx, item); err != nil {
		return nil, err
	}

	return item, nil
}

// UpdateItem replaces an item's descriptive fields and stock
func (s *inventoryService) UpdateItem(ctx context.Context, category domain.Category, id uuid.UUID, input ItemInput) (*domain.CatalogItem, error) {
	item, err := s.catalogRepo.FindByID(ctx, category, id)
	if err != nil {
		return nil, err
	}

	item.Name = input.Name
	item.Description = input.Description
	item.Price = input.Price
	item.ImageURL = input.ImageURL
	item.Stock = input.Stock
	if input.Threshold > 0 {
		item.Threshold = input.Threshold
	}
	item.UpdatedAt = time.Now()

	if err := s.catalogRepo.Update(ctx, item); err != nil {
		return nil, err
	}

	return item, nil
}

// DeleteItem removes an item from its category collection
func (s *inventoryService) DeleteItem(ctx context.Context, category domain.Category, id uuid.UUID) error {
	return s.catalogRepo.Delete(ctx, category, id)
}

// GetItem retrieves a single item
func (s *inventoryService) GetItem(ctx context.Context, category domain.Category, id uuid.UUID) (*domain.CatalogItem, error) {
	return s.catalogRepo.FindByID(ctx, category, id)
}

// ListItems retrieves a category's items
func (s *inventoryService) ListItems(ctx context.Context, category domain.Category, availableOnly bool) ([]*domain.CatalogItem, error) {
	return s.catalogRepo.List(ctx, category, availableOnly)
}

// ListAll retrieves every category's items keyed by category
func (s *inventoryService) ListAll(ctx context.Context, availableOnly bool) (map[domain.Category][]*domain.CatalogItem, error) {
	result := make(map[domain.Category][]*domain.CatalogItem, len(domain.Categories))
	for _, category := range domain.Categories {
		items, err := s.catalogRepo.List(ctx, category, availableOnly)
		if err != nil {
			return nil, err
		}
		result[category] = items
	}
	return result, nil
}

// AdjustStock applies a stock operation and sends a low stock alert when the
// result is at or below the threshold. The alert is best-effort.
func (s *inventoryService) AdjustStock(ctx context.Context, category domain.Category, id uuid.UUID, op repository.StockOperation, quantity int) (*domain.CatalogItem, error) {
	item, err := s.catalogRepo.AdjustStock(ctx, category, id, op, quantity)
	if err != nil {
		return nil, err
	}

	if item.IsStockLow() {
		if err := s.mail.SendLowStockAlert(ctx, item.Name, item.Stock, item.Threshold); err != nil {
			s.logger.Warn("Failed to send low stock alert",
				zap.String("item", item.Name),
				zap.Error(err),
			)
		}
	}

	return item, nil
}

// ToggleAvailability flips an item's availability flag
func (s *inventoryService) ToggleAvailability(ctx context.Context, category domain.Category, id uuid.UUID) (*domain.CatalogItem, error) {
	return s.catalogRepo.ToggleAvailability(ctx, category, id)
}

// BulkStockUpdate applies each entry independently and reports per-entry
// outcomes. One bad entry never aborts the rest.
func (s *inventoryService) BulkStockUpdate(ctx context.Context, entries []StockUpdateEntry) []StockUpdateResult {
	results := make([]StockUpdateResult, 0, len(entries))
	for _, entry := range entries {
		item, err := s.catalogRepo.AdjustStock(ctx, entry.Category, entry.ItemID, entry.Operation, entry.Quantity)
		if err != nil {
			results = append(results, StockUpdateResult{
				ItemID:  entry.ItemID,
				Success: false,
				Error:   err.Error(),
			})
			continue
		}
		results = append(results, StockUpdateResult{
			ItemID:  entry.ItemID,
			Success: true,
			Item:    item,
		})
	}
	return results
}

// ListLowStock retrieves a category's items at or below threshold
func (s *inventoryService) ListLowStock(ctx context.Context, category domain.Category) ([]*domain.CatalogItem, error) {
	return s.catalogRepo.ListLowStock(ctx, category)
}

// CheckLowStock sweeps every category for items at or below their threshold
// and emails the admin about each one.
func (s *inventoryService) CheckLowStock(ctx context.Context) (*LowStockReport, error) {
	report := &LowStockReport{
		Items:       []*domain.CatalogItem{},
		CountByType: make(map[domain.Category]int, len(domain.Categories)),
	}

	for _, category := range domain.Categories {
		items, err := s.catalogRepo.ListLowStock(ctx, category)
		if err != nil {
			return nil, err
		}

		report.CountByType[category] = len(items)
		report.Items = append(report.Items, items...)

		for _, item := range items {
			if err := s.mail.SendLowStockAlert(ctx, item.Name, item.Stock, item.Threshold); err != nil {
				report.AlertFailures++
				s.logger.Warn("Failed to send low stock alert",
					zap.String("item", item.Name),
					zap.Error(err),
				)
				continue
			}
			report.AlertsSent++
		}
	}

	return report, nil
}
