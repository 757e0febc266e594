package transport

import (
	"net/http"
	"strconv"

	"pizza-shop/internal/domain"
	"pizza-shop/internal/middleware"
	"pizza-shop/internal/repository"
	"pizza-shop/internal/service"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// InventoryHandler serves the admin-only catalog and stock management
// endpoints.
type InventoryHandler struct {
	inventoryService service.InventoryService
	logger           *zap.Logger
}

// NewInventoryHandler creates a new InventoryHandler
func NewInventoryHandler(inventoryService service.InventoryService, logger *zap.Logger) *InventoryHandler {
	return &InventoryHandler{
		inventoryService: inventoryService,
		logger:           logger,
	}
}

type itemRequest struct {
	Name        string  `json:"name" validate:"required,min=2,max=100"`
	Description string  `json:"description" validate:"max=500"`
	Price       float64 `json:"price" validate:"required,gt=0"`
	ImageURL    string  `json:"image_url" validate:"omitempty,url"`
	Stock       int     `json:"stock" validate:"gte=0"`
	Threshold   int     `json:"threshold" validate:"gte=0"`
}

type stockUpdateRequest struct {
	Operation string `json:"operation" validate:"required,oneof=set add subtract"`
	Quantity  int    `json:"quantity" validate:"gte=0"`
}

type bulkStockEntryRequest struct {
	Category  string `json:"category" validate:"required"`
	ItemID    string `json:"item_id" validate:"required,uuid"`
	Operation string `json:"operation" validate:"required,oneof=set add subtract"`
	Quantity  int    `json:"quantity" validate:"gte=0"`
}

type bulkStockUpdateRequest struct {
	Updates []bulkStockEntryRequest `json:"updates" validate:"required,min=1,dive"`
}

// List returns a category's items, all of them unless ?available=true
func (h *InventoryHandler) List(w http.ResponseWriter, r *http.Request) {
	category, ok := categoryParam(r)
	if !ok {
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid category")
		return
	}

	availableOnly, _ := strconv.ParseBool(r.URL.Query().Get("available"))

	items, err := h.inventoryService.ListItems(r.Context(), category, availableOnly)
	if err != nil {
		respondServiceError(w, h.logger, err)
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"count":   len(items),
		"items":   items,
	})
}

// Create adds a new item to a category
func (h *InventoryHandler) Create(w http.ResponseWriter, r *http.Request) {
	category, ok := categoryParam(r)
	if !ok {
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid category")
		return
	}

	var req itemRequest
	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		middleware.RespondWithValidationErrors(w, middleware.FormatValidationErrors(err))
		return
	}

	item, err := h.inventoryService.CreateItem(r.Context(), category, service.ItemInput{
		Name:        req.Name,
		Description: req.Description,
		Price:       req.Price,
		ImageURL:    req.ImageURL,
		Stock:       req.Stock,
		Threshold:   req.Threshold,
	})
	if err != nil {
		respondServiceError(w, h.logger, err)
		return
	}

	middleware.RespondWithJSON(w, http.StatusCreated, map[string]interface{}{
		"success": true,
		"message": "Item created successfully",
		"item":    item,
	})
}

// Get returns a single item including its stock and threshold
func (h *InventoryHandler) Get(w http.ResponseWriter, r *http.Request) {
	category, ok := categoryParam(r)
	if !ok {
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid category")
		return
	}

	id, err := uuidParam(r, "id")
	if err != nil {
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid item id")
		return
	}

	item, err := h.inventoryService.GetItem(r.Context(), category, id)
	if err != nil {
		respondServiceError(w, h.logger, err)
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"item":    item,
	})
}

// Update replaces an item's fields
func (h *InventoryHandler) Update(w http.ResponseWriter, r *http.Request) {
	category, ok := categoryParam(r)
	if !ok {
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid category")
		return
	}

	id, err := uuidParam(r, "id")
	if err != nil {
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid item id")
		return
	}

	var req itemRequest
	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		middleware.RespondWithValidationErrors(w, middleware.FormatValidationErrors(err))
		return
	}

	item, err := h.inventoryService.UpdateItem(r.Context(), category, id, service.ItemInput{
		Name:        req.Name,
		Description: req.Description,
		Price:       req.Price,
		ImageURL:    req.ImageURL,
		Stock:       req.Stock,
		Threshold:   req.Threshold,
	})
	if err != nil {
		respondServiceError(w, h.logger, err)
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"message": "Item updated successfully",
		"item":    item,
	})
}

// Delete removes an item from its category
func (h *InventoryHandler) Delete(w http.ResponseWriter, r *http.Request) {
	category, ok := categoryParam(r)
	if !ok {
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid category")
		return
	}

	id, err := uuidParam(r, "id")
	if err != nil {
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid item id")
		return
	}

	if err := h.inventoryService.DeleteItem(r.Context(), category, id); err != nil {
		respondServiceError(w, h.logger, err)
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"message": "Item deleted successfully",
	})
}

// UpdateStock applies a set, add or subtract operation to an item's stock
func (h *InventoryHandler) UpdateStock(w http.ResponseWriter, r *http.Request) {
	category, ok := categoryParam(r)
	if !ok {
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid category")
		return
	}

	id, err := uuidParam(r, "id")
	if err != nil {
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid item id")
		return
	}

	var req stockUpdateRequest
	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		middleware.RespondWithValidationErrors(w, middleware.FormatValidationErrors(err))
		return
	}

	item, err := h.inventoryService.AdjustStock(r.Context(), category, id, repository.StockOperation(req.Operation), req.Quantity)
	if err != nil {
		respondServiceError(w, h.logger, err)
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"message": "Stock updated successfully",
		"item":    item,
	})
}

// Toggle flips an item's availability without touching stock
func (h *InventoryHandler) Toggle(w http.ResponseWriter, r *http.Request) {
	category, ok := categoryParam(r)
	if !ok {
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid category")
		return
	}

	id, err := uuidParam(r, "id")
	if err != nil {
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid item id")
		return
	}

	item, err := h.inventoryService.ToggleAvailability(r.Context(), category, id)
	if err != nil {
		respondServiceError(w, h.logger, err)
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"message": "Availability toggled",
		"item":    item,
	})
}

// BulkStockUpdate applies several stock operations and reports per-entry
// outcomes with a 200 regardless of individual failures.
func (h *InventoryHandler) BulkStockUpdate(w http.ResponseWriter, r *http.Request) {
	var req bulkStockUpdateRequest
	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		middleware.RespondWithValidationErrors(w, middleware.FormatValidationErrors(err))
		return
	}

	entries := make([]service.StockUpdateEntry, 0, len(req.Updates))
	for _, update := range req.Updates {
		category, ok := domain.ParseCategory(update.Category)
		if !ok {
			middleware.RespondWithError(w, http.StatusBadRequest, "invalid category: "+update.Category)
			return
		}
		itemID, err := uuid.Parse(update.ItemID)
		if err != nil {
			middleware.RespondWithError(w, http.StatusBadRequest, "invalid item id: "+update.ItemID)
			return
		}
		entries = append(entries, service.StockUpdateEntry{
			Category:  category,
			ItemID:    itemID,
			Operation: repository.StockOperation(update.Operation),
			Quantity:  update.Quantity,
		})
	}

	results := h.inventoryService.BulkStockUpdate(r.Context(), entries)

	middleware.RespondWithJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"results": results,
	})
}

// LowStock returns a category's items at or below their restock threshold
func (h *InventoryHandler) LowStock(w http.ResponseWriter, r *http.Request) {
	category, ok := categoryParam(r)
	if !ok {
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid category")
		return
	}

	items, err := h.inventoryService.ListLowStock(r.Context(), category)
	if err != nil {
		respondServiceError(w, h.logger, err)
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"count":   len(items),
		"items":   items,
	})
}
