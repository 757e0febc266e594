package transport

import (
	"net/http"

	"pizza-shop/internal/domain"
	"pizza-shop/internal/middleware"
	"pizza-shop/internal/service"

	"go.uber.org/zap"
)

// CatalogHandler serves the public, read-only catalog endpoints. Listing
// endpoints only show available items; stock numbers stay internal.
type CatalogHandler struct {
	inventoryService service.InventoryService
	logger           *zap.Logger
}

// NewCatalogHandler creates a new CatalogHandler
func NewCatalogHandler(inventoryService service.InventoryService, logger *zap.Logger) *CatalogHandler {
	return &CatalogHandler{
		inventoryService: inventoryService,
		logger:           logger,
	}
}

// ListCategory returns a handler listing one category's available items
func (h *CatalogHandler) ListCategory(category domain.Category) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		items, err := h.inventoryService.ListItems(r.Context(), category, true)
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
}

// ListAll returns the available items of all five categories
func (h *CatalogHandler) ListAll(w http.ResponseWriter, r *http.Request) {
	all, err := h.inventoryService.ListAll(r.Context(), true)
	if err != nil {
		respondServiceError(w, h.logger, err)
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"items":   all,
	})
}

// GetItem returns a single catalog item by category and id
func (h *CatalogHandler) GetItem(w http.ResponseWriter, r *http.Request) {
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
