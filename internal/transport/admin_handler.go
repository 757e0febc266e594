package transport

import (
	"net/http"
	"sort"
	"strconv"

	"pizza-shop/internal/domain"
	"pizza-shop/internal/middleware"
	"pizza-shop/internal/service"

	"go.uber.org/zap"
)

// AdminHandler serves the admin dashboard and management endpoints
type AdminHandler struct {
	userService      service.UserService
	orderService     service.OrderService
	inventoryService service.InventoryService
	logger           *zap.Logger
}

// NewAdminHandler creates a new AdminHandler
func NewAdminHandler(
	userService service.UserService,
	orderService service.OrderService,
	inventoryService service.InventoryService,
	logger *zap.Logger,
) *AdminHandler {
	return &AdminHandler{
		userService:      userService,
		orderService:     orderService,
		inventoryService: inventoryService,
		logger:           logger,
	}
}

type createAdminRequest struct {
	Name     string `json:"name" validate:"required,min=2,max=50"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
}

// Dashboard aggregates the counts and low stock summary for the admin view
func (h *AdminHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	totalOrders, err := h.orderService.CountOrders(ctx)
	if err != nil {
		respondServiceError(w, h.logger, err)
		return
	}

	pendingOrders, err := h.orderService.CountPendingOrders(ctx)
	if err != nil {
		respondServiceError(w, h.logger, err)
		return
	}

	totalUsers, err := h.userService.CountUsers(ctx)
	if err != nil {
		respondServiceError(w, h.logger, err)
		return
	}

	lowStock := map[domain.Category][]*domain.CatalogItem{}
	for _, category := range domain.Categories {
		items, err := h.inventoryService.ListLowStock(ctx, category)
		if err != nil {
			respondServiceError(w, h.logger, err)
			return
		}
		lowStock[category] = items
	}

	middleware.RespondWithJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"stats": map[string]interface{}{
			"total_orders":   totalOrders,
			"pending_orders": pendingOrders,
			"total_users":    totalUsers,
			"low_stock":      lowStock,
		},
	})
}

// Orders lists all orders with optional status filter and pagination
func (h *AdminHandler) Orders(w http.ResponseWriter, r *http.Request) {
	var status *domain.OrderStatus
	if raw := r.URL.Query().Get("status"); raw != "" {
		s := domain.OrderStatus(raw)
		if !domain.ValidStatus(s) {
			middleware.RespondWithError(w, http.StatusBadRequest, "invalid order status")
			return
		}
		status = &s
	}

	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	pageSize, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	orders, total, err := h.orderService.List(r.Context(), status, page, pageSize)
	if err != nil {
		respondServiceError(w, h.logger, err)
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"total":   total,
		"count":   len(orders),
		"orders":  orders,
	})
}

// Users lists all non-admin users
func (h *AdminHandler) Users(w http.ResponseWriter, r *http.Request) {
	users, err := h.userService.ListUsers(r.Context())
	if err != nil {
		respondServiceError(w, h.logger, err)
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"count":   len(users),
		"users":   users,
	})
}

// CreateAdmin creates a new auto-verified admin account
func (h *AdminHandler) CreateAdmin(w http.ResponseWriter, r *http.Request) {
	var req createAdminRequest
	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		middleware.RespondWithValidationErrors(w, middleware.FormatValidationErrors(err))
		return
	}

	user, err := h.userService.CreateAdmin(r.Context(), req.Name, req.Email, req.Password)
	if err != nil {
		respondServiceError(w, h.logger, err)
		return
	}

	middleware.RespondWithJSON(w, http.StatusCreated, map[string]interface{}{
		"success": true,
		"message": "Admin created successfully",
		"user":    user,
	})
}

// Inventory returns every category's items sorted by stock, lowest first
func (h *AdminHandler) Inventory(w http.ResponseWriter, r *http.Request) {
	all, err := h.inventoryService.ListAll(r.Context(), false)
	if err != nil {
		respondServiceError(w, h.logger, err)
		return
	}

	for _, items := range all {
		sort.Slice(items, func(i, j int) bool {
			return items[i].Stock < items[j].Stock
		})
	}

	middleware.RespondWithJSON(w, http.StatusOK, map[string]interface{}{
		"success":   true,
		"inventory": all,
	})
}

// CheckLowStock sweeps all categories and emails the admin about each low
// stock item.
func (h *AdminHandler) CheckLowStock(w http.ResponseWriter, r *http.Request) {
	report, err := h.inventoryService.CheckLowStock(r.Context())
	if err != nil {
		respondServiceError(w, h.logger, err)
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"report":  report,
	})
}
