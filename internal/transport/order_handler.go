package transport

import (
	"net/http"

	"pizza-shop/internal/domain"
	"pizza-shop/internal/middleware"
	"pizza-shop/internal/service"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// OrderHandler serves checkout, payment verification and the order lifecycle
type OrderHandler struct {
	orderService service.OrderService
	logger       *zap.Logger
}

// NewOrderHandler creates a new OrderHandler
func NewOrderHandler(orderService service.OrderService, logger *zap.Logger) *OrderHandler {
	return &OrderHandler{
		orderService: orderService,
		logger:       logger,
	}
}

type orderLineRequest struct {
	Category string `json:"category" validate:"required"`
	ItemID   string `json:"item_id" validate:"required,uuid"`
	Quantity int    `json:"quantity" validate:"required,gt=0"`
}

type shippingRequest struct {
	Address string `json:"address" validate:"required,max=200"`
	City    string `json:"city" validate:"required,max=50"`
	State   string `json:"state" validate:"required,max=50"`
	Country string `json:"country" validate:"required,max=50"`
	PinCode string `json:"pin_code" validate:"required,max=10"`
	PhoneNo string `json:"phone_no" validate:"required,max=15"`
}

type createOrderRequest struct {
	Items    []orderLineRequest `json:"items" validate:"required,min=1,dive"`
	Shipping shippingRequest    `json:"shipping_info" validate:"required"`
}

type verifyPaymentRequest struct {
	RazorpayOrderID   string `json:"razorpay_order_id" validate:"required"`
	RazorpayPaymentID string `json:"razorpay_payment_id" validate:"required"`
	RazorpaySignature string `json:"razorpay_signature" validate:"required"`
}

type updateStatusRequest struct {
	Status string `json:"status" validate:"required"`
}

// Create places an order and returns the payment intent the client completes
func (h *OrderHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID, ok := requesterID(r)
	if !ok {
		middleware.RespondWithError(w, http.StatusUnauthorized, "invalid token claims")
		return
	}

	var req createOrderRequest
	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		middleware.RespondWithValidationErrors(w, middleware.FormatValidationErrors(err))
		return
	}

	lines := make([]service.CheckoutLine, 0, len(req.Items))
	for _, item := range req.Items {
		category, ok := domain.ParseCategory(item.Category)
		if !ok {
			middleware.RespondWithError(w, http.StatusBadRequest, "invalid category: "+item.Category)
			return
		}
		itemID, err := uuid.Parse(item.ItemID)
		if err != nil {
			middleware.RespondWithError(w, http.StatusBadRequest, "invalid item id: "+item.ItemID)
			return
		}
		lines = append(lines, service.CheckoutLine{
			Category: category,
			ItemID:   itemID,
			Quantity: item.Quantity,
		})
	}

	result, err := h.orderService.Checkout(r.Context(), userID, lines, domain.ShippingInfo{
		Address: req.Shipping.Address,
		City:    req.Shipping.City,
		State:   req.Shipping.State,
		Country: req.Shipping.Country,
		PinCode: req.Shipping.PinCode,
		PhoneNo: req.Shipping.PhoneNo,
	})
	if err != nil {
		respondServiceError(w, h.logger, err)
		return
	}

	middleware.RespondWithJSON(w, http.StatusCreated, map[string]interface{}{
		"success": true,
		"message": "Order created successfully",
		"order":   result.Order,
		"payment": map[string]interface{}{
			"order_id": result.PaymentOrderID,
			"amount":   result.AmountMinorUnits,
			"currency": result.Currency,
		},
	})
}

// VerifyPayment validates the gateway signature and marks the order paid
func (h *OrderHandler) VerifyPayment(w http.ResponseWriter, r *http.Request) {
	var req verifyPaymentRequest
	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		middleware.RespondWithValidationErrors(w, middleware.FormatValidationErrors(err))
		return
	}

	order, err := h.orderService.VerifyPayment(r.Context(), req.RazorpayOrderID, req.RazorpayPaymentID, req.RazorpaySignature)
	if err != nil {
		respondServiceError(w, h.logger, err)
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"message": "Payment verified successfully",
		"order":   order,
	})
}

// MyOrders lists the authenticated user's orders
func (h *OrderHandler) MyOrders(w http.ResponseWriter, r *http.Request) {
	userID, ok := requesterID(r)
	if !ok {
		middleware.RespondWithError(w, http.StatusUnauthorized, "invalid token claims")
		return
	}

	orders, err := h.orderService.MyOrders(r.Context(), userID)
	if err != nil {
		respondServiceError(w, h.logger, err)
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"count":   len(orders),
		"orders":  orders,
	})
}

// GetOrder returns a single order to its owner or an admin
func (h *OrderHandler) GetOrder(w http.ResponseWriter, r *http.Request) {
	userID, ok := requesterID(r)
	if !ok {
		middleware.RespondWithError(w, http.StatusUnauthorized, "invalid token claims")
		return
	}

	orderID, err := uuidParam(r, "id")
	if err != nil {
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid order id")
		return
	}

	role, _ := middleware.GetUserRole(r.Context())

	order, err := h.orderService.GetOrder(r.Context(), orderID, userID, role)
	if err != nil {
		respondServiceError(w, h.logger, err)
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"order":   order,
	})
}

// UpdateStatus moves an order to a new lifecycle status
func (h *OrderHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	orderID, err := uuidParam(r, "id")
	if err != nil {
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid order id")
		return
	}

	var req updateStatusRequest
	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		middleware.RespondWithValidationErrors(w, middleware.FormatValidationErrors(err))
		return
	}

	order, err := h.orderService.UpdateStatus(r.Context(), orderID, req.Status)
	if err != nil {
		respondServiceError(w, h.logger, err)
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"message": "Order status updated",
		"order":   order,
	})
}

// Cancel lets the order's owner cancel an undelivered order
func (h *OrderHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	userID, ok := requesterID(r)
	if !ok {
		middleware.RespondWithError(w, http.StatusUnauthorized, "invalid token claims")
		return
	}

	orderID, err := uuidParam(r, "id")
	if err != nil {
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid order id")
		return
	}

	order, err := h.orderService.Cancel(r.Context(), orderID, userID)
	if err != nil {
		respondServiceError(w, h.logger, err)
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"message": "Order cancelled",
		"order":   order,
	})
}
