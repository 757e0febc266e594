package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"pizza-shop/internal/domain"
	"pizza-shop/internal/mailer"
	"pizza-shop/internal/payment"
	"pizza-shop/internal/repository"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

var (
	ErrEmptyOrder                = errors.New("order must contain at least one item")
	ErrItemUnavailable           = errors.New("item is not available")
	ErrNotOrderOwner             = errors.New("you are not allowed to access this order")
	ErrOrderNotCancellable       = errors.New("order can no longer be cancelled")
	ErrInvalidOrderStatus        = errors.New("invalid order status")
	ErrPaymentVerificationFailed = errors.New("payment verification failed")
)

// CheckoutLine identifies one catalog item and a quantity in a checkout
// request. Name, price and image are never taken from the client; they are
// snapshotted from the catalog at checkout time.
type CheckoutLine struct {
	Category domain.Category
	ItemID   uuid.UUID
	Quantity int
}

// CheckoutResult is what the client needs to hand off to the payment provider.
type CheckoutResult struct {
	Order            *domain.Order
	PaymentOrderID   string
	AmountMinorUnits int64
	Currency         string
}

// OrderService defines the checkout and order lifecycle business logic
type OrderService interface {
	Checkout(ctx context.Context, userID uuid.UUID, lines []CheckoutLine, shipping domain.ShippingInfo) (*CheckoutResult, error)
	VerifyPayment(ctx context.Context, gatewayOrderID, gatewayPaymentID, signature string) (*domain.Order, error)
	MyOrders(ctx context.Context, userID uuid.UUID) ([]*domain.Order, error)
	GetOrder(ctx context.Context, orderID, requesterID uuid.UUID, requesterRole string) (*domain.Order, error)
	UpdateStatus(ctx context.Context, orderID uuid.UUID, status string) (*domain.Order, error)
	Cancel(ctx context.Context, orderID, requesterID uuid.UUID) (*domain.Order, error)
	List(ctx context.Context, status *domain.OrderStatus, page, pageSize int) ([]*domain.Order, int, error)
	CountOrders(ctx context.Context) (int, error)
	CountPendingOrders(ctx context.Context) (int, error)
}

type orderService struct {
	orderRepo   repository.OrderRepository
	catalogRepo repository.CatalogRepository
	userRepo    repository.UserRepository
	gateway     payment.Gateway
	mail        mailer.Mailer
	currency    string
	logger      *zap.Logger
}

// NewOrderService creates a new instance of OrderService
func NewOrderService(
	orderRepo repository.OrderRepository,
	catalogRepo repository.CatalogRepository,
	userRepo repository.UserRepository,
	gateway payment.Gateway,
	mail mailer.Mailer,
	currency string,
	logger *zap.Logger,
) OrderService {
	return &orderService{
		orderRepo:   orderRepo,
		catalogRepo: catalogRepo,
		userRepo:    userRepo,
		gateway:     gateway,
		mail:        mail,
		currency:    currency,
		logger:      logger,
	}
}

// Checkout snapshots the requested items from the catalog, computes totals,
// persists the order and creates a payment intent for the total. If the
// gateway call fails the freshly created order is deleted again so no
// unpayable order remains.
func (s *orderService) Checkout(ctx context.Context, userID uuid.UUID, lines []CheckoutLine, shipping domain.ShippingInfo) (*CheckoutResult, error) {
	if len(lines) == 0 {
		return nil, ErrEmptyOrder
	}

	items := make([]domain.OrderItem, 0, len(lines))
	for _, line := range lines {
		if line.Quantity <= 0 {
			return nil, fmt.Errorf("%w: quantity must be positive", ErrEmptyOrder)
		}

		item, err := s.catalogRepo.FindByID(ctx, line.Category, line.ItemID)
		if err != nil {
			return nil, err
		}
		if !item.IsAvailable {
			return nil, fmt.Errorf("%w: %s", ErrItemUnavailable, item.Name)
		}

		items = append(items, domain.OrderItem{
			Name:     item.Name,
			Quantity: line.Quantity,
			Price:    item.Price,
			ImageURL: item.ImageURL,
			Category: line.Category,
			ItemID:   item.ID,
		})
	}

	totals := ComputeTotals(items)

	order := &domain.Order{
		ID:            uuid.New(),
		UserID:        userID,
		Items:         items,
		Shipping:      shipping,
		Payment:       domain.PaymentInfo{Status: "pending"},
		ItemsPrice:    totals.ItemsPrice,
		TaxPrice:      totals.TaxPrice,
		ShippingPrice: totals.ShippingPrice,
		TotalPrice:    totals.TotalPrice,
		Status:        domain.StatusOrderReceived,
		CreatedAt:     time.Now(),
	}

	if err := s.orderRepo.Create(ctx, order); err != nil {
		return nil, err
	}

	amount := MinorUnits(order.TotalPrice)
	paymentOrderID, err := s.gateway.CreateOrder(amount, s.currency, "order_"+order.ID.String())
	if err != nil {
		s.logger.Error("Payment intent creation failed, rolling back order",
			zap.String("order_id", order.ID.String()),
			zap.Error(err),
		)
		if delErr := s.orderRepo.Delete(ctx, order.ID); delErr != nil {
			s.logger.Error("Failed to roll back order after gateway failure",
				zap.String("order_id", order.ID.String()),
				zap.Error(delErr),
			)
		}
		return nil, err
	}

	if err := s.orderRepo.SetPaymentOrderID(ctx, order.ID, paymentOrderID, "created"); err != nil {
		return nil, err
	}
	order.Payment = domain.PaymentInfo{ID: paymentOrderID, Status: "created"}

	return &CheckoutResult{
		Order:            order,
		PaymentOrderID:   paymentOrderID,
		AmountMinorUnits: amount,
		Currency:         s.currency,
	}, nil
}

// VerifyPayment validates the gateway's payment signature and, on success,
// marks the order paid and applies the ordered quantities to inventory. A bad
// signature is a hard rejection that leaves the order untouched.
func (s *orderService) VerifyPayment(ctx context.Context, gatewayOrderID, gatewayPaymentID, signature string) (*domain.Order, error) {
	if !s.gateway.VerifySignature(gatewayOrderID, gatewayPaymentID, signature) {
		return nil, ErrPaymentVerificationFailed
	}

	order, err := s.orderRepo.FindByPaymentOrderID(ctx, gatewayOrderID)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	if err := s.orderRepo.UpdatePayment(ctx, order.ID, gatewayPaymentID, "completed", now, domain.StatusOrderReceived); err != nil {
		return nil, err
	}
	order.Payment = domain.PaymentInfo{ID: gatewayPaymentID, Status: "completed"}
	order.PaidAt = &now
	order.Status = domain.StatusOrderReceived

	s.applyInventory(ctx, order)

	return order, nil
}

// applyInventory decrements stock for every line item of a paid order. A
// missing catalog item is logged and skipped rather than failing the payment;
// the money has already moved.
func (s *orderService) applyInventory(ctx context.Context, order *domain.Order) {
	for _, line := range order.Items {
		item, err := s.catalogRepo.DecrementStock(ctx, line.Category, line.ItemID, line.Quantity)
		if err != nil {
			if errors.Is(err, repository.ErrItemNotFound) {
				s.logger.Warn("Ordered item no longer in catalog, skipping stock decrement",
					zap.String("order_id", order.ID.String()),
					zap.String("item_id", line.ItemID.String()),
				)
				continue
			}
			s.logger.Error("Failed to decrement stock",
				zap.String("order_id", order.ID.String()),
				zap.String("item_id", line.ItemID.String()),
				zap.Error(err),
			)
			continue
		}

		if item.IsStockLow() {
			go s.notifyLowStock(item)
		}
	}
}

func (s *orderService) notifyLowStock(item *domain.CatalogItem) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := s.mail.SendLowStockAlert(ctx, item.Name, item.Stock, item.Threshold); err != nil {
		s.logger.Warn("Failed to send low stock alert",
			zap.String("item", item.Name),
			zap.Error(err),
		)
	}
}

// MyOrders lists the requester's own orders, newest first
func (s *orderService) MyOrders(ctx context.Context, userID uuid.UUID) ([]*domain.Order, error) {
	return s.orderRepo.ListByUser(ctx, userID)
}

// GetOrder retrieves a single order. Non-admin requesters may only read their
// own orders.
func (s *orderService) GetOrder(ctx context.Context, orderID, requesterID uuid.UUID, requesterRole string) (*domain.Order, error) {
	order, err := s.orderRepo.FindByID(ctx, orderID)
	if err != nil {
		return nil, err
	}

	if order.UserID != requesterID && requesterRole != domain.RoleAdmin {
		return nil, ErrNotOrderOwner
	}

	return order, nil
}

// UpdateStatus moves an order to a new lifecycle status. A transition to
// Delivered stamps the delivery time. The order's owner is notified by email,
// best-effort.
func (s *orderService) UpdateStatus(ctx context.Context, orderID uuid.UUID, status string) (*domain.Order, error) {
	newStatus := domain.OrderStatus(status)
	if !domain.ValidStatus(newStatus) {
		return nil, ErrInvalidOrderStatus
	}

	order, err := s.orderRepo.FindByID(ctx, orderID)
	if err != nil {
		return nil, err
	}

	var deliveredAt *time.Time
	if newStatus == domain.StatusDelivered {
		now := time.Now()
		deliveredAt = &now
	}

	if err := s.orderRepo.UpdateStatus(ctx, orderID, newStatus, deliveredAt); err != nil {
		return nil, err
	}
	order.Status = newStatus
	if deliveredAt != nil {
		order.DeliveredAt = deliveredAt
	}

	if user, err := s.userRepo.FindByID(ctx, order.UserID); err == nil {
		go s.notifyStatusUpdate(user.Email, order.ID, string(newStatus))
	} else {
		s.logger.Warn("Failed to look up order owner for status notification",
			zap.String("order_id", orderID.String()),
			zap.Error(err),
		)
	}

	return order, nil
}

func (s *orderService) notifyStatusUpdate(email string, orderID uuid.UUID, status string) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := s.mail.SendOrderStatusUpdate(ctx, email, orderID, status); err != nil {
		s.logger.Warn("Failed to send order status email",
			zap.String("order_id", orderID.String()),
			zap.Error(err),
		)
	}
}

// Cancel lets the order's owner cancel an order that has not been delivered
// or already cancelled.
func (s *orderService) Cancel(ctx context.Context, orderID, requesterID uuid.UUID) (*domain.Order, error) {
	order, err := s.orderRepo.FindByID(ctx, orderID)
	if err != nil {
		return nil, err
	}

	if order.UserID != requesterID {
		return nil, ErrNotOrderOwner
	}
	if !order.Status.CanCancel() {
		return nil, ErrOrderNotCancellable
	}

	if err := s.orderRepo.UpdateStatus(ctx, orderID, domain.StatusCancelled, nil); err != nil {
		return nil, err
	}
	order.Status = domain.StatusCancelled

	return order, nil
}

// List retrieves orders for the admin view with optional status filtering
func (s *orderService) List(ctx context.Context, status *domain.OrderStatus, page, pageSize int) ([]*domain.Order, int, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 100 {
		pageSize = 20
	}
	return s.orderRepo.List(ctx, status, page, pageSize)
}

// CountOrders returns the total number of orders
func (s *orderService) CountOrders(ctx context.Context) (int, error) {
	return s.orderRepo.Count(ctx)
}

// CountPendingOrders counts orders still being prepared
func (s *orderService) CountPendingOrders(ctx context.Context) (int, error) {
	return s.orderRepo.CountPending(ctx)
}
