package service

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"pizza-shop/internal/domain"
	"pizza-shop/internal/repository"

	"github.com/google/uuid"
)

// In-memory doubles for the repository, gateway and mailer interfaces. They
// are mutex-guarded because some service paths notify from goroutines.

type mockUserRepository struct {
	mu    sync.Mutex
	users map[uuid.UUID]*domain.User
}

func newMockUserRepository() *mockUserRepository {
	return &mockUserRepository{users: make(map[uuid.UUID]*domain.User)}
}

func (m *mockUserRepository) Create(ctx context.Context, user *domain.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if strings.EqualFold(u.Email, user.Email) {
			return repository.ErrUserAlreadyExists
		}
	}
	clone := *user
	m.users[user.ID] = &clone
	return nil
}

func (m *mockUserRepository) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if strings.EqualFold(u.Email, email) {
			clone := *u
			return &clone, nil
		}
	}
	return nil, repository.ErrUserNotFound
}

func (m *mockUserRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return nil, repository.ErrUserNotFound
	}
	clone := *u
	return &clone, nil
}

func (m *mockUserRepository) UpdateProfile(ctx context.Context, user *domain.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	stored, ok := m.users[user.ID]
	if !ok {
		return repository.ErrUserNotFound
	}
	for id, u := range m.users {
		if id != user.ID && strings.EqualFold(u.Email, user.Email) {
			return repository.ErrUserAlreadyExists
		}
	}
	stored.Name = user.Name
	stored.Email = user.Email
	stored.Address = user.Address
	stored.City = user.City
	stored.State = user.State
	stored.Country = user.Country
	stored.PinCode = user.PinCode
	stored.PhoneNo = user.PhoneNo
	return nil
}

func (m *mockUserRepository) UpdatePassword(ctx context.Context, id uuid.UUID, passwordHash string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return repository.ErrUserNotFound
	}
	u.PasswordHash = passwordHash
	return nil
}

func (m *mockUserRepository) Delete(ctx context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.users[id]; !ok {
		return repository.ErrUserNotFound
	}
	delete(m.users, id)
	return nil
}

func (m *mockUserRepository) SetVerificationToken(ctx context.Context, id uuid.UUID, tokenHash string, expire time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return repository.ErrUserNotFound
	}
	u.EmailVerificationToken = tokenHash
	u.EmailVerificationExpire = &expire
	return nil
}

func (m *mockUserRepository) RedeemVerificationToken(ctx context.Context, tokenHash string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.EmailVerificationToken == tokenHash && tokenHash != "" &&
			u.EmailVerificationExpire != nil && u.EmailVerificationExpire.After(time.Now()) {
			u.IsEmailVerified = true
			u.EmailVerificationToken = ""
			u.EmailVerificationExpire = nil
			return nil
		}
	}
	return repository.ErrTokenInvalid
}

func (m *mockUserRepository) SetResetToken(ctx context.Context, id uuid.UUID, tokenHash string, expire time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return repository.ErrUserNotFound
	}
	u.ResetPasswordToken = tokenHash
	u.ResetPasswordExpire = &expire
	return nil
}

func (m *mockUserRepository) ClearResetToken(ctx context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return repository.ErrUserNotFound
	}
	u.ResetPasswordToken = ""
	u.ResetPasswordExpire = nil
	return nil
}

func (m *mockUserRepository) RedeemResetToken(ctx context.Context, tokenHash, passwordHash string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.ResetPasswordToken == tokenHash && tokenHash != "" &&
			u.ResetPasswordExpire != nil && u.ResetPasswordExpire.After(time.Now()) {
			u.PasswordHash = passwordHash
			u.ResetPasswordToken = ""
			u.ResetPasswordExpire = nil
			return nil
		}
	}
	return repository.ErrTokenInvalid
}

func (m *mockUserRepository) ListByRole(ctx context.Context, role string) ([]*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	users := []*domain.User{}
	for _, u := range m.users {
		if u.Role == role {
			clone := *u
			users = append(users, &clone)
		}
	}
	return users, nil
}

func (m *mockUserRepository) CountByRole(ctx context.Context, role string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	count := 0
	for _, u := range m.users {
		if u.Role == role {
			count++
		}
	}
	return count, nil
}

type mockCatalogRepository struct {
	mu    sync.Mutex
	items map[domain.Category]map[uuid.UUID]*domain.CatalogItem
}

func newMockCatalogRepository() *mockCatalogRepository {
	items := make(map[domain.Category]map[uuid.UUID]*domain.CatalogItem)
	for _, c := range domain.Categories {
		items[c] = make(map[uuid.UUID]*domain.CatalogItem)
	}
	return &mockCatalogRepository{items: items}
}

func (m *mockCatalogRepository) collection(category domain.Category) (map[uuid.UUID]*domain.CatalogItem, error) {
	coll, ok := m.items[category]
	if !ok {
		return nil, repository.ErrInvalidCategory
	}
	return coll, nil
}

func (m *mockCatalogRepository) Create(ctx context.Context, item *domain.CatalogItem) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	coll, err := m.collection(item.Category)
	if err != nil {
		return err
	}
	for _, existing := range coll {
		if existing.Name == item.Name {
			return repository.ErrItemAlreadyExists
		}
	}
	item.IsAvailable = item.Stock > 0
	clone := *item
	coll[item.ID] = &clone
	return nil
}

func (m *mockCatalogRepository) Update(ctx context.Context, item *domain.CatalogItem) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	coll, err := m.collection(item.Category)
	if err != nil {
		return err
	}
	if _, ok := coll[item.ID]; !ok {
		return repository.ErrItemNotFound
	}
	item.IsAvailable = item.Stock > 0
	clone := *item
	coll[item.ID] = &clone
	return nil
}

func (m *mockCatalogRepository) Delete(ctx context.Context, category domain.Category, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	coll, err := m.collection(category)
	if err != nil {
		return err
	}
	if _, ok := coll[id]; !ok {
		return repository.ErrItemNotFound
	}
	delete(coll, id)
	return nil
}

func (m *mockCatalogRepository) FindByID(ctx context.Context, category domain.Category, id uuid.UUID) (*domain.CatalogItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	coll, err := m.collection(category)
	if err != nil {
		return nil, err
	}
	item, ok := coll[id]
	if !ok {
		return nil, repository.ErrItemNotFound
	}
	clone := *item
	return &clone, nil
}

func (m *mockCatalogRepository) List(ctx context.Context, category domain.Category, availableOnly bool) ([]*domain.CatalogItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	coll, err := m.collection(category)
	if err != nil {
		return nil, err
	}
	items := []*domain.CatalogItem{}
	for _, item := range coll {
		if availableOnly && !item.IsAvailable {
			continue
		}
		clone := *item
		items = append(items, &clone)
	}
	return items, nil
}

func (m *mockCatalogRepository) ListLowStock(ctx context.Context, category domain.Category) ([]*domain.CatalogItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	coll, err := m.collection(category)
	if err != nil {
		return nil, err
	}
	items := []*domain.CatalogItem{}
	for _, item := range coll {
		if item.Stock <= item.Threshold {
			clone := *item
			items = append(items, &clone)
		}
	}
	return items, nil
}

func (m *mockCatalogRepository) DecrementStock(ctx context.Context, category domain.Category, id uuid.UUID, quantity int) (*domain.CatalogItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	coll, err := m.collection(category)
	if err != nil {
		return nil, err
	}
	item, ok := coll[id]
	if !ok {
		return nil, repository.ErrItemNotFound
	}
	item.Stock -= quantity
	if item.Stock < 0 {
		item.Stock = 0
	}
	item.IsAvailable = item.Stock > 0
	clone := *item
	return &clone, nil
}

func (m *mockCatalogRepository) AdjustStock(ctx context.Context, category domain.Category, id uuid.UUID, op repository.StockOperation, quantity int) (*domain.CatalogItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	coll, err := m.collection(category)
	if err != nil {
		return nil, err
	}
	item, ok := coll[id]
	if !ok {
		return nil, repository.ErrItemNotFound
	}
	switch op {
	case repository.StockSet:
		item.Stock = quantity
	case repository.StockAdd:
		item.Stock += quantity
	case repository.StockSubtract:
		item.Stock -= quantity
	default:
		return nil, errors.New("unknown stock operation")
	}
	if item.Stock < 0 {
		item.Stock = 0
	}
	item.IsAvailable = item.Stock > 0
	clone := *item
	return &clone, nil
}

func (m *mockCatalogRepository) ToggleAvailability(ctx context.Context, category domain.Category, id uuid.UUID) (*domain.CatalogItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	coll, err := m.collection(category)
	if err != nil {
		return nil, err
	}
	item, ok := coll[id]
	if !ok {
		return nil, repository.ErrItemNotFound
	}
	item.IsAvailable = !item.IsAvailable
	clone := *item
	return &clone, nil
}

type mockOrderRepository struct {
	mu     sync.Mutex
	orders map[uuid.UUID]*domain.Order
}

func newMockOrderRepository() *mockOrderRepository {
	return &mockOrderRepository{orders: make(map[uuid.UUID]*domain.Order)}
}

func (m *mockOrderRepository) Create(ctx context.Context, order *domain.Order) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	clone := *order
	m.orders[order.ID] = &clone
	return nil
}

func (m *mockOrderRepository) Delete(ctx context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.orders[id]; !ok {
		return repository.ErrOrderNotFound
	}
	delete(m.orders, id)
	return nil
}

func (m *mockOrderRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	order, ok := m.orders[id]
	if !ok {
		return nil, repository.ErrOrderNotFound
	}
	clone := *order
	return &clone, nil
}

func (m *mockOrderRepository) FindByPaymentOrderID(ctx context.Context, paymentOrderID string) (*domain.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, order := range m.orders {
		if order.Payment.ID == paymentOrderID {
			clone := *order
			return &clone, nil
		}
	}
	return nil, repository.ErrOrderNotFound
}

func (m *mockOrderRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]*domain.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	orders := []*domain.Order{}
	for _, order := range m.orders {
		if order.UserID == userID {
			clone := *order
			orders = append(orders, &clone)
		}
	}
	return orders, nil
}

func (m *mockOrderRepository) List(ctx context.Context, status *domain.OrderStatus, page, pageSize int) ([]*domain.Order, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	orders := []*domain.Order{}
	for _, order := range m.orders {
		if status != nil && order.Status != *status {
			continue
		}
		clone := *order
		orders = append(orders, &clone)
	}
	return orders, len(orders), nil
}

func (m *mockOrderRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status domain.OrderStatus, deliveredAt *time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	order, ok := m.orders[id]
	if !ok {
		return repository.ErrOrderNotFound
	}
	order.Status = status
	if deliveredAt != nil {
		order.DeliveredAt = deliveredAt
	}
	return nil
}

func (m *mockOrderRepository) UpdatePayment(ctx context.Context, id uuid.UUID, paymentID, paymentStatus string, paidAt time.Time, status domain.OrderStatus) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	order, ok := m.orders[id]
	if !ok {
		return repository.ErrOrderNotFound
	}
	order.Payment = domain.PaymentInfo{ID: paymentID, Status: paymentStatus}
	order.PaidAt = &paidAt
	order.Status = status
	return nil
}

func (m *mockOrderRepository) SetPaymentOrderID(ctx context.Context, id uuid.UUID, paymentOrderID, paymentStatus string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	order, ok := m.orders[id]
	if !ok {
		return repository.ErrOrderNotFound
	}
	order.Payment = domain.PaymentInfo{ID: paymentOrderID, Status: paymentStatus}
	return nil
}

func (m *mockOrderRepository) Count(ctx context.Context) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.orders), nil
}

func (m *mockOrderRepository) CountPending(ctx context.Context) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	count := 0
	for _, order := range m.orders {
		switch order.Status {
		case domain.StatusProcessing, domain.StatusOrderReceived, domain.StatusInTheKitchen:
			count++
		}
	}
	return count, nil
}

type mockGateway struct {
	mu           sync.Mutex
	failCreate   bool
	validPayment bool
	created      []int64
	nextOrderID  string
}

func newMockGateway() *mockGateway {
	return &mockGateway{validPayment: true, nextOrderID: "order_rzp_test"}
}

func (m *mockGateway) CreateOrder(amountMinorUnits int64, currency, receipt string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failCreate {
		return "", errors.New("gateway unavailable")
	}
	m.created = append(m.created, amountMinorUnits)
	return m.nextOrderID, nil
}

func (m *mockGateway) VerifySignature(gatewayOrderID, gatewayPaymentID, signature string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.validPayment
}

type sentEmail struct {
	kind  string
	to    string
	item  string
	token string
}

type mockMailer struct {
	mu       sync.Mutex
	failSend bool
	sent     []sentEmail
}

func newMockMailer() *mockMailer {
	return &mockMailer{}
}

func (m *mockMailer) record(email sentEmail) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failSend {
		return errors.New("smtp connection refused")
	}
	m.sent = append(m.sent, email)
	return nil
}

func (m *mockMailer) sentOfKind(kind string) []sentEmail {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []sentEmail
	for _, e := range m.sent {
		if e.kind == kind {
			out = append(out, e)
		}
	}
	return out
}

func (m *mockMailer) SendVerificationEmail(ctx context.Context, email, token string) error {
	return m.record(sentEmail{kind: "verification", to: email, token: token})
}

func (m *mockMailer) SendPasswordResetEmail(ctx context.Context, email, token string) error {
	return m.record(sentEmail{kind: "reset", to: email, token: token})
}

func (m *mockMailer) SendLowStockAlert(ctx context.Context, itemName string, stock, threshold int) error {
	return m.record(sentEmail{kind: "low_stock", item: itemName})
}

func (m *mockMailer) SendOrderStatusUpdate(ctx context.Context, email string, orderID uuid.UUID, status string) error {
	return m.record(sentEmail{kind: "status", to: email})
}
