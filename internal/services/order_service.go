// internal/services/order_service.go
package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/javajoker/marketplace-backend/internal/config"
	"github.com/javajoker/marketplace-backend/internal/database"
	"github.com/javajoker/marketplace-backend/internal/i18n"
	"github.com/javajoker/marketplace-backend/internal/models"
)

const tracerName = "github.com/javajoker/marketplace-backend/internal/services"

// OrderService is the order engine: it turns line items into a pending
// order and moves orders through payment.
type OrderService struct {
	db       *gorm.DB
	payments PaymentConfirmer
	cfg      config.OrderConfig
	tracer   trace.Tracer
}

type OrderLineRequest struct {
	ProductID uuid.UUID       `json:"product_id"`
	Quantity  int             `json:"quantity"`
	Price     decimal.Decimal `json:"price"`
}

type CreateOrderRequest struct {
	ShippingAddress string             `json:"shipping_address"`
	Items           []OrderLineRequest `json:"items"`
}

type PayOrderRequest struct {
	PaymentMethod string `json:"payment_method"`
}

type PaymentConfirmation struct {
	OrderID       uuid.UUID          `json:"order_id"`
	Status        models.OrderStatus `json:"status"`
	PaymentMethod string             `json:"payment_method"`
	Provider      string             `json:"provider"`
	Reference     string             `json:"payment_reference"`
	PaidAt        time.Time          `json:"paid_at"`
	Message       string             `json:"message"`
}

// Extended order view with product snapshots
type OrderProductSnapshot struct {
	ID       uuid.UUID       `json:"id"`
	Name     string          `json:"name"`
	Price    decimal.Decimal `json:"price"`
	ImageURL string          `json:"image_url"`
}

type ExtendedOrderItem struct {
	ID        uuid.UUID             `json:"id"`
	ProductID uuid.UUID             `json:"product_id"`
	Position  int                   `json:"position"`
	Quantity  int                   `json:"quantity"`
	Price     decimal.Decimal       `json:"price"`
	Subtotal  decimal.Decimal       `json:"subtotal"`
	Product   *OrderProductSnapshot `json:"product"`
}

type ExtendedOrder struct {
	ID               uuid.UUID           `json:"id"`
	BuyerID          uuid.UUID           `json:"buyer_id"`
	TotalAmount      decimal.Decimal     `json:"total_amount"`
	Status           models.OrderStatus  `json:"status"`
	ShippingAddress  string              `json:"shipping_address"`
	PaymentMethod    string              `json:"payment_method,omitempty"`
	PaymentReference string              `json:"payment_reference,omitempty"`
	PaidAt           *time.Time          `json:"paid_at,omitempty"`
	CreatedAt        time.Time           `json:"created_at"`
	Items            []ExtendedOrderItem `json:"items"`
}

func NewOrderService(db *gorm.DB, payments PaymentConfirmer, cfg config.OrderConfig) *OrderService {
	return &OrderService{
		db:       db,
		payments: payments,
		cfg:      cfg,
		tracer:   otel.Tracer(tracerName),
	}
}

// CreateOrder validates the lines, then checks stock, persists the order
// and its items and decrements stock in a single transaction.
func (s *OrderService) CreateOrder(ctx context.Context, buyerID uuid.UUID, req *CreateOrderRequest) (*models.Order, error) {
	ctx, span := s.tracer.Start(ctx, "OrderService.CreateOrder", trace.WithAttributes(
		attribute.String("buyer_id", buyerID.String()),
		attribute.Int("line_count", len(req.Items)),
	))
	defer span.End()

	if err := s.validateCreateOrder(req); err != nil {
		recordSpanError(span, err)
		return nil, err
	}

	var order *models.Order
	err := database.WithTransaction(ctx, s.db, func(tx *gorm.DB) error {
		var err error
		order, err = s.createOrderTx(tx, buyerID, req)
		return err
	})
	if err != nil {
		recordSpanError(span, err)
		return nil, err
	}

	span.SetAttributes(
		attribute.String("order_id", order.ID.String()),
		attribute.String("total_amount", order.TotalAmount.String()),
	)

	return s.GetOrder(ctx, order.ID, buyerID)
}

func (s *OrderService) validateCreateOrder(req *CreateOrderRequest) error {
	if len(req.Items) == 0 {
		return newInvalidInput(i18n.KeyOrderNoItems)
	}

	for _, line := range req.Items {
		if line.ProductID == uuid.Nil {
			return newInvalidInput(i18n.KeyInvalidID, "product_id")
		}
		if line.Quantity < 1 {
			return newInvalidInput(i18n.KeyOrderInvalidQuantity, line.ProductID.String())
		}
		if !line.Price.IsPositive() || !line.Price.Equal(line.Price.Round(2)) {
			return newInvalidInput(i18n.KeyOrderInvalidPrice, line.ProductID.String())
		}
	}

	if utf8.RuneCountInString(strings.TrimSpace(req.ShippingAddress)) < s.cfg.MinAddressLength {
		return newInvalidInput(i18n.KeyOrderAddressTooShort, s.cfg.MinAddressLength)
	}

	return nil
}

// createOrderTx must only touch tx; the caller owns commit and rollback.
func (s *OrderService) createOrderTx(tx *gorm.DB, buyerID uuid.UUID, req *CreateOrderRequest) (*models.Order, error) {
	items := make([]models.OrderItem, 0, len(req.Items))
	total := decimal.Zero

	for i, line := range req.Items {
		var product models.Product
		if err := tx.Where("id = ?", line.ProductID).First(&product).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, newNotFound(i18n.KeyProductNotFound, line.ProductID)
			}
			return nil, fmt.Errorf("database error: %w", err)
		}

		if !product.InStock(line.Quantity) {
			return nil, newInsufficientStock(&product, line.Quantity)
		}

		if s.cfg.EnforceLivePrice && !product.Price.Equal(line.Price) {
			err := newInvalidInput(i18n.KeyOrderPriceMismatch, product.Name, product.Price.StringFixed(2))
			err.Details = map[string]interface{}{
				"product_id":    product.ID.String(),
				"current_price": product.Price.StringFixed(2),
			}
			return nil, err
		}

		total = total.Add(line.Price.Mul(decimal.NewFromInt(int64(line.Quantity))))
		items = append(items, models.OrderItem{
			ProductID: line.ProductID,
			Position:  i,
			Quantity:  line.Quantity,
			Price:     line.Price,
		})
	}

	order := &models.Order{
		BuyerID:         buyerID,
		TotalAmount:     total,
		Status:          models.OrderStatusPending,
		ShippingAddress: strings.TrimSpace(req.ShippingAddress),
	}
	if err := tx.Omit(clause.Associations).Create(order).Error; err != nil {
		return nil, fmt.Errorf("failed to create order: %w", err)
	}

	for i := range items {
		items[i].OrderID = order.ID
	}
	if err := tx.Omit(clause.Associations).Create(&items).Error; err != nil {
		return nil, fmt.Errorf("failed to create order items: %w", err)
	}

	for _, line := range req.Items {
		if err := decrementStock(tx, line.ProductID, line.Quantity); err != nil {
			return nil, err
		}
	}

	order.Items = items

	logrus.WithFields(logrus.Fields{
		"order_id":     order.ID,
		"buyer_id":     buyerID,
		"total_amount": total.String(),
		"lines":        len(items),
	}).Info("Order created")

	return order, nil
}

// decrementStock is a compare-and-swap on the stock column. When a
// concurrent order got there first the product is re-read once so the
// error reports the stock that is actually left.
func decrementStock(tx *gorm.DB, productID uuid.UUID, quantity int) error {
	result := tx.Model(&models.Product{}).
		Where("id = ? AND stock >= ?", productID, quantity).
		UpdateColumn("stock", gorm.Expr("stock - ?", quantity))
	if result.Error != nil {
		return fmt.Errorf("failed to decrement stock: %w", result.Error)
	}
	if result.RowsAffected == 1 {
		return nil
	}

	var fresh models.Product
	if err := tx.Where("id = ?", productID).First(&fresh).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return newNotFound(i18n.KeyProductNotFound, productID)
		}
		return fmt.Errorf("database error: %w", err)
	}
	return newInsufficientStock(&fresh, quantity)
}

// Pay confirms payment and moves a pending order to paid. Stock is not
// touched.
func (s *OrderService) Pay(ctx context.Context, orderID, buyerID uuid.UUID, req *PayOrderRequest) (*PaymentConfirmation, error) {
	ctx, span := s.tracer.Start(ctx, "OrderService.Pay", trace.WithAttributes(
		attribute.String("order_id", orderID.String()),
		attribute.String("buyer_id", buyerID.String()),
	))
	defer span.End()

	confirmation, err := s.pay(ctx, orderID, buyerID, req)
	if err != nil {
		recordSpanError(span, err)
		return nil, err
	}
	return confirmation, nil
}

func (s *OrderService) pay(ctx context.Context, orderID, buyerID uuid.UUID, req *PayOrderRequest) (*PaymentConfirmation, error) {
	// Existence first so a foreign order never reveals more than NotFound
	order, err := s.findOrder(s.db.WithContext(ctx), orderID, buyerID)
	if err != nil {
		return nil, err
	}

	method := strings.TrimSpace(req.PaymentMethod)
	if method == "" {
		return nil, newInvalidInput(i18n.KeyPaymentMethodRequired)
	}

	if !order.Status.CanTransitionTo(models.OrderStatusPaid) {
		return nil, newInvalidTransition(order.Status, models.OrderStatusPaid)
	}

	result, err := s.payments.Confirm(ctx, order, method)
	if err != nil {
		return nil, err
	}

	// Conditional on the current status so only one concurrent payment wins
	paidAt := time.Now()
	update := s.db.WithContext(ctx).Model(&models.Order{}).
		Where("id = ? AND status = ?", orderID, models.OrderStatusPending).
		Updates(map[string]interface{}{
			"status":            models.OrderStatusPaid,
			"payment_method":    method,
			"payment_reference": result.Reference,
			"paid_at":           paidAt,
		})
	if update.Error != nil {
		return nil, fmt.Errorf("failed to update order status: %w", update.Error)
	}
	if update.RowsAffected == 0 {
		current, err := s.findOrder(s.db.WithContext(ctx), orderID, buyerID)
		if err != nil {
			return nil, err
		}
		return nil, newInvalidTransition(current.Status, models.OrderStatusPaid)
	}

	logrus.WithFields(logrus.Fields{
		"order_id":  orderID,
		"buyer_id":  buyerID,
		"provider":  result.Provider,
		"reference": result.Reference,
	}).Info("Order paid")

	return &PaymentConfirmation{
		OrderID:       orderID,
		Status:        models.OrderStatusPaid,
		PaymentMethod: method,
		Provider:      result.Provider,
		Reference:     result.Reference,
		PaidAt:        paidAt,
		Message:       i18n.T(i18n.DefaultLanguage, i18n.KeyPaymentSuccess),
	}, nil
}

// ListOrders returns the buyer's orders, newest first, with their items.
func (s *OrderService) ListOrders(ctx context.Context, buyerID uuid.UUID) ([]models.Order, error) {
	orders := make([]models.Order, 0)
	err := s.db.WithContext(ctx).
		Preload("Items", orderItemsByPosition).
		Where("buyer_id = ?", buyerID).
		Order("created_at DESC").
		Find(&orders).Error
	if err != nil {
		return nil, fmt.Errorf("failed to fetch orders: %w", err)
	}
	return orders, nil
}

// GetOrder does not distinguish a missing order from another buyer's order.
func (s *OrderService) GetOrder(ctx context.Context, orderID, buyerID uuid.UUID) (*models.Order, error) {
	return s.findOrder(s.db.WithContext(ctx).Preload("Items", orderItemsByPosition), orderID, buyerID)
}

// ListOrdersExtended includes a snapshot of each line's product, deleted
// products included.
func (s *OrderService) ListOrdersExtended(ctx context.Context, buyerID uuid.UUID) ([]ExtendedOrder, error) {
	var orders []models.Order
	err := s.db.WithContext(ctx).
		Preload("Items", orderItemsByPosition).
		Preload("Items.Product", func(db *gorm.DB) *gorm.DB {
			return db.Unscoped().Select("id", "name", "price", "image_url")
		}).
		Where("buyer_id = ?", buyerID).
		Order("created_at DESC").
		Find(&orders).Error
	if err != nil {
		return nil, fmt.Errorf("failed to fetch orders: %w", err)
	}

	extended := make([]ExtendedOrder, 0, len(orders))
	for i := range orders {
		extended = append(extended, toExtendedOrder(&orders[i]))
	}
	return extended, nil
}

func (s *OrderService) findOrder(db *gorm.DB, orderID, buyerID uuid.UUID) (*models.Order, error) {
	var order models.Order
	if err := db.Where("id = ? AND buyer_id = ?", orderID, buyerID).First(&order).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, newNotFound(i18n.KeyOrderNotFound, orderID)
		}
		return nil, fmt.Errorf("database error: %w", err)
	}
	return &order, nil
}

func orderItemsByPosition(db *gorm.DB) *gorm.DB {
	return db.Order("position ASC")
}

func toExtendedOrder(order *models.Order) ExtendedOrder {
	items := make([]ExtendedOrderItem, 0, len(order.Items))
	for i := range order.Items {
		item := &order.Items[i]
		ext := ExtendedOrderItem{
			ID:        item.ID,
			ProductID: item.ProductID,
			Position:  item.Position,
			Quantity:  item.Quantity,
			Price:     item.Price,
			Subtotal:  item.Subtotal(),
		}
		if item.Product != nil {
			ext.Product = &OrderProductSnapshot{
				ID:       item.Product.ID,
				Name:     item.Product.Name,
				Price:    item.Product.Price,
				ImageURL: item.Product.ImageURL,
			}
		}
		items = append(items, ext)
	}

	return ExtendedOrder{
		ID:               order.ID,
		BuyerID:          order.BuyerID,
		TotalAmount:      order.TotalAmount,
		Status:           order.Status,
		ShippingAddress:  order.ShippingAddress,
		PaymentMethod:    order.PaymentMethod,
		PaymentReference: order.PaymentReference,
		PaidAt:           order.PaidAt,
		CreatedAt:        order.CreatedAt,
		Items:            items,
	}
}

func recordSpanError(span trace.Span, err error) {
	span.RecordError(err)
	if kind := KindOf(err); kind != "" {
		span.SetAttributes(attribute.String("error.kind", string(kind)))
		return
	}
	span.SetStatus(codes.Error, err.Error())
}
