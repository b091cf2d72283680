// internal/services/cart_service.go
package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/javajoker/marketplace-backend/internal/database"
	"github.com/javajoker/marketplace-backend/internal/i18n"
	"github.com/javajoker/marketplace-backend/internal/models"
)

// CartService is the per-user cart store. Checkout hands the cart to the
// order engine.
type CartService struct {
	db     *gorm.DB
	orders *OrderService
}

type AddToCartRequest struct {
	ProductID uuid.UUID `json:"product_id"`
	Quantity  int       `json:"quantity"`
}

type UpdateCartItemRequest struct {
	Quantity int `json:"quantity"`
}

type CheckoutRequest struct {
	ShippingAddress string `json:"shipping_address"`
}

type CartSummary struct {
	TotalItems    int               `json:"total_items"`
	TotalQuantity int               `json:"total_quantity"`
	TotalPrice    decimal.Decimal   `json:"total_price"`
	Items         []models.CartItem `json:"items"`
}

func NewCartService(db *gorm.DB, orders *OrderService) *CartService {
	return &CartService{
		db:     db,
		orders: orders,
	}
}

// Add puts quantity units of a product in the cart, accumulating onto an
// existing line. Stock is checked against the requested quantity only.
func (s *CartService) Add(ctx context.Context, userID uuid.UUID, req *AddToCartRequest) (*models.CartItem, error) {
	if req.Quantity < 1 {
		return nil, newInvalidInput(i18n.KeyCartInvalidQty)
	}
	if req.ProductID == uuid.Nil {
		return nil, newInvalidInput(i18n.KeyInvalidID, "product_id")
	}

	var item models.CartItem
	err := database.WithTransaction(ctx, s.db, func(tx *gorm.DB) error {
		var product models.Product
		if err := tx.Where("id = ?", req.ProductID).First(&product).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return newNotFound(i18n.KeyProductNotFound, req.ProductID)
			}
			return fmt.Errorf("database error: %w", err)
		}

		if !product.InStock(req.Quantity) {
			return newInsufficientStock(&product, req.Quantity)
		}

		line := models.CartItem{
			UserID:    userID,
			ProductID: req.ProductID,
			Quantity:  req.Quantity,
		}
		upsert := clause.OnConflict{
			Columns: []clause.Column{{Name: "user_id"}, {Name: "product_id"}},
			DoUpdates: clause.Assignments(map[string]interface{}{
				"quantity":   gorm.Expr("cart_items.quantity + ?", req.Quantity),
				"updated_at": time.Now(),
			}),
		}
		if err := tx.Omit(clause.Associations).Clauses(upsert).Create(&line).Error; err != nil {
			return fmt.Errorf("failed to add cart item: %w", err)
		}

		if err := tx.Where("user_id = ? AND product_id = ?", userID, req.ProductID).First(&item).Error; err != nil {
			return fmt.Errorf("failed to reload cart item: %w", err)
		}
		item.Product = &product
		return nil
	})
	if err != nil {
		return nil, err
	}

	return &item, nil
}

// Get returns the cart with totals computed from current product prices.
func (s *CartService) Get(ctx context.Context, userID uuid.UUID) (*CartSummary, error) {
	items, err := s.loadItems(s.db.WithContext(ctx), userID)
	if err != nil {
		return nil, err
	}

	summary := &CartSummary{
		TotalPrice: decimal.Zero,
		Items:      items,
	}
	for i := range items {
		summary.TotalItems++
		summary.TotalQuantity += items[i].Quantity
		summary.TotalPrice = summary.TotalPrice.Add(items[i].Subtotal())
	}

	return summary, nil
}

// Update sets the quantity of a line. Unlike Add, the new quantity is
// checked against current stock.
func (s *CartService) Update(ctx context.Context, itemID, userID uuid.UUID, quantity int) (*models.CartItem, error) {
	if quantity < 1 {
		return nil, newInvalidInput(i18n.KeyCartInvalidQty)
	}

	var item models.CartItem
	err := database.WithTransaction(ctx, s.db, func(tx *gorm.DB) error {
		if err := tx.Preload("Product").Where("id = ? AND user_id = ?", itemID, userID).First(&item).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return newNotFound(i18n.KeyCartItemNotFound, itemID)
			}
			return fmt.Errorf("database error: %w", err)
		}

		if item.Product == nil {
			return newNotFound(i18n.KeyProductNotFound, item.ProductID)
		}
		if !item.Product.InStock(quantity) {
			return newInsufficientStock(item.Product, quantity)
		}

		if err := tx.Model(&item).Update("quantity", quantity).Error; err != nil {
			return fmt.Errorf("failed to update cart item: %w", err)
		}
		item.Quantity = quantity
		return nil
	})
	if err != nil {
		return nil, err
	}

	return &item, nil
}

func (s *CartService) Remove(ctx context.Context, itemID, userID uuid.UUID) error {
	result := s.db.WithContext(ctx).Where("id = ? AND user_id = ?", itemID, userID).Delete(&models.CartItem{})
	if result.Error != nil {
		return fmt.Errorf("failed to remove cart item: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return newNotFound(i18n.KeyCartItemNotFound, itemID)
	}
	return nil
}

func (s *CartService) Clear(ctx context.Context, userID uuid.UUID) error {
	if err := s.db.WithContext(ctx).Where("user_id = ?", userID).Delete(&models.CartItem{}).Error; err != nil {
		return fmt.Errorf("failed to clear cart: %w", err)
	}
	return nil
}

// Checkout turns the cart into an order at current product prices and
// empties the cart in the same transaction. On failure the cart is left
// as it was.
func (s *CartService) Checkout(ctx context.Context, userID uuid.UUID, req *CheckoutRequest) (*models.Order, error) {
	items, err := s.loadItems(s.db.WithContext(ctx), userID)
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, newInvalidInput(i18n.KeyCartEmpty)
	}

	orderReq := &CreateOrderRequest{
		ShippingAddress: req.ShippingAddress,
		Items:           make([]OrderLineRequest, 0, len(items)),
	}
	for i := range items {
		orderReq.Items = append(orderReq.Items, OrderLineRequest{
			ProductID: items[i].ProductID,
			Quantity:  items[i].Quantity,
			Price:     items[i].Product.Price,
		})
	}

	if err := s.orders.validateCreateOrder(orderReq); err != nil {
		return nil, err
	}

	var order *models.Order
	err = database.WithTransaction(ctx, s.db, func(tx *gorm.DB) error {
		created, err := s.orders.createOrderTx(tx, userID, orderReq)
		if err != nil {
			return err
		}
		if err := tx.Where("user_id = ?", userID).Delete(&models.CartItem{}).Error; err != nil {
			return fmt.Errorf("failed to clear cart: %w", err)
		}
		order = created
		return nil
	})
	if err != nil {
		return nil, err
	}

	logrus.WithFields(logrus.Fields{
		"order_id": order.ID,
		"user_id":  userID,
		"lines":    len(items),
	}).Info("Cart checked out")

	return s.orders.GetOrder(ctx, order.ID, userID)
}

// loadItems skips lines whose product is no longer in the catalog.
func (s *CartService) loadItems(db *gorm.DB, userID uuid.UUID) ([]models.CartItem, error) {
	var items []models.CartItem
	if err := db.Preload("Product").Where("user_id = ?", userID).Order("created_at ASC").Find(&items).Error; err != nil {
		return nil, fmt.Errorf("failed to fetch cart: %w", err)
	}

	live := make([]models.CartItem, 0, len(items))
	for _, item := range items {
		if item.Product != nil {
			live = append(live, item)
		}
	}
	return live, nil
}
