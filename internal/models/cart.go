// internal/models/cart.go
package models

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CartItem rows are hard deleted; the (user, product) pair is unique.
type CartItem struct {
	BaseModel
	UserID    uuid.UUID `json:"user_id" gorm:"type:uuid;not null;uniqueIndex:idx_cart_items_user_product"`
	ProductID uuid.UUID `json:"product_id" gorm:"type:uuid;not null;uniqueIndex:idx_cart_items_user_product;index"`
	Quantity  int       `json:"quantity" gorm:"not null;check:chk_cart_items_quantity,quantity >= 1"`

	// Relationships
	User    *User    `json:"-" gorm:"foreignKey:UserID"`
	Product *Product `json:"product,omitempty" gorm:"foreignKey:ProductID"`
}

// Subtotal is the live line price; zero when the product is not loaded.
func (ci *CartItem) Subtotal() decimal.Decimal {
	if ci.Product == nil {
		return decimal.Zero
	}
	return ci.Product.Price.Mul(decimal.NewFromInt(int64(ci.Quantity)))
}
