// internal/models/order.go
package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type Order struct {
	BaseModel
	BuyerID          uuid.UUID       `json:"buyer_id" gorm:"type:uuid;not null;index"`
	TotalAmount      decimal.Decimal `json:"total_amount" gorm:"type:decimal(14,2);not null"`
	Status           OrderStatus     `json:"status" gorm:"type:varchar(20);not null;default:'pending';index"`
	ShippingAddress  string          `json:"shipping_address" gorm:"type:text;not null"`
	PaymentMethod    string          `json:"payment_method,omitempty" gorm:"size:50"`
	PaymentReference string          `json:"payment_reference,omitempty" gorm:"size:255"`
	PaidAt           *time.Time      `json:"paid_at,omitempty"`

	// Relationships
	Buyer *User       `json:"buyer,omitempty" gorm:"foreignKey:BuyerID"`
	Items []OrderItem `json:"items" gorm:"foreignKey:OrderID"`
}

// OrderItem keeps the unit price agreed at checkout.
type OrderItem struct {
	BaseModel
	OrderID   uuid.UUID       `json:"order_id" gorm:"type:uuid;not null;index"`
	ProductID uuid.UUID       `json:"product_id" gorm:"type:uuid;not null;index"`
	Position  int             `json:"position" gorm:"not null"`
	Quantity  int             `json:"quantity" gorm:"not null"`
	Price     decimal.Decimal `json:"price" gorm:"type:decimal(12,2);not null"`

	// Relationships
	Product *Product `json:"product,omitempty" gorm:"foreignKey:ProductID"`
}

func (oi *OrderItem) Subtotal() decimal.Decimal {
	return oi.Price.Mul(decimal.NewFromInt(int64(oi.Quantity)))
}

// ItemsTotal recomputes the order total from its lines.
func (o *Order) ItemsTotal() decimal.Decimal {
	total := decimal.Zero
	for i := range o.Items {
		total = total.Add(o.Items[i].Subtotal())
	}
	return total
}
