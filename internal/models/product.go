// internal/models/product.go
package models

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type Product struct {
	BaseModel
	SellerID    uuid.UUID       `json:"seller_id" gorm:"type:uuid;not null;index"`
	Name        string          `json:"name" gorm:"size:255;not null;index"`
	Description string          `json:"description" gorm:"type:text"`
	Price       decimal.Decimal `json:"price" gorm:"type:decimal(12,2);not null;check:chk_products_price,price > 0"`
	Stock       int             `json:"stock" gorm:"not null;default:0;check:chk_products_stock,stock >= 0"`
	ImageURL    string          `json:"image_url" gorm:"size:500"`
	Category    string          `json:"category" gorm:"size:100;index"`
	DeletedAt   gorm.DeletedAt  `json:"-" gorm:"index"`

	// Relationships
	Seller *User `json:"seller,omitempty" gorm:"foreignKey:SellerID"`
}

// InStock reports whether quantity units can currently be taken.
func (p *Product) InStock(quantity int) bool {
	return p.Stock >= quantity
}
