// internal/services/product_service.go
package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/javajoker/marketplace-backend/internal/database"
	"github.com/javajoker/marketplace-backend/internal/i18n"
	"github.com/javajoker/marketplace-backend/internal/models"
	"github.com/javajoker/marketplace-backend/internal/utils"
)

// ProductService is the catalog store.
type ProductService struct {
	db *gorm.DB
}

type CreateProductRequest struct {
	Name        string          `json:"name" validate:"required,trimmed_min=1,max=255"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price" validate:"money"`
	Stock       int             `json:"stock" validate:"gte=0"`
	ImageURL    string          `json:"image_url" validate:"omitempty,max=500"`
	Category    string          `json:"category" validate:"omitempty,max=100"`
}

// UpdateProductRequest is a patch; nil fields are left unchanged.
type UpdateProductRequest struct {
	Name        *string          `json:"name,omitempty" validate:"omitempty,max=255"`
	Description *string          `json:"description,omitempty"`
	Price       *decimal.Decimal `json:"price,omitempty"`
	Stock       *int             `json:"stock,omitempty"`
	ImageURL    *string          `json:"image_url,omitempty" validate:"omitempty,max=500"`
	Category    *string          `json:"category,omitempty" validate:"omitempty,max=100"`
}

type ProductListParams struct {
	utils.PaginationParams
	SellerID *uuid.UUID
	InStock  bool
}

var productSortFields = []string{"created_at", "updated_at", "name", "price", "stock"}

func NewProductService(db *gorm.DB) *ProductService {
	return &ProductService{db: db}
}

func (s *ProductService) Create(ctx context.Context, sellerID uuid.UUID, req *CreateProductRequest) (*models.Product, error) {
	if !utils.IsValidMoney(req.Price) {
		return nil, newInvalidInput(i18n.KeyProductInvalidPrice)
	}
	if req.Stock < 0 {
		return nil, newInvalidInput(i18n.KeyProductInvalidStock)
	}
	if strings.TrimSpace(req.Name) == "" {
		return nil, newInvalidInput(i18n.KeyProductNameRequired)
	}
	if err := utils.ValidateStruct(req); err != nil {
		return nil, newValidationError(err)
	}

	db := s.db.WithContext(ctx)

	// Verify seller exists and is active
	var seller models.User
	if err := db.Where("id = ?", sellerID).First(&seller).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, newNotFound(i18n.KeyUserNotFound, sellerID)
		}
		return nil, fmt.Errorf("database error: %w", err)
	}
	if !seller.IsActive {
		return nil, newForbidden(i18n.KeyAuthUserInactive)
	}
	if !seller.IsSeller {
		return nil, newForbidden(i18n.KeyAuthSellerRequired)
	}

	product := &models.Product{
		SellerID:    sellerID,
		Name:        strings.TrimSpace(req.Name),
		Description: req.Description,
		Price:       req.Price,
		Stock:       req.Stock,
		ImageURL:    req.ImageURL,
		Category:    req.Category,
	}

	if err := db.Create(product).Error; err != nil {
		return nil, fmt.Errorf("failed to create product: %w", err)
	}

	logrus.WithFields(logrus.Fields{
		"product_id": product.ID,
		"seller_id":  sellerID,
		"stock":      product.Stock,
	}).Info("Product created")

	return product, nil
}

func (s *ProductService) Get(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	var product models.Product
	if err := s.db.WithContext(ctx).Where("id = ?", id).First(&product).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, newNotFound(i18n.KeyProductNotFound, id)
		}
		return nil, fmt.Errorf("database error: %w", err)
	}
	return &product, nil
}

// List never fails on an empty result; it returns an empty slice.
func (s *ProductService) List(ctx context.Context, params ProductListParams) ([]models.Product, int64, error) {
	query := s.db.WithContext(ctx).Model(&models.Product{})

	// Apply filters
	if params.SellerID != nil {
		query = query.Where("seller_id = ?", *params.SellerID)
	}

	if params.Category != "" {
		query = query.Where("category = ?", params.Category)
	}

	if params.Search != "" {
		searchTerm := "%" + strings.ToLower(params.Search) + "%"
		query = query.Where("LOWER(name) LIKE ? OR LOWER(description) LIKE ?", searchTerm, searchTerm)
	}

	if params.InStock {
		query = query.Where("stock > 0")
	}

	query = query.Session(&gorm.Session{})

	// Get total count
	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count products: %w", err)
	}

	// Apply sorting and pagination
	query = utils.ApplySort(query, params.PaginationParams, productSortFields)
	query = utils.ApplyPagination(query, params.PaginationParams)

	products := make([]models.Product, 0)
	if err := query.Find(&products).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to fetch products: %w", err)
	}

	return products, total, nil
}

// ListBySeller returns the seller's own catalog.
func (s *ProductService) ListBySeller(ctx context.Context, sellerID uuid.UUID, params utils.PaginationParams) ([]models.Product, int64, error) {
	return s.List(ctx, ProductListParams{
		PaginationParams: params,
		SellerID:         &sellerID,
	})
}

func (s *ProductService) Update(ctx context.Context, id, sellerID uuid.UUID, req *UpdateProductRequest) (*models.Product, error) {
	updates, err := productUpdates(req)
	if err != nil {
		return nil, err
	}

	var product models.Product
	err = database.WithTransaction(ctx, s.db, func(tx *gorm.DB) error {
		// Find and verify ownership
		if err := tx.Where("id = ?", id).First(&product).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return newNotFound(i18n.KeyProductNotFound, id)
			}
			return fmt.Errorf("database error: %w", err)
		}

		if product.SellerID != sellerID {
			return newForbidden(i18n.KeyProductNotOwner)
		}

		if len(updates) == 0 {
			return nil
		}

		if err := tx.Model(&product).Updates(updates).Error; err != nil {
			return fmt.Errorf("failed to update product: %w", err)
		}

		return tx.Where("id = ?", id).First(&product).Error
	})
	if err != nil {
		return nil, err
	}

	return &product, nil
}

func productUpdates(req *UpdateProductRequest) (map[string]interface{}, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, newValidationError(err)
	}

	// Prepare updates
	updates := make(map[string]interface{})
	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			return nil, newInvalidInput(i18n.KeyProductNameRequired)
		}
		updates["name"] = name
	}
	if req.Description != nil {
		updates["description"] = *req.Description
	}
	if req.Price != nil {
		if !utils.IsValidMoney(*req.Price) {
			return nil, newInvalidInput(i18n.KeyProductInvalidPrice)
		}
		updates["price"] = *req.Price
	}
	if req.Stock != nil {
		if *req.Stock < 0 {
			return nil, newInvalidInput(i18n.KeyProductInvalidStock)
		}
		updates["stock"] = *req.Stock
	}
	if req.ImageURL != nil {
		updates["image_url"] = *req.ImageURL
	}
	if req.Category != nil {
		updates["category"] = *req.Category
	}

	return updates, nil
}

// Delete soft deletes the product and drops it from every cart. Order items
// keep pointing at the soft-deleted row.
func (s *ProductService) Delete(ctx context.Context, id, sellerID uuid.UUID) error {
	return database.WithTransaction(ctx, s.db, func(tx *gorm.DB) error {
		// Find and verify ownership
		var product models.Product
		if err := tx.Where("id = ?", id).First(&product).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return newNotFound(i18n.KeyProductNotFound, id)
			}
			return fmt.Errorf("database error: %w", err)
		}

		if product.SellerID != sellerID {
			return newForbidden(i18n.KeyProductNotOwner)
		}

		removed := tx.Where("product_id = ?", id).Delete(&models.CartItem{})
		if removed.Error != nil {
			return fmt.Errorf("failed to remove product from carts: %w", removed.Error)
		}

		if err := tx.Delete(&product).Error; err != nil {
			return fmt.Errorf("failed to delete product: %w", err)
		}

		logrus.WithFields(logrus.Fields{
			"product_id":         id,
			"seller_id":          sellerID,
			"cart_items_removed": removed.RowsAffected,
		}).Info("Product deleted")

		return nil
	})
}
