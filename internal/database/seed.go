// internal/database/seed.go
package database

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/javajoker/marketplace-backend/internal/models"
)

type demoProduct struct {
	Name        string
	Description string
	Price       int64
	Stock       int
	Category    string
}

var demoProducts = []demoProduct{
	{"iPhone 15 Pro Max", "A17 Pro chip, 48MP camera, 6.7 inch Super Retina XDR display", 18999000, 10, "Elektronik"},
	{"Samsung Galaxy S24 Ultra", "S Pen, 200MP camera, 6.8 inch AMOLED display", 16999000, 15, "Elektronik"},
	{"MacBook Air M3", "13 inch, 8GB RAM, 256GB SSD", 17999000, 8, "Laptop"},
	{"Sony WH-1000XM5", "Wireless headphones with active noise cancelling", 5499000, 20, "Audio"},
	{"AirPods Pro 2", "Wireless earbuds with adaptive ANC", 3999000, 30, "Audio"},
}

// SeedDemoData creates a demo seller, a demo buyer and a small catalog.
// Existing users are left untouched so the seed can run on every start.
func SeedDemoData(db *gorm.DB) error {
	logrus.Info("Seeding demo data...")

	seller, err := seedUser(db, "seller", "seller@example.com", "seller123", true)
	if err != nil {
		return err
	}
	if _, err := seedUser(db, "buyer", "buyer@example.com", "buyer123", false); err != nil {
		return err
	}

	var count int64
	if err := db.Model(&models.Product{}).Where("seller_id = ?", seller.ID).Count(&count).Error; err != nil {
		return fmt.Errorf("failed to count demo products: %w", err)
	}
	if count > 0 {
		logrus.Info("Demo products already present, skipping")
		return nil
	}

	products := make([]models.Product, 0, len(demoProducts))
	for _, p := range demoProducts {
		products = append(products, models.Product{
			SellerID:    seller.ID,
			Name:        p.Name,
			Description: p.Description,
			Price:       decimal.NewFromInt(p.Price),
			Stock:       p.Stock,
			Category:    p.Category,
		})
	}

	if err := db.Create(&products).Error; err != nil {
		return fmt.Errorf("failed to create demo products: %w", err)
	}

	logrus.WithField("products", len(products)).Info("Demo data seeding completed")
	return nil
}

func seedUser(db *gorm.DB, username, email, password string, isSeller bool) (*models.User, error) {
	var user models.User
	err := db.Where("username = ?", username).First(&user).Error
	if err == nil {
		return &user, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("failed to look up demo user %s: %w", username, err)
	}

	user = models.User{
		Username: username,
		Email:    email,
		FullName: username,
		IsSeller: isSeller,
		IsActive: true,
	}
	if err := user.SetPassword(password); err != nil {
		return nil, fmt.Errorf("failed to set demo password: %w", err)
	}
	if err := db.Create(&user).Error; err != nil {
		return nil, fmt.Errorf("failed to create demo user %s: %w", username, err)
	}

	return &user, nil
}
