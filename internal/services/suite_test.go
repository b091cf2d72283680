package services_test

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"
	"gorm.io/gorm"

	"github.com/javajoker/marketplace-backend/internal/config"
	"github.com/javajoker/marketplace-backend/internal/models"
	"github.com/javajoker/marketplace-backend/internal/services"
	"github.com/javajoker/marketplace-backend/internal/testutil"
)

// serviceSuite wires every service against a fresh in-memory database.
type serviceSuite struct {
	suite.Suite
	ctx      context.Context
	db       *gorm.DB
	cfg      *config.Config
	auth     *services.AuthService
	products *services.ProductService
	orders   *services.OrderService
	carts    *services.CartService
	seller   *models.User
	buyer    *models.User
}

func (suite *serviceSuite) SetupTest() {
	suite.ctx = context.Background()
	suite.db = testutil.NewDB(suite.T())
	suite.cfg = &config.Config{
		JWT:   config.JWTConfig{SecretKey: "test-secret", AccessTokenTTL: 1},
		Order: config.OrderConfig{MinAddressLength: 10},
	}

	suite.auth = services.NewAuthService(suite.db, suite.cfg)
	suite.products = services.NewProductService(suite.db)
	suite.orders = services.NewOrderService(suite.db, services.StubPaymentConfirmer{}, suite.cfg.Order)
	suite.carts = services.NewCartService(suite.db, suite.orders)

	suite.seller = suite.createUser("seller", true)
	suite.buyer = suite.createUser("buyer", false)
}

func (suite *serviceSuite) createUser(username string, isSeller bool) *models.User {
	user := &models.User{
		Username: username,
		Email:    fmt.Sprintf("%s@example.com", username),
		IsSeller: isSeller,
		IsActive: true,
	}
	suite.Require().NoError(user.SetPassword("secret123"))
	suite.Require().NoError(suite.db.Create(user).Error)
	return user
}

func (suite *serviceSuite) createProduct(name, price string, stock int) *models.Product {
	product, err := suite.products.Create(suite.ctx, suite.seller.ID, &services.CreateProductRequest{
		Name:     name,
		Price:    decimal.RequireFromString(price),
		Stock:    stock,
		Category: "Elektronik",
	})
	suite.Require().NoError(err)
	return product
}

func (suite *serviceSuite) stockOf(id uuid.UUID) int {
	var product models.Product
	suite.Require().NoError(suite.db.Unscoped().Where("id = ?", id).First(&product).Error)
	return product.Stock
}

func (suite *serviceSuite) count(model interface{}) int64 {
	var n int64
	suite.Require().NoError(suite.db.Model(model).Count(&n).Error)
	return n
}

func line(product *models.Product, quantity int) services.OrderLineRequest {
	return services.OrderLineRequest{
		ProductID: product.ID,
		Quantity:  quantity,
		Price:     product.Price,
	}
}

const validAddress = "Jl. Sudirman No. 1, Jakarta"
