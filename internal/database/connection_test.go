package database_test

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/javajoker/marketplace-backend/internal/database"
	"github.com/javajoker/marketplace-backend/internal/models"
	"github.com/javajoker/marketplace-backend/internal/testutil"
)

func TestWithTransactionRollsBackOnError(t *testing.T) {
	db := testutil.NewDB(t)
	user := &models.User{Username: "alice", Email: "alice@example.com", PasswordHash: "x", IsActive: true}
	require.NoError(t, db.Create(user).Error)

	boom := errors.New("boom")
	err := database.WithTransaction(context.Background(), db, func(tx *gorm.DB) error {
		p := &models.Product{SellerID: user.ID, Name: "Lamp", Price: decimal.NewFromInt(10), Stock: 1}
		if err := tx.Create(p).Error; err != nil {
			return err
		}
		return boom
	})
	assert.ErrorIs(t, err, boom)

	var count int64
	require.NoError(t, db.Model(&models.Product{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestWithTransactionRollsBackOnPanic(t *testing.T) {
	db := testutil.NewDB(t)

	assert.Panics(t, func() {
		_ = database.WithTransaction(context.Background(), db, func(tx *gorm.DB) error {
			require.NoError(t, tx.Create(&models.User{Username: "bob", Email: "bob@example.com", PasswordHash: "x"}).Error)
			panic("unexpected")
		})
	})

	var count int64
	require.NoError(t, db.Model(&models.User{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestStockCheckConstraint(t *testing.T) {
	db := testutil.NewDB(t)
	user := &models.User{Username: "carol", Email: "carol@example.com", PasswordHash: "x"}
	require.NoError(t, db.Create(user).Error)

	err := db.Create(&models.Product{SellerID: user.ID, Name: "Chair", Price: decimal.NewFromInt(5), Stock: -1}).Error
	assert.Error(t, err)
}

func TestSeedDemoDataIsIdempotent(t *testing.T) {
	db := testutil.NewDB(t)

	require.NoError(t, database.SeedDemoData(db))
	require.NoError(t, database.SeedDemoData(db))

	var users, products int64
	require.NoError(t, db.Model(&models.User{}).Count(&users).Error)
	require.NoError(t, db.Model(&models.Product{}).Count(&products).Error)
	assert.Equal(t, int64(2), users)
	assert.Equal(t, int64(5), products)

	var seller models.User
	require.NoError(t, db.Where("username = ?", "seller").First(&seller).Error)
	assert.True(t, seller.IsSeller)
	assert.NoError(t, seller.CheckPassword("seller123"))
}

func TestForeignKeysAreEnforced(t *testing.T) {
	db := testutil.NewDB(t)
	user := &models.User{Username: "dina", Email: "dina@example.com", PasswordHash: "x", IsActive: true}
	require.NoError(t, db.Create(user).Error)
	product := &models.Product{SellerID: user.ID, Name: "Desk", Price: decimal.NewFromInt(50), Stock: 2}
	require.NoError(t, db.Create(product).Error)

	assert.Error(t, db.Create(&models.CartItem{UserID: uuid.New(), ProductID: product.ID, Quantity: 1}).Error)
	assert.Error(t, db.Create(&models.CartItem{UserID: user.ID, ProductID: uuid.New(), Quantity: 1}).Error)
	assert.Error(t, db.Create(&models.Product{SellerID: uuid.New(), Name: "Ghost", Price: decimal.NewFromInt(1), Stock: 1}).Error)
	assert.NoError(t, db.Create(&models.CartItem{UserID: user.ID, ProductID: product.ID, Quantity: 1}).Error)
}

func TestInitializeReturnsIndependentHandles(t *testing.T) {
	first := testutil.NewDB(t)
	second := testutil.NewDB(t)

	require.NoError(t, first.Create(&models.User{Username: "erik", Email: "erik@example.com", PasswordHash: "x"}).Error)

	var count int64
	require.NoError(t, second.Model(&models.User{}).Count(&count).Error)
	assert.Zero(t, count)
}
