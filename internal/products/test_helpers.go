package product

import (
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/carstoreapp/carstore-backend/pkg/db/models"
)

func mustCreateTestProduct(t *testing.T, tx *gorm.DB, mutate func(*models.Product)) *models.Product {
	t.Helper()
	product := &models.Product{
		Name:     fmt.Sprintf("Model S %s", uuid.NewString()[:8]),
		Brand:    "Tesla",
		Price:    decimal.NewFromFloat(79999.00),
		Stock:    5,
		ImageURL: "https://cdn.example.com/model-s.png",
		IsActive: true,
	}
	if mutate != nil {
		mutate(product)
	}
	if err := tx.Create(product).Error; err != nil {
		t.Fatalf("create product: %v", err)
	}
	return product
}
