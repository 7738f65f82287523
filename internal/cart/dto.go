package cart

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/carstoreapp/carstore-backend/pkg/db/models"
)

// Outcome reports how a cart mutation resolved. Mutations that cannot apply
// report an outcome instead of silently dropping the request.
type Outcome string

const (
	OutcomeAccepted      Outcome = "accepted"
	OutcomeStockExceeded Outcome = "stock_exceeded"
	OutcomeNotFound      Outcome = "not_found"
)

// CartItemDTO is one product line in the cart payload.
type CartItemDTO struct {
	ProductID uuid.UUID       `json:"product"`
	Name      string          `json:"name"`
	UnitPrice decimal.Decimal `json:"price"`
	Quantity  int             `json:"quantity"`
	ImageURL  string          `json:"image"`
	LineTotal decimal.Decimal `json:"lineTotal"`
}

// CartDTO is the cart payload with totals derived from the lines.
type CartDTO struct {
	ID            uuid.UUID       `json:"id"`
	Items         []CartItemDTO   `json:"items"`
	TotalQuantity int             `json:"totalQuantity"`
	TotalPrice    decimal.Decimal `json:"totalPrice"`
	UpdatedAt     time.Time       `json:"updatedAt"`
}

// MutationResult pairs the outcome with the cart state after the mutation.
type MutationResult struct {
	Outcome Outcome  `json:"outcome"`
	Cart    *CartDTO `json:"cart"`
}

// NewCartDTO derives the response payload, totals included, from the record.
func NewCartDTO(record *models.CartRecord) *CartDTO {
	dto := &CartDTO{
		Items:      []CartItemDTO{},
		TotalPrice: decimal.Zero,
	}
	if record == nil {
		return dto
	}

	dto.ID = record.ID
	dto.UpdatedAt = record.UpdatedAt
	for _, item := range record.Items {
		lineTotal := item.UnitPrice.Mul(decimal.NewFromInt(int64(item.Quantity)))
		dto.Items = append(dto.Items, CartItemDTO{
			ProductID: item.ProductID,
			Name:      item.Name,
			UnitPrice: item.UnitPrice,
			Quantity:  item.Quantity,
			ImageURL:  item.ImageURL,
			LineTotal: lineTotal,
		})
		dto.TotalQuantity += item.Quantity
		dto.TotalPrice = dto.TotalPrice.Add(lineTotal)
	}
	return dto
}
