package orders

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/carstoreapp/carstore-backend/pkg/db/models"
	"github.com/carstoreapp/carstore-backend/pkg/enums"
)

// OrderItemDTO is one repriced line on the order payload.
type OrderItemDTO struct {
	ProductID uuid.UUID       `json:"product"`
	Name      string          `json:"name"`
	UnitPrice decimal.Decimal `json:"price"`
	Quantity  int             `json:"quantity"`
	LineTotal decimal.Decimal `json:"lineTotal"`
}

// OrderDTO is the order payload returned to buyers and admins.
type OrderDTO struct {
	ID             uuid.UUID         `json:"id"`
	UserID         uuid.UUID         `json:"userId"`
	Status         enums.OrderStatus `json:"status"`
	Address        string            `json:"address"`
	ContactNo      string            `json:"contactNo"`
	City           string            `json:"city"`
	TotalPrice     decimal.Decimal   `json:"totalPrice"`
	PaymentLinkURL string            `json:"paymentLink,omitempty"`
	Items          []OrderItemDTO    `json:"items"`
	CreatedAt      time.Time         `json:"createdAt"`
	UpdatedAt      time.Time         `json:"updatedAt"`
}

// OrderListResult is one page of orders plus the cursor for the next.
type OrderListResult struct {
	Orders     []OrderDTO `json:"orders"`
	NextCursor string     `json:"nextCursor,omitempty"`
}

// NewOrderDTO builds the payload from the persisted order.
func NewOrderDTO(order *models.Order) *OrderDTO {
	dto := &OrderDTO{
		ID:             order.ID,
		UserID:         order.UserID,
		Status:         order.Status,
		Address:        order.Address,
		ContactNo:      order.ContactNo,
		City:           order.City,
		TotalPrice:     order.TotalPrice,
		PaymentLinkURL: order.PaymentLinkURL,
		Items:          make([]OrderItemDTO, 0, len(order.Items)),
		CreatedAt:      order.CreatedAt,
		UpdatedAt:      order.UpdatedAt,
	}
	for _, item := range order.Items {
		dto.Items = append(dto.Items, OrderItemDTO{
			ProductID: item.ProductID,
			Name:      item.Name,
			UnitPrice: item.UnitPrice,
			Quantity:  item.Quantity,
			LineTotal: item.LineTotal,
		})
	}
	return dto
}
