package checkout

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/carstoreapp/carstore-backend/internal/cart"
	"github.com/carstoreapp/carstore-backend/internal/orders"
	product "github.com/carstoreapp/carstore-backend/internal/products"
	"github.com/carstoreapp/carstore-backend/pkg/db"
	"github.com/carstoreapp/carstore-backend/pkg/db/models"
	"github.com/carstoreapp/carstore-backend/pkg/enums"
	pkgerrors "github.com/carstoreapp/carstore-backend/pkg/errors"
	"github.com/carstoreapp/carstore-backend/pkg/logger"
	"github.com/carstoreapp/carstore-backend/pkg/payment"
	"github.com/carstoreapp/carstore-backend/pkg/types"
)

// SubmitResult carries the created order and the gateway redirect URL. The
// URL is returned exactly as the gateway issued it.
type SubmitResult struct {
	OrderID     uuid.UUID `json:"orderId"`
	RedirectURL string    `json:"redirectUrl"`
}

// Service turns the active cart into a pending order with a payment link.
type Service interface {
	Submit(ctx context.Context, userID uuid.UUID, shipping types.ShippingInfo) (*SubmitResult, error)
}

type service struct {
	cartRepo    *cart.Repository
	productRepo *product.Repository
	orderRepo   *orders.Repository
	links       payment.LinkCreator
	dbClient    *db.Client
	logger      *logger.Logger
	currency    string
}

// NewService constructs the checkout service.
func NewService(
	cartRepo *cart.Repository,
	productRepo *product.Repository,
	orderRepo *orders.Repository,
	links payment.LinkCreator,
	dbClient *db.Client,
	logg *logger.Logger,
	currency string,
) (Service, error) {
	if cartRepo == nil {
		return nil, fmt.Errorf("cart repository required")
	}
	if productRepo == nil {
		return nil, fmt.Errorf("product repository required")
	}
	if orderRepo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if links == nil {
		return nil, fmt.Errorf("payment link creator required")
	}
	if dbClient == nil {
		return nil, fmt.Errorf("db client required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{
		cartRepo:    cartRepo,
		productRepo: productRepo,
		orderRepo:   orderRepo,
		links:       links,
		dbClient:    dbClient,
		logger:      logg,
		currency:    strings.ToUpper(strings.TrimSpace(currency)),
	}, nil
}

// Submit validates the shipping info, reprices and reserves the cart lines,
// creates a Pending order with a hosted payment link, and clears the cart.
// Everything runs in one transaction: any failure, the gateway call
// included, leaves the cart and the shelf untouched.
func (s *service) Submit(ctx context.Context, userID uuid.UUID, shipping types.ShippingInfo) (*SubmitResult, error) {
	shipping = shipping.Normalize()
	if !shipping.Complete() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "address, contactNo, and city are required")
	}

	record, err := s.cartRepo.FindActiveByUser(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "cart is empty")
		}
		if errors.Is(err, cart.ErrSchemaVersion) {
			return nil, pkgerrors.Wrap(pkgerrors.CodeStateConflict, err, "cart cannot be rehydrated")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart")
	}
	if len(record.Items) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "cart is empty")
	}

	orderID := uuid.New()
	var redirectURL string

	if err := s.dbClient.WithTx(ctx, func(tx *gorm.DB) error {
		txProducts := s.productRepo.WithTx(tx)
		txOrders := s.orderRepo.WithTx(tx)
		txCart := s.cartRepo.WithTx(tx)

		lines, total, err := s.repriceAndReserve(ctx, txProducts, record.Items)
		if err != nil {
			return err
		}

		order := &models.Order{
			ID:         orderID,
			UserID:     userID,
			Status:     enums.OrderStatusPending,
			Address:    shipping.Address,
			ContactNo:  shipping.ContactNo,
			City:       shipping.City,
			TotalPrice: total,
			Items:      lines,
		}

		url, err := s.links.CreatePaymentLink(ctx, payment.LinkRequest{
			OrderID:     orderID,
			Description: fmt.Sprintf("CarStore order (%d items)", len(lines)),
			Total:       total,
			Currency:    s.currency,
		})
		if err != nil {
			if pkgerrors.As(err) != nil {
				return err
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create payment link")
		}
		order.PaymentLinkURL = url
		redirectURL = url

		if _, err := txOrders.Create(ctx, order); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: insert order")
		}

		if err := txCart.ClearItems(ctx, record.ID); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: clear cart")
		}
		return txCart.UpdateStatus(ctx, record.ID, enums.CartStatusOrdered)
	}); err != nil {
		if pkgerrors.As(err) != nil {
			return nil, err
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "submit checkout")
	}

	ctx = s.logger.WithOrderID(s.logger.WithUserID(ctx, userID.String()), orderID.String())
	s.logger.Info(ctx, "checkout submitted")

	return &SubmitResult{OrderID: orderID, RedirectURL: redirectURL}, nil
}

// repriceAndReserve rebuilds the order lines from the product table and
// decrements stock with a guarded update. Client-held prices never reach the
// order.
func (s *service) repriceAndReserve(ctx context.Context, txProducts *product.Repository, items []models.CartItem) ([]models.OrderItem, decimal.Decimal, error) {
	lines := make([]models.OrderItem, 0, len(items))
	total := decimal.Zero

	for _, item := range items {
		p, err := txProducts.FindActiveByID(ctx, item.ProductID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, decimal.Zero, pkgerrors.New(pkgerrors.CodeStateConflict,
					fmt.Sprintf("%s is no longer available", item.Name))
			}
			return nil, decimal.Zero, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product")
		}

		ok, err := txProducts.DecrementStock(ctx, p.ID, item.Quantity)
		if err != nil {
			return nil, decimal.Zero, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: reserve stock")
		}
		if !ok {
			return nil, decimal.Zero, pkgerrors.New(pkgerrors.CodeStateConflict,
				fmt.Sprintf("insufficient stock for %s", p.Name))
		}

		lineTotal := p.Price.Mul(decimal.NewFromInt(int64(item.Quantity)))
		lines = append(lines, models.OrderItem{
			ProductID: p.ID,
			Name:      p.Name,
			UnitPrice: p.Price,
			Quantity:  item.Quantity,
			LineTotal: lineTotal,
		})
		total = total.Add(lineTotal)
	}
	return lines, total, nil
}
