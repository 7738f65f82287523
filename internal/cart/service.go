package cart

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/carstoreapp/carstore-backend/pkg/db"
	"github.com/carstoreapp/carstore-backend/pkg/db/models"
	pkgerrors "github.com/carstoreapp/carstore-backend/pkg/errors"
)

// Service exposes the persistent per-user cart operations.
type Service interface {
	Get(ctx context.Context, userID uuid.UUID) (*CartDTO, error)
	AddItem(ctx context.Context, userID, productID uuid.UUID) (*MutationResult, error)
	RemoveItem(ctx context.Context, userID, productID uuid.UUID) (*MutationResult, error)
	SetQuantity(ctx context.Context, userID, productID uuid.UUID, quantity int) (*MutationResult, error)
	Clear(ctx context.Context, userID uuid.UUID) error
}

type productReader interface {
	FindActiveByID(ctx context.Context, id uuid.UUID) (*models.Product, error)
}

type service struct {
	repo     *Repository
	products productReader
	dbClient *db.Client
}

// NewService constructs the cart service.
func NewService(repo *Repository, products productReader, dbClient *db.Client) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("cart repository required")
	}
	if products == nil {
		return nil, fmt.Errorf("product reader required")
	}
	if dbClient == nil {
		return nil, fmt.Errorf("db client required")
	}
	return &service{repo: repo, products: products, dbClient: dbClient}, nil
}

// Get returns the user's cart, deriving totals from the lines. A user with no
// persisted cart gets an empty payload, not an error.
func (s *service) Get(ctx context.Context, userID uuid.UUID) (*CartDTO, error) {
	record, err := s.repo.FindActiveByUser(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return NewCartDTO(nil), nil
		}
		return nil, wrapCartLoad(err)
	}
	return NewCartDTO(record), nil
}

// AddItem increments the product's line by one, inserting the line when
// absent. Requests beyond the product's stock ceiling report
// OutcomeStockExceeded and leave the cart unchanged.
func (s *service) AddItem(ctx context.Context, userID, productID uuid.UUID) (*MutationResult, error) {
	product, err := s.loadProduct(ctx, productID)
	if err != nil {
		return nil, err
	}

	var outcome Outcome
	if err := s.dbClient.WithTx(ctx, func(tx *gorm.DB) error {
		txRepo := s.repo.WithTx(tx)

		record, err := s.findOrCreateActive(ctx, txRepo, userID)
		if err != nil {
			return err
		}

		line := findLine(record, productID)
		current := 0
		if line != nil {
			current = line.Quantity
		}

		if current+1 > product.Stock {
			outcome = OutcomeStockExceeded
			return nil
		}

		if line == nil {
			line = &models.CartItem{
				CartID:    record.ID,
				ProductID: product.ID,
				Name:      product.Name,
				UnitPrice: product.Price,
				ImageURL:  product.ImageURL,
			}
		}
		line.Quantity = current + 1

		if err := txRepo.SaveItem(ctx, line); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: save cart item")
		}
		outcome = OutcomeAccepted
		return txRepo.Touch(ctx, record.ID)
	}); err != nil {
		return nil, s.wrapTxErr(err, "add cart item")
	}

	return s.mutationResult(ctx, userID, outcome)
}

// RemoveItem deletes the product's line. A missing line reports
// OutcomeNotFound rather than an error.
func (s *service) RemoveItem(ctx context.Context, userID, productID uuid.UUID) (*MutationResult, error) {
	var outcome Outcome
	if err := s.dbClient.WithTx(ctx, func(tx *gorm.DB) error {
		txRepo := s.repo.WithTx(tx)

		record, err := txRepo.FindActiveByUser(ctx, userID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				outcome = OutcomeNotFound
				return nil
			}
			return wrapCartLoad(err)
		}

		removed, err := txRepo.DeleteItem(ctx, record.ID, productID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: delete cart item")
		}
		if !removed {
			outcome = OutcomeNotFound
			return nil
		}
		outcome = OutcomeAccepted
		return txRepo.Touch(ctx, record.ID)
	}); err != nil {
		return nil, s.wrapTxErr(err, "remove cart item")
	}

	return s.mutationResult(ctx, userID, outcome)
}

// SetQuantity replaces the line's quantity. Quantities above the stock
// ceiling are clamped to it and reported as OutcomeStockExceeded.
func (s *service) SetQuantity(ctx context.Context, userID, productID uuid.UUID, quantity int) (*MutationResult, error) {
	if quantity <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be positive")
	}

	product, err := s.loadProduct(ctx, productID)
	if err != nil {
		return nil, err
	}

	var outcome Outcome
	if err := s.dbClient.WithTx(ctx, func(tx *gorm.DB) error {
		txRepo := s.repo.WithTx(tx)

		record, err := txRepo.FindActiveByUser(ctx, userID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				outcome = OutcomeNotFound
				return nil
			}
			return wrapCartLoad(err)
		}

		line := findLine(record, productID)
		if line == nil {
			outcome = OutcomeNotFound
			return nil
		}

		outcome = OutcomeAccepted
		target := quantity
		if target > product.Stock {
			target = product.Stock
			outcome = OutcomeStockExceeded
		}
		if target <= 0 {
			// product sold out since the line was added
			if _, err := txRepo.DeleteItem(ctx, record.ID, productID); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: delete cart item")
			}
			return txRepo.Touch(ctx, record.ID)
		}

		line.Quantity = target
		if err := txRepo.SaveItem(ctx, line); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: save cart item")
		}
		return txRepo.Touch(ctx, record.ID)
	}); err != nil {
		return nil, s.wrapTxErr(err, "set cart quantity")
	}

	return s.mutationResult(ctx, userID, outcome)
}

// Clear wipes the cart unconditionally. Clearing an absent or already empty
// cart succeeds.
func (s *service) Clear(ctx context.Context, userID uuid.UUID) error {
	record, err := s.repo.FindActiveByUser(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		return wrapCartLoad(err)
	}
	if err := s.repo.ClearItems(ctx, record.ID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: clear cart items")
	}
	return nil
}

func (s *service) loadProduct(ctx context.Context, productID uuid.UUID) (*models.Product, error) {
	product, err := s.products.FindActiveByID(ctx, productID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product")
	}
	return product, nil
}

func (s *service) findOrCreateActive(ctx context.Context, repo *Repository, userID uuid.UUID) (*models.CartRecord, error) {
	record, err := repo.FindActiveByUser(ctx, userID)
	if err == nil {
		return record, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, wrapCartLoad(err)
	}
	created, err := repo.CreateActive(ctx, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: create cart")
	}
	return created, nil
}

func (s *service) mutationResult(ctx context.Context, userID uuid.UUID, outcome Outcome) (*MutationResult, error) {
	dto, err := s.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	return &MutationResult{Outcome: outcome, Cart: dto}, nil
}

// wrapCartLoad distinguishes a cart this build cannot rehydrate from a
// transient database failure.
func wrapCartLoad(err error) error {
	if errors.Is(err, ErrSchemaVersion) {
		return pkgerrors.Wrap(pkgerrors.CodeStateConflict, err, "cart cannot be rehydrated")
	}
	return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart")
}

func (s *service) wrapTxErr(err error, op string) error {
	if pkgerrors.As(err) != nil {
		return err
	}
	return pkgerrors.Wrap(pkgerrors.CodeDependency, err, op)
}

func findLine(record *models.CartRecord, productID uuid.UUID) *models.CartItem {
	for i := range record.Items {
		if record.Items[i].ProductID == productID {
			return &record.Items[i]
		}
	}
	return nil
}
