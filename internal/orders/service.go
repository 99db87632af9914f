package orders

import (
	"context"
	stdErrors "errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/kynkyro/shaderstore-backend/pkg/db/models"
	"github.com/kynkyro/shaderstore-backend/pkg/enums"
	pkgerrors "github.com/kynkyro/shaderstore-backend/pkg/errors"
	"github.com/kynkyro/shaderstore-backend/pkg/logger"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Service owns the local order history: recording accepted submissions and
// serving reads scoped to the shopper who placed them.
type Service interface {
	Record(ctx context.Context, input SubmitOrderInput, result SubmitResult) (*models.Order, error)
	History(ctx context.Context, shopperID string) ([]models.Order, error)
	Detail(ctx context.Context, shopperID string, orderID uuid.UUID) (*models.Order, error)
}

type service struct {
	repo Repository
	tx   txRunner
	logg *logger.Logger
}

// NewService builds the order history service.
func NewService(repo Repository, tx txRunner, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{repo: repo, tx: tx, logg: logg}, nil
}

// Record snapshots an accepted submission. Recording the same external
// reference twice returns the existing row, so a replayed acknowledgement
// never produces a duplicate history entry.
func (s *service) Record(ctx context.Context, input SubmitOrderInput, result SubmitResult) (*models.Order, error) {
	if input.ShopperID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "shopper id is required")
	}
	if result.OrderRef == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order reference is required")
	}

	order := buildOrder(input, result)

	var recorded *models.Order
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		existing, err := repo.FindByExternalRef(ctx, result.OrderRef)
		if err == nil {
			recorded = existing
			return nil
		}
		if !stdErrors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lookup order by reference")
		}

		created, err := repo.Create(ctx, order)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "record order")
		}
		recorded = created
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logg.Info(s.logg.WithOrderRef(s.logg.WithShopperID(ctx, input.ShopperID), result.OrderRef), "order recorded")
	return recorded, nil
}

func (s *service) History(ctx context.Context, shopperID string) ([]models.Order, error) {
	if shopperID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "shopper id is required")
	}
	orders, err := s.repo.ListByShopper(ctx, shopperID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list orders")
	}
	return orders, nil
}

func (s *service) Detail(ctx context.Context, shopperID string, orderID uuid.UUID) (*models.Order, error) {
	if shopperID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "shopper id is required")
	}
	if orderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id is required")
	}

	order, err := s.repo.FindByIDAndShopper(ctx, orderID, shopperID)
	if err != nil {
		if stdErrors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
	}
	return order, nil
}

func buildOrder(input SubmitOrderInput, result SubmitResult) *models.Order {
	items := make([]models.OrderLineItem, 0, len(input.Items))
	for _, line := range input.Items {
		items = append(items, models.OrderLineItem{
			ID:             uuid.New(),
			ProductID:      line.ProductID,
			VariantID:      line.VariantID,
			Name:           line.Name,
			Image:          line.Image,
			UnitPriceCents: line.UnitPriceCents,
			Qty:            line.Qty,
			TotalCents:     line.TotalCents,
		})
	}

	return &models.Order{
		ID:               uuid.New(),
		ShopperID:        input.ShopperID,
		ExternalRef:      result.OrderRef,
		Status:           enums.OrderStatusPlaced,
		Currency:         input.Currency,
		SubtotalCents:    input.SubtotalCents,
		VATCents:         input.VATCents,
		TotalCents:       input.TotalCents,
		PaymentReference: input.PaymentReference,
		ShippingAddress:  input.ShippingAddress,
		BillingAddress:   input.BillingAddress,
		Items:            items,
	}
}
