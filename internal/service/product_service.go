package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/iyhunko/inventory-service/internal/metrics"
	"github.com/iyhunko/inventory-service/internal/model"
	"github.com/iyhunko/inventory-service/internal/repository"
	"github.com/iyhunko/inventory-service/internal/serviceerrors"
	"github.com/iyhunko/inventory-service/internal/sqs"
	"github.com/iyhunko/inventory-service/internal/validation"
)

const (
	msgProductNotFound    = "Produto não encontrado! ☹️"
	msgProductNotInserted = "Produto não inserido! ☹️ Detectamos um campo nulo na requisição"
	msgProductNotDeleted  = "Produto não excluido! ☹️"
	msgProductNotUpdated  = "Produto não atualizado! ☹️ O banco recusou os valores enviados"
	msgProductIDNotFound  = "Produto com ID %d não encontrado ☹️"
	msgProductsNotFound   = "Produtos não encontrados"
)

type ProductService struct {
	products  repository.ProductRepository
	tx        repository.Transactor
	validator *validation.Validator
}

func NewProductService(products repository.ProductRepository, tx repository.Transactor, validator *validation.Validator) *ProductService {
	return &ProductService{
		products:  products,
		tx:        tx,
		validator: validator,
	}
}

func (ps *ProductService) ListAll(ctx context.Context, query repository.Query) ([]*model.Product, error) {
	products, err := ps.products.FindAll(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}
	return products, nil
}

func (ps *ProductService) GetByID(ctx context.Context, id int64) (*model.Product, error) {
	product, err := ps.products.FindByID(ctx, id)
	if err != nil {
		return nil, translate(err, msgProductNotFound, "get product")
	}
	return product, nil
}

// Create validates in and persists it together with a product.created event.
func (ps *ProductService) Create(ctx context.Context, in model.ProductInput) (*model.Product, error) {
	if fields := ps.validator.Validate(in); len(fields) > 0 {
		return nil, serviceerrors.NewValidationError(fields)
	}

	product := &model.Product{}
	product.Apply(in)

	err := ps.tx.WithinTransaction(ctx, func(products repository.ProductRepository, events repository.EventRepository) error {
		if _, err := products.Save(ctx, product); err != nil {
			return err
		}
		return recordEvent(ctx, events, model.EventProductCreated, productMessage(sqs.ActionCreated, product))
	})
	if err != nil {
		if rejected := rejectedByStore(err, msgProductNotInserted); rejected != nil {
			return nil, rejected
		}
		return nil, fmt.Errorf("failed to create product: %w", err)
	}

	metrics.ProductsCreated.Inc()
	slog.Info("product created", slog.Int64("product_id", product.ID))

	return product, nil
}

// DeleteByID looks the product up and deletes it in the same transaction.
func (ps *ProductService) DeleteByID(ctx context.Context, id int64) error {
	err := ps.tx.WithinTransaction(ctx, func(products repository.ProductRepository, events repository.EventRepository) error {
		product, err := products.FindByID(ctx, id)
		if err != nil {
			return err
		}
		if err := products.DeleteByID(ctx, id); err != nil {
			return err
		}
		return recordEvent(ctx, events, model.EventProductDeleted, productMessage(sqs.ActionDeleted, product))
	})
	if err != nil {
		return translate(err, msgProductNotDeleted, "delete product")
	}

	metrics.ProductsDeleted.Inc()
	slog.Info("product deleted", slog.Int64("product_id", id))

	return nil
}

// Update overwrites every mutable field of the product with in.
func (ps *ProductService) Update(ctx context.Context, id int64, in model.ProductInput) error {
	err := ps.tx.WithinTransaction(ctx, func(products repository.ProductRepository, events repository.EventRepository) error {
		product, err := products.FindByID(ctx, id)
		if err != nil {
			return err
		}

		if fields := ps.validator.Validate(in); len(fields) > 0 {
			return serviceerrors.NewValidationError(fields)
		}

		product.Apply(in)
		if _, err := products.Save(ctx, product); err != nil {
			return err
		}
		return recordEvent(ctx, events, model.EventProductUpdated, productMessage(sqs.ActionUpdated, product))
	})
	if err != nil {
		if rejected := rejectedByStore(err, msgProductNotUpdated); rejected != nil {
			return rejected
		}
		return translate(err, fmt.Sprintf(msgProductIDNotFound, id), "update product")
	}

	metrics.ProductsUpdated.Inc()
	slog.Info("product updated", slog.Int64("product_id", id))

	return nil
}

// PartialUpdate merges the recognised keys of updates into the product and
// returns how many were applied. Nothing is written when none is recognised.
func (ps *ProductService) PartialUpdate(ctx context.Context, id int64, updates map[string]any) (int, error) {
	var changed int
	err := ps.tx.WithinTransaction(ctx, func(products repository.ProductRepository, events repository.EventRepository) error {
		product, err := products.FindByID(ctx, id)
		if err != nil {
			return err
		}

		in := product.Input()
		changed, err = mergeUpdates(&in, updates)
		if err != nil || changed == 0 {
			return err
		}

		if fields := ps.validator.Validate(in); len(fields) > 0 {
			return serviceerrors.NewValidationError(fields)
		}

		product.Apply(in)
		if _, err := products.Save(ctx, product); err != nil {
			return err
		}
		return recordEvent(ctx, events, model.EventProductUpdated, productMessage(sqs.ActionUpdated, product))
	})
	if err != nil {
		if rejected := rejectedByStore(err, msgProductNotUpdated); rejected != nil {
			return 0, rejected
		}
		return 0, translate(err, fmt.Sprintf(msgProductIDNotFound, id), "update product")
	}

	if changed > 0 {
		metrics.ProductsUpdated.Inc()
		slog.Info("product partially updated", slog.Int64("product_id", id), slog.Int("fields", changed))
	}

	return changed, nil
}

// FindByName returns the products whose name contains name, ignoring case.
func (ps *ProductService) FindByName(ctx context.Context, name string) ([]*model.Product, error) {
	products, err := ps.products.FindByNameLike(ctx, "%"+name+"%")
	if err != nil {
		return nil, fmt.Errorf("failed to find products by name: %w", err)
	}
	if len(products) == 0 {
		return nil, serviceerrors.NewNotFoundError(msgProductsNotFound)
	}
	return products, nil
}

// DeleteByStockAtMost deletes every product with at most qnt units in stock
// and returns how many were deleted. Zero means nothing matched.
func (ps *ProductService) DeleteByStockAtMost(ctx context.Context, qnt int) (int64, error) {
	var deleted int64
	err := ps.tx.WithinTransaction(ctx, func(products repository.ProductRepository, events repository.EventRepository) error {
		count, err := products.CountByStockAtMost(ctx, qnt)
		if err != nil || count == 0 {
			return err
		}

		deleted, err = products.DeleteByStockAtMost(ctx, qnt)
		if err != nil || deleted == 0 {
			return err
		}

		return recordEvent(ctx, events, model.EventProductDeletedByStock, sqs.ProductMessage{
			Action:        sqs.ActionDeletedByStock,
			StockQuantity: qnt,
			Count:         deleted,
		})
	})
	if err != nil {
		return 0, fmt.Errorf("failed to delete products by stock: %w", err)
	}

	if deleted > 0 {
		metrics.ProductsDeleted.Add(float64(deleted))
		slog.Info("products deleted by stock", slog.Int("stock", qnt), slog.Int64("count", deleted))
	}

	return deleted, nil
}

func (ps *ProductService) CountByStockAtMost(ctx context.Context, qnt int) (int64, error) {
	count, err := ps.products.CountByStockAtMost(ctx, qnt)
	if err != nil {
		return 0, fmt.Errorf("failed to count products by stock: %w", err)
	}
	return count, nil
}

func productMessage(action string, product *model.Product) sqs.ProductMessage {
	return sqs.ProductMessage{
		Action:        action,
		ProductID:     product.ID,
		Name:          product.Name,
		Price:         product.Price,
		StockQuantity: product.StockQuantity,
	}
}

func recordEvent(ctx context.Context, events repository.EventRepository, eventType string, msg sqs.ProductMessage) error {
	event, err := model.NewEvent(eventType, msg)
	if err != nil {
		return err
	}
	if _, err := events.Create(ctx, event); err != nil {
		return fmt.Errorf("failed to record %s event: %w", eventType, err)
	}
	return nil
}

// translate keeps service errors, maps a missing record to NotFound(notFound)
// and wraps everything else.
// rejectedByStore turns a constraint violation reported by the store into a
// bad request carrying message. It returns nil for any other error.
func rejectedByStore(err error, message string) error {
	var violation *repository.ConstraintViolationError
	if !errors.As(err, &violation) {
		return nil
	}
	slog.Warn("product rejected by store constraint", slog.String("code", violation.Code), slog.String("detail", violation.Detail))
	return serviceerrors.NewBadRequestError(message)
}

func translate(err error, notFound, op string) error {
	var svcErr *serviceerrors.ServiceError
	switch {
	case errors.As(err, &svcErr):
		return svcErr
	case errors.Is(err, repository.ErrNotFound):
		return serviceerrors.NewNotFoundError(notFound)
	default:
		return fmt.Errorf("failed to %s: %w", op, err)
	}
}
