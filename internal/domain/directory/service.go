package directory

import (
	"context"
	"fmt"

	"trackit/internal/core/apperror"
	"trackit/internal/core/appctx"
	"trackit/internal/core/id"
	"trackit/internal/core/tx"
	"trackit/pkg/logger"
)

// CatalogService provides business logic shared by all reference entities.
type CatalogService[T Validatable] struct {
	repo      CatalogRepository[T]
	txManager tx.Manager

	// entityName for error messages
	entityName string
}

// NewCatalogService creates a new catalog service.
func NewCatalogService[T Validatable](repo CatalogRepository[T], txManager tx.Manager, entityName string) *CatalogService[T] {
	return &CatalogService[T]{
		repo:       repo,
		txManager:  txManager,
		entityName: entityName,
	}
}

func (s *CatalogService[T]) normalizeGetErr(err error, entityID any) error {
	if err == nil {
		return nil
	}
	// Preserve existing AppError, but map not-found to the correct entity name.
	if apperror.IsNotFound(err) {
		return apperror.NewNotFound(s.entityName, entityID)
	}
	if apperror.IsAppError(err) {
		return err
	}
	return apperror.NewInternal(err).WithDetail("entity", s.entityName)
}

// Create validates and inserts a new entity.
func (s *CatalogService[T]) Create(ctx context.Context, entity T) error {
	if err := entity.Validate(ctx); err != nil {
		return err
	}

	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		if err := s.repo.Create(ctx, entity); err != nil {
			return fmt.Errorf("create %s: %w", s.entityName, err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	logger.Info(ctx, "catalog entity created", "entity", s.entityName)
	return nil
}

// GetByID retrieves entity by ID.
func (s *CatalogService[T]) GetByID(ctx context.Context, entityID id.ID) (T, error) {
	entity, err := s.repo.GetByID(ctx, entityID)
	if err != nil {
		return entity, s.normalizeGetErr(err, entityID.String())
	}
	return entity, nil
}

// Update validates and saves an existing entity.
func (s *CatalogService[T]) Update(ctx context.Context, entity T) error {
	if err := entity.Validate(ctx); err != nil {
		return err
	}

	return s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		if err := s.repo.Update(ctx, entity); err != nil {
			return s.normalizeGetErr(err, nil)
		}
		return nil
	})
}

// Delete sets the deletion mark. Rows referenced by ledger history are
// never removed this way, so movement enrichment keeps working.
func (s *CatalogService[T]) Delete(ctx context.Context, entityID id.ID) error {
	return s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		if err := s.repo.SetDeletionMark(ctx, entityID, true); err != nil {
			return s.normalizeGetErr(err, entityID.String())
		}
		return nil
	})
}

// HardDelete permanently removes the entity. Admin role only.
func (s *CatalogService[T]) HardDelete(ctx context.Context, entityID id.ID) error {
	if !appctx.IsAdmin(ctx) {
		return apperror.NewForbidden("admin role required").
			WithDetail("entity", s.entityName)
	}

	return s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		if err := s.repo.HardDelete(ctx, entityID); err != nil {
			return s.normalizeGetErr(err, entityID.String())
		}
		return nil
	})
}

// List returns entities matching the filter.
func (s *CatalogService[T]) List(ctx context.Context, filter ListFilter) ([]T, error) {
	return s.repo.List(ctx, filter)
}

// Resolver implements the Store contract over the catalog repositories.
type Resolver struct {
	products       CatalogRepository[*Product]
	warehouses     CatalogRepository[*Warehouse]
	counterparties CatalogRepository[*Counterparty]
}

// NewResolver creates a Store backed by the catalog repositories.
func NewResolver(
	products CatalogRepository[*Product],
	warehouses CatalogRepository[*Warehouse],
	counterparties CatalogRepository[*Counterparty],
) *Resolver {
	return &Resolver{
		products:       products,
		warehouses:     warehouses,
		counterparties: counterparties,
	}
}

// GetProduct implements Store.
func (r *Resolver) GetProduct(ctx context.Context, productID id.ID) (*Product, error) {
	p, err := r.products.GetByID(ctx, productID)
	if err != nil {
		if apperror.IsNotFound(err) {
			return nil, apperror.NewNotFound("product", productID.String())
		}
		return nil, err
	}
	return p, nil
}

// GetWarehouse implements Store.
func (r *Resolver) GetWarehouse(ctx context.Context, warehouseID id.ID) (*Warehouse, error) {
	w, err := r.warehouses.GetByID(ctx, warehouseID)
	if err != nil {
		if apperror.IsNotFound(err) {
			return nil, apperror.NewNotFound("warehouse", warehouseID.String())
		}
		return nil, err
	}
	return w, nil
}

// GetSupplier implements Store. A counterparty of the wrong kind is
// reported as not found rather than leaking the other kind's record.
func (r *Resolver) GetSupplier(ctx context.Context, supplierID id.ID) (*Counterparty, error) {
	return r.getCounterparty(ctx, supplierID, KindSupplier, "supplier")
}

// GetCustomer implements Store.
func (r *Resolver) GetCustomer(ctx context.Context, customerID id.ID) (*Counterparty, error) {
	return r.getCounterparty(ctx, customerID, KindCustomer, "customer")
}

func (r *Resolver) getCounterparty(ctx context.Context, cpID id.ID, kind CounterpartyKind, entityName string) (*Counterparty, error) {
	cp, err := r.counterparties.GetByID(ctx, cpID)
	if err != nil {
		if apperror.IsNotFound(err) {
			return nil, apperror.NewNotFound(entityName, cpID.String())
		}
		return nil, err
	}
	if cp.Kind != kind {
		return nil, apperror.NewNotFound(entityName, cpID.String())
	}
	return cp, nil
}

// Ensure interface compliance.
var _ Store = (*Resolver)(nil)
