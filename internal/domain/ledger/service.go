package ledger

import (
	"context"
	"fmt"
	"sort"
	"time"

	"trackit/internal/core/apperror"
	"trackit/internal/core/appctx"
	"trackit/internal/core/id"
	"trackit/internal/core/tx"
	"trackit/internal/core/types"
	"trackit/internal/domain/audit"
	"trackit/internal/domain/directory"
	"trackit/pkg/logger"
)

// Service enforces the ledger consistency rules. Every mutating operation
// runs its read-check-write cycle inside one transaction over row-locked
// stock levels, so quantities never go negative and the movement log never
// diverges from the levels it describes.
type Service struct {
	levels    LevelRepository
	movements MovementRepository
	directory directory.Store
	trail     audit.Trail
	txManager tx.Manager
}

// NewService creates a new stock ledger service.
func NewService(
	levels LevelRepository,
	movements MovementRepository,
	store directory.Store,
	trail audit.Trail,
	txManager tx.Manager,
) *Service {
	return &Service{
		levels:    levels,
		movements: movements,
		directory: store,
		trail:     trail,
		txManager: txManager,
	}
}

// EntryInput describes a goods receipt from a supplier.
type EntryInput struct {
	ProductID   id.ID
	WarehouseID id.ID
	Quantity    types.Quantity
	SupplierID  id.ID
	Description string
}

// ExitInput describes a goods issue to a customer.
type ExitInput struct {
	StockLevelID id.ID
	Quantity     types.Quantity
	CustomerID   id.ID // optional
	Description  string
}

// TransferInput describes a warehouse-to-warehouse transfer.
type TransferInput struct {
	SourceWarehouseID      id.ID
	DestinationWarehouseID id.ID
	StockLevelID           id.ID
	Quantity               types.Quantity
	Description            string
}

// RecordEntry adds quantity to an existing stock level and appends one
// entry movement. The stock row must already exist; an entry never creates
// one.
//
// Calling RecordEntry twice with identical arguments is deliberately not
// idempotent: it produces two movements and doubles the increment.
func (s *Service) RecordEntry(ctx context.Context, in EntryInput) (*Movement, error) {
	tenantID, err := requireTenant(ctx)
	if err != nil {
		return nil, err
	}
	if !in.Quantity.IsPositive() {
		return nil, apperror.NewValidation("quantity must be positive").
			WithDetail("field", "quantity")
	}
	if id.IsNil(in.ProductID) || id.IsNil(in.WarehouseID) {
		return nil, apperror.NewValidation("product and warehouse are required")
	}
	if id.IsNil(in.SupplierID) {
		return nil, apperror.NewValidation("supplier is required").
			WithDetail("field", "supplierId")
	}

	warehouse, err := s.directory.GetWarehouse(ctx, in.WarehouseID)
	if err != nil {
		return nil, err
	}
	if !warehouse.CanHoldStock() {
		return nil, apperror.NewValidation("warehouse cannot accept stock").
			WithDetail("warehouse_id", in.WarehouseID.String())
	}
	supplier, err := s.directory.GetSupplier(ctx, in.SupplierID)
	if err != nil {
		return nil, err
	}

	var movement *Movement
	err = s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		level, err := s.levels.FindForUpdate(ctx, in.ProductID, in.WarehouseID)
		if err != nil {
			return err
		}

		level.Quantity += in.Quantity
		if err := s.levels.Save(ctx, level); err != nil {
			return err
		}

		movement = s.newMovement(tenantID, KindEntry, level, in.Quantity, level.Quantity, in.SupplierID, supplier.Name, warehouse.Name, in.Description, appctx.GetUserID(ctx))
		return s.movements.Create(ctx, movement)
	})
	if err != nil {
		return nil, err
	}

	s.appendAudit(ctx, audit.ActionStockEntry,
		fmt.Sprintf("received %s %s of %s at %s", in.Quantity, movement.Unit, movement.ProductName, warehouse.Name),
		movement.ID)

	logger.Info(ctx, "stock entry recorded",
		"movement_id", movement.ID,
		"product_id", movement.ProductID,
		"warehouse_id", movement.WarehouseID,
		"quantity", in.Quantity,
	)
	return movement, nil
}

// RecordExit removes quantity from a stock level and appends one exit
// movement. Fails with InsufficientStock when the requested quantity
// exceeds the on-hand amount; the available amount travels in the error.
func (s *Service) RecordExit(ctx context.Context, in ExitInput) (*Movement, error) {
	tenantID, err := requireTenant(ctx)
	if err != nil {
		return nil, err
	}
	if !in.Quantity.IsPositive() {
		return nil, apperror.NewValidation("quantity must be positive").
			WithDetail("field", "quantity")
	}
	if id.IsNil(in.StockLevelID) {
		return nil, apperror.NewValidation("stock level is required").
			WithDetail("field", "stockLevelId")
	}

	var customerName string
	if !id.IsNil(in.CustomerID) {
		customer, err := s.directory.GetCustomer(ctx, in.CustomerID)
		if err != nil {
			return nil, err
		}
		customerName = customer.Name
	}

	var movement *Movement
	err = s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		level, err := s.levels.GetByIDForUpdate(ctx, in.StockLevelID)
		if err != nil {
			return err
		}
		if in.Quantity > level.Quantity {
			return apperror.NewInsufficientStock(level.ProductID.String(), in.Quantity.Float64(), level.Quantity.Float64())
		}

		warehouse, err := s.directory.GetWarehouse(ctx, level.WarehouseID)
		if err != nil {
			return err
		}

		level.Quantity -= in.Quantity
		if err := s.levels.Save(ctx, level); err != nil {
			return err
		}

		movement = s.newMovement(tenantID, KindExit, level, in.Quantity.Neg(), level.Quantity, in.CustomerID, customerName, warehouse.Name, in.Description, appctx.GetUserID(ctx))
		return s.movements.Create(ctx, movement)
	})
	if err != nil {
		return nil, err
	}

	s.appendAudit(ctx, audit.ActionStockExit,
		fmt.Sprintf("issued %s %s of %s from %s", in.Quantity, movement.Unit, movement.ProductName, movement.WarehouseName),
		movement.ID)

	logger.Info(ctx, "stock exit recorded",
		"movement_id", movement.ID,
		"product_id", movement.ProductID,
		"warehouse_id", movement.WarehouseID,
		"quantity", in.Quantity,
	)
	return movement, nil
}

// RecordTransfer moves quantity between two warehouses: the source level
// is decremented, the destination level incremented (created when the
// product has never been stocked there), and two paired movements are
// appended referencing each other through CounterpartyID. All four
// effects commit as one unit or not at all.
func (s *Service) RecordTransfer(ctx context.Context, in TransferInput) (*TransferResult, error) {
	tenantID, err := requireTenant(ctx)
	if err != nil {
		return nil, err
	}
	if !in.Quantity.IsPositive() {
		return nil, apperror.NewValidation("quantity must be positive").
			WithDetail("field", "quantity")
	}
	if id.IsNil(in.StockLevelID) {
		return nil, apperror.NewValidation("stock level is required").
			WithDetail("field", "stockLevelId")
	}
	if id.IsNil(in.SourceWarehouseID) || id.IsNil(in.DestinationWarehouseID) {
		return nil, apperror.NewValidation("source and destination warehouses are required")
	}
	if in.SourceWarehouseID == in.DestinationWarehouseID {
		return nil, apperror.NewValidation("source and destination warehouses must differ").
			WithDetail("warehouse_id", in.SourceWarehouseID.String())
	}

	source, err := s.directory.GetWarehouse(ctx, in.SourceWarehouseID)
	if err != nil {
		return nil, err
	}
	destination, err := s.directory.GetWarehouse(ctx, in.DestinationWarehouseID)
	if err != nil {
		return nil, err
	}
	if !destination.CanHoldStock() {
		return nil, apperror.NewValidation("destination warehouse cannot accept stock").
			WithDetail("warehouse_id", in.DestinationWarehouseID.String())
	}

	result := &TransferResult{}
	// Rows are locked source first, destination second. Crossing transfers
	// can deadlock; Postgres aborts one and the caller retries.
	err = s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		srcLevel, err := s.levels.GetByIDForUpdate(ctx, in.StockLevelID)
		if err != nil {
			return err
		}
		if srcLevel.WarehouseID != in.SourceWarehouseID {
			return apperror.NewValidation("stock level does not belong to the source warehouse").
				WithDetail("stock_level_id", srcLevel.ID.String()).
				WithDetail("warehouse_id", in.SourceWarehouseID.String())
		}
		if in.Quantity > srcLevel.Quantity {
			return apperror.NewInsufficientStock(srcLevel.ProductID.String(), in.Quantity.Float64(), srcLevel.Quantity.Float64())
		}

		srcLevel.Quantity -= in.Quantity
		if err := s.levels.Save(ctx, srcLevel); err != nil {
			return err
		}

		dstLevel, err := s.levels.FindForUpdate(ctx, srcLevel.ProductID, in.DestinationWarehouseID)
		switch {
		case err == nil:
			dstLevel.Quantity += in.Quantity
			if err := s.levels.Save(ctx, dstLevel); err != nil {
				return err
			}
		case apperror.IsNotFound(err):
			dstLevel = NewStockLevel(tenantID, srcLevel.ProductID, in.DestinationWarehouseID, srcLevel.ProductName, srcLevel.Unit, in.Quantity)
			if err := s.levels.Create(ctx, dstLevel); err != nil {
				return err
			}
		default:
			return err
		}

		actor := appctx.GetUserID(ctx)
		result.Out = s.newMovement(tenantID, KindTransferOut, srcLevel, in.Quantity.Neg(), srcLevel.Quantity, in.DestinationWarehouseID, destination.Name, source.Name, in.Description, actor)
		result.In = s.newMovement(tenantID, KindTransferIn, dstLevel, in.Quantity, dstLevel.Quantity, in.SourceWarehouseID, source.Name, destination.Name, in.Description, actor)

		if err := s.movements.Create(ctx, result.Out); err != nil {
			return err
		}
		return s.movements.Create(ctx, result.In)
	})
	if err != nil {
		return nil, err
	}

	s.appendAudit(ctx, audit.ActionStockTransfer,
		fmt.Sprintf("transferred %s %s of %s from %s to %s", in.Quantity, result.Out.Unit, result.Out.ProductName, source.Name, destination.Name),
		result.Out.ID)

	logger.Info(ctx, "stock transfer recorded",
		"out_movement_id", result.Out.ID,
		"in_movement_id", result.In.ID,
		"product_id", result.Out.ProductID,
		"quantity", in.Quantity,
	)
	return result, nil
}

// DeleteMovement is an admin-only data correction. It reverses the
// movement's delta on the owning stock level inside the same transaction,
// so deleting a row never leaves the ledger replay out of step with the
// level. Fails with StateMismatch when reversing would go negative.
func (s *Service) DeleteMovement(ctx context.Context, movementID id.ID) error {
	if _, err := requireTenant(ctx); err != nil {
		return err
	}
	if !appctx.IsAdmin(ctx) {
		return apperror.NewForbidden("admin role required to delete movements")
	}

	var removed *Movement
	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		movement, err := s.movements.GetByID(ctx, movementID)
		if err != nil {
			return err
		}

		level, err := s.levels.GetByIDForUpdate(ctx, movement.StockLevelID)
		if err != nil {
			return err
		}

		reversed := level.Quantity - movement.QuantityDelta
		if reversed.IsNegative() {
			return apperror.NewStateMismatch("stock level", level.ID.String()).
				WithDetail("movement_id", movementID.String()).
				WithDetail("would_be_quantity", reversed.Float64())
		}

		level.Quantity = reversed
		if err := s.levels.Save(ctx, level); err != nil {
			return err
		}

		removed = movement
		return s.movements.Delete(ctx, movementID)
	})
	if err != nil {
		return err
	}

	s.appendAudit(ctx, audit.ActionMovementDelete,
		fmt.Sprintf("deleted %s movement of %s and reversed %s %s", removed.Kind, removed.ProductName, removed.QuantityDelta.Abs(), removed.Unit),
		removed.ID)

	logger.Info(ctx, "movement deleted with compensation",
		"movement_id", movementID,
		"stock_level_id", removed.StockLevelID,
		"reversed_delta", removed.QuantityDelta,
	)
	return nil
}

// ListLevels returns the tenant's stock level rows.
func (s *Service) ListLevels(ctx context.Context, filter LevelFilter) ([]StockLevel, error) {
	if _, err := requireTenant(ctx); err != nil {
		return nil, err
	}
	return s.levels.List(ctx, filter)
}

// AggregateByProduct folds the tenant's stock levels into per-product
// totals with a per-warehouse breakdown. Pure read; the sum of each
// breakdown equals the total by construction.
func (s *Service) AggregateByProduct(ctx context.Context) ([]ProductTotal, error) {
	if _, err := requireTenant(ctx); err != nil {
		return nil, err
	}

	levels, err := s.levels.List(ctx, LevelFilter{})
	if err != nil {
		return nil, err
	}

	warehouseNames := make(map[id.ID]string)
	resolveWarehouse := func(warehouseID id.ID) (string, error) {
		if name, ok := warehouseNames[warehouseID]; ok {
			return name, nil
		}
		wh, err := s.directory.GetWarehouse(ctx, warehouseID)
		if err != nil {
			// A hard-deleted warehouse keeps its holdings readable under
			// an empty name; anything else is a real failure.
			if !apperror.IsNotFound(err) {
				return "", err
			}
			warehouseNames[warehouseID] = ""
			return "", nil
		}
		warehouseNames[warehouseID] = wh.Name
		return wh.Name, nil
	}

	totalsByProduct := make(map[id.ID]*ProductTotal)
	order := make([]id.ID, 0)
	for _, level := range levels {
		total, ok := totalsByProduct[level.ProductID]
		if !ok {
			total = &ProductTotal{
				ProductID:   level.ProductID,
				ProductName: level.ProductName,
				Unit:        level.Unit,
			}
			totalsByProduct[level.ProductID] = total
			order = append(order, level.ProductID)
		}
		warehouseName, err := resolveWarehouse(level.WarehouseID)
		if err != nil {
			return nil, err
		}
		total.Total += level.Quantity
		total.Breakdown = append(total.Breakdown, WarehouseHolding{
			WarehouseID:   level.WarehouseID,
			WarehouseName: warehouseName,
			Quantity:      level.Quantity,
		})
	}

	result := make([]ProductTotal, 0, len(order))
	for _, productID := range order {
		result = append(result, *totalsByProduct[productID])
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].ProductName != result[j].ProductName {
			return result[i].ProductName < result[j].ProductName
		}
		return result[i].ProductID.String() < result[j].ProductID.String()
	})
	return result, nil
}

// ListMovements returns a finite snapshot of the movement log matching
// the filter. Re-querying yields a fresh consistent snapshot; there are
// no live subscription semantics.
func (s *Service) ListMovements(ctx context.Context, filter MovementFilter) ([]Movement, error) {
	if _, err := requireTenant(ctx); err != nil {
		return nil, err
	}
	if filter.Kind != nil && !filter.Kind.IsValid() {
		return nil, apperror.NewValidation("invalid movement kind").
			WithDetail("field", "kind").
			WithDetail("value", string(*filter.Kind))
	}
	if filter.FromDate != nil && filter.ToDate != nil && filter.ToDate.Before(*filter.FromDate) {
		return nil, apperror.NewValidation("toDate must not precede fromDate")
	}
	if filter.Limit <= 0 {
		filter.Limit = 100
	}
	if filter.Limit > 1000 {
		filter.Limit = 1000
	}
	return s.movements.List(ctx, filter)
}

func (s *Service) newMovement(
	tenantID id.ID,
	kind MovementKind,
	level *StockLevel,
	delta, resulting types.Quantity,
	counterpartyID id.ID,
	counterpartyName, warehouseName, description string,
	recordedBy id.ID,
) *Movement {
	return &Movement{
		ID:                id.New(),
		TenantID:          tenantID,
		Kind:              kind,
		StockLevelID:      level.ID,
		ProductID:         level.ProductID,
		WarehouseID:       level.WarehouseID,
		QuantityDelta:     delta,
		ResultingQuantity: resulting,
		CounterpartyID:    counterpartyID,
		ProductName:       level.ProductName,
		Unit:              level.Unit,
		WarehouseName:     warehouseName,
		CounterpartyName:  counterpartyName,
		Description:       description,
		OccurredAt:        time.Now().UTC(),
		RecordedBy:        recordedBy,
	}
}

// appendAudit writes one trail entry for a committed mutation. Trail
// failures are logged and swallowed: the stock mutation already
// succeeded and must not be rolled back by an auxiliary write.
func (s *Service) appendAudit(ctx context.Context, action audit.Action, description string, relatedID id.ID) {
	if s.trail == nil {
		return
	}
	entry := audit.NewEntry(ctx, action, description, relatedID)
	if err := s.trail.Append(ctx, entry); err != nil {
		logger.Warn(ctx, "audit append failed", "action", action, "error", err)
	}
}

func requireTenant(ctx context.Context) (id.ID, error) {
	tenantID := appctx.GetTenantID(ctx)
	if id.IsNil(tenantID) {
		return tenantID, apperror.NewForbidden("tenant scope required")
	}
	return tenantID, nil
}
