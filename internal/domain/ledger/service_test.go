package ledger

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"trackit/internal/core/apperror"
	"trackit/internal/core/appctx"
	"trackit/internal/core/id"
	"trackit/internal/core/types"
	"trackit/internal/domain/audit"
	"trackit/internal/domain/directory"
)

// --- in-memory fakes ---

type fakeLevelRepo struct {
	rows map[id.ID]*StockLevel

	// failSaveOnce simulates a concurrent writer bumping the version
	// between the locked read and the write.
	failSaveOnce bool

	// failCreateOnce simulates losing a first-time creation race: the
	// unique index rejects the insert after another transaction won.
	failCreateOnce bool
}

func newFakeLevelRepo(levels ...*StockLevel) *fakeLevelRepo {
	r := &fakeLevelRepo{rows: make(map[id.ID]*StockLevel)}
	for _, l := range levels {
		cp := *l
		r.rows[l.ID] = &cp
	}
	return r
}

func (r *fakeLevelRepo) Create(_ context.Context, level *StockLevel) error {
	if r.failCreateOnce {
		r.failCreateOnce = false
		return apperror.NewStateMismatch("stock level", level.ID.String())
	}
	cp := *level
	r.rows[level.ID] = &cp
	return nil
}

func (r *fakeLevelRepo) GetByID(_ context.Context, levelID id.ID) (*StockLevel, error) {
	row, ok := r.rows[levelID]
	if !ok {
		return nil, apperror.NewNotFound("stock level", levelID.String())
	}
	cp := *row
	return &cp, nil
}

func (r *fakeLevelRepo) GetByIDForUpdate(ctx context.Context, levelID id.ID) (*StockLevel, error) {
	return r.GetByID(ctx, levelID)
}

func (r *fakeLevelRepo) FindForUpdate(_ context.Context, productID, warehouseID id.ID) (*StockLevel, error) {
	for _, row := range r.rows {
		if row.ProductID == productID && row.WarehouseID == warehouseID {
			cp := *row
			return &cp, nil
		}
	}
	return nil, apperror.NewNotFound("stock level", productID.String())
}

func (r *fakeLevelRepo) Save(_ context.Context, level *StockLevel) error {
	if r.failSaveOnce {
		r.failSaveOnce = false
		return apperror.NewStateMismatch("stock level", level.ID.String())
	}
	stored, ok := r.rows[level.ID]
	if !ok {
		return apperror.NewNotFound("stock level", level.ID.String())
	}
	if stored.Version != level.Version {
		return apperror.NewStateMismatch("stock level", level.ID.String())
	}
	cp := *level
	cp.Version++
	cp.UpdatedAt = time.Now().UTC()
	r.rows[level.ID] = &cp
	return nil
}

func (r *fakeLevelRepo) List(_ context.Context, filter LevelFilter) ([]StockLevel, error) {
	out := make([]StockLevel, 0, len(r.rows))
	for _, row := range r.rows {
		if filter.WarehouseID != nil && row.WarehouseID != *filter.WarehouseID {
			continue
		}
		if filter.ProductID != nil && row.ProductID != *filter.ProductID {
			continue
		}
		if filter.ExcludeZero && row.Quantity.IsZero() {
			continue
		}
		out = append(out, *row)
	}
	return out, nil
}

type fakeMovementRepo struct {
	rows []*Movement
}

func (r *fakeMovementRepo) Create(_ context.Context, movement *Movement) error {
	cp := *movement
	r.rows = append(r.rows, &cp)
	return nil
}

func (r *fakeMovementRepo) GetByID(_ context.Context, movementID id.ID) (*Movement, error) {
	for _, row := range r.rows {
		if row.ID == movementID {
			cp := *row
			return &cp, nil
		}
	}
	return nil, apperror.NewNotFound("movement", movementID.String())
}

func (r *fakeMovementRepo) List(_ context.Context, _ MovementFilter) ([]Movement, error) {
	out := make([]Movement, 0, len(r.rows))
	for i := len(r.rows) - 1; i >= 0; i-- {
		out = append(out, *r.rows[i])
	}
	return out, nil
}

func (r *fakeMovementRepo) Delete(_ context.Context, movementID id.ID) error {
	for i, row := range r.rows {
		if row.ID == movementID {
			r.rows = append(r.rows[:i], r.rows[i+1:]...)
			return nil
		}
	}
	return apperror.NewNotFound("movement", movementID.String())
}

type fakeStore struct {
	products       map[id.ID]*directory.Product
	warehouses     map[id.ID]*directory.Warehouse
	counterparties map[id.ID]*directory.Counterparty

	// warehouseErr makes every warehouse lookup fail with this error.
	warehouseErr error
}

func (s *fakeStore) GetProduct(_ context.Context, productID id.ID) (*directory.Product, error) {
	if p, ok := s.products[productID]; ok {
		return p, nil
	}
	return nil, apperror.NewNotFound("product", productID.String())
}

func (s *fakeStore) GetWarehouse(_ context.Context, warehouseID id.ID) (*directory.Warehouse, error) {
	if s.warehouseErr != nil {
		return nil, s.warehouseErr
	}
	if w, ok := s.warehouses[warehouseID]; ok {
		return w, nil
	}
	return nil, apperror.NewNotFound("warehouse", warehouseID.String())
}

func (s *fakeStore) GetSupplier(_ context.Context, supplierID id.ID) (*directory.Counterparty, error) {
	if cp, ok := s.counterparties[supplierID]; ok && cp.Kind == directory.KindSupplier {
		return cp, nil
	}
	return nil, apperror.NewNotFound("supplier", supplierID.String())
}

func (s *fakeStore) GetCustomer(_ context.Context, customerID id.ID) (*directory.Counterparty, error) {
	if cp, ok := s.counterparties[customerID]; ok && cp.Kind == directory.KindCustomer {
		return cp, nil
	}
	return nil, apperror.NewNotFound("customer", customerID.String())
}

type fakeTrail struct {
	entries []audit.Entry
	failing bool
}

func (t *fakeTrail) Append(_ context.Context, entry audit.Entry) error {
	if t.failing {
		return apperror.NewUnavailable(nil)
	}
	t.entries = append(t.entries, entry)
	return nil
}

func (t *fakeTrail) List(_ context.Context, _ audit.Filter) ([]audit.Entry, error) {
	return t.entries, nil
}

type fakeTxManager struct{}

func (fakeTxManager) RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

// --- fixture ---

type fixture struct {
	svc       *Service
	levels    *fakeLevelRepo
	movements *fakeMovementRepo
	store     *fakeStore
	trail     *fakeTrail

	tenantID    id.ID
	productID   id.ID
	mainWh      *directory.Warehouse
	backupWh    *directory.Warehouse
	supplier    *directory.Counterparty
	customer    *directory.Counterparty
	mainLevelID id.ID
}

func qty(s string) types.Quantity {
	q, err := types.ParseQuantity(s)
	if err != nil {
		panic(err)
	}
	return q
}

func newFixture(t *testing.T, initial types.Quantity) *fixture {
	t.Helper()

	tenantID := id.New()
	productID := id.New()

	mainWh := &directory.Warehouse{IsActive: true}
	mainWh.ID = id.New()
	mainWh.Name = "Main warehouse"

	backupWh := &directory.Warehouse{IsActive: true}
	backupWh.ID = id.New()
	backupWh.Name = "Backup warehouse"

	supplier := &directory.Counterparty{Kind: directory.KindSupplier}
	supplier.ID = id.New()
	supplier.Name = "Acme Supplies"

	customer := &directory.Counterparty{Kind: directory.KindCustomer}
	customer.ID = id.New()
	customer.Name = "Retail Co"

	level := NewStockLevel(tenantID, productID, mainWh.ID, "Bolt M6", "pcs", initial)

	levels := newFakeLevelRepo(level)
	movements := &fakeMovementRepo{}
	store := &fakeStore{
		warehouses: map[id.ID]*directory.Warehouse{
			mainWh.ID:   mainWh,
			backupWh.ID: backupWh,
		},
		counterparties: map[id.ID]*directory.Counterparty{
			supplier.ID: supplier,
			customer.ID: customer,
		},
	}
	trail := &fakeTrail{}

	return &fixture{
		svc:         NewService(levels, movements, store, trail, fakeTxManager{}),
		levels:      levels,
		movements:   movements,
		store:       store,
		trail:       trail,
		tenantID:    tenantID,
		productID:   productID,
		mainWh:      mainWh,
		backupWh:    backupWh,
		supplier:    supplier,
		customer:    customer,
		mainLevelID: level.ID,
	}
}

func (f *fixture) ctx() context.Context {
	return appctx.WithUser(context.Background(), &appctx.UserContext{
		UserID:      id.New(),
		TenantID:    f.tenantID,
		DisplayName: "storekeeper",
		Role:        appctx.RoleStandard,
	})
}

func (f *fixture) adminCtx() context.Context {
	return appctx.WithUser(context.Background(), &appctx.UserContext{
		UserID:      id.New(),
		TenantID:    f.tenantID,
		DisplayName: "admin",
		Role:        appctx.RoleAdmin,
	})
}

func (f *fixture) levelQuantity(t *testing.T, levelID id.ID) types.Quantity {
	t.Helper()
	level, err := f.levels.GetByID(context.Background(), levelID)
	require.NoError(t, err)
	return level.Quantity
}

// --- entry ---

func TestRecordEntry(t *testing.T) {
	f := newFixture(t, qty("10"))

	movement, err := f.svc.RecordEntry(f.ctx(), EntryInput{
		ProductID:   f.productID,
		WarehouseID: f.mainWh.ID,
		Quantity:    qty("5"),
		SupplierID:  f.supplier.ID,
		Description: "weekly delivery",
	})
	require.NoError(t, err)

	assert.Equal(t, KindEntry, movement.Kind)
	assert.Equal(t, qty("5"), movement.QuantityDelta)
	assert.Equal(t, qty("15"), movement.ResultingQuantity)
	assert.Equal(t, "Acme Supplies", movement.CounterpartyName)
	assert.Equal(t, "Bolt M6", movement.ProductName)
	assert.Equal(t, qty("15"), f.levelQuantity(t, f.mainLevelID))

	require.Len(t, f.trail.entries, 1)
	assert.Equal(t, audit.ActionStockEntry, f.trail.entries[0].Action)
}

func TestRecordEntry_DoubleSubmitIsNotDeduplicated(t *testing.T) {
	f := newFixture(t, qty("10"))
	in := EntryInput{
		ProductID:   f.productID,
		WarehouseID: f.mainWh.ID,
		Quantity:    qty("5"),
		SupplierID:  f.supplier.ID,
	}

	_, err := f.svc.RecordEntry(f.ctx(), in)
	require.NoError(t, err)
	_, err = f.svc.RecordEntry(f.ctx(), in)
	require.NoError(t, err)

	assert.Equal(t, qty("20"), f.levelQuantity(t, f.mainLevelID))
	assert.Len(t, f.movements.rows, 2)
}

func TestRecordEntry_Validation(t *testing.T) {
	f := newFixture(t, qty("10"))

	tests := []struct {
		name string
		in   EntryInput
	}{
		{
			name: "zero quantity",
			in:   EntryInput{ProductID: f.productID, WarehouseID: f.mainWh.ID, SupplierID: f.supplier.ID},
		},
		{
			name: "negative quantity",
			in:   EntryInput{ProductID: f.productID, WarehouseID: f.mainWh.ID, Quantity: qty("-1"), SupplierID: f.supplier.ID},
		},
		{
			name: "missing supplier",
			in:   EntryInput{ProductID: f.productID, WarehouseID: f.mainWh.ID, Quantity: qty("1")},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.svc.RecordEntry(f.ctx(), tt.in)
			require.Error(t, err)
			appErr, ok := apperror.AsAppError(err)
			require.True(t, ok)
			assert.Equal(t, apperror.CodeValidation, appErr.Code)
		})
	}

	assert.Equal(t, qty("10"), f.levelQuantity(t, f.mainLevelID))
	assert.Empty(t, f.movements.rows)
}

func TestRecordEntry_UnknownStockRow(t *testing.T) {
	f := newFixture(t, qty("10"))

	_, err := f.svc.RecordEntry(f.ctx(), EntryInput{
		ProductID:   id.New(), // never stocked
		WarehouseID: f.mainWh.ID,
		Quantity:    qty("5"),
		SupplierID:  f.supplier.ID,
	})
	require.Error(t, err)
	assert.True(t, apperror.IsNotFound(err))
	assert.Empty(t, f.movements.rows)
}

func TestRecordEntry_UnknownSupplier(t *testing.T) {
	f := newFixture(t, qty("10"))

	_, err := f.svc.RecordEntry(f.ctx(), EntryInput{
		ProductID:   f.productID,
		WarehouseID: f.mainWh.ID,
		Quantity:    qty("5"),
		SupplierID:  id.New(),
	})
	require.Error(t, err)
	assert.True(t, apperror.IsNotFound(err))
}

// --- exit ---

func TestRecordExit(t *testing.T) {
	f := newFixture(t, qty("10"))

	movement, err := f.svc.RecordExit(f.ctx(), ExitInput{
		StockLevelID: f.mainLevelID,
		Quantity:     qty("4"),
		CustomerID:   f.customer.ID,
	})
	require.NoError(t, err)

	assert.Equal(t, KindExit, movement.Kind)
	assert.Equal(t, qty("-4"), movement.QuantityDelta)
	assert.Equal(t, qty("6"), movement.ResultingQuantity)
	assert.Equal(t, "Retail Co", movement.CounterpartyName)
	assert.Equal(t, qty("6"), f.levelQuantity(t, f.mainLevelID))
}

func TestRecordExit_WithoutCustomer(t *testing.T) {
	f := newFixture(t, qty("10"))

	movement, err := f.svc.RecordExit(f.ctx(), ExitInput{
		StockLevelID: f.mainLevelID,
		Quantity:     qty("10"),
	})
	require.NoError(t, err)
	assert.True(t, id.IsNil(movement.CounterpartyID))
	assert.Equal(t, qty("0"), f.levelQuantity(t, f.mainLevelID))
}

func TestRecordExit_InsufficientStock(t *testing.T) {
	f := newFixture(t, qty("3"))

	_, err := f.svc.RecordExit(f.ctx(), ExitInput{
		StockLevelID: f.mainLevelID,
		Quantity:     qty("5"),
	})
	require.Error(t, err)
	require.True(t, apperror.IsInsufficientStock(err))

	appErr, _ := apperror.AsAppError(err)
	assert.Equal(t, 5.0, appErr.Details["requested"])
	assert.Equal(t, 3.0, appErr.Details["available"])

	// Nothing changed.
	assert.Equal(t, qty("3"), f.levelQuantity(t, f.mainLevelID))
	assert.Empty(t, f.movements.rows)
	assert.Empty(t, f.trail.entries)
}

func TestRecordExit_ConcurrentWriterLosesVersionRace(t *testing.T) {
	f := newFixture(t, qty("10"))
	f.levels.failSaveOnce = true

	_, err := f.svc.RecordExit(f.ctx(), ExitInput{
		StockLevelID: f.mainLevelID,
		Quantity:     qty("5"),
	})
	require.Error(t, err)
	assert.True(t, apperror.IsStateMismatch(err))
	assert.Empty(t, f.movements.rows)

	// Retry succeeds against the fresh row.
	_, err = f.svc.RecordExit(f.ctx(), ExitInput{
		StockLevelID: f.mainLevelID,
		Quantity:     qty("5"),
	})
	require.NoError(t, err)
	assert.Equal(t, qty("5"), f.levelQuantity(t, f.mainLevelID))
}

// --- transfer ---

func TestRecordTransfer_CreatesDestinationLevel(t *testing.T) {
	f := newFixture(t, qty("10"))

	result, err := f.svc.RecordTransfer(f.ctx(), TransferInput{
		SourceWarehouseID:      f.mainWh.ID,
		DestinationWarehouseID: f.backupWh.ID,
		StockLevelID:           f.mainLevelID,
		Quantity:               qty("4"),
	})
	require.NoError(t, err)

	assert.Equal(t, KindTransferOut, result.Out.Kind)
	assert.Equal(t, qty("-4"), result.Out.QuantityDelta)
	assert.Equal(t, qty("6"), result.Out.ResultingQuantity)
	assert.Equal(t, f.backupWh.ID, result.Out.CounterpartyID)
	assert.Equal(t, "Backup warehouse", result.Out.CounterpartyName)

	assert.Equal(t, KindTransferIn, result.In.Kind)
	assert.Equal(t, qty("4"), result.In.QuantityDelta)
	assert.Equal(t, qty("4"), result.In.ResultingQuantity)
	assert.Equal(t, f.mainWh.ID, result.In.CounterpartyID)

	// Same product identity on both sides.
	assert.Equal(t, f.productID, result.In.ProductID)
	assert.NotEqual(t, result.Out.StockLevelID, result.In.StockLevelID)

	assert.Equal(t, qty("6"), f.levelQuantity(t, f.mainLevelID))
	assert.Equal(t, qty("4"), f.levelQuantity(t, result.In.StockLevelID))
	assert.Len(t, f.movements.rows, 2)
}

func TestRecordTransfer_IncrementsExistingDestination(t *testing.T) {
	f := newFixture(t, qty("10"))
	existing := NewStockLevel(f.tenantID, f.productID, f.backupWh.ID, "Bolt M6", "pcs", qty("2"))
	require.NoError(t, f.levels.Create(context.Background(), existing))

	result, err := f.svc.RecordTransfer(f.ctx(), TransferInput{
		SourceWarehouseID:      f.mainWh.ID,
		DestinationWarehouseID: f.backupWh.ID,
		StockLevelID:           f.mainLevelID,
		Quantity:               qty("3"),
	})
	require.NoError(t, err)

	assert.Equal(t, existing.ID, result.In.StockLevelID)
	assert.Equal(t, qty("5"), f.levelQuantity(t, existing.ID))
	assert.Equal(t, qty("7"), f.levelQuantity(t, f.mainLevelID))
}

func TestRecordTransfer_SameWarehouse(t *testing.T) {
	f := newFixture(t, qty("10"))

	_, err := f.svc.RecordTransfer(f.ctx(), TransferInput{
		SourceWarehouseID:      f.mainWh.ID,
		DestinationWarehouseID: f.mainWh.ID,
		StockLevelID:           f.mainLevelID,
		Quantity:               qty("1"),
	})
	require.Error(t, err)
	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeValidation, appErr.Code)
}

func TestRecordTransfer_InsufficientStock(t *testing.T) {
	f := newFixture(t, qty("2"))

	_, err := f.svc.RecordTransfer(f.ctx(), TransferInput{
		SourceWarehouseID:      f.mainWh.ID,
		DestinationWarehouseID: f.backupWh.ID,
		StockLevelID:           f.mainLevelID,
		Quantity:               qty("5"),
	})
	require.Error(t, err)
	assert.True(t, apperror.IsInsufficientStock(err))
	assert.Equal(t, qty("2"), f.levelQuantity(t, f.mainLevelID))
	assert.Empty(t, f.movements.rows)
}

func TestRecordTransfer_LosesFirstStockingRace(t *testing.T) {
	f := newFixture(t, qty("10"))
	f.levels.failCreateOnce = true

	_, err := f.svc.RecordTransfer(f.ctx(), TransferInput{
		SourceWarehouseID:      f.mainWh.ID,
		DestinationWarehouseID: f.backupWh.ID,
		StockLevelID:           f.mainLevelID,
		Quantity:               qty("4"),
	})
	require.Error(t, err)
	assert.True(t, apperror.IsStateMismatch(err))
	assert.Empty(t, f.movements.rows)
	assert.Empty(t, f.trail.entries)

	// The retry finds the row the winner committed (simulated here by the
	// insert succeeding) and the transfer goes through.
	result, err := f.svc.RecordTransfer(f.ctx(), TransferInput{
		SourceWarehouseID:      f.mainWh.ID,
		DestinationWarehouseID: f.backupWh.ID,
		StockLevelID:           f.mainLevelID,
		Quantity:               qty("4"),
	})
	require.NoError(t, err)
	assert.Equal(t, qty("4"), f.levelQuantity(t, result.In.StockLevelID))
}

func TestRecordTransfer_LevelNotInSourceWarehouse(t *testing.T) {
	f := newFixture(t, qty("10"))

	_, err := f.svc.RecordTransfer(f.ctx(), TransferInput{
		SourceWarehouseID:      f.backupWh.ID, // level lives in main
		DestinationWarehouseID: f.mainWh.ID,
		StockLevelID:           f.mainLevelID,
		Quantity:               qty("1"),
	})
	require.Error(t, err)
	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeValidation, appErr.Code)
}

// --- delete ---

func TestDeleteMovement_CompensatesLevel(t *testing.T) {
	f := newFixture(t, qty("10"))

	movement, err := f.svc.RecordEntry(f.adminCtx(), EntryInput{
		ProductID:   f.productID,
		WarehouseID: f.mainWh.ID,
		Quantity:    qty("5"),
		SupplierID:  f.supplier.ID,
	})
	require.NoError(t, err)
	require.Equal(t, qty("15"), f.levelQuantity(t, f.mainLevelID))

	require.NoError(t, f.svc.DeleteMovement(f.adminCtx(), movement.ID))

	assert.Equal(t, qty("10"), f.levelQuantity(t, f.mainLevelID))
	assert.Empty(t, f.movements.rows)
}

func TestDeleteMovement_RequiresAdmin(t *testing.T) {
	f := newFixture(t, qty("10"))

	movement, err := f.svc.RecordEntry(f.ctx(), EntryInput{
		ProductID:   f.productID,
		WarehouseID: f.mainWh.ID,
		Quantity:    qty("5"),
		SupplierID:  f.supplier.ID,
	})
	require.NoError(t, err)

	err = f.svc.DeleteMovement(f.ctx(), movement.ID)
	require.Error(t, err)
	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeForbidden, appErr.Code)
	assert.Len(t, f.movements.rows, 1)
}

func TestDeleteMovement_RefusesNegativeReversal(t *testing.T) {
	f := newFixture(t, qty("10"))
	ctx := f.adminCtx()

	entry, err := f.svc.RecordEntry(ctx, EntryInput{
		ProductID:   f.productID,
		WarehouseID: f.mainWh.ID,
		Quantity:    qty("5"),
		SupplierID:  f.supplier.ID,
	})
	require.NoError(t, err)

	// Stock was issued afterwards; reversing the entry would go below zero.
	_, err = f.svc.RecordExit(ctx, ExitInput{
		StockLevelID: f.mainLevelID,
		Quantity:     qty("12"),
	})
	require.NoError(t, err)

	err = f.svc.DeleteMovement(ctx, entry.ID)
	require.Error(t, err)
	assert.True(t, apperror.IsStateMismatch(err))
	assert.Equal(t, qty("3"), f.levelQuantity(t, f.mainLevelID))
	assert.Len(t, f.movements.rows, 2)
}

func TestDeleteMovement_NotFound(t *testing.T) {
	f := newFixture(t, qty("10"))

	err := f.svc.DeleteMovement(f.adminCtx(), id.New())
	require.Error(t, err)
	assert.True(t, apperror.IsNotFound(err))
}

// --- aggregation ---

func TestAggregateByProduct(t *testing.T) {
	f := newFixture(t, qty("10"))

	otherProduct := id.New()
	require.NoError(t, f.levels.Create(context.Background(),
		NewStockLevel(f.tenantID, f.productID, f.backupWh.ID, "Bolt M6", "pcs", qty("2.5"))))
	require.NoError(t, f.levels.Create(context.Background(),
		NewStockLevel(f.tenantID, otherProduct, f.mainWh.ID, "Anchor plate", "pcs", qty("7"))))

	totals, err := f.svc.AggregateByProduct(f.ctx())
	require.NoError(t, err)
	require.Len(t, totals, 2)

	// Sorted by product name.
	assert.Equal(t, "Anchor plate", totals[0].ProductName)
	assert.Equal(t, qty("7"), totals[0].Total)
	require.Len(t, totals[0].Breakdown, 1)

	assert.Equal(t, "Bolt M6", totals[1].ProductName)
	assert.Equal(t, qty("12.5"), totals[1].Total)
	require.Len(t, totals[1].Breakdown, 2)

	// Breakdown sums to the total.
	var sum types.Quantity
	for _, holding := range totals[1].Breakdown {
		sum += holding.Quantity
	}
	assert.Equal(t, totals[1].Total, sum)
}

func TestAggregateByProduct_ReflectsMutations(t *testing.T) {
	f := newFixture(t, qty("10"))

	_, err := f.svc.RecordExit(f.ctx(), ExitInput{StockLevelID: f.mainLevelID, Quantity: qty("4")})
	require.NoError(t, err)

	totals, err := f.svc.AggregateByProduct(f.ctx())
	require.NoError(t, err)
	require.Len(t, totals, 1)
	assert.Equal(t, qty("6"), totals[0].Total)
}

func TestAggregateByProduct_MissingWarehouseKeepsEmptyName(t *testing.T) {
	f := newFixture(t, qty("10"))
	delete(f.store.warehouses, f.mainWh.ID)

	totals, err := f.svc.AggregateByProduct(f.ctx())
	require.NoError(t, err)
	require.Len(t, totals, 1)
	require.Len(t, totals[0].Breakdown, 1)
	assert.Empty(t, totals[0].Breakdown[0].WarehouseName)
	assert.Equal(t, qty("10"), totals[0].Total)
}

func TestAggregateByProduct_WarehouseLookupFailurePropagates(t *testing.T) {
	f := newFixture(t, qty("10"))
	f.store.warehouseErr = apperror.NewUnavailable(nil)

	_, err := f.svc.AggregateByProduct(f.ctx())
	require.Error(t, err)
	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeUnavailable, appErr.Code)
}

// --- movement log ---

func TestListMovements_ReplayMatchesLevel(t *testing.T) {
	f := newFixture(t, qty("0"))
	ctx := f.ctx()

	_, err := f.svc.RecordEntry(ctx, EntryInput{
		ProductID: f.productID, WarehouseID: f.mainWh.ID,
		Quantity: qty("10"), SupplierID: f.supplier.ID,
	})
	require.NoError(t, err)
	_, err = f.svc.RecordExit(ctx, ExitInput{StockLevelID: f.mainLevelID, Quantity: qty("3")})
	require.NoError(t, err)
	_, err = f.svc.RecordEntry(ctx, EntryInput{
		ProductID: f.productID, WarehouseID: f.mainWh.ID,
		Quantity: qty("1.5"), SupplierID: f.supplier.ID,
	})
	require.NoError(t, err)

	movements, err := f.svc.ListMovements(ctx, MovementFilter{})
	require.NoError(t, err)
	require.Len(t, movements, 3)

	var replayed types.Quantity
	for _, m := range movements {
		replayed += m.QuantityDelta
	}
	assert.Equal(t, f.levelQuantity(t, f.mainLevelID), replayed)
	assert.Equal(t, qty("8.5"), replayed)
}

func TestListMovements_FilterValidation(t *testing.T) {
	f := newFixture(t, qty("10"))

	bad := MovementKind("teleport")
	_, err := f.svc.ListMovements(f.ctx(), MovementFilter{Kind: &bad})
	require.Error(t, err)

	from := time.Now()
	to := from.Add(-time.Hour)
	_, err = f.svc.ListMovements(f.ctx(), MovementFilter{FromDate: &from, ToDate: &to})
	require.Error(t, err)
}

// --- audit resilience ---

func TestAuditFailureDoesNotRollBackMutation(t *testing.T) {
	f := newFixture(t, qty("10"))
	f.trail.failing = true

	movement, err := f.svc.RecordExit(f.ctx(), ExitInput{
		StockLevelID: f.mainLevelID,
		Quantity:     qty("2"),
	})
	require.NoError(t, err)
	require.NotNil(t, movement)
	assert.Equal(t, qty("8"), f.levelQuantity(t, f.mainLevelID))
}

func TestTenantScopeRequired(t *testing.T) {
	f := newFixture(t, qty("10"))

	_, err := f.svc.RecordExit(context.Background(), ExitInput{
		StockLevelID: f.mainLevelID,
		Quantity:     qty("1"),
	})
	require.Error(t, err)
	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeForbidden, appErr.Code)
}
