package reorder_test

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/kardex-api/internal/app"
	"github.com/jhoicas/kardex-api/internal/application/inventory"
	"github.com/jhoicas/kardex-api/internal/application/reorder"
	"github.com/jhoicas/kardex-api/internal/domain"
	"github.com/jhoicas/kardex-api/internal/domain/entity"
	domaininv "github.com/jhoicas/kardex-api/internal/domain/inventory"
	"github.com/jhoicas/kardex-api/internal/infrastructure/memory"
	"github.com/jhoicas/kardex-api/internal/infrastructure/storage"
	"github.com/jhoicas/kardex-api/pkg/config"
	"github.com/jhoicas/kardex-api/pkg/logger"
)

var t0 = time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

func newServices(t *testing.T) *app.Services {
	t.Helper()
	store, err := memory.NewStore()
	require.NoError(t, err)
	cfg := &config.Config{
		App:       config.AppConfig{Name: "kardex-test"},
		Inventory: config.InventoryConfig{CriticalFactor: 1, LockTimeout: time.Second, AutoResolve: true},
		Reorder:   config.ReorderConfig{ServiceLevel: 0.95, HoldingRate: 0.25, OrderCost: 50, ForecastHorizonDays: 90},
	}
	svc := app.NewServices(storage.NewMemory(store), cfg, logger.Nop())
	fixed := func() time.Time { return t0 }
	svc.Ledger.SetClock(fixed)
	svc.Projection.SetClock(fixed)
	svc.Alerts.SetClock(fixed)
	svc.Optimizer.SetClock(fixed)
	svc.Forecast.SetClock(func() time.Time { return t0.Add(time.Hour) })
	return svc
}

func f64(v float64) *float64 { return &v }

func TestOptimize_ParametrosExplicitos(t *testing.T) {
	svc := newServices(t)
	res, err := svc.Optimizer.Optimize(context.Background(), "P1", reorder.OptimizeInput{
		DemandAnnual: f64(1200),
		OrderCost:    f64(50),
		HoldingCost:  f64(2),
		LeadTimeDays: f64(5),
		ServiceLevel: f64(0.95),
		DemandStdDev: f64(2),
	})
	require.NoError(t, err)
	assert.InDelta(t, 244.95, res.EOQ, 0.01)
	assert.InDelta(t, 1.65, res.Z, 1e-9)
	assert.InDelta(t, 7.38, res.SafetyStock, 0.01)
	assert.InDelta(t, 1200.0/365*5+res.SafetyStock, res.ROP, 1e-9)
	assert.Equal(t, t0, res.CreatedAt)

	latest, err := svc.Optimizer.Latest(context.Background(), "P1")
	require.NoError(t, err)
	assert.Equal(t, res.ID, latest.ID)
}

func TestOptimize_CompletaDesdeCatalogoYPronostico(t *testing.T) {
	svc := newServices(t)
	ctx := context.Background()
	require.NoError(t, svc.Storage.Products.Upsert(ctx, &entity.Product{
		ID: "P1", SKU: "SKU-1", Name: "Tornillo", UnitCost: decimal.NewFromInt(8), LeadTimeDays: 5, PreferredSupplierID: "PROV-1",
	}))
	_, err := svc.Ledger.Append(ctx, inventory.AppendInput{ProductID: "P1", Kind: entity.MovementKindENTRY, Subtype: entity.EntryPurchase, Quantity: 1000})
	require.NoError(t, err)
	_, err = svc.Ledger.Append(ctx, inventory.AppendInput{ProductID: "P1", Kind: entity.MovementKindEXIT, Subtype: entity.ExitSale, Quantity: 90})
	require.NoError(t, err)

	res, err := svc.Optimizer.Optimize(ctx, "P1", reorder.OptimizeInput{ApplyReorderPoint: true})
	require.NoError(t, err)

	// 90 ventas en 90 días → 365 al año; H = 8 · 0.25.
	assert.InDelta(t, 365, res.DemandAnnual, 1e-9)
	assert.InDelta(t, 2, res.Params.HoldingCost, 1e-9)
	assert.InDelta(t, 50, res.Params.OrderCost, 1e-9)
	assert.InDelta(t, 5, res.Params.LeadTimeDays, 1e-9)
	require.NotNil(t, res.Params.UnitCost)
	assert.InDelta(t, 8, *res.Params.UnitCost, 1e-9)
	assert.Greater(t, res.Params.DemandStdDev, 0.0)

	level, err := svc.Projection.Get(ctx, "P1")
	require.NoError(t, err)
	assert.Equal(t, domaininv.CeilQuantity(res.ROP), level.ReorderPoint)

	po, err := svc.Optimizer.SuggestPurchaseOrder(ctx, "P1")
	require.NoError(t, err)
	assert.Equal(t, reorder.SourceOptimization, po.Source)
	assert.Equal(t, domaininv.CeilQuantity(res.EOQ), po.SuggestedQuantity)
	assert.Equal(t, "SKU-1", po.SKU)
	assert.Equal(t, "PROV-1", po.SupplierID)
	assert.InDelta(t, 8, po.UnitCost, 1e-9)
}

func TestOptimize_ParametrosInvalidos(t *testing.T) {
	svc := newServices(t)
	ctx := context.Background()

	_, err := svc.Optimizer.Optimize(ctx, "P1", reorder.OptimizeInput{OrderCost: f64(50), HoldingCost: f64(2)})
	assert.ErrorIs(t, err, domain.ErrInvalidParameters, "sin demanda ni pronóstico")

	_, err = svc.Optimizer.Optimize(ctx, "P1", reorder.OptimizeInput{
		DemandAnnual: f64(100), OrderCost: f64(50), HoldingCost: f64(2), ServiceLevel: f64(0.5),
	})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = svc.Optimizer.Optimize(ctx, "P1", reorder.OptimizeInput{
		DemandAnnual: f64(100), OrderCost: f64(50), HoldingCost: f64(2), LeadTimeDays: f64(-1),
	})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = svc.Optimizer.Latest(ctx, "P1")
	assert.ErrorIs(t, err, domain.ErrNotFound, "los fallos no persisten resultados")
}

func TestHistory_MasRecientePrimero(t *testing.T) {
	svc := newServices(t)
	ctx := context.Background()
	for _, d := range []float64{100, 400} {
		_, err := svc.Optimizer.Optimize(ctx, "P1", reorder.OptimizeInput{DemandAnnual: f64(d), OrderCost: f64(10), HoldingCost: f64(1)})
		require.NoError(t, err)
	}
	hist, err := svc.Optimizer.History(ctx, "P1", 0)
	require.NoError(t, err)
	require.Len(t, hist, 2)
	assert.InDelta(t, 400, hist[0].DemandAnnual, 1e-9)
}

func TestSuggestPurchaseOrder_DesdeAlerta(t *testing.T) {
	svc := newServices(t)
	ctx := context.Background()

	_, err := svc.Optimizer.SuggestPurchaseOrder(ctx, "P1")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = svc.Ledger.Append(ctx, inventory.AppendInput{ProductID: "P1", Kind: entity.MovementKindENTRY, Subtype: entity.EntryInitial, Quantity: 4})
	require.NoError(t, err)
	_, err = svc.Projection.SetThresholds(ctx, "P1", inventory.ThresholdsInput{Minimum: 2, ReorderPoint: 6, Maximum: 30})
	require.NoError(t, err)

	po, err := svc.Optimizer.SuggestPurchaseOrder(ctx, "P1")
	require.NoError(t, err)
	assert.Equal(t, reorder.SourceAlert, po.Source)
	assert.Equal(t, int64(26), po.SuggestedQuantity)

	req, doc, err := svc.Optimizer.GeneratePurchaseOrder(ctx, "P1")
	require.NoError(t, err)
	assert.Equal(t, po.SuggestedQuantity, req.SuggestedQuantity)
	assert.True(t, bytes.HasPrefix(doc, []byte("%PDF")))
}
