package alerts_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/kardex-api/internal/app"
	"github.com/jhoicas/kardex-api/internal/application/alerts"
	"github.com/jhoicas/kardex-api/internal/application/inventory"
	"github.com/jhoicas/kardex-api/internal/domain"
	"github.com/jhoicas/kardex-api/internal/domain/entity"
	"github.com/jhoicas/kardex-api/internal/domain/repository"
	"github.com/jhoicas/kardex-api/internal/infrastructure/memory"
	"github.com/jhoicas/kardex-api/internal/infrastructure/storage"
	"github.com/jhoicas/kardex-api/pkg/config"
	"github.com/jhoicas/kardex-api/pkg/logger"
)

var t0 = time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

func newServices(t *testing.T, inv config.InventoryConfig) *app.Services {
	t.Helper()
	store, err := memory.NewStore()
	require.NoError(t, err)
	inv.CriticalFactor = 1
	inv.LockTimeout = time.Second
	inv.AutoResolve = true
	cfg := &config.Config{
		App:       config.AppConfig{Name: "kardex-test"},
		Inventory: inv,
		Reorder:   config.ReorderConfig{ServiceLevel: 0.95, HoldingRate: 0.25, OrderCost: 50, ForecastHorizonDays: 90},
	}
	svc := app.NewServices(storage.NewMemory(store), cfg, logger.Nop())
	fixed := func() time.Time { return t0 }
	svc.Ledger.SetClock(fixed)
	svc.Projection.SetClock(fixed)
	svc.Alerts.SetClock(fixed)
	return svc
}

func move(t *testing.T, svc *app.Services, in inventory.AppendInput) {
	t.Helper()
	_, err := svc.Ledger.Append(context.Background(), in)
	require.NoError(t, err)
}

func purchase(product string, qty int64) inventory.AppendInput {
	return inventory.AppendInput{ProductID: product, Kind: entity.MovementKindENTRY, Subtype: entity.EntryPurchase, Quantity: qty}
}

func sale(product string, qty int64) inventory.AppendInput {
	return inventory.AppendInput{ProductID: product, Kind: entity.MovementKindEXIT, Subtype: entity.ExitSale, Quantity: qty}
}

func pending(t *testing.T, svc *app.Services, product string) map[string]*entity.Alert {
	t.Helper()
	list, err := svc.Alerts.List(context.Background(), repository.AlertFilter{ProductID: product, State: entity.AlertStatePENDING})
	require.NoError(t, err)
	out := map[string]*entity.Alert{}
	for _, a := range list {
		out[a.Type] = a
	}
	return out
}

func TestEngine_AbreYResuelveSegunElStock(t *testing.T) {
	svc := newServices(t, config.InventoryConfig{})
	ctx := context.Background()

	move(t, svc, purchase("P1", 20))
	_, err := svc.Projection.SetThresholds(ctx, "P1", inventory.ThresholdsInput{Minimum: 5, ReorderPoint: 8, Maximum: 50})
	require.NoError(t, err)
	assert.Empty(t, pending(t, svc, "P1"))

	move(t, svc, sale("P1", 13))
	open := pending(t, svc, "P1")
	require.Len(t, open, 2)
	low := open[entity.AlertTypeLowStock]
	require.NotNil(t, low)
	assert.Equal(t, entity.SeverityHIGH, low.Severity)
	require.NotNil(t, low.SuggestedQuantity)
	assert.Equal(t, int64(43), *low.SuggestedQuantity, "máximo - disponible")
	assert.Equal(t, entity.SeverityMEDIUM, open[entity.AlertTypeReorderPoint].Severity)

	// Empeora a CRITICAL: available <= ROP se sigue cumpliendo, LOW_STOCK no se cierra.
	move(t, svc, sale("P1", 5))
	open = pending(t, svc, "P1")
	require.Len(t, open, 3)
	assert.Contains(t, open, entity.AlertTypeCritical)
	assert.Contains(t, open, entity.AlertTypeReorderPoint)
	require.Contains(t, open, entity.AlertTypeLowStock)
	assert.Equal(t, low.ID, open[entity.AlertTypeLowStock].ID)

	// Reposición: las tres condiciones desaparecen y se resuelven solas.
	move(t, svc, purchase("P1", 40))
	assert.Empty(t, pending(t, svc, "P1"))

	resolved, err := svc.Alerts.Get(ctx, low.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.AlertStateRESOLVED, resolved.State)
	assert.Equal(t, alerts.ActionConditionCleared, resolved.ActionTaken)
	require.NotNil(t, resolved.ResolvedAt)
}

func TestEngine_AgotadoMantieneAlertasDeFaltante(t *testing.T) {
	svc := newServices(t, config.InventoryConfig{})
	ctx := context.Background()

	move(t, svc, purchase("P1", 10))
	_, err := svc.Projection.SetThresholds(ctx, "P1", inventory.ThresholdsInput{Minimum: 2, ReorderPoint: 6, Maximum: 20})
	require.NoError(t, err)
	move(t, svc, sale("P1", 5))
	low := pending(t, svc, "P1")[entity.AlertTypeLowStock]
	require.NotNil(t, low)

	move(t, svc, sale("P1", 5))
	open := pending(t, svc, "P1")
	assert.Contains(t, open, entity.AlertTypeCritical, "agotado")
	require.Contains(t, open, entity.AlertTypeLowStock)
	assert.Equal(t, low.ID, open[entity.AlertTypeLowStock].ID)

	level, err := svc.Projection.Get(ctx, "P1")
	require.NoError(t, err)
	assert.Equal(t, entity.StockStatusDEPLETED, level.Status)
}

func TestEngine_NoDuplicaPendientes(t *testing.T) {
	svc := newServices(t, config.InventoryConfig{})
	ctx := context.Background()
	move(t, svc, purchase("P1", 3))
	_, err := svc.Projection.SetThresholds(ctx, "P1", inventory.ThresholdsInput{Minimum: 5})
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		res, err := svc.Alerts.Evaluate(ctx, "P1")
		require.NoError(t, err)
		assert.Empty(t, res.Created)
	}
	list, err := svc.Alerts.List(ctx, repository.AlertFilter{ProductID: "P1", Type: entity.AlertTypeCritical})
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestEngine_NuevaAlertaTrasEstadoTerminal(t *testing.T) {
	svc := newServices(t, config.InventoryConfig{})
	ctx := context.Background()
	move(t, svc, purchase("P1", 3))
	_, err := svc.Projection.SetThresholds(ctx, "P1", inventory.ThresholdsInput{Minimum: 5})
	require.NoError(t, err)
	crit := pending(t, svc, "P1")[entity.AlertTypeCritical]
	require.NotNil(t, crit)

	_, err = svc.Alerts.Transition(ctx, crit.ID, alerts.TransitionInput{State: entity.AlertStateIGNORED})
	require.NoError(t, err)

	res, err := svc.Alerts.Evaluate(ctx, "P1")
	require.NoError(t, err)
	require.Len(t, res.Created, 1)
	assert.NotEqual(t, crit.ID, res.Created[0].ID)
}

func TestEngine_Vencimientos(t *testing.T) {
	svc := newServices(t, config.InventoryConfig{ExpiryWarningDays: 30})
	near := t0.AddDate(0, 0, 10)
	past := t0.AddDate(0, 0, -1)
	far := t0.AddDate(1, 0, 0)

	for lot, exp := range map[string]time.Time{"L-NEAR": near, "L-PAST": past, "L-FAR": far} {
		in := purchase("P1", 5)
		in.Lot = lot
		in.ExpiresAt = &exp
		move(t, svc, in)
	}

	open := pending(t, svc, "P1")
	require.Contains(t, open, entity.AlertTypeExpiryPassed)
	require.Contains(t, open, entity.AlertTypeExpiryNear)
	assert.Equal(t, entity.SeverityCRITICAL, open[entity.AlertTypeExpiryPassed].Severity)
	assert.Contains(t, open[entity.AlertTypeExpiryPassed].Message, "L-PAST")
	assert.Contains(t, open[entity.AlertTypeExpiryNear].Message, "L-NEAR")
	assert.NotContains(t, open[entity.AlertTypeExpiryNear].Message, "L-FAR")

	// Dar de baja el lote vencido resuelve la alerta.
	out := inventory.AppendInput{ProductID: "P1", Kind: entity.MovementKindEXIT, Subtype: entity.ExitExpired, Quantity: 5, Lot: "L-PAST"}
	move(t, svc, out)
	assert.NotContains(t, pending(t, svc, "P1"), entity.AlertTypeExpiryPassed)
}

func TestEngine_Obsoleto(t *testing.T) {
	svc := newServices(t, config.InventoryConfig{ObsoleteDays: 30})
	move(t, svc, purchase("P1", 10))
	move(t, svc, sale("P1", 1))
	assert.NotContains(t, pending(t, svc, "P1"), entity.AlertTypeObsolete)

	svc.Alerts.SetClock(func() time.Time { return t0.AddDate(0, 0, 31) })
	res, err := svc.Alerts.Evaluate(context.Background(), "P1")
	require.NoError(t, err)
	require.Len(t, res.Created, 1)
	assert.Equal(t, entity.AlertTypeObsolete, res.Created[0].Type)
}

func TestTransition_MaquinaDeEstados(t *testing.T) {
	svc := newServices(t, config.InventoryConfig{})
	ctx := context.Background()
	a, created, err := svc.Alerts.Create(ctx, alerts.CreateAlertInput{
		ProductID: "P1", Type: entity.AlertTypeSupplierDelay, Severity: entity.SeverityHIGH, Message: "proveedor atrasado",
	})
	require.NoError(t, err)
	require.True(t, created)

	_, err = svc.Alerts.Transition(ctx, a.ID, alerts.TransitionInput{State: entity.AlertStateRESOLVED, ActionTaken: "cerrada sin atender"})
	assert.ErrorIs(t, err, domain.ErrInvalidTransition, "PENDING no se resuelve sin pasar por IN_PROGRESS")
	still, err := svc.Alerts.Get(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.AlertStatePENDING, still.State)

	a, err = svc.Alerts.Transition(ctx, a.ID, alerts.TransitionInput{State: entity.AlertStateIN_PROGRESS, UserID: "comprador-1"})
	require.NoError(t, err)
	assert.Equal(t, "comprador-1", a.AssignedUserID)

	_, err = svc.Alerts.Transition(ctx, a.ID, alerts.TransitionInput{State: entity.AlertStateRESOLVED})
	assert.ErrorIs(t, err, domain.ErrInvalidInput, "resolver exige acción")

	a, err = svc.Alerts.Transition(ctx, a.ID, alerts.TransitionInput{State: entity.AlertStateRESOLVED, ActionTaken: "pedido reasignado"})
	require.NoError(t, err)
	assert.Equal(t, "pedido reasignado", a.ActionTaken)
	require.NotNil(t, a.ResolvedAt)

	_, err = svc.Alerts.Transition(ctx, a.ID, alerts.TransitionInput{State: entity.AlertStatePENDING})
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)

	_, err = svc.Alerts.Transition(ctx, "no-existe", alerts.TransitionInput{State: entity.AlertStateIGNORED})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestCreate_DuplicadoDevuelveExistente(t *testing.T) {
	svc := newServices(t, config.InventoryConfig{})
	ctx := context.Background()
	in := alerts.CreateAlertInput{ProductID: "P1", Type: entity.AlertTypeHighCost}

	first, created, err := svc.Alerts.Create(ctx, in)
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, entity.SeverityMEDIUM, first.Severity)

	second, created, err := svc.Alerts.Create(ctx, in)
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, first.ID, second.ID)

	_, _, err = svc.Alerts.Create(ctx, alerts.CreateAlertInput{ProductID: "P1", Type: "INVENTADA"})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestTransitionBatch_FallosIndependientes(t *testing.T) {
	svc := newServices(t, config.InventoryConfig{})
	ctx := context.Background()
	a1, _, err := svc.Alerts.Create(ctx, alerts.CreateAlertInput{ProductID: "P1", Type: entity.AlertTypeHighShrink})
	require.NoError(t, err)
	a2, _, err := svc.Alerts.Create(ctx, alerts.CreateAlertInput{ProductID: "P2", Type: entity.AlertTypeHighShrink})
	require.NoError(t, err)
	_, err = svc.Alerts.Transition(ctx, a2.ID, alerts.TransitionInput{State: entity.AlertStateIGNORED})
	require.NoError(t, err)

	res := svc.Alerts.TransitionBatch(ctx, []string{a1.ID, a2.ID, a1.ID, "fantasma"}, alerts.TransitionInput{State: entity.AlertStateESCALATED})
	require.Len(t, res.Succeeded, 1)
	assert.Equal(t, a1.ID, res.Succeeded[0].ID)
	assert.ErrorIs(t, res.Failed[a2.ID], domain.ErrInvalidTransition)
	assert.ErrorIs(t, res.Failed["fantasma"], domain.ErrNotFound)
}

func TestTransition_EscaladaVuelveAEnCurso(t *testing.T) {
	svc := newServices(t, config.InventoryConfig{})
	ctx := context.Background()
	a, _, err := svc.Alerts.Create(ctx, alerts.CreateAlertInput{ProductID: "P1", Type: entity.AlertTypeSupplierDelay})
	require.NoError(t, err)

	_, err = svc.Alerts.Transition(ctx, a.ID, alerts.TransitionInput{State: entity.AlertStateESCALATED, Note: "sin respuesta del proveedor"})
	require.NoError(t, err)
	_, err = svc.Alerts.Transition(ctx, a.ID, alerts.TransitionInput{State: entity.AlertStateRESOLVED, ActionTaken: "x"})
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)

	_, err = svc.Alerts.Transition(ctx, a.ID, alerts.TransitionInput{State: entity.AlertStateIN_PROGRESS, UserID: "jefe-compras"})
	require.NoError(t, err)
	a, err = svc.Alerts.Transition(ctx, a.ID, alerts.TransitionInput{State: entity.AlertStateRESOLVED, ActionTaken: "proveedor alterno"})
	require.NoError(t, err)
	assert.Equal(t, entity.AlertStateRESOLVED, a.State)
}
