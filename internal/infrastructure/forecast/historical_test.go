package forecast

import (
	"context"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/kardex-api/internal/domain"
	"github.com/jhoicas/kardex-api/internal/domain/entity"
	"github.com/jhoicas/kardex-api/internal/infrastructure/memory"
)

func TestGetDemandForecast(t *testing.T) {
	store, err := memory.NewStore()
	require.NoError(t, err)
	repo := memory.NewMovementRepository(store)
	ctx := context.Background()
	now := time.Date(2026, 5, 20, 12, 0, 0, 0, time.UTC)

	add := func(id, kind, subtype string, qty int64, at time.Time, voided bool) {
		require.NoError(t, repo.Create(ctx, &entity.Movement{
			ID: id, ProductID: "P1", Kind: kind, Subtype: subtype, Quantity: qty, Timestamp: at, Voided: voided,
		}))
	}
	add("m1", entity.MovementKindENTRY, entity.EntryPurchase, 500, now.AddDate(0, 0, -9), false)
	add("m2", entity.MovementKindEXIT, entity.ExitSale, 20, now.AddDate(0, 0, -3), false)
	add("m3", entity.MovementKindEXIT, entity.ExitSale, 10, now.AddDate(0, 0, -1), false)
	add("m4", entity.MovementKindEXIT, entity.ExitSale, 99, now.AddDate(0, 0, -2), true)
	add("m5", entity.MovementKindEXIT, entity.ExitSale, 77, now.AddDate(0, 0, -30), false)
	add("m6", entity.MovementKindEXIT, entity.ExitShrinkage, 5, now.AddDate(0, 0, -2), false)

	p := NewHistoricalProvider(repo)
	p.SetClock(func() time.Time { return now })

	fc, err := p.GetDemandForecast(ctx, "P1", 10)
	require.NoError(t, err)
	// 30 unidades en 10 días → 3/día.
	assert.InDelta(t, 3*365.0, fc.DemandAnnual, 1e-9)
	assert.InDelta(t, math.Sqrt(410.0/9), fc.DemandStdDev, 1e-9)
}

func TestGetDemandForecast_SinVentas(t *testing.T) {
	store, err := memory.NewStore()
	require.NoError(t, err)
	p := NewHistoricalProvider(memory.NewMovementRepository(store))

	_, err = p.GetDemandForecast(context.Background(), "P1", 0)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
