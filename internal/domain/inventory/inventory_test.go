package inventory_test

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/kardex-api/internal/domain/entity"
	"github.com/jhoicas/kardex-api/internal/domain/inventory"
)

func TestStatus(t *testing.T) {
	calc := inventory.NewStatusCalculator(0.5)
	th := inventory.Thresholds{Minimum: 20, ReorderPoint: 30, Maximum: 100}

	cases := []struct {
		available int64
		want      string
	}{
		{0, entity.StockStatusDEPLETED},
		{-3, entity.StockStatusDEPLETED},
		{9, entity.StockStatusCRITICAL},
		{10, entity.StockStatusLOW},
		{30, entity.StockStatusLOW},
		{31, entity.StockStatusNORMAL},
		{100, entity.StockStatusNORMAL},
		{101, entity.StockStatusEXCESS},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, calc.Status(tc.available, th), "disponible %d", tc.available)
	}
}

func TestStatus_SinMaximoNuncaExcede(t *testing.T) {
	calc := inventory.NewStatusCalculator(1)
	assert.Equal(t, entity.StockStatusNORMAL, calc.Status(1_000_000, inventory.Thresholds{Minimum: 5, ReorderPoint: 10}))
}

func TestNewStatusCalculator_FactorNoPositivo(t *testing.T) {
	calc := inventory.NewStatusCalculator(0)
	assert.Equal(t, 1.0, calc.CriticalFactor)
	assert.True(t, calc.IsCritical(4, 5))
	assert.False(t, calc.IsCritical(5, 5))
}

func TestCostCalculator(t *testing.T) {
	// 10 u a 100 + 10 u a 200 → 150
	got := inventory.CostCalculator(10, decimal.NewFromInt(100), 10, decimal.NewFromInt(200))
	assert.True(t, got.Equal(decimal.NewFromInt(150)), got.String())

	assert.True(t, inventory.CostCalculator(0, decimal.Zero, 0, decimal.NewFromInt(5)).IsZero())
}

func TestCeilQuantity(t *testing.T) {
	assert.Equal(t, int64(245), inventory.CeilQuantity(244.95))
	assert.Equal(t, int64(58), inventory.CeilQuantity(57.38))
	assert.Equal(t, int64(3), inventory.CeilQuantity(3))
	assert.Equal(t, int64(0), inventory.CeilQuantity(-1))
}

func mov(kind, subtype string, qty int64) *entity.Movement {
	return &entity.Movement{Kind: kind, Subtype: subtype, Quantity: qty}
}

func TestBalanceFromOriginals(t *testing.T) {
	sale := mov(entity.MovementKindEXIT, entity.ExitSale, 5)
	sale.Voided = true
	movements := []*entity.Movement{
		mov(entity.MovementKindENTRY, entity.EntryPurchase, 25),
		mov(entity.MovementKindEXIT, entity.ExitSale, 10),
		sale,
		{Kind: entity.MovementKindREVERSAL, Subtype: entity.AdjustmentPositive, Quantity: 5, ReversalOf: "x"},
		mov(entity.MovementKindADJUSTMENT, entity.AdjustmentNegative, 2),
	}
	assert.Equal(t, int64(13), inventory.BalanceFromOriginals(movements))
}

func TestLotBalances(t *testing.T) {
	d1 := time.Date(2026, 11, 1, 0, 0, 0, 0, time.UTC)
	d2 := time.Date(2026, 12, 1, 0, 0, 0, 0, time.UTC)

	in := func(lot string, qty int64, exp *time.Time) *entity.Movement {
		m := mov(entity.MovementKindENTRY, entity.EntryPurchase, qty)
		m.Lot, m.ExpiresAt = lot, exp
		return m
	}
	out := func(lot string, qty int64) *entity.Movement {
		m := mov(entity.MovementKindEXIT, entity.ExitSale, qty)
		m.Lot = lot
		return m
	}

	lots := inventory.LotBalances([]*entity.Movement{
		in("B", 10, &d2),
		in("A", 5, &d1),
		out("A", 2),
		in("C", 4, &d1),
		out("C", 4),
		in("D", 7, nil),
	})
	require.Len(t, lots, 2)
	assert.Equal(t, inventory.LotBalance{Lot: "A", ExpiresAt: d1, Quantity: 3}, lots[0])
	assert.Equal(t, "B", lots[1].Lot)
}
