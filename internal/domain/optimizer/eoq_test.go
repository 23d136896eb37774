package optimizer_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/kardex-api/internal/domain"
	"github.com/jhoicas/kardex-api/internal/domain/optimizer"
)

func TestEOQ_Escenario(t *testing.T) {
	eoq, err := optimizer.EOQ(1200, 50, 2)
	require.NoError(t, err)
	assert.InDelta(t, 244.95, eoq, 0.01)
}

func TestEOQ_ParametrosInvalidos(t *testing.T) {
	cases := []struct {
		name    string
		d, s, h float64
	}{
		{"demanda cero", 0, 50, 2},
		{"costo de pedido negativo", 1200, -1, 2},
		{"costo de mantener cero", 1200, 50, 0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := optimizer.EOQ(tc.d, tc.s, tc.h)
			assert.ErrorIs(t, err, domain.ErrInvalidParameters)
		})
	}
}

func TestServiceLevelToZ(t *testing.T) {
	for level, want := range map[float64]float64{
		0.90:  1.28,
		0.95:  1.65,
		0.975: 1.96,
		0.99:  2.33,
		0.80:  0.84,
	} {
		z, err := optimizer.ServiceLevelToZ(level)
		require.NoError(t, err)
		assert.InDelta(t, want, z, 1e-9, "nivel %v", level)
	}

	z, err := optimizer.ServiceLevelToZ(0.925)
	require.NoError(t, err)
	assert.InDelta(t, (1.28+1.65)/2, z, 1e-9, "interpolación lineal")

	_, err = optimizer.ServiceLevelToZ(0.5)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	_, err = optimizer.ServiceLevelToZ(0.999)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestSafetyStockYROP_Escenario(t *testing.T) {
	ss := optimizer.SafetyStock(1.65, 2, 5)
	assert.InDelta(t, 7.38, ss, 0.01)
	assert.InDelta(t, 57.38, optimizer.ReorderPoint(10, 5, ss), 0.01)
}

func TestCalculate(t *testing.T) {
	out, err := optimizer.Calculate(optimizer.Input{
		DemandAnnual: 3650,
		OrderCost:    50,
		HoldingCost:  2,
		LeadTimeDays: 5,
		ServiceLevel: 0.95,
		DemandStdDev: 2,
	})
	require.NoError(t, err)

	assert.InDelta(t, 427.2, out.EOQ, 0.1)
	assert.InDelta(t, 10, out.DemandDaily, 1e-9)
	assert.InDelta(t, 1.65, out.Z, 1e-9)
	assert.InDelta(t, 57.38, out.ROP, 0.01)
	assert.InDelta(t, 3650/out.EOQ, out.OrdersPerYear, 1e-9)
	assert.InDelta(t, 365/out.OrdersPerYear, out.DaysBetweenOrders, 1e-9)
	// En el óptimo el costo de pedir iguala al de mantener.
	assert.InDelta(t, out.OrderingCostAnnual, out.HoldingCostAnnual, 1e-6)
	assert.InDelta(t, out.OrderingCostAnnual+out.HoldingCostAnnual, out.TotalCostAnnual, 1e-9)
}

func TestCalculate_RechazaNegativos(t *testing.T) {
	base := optimizer.Input{DemandAnnual: 100, OrderCost: 10, HoldingCost: 1, ServiceLevel: 0.95}

	in := base
	in.LeadTimeDays = -1
	_, err := optimizer.Calculate(in)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	in = base
	in.DemandStdDev = -0.5
	_, err = optimizer.Calculate(in)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	in = base
	in.ServiceLevel = 1
	_, err = optimizer.Calculate(in)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}
