package inventory_test

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"

	"github.com/jhoicas/kardex-api/internal/application/inventory"
	"github.com/jhoicas/kardex-api/internal/application/ports"
	"github.com/jhoicas/kardex-api/internal/domain"
	"github.com/jhoicas/kardex-api/internal/domain/entity"
	domaininv "github.com/jhoicas/kardex-api/internal/domain/inventory"
	"github.com/jhoicas/kardex-api/internal/domain/repository"
	"github.com/jhoicas/kardex-api/internal/infrastructure/memory"
	"github.com/jhoicas/kardex-api/internal/infrastructure/storage"
	"github.com/jhoicas/kardex-api/internal/lock"
	"github.com/jhoicas/kardex-api/pkg/logger"
)

var t0 = time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

type captureReporter struct{ reports []ports.ReconcileReport }

func (r *captureReporter) Report(_ context.Context, rep ports.ReconcileReport) {
	r.reports = append(r.reports, rep)
}

type fixture struct {
	st         *storage.Storage
	locker     *lock.KeyedLocker
	ledger     *inventory.Ledger
	projection *inventory.Projection
	reporter   *captureReporter
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store, err := memory.NewStore()
	require.NoError(t, err)
	st := storage.NewMemory(store)
	locker := lock.NewKeyedLocker(time.Second)
	reporter := &captureReporter{}
	log := logger.Nop()

	projection := inventory.NewProjection(st.TxRunner, locker, st.StockLevels,
		domaininv.NewStatusCalculator(1), reporter, log)
	ledger := inventory.NewLedger(st.TxRunner, locker, st.Movements, projection, log)

	var mu sync.Mutex
	now := t0
	clock := func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		now = now.Add(time.Minute)
		return now
	}
	ledger.SetClock(clock)
	projection.SetClock(clock)
	return &fixture{st: st, locker: locker, ledger: ledger, projection: projection, reporter: reporter}
}

func (f *fixture) entry(t *testing.T, product string, qty int64) *entity.Movement {
	t.Helper()
	m, err := f.ledger.Append(context.Background(), inventory.AppendInput{
		ProductID: product, Kind: entity.MovementKindENTRY, Subtype: entity.EntryPurchase, Quantity: qty, UserID: "u-1",
	})
	require.NoError(t, err)
	return m
}

func (f *fixture) sale(product string, qty int64) (*entity.Movement, error) {
	return f.ledger.Append(context.Background(), inventory.AppendInput{
		ProductID: product, Kind: entity.MovementKindEXIT, Subtype: entity.ExitSale, Quantity: qty, UserID: "u-1",
	})
}

func (f *fixture) available(t *testing.T, product string) int64 {
	t.Helper()
	level, err := f.projection.Get(context.Background(), product)
	require.NoError(t, err)
	return level.Available
}

func TestAppend_SalidaSinSaldoSeRechaza(t *testing.T) {
	f := newFixture(t)
	f.entry(t, "P1", 10)

	_, err := f.sale("P1", 25)

	var insufficient *domain.InsufficientStockError
	require.True(t, errors.As(err, &insufficient), "se esperaba InsufficientStockError, llegó %v", err)
	assert.ErrorIs(t, err, domain.ErrInsufficientStock)
	assert.Equal(t, int64(10), insufficient.Available)
	assert.Equal(t, int64(25), insufficient.Requested)

	assert.Equal(t, int64(10), f.available(t, "P1"), "la proyección no cambia")
	rows, err := f.ledger.List(context.Background(), "P1", repository.MovementFilter{IncludeCompensations: true})
	require.NoError(t, err)
	assert.Len(t, rows, 1, "no se agrega fila")
}

func TestAppend_SaldoCorrienteYProyeccion(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.entry(t, "P1", 20)
	m, err := f.sale("P1", 7)
	require.NoError(t, err)
	assert.Equal(t, int64(13), m.RunningBalance)

	adj, err := f.ledger.Append(ctx, inventory.AppendInput{
		ProductID: "P1", Kind: entity.MovementKindADJUSTMENT, Subtype: entity.AdjustmentNegative, Quantity: 3,
	})
	require.NoError(t, err)
	assert.Equal(t, int64(10), adj.RunningBalance)

	balance, err := f.ledger.CurrentBalance(ctx, "P1")
	require.NoError(t, err)
	assert.Equal(t, int64(10), balance)

	level, err := f.projection.Get(ctx, "P1")
	require.NoError(t, err)
	assert.Equal(t, int64(10), level.Available)
	require.NotNil(t, level.LastSaleAt)
	assert.True(t, level.LastSaleAt.Equal(m.Timestamp))
	assert.Less(t, m.Sequence, adj.Sequence)
}

func TestAppend_EntradaInvalida(t *testing.T) {
	f := newFixture(t)
	neg := decimal.NewFromInt(-1)
	cases := []inventory.AppendInput{
		{ProductID: "", Kind: entity.MovementKindENTRY, Subtype: entity.EntryPurchase, Quantity: 1},
		{ProductID: "P1", Kind: entity.MovementKindENTRY, Subtype: entity.EntryPurchase, Quantity: 0},
		{ProductID: "P1", Kind: entity.MovementKindENTRY, Subtype: entity.ExitSale, Quantity: 1},
		{ProductID: "P1", Kind: entity.MovementKindADJUSTMENT, Subtype: "", Quantity: 1},
		{ProductID: "P1", Kind: entity.MovementKindREVERSAL, Subtype: entity.AdjustmentPositive, Quantity: 1},
		{ProductID: "P1", Kind: entity.MovementKindENTRY, Subtype: entity.EntryPurchase, Quantity: 1, UnitCost: &neg},
	}
	for i, in := range cases {
		_, err := f.ledger.Append(context.Background(), in)
		assert.ErrorIs(t, err, domain.ErrInvalidInput, "caso %d", i)
	}
}

func TestAppend_CostoPromedioPonderado(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	for _, cost := range []int64{100, 200} {
		c := decimal.NewFromInt(cost)
		_, err := f.ledger.Append(ctx, inventory.AppendInput{
			ProductID: "P1", Kind: entity.MovementKindENTRY, Subtype: entity.EntryPurchase, Quantity: 10, UnitCost: &c,
		})
		require.NoError(t, err)
	}
	level, err := f.projection.Get(ctx, "P1")
	require.NoError(t, err)
	assert.True(t, level.AverageCost.Equal(decimal.NewFromInt(150)), level.AverageCost.String())
}

func TestVoidRestore(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.entry(t, "P1", 20)
	sale, err := f.sale("P1", 8)
	require.NoError(t, err)

	rev, err := f.ledger.Void(ctx, sale.ID, "u-2", "venta duplicada")
	require.NoError(t, err)
	assert.Equal(t, entity.MovementKindREVERSAL, rev.Kind)
	assert.Equal(t, entity.AdjustmentPositive, rev.Subtype)
	assert.Equal(t, sale.ID, rev.ReversalOf)
	assert.Equal(t, int64(20), rev.RunningBalance)
	assert.Equal(t, int64(20), f.available(t, "P1"))

	orig, err := f.ledger.Get(ctx, sale.ID)
	require.NoError(t, err)
	assert.True(t, orig.Voided)

	_, err = f.ledger.Void(ctx, sale.ID, "u-2", "otra vez")
	assert.ErrorIs(t, err, domain.ErrAlreadyVoided)

	_, err = f.ledger.Void(ctx, rev.ID, "u-2", "")
	assert.ErrorIs(t, err, domain.ErrInvalidInput, "una compensación no se anula")

	rein, err := f.ledger.Restore(ctx, sale.ID, "u-2", "era válida")
	require.NoError(t, err)
	assert.Equal(t, entity.MovementKindREINSTATEMENT, rein.Kind)
	assert.Equal(t, int64(12), rein.RunningBalance)
	assert.Equal(t, int64(12), f.available(t, "P1"))

	_, err = f.ledger.Restore(ctx, sale.ID, "u-2", "")
	assert.ErrorIs(t, err, domain.ErrNotVoided)

	_, err = f.ledger.Void(ctx, "no-existe", "u-2", "")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	// Por defecto el listado oculta las compensaciones.
	rows, err := f.ledger.List(ctx, "P1", repository.MovementFilter{})
	require.NoError(t, err)
	assert.Len(t, rows, 2)
	all, err := f.ledger.List(ctx, "P1", repository.MovementFilter{IncludeCompensations: true})
	require.NoError(t, err)
	assert.Len(t, all, 4)

	rep, err := f.projection.Reconcile(ctx, "P1")
	require.NoError(t, err)
	assert.True(t, rep.Consistent)
}

func TestVoid_EntradaYaConsumidaSeRechaza(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	in := f.entry(t, "P1", 10)
	_, err := f.sale("P1", 6)
	require.NoError(t, err)

	_, err = f.ledger.Void(ctx, in.ID, "u-2", "")
	assert.ErrorIs(t, err, domain.ErrInsufficientStock)

	orig, err := f.ledger.Get(ctx, in.ID)
	require.NoError(t, err)
	assert.False(t, orig.Voided, "el rechazo no deja efectos")
	assert.Equal(t, int64(4), f.available(t, "P1"))
}

func TestAppend_SalidasConcurrentesNoSobregiran(t *testing.T) {
	f := newFixture(t)
	f.entry(t, "P1", 10)

	var g errgroup.Group
	results := make([]error, 25)
	for i := range results {
		g.Go(func() error {
			_, results[i] = f.sale("P1", 1)
			return nil
		})
	}
	require.NoError(t, g.Wait())

	var ok, rejected int
	for _, err := range results {
		switch {
		case err == nil:
			ok++
		case errors.Is(err, domain.ErrInsufficientStock):
			rejected++
		default:
			t.Fatalf("error inesperado: %v", err)
		}
	}
	assert.Equal(t, 10, ok)
	assert.Equal(t, 15, rejected)
	assert.Equal(t, int64(0), f.available(t, "P1"))
}

func TestAppend_ClaveRepetidaDevuelveLaMismaFila(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.entry(t, "P1", 10)

	in := inventory.AppendInput{
		ProductID: "P1", Kind: entity.MovementKindEXIT, Subtype: entity.ExitSale, Quantity: 3,
		UserID: "u-1", IdempotencyKey: "evt-9:P1:0",
	}
	first, err := f.ledger.Append(ctx, in)
	require.NoError(t, err)
	again, err := f.ledger.Append(ctx, in)
	require.NoError(t, err)

	assert.Equal(t, first.ID, again.ID)
	assert.Equal(t, int64(7), f.available(t, "P1"), "la segunda entrega no descuenta otra vez")
	rows, err := f.ledger.List(ctx, "P1", repository.MovementFilter{IncludeCompensations: true})
	require.NoError(t, err)
	assert.Len(t, rows, 2)

	// La misma clave sobre otro producto es un conflicto, no un duplicado.
	f.entry(t, "P2", 10)
	in.ProductID = "P2"
	_, err = f.ledger.Append(ctx, in)
	assert.ErrorIs(t, err, domain.ErrConflict)
	assert.Equal(t, int64(10), f.available(t, "P2"))
}

// lockingObserver toma el lock del producto desde la evaluación de alertas, como haría un
// observador que vuelve a escribir sobre el mismo producto.
type lockingObserver struct {
	locker inventory.Locker
	calls  int
	errs   []error
}

func (o *lockingObserver) EvaluateProduct(ctx context.Context, productID string) error {
	ctx, cancel := context.WithTimeout(ctx, 50*time.Millisecond)
	defer cancel()
	o.calls++
	release, err := o.locker.Acquire(ctx, productID)
	if err != nil {
		o.errs = append(o.errs, err)
		return err
	}
	release()
	return nil
}

func TestNotify_ObservadorCorreSinElLockDelProducto(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	obs := &lockingObserver{locker: f.locker}
	f.projection.SetObserver(obs)

	f.entry(t, "P1", 10)
	sale, err := f.sale("P1", 4)
	require.NoError(t, err)
	_, err = f.ledger.Void(ctx, sale.ID, "u-2", "")
	require.NoError(t, err)
	_, err = f.ledger.Restore(ctx, sale.ID, "u-2", "")
	require.NoError(t, err)
	_, err = f.projection.SetThresholds(ctx, "P1", inventory.ThresholdsInput{Minimum: 1, ReorderPoint: 3})
	require.NoError(t, err)

	assert.Equal(t, 5, obs.calls)
	assert.Empty(t, obs.errs)
}

func TestVoid_VentaRecalculaUltimaVenta(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.entry(t, "P1", 20)
	first, err := f.sale("P1", 2)
	require.NoError(t, err)
	second, err := f.sale("P1", 3)
	require.NoError(t, err)

	lastSale := func() *time.Time {
		level, err := f.projection.Get(ctx, "P1")
		require.NoError(t, err)
		return level.LastSaleAt
	}
	require.NotNil(t, lastSale())
	assert.True(t, lastSale().Equal(second.Timestamp))

	_, err = f.ledger.Void(ctx, second.ID, "u-2", "")
	require.NoError(t, err)
	require.NotNil(t, lastSale())
	assert.True(t, lastSale().Equal(first.Timestamp), "vuelve a la venta vigente anterior")

	_, err = f.ledger.Void(ctx, first.ID, "u-2", "")
	require.NoError(t, err)
	assert.Nil(t, lastSale(), "sin ventas vigentes no hay última venta")

	_, err = f.ledger.Restore(ctx, second.ID, "u-2", "")
	require.NoError(t, err)
	require.NotNil(t, lastSale())
	assert.True(t, lastSale().Equal(second.Timestamp))

	// Anular una entrada no toca la fecha de venta.
	extra := f.entry(t, "P1", 5)
	_, err = f.ledger.Void(ctx, extra.ID, "u-2", "")
	require.NoError(t, err)
	assert.True(t, lastSale().Equal(second.Timestamp))
}

var exitSubtypes = []string{
	entity.ExitSale, entity.ExitSupplierReturn, entity.ExitTransferOut,
	entity.ExitShrinkage, entity.ExitExpired, entity.ExitInternalUse,
}

// randomHistory aplica n operaciones pseudoaleatorias sobre P1. Los rechazos por stock
// insuficiente son parte del juego; cualquier otro error falla el test.
func randomHistory(t *testing.T, f *fixture, rng *rand.Rand, n int) {
	t.Helper()
	ctx := context.Background()
	var originals []*entity.Movement
	for i := 0; i < n; i++ {
		var (
			m   *entity.Movement
			err error
		)
		qty := int64(rng.Intn(20) + 1)
		switch op := rng.Intn(10); {
		case op < 4:
			m, err = f.ledger.Append(ctx, inventory.AppendInput{
				ProductID: "P1", Kind: entity.MovementKindENTRY, Subtype: entity.EntryPurchase, Quantity: qty, UserID: "u-1",
			})
		case op < 7:
			m, err = f.ledger.Append(ctx, inventory.AppendInput{
				ProductID: "P1", Kind: entity.MovementKindEXIT, Subtype: exitSubtypes[rng.Intn(len(exitSubtypes))],
				Quantity: qty, UserID: "u-1",
			})
		case op < 8:
			sign := entity.AdjustmentPositive
			if rng.Intn(2) == 0 {
				sign = entity.AdjustmentNegative
			}
			m, err = f.ledger.Append(ctx, inventory.AppendInput{
				ProductID: "P1", Kind: entity.MovementKindADJUSTMENT, Subtype: sign, Quantity: qty, UserID: "u-1",
			})
		default:
			if len(originals) == 0 {
				continue
			}
			target := originals[rng.Intn(len(originals))]
			cur, gerr := f.ledger.Get(ctx, target.ID)
			require.NoError(t, gerr)
			if cur.Voided {
				_, err = f.ledger.Restore(ctx, target.ID, "u-2", "")
			} else {
				_, err = f.ledger.Void(ctx, target.ID, "u-2", "")
			}
		}
		if err != nil {
			require.ErrorIs(t, err, domain.ErrInsufficientStock, "operación %d", i)
			continue
		}
		if m != nil {
			originals = append(originals, m)
		}
	}
}

func TestLedger_ConservacionDelSaldoConSemillas(t *testing.T) {
	for _, seed := range []int64{1, 7, 42, 2026, 99991} {
		t.Run(fmt.Sprintf("seed=%d", seed), func(t *testing.T) {
			f := newFixture(t)
			ctx := context.Background()
			randomHistory(t, f, rand.New(rand.NewSource(seed)), 300)

			originals, err := f.ledger.List(ctx, "P1", repository.MovementFilter{})
			require.NoError(t, err)
			var want int64
			for _, m := range originals {
				if !m.Voided {
					want += m.Delta()
				}
			}
			assert.Equal(t, want, f.available(t, "P1"), "disponible = entradas - salidas de originales vigentes")

			balance, err := f.ledger.CurrentBalance(ctx, "P1")
			require.NoError(t, err)
			assert.Equal(t, want, balance)

			all, err := f.ledger.List(ctx, "P1", repository.MovementFilter{IncludeCompensations: true})
			require.NoError(t, err)
			for _, m := range all {
				require.GreaterOrEqual(t, m.RunningBalance, int64(0), "fila %s", m.ID)
			}

			rep, err := f.projection.Reconcile(ctx, "P1")
			require.NoError(t, err)
			assert.True(t, rep.Consistent, "%+v", rep)
			assert.Empty(t, f.reporter.reports)
		})
	}
}

func TestVoidRestore_SimetriaConMovimientosIntermedios(t *testing.T) {
	for _, seed := range []int64{3, 11, 404, 8080} {
		t.Run(fmt.Sprintf("seed=%d", seed), func(t *testing.T) {
			f := newFixture(t)
			ctx := context.Background()
			rng := rand.New(rand.NewSource(seed))
			_, err := f.projection.SetThresholds(ctx, "P1", inventory.ThresholdsInput{Minimum: 5, ReorderPoint: 20, Maximum: 200})
			require.NoError(t, err)
			f.entry(t, "P1", 50)
			randomHistory(t, f, rng, 40)

			// Se busca un original vigente que se pueda anular sin dejar saldo negativo.
			originals, err := f.ledger.List(ctx, "P1", repository.MovementFilter{})
			require.NoError(t, err)
			before, err := f.projection.Get(ctx, "P1")
			require.NoError(t, err)
			var target *entity.Movement
			for _, i := range rng.Perm(len(originals)) {
				m := originals[i]
				if m.Voided || before.Available-m.Delta() < 0 {
					continue
				}
				target = m
				break
			}
			require.NotNil(t, target, "la historia debe dejar algún original anulable")

			_, err = f.ledger.Void(ctx, target.ID, "u-2", "")
			require.NoError(t, err)

			// Movimientos intermedios con efecto neto cero.
			rounds := rng.Intn(5) + 1
			for i := 0; i < rounds; i++ {
				q := int64(rng.Intn(30) + 1)
				f.entry(t, "P1", q)
				_, err := f.sale("P1", q)
				require.NoError(t, err)
				_, err = f.ledger.Append(ctx, inventory.AppendInput{
					ProductID: "P1", Kind: entity.MovementKindADJUSTMENT, Subtype: entity.AdjustmentPositive, Quantity: q, UserID: "u-1",
				})
				require.NoError(t, err)
				_, err = f.ledger.Append(ctx, inventory.AppendInput{
					ProductID: "P1", Kind: entity.MovementKindADJUSTMENT, Subtype: entity.AdjustmentNegative, Quantity: q, UserID: "u-1",
				})
				require.NoError(t, err)
			}

			_, err = f.ledger.Restore(ctx, target.ID, "u-2", "")
			require.NoError(t, err)

			after, err := f.projection.Get(ctx, "P1")
			require.NoError(t, err)
			assert.Equal(t, before.Available, after.Available)
			assert.Equal(t, before.Status, after.Status)
			assert.True(t, before.AverageCost.Equal(after.AverageCost))

			restored, err := f.ledger.Get(ctx, target.ID)
			require.NoError(t, err)
			assert.False(t, restored.Voided)

			rep, err := f.projection.Reconcile(ctx, "P1")
			require.NoError(t, err)
			assert.True(t, rep.Consistent, "%+v", rep)
		})
	}
}
