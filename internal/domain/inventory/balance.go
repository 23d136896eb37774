package inventory

import (
	"sort"
	"time"

	"github.com/jhoicas/kardex-api/internal/domain/entity"
)

// BalanceFromOriginals recalcula el saldo sumando solo los movimientos originales no anulados.
// Las filas de compensación se ignoran: su efecto ya está reflejado en el flag Voided del original.
func BalanceFromOriginals(movements []*entity.Movement) int64 {
	var balance int64
	for _, m := range movements {
		if m.IsCompensation() || m.Voided {
			continue
		}
		balance += m.Delta()
	}
	return balance
}

// LotBalance saldo vivo de un lote con fecha de vencimiento.
type LotBalance struct {
	Lot       string
	ExpiresAt time.Time
	Quantity  int64
}

// LotBalances agrega por lote los movimientos originales no anulados que llevan lote.
// Solo devuelve lotes con saldo positivo y fecha de vencimiento conocida, ordenados por vencimiento.
func LotBalances(movements []*entity.Movement) []LotBalance {
	type acc struct {
		qty     int64
		expires *time.Time
	}
	byLot := map[string]*acc{}
	for _, m := range movements {
		if m.Lot == "" || m.IsCompensation() || m.Voided {
			continue
		}
		a, ok := byLot[m.Lot]
		if !ok {
			a = &acc{}
			byLot[m.Lot] = a
		}
		a.qty += m.Delta()
		if m.ExpiresAt != nil && (a.expires == nil || m.ExpiresAt.Before(*a.expires)) {
			exp := *m.ExpiresAt
			a.expires = &exp
		}
	}
	out := make([]LotBalance, 0, len(byLot))
	for lot, a := range byLot {
		if a.qty <= 0 || a.expires == nil {
			continue
		}
		out = append(out, LotBalance{Lot: lot, ExpiresAt: *a.expires, Quantity: a.qty})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].ExpiresAt.Equal(out[j].ExpiresAt) {
			return out[i].Lot < out[j].Lot
		}
		return out[i].ExpiresAt.Before(out[j].ExpiresAt)
	})
	return out
}
