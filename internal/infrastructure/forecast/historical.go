// Package forecast estima la demanda de un producto a partir de las ventas del kardex.
package forecast

import (
	"context"
	"math"
	"time"

	"github.com/jhoicas/kardex-api/internal/application/ports"
	"github.com/jhoicas/kardex-api/internal/domain"
	"github.com/jhoicas/kardex-api/internal/domain/entity"
	"github.com/jhoicas/kardex-api/internal/domain/optimizer"
	"github.com/jhoicas/kardex-api/internal/domain/repository"
)

// DefaultHorizonDays ventana usada cuando el caller no indica una.
const DefaultHorizonDays = 90

var _ ports.ForecastProvider = (*HistoricalProvider)(nil)

// HistoricalProvider proyecta la demanda anual con la media diaria de ventas (EXIT/SALE no
// anuladas) de los últimos horizonDays días; la dispersión es la desviación estándar diaria.
type HistoricalProvider struct {
	movRepo repository.MovementRepository
	now     func() time.Time
}

// NewHistoricalProvider construye el proveedor.
func NewHistoricalProvider(movRepo repository.MovementRepository) *HistoricalProvider {
	return &HistoricalProvider{movRepo: movRepo, now: time.Now}
}

// SetClock reemplaza el reloj (tests).
func (p *HistoricalProvider) SetClock(now func() time.Time) { p.now = now }

// GetDemandForecast devuelve domain.ErrNotFound si no hubo ventas en la ventana.
func (p *HistoricalProvider) GetDemandForecast(ctx context.Context, productID string, horizonDays int) (*ports.Forecast, error) {
	if horizonDays <= 0 {
		horizonDays = DefaultHorizonDays
	}
	now := p.now()
	from := now.AddDate(0, 0, -horizonDays)
	sales, err := p.movRepo.ListByProduct(ctx, productID, repository.MovementFilter{
		From:    &from,
		To:      &now,
		Kind:    entity.MovementKindEXIT,
		Subtype: entity.ExitSale,
	})
	if err != nil {
		return nil, err
	}

	daily := make([]float64, horizonDays)
	var total float64
	for _, m := range sales {
		if m.Voided {
			continue
		}
		day := int(m.Timestamp.Sub(from) / (24 * time.Hour))
		if day < 0 {
			continue
		}
		if day >= horizonDays {
			day = horizonDays - 1
		}
		daily[day] += float64(m.Quantity)
		total += float64(m.Quantity)
	}
	if total == 0 {
		return nil, domain.ErrNotFound
	}

	mean := total / float64(horizonDays)
	var sq float64
	for _, d := range daily {
		sq += (d - mean) * (d - mean)
	}
	std := 0.0
	if horizonDays > 1 {
		std = math.Sqrt(sq / float64(horizonDays-1))
	}
	return &ports.Forecast{
		DemandAnnual: mean * optimizer.DaysPerYear,
		DemandStdDev: std,
	}, nil
}
