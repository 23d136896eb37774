// Package app compone los casos de uso sobre un backend de almacenamiento.
package app

import (
	"github.com/jhoicas/kardex-api/internal/application/alerts"
	"github.com/jhoicas/kardex-api/internal/application/inventory"
	"github.com/jhoicas/kardex-api/internal/application/reorder"
	domaininv "github.com/jhoicas/kardex-api/internal/domain/inventory"
	"github.com/jhoicas/kardex-api/internal/infrastructure/audit"
	"github.com/jhoicas/kardex-api/internal/infrastructure/forecast"
	infrapdf "github.com/jhoicas/kardex-api/internal/infrastructure/pdf"
	"github.com/jhoicas/kardex-api/internal/infrastructure/storage"
	"github.com/jhoicas/kardex-api/internal/lock"
	"github.com/jhoicas/kardex-api/pkg/config"
	"github.com/jhoicas/kardex-api/pkg/logger"
)

// Services casos de uso listos para HTTP y CLI.
type Services struct {
	Storage    *storage.Storage
	Ledger     *inventory.Ledger
	Projection *inventory.Projection
	Alerts     *alerts.Engine
	Optimizer  *reorder.Optimizer
	Forecast   *forecast.HistoricalProvider
	Reporter   *audit.LogReporter
}

// NewServices cablea kardex, proyección, alertas y optimizador. La proyección notifica
// al motor de alertas después de cada commit.
func NewServices(st *storage.Storage, cfg *config.Config, log *logger.Logger) *Services {
	locker := lock.NewKeyedLocker(cfg.Inventory.LockTimeout)
	status := domaininv.NewStatusCalculator(cfg.Inventory.CriticalFactor)
	reporter := audit.NewLogReporter(log.Component("audit"), 100)

	projection := inventory.NewProjection(st.TxRunner, locker, st.StockLevels, status, reporter, log.Component("projection"))
	ledger := inventory.NewLedger(st.TxRunner, locker, st.Movements, projection, log.Component("ledger"))

	engine := alerts.NewEngine(st.StockLevels, st.Movements, st.Alerts, st.Results, locker, status, alerts.Config{
		ObsoleteDays:      cfg.Inventory.ObsoleteDays,
		ExpiryWarningDays: cfg.Inventory.ExpiryWarningDays,
		AutoResolve:       cfg.Inventory.AutoResolve,
	}, log.Component("alerts"))
	projection.SetObserver(engine)

	fc := forecast.NewHistoricalProvider(st.Movements)
	optimizer := reorder.NewOptimizer(
		st.Results, st.Alerts, st.Products, fc,
		infrapdf.NewPurchaseOrderPDF(cfg.App.Name), projection,
		reorder.Defaults{
			ServiceLevel:        cfg.Reorder.ServiceLevel,
			HoldingRate:         cfg.Reorder.HoldingRate,
			OrderCost:           cfg.Reorder.OrderCost,
			ForecastHorizonDays: cfg.Reorder.ForecastHorizonDays,
		}, log.Component("reorder"))

	return &Services{
		Storage:    st,
		Ledger:     ledger,
		Projection: projection,
		Alerts:     engine,
		Optimizer:  optimizer,
		Forecast:   fc,
		Reporter:   reporter,
	}
}
