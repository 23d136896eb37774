// Package audit recibe los reportes de conciliación kardex/proyección.
package audit

import (
	"context"
	"sync"

	"github.com/jhoicas/kardex-api/internal/application/ports"
	"github.com/jhoicas/kardex-api/pkg/logger"
)

var _ ports.IntegrityReporter = (*LogReporter)(nil)

// LogReporter registra cada inconsistencia en el log y conserva las últimas en memoria
// para consultarlas por HTTP.
type LogReporter struct {
	log    *logger.Logger
	keep   int
	mu     sync.Mutex
	recent []ports.ReconcileReport
}

// NewLogReporter construye el reporter; keep <= 0 usa 100.
func NewLogReporter(log *logger.Logger, keep int) *LogReporter {
	if keep <= 0 {
		keep = 100
	}
	return &LogReporter{log: log, keep: keep}
}

func (r *LogReporter) Report(_ context.Context, rep ports.ReconcileReport) {
	if rep.Consistent {
		return
	}
	r.log.Error().
		Str("product_id", rep.ProductID).
		Int64("cached", rep.Cached).
		Int64("recomputed", rep.Recomputed).
		Int64("ledger_snapshot", rep.LedgerSnapshot).
		Time("checked_at", rep.CheckedAt).
		Msg("inconsistencia kardex/proyección")

	r.mu.Lock()
	defer r.mu.Unlock()
	r.recent = append(r.recent, rep)
	if len(r.recent) > r.keep {
		r.recent = r.recent[len(r.recent)-r.keep:]
	}
}

// Recent últimas inconsistencias reportadas, la más reciente al final.
func (r *LogReporter) Recent() []ports.ReconcileReport {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]ports.ReconcileReport, len(r.recent))
	copy(out, r.recent)
	return out
}
