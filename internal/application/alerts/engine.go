// Package alerts evalúa la proyección de stock contra los umbrales de negocio
// y administra el ciclo de vida de las alertas.
package alerts

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/jhoicas/kardex-api/internal/domain"
	"github.com/jhoicas/kardex-api/internal/domain/alert"
	"github.com/jhoicas/kardex-api/internal/domain/entity"
	"github.com/jhoicas/kardex-api/internal/domain/inventory"
	"github.com/jhoicas/kardex-api/internal/domain/repository"
	"github.com/jhoicas/kardex-api/pkg/logger"
)

// ActionConditionCleared acción registrada al resolver automáticamente una alerta cuya condición desapareció.
const ActionConditionCleared = "condición normalizada"

// Locker serializa transiciones concurrentes sobre la misma alerta.
type Locker interface {
	Acquire(ctx context.Context, key string) (release func(), err error)
}

// Config reglas configurables del motor.
type Config struct {
	ObsoleteDays      int  // días sin venta para OBSOLETE; 0 desactiva la regla
	ExpiryWarningDays int  // ventana de EXPIRY_NEAR; 0 desactiva la regla
	AutoResolve       bool // resolver PENDING cuya condición ya no se cumple
}

// Engine motor de alertas de inventario.
type Engine struct {
	stockRepo repository.StockLevelRepository
	movRepo   repository.MovementRepository
	alertRepo repository.AlertRepository
	optRepo   repository.OptimizationRepository
	locker    Locker
	status    inventory.StatusCalculator
	cfg       Config
	log       *logger.Logger
	now       func() time.Time
}

// NewEngine construye el motor.
func NewEngine(
	stockRepo repository.StockLevelRepository,
	movRepo repository.MovementRepository,
	alertRepo repository.AlertRepository,
	optRepo repository.OptimizationRepository,
	locker Locker,
	status inventory.StatusCalculator,
	cfg Config,
	log *logger.Logger,
) *Engine {
	return &Engine{
		stockRepo: stockRepo,
		movRepo:   movRepo,
		alertRepo: alertRepo,
		optRepo:   optRepo,
		locker:    locker,
		status:    status,
		cfg:       cfg,
		log:       log,
		now:       time.Now,
	}
}

// SetClock reemplaza el reloj (tests).
func (e *Engine) SetClock(now func() time.Time) { e.now = now }

// condition resultado de evaluar una regla.
type condition struct {
	alertType string
	holds     bool
	severity  string
	message   string
	shortage  bool
}

// EvaluationResult alertas creadas y resueltas por una evaluación.
type EvaluationResult struct {
	Created  []*entity.Alert
	Resolved []*entity.Alert
}

// EvaluateProduct implementa inventory.StockObserver.
func (e *Engine) EvaluateProduct(ctx context.Context, productID string) error {
	_, err := e.Evaluate(ctx, productID)
	return err
}

// Evaluate lee el stock actual (sin lock: una lectura algo desfasada se corrige en la siguiente
// evaluación) y abre una alerta por cada regla que se cumpla sin PENDING del mismo tipo.
func (e *Engine) Evaluate(ctx context.Context, productID string) (*EvaluationResult, error) {
	level, err := e.stockRepo.Get(ctx, productID)
	if err != nil {
		return nil, err
	}
	if level == nil {
		return nil, domain.ErrNotFound
	}
	conds, err := e.conditions(ctx, level)
	if err != nil {
		return nil, err
	}

	res := &EvaluationResult{}
	for _, c := range conds {
		pending, err := e.alertRepo.FindPending(ctx, productID, c.alertType)
		if err != nil {
			return nil, err
		}
		switch {
		case c.holds && pending == nil:
			a, err := e.open(ctx, level, c)
			if errors.Is(err, domain.ErrDuplicateAlert) {
				continue
			}
			if err != nil {
				return nil, err
			}
			res.Created = append(res.Created, a)
		case !c.holds && pending != nil && e.cfg.AutoResolve:
			resolved, err := e.autoResolve(ctx, pending.ID)
			if err != nil {
				return nil, err
			}
			if resolved != nil {
				res.Resolved = append(res.Resolved, resolved)
			}
		}
	}

	if len(res.Created) > 0 || len(res.Resolved) > 0 {
		e.log.Info().
			Str("product_id", productID).
			Int("created", len(res.Created)).
			Int("resolved", len(res.Resolved)).
			Str("status", level.Status).
			Msg("alertas evaluadas")
	}
	return res, nil
}

// autoResolve cierra la alerta bajo su lock solo si sigue PENDING; nil si alguien la tomó antes.
func (e *Engine) autoResolve(ctx context.Context, alertID string) (*entity.Alert, error) {
	release, err := e.locker.Acquire(ctx, alertLockKey(alertID))
	if err != nil {
		return nil, err
	}
	defer release()

	a, err := e.alertRepo.GetByID(ctx, alertID)
	if err != nil {
		return nil, err
	}
	if a == nil || a.State != entity.AlertStatePENDING {
		return nil, nil
	}
	now := e.now()
	a.State = entity.AlertStateRESOLVED
	a.ActionTaken = ActionConditionCleared
	a.ResolvedAt = &now
	a.UpdatedAt = now
	if err := e.alertRepo.Update(ctx, a); err != nil {
		return nil, err
	}
	return a, nil
}

// conditions evalúa cada regla con su propio predicado. El estado de stock es excluyente
// (CRITICAL tapa a LOW), pero un faltante que empeora sigue cumpliendo las reglas más leves.
func (e *Engine) conditions(ctx context.Context, level *entity.StockLevel) ([]condition, error) {
	now := e.now()

	conds := []condition{
		{
			alertType: entity.AlertTypeCritical,
			holds:     level.Available <= 0 || e.status.IsCritical(level.Available, level.Minimum),
			severity:  entity.SeverityCRITICAL,
			message:   fmt.Sprintf("stock crítico: %d disponibles (mínimo %d)", level.Available, level.Minimum),
			shortage:  true,
		},
		{
			alertType: entity.AlertTypeLowStock,
			holds:     level.ReorderPoint > 0 && level.Available <= level.ReorderPoint,
			severity:  entity.SeverityHIGH,
			message:   fmt.Sprintf("stock bajo: %d disponibles (punto de reorden %d)", level.Available, level.ReorderPoint),
			shortage:  true,
		},
		{
			alertType: entity.AlertTypeReorderPoint,
			holds:     level.ReorderPoint > 0 && level.Available+level.InTransit <= level.ReorderPoint,
			severity:  entity.SeverityMEDIUM,
			message:   fmt.Sprintf("punto de reorden alcanzado: %d disponibles + %d en tránsito", level.Available, level.InTransit),
			shortage:  true,
		},
		{
			alertType: entity.AlertTypeExcess,
			holds:     level.Maximum > 0 && level.Available > level.Maximum,
			severity:  entity.SeverityLOW,
			message:   fmt.Sprintf("exceso de stock: %d disponibles (máximo %d)", level.Available, level.Maximum),
		},
	}

	if e.cfg.ObsoleteDays > 0 {
		days := level.DaysSinceLastSale(now)
		conds = append(conds, condition{
			alertType: entity.AlertTypeObsolete,
			holds:     level.Available > 0 && days >= e.cfg.ObsoleteDays,
			severity:  entity.SeverityLOW,
			message:   fmt.Sprintf("sin ventas hace %d días", days),
		})
	}

	lots, err := e.lots(ctx, level.ProductID)
	if err != nil {
		return nil, err
	}
	var expired, near []string
	warnUntil := now.AddDate(0, 0, e.cfg.ExpiryWarningDays)
	for _, l := range lots {
		switch {
		case !l.ExpiresAt.After(now):
			expired = append(expired, l.Lot)
		case e.cfg.ExpiryWarningDays > 0 && !l.ExpiresAt.After(warnUntil):
			near = append(near, l.Lot)
		}
	}
	conds = append(conds, condition{
		alertType: entity.AlertTypeExpiryPassed,
		holds:     len(expired) > 0,
		severity:  entity.SeverityCRITICAL,
		message:   "lotes vencidos con saldo: " + strings.Join(expired, ", "),
	})
	if e.cfg.ExpiryWarningDays > 0 {
		conds = append(conds, condition{
			alertType: entity.AlertTypeExpiryNear,
			holds:     len(near) > 0,
			severity:  entity.SeverityHIGH,
			message:   "lotes próximos a vencer: " + strings.Join(near, ", "),
		})
	}
	return conds, nil
}

func (e *Engine) lots(ctx context.Context, productID string) ([]inventory.LotBalance, error) {
	movements, err := e.movRepo.ListByProduct(ctx, productID, repository.MovementFilter{})
	if err != nil {
		return nil, err
	}
	return inventory.LotBalances(movements), nil
}

func (e *Engine) open(ctx context.Context, level *entity.StockLevel, c condition) (*entity.Alert, error) {
	now := e.now()
	a := &entity.Alert{
		ID:        uuid.New().String(),
		ProductID: level.ProductID,
		Type:      c.alertType,
		Severity:  c.severity,
		State:     entity.AlertStatePENDING,
		Message:   c.message,
		CreatedAt: now,
		UpdatedAt: now,
	}
	qty, err := e.suggestedQuantity(ctx, level, c.shortage)
	if err != nil {
		return nil, err
	}
	a.SuggestedQuantity = qty
	if err := e.alertRepo.Create(ctx, a); err != nil {
		return nil, err
	}
	return a, nil
}

// suggestedQuantity max(0, máximo − disponible) si hay máximo; si no, para faltantes,
// el EOQ redondeado hacia arriba de la última optimización.
func (e *Engine) suggestedQuantity(ctx context.Context, level *entity.StockLevel, shortage bool) (*int64, error) {
	if level.Maximum > 0 {
		q := level.Maximum - level.Available
		if q < 0 {
			q = 0
		}
		return &q, nil
	}
	if !shortage || e.optRepo == nil {
		return nil, nil
	}
	opt, err := e.optRepo.Latest(ctx, level.ProductID)
	if err != nil {
		return nil, err
	}
	if opt == nil {
		return nil, nil
	}
	q := inventory.CeilQuantity(opt.EOQ)
	return &q, nil
}

// CreateAlertInput alta manual de una alerta.
type CreateAlertInput struct {
	ProductID         string
	Type              string
	Severity          string
	Message           string
	SuggestedQuantity *int64
	UserID            string
}

// Create da de alta una alerta manual. Si ya existe una PENDING del mismo tipo para el
// producto la devuelve con created=false (el duplicado se suprime, no es error del caller).
func (e *Engine) Create(ctx context.Context, in CreateAlertInput) (*entity.Alert, bool, error) {
	if in.ProductID == "" || !entity.ValidAlertType(in.Type) {
		return nil, false, domain.ErrInvalidInput
	}
	if in.Severity == "" {
		in.Severity = entity.SeverityMEDIUM
	}
	if entity.SeverityRank(in.Severity) == 0 {
		return nil, false, domain.ErrInvalidInput
	}
	if in.SuggestedQuantity != nil && *in.SuggestedQuantity < 0 {
		return nil, false, domain.ErrInvalidInput
	}

	existing, err := e.alertRepo.FindPending(ctx, in.ProductID, in.Type)
	if err != nil {
		return nil, false, err
	}
	if existing != nil {
		return existing, false, nil
	}

	now := e.now()
	a := &entity.Alert{
		ID:                uuid.New().String(),
		ProductID:         in.ProductID,
		Type:              in.Type,
		Severity:          in.Severity,
		State:             entity.AlertStatePENDING,
		Message:           in.Message,
		CreatedAt:         now,
		UpdatedAt:         now,
		AssignedUserID:    in.UserID,
		SuggestedQuantity: in.SuggestedQuantity,
	}
	if err := e.alertRepo.Create(ctx, a); err != nil {
		if errors.Is(err, domain.ErrDuplicateAlert) {
			existing, ferr := e.alertRepo.FindPending(ctx, in.ProductID, in.Type)
			if ferr != nil {
				return nil, false, ferr
			}
			if existing != nil {
				return existing, false, nil
			}
		}
		return nil, false, err
	}
	return a, true, nil
}

// TransitionInput datos de un cambio de estado.
// Para RESOLVED, ActionTaken (o Note si está vacío) es obligatorio.
type TransitionInput struct {
	State       string
	Note        string
	ActionTaken string
	UserID      string
}

// Transition valida y aplica un cambio de estado según la máquina de estados.
func (e *Engine) Transition(ctx context.Context, alertID string, in TransitionInput) (*entity.Alert, error) {
	if alertID == "" || !alert.ValidState(in.State) {
		return nil, domain.ErrInvalidInput
	}
	action := strings.TrimSpace(in.ActionTaken)
	if action == "" {
		action = strings.TrimSpace(in.Note)
	}
	if in.State == entity.AlertStateRESOLVED && action == "" {
		return nil, domain.ErrInvalidInput
	}

	release, err := e.locker.Acquire(ctx, alertLockKey(alertID))
	if err != nil {
		return nil, err
	}
	defer release()

	a, err := e.alertRepo.GetByID(ctx, alertID)
	if err != nil {
		return nil, err
	}
	if a == nil {
		return nil, domain.ErrNotFound
	}
	if !alert.CanTransition(a.State, in.State) {
		return nil, fmt.Errorf("%w: %s → %s", domain.ErrInvalidTransition, a.State, in.State)
	}

	now := e.now()
	a.State = in.State
	a.UpdatedAt = now
	if in.Note != "" {
		a.Note = in.Note
	}
	switch in.State {
	case entity.AlertStateIN_PROGRESS:
		if in.UserID != "" {
			a.AssignedUserID = in.UserID
		}
	case entity.AlertStateRESOLVED:
		a.ActionTaken = action
		a.ResolvedAt = &now
	case entity.AlertStateIGNORED:
		a.ResolvedAt = &now
	}
	if err := e.alertRepo.Update(ctx, a); err != nil {
		return nil, err
	}

	e.log.Info().
		Str("alert_id", a.ID).
		Str("product_id", a.ProductID).
		Str("type", a.Type).
		Str("state", a.State).
		Str("user_id", in.UserID).
		Msg("alerta actualizada")
	return a, nil
}

// BatchResult resultado por ítem de una transición en lote.
type BatchResult struct {
	Succeeded []*entity.Alert
	Failed    map[string]error
}

// TransitionBatch aplica la misma transición a cada ID; cada ítem se confirma por separado
// y un fallo no detiene a los demás.
func (e *Engine) TransitionBatch(ctx context.Context, alertIDs []string, in TransitionInput) *BatchResult {
	res := &BatchResult{Failed: map[string]error{}}
	seen := make(map[string]bool, len(alertIDs))
	for _, id := range alertIDs {
		if seen[id] {
			continue
		}
		seen[id] = true
		a, err := e.Transition(ctx, id, in)
		if err != nil {
			res.Failed[id] = err
			continue
		}
		res.Succeeded = append(res.Succeeded, a)
	}
	return res
}

// Get devuelve una alerta.
func (e *Engine) Get(ctx context.Context, alertID string) (*entity.Alert, error) {
	a, err := e.alertRepo.GetByID(ctx, alertID)
	if err != nil {
		return nil, err
	}
	if a == nil {
		return nil, domain.ErrNotFound
	}
	return a, nil
}

// List lista alertas con filtros.
func (e *Engine) List(ctx context.Context, filter repository.AlertFilter) ([]*entity.Alert, error) {
	return e.alertRepo.List(ctx, filter)
}

func alertLockKey(alertID string) string { return "alert:" + alertID }
