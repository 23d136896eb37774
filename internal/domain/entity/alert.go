package entity

import "time"

// Tipos de alerta.
const (
	AlertTypeLowStock        = "LOW_STOCK"
	AlertTypeCritical        = "CRITICAL"
	AlertTypeReorderPoint    = "REORDER_POINT"
	AlertTypeExcess          = "EXCESS"
	AlertTypeObsolete        = "OBSOLETE"
	AlertTypeExpiryNear      = "EXPIRY_NEAR"
	AlertTypeExpiryPassed    = "EXPIRY_PASSED"
	AlertTypeAnomalousDemand = "ANOMALOUS_DEMAND"
	AlertTypeHighCost        = "HIGH_COST"
	AlertTypeHighShrink      = "HIGH_SHRINK"
	AlertTypeSupplierDelay   = "SUPPLIER_DELAY"
)

// Severidades, de menor a mayor.
const (
	SeverityLOW      = "LOW"
	SeverityMEDIUM   = "MEDIUM"
	SeverityHIGH     = "HIGH"
	SeverityCRITICAL = "CRITICAL"
)

// Estados del ciclo de vida de una alerta.
const (
	AlertStatePENDING     = "PENDING"
	AlertStateIN_PROGRESS = "IN_PROGRESS"
	AlertStateRESOLVED    = "RESOLVED"
	AlertStateIGNORED     = "IGNORED"
	AlertStateESCALATED   = "ESCALATED"
)

var alertTypes = map[string]bool{
	AlertTypeLowStock: true, AlertTypeCritical: true, AlertTypeReorderPoint: true,
	AlertTypeExcess: true, AlertTypeObsolete: true, AlertTypeExpiryNear: true,
	AlertTypeExpiryPassed: true, AlertTypeAnomalousDemand: true, AlertTypeHighCost: true,
	AlertTypeHighShrink: true, AlertTypeSupplierDelay: true,
}

var severityRank = map[string]int{
	SeverityLOW: 1, SeverityMEDIUM: 2, SeverityHIGH: 3, SeverityCRITICAL: 4,
}

// ValidAlertType indica si t es un tipo de alerta conocido.
func ValidAlertType(t string) bool { return alertTypes[t] }

// SeverityRank orden fijo CRITICAL > HIGH > MEDIUM > LOW; 0 si es desconocida.
func SeverityRank(s string) int { return severityRank[s] }

// Alert representa una alerta de inventario para un producto.
type Alert struct {
	ID                string
	ProductID         string
	Type              string
	Severity          string
	State             string
	Message           string
	CreatedAt         time.Time
	UpdatedAt         time.Time
	ResolvedAt        *time.Time
	AssignedUserID    string
	ActionTaken       string
	Note              string
	SuggestedQuantity *int64
}
