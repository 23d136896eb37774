// Package alert contiene la máquina de estados de las alertas de inventario.
package alert

import "github.com/jhoicas/kardex-api/internal/domain/entity"

// Una alerta solo se resuelve a mano desde IN_PROGRESS. ESCALATED vuelve a IN_PROGRESS
// cuando alguien la toma; el cierre automático por condición normalizada no pasa por aquí.
var transitions = map[string]map[string]bool{
	entity.AlertStatePENDING: {
		entity.AlertStateIN_PROGRESS: true,
		entity.AlertStateIGNORED:     true,
		entity.AlertStateESCALATED:   true,
	},
	entity.AlertStateIN_PROGRESS: {
		entity.AlertStateRESOLVED: true,
	},
	entity.AlertStateESCALATED: {
		entity.AlertStateIN_PROGRESS: true,
	},
}

// CanTransition indica si from → to es legal. RESOLVED e IGNORED son terminales.
func CanTransition(from, to string) bool {
	return transitions[from][to]
}

// IsTerminal estados sin salida; si la condición reaparece se crea una alerta nueva.
func IsTerminal(state string) bool {
	return state == entity.AlertStateRESOLVED || state == entity.AlertStateIGNORED
}

// ValidState indica si state es un estado conocido.
func ValidState(state string) bool {
	switch state {
	case entity.AlertStatePENDING, entity.AlertStateIN_PROGRESS, entity.AlertStateRESOLVED,
		entity.AlertStateIGNORED, entity.AlertStateESCALATED:
		return true
	}
	return false
}
