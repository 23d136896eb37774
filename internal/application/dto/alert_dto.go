package dto

import (
	"time"

	"github.com/jhoicas/kardex-api/internal/domain/entity"
)

// CreateAlertRequest body para POST /api/alerts.
type CreateAlertRequest struct {
	ProductID         string `json:"product_id" validate:"required"`
	Type              string `json:"type" validate:"required"`
	Severity          string `json:"severity,omitempty"`
	Message           string `json:"message,omitempty"`
	SuggestedQuantity *int64 `json:"suggested_quantity,omitempty"`
}

// TransitionAlertRequest body para PATCH /api/alerts/{id}.
type TransitionAlertRequest struct {
	State       string `json:"state" validate:"required"`
	Note        string `json:"note,omitempty"`
	ActionTaken string `json:"action_taken,omitempty"`
}

// BatchTransitionRequest body para POST /api/alerts/batch.
type BatchTransitionRequest struct {
	IDs         []string `json:"ids" validate:"required,min=1"`
	State       string   `json:"state" validate:"required"`
	Note        string   `json:"note,omitempty"`
	ActionTaken string   `json:"action_taken,omitempty"`
}

// BatchTransitionResponse resultado por alerta de una transición en lote.
type BatchTransitionResponse struct {
	Succeeded []string          `json:"succeeded"`
	Failed    map[string]string `json:"failed"`
}

// AlertResponse salida de una alerta.
type AlertResponse struct {
	ID                string     `json:"id"`
	ProductID         string     `json:"product_id"`
	Type              string     `json:"type"`
	Severity          string     `json:"severity"`
	State             string     `json:"state"`
	Message           string     `json:"message"`
	CreatedAt         time.Time  `json:"created_at"`
	UpdatedAt         time.Time  `json:"updated_at"`
	ResolvedAt        *time.Time `json:"resolved_at,omitempty"`
	AssignedUserID    string     `json:"assigned_user_id,omitempty"`
	ActionTaken       string     `json:"action_taken,omitempty"`
	Note              string     `json:"note,omitempty"`
	SuggestedQuantity *int64     `json:"suggested_quantity,omitempty"`
}

// AlertListResponse lista paginada de alertas.
type AlertListResponse struct {
	Items []AlertResponse `json:"items"`
	Page  PageResponse    `json:"page"`
}

// EvaluationResponse alertas creadas y resueltas por una evaluación.
type EvaluationResponse struct {
	Created  []AlertResponse `json:"created"`
	Resolved []AlertResponse `json:"resolved"`
}

// ToAlertResponse convierte la entidad en la salida HTTP.
func ToAlertResponse(a *entity.Alert) AlertResponse {
	return AlertResponse{
		ID:                a.ID,
		ProductID:         a.ProductID,
		Type:              a.Type,
		Severity:          a.Severity,
		State:             a.State,
		Message:           a.Message,
		CreatedAt:         a.CreatedAt,
		UpdatedAt:         a.UpdatedAt,
		ResolvedAt:        a.ResolvedAt,
		AssignedUserID:    a.AssignedUserID,
		ActionTaken:       a.ActionTaken,
		Note:              a.Note,
		SuggestedQuantity: a.SuggestedQuantity,
	}
}

// ToAlertResponses convierte una lista de alertas.
func ToAlertResponses(list []*entity.Alert) []AlertResponse {
	out := make([]AlertResponse, 0, len(list))
	for _, a := range list {
		out = append(out, ToAlertResponse(a))
	}
	return out
}
