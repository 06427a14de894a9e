// Package domain holds task types shared by transport and service layers
package domain

import (
	"time"

	"github.com/google/uuid"
)

// Status enumerates task lifecycle states
type Status string

// Task lifecycle states
const (
	StatusOpen   Status = "open"
	StatusActive Status = "active"
	StatusDone   Status = "done"
)

// Task is one unit of tracked work
type Task struct {
	ID         uuid.UUID  `json:"id"`
	ProjectID  uuid.UUID  `json:"project_id"`
	Title      string     `json:"title"`
	Status     Status     `json:"status"`
	AssigneeID *uuid.UUID `json:"assignee_id,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
}

// CreateInput is the payload for creating a task
type CreateInput struct {
	ProjectID  string  `json:"project_id" validate:"required,uuid4" example:"7f9c24e5-dd3a-4f1e-9a9d-6f2b5c8a1e77"`
	Title      string  `json:"title" validate:"required,min=1,max=500" example:"Wire invoice export"`
	AssigneeID *string `json:"assignee_id,omitempty" validate:"omitempty,uuid4"`
}

// UpdateStatusInput moves a task through its lifecycle
type UpdateStatusInput struct {
	Status string `json:"status" validate:"required,oneof=open active done" example:"active"`
}

// ListInput filters the task listing
type ListInput struct {
	ProjectID string `json:"project_id" validate:"required,uuid4"`
	Status    string `json:"status,omitempty" validate:"omitempty,oneof=open active done"`
	Limit     int    `json:"limit,omitempty" validate:"omitempty,min=1,max=500"`
}
