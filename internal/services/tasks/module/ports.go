package module

import (
	"context"

	"cutover/internal/services/tasks/domain"
	taskssvc "cutover/internal/services/tasks/service"
)

// Ports returns the module ports
func (m *Module) Ports() any { return m.ports }

type adaptTasksPort struct{ svc taskssvc.Service }

// Create makes a new task
func (a adaptTasksPort) Create(ctx context.Context, in domain.CreateInput) (domain.Task, error) {
	return a.svc.Create(ctx, in)
}

// Get fetches a task by id
func (a adaptTasksPort) Get(ctx context.Context, id string) (domain.Task, error) {
	return a.svc.Get(ctx, id)
}

// List returns tasks for a project
func (a adaptTasksPort) List(ctx context.Context, in domain.ListInput) ([]domain.Task, error) {
	return a.svc.List(ctx, in)
}

// UpdateStatus moves a task through its lifecycle
func (a adaptTasksPort) UpdateStatus(ctx context.Context, id string, in domain.UpdateStatusInput) (domain.Task, error) {
	return a.svc.UpdateStatus(ctx, id, in)
}
