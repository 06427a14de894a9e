package domain

import "context"

// ServicePort is the surface other modules may call
type ServicePort interface {
	Create(ctx context.Context, in CreateInput) (Task, error)
	Get(ctx context.Context, id string) (Task, error)
	List(ctx context.Context, in ListInput) ([]Task, error)
	UpdateStatus(ctx context.Context, id string, in UpdateStatusInput) (Task, error)
}
