// Package repo provides the legacy and rewritten postgres access for tasks
package repo

import (
	"context"
	"time"

	"github.com/google/uuid"

	"cutover/internal/services/tasks/domain"
)

// Repo is the persistence surface both task backends implement.
// The two binders below target different schemas; the routing layer decides
// per call which one answers
type Repo interface {
	Insert(ctx context.Context, t domain.Task) error
	Get(ctx context.Context, id uuid.UUID) (domain.Task, error)
	List(ctx context.Context, projectID uuid.UUID, status domain.Status, limit int) ([]domain.Task, error)
	SetStatus(ctx context.Context, id uuid.UUID, status domain.Status, at time.Time) (domain.Task, error)
}

// Filter defaults
const defaultListLimit = 100

func clampLimit(n int) int {
	if n <= 0 || n > 500 {
		return defaultListLimit
	}
	return n
}
