// Package service contains task workflows routed through the rollout gate
package service

import (
	"context"
	"time"

	"github.com/google/uuid"

	"cutover/internal/core/flags"
	"cutover/internal/core/rollout"
	"cutover/internal/modkit/repokit"
	perr "cutover/internal/platform/errors"
	"cutover/internal/services/tasks/domain"
	"cutover/internal/services/tasks/repo"
)

// Service defines the tasks service contract
type Service interface {
	domain.ServicePort
}

// Svc implements the tasks service. Every operation goes through the gate:
// the flag-selected backend answers, the other runs as a sampled shadow.
// Writes apply to both backends so the schemas converge during the cutover
type Svc struct {
	gate   *rollout.Gate
	legacy repo.Repo
	next   repo.Repo

	now   func() time.Time
	newID func() uuid.UUID
}

// New constructs a tasks service with both backends bound to db
func New(db repokit.TxRunner, gate *rollout.Gate, legacyB, nextB repokit.Binder[repo.Repo]) *Svc {
	if db == nil {
		panic("tasks.Service requires a non nil TxRunner")
	}
	if gate == nil {
		panic("tasks.Service requires a non nil rollout gate")
	}
	return &Svc{
		gate:   gate,
		legacy: repokit.MustBind(legacyB, db),
		next:   repokit.MustBind(nextB, db),
		now:    time.Now,
		newID:  uuid.New,
	}
}

// Create inserts a task into the write-flag-selected backend and mirrors it
// to the other one so neither schema drifts during the migration
func (s *Svc) Create(ctx context.Context, in domain.CreateInput) (domain.Task, error) {
	projectID, err := uuid.Parse(in.ProjectID)
	if err != nil {
		return domain.Task{}, perr.InvalidArgf("project_id: %v", err)
	}
	var assignee *uuid.UUID
	if in.AssigneeID != nil {
		a, err := uuid.Parse(*in.AssigneeID)
		if err != nil {
			return domain.Task{}, perr.InvalidArgf("assignee_id: %v", err)
		}
		assignee = &a
	}

	now := s.now().UTC()
	t := domain.Task{
		ID:         s.newID(),
		ProjectID:  projectID,
		Title:      in.Title,
		Status:     domain.StatusOpen,
		AssigneeID: assignee,
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	return rollout.RunWrite(ctx, s.gate, flags.ModuleTasks, "tasks.create",
		s.insertWith(s.legacy, t),
		s.insertWith(s.next, t),
	)
}

func (s *Svc) insertWith(r repo.Repo, t domain.Task) func(context.Context) (domain.Task, error) {
	return func(ctx context.Context) (domain.Task, error) {
		if err := r.Insert(ctx, t); err != nil {
			return domain.Task{}, err
		}
		return t, nil
	}
}

// Get reads one task through the read-flag-selected backend
func (s *Svc) Get(ctx context.Context, id string) (domain.Task, error) {
	tid, err := uuid.Parse(id)
	if err != nil {
		return domain.Task{}, perr.InvalidArgf("task id: %v", err)
	}
	return rollout.RunRead(ctx, s.gate, flags.ModuleTasks, "tasks.get",
		func(ctx context.Context) (domain.Task, error) { return s.legacy.Get(ctx, tid) },
		func(ctx context.Context) (domain.Task, error) { return s.next.Get(ctx, tid) },
	)
}

// List reads a filtered task page through the read-flag-selected backend
func (s *Svc) List(ctx context.Context, in domain.ListInput) ([]domain.Task, error) {
	projectID, err := uuid.Parse(in.ProjectID)
	if err != nil {
		return nil, perr.InvalidArgf("project_id: %v", err)
	}
	status := domain.Status(in.Status)
	return rollout.RunRead(ctx, s.gate, flags.ModuleTasks, "tasks.list",
		func(ctx context.Context) ([]domain.Task, error) { return s.legacy.List(ctx, projectID, status, in.Limit) },
		func(ctx context.Context) ([]domain.Task, error) { return s.next.List(ctx, projectID, status, in.Limit) },
	)
}

// UpdateStatus moves a task through its lifecycle on both backends
func (s *Svc) UpdateStatus(ctx context.Context, id string, in domain.UpdateStatusInput) (domain.Task, error) {
	tid, err := uuid.Parse(id)
	if err != nil {
		return domain.Task{}, perr.InvalidArgf("task id: %v", err)
	}
	status := domain.Status(in.Status)
	at := s.now().UTC()
	return rollout.RunWrite(ctx, s.gate, flags.ModuleTasks, "tasks.update_status",
		func(ctx context.Context) (domain.Task, error) { return s.legacy.SetStatus(ctx, tid, status, at) },
		func(ctx context.Context) (domain.Task, error) { return s.next.SetStatus(ctx, tid, status, at) },
	)
}
