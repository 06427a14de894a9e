package repo

import (
	"context"
	stdsql "database/sql"
	"errors"
	"time"

	"github.com/google/uuid"

	"cutover/internal/modkit/repokit"
	perr "cutover/internal/platform/errors"
	"cutover/internal/services/tasks/domain"
)

type (
	// LegacyPG binds the repo to the monolith's tasks table
	LegacyPG struct{}
	legacyQ  struct{ q repokit.Queryer }
)

// NewLegacyPG returns a binder for the legacy schema
func NewLegacyPG() repokit.Binder[Repo] { return LegacyPG{} }

// Bind wires a Queryer to the legacy repo
func (LegacyPG) Bind(q repokit.Queryer) Repo { return &legacyQ{q: q} }

func (r *legacyQ) Insert(ctx context.Context, t domain.Task) error {
	const sql = `
insert into tasks (id, project_id, title, status, assignee_id, created_at, updated_at)
values ($1, $2, $3, $4, $5, $6, $7)
`
	_, err := r.q.Exec(ctx, sql, t.ID, t.ProjectID, t.Title, string(t.Status), t.AssigneeID, t.CreatedAt, t.UpdatedAt)
	if err != nil {
		return perr.FromPostgres(err, "legacy task insert")
	}
	return nil
}

func (r *legacyQ) Get(ctx context.Context, id uuid.UUID) (domain.Task, error) {
	const sql = `
select id, project_id, title, status, assignee_id, created_at, updated_at
from tasks
where id = $1
`
	var t domain.Task
	var status string
	err := r.q.QueryRow(ctx, sql, id).
		Scan(&t.ID, &t.ProjectID, &t.Title, &status, &t.AssigneeID, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		if errors.Is(err, stdsql.ErrNoRows) {
			return domain.Task{}, perr.NotFoundf("task %s", id)
		}
		return domain.Task{}, perr.FromPostgres(err, "legacy task get")
	}
	t.Status = domain.Status(status)
	return t, nil
}

func (r *legacyQ) List(ctx context.Context, projectID uuid.UUID, status domain.Status, limit int) ([]domain.Task, error) {
	const sql = `
select id, project_id, title, status, assignee_id, created_at, updated_at
from tasks
where project_id = $1
and ($2 = '' or status = $2)
order by created_at asc, id asc
limit $3
`
	rows, err := r.q.Query(ctx, sql, projectID, string(status), clampLimit(limit))
	if err != nil {
		return nil, perr.FromPostgres(err, "legacy task list")
	}
	defer rows.Close()

	var out []domain.Task
	for rows.Next() {
		var t domain.Task
		var st string
		if err := rows.Scan(&t.ID, &t.ProjectID, &t.Title, &st, &t.AssigneeID, &t.CreatedAt, &t.UpdatedAt); err != nil {
			return nil, perr.FromPostgres(err, "legacy task list scan")
		}
		t.Status = domain.Status(st)
		out = append(out, t)
	}
	return out, rows.Err()
}

func (r *legacyQ) SetStatus(ctx context.Context, id uuid.UUID, status domain.Status, at time.Time) (domain.Task, error) {
	const sql = `
update tasks
set status = $2, updated_at = $3
where id = $1
returning id, project_id, title, status, assignee_id, created_at, updated_at
`
	var t domain.Task
	var st string
	err := r.q.QueryRow(ctx, sql, id, string(status), at).
		Scan(&t.ID, &t.ProjectID, &t.Title, &st, &t.AssigneeID, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		if errors.Is(err, stdsql.ErrNoRows) {
			return domain.Task{}, perr.NotFoundf("task %s", id)
		}
		return domain.Task{}, perr.FromPostgres(err, "legacy task set status")
	}
	t.Status = domain.Status(st)
	return t, nil
}
