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
	// NextPG binds the repo to the rewritten task_items schema
	NextPG struct{}
	nextQ  struct{ q repokit.Queryer }
)

// NewNextPG returns a binder for the rewritten schema
func NewNextPG() repokit.Binder[Repo] { return NextPG{} }

// Bind wires a Queryer to the rewritten repo
func (NextPG) Bind(q repokit.Queryer) Repo { return &nextQ{q: q} }

func (r *nextQ) Insert(ctx context.Context, t domain.Task) error {
	const sql = `
insert into task_items (item_id, project_id, title, state, assignee, created_at, updated_at)
values ($1, $2, $3, $4, $5, $6, $7)
`
	_, err := r.q.Exec(ctx, sql, t.ID, t.ProjectID, t.Title, string(t.Status), t.AssigneeID, t.CreatedAt, t.UpdatedAt)
	if err != nil {
		return perr.FromPostgres(err, "task insert")
	}
	return nil
}

func (r *nextQ) Get(ctx context.Context, id uuid.UUID) (domain.Task, error) {
	const sql = `
select item_id, project_id, title, state, assignee, created_at, updated_at
from task_items
where item_id = $1
`
	var t domain.Task
	var state string
	err := r.q.QueryRow(ctx, sql, id).
		Scan(&t.ID, &t.ProjectID, &t.Title, &state, &t.AssigneeID, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		if errors.Is(err, stdsql.ErrNoRows) {
			return domain.Task{}, perr.NotFoundf("task %s", id)
		}
		return domain.Task{}, perr.FromPostgres(err, "task get")
	}
	t.Status = domain.Status(state)
	return t, nil
}

func (r *nextQ) List(ctx context.Context, projectID uuid.UUID, status domain.Status, limit int) ([]domain.Task, error) {
	const sql = `
select item_id, project_id, title, state, assignee, created_at, updated_at
from task_items
where project_id = $1
and ($2 = '' or state = $2)
order by created_at asc, item_id asc
limit $3
`
	rows, err := r.q.Query(ctx, sql, projectID, string(status), clampLimit(limit))
	if err != nil {
		return nil, perr.FromPostgres(err, "task list")
	}
	defer rows.Close()

	var out []domain.Task
	for rows.Next() {
		var t domain.Task
		var state string
		if err := rows.Scan(&t.ID, &t.ProjectID, &t.Title, &state, &t.AssigneeID, &t.CreatedAt, &t.UpdatedAt); err != nil {
			return nil, perr.FromPostgres(err, "task list scan")
		}
		t.Status = domain.Status(state)
		out = append(out, t)
	}
	return out, rows.Err()
}

func (r *nextQ) SetStatus(ctx context.Context, id uuid.UUID, status domain.Status, at time.Time) (domain.Task, error) {
	const sql = `
update task_items
set state = $2, updated_at = $3
where item_id = $1
returning item_id, project_id, title, state, assignee, created_at, updated_at
`
	var t domain.Task
	var state string
	err := r.q.QueryRow(ctx, sql, id, string(status), at).
		Scan(&t.ID, &t.ProjectID, &t.Title, &state, &t.AssigneeID, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		if errors.Is(err, stdsql.ErrNoRows) {
			return domain.Task{}, perr.NotFoundf("task %s", id)
		}
		return domain.Task{}, perr.FromPostgres(err, "task set status")
	}
	t.Status = domain.Status(state)
	return t, nil
}
