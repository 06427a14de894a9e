// Package http provides http transport for tasks
package http

import (
	stdhttp "net/http"

	"github.com/go-chi/chi/v5"

	"cutover/internal/modkit/httpkit"
	"cutover/internal/services/tasks/domain"
	svc "cutover/internal/services/tasks/service"
)

// Register mounts tasks endpoints on the given router
func Register(r httpkit.Router, s svc.Service) {
	h := &handlers{svc: s}
	httpkit.PostJSON[domain.CreateInput](r, "/", h.create)
	httpkit.PostJSON[domain.ListInput](r, "/list", h.list)
	httpkit.Get(r, "/{id}", h.get)
	httpkit.PatchJSON[domain.UpdateStatusInput](r, "/{id}/status", h.updateStatus)
}

type handlers struct{ svc svc.Service }

// swagger:route POST /tasks Tasks tasksCreate
// @Summary Create a task
// @Tags Tasks
// @Accept json
// @Produce json
// @Param payload body domain.CreateInput true "Task"
// @Success 200 {object} domain.Task "ok"
// @Router /tasks [post]
func (h *handlers) create(r *stdhttp.Request, in domain.CreateInput) (any, error) {
	return h.svc.Create(r.Context(), in)
}

// swagger:route POST /tasks/list Tasks tasksList
// @Summary List tasks for a project
// @Tags Tasks
// @Accept json
// @Produce json
// @Param payload body domain.ListInput true "Filter"
// @Success 200 {array} domain.Task "ok"
// @Router /tasks/list [post]
func (h *handlers) list(r *stdhttp.Request, in domain.ListInput) (any, error) {
	return h.svc.List(r.Context(), in)
}

// swagger:route GET /tasks/{id} Tasks tasksGet
// @Summary Fetch one task
// @Tags Tasks
// @Produce json
// @Param id path string true "Task ID"
// @Success 200 {object} domain.Task "ok"
// @Failure 404 {object} httpkit.Envelope "not found"
// @Router /tasks/{id} [get]
func (h *handlers) get(r *stdhttp.Request) (any, error) {
	return h.svc.Get(r.Context(), chi.URLParam(r, "id"))
}

// swagger:route PATCH /tasks/{id}/status Tasks tasksUpdateStatus
// @Summary Move a task through its lifecycle
// @Tags Tasks
// @Accept json
// @Produce json
// @Param id path string true "Task ID"
// @Param payload body domain.UpdateStatusInput true "Status"
// @Success 200 {object} domain.Task "ok"
// @Router /tasks/{id}/status [patch]
func (h *handlers) updateStatus(r *stdhttp.Request, in domain.UpdateStatusInput) (any, error) {
	return h.svc.UpdateStatus(r.Context(), chi.URLParam(r, "id"), in)
}
