package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/task-tracker-api/internal/application/task"
	"github.com/task-tracker-api/internal/domain"
	"github.com/task-tracker-api/internal/transport/http/middleware"
)

type taskService interface {
	List(ctx context.Context, owner task.Owner) ([]domain.Task, error)
	Create(ctx context.Context, owner task.Owner, req domain.CreateTaskRequest) (*domain.Task, error)
	Update(ctx context.Context, owner task.Owner, taskID string, req domain.UpdateTaskRequest) (*domain.Task, error)
	Delete(ctx context.Context, owner task.Owner, taskID string) error
}

// TaskHandler serves /api/tasks. Every route sits behind middleware.Auth.
type TaskHandler struct {
	svc taskService
}

func NewTaskHandler(svc taskService) *TaskHandler {
	return &TaskHandler{svc: svc}
}

func (h *TaskHandler) List(w http.ResponseWriter, r *http.Request) {
	owner, ok := ownerFrom(w, r)
	if !ok {
		return
	}
	tasks, err := h.svc.List(r.Context(), owner)
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, tasks)
}

func (h *TaskHandler) Create(w http.ResponseWriter, r *http.Request) {
	owner, ok := ownerFrom(w, r)
	if !ok {
		return
	}
	var req domain.CreateTaskRequest
	if !decode(w, r, &req) {
		return
	}
	t, err := h.svc.Create(r.Context(), owner, req)
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, t)
}

func (h *TaskHandler) Update(w http.ResponseWriter, r *http.Request) {
	owner, ok := ownerFrom(w, r)
	if !ok {
		return
	}
	var req domain.UpdateTaskRequest
	if !decode(w, r, &req) {
		return
	}
	t, err := h.svc.Update(r.Context(), owner, chi.URLParam(r, "id"), req)
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, t)
}

func (h *TaskHandler) Delete(w http.ResponseWriter, r *http.Request) {
	owner, ok := ownerFrom(w, r)
	if !ok {
		return
	}
	if err := h.svc.Delete(r.Context(), owner, chi.URLParam(r, "id")); err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, MessageEnvelope{Message: "Task deleted"})
}

func ownerFrom(w http.ResponseWriter, r *http.Request) (task.Owner, bool) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "No token provided")
		return task.Owner{}, false
	}
	return task.Owner{UserID: claims.UserID, Email: claims.Email}, true
}
