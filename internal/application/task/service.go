package task

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/task-tracker-api/internal/domain"
	"github.com/task-tracker-api/internal/pkg/id"
	"github.com/task-tracker-api/internal/pkg/validate"
	"go.uber.org/zap"
)

const sideEffectTimeout = time.Minute

var errTaskNotFound = domain.NewError(domain.ErrNotFound, "Task not found")

type taskStore interface {
	Put(ctx context.Context, t *domain.Task) error
	Get(ctx context.Context, taskID string) (*domain.Task, error)
	ListByUser(ctx context.Context, userID string) ([]domain.Task, error)
	Update(ctx context.Context, taskID string, updates map[string]interface{}) (*domain.Task, error)
	Delete(ctx context.Context, taskID string) error
}

type notifier interface {
	SendTaskNotice(ctx context.Context, to, action string, t *domain.Task) error
}

type eventPublisher interface {
	PublishTaskEvent(ctx context.Context, action string, t *domain.Task) error
}

// Owner identifies the authenticated user acting on tasks.
type Owner struct {
	UserID string
	Email  string
}

type Service interface {
	List(ctx context.Context, owner Owner) ([]domain.Task, error)
	Create(ctx context.Context, owner Owner, req domain.CreateTaskRequest) (*domain.Task, error)
	Update(ctx context.Context, owner Owner, taskID string, req domain.UpdateTaskRequest) (*domain.Task, error)
	Delete(ctx context.Context, owner Owner, taskID string) error
}

// ServiceDeps holds the dependencies for the task service. Notifier and
// Events are optional.
type ServiceDeps struct {
	Tasks    taskStore
	Notifier notifier
	Events   eventPublisher
	Log      *zap.Logger
}

type service struct {
	tasks    taskStore
	notifier notifier
	events   eventPublisher
	log      *zap.Logger
	now      func() time.Time
	async    func(func())
}

func NewService(d ServiceDeps) Service {
	s := &service{
		tasks:    d.Tasks,
		notifier: d.Notifier,
		events:   d.Events,
		log:      d.Log,
		now:      time.Now,
		async:    func(f func()) { go f() },
	}
	if s.log == nil {
		s.log = zap.NewNop()
	}
	return s
}

// List returns the owner's tasks, soonest due first.
func (s *service) List(ctx context.Context, owner Owner) ([]domain.Task, error) {
	tasks, err := s.tasks.ListByUser(ctx, owner.UserID)
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	sort.SliceStable(tasks, func(i, j int) bool { return tasks[i].DueDate.Before(tasks[j].DueDate) })
	if tasks == nil {
		tasks = []domain.Task{}
	}
	return tasks, nil
}

func (s *service) Create(ctx context.Context, owner Owner, req domain.CreateTaskRequest) (*domain.Task, error) {
	req.Title = strings.TrimSpace(req.Title)
	if err := validate.Struct(req); err != nil {
		return nil, domain.NewError(domain.ErrValidation, err.Error())
	}
	now := s.now().UTC()
	t := &domain.Task{
		TaskID:      id.New(),
		UserID:      owner.UserID,
		Title:       req.Title,
		Description: req.Description,
		DueDate:     req.DueDate.UTC(),
		Category:    req.Category,
		Priority:    req.Priority,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if t.Category == "" {
		t.Category = domain.DefaultCategory
	}
	if t.Priority == "" {
		t.Priority = domain.PriorityMedium
	}
	if err := s.tasks.Put(ctx, t); err != nil {
		return nil, fmt.Errorf("create task: %w", err)
	}
	s.afterChange(ctx, owner, domain.TaskCreated, t)
	return t, nil
}

func (s *service) Update(ctx context.Context, owner Owner, taskID string, req domain.UpdateTaskRequest) (*domain.Task, error) {
	if err := validate.Struct(req); err != nil {
		return nil, domain.NewError(domain.ErrValidation, err.Error())
	}
	current, err := s.owned(ctx, owner, taskID)
	if err != nil {
		return nil, err
	}

	updates := map[string]interface{}{}
	if req.Title != nil {
		title := strings.TrimSpace(*req.Title)
		if title == "" {
			return nil, domain.NewError(domain.ErrValidation, "Title is required")
		}
		updates["title"] = title
	}
	if req.Description != nil {
		updates["description"] = *req.Description
	}
	if req.DueDate != nil {
		updates["due_date"] = req.DueDate.UTC()
	}
	if req.Category != nil {
		cat := *req.Category
		if cat == "" {
			cat = domain.DefaultCategory
		}
		updates["category"] = cat
	}
	if req.Priority != nil {
		updates["priority"] = *req.Priority
	}
	if req.IsCompleted != nil {
		updates["is_completed"] = *req.IsCompleted
	}

	updated, err := s.tasks.Update(ctx, taskID, updates)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, errTaskNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("update task: %w", err)
	}

	action := domain.TaskUpdated
	if !current.IsCompleted && updated.IsCompleted {
		action = domain.TaskCompleted
	}
	s.afterChange(ctx, owner, action, updated)
	return updated, nil
}

func (s *service) Delete(ctx context.Context, owner Owner, taskID string) error {
	t, err := s.owned(ctx, owner, taskID)
	if err != nil {
		return err
	}
	err = s.tasks.Delete(ctx, taskID)
	if errors.Is(err, domain.ErrNotFound) {
		return errTaskNotFound
	}
	if err != nil {
		return fmt.Errorf("delete task: %w", err)
	}
	s.afterChange(ctx, owner, domain.TaskDeleted, t)
	return nil
}

// owned loads a task and hides tasks belonging to other users.
func (s *service) owned(ctx context.Context, owner Owner, taskID string) (*domain.Task, error) {
	if !id.Valid(taskID) {
		return nil, errTaskNotFound
	}
	t, err := s.tasks.Get(ctx, taskID)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, errTaskNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get task: %w", err)
	}
	if t.UserID != owner.UserID {
		return nil, errTaskNotFound
	}
	return t, nil
}

// afterChange sends the notice email and publishes the event without
// blocking or failing the request.
func (s *service) afterChange(ctx context.Context, owner Owner, action string, t *domain.Task) {
	snapshot := *t
	ctx = context.WithoutCancel(ctx)
	s.async(func() {
		ctx, cancel := context.WithTimeout(ctx, sideEffectTimeout)
		defer cancel()
		if s.notifier != nil && owner.Email != "" {
			if err := s.notifier.SendTaskNotice(ctx, owner.Email, action, &snapshot); err != nil {
				s.log.Warn("task notice failed", zap.String("task_id", snapshot.TaskID), zap.String("action", action), zap.Error(err))
			}
		}
		if s.events != nil {
			if err := s.events.PublishTaskEvent(ctx, action, &snapshot); err != nil {
				s.log.Warn("task event publish failed", zap.String("task_id", snapshot.TaskID), zap.String("action", action), zap.Error(err))
			}
		}
	})
}
