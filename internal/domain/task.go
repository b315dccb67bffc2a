package domain

import (
	"math"
	"time"
)

const (
	PriorityLow    = "low"
	PriorityMedium = "medium"
	PriorityHigh   = "high"

	DefaultCategory = "Other"
)

// Task action names used by notices and events.
const (
	TaskCreated   = "created"
	TaskUpdated   = "updated"
	TaskCompleted = "completed"
	TaskDeleted   = "deleted"
)

// Task JSON names match what the web client reads (`_id`, camelCase).
type Task struct {
	TaskID      string    `json:"_id" dynamodbav:"task_id"`
	UserID      string    `json:"userId" dynamodbav:"user_id"`
	Title       string    `json:"title" dynamodbav:"title"`
	Description string    `json:"description" dynamodbav:"description"`
	DueDate     time.Time `json:"dueDate" dynamodbav:"due_date"`
	Category    string    `json:"category" dynamodbav:"category"`
	Priority    string    `json:"priority" dynamodbav:"priority"`
	IsCompleted bool      `json:"isCompleted" dynamodbav:"is_completed"`
	CreatedAt   time.Time `json:"createdAt" dynamodbav:"created_at"`
	UpdatedAt   time.Time `json:"updatedAt" dynamodbav:"updated_at"`
}

type CreateTaskRequest struct {
	Title       string     `json:"title" validate:"required"`
	Description string     `json:"description"`
	DueDate     *time.Time `json:"dueDate" validate:"required"`
	Category    string     `json:"category"`
	Priority    string     `json:"priority" validate:"omitempty,oneof=low medium high"`
}

type UpdateTaskRequest struct {
	Title       *string    `json:"title" validate:"omitempty,min=1"`
	Description *string    `json:"description"`
	DueDate     *time.Time `json:"dueDate"`
	Category    *string    `json:"category"`
	Priority    *string    `json:"priority" validate:"omitempty,oneof=low medium high"`
	IsCompleted *bool      `json:"isCompleted"`
}

// TaskStats summarises a user's tasks for the weekly digest.
type TaskStats struct {
	TotalTasks     int `json:"totalTasks"`
	Completed      int `json:"completed"`
	Pending        int `json:"pending"`
	Overdue        int `json:"overdue"`
	CompletionRate int `json:"completionRate"`
}

// ComputeTaskStats counts tasks relative to now. Pending tasks are due now or
// later, overdue ones strictly before now.
func ComputeTaskStats(tasks []Task, now time.Time) TaskStats {
	var s TaskStats
	s.TotalTasks = len(tasks)
	for _, t := range tasks {
		switch {
		case t.IsCompleted:
			s.Completed++
		case t.DueDate.Before(now):
			s.Overdue++
		default:
			s.Pending++
		}
	}
	if s.TotalTasks > 0 {
		s.CompletionRate = int(math.Round(float64(s.Completed) / float64(s.TotalTasks) * 100))
	}
	return s
}
