package domain

import (
	"strings"
	"time"
)

type TaskPriority string

const (
	TaskPriorityExtreme  TaskPriority = "Extreme"
	TaskPriorityModerate TaskPriority = "Moderate"
	TaskPriorityLow      TaskPriority = "Low"
)

// ParseTaskPriority resolves a priority name case-insensitively. An empty
// value yields the default priority.
func ParseTaskPriority(value string) (TaskPriority, bool) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "":
		return TaskPriorityModerate, true
	case "extreme":
		return TaskPriorityExtreme, true
	case "moderate":
		return TaskPriorityModerate, true
	case "low":
		return TaskPriorityLow, true
	default:
		return "", false
	}
}

// Task represents a to-do item owned by exactly one user.
type Task struct {
	ID          string
	OwnerID     string
	Text        string
	Description string
	Priority    TaskPriority
	IsComplete  bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// OwnedBy reports whether userID owns the task.
func (t *Task) OwnedBy(userID string) bool {
	return t != nil && userID != "" && t.OwnerID == userID
}

// TaskPage is one offset/limit window over a user's tasks.
type TaskPage struct {
	Items       []Task
	CurrentPage int
	TotalPages  int
	Total       int
}
