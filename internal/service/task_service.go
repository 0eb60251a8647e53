package service

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"taskboard/internal/domain"
	"taskboard/internal/repository"
)

const (
	DefaultPage     = 1
	DefaultPageSize = 10
	MaxPageSize     = 100
)

// CreateTaskInput carries the fields accepted when creating a task.
type CreateTaskInput struct {
	Text        string
	Description string
	Priority    string
}

// TaskPatch carries a partial task update. Nil fields are left unchanged.
type TaskPatch struct {
	Text        *string
	Description *string
	Priority    *string
	IsComplete  *bool
}

// TaskService manages tasks on behalf of their owner.
type TaskService interface {
	Create(ctx context.Context, ownerID string, in CreateTaskInput) (*domain.Task, error)
	List(ctx context.Context, ownerID string, page, pageSize int) (*domain.TaskPage, error)
	Update(ctx context.Context, ownerID, taskID string, patch TaskPatch) (*domain.Task, error)
	Delete(ctx context.Context, ownerID, taskID string) (*domain.Task, error)
}

type taskService struct {
	tasks repository.TaskRepository
	now   func() time.Time
}

func NewTaskService(tasks repository.TaskRepository) TaskService {
	return &taskService{
		tasks: tasks,
		now:   time.Now,
	}
}

func (s *taskService) Create(ctx context.Context, ownerID string, in CreateTaskInput) (*domain.Task, error) {
	text := strings.TrimSpace(in.Text)
	priority, ok := domain.ParseTaskPriority(in.Priority)

	var problems []string
	if text == "" {
		problems = append(problems, "Text is required")
	}
	if !ok {
		problems = append(problems, "Priority must be one of Extreme, Moderate, Low")
	}
	if len(problems) > 0 {
		return nil, domain.ValidationError(problems...)
	}

	now := s.now().UTC()
	task := &domain.Task{
		ID:          uuid.NewString(),
		OwnerID:     ownerID,
		Text:        text,
		Description: in.Description,
		Priority:    priority,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.tasks.Create(ctx, task); err != nil {
		return nil, domain.WrapError(domain.ErrCodeInternal, "Error in todo creation", err)
	}
	return task, nil
}

func (s *taskService) List(ctx context.Context, ownerID string, page, pageSize int) (*domain.TaskPage, error) {
	page, pageSize = normalizePage(page, pageSize)

	total, err := s.tasks.CountByOwner(ctx, ownerID)
	if err != nil {
		return nil, domain.WrapError(domain.ErrCodeInternal, "Error fetching todo list", err)
	}
	items, err := s.tasks.ListByOwner(ctx, ownerID, (page-1)*pageSize, pageSize)
	if err != nil {
		return nil, domain.WrapError(domain.ErrCodeInternal, "Error fetching todo list", err)
	}

	return &domain.TaskPage{
		Items:       items,
		CurrentPage: page,
		TotalPages:  (total + pageSize - 1) / pageSize,
		Total:       total,
	}, nil
}

func (s *taskService) Update(ctx context.Context, ownerID, taskID string, patch TaskPatch) (*domain.Task, error) {
	task, err := s.ownedTask(ctx, ownerID, taskID, "update")
	if err != nil {
		return nil, err
	}

	var problems []string
	if patch.Text != nil {
		if text := strings.TrimSpace(*patch.Text); text == "" {
			problems = append(problems, "Text cannot be empty")
		} else {
			task.Text = text
		}
	}
	if patch.Priority != nil && strings.TrimSpace(*patch.Priority) != "" {
		if priority, ok := domain.ParseTaskPriority(*patch.Priority); ok {
			task.Priority = priority
		} else {
			problems = append(problems, "Priority must be one of Extreme, Moderate, Low")
		}
	}
	if len(problems) > 0 {
		return nil, domain.ValidationError(problems...)
	}
	if patch.Description != nil {
		task.Description = *patch.Description
	}
	if patch.IsComplete != nil {
		task.IsComplete = *patch.IsComplete
	}

	task.UpdatedAt = s.now().UTC()
	if err := s.tasks.Update(ctx, task); err != nil {
		return nil, err
	}
	return task, nil
}

func (s *taskService) Delete(ctx context.Context, ownerID, taskID string) (*domain.Task, error) {
	task, err := s.ownedTask(ctx, ownerID, taskID, "delete")
	if err != nil {
		return nil, err
	}
	if err := s.tasks.Delete(ctx, task.ID); err != nil {
		return nil, err
	}
	return task, nil
}

// ownedTask loads taskID and checks that ownerID may act on it. It is the
// only ownership check; Update and Delete both go through it.
func (s *taskService) ownedTask(ctx context.Context, ownerID, taskID, action string) (*domain.Task, error) {
	task, err := s.tasks.Get(ctx, taskID)
	if err != nil {
		return nil, err
	}
	if !task.OwnedBy(ownerID) {
		return nil, domain.NewError(domain.ErrCodeForbidden, "Not authorized to "+action+" this todo")
	}
	return task, nil
}

func normalizePage(page, pageSize int) (int, int) {
	if page < 1 {
		page = DefaultPage
	}
	if pageSize < 1 {
		pageSize = DefaultPageSize
	}
	if pageSize > MaxPageSize {
		pageSize = MaxPageSize
	}
	return page, pageSize
}
