package http

import (
	"time"

	"taskboard/internal/domain"
)

type UserResponse struct {
	ID        string `json:"_id"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Username  string `json:"username"`
	Email     string `json:"email"`
	CreatedAt string `json:"createdAt"`
	UpdatedAt string `json:"updatedAt"`
}

type TodoResponse struct {
	ID          string              `json:"_id"`
	Text        string              `json:"text"`
	Description string              `json:"description"`
	Priority    domain.TaskPriority `json:"priority"`
	IsComplete  bool                `json:"isComplete"`
	User        string              `json:"user"`
	CreatedAt   string              `json:"createdAt"`
	UpdatedAt   string              `json:"updatedAt"`
}

type TodoListResponse struct {
	Message     string         `json:"message"`
	TodoList    []TodoResponse `json:"todoList"`
	CurrentPage int            `json:"currentPage"`
	TotalPages  int            `json:"totalPages"`
	TotalTodos  int            `json:"totalTodos"`
}

func userToResponse(user *domain.User) UserResponse {
	return UserResponse{
		ID:        user.ID,
		FirstName: user.FirstName,
		LastName:  user.LastName,
		Username:  user.Username,
		Email:     user.Email,
		CreatedAt: user.CreatedAt.Format(time.RFC3339),
		UpdatedAt: user.UpdatedAt.Format(time.RFC3339),
	}
}

func todoToResponse(task domain.Task) TodoResponse {
	return TodoResponse{
		ID:          task.ID,
		Text:        task.Text,
		Description: task.Description,
		Priority:    task.Priority,
		IsComplete:  task.IsComplete,
		User:        task.OwnerID,
		CreatedAt:   task.CreatedAt.Format(time.RFC3339),
		UpdatedAt:   task.UpdatedAt.Format(time.RFC3339),
	}
}

func pageToResponse(page *domain.TaskPage) TodoListResponse {
	resp := TodoListResponse{
		Message:     "Todo list fetched successfully",
		TodoList:    make([]TodoResponse, len(page.Items)),
		CurrentPage: page.CurrentPage,
		TotalPages:  page.TotalPages,
		TotalTodos:  page.Total,
	}
	for i := range page.Items {
		resp.TodoList[i] = todoToResponse(page.Items[i])
	}
	return resp
}
