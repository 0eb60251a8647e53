package http

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"taskboard/internal/service"
)

type createTodoRequest struct {
	Text        string `json:"text"`
	Description string `json:"description"`
	Priority    string `json:"priority"`
}

// updateTodoRequest lists the only fields a client may change. Anything
// else in the payload (_id, user, timestamps) is ignored.
type updateTodoRequest struct {
	Text        *string `json:"text"`
	Description *string `json:"description"`
	Priority    *string `json:"priority"`
	IsComplete  *bool   `json:"isComplete"`
}

func (h *Handler) createTodo(c *gin.Context) {
	var req createTodoRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, bindingError(err))
		return
	}

	task, err := h.tasks.Create(c.Request.Context(), userIDFromContext(c), service.CreateTaskInput{
		Text:        req.Text,
		Description: req.Description,
		Priority:    req.Priority,
	})
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": "Todo created successfully",
		"newTodo": todoToResponse(*task),
	})
}

func (h *Handler) listTodos(c *gin.Context) {
	// non-numeric values fall back to the defaults
	page, _ := strconv.Atoi(c.Query("page"))
	limit, _ := strconv.Atoi(c.Query("limit"))

	result, err := h.tasks.List(c.Request.Context(), userIDFromContext(c), page, limit)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, pageToResponse(result))
}

func (h *Handler) updateTodo(c *gin.Context) {
	var req updateTodoRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, bindingError(err))
		return
	}

	task, err := h.tasks.Update(c.Request.Context(), userIDFromContext(c), c.Param("id"), service.TaskPatch{
		Text:        req.Text,
		Description: req.Description,
		Priority:    req.Priority,
		IsComplete:  req.IsComplete,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message": "Todo updated successfully",
		"todo":    todoToResponse(*task),
	})
}

func (h *Handler) deleteTodo(c *gin.Context) {
	task, err := h.tasks.Delete(c.Request.Context(), userIDFromContext(c), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message": "Todo deleted successfully",
		"todo":    todoToResponse(*task),
	})
}
