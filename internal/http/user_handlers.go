package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"taskboard/internal/domain"
	"taskboard/internal/service"
)

type signUpRequest struct {
	FirstName string `json:"firstName" binding:"required"`
	LastName  string `json:"lastName" binding:"required"`
	Username  string `json:"username" binding:"required,min=3"`
	Email     string `json:"email" binding:"required,email"`
	Password  string `json:"password" binding:"required,min=8"`
}

type signInRequest struct {
	Identifier string `json:"identifier"`
	Password   string `json:"password"`
}

type updateProfileRequest struct {
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Username  string `json:"username" binding:"omitempty,min=3"`
	Email     string `json:"email" binding:"omitempty,email"`
}

func (h *Handler) signUp(c *gin.Context) {
	var req signUpRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, bindingError(err))
		return
	}

	user, err := h.users.Register(c.Request.Context(), service.RegisterInput{
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Username:  req.Username,
		Email:     req.Email,
		Password:  req.Password,
	})
	if err != nil {
		writeError(c, err)
		return
	}

	if !h.startSession(c, user) {
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"message":   "User sign up successful",
		"savedUser": userToResponse(user),
	})
}

func (h *Handler) signIn(c *gin.Context) {
	var req signInRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, bindingError(err))
		return
	}

	user, err := h.users.Authenticate(c.Request.Context(), req.Identifier, req.Password)
	if err != nil {
		// 401 is reserved for an expired session
		if domain.IsCode(err, domain.ErrCodeUnauthorized) {
			c.JSON(http.StatusBadRequest, errorResponse{Message: domain.ErrInvalidCredentials.Message})
			return
		}
		writeError(c, err)
		return
	}

	if !h.startSession(c, user) {
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message": "Login successful",
		"user":    userToResponse(user),
	})
}

func (h *Handler) startSession(c *gin.Context, user *domain.User) bool {
	token, _, err := h.tokens.Issue(user.ID)
	if err != nil {
		writeError(c, domain.WrapError(domain.ErrCodeInternal, "Error issuing session", err))
		return false
	}
	h.setSessionCookie(c, token, int(h.tokens.TTL().Seconds()))
	return true
}

func (h *Handler) logout(c *gin.Context) {
	h.clearSessionCookie(c)
	c.JSON(http.StatusOK, gin.H{"message": "Logout successful"})
}

func (h *Handler) getProfile(c *gin.Context) {
	user, err := h.users.GetProfile(c.Request.Context(), userIDFromContext(c))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": userToResponse(user)})
}

func (h *Handler) updateProfile(c *gin.Context) {
	var req updateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, bindingError(err))
		return
	}

	user, err := h.users.UpdateProfile(c.Request.Context(), userIDFromContext(c), service.ProfileUpdate{
		FirstName: optional(req.FirstName),
		LastName:  optional(req.LastName),
		Username:  optional(req.Username),
		Email:     optional(req.Email),
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message": "Profile updated successfully",
		"user":    userToResponse(user),
	})
}

func optional(v string) *string {
	if v == "" {
		return nil
	}
	return &v
}
