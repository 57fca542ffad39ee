package handlers

import (
	"net/http"

	"manualdesk/internal/accounts"
	"manualdesk/internal/middleware"
	"manualdesk/internal/models"

	"github.com/gin-gonic/gin"
)

// ListUsers returns active users, ?search= filters by name.
func (h *Handler) ListUsers(c *gin.Context) {
	users, err := h.users.List(c.Request.Context(), c.Query("search"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, ListResponse{Data: users})
}

type createUserRequest struct {
	Username    string          `json:"username" binding:"required,max=150"`
	Email       string          `json:"email" binding:"omitempty,email"`
	FirstName   string          `json:"first_name" binding:"max=150"`
	LastName    string          `json:"last_name" binding:"max=150"`
	Password    string          `json:"password" binding:"required"`
	Role        models.UserRole `json:"role"`
	Department  string          `json:"department" binding:"max=200"`
	DisplayName string          `json:"display_name" binding:"max=200"`
	PhoneNumber string          `json:"phone_number" binding:"max=50"`
}

// CreateUser: администратор заводит пользователя с временным паролем
func (h *Handler) CreateUser(c *gin.Context) {
	var req createUserRequest
	if !bindJSON(c, &req) {
		return
	}
	user, err := h.users.AdminCreateUser(c.Request.Context(), middleware.CurrentActor(c), accounts.NewUser{
		Username:    req.Username,
		Email:       req.Email,
		FirstName:   req.FirstName,
		LastName:    req.LastName,
		Password:    req.Password,
		Role:        req.Role,
		Department:  req.Department,
		DisplayName: req.DisplayName,
		PhoneNumber: req.PhoneNumber,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, user)
}

type setRoleRequest struct {
	Role models.UserRole `json:"role" binding:"required"`
}

func (h *Handler) SetUserRole(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var req setRoleRequest
	if !bindJSON(c, &req) {
		return
	}
	user, err := h.users.SetRole(c.Request.Context(), middleware.CurrentActor(c), id, req.Role)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}
