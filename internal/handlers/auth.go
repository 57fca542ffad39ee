package handlers

import (
	"net/http"
	"time"

	"manualdesk/internal/accounts"
	"manualdesk/internal/middleware"
	"manualdesk/internal/models"

	"github.com/gin-gonic/gin"
)

type registerRequest struct {
	Username   string          `json:"username" binding:"required,max=150"`
	Email      string          `json:"email" binding:"omitempty,email"`
	FirstName  string          `json:"first_name" binding:"max=150"`
	LastName   string          `json:"last_name" binding:"max=150"`
	Password   string          `json:"password" binding:"required"`
	Password2  string          `json:"password2" binding:"required"`
	Role       models.UserRole `json:"role"`
	Department string          `json:"department" binding:"max=200"`
}

func (h *Handler) Register(c *gin.Context) {
	var req registerRequest
	if !bindJSON(c, &req) {
		return
	}
	user, err := h.users.Register(c.Request.Context(), accounts.RegisterInput{
		Username:   req.Username,
		Email:      req.Email,
		FirstName:  req.FirstName,
		LastName:   req.LastName,
		Password:   req.Password,
		Password2:  req.Password2,
		Role:       req.Role,
		Department: req.Department,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, user)
}

type loginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

func (h *Handler) Login(c *gin.Context) {
	var req loginRequest
	if !bindJSON(c, &req) {
		return
	}
	user, err := h.users.Authenticate(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		respondError(c, err)
		return
	}
	if err := middleware.StartSession(c, user, h.now()); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

func (h *Handler) Logout(c *gin.Context) {
	middleware.EndSession(c)
	c.JSON(http.StatusOK, gin.H{"detail": "Logged out"})
}

// CSRF выдаёт cookie csrftoken, которую фронтенд возвращает в X-CSRFToken
func (h *Handler) CSRF(c *gin.Context) {
	token, err := middleware.IssueCSRFToken(c, h.settings.SecureCookies)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"detail": "CSRF cookie set", "csrf_token": token})
}

func (h *Handler) Me(c *gin.Context) {
	user, err := h.users.Get(c.Request.Context(), middleware.CurrentActor(c).UserID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

func (h *Handler) Profile(c *gin.Context) {
	user, err := h.users.Get(c.Request.Context(), middleware.CurrentActor(c).UserID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, user.Profile)
}

type profileRequest struct {
	DisplayName *string `json:"display_name" binding:"omitempty,max=200"`
	PhoneNumber *string `json:"phone_number" binding:"omitempty,max=50"`
	Email       *string `json:"email" binding:"omitempty,email"`
	FirstName   *string `json:"first_name" binding:"omitempty,max=150"`
	LastName    *string `json:"last_name" binding:"omitempty,max=150"`
	Department  *string `json:"department" binding:"omitempty,max=200"`
}

func (h *Handler) UpdateProfile(c *gin.Context) {
	var req profileRequest
	if !bindJSON(c, &req) {
		return
	}
	user, err := h.users.UpdateProfile(c.Request.Context(), middleware.CurrentActor(c), accounts.ProfileUpdate{
		DisplayName: req.DisplayName,
		PhoneNumber: req.PhoneNumber,
		Email:       req.Email,
		FirstName:   req.FirstName,
		LastName:    req.LastName,
		Department:  req.Department,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

type changePasswordRequest struct {
	OldPassword string `json:"old_password" binding:"required"`
	NewPassword string `json:"new_password" binding:"required"`
}

func (h *Handler) ChangePassword(c *gin.Context) {
	var req changePasswordRequest
	if !bindJSON(c, &req) {
		return
	}
	if err := h.users.ChangePassword(c.Request.Context(), middleware.CurrentActor(c), req.OldPassword, req.NewPassword); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"detail": "Password changed successfully."})
}

func (h *Handler) FirstLoginStatus(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"must_change_password": middleware.CurrentActor(c).MustChangePassword})
}

type firstLoginRequest struct {
	NewPassword     string `json:"new_password" binding:"required"`
	ConfirmPassword string `json:"confirm_password" binding:"required"`
}

func (h *Handler) FirstLogin(c *gin.Context) {
	var req firstLoginRequest
	if !bindJSON(c, &req) {
		return
	}
	if err := h.users.ForcePasswordChange(c.Request.Context(), middleware.CurrentActor(c), req.NewPassword, req.ConfirmPassword); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"detail": "Password changed successfully."})
}

// ExtendSession restarts the inactivity timer of the session.
func (h *Handler) ExtendSession(c *gin.Context) {
	now := h.now()
	if err := middleware.TouchSession(c, now); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, h.sessionInfo(c, now))
}

// SessionStatus reports the session state without extending it.
func (h *Handler) SessionStatus(c *gin.Context) {
	c.JSON(http.StatusOK, h.sessionInfo(c, h.now()))
}

func (h *Handler) sessionInfo(c *gin.Context, now time.Time) gin.H {
	remaining := middleware.SessionRemaining(c, h.settings.SessionTTL, now)
	return gin.H{
		"authenticated": true,
		"remaining":     int(remaining.Seconds()),
		"warning":       remaining < h.settings.SessionWarning,
		"ttl":           int(h.settings.SessionTTL.Seconds()),
		"expires_at":    now.Add(remaining).UTC(),
	}
}
