package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/b2bnest/b2bnest-api/internal/auth"
	"github.com/b2bnest/b2bnest-api/internal/logging"
	"github.com/b2bnest/b2bnest-api/internal/profiles/domain"
	"github.com/b2bnest/b2bnest-api/internal/profiles/service"
)

type Handler struct {
	profiles *service.ProfileService
}

func New(profiles *service.ProfileService) *Handler {
	return &Handler{profiles: profiles}
}

func (h *Handler) Register(rg *gin.RouterGroup) {
	rg.GET("/profile", h.GetProfile)
	rg.POST("/profile/sync", h.SyncProfile)
	rg.PUT("/profile", h.UpdateProfile)
}

// GetProfile returns the current user's profile
func (h *Handler) GetProfile(c *gin.Context) {
	userID := auth.UserID(c)
	if userID == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not authenticated"})
		return
	}

	p, err := h.profiles.GetProfile(c.Request.Context(), userID)
	if err != nil {
		if errors.Is(err, domain.ErrProfileNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "profile not found"})
			return
		}
		logging.NewLogger(c.Request.Context()).LogError("profiles.get", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"profile": p})
}

// SyncProfile is called after sign-in. The email from the token wins over the body.
func (h *Handler) SyncProfile(c *gin.Context) {
	userID := auth.UserID(c)
	if userID == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not authenticated"})
		return
	}

	var body struct {
		Email       string  `json:"email,omitempty"`
		DisplayName *string `json:"display_name,omitempty"`
		Company     *string `json:"company,omitempty"`
	}

	// Body is optional
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&body); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid JSON body", "details": err.Error()})
			return
		}
	}

	email := auth.UserEmail(c)
	if email == "" {
		email = body.Email
	}

	p, err := h.profiles.SyncProfile(c.Request.Context(), &domain.SyncProfileRequest{
		UserID:      userID,
		Email:       email,
		DisplayName: body.DisplayName,
		Company:     body.Company,
	})
	if err != nil {
		logging.NewLogger(c.Request.Context()).LogError("profiles.sync", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"profile": p})
}

// UpdateProfile updates the user's profile
func (h *Handler) UpdateProfile(c *gin.Context) {
	userID := auth.UserID(c)
	if userID == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not authenticated"})
		return
	}

	var req struct {
		DisplayName *string `json:"display_name,omitempty"`
		Company     *string `json:"company,omitempty"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	p, err := h.profiles.UpdateProfile(c.Request.Context(), userID, &domain.UpdateProfileRequest{
		DisplayName: req.DisplayName,
		Company:     req.Company,
	})
	if err != nil {
		if errors.Is(err, domain.ErrProfileNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "profile not found"})
			return
		}
		logging.NewLogger(c.Request.Context()).LogError("profiles.update", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"profile": p})
}
