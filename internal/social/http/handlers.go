package http

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/b2bnest/b2bnest-api/internal/auth"
	"github.com/b2bnest/b2bnest-api/internal/logging"
	"github.com/b2bnest/b2bnest-api/internal/social/domain"
	"github.com/b2bnest/b2bnest-api/internal/social/service"
)

type Handler struct {
	posts *service.PostService
}

func New(posts *service.PostService) *Handler {
	return &Handler{posts: posts}
}

func (h *Handler) Register(rg *gin.RouterGroup) {
	g := rg.Group("/social/posts")
	g.GET("", h.List)
	g.POST("", h.Create)
	g.PATCH("/:id/status", h.SetStatus)
	g.DELETE("/:id", h.Delete)
}

func requireUser(c *gin.Context) (string, bool) {
	userID := auth.UserID(c)
	if userID == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not authenticated"})
		return "", false
	}
	return userID, true
}

func writeError(c *gin.Context, op string, err error) {
	switch {
	case errors.Is(err, domain.ErrInvalidPost), errors.Is(err, domain.ErrInvalidStatus), errors.Is(err, domain.ErrInvalidPlatform):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, domain.ErrPostNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, domain.ErrTransitionDenied):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	default:
		logging.NewLogger(c.Request.Context()).LogError(op, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}

type createPostRequest struct {
	Platform     string     `json:"platform" binding:"required"`
	Content      string     `json:"content" binding:"required"`
	Hashtags     []string   `json:"hashtags"`
	ScheduledFor *time.Time `json:"scheduled_for"`
	Status       string     `json:"status"`
}

func (h *Handler) Create(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}

	var req createPostRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body", "details": err.Error()})
		return
	}

	p, err := h.posts.CreatePost(c.Request.Context(), userID, domain.Post{
		Platform:     req.Platform,
		Content:      req.Content,
		Hashtags:     req.Hashtags,
		ScheduledFor: req.ScheduledFor,
		Status:       req.Status,
	})
	if err != nil {
		writeError(c, "social.create", err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"post": p})
}

// GET /social/posts?status=
func (h *Handler) List(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	posts, err := h.posts.ListPosts(c.Request.Context(), userID, c.Query("status"))
	if err != nil {
		writeError(c, "social.list", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"posts": posts})
}

type statusRequest struct {
	Status       string     `json:"status" binding:"required"`
	ScheduledFor *time.Time `json:"scheduled_for"`
}

func (h *Handler) SetStatus(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}

	var req statusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body", "details": err.Error()})
		return
	}

	p, err := h.posts.SetStatus(c.Request.Context(), userID, c.Param("id"), req.Status, req.ScheduledFor)
	if err != nil {
		writeError(c, "social.set_status", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"post": p})
}

func (h *Handler) Delete(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	if err := h.posts.DeletePost(c.Request.Context(), userID, c.Param("id")); err != nil {
		writeError(c, "social.delete", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}
