package http

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/b2bnest/b2bnest-api/internal/auth"
	"github.com/b2bnest/b2bnest-api/internal/logging"
	"github.com/b2bnest/b2bnest-api/internal/notifications/domain"
	"github.com/b2bnest/b2bnest-api/internal/notifications/service"
)

type Handler struct {
	dispatcher *service.Dispatcher
}

func New(dispatcher *service.Dispatcher) *Handler {
	return &Handler{dispatcher: dispatcher}
}

func (h *Handler) Register(rg *gin.RouterGroup) {
	g := rg.Group("/notifications")
	g.POST("/dispatch", h.Dispatch)
	g.GET("", h.List)
	g.PATCH("/:id/read", h.MarkRead)
	g.POST("/read-all", h.MarkAllRead)
	g.GET("/preferences", h.GetPreferences)
	g.PUT("/preferences", h.UpdatePreferences)
}

type dispatchRequest struct {
	NotificationType string `json:"notificationType" binding:"required"`
	TaskID           string `json:"taskId"`
	TaskTitle        string `json:"taskTitle" binding:"required"`
	TaskDescription  string `json:"taskDescription"`
	ProjectID        string `json:"projectId"`
	ProjectName      string `json:"projectName"`
	RecipientUserID  string `json:"recipientUserId" binding:"required"`
	ActorName        string `json:"actorName"`
	Comment          string `json:"comment"`
	OldStatus        string `json:"oldStatus"`
	NewStatus        string `json:"newStatus"`
	DueDate          string `json:"dueDate"`
}

func parseDueDate(s string) (*time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return &t, nil
	}
	t, err := time.Parse(time.DateOnly, s)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// Dispatch handles POST /notifications/dispatch
func (h *Handler) Dispatch(c *gin.Context) {
	userID := auth.UserID(c)
	if userID == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not authenticated"})
		return
	}

	var req dispatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body", "details": err.Error()})
		return
	}

	due, err := parseDueDate(req.DueDate)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "dueDate must be RFC3339 or YYYY-MM-DD"})
		return
	}

	event := domain.Event{
		Type:            domain.NotificationType(req.NotificationType),
		TaskID:          req.TaskID,
		TaskTitle:       req.TaskTitle,
		TaskDescription: req.TaskDescription,
		ProjectID:       req.ProjectID,
		ProjectName:     req.ProjectName,
		RecipientUserID: req.RecipientUserID,
		ActorUserID:     userID,
		ActorName:       req.ActorName,
		Comment:         req.Comment,
		OldStatus:       req.OldStatus,
		NewStatus:       req.NewStatus,
		DueDate:         due,
	}

	res, err := h.dispatcher.Dispatch(c.Request.Context(), event)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrInvalidType), errors.Is(err, domain.ErrInvalidEvent):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		default:
			logging.NewLogger(c.Request.Context()).LogError("notifications.dispatch", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":         true,
		"status":          res.Status,
		"email":           res.Email,
		"email_id":        res.EmailID,
		"log_id":          res.LogID,
		"notification_id": res.NotificationID,
	})
}

// List handles GET /notifications?unread=true&limit=50
func (h *Handler) List(c *gin.Context) {
	userID := auth.UserID(c)
	if userID == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not authenticated"})
		return
	}

	unreadOnly := c.Query("unread") == "true"
	limit := service.DefaultListLimit
	if v := c.Query("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be a positive integer"})
			return
		}
		limit = n
	}

	items, err := h.dispatcher.ListInApp(c.Request.Context(), userID, unreadOnly, limit)
	if err != nil {
		logging.NewLogger(c.Request.Context()).LogError("notifications.list", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"notifications": items, "count": len(items)})
}

func (h *Handler) MarkRead(c *gin.Context) {
	userID := auth.UserID(c)
	if userID == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not authenticated"})
		return
	}

	err := h.dispatcher.MarkRead(c.Request.Context(), userID, c.Param("id"))
	if err != nil {
		if errors.Is(err, domain.ErrNotificationMissing) {
			c.JSON(http.StatusNotFound, gin.H{"error": "notification not found"})
			return
		}
		logging.NewLogger(c.Request.Context()).LogError("notifications.mark_read", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (h *Handler) MarkAllRead(c *gin.Context) {
	userID := auth.UserID(c)
	if userID == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not authenticated"})
		return
	}

	n, err := h.dispatcher.MarkAllRead(c.Request.Context(), userID)
	if err != nil {
		logging.NewLogger(c.Request.Context()).LogError("notifications.mark_all_read", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "updated": n})
}

func (h *Handler) GetPreferences(c *gin.Context) {
	userID := auth.UserID(c)
	if userID == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not authenticated"})
		return
	}

	p, err := h.dispatcher.Preferences(c.Request.Context(), userID)
	if err != nil {
		logging.NewLogger(c.Request.Context()).LogError("notifications.preferences", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"preferences": p})
}

func (h *Handler) UpdatePreferences(c *gin.Context) {
	userID := auth.UserID(c)
	if userID == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not authenticated"})
		return
	}

	var patch domain.PreferencesPatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	p, err := h.dispatcher.UpdatePreferences(c.Request.Context(), userID, patch)
	if err != nil {
		logging.NewLogger(c.Request.Context()).LogError("notifications.update_preferences", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"preferences": p})
}
