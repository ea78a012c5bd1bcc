package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/b2bnest/b2bnest-api/internal/assistant/domain"
	"github.com/b2bnest/b2bnest-api/internal/assistant/service"
	"github.com/b2bnest/b2bnest-api/internal/auth"
	"github.com/b2bnest/b2bnest-api/internal/logging"
)

type Handler struct {
	assistant *service.AssistantService
}

func New(assistant *service.AssistantService) *Handler {
	return &Handler{assistant: assistant}
}

func (h *Handler) Register(rg *gin.RouterGroup) {
	g := rg.Group("/assistant")
	g.POST("/chat", h.Chat)
	g.GET("/conversations", h.ListConversations)
	g.GET("/conversations/:id", h.GetConversation)
	g.DELETE("/conversations/:id", h.DeleteConversation)
	g.GET("/insights", h.ListInsights)
}

func writeError(c *gin.Context, op string, err error) {
	switch {
	case errors.Is(err, domain.ErrEmptyMessage), errors.Is(err, domain.ErrInvalidType):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, domain.ErrConversationNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, domain.ErrVersionConflict):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, domain.ErrProviderUnavailable):
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
	default:
		logging.NewLogger(c.Request.Context()).LogError(op, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}

// Chat handles POST /assistant/chat
func (h *Handler) Chat(c *gin.Context) {
	userID := auth.UserID(c)
	if userID == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not authenticated"})
		return
	}

	var req domain.ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body", "details": err.Error()})
		return
	}

	resp, err := h.assistant.Chat(c.Request.Context(), userID, req)
	if err != nil {
		writeError(c, "assistant.chat", err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

func (h *Handler) ListConversations(c *gin.Context) {
	userID := auth.UserID(c)
	if userID == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not authenticated"})
		return
	}

	list, err := h.assistant.ListConversations(c.Request.Context(), userID)
	if err != nil {
		writeError(c, "assistant.list_conversations", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"conversations": list})
}

func (h *Handler) GetConversation(c *gin.Context) {
	userID := auth.UserID(c)
	if userID == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not authenticated"})
		return
	}

	conv, err := h.assistant.GetConversation(c.Request.Context(), userID, c.Param("id"))
	if err != nil {
		writeError(c, "assistant.get_conversation", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"conversation": conv})
}

func (h *Handler) DeleteConversation(c *gin.Context) {
	userID := auth.UserID(c)
	if userID == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not authenticated"})
		return
	}

	if err := h.assistant.DeleteConversation(c.Request.Context(), userID, c.Param("id")); err != nil {
		writeError(c, "assistant.delete_conversation", err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) ListInsights(c *gin.Context) {
	userID := auth.UserID(c)
	if userID == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not authenticated"})
		return
	}

	insights, err := h.assistant.ListInsights(c.Request.Context(), userID)
	if err != nil {
		writeError(c, "assistant.list_insights", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"insights": insights})
}
