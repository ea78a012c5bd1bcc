package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/b2bnest/b2bnest-api/internal/auth"
	"github.com/b2bnest/b2bnest-api/internal/business/domain"
	"github.com/b2bnest/b2bnest-api/internal/business/service"
	"github.com/b2bnest/b2bnest-api/internal/logging"
)

type Handler struct {
	business *service.BusinessService
}

func New(business *service.BusinessService) *Handler {
	return &Handler{business: business}
}

func (h *Handler) Register(rg *gin.RouterGroup) {
	g := rg.Group("/business")

	g.GET("/cash-flow", h.ListCashFlow)
	g.POST("/cash-flow", h.CreateCashFlow)
	g.GET("/cash-flow/summary", h.CashFlowSummary)
	g.DELETE("/cash-flow/:id", h.deleteHandler(domain.ResourceCashFlow))

	g.GET("/roi", h.ListROI)
	g.POST("/roi", h.CreateROI)
	g.POST("/roi/preview", h.PreviewROI)
	g.DELETE("/roi/:id", h.deleteHandler(domain.ResourceROI))

	g.GET("/surveys", h.ListSurveys)
	g.POST("/surveys", h.CreateSurvey)
	g.PATCH("/surveys/:id/status", h.SetSurveyStatus)
	g.DELETE("/surveys/:id", h.deleteHandler(domain.ResourceSurveys))

	g.GET("/usage", h.Usage)
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
	case errors.Is(err, domain.ErrInvalidInput), errors.Is(err, domain.ErrInvalidStatus):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, domain.ErrLimitReached):
		c.JSON(http.StatusForbidden, gin.H{"error": err.Error(), "code": "limit_reached"})
	case errors.Is(err, domain.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	default:
		logging.NewLogger(c.Request.Context()).LogError(op, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}

type cashFlowRequest struct {
	Type        string  `json:"type" binding:"required"`
	Category    string  `json:"category" binding:"required"`
	Description string  `json:"description"`
	Amount      float64 `json:"amount" binding:"required"`
	EntryDate   string  `json:"entry_date"`
}

func (h *Handler) CreateCashFlow(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}

	var req cashFlowRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body", "details": err.Error()})
		return
	}

	e := &domain.CashFlowEntry{Type: req.Type, Category: req.Category, Description: req.Description, Amount: req.Amount}
	if req.EntryDate != "" {
		d, err := time.Parse(time.DateOnly, req.EntryDate)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "entry_date must be YYYY-MM-DD"})
			return
		}
		e.EntryDate = d
	}

	out, err := h.business.AddCashFlowEntry(c.Request.Context(), userID, e)
	if err != nil {
		writeError(c, "business.cash_flow.create", err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"entry": out})
}

func (h *Handler) ListCashFlow(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	list, err := h.business.ListCashFlow(c.Request.Context(), userID)
	if err != nil {
		writeError(c, "business.cash_flow.list", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"entries": list})
}

func (h *Handler) CashFlowSummary(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	sum, err := h.business.CashFlowSummary(c.Request.Context(), userID)
	if err != nil {
		writeError(c, "business.cash_flow.summary", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"summary": sum})
}

type roiRequest struct {
	Name              string  `json:"name"`
	InitialInvestment float64 `json:"initial_investment"`
	TotalReturns      float64 `json:"total_returns"`
	TimePeriodMonths  int     `json:"time_period_months"`
}

func (r roiRequest) toDomain() *domain.ROICalculation {
	return &domain.ROICalculation{
		Name:              r.Name,
		InitialInvestment: r.InitialInvestment,
		TotalReturns:      r.TotalReturns,
		TimePeriodMonths:  r.TimePeriodMonths,
	}
}

func (h *Handler) CreateROI(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}

	var req roiRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	out, err := h.business.SaveROI(c.Request.Context(), userID, req.toDomain())
	if err != nil {
		writeError(c, "business.roi.create", err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"calculation": out})
}

// PreviewROI computes without saving
func (h *Handler) PreviewROI(c *gin.Context) {
	var req roiRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	out, err := h.business.PreviewROI(req.toDomain())
	if err != nil {
		writeError(c, "business.roi.preview", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"calculation": out})
}

func (h *Handler) ListROI(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	list, err := h.business.ListROI(c.Request.Context(), userID)
	if err != nil {
		writeError(c, "business.roi.list", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"calculations": list})
}

type surveyRequest struct {
	Title       string          `json:"title"`
	Description string          `json:"description"`
	Questions   json.RawMessage `json:"questions"`
	Status      string          `json:"status"`
}

func (h *Handler) CreateSurvey(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}

	var req surveyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	out, err := h.business.CreateSurvey(c.Request.Context(), userID, &domain.Survey{
		Title:       req.Title,
		Description: req.Description,
		Questions:   req.Questions,
		Status:      req.Status,
	})
	if err != nil {
		writeError(c, "business.surveys.create", err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"survey": out})
}

func (h *Handler) ListSurveys(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	list, err := h.business.ListSurveys(c.Request.Context(), userID)
	if err != nil {
		writeError(c, "business.surveys.list", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"surveys": list})
}

func (h *Handler) SetSurveyStatus(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}

	var req struct {
		Status string `json:"status" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "status is required"})
		return
	}

	out, err := h.business.SetSurveyStatus(c.Request.Context(), userID, c.Param("id"), req.Status)
	if err != nil {
		writeError(c, "business.surveys.status", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"survey": out})
}

func (h *Handler) deleteHandler(resource domain.Resource) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := requireUser(c)
		if !ok {
			return
		}
		if err := h.business.Delete(c.Request.Context(), resource, userID, c.Param("id")); err != nil {
			writeError(c, "business.delete", err)
			return
		}
		c.Status(http.StatusNoContent)
	}
}

func (h *Handler) Usage(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	u, err := h.business.Usage(c.Request.Context(), userID)
	if err != nil {
		writeError(c, "business.usage", err)
		return
	}
	c.JSON(http.StatusOK, u)
}
