package http

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/b2bnest/b2bnest-api/internal/auth"
	"github.com/b2bnest/b2bnest-api/internal/hmrc/domain"
	"github.com/b2bnest/b2bnest-api/internal/hmrc/service"
	"github.com/b2bnest/b2bnest-api/internal/logging"
)

type Handler struct {
	hmrc *service.HMRCService
}

func New(hmrc *service.HMRCService) *Handler {
	return &Handler{hmrc: hmrc}
}

func (h *Handler) Register(rg *gin.RouterGroup) {
	g := rg.Group("/hmrc")
	g.GET("/obligations", h.ListObligations)
	g.POST("/obligations", h.SeedObligation)
	g.GET("/returns", h.ListReturns)
	g.GET("/returns/:periodKey", h.GetReturn)
	g.POST("/returns", h.SubmitReturn)
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
	case errors.Is(err, domain.ErrInvalidVRN), errors.Is(err, domain.ErrInvalidPeriodKey),
		errors.Is(err, domain.ErrInvalidReturn), errors.Is(err, domain.ErrInvalidObligation):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, domain.ErrReturnNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, domain.ErrNoOpenObligation):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
	case errors.Is(err, domain.ErrAlreadySubmitted):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, domain.ErrUpstreamFailed):
		logging.NewLogger(c.Request.Context()).LogError(op, err)
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
	default:
		logging.NewLogger(c.Request.Context()).LogError(op, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}

func parseDate(field, value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(time.DateOnly, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %s must be YYYY-MM-DD", domain.ErrInvalidObligation, field)
	}
	return t, nil
}

// GET /hmrc/obligations?vrn=&from=&to=
func (h *Handler) ListObligations(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}

	from, err := parseDate("from", c.Query("from"))
	if err != nil {
		writeError(c, "hmrc.list_obligations", err)
		return
	}
	to, err := parseDate("to", c.Query("to"))
	if err != nil {
		writeError(c, "hmrc.list_obligations", err)
		return
	}

	obs, err := h.hmrc.ListObligations(c.Request.Context(), userID, c.Query("vrn"), from, to)
	if err != nil {
		writeError(c, "hmrc.list_obligations", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"obligations": obs, "live": h.hmrc.Live()})
}

type seedObligationRequest struct {
	VRN       string `json:"vrn" binding:"required"`
	PeriodKey string `json:"period_key" binding:"required"`
	Start     string `json:"start" binding:"required"`
	End       string `json:"end" binding:"required"`
	Due       string `json:"due" binding:"required"`
	Status    string `json:"status"`
}

func (h *Handler) SeedObligation(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}

	var req seedObligationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	o := domain.Obligation{PeriodKey: req.PeriodKey, Status: req.Status}
	var err error
	for _, d := range []struct {
		name  string
		value string
		dst   *time.Time
	}{{"start", req.Start, &o.Start}, {"end", req.End, &o.End}, {"due", req.Due, &o.Due}} {
		if *d.dst, err = parseDate(d.name, d.value); err != nil {
			writeError(c, "hmrc.seed_obligation", err)
			return
		}
	}

	stored, err := h.hmrc.SeedObligation(c.Request.Context(), userID, req.VRN, o)
	if err != nil {
		writeError(c, "hmrc.seed_obligation", err)
		return
	}
	c.JSON(http.StatusCreated, stored)
}

type submitReturnRequest struct {
	VRN string `json:"vrn" binding:"required"`
	domain.VATReturn
}

func (h *Handler) SubmitReturn(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}

	var req submitReturnRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ret, err := h.hmrc.SubmitReturn(c.Request.Context(), userID, req.VRN, req.VATReturn)
	if err != nil {
		writeError(c, "hmrc.submit_return", err)
		return
	}
	c.JSON(http.StatusCreated, ret)
}

func (h *Handler) ListReturns(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}

	returns, err := h.hmrc.ListReturns(c.Request.Context(), userID, c.Query("vrn"))
	if err != nil {
		writeError(c, "hmrc.list_returns", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"returns": returns})
}

func (h *Handler) GetReturn(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}

	ret, err := h.hmrc.GetReturn(c.Request.Context(), userID, c.Query("vrn"), c.Param("periodKey"))
	if err != nil {
		writeError(c, "hmrc.get_return", err)
		return
	}
	c.JSON(http.StatusOK, ret)
}
