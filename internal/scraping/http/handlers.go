package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/b2bnest/b2bnest-api/internal/logging"
	"github.com/b2bnest/b2bnest-api/internal/scraping/domain"
	"github.com/b2bnest/b2bnest-api/internal/scraping/service"
)

type Handler struct {
	scraper *service.ScrapeService
}

func New(scraper *service.ScrapeService) *Handler {
	return &Handler{scraper: scraper}
}

func (h *Handler) Register(rg *gin.RouterGroup) {
	rg.POST("/scrape", h.Scrape)
	rg.POST("/crawl", h.StartCrawl)
	rg.GET("/crawl/:id", h.CrawlStatus)
}

func writeError(c *gin.Context, op string, err error) {
	switch {
	case errors.Is(err, domain.ErrInvalidURL), errors.Is(err, domain.ErrInvalidFormat):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, domain.ErrCrawlNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, domain.ErrNotConfigured):
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
	case errors.Is(err, domain.ErrUpstreamFailed):
		logging.NewLogger(c.Request.Context()).LogError(op, err)
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
	default:
		logging.NewLogger(c.Request.Context()).LogError(op, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}

// Scrape handles POST /scrape
func (h *Handler) Scrape(c *gin.Context) {
	var req domain.ScrapeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	res, err := h.scraper.Scrape(c.Request.Context(), req)
	if err != nil {
		writeError(c, "scraping.scrape", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": res})
}

// StartCrawl handles POST /crawl
func (h *Handler) StartCrawl(c *gin.Context) {
	var req domain.CrawlRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	job, err := h.scraper.StartCrawl(c.Request.Context(), req)
	if err != nil {
		writeError(c, "scraping.crawl", err)
		return
	}
	c.JSON(http.StatusAccepted, gin.H{"success": true, "id": job.ID, "url": job.URL})
}

// CrawlStatus handles GET /crawl/:id
func (h *Handler) CrawlStatus(c *gin.Context) {
	st, err := h.scraper.CrawlStatus(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, "scraping.crawl_status", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": st})
}
