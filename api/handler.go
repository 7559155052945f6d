package api

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"immosearch/models"
	"immosearch/services"
	"immosearch/utils"
)

const healthMessage = "ImmoSearch PF API"

// Searcher runs searches over the source catalog.
type Searcher interface {
	Search(ctx context.Context, spec models.FilterSpec, sourceIDs []string) (*services.SearchResult, error)
	Sources() []models.Source
}

// SearchResponse is the body of GET /api/search.
type SearchResponse struct {
	Success   bool              `json:"success"`
	Count     int               `json:"count"`
	Listings  []*models.Listing `json:"listings"`
	Sources   []string          `json:"sources"`
	Timestamp time.Time         `json:"timestamp"`
}

// ErrorResponse is returned with 500 when the pipeline itself fails.
type ErrorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}

// HealthResponse is the body of GET /api/health.
type HealthResponse struct {
	Status    string    `json:"status"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
}

// SourceInfo is one entry of GET /api/sources.
type SourceInfo struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Status string `json:"status"`
}

// SourcesResponse is the body of GET /api/sources.
type SourcesResponse struct {
	Sources []SourceInfo `json:"sources"`
}

// Handler serves the listing API.
type Handler struct {
	searcher Searcher
	logger   *utils.Logger
	now      func() time.Time
}

func NewHandler(searcher Searcher, logger *utils.Logger) *Handler {
	return &Handler{searcher: searcher, logger: logger, now: time.Now}
}

// Search handles GET /api/search
func (h *Handler) Search(c *gin.Context) {
	q := c.Request.URL.Query()
	spec := services.ParseFilterSpec(q)
	ids := services.ParseSourceIDs(q)

	res, err := h.searcher.Search(c.Request.Context(), spec, ids)
	if err != nil {
		h.logger.Error("[api] search failed: %v", err)
		c.JSON(http.StatusInternalServerError, ErrorResponse{Success: false, Error: err.Error()})
		return
	}

	listings := res.Listings
	if listings == nil {
		listings = []*models.Listing{}
	}
	sources := res.SourceIDs
	if sources == nil {
		sources = []string{}
	}

	c.JSON(http.StatusOK, SearchResponse{
		Success:   true,
		Count:     len(listings),
		Listings:  listings,
		Sources:   sources,
		Timestamp: h.now().UTC(),
	})
}

// Health handles GET /api/health
func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, HealthResponse{
		Status:    "ok",
		Message:   healthMessage,
		Timestamp: h.now().UTC(),
	})
}

// Sources handles GET /api/sources
func (h *Handler) Sources(c *gin.Context) {
	catalog := h.searcher.Sources()
	out := make([]SourceInfo, 0, len(catalog))
	for _, s := range catalog {
		out = append(out, SourceInfo{ID: s.ID, Name: s.Name, Status: s.Status})
	}
	c.JSON(http.StatusOK, SourcesResponse{Sources: out})
}
