package handler

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"stock-advisor/internal/domain"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/attribute"
)

// ListRecommendations godoc
// @Summary      Latest recommendations
// @Description  Returns the newest recommendation of each analyzed symbol, most recent first
// @Tags         recommendations
// @Produce      json
// @Param        limit  query  int  false  "Number of symbols (default 5, max 50)"  default(5)
// @Success      200  {object}  map[string]interface{}
// @Failure      400  {object}  map[string]string
// @Failure      500  {object}  map[string]string
// @Router       /api/recommendations [get]
func (h *Handler) ListRecommendations(c *gin.Context) {
	if h.recommendations == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "recommendation service unavailable"})
		return
	}

	ctx, span := h.tracer.Start(c.Request.Context(), "handler.list-recommendations")
	defer span.End()

	limit := 5
	if rawLimit := strings.TrimSpace(c.Query("limit")); rawLimit != "" {
		n, err := strconv.Atoi(rawLimit)
		if err != nil || n <= 0 || n > 50 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be between 1 and 50"})
			return
		}
		limit = n
	}

	recs, err := h.recommendations.ListLatest(ctx, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"recommendations": recs})
}

// GetRecommendation godoc
// @Summary      Latest recommendation for a symbol
// @Tags         recommendations
// @Produce      json
// @Param        symbol  path  string  true  "Ticker symbol"
// @Success      200  {object}  domain.Recommendation
// @Failure      404  {object}  map[string]string
// @Failure      500  {object}  map[string]string
// @Router       /api/recommendations/{symbol} [get]
func (h *Handler) GetRecommendation(c *gin.Context) {
	if h.recommendations == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "recommendation service unavailable"})
		return
	}

	ctx, span := h.tracer.Start(c.Request.Context(), "handler.get-recommendation")
	defer span.End()

	symbol := domain.NormalizeSymbol(c.Param("symbol"))
	span.SetAttributes(attribute.String("symbol", symbol))

	rec, err := h.recommendations.Latest(ctx, symbol)
	if errors.Is(err, domain.ErrMissingSymbol) {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if rec == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "no recommendation for " + symbol})
		return
	}
	c.JSON(http.StatusOK, rec)
}

// GetRecommendationHistory godoc
// @Summary      Retained recommendation history
// @Description  Returns up to the five most recent recommendations for a symbol
// @Tags         recommendations
// @Produce      json
// @Param        symbol  path  string  true  "Ticker symbol"
// @Success      200  {object}  map[string]interface{}
// @Failure      500  {object}  map[string]string
// @Router       /api/recommendations/{symbol}/history [get]
func (h *Handler) GetRecommendationHistory(c *gin.Context) {
	if h.recommendations == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "recommendation service unavailable"})
		return
	}

	ctx, span := h.tracer.Start(c.Request.Context(), "handler.get-recommendation-history")
	defer span.End()

	symbol := domain.NormalizeSymbol(c.Param("symbol"))
	recs, err := h.recommendations.History(ctx, symbol)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"symbol": symbol, "recommendations": recs})
}
