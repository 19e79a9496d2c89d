package handler

import (
	"net/http"
	"strconv"
	"strings"

	"stock-advisor/internal/domain"

	"github.com/gin-gonic/gin"
)

// GetNews godoc
// @Summary      Scored news for a symbol
// @Tags         news
// @Produce      json
// @Param        symbol  path   string  true   "Ticker symbol"
// @Param        limit   query  int     false  "Number of articles (default 10, max 100)"  default(10)
// @Success      200  {object}  map[string]interface{}
// @Failure      400  {object}  map[string]string
// @Failure      500  {object}  map[string]string
// @Router       /api/news/{symbol} [get]
func (h *Handler) GetNews(c *gin.Context) {
	if h.market == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "market service unavailable"})
		return
	}

	ctx, span := h.tracer.Start(c.Request.Context(), "handler.get-news")
	defer span.End()

	limit := 10
	if rawLimit := strings.TrimSpace(c.Query("limit")); rawLimit != "" {
		n, err := strconv.Atoi(rawLimit)
		if err != nil || n <= 0 || n > 100 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be between 1 and 100"})
			return
		}
		limit = n
	}

	symbol := domain.NormalizeSymbol(c.Param("symbol"))
	articles, err := h.market.News(ctx, symbol, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"symbol": symbol, "articles": articles})
}

// GetLatestClose godoc
// @Summary      Latest close price
// @Tags         prices
// @Produce      json
// @Param        symbol  path  string  true  "Ticker symbol"
// @Success      200  {object}  map[string]interface{}
// @Failure      404  {object}  map[string]string
// @Failure      500  {object}  map[string]string
// @Router       /api/prices/{symbol}/latest [get]
func (h *Handler) GetLatestClose(c *gin.Context) {
	if h.market == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "market service unavailable"})
		return
	}

	ctx, span := h.tracer.Start(c.Request.Context(), "handler.get-latest-close")
	defer span.End()

	symbol := domain.NormalizeSymbol(c.Param("symbol"))
	bar, err := h.market.LatestClose(ctx, symbol)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if bar == nil || bar.Close == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "No stock data found for " + symbol})
		return
	}
	c.JSON(http.StatusOK, gin.H{"symbol": symbol, "date": bar.Date.Format("2006-01-02"), "close": *bar.Close})
}

// ClearData godoc
// @Summary      Clear stored data
// @Description  Deletes every recommendation, price bar and news article in one transaction and empties the recommendation cache
// @Tags         maintenance
// @Produce      json
// @Success      200  {object}  map[string]string
// @Failure      500  {object}  map[string]string
// @Router       /api/data [delete]
func (h *Handler) ClearData(c *gin.Context) {
	if h.market == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "market service unavailable"})
		return
	}

	ctx, span := h.tracer.Start(c.Request.Context(), "handler.clear-data")
	defer span.End()

	if err := h.market.ClearMarketData(ctx); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Error clearing tables: " + err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "cleared"})
}
