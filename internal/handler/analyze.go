package handler

import (
	"errors"
	"net/http"
	"strings"

	"stock-advisor/internal/domain"
	"stock-advisor/internal/service"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/attribute"
)

type AnalyzeResponse struct {
	Symbol              string        `json:"symbol"`
	RecommendationScore float64       `json:"recommendation_score"`
	FinalRecommendation domain.Action `json:"final_recommendation"`
	Reasoning           string        `json:"reasoning"`
}

type AnalyzeErrorResponse struct {
	Error string `json:"error"`
	AnalyzeResponse
}

func analyzeResponse(rec domain.Recommendation) AnalyzeResponse {
	return AnalyzeResponse{
		Symbol:              rec.Symbol,
		RecommendationScore: rec.Score,
		FinalRecommendation: rec.Action,
		Reasoning:           rec.Reasoning,
	}
}

// Analyze godoc
// @Summary      Analyze a stock
// @Description  Scores stored news sentiment, fuses it with the price trend and stores a Buy/Hold/Sell recommendation.
// @Description  If the recommendation cannot be saved the response is 500 and still carries the computed symbol, score, action and reasoning next to the error.
// @Tags         analysis
// @Produce      json
// @Param        symbol        query  string  false  "Ticker symbol (e.g., AAPL)"
// @Param        company_name  query  string  false  "Alias for symbol"
// @Success      200  {object}  AnalyzeResponse
// @Failure      400  {object}  map[string]string
// @Failure      404  {object}  map[string]string
// @Failure      500  {object}  AnalyzeErrorResponse
// @Failure      503  {object}  map[string]string
// @Router       /api/analyze [get]
func (h *Handler) Analyze(c *gin.Context) {
	if h.analyzer == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "analysis service unavailable"})
		return
	}

	ctx, span := h.tracer.Start(c.Request.Context(), "handler.analyze")
	defer span.End()

	raw := strings.TrimSpace(c.Query("symbol"))
	if raw == "" {
		raw = strings.TrimSpace(c.Query("company_name"))
	}
	symbol := domain.NormalizeSymbol(raw)
	if symbol == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing 'symbol' parameter"})
		return
	}
	span.SetAttributes(attribute.String("symbol", symbol))

	rec, err := h.analyzer.Analyze(ctx, symbol)
	if err != nil {
		var persistErr *service.PersistError
		switch {
		case errors.Is(err, domain.ErrMissingSymbol):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		case errors.Is(err, domain.ErrNoPriceData):
			c.JSON(http.StatusNotFound, gin.H{"error": "No stock data found for " + symbol})
		case errors.Is(err, domain.ErrNoNewsData):
			c.JSON(http.StatusNotFound, gin.H{"error": "No news data found for " + symbol})
		case errors.As(err, &persistErr):
			c.JSON(http.StatusInternalServerError, AnalyzeErrorResponse{
				Error:           err.Error(),
				AnalyzeResponse: analyzeResponse(persistErr.Recommendation),
			})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		}
		return
	}

	c.JSON(http.StatusOK, analyzeResponse(rec))
}
