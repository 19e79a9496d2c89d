package handler

import (
	"context"
	"net/http"

	"stock-advisor/internal/domain"
	"stock-advisor/internal/service"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/trace"
)

type Analyzer interface {
	Analyze(ctx context.Context, symbol string) (domain.Recommendation, error)
}

type RecommendationQuerier interface {
	Latest(ctx context.Context, symbol string) (*domain.Recommendation, error)
	History(ctx context.Context, symbol string) ([]domain.Recommendation, error)
	ListLatest(ctx context.Context, limit int) ([]domain.Recommendation, error)
}

type MarketQuerier interface {
	News(ctx context.Context, symbol string, limit int) ([]service.ScoredArticle, error)
	LatestClose(ctx context.Context, symbol string) (*domain.PriceBar, error)
	ClearMarketData(ctx context.Context) error
}

type Handler struct {
	tracer          trace.Tracer
	analyzer        Analyzer
	recommendations RecommendationQuerier
	market          MarketQuerier
}

func New(
	tracer trace.Tracer,
	analyzer Analyzer,
	recommendations RecommendationQuerier,
	market MarketQuerier,
) *Handler {
	return &Handler{
		tracer:          tracer,
		analyzer:        analyzer,
		recommendations: recommendations,
		market:          market,
	}
}

func (h *Handler) RegisterRoutes(r *gin.Engine) {
	r.GET("/health", h.Health)

	api := r.Group("/api")
	api.GET("/analyze", h.Analyze)
	api.GET("/recommendations", h.ListRecommendations)
	api.GET("/recommendations/:symbol", h.GetRecommendation)
	api.GET("/recommendations/:symbol/history", h.GetRecommendationHistory)
	api.GET("/news/:symbol", h.GetNews)
	api.GET("/prices/:symbol/latest", h.GetLatestClose)
	api.DELETE("/data", h.ClearData)
}

// Health godoc
// @Summary      Health check
// @Tags         health
// @Produce      json
// @Success      200  {object}  map[string]string
// @Router       /health [get]
func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
