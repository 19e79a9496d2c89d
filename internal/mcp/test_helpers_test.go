package mcp

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"stock-advisor/internal/domain"
	"stock-advisor/internal/service"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
)

type stubAnalyzer struct {
	rec        domain.Recommendation
	err        error
	lastSymbol string
}

func (s *stubAnalyzer) Analyze(ctx context.Context, symbol string) (domain.Recommendation, error) {
	s.lastSymbol = symbol
	return s.rec, s.err
}

type stubRecommendationService struct {
	latest  map[string]*domain.Recommendation
	history map[string][]domain.Recommendation
	list    []domain.Recommendation

	lastLimit int
}

func (s *stubRecommendationService) Latest(ctx context.Context, symbol string) (*domain.Recommendation, error) {
	if rec, ok := s.latest[symbol]; ok {
		copy := *rec
		return &copy, nil
	}
	return nil, nil
}

func (s *stubRecommendationService) History(ctx context.Context, symbol string) ([]domain.Recommendation, error) {
	return append([]domain.Recommendation(nil), s.history[symbol]...), nil
}

func (s *stubRecommendationService) ListLatest(ctx context.Context, limit int) ([]domain.Recommendation, error) {
	s.lastLimit = limit
	list := s.list
	if len(list) > limit {
		list = list[:limit]
	}
	return append([]domain.Recommendation(nil), list...), nil
}

type stubNewsService struct {
	articles map[string][]service.ScoredArticle

	lastLimit int
}

func (s *stubNewsService) News(ctx context.Context, symbol string, limit int) ([]service.ScoredArticle, error) {
	s.lastLimit = limit
	return append([]service.ScoredArticle(nil), s.articles[symbol]...), nil
}

func testServer() (*sdkmcp.Server, *stubAnalyzer, *stubRecommendationService, *stubNewsService) {
	created := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	ma := 180.5
	latest := domain.Recommendation{
		ID: 7, Symbol: "AAPL", Score: 0.31, Action: domain.ActionBuy,
		Reasoning: "Positive news sentiment.", CreatedAt: created, ClosePrice: 182.1, MovingAverage: &ma,
	}
	older := latest
	older.ID, older.Action, older.Score, older.CreatedAt = 6, domain.ActionHold, 0.05, created.Add(-time.Hour)

	analyzer := &stubAnalyzer{rec: latest}
	recs := &stubRecommendationService{
		latest:  map[string]*domain.Recommendation{"AAPL": &latest},
		history: map[string][]domain.Recommendation{"AAPL": {latest, older}},
		list:    []domain.Recommendation{latest, {ID: 3, Symbol: "MSFT", Action: domain.ActionSell, Score: -0.4}},
	}
	news := &stubNewsService{articles: map[string][]service.ScoredArticle{
		"AAPL": {{
			NewsArticle: domain.NewsArticle{ID: 1, Symbol: "AAPL", Title: "Record quarter", SentimentScore: 0.8, PublishedAt: created},
			Category:    domain.CategorizeSentiment(0.8),
		}},
	}}

	srv := NewServer(nil, analyzer, recs, news, ServerConfig{RequestTimeout: time.Second})
	return srv, analyzer, recs, news
}

func connectInMemory(ctx context.Context, srv *sdkmcp.Server) (*sdkmcp.ClientSession, context.CancelFunc, error) {
	clientTransport, serverTransport := sdkmcp.NewInMemoryTransports()
	runCtx, cancel := context.WithCancel(ctx)
	go func() { _ = srv.Run(runCtx, serverTransport) }()

	client := sdkmcp.NewClient(&sdkmcp.Implementation{Name: "mcp-test-client", Version: "1.0.0"}, nil)
	session, err := client.Connect(ctx, clientTransport, nil)
	if err != nil {
		cancel()
		return nil, nil, err
	}
	return session, cancel, nil
}

type authRoundTripper struct {
	token string
	base  http.RoundTripper
}

func (t *authRoundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	clone := req.Clone(req.Context())
	if t.token != "" {
		clone.Header.Set("Authorization", "Bearer "+t.token)
	}
	base := t.base
	if base == nil {
		base = http.DefaultTransport
	}
	return base.RoundTrip(clone)
}

func decodeResourceJSON(result *sdkmcp.ReadResourceResult, out any) error {
	if len(result.Contents) == 0 {
		return nil
	}
	return json.Unmarshal([]byte(result.Contents[0].Text), out)
}

func decodeStructured(result *sdkmcp.CallToolResult, out any) error {
	raw, err := json.Marshal(result.StructuredContent)
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, out)
}
