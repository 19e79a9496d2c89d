package mcp

import (
	"context"
	"errors"
	"fmt"

	"stock-advisor/internal/service"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

func registerTools(server *mcp.Server, analyzer Analyzer, recs RecommendationReader, news NewsReader) {
	mcp.AddTool(server, &mcp.Tool{
		Name:        "analyze_symbol",
		Description: "Score stored news for a stock, fuse it with the 30-day price trend and store a Buy/Hold/Sell recommendation",
	}, func(ctx context.Context, _ *mcp.CallToolRequest, in analyzeSymbolInput) (*mcp.CallToolResult, analyzeSymbolOutput, error) {
		if analyzer == nil {
			return nil, analyzeSymbolOutput{}, fmt.Errorf("analysis service unavailable")
		}
		symbol, err := normalizeSymbol(in.Symbol)
		if err != nil {
			return nil, analyzeSymbolOutput{}, err
		}

		rec, err := analyzer.Analyze(ctx, symbol)
		if err != nil {
			var persistErr *service.PersistError
			if errors.As(err, &persistErr) {
				return nil, analyzeSymbolOutput{Recommendation: persistErr.Recommendation, Saved: false}, nil
			}
			return nil, analyzeSymbolOutput{}, err
		}
		return nil, analyzeSymbolOutput{Recommendation: rec, Saved: true}, nil
	})

	mcp.AddTool(server, &mcp.Tool{
		Name:        "recommendation_get",
		Description: "Get the latest stored recommendation for one stock, optionally with its history",
	}, func(ctx context.Context, _ *mcp.CallToolRequest, in recommendationGetInput) (*mcp.CallToolResult, recommendationGetOutput, error) {
		if recs == nil {
			return nil, recommendationGetOutput{}, fmt.Errorf("recommendation service unavailable")
		}
		symbol, err := normalizeSymbol(in.Symbol)
		if err != nil {
			return nil, recommendationGetOutput{}, err
		}

		latest, err := recs.Latest(ctx, symbol)
		if err != nil {
			return nil, recommendationGetOutput{}, err
		}
		out := recommendationGetOutput{Symbol: symbol, Recommendation: latest}
		if in.IncludeHistory {
			history, err := recs.History(ctx, symbol)
			if err != nil {
				return nil, recommendationGetOutput{}, err
			}
			out.History = history
		}
		return nil, out, nil
	})

	mcp.AddTool(server, &mcp.Tool{
		Name:        "recommendations_list",
		Description: "List the most recent recommendation per symbol, newest first",
	}, func(ctx context.Context, _ *mcp.CallToolRequest, in recommendationsListInput) (*mcp.CallToolResult, recommendationsListOutput, error) {
		if recs == nil {
			return nil, recommendationsListOutput{}, fmt.Errorf("recommendation service unavailable")
		}
		list, err := recs.ListLatest(ctx, normalizeRecommendationLimit(in.Limit))
		if err != nil {
			return nil, recommendationsListOutput{}, err
		}
		return nil, recommendationsListOutput{Recommendations: list}, nil
	})

	mcp.AddTool(server, &mcp.Tool{
		Name:        "news_list",
		Description: "List recent news articles for a stock with their sentiment scores",
	}, func(ctx context.Context, _ *mcp.CallToolRequest, in newsListInput) (*mcp.CallToolResult, newsListOutput, error) {
		if news == nil {
			return nil, newsListOutput{}, fmt.Errorf("news service unavailable")
		}
		symbol, err := normalizeSymbol(in.Symbol)
		if err != nil {
			return nil, newsListOutput{}, err
		}
		articles, err := news.News(ctx, symbol, normalizeNewsLimit(in.Limit))
		if err != nil {
			return nil, newsListOutput{}, err
		}
		return nil, newsListOutput{Symbol: symbol, Articles: articles}, nil
	})
}
