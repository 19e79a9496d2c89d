package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"net/url"
	"strconv"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

const jsonMIME = "application/json"

var (
	errRecommendationsUnavailable = errors.New("recommendation service unavailable")
	errNewsUnavailable            = errors.New("news service unavailable")
)

func registerResources(server *mcp.Server, recs RecommendationReader, news NewsReader) {
	server.AddResource(&mcp.Resource{
		URI:         "recommendations://latest",
		Name:        "recommendations-latest",
		Description: "Most recent recommendation per symbol",
		MIMEType:    jsonMIME,
	}, func(ctx context.Context, req *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
		if recs == nil {
			return nil, errRecommendationsUnavailable
		}
		list, err := recs.ListLatest(ctx, defaultRecommendationLimit)
		if err != nil {
			return nil, err
		}
		return jsonResource(req.Params.URI, recommendationsListOutput{Recommendations: list})
	})

	server.AddResourceTemplate(&mcp.ResourceTemplate{
		URITemplate: "recommendations://symbol/{symbol}",
		Name:        "recommendation-history",
		Description: "Retained recommendation history for a symbol, newest first",
		MIMEType:    jsonMIME,
	}, func(ctx context.Context, req *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
		if recs == nil {
			return nil, errRecommendationsUnavailable
		}
		u, err := resourceURI(req, "recommendations")
		if err != nil || u.Host != "symbol" {
			return nil, mcp.ResourceNotFoundError(req.Params.URI)
		}
		symbol, err := normalizeSymbol(strings.Trim(u.Path, "/ "))
		if err != nil {
			return nil, err
		}

		history, err := recs.History(ctx, symbol)
		if err != nil {
			return nil, err
		}
		out := recommendationGetOutput{Symbol: symbol, History: history}
		if len(history) > 0 {
			out.Recommendation = &history[0]
		}
		return jsonResource(req.Params.URI, out)
	})

	server.AddResourceTemplate(&mcp.ResourceTemplate{
		URITemplate: "news://{symbol}{?limit}",
		Name:        "news-by-symbol",
		Description: "Recent scored news for a symbol; optional limit query param",
		MIMEType:    jsonMIME,
	}, func(ctx context.Context, req *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
		if news == nil {
			return nil, errNewsUnavailable
		}
		u, err := resourceURI(req, "news")
		if err != nil {
			return nil, err
		}
		symbol, err := normalizeSymbol(u.Host)
		if err != nil {
			return nil, err
		}
		limit, err := queryLimit(u, defaultNewsLimit)
		if err != nil {
			return nil, err
		}

		articles, err := news.News(ctx, symbol, normalizeNewsLimit(limit))
		if err != nil {
			return nil, err
		}
		return jsonResource(req.Params.URI, newsListOutput{Symbol: symbol, Articles: articles})
	})
}

// resourceURI parses the requested URI and insists on the given scheme.
func resourceURI(req *mcp.ReadResourceRequest, scheme string) (*url.URL, error) {
	u, err := url.Parse(req.Params.URI)
	if err != nil || u.Scheme != scheme {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}
	return u, nil
}

func queryLimit(u *url.URL, fallback int) (int, error) {
	raw := strings.TrimSpace(u.Query().Get("limit"))
	if raw == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, errors.New("invalid limit: " + raw)
	}
	return n, nil
}

func jsonResource(uri string, payload any) (*mcp.ReadResourceResult, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{{URI: uri, MIMEType: jsonMIME, Text: string(body)}},
	}, nil
}
