package mcp

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const (
	serverName    = "stock-advisor-mcp"
	serverVersion = "1.0.0"

	// analysis calls the LLM once per article
	defaultRequestTimeout = 60 * time.Second
)

type ServerConfig struct {
	RequestTimeout time.Duration
}

func NewServer(tracer trace.Tracer, analyzer Analyzer, recs RecommendationReader, news NewsReader, cfg ServerConfig) *sdkmcp.Server {
	requestTimeout := cfg.RequestTimeout
	if requestTimeout <= 0 {
		requestTimeout = defaultRequestTimeout
	}

	srv := sdkmcp.NewServer(&sdkmcp.Implementation{
		Name:    serverName,
		Version: serverVersion,
	}, &sdkmcp.ServerOptions{
		Instructions: "Use these tools/resources to analyze stocks from news sentiment and price trend, and to read stored Buy/Hold/Sell recommendations.",
		Logger:       slog.New(log.Default()),
	})

	srv.AddReceivingMiddleware(timeoutMiddleware(requestTimeout))
	if tracer != nil {
		srv.AddReceivingMiddleware(tracingMiddleware(tracer))
	}

	registerTools(srv, analyzer, recs, news)
	registerResources(srv, recs, news)
	return srv
}

func NewHTTPTransportHandler(server *sdkmcp.Server, cfg HTTPHandlerConfig) http.Handler {
	base := sdkmcp.NewStreamableHTTPHandler(func(*http.Request) *sdkmcp.Server {
		return server
	}, &sdkmcp.StreamableHTTPOptions{})
	return wrapHTTPHandler(base, cfg)
}

func timeoutMiddleware(timeout time.Duration) sdkmcp.Middleware {
	return func(next sdkmcp.MethodHandler) sdkmcp.MethodHandler {
		return func(ctx context.Context, method string, req sdkmcp.Request) (sdkmcp.Result, error) {
			if timeout <= 0 {
				return next(ctx, method, req)
			}
			timeoutCtx, cancel := context.WithTimeout(ctx, timeout)
			defer cancel()
			return next(timeoutCtx, method, req)
		}
	}
}

func tracingMiddleware(tracer trace.Tracer) sdkmcp.Middleware {
	return func(next sdkmcp.MethodHandler) sdkmcp.MethodHandler {
		return func(ctx context.Context, method string, req sdkmcp.Request) (sdkmcp.Result, error) {
			attrs := []attribute.KeyValue{attribute.String("mcp.method", method)}
			name := "mcp." + strings.ReplaceAll(method, "/", ".")

			switch r := req.(type) {
			case *sdkmcp.CallToolRequest:
				tool := strings.TrimSpace(r.Params.Name)
				attrs = append(attrs, attribute.String("mcp.tool", tool))
				name = "mcp.tool.call"
				if tool != "" {
					name = "mcp.tool." + tool
				}
			case *sdkmcp.ReadResourceRequest:
				attrs = append(attrs, attribute.String("mcp.resource.uri", strings.TrimSpace(r.Params.URI)))
				name = "mcp.resource.read"
			}

			ctx, span := tracer.Start(ctx, name, trace.WithAttributes(attrs...))
			defer span.End()

			result, err := next(ctx, method, req)
			if err != nil {
				span.RecordError(err)
				span.SetStatus(codes.Error, err.Error())
				log.Warn("mcp request failed", "method", method, "err", err)
			}
			return result, err
		}
	}
}
