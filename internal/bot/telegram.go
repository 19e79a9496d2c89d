package bot

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"stock-advisor/internal/domain"
	"stock-advisor/internal/service"

	"github.com/charmbracelet/log"
	tele "gopkg.in/telebot.v3"
)

type Analyzer interface {
	Analyze(ctx context.Context, symbol string) (domain.Recommendation, error)
}

type RecommendationQuerier interface {
	Latest(ctx context.Context, symbol string) (*domain.Recommendation, error)
	ListLatest(ctx context.Context, limit int) ([]domain.Recommendation, error)
}

type NewsQuerier interface {
	News(ctx context.Context, symbol string, limit int) ([]service.ScoredArticle, error)
}

const (
	analyzeTimeout  = 2 * time.Minute
	defaultTopLimit = 5
	maxTopLimit     = 20
	newsLimit       = 5
	maxMessageLen   = 4000
)

// StartTelegramBot starts long polling in the background and returns the
// dispatcher used for change alerts. An empty token skips startup.
func StartTelegramBot(token string, analyzer Analyzer, recs RecommendationQuerier, news NewsQuerier) *AlertDispatcher {
	if token == "" {
		log.Info("TELEGRAM_BOT_TOKEN not set, skipping Telegram bot startup")
		return nil
	}
	pref := tele.Settings{
		Token:  token,
		Poller: &tele.LongPoller{Timeout: 10 * time.Second},
	}
	b, err := tele.NewBot(pref)
	if err != nil {
		log.Error("failed to create Telegram bot", "err", err)
		return nil
	}
	alerts := NewAlertDispatcher(b)

	b.Handle("/ping", func(c tele.Context) error {
		return c.Send("pong")
	})

	b.Handle("/analyze", func(c tele.Context) error {
		_ = c.Notify(tele.Typing)
		ctx, cancel := context.WithTimeout(context.Background(), analyzeTimeout)
		defer cancel()
		return c.Send(analyzeReply(ctx, analyzer, c.Args()))
	})

	b.Handle("/rec", func(c tele.Context) error {
		return c.Send(recommendationReply(context.Background(), recs, c.Args()))
	})

	b.Handle("/top", func(c tele.Context) error {
		return c.Send(topReply(context.Background(), recs, c.Args()))
	})

	b.Handle("/news", func(c tele.Context) error {
		return c.Send(newsReply(context.Background(), news, c.Args()))
	})

	b.Handle("/alerts", func(c tele.Context) error {
		chat := c.Chat()
		if chat == nil {
			return c.Send("Unable to detect chat")
		}
		return c.Send(alertsReply(alerts, chat.ID, c.Args()))
	})

	log.Info("Telegram bot started")
	go b.Start()
	return alerts
}

func symbolArg(args []string) (string, bool) {
	if len(args) == 0 {
		return "", false
	}
	symbol := domain.NormalizeSymbol(args[0])
	return symbol, symbol != ""
}

func analyzeReply(ctx context.Context, analyzer Analyzer, args []string) string {
	if analyzer == nil {
		return "Analysis service unavailable"
	}
	symbol, ok := symbolArg(args)
	if !ok {
		return "Usage: /analyze AAPL"
	}

	rec, err := analyzer.Analyze(ctx, symbol)
	if err != nil {
		var persistErr *service.PersistError
		switch {
		case service.IsNotFound(err):
			return fmt.Sprintf("No price or news data for %s.", symbol)
		case errors.As(err, &persistErr):
			log.Warn("telegram analyze: recommendation not stored", "symbol", symbol, "err", err)
			return formatRecommendation(persistErr.Recommendation) + "\n\n(not saved)"
		default:
			log.Error("telegram analyze failed", "symbol", symbol, "err", err)
			return fmt.Sprintf("Error analyzing %s.", symbol)
		}
	}
	return formatRecommendation(rec)
}

func recommendationReply(ctx context.Context, recs RecommendationQuerier, args []string) string {
	if recs == nil {
		return "Recommendation service unavailable"
	}
	symbol, ok := symbolArg(args)
	if !ok {
		return "Usage: /rec AAPL"
	}

	rec, err := recs.Latest(ctx, symbol)
	if err != nil {
		log.Error("telegram rec failed", "symbol", symbol, "err", err)
		return fmt.Sprintf("Error fetching recommendation for %s.", symbol)
	}
	if rec == nil {
		return fmt.Sprintf("No recommendation for %s yet. Try /analyze %s", symbol, symbol)
	}
	return formatRecommendation(*rec)
}

func topReply(ctx context.Context, recs RecommendationQuerier, args []string) string {
	if recs == nil {
		return "Recommendation service unavailable"
	}
	limit, err := parseLimit(args)
	if err != nil {
		return fmt.Sprintf("Usage: /top [1-%d]", maxTopLimit)
	}

	list, err := recs.ListLatest(ctx, limit)
	if err != nil {
		log.Error("telegram top failed", "err", err)
		return "Error fetching recommendations."
	}
	if len(list) == 0 {
		return "No recommendations yet."
	}

	lines := make([]string, 0, len(list)+1)
	lines = append(lines, "Latest recommendations:")
	for _, rec := range list {
		lines = append(lines, formatRecommendationLine(rec))
	}
	return strings.Join(lines, "\n")
}

func newsReply(ctx context.Context, news NewsQuerier, args []string) string {
	if news == nil {
		return "News service unavailable"
	}
	symbol, ok := symbolArg(args)
	if !ok {
		return "Usage: /news AAPL"
	}

	articles, err := news.News(ctx, symbol, newsLimit)
	if err != nil {
		log.Error("telegram news failed", "symbol", symbol, "err", err)
		return fmt.Sprintf("Error fetching news for %s.", symbol)
	}
	if len(articles) == 0 {
		return fmt.Sprintf("No news for %s.", symbol)
	}

	lines := make([]string, 0, len(articles)+1)
	lines = append(lines, fmt.Sprintf("%s news sentiment:", symbol))
	for _, a := range articles {
		lines = append(lines, fmt.Sprintf("%+.2f %s  %s", a.SentimentScore, a.Category, a.Title))
	}
	return truncate(strings.Join(lines, "\n"))
}

func alertsReply(alerts *AlertDispatcher, chatID int64, args []string) string {
	mode, symbols, err := parseAlertMode(args)
	if err != nil {
		return "Usage: /alerts on [SYMBOL...] | /alerts off | /alerts status"
	}

	switch mode {
	case "on":
		if !alerts.Subscribe(chatID, symbols...) {
			return "Recommendation change alerts are already enabled for this chat."
		}
		if watched := alerts.Watchlist(chatID); len(watched) > 0 {
			return "Recommendation change alerts enabled for " + strings.Join(watched, ", ") + "."
		}
		return "Recommendation change alerts enabled for this chat."
	case "off":
		if alerts.Unsubscribe(chatID) {
			return "Recommendation change alerts disabled for this chat."
		}
		return "Recommendation change alerts are already disabled for this chat."
	default:
		if !alerts.IsSubscribed(chatID) {
			return "Alerts status: OFF"
		}
		if watched := alerts.Watchlist(chatID); len(watched) > 0 {
			return "Alerts status: ON (" + strings.Join(watched, ", ") + ")"
		}
		return "Alerts status: ON (all symbols)"
	}
}

func parseLimit(args []string) (int, error) {
	if len(args) == 0 {
		return defaultTopLimit, nil
	}
	n, err := strconv.Atoi(strings.TrimSpace(args[0]))
	if err != nil {
		return 0, err
	}
	if n < 1 || n > maxTopLimit {
		return 0, errors.New("limit out of range")
	}
	return n, nil
}

func formatRecommendation(rec domain.Recommendation) string {
	ma := "n/a"
	if rec.MovingAverage != nil {
		ma = fmt.Sprintf("$%.2f", *rec.MovingAverage)
	}
	msg := fmt.Sprintf(
		"%s: %s (score %+.3f)\nClose: $%.2f  MA7: %s\n\n%s",
		rec.Symbol, rec.Action, rec.Score, rec.ClosePrice, ma, rec.Reasoning,
	)
	return truncate(msg)
}

func formatRecommendationLine(rec domain.Recommendation) string {
	return fmt.Sprintf("%s %s %+.3f (%s)", rec.Symbol, strings.ToUpper(string(rec.Action)), rec.Score, rec.CreatedAt.UTC().Format(time.RFC822))
}

func truncate(msg string) string {
	if len(msg) > maxMessageLen {
		return msg[:maxMessageLen] + "\n\n[truncated]"
	}
	return msg
}
