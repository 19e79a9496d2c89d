package bot

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sort"
	"strings"
	"sync"

	"stock-advisor/internal/domain"

	"github.com/charmbracelet/log"
	tele "gopkg.in/telebot.v3"
)

type messageSender interface {
	Send(to tele.Recipient, what interface{}, opts ...interface{}) (*tele.Message, error)
}

// watchlist is the set of symbols a chat follows. Empty means every symbol.
type watchlist map[string]struct{}

func (w watchlist) matches(symbol string) bool {
	if len(w) == 0 {
		return true
	}
	_, ok := w[symbol]
	return ok
}

func (w watchlist) symbols() []string {
	out := make([]string, 0, len(w))
	for s := range w {
		out = append(out, s)
	}
	sort.Strings(out)
	return out
}

// AlertDispatcher tells subscribed chats when a refreshed recommendation
// flips its action.
type AlertDispatcher struct {
	sender messageSender

	mu    sync.RWMutex
	chats map[int64]watchlist
}

func NewAlertDispatcher(sender messageSender) *AlertDispatcher {
	return &AlertDispatcher{
		sender: sender,
		chats:  make(map[int64]watchlist),
	}
}

// Subscribe enables alerts for chatID, limited to symbols when any are given.
// It reports whether the subscription changed.
func (d *AlertDispatcher) Subscribe(chatID int64, symbols ...string) bool {
	want := make(watchlist, len(symbols))
	for _, s := range symbols {
		if s = domain.NormalizeSymbol(s); s != "" {
			want[s] = struct{}{}
		}
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	if have, ok := d.chats[chatID]; ok && slices.Equal(have.symbols(), want.symbols()) {
		return false
	}
	d.chats[chatID] = want
	return true
}

func (d *AlertDispatcher) Unsubscribe(chatID int64) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	if _, ok := d.chats[chatID]; !ok {
		return false
	}
	delete(d.chats, chatID)
	return true
}

func (d *AlertDispatcher) IsSubscribed(chatID int64) bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	_, ok := d.chats[chatID]
	return ok
}

// Watchlist returns the symbols chatID follows; nil means all of them.
func (d *AlertDispatcher) Watchlist(chatID int64) []string {
	d.mu.RLock()
	defer d.mu.RUnlock()
	w, ok := d.chats[chatID]
	if !ok || len(w) == 0 {
		return nil
	}
	return w.symbols()
}

func (d *AlertDispatcher) SubscriberCount() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.chats)
}

// NotifyChanges sends each chat the flips on its watchlist. Send failures do
// not stop delivery to the remaining chats.
func (d *AlertDispatcher) NotifyChanges(ctx context.Context, changes []domain.RecommendationChange) error {
	if d == nil || d.sender == nil || len(changes) == 0 {
		return nil
	}

	var errs []error
	for chatID, w := range d.snapshot() {
		if err := ctx.Err(); err != nil {
			return errors.Join(append(errs, err)...)
		}
		relevant := filterChanges(changes, w)
		if len(relevant) == 0 {
			continue
		}
		if _, err := d.sender.Send(&tele.Chat{ID: chatID}, formatAlertMessage(relevant)); err != nil {
			log.Warn("alert delivery failed", "chat", chatID, "err", err)
			errs = append(errs, fmt.Errorf("chat %d: %w", chatID, err))
		}
	}
	return errors.Join(errs...)
}

func (d *AlertDispatcher) snapshot() map[int64]watchlist {
	d.mu.RLock()
	defer d.mu.RUnlock()

	out := make(map[int64]watchlist, len(d.chats))
	for id, w := range d.chats {
		out[id] = w
	}
	return out
}

func filterChanges(changes []domain.RecommendationChange, w watchlist) []domain.RecommendationChange {
	out := make([]domain.RecommendationChange, 0, len(changes))
	for _, c := range changes {
		if w.matches(c.Current.Symbol) {
			out = append(out, c)
		}
	}
	return out
}

// parseAlertMode reads "/alerts [on|off|status] [SYMBOL...]".
func parseAlertMode(args []string) (string, []string, error) {
	if len(args) == 0 {
		return "status", nil, nil
	}

	mode := strings.ToLower(strings.TrimSpace(args[0]))
	switch mode {
	case "on":
		return mode, args[1:], nil
	case "off", "status":
		if len(args) > 1 {
			return "", nil, fmt.Errorf("%s takes no symbols", mode)
		}
		return mode, nil, nil
	default:
		return "", nil, fmt.Errorf("invalid mode %q", args[0])
	}
}

func formatAlertMessage(changes []domain.RecommendationChange) string {
	lines := make([]string, 0, len(changes)+1)
	lines = append(lines, "Recommendation changes:")
	for _, c := range changes {
		lines = append(lines, fmt.Sprintf(
			"%s %s -> %s (score %+.3f)",
			c.Current.Symbol, c.Previous, c.Current.Action, c.Current.Score,
		))
	}
	return strings.Join(lines, "\n")
}
