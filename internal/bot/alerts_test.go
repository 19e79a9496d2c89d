package bot

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"stock-advisor/internal/domain"

	tele "gopkg.in/telebot.v3"
)

type fakeSender struct {
	messages map[int64][]string
	failFor  map[int64]bool
}

func (f *fakeSender) Send(to tele.Recipient, what interface{}, _ ...interface{}) (*tele.Message, error) {
	if f.messages == nil {
		f.messages = make(map[int64][]string)
	}
	chat, ok := to.(*tele.Chat)
	if !ok {
		return nil, fmt.Errorf("unexpected recipient type %T", to)
	}
	if f.failFor[chat.ID] {
		return nil, errors.New("bot was blocked by the user")
	}
	f.messages[chat.ID] = append(f.messages[chat.ID], fmt.Sprint(what))
	return &tele.Message{}, nil
}

func flip(symbol string, from, to domain.Action, score float64) domain.RecommendationChange {
	return domain.RecommendationChange{
		Previous: from,
		Current:  domain.Recommendation{Symbol: symbol, Action: to, Score: score},
	}
}

func TestParseAlertMode(t *testing.T) {
	cases := []struct {
		args    []string
		mode    string
		symbols []string
		wantErr bool
	}{
		{args: nil, mode: "status"},
		{args: []string{"on"}, mode: "on", symbols: []string{}},
		{args: []string{"ON", "aapl", "msft"}, mode: "on", symbols: []string{"aapl", "msft"}},
		{args: []string{"Off"}, mode: "off"},
		{args: []string{"off", "aapl"}, wantErr: true},
		{args: []string{"nope"}, wantErr: true},
	}
	for _, tc := range cases {
		mode, symbols, err := parseAlertMode(tc.args)
		if tc.wantErr {
			if err == nil {
				t.Fatalf("%v: expected error", tc.args)
			}
			continue
		}
		if err != nil || mode != tc.mode || strings.Join(symbols, ",") != strings.Join(tc.symbols, ",") {
			t.Fatalf("%v: got mode=%q symbols=%v err=%v", tc.args, mode, symbols, err)
		}
	}
}

func TestAlertDispatcherBroadcastsToAllSymbolSubscribers(t *testing.T) {
	sender := &fakeSender{}
	d := NewAlertDispatcher(sender)

	if !d.Subscribe(10) || !d.Subscribe(20) {
		t.Fatal("expected initial subscribes to change state")
	}
	if d.Subscribe(10) {
		t.Fatal("expected duplicate subscribe to be a no-op")
	}

	if err := d.NotifyChanges(context.Background(), []domain.RecommendationChange{
		flip("AAPL", domain.ActionHold, domain.ActionBuy, 0.41),
	}); err != nil {
		t.Fatalf("unexpected notify error: %v", err)
	}
	if len(sender.messages[10]) != 1 || len(sender.messages[20]) != 1 {
		t.Fatalf("expected one message per subscriber, got %+v", sender.messages)
	}
	if !strings.Contains(sender.messages[10][0], "AAPL Hold -> Buy (score +0.410)") {
		t.Fatalf("unexpected alert body: %s", sender.messages[10][0])
	}
}

func TestAlertDispatcherFiltersByWatchlist(t *testing.T) {
	sender := &fakeSender{}
	d := NewAlertDispatcher(sender)
	d.Subscribe(10, "aapl", " msft ")
	d.Subscribe(20, "TSLA")

	if got := d.Watchlist(10); strings.Join(got, ",") != "AAPL,MSFT" {
		t.Fatalf("unexpected watchlist %v", got)
	}

	err := d.NotifyChanges(context.Background(), []domain.RecommendationChange{
		flip("AAPL", domain.ActionHold, domain.ActionBuy, 0.3),
		flip("NVDA", domain.ActionBuy, domain.ActionSell, -0.4),
	})
	if err != nil {
		t.Fatalf("unexpected notify error: %v", err)
	}
	if len(sender.messages[10]) != 1 || strings.Contains(sender.messages[10][0], "NVDA") {
		t.Fatalf("chat 10 should only see AAPL, got %+v", sender.messages[10])
	}
	if len(sender.messages[20]) != 0 {
		t.Fatalf("chat 20 follows TSLA only, got %+v", sender.messages[20])
	}
}

func TestAlertDispatcherResubscribeReplacesWatchlist(t *testing.T) {
	d := NewAlertDispatcher(&fakeSender{})
	d.Subscribe(10, "AAPL")
	if !d.Subscribe(10) {
		t.Fatal("widening to all symbols should count as a change")
	}
	if d.Watchlist(10) != nil {
		t.Fatalf("expected all-symbols watchlist, got %v", d.Watchlist(10))
	}
}

func TestAlertDispatcherUnsubscribe(t *testing.T) {
	sender := &fakeSender{}
	d := NewAlertDispatcher(sender)

	d.Subscribe(10)
	if !d.Unsubscribe(10) {
		t.Fatal("expected unsubscribe to return true")
	}
	if d.Unsubscribe(10) {
		t.Fatal("expected second unsubscribe to return false")
	}
	if d.SubscriberCount() != 0 {
		t.Fatalf("expected no subscribers, got %d", d.SubscriberCount())
	}

	if err := d.NotifyChanges(context.Background(), []domain.RecommendationChange{
		flip("MSFT", domain.ActionBuy, domain.ActionSell, -0.3),
	}); err != nil {
		t.Fatalf("unexpected notify error: %v", err)
	}
	if len(sender.messages) != 0 {
		t.Fatalf("expected zero outgoing messages, got %+v", sender.messages)
	}
}

func TestAlertDispatcherReportsSendFailures(t *testing.T) {
	sender := &fakeSender{failFor: map[int64]bool{20: true}}
	d := NewAlertDispatcher(sender)
	d.Subscribe(10)
	d.Subscribe(20)

	err := d.NotifyChanges(context.Background(), []domain.RecommendationChange{
		flip("TSLA", domain.ActionBuy, domain.ActionHold, 0.1),
	})
	if err == nil || !strings.Contains(err.Error(), "chat 20") {
		t.Fatalf("expected failure for chat 20, got %v", err)
	}
	if len(sender.messages[10]) != 1 {
		t.Fatalf("expected chat 10 to still receive the alert, got %+v", sender.messages)
	}
}

func TestAlertDispatcherStopsOnCanceledContext(t *testing.T) {
	sender := &fakeSender{}
	d := NewAlertDispatcher(sender)
	d.Subscribe(10)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := d.NotifyChanges(ctx, []domain.RecommendationChange{flip("AAPL", domain.ActionHold, domain.ActionBuy, 0.5)})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if len(sender.messages) != 0 {
		t.Fatalf("expected nothing sent, got %+v", sender.messages)
	}
}

func TestNilAlertDispatcherIsNoop(t *testing.T) {
	var d *AlertDispatcher
	if err := d.NotifyChanges(context.Background(), []domain.RecommendationChange{{}}); err != nil {
		t.Fatalf("expected nil dispatcher to be a no-op, got %v", err)
	}
}

func TestAlertsReply(t *testing.T) {
	d := NewAlertDispatcher(&fakeSender{})

	steps := []struct {
		args []string
		want string
	}{
		{nil, "Alerts status: OFF"},
		{[]string{"on"}, "Recommendation change alerts enabled for this chat."},
		{[]string{"on"}, "Recommendation change alerts are already enabled for this chat."},
		{[]string{"status"}, "Alerts status: ON (all symbols)"},
		{[]string{"on", "msft", "aapl"}, "Recommendation change alerts enabled for AAPL, MSFT."},
		{[]string{"status"}, "Alerts status: ON (AAPL, MSFT)"},
		{[]string{"off"}, "Recommendation change alerts disabled for this chat."},
		{[]string{"off"}, "Recommendation change alerts are already disabled for this chat."},
		{[]string{"maybe"}, "Usage: /alerts on [SYMBOL...] | /alerts off | /alerts status"},
	}
	for _, step := range steps {
		if got := alertsReply(d, 42, step.args); got != step.want {
			t.Fatalf("%v: got %q, want %q", step.args, got, step.want)
		}
	}
}
