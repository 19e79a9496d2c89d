package tui

import (
	"errors"
	"strings"
	"testing"

	"stock-advisor/internal/domain"
	"stock-advisor/internal/service"

	tea "github.com/charmbracelet/bubbletea"
)

func TestAnalyzeEnterStartsAnalysis(t *testing.T) {
	m := NewAnalyzeModel(testServices())
	m.SetSize(120, 40)
	m.Focus()
	m.input.SetValue(" aapl ")

	updated, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	if updated.Pending() != "AAPL" {
		t.Fatalf("expected pending AAPL, got %q", updated.Pending())
	}
	if cmd == nil {
		t.Fatal("expected analysis command")
	}
	if updated.input.Value() != "" {
		t.Fatal("expected input to clear")
	}
}

func TestAnalyzeEnterIgnoresBlankInput(t *testing.T) {
	m := NewAnalyzeModel(testServices())
	m.SetSize(120, 40)
	m.input.SetValue("   ")

	updated, _ := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	if updated.Pending() != "" {
		t.Fatalf("expected no pending analysis, got %q", updated.Pending())
	}
}

func TestAnalyzeCommandResults(t *testing.T) {
	m := NewAnalyzeModel(testServices())
	msg := m.analyzeCmd("AAPL")()
	res, ok := msg.(analysisResultMsg)
	if !ok || !res.saved || res.rec.Symbol != "AAPL" {
		t.Fatalf("unexpected result message %#v", msg)
	}

	rec := sampleRecommendation("MSFT", domain.ActionSell, -0.3)
	svc := testServices()
	svc.Analyzer = &stubAnalyzer{rec: rec, err: &service.PersistError{Recommendation: rec, Err: errors.New("db down")}}
	m = NewAnalyzeModel(svc)
	res, ok = m.analyzeCmd("MSFT")().(analysisResultMsg)
	if !ok || res.saved {
		t.Fatalf("expected unsaved result, got %#v", res)
	}

	svc.Analyzer = &stubAnalyzer{err: domain.ErrNoNewsData}
	m = NewAnalyzeModel(svc)
	if _, ok := m.analyzeCmd("ZZZ")().(analysisErrMsg); !ok {
		t.Fatal("expected error message")
	}
}

func TestAnalyzeRendersEntries(t *testing.T) {
	m := NewAnalyzeModel(testServices())
	m.SetSize(120, 40)

	m, _ = m.Update(analysisResultMsg{rec: sampleRecommendation("AAPL", domain.ActionBuy, 0.3), saved: false})
	m, _ = m.Update(analysisErrMsg{symbol: "ZZZ", err: domain.ErrNoPriceData})
	if m.EntryCount() != 2 {
		t.Fatalf("expected 2 entries, got %d", m.EntryCount())
	}

	out := m.renderEntries()
	for _, want := range []string{"AAPL", "computed but not saved", "Positive news sentiment.", "No price or news data"} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %q in entries, got %q", want, out)
		}
	}
}

func TestAnalyzeViewWithoutAnalyzer(t *testing.T) {
	m := NewAnalyzeModel(Services{})
	m.SetSize(80, 20)
	if !strings.Contains(m.View(), "Analysis not available") {
		t.Fatal("expected unavailable notice")
	}
}
