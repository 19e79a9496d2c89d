package tui

import (
	"context"
	"fmt"
	"strings"

	"stock-advisor/internal/domain"
	"stock-advisor/internal/service"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

const explorerNewsLimit = 25

// Explorer message types.
type symbolsMsg []string
type symbolsErrMsg struct{ err error }
type symbolDetailMsg struct {
	symbol  string
	history []domain.Recommendation
	news    []service.ScoredArticle
}
type symbolDetailErrMsg struct{ err error }

// ExplorerModel shows recommendation history and scored news for one symbol at
// a time.
type ExplorerModel struct {
	services     Services
	symbols      []string
	symbolIdx    int
	history      []domain.Recommendation
	news         []service.ScoredArticle
	scrollOffset int
	loading      bool
	err          error
	width        int
	height       int
}

// NewExplorerModel creates a new explorer model.
func NewExplorerModel(svc Services) ExplorerModel {
	return ExplorerModel{
		services: svc,
		loading:  true,
	}
}

// Init fetches the symbol list.
func (m ExplorerModel) Init() tea.Cmd {
	return m.fetchSymbolsCmd()
}

// Update handles incoming messages.
func (m ExplorerModel) Update(msg tea.Msg) (ExplorerModel, tea.Cmd) {
	switch msg := msg.(type) {
	case symbolsMsg:
		m.symbols = []string(msg)
		if m.symbolIdx >= len(m.symbols) {
			m.symbolIdx = 0
		}
		if len(m.symbols) == 0 {
			m.loading = false
			return m, nil
		}
		return m, m.fetchDetailCmd(m.symbols[m.symbolIdx])

	case symbolsErrMsg:
		m.err = msg.err
		m.loading = false
		return m, nil

	case symbolDetailMsg:
		if msg.symbol != m.currentSymbol() {
			return m, nil
		}
		m.history = msg.history
		m.news = msg.news
		m.scrollOffset = 0
		m.loading = false
		m.err = nil
		return m, nil

	case symbolDetailErrMsg:
		m.err = msg.err
		m.loading = false
		return m, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, DefaultKeyMap.NextSymbol):
			return m.selectSymbol(m.symbolIdx + 1)

		case key.Matches(msg, DefaultKeyMap.PrevSymbol):
			return m.selectSymbol(m.symbolIdx - 1)

		case key.Matches(msg, DefaultKeyMap.Refresh):
			m.loading = true
			return m, m.fetchSymbolsCmd()

		case msg.String() == "j" || msg.String() == "down":
			if m.scrollOffset < len(m.news)-m.visibleRows() {
				m.scrollOffset++
			}
			return m, nil

		case msg.String() == "k" || msg.String() == "up":
			if m.scrollOffset > 0 {
				m.scrollOffset--
			}
			return m, nil
		}
	}

	return m, nil
}

// View renders the explorer.
func (m ExplorerModel) View() string {
	var sections []string
	sections = append(sections, HeaderStyle.Render("  Symbol Explorer"))
	sections = append(sections, "")
	sections = append(sections, m.renderSymbolChips())
	sections = append(sections, SubtextStyle.Render(strings.Repeat("─", max(m.width-2, 1))))

	if m.loading {
		sections = append(sections, SubtextStyle.Render("  Loading..."))
		return strings.Join(sections, "\n")
	}
	if m.err != nil {
		sections = append(sections, ErrorStyle.Render(fmt.Sprintf("  Error: %v", m.err)))
		return strings.Join(sections, "\n")
	}
	if len(m.symbols) == 0 {
		sections = append(sections, SubtextStyle.Render("  No analyzed symbols yet"))
		return strings.Join(sections, "\n")
	}

	sections = append(sections, HeaderStyle.Render("  History"))
	for _, r := range m.history {
		sections = append(sections, "  "+FormatRecommendation(r))
	}
	if len(m.history) > 0 {
		sections = append(sections, "  "+RenderScoreBar("latest", m.history[0].Score, 30))
		sections = append(sections, SubtextStyle.Render("  "+m.history[0].Reasoning))
	}

	sections = append(sections, "")
	sections = append(sections, HeaderStyle.Render("  News Sentiment"))
	if len(m.news) == 0 {
		sections = append(sections, SubtextStyle.Render("  No news stored for this symbol"))
	}
	end := m.scrollOffset + m.visibleRows()
	if end > len(m.news) {
		end = len(m.news)
	}
	for i := m.scrollOffset; i < end; i++ {
		sections = append(sections, "  "+FormatArticle(m.news[i], m.width))
	}
	if len(m.news) > m.visibleRows() {
		sections = append(sections, SubtextStyle.Render(
			fmt.Sprintf("  Showing %d-%d of %d (j/k to scroll)", m.scrollOffset+1, end, len(m.news)),
		))
	}

	sections = append(sections, "")
	sections = append(sections, SubtextStyle.Render("  [s/S] symbol  [R] refresh  [j/k] scroll"))

	return strings.Join(sections, "\n")
}

// SetSize updates the model dimensions.
func (m *ExplorerModel) SetSize(w, h int) {
	m.width = w
	m.height = h
}

// SelectedSymbol returns the symbol currently shown (for testing).
func (m ExplorerModel) SelectedSymbol() string { return m.currentSymbol() }

func (m ExplorerModel) currentSymbol() string {
	if m.symbolIdx < 0 || m.symbolIdx >= len(m.symbols) {
		return ""
	}
	return m.symbols[m.symbolIdx]
}

func (m ExplorerModel) selectSymbol(idx int) (ExplorerModel, tea.Cmd) {
	if len(m.symbols) == 0 {
		return m, nil
	}
	n := len(m.symbols)
	m.symbolIdx = ((idx % n) + n) % n
	m.loading = true
	return m, m.fetchDetailCmd(m.symbols[m.symbolIdx])
}

func (m ExplorerModel) renderSymbolChips() string {
	if len(m.symbols) == 0 {
		return SubtextStyle.Render("  Symbol: -")
	}
	parts := []string{SubtextStyle.Render("  Symbol: ")}
	for i, s := range m.symbols {
		if i == m.symbolIdx {
			parts = append(parts, ActiveTabStyle.Render(s))
		} else {
			parts = append(parts, SubtextStyle.Render(s))
		}
		parts = append(parts, " ")
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, parts...)
}

func (m ExplorerModel) fetchSymbolsCmd() tea.Cmd {
	recs := m.services.Recommendations
	return func() tea.Msg {
		if recs == nil {
			return symbolsErrMsg{err: fmt.Errorf("recommendation service not available")}
		}
		symbols, err := recs.Symbols(context.Background())
		if err != nil {
			return symbolsErrMsg{err: err}
		}
		return symbolsMsg(symbols)
	}
}

func (m ExplorerModel) fetchDetailCmd(symbol string) tea.Cmd {
	recs, news := m.services.Recommendations, m.services.News
	return func() tea.Msg {
		ctx := context.Background()
		if recs == nil {
			return symbolDetailErrMsg{err: fmt.Errorf("recommendation service not available")}
		}
		history, err := recs.History(ctx, symbol)
		if err != nil {
			return symbolDetailErrMsg{err: err}
		}
		var articles []service.ScoredArticle
		if news != nil {
			articles, err = news.News(ctx, symbol, explorerNewsLimit)
			if err != nil {
				return symbolDetailErrMsg{err: err}
			}
		}
		return symbolDetailMsg{symbol: symbol, history: history, news: articles}
	}
}

func (m ExplorerModel) visibleRows() int {
	// header, chips, history block and footer
	available := m.height - 14 - len(m.history)
	if available < 5 {
		return 5
	}
	return available
}
