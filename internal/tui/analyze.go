package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"stock-advisor/internal/domain"
	"stock-advisor/internal/service"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

const analyzeTimeout = 2 * time.Minute

// Analyze message types.
type analysisResultMsg struct {
	rec   domain.Recommendation
	saved bool
}
type analysisErrMsg struct {
	symbol string
	err    error
}

type analysisEntry struct {
	Symbol string
	Result *domain.Recommendation
	Saved  bool
	Err    error
	Time   time.Time
}

// AnalyzeModel lets the user type a ticker and run a fresh analysis.
type AnalyzeModel struct {
	services Services
	entries  []analysisEntry
	input    textinput.Model
	viewport viewport.Model
	spinner  spinner.Model
	pending  string
	width    int
	height   int
	ready    bool
}

// NewAnalyzeModel creates a new analyze model.
func NewAnalyzeModel(svc Services) AnalyzeModel {
	ti := textinput.New()
	ti.Placeholder = "Ticker to analyze, e.g. AAPL"
	ti.CharLimit = 16
	ti.Width = 30

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(SpinnerColor)

	return AnalyzeModel{
		services: svc,
		input:    ti,
		spinner:  sp,
	}
}

// Init initializes the analyze model.
func (m AnalyzeModel) Init() tea.Cmd {
	return textinput.Blink
}

// Update handles incoming messages.
func (m AnalyzeModel) Update(msg tea.Msg) (AnalyzeModel, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case analysisResultMsg:
		rec := msg.rec
		m.entries = append(m.entries, analysisEntry{Symbol: rec.Symbol, Result: &rec, Saved: msg.saved, Time: time.Now()})
		m.pending = ""
		m.refreshViewport()
		return m, nil

	case analysisErrMsg:
		m.entries = append(m.entries, analysisEntry{Symbol: msg.symbol, Err: msg.err, Time: time.Now()})
		m.pending = ""
		m.refreshViewport()
		return m, nil

	case tea.KeyMsg:
		if msg.Type == tea.KeyEnter && m.pending == "" {
			symbol := domain.NormalizeSymbol(m.input.Value())
			if symbol != "" {
				m.input.SetValue("")
				m.pending = symbol
				m.refreshViewport()
				return m, tea.Batch(
					m.analyzeCmd(symbol),
					m.spinner.Tick,
				)
			}
		}

	case spinner.TickMsg:
		if m.pending != "" {
			var cmd tea.Cmd
			m.spinner, cmd = m.spinner.Update(msg)
			cmds = append(cmds, cmd)
		}
	}

	if m.pending == "" {
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		cmds = append(cmds, cmd)
	}

	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	cmds = append(cmds, cmd)

	return m, tea.Batch(cmds...)
}

// View renders the analyze screen.
func (m AnalyzeModel) View() string {
	if m.services.Analyzer == nil {
		return lipgloss.JoinVertical(lipgloss.Left,
			"",
			HeaderStyle.Render("  Analyze a Stock"),
			"",
			SubtextStyle.Render("  Analysis not available. Set DATABASE_URL to enable."),
		)
	}

	rule := SubtextStyle.Render(strings.Repeat("─", max(m.width-2, 1)))
	var sections []string
	sections = append(sections, HeaderStyle.Render("  Analyze a Stock"))
	sections = append(sections, rule)

	if !m.ready {
		m.initViewport()
	}
	sections = append(sections, m.viewport.View())
	sections = append(sections, rule)

	if m.pending != "" {
		sections = append(sections, fmt.Sprintf("  %s Scoring news for %s...", m.spinner.View(), m.pending))
	} else {
		sections = append(sections, "  "+m.input.View())
	}

	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

// SetSize updates the model dimensions.
func (m *AnalyzeModel) SetSize(w, h int) {
	m.width = w
	m.height = h
	m.input.Width = w - 6
	m.ready = false
}

// Focus gives focus to the text input.
func (m *AnalyzeModel) Focus() {
	m.input.Focus()
}

// Blur removes focus from the text input.
func (m *AnalyzeModel) Blur() {
	m.input.Blur()
}

// Pending returns the symbol being analyzed, if any (for testing).
func (m AnalyzeModel) Pending() string { return m.pending }

// EntryCount returns the number of finished analyses (for testing).
func (m AnalyzeModel) EntryCount() int { return len(m.entries) }

func (m *AnalyzeModel) initViewport() {
	vpHeight := m.height - 6
	if vpHeight < 3 {
		vpHeight = 3
	}
	vpWidth := m.width - 2
	if vpWidth < 10 {
		vpWidth = 10
	}
	m.viewport = viewport.New(vpWidth, vpHeight)
	m.viewport.SetContent(m.renderEntries())
	m.ready = true
}

func (m *AnalyzeModel) refreshViewport() {
	m.viewport.SetContent(m.renderEntries())
	m.viewport.GotoBottom()
}

func (m AnalyzeModel) renderEntries() string {
	if len(m.entries) == 0 {
		return SubtextStyle.Render("  Type a ticker below and press enter.")
	}

	var lines []string
	for _, e := range m.entries {
		timestamp := SubtextStyle.Render(e.Time.Format("15:04"))
		lines = append(lines, fmt.Sprintf("  %s  %s", timestamp, PromptStyle.Render(e.Symbol)))
		if e.Err != nil {
			lines = append(lines, "         "+ErrorStyle.Render(describeAnalysisError(e.Err)))
			lines = append(lines, "")
			continue
		}
		lines = append(lines, "         "+FormatRecommendation(*e.Result))
		if !e.Saved {
			lines = append(lines, "         "+ErrorStyle.Render("computed but not saved"))
		}
		for _, line := range strings.Split(e.Result.Reasoning, "\n") {
			lines = append(lines, "         "+ResultStyle.Render(line))
		}
		lines = append(lines, "")
	}
	return strings.Join(lines, "\n")
}

func describeAnalysisError(err error) string {
	if service.IsNotFound(err) {
		return "No price or news data for this symbol."
	}
	return fmt.Sprintf("Error: %v", err)
}

func (m AnalyzeModel) analyzeCmd(symbol string) tea.Cmd {
	analyzer := m.services.Analyzer
	return func() tea.Msg {
		if analyzer == nil {
			return analysisErrMsg{symbol: symbol, err: fmt.Errorf("analysis not available")}
		}
		ctx, cancel := context.WithTimeout(context.Background(), analyzeTimeout)
		defer cancel()

		rec, err := analyzer.Analyze(ctx, symbol)
		if err != nil {
			var persistErr *service.PersistError
			if errors.As(err, &persistErr) {
				return analysisResultMsg{rec: persistErr.Recommendation, saved: false}
			}
			return analysisErrMsg{symbol: symbol, err: err}
		}
		return analysisResultMsg{rec: rec, saved: true}
	}
}
