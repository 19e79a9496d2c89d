package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"stock-advisor/internal/domain"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

const dashboardLimit = 50

// Dashboard message types.
type recommendationsMsg []domain.Recommendation
type recommendationsErrMsg struct{ err error }
type dashTickMsg time.Time

// DashboardModel is the Bubble Tea model for the latest-recommendations screen.
type DashboardModel struct {
	services        Services
	recommendations []domain.Recommendation
	loading         bool
	err             error
	width           int
	height          int
}

// NewDashboardModel creates a new dashboard model.
func NewDashboardModel(svc Services) DashboardModel {
	return DashboardModel{
		services: svc,
		loading:  true,
	}
}

// Init fires the initial fetch and starts the refresh ticker.
func (m DashboardModel) Init() tea.Cmd {
	return tea.Batch(
		m.fetchRecommendationsCmd(),
		m.tickCmd(),
	)
}

// Update handles incoming messages.
func (m DashboardModel) Update(msg tea.Msg) (DashboardModel, tea.Cmd) {
	switch msg := msg.(type) {
	case recommendationsMsg:
		m.recommendations = []domain.Recommendation(msg)
		m.loading = false
		m.err = nil
		return m, nil

	case recommendationsErrMsg:
		m.err = msg.err
		m.loading = false
		return m, nil

	case dashTickMsg:
		return m, tea.Batch(
			m.fetchRecommendationsCmd(),
			m.tickCmd(),
		)

	case tea.KeyMsg:
		if msg.String() == "R" {
			m.loading = true
			return m, m.fetchRecommendationsCmd()
		}
	}

	return m, nil
}

// View renders the dashboard.
func (m DashboardModel) View() string {
	if m.loading && len(m.recommendations) == 0 {
		return SubtextStyle.Render("Loading recommendations...")
	}
	if m.err != nil && len(m.recommendations) == 0 {
		return ErrorStyle.Render(fmt.Sprintf("Error: %v", m.err))
	}

	tableWidth := m.width*2/3 - 2
	if tableWidth < 60 {
		tableWidth = 60
	}
	mapWidth := m.width - tableWidth - 4
	if mapWidth < 15 {
		mapWidth = 15
	}

	tableBox := BorderStyle.Width(tableWidth).Render(m.renderTable())
	mapBox := BorderStyle.Width(mapWidth).Render(m.renderSentimentMapSection(mapWidth))

	return lipgloss.JoinHorizontal(lipgloss.Top, tableBox, mapBox)
}

// SetSize updates the model dimensions.
func (m *DashboardModel) SetSize(w, h int) {
	m.width = w
	m.height = h
}

// Recommendations returns the loaded recommendations (for testing).
func (m DashboardModel) Recommendations() []domain.Recommendation { return m.recommendations }

func (m DashboardModel) renderTable() string {
	var lines []string
	lines = append(lines, HeaderStyle.Render("  Latest Recommendations"))
	lines = append(lines, SubtextStyle.Render("  Symbol Act   Score       Close      MA7  Created"))
	lines = append(lines, SubtextStyle.Render("  "+strings.Repeat("─", 60)))

	for _, r := range m.recommendations {
		lines = append(lines, "  "+FormatRecommendation(r))
	}

	if len(m.recommendations) == 0 {
		lines = append(lines, SubtextStyle.Render("  No recommendations yet. Run an analysis from the Analyze tab."))
	}

	return strings.Join(lines, "\n")
}

func (m DashboardModel) renderSentimentMapSection(width int) string {
	header := HeaderStyle.Render("  Score Map")
	return header + "\n" + RenderSentimentMap(m.recommendations, width-2)
}

func (m DashboardModel) fetchRecommendationsCmd() tea.Cmd {
	return func() tea.Msg {
		if m.services.Recommendations == nil {
			return recommendationsErrMsg{err: fmt.Errorf("recommendation service not available")}
		}
		recs, err := m.services.Recommendations.ListLatest(context.Background(), dashboardLimit)
		if err != nil {
			return recommendationsErrMsg{err: err}
		}
		return recommendationsMsg(recs)
	}
}

func (m DashboardModel) tickCmd() tea.Cmd {
	return tea.Tick(10*time.Second, func(t time.Time) tea.Msg {
		return dashTickMsg(t)
	})
}
