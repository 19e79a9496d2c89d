package tui

import (
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// Tab identifies one of the dashboard screens.
type Tab int

const (
	TabDashboard Tab = iota
	TabAnalyze
	TabExplorer
	tabCount
)

func (t Tab) String() string {
	switch t {
	case TabDashboard:
		return "1:Dashboard"
	case TabAnalyze:
		return "2:Analyze"
	case TabExplorer:
		return "3:Explorer"
	}
	return "?"
}

const tabBarHeight = 2

// AppModel owns the three screens and decides which one sees each message.
type AppModel struct {
	services  Services
	activeTab Tab
	dashboard DashboardModel
	analyze   AnalyzeModel
	explorer  ExplorerModel
	width     int
	height    int
	quitting  bool
}

func NewAppModel(svc Services) AppModel {
	return AppModel{
		services:  svc,
		activeTab: TabDashboard,
		dashboard: NewDashboardModel(svc),
		analyze:   NewAnalyzeModel(svc),
		explorer:  NewExplorerModel(svc),
	}
}

func (m AppModel) Init() tea.Cmd {
	return tea.Batch(m.dashboard.Init(), m.analyze.Init(), m.explorer.Init())
}

func (m AppModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.SetSize(msg.Width, msg.Height)
		return m, nil
	case tea.KeyMsg:
		if cmd, handled := m.handleKey(msg); handled {
			return m, cmd
		}
	}

	// Async results go to their owning screen whatever tab is showing.
	switch msg.(type) {
	case recommendationsMsg, recommendationsErrMsg, dashTickMsg:
		return m, m.updateTab(TabDashboard, msg)
	case symbolsMsg, symbolsErrMsg, symbolDetailMsg, symbolDetailErrMsg:
		return m, m.updateTab(TabExplorer, msg)
	case analysisResultMsg, analysisErrMsg:
		// a finished analysis changes the latest list
		return m, tea.Batch(m.updateTab(TabAnalyze, msg), m.dashboard.fetchRecommendationsCmd())
	}
	return m, m.updateTab(m.activeTab, msg)
}

// handleKey applies the global bindings. While the analyze input has focus
// only tab navigation, ctrl+c and the jump digits escape it.
func (m *AppModel) handleKey(msg tea.KeyMsg) (tea.Cmd, bool) {
	typing := m.activeTab == TabAnalyze
	if typing && !m.escapesInput(msg) {
		return nil, false
	}

	km := DefaultKeyMap
	switch {
	case key.Matches(msg, km.Quit):
		if typing && msg.String() == "q" {
			return nil, false
		}
		m.quitting = true
		return tea.Quit, true
	case key.Matches(msg, km.Tab):
		m.switchTab((m.activeTab + 1) % tabCount)
		return nil, true
	case key.Matches(msg, km.ShiftTab):
		m.switchTab((m.activeTab + tabCount - 1) % tabCount)
		return nil, true
	}
	for i, b := range km.Jump {
		if key.Matches(msg, b) {
			m.switchTab(Tab(i))
			return nil, true
		}
	}
	return nil, false
}

func (m AppModel) escapesInput(msg tea.KeyMsg) bool {
	if msg.Type == tea.KeyTab || msg.Type == tea.KeyShiftTab || msg.String() == "ctrl+c" {
		return true
	}
	for _, b := range DefaultKeyMap.Jump {
		if key.Matches(msg, b) {
			return true
		}
	}
	return false
}

func (m *AppModel) updateTab(tab Tab, msg tea.Msg) tea.Cmd {
	var cmd tea.Cmd
	switch tab {
	case TabDashboard:
		m.dashboard, cmd = m.dashboard.Update(msg)
	case TabAnalyze:
		m.analyze, cmd = m.analyze.Update(msg)
	case TabExplorer:
		m.explorer, cmd = m.explorer.Update(msg)
	}
	return cmd
}

func (m AppModel) View() string {
	if m.quitting {
		return "Goodbye!\n"
	}

	header := m.renderTabBar()
	if m.services.Username != "" {
		header = lipgloss.JoinHorizontal(lipgloss.Top, header, SubtextStyle.Render("  "+m.services.Username))
	}

	var body string
	switch m.activeTab {
	case TabDashboard:
		body = m.dashboard.View()
	case TabAnalyze:
		body = m.analyze.View()
	case TabExplorer:
		body = m.explorer.View()
	}
	return lipgloss.JoinVertical(lipgloss.Left, header, body)
}

// SetSize records the terminal size and hands the area below the tab bar to
// every screen.
func (m *AppModel) SetSize(w, h int) {
	m.width, m.height = w, h
	inner := h - tabBarHeight
	m.dashboard.SetSize(w, inner)
	m.analyze.SetSize(w, inner)
	m.explorer.SetSize(w, inner)
}

func (m AppModel) ActiveTab() Tab { return m.activeTab }

func (m *AppModel) switchTab(tab Tab) {
	switch {
	case tab == m.activeTab:
	case tab == TabAnalyze:
		m.analyze.Focus()
	case m.activeTab == TabAnalyze:
		m.analyze.Blur()
	}
	m.activeTab = tab
}

func (m AppModel) renderTabBar() string {
	tabs := make([]string, 0, tabCount)
	for t := TabDashboard; t < tabCount; t++ {
		style := InactiveTabStyle
		if t == m.activeTab {
			style = ActiveTabStyle
		}
		tabs = append(tabs, style.Render(t.String()))
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, tabs...)
}
