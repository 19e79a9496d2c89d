package tui

import (
	"fmt"
	"math"
	"strings"
	"time"

	"stock-advisor/internal/domain"
	"stock-advisor/internal/service"

	"github.com/charmbracelet/lipgloss"
)

// FormatRecommendation renders a recommendation as a single table line.
func FormatRecommendation(r domain.Recommendation) string {
	ma := "     n/a"
	if r.MovingAverage != nil {
		ma = fmt.Sprintf("%8s", formatUSD(*r.MovingAverage))
	}
	return fmt.Sprintf("%-6s %s %s  %10s %s  %s",
		r.Symbol,
		renderAction(r.Action),
		renderScore(r.Score),
		formatUSD(r.ClosePrice),
		ma,
		r.CreatedAt.Format(time.RFC822),
	)
}

// FormatArticle renders a scored article as a single line.
func FormatArticle(a service.ScoredArticle, width int) string {
	title := a.Title
	maxTitle := width - 32
	if maxTitle < 10 {
		maxTitle = 10
	}
	if r := []rune(title); len(r) > maxTitle {
		title = string(r[:maxTitle-1]) + "…"
	}
	return fmt.Sprintf("%s %-14s %s  %s",
		renderScore(a.SentimentScore),
		string(a.Category),
		a.PublishedAt.Format("Jan 02"),
		title,
	)
}

// RenderSentimentMap renders a colored grid with one cell per symbol, shaded by
// recommendation score.
func RenderSentimentMap(recs []domain.Recommendation, width int) string {
	if len(recs) == 0 {
		return SubtextStyle.Render("No recommendations")
	}

	cellWidth := 8
	cols := width / cellWidth
	if cols < 1 {
		cols = 1
	}

	var rows []string
	var row []string
	for i, r := range recs {
		bg := HeatNeutral
		if r.Score > 0 {
			bg = heatColorScale(r.Score, 1, HeatGreen)
		} else if r.Score < 0 {
			bg = heatColorScale(-r.Score, 1, HeatRed)
		}

		cell := lipgloss.NewStyle().
			Background(bg).
			Foreground(lipgloss.Color("#000000")).
			Bold(true).
			Width(cellWidth - 1).
			Align(lipgloss.Center).
			Render(r.Symbol)

		row = append(row, cell)
		if (i+1)%cols == 0 || i == len(recs)-1 {
			rows = append(rows, lipgloss.JoinHorizontal(lipgloss.Top, row...))
			row = nil
		}
	}

	return strings.Join(rows, "\n")
}

// RenderScoreBar renders a centered bar for a score in [-1, 1].
func RenderScoreBar(label string, score float64, barWidth int) string {
	if barWidth <= 1 {
		barWidth = 20
	}
	half := barWidth / 2
	filled := int(math.Round(math.Min(math.Abs(score), 1) * float64(half)))

	left := SubtextStyle.Render(strings.Repeat("░", half))
	right := SubtextStyle.Render(strings.Repeat("░", half))
	if score < 0 {
		left = SubtextStyle.Render(strings.Repeat("░", half-filled)) + ScoreDownStyle.Render(strings.Repeat("█", filled))
	} else if score > 0 {
		right = ScoreUpStyle.Render(strings.Repeat("█", filled)) + SubtextStyle.Render(strings.Repeat("░", half-filled))
	}
	return fmt.Sprintf("%-12s %s│%s %+.3f", label, left, right, score)
}

func renderAction(a domain.Action) string {
	style := ActionHoldStyle
	switch a {
	case domain.ActionBuy:
		style = ActionBuyStyle
	case domain.ActionSell:
		style = ActionSellStyle
	}
	return style.Render(fmt.Sprintf("%-4s", strings.ToUpper(string(a))))
}

func renderScore(score float64) string {
	style := ScoreZeroStyle
	if score > 0 {
		style = ScoreUpStyle
	} else if score < 0 {
		style = ScoreDownStyle
	}
	return style.Render(fmt.Sprintf("%+.3f", score))
}

// heatColorScale produces a color scaled by magnitude.
func heatColorScale(magnitude, maxMagnitude float64, baseColor lipgloss.Color) lipgloss.Color {
	intensity := magnitude / maxMagnitude
	if intensity > 1 {
		intensity = 1
	}
	if intensity < 0.1 {
		return HeatNeutral
	}
	return baseColor
}

func formatUSD(v float64) string {
	if v >= 1000 {
		return "$" + addCommas(fmt.Sprintf("%.0f", v))
	}
	if v >= 1 {
		return fmt.Sprintf("$%.2f", v)
	}
	return fmt.Sprintf("$%.4f", v)
}

func addCommas(s string) string {
	n := len(s)
	if n <= 3 {
		return s
	}
	var result strings.Builder
	for i, ch := range s {
		if i > 0 && (n-i)%3 == 0 {
			result.WriteByte(',')
		}
		result.WriteRune(ch)
	}
	return result.String()
}
