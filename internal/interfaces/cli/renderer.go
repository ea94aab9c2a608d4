package cli

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/heartline/heartline/internal/application/usecase"
	"github.com/heartline/heartline/internal/domain/entity"
)

// brand colors
var (
	colorPink   = lipgloss.Color("#FF5FAF")
	colorCyan   = lipgloss.Color("#00D7FF")
	colorGray   = lipgloss.Color("#6C6C6C")
	colorWhite  = lipgloss.Color("#FFFFFF")
	colorGreen  = lipgloss.Color("#00FF87")
	colorYellow = lipgloss.Color("#FFD75F")
	colorRed    = lipgloss.Color("#FF5F5F")
)

// Renderer handles terminal output: roster, chat bubbles, meters, quizzes.
type Renderer struct {
	width int
}

// NewRenderer creates a renderer for the given terminal width.
func NewRenderer(width int) *Renderer {
	if width <= 0 {
		width = 80
	}
	return &Renderer{width: width}
}

// Hearts renders the lives meter.
func (r *Renderer) Hearts(lives int) string {
	full := lipgloss.NewStyle().Foreground(colorRed)
	empty := lipgloss.NewStyle().Foreground(colorGray)

	var b strings.Builder
	for i := 0; i < entity.MaxLives; i++ {
		if i < lives {
			b.WriteString(full.Render("♥"))
		} else {
			b.WriteString(empty.Render("♡"))
		}
	}
	return b.String()
}

// ProgressBar renders the interest meter as a 20-cell bar.
func (r *Renderer) ProgressBar(progress int) string {
	const cells = 20
	filled := progress * cells / entity.MaxProgress

	color := colorGreen
	switch {
	case progress <= 25:
		color = colorRed
	case progress < 60:
		color = colorYellow
	}

	bar := lipgloss.NewStyle().Foreground(color).Render(strings.Repeat("█", filled)) +
		lipgloss.NewStyle().Foreground(colorGray).Render(strings.Repeat("░", cells-filled))
	return fmt.Sprintf("%s %3d%%", bar, progress)
}

// Roster renders the contact list.
func (r *Renderer) Roster(views []usecase.ConversationView) string {
	title := lipgloss.NewStyle().Foreground(colorPink).Bold(true)
	name := lipgloss.NewStyle().Foreground(colorWhite).Bold(true)
	dim := lipgloss.NewStyle().Foreground(colorGray)

	var b strings.Builder
	b.WriteString(title.Render("― Contacts ―") + "\n")
	for _, v := range views {
		state := "🔒"
		switch {
		case v.Complete:
			state = "💞"
		case v.Unlocked:
			state = "💬"
		}
		line := fmt.Sprintf("  %s %-10s %s  %s", state, name.Render(v.Name), r.Hearts(v.Lives), r.ProgressBar(v.Progress))
		b.WriteString(line + "\n")
		if v.LastMessage != "" {
			preview := v.LastMessage
			if len(preview) > 48 {
				preview = preview[:48] + "…"
			}
			b.WriteString(dim.Render("       "+preview) + "\n")
		}
	}
	return b.String()
}

// Bubble renders one chat line. Outgoing messages are right-aligned.
func (r *Renderer) Bubble(author, text string, fromMe bool) string {
	style := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		Padding(0, 1).
		MaxWidth(r.width - 10)

	if fromMe {
		style = style.BorderForeground(colorCyan)
		return lipgloss.PlaceHorizontal(r.width, lipgloss.Right, style.Render(text))
	}
	style = style.BorderForeground(colorGray)
	label := lipgloss.NewStyle().Foreground(colorPink).Render(author)
	return label + "\n" + style.Render(text)
}

// Quiz renders the quiz card with 1-based options.
func (r *Renderer) Quiz(quiz *entity.Quiz) string {
	box := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(colorYellow).
		Padding(0, 1).
		Width(r.width - 4)

	var b strings.Builder
	b.WriteString(fmt.Sprintf("📝 Quiz: prove you get %s\n\n", quiz.Persona))
	for _, q := range quiz.Questions {
		b.WriteString(q.Text + "\n")
		for i, opt := range q.Options {
			b.WriteString(fmt.Sprintf("  %d. %s\n", i+1, opt))
		}
	}
	b.WriteString("\nAnswer with the option number(s).")
	return box.Render(b.String())
}

// Narrator renders a coach interjection.
func (r *Renderer) Narrator(text string, critical bool) string {
	color := colorYellow
	if critical {
		color = colorRed
	}
	style := lipgloss.NewStyle().Foreground(color).Italic(true)
	return style.Render("🧭 " + text)
}

// Banner renders the welcome header.
func (r *Renderer) Banner() string {
	logo := lipgloss.NewStyle().Foreground(colorPink).Bold(true).Render("♥ H E A R T L I N E")
	sub := lipgloss.NewStyle().Foreground(colorGray).Render("keep the conversation alive · /help for commands")
	return "\n" + logo + "\n" + sub + "\n"
}
