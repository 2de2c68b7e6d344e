package history

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	streakdto "studystreak/internal/modules/streak/dto"
	"studystreak/internal/ui/theme"
)

const DefaultDays = 14

// ─── port ────────────────────────────────────────────────────────────────────

type Port interface {
	History(ctx context.Context, userID string, days int) (streakdto.HistoryOutput, error)
}

// ─── messages ────────────────────────────────────────────────────────────────

type LoadedMsg struct {
	Out streakdto.HistoryOutput
	Err error
}

// ─── model ───────────────────────────────────────────────────────────────────

type Model struct {
	port    Port
	userID  string
	days    int
	out     streakdto.HistoryOutput
	err     error
	spinner spinner.Model
	loading bool
	width   int
	height  int
}

func New(port Port, userID string) Model {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(theme.Green)
	return Model{port: port, userID: userID, days: DefaultDays, spinner: sp, loading: true}
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(m.loadCmd(), m.spinner.Tick)
}

// Load refreshes the series, switching the window to days when positive.
func (m *Model) Load(days int) tea.Cmd {
	if days > 0 {
		m.days = days
	}
	m.loading = true
	return tea.Batch(m.loadCmd(), m.spinner.Tick)
}

func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

	case LoadedMsg:
		m.loading = false
		m.err = msg.Err
		if msg.Err == nil {
			m.out = msg.Out
		}

	case spinner.TickMsg:
		if !m.loading {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case tea.KeyMsg:
		switch msg.String() {
		case "r":
			return m, m.Load(0)
		case "+":
			return m, m.Load(min(m.days*2, 366))
		case "-":
			return m, m.Load(max(m.days/2, 1))
		}
	}
	return m, nil
}

func (m Model) View() string {
	if m.loading {
		return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center,
			m.spinner.View()+" Loading history…")
	}
	if m.err != nil {
		return theme.Bad.Render("history: " + m.err.Error())
	}

	var sb strings.Builder
	sb.WriteString(theme.Title.Render(fmt.Sprintf("Last %d days", len(m.out.Days))) + "\n")
	sb.WriteString(theme.Muted.Render(fmt.Sprintf("%.1f min over %d active days  (+/- to zoom, r to refresh)", m.out.TotalMinutes, m.out.ActiveDays)) + "\n\n")
	sb.WriteString(RenderBars(m.out.Days, max(m.width-32, 10)))
	return lipgloss.NewStyle().Padding(1, 2).Render(sb.String())
}

// RenderBars draws one line per day, scaled so the busiest day fills width.
func RenderBars(days []streakdto.DayOutput, width int) string {
	peak := 0.0
	for _, d := range days {
		peak = max(peak, d.Minutes)
	}
	var sb strings.Builder
	for _, d := range days {
		n := 0
		if peak > 0 {
			n = int(d.Minutes / peak * float64(width))
		}
		bar := strings.Repeat("█", n)
		if d.Minutes > 0 && n == 0 {
			bar = "▏"
		}
		style := theme.Good
		if d.Sessions == 0 {
			style = theme.Muted
			bar = "·"
		}
		fmt.Fprintf(&sb, "%s  %s %s\n",
			theme.Muted.Render(d.Date),
			style.Render(bar),
			theme.Muted.Render(fmt.Sprintf("%.1f min, %d sessions", d.Minutes, d.Sessions)))
	}
	return sb.String()
}

func (m Model) loadCmd() tea.Cmd {
	port, userID, days := m.port, m.userID, m.days
	return func() tea.Msg {
		out, err := port.History(context.Background(), userID, days)
		return LoadedMsg{Out: out, Err: err}
	}
}
