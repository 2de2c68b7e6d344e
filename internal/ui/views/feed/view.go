package feed

import (
	"context"
	"fmt"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"

	streakdto "studystreak/internal/modules/streak/dto"
	"studystreak/internal/ui/theme"
)

const DefaultLimit = 50

// ─── port ────────────────────────────────────────────────────────────────────

type Port interface {
	Feed(ctx context.Context, userID string, limit int) ([]streakdto.ActivityOutput, error)
}

// ─── messages ────────────────────────────────────────────────────────────────

type LoadedMsg struct {
	Items []streakdto.ActivityOutput
	Err   error
}

// ─── list item ───────────────────────────────────────────────────────────────

type activityItem struct {
	activity streakdto.ActivityOutput
}

func (i activityItem) Title() string {
	return i.activity.UserID + " " + Describe(i.activity)
}

func (i activityItem) Description() string {
	return i.activity.CreatedAt.Local().Format("Mon Jan 2 15:04")
}

func (i activityItem) FilterValue() string { return i.activity.UserID }

// Describe renders the activity without its author.
func Describe(a streakdto.ActivityOutput) string {
	switch a.Kind {
	case "session_completed":
		return fmt.Sprintf("studied %.0f min (streak %d)", a.Minutes, a.Streak)
	case "level_up":
		return fmt.Sprintf("unlocked %s on day %d", a.CharacterID, a.Streak)
	case "streak_repaired":
		return fmt.Sprintf("repaired a %d day streak", a.Streak)
	case "followed":
		return "started following " + a.TargetUserID
	default:
		return a.Kind
	}
}

// ─── model ───────────────────────────────────────────────────────────────────

type Model struct {
	port   Port
	userID string
	list   list.Model
	width  int
	height int
}

func New(port Port, userID string) Model {
	delegate := list.NewDefaultDelegate()
	delegate.Styles.SelectedTitle = delegate.Styles.SelectedTitle.Foreground(theme.Green).BorderForeground(theme.Green)
	delegate.Styles.SelectedDesc = delegate.Styles.SelectedDesc.Foreground(theme.Sapphire).BorderForeground(theme.Green)

	l := list.New(nil, delegate, 0, 0)
	l.Title = "Friends"
	l.Styles.Title = theme.Title
	l.SetShowStatusBar(true)
	l.SetFilteringEnabled(true)
	l.SetShowHelp(false)
	return Model{port: port, userID: userID, list: l}
}

func (m Model) Init() tea.Cmd { return m.Reload() }

func (m Model) Reload() tea.Cmd {
	port, userID := m.port, m.userID
	return func() tea.Msg {
		items, err := port.Feed(context.Background(), userID, DefaultLimit)
		return LoadedMsg{Items: items, Err: err}
	}
}

func (m Model) Filtering() bool {
	return m.list.FilterState() == list.Filtering
}

func (m Model) Len() int { return len(m.list.Items()) }

func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	var cmds []tea.Cmd
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.list.SetSize(msg.Width, msg.Height)

	case LoadedMsg:
		if msg.Err != nil {
			m.list.Title = "Friends: " + msg.Err.Error()
			return m, nil
		}
		m.list.Title = "Friends"
		items := make([]list.Item, len(msg.Items))
		for i, a := range msg.Items {
			items[i] = activityItem{activity: a}
		}
		cmds = append(cmds, m.list.SetItems(items))

	case tea.KeyMsg:
		if msg.String() == "r" && !m.Filtering() {
			return m, m.Reload()
		}
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	cmds = append(cmds, cmd)
	return m, tea.Batch(cmds...)
}

func (m Model) View() string {
	return m.list.View()
}
