package app

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	progression "studystreak/internal/modules/progression/domain"
	sessiondto "studystreak/internal/modules/session/dto"
	streakdto "studystreak/internal/modules/streak/dto"
	"studystreak/internal/platform/calendar"
	"studystreak/internal/ui/components"
	"studystreak/internal/ui/theme"
	feedview "studystreak/internal/ui/views/feed"
	focusview "studystreak/internal/ui/views/focus"
	historyview "studystreak/internal/ui/views/history"
)

// ─── ports ───────────────────────────────────────────────────────────────────
// Each port is the minimal interface that this orchestration layer requires.
// Sub-view ports are defined in their own packages and narrowed further.

type streakPort interface {
	Show(ctx context.Context, userID string) (streakdto.UserOutput, error)
	ValidateStreak(ctx context.Context, userID string) (streakdto.ValidateOutput, error)
	RepairStreak(ctx context.Context, userID string) (streakdto.UserOutput, error)
	SyncToday(ctx context.Context, userID string) (streakdto.SyncTodayOutput, error)
	SyncXP(ctx context.Context, userID string) (streakdto.SyncXPOutput, error)
	History(ctx context.Context, userID string, days int) (streakdto.HistoryOutput, error)
	Follow(ctx context.Context, userID, targetID string) (streakdto.FollowOutput, error)
	Unfollow(ctx context.Context, userID, targetID string) (streakdto.FollowOutput, error)
	Feed(ctx context.Context, userID string, limit int) ([]streakdto.ActivityOutput, error)
}

type sessionPort interface {
	Start(ctx context.Context, userID, subjectID, chapterID string, plannedSeconds int) (sessiondto.StartOutput, error)
	End(ctx context.Context, userID, sessionID string) (sessiondto.EndOutput, error)
	Cancel(ctx context.Context, userID string) error
	GetActive(ctx context.Context, userID string) (sessiondto.ActiveSessionOutput, error)
}

// ─── tab index ───────────────────────────────────────────────────────────────

type tabID int

const (
	tabFocus tabID = iota
	tabHistory
	tabFeed
	tabCount
)

var tabLabels = [tabCount]string{
	"Focus", "History", "Friends",
}

// ─── async messages ───────────────────────────────────────────────────────────

// actionDoneMsg reports a palette action. Refresh asks the focus view to
// reload the aggregate.
type actionDoneMsg struct {
	status  string
	refresh bool
	err     error
}

// ─── key bindings ─────────────────────────────────────────────────────────────

type keyMap struct {
	Tab     key.Binding
	Help    key.Binding
	Palette key.Binding
	Quit    key.Binding
	Start   key.Binding
	Stop    key.Binding
	Cancel  key.Binding
	Refresh key.Binding
	Zoom    key.Binding
}

func defaultKeys() keyMap {
	return keyMap{
		Tab:     key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "next tab")),
		Help:    key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "help")),
		Palette: key.NewBinding(key.WithKeys(":"), key.WithHelp(":", "palette")),
		Quit:    key.NewBinding(key.WithKeys("ctrl+c", "q"), key.WithHelp("q", "quit")),
		Start:   key.NewBinding(key.WithKeys("s"), key.WithHelp("s", "start 25 min focus")),
		Stop:    key.NewBinding(key.WithKeys("x"), key.WithHelp("x", "stop and save")),
		Cancel:  key.NewBinding(key.WithKeys("c"), key.WithHelp("c", "cancel session")),
		Refresh: key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "refresh")),
		Zoom:    key.NewBinding(key.WithKeys("+", "-"), key.WithHelp("+/-", "history window")),
	}
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Tab, k.Help, k.Palette, k.Quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Start, k.Stop, k.Cancel},
		{k.Tab, k.Refresh, k.Zoom},
		{k.Help, k.Palette, k.Quit},
	}
}

// ─── model ───────────────────────────────────────────────────────────────────

// Model is the root Bubble Tea model. It owns tab routing, the global help
// overlay and the command palette. Business logic is delegated to ports and
// rendering to sub-views.
type Model struct {
	userID string
	streak streakPort

	focusView   focusview.Model
	historyView historyview.Model
	feedView    feedview.Model

	activeTab tabID
	keys      keyMap
	help      help.Model
	showHelp  bool
	palette   components.Palette
	status    string
	width     int
	height    int
}

func NewModel(
	userID string,
	streak streakPort,
	session sessionPort,
	cal calendar.Calendar,
	catalog *progression.Catalog,
) Model {
	return Model{
		userID:      userID,
		streak:      streak,
		focusView:   focusview.New(focusPortBridge{streak: streak, session: session}, userID, cal, catalog),
		historyView: historyview.New(streak, userID),
		feedView:    feedview.New(streak, userID),
		activeTab:   tabFocus,
		keys:        defaultKeys(),
		help:        help.New(),
		palette:     components.NewPalette(components.DefaultHints),
		status:      "ready",
	}
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(
		m.focusView.Init(),
		m.historyView.Init(),
		m.feedView.Init(),
	)
}

// ─── update ───────────────────────────────────────────────────────────────────

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	// The palette intercepts all input while open.
	if m.palette.Visible() {
		var cmd tea.Cmd
		m.palette, cmd = m.palette.Update(msg)
		return m, cmd
	}

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.palette.SetWidth(min(m.width-4, 80))
		m.help.Width = m.width
		m.propagateSize()
		return m, nil

	case components.PaletteSubmitMsg:
		return m.executePalette(msg.Input)

	case components.PaletteCancelMsg:
		m.status = "ready"
		return m, nil

	case actionDoneMsg:
		if msg.err != nil {
			m.status = msg.err.Error()
			return m, nil
		}
		m.status = msg.status
		if msg.refresh {
			return m, tea.Batch(m.focusView.Reload(), m.feedView.Reload())
		}
		return m, nil

	// Focus results refresh the other tabs and always reach the focus view,
	// whichever tab is showing.
	case focusview.EndedMsg:
		var cmd tea.Cmd
		m.focusView, cmd = m.focusView.Update(msg)
		m.status = m.focusView.Status()
		if msg.Err == nil {
			cmds = append(cmds, m.historyView.Load(0), m.feedView.Reload())
		}
		return m, tea.Batch(append(cmds, cmd)...)

	case focusview.UserLoadedMsg, focusview.ActiveLoadedMsg, focusview.StartedMsg,
		focusview.CancelledMsg:
		var cmd tea.Cmd
		m.focusView, cmd = m.focusView.Update(msg)
		m.status = m.focusView.Status()
		return m, cmd

	case historyview.LoadedMsg:
		var cmd tea.Cmd
		m.historyView, cmd = m.historyView.Update(msg)
		return m, cmd

	case feedview.LoadedMsg:
		var cmd tea.Cmd
		m.feedView, cmd = m.feedView.Update(msg)
		return m, cmd

	case tea.KeyMsg:
		if m.showHelp {
			if msg.String() == "?" || msg.String() == "esc" {
				m.showHelp = false
			}
			return m, nil
		}

		// Yield to sub-view when its search filter is active.
		if m.activeTab == tabFeed && m.feedView.Filtering() {
			break
		}

		switch msg.String() {
		case "ctrl+c", "q":
			return m, tea.Quit
		case "tab":
			m.activeTab = (m.activeTab + 1) % tabCount
			return m, nil
		case "shift+tab":
			m.activeTab = (m.activeTab + tabCount - 1) % tabCount
			return m, nil
		case "?":
			m.showHelp = !m.showHelp
			return m, nil
		case ":":
			return m, m.palette.Open()
		}
	}

	if isKey(msg) {
		var cmd tea.Cmd
		switch m.activeTab {
		case tabFocus:
			m.focusView, cmd = m.focusView.Update(msg)
			m.status = m.focusView.Status()
		case tabHistory:
			m.historyView, cmd = m.historyView.Update(msg)
		case tabFeed:
			m.feedView, cmd = m.feedView.Update(msg)
		}
		return m, cmd
	}

	// Timer ticks, spinner frames and list filter results reach every view so
	// the focus timer keeps running behind other tabs.
	var focusCmd, historyCmd, feedCmd tea.Cmd
	m.focusView, focusCmd = m.focusView.Update(msg)
	m.historyView, historyCmd = m.historyView.Update(msg)
	m.feedView, feedCmd = m.feedView.Update(msg)
	cmds = append(cmds, focusCmd, historyCmd, feedCmd)

	return m, tea.Batch(cmds...)
}

// ─── view ────────────────────────────────────────────────────────────────────

func (m Model) View() string {
	tabBar := m.renderTabBar()
	statusBar := m.renderStatusBar()
	tabBarH := lipgloss.Height(tabBar)
	statusBarH := lipgloss.Height(statusBar)

	contentH := m.height - tabBarH - statusBarH
	if contentH < 1 {
		contentH = 1
	}

	var content string
	switch {
	case m.showHelp:
		content = lipgloss.NewStyle().Width(m.width).Height(contentH).
			Render(m.help.View(m.keys))
	case m.palette.Visible():
		content = lipgloss.Place(m.width, contentH,
			lipgloss.Center, lipgloss.Center, m.palette.View())
	default:
		content = m.activeView()
	}

	return lipgloss.JoinVertical(lipgloss.Left, tabBar, content, statusBar)
}

func (m Model) activeView() string {
	switch m.activeTab {
	case tabFocus:
		return m.focusView.View()
	case tabHistory:
		return m.historyView.View()
	case tabFeed:
		return m.feedView.View()
	}
	return ""
}

func (m Model) renderTabBar() string {
	parts := make([]string, tabCount)
	for i := tabID(0); i < tabCount; i++ {
		label := tabLabels[i]
		if i == m.activeTab {
			parts[i] = theme.Hot.Render(" " + label + " ")
		} else {
			parts[i] = theme.Muted.Render(" " + label + " ")
		}
	}
	sep := theme.Muted.Render(" │ ")
	bar := "studystreak  " + theme.Muted.Render(m.userID) + "  " + strings.Join(parts, sep)
	return lipgloss.NewStyle().Background(theme.Mantle).Width(m.width).Render(bar) + "\n"
}

func (m Model) renderStatusBar() string {
	left := m.status
	if active, ok := m.focusView.Active(); ok {
		label := "focus"
		if active.SubjectID != "" {
			label = active.SubjectID
		}
		left = theme.Hot.Render("● "+label) + "  " + left
	}
	state := m.focusView.State()
	left = theme.Streak.Render(fmt.Sprintf("%dd", state.StreakCurrent)) + " " +
		theme.Coins.Render(fmt.Sprintf("%dc", state.Coins)) + "  " + left
	right := theme.Muted.Render("?:help  tab:switch  :::palette  q:quit")
	gap := m.width - lipgloss.Width(left) - lipgloss.Width(right)
	if gap < 1 {
		gap = 1
	}
	bar := left + strings.Repeat(" ", gap) + right
	return "\n" + lipgloss.NewStyle().Background(theme.Mantle).Width(m.width).Render(bar)
}

// ─── palette execution ────────────────────────────────────────────────────────

func (m Model) executePalette(input string) (tea.Model, tea.Cmd) {
	if strings.TrimSpace(input) == "" {
		return m, nil
	}
	parts := strings.Fields(input)

	switch parts[0] {
	case "session:start":
		planned := focusview.DefaultPlanned
		if len(parts) >= 2 {
			minutes, err := strconv.Atoi(parts[1])
			if err != nil || minutes < 0 {
				m.status = "usage: session:start [minutes] [subject]"
				return m, nil
			}
			planned = time.Duration(minutes) * time.Minute
		}
		subject := ""
		if len(parts) >= 3 {
			subject = strings.Join(parts[2:], " ")
		}
		m.activeTab = tabFocus
		cmd := m.focusView.StartCmd(planned, subject)
		if cmd == nil {
			m.status = "a session is already running"
		}
		return m, cmd

	case "session:stop":
		m.activeTab = tabFocus
		var cmd tea.Cmd
		m.focusView, cmd = m.focusView.Stop()
		if cmd == nil {
			m.status = "no session running"
		} else {
			m.status = m.focusView.Status()
		}
		return m, cmd

	case "session:cancel":
		cmd := m.focusView.CancelCmd()
		if cmd == nil {
			m.status = "no session running"
		}
		return m, cmd

	case "streak:validate":
		return m, m.runAction(func(ctx context.Context) (string, error) {
			out, err := m.streak.ValidateStreak(ctx, m.userID)
			if err != nil {
				return "", err
			}
			switch {
			case out.Frozen:
				return fmt.Sprintf("streak of %d frozen, repair it with streak:repair", out.PreviousStreak), nil
			case out.Broken:
				return "streak reset", nil
			default:
				return "streak is intact", nil
			}
		})

	case "streak:repair":
		return m, m.runAction(func(ctx context.Context) (string, error) {
			out, err := m.streak.RepairStreak(ctx, m.userID)
			if err != nil {
				return "", err
			}
			return fmt.Sprintf("streak restored to %d", out.StreakCurrent), nil
		})

	case "sync:today":
		return m, m.runAction(func(ctx context.Context) (string, error) {
			out, err := m.streak.SyncToday(ctx, m.userID)
			if err != nil {
				return "", err
			}
			return fmt.Sprintf("today %.1f min, total %.1f min", out.Today, out.Total), nil
		})

	case "sync:xp":
		return m, m.runAction(func(ctx context.Context) (string, error) {
			out, err := m.streak.SyncXP(ctx, m.userID)
			if err != nil {
				return "", err
			}
			if out.Amount == 0 {
				return "xp already in sync", nil
			}
			return fmt.Sprintf("credited %d xp to %s", out.Amount, out.CharacterID), nil
		})

	case "follow", "unfollow":
		if len(parts) < 2 {
			m.status = "usage: " + parts[0] + " <user>"
			return m, nil
		}
		target, verb := parts[1], parts[0]
		return m, m.runAction(func(ctx context.Context) (string, error) {
			var out streakdto.FollowOutput
			var err error
			if verb == "follow" {
				out, err = m.streak.Follow(ctx, m.userID, target)
			} else {
				out, err = m.streak.Unfollow(ctx, m.userID, target)
			}
			if err != nil {
				return "", err
			}
			if !out.Changed {
				return "nothing changed", nil
			}
			return verb + "ed " + target, nil
		})

	case "history":
		days := 0
		if len(parts) >= 2 {
			n, err := strconv.Atoi(parts[1])
			if err != nil || n <= 0 {
				m.status = "usage: history <days>"
				return m, nil
			}
			days = n
		}
		m.activeTab = tabHistory
		return m, m.historyView.Load(days)

	case "feed":
		m.activeTab = tabFeed
		return m, m.feedView.Reload()

	default:
		m.status = "unknown command: " + parts[0]
	}
	return m, nil
}

// ─── helpers ─────────────────────────────────────────────────────────────────

func isKey(msg tea.Msg) bool {
	_, ok := msg.(tea.KeyMsg)
	return ok
}

func (m *Model) propagateSize() {
	sz := tea.WindowSizeMsg{Width: m.width, Height: m.height - 3}
	m.focusView, _ = m.focusView.Update(sz)
	m.historyView, _ = m.historyView.Update(sz)
	m.feedView, _ = m.feedView.Update(sz)
}

// ─── async commands ───────────────────────────────────────────────────────────

func (m Model) runAction(fn func(ctx context.Context) (string, error)) tea.Cmd {
	return func() tea.Msg {
		status, err := fn(context.Background())
		return actionDoneMsg{status: status, refresh: err == nil, err: err}
	}
}

// ─── port bridges ─────────────────────────────────────────────────────────────
// Each bridge narrows the broad ports to the minimal interface a sub-view needs.

type focusPortBridge struct {
	streak  streakPort
	session sessionPort
}

func (b focusPortBridge) Show(ctx context.Context, userID string) (streakdto.UserOutput, error) {
	return b.streak.Show(ctx, userID)
}
func (b focusPortBridge) Start(ctx context.Context, userID, subjectID, chapterID string, planned int) (sessiondto.StartOutput, error) {
	return b.session.Start(ctx, userID, subjectID, chapterID, planned)
}
func (b focusPortBridge) End(ctx context.Context, userID, sessionID string) (sessiondto.EndOutput, error) {
	return b.session.End(ctx, userID, sessionID)
}
func (b focusPortBridge) Cancel(ctx context.Context, userID string) error {
	return b.session.Cancel(ctx, userID)
}
func (b focusPortBridge) GetActive(ctx context.Context, userID string) (sessiondto.ActiveSessionOutput, error) {
	return b.session.GetActive(ctx, userID)
}
