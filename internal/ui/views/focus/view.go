package focus

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	progression "studystreak/internal/modules/progression/domain"
	sessiondto "studystreak/internal/modules/session/dto"
	streakdomain "studystreak/internal/modules/streak/domain"
	streakdto "studystreak/internal/modules/streak/dto"
	"studystreak/internal/platform/calendar"
	apperrors "studystreak/internal/platform/errors"
	"studystreak/internal/ui/theme"
)

const DefaultPlanned = 25 * time.Minute

// ─── port ────────────────────────────────────────────────────────────────────

type Port interface {
	Show(ctx context.Context, userID string) (streakdto.UserOutput, error)
	Start(ctx context.Context, userID, subjectID, chapterID string, plannedSeconds int) (sessiondto.StartOutput, error)
	End(ctx context.Context, userID, sessionID string) (sessiondto.EndOutput, error)
	Cancel(ctx context.Context, userID string) error
	GetActive(ctx context.Context, userID string) (sessiondto.ActiveSessionOutput, error)
}

// ─── messages ────────────────────────────────────────────────────────────────

type UserLoadedMsg struct {
	User streakdto.UserOutput
	Err  error
}

type ActiveLoadedMsg struct {
	Active sessiondto.ActiveSessionOutput
	Err    error
}

type StartedMsg struct {
	Out     sessiondto.StartOutput
	Subject string
	Err     error
}

// EndedMsg carries the authoritative result of a stop. LocalID names the
// optimistic entry that was added to the mirror when the stop was issued.
type EndedMsg struct {
	LocalID string
	Out     sessiondto.EndOutput
	Err     error
}

type CancelledMsg struct{ Err error }

type tickMsg time.Time

// ─── model ───────────────────────────────────────────────────────────────────

type Model struct {
	port     Port
	userID   string
	calendar calendar.Calendar
	catalog  *progression.Catalog
	mirror   *streakdomain.Mirror

	active    sessiondto.ActiveSessionOutput
	hasActive bool
	stopping  bool
	elapsed   int

	timer  progress.Model
	level  progress.Model
	status string
	width  int
	height int
}

func New(port Port, userID string, cal calendar.Calendar, catalog *progression.Catalog) Model {
	timer := progress.New(progress.WithGradient(string(theme.Peach), string(theme.Yellow)))
	timer.ShowPercentage = false
	level := progress.New(progress.WithSolidFill(string(theme.Mauve)))

	return Model{
		port:     port,
		userID:   userID,
		calendar: cal,
		catalog:  catalog,
		mirror:   streakdomain.NewMirror(streakdomain.NewUserAggregate(userID, cal.Now()), catalog),
		timer:    timer,
		level:    level,
		status:   "loading",
	}
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(m.loadUserCmd(), m.loadActiveCmd())
}

// Active reports the running session, if any.
func (m Model) Active() (sessiondto.ActiveSessionOutput, bool) {
	return m.active, m.hasActive
}

func (m Model) Status() string { return m.status }

// State is the mirrored aggregate including sessions not yet confirmed.
func (m Model) State() streakdomain.UserAggregate {
	return m.mirror.State()
}

func (m Model) Pending() int { return m.mirror.Pending() }

func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		barW := max(msg.Width-12, 10)
		m.timer.Width = min(barW, 60)
		m.level.Width = min(barW, 40)

	case UserLoadedMsg:
		if msg.Err != nil {
			m.status = "load user: " + msg.Err.Error()
			return m, nil
		}
		m.mirror.Acknowledge(aggregateOf(msg.User))
		m.status = "ready"

	case ActiveLoadedMsg:
		if msg.Err != nil {
			if !errors.Is(msg.Err, apperrors.ErrNoActiveSession) {
				m.status = "active session check: " + msg.Err.Error()
			}
			return m, nil
		}
		m.active = msg.Active
		m.hasActive = true
		m.elapsed = msg.Active.ElapsedSeconds
		m.status = "session recovered"
		return m, tick()

	case StartedMsg:
		if msg.Err != nil {
			m.status = "start failed: " + msg.Err.Error()
			return m, nil
		}
		m.active = sessiondto.ActiveSessionOutput{
			SessionID:      msg.Out.SessionID,
			UserID:         msg.Out.UserID,
			SubjectID:      msg.Subject,
			StartedAt:      msg.Out.StartedAt,
			PlannedSeconds: msg.Out.PlannedSeconds,
		}
		m.hasActive = true
		m.stopping = false
		m.elapsed = 0
		m.status = "focus started"
		return m, tick()

	case tickMsg:
		if !m.hasActive || m.stopping {
			return m, nil
		}
		m.elapsed = elapsedSince(m.active.StartedAt, time.Time(msg), m.active.PlannedSeconds)
		if m.active.PlannedSeconds > 0 && m.elapsed >= m.active.PlannedSeconds {
			return m.stop()
		}
		return m, tick()

	case EndedMsg:
		m.stopping = false
		if msg.Err != nil {
			m.mirror.Drop(msg.LocalID)
			m.status = "stop failed: " + msg.Err.Error()
			if m.hasActive {
				return m, tick()
			}
			return m, nil
		}
		result := msg.Out.Result
		m.mirror.Rekey(msg.LocalID, result.SessionID)
		m.mirror.Acknowledge(aggregateOf(result.User), result.SessionID)
		m.hasActive = false
		m.active = sessiondto.ActiveSessionOutput{}
		m.status = describeResult(msg.Out)

	case CancelledMsg:
		if msg.Err != nil {
			m.status = "cancel failed: " + msg.Err.Error()
			return m, nil
		}
		m.hasActive = false
		m.active = sessiondto.ActiveSessionOutput{}
		m.status = "session cancelled"

	case tea.KeyMsg:
		switch msg.String() {
		case "s":
			return m, m.StartCmd(DefaultPlanned, "")
		case "x":
			return m.stop()
		case "c":
			return m, m.CancelCmd()
		case "r":
			return m, m.loadUserCmd()
		}
	}
	return m, nil
}

// Stop ends the running session, applying it to the mirror right away.
func (m Model) Stop() (Model, tea.Cmd) {
	return m.stop()
}

func (m Model) stop() (Model, tea.Cmd) {
	if !m.hasActive || m.stopping {
		return m, nil
	}
	m.stopping = true
	localID := m.active.SessionID
	elapsed := elapsedSince(m.active.StartedAt, m.calendar.Now(), m.active.PlannedSeconds)
	m.mirror.Complete(localID, elapsed, m.calendar.Today())
	m.status = "saving session"

	port, userID := m.port, m.userID
	return m, func() tea.Msg {
		out, err := port.End(context.Background(), userID, localID)
		return EndedMsg{LocalID: localID, Out: out, Err: err}
	}
}

func (m Model) StartCmd(planned time.Duration, subject string) tea.Cmd {
	if m.hasActive {
		return nil
	}
	port, userID := m.port, m.userID
	return func() tea.Msg {
		out, err := port.Start(context.Background(), userID, subject, "", int(planned.Seconds()))
		return StartedMsg{Out: out, Subject: subject, Err: err}
	}
}

func (m Model) CancelCmd() tea.Cmd {
	if !m.hasActive {
		return nil
	}
	port, userID := m.port, m.userID
	return func() tea.Msg {
		return CancelledMsg{Err: port.Cancel(context.Background(), userID)}
	}
}

func (m Model) Reload() tea.Cmd { return m.loadUserCmd() }

// ─── view ────────────────────────────────────────────────────────────────────

func (m Model) View() string {
	state := m.mirror.State()
	pet := m.catalog.ActiveCharacter(state.StreakCurrent)
	xp := float64(state.CharacterXP.Get(pet.ID))
	lvl := progression.ProgressForXP(xp)

	var sb strings.Builder
	sb.WriteString(theme.Title.Render("Focus") + "\n\n")
	sb.WriteString(m.renderTimer() + "\n\n")

	stats := []string{
		theme.Streak.Render(fmt.Sprintf("streak %d", state.StreakCurrent)) +
			theme.Muted.Render(fmt.Sprintf(" (best %d)", state.StreakLongest)),
		theme.Coins.Render(fmt.Sprintf("%d coins", state.Coins)),
		fmt.Sprintf("today %.1f min", state.TodayStudyMinutes),
		theme.Muted.Render(fmt.Sprintf("total %.1f min", state.TotalStudyMinutes)),
	}
	sb.WriteString(strings.Join(stats, theme.Muted.Render("  ·  ")) + "\n")
	if state.HasFrozenStreak() {
		sb.WriteString(theme.Bad.Render(fmt.Sprintf("streak of %d frozen since %s, repair with :streak:repair", state.FrozenStreak, state.StreakBreakDate)) + "\n")
	}
	sb.WriteString("\n")

	sb.WriteString(theme.Pet.Render(pet.Name) + theme.Muted.Render(fmt.Sprintf("  level %d  %.0f/%.0f xp", lvl.CurrentLevel, lvl.XPGainedInLevel, lvl.XPRequiredForLevel)) + "\n")
	sb.WriteString(m.level.ViewAs(lvl.ProgressPercent/100) + "\n")
	if next, ok := m.catalog.NextUnlock(state.StreakCurrent); ok {
		sb.WriteString(theme.Muted.Render(fmt.Sprintf("next friend: %s on day %d", next.Name, next.UnlockDay)) + "\n")
	}
	if n := m.mirror.Pending(); n > 0 {
		sb.WriteString(theme.Muted.Render(fmt.Sprintf("\n%d session(s) waiting for confirmation", n)) + "\n")
	}

	return lipgloss.NewStyle().Padding(1, 2).Render(sb.String())
}

func (m Model) renderTimer() string {
	if !m.hasActive {
		return theme.Muted.Render("no session running, press s to focus for 25 minutes")
	}
	clockText := theme.Timer.Render(formatClock(m.elapsed))
	if m.active.PlannedSeconds <= 0 {
		return clockText + theme.Muted.Render("  open ended, x to stop")
	}
	ratio := float64(m.elapsed) / float64(m.active.PlannedSeconds)
	remaining := max(m.active.PlannedSeconds-m.elapsed, 0)
	return clockText + theme.Muted.Render("  "+formatClock(remaining)+" left") + "\n" + m.timer.ViewAs(ratio)
}

// ─── private ─────────────────────────────────────────────────────────────────

func (m Model) loadUserCmd() tea.Cmd {
	port, userID := m.port, m.userID
	return func() tea.Msg {
		user, err := port.Show(context.Background(), userID)
		return UserLoadedMsg{User: user, Err: err}
	}
}

func (m Model) loadActiveCmd() tea.Cmd {
	port, userID := m.port, m.userID
	return func() tea.Msg {
		active, err := port.GetActive(context.Background(), userID)
		return ActiveLoadedMsg{Active: active, Err: err}
	}
}

func tick() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg { return tickMsg(t) })
}

// elapsedSince mirrors the server's timer: whole seconds, capped at planned when set.
func elapsedSince(startedAt, now time.Time, planned int) int {
	secs := int(now.Sub(startedAt).Seconds())
	if secs < 0 {
		secs = 0
	}
	if planned > 0 && secs > planned {
		secs = planned
	}
	return secs
}

func formatClock(seconds int) string {
	if seconds < 0 {
		seconds = 0
	}
	if seconds >= 3600 {
		return fmt.Sprintf("%d:%02d:%02d", seconds/3600, seconds/60%60, seconds%60)
	}
	return fmt.Sprintf("%02d:%02d", seconds/60, seconds%60)
}

func describeResult(out sessiondto.EndOutput) string {
	r := out.Result
	switch {
	case r.NoOp:
		return "session too short to count"
	case r.Unlocked != nil:
		return fmt.Sprintf("+%d coins, unlocked %s", r.EarnedCoins, r.Unlocked.Name)
	case r.StreakReset:
		return fmt.Sprintf("+%d coins, streak restarted", r.EarnedCoins)
	default:
		return fmt.Sprintf("+%d coins, +%d xp", r.EarnedCoins, r.XPEarned)
	}
}

// aggregateOf rebuilds the domain aggregate from its transport form.
func aggregateOf(u streakdto.UserOutput) streakdomain.UserAggregate {
	agg := streakdomain.NewUserAggregate(u.UserID, u.CreatedAt)
	agg.StreakCurrent = u.StreakCurrent
	agg.StreakLongest = u.StreakLongest
	agg.LastStudyDate = calendar.Day(u.LastStudyDate)
	agg.FrozenStreak = u.FrozenStreak
	agg.StreakBreakDate = calendar.Day(u.StreakBreakDate)
	agg.BankedSeconds = u.BankedSeconds
	agg.Coins = u.Coins
	agg.TotalStudyMinutes = u.TotalStudyMinutes
	agg.TodayStudyMinutes = u.TodayStudyMinutes
	for id, xp := range u.CharacterXP {
		agg.CharacterXP.Add(id, xp)
	}
	agg.UnlockedCharacterIDs = append(agg.UnlockedCharacterIDs, u.UnlockedCharacterIDs...)
	agg.TotalCharacters = u.TotalCharacters
	agg.Following = append(agg.Following, u.Following...)
	agg.Followers = append(agg.Followers, u.Followers...)
	return agg
}
