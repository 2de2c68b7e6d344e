package components

import (
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"studystreak/internal/ui/theme"
)

// PaletteSubmitMsg is emitted when the user confirms a command.
type PaletteSubmitMsg struct{ Input string }

// PaletteCancelMsg is emitted when the user presses esc.
type PaletteCancelMsg struct{}

var (
	paletteStyle = lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(theme.Peach).
			Background(theme.Mantle).
			Foreground(theme.Text).
			Padding(0, 1)

	hintStyle = lipgloss.NewStyle().Foreground(theme.Subtext0)
	argsStyle = lipgloss.NewStyle().Foreground(theme.Lavender)
)

// Hint describes one palette command.
type Hint struct {
	Command string
	Args    string
	Help    string
}

func (h Hint) String() string {
	if h.Args == "" {
		return h.Command
	}
	return h.Command + " " + h.Args
}

// DefaultHints must stay in sync with the switch in app/model.go executePalette.
var DefaultHints = []Hint{
	{Command: "session:start", Args: "[minutes] [subject]", Help: "start the focus timer"},
	{Command: "session:stop", Help: "finish and record the running session"},
	{Command: "session:cancel", Help: "discard the running session"},
	{Command: "streak:validate", Help: "check whether the streak broke"},
	{Command: "streak:repair", Help: "restore a frozen streak for coins"},
	{Command: "sync:today", Help: "recount today's minutes from the ledger"},
	{Command: "sync:xp", Help: "top up character xp from total minutes"},
	{Command: "follow", Args: "<user>", Help: "add a friend to the feed"},
	{Command: "unfollow", Args: "<user>", Help: "remove a friend"},
	{Command: "history", Args: "<days>", Help: "change the history window"},
	{Command: "feed", Help: "refresh the friends feed"},
}

const maxShownHints = 5

// Palette is a command-palette overlay backed by bubbles/textinput.
// Tab completes the command name and up/down walk earlier submissions.
type Palette struct {
	input   textinput.Model
	hints   []Hint
	recent  []string
	recall  int
	visible bool
	width   int
}

func NewPalette(hints []Hint) Palette {
	ti := textinput.New()
	ti.Placeholder = "type a command…"
	ti.CharLimit = 256
	return Palette{input: ti, hints: hints}
}

func (p Palette) Visible() bool { return p.visible }

// Open shows the palette with an empty input and returns the focus command.
func (p *Palette) Open() tea.Cmd {
	p.visible = true
	p.recall = len(p.recent)
	p.input.SetValue("")
	return p.input.Focus()
}

func (p *Palette) SetWidth(w int) { p.width = w }

func (p Palette) Update(msg tea.Msg) (Palette, tea.Cmd) {
	if !p.visible {
		return p, nil
	}
	if key, ok := msg.(tea.KeyMsg); ok {
		switch key.String() {
		case "esc":
			p.close()
			return p, func() tea.Msg { return PaletteCancelMsg{} }
		case "enter":
			val := strings.TrimSpace(p.input.Value())
			p.close()
			if val != "" {
				p.recent = append(p.recent, val)
			}
			return p, func() tea.Msg { return PaletteSubmitMsg{Input: val} }
		case "tab":
			p.complete()
			return p, nil
		case "up":
			p.step(-1)
			return p, nil
		case "down":
			p.step(1)
			return p, nil
		}
	}
	var cmd tea.Cmd
	p.input, cmd = p.input.Update(msg)
	return p, cmd
}

func (p *Palette) close() {
	p.visible = false
	p.input.Blur()
}

// complete replaces the typed prefix with the command name when exactly one
// hint matches.
func (p *Palette) complete() {
	matching := p.Matching()
	if len(matching) != 1 {
		return
	}
	value := matching[0].Command
	if matching[0].Args != "" {
		value += " "
	}
	p.input.SetValue(value)
	p.input.CursorEnd()
}

func (p *Palette) step(delta int) {
	if len(p.recent) == 0 {
		return
	}
	p.recall = max(0, min(len(p.recent), p.recall+delta))
	if p.recall == len(p.recent) {
		p.input.SetValue("")
		return
	}
	p.input.SetValue(p.recent[p.recall])
	p.input.CursorEnd()
}

// Matching lists the hints whose command starts with the typed word.
func (p Palette) Matching() []Hint {
	typed := strings.ToLower(strings.TrimSpace(p.input.Value()))
	word, _, hasArgs := strings.Cut(typed, " ")
	var matching []Hint
	for _, h := range p.hints {
		ok := strings.HasPrefix(h.Command, word)
		if hasArgs {
			ok = h.Command == word
		}
		if ok {
			matching = append(matching, h)
			if len(matching) == maxShownHints {
				break
			}
		}
	}
	return matching
}

func (p Palette) View() string {
	if !p.visible {
		return ""
	}
	var sb strings.Builder
	sb.WriteString(theme.Title.Render("Command Palette") + "\n")
	sb.WriteString(": " + p.input.View() + "\n")
	if matching := p.Matching(); len(matching) > 0 {
		sb.WriteString("\n")
		for _, h := range matching {
			line := "  " + h.Command
			if h.Args != "" {
				line += " " + argsStyle.Render(h.Args)
			}
			sb.WriteString(line + hintStyle.Render("  "+h.Help) + "\n")
		}
	}

	w := p.width
	if w < 20 {
		w = 64
	}
	return paletteStyle.Width(w - 2).Render(sb.String())
}
