// Package display is the terminal front end: a one-line voice status bar
// pinned above an input prompt, with all other output scrolling above it.
// Output goes through Program.Println so concurrent writers cannot tear
// the rendered area.
package display

import (
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/hammamikhairi/ottovoice/internal/domain"
	"github.com/hammamikhairi/ottovoice/internal/voice"
)

// ── Palette ──────────────────────────────────────────────────────

const (
	colorBar    = "#27272a"
	colorSlate  = "#94a3b8"
	colorZinc   = "#a1a1aa"
	colorMuted  = "#71717a"
	colorRule   = "#52525b"
	colorText   = "#d4d4d8"
	colorAmber  = "#fde68a"
	colorRose   = "#fca5a5"
	colorSky    = "#bae6fd"
	colorMint   = "#bbf7d0"
	promptLabel = "otto> "
)

func fg(c string) lipgloss.Style {
	return lipgloss.NewStyle().Foreground(lipgloss.Color(c))
}

var (
	barBg         = fg(colorZinc).Background(lipgloss.Color(colorBar))
	speakingStyle = fg(colorAmber)
	degradedStyle = fg(colorRose)
	idleStyle     = fg(colorMuted).Italic(true)
	labelStyle    = fg(colorZinc)
	sepStyle      = fg(colorRule)
	promptStyle   = fg(colorSlate)

	// BannerStyle colours the startup banner.
	BannerStyle = fg(colorSlate)

	chatStyle      = fg(colorSky)
	stepStyle      = fg(colorMint)
	primaryStyle   = fg(colorText)
	secondaryStyle = fg(colorMuted)
	urgentStyle    = fg(colorRose)
	echoStyle      = fg(colorZinc)
)

// StatusSource is polled for the status bar.
type StatusSource interface {
	Status() voice.Status
}

// ── UI ───────────────────────────────────────────────────────────

// UI owns the terminal while Run is active. Print helpers and InputChan
// are safe from any goroutine once WaitReady has returned.
type UI struct {
	program *tea.Program
	inputCh chan string
	readyCh chan struct{}
	status  StatusSource
	done    atomic.Bool
}

// NewUI creates the display. status may be nil to hide the bar.
func NewUI(status StatusSource) *UI {
	return &UI{
		status:  status,
		inputCh: make(chan string, 16),
		readyCh: make(chan struct{}),
	}
}

// Println prints a line above the prompt, or to stdout when the program
// is not running.
func (u *UI) Println(a ...interface{}) {
	if u.program != nil && !u.done.Load() {
		u.program.Println(a...)
		return
	}
	fmt.Println(a...)
}

// InputChan returns completed user-input lines.
func (u *UI) InputChan() <-chan string { return u.inputCh }

// ── Output ───────────────────────────────────────────────────────

func (u *UI) indented(style lipgloss.Style, text string) {
	u.Println(style.Render("  " + text))
}

// PrintSpoken prints what the voice said, tagged with its source tier.
func (u *UI) PrintSpoken(source domain.Source, text string) {
	u.Println(secondaryStyle.Render(fmt.Sprintf("  [%s] ", source)) + chatStyle.Render(text))
}

// PrintChat prints a conversational line.
func (u *UI) PrintChat(text string) { u.indented(chatStyle, text) }

// PrintStep prints a header such as "Step 2/7".
func (u *UI) PrintStep(text string) { u.indented(stepStyle, text) }

// PrintInstruction prints body text.
func (u *UI) PrintInstruction(text string) { u.indented(primaryStyle, text) }

// PrintHint prints a dimmed line.
func (u *UI) PrintHint(text string) { u.indented(secondaryStyle, text) }

// PrintUrgent prints an error line.
func (u *UI) PrintUrgent(text string) { u.indented(urgentStyle, text) }

// PrintUserInput echoes a submitted command into the scrollback.
func (u *UI) PrintUserInput(text string) {
	u.Println(promptStyle.Render(promptLabel) + echoStyle.Render(text))
}

// WaitReady blocks until the Bubble Tea event loop is running.
func (u *UI) WaitReady() { <-u.readyCh }

// Quit tells Bubble Tea to exit.
func (u *UI) Quit() {
	if u.program != nil {
		u.program.Quit()
	}
}

// Run starts the event loop and blocks until quit.
func (u *UI) Run() error {
	ti := textinput.New()
	// The prompt stays unstyled text: ANSI bytes in it throw off the
	// input's width and scroll offsets.
	ti.Prompt = promptLabel
	ti.PromptStyle = promptStyle
	ti.TextStyle = echoStyle
	ti.Cursor.Style = fg(colorSlate)
	ti.Focus()
	ti.CharLimit = 500
	ti.Width = 60 // resized on the first WindowSizeMsg

	u.program = tea.NewProgram(model{
		status:  u.status,
		input:   ti,
		inputCh: u.inputCh,
		readyCh: u.readyCh,
		echo:    u.PrintUserInput,
	})
	_, err := u.program.Run()
	u.done.Store(true)
	return err
}

// ── Bubble Tea model ─────────────────────────────────────────────

type model struct {
	status  StatusSource
	input   textinput.Model
	inputCh chan<- string
	readyCh chan struct{}
	echo    func(string)
	current voice.Status
	width   int
}

type tickMsg time.Time

// refreshInterval keeps the speaking indicator responsive.
const refreshInterval = 200 * time.Millisecond

func (m model) Init() tea.Cmd {
	ready := m.readyCh
	return tea.Batch(textinput.Blink, tick(), func() tea.Msg {
		close(ready)
		return nil
	})
}

func tick() tea.Cmd {
	return tea.Tick(refreshInterval, func(t time.Time) tea.Msg { return tickMsg(t) })
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC:
			return m, tea.Quit
		case tea.KeyEnter:
			return m.submit()
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		if msg.Width > len(promptLabel) {
			m.input.Width = msg.Width - len(promptLabel)
		}
		return m, nil

	case tickMsg:
		if m.status != nil {
			m.current = m.status.Status()
		}
		return m, tea.Batch(tick(), tea.SetWindowTitle(titleStr(m.current)))
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// submit hands the line to the app. The echo runs as a Cmd, outside
// Update, since Println from inside Update would deadlock.
func (m model) submit() (tea.Model, tea.Cmd) {
	v := m.input.Value()
	m.input.Reset()
	if strings.TrimSpace(v) == "" {
		return m, nil
	}
	m.inputCh <- v
	echo := m.echo
	return m, func() tea.Msg {
		echo(v)
		return nil
	}
}

func (m model) View() string {
	var b strings.Builder

	if m.status != nil {
		b.WriteString(m.renderBar())
		b.WriteByte('\n')
	}

	// Blank line before prompt for visual separation.
	b.WriteByte('\n')
	b.WriteString(m.input.View())
	return b.String()
}

func (m model) renderBar() string {
	var parts []string
	for _, seg := range statusSegments(m.current) {
		parts = append(parts, seg.style.Render(seg.text))
	}

	content := " " + strings.Join(parts, sepStyle.Render("  │  ")) + " "

	w := m.width
	if w <= 0 {
		w = 80
	}
	return barBg.Width(w).Render(content)
}

type segment struct {
	text  string
	style lipgloss.Style
}

// statusSegments lays out the bar: playback, provider, then context.
func statusSegments(s voice.Status) []segment {
	var segs []segment

	switch {
	case s.IsPlaying && s.QueueLength > 0:
		segs = append(segs, segment{fmt.Sprintf("speaking (+%d queued)", s.QueueLength), speakingStyle})
	case s.IsPlaying:
		segs = append(segs, segment{"speaking", speakingStyle})
	default:
		segs = append(segs, segment{"idle", idleStyle})
	}

	switch {
	case s.Degraded:
		segs = append(segs, segment{"voice degraded", degradedStyle})
	case s.ProviderHealthy:
		segs = append(segs, segment{"voice ok", labelStyle})
	default:
		segs = append(segs, segment{"offline voice", idleStyle})
	}

	ctx := string(s.Phase)
	if s.Phase == domain.PhaseActiveTask && s.TotalSteps > 0 {
		ctx = fmt.Sprintf("step %d/%d", s.CurrentStep, s.TotalSteps)
	}
	if s.PersonaID != "" {
		ctx = s.PersonaID + " · " + ctx
	}
	segs = append(segs, segment{ctx, labelStyle})

	if s.ListeningPolicy != "" {
		segs = append(segs, segment{"listening: " + string(s.ListeningPolicy), idleStyle})
	}
	if s.LastPlaybackError != nil {
		segs = append(segs, segment{"audio error", degradedStyle})
	}
	return segs
}

func titleStr(s voice.Status) string {
	if s.IsPlaying {
		return "OttoVoice: speaking"
	}
	return "OttoVoice"
}
