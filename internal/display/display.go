// Package display provides the terminal UI using Bubble Tea.
//
// The [UI] type renders a live race panel (both competitors, the
// commentary feed, a typing indicator and the narration status) above
// an input prompt. Command replies are printed above the rendered area
// via Program.Println so concurrent writes never garble the display.
package display

import (
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/hammamikhairi/moonrace/internal/domain"
)

// ── Styles ───────────────────────────────────────────────────────

var (
	barBg = lipgloss.NewStyle().
		Background(lipgloss.Color("#27272a")).
		Foreground(lipgloss.Color("#a1a1aa"))

	symbolStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#fde68a")).
			Bold(true)

	leaderStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#bbf7d0")).
			Bold(true)

	trackStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#52525b"))

	labelStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#a1a1aa"))

	sepStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#52525b"))

	promptStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#94a3b8"))

	typingStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#71717a")).
			Italic(true)

	// BannerStyle is the muted slate used for the startup banner.
	BannerStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#94a3b8"))

	replyStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#bae6fd"))

	secondaryStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#71717a"))

	urgentOutputStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("#fca5a5"))

	userInputEchoStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("#a1a1aa"))

	toneStyles = map[domain.Tone]lipgloss.Style{
		domain.ToneNeutral: lipgloss.NewStyle().Foreground(lipgloss.Color("#d4d4d8")),
		domain.ToneBullish: lipgloss.NewStyle().Foreground(lipgloss.Color("#86efac")),
		domain.ToneBearish: lipgloss.NewStyle().Foreground(lipgloss.Color("#fca5a5")),
		domain.ToneAlert:   lipgloss.NewStyle().Foreground(lipgloss.Color("#fcd34d")).Bold(true),
	}
)

// ── Sources ──────────────────────────────────────────────────────

// StateSource supplies the race snapshot.
type StateSource interface {
	Snapshot() domain.Snapshot
}

// FeedSource supplies the commentary feed.
type FeedSource interface {
	Messages() []domain.CommentaryMessage
	IsComposing() bool
}

// NarrationSource reports the narration toggle.
type NarrationSource interface {
	Enabled() bool
	IsSupported() bool
	Backend() string
}

// Option configures a UI.
type Option func(*UI)

// WithRefreshInterval sets how often the panel re-reads its sources.
func WithRefreshInterval(d time.Duration) Option {
	return func(u *UI) {
		if d > 0 {
			u.refresh = d
		}
	}
}

// WithPrompt replaces the input prompt text.
func WithPrompt(p string) Option {
	return func(u *UI) { u.prompt = p }
}

// ── UI ───────────────────────────────────────────────────────────

// UI manages the terminal through Bubble Tea.
//
// Call [NewUI] then [UI.Run] (blocking). Other goroutines may
// safely call [UI.Println], [UI.Printf], and read from
// [UI.InputChan] at any time after [UI.WaitReady] returns.
type UI struct {
	program   *tea.Program
	inputCh   chan string
	readyCh   chan struct{}
	quitCh    chan struct{}
	state     StateSource
	feed      FeedSource
	narration NarrationSource
	refresh   time.Duration
	prompt    string
	done      atomic.Bool
}

// NewUI creates the display. Call Run() to start.
func NewUI(state StateSource, feed FeedSource, narration NarrationSource, opts ...Option) *UI {
	u := &UI{
		state:     state,
		feed:      feed,
		narration: narration,
		refresh:   250 * time.Millisecond,
		prompt:    "race> ",
		inputCh:   make(chan string, 16),
		readyCh:   make(chan struct{}),
		quitCh:    make(chan struct{}),
	}
	for _, o := range opts {
		o(u)
	}
	return u
}

// Println prints a line above the panel. Thread-safe. Falls back to
// fmt.Println before the program starts or after it exits.
func (u *UI) Println(a ...interface{}) {
	if u.program != nil && !u.done.Load() {
		u.program.Println(a...)
	} else {
		fmt.Println(a...)
	}
}

// Printf prints formatted text above the panel. Thread-safe.
func (u *UI) Printf(format string, a ...interface{}) {
	if u.program != nil && !u.done.Load() {
		u.program.Printf(format, a...)
	} else {
		fmt.Printf(format, a...)
	}
}

// InputChan returns completed user-input lines.
func (u *UI) InputChan() <-chan string { return u.inputCh }

// PrintReply prints a command reply.
func (u *UI) PrintReply(text string) {
	for _, line := range strings.Split(text, "\n") {
		u.Println(replyStyle.Render("  " + line))
	}
}

// PrintHint prints a secondary/dimmed line.
func (u *UI) PrintHint(text string) {
	u.Println(secondaryStyle.Render("  " + text))
}

// PrintUrgent prints an error line.
func (u *UI) PrintUrgent(text string) {
	u.Println(urgentOutputStyle.Render("  " + text))
}

// PrintUserInput echoes the user's typed command into the scrollback.
func (u *UI) PrintUserInput(text string) {
	p := strings.TrimSpace(u.prompt)
	p = strings.TrimSuffix(p, ">")
	u.Println(promptStyle.Render(p) + secondaryStyle.Render("> ") + userInputEchoStyle.Render(text))
}

// WaitReady blocks until the Bubble Tea event loop is running.
func (u *UI) WaitReady() { <-u.readyCh }

// Quit tells Bubble Tea to exit.
func (u *UI) Quit() {
	if u.program != nil {
		u.program.Quit()
	}
}

// QuitChan is closed when Run returns.
func (u *UI) QuitChan() <-chan struct{} { return u.quitCh }

// Run starts the Bubble Tea event loop. Blocks until quit.
func (u *UI) Run() error {
	ti := textinput.New()
	// Plain-text prompt: styled prompts add ANSI bytes that break the
	// textinput width math.
	ti.Prompt = u.prompt
	ti.PromptStyle = promptStyle
	ti.TextStyle = userInputEchoStyle
	ti.Cursor.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("#94a3b8"))
	ti.Focus()
	ti.CharLimit = 200
	ti.Width = 60 // updated on first WindowSizeMsg

	m := model{
		ui:      u,
		input:   ti,
		inputCh: u.inputCh,
		readyCh: u.readyCh,
		echoFn:  u.PrintUserInput,
	}
	m.refreshView()

	u.program = tea.NewProgram(m)
	_, err := u.program.Run()
	u.done.Store(true)
	close(u.quitCh)
	return err
}

// ── Bubble Tea model ─────────────────────────────────────────────

type model struct {
	ui      *UI
	input   textinput.Model
	inputCh chan<- string
	readyCh chan struct{}
	echoFn  func(string)
	view    panel
	width   int
}

// panel is everything the View needs, captured on each refresh.
type panel struct {
	snapshot  domain.Snapshot
	messages  []domain.CommentaryMessage
	composing bool
	narration narrationInfo
}

type narrationInfo struct {
	enabled   bool
	supported bool
	backend   string
}

type tickMsg time.Time

func (m model) Init() tea.Cmd {
	return tea.Batch(
		textinput.Blink,
		m.tickCmd(),
		signalReady(m.readyCh),
	)
}

func signalReady(ch chan struct{}) tea.Cmd {
	return func() tea.Msg {
		close(ch)
		return nil
	}
}

func (m model) tickCmd() tea.Cmd {
	return tea.Tick(m.ui.refresh, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC:
			return m, tea.Quit
		case tea.KeyEnter:
			v := m.input.Value()
			m.input.Reset()
			if strings.TrimSpace(v) != "" {
				m.inputCh <- v
				echoFn := m.echoFn
				return m, func() tea.Msg {
					echoFn(v)
					return nil
				}
			}
			return m, nil
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		promptLen := lipgloss.Width(m.input.Prompt)
		if msg.Width > promptLen {
			m.input.Width = msg.Width - promptLen
		}
		return m, nil

	case tickMsg:
		m.refreshView()
		return m, tea.Batch(m.tickCmd(), tea.SetWindowTitle(titleStr(m.view.snapshot)))
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m *model) refreshView() {
	u := m.ui
	if u.state != nil {
		m.view.snapshot = u.state.Snapshot()
	}
	if u.feed != nil {
		m.view.messages = u.feed.Messages()
		m.view.composing = u.feed.IsComposing()
	}
	if u.narration != nil {
		m.view.narration = narrationInfo{
			enabled:   u.narration.Enabled(),
			supported: u.narration.IsSupported(),
			backend:   u.narration.Backend(),
		}
	}
}

func (m model) View() string {
	w := m.width
	if w <= 0 {
		w = 80
	}

	var b strings.Builder
	b.WriteString(renderBar(m.view, w))
	b.WriteByte('\n')
	b.WriteString(renderCompetitors(m.view.snapshot, w))
	b.WriteByte('\n')
	b.WriteString(renderFeed(m.view.messages, m.view.composing, w))
	b.WriteString("\n\n")
	b.WriteString(m.input.View())
	return b.String()
}

// ── Rendering ────────────────────────────────────────────────────

func raceTitle(s domain.Snapshot) string {
	return strings.ToUpper(s.Competitors[0].Symbol) + " vs " + strings.ToUpper(s.Competitors[1].Symbol)
}

func titleStr(s domain.Snapshot) string {
	l := s.Leader()
	return fmt.Sprintf("MoonRace: %s | %s leads at %.1f%%", raceTitle(s), l.Symbol, l.State.Position)
}

func renderBar(p panel, width int) string {
	parts := []string{
		labelStyle.Render(raceTitle(p.snapshot)),
		labelStyle.Render(fmt.Sprintf("tick %d", p.snapshot.Tick)),
		labelStyle.Render(narrationLabel(p.narration)),
	}
	content := " " + strings.Join(parts, sepStyle.Render("  │  ")) + " "
	return barBg.Width(width).Render(content)
}

func narrationLabel(n narrationInfo) string {
	switch {
	case !n.supported:
		return "voice: unavailable"
	case n.enabled:
		return "voice: on (" + n.backend + ")"
	default:
		return "voice: off"
	}
}

func renderCompetitors(s domain.Snapshot, width int) string {
	leader := s.Leader().Symbol
	var lines []string
	for _, c := range s.Competitors {
		lines = append(lines, renderCompetitor(c, c.Symbol == leader, width))
	}
	return strings.Join(lines, "\n")
}

func renderCompetitor(c domain.Competitor, leading bool, width int) string {
	name := symbolStyle.Render(fmt.Sprintf("%-5s", c.Symbol))
	if leading {
		name = leaderStyle.Render(fmt.Sprintf("%-5s", c.Symbol))
	}
	stats := fmt.Sprintf(" %5.1f%%  odds %4.1f%%  vol %s", c.State.Position, c.State.Odds, fmtVolume(c.State.Volume))

	trackW := width - 6 - lipgloss.Width(stats) - 2
	if trackW < 10 {
		trackW = 10
	}
	return " " + name + trackStyle.Render(track(c.State.Position, trackW)) + labelStyle.Render(stats)
}

// track draws a horizontal lane with a marker at pos percent.
func track(pos float64, width int) string {
	if width < 2 {
		width = 2
	}
	if pos < 0 {
		pos = 0
	}
	if pos > 100 {
		pos = 100
	}
	at := int(pos / 100 * float64(width-1))
	return strings.Repeat("━", at) + "●" + strings.Repeat("─", width-1-at)
}

func renderFeed(msgs []domain.CommentaryMessage, composing bool, width int) string {
	var b strings.Builder
	for i, msg := range msgs {
		if i > 0 {
			b.WriteByte('\n')
		}
		style, ok := toneStyles[msg.Tone]
		if !ok {
			style = toneStyles[domain.ToneNeutral]
		}
		line := msg.CreatedAt.Format("15:04:05") + "  " + msg.Text
		if w := width - 2; w > 0 && lipgloss.Width(line) > w {
			line = truncateWidth(line, w)
		}
		b.WriteString(" " + style.Render(line))
	}
	if composing {
		if len(msgs) > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(" " + typingStyle.Render("commentator is typing..."))
	}
	return b.String()
}

// ── Helpers ──────────────────────────────────────────────────────

func truncateWidth(s string, w int) string {
	r := []rune(s)
	for len(r) > 0 && lipgloss.Width(string(r))+1 > w {
		r = r[:len(r)-1]
	}
	return string(r) + "…"
}

// fmtVolume renders a volume like $1.25M or $980K.
func fmtVolume(v float64) string {
	switch {
	case v >= 1_000_000:
		return fmt.Sprintf("$%.2fM", v/1_000_000)
	case v >= 1_000:
		return fmt.Sprintf("$%.0fK", v/1_000)
	default:
		return fmt.Sprintf("$%.0f", v)
	}
}
