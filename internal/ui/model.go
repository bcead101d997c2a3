package ui

import (
	"fmt"
	"log/slog"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/0xlemi/notedrill/internal/engine"
	"github.com/0xlemi/notedrill/internal/pitch"
	"github.com/0xlemi/notedrill/internal/session"
)

var (
	// Styles
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4")).
			PaddingLeft(2).
			PaddingRight(2).
			MarginBottom(1)

	infoStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#CCCCCC"))

	matchStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#00FF00"))

	errStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FF5555"))

	hintStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#999999"))

	// Note colors
	noteColors = map[string]string{
		"C": "#E8D6B0", // Beige
		"D": "#A020F0", // Purple
		"E": "#FFFF00", // Yellow
		"F": "#FFA500", // Orange
		"G": "#00FF00", // Green
		"A": "#FF0000", // Red
		"B": "#0000FF", // Blue
	}
)

// Returns a style for a note (sharps get split color treatment in View)
func getNoteStyle(noteName string) lipgloss.Style {
	if strings.HasSuffix(noteName, "#") {
		return lipgloss.NewStyle().Bold(true).MarginBottom(1)
	}
	return lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("#FAFAFA")).
		Background(lipgloss.Color(noteColors[noteName])).
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("#333333")).
		Padding(1, 3).
		MarginBottom(1)
}

// Get the next natural note up (for sharp note colors)
func getNextNote(note string) string {
	switch note {
	case "C":
		return "D"
	case "D":
		return "E"
	case "E":
		return "F"
	case "F":
		return "G"
	case "G":
		return "A"
	case "A":
		return "B"
	case "B":
		return "C"
	default:
		return "C"
	}
}

// Messages fed into the model by the session callbacks and the engine sink.
type (
	// TargetMsg announces a new current target.
	TargetMsg struct {
		Note  pitch.Note
		Index int
		Total int
	}

	// CompletedMsg announces the sequence finished.
	CompletedMsg struct{}

	// EngineMsg carries one per-tick pipeline update.
	EngineMsg engine.Update

	// FlashClearMsg reverts the matched flash back to listening.
	FlashClearMsg struct{}
)

// Model renders the practice session: target note card, listening status,
// cents meter, and the fingering hint row.
type Model struct {
	practice  *session.Practice
	chart     FingeringChart
	length    int
	tolerance float64
	logger    *slog.Logger

	target     *pitch.Note
	index      int
	total      int
	update     engine.Update
	flash      bool
	completed  bool
	captureErr error
	showHints  bool
	width      int
	height     int
}

// NewModel creates the UI model. tolerance is the judge's matching tolerance
// in cents, used to scale the cents meter. Invalid session transitions are
// logged and ignored.
func NewModel(practice *session.Practice, chart FingeringChart, length int, tolerance float64, showHints bool, logger *slog.Logger) Model {
	if logger == nil {
		logger = slog.Default()
	}
	if tolerance <= 0 {
		tolerance = pitch.DefaultToleranceCents
	}
	return Model{
		practice:  practice,
		chart:     chart,
		length:    length,
		tolerance: tolerance,
		showHints: showHints,
		logger:    logger,
	}
}

// Init kicks off the first practice round. Session transitions fire
// callbacks that Send messages back into the program, and Send blocks until
// the event loop is live, so the session must only ever be started from a
// command, never before Run.
func (m Model) Init() tea.Cmd {
	return m.startRound
}

func (m Model) startRound() tea.Msg {
	if err := m.practice.Start(m.length); err != nil {
		m.logger.Warn("ui: start failed", "err", err)
	}
	return nil
}

// skip and restart run as commands for the same reason as startRound: their
// callbacks Send into the program, and the event loop cannot receive while
// it is still executing Update.
func (m Model) skip() tea.Msg {
	if err := m.practice.Skip(); err != nil {
		m.logger.Warn("ui: skip ignored", "err", err)
	}
	return nil
}

func (m Model) restart() tea.Msg {
	m.practice.Stop()
	if err := m.practice.Start(m.length); err != nil {
		m.logger.Warn("ui: restart failed", "err", err)
	}
	return nil
}

// Update handles key presses and engine/session messages.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			m.practice.Stop()
			return m, tea.Quit

		case "s":
			return m, m.skip

		case "r":
			m.completed = false
			m.captureErr = nil
			return m, m.restart

		case "h":
			m.showHints = !m.showHints
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

	case TargetMsg:
		note := msg.Note
		m.target = &note
		m.index = msg.Index
		m.total = msg.Total
		m.completed = false

	case CompletedMsg:
		m.target = nil
		m.completed = true
		m.flash = false

	case EngineMsg:
		m.update = engine.Update(msg)
		if m.update.Err != nil {
			m.captureErr = m.update.Err
		}
		if m.update.Status == engine.Matched {
			m.flash = true
		}

	case FlashClearMsg:
		m.flash = false
	}

	return m, nil
}

// View renders the UI.
func (m Model) View() string {
	s := titleStyle.Render("NoteDrill - Pitch Practice")
	s += "\n"

	switch {
	case m.captureErr != nil:
		s += errStyle.Render("Microphone unavailable")
		s += "\n"
		s += infoStyle.Render(fmt.Sprintf("%v", m.captureErr))
		s += "\n"
		s += infoStyle.Render("Check input permissions/device, then press r to try again")

	case m.completed:
		s += matchStyle.Render("Sequence complete!")
		s += "\n"
		s += infoStyle.Render("Press r to practice another round")

	case m.target != nil:
		s += m.renderTarget()
		s += "\n"
		s += m.renderStatus()
		if m.showHints {
			if hint, ok := m.chart.Hint(*m.target); ok {
				s += "\n"
				s += hintStyle.Render("Fingering: " + hint)
			}
		}

	default:
		s += infoStyle.Render("Press r to start a practice round")
	}

	s += "\n\n"
	s += infoStyle.Render("s: skip  r: restart  h: hints  q: quit")
	return s
}

func (m Model) renderTarget() string {
	note := *m.target
	noteText := note.ID()
	s := infoStyle.Render(fmt.Sprintf("Target %d/%d", m.index+1, m.total))
	s += "\n"

	// For sharps, render the note with split colors
	if strings.HasSuffix(note.Name, "#") {
		baseNote := string(note.Name[0])
		nextNote := getNextNote(baseNote)

		leftStyle := lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color(noteColors[baseNote])).
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#333333")).
			BorderLeft(true).
			BorderTop(true).
			BorderBottom(true).
			BorderRight(false).
			Padding(1, 1, 1, 2)

		rightStyle := lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color(noteColors[nextNote])).
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#333333")).
			BorderLeft(false).
			BorderTop(true).
			BorderBottom(true).
			BorderRight(true).
			Padding(1, 2, 1, 1)

		s += leftStyle.Render(string(noteText[0])) + rightStyle.Render(noteText[1:])
	} else {
		s += getNoteStyle(note.Name).Render(noteText)
	}

	s += "\n"
	s += infoStyle.Render(fmt.Sprintf("%.2f Hz", note.Frequency))
	return s
}

func (m Model) renderStatus() string {
	if m.flash {
		return matchStyle.Render("Matched!")
	}

	u := m.update
	if !u.Estimate.Voiced {
		return infoStyle.Render("Listening...")
	}

	meter := centsMeter(u.Cents, m.tolerance)
	line := fmt.Sprintf("%.1f Hz  %+.0f cents  %s", u.Estimate.Frequency, u.Cents, meter)
	if u.Stability > 0 {
		line += fmt.Sprintf("  hold %d", u.Stability)
	}
	return infoStyle.Render(line)
}

// centsMeter draws a small flat/sharp gauge around the target, full scale
// at twice the matching tolerance.
func centsMeter(cents, tolerance float64) string {
	const width = 11 // odd, center cell is the target
	full := 2 * tolerance
	pos := int((cents/full + 0.5) * float64(width-1))
	if pos < 0 {
		pos = 0
	}
	if pos > width-1 {
		pos = width - 1
	}

	var b strings.Builder
	b.WriteString("♭ ")
	for i := 0; i < width; i++ {
		switch {
		case i == pos:
			b.WriteString("●")
		case i == width/2:
			b.WriteString("|")
		default:
			b.WriteString("-")
		}
	}
	b.WriteString(" ♯")
	return b.String()
}
