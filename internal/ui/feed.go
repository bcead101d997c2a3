package ui

import (
	"time"

	"github.com/bep/debounce"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/0xlemi/notedrill/internal/engine"
	"github.com/0xlemi/notedrill/internal/pitch"
)

// matchFlashHold is how long the "Matched!" flash survives after the last
// confirmation before the view falls back to listening.
const matchFlashHold = 600 * time.Millisecond

// Feed adapts engine and session callbacks into bubbletea messages. It is
// the only piece that knows both sides, so the engine never imports the UI.
type Feed struct {
	program *tea.Program
	flash   func(f func())
	total   int
}

// NewFeed wires a feed for the given program and sequence length.
func NewFeed(program *tea.Program, total int) *Feed {
	return &Feed{
		program: program,
		flash:   debounce.New(matchFlashHold),
		total:   total,
	}
}

// HandleUpdate is the engine sink. Each confirmed match re-arms the flash
// debouncer; when confirmations go quiet the flash is cleared.
func (f *Feed) HandleUpdate(u engine.Update) {
	f.program.Send(EngineMsg(u))
	if u.Status == engine.Matched {
		f.flash(func() {
			f.program.Send(FlashClearMsg{})
		})
	}
}

// HandleTarget is the session's target-changed callback.
func (f *Feed) HandleTarget(note pitch.Note, index int) {
	f.program.Send(TargetMsg{Note: note, Index: index, Total: f.total})
}

// HandleCompleted is the session's completion callback.
func (f *Feed) HandleCompleted() {
	f.program.Send(CompletedMsg{})
}
