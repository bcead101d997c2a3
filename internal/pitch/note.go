package pitch

import (
	"errors"
	"fmt"
	"math"
)

// Errors
var (
	ErrUnknownNote  = errors.New("unknown note identifier")
	ErrEmptyCatalog = errors.New("catalog has no notes")
)

// Supported fundamental range for a monophonic sustained tone.
const (
	MinFrequency = 80.0
	MaxFrequency = 2000.0
)

// All note names in chromatic order
var noteNames = []string{"C", "C#", "D", "D#", "E", "F", "F#", "G", "G#", "A", "A#", "B"}

var semitones = map[string]int{
	"C": 0, "C#": 1, "D": 2, "D#": 3, "E": 4, "F": 5,
	"F#": 6, "G": 7, "G#": 8, "A": 9, "A#": 10, "B": 11,
}

// Note is a target pitch with its equal-temperament fundamental.
// Notes are immutable; the catalog is built once at startup.
type Note struct {
	Name      string  // e.g. "A", "A#"
	Octave    int     // e.g. 4 for middle C (C4)
	MIDI      int     // MIDI pitch number, A4 = 69
	Frequency float64 // Frequency in Hz
}

// ID returns the note identifier, e.g. "C#4".
func (n Note) ID() string {
	return fmt.Sprintf("%s%d", n.Name, n.Octave)
}

// MIDIToFrequency converts a MIDI pitch number to its fundamental
// frequency: 440 * 2^((midi-69)/12).
func MIDIToFrequency(midi int) float64 {
	return 440.0 * math.Pow(2, float64(midi-69)/12)
}

// NoteFromMIDI builds the Note for a MIDI pitch number.
func NoteFromMIDI(midi int) Note {
	idx := midi % 12
	if idx < 0 {
		idx += 12
	}
	return Note{
		Name:      noteNames[idx],
		Octave:    midi/12 - 1,
		MIDI:      midi,
		Frequency: MIDIToFrequency(midi),
	}
}

// ParseNote resolves an identifier like "A4" or "C#5" to its Note.
func ParseNote(id string) (Note, error) {
	if len(id) < 2 {
		return Note{}, fmt.Errorf("%w: %q", ErrUnknownNote, id)
	}
	name := id[:len(id)-1]
	octChar := id[len(id)-1]
	octave := int(octChar - '0')
	if octave < 0 || octave > 9 {
		return Note{}, fmt.Errorf("%w: %q", ErrUnknownNote, id)
	}
	val, ok := semitones[name]
	if !ok {
		return Note{}, fmt.Errorf("%w: %q", ErrUnknownNote, id)
	}
	midi := (octave+1)*12 + val
	return NoteFromMIDI(midi), nil
}

// Catalog is the fixed set of notes a practice sequence draws from.
// Construction validates every identifier; lookups after that cannot fail
// silently with a default.
type Catalog struct {
	notes  []Note
	byName map[string]Note
}

// NewCatalog builds a catalog from note identifiers. Unknown identifiers
// and notes outside the supported frequency band are construction errors.
func NewCatalog(ids ...string) (*Catalog, error) {
	if len(ids) == 0 {
		return nil, ErrEmptyCatalog
	}

	c := &Catalog{
		notes:  make([]Note, 0, len(ids)),
		byName: make(map[string]Note, len(ids)),
	}
	for _, id := range ids {
		n, err := ParseNote(id)
		if err != nil {
			return nil, err
		}
		if n.Frequency < MinFrequency || n.Frequency > MaxFrequency {
			return nil, fmt.Errorf("note %s (%.1f Hz) outside supported band %g-%g Hz",
				n.ID(), n.Frequency, MinFrequency, MaxFrequency)
		}
		c.notes = append(c.notes, n)
		c.byName[n.ID()] = n
	}
	return c, nil
}

// DefaultCatalog covers one chromatic octave from C4 to C5, the beginner
// range this trainer targets.
func DefaultCatalog() *Catalog {
	ids := make([]string, 0, 13)
	for midi := 60; midi <= 72; midi++ { // C4..C5
		ids = append(ids, NoteFromMIDI(midi).ID())
	}
	c, err := NewCatalog(ids...)
	if err != nil {
		// The fixed range above is always valid.
		panic(err)
	}
	return c
}

// Notes returns the catalog contents in order.
func (c *Catalog) Notes() []Note {
	out := make([]Note, len(c.notes))
	copy(out, c.notes)
	return out
}

// ByID looks up a note by identifier.
func (c *Catalog) ByID(id string) (Note, bool) {
	n, ok := c.byName[id]
	return n, ok
}

// Len returns the number of notes in the catalog.
func (c *Catalog) Len() int {
	return len(c.notes)
}

// At returns the note at position i.
func (c *Catalog) At(i int) Note {
	return c.notes[i]
}
