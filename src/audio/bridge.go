package audio

import (
	"log"
	"strconv"
	"sync/atomic"
)

// ----- Note events ----- //

const (
	eventNoteOn = iota
	eventNoteOff
	eventAllOff
)

// noteEvent is stamped with the sample index it should land on inside the
// next buffer, measured from the previous Read.
type noteEvent struct {
	kind     int
	note     int
	velocity float64
	index    int
}

func (e *Engine) stampIndex() int {
	offset := now() - e.loadLastRead()
	index := int(offset / secPerSample)
	if index < 0 {
		index = 0
	} else if index >= samplesPerCycle {
		index = samplesPerCycle - 1
	}
	return index
}

func (e *Engine) pushEvent(ev noteEvent) {
	select {
	case e.events <- ev:
	default:
		atomic.AddUint64(&e.droppedEvents, 1)
	}
}

// NoteOn schedules a note start. Velocity is MIDI range; zero is treated as
// a note off, matching the wire convention.
func (e *Engine) NoteOn(note int, velocity int) {
	if note < 0 || note > 127 {
		return
	}
	if velocity <= 0 {
		e.NoteOff(note)
		return
	}
	if velocity > 127 {
		velocity = 127
	}
	e.pushEvent(noteEvent{
		kind:     eventNoteOn,
		note:     note,
		velocity: float64(velocity) / 127,
		index:    e.stampIndex(),
	})
}

// NoteOff ...
func (e *Engine) NoteOff(note int) {
	if note < 0 || note > 127 {
		return
	}
	e.pushEvent(noteEvent{kind: eventNoteOff, note: note, index: e.stampIndex()})
}

// AllNotesOff releases every held voice through their release stage.
func (e *Engine) AllNotesOff() {
	e.pushEvent(noteEvent{kind: eventAllOff, index: e.stampIndex()})
}

// PitchBend takes the bend position in -1..1.
func (e *Engine) PitchBend(value float64) {
	e.store.set(paramPitchBend, value)
}

// Aftertouch takes channel pressure in 0..1.
func (e *Engine) Aftertouch(value float64) {
	e.store.set(paramAftertouch, value)
}

// HandleMidiMessage consumes one raw MIDI message.
func (e *Engine) HandleMidiMessage(data []byte) {
	if len(data) == 0 {
		return
	}
	switch data[0] >> 4 {
	case 8:
		if len(data) >= 2 {
			e.NoteOff(int(data[1]))
		}
	case 9:
		if len(data) >= 3 {
			e.NoteOn(int(data[1]), int(data[2]))
		}
	case 13:
		if len(data) >= 2 {
			e.Aftertouch(float64(data[1]) / 127)
		}
	case 14:
		if len(data) >= 3 {
			raw := int(data[2])<<7 | int(data[1])
			e.PitchBend(float64(raw-8192) / 8192)
		}
	}
}

// ----- Command channel ----- //

func (e *Engine) processCommands() {
	for command := range e.CommandCh {
		if err := e.update(command); err != nil {
			log.Printf("command %v failed: %v\n", command, err)
		}
	}
	log.Println("processCommands() ended.")
}

func (e *Engine) update(command []string) error {
	if len(command) == 0 {
		return nil
	}
	switch command[0] {
	case "set":
		if len(command) != 3 {
			return errInvalidCommand(command)
		}
		value, err := strconv.ParseFloat(command[2], 64)
		if err != nil {
			return err
		}
		_, err = e.SetParameter(command[1], value)
		return err
	case "note_on":
		if len(command) < 2 {
			return errInvalidCommand(command)
		}
		note, err := strconv.ParseInt(command[1], 10, 32)
		if err != nil {
			return err
		}
		velocity := int64(100)
		if len(command) >= 3 {
			velocity, err = strconv.ParseInt(command[2], 10, 32)
			if err != nil {
				return err
			}
		}
		e.NoteOn(int(note), int(velocity))
	case "note_off":
		if len(command) != 2 {
			return errInvalidCommand(command)
		}
		note, err := strconv.ParseInt(command[1], 10, 32)
		if err != nil {
			return err
		}
		e.NoteOff(int(note))
	case "all_notes_off":
		e.AllNotesOff()
	case "route_add":
		if len(command) < 4 {
			return errInvalidCommand(command)
		}
		depth, err := strconv.ParseFloat(command[3], 64)
		if err != nil {
			return err
		}
		unipolar := len(command) >= 5 && command[4] == "unipolar"
		return e.AddRoute(command[1], command[2], depth, unipolar)
	case "route_remove":
		if len(command) != 2 {
			return errInvalidCommand(command)
		}
		index, err := strconv.ParseInt(command[1], 10, 32)
		if err != nil {
			return err
		}
		return e.RemoveRoute(int(index))
	case "route_clear":
		e.matrix.clear()
	case "preset_save":
		if len(command) != 2 {
			return errInvalidCommand(command)
		}
		return e.SavePreset(command[1])
	case "preset_load":
		if len(command) != 2 {
			return errInvalidCommand(command)
		}
		return e.LoadPreset(command[1])
	default:
		return errInvalidCommand(command)
	}
	return nil
}

type commandError struct {
	command []string
}

func (err *commandError) Error() string {
	return "invalid command: " + strconv.Quote(joinCommand(err.command))
}

func errInvalidCommand(command []string) error {
	return &commandError{command: command}
}

func joinCommand(command []string) string {
	s := ""
	for i, part := range command {
		if i > 0 {
			s += " "
		}
		s += part
	}
	return s
}
