package memory

import "github.com/pvallone/go-dotmatrix/dotmatrix/bit"

// Key identifies one of the eight joypad inputs.
type Key uint8

const (
	KeyRight Key = iota
	KeyLeft
	KeyUp
	KeyDown
	KeyA
	KeyB
	KeySelect
	KeyStart
)

// Joypad tracks button state and composes the P1 register value.
//
// The hardware register is just a selector: the CPU writes bits 4-5 to pick
// which button group is visible on bits 0-3, with 0 meaning "selected" and,
// on the button lines, 0 meaning "pressed".
type Joypad struct {
	directions uint8 // Right, Left, Up, Down on bits 0-3, 0 = pressed
	actions    uint8 // A, B, Select, Start on bits 0-3, 0 = pressed
	selection  uint8 // bits 4-5 as last written by the CPU

	// RequestInterrupt is invoked when a pressed button's line falls from
	// 1 to 0. Installed by the MMU.
	RequestInterrupt func()
}

// NewJoypad returns a joypad with nothing pressed and both groups selected.
func NewJoypad() *Joypad {
	return &Joypad{
		directions: 0x0F,
		actions:    0x0F,
	}
}

// Write stores the selection bits of a CPU write to P1. Only bits 4-5 are
// writable; everything else is dropped.
func (j *Joypad) Write(value byte) {
	j.selection = value & 0x30
}

// Read composes the P1 value: bits 7-6 always 1, bits 5-4 echo the selection
// mask, bits 3-0 are the AND of the selected button groups. An unselected
// group contributes all ones; with neither group selected the lines float
// high.
func (j *Joypad) Read() byte {
	result := uint8(0xC0) | j.selection

	selectDirections := !bit.IsSet(4, j.selection)
	selectActions := !bit.IsSet(5, j.selection)

	switch {
	case selectDirections && selectActions:
		result |= j.directions & j.actions & 0x0F
	case selectDirections:
		result |= j.directions & 0x0F
	case selectActions:
		result |= j.actions & 0x0F
	default:
		result |= 0x0F
	}

	return result
}

// Press records a key press. A line falling from 1 to 0 requests the joypad
// interrupt; holding a key does not retrigger it.
func (j *Joypad) Press(key Key) {
	group, index := j.locate(key)
	wasHigh := bit.IsSet(index, *group)
	*group = bit.Reset(index, *group)

	if wasHigh && j.RequestInterrupt != nil {
		j.RequestInterrupt()
	}
}

// Release records a key release. Releases never raise interrupts.
func (j *Joypad) Release(key Key) {
	group, index := j.locate(key)
	*group = bit.Set(index, *group)
}

func (j *Joypad) locate(key Key) (*uint8, uint8) {
	if key <= KeyDown {
		return &j.directions, uint8(key)
	}
	return &j.actions, uint8(key - KeyA)
}
