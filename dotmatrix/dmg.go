package dotmatrix

import (
	"github.com/pvallone/go-dotmatrix/dotmatrix/addr"
	"github.com/pvallone/go-dotmatrix/dotmatrix/cpu"
	"github.com/pvallone/go-dotmatrix/dotmatrix/debug"
	"github.com/pvallone/go-dotmatrix/dotmatrix/input"
	"github.com/pvallone/go-dotmatrix/dotmatrix/memory"
	"github.com/pvallone/go-dotmatrix/dotmatrix/video"
)

// CyclesPerFrame is the fixed number of T-states the frame driver advances
// per frame.
const CyclesPerFrame = video.FrameCycles

// DMG is the emulator engine: it owns every component and is the only thing
// that advances them. The CPU mutates the bus, then the timer and PPU
// observe the step's cycle cost; interrupts they raise become visible to
// the CPU on the next step.
//
// A DMG is not safe for concurrent use; the host interacts with it between
// frames only.
type DMG struct {
	cpu *cpu.CPU
	mmu *memory.MMU
	ppu *video.PPU

	// residual carries frame-loop overshoot so long-run timing stays exact.
	residual int
}

// New creates an engine with an empty cartridge slot.
func New() *DMG {
	return newWithMMU(memory.New())
}

// NewWithROM validates the ROM image and creates an engine with it loaded.
func NewWithROM(data []byte) (*DMG, error) {
	cart, err := memory.LoadCartridge(data)
	if err != nil {
		return nil, err
	}
	return newWithMMU(memory.NewWithCartridge(cart)), nil
}

func newWithMMU(mmu *memory.MMU) *DMG {
	d := &DMG{mmu: mmu}
	d.ppu = video.New(mmu)
	d.cpu = cpu.New(mmu)
	return d
}

// RunFrame advances the engine by one frame's worth of cycles, interleaving
// CPU steps with timer and PPU ticks. On a fatal CPU fault (an undefined
// opcode) the frame is abandoned and the error returned.
func (d *DMG) RunFrame() error {
	cycles := d.residual

	for cycles < CyclesPerFrame {
		stepCycles, err := d.cpu.Step()
		if err != nil {
			return err
		}

		d.mmu.Tick(stepCycles)
		d.ppu.Tick(stepCycles)

		cycles += stepCycles
	}

	d.residual = cycles - CyclesPerFrame
	return nil
}

// Framebuffer returns the engine's output buffer. It is updated in place as
// scanlines render; hosts should read it between frames.
func (d *DMG) Framebuffer() *video.FrameBuffer {
	return d.ppu.Framebuffer()
}

// HandleButton feeds one press/release edge into the joypad.
func (d *DMG) HandleButton(button input.Button, pressed bool) {
	key := buttonKeys[button]
	if pressed {
		d.mmu.HandleKeyPress(key)
	} else {
		d.mmu.HandleKeyRelease(key)
	}
}

// HandleEvent feeds one input event into the joypad.
func (d *DMG) HandleEvent(event input.Event) {
	d.HandleButton(event.Button, event.Pressed)
}

// buttonKeys maps the host-facing button identifiers onto joypad keys.
var buttonKeys = map[input.Button]memory.Key{
	input.ButtonA:      memory.KeyA,
	input.ButtonB:      memory.KeyB,
	input.ButtonSelect: memory.KeySelect,
	input.ButtonStart:  memory.KeyStart,
	input.ButtonUp:     memory.KeyUp,
	input.ButtonDown:   memory.KeyDown,
	input.ButtonLeft:   memory.KeyLeft,
	input.ButtonRight:  memory.KeyRight,
}

// Snapshot returns a read-only dump of registers and interrupt state.
func (d *DMG) Snapshot() debug.Snapshot {
	return debug.Snapshot{
		A: d.cpu.A(), F: d.cpu.F(),
		B: d.cpu.B(), C: d.cpu.C(),
		D: d.cpu.D(), E: d.cpu.E(),
		H: d.cpu.H(), L: d.cpu.L(),
		SP:     d.cpu.SP(),
		PC:     d.cpu.PC(),
		IME:    d.cpu.IME(),
		Halted: d.cpu.Halted(),
		IF:     d.mmu.Read(addr.IF),
		IE:     d.mmu.Read(addr.IE),
		Cycles: d.cpu.Cycles(),
	}
}

// DumpMemory copies length bytes starting at start through the bus, for
// debugger-style inspection of VRAM, HRAM or any other region. Ranges that
// leave the address space are rejected with a *debug.RangeError.
func (d *DMG) DumpMemory(start uint16, length int) ([]byte, error) {
	if length < 0 || int(start)+length > 0x10000 {
		return nil, &debug.RangeError{Start: start, Length: length}
	}

	out := make([]byte, length)
	for i := range out {
		out[i] = d.mmu.Read(start + uint16(i))
	}
	return out, nil
}
