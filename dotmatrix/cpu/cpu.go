package cpu

import (
	"fmt"

	"github.com/pvallone/go-dotmatrix/dotmatrix/addr"
	"github.com/pvallone/go-dotmatrix/dotmatrix/bit"
)

// Bus provides the memory interface the CPU executes against.
type Bus interface {
	Read(address uint16) byte
	Write(address uint16, value byte)
}

// Flag is one of the 4 flags in the flag register (low byte of AF).
type Flag uint8

const (
	zeroFlag      Flag = 0x80
	subFlag       Flag = 0x40
	halfCarryFlag Flag = 0x20
	carryFlag     Flag = 0x10
)

const dispatchCycles = 20

// OpcodeError reports decode of an officially undefined opcode. These have
// no defined behavior on hardware, so execution cannot continue.
type OpcodeError struct {
	Opcode uint8
	PC     uint16
}

func (e *OpcodeError) Error() string {
	return fmt.Sprintf("illegal opcode 0x%02X at 0x%04X", e.Opcode, e.PC)
}

// CPU is the SM83 interpreter state.
type CPU struct {
	// registers
	a  uint8
	f  uint8
	b  uint8
	c  uint8
	d  uint8
	e  uint8
	h  uint8
	l  uint8
	sp uint16
	pc uint16

	ime      bool
	imeDelay int // EI enables IME after the following instruction
	halted   bool
	stopped  bool
	cycles   uint64

	bus Bus
}

// New returns a CPU in the post-boot state, with the post-boot I/O register
// defaults written through the bus.
func New(bus Bus) *CPU {
	initializeRegisters(bus)

	cpu := &CPU{bus: bus}
	cpu.setAF(0x01B0)
	cpu.setBC(0x0013)
	cpu.setDE(0x00D8)
	cpu.setHL(0x014D)
	cpu.sp = 0xFFFE
	cpu.pc = 0x0100

	return cpu
}

// initializeRegisters writes the I/O register values the boot ROM leaves
// behind. The engine skips boot ROM execution entirely and starts here.
func initializeRegisters(bus Bus) {
	bus.Write(addr.P1, 0xCF)
	bus.Write(addr.TIMA, 0x00)
	bus.Write(addr.TMA, 0x00)
	bus.Write(addr.TAC, 0x00)
	bus.Write(addr.LCDC, 0x91)
	bus.Write(addr.SCY, 0x00)
	bus.Write(addr.SCX, 0x00)
	bus.Write(addr.LYC, 0x00)
	bus.Write(addr.BGP, 0xFC)
	bus.Write(addr.OBP0, 0xFF)
	bus.Write(addr.OBP1, 0xFF)
	bus.Write(addr.WY, 0x00)
	bus.Write(addr.WX, 0x00)
	bus.Write(addr.IF, 0x00)
	bus.Write(addr.IE, 0x00)
}

// Step executes the next observable unit and returns its cost in T-states.
// A step is one of: interrupt dispatch, an idle tick while halted, or one
// decoded instruction. Decoding an undefined opcode returns an *OpcodeError
// and leaves the CPU at the faulting address.
func (c *CPU) Step() (int, error) {
	if c.halted {
		if c.pendingInterrupts() == 0 {
			c.cycles += 4
			return 4, nil
		}
		// A pending interrupt wakes the CPU even with IME clear; whether it
		// is serviced is decided below like on any running step.
		c.halted = false
	}

	if c.ime && c.pendingInterrupts() != 0 {
		return c.dispatchInterrupt(), nil
	}

	opcode := c.bus.Read(c.pc)

	if opcode == 0xCB {
		c.pc += 2
		cycles := execCB(c, c.bus.Read(c.pc-1))
		c.finishInstruction(cycles)
		return cycles, nil
	}

	handler := opcodes[opcode]
	if handler == nil {
		return 0, &OpcodeError{Opcode: opcode, PC: c.pc}
	}

	c.pc++
	cycles := handler(c)
	c.finishInstruction(cycles)
	return cycles, nil
}

func (c *CPU) finishInstruction(cycles int) {
	c.cycles += uint64(cycles)

	// EI takes effect after the instruction that follows it: the counter is
	// set to 2 by EI itself and IME turns on once it reaches zero.
	if c.imeDelay > 0 {
		c.imeDelay--
		if c.imeDelay == 0 {
			c.ime = true
		}
	}
}

// pendingInterrupts returns the interrupts that are both requested and
// enabled.
func (c *CPU) pendingInterrupts() uint8 {
	return c.bus.Read(addr.IF) & c.bus.Read(addr.IE) & 0x1F
}

// dispatchInterrupt services the highest-priority pending interrupt:
// IME off, acknowledge in IF, push PC and jump to the vector.
func (c *CPU) dispatchInterrupt() int {
	pending := c.pendingInterrupts()

	for i := addr.VBlankInterrupt; i <= addr.JoypadInterrupt; i++ {
		if pending&i.Mask() == 0 {
			continue
		}

		c.ime = false
		c.imeDelay = 0
		c.bus.Write(addr.IF, bit.Reset(uint8(i), c.bus.Read(addr.IF)))
		c.pushStack(c.pc)
		c.pc = i.Vector()
		break
	}

	c.cycles += dispatchCycles
	return dispatchCycles
}

// readImmediate returns the byte at PC and advances past it.
func (c *CPU) readImmediate() uint8 {
	n := c.bus.Read(c.pc)
	c.pc++
	return n
}

// readImmediateWord returns the little-endian word at PC and advances past it.
func (c *CPU) readImmediateWord() uint16 {
	low := c.bus.Read(c.pc)
	high := c.bus.Read(c.pc + 1)
	c.pc += 2
	return bit.Combine(high, low)
}

// readSignedImmediate returns the byte at PC as a signed offset and advances
// past it.
func (c *CPU) readSignedImmediate() int8 {
	return int8(c.readImmediate())
}

func (c *CPU) setFlag(flag Flag) {
	c.f |= uint8(flag)
}

func (c *CPU) resetFlag(flag Flag) {
	c.f &= uint8(flag) ^ 0xFF
}

func (c *CPU) isSetFlag(flag Flag) bool {
	return c.f&uint8(flag) != 0
}

// flagToBit returns 1 if the passed flag is set, 0 otherwise.
func (c *CPU) flagToBit(flag Flag) uint8 {
	if c.isSetFlag(flag) {
		return 1
	}
	return 0
}

func (c *CPU) setFlagToCondition(flag Flag, condition bool) {
	if condition {
		c.setFlag(flag)
	} else {
		c.resetFlag(flag)
	}
}

func (c *CPU) setBC(value uint16) {
	c.b = bit.High(value)
	c.c = bit.Low(value)
}

func (c *CPU) getBC() uint16 {
	return bit.Combine(c.b, c.c)
}

func (c *CPU) setDE(value uint16) {
	c.d = bit.High(value)
	c.e = bit.Low(value)
}

func (c *CPU) getDE() uint16 {
	return bit.Combine(c.d, c.e)
}

func (c *CPU) setHL(value uint16) {
	c.h = bit.High(value)
	c.l = bit.Low(value)
}

func (c *CPU) getHL() uint16 {
	return bit.Combine(c.h, c.l)
}

func (c *CPU) setAF(value uint16) {
	c.a = bit.High(value)
	// the low 4 bits of F do not exist in hardware
	c.f = bit.Low(value) & 0xF0
}

func (c *CPU) getAF() uint16 {
	return bit.Combine(c.a, c.f)
}

// Register accessors for the debug surface.
func (c *CPU) A() uint8       { return c.a }
func (c *CPU) F() uint8       { return c.f }
func (c *CPU) B() uint8       { return c.b }
func (c *CPU) C() uint8       { return c.c }
func (c *CPU) D() uint8       { return c.d }
func (c *CPU) E() uint8       { return c.e }
func (c *CPU) H() uint8       { return c.h }
func (c *CPU) L() uint8       { return c.l }
func (c *CPU) SP() uint16     { return c.sp }
func (c *CPU) PC() uint16     { return c.pc }
func (c *CPU) IME() bool      { return c.ime }
func (c *CPU) Halted() bool   { return c.halted }
func (c *CPU) Cycles() uint64 { return c.cycles }
