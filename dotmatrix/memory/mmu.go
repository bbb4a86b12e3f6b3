package memory

import (
	"github.com/pvallone/go-dotmatrix/dotmatrix/addr"
	"github.com/pvallone/go-dotmatrix/dotmatrix/bit"
)

type memRegion uint8

const (
	regionROM memRegion = iota
	regionVRAM
	regionExtRAM
	regionWRAM
	regionEcho
	regionOAM
	regionHigh // I/O, HRAM, IE
)

// VideoRegisters is the interface the MMU uses to delegate the LCD register
// file (0xFF40-0xFF47, DMA excluded) to the PPU. Implementations must only
// accept the addresses in that range.
type VideoRegisters interface {
	ReadRegister(address uint16) byte
	WriteRegister(address uint16, value byte)
}

// MMU routes 16-bit addresses to the RAM regions, the I/O registers and the
// cartridge. Each region is a fixed-size array matching the hardware map;
// the cartridge bytes are owned by the Cartridge and only lent for reads.
type MMU struct {
	cart   *Cartridge
	vram   [0x2000]byte
	eram   [0x2000]byte
	wram   [0x2000]byte
	oam    [0xA0]byte
	io     [0x80]byte
	hram   [0x7F]byte
	ie     byte
	timer  Timer
	joypad *Joypad
	video  VideoRegisters

	regionMap [256]memRegion
}

// New creates a memory unit with no game loaded, equivalent to powering on
// a Game Boy with an empty slot.
func New() *MMU {
	m := &MMU{
		cart:   NewCartridge(),
		joypad: NewJoypad(),
	}
	m.joypad.RequestInterrupt = func() { m.RequestInterrupt(addr.JoypadInterrupt) }
	m.timer.RequestInterrupt = func() { m.RequestInterrupt(addr.TimerInterrupt) }
	m.initRegionMap()
	return m
}

// NewWithCartridge creates a memory unit with the provided cartridge loaded.
func NewWithCartridge(cart *Cartridge) *MMU {
	m := New()
	m.cart = cart
	return m
}

func (m *MMU) initRegionMap() {
	for i := 0x00; i <= 0x7F; i++ {
		m.regionMap[i] = regionROM
	}
	for i := 0x80; i <= 0x9F; i++ {
		m.regionMap[i] = regionVRAM
	}
	for i := 0xA0; i <= 0xBF; i++ {
		m.regionMap[i] = regionExtRAM
	}
	for i := 0xC0; i <= 0xDF; i++ {
		m.regionMap[i] = regionWRAM
	}
	for i := 0xE0; i <= 0xFD; i++ {
		m.regionMap[i] = regionEcho
	}
	m.regionMap[0xFE] = regionOAM
	m.regionMap[0xFF] = regionHigh
}

// AttachVideo installs the PPU as the handler for the LCD register file.
func (m *MMU) AttachVideo(v VideoRegisters) {
	m.video = v
}

// Tick advances memory-mapped peripherals that track time, i.e. the timer.
func (m *MMU) Tick(cycles int) {
	m.timer.Tick(cycles)
}

// RequestInterrupt sets the chosen interrupt's bit in the IF register.
func (m *MMU) RequestInterrupt(interrupt addr.Interrupt) {
	m.io[addr.IF-0xFF00] |= interrupt.Mask()
}

// HandleKeyPress records a joypad key press, raising the joypad interrupt
// on a high-to-low transition.
func (m *MMU) HandleKeyPress(key Key) {
	m.joypad.Press(key)
}

// HandleKeyRelease records a joypad key release.
func (m *MMU) HandleKeyRelease(key Key) {
	m.joypad.Release(key)
}

// DivCounter returns the timer's internal 16-bit divider counter.
func (m *MMU) DivCounter() uint16 {
	return m.timer.Counter()
}

func (m *MMU) Read(address uint16) byte {
	switch m.regionMap[address>>8] {
	case regionROM:
		return m.cart.Read(address)
	case regionVRAM:
		return m.vram[address-0x8000]
	case regionExtRAM:
		return m.eram[address-0xA000]
	case regionWRAM:
		return m.wram[address-0xC000]
	case regionEcho:
		return m.wram[address-0xE000]
	case regionOAM:
		if address <= addr.OAMEnd {
			return m.oam[address-addr.OAMStart]
		}
		// 0xFEA0-0xFEFF is not usable
		return 0xFF
	default:
		return m.readHigh(address)
	}
}

func (m *MMU) Write(address uint16, value byte) {
	switch m.regionMap[address>>8] {
	case regionROM:
		// MBC control writes land here on banked cartridges; with a flat
		// ROM there is nothing to do.
	case regionVRAM:
		m.vram[address-0x8000] = value
	case regionExtRAM:
		m.eram[address-0xA000] = value
	case regionWRAM:
		m.wram[address-0xC000] = value
	case regionEcho:
		m.wram[address-0xE000] = value
	case regionOAM:
		if address <= addr.OAMEnd {
			m.oam[address-addr.OAMStart] = value
		}
		// writes into 0xFEA0-0xFEFF are dropped
	default:
		m.writeHigh(address, value)
	}
}

// Read16 reads a little-endian 16 bit value composed of two 8 bit reads.
func (m *MMU) Read16(address uint16) uint16 {
	return bit.Combine(m.Read(address+1), m.Read(address))
}

// Write16 writes a little-endian 16 bit value as two 8 bit writes.
func (m *MMU) Write16(address uint16, value uint16) {
	m.Write(address, bit.Low(value))
	m.Write(address+1, bit.High(value))
}

func (m *MMU) readHigh(address uint16) byte {
	switch {
	case address == addr.P1:
		return m.joypad.Read()
	case address >= addr.DIV && address <= addr.TAC:
		return m.timer.Read(address)
	case address == addr.IF:
		// The upper 3 bits are unused and always read as 1.
		return m.io[address-0xFF00] | 0xE0
	case address >= addr.LCDC && address <= addr.BGP && address != addr.DMA && m.video != nil:
		return m.video.ReadRegister(address)
	case address == addr.IE:
		return m.ie
	case address >= 0xFF80:
		return m.hram[address-0xFF80]
	default:
		return m.io[address-0xFF00]
	}
}

func (m *MMU) writeHigh(address uint16, value byte) {
	switch {
	case address == addr.P1:
		m.joypad.Write(value)
	case address >= addr.DIV && address <= addr.TAC:
		m.timer.Write(address, value)
	case address == addr.IF:
		m.io[address-0xFF00] = value | 0xE0
	case address == addr.DMA:
		m.dmaTransfer(value)
		m.io[address-0xFF00] = value
	case address >= addr.LCDC && address <= addr.BGP && m.video != nil:
		m.video.WriteRegister(address, value)
	case address == addr.IE:
		m.ie = value
	case address >= 0xFF80:
		m.hram[address-0xFF80] = value
	default:
		m.io[address-0xFF00] = value
	}
}

// dmaTransfer copies 160 bytes from value<<8 into OAM through the bus. The
// transfer is treated as instantaneous and charges no cycles to the caller;
// the real hardware's bus locking during DMA is not modeled.
func (m *MMU) dmaTransfer(value byte) {
	source := uint16(value) << 8
	for i := uint16(0); i < uint16(len(m.oam)); i++ {
		m.oam[i] = m.Read(source + i)
	}
}
