package video

import (
	"github.com/pvallone/go-dotmatrix/dotmatrix/addr"
	"github.com/pvallone/go-dotmatrix/dotmatrix/bit"
	"github.com/pvallone/go-dotmatrix/dotmatrix/memory"
)

// Mode is one of the four PPU scanline states, numbered as in STAT bits 1:0.
type Mode uint8

const (
	ModeHBlank        Mode = 0
	ModeVBlank        Mode = 1
	ModeOAMScan       Mode = 2
	ModePixelTransfer Mode = 3
)

// Scanline timing in T-states.
const (
	oamScanCycles       = 80
	pixelTransferCycles = 172
	hblankCycles        = 204
	// ScanlineCycles is the total cost of one scanline across modes 2+3+0,
	// and of one idle line during the vertical blank.
	ScanlineCycles = oamScanCycles + pixelTransferCycles + hblankCycles

	vblankStartLine = 144
	lastLine        = 153

	// FrameCycles is one full frame: 154 lines of 456 T-states.
	FrameCycles = ScanlineCycles * (lastLine + 1)
)

// PPU runs the scanline state machine and renders into a framebuffer. VRAM
// and OAM are read through the MMU; the LCD register file lives here and is
// reached through the MMU's register delegation.
type PPU struct {
	mmu *memory.MMU
	fb  *FrameBuffer

	lcdc byte
	stat byte // only the interrupt-select bits 3-6; the rest is composed
	scy  byte
	scx  byte
	ly   byte
	lyc  byte
	bgp  byte

	mode        Mode
	cycles      int
	windowLine  int
	coincidence bool // previous LY==LYC state, for edge detection
}

// New creates a PPU in the post-boot state and registers it as the MMU's
// LCD register handler.
func New(mmu *memory.MMU) *PPU {
	p := &PPU{
		mmu:  mmu,
		fb:   NewFrameBuffer(),
		mode: ModeOAMScan,
	}
	mmu.AttachVideo(p)
	return p
}

// Framebuffer returns the buffer the PPU renders into.
func (p *PPU) Framebuffer() *FrameBuffer {
	return p.fb
}

// LY returns the current scanline.
func (p *PPU) LY() byte {
	return p.ly
}

// Mode returns the current scanline state.
func (p *PPU) Mode() Mode {
	return p.mode
}

var _ memory.VideoRegisters = (*PPU)(nil)

// ReadRegister implements the LCD register file for the MMU.
func (p *PPU) ReadRegister(address uint16) byte {
	switch address {
	case addr.LCDC:
		return p.lcdc
	case addr.STAT:
		return p.composeSTAT()
	case addr.SCY:
		return p.scy
	case addr.SCX:
		return p.scx
	case addr.LY:
		return p.ly
	case addr.LYC:
		return p.lyc
	case addr.BGP:
		return p.bgp
	default:
		return 0xFF
	}
}

// WriteRegister implements the LCD register file for the MMU.
func (p *PPU) WriteRegister(address uint16, value byte) {
	switch address {
	case addr.LCDC:
		wasEnabled := bit.IsSet(7, p.lcdc)
		p.lcdc = value
		if wasEnabled && !bit.IsSet(7, value) {
			p.resetLine()
		}
	case addr.STAT:
		// only the interrupt-select bits 3-6 are writable
		p.stat = value & 0x78
	case addr.SCY:
		p.scy = value
	case addr.SCX:
		p.scx = value
	case addr.LY:
		// LY is read-only; a write resets the scanline counter
		p.resetLine()
	case addr.LYC:
		p.lyc = value
	case addr.BGP:
		p.bgp = value
	}
}

func (p *PPU) resetLine() {
	p.ly = 0
	p.cycles = 0
	p.mode = ModeOAMScan
	p.windowLine = 0
}

// composeSTAT builds the STAT value: bit 7 unused (reads 1), bits 6-3 the
// interrupt selects, bit 2 the LY==LYC coincidence, bits 1-0 the mode.
func (p *PPU) composeSTAT() byte {
	value := 0x80 | p.stat | byte(p.mode)
	if p.ly == p.lyc {
		value |= 0x04
	}
	return value
}

// Tick advances the scanline state machine by the given number of T-states.
// With the LCD disabled the PPU idles at LY=0 in OAM scan and raises no
// interrupts.
func (p *PPU) Tick(cycles int) {
	if !bit.IsSet(7, p.lcdc) {
		p.resetLine()
		return
	}

	p.cycles += cycles

	for p.advance() {
	}
}

// advance steps at most one mode transition, reporting whether the budget
// allows stepping again.
func (p *PPU) advance() bool {
	switch p.mode {
	case ModeOAMScan:
		if p.cycles < oamScanCycles {
			return false
		}
		p.cycles -= oamScanCycles
		p.setMode(ModePixelTransfer)
	case ModePixelTransfer:
		if p.cycles < pixelTransferCycles {
			return false
		}
		p.cycles -= pixelTransferCycles
		p.renderScanline()
		p.setMode(ModeHBlank)
	case ModeHBlank:
		if p.cycles < hblankCycles {
			return false
		}
		p.cycles -= hblankCycles
		p.ly++
		p.compareLY()

		if p.ly == vblankStartLine {
			p.setMode(ModeVBlank)
			p.mmu.RequestInterrupt(addr.VBlankInterrupt)
		} else {
			p.setMode(ModeOAMScan)
		}
	case ModeVBlank:
		if p.cycles < ScanlineCycles {
			return false
		}
		p.cycles -= ScanlineCycles
		p.ly++

		if p.ly > lastLine {
			p.ly = 0
			p.windowLine = 0
			p.setMode(ModeOAMScan)
		}
		p.compareLY()
	}
	return true
}

// setMode switches mode and raises the STAT interrupt if the new mode's
// select bit is enabled. Pixel transfer has no select bit.
func (p *PPU) setMode(mode Mode) {
	p.mode = mode

	var selectBit uint8
	switch mode {
	case ModeHBlank:
		selectBit = 3
	case ModeVBlank:
		selectBit = 4
	case ModeOAMScan:
		selectBit = 5
	default:
		return
	}

	if bit.IsSet(selectBit, p.stat) {
		p.mmu.RequestInterrupt(addr.LCDSTATInterrupt)
	}
}

// compareLY refreshes the LY==LYC coincidence latch, raising the STAT
// interrupt on a rising edge when its select bit is enabled.
func (p *PPU) compareLY() {
	match := p.ly == p.lyc
	if match && !p.coincidence && bit.IsSet(6, p.stat) {
		p.mmu.RequestInterrupt(addr.LCDSTATInterrupt)
	}
	p.coincidence = match
}
