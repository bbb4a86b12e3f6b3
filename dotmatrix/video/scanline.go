package video

import (
	"github.com/pvallone/go-dotmatrix/dotmatrix/addr"
	"github.com/pvallone/go-dotmatrix/dotmatrix/bit"
)

const (
	spriteCount   = 40
	spritesPerLine = 10
	tileBytes     = 16
	tilesPerRow   = 32
)

// renderScanline draws the current LY into the framebuffer: background and
// window first, then sprites composed over them.
func (p *PPU) renderScanline() {
	var bgIndex [FramebufferWidth]uint8

	p.renderBackground(&bgIndex)

	if bit.IsSet(1, p.lcdc) {
		p.renderSprites(&bgIndex)
	}
}

// renderBackground draws the background/window pixels of the scanline and
// records each pixel's 2-bit color index for sprite priority decisions.
func (p *PPU) renderBackground(bgIndex *[FramebufferWidth]uint8) {
	ly := int(p.ly)

	// With LCDC bit 0 clear the layer is blanked: every pixel shows palette
	// entry 0 and sprites treat the whole line as background color 0.
	if !bit.IsSet(0, p.lcdc) {
		blank := shades[p.bgp&0x03]
		for px := 0; px < FramebufferWidth; px++ {
			p.fb.SetPixel(px, ly, blank)
			bgIndex[px] = 0
		}
		return
	}

	wy := int(p.mmu.Read(addr.WY))
	wx := int(p.mmu.Read(addr.WX)) - 7
	windowOnLine := bit.IsSet(5, p.lcdc) && ly >= wy

	windowMap := p.tileMapBase(6)
	bgMap := p.tileMapBase(3)

	windowDrawn := false

	for px := 0; px < FramebufferWidth; px++ {
		var x, y int
		var mapBase uint16

		if windowOnLine && px >= wx {
			x = px - wx
			y = p.windowLine
			mapBase = windowMap
			windowDrawn = true
		} else {
			x = (px + int(p.scx)) & 0xFF
			y = (ly + int(p.scy)) & 0xFF
			mapBase = bgMap
		}

		tileIndex := p.mmu.Read(mapBase + uint16(y/8)*tilesPerRow + uint16(x/8))
		rowAddr := p.tileDataAddress(tileIndex) + uint16(y%8)*2

		colorID := pixelColorID(p.mmu.Read(rowAddr), p.mmu.Read(rowAddr+1), x%8)
		bgIndex[px] = colorID

		p.fb.SetPixel(px, ly, paletteShade(p.bgp, colorID))
	}

	if windowDrawn {
		p.windowLine++
	}
}

// renderSprites composes the sprites intersecting the scanline. OAM entries
// are walked in order; the hardware takes at most ten per line and gives
// earlier entries priority on overlaps.
func (p *PPU) renderSprites(bgIndex *[FramebufferWidth]uint8) {
	ly := int(p.ly)

	height := 8
	if bit.IsSet(2, p.lcdc) {
		height = 16
	}

	var drawn [FramebufferWidth]bool
	hits := 0

	for i := 0; i < spriteCount && hits < spritesPerLine; i++ {
		base := addr.OAMStart + uint16(i*4)
		y := int(p.mmu.Read(base)) - 16
		if ly < y || ly >= y+height {
			continue
		}
		hits++

		x := int(p.mmu.Read(base+1)) - 8
		tileIndex := p.mmu.Read(base + 2)
		attributes := p.mmu.Read(base + 3)

		line := ly - y
		if bit.IsSet(6, attributes) { // vertical flip
			line = height - 1 - line
		}
		if height == 16 {
			// in 8x16 mode the hardware ignores the index low bit
			tileIndex &= 0xFE
		}

		rowAddr := addr.TileDataUnsigned + uint16(tileIndex)*tileBytes + uint16(line)*2
		byte1 := p.mmu.Read(rowAddr)
		byte2 := p.mmu.Read(rowAddr + 1)

		palette := p.mmu.Read(addr.OBP0)
		if bit.IsSet(4, attributes) {
			palette = p.mmu.Read(addr.OBP1)
		}

		behindBG := bit.IsSet(7, attributes)
		flipX := bit.IsSet(5, attributes)

		for offset := 0; offset < 8; offset++ {
			px := x + offset
			if px < 0 || px >= FramebufferWidth || drawn[px] {
				continue
			}

			column := offset
			if flipX {
				column = 7 - offset
			}

			colorID := pixelColorID(byte1, byte2, column)
			if colorID == 0 {
				// color 0 is transparent for sprites
				continue
			}
			if behindBG && bgIndex[px] != 0 {
				continue
			}

			p.fb.SetPixel(px, ly, paletteShade(palette, colorID))
			drawn[px] = true
		}
	}
}

// tileMapBase selects a 32x32 tile map from the given LCDC bit.
func (p *PPU) tileMapBase(lcdcBit uint8) uint16 {
	if bit.IsSet(lcdcBit, p.lcdc) {
		return addr.TileMap1
	}
	return addr.TileMap0
}

// tileDataAddress resolves a tile index to the first byte of its data,
// honoring the LCDC bit 4 addressing mode: unsigned from 0x8000 or signed
// from 0x9000.
func (p *PPU) tileDataAddress(index byte) uint16 {
	if bit.IsSet(4, p.lcdc) {
		return addr.TileDataUnsigned + uint16(index)*tileBytes
	}
	return uint16(int(addr.TileDataSigned) + int(int8(index))*tileBytes)
}

// pixelColorID extracts the 2-bit color index of pixel x (0 = leftmost)
// from a tile row's two bytes.
func pixelColorID(byte1, byte2 byte, x int) uint8 {
	shift := 7 - x
	return ((byte2>>shift)&1)<<1 | (byte1>>shift)&1
}

// paletteShade maps a color index through a palette register to a shade.
func paletteShade(palette byte, colorID uint8) Color {
	return shades[(palette>>(colorID*2))&0x03]
}
