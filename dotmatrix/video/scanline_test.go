package video

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/pvallone/go-dotmatrix/dotmatrix/addr"
	"github.com/pvallone/go-dotmatrix/dotmatrix/memory"
)

// writeTileRow fills one 8-pixel row of a tile with a uniform color index.
func writeTileRow(mmu *memory.MMU, tileAddr uint16, row int, colorID uint8) {
	var byte1, byte2 byte
	if colorID&1 != 0 {
		byte1 = 0xFF
	}
	if colorID&2 != 0 {
		byte2 = 0xFF
	}
	mmu.Write(tileAddr+uint16(row*2), byte1)
	mmu.Write(tileAddr+uint16(row*2)+1, byte2)
}

// writeTile fills all 8 rows of a tile with a uniform color index.
func writeTile(mmu *memory.MMU, tileAddr uint16, colorID uint8) {
	for row := 0; row < 8; row++ {
		writeTileRow(mmu, tileAddr, row, colorID)
	}
}

// identity palette: index n maps to shade n
const identityPalette = 0xE4

// renderLine advances the PPU to the end of pixel transfer on line 0.
func renderLine(p *PPU) {
	p.Tick(oamScanCycles + pixelTransferCycles)
}

func TestScanline_backgroundTile(t *testing.T) {
	p, mmu := newTestPPU()
	mmu.Write(addr.BGP, identityPalette)

	// tile map is all zeroes; make tile 0 solid color 1
	writeTile(mmu, addr.TileDataUnsigned, 1)

	renderLine(p)

	assert.Equal(t, LightGreyColor, p.Framebuffer().Pixel(0, 0))
	assert.Equal(t, LightGreyColor, p.Framebuffer().Pixel(159, 0))
}

func TestScanline_paletteRemap(t *testing.T) {
	p, mmu := newTestPPU()

	writeTile(mmu, addr.TileDataUnsigned, 1)
	// map color 1 to shade 3
	mmu.Write(addr.BGP, 0x0C)

	renderLine(p)

	assert.Equal(t, BlackColor, p.Framebuffer().Pixel(0, 0))
}

func TestScanline_pixelBitOrder(t *testing.T) {
	p, mmu := newTestPPU()
	mmu.Write(addr.BGP, identityPalette)

	// leftmost pixel of the row comes from bit 7
	mmu.Write(addr.TileDataUnsigned, 0x80)
	mmu.Write(addr.TileDataUnsigned+1, 0x00)

	renderLine(p)

	assert.Equal(t, LightGreyColor, p.Framebuffer().Pixel(0, 0))
	assert.Equal(t, WhiteColor, p.Framebuffer().Pixel(1, 0))
}

func TestScanline_scroll(t *testing.T) {
	p, mmu := newTestPPU()
	mmu.Write(addr.BGP, identityPalette)

	// tile 1 at map position (1,0); the rest stays tile 0 (white)
	writeTile(mmu, addr.TileDataUnsigned+16, 2)
	mmu.Write(addr.TileMap0+1, 1)

	mmu.Write(addr.SCX, 8)
	renderLine(p)

	assert.Equal(t, DarkGreyColor, p.Framebuffer().Pixel(0, 0),
		"SCX=8 brings the second map column to the left edge")
}

func TestScanline_signedTileAddressing(t *testing.T) {
	p, mmu := newTestPPU()
	mmu.Write(addr.BGP, identityPalette)
	mmu.Write(addr.LCDC, 0x81) // bit 4 clear: signed indexes around 0x9000

	// index 0x80 is -128: tile data at 0x9000 - 128*16 = 0x8800
	writeTile(mmu, 0x8800, 3)
	for i := uint16(0); i < 32; i++ {
		mmu.Write(addr.TileMap0+i, 0x80)
	}

	renderLine(p)

	assert.Equal(t, BlackColor, p.Framebuffer().Pixel(0, 0))
}

func TestScanline_backgroundDisabled(t *testing.T) {
	p, mmu := newTestPPU()
	mmu.Write(addr.BGP, identityPalette)
	writeTile(mmu, addr.TileDataUnsigned, 3)

	mmu.Write(addr.LCDC, 0x90) // bit 0 clear

	renderLine(p)

	assert.Equal(t, WhiteColor, p.Framebuffer().Pixel(0, 0),
		"a disabled background shows palette entry 0")
}

func TestScanline_window(t *testing.T) {
	p, mmu := newTestPPU()
	mmu.Write(addr.BGP, identityPalette)

	// background uses map 0 / tile 0 (white); window uses map 1 / tile 1
	writeTile(mmu, addr.TileDataUnsigned+16, 2)
	for i := uint16(0); i < 32; i++ {
		mmu.Write(addr.TileMap1+i, 1)
	}

	mmu.Write(addr.LCDC, 0xF1) // LCD + window on, window map 1
	mmu.Write(addr.WY, 0)
	mmu.Write(addr.WX, 7+80) // window covers the right half

	renderLine(p)

	assert.Equal(t, WhiteColor, p.Framebuffer().Pixel(79, 0))
	assert.Equal(t, DarkGreyColor, p.Framebuffer().Pixel(80, 0))
	assert.Equal(t, DarkGreyColor, p.Framebuffer().Pixel(159, 0))
}

func TestScanline_windowBelowWY(t *testing.T) {
	p, mmu := newTestPPU()
	mmu.Write(addr.BGP, identityPalette)

	writeTile(mmu, addr.TileDataUnsigned+16, 2)
	for i := uint16(0); i < 32; i++ {
		mmu.Write(addr.TileMap1+i, 1)
	}

	mmu.Write(addr.LCDC, 0xF1)
	mmu.Write(addr.WY, 10) // window starts below this scanline
	mmu.Write(addr.WX, 7)

	renderLine(p)

	assert.Equal(t, WhiteColor, p.Framebuffer().Pixel(0, 0))
}

func TestScanline_sprite(t *testing.T) {
	p, mmu := newTestPPU()
	mmu.Write(addr.BGP, identityPalette)
	mmu.Write(addr.OBP0, identityPalette)
	mmu.Write(addr.LCDC, 0x93) // background + sprites

	// sprite 0 at the top-left corner, solid color 3
	writeTile(mmu, addr.TileDataUnsigned+16, 3)
	mmu.Write(addr.OAMStart+0, 16) // Y
	mmu.Write(addr.OAMStart+1, 8)  // X
	mmu.Write(addr.OAMStart+2, 1)  // tile
	mmu.Write(addr.OAMStart+3, 0)  // attributes

	renderLine(p)

	assert.Equal(t, BlackColor, p.Framebuffer().Pixel(0, 0))
	assert.Equal(t, BlackColor, p.Framebuffer().Pixel(7, 0))
	assert.Equal(t, WhiteColor, p.Framebuffer().Pixel(8, 0), "sprite is 8 pixels wide")
}

func TestScanline_spriteTransparency(t *testing.T) {
	p, mmu := newTestPPU()
	mmu.Write(addr.BGP, identityPalette)
	mmu.Write(addr.OBP0, identityPalette)
	mmu.Write(addr.LCDC, 0x93)

	// background solid color 1; sprite tile left empty (color 0)
	writeTile(mmu, addr.TileDataUnsigned, 1)
	mmu.Write(addr.OAMStart+0, 16)
	mmu.Write(addr.OAMStart+1, 8)
	mmu.Write(addr.OAMStart+2, 2) // empty tile

	renderLine(p)

	assert.Equal(t, LightGreyColor, p.Framebuffer().Pixel(0, 0),
		"sprite color 0 is transparent")
}

func TestScanline_spriteBehindBackground(t *testing.T) {
	p, mmu := newTestPPU()
	mmu.Write(addr.BGP, identityPalette)
	mmu.Write(addr.OBP0, identityPalette)
	mmu.Write(addr.LCDC, 0x93)

	// background color 1 on the left tile, color 0 on the second tile
	writeTile(mmu, addr.TileDataUnsigned, 1)
	mmu.Write(addr.TileMap0+1, 2) // tile 2 stays empty

	// sprite with BG-over-OBJ priority spanning both tiles
	writeTile(mmu, addr.TileDataUnsigned+3*16, 3)
	mmu.Write(addr.OAMStart+0, 16)
	mmu.Write(addr.OAMStart+1, 12) // X=4: pixels 4-11
	mmu.Write(addr.OAMStart+2, 3)
	mmu.Write(addr.OAMStart+3, 0x80)

	renderLine(p)

	assert.Equal(t, LightGreyColor, p.Framebuffer().Pixel(4, 0),
		"hidden where the background color is non-zero")
	assert.Equal(t, BlackColor, p.Framebuffer().Pixel(8, 0),
		"visible where the background color is zero")
}

func TestScanline_spriteOAMOrderWins(t *testing.T) {
	p, mmu := newTestPPU()
	mmu.Write(addr.OBP0, identityPalette)
	mmu.Write(addr.OBP1, 0xFF) // every index maps to shade 3
	mmu.Write(addr.LCDC, 0x93)

	writeTile(mmu, addr.TileDataUnsigned+16, 2)

	// two sprites on the same pixels; entry 0 uses OBP0, entry 1 OBP1
	mmu.Write(addr.OAMStart+0, 16)
	mmu.Write(addr.OAMStart+1, 8)
	mmu.Write(addr.OAMStart+2, 1)
	mmu.Write(addr.OAMStart+3, 0x00)

	mmu.Write(addr.OAMStart+4, 16)
	mmu.Write(addr.OAMStart+5, 8)
	mmu.Write(addr.OAMStart+6, 1)
	mmu.Write(addr.OAMStart+7, 0x10) // OBP1

	renderLine(p)

	assert.Equal(t, DarkGreyColor, p.Framebuffer().Pixel(0, 0),
		"the earlier OAM entry's palette wins")
}

func TestScanline_spriteLimit(t *testing.T) {
	p, mmu := newTestPPU()
	mmu.Write(addr.OBP0, identityPalette)
	mmu.Write(addr.LCDC, 0x93)

	writeTile(mmu, addr.TileDataUnsigned+16, 3)

	// 11 sprites on line 0, at X = 8, 16, ... 88; the 11th must be dropped
	for i := 0; i < 11; i++ {
		base := addr.OAMStart + uint16(i*4)
		mmu.Write(base+0, 16)
		mmu.Write(base+1, byte(8+i*8))
		mmu.Write(base+2, 1)
		mmu.Write(base+3, 0)
	}

	renderLine(p)

	assert.Equal(t, BlackColor, p.Framebuffer().Pixel(9*8, 0), "the 10th sprite renders")
	assert.Equal(t, WhiteColor, p.Framebuffer().Pixel(10*8, 0), "the 11th sprite is dropped")
}

func TestScanline_spriteFlips(t *testing.T) {
	p, mmu := newTestPPU()
	mmu.Write(addr.OBP0, identityPalette)
	mmu.Write(addr.LCDC, 0x93)

	// tile 1: only the leftmost pixel of row 0 is set
	mmu.Write(addr.TileDataUnsigned+16, 0x80)

	mmu.Write(addr.OAMStart+0, 16)
	mmu.Write(addr.OAMStart+1, 8)
	mmu.Write(addr.OAMStart+2, 1)
	mmu.Write(addr.OAMStart+3, 0x20) // horizontal flip

	renderLine(p)

	assert.Equal(t, WhiteColor, p.Framebuffer().Pixel(0, 0))
	assert.Equal(t, LightGreyColor, p.Framebuffer().Pixel(7, 0),
		"horizontal flip mirrors the row")
}

func TestScanline_tallSprites(t *testing.T) {
	p, mmu := newTestPPU()
	mmu.Write(addr.OBP0, identityPalette)
	mmu.Write(addr.LCDC, 0x97) // 8x16 sprites

	// lower half of the pair: tile 3 (the odd index bit is ignored)
	writeTile(mmu, addr.TileDataUnsigned+3*16, 3)

	// sprite row 8 on scanline 0, so the lower tile shows; index 3 is
	// masked to 2... the data must live in tile 3's slot as the second
	// half of tile pair 2
	mmu.Write(addr.OAMStart+0, 8) // Y-16 = -8: rows 8-15 visible from line 0
	mmu.Write(addr.OAMStart+1, 8)
	mmu.Write(addr.OAMStart+2, 3) // low bit ignored -> pair 2/3
	mmu.Write(addr.OAMStart+3, 0)

	renderLine(p)

	assert.Equal(t, BlackColor, p.Framebuffer().Pixel(0, 0),
		"8x16 sprites take the pair's lower tile for rows 8-15")
}
