package video

// FramebufferWidth and FramebufferHeight are the visible LCD dimensions.
const (
	FramebufferWidth  = 160
	FramebufferHeight = 144
)

// Color is a 32-bit ARGB pixel value.
type Color uint32

// The four DMG shades, white to black.
const (
	WhiteColor     Color = 0xFFFFFFFF
	LightGreyColor Color = 0xFFAAAAAA
	DarkGreyColor  Color = 0xFF555555
	BlackColor     Color = 0xFF000000
)

// shades maps a 2-bit palette output to its ARGB value.
var shades = [4]Color{WhiteColor, LightGreyColor, DarkGreyColor, BlackColor}

// FrameBuffer holds one rendered frame as row-major ARGB pixels.
type FrameBuffer struct {
	pixels []uint32
}

// NewFrameBuffer creates an all-white framebuffer of the LCD size.
func NewFrameBuffer() *FrameBuffer {
	fb := &FrameBuffer{
		pixels: make([]uint32, FramebufferWidth*FramebufferHeight),
	}
	fb.Clear(WhiteColor)
	return fb
}

// Pixel returns the color at the given coordinates.
func (fb *FrameBuffer) Pixel(x, y int) Color {
	return Color(fb.pixels[y*FramebufferWidth+x])
}

// SetPixel sets the color at the given coordinates.
func (fb *FrameBuffer) SetPixel(x, y int, color Color) {
	fb.pixels[y*FramebufferWidth+x] = uint32(color)
}

// Clear fills the whole buffer with one color.
func (fb *FrameBuffer) Clear(color Color) {
	for i := range fb.pixels {
		fb.pixels[i] = uint32(color)
	}
}

// Pixels returns the backing slice, row-major, one uint32 ARGB per pixel.
func (fb *FrameBuffer) Pixels() []uint32 {
	return fb.pixels
}

// Bytes returns a copy of the frame as a contiguous 160*144*4 byte buffer,
// 32-bit ARGB little-endian.
func (fb *FrameBuffer) Bytes() []byte {
	out := make([]byte, len(fb.pixels)*4)
	for i, px := range fb.pixels {
		out[i*4] = byte(px)
		out[i*4+1] = byte(px >> 8)
		out[i*4+2] = byte(px >> 16)
		out[i*4+3] = byte(px >> 24)
	}
	return out
}
