package dotmatrix

import (
	"github.com/pvallone/go-dotmatrix/dotmatrix/debug"
	"github.com/pvallone/go-dotmatrix/dotmatrix/input"
	"github.com/pvallone/go-dotmatrix/dotmatrix/video"
)

// Emulator is the host-facing surface of an emulation core: advance time by
// one frame, read the output, feed the inputs, inspect the state.
type Emulator interface {
	RunFrame() error
	Framebuffer() *video.FrameBuffer
	HandleButton(button input.Button, pressed bool)
	Snapshot() debug.Snapshot
}

var _ Emulator = (*DMG)(nil)
