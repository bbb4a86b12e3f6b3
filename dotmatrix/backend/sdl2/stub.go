//go:build !sdl2

package sdl2

import (
	"errors"

	"github.com/pvallone/go-dotmatrix/dotmatrix/backend"
	"github.com/pvallone/go-dotmatrix/dotmatrix/input"
	"github.com/pvallone/go-dotmatrix/dotmatrix/video"
)

// Backend is the placeholder used when the binary is built without the
// "sdl2" tag. Every call fails with a clear message.
type Backend struct{}

var errNotBuilt = errors.New("sdl2 backend not available: rebuild with -tags sdl2")

func New() *Backend {
	return &Backend{}
}

func (b *Backend) Init(backend.Config) error { return errNotBuilt }

func (b *Backend) Update(*video.FrameBuffer) ([]input.Event, error) {
	return nil, errNotBuilt
}

func (b *Backend) Cleanup() error { return nil }
