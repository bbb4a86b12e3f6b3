package backend

import (
	"errors"

	"github.com/pvallone/go-dotmatrix/dotmatrix/input"
	"github.com/pvallone/go-dotmatrix/dotmatrix/video"
)

// ErrClosed is returned by Update when the user asked the front-end to
// quit. It is a clean shutdown, not a failure.
var ErrClosed = errors.New("backend closed")

// Backend is a host front-end for the engine: it renders frames to some
// output and translates platform input into joypad events. The engine
// itself never touches a backend; the CLI owns the pacing loop and moves
// data between the two at frame boundaries.
type Backend interface {
	// Init prepares the backend. Required before the first Update.
	Init(config Config) error

	// Update renders the frame and returns the input edges collected since
	// the previous call.
	Update(frame *video.FrameBuffer) ([]input.Event, error)

	// Cleanup releases platform resources.
	Cleanup() error
}

// Config holds the settings shared by all backends.
type Config struct {
	Title string
	Scale int
}

// Headless is a backend that renders nowhere and produces no input. It is
// used for batch runs and tests.
type Headless struct {
	frames int
}

// NewHeadless creates a headless backend.
func NewHeadless() *Headless {
	return &Headless{}
}

func (h *Headless) Init(Config) error { return nil }

func (h *Headless) Update(*video.FrameBuffer) ([]input.Event, error) {
	h.frames++
	return nil, nil
}

func (h *Headless) Cleanup() error { return nil }

// Frames returns how many frames have been presented.
func (h *Headless) Frames() int { return h.frames }
