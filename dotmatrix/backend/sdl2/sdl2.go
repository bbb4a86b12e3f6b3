//go:build sdl2

// Package sdl2 is a windowed front-end built on SDL2. It is behind the
// "sdl2" build tag so the default build does not need cgo.
package sdl2

import (
	"fmt"
	"unsafe"

	"github.com/veandco/go-sdl2/sdl"

	"github.com/pvallone/go-dotmatrix/dotmatrix/backend"
	"github.com/pvallone/go-dotmatrix/dotmatrix/input"
	"github.com/pvallone/go-dotmatrix/dotmatrix/video"
)

// Backend implements backend.Backend with an SDL window and an ARGB
// streaming texture, like the display layer the original hardware shell
// used.
type Backend struct {
	window   *sdl.Window
	renderer *sdl.Renderer
	texture  *sdl.Texture
}

func New() *Backend {
	return &Backend{}
}

func (b *Backend) Init(config backend.Config) error {
	if err := sdl.Init(sdl.INIT_VIDEO); err != nil {
		return fmt.Errorf("sdl init: %w", err)
	}

	scale := config.Scale
	if scale <= 0 {
		scale = 2
	}

	window, err := sdl.CreateWindow(
		config.Title,
		sdl.WINDOWPOS_CENTERED, sdl.WINDOWPOS_CENTERED,
		int32(video.FramebufferWidth*scale), int32(video.FramebufferHeight*scale),
		sdl.WINDOW_SHOWN,
	)
	if err != nil {
		return fmt.Errorf("sdl window: %w", err)
	}

	renderer, err := sdl.CreateRenderer(window, -1, sdl.RENDERER_ACCELERATED)
	if err != nil {
		window.Destroy()
		return fmt.Errorf("sdl renderer: %w", err)
	}

	texture, err := renderer.CreateTexture(
		sdl.PIXELFORMAT_ARGB8888,
		sdl.TEXTUREACCESS_STREAMING,
		video.FramebufferWidth, video.FramebufferHeight,
	)
	if err != nil {
		renderer.Destroy()
		window.Destroy()
		return fmt.Errorf("sdl texture: %w", err)
	}

	b.window = window
	b.renderer = renderer
	b.texture = texture
	return nil
}

func (b *Backend) Update(frame *video.FrameBuffer) ([]input.Event, error) {
	var events []input.Event

	for ev := sdl.PollEvent(); ev != nil; ev = sdl.PollEvent() {
		switch ev := ev.(type) {
		case *sdl.QuitEvent:
			return nil, backend.ErrClosed
		case *sdl.KeyboardEvent:
			if ev.Keysym.Sym == sdl.K_ESCAPE {
				return nil, backend.ErrClosed
			}
			if ev.Repeat != 0 {
				continue
			}
			if button, ok := mapKey(ev.Keysym.Sym); ok {
				events = append(events, input.Event{
					Button:  button,
					Pressed: ev.Type == sdl.KEYDOWN,
				})
			}
		}
	}

	pixels := frame.Pixels()
	if err := b.texture.Update(nil, unsafe.Pointer(&pixels[0]), video.FramebufferWidth*4); err != nil {
		return events, fmt.Errorf("sdl texture update: %w", err)
	}
	b.renderer.Clear()
	b.renderer.Copy(b.texture, nil, nil)
	b.renderer.Present()

	return events, nil
}

func (b *Backend) Cleanup() error {
	if b.texture != nil {
		b.texture.Destroy()
	}
	if b.renderer != nil {
		b.renderer.Destroy()
	}
	if b.window != nil {
		b.window.Destroy()
	}
	sdl.Quit()
	return nil
}

func mapKey(sym sdl.Keycode) (input.Button, bool) {
	switch sym {
	case sdl.K_UP:
		return input.ButtonUp, true
	case sdl.K_DOWN:
		return input.ButtonDown, true
	case sdl.K_LEFT:
		return input.ButtonLeft, true
	case sdl.K_RIGHT:
		return input.ButtonRight, true
	case sdl.K_z:
		return input.ButtonA, true
	case sdl.K_x:
		return input.ButtonB, true
	case sdl.K_RETURN:
		return input.ButtonStart, true
	case sdl.K_BACKSPACE:
		return input.ButtonSelect, true
	}
	return 0, false
}
