// Package ebitenui is a cross-platform windowed front-end built on Ebiten.
// Unlike the other backends Ebiten owns the main loop, so this package
// drives the emulator from inside ebiten.RunGame instead of implementing
// backend.Backend.
package ebitenui

import (
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"

	"github.com/pvallone/go-dotmatrix/dotmatrix"
	"github.com/pvallone/go-dotmatrix/dotmatrix/backend"
	"github.com/pvallone/go-dotmatrix/dotmatrix/input"
	"github.com/pvallone/go-dotmatrix/dotmatrix/video"
)

var keyBindings = map[ebiten.Key]input.Button{
	ebiten.KeyArrowUp:    input.ButtonUp,
	ebiten.KeyArrowDown:  input.ButtonDown,
	ebiten.KeyArrowLeft:  input.ButtonLeft,
	ebiten.KeyArrowRight: input.ButtonRight,
	ebiten.KeyZ:          input.ButtonA,
	ebiten.KeyX:          input.ButtonB,
	ebiten.KeyEnter:      input.ButtonStart,
	ebiten.KeyBackspace:  input.ButtonSelect,
}

// App adapts the emulator to ebiten.Game: one emulated frame per Update,
// the framebuffer blitted on Draw.
type App struct {
	emu  dotmatrix.Emulator
	rgba []byte
}

// Run opens the window and drives the emulator until it is closed or the
// engine faults.
func Run(emu dotmatrix.Emulator, config backend.Config) error {
	scale := config.Scale
	if scale <= 0 {
		scale = 3
	}

	ebiten.SetWindowSize(video.FramebufferWidth*scale, video.FramebufferHeight*scale)
	ebiten.SetWindowTitle(config.Title)

	app := &App{
		emu:  emu,
		rgba: make([]byte, video.FramebufferWidth*video.FramebufferHeight*4),
	}
	return ebiten.RunGame(app)
}

func (a *App) Update() error {
	if inpututil.IsKeyJustPressed(ebiten.KeyEscape) {
		return ebiten.Termination
	}

	for key, button := range keyBindings {
		if inpututil.IsKeyJustPressed(key) {
			a.emu.HandleButton(button, true)
		}
		if inpututil.IsKeyJustReleased(key) {
			a.emu.HandleButton(button, false)
		}
	}

	return a.emu.RunFrame()
}

func (a *App) Draw(screen *ebiten.Image) {
	for i, px := range a.emu.Framebuffer().Pixels() {
		a.rgba[i*4] = byte(px >> 16)
		a.rgba[i*4+1] = byte(px >> 8)
		a.rgba[i*4+2] = byte(px)
		a.rgba[i*4+3] = byte(px >> 24)
	}
	screen.WritePixels(a.rgba)
}

func (a *App) Layout(int, int) (int, int) {
	return video.FramebufferWidth, video.FramebufferHeight
}
