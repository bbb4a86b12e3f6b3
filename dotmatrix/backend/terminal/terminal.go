// Package terminal renders the framebuffer into a tcell screen, two pixels
// per character cell using the upper-half-block glyph.
package terminal

import (
	"fmt"
	"time"

	"github.com/gdamore/tcell/v2"

	"github.com/pvallone/go-dotmatrix/dotmatrix/backend"
	"github.com/pvallone/go-dotmatrix/dotmatrix/input"
	"github.com/pvallone/go-dotmatrix/dotmatrix/video"
)

// keyTimeout is how long a key counts as held after its last event.
// Terminals only deliver key-down, so releases are synthesized when the
// auto-repeat stream stops.
const keyTimeout = 150 * time.Millisecond

// Backend implements backend.Backend on top of tcell.
type Backend struct {
	screen  tcell.Screen
	lastHit map[input.Button]time.Time
	held    map[input.Button]bool
	quit    bool
}

func New() *Backend {
	return &Backend{
		lastHit: make(map[input.Button]time.Time),
		held:    make(map[input.Button]bool),
	}
}

func (t *Backend) Init(backend.Config) error {
	screen, err := tcell.NewScreen()
	if err != nil {
		return fmt.Errorf("terminal init: %w", err)
	}
	if err := screen.Init(); err != nil {
		return fmt.Errorf("terminal init: %w", err)
	}

	screen.SetStyle(tcell.StyleDefault.Background(tcell.ColorBlack))
	screen.Clear()
	t.screen = screen
	return nil
}

func (t *Backend) Update(frame *video.FrameBuffer) ([]input.Event, error) {
	now := time.Now()

	for t.screen.HasPendingEvent() {
		ev := t.screen.PollEvent()
		switch ev := ev.(type) {
		case *tcell.EventKey:
			t.handleKey(ev, now)
		case *tcell.EventResize:
			t.screen.Sync()
		}
	}

	if t.quit {
		return nil, backend.ErrClosed
	}

	events := t.collectEdges(now)
	t.draw(frame)
	return events, nil
}

func (t *Backend) Cleanup() error {
	if t.screen != nil {
		t.screen.Fini()
	}
	return nil
}

// handleKey records a key hit; edges are derived in collectEdges.
func (t *Backend) handleKey(ev *tcell.EventKey, now time.Time) {
	if ev.Key() == tcell.KeyEscape || ev.Key() == tcell.KeyCtrlC {
		t.quit = true
		return
	}

	if button, ok := mapKey(ev); ok {
		t.lastHit[button] = now
	}
}

// collectEdges turns the hit timestamps into press/release events: a fresh
// hit is a press, a stale one past the timeout is a release.
func (t *Backend) collectEdges(now time.Time) []input.Event {
	var events []input.Event

	for button, hit := range t.lastHit {
		active := now.Sub(hit) < keyTimeout
		switch {
		case active && !t.held[button]:
			t.held[button] = true
			events = append(events, input.Event{Button: button, Pressed: true})
		case !active && t.held[button]:
			t.held[button] = false
			events = append(events, input.Event{Button: button, Pressed: false})
		}
	}

	return events
}

func mapKey(ev *tcell.EventKey) (input.Button, bool) {
	switch ev.Key() {
	case tcell.KeyUp:
		return input.ButtonUp, true
	case tcell.KeyDown:
		return input.ButtonDown, true
	case tcell.KeyLeft:
		return input.ButtonLeft, true
	case tcell.KeyRight:
		return input.ButtonRight, true
	case tcell.KeyEnter:
		return input.ButtonStart, true
	case tcell.KeyBacktab, tcell.KeyTab:
		return input.ButtonSelect, true
	}

	switch ev.Rune() {
	case 'z', 'Z':
		return input.ButtonA, true
	case 'x', 'X':
		return input.ButtonB, true
	}

	return 0, false
}

// draw paints the frame using '▀': the foreground carries the upper pixel,
// the background the lower one, halving the needed rows.
func (t *Backend) draw(frame *video.FrameBuffer) {
	for y := 0; y < video.FramebufferHeight; y += 2 {
		for x := 0; x < video.FramebufferWidth; x++ {
			upper := cellColor(frame.Pixel(x, y))
			lower := cellColor(frame.Pixel(x, y+1))
			style := tcell.StyleDefault.Foreground(upper).Background(lower)
			t.screen.SetContent(x, y/2, '▀', nil, style)
		}
	}
	t.screen.Show()
}

func cellColor(c video.Color) tcell.Color {
	r := int32(c>>16) & 0xFF
	g := int32(c>>8) & 0xFF
	b := int32(c) & 0xFF
	return tcell.NewRGBColor(r, g, b)
}
