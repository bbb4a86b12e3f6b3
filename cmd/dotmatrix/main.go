package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/urfave/cli"

	"github.com/pvallone/go-dotmatrix/dotmatrix"
	"github.com/pvallone/go-dotmatrix/dotmatrix/backend"
	"github.com/pvallone/go-dotmatrix/dotmatrix/backend/ebitenui"
	"github.com/pvallone/go-dotmatrix/dotmatrix/backend/sdl2"
	"github.com/pvallone/go-dotmatrix/dotmatrix/backend/terminal"
)

const frameTime = time.Second / 60

func main() {
	app := cli.NewApp()
	app.Name = "dotmatrix"
	app.Description = "A DMG Game Boy emulator"
	app.Usage = "dotmatrix [options] <ROM file>"
	app.Version = "0.1.0"
	app.Flags = []cli.Flag{
		cli.StringFlag{
			Name:  "rom",
			Usage: "Path to the ROM file",
		},
		cli.StringFlag{
			Name:  "backend",
			Usage: "Front-end to use: terminal, sdl2, ebiten or headless",
			Value: "terminal",
		},
		cli.IntFlag{
			Name:  "frames",
			Usage: "Number of frames to run in headless mode",
			Value: 0,
		},
		cli.IntFlag{
			Name:  "scale",
			Usage: "Window scale factor for windowed backends",
			Value: 2,
		},
	}
	app.Action = run

	if err := app.Run(os.Args); err != nil {
		slog.Error("Error running emulator", "error", err)
		os.Exit(1)
	}
}

func run(c *cli.Context) error {
	romPath := c.String("rom")
	if romPath == "" {
		if c.NArg() > 0 {
			romPath = c.Args().Get(0)
		} else {
			cli.ShowAppHelp(c)
			return errors.New("no ROM path provided")
		}
	}

	data, err := os.ReadFile(romPath)
	if err != nil {
		return fmt.Errorf("reading ROM: %w", err)
	}

	emu, err := dotmatrix.NewWithROM(data)
	if err != nil {
		return fmt.Errorf("loading ROM: %w", err)
	}
	slog.Info("Loaded ROM", "path", romPath, "bytes", len(data))

	config := backend.Config{
		Title: "dotmatrix",
		Scale: c.Int("scale"),
	}

	switch c.String("backend") {
	case "headless":
		return runHeadless(emu, c.Int("frames"))
	case "ebiten":
		return ebitenui.Run(emu, config)
	case "sdl2":
		return runLoop(emu, sdl2.New(), config)
	case "terminal":
		return runLoop(emu, terminal.New(), config)
	default:
		return fmt.Errorf("unknown backend %q", c.String("backend"))
	}
}

// runHeadless advances a fixed number of frames as fast as possible and
// logs the final machine state.
func runHeadless(emu *dotmatrix.DMG, frames int) error {
	if frames <= 0 {
		return errors.New("headless mode requires --frames with a positive value")
	}

	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelDebug,
	})))

	for i := 0; i < frames; i++ {
		if err := emu.RunFrame(); err != nil {
			return fmt.Errorf("frame %d: %w", i, err)
		}
	}

	slog.Info("Headless run complete", "frames", frames, "state", emu.Snapshot().String())
	return nil
}

// runLoop paces a polling backend against wall-clock at 60 frames per
// second, draining its input edges into the joypad between frames.
func runLoop(emu *dotmatrix.DMG, b backend.Backend, config backend.Config) error {
	if err := b.Init(config); err != nil {
		return err
	}
	defer b.Cleanup()

	ticker := time.NewTicker(frameTime)
	defer ticker.Stop()

	for range ticker.C {
		if err := emu.RunFrame(); err != nil {
			return err
		}

		events, err := b.Update(emu.Framebuffer())
		if err != nil {
			if errors.Is(err, backend.ErrClosed) {
				return nil
			}
			return err
		}

		for _, event := range events {
			emu.HandleEvent(event)
		}
	}
	return nil
}
