//go:build !nogpu

// Command canvasdemo drives the canvas frame loop headlessly on the noop
// GPU backend. It exercises resizing, input, scheduled tasks and drawing,
// and logs what each frame did.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"time"

	"github.com/gogpu/gpucontext"
	"github.com/gogpu/wgpu/hal/noop"

	"github.com/gogpu/canvas"
)

var (
	clicks  = canvas.NewField("clicks", 0)
	ticks   = canvas.NewField("ticks", 0)
	paused  = canvas.NewField("paused", false)
	message = canvas.NewField("message", "waiting for the clock")
)

// demo draws a background, a moving ball, a status line and a click
// counter.
type demo struct {
	canvas.BaseApplication

	w, h float32
}

func newDemo(ctx *canvas.Context, w, h float32) (canvas.Application, error) {
	d := &demo{w: w, h: h}
	ctx.Schedule(0, func(context.Context) canvas.Outcome {
		now := time.Now().Format(time.TimeOnly)
		return canvas.Again(10*time.Millisecond, func(s *canvas.State) {
			message.Set(s, "clock "+now)
		})
	})
	return d, nil
}

func (d *demo) OnResize(_ *canvas.Context, w, h float32) {
	d.w, d.h = w, h
}

func (d *demo) OnMouse(ctx *canvas.Context, ev canvas.MouseEvent) {
	if ev.State == canvas.MousePressed && ev.Button == canvas.MouseButtonLeft {
		clicks.Update(ctx.State(), func(n int) int { return n + 1 })
	}
}

func (d *demo) OnKeyboard(ctx *canvas.Context, ev canvas.KeyboardEvent) {
	if ev.State == canvas.KeyPressed && ev.Key == gpucontext.KeySpace {
		paused.Update(ctx.State(), func(p bool) bool { return !p })
	}
}

func (d *demo) OnTick(ctx *canvas.Context) {
	st := ctx.State()
	if !paused.Get(st) {
		ticks.Update(st, func(n int) int { return n + 1 })
	}

	ctx.Clear(canvas.Hex("#1e1e2e"))
	x := float32(ticks.Get(st)%100) / 100 * (d.w - 80)
	ctx.Draw(canvas.Bounds(x, d.h/2-40, 80, 80), canvas.Ellipse(canvas.Hex("#f38ba8")))
	ctx.Draw(canvas.Bounds(16, 16, d.w-32, 48),
		canvas.RoundedRectangle(8, canvas.Hex("#313244")).Stroked(2))
	ctx.Draw(canvas.Bounds(24, 24, d.w-48, 32),
		canvas.NewText(message.Get(st), nil, 16, canvas.White))
	ctx.Draw(canvas.At(24, d.h-40),
		canvas.NewText(fmt.Sprintf("clicks: %d", clicks.Get(st)), nil, 16, canvas.Hex("#a6e3a1")))
}

func main() {
	var (
		configPath = flag.String("config", "", "TOML configuration file")
		frames     = flag.Int("frames", 120, "number of frames to run")
	)
	flag.Parse()

	cfg := canvas.DefaultConfig()
	if *configPath != "" {
		var err error
		if cfg, err = canvas.LoadConfig(*configPath); err != nil {
			log.Fatalf("canvasdemo: %v", err)
		}
	}
	level, err := cfg.Level()
	if err != nil {
		log.Fatalf("canvasdemo: %v", err)
	}
	canvas.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))

	if err := run(cfg, *frames); err != nil {
		log.Fatalf("canvasdemo: %v", err)
	}
}

func run(cfg canvas.Config, frames int) error {
	instance, err := noop.API{}.CreateInstance(nil)
	if err != nil {
		return fmt.Errorf("create instance: %w", err)
	}
	dev, err := canvas.OpenInstance(instance)
	if err != nil {
		instance.Destroy()
		return err
	}
	defer dev.Close()

	surface := canvas.NewOffscreenSurface(dev)
	defer surface.Destroy()

	opts := cfg.Options()
	renderer := canvas.NewSurfaceRenderer(dev, surface, opts...)
	defer renderer.Destroy()

	win := cfg.Window
	r, err := canvas.NewRunner(renderer, newDemo, win.Width, win.Height, win.Ratio, opts...)
	if err != nil {
		return err
	}
	defer r.Close()

	w, h := win.Width, win.Height
	for i := range frames {
		switch {
		case i == frames/2:
			// Simulate the window being dragged to a larger size.
			w, h = w*2, h*2
		case i%30 == 10:
			r.Enqueue(canvas.MouseEvent{
				State: canvas.MousePressed, Button: canvas.MouseButtonLeft,
				X: float32(w) / 2, Y: float32(h) / 2,
			})
		case i%45 == 20:
			r.Enqueue(canvas.KeyboardEvent{Key: gpucontext.KeySpace, State: canvas.KeyPressed})
		}
		if err := r.Frame(w, h, win.Ratio); err != nil {
			return err
		}
		time.Sleep(time.Millisecond)
	}

	st := r.State()
	canvas.Logger().Info("demo finished",
		"frames", r.Frames(),
		"presented", renderer.Frames(),
		"skipped", renderer.Skipped(),
		"surface_recreations", renderer.Recreations(),
		"size", r.Size().String(),
		"clicks", clicks.Get(st),
		"ticks", ticks.Get(st),
		"message", message.Get(st))
	return nil
}
