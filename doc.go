// Package canvas is the frame lifecycle and state runtime of a retained
// 2D GPU canvas.
//
// # Overview
//
// An Application draws into a Context once per frame. The Runner turns
// the recorded items into meshes through an Atlas and hands them to a
// Renderer, usually a SurfaceRenderer backed by gogpu/wgpu. Between frames,
// background work runs on a Scheduler and reports back through callbacks
// that mutate a shared State on the frame goroutine.
//
// # Quick Start
//
//	dev, err := canvas.OpenDevice(gputypes.BackendVulkan)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	renderer := canvas.NewSurfaceRenderer(dev, surface)
//	r, err := canvas.NewRunner(renderer, newApp, 1600, 1200, 2)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer r.Close()
//
//	for running {
//	    if err := r.Frame(windowWidth, windowHeight, scale); err != nil {
//	        log.Fatal(err)
//	    }
//	}
//
// # Coordinates
//
// Applications work in logical pixels. Size converts between logical and
// physical pixels with a single rounding rule, halves away from zero.
// Items, meshes and the renderer work in physical pixels.
//
// # Depth
//
// Every item carries a 16-bit Z. Context.Clear puts its background at
// MaxZ and each Draw call lands one step in front of the previous one.
// Smaller Z is nearer the viewer.
//
// # Frame order
//
// Within Runner.Frame: resize and OnResize, queued events, scheduled
// callbacks, OnTick, then meshing, upload and present. A callback queued
// by a task is always applied before the OnTick of the frame that
// observes it.
//
// # Logging
//
// canvas logs through log/slog and is silent until SetLogger is called.
//
// # Build tags
//
// Building with -tags nogpu leaves out the wgpu surface renderer and its
// device helpers. The Runner then drives any Renderer the host supplies.
package canvas
