/*
Package controller owns the interactive sketch's state: the parameters and the gravel.

A single goroutine (Run) consumes commands, applies them to the parameters, recomputes the whole
gravel from scratch and publishes a snapshot. Nothing is cached between cycles beyond the
parameters themselves: the gravel is fully determined by (seed, displacement, rotation), so a
recompute under unchanged parameters reproduces the same gravel.
*/
package controller

import (
	"context"
	"sync/atomic"
	"time"

	"schotter/atomic_float"
	"schotter/chaos"
	"schotter/metrics"
	"schotter/models"
	"schotter/render"

	"github.com/rs/zerolog/log"
)

// commandBuffer bounds queued commands. Key repeat can outpace a cycle; the loop drains
// everything queued before recomputing, so a burst costs one recompute.
const commandBuffer = 64

// Options configure a Controller.
type Options struct {
	Grid        models.GridConfig
	Preset      chaos.Preset
	Params      chaos.Params
	Style       render.Style
	CapturePath string
	Metrics     *metrics.Registry // Optional
}

// Frame is a published snapshot: the gravel and the params it was computed from.
type Frame struct {
	Gravel models.Gravel
	Params chaos.Params
}

// Controller is the update step between the control surface and the gravel.
type Controller struct {
	grid        models.GridConfig
	preset      chaos.Preset
	style       render.Style
	capturePath string
	metrics     *metrics.Registry

	commands chan Command
	updates  chan Frame

	// Owned by the Run goroutine.
	params chaos.Params
	gravel models.Gravel
	dirty  bool

	// Published for readers on other goroutines; written only by the Run goroutine.
	seed         atomic.Uint64
	displacement *atomic_float.AtomicFloat64
	rotation     *atomic_float.AtomicFloat64
	latest       atomic.Pointer[Frame]
}

// NewController builds the gravel and computes the first frame, so Snapshot is valid before Run is called.
// A nil Metrics gets a private registry.
func NewController(opts Options) *Controller {
	if opts.Metrics == nil {
		opts.Metrics = metrics.NewRegistry()
	}
	ctl := &Controller{
		grid:         opts.Grid,
		preset:       opts.Preset,
		style:        opts.Style,
		capturePath:  opts.CapturePath,
		metrics:      opts.Metrics,
		commands:     make(chan Command, commandBuffer),
		updates:      make(chan Frame, 1),
		params:       opts.Params,
		gravel:       models.NewGravel(opts.Grid),
		displacement: atomic_float.NewAtomicFloat64(opts.Params.DisplacementAdjust),
		rotation:     atomic_float.NewAtomicFloat64(opts.Params.RotationAdjust),
	}
	ctl.recompute()
	return ctl
}

// Commands is the intake for the control surface.
func (ctl *Controller) Commands() chan<- Command {
	return ctl.commands
}

// Submit queues a command, or returns the context's error if it is cancelled first.
func (ctl *Controller) Submit(ctx context.Context, cmd Command) error {
	select {
	case ctl.commands <- cmd:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Updates publishes a frame after every cycle. Only the latest frame is retained:
// a slow reader skips intermediate frames but always ends up on the current one.
func (ctl *Controller) Updates() <-chan Frame {
	return ctl.updates
}

// Params returns the current parameters. Safe for concurrent use.
// Each field is read independently: a read racing a cycle may mix old and new values.
func (ctl *Controller) Params() chaos.Params {
	return chaos.Params{
		Seed:               ctl.seed.Load(),
		DisplacementAdjust: ctl.displacement.AtomicRead(),
		RotationAdjust:     ctl.rotation.AtomicRead(),
	}
}

// Snapshot returns the latest frame: gravel and the params it was computed from. Safe for concurrent use.
func (ctl *Controller) Snapshot() Frame {
	return *ctl.latest.Load()
}

// Grid returns the grid the gravel is laid out on.
func (ctl *Controller) Grid() models.GridConfig {
	return ctl.grid
}

// Run publishes the first frame, then applies commands until ctx is cancelled or the command
// channel is closed. It must be called at most once.
func (ctl *Controller) Run(ctx context.Context) error {
	log.Info().
		Str("preset", ctl.preset.Name).
		Uint64("seed", ctl.params.Seed).
		Float64("displacement", ctl.params.DisplacementAdjust).
		Float64("rotation", ctl.params.RotationAdjust).
		Msg("controller started")
	ctl.publish()

	for {
		select {
		case <-ctx.Done():
			return nil
		case cmd, ok := <-ctl.commands:
			if !ok {
				return nil
			}
			ctl.cycle(cmd)
		}
	}
}

// cycle applies cmd and everything queued behind it, then recomputes and publishes once.
func (ctl *Controller) cycle(cmd Command) {
	refresh := ctl.handle(cmd)
	for drained := false; !drained; {
		select {
		case next, ok := <-ctl.commands:
			if !ok {
				drained = true
				break
			}
			refresh = ctl.handle(next) || refresh
		default:
			drained = true
		}
	}

	if ctl.dirty {
		ctl.recompute()
		refresh = true
	}
	if refresh {
		ctl.publish()
	}
}

// handle applies a single command. It returns true if a republish was asked for explicitly.
func (ctl *Controller) handle(cmd Command) (refresh bool) {
	ctl.metrics.IncCommand(string(cmd.Kind))
	log.Debug().Str("kind", string(cmd.Kind)).Float64("value", cmd.Value).Msg("command")

	switch cmd.Kind {
	case SaveFrame:
		// Capture the state as of this command, not as of the end of the batch.
		if ctl.dirty {
			ctl.recompute()
		}
		ctl.capture()
	case Refresh:
		refresh = true
	default:
		prevSeed := ctl.params.Seed
		if apply(&ctl.params, cmd) {
			ctl.dirty = true
		}
		if ctl.params.Seed != prevSeed {
			log.Info().Uint64("seed", ctl.params.Seed).Msg("reseeded")
		}
	}
	return
}

// recompute re-derives the gravel from the current params and stores the frame for readers.
func (ctl *Controller) recompute() {
	started := time.Now()
	chaos.Recompute(ctl.gravel, ctl.preset, ctl.params)
	ctl.dirty = false

	ctl.seed.Store(ctl.params.Seed)
	ctl.displacement.AtomicSet(ctl.params.DisplacementAdjust)
	ctl.rotation.AtomicSet(ctl.params.RotationAdjust)
	ctl.latest.Store(&Frame{
		Gravel: ctl.gravel.Clone(),
		Params: ctl.params,
	})

	ctl.metrics.ObserveFrame(started)
}

// publish replaces any unread update with the latest frame. The loop is the only sender,
// so after draining the buffer the send cannot block.
func (ctl *Controller) publish() {
	select {
	case <-ctl.updates:
	default:
	}
	ctl.updates <- ctl.Snapshot()
}

// capture writes the latest gravel to the capture file. Failures are logged, never fatal.
func (ctl *Controller) capture() {
	frame := ctl.Snapshot()
	if err := render.SavePNG(ctl.capturePath, frame.Gravel, ctl.grid, ctl.style); err != nil {
		ctl.metrics.IncCapture(false)
		log.Error().Err(err).Str("path", ctl.capturePath).Msg("frame capture failed")
		return
	}
	ctl.metrics.IncCapture(true)
	log.Info().Str("path", ctl.capturePath).Uint64("seed", frame.Params.Seed).Msg("frame saved")
}
