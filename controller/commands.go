package controller

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"

	"schotter/chaos"
	"schotter/config"
)

// Kind enumerates the control surface's commands.
type Kind string

const (
	// Randomize draws a new seed.
	Randomize Kind = "randomize"
	// SetSeed sets an explicit seed, from the panel's seed field.
	SetSeed Kind = "setSeed"
	// SetDisplacement and SetRotation come from the sliders, and are clamped to the slider range.
	SetDisplacement Kind = "setDisplacement"
	SetRotation     Kind = "setRotation"
	// NudgeDisplacement and NudgeRotation come from the arrow keys. They are floored at zero only.
	NudgeDisplacement Kind = "nudgeDisplacement"
	NudgeRotation     Kind = "nudgeRotation"
	// SaveFrame writes the current gravel to the capture file.
	SaveFrame Kind = "saveFrame"
	// Refresh republishes the current gravel without changing anything, e.g. for a new client.
	Refresh Kind = "refresh"
)

// NudgeStep is the adjust increment per arrow key press.
const NudgeStep = 0.1

// nudgeCeiling bounds nudged adjusts. Far past the slider range, but finite: an infinite adjust
// turns the top row's zero factor into NaN.
const nudgeCeiling = 100 * config.MaxAdjust

var kinds = map[Kind]struct{}{
	Randomize:         {},
	SetSeed:           {},
	SetDisplacement:   {},
	SetRotation:       {},
	NudgeDisplacement: {},
	NudgeRotation:     {},
	SaveFrame:         {},
	Refresh:           {},
}

// Command is a single control input. Value is used by the Set/Nudge kinds, Seed by SetSeed.
// Seed travels as a json string, since javascript numbers cannot hold every uint64.
type Command struct {
	Kind  Kind    `json:"kind"`
	Value float64 `json:"value,omitempty"`
	Seed  uint64  `json:"seed,string,omitempty"`
}

var (
	ErrUnknownCommand = errors.New("unknown command")
	ErrBadValue       = errors.New("bad command value")
)

// Decode parses a json command from the control panel.
func Decode(data []byte) (cmd Command, err error) {
	if err = json.Unmarshal(data, &cmd); err != nil {
		err = fmt.Errorf("decode command: %w", err)
		return
	}
	if _, ok := kinds[cmd.Kind]; !ok {
		err = fmt.Errorf("%w: %q", ErrUnknownCommand, cmd.Kind)
		return
	}
	if math.IsNaN(cmd.Value) || math.IsInf(cmd.Value, 0) {
		err = fmt.Errorf("%w: %v", ErrBadValue, cmd.Value)
		return
	}
	if (cmd.Kind == NudgeDisplacement || cmd.Kind == NudgeRotation) && math.Abs(cmd.Value) > config.MaxAdjust {
		err = fmt.Errorf("%w: nudge of %v exceeds %v", ErrBadValue, cmd.Value, config.MaxAdjust)
	}
	return
}

func clamp(val, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, val))
}

// floorZero keeps repeated decrements from ever going below zero.
func floorZero(val float64) float64 {
	return math.Max(0, val)
}

// nudge adds step to val, within [0, nudgeCeiling]. Values are rounded to the step's precision so
// that ten presses of 0.1 land exactly on 1.0 rather than drifting.
func nudge(val, step float64) float64 {
	sum := clamp(val+step, 0, nudgeCeiling)
	return floorZero(math.Round(sum*1e9) / 1e9)
}

// apply mutates params per cmd, and reports whether the gravel must be recomputed.
// SaveFrame and Refresh do not touch params.
func apply(params *chaos.Params, cmd Command) (changed bool) {
	switch cmd.Kind {
	case Randomize:
		params.Seed = chaos.RandomSeed()
		return true
	case SetSeed:
		params.Seed = cmd.Seed
		return true
	case SetDisplacement:
		params.DisplacementAdjust = clamp(cmd.Value, 0, config.MaxAdjust)
		return true
	case SetRotation:
		params.RotationAdjust = clamp(cmd.Value, 0, config.MaxAdjust)
		return true
	case NudgeDisplacement:
		params.DisplacementAdjust = nudge(params.DisplacementAdjust, cmd.Value)
		return true
	case NudgeRotation:
		params.RotationAdjust = nudge(params.RotationAdjust, cmd.Value)
		return true
	}
	return false
}
