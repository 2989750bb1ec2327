/*
Package chaos perturbs gravel. Each stone is displaced and rotated by a random amount scaled
by its row: the top row sits exactly on the grid and the disorder grows toward the bottom.

All randomness is drawn through a Source in a fixed order, row-major over the stones and
dx, dy, rotation within each stone. Given the same seed and the same Source implementation,
Recompute is bit-for-bit reproducible.
*/
package chaos

import (
	"math"
	"math/rand"

	"schotter/models"
)

// Preset fixes the maximum chaos factor reached by the last row.
type Preset struct {
	Name     string
	MaxChaos float64
}

// The two presets are deliberately not reconciled. The static sketch caps the chaos
// factor at 0.75 with both adjusts fixed at 1.0. The interactive sketch drops the cap
// and leaves the scaling entirely to the displacement/rotation adjusts.
var (
	Static      = Preset{Name: "static", MaxChaos: 0.75}
	Interactive = Preset{Name: "interactive", MaxChaos: 1.0}
)

// PresetByName returns the named preset, and false if there is no such preset.
func PresetByName(name string) (Preset, bool) {
	switch name {
	case Static.Name:
		return Static, true
	case Interactive.Name:
		return Interactive, true
	}
	return Preset{}, false
}

// Params are the user-tunable inputs to a recomputation.
type Params struct {
	Seed               uint64
	DisplacementAdjust float64
	RotationAdjust     float64
}

// DefaultParams are the slider defaults: both adjusts at 1.0.
func DefaultParams(seed uint64) Params {
	return Params{
		Seed:               seed,
		DisplacementAdjust: 1.0,
		RotationAdjust:     1.0,
	}
}

// Source is a stream of uniform values in [0, 1).
type Source interface {
	Float64() float64
}

type globalSource struct{}

func (globalSource) Float64() float64 { return rand.Float64() }

// GlobalSource draws from the process-global generator, which is seeded differently every run.
func GlobalSource() Source {
	return globalSource{}
}

// NewSeededSource returns a deterministic generator for the passed seed.
// The uint64 seed is reinterpreted bitwise as the int64 math/rand expects.
func NewSeededSource(seed uint64) Source {
	return rand.New(rand.NewSource(int64(seed)))
}

// RandomSeed returns a fresh seed from the process-global generator.
func RandomSeed() uint64 {
	return rand.Uint64()
}

// Uniform maps the next value of src onto [lo, hi).
func Uniform(src Source, lo, hi float64) float64 {
	return lo + (hi-lo)*src.Float64()
}

// ChaosFactor is (row / rows) * maxChaos: zero at the top row, growing linearly toward the bottom.
func ChaosFactor(row, rows int, maxChaos float64) float64 {
	if rows <= 0 {
		return 0
	}
	return float64(row) / float64(rows) * maxChaos
}

// Perturb computes a single stone's perturbation. It always draws exactly three values
// from src, in the order dx, dy, rotation, even when the factor is zero, so the
// consumption order of the stream never depends on the row.
func Perturb(
	row int,
	rows int,
	preset Preset,
	params Params,
	src Source,
) (p models.Perturbation) {
	factor := ChaosFactor(row, rows, preset.MaxChaos)
	displacement := factor * params.DisplacementAdjust
	rotation := factor * params.RotationAdjust

	p.DX = displacement * Uniform(src, -0.5, 0.5)
	p.DY = displacement * Uniform(src, -0.5, 0.5)
	p.Rotation = rotation * Uniform(src, -math.Pi/4, math.Pi/4)
	return
}

// Scatter perturbs every stone in row-major order, drawing from the passed source.
func Scatter(
	gravel models.Gravel,
	preset Preset,
	params Params,
	src Source,
) {
	gravel.VisitStones(func(stone *models.Stone) {
		stone.Perturbation = Perturb(stone.Row, gravel.Rows, preset, params, src)
	})
}

// Recompute re-derives the whole gravel from scratch: a new generator is seeded from
// params.Seed on every call, so unchanged params always produce the same gravel.
func Recompute(
	gravel models.Gravel,
	preset Preset,
	params Params,
) {
	Scatter(gravel, preset, params, NewSeededSource(params.Seed))
}
