package chaos

import (
	"math"
	"testing"

	"schotter/models"

	. "github.com/smartystreets/goconvey/convey"
)

// cyclicSource replays a fixed sequence of values and counts draws.
type cyclicSource struct {
	values []float64
	draws  int
}

func (src *cyclicSource) Float64() float64 {
	val := src.values[src.draws%len(src.values)]
	src.draws++
	return val
}

func TestChaosFactor(t *testing.T) {
	Convey("When the chaos factor is computed per row", t, func() {
		rows := models.DEFAULT_ROWS

		Convey("The top row has no chaos in either preset", func() {
			So(ChaosFactor(0, rows, Static.MaxChaos), ShouldEqual, 0.0)
			So(ChaosFactor(0, rows, Interactive.MaxChaos), ShouldEqual, 0.0)
		})

		Convey("The factor never decreases toward the bottom", func() {
			for _, preset := range []Preset{Static, Interactive} {
				last := -1.0
				for row := 0; row < rows; row++ {
					factor := ChaosFactor(row, rows, preset.MaxChaos)
					So(factor, ShouldBeGreaterThanOrEqualTo, last)
					So(factor, ShouldBeLessThan, preset.MaxChaos)
					last = factor
				}
			}
		})

		Convey("A degenerate grid has no chaos", func() {
			So(ChaosFactor(3, 0, 1.0), ShouldEqual, 0.0)
		})
	})
}

func TestPresetByName(t *testing.T) {
	Convey("Presets are found by name", t, func() {
		preset, ok := PresetByName("static")
		So(ok, ShouldBeTrue)
		So(preset.MaxChaos, ShouldEqual, 0.75)

		preset, ok = PresetByName("interactive")
		So(ok, ShouldBeTrue)
		So(preset.MaxChaos, ShouldEqual, 1.0)

		_, ok = PresetByName("tumult")
		So(ok, ShouldBeFalse)
	})
}

func TestPerturb(t *testing.T) {
	Convey("When a stone is perturbed", t, func() {
		rows := models.DEFAULT_ROWS

		Convey("Exactly three values are drawn, even for the top row", func() {
			src := &cyclicSource{values: []float64{0.25}}
			p := Perturb(0, rows, Interactive, DefaultParams(1), src)
			So(src.draws, ShouldEqual, 3)
			So(p.IsZero(), ShouldBeTrue)
		})

		Convey("Values are drawn in the order dx, dy, rotation", func() {
			src := &cyclicSource{values: []float64{0.0, 0.5, 0.75}}
			row := 11
			params := Params{DisplacementAdjust: 2.0, RotationAdjust: 3.0}
			p := Perturb(row, rows, Interactive, params, src)

			factor := ChaosFactor(row, rows, Interactive.MaxChaos)
			So(p.DX, ShouldAlmostEqual, factor*2.0*-0.5)
			So(p.DY, ShouldAlmostEqual, 0.0)
			So(p.Rotation, ShouldAlmostEqual, factor*3.0*math.Pi/8)
		})

		Convey("Zero adjusts leave the stone in place regardless of the draw", func() {
			src := NewSeededSource(42)
			for row := 0; row < rows; row++ {
				p := Perturb(row, rows, Interactive, Params{Seed: 42}, src)
				So(p.IsZero(), ShouldBeTrue)
			}
		})
	})
}

func TestRecompute(t *testing.T) {
	Convey("Given default gravel and interactive params", t, func() {
		cfg := models.DefaultGridConfig()
		params := Params{Seed: 7, DisplacementAdjust: 1.5, RotationAdjust: 2.5}

		Convey("Two recomputations with the same params are identical", func() {
			first := models.NewGravel(cfg)
			second := models.NewGravel(cfg)
			Recompute(first, Interactive, params)
			Recompute(second, Interactive, params)
			So(second.Stones, ShouldResemble, first.Stones)

			// Recomputing in place over already-perturbed gravel changes nothing.
			Recompute(second, Interactive, params)
			So(second.Stones, ShouldResemble, first.Stones)
		})

		Convey("Recompute matches a scatter from a freshly seeded source", func() {
			first := models.NewGravel(cfg)
			second := models.NewGravel(cfg)
			Recompute(first, Interactive, params)
			Scatter(second, Interactive, params, NewSeededSource(params.Seed))
			So(second.Stones, ShouldResemble, first.Stones)
		})

		Convey("Changing only the seed changes the gravel", func() {
			first := models.NewGravel(cfg)
			second := models.NewGravel(cfg)
			Recompute(first, Interactive, params)
			reseeded := params
			reseeded.Seed++
			Recompute(second, Interactive, reseeded)
			So(second.Stones, ShouldNotResemble, first.Stones)
		})

		Convey("Every perturbation lies within its row's bounds", func() {
			for _, preset := range []Preset{Static, Interactive} {
				gravel := models.NewGravel(cfg)
				Recompute(gravel, preset, params)
				gravel.VisitStones(func(stone *models.Stone) {
					factor := ChaosFactor(stone.Row, gravel.Rows, preset.MaxChaos)
					maxOffset := 0.5 * params.DisplacementAdjust * factor
					maxRotation := math.Pi / 4 * params.RotationAdjust * factor
					So(math.Abs(stone.DX), ShouldBeLessThanOrEqualTo, maxOffset)
					So(math.Abs(stone.DY), ShouldBeLessThanOrEqualTo, maxOffset)
					So(math.Abs(stone.Rotation), ShouldBeLessThanOrEqualTo, maxRotation)
				})
			}
		})

		Convey("The top row is never perturbed, whatever the seed", func() {
			for seed := uint64(0); seed < 20; seed++ {
				gravel := models.NewGravel(cfg)
				Recompute(gravel, Interactive, Params{Seed: seed, DisplacementAdjust: 5, RotationAdjust: 5})
				for col := 0; col < cfg.Cols; col++ {
					So(gravel.At(col, 0).Perturbation.IsZero(), ShouldBeTrue)
				}
			}
		})

		Convey("Zero adjusts align every stone, whatever the seed", func() {
			gravel := models.NewGravel(cfg)
			Recompute(gravel, Interactive, Params{Seed: RandomSeed()})
			gravel.VisitStones(func(stone *models.Stone) {
				So(stone.Perturbation.IsZero(), ShouldBeTrue)
			})
		})
	})
}

func TestScatterGlobal(t *testing.T) {
	Convey("When the static sketch scatters from the global source", t, func() {
		gravel := models.NewGravel(models.DefaultGridConfig())
		Scatter(gravel, Static, DefaultParams(0), GlobalSource())

		Convey("The bottom rows are disordered and the top row is not", func() {
			moved := 0
			gravel.VisitStones(func(stone *models.Stone) {
				if !stone.Perturbation.IsZero() {
					moved++
				}
			})
			So(moved, ShouldBeGreaterThan, 0)
			So(gravel.At(0, 0).Perturbation.IsZero(), ShouldBeTrue)
		})
	})
}
