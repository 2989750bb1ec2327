// stone_views contains views derived from the Scene view-model.
package stone_views

import (
	"fmt"
	"image/color"
	"math"
	"strconv"

	"schotter/controller"
)

// Scene is a controller frame flattened into values immediately usable as view parameters:
// svg attribute strings for the stones, formatted values for the panel.
type Scene struct {
	Stones       []StoneCell
	Seed         string
	Displacement float64
	Rotation     float64
}

// StoneCell is a single stone's svg element. Transform is in grid units: the canvas scales
// and offsets the whole group, so each stone only needs its own cell plus offset.
type StoneCell struct {
	Id        string
	Transform string
}

// Convert transforms a controller frame into a Scene.
// Stones keep the gravel's row-major order, which is also their order in the dom.
func Convert(frame controller.Frame) (scene Scene) {
	scene = Scene{
		Stones:       make([]StoneCell, 0, frame.Gravel.Len()),
		Seed:         strconv.FormatUint(frame.Params.Seed, 10),
		Displacement: frame.Params.DisplacementAdjust,
		Rotation:     frame.Params.RotationAdjust,
	}
	for _, stone := range frame.Gravel.Stones {
		scene.Stones = append(scene.Stones, StoneCell{
			Id: stoneId(stone.Col, stone.Row),
			Transform: fmt.Sprintf("translate(%.4f %.4f) rotate(%.3f)",
				float64(stone.Col)+0.5+stone.DX,
				float64(stone.Row)+0.5+stone.DY,
				toDegrees(stone.Rotation)),
		})
	}
	return
}

func stoneId(col, row int) string {
	return fmt.Sprintf("stone-%d-%d", col, row)
}

// toDegrees converts radians for svg's rotate(), which like the rasterizer is clockwise in y-down space.
func toDegrees(rad float64) float64 {
	return rad * 180 / math.Pi
}

// cssColor formats c as a css hex color.
func cssColor(c color.Color) string {
	r, g, b, _ := c.RGBA()
	return fmt.Sprintf("#%02x%02x%02x", r>>8, g>>8, b>>8)
}
