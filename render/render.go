// render rasterizes gravel into images, for the static sketch and for frame captures.
package render

import (
	"fmt"
	"image"
	"image/color"
	"io"
	"path/filepath"
	"strings"

	"schotter/models"

	"github.com/fogleman/gg"
	"golang.org/x/image/colornames"
)

// Style is the fixed palette: an unfilled stroke over a solid background.
type Style struct {
	Background color.Color
	Stroke     color.Color
}

// DefaultStyle is black strokes on white.
func DefaultStyle() Style {
	return Style{
		Background: colornames.White,
		Stroke:     colornames.Black,
	}
}

// Render draws each stone as an unfilled square centered on its cell plus offset, rotated by its rotation.
//
// The canvas is y-down, so the grid-space transform (scale by cell size, flip y, center the grid)
// collapses to: pixel = margin + cellSize * (cell + 0.5 + offset). Row 0 lands at the top.
// gg strokes in device pixels regardless of the current matrix, hence the line width is
// scaled by the cell size here rather than by the transform.
func Render(
	gravel models.Gravel,
	cfg models.GridConfig,
	style Style,
) image.Image {
	return draw(gravel, cfg, style).Image()
}

func draw(
	gravel models.Gravel,
	cfg models.GridConfig,
	style Style,
) *gg.Context {
	dc := gg.NewContext(cfg.Width(), cfg.Height())
	dc.SetColor(style.Background)
	dc.Clear()

	cellSize := float64(cfg.CellSize)
	margin := float64(cfg.Margin)
	dc.SetColor(style.Stroke)
	dc.SetLineWidth(cfg.LineWidth * cellSize)
	dc.SetLineJoin(gg.LineJoinRound)

	gravel.VisitStones(func(stone *models.Stone) {
		dc.Push()
		dc.Translate(
			margin+cellSize*(float64(stone.Col)+0.5+stone.DX),
			margin+cellSize*(float64(stone.Row)+0.5+stone.DY),
		)
		dc.Rotate(stone.Rotation)
		dc.DrawRectangle(-cellSize/2, -cellSize/2, cellSize, cellSize)
		dc.Stroke()
		dc.Pop()
	})

	return dc
}

// EncodePNG renders the gravel and writes it to w as a png.
func EncodePNG(
	w io.Writer,
	gravel models.Gravel,
	cfg models.GridConfig,
	style Style,
) error {
	if err := draw(gravel, cfg, style).EncodePNG(w); err != nil {
		return fmt.Errorf("encode png: %w", err)
	}
	return nil
}

// SavePNG renders the gravel into the png file at path, overwriting it.
func SavePNG(
	path string,
	gravel models.Gravel,
	cfg models.GridConfig,
	style Style,
) error {
	if err := draw(gravel, cfg, style).SavePNG(path); err != nil {
		return fmt.Errorf("save %s: %w", path, err)
	}
	return nil
}

// CaptureName returns "<program-name>.png" for the passed program path, e.g. os.Args[0].
func CaptureName(programPath string) string {
	name := filepath.Base(programPath)
	name = strings.TrimSuffix(name, filepath.Ext(name))
	if name == "" || name == "." || name == string(filepath.Separator) {
		name = "schotter"
	}
	return name + ".png"
}
