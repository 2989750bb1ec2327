package stone_views

import (
	"fmt"
	"html/template"

	"schotter/models"
	"schotter/render"
	"schotter/server/fastview"

	channerics "github.com/niceyeti/channerics/channels"
)

// Canvas draws the gravel as an svg of unfilled squares, one rect per stone.
// The grid-to-pixel transform lives on the enclosing group, so updates only touch each
// stone's own transform attribute.
type Canvas struct {
	id      string
	grid    models.GridConfig
	style   render.Style
	updates <-chan []fastview.EleUpdate
}

func NewCanvas(
	done <-chan struct{},
	scenes <-chan Scene,
	grid models.GridConfig,
	style render.Style,
) (cv *Canvas) {
	cv = &Canvas{
		id:    "canvas",
		grid:  grid,
		style: style,
	}
	cv.updates = channerics.Convert(done, scenes, cv.onUpdate)
	return
}

func (cv *Canvas) Updates() <-chan []fastview.EleUpdate {
	return cv.updates
}

// onUpdate returns a transform update for every stone. Every stone moves on a reseed, so there
// is nothing to gain from diffing against the previous scene.
func (cv *Canvas) onUpdate(scene Scene) (ops []fastview.EleUpdate) {
	ops = make([]fastview.EleUpdate, 0, len(scene.Stones))
	for _, stone := range scene.Stones {
		ops = append(ops, fastview.EleUpdate{
			EleId: stone.Id,
			Ops: []fastview.Op{
				{
					Key:   "transform",
					Value: stone.Transform,
				},
			},
		})
	}
	return
}

// Parse adds the canvas template. The canvas is fixed at the grid's pixel size.
func (cv *Canvas) Parse(
	t *template.Template,
) (name string, err error) {
	name = cv.id
	width, height := cv.grid.Width(), cv.grid.Height()
	svg := fmt.Sprintf(
		`<svg id="%s" xmlns="http://www.w3.org/2000/svg" width="%d" height="%d" viewBox="0 0 %d %d">
			<rect width="%d" height="%d" fill="%s" />
			<g transform="translate(%d %d) scale(%d)" fill="none" stroke="%s" stroke-width="%g" stroke-linejoin="round">`,
		cv.id, width, height, width, height,
		width, height, cssColor(cv.style.Background),
		cv.grid.Margin, cv.grid.Margin, cv.grid.CellSize, cssColor(cv.style.Stroke), cv.grid.LineWidth)

	_, err = t.Parse(
		`{{ define "` + name + `" }}
		<div style="padding:20px; float:left;">
		` + svg + `
			{{ range .Stones }}
				<rect id="{{ .Id }}" x="-0.5" y="-0.5" width="1" height="1" transform="{{ .Transform }}" />
			{{ end }}
			</g>
		</svg>
		</div>
		{{ end }}`)
	return
}
