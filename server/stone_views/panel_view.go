package stone_views

import (
	"fmt"
	"html/template"

	"schotter/config"
	"schotter/server/fastview"

	channerics "github.com/niceyeti/channerics/channels"
)

// Panel is the control panel: the seed field, the two adjust sliders and their readouts.
// Inputs send commands through the page's send(); the panel only reflects the params
// the current gravel was computed from.
type Panel struct {
	id      string
	updates <-chan []fastview.EleUpdate
	// Owned by the Convert goroutine.
	lastSeed string
}

func NewPanel(
	done <-chan struct{},
	scenes <-chan Scene,
) (pv *Panel) {
	pv = &Panel{id: "panel"}
	pv.updates = channerics.Convert(done, scenes, pv.onUpdate)
	return
}

func (pv *Panel) Updates() <-chan []fastview.EleUpdate {
	return pv.updates
}

// onUpdate sets the inputs and readouts. Sliders saturate at their max, but the readouts
// show the true value, which the arrow keys may push past the slider range.
// The seed field is only set when the seed changes, so moving a slider does not wipe a
// seed the user is still typing.
func (pv *Panel) onUpdate(scene Scene) (ops []fastview.EleUpdate) {
	if scene.Seed != pv.lastSeed {
		pv.lastSeed = scene.Seed
		ops = append(ops, fastview.EleUpdate{
			EleId: "seed",
			Ops:   []fastview.Op{{Key: fastview.Value, Value: scene.Seed}},
		})
	}
	return append(ops, []fastview.EleUpdate{
		{
			EleId: "displacement",
			Ops:   []fastview.Op{{Key: fastview.Value, Value: formatAdjust(scene.Displacement)}},
		},
		{
			EleId: "displacement-readout",
			Ops:   []fastview.Op{{Key: fastview.TextContent, Value: formatAdjust(scene.Displacement)}},
		},
		{
			EleId: "rotation",
			Ops:   []fastview.Op{{Key: fastview.Value, Value: formatAdjust(scene.Rotation)}},
		},
		{
			EleId: "rotation-readout",
			Ops:   []fastview.Op{{Key: fastview.TextContent, Value: formatAdjust(scene.Rotation)}},
		},
	}...)
}

func formatAdjust(val float64) string {
	return fmt.Sprintf("%.2f", val)
}

func (pv *Panel) Parse(
	t *template.Template,
) (name string, err error) {
	name = pv.id
	addedMap := template.FuncMap{
		"formatAdjust": formatAdjust,
	}
	maxAdjust := fmt.Sprintf("%g", config.MaxAdjust)
	_, err = t.Funcs(addedMap).Parse(
		`{{ define "` + name + `" }}
		<div id="` + pv.id + `" style="padding:20px; float:left; font-family:monospace;">
			<p>
				<label for="seed">Seed</label><br>
				<input id="seed" type="text" inputmode="numeric" size="22" value="{{ .Seed }}"
					onchange="sendSeed(this.value)">
				<button id="randomize" onclick="send({kind: 'randomize'})">Randomize</button>
			</p>
			<p>
				<label for="displacement">Displacement</label>
				<span id="displacement-readout">{{ formatAdjust .Displacement }}</span><br>
				<input id="displacement" type="range" min="0" max="` + maxAdjust + `" step="0.01"
					value="{{ formatAdjust .Displacement }}"
					oninput="send({kind: 'setDisplacement', value: parseFloat(this.value)})">
			</p>
			<p>
				<label for="rotation">Rotation</label>
				<span id="rotation-readout">{{ formatAdjust .Rotation }}</span><br>
				<input id="rotation" type="range" min="0" max="` + maxAdjust + `" step="0.01"
					value="{{ formatAdjust .Rotation }}"
					oninput="send({kind: 'setRotation', value: parseFloat(this.value)})">
			</p>
			<p>
				<button id="save" onclick="send({kind: 'saveFrame'})">Save frame</button>
				<a href="/frame.png" download>Download PNG</a>
			</p>
			<p style="color:gray;">
				R randomize, S save<br>
				Up/Down displacement, Right/Left rotation
			</p>
		</div>
		{{ end }}`)
	return
}
