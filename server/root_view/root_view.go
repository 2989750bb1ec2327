package root_view

import (
	"context"
	"fmt"
	"html/template"
	"time"

	"schotter/controller"
	"schotter/models"
	"schotter/render"
	"schotter/server/fastview"
	"schotter/server/stone_views"

	channerics "github.com/niceyeti/channerics/channels"
)

// batchRate is the minimum interval between batches sent to the client.
const batchRate = time.Millisecond * 20

// RootView is the main page's index.html, which is the container for all the
// view components, the wiring for their channels, etc.
type RootView struct {
	views   []fastview.ViewComponent
	updates <-chan []fastview.EleUpdate
}

// NewRootView creates the main page and the views it contains, all fed from frames.
func NewRootView(
	ctx context.Context,
	grid models.GridConfig,
	style render.Style,
	frames <-chan controller.Frame,
) (*RootView, error) {
	views, err := fastview.NewViewBuilder[controller.Frame, stone_views.Scene]().
		WithContext(ctx).
		WithModel(frames, stone_views.Convert).
		WithView(func(
			done <-chan struct{},
			scenes <-chan stone_views.Scene) fastview.ViewComponent {
			return stone_views.NewCanvas(done, scenes, grid, style)
		}).
		WithView(func(
			done <-chan struct{},
			scenes <-chan stone_views.Scene) fastview.ViewComponent {
			return stone_views.NewPanel(done, scenes)
		}).
		Build()
	if err != nil {
		return nil, fmt.Errorf("build views: %w", err)
	}

	return &RootView{
		views:   views,
		updates: fanIn(ctx.Done(), views),
	}, nil
}

// Updates returns the main ele-update channel for all the views.
func (rv *RootView) Updates() <-chan []fastview.EleUpdate {
	return rv.updates
}

// Parse builds the main page's template, with websocket bootstrap code, and returns its name.
func (rv *RootView) Parse(
	parent *template.Template,
) (name string, err error) {
	viewTemplates := []string{}
	for _, vc := range rv.views {
		tname, parseErr := vc.Parse(parent)
		if parseErr != nil {
			err = parseErr
			return
		}
		viewTemplates = append(viewTemplates, tname)
	}

	var bodySpec string
	for _, tname := range viewTemplates {
		bodySpec += (`{{ template "` + tname + `" . }}`)
	}

	// The main template bootstraps the rest: the websocket in both directions and the keyboard shortcuts.
	// Keys are ignored while typing in an input, so the seed field can take an 'r' or 's'.
	name = "mainpage"
	indexTemplate := `
	{{ define "` + name + `" }}
	<!DOCTYPE html>
	<html>
		<head>
			<title>schotter</title>
			<link rel="icon" href="data:,">
			<script>
				const scheme = location.protocol === "https:" ? "wss://" : "ws://";
				const ws = new WebSocket(scheme + location.host + "/ws");
				ws.onopen = function (event) {
					console.log("Web socket opened")
				};

				ws.onerror = function (event) {
					console.log('WebSocket error: ', event);
				};

				// Apply pushed updates by element id. Reserved keys are dom properties, the rest attributes.
				// The text field being typed into is left alone.
				ws.onmessage = function (event) {
					const items = JSON.parse(event.data)
					for (const update of items) {
						const ele = document.getElementById(update.EleId)
						if (ele === null) {
							continue;
						}
						if (ele === document.activeElement && ele.type === "text") {
							continue;
						}
						for (const op of update.Ops) {
							if (op.Key === "textContent" || op.Key === "value") {
								ele[op.Key] = op.Value;
							} else {
								ele.setAttribute(op.Key, op.Value)
							}
						}
					}
				};

				function send(cmd) {
					if (ws.readyState === WebSocket.OPEN) {
						ws.send(JSON.stringify(cmd));
					}
				}

				// Seeds are sent as strings: a json number cannot hold every uint64.
				function sendSeed(value) {
					const seed = value.trim();
					if (/^[0-9]+$/.test(seed)) {
						send({kind: "setSeed", seed: seed});
					}
				}

				const keyCommands = {
					"r": {kind: "randomize"},
					"R": {kind: "randomize"},
					"s": {kind: "saveFrame"},
					"S": {kind: "saveFrame"},
					"ArrowUp": {kind: "nudgeDisplacement", value: 0.1},
					"ArrowDown": {kind: "nudgeDisplacement", value: -0.1},
					"ArrowRight": {kind: "nudgeRotation", value: 0.1},
					"ArrowLeft": {kind: "nudgeRotation", value: -0.1},
				};

				document.addEventListener("keydown", function (event) {
					if (event.target instanceof HTMLInputElement && event.target.type === "text") {
						return;
					}
					const cmd = keyCommands[event.key];
					if (cmd !== undefined) {
						event.preventDefault();
						send(cmd);
					}
				});
			</script>
		</head>
		<body>
		` + bodySpec + `
		</body></html>
	{{ end }}
	`

	_, err = parent.Parse(indexTemplate)
	return
}

// fanIn aggregates the views' ele-update channels into a single, batched channel.
func fanIn(
	done <-chan struct{},
	views []fastview.ViewComponent,
) <-chan []fastview.EleUpdate {
	inputs := make([]<-chan []fastview.EleUpdate, len(views))
	for i, view := range views {
		inputs[i] = view.Updates()
	}
	return batchify(
		done,
		channerics.Merge(done, inputs...),
		batchRate)
}

// batchify merges updates received within each interval of rate, over-writing previously
// received values for the same ele-id, so only the latest value per element is sent.
// Pending updates are never dropped: if the reader is slow they keep merging until it
// is ready, and the last batch is flushed on the next tick after the source goes quiet.
func batchify(
	done <-chan struct{},
	source <-chan []fastview.EleUpdate,
	rate time.Duration,
) <-chan []fastview.EleUpdate {
	output := make(chan []fastview.EleUpdate)

	go func() {
		defer close(output)

		pending := newBatch()
		ticker := channerics.NewTicker(done, rate)
		ready := false
		for {
			// Sending is only enabled once a tick has passed and something is pending.
			var out chan<- []fastview.EleUpdate
			var vals []fastview.EleUpdate
			if ready && pending.len() > 0 {
				out = output
				vals = pending.values()
			}

			select {
			case <-done:
				return
			case updates, ok := <-source:
				if !ok {
					return
				}
				pending.merge(updates)
			case <-ticker:
				ready = true
			case out <- vals:
				pending = newBatch()
				ready = false
			}
		}
	}()

	return output
}

// batch is an insertion-ordered set of ele-updates keyed by ele-id.
type batch struct {
	index   map[string]int
	updates []fastview.EleUpdate
}

func newBatch() *batch {
	return &batch{index: map[string]int{}}
}

// merge intentionally overwrites pre-existing values for an ele-id.
func (b *batch) merge(updates []fastview.EleUpdate) {
	for _, update := range updates {
		if i, ok := b.index[update.EleId]; ok {
			b.updates[i] = update
			continue
		}
		b.index[update.EleId] = len(b.updates)
		b.updates = append(b.updates, update)
	}
}

func (b *batch) len() int {
	return len(b.updates)
}

func (b *batch) values() []fastview.EleUpdate {
	return b.updates
}
