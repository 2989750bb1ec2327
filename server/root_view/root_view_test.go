package root_view

import (
	"bytes"
	"context"
	"html/template"
	"testing"
	"time"

	"schotter/chaos"
	"schotter/controller"
	"schotter/models"
	"schotter/render"
	"schotter/server/fastview"
	"schotter/server/stone_views"

	. "github.com/smartystreets/goconvey/convey"
)

func textUpdate(id, value string) []fastview.EleUpdate {
	return []fastview.EleUpdate{{EleId: id, Ops: []fastview.Op{{Key: fastview.TextContent, Value: value}}}}
}

func receive(updates <-chan []fastview.EleUpdate) []fastview.EleUpdate {
	select {
	case update := <-updates:
		return update
	case <-time.After(time.Second):
		return nil
	}
}

func TestBatchify(t *testing.T) {
	Convey("Given a batchified source", t, func() {
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		source := make(chan []fastview.EleUpdate)
		batches := batchify(ctx.Done(), source, time.Millisecond*50)

		Convey("Updates within a batch are merged by ele-id, keeping the latest value", func() {
			source <- textUpdate("a", "1")
			source <- textUpdate("b", "1")
			source <- textUpdate("a", "2")

			batch := receive(batches)
			So(batch, ShouldResemble, []fastview.EleUpdate{
				textUpdate("a", "2")[0],
				textUpdate("b", "1")[0],
			})
		})

		Convey("The last update is flushed even when nothing follows it", func() {
			source <- textUpdate("a", "1")
			So(receive(batches), ShouldResemble, textUpdate("a", "1"))

			source <- textUpdate("a", "2")
			So(receive(batches), ShouldResemble, textUpdate("a", "2"))
		})

		Convey("Closing the source closes the output", func() {
			close(source)
			select {
			case _, ok := <-batches:
				So(ok, ShouldBeFalse)
			case <-time.After(time.Second):
				So("timeout", ShouldBeEmpty)
			}
		})
	})
}

func TestRootView(t *testing.T) {
	Convey("Given a root view fed by frames", t, func() {
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		grid := models.GridConfig{Rows: 2, Cols: 2, CellSize: 30, Margin: 35, LineWidth: 0.06}
		frames := make(chan controller.Frame)
		rv, err := NewRootView(ctx, grid, render.DefaultStyle(), frames)
		So(err, ShouldBeNil)

		gravel := models.NewGravel(grid)
		frame := controller.Frame{Gravel: gravel, Params: chaos.DefaultParams(7)}

		Convey("The page includes both views and the websocket bootstrap", func() {
			tmpl := template.New("index.html")
			name, err := rv.Parse(tmpl)
			So(err, ShouldBeNil)

			var buf bytes.Buffer
			So(tmpl.ExecuteTemplate(&buf, name, stone_views.Convert(frame)), ShouldBeNil)
			page := buf.String()
			So(page, ShouldContainSubstring, `id="canvas"`)
			So(page, ShouldContainSubstring, `id="panel"`)
			So(page, ShouldContainSubstring, `id="stone-1-1"`)
			So(page, ShouldContainSubstring, `location.host`)
			So(page, ShouldContainSubstring, `ele === document.activeElement`)
		})

		Convey("A frame yields updates for every stone and panel element", func() {
			go func() { frames <- frame }()

			seen := map[string]bool{}
			deadline := time.After(time.Second * 2)
			for len(seen) < 4+5 {
				select {
				case batch := <-rv.Updates():
					for _, update := range batch {
						seen[update.EleId] = true
					}
				case <-deadline:
					So(len(seen), ShouldEqual, 9)
					return
				}
			}
			So(seen["stone-0-0"], ShouldBeTrue)
			So(seen["seed"], ShouldBeTrue)
			So(seen["rotation-readout"], ShouldBeTrue)
		})
	})
}
