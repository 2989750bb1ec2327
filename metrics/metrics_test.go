package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	. "github.com/smartystreets/goconvey/convey"
)

func TestRegistry(t *testing.T) {
	Convey("Given a fresh registry", t, func() {
		m := NewRegistry()

		Convey("Frames are counted", func() {
			m.ObserveFrame(time.Now())
			m.ObserveFrame(time.Now())
			So(testutil.ToFloat64(m.framesTotal), ShouldEqual, 2.0)
		})

		Convey("Commands are counted by kind", func() {
			m.IncCommand("randomize")
			m.IncCommand("randomize")
			m.IncCommand("saveFrame")
			So(testutil.ToFloat64(m.commandsTotal.WithLabelValues("randomize")), ShouldEqual, 2.0)
			So(testutil.ToFloat64(m.commandsTotal.WithLabelValues("saveFrame")), ShouldEqual, 1.0)
		})

		Convey("Captures are counted by result", func() {
			m.IncCapture(true)
			m.IncCapture(false)
			So(testutil.ToFloat64(m.capturesTotal.WithLabelValues("ok")), ShouldEqual, 1.0)
			So(testutil.ToFloat64(m.capturesTotal.WithLabelValues("error")), ShouldEqual, 1.0)
		})

		Convey("Clients are tracked while connected", func() {
			disconnected := m.ClientConnected()
			So(testutil.ToFloat64(m.clientsConnected), ShouldEqual, 1.0)
			disconnected()
			So(testutil.ToFloat64(m.clientsConnected), ShouldEqual, 0.0)
		})

		Convey("The registry can be gathered", func() {
			m.ObserveFrame(time.Now())
			families, err := m.Gatherer().Gather()
			So(err, ShouldBeNil)
			So(len(families), ShouldBeGreaterThan, 0)
		})
	})
}
