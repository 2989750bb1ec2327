package logging

import (
	"bytes"
	"testing"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	. "github.com/smartystreets/goconvey/convey"
)

func TestLevel(t *testing.T) {
	Convey("Config level names map onto zerolog levels", t, func() {
		So(Level("debug"), ShouldEqual, zerolog.DebugLevel)
		So(Level("WARN"), ShouldEqual, zerolog.WarnLevel)
		So(Level("none"), ShouldEqual, zerolog.Disabled)
		So(Level("chatty"), ShouldEqual, zerolog.InfoLevel)
	})
}

func TestSetupWriter(t *testing.T) {
	defer zerolog.SetGlobalLevel(zerolog.TraceLevel)

	Convey("When the logger is set up at warn", t, func() {
		var buf bytes.Buffer
		SetupWriter(&buf, "warn")

		log.Info().Msg("hidden")
		log.Warn().Uint64("seed", 42).Msg("shown")

		So(buf.String(), ShouldNotContainSubstring, "hidden")
		So(buf.String(), ShouldContainSubstring, `"seed":42`)
		So(buf.String(), ShouldContainSubstring, "shown")
	})
}
