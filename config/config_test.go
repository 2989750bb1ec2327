package config

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"schotter/chaos"
	"schotter/models"

	. "github.com/smartystreets/goconvey/convey"
)

const staticYaml = `
kind: static
def:
  grid:
    rows: 10
    cols: 4
  displacement_adjust: 2.5
  seed: 1234
  server:
    port: "9090"
  log_level: debug
`

func writeConfig(t *testing.T, contents string) string {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestFromYaml(t *testing.T) {
	Convey("When a config file is loaded", t, func() {
		Convey("File values override the defaults and unset keys keep them", func() {
			cfg, err := FromYaml(writeConfig(t, staticYaml))
			So(err, ShouldBeNil)
			So(cfg.Kind, ShouldEqual, "static")
			So(cfg.Def.Grid.Rows, ShouldEqual, 10)
			So(cfg.Def.Grid.Cols, ShouldEqual, 4)
			So(cfg.Def.Grid.CellSize, ShouldEqual, models.DEFAULT_CELL_SIZE)
			So(cfg.Def.Grid.LineWidth, ShouldEqual, models.DEFAULT_LINE_WIDTH)
			So(cfg.Def.DisplacementAdjust, ShouldEqual, 2.5)
			So(cfg.Def.RotationAdjust, ShouldEqual, 1.0)
			So(cfg.Def.Server.Addr(), ShouldEqual, ":9090")

			preset, err := cfg.Preset()
			So(err, ShouldBeNil)
			So(preset, ShouldResemble, chaos.Static)
			So(cfg.Params().Seed, ShouldEqual, uint64(1234))
		})

		Convey("An explicit path that does not exist is an error", func() {
			_, err := FromYaml(filepath.Join(t.TempDir(), "nope.yaml"))
			So(err, ShouldNotBeNil)
		})

		Convey("An empty path yields the defaults", func() {
			cfg, err := FromYaml("")
			So(err, ShouldBeNil)
			So(*cfg, ShouldResemble, Default())
		})

		Convey("An unknown kind is rejected", func() {
			_, err := FromYaml(writeConfig(t, "kind: avalanche\n"))
			So(errors.Is(err, ErrInvalidConfig), ShouldBeTrue)
		})

		Convey("A grid without rows is rejected", func() {
			_, err := FromYaml(writeConfig(t, "def:\n  grid:\n    rows: 0\n"))
			So(errors.Is(err, ErrInvalidConfig), ShouldBeTrue)
			So(errors.Is(err, models.ErrInvalidGrid), ShouldBeTrue)
		})

		Convey("Negative adjusts are rejected", func() {
			_, err := FromYaml(writeConfig(t, "def:\n  rotation_adjust: -1\n"))
			So(errors.Is(err, ErrInvalidConfig), ShouldBeTrue)
		})
	})
}

// Env vars outlive individual Convey leaves, so they get their own test.
func TestEnvOverrides(t *testing.T) {
	t.Setenv("SCHOTTER_DEF_SEED", "77")
	t.Setenv("SCHOTTER_KIND", "interactive")

	Convey("Env vars override the file", t, func() {
		cfg, err := FromYaml(writeConfig(t, staticYaml))
		So(err, ShouldBeNil)
		So(cfg.Kind, ShouldEqual, "interactive")
		So(cfg.Def.Seed, ShouldEqual, uint64(77))
	})
}

func TestParams(t *testing.T) {
	Convey("When no seed is configured, a random one is drawn", t, func() {
		cfg := Default()
		seeds := map[uint64]struct{}{}
		for i := 0; i < 5; i++ {
			seeds[cfg.Params().Seed] = struct{}{}
		}
		So(len(seeds), ShouldBeGreaterThan, 1)
		So(cfg.Params().DisplacementAdjust, ShouldEqual, 1.0)
	})
}

func TestWriteYaml(t *testing.T) {
	Convey("A written config reads back unchanged", t, func() {
		cfg := Default()
		cfg.Kind = "static"
		cfg.Def.Seed = 99

		var buf bytes.Buffer
		So(WriteYaml(&buf, &cfg), ShouldBeNil)
		So(buf.String(), ShouldContainSubstring, "cell_size: 30")

		loaded, err := FromYaml(writeConfig(t, buf.String()))
		So(err, ShouldBeNil)
		So(*loaded, ShouldResemble, cfg)
	})
}
