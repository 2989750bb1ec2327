/*
Schotter draws a rubble field: a grid of squares that sit neatly at the top and fall into disorder
toward the bottom, each row displaced and rotated a little more than the last.

The static sketch draws once with the process-global generator, saves a png and exits. The
interactive sketch serves a page holding the canvas and a control panel; the gravel is recomputed
deterministically from a seed and two adjusts whenever the panel or the keyboard changes them.
*/

package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"schotter/chaos"
	"schotter/config"
	"schotter/controller"
	"schotter/logging"
	"schotter/metrics"
	"schotter/models"
	"schotter/render"
	"schotter/server"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/sync/errgroup"
)

// VERSION is set at build time via -ldflags.
var VERSION = "0.0.0-dev"

// flags are bound to viper keys, so they override both the config file and the environment.
var boundFlags = map[string]string{
	"kind":      "kind",
	"seed":      "def.seed",
	"log-level": "def.log_level",
	"host":      "def.server.host",
	"port":      "def.server.port",
}

func newRootCmd(vp *viper.Viper) *cobra.Command {
	var configPath, outPath string

	load := func(cmd *cobra.Command) (*config.OuterConfig, error) {
		for flag, key := range boundFlags {
			if f := cmd.Flags().Lookup(flag); f != nil {
				if err := vp.BindPFlag(key, f); err != nil {
					return nil, fmt.Errorf("bind flag %s: %w", flag, err)
				}
			}
		}
		cfg, err := config.FromViper(vp, configPath)
		if err != nil {
			return nil, err
		}
		logging.Setup(cfg.Def.LogLevel)
		return cfg, nil
	}

	rootCmd := &cobra.Command{
		Use:           "schotter",
		Short:         "Schotter",
		Long:          "Schotter, a rubble field of squares. Draws a png or serves an interactive sketch, per the config's kind.",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := load(cmd)
			if err != nil {
				return err
			}
			if cfg.Kind == chaos.Static.Name {
				return runStatic(cfg, outPath)
			}
			return runServe(cmd.Context(), cfg)
		},
	}
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", config.DefaultPath, "path to config file")
	rootCmd.PersistentFlags().String("log-level", "", "log level: trace, debug, info, warn, error or none")
	rootCmd.PersistentFlags().Uint64("seed", 0, "fixed seed; 0 draws one at random")
	rootCmd.Flags().String("kind", "", "sketch kind: static or interactive")
	rootCmd.Flags().StringVarP(&outPath, "out", "o", "", "png output of the static sketch")
	rootCmd.Flags().String("host", "", "host to serve the interactive sketch on")
	rootCmd.Flags().String("port", "", "port to serve the interactive sketch on")

	staticCmd := &cobra.Command{
		Use:   "static",
		Short: "Draw the static sketch once and save it",
		RunE: func(cmd *cobra.Command, args []string) error {
			vp.Set("kind", chaos.Static.Name)
			cfg, err := load(cmd)
			if err != nil {
				return err
			}
			return runStatic(cfg, outPath)
		},
	}
	staticCmd.Flags().StringVarP(&outPath, "out", "o", "", "png output path; defaults to the config's capture name")

	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the interactive sketch",
		RunE: func(cmd *cobra.Command, args []string) error {
			vp.Set("kind", chaos.Interactive.Name)
			cfg, err := load(cmd)
			if err != nil {
				return err
			}
			return runServe(cmd.Context(), cfg)
		},
	}
	serveCmd.Flags().String("host", "", "host to serve on")
	serveCmd.Flags().String("port", "", "port to serve on")

	checkConfigCmd := &cobra.Command{
		Use:   "checkconfig",
		Short: "Check configuration file",
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := load(cmd); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "config ok:", configPath)
			return nil
		},
	}

	genConfigCmd := &cobra.Command{
		Use:   "genconfig",
		Short: "Print the effective configuration as yaml",
		Long:  "Print the effective configuration, after env and flag overrides, in the config file's format",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := load(cmd)
			if err != nil {
				return err
			}
			return config.WriteYaml(cmd.OutOrStdout(), cfg)
		},
	}

	versionCmd := &cobra.Command{
		Use:   "version",
		Short: "Schotter version number",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "schotter v%s\n", VERSION)
		},
	}

	rootCmd.AddCommand(staticCmd, serveCmd, checkConfigCmd, genConfigCmd, versionCmd)
	return rootCmd
}

// capturePath picks the png output: an explicit path, else the configured name, else "<program>.png".
func capturePath(cfg *config.OuterConfig, out string) string {
	switch {
	case out != "":
		return out
	case cfg.Def.CaptureName != "":
		return cfg.Def.CaptureName
	}
	return render.CaptureName(os.Args[0])
}

// runStatic draws the gravel once. Unless a seed is configured, the process-global
// generator is used, so every run draws a different field.
func runStatic(cfg *config.OuterConfig, out string) error {
	preset, err := cfg.Preset()
	if err != nil {
		return err
	}

	src := chaos.GlobalSource()
	if cfg.Def.Seed != 0 {
		src = chaos.NewSeededSource(cfg.Def.Seed)
	}

	gravel := models.NewGravel(cfg.Def.Grid)
	chaos.Scatter(gravel, preset, chaos.DefaultParams(cfg.Def.Seed), src)

	path := capturePath(cfg, out)
	if err = render.SavePNG(path, gravel, cfg.Def.Grid, render.DefaultStyle()); err != nil {
		return err
	}
	log.Info().
		Str("path", path).
		Int("width", cfg.Def.Grid.Width()).
		Int("height", cfg.Def.Grid.Height()).
		Msg("static sketch saved")
	return nil
}

// runServe runs the controller loop and the server until ctx is cancelled or either fails.
func runServe(ctx context.Context, cfg *config.OuterConfig) error {
	preset, err := cfg.Preset()
	if err != nil {
		return err
	}

	reg := metrics.NewRegistry()
	style := render.DefaultStyle()
	ctl := controller.NewController(controller.Options{
		Grid:        cfg.Def.Grid,
		Preset:      preset,
		Params:      cfg.Params(),
		Style:       style,
		CapturePath: capturePath(cfg, ""),
		Metrics:     reg,
	})

	group, groupCtx := errgroup.WithContext(ctx)
	srv, err := server.NewServer(groupCtx, cfg.Def.Server.Addr(), ctl, style, reg)
	if err != nil {
		return err
	}

	group.Go(func() error {
		return ctl.Run(groupCtx)
	})
	group.Go(func() error {
		return srv.Serve(groupCtx)
	})
	return group.Wait()
}

func run(ctx context.Context, args []string, stdout io.Writer) error {
	rootCmd := newRootCmd(config.New())
	rootCmd.SetArgs(args)
	rootCmd.SetOut(stdout)
	return rootCmd.ExecuteContext(ctx)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdout); err != nil {
		stop()
		// Not log.Fatal: a disabled log level would skip the exit too.
		fmt.Fprintln(os.Stderr, "schotter:", err)
		os.Exit(1)
	}
}
