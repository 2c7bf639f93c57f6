// Package cmd is the rsstrip command tree.
package cmd

import (
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/coreman2200/radioshack-strip/internal/config"
)

// flags shared by every subcommand; explicit flags override the file.
type globals struct {
	config     string
	driver     string
	pin        string
	leds       int
	brightness int
	logLevel   string
	logJSON    bool
}

func (g *globals) register(fs *pflag.FlagSet) {
	fs.StringVarP(&g.config, "config", "c", "", "path to config.yaml or config.toml")
	fs.StringVar(&g.driver, "driver", "", "output driver: gpio | sim")
	fs.StringVar(&g.pin, "pin", "", "data pin name, e.g. GPIO18")
	fs.IntVarP(&g.leds, "leds", "n", 0, "number of LEDs")
	fs.IntVarP(&g.brightness, "brightness", "b", 0, "brightness 0..255")
	fs.StringVar(&g.logLevel, "log-level", "", "debug | info | warn | error")
	fs.BoolVar(&g.logJSON, "log-json", false, "log JSON instead of console text")
}

// load resolves the effective config: defaults, then the file, then flags.
func (g *globals) load(cmd *cobra.Command) (*config.Config, error) {
	c := config.Default()
	if g.config != "" {
		fc, err := config.Load(g.config)
		if err != nil {
			return nil, err
		}
		c = fc
	}
	fs := cmd.Flags()
	if fs.Changed("driver") {
		c.Driver = g.driver
	}
	if fs.Changed("pin") {
		c.Pin = g.pin
	}
	if fs.Changed("leds") {
		c.LEDs = g.leds
	}
	if fs.Changed("brightness") {
		c.Brightness = g.brightness
	}
	if fs.Changed("log-level") {
		c.LogLevel = g.logLevel
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// logger sets up the global logger on the command's stderr.
func (g *globals) logger(cmd *cobra.Command, c *config.Config) zerolog.Logger {
	lvl, err := zerolog.ParseLevel(c.LogLevel)
	if err != nil || c.LogLevel == "" {
		lvl = zerolog.InfoLevel
	}
	zerolog.TimeFieldFormat = time.RFC3339
	if g.logJSON {
		log.Logger = zerolog.New(cmd.ErrOrStderr()).With().Timestamp().Logger()
	} else {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: cmd.ErrOrStderr(), TimeFormat: time.Kitchen})
	}
	log.Logger = log.Logger.Level(lvl)
	return log.Logger
}

// NewRootCmd builds the command tree.
func NewRootCmd() *cobra.Command {
	g := &globals{}
	root := &cobra.Command{
		Use:           "rsstrip",
		Short:         "Drive a RadioShack tri-color LED strip",
		Long:          `Drives a single-wire pulse-width LED strip from a GPIO line, with patterns, a websocket control server and Prometheus metrics.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	g.register(root.PersistentFlags())

	root.AddCommand(
		newRunCmd(g),
		newFillCmd(g),
		newOffCmd(g),
		newServeCmd(g),
		newPatternsCmd(),
	)
	return root
}

// Execute runs the command tree and exits non-zero on error.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		log.Error().Err(err).Msg("rsstrip failed")
		os.Exit(1)
	}
}
