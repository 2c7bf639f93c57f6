package cmd

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"go.uber.org/multierr"
	"periph.io/x/devices/v3/screen1d"

	"github.com/coreman2200/radioshack-strip/internal/config"
	"github.com/coreman2200/radioshack-strip/internal/hw"
	"github.com/coreman2200/radioshack-strip/internal/loop"
	"github.com/coreman2200/radioshack-strip/pattern"
)

func newRunCmd(g *globals) *cobra.Command {
	var (
		name    string
		color   string
		fps     int
		preview bool
		watch   bool
	)
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Play a pattern until interrupted",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) (err error) {
			cfg, err := g.load(cmd)
			if err != nil {
				return err
			}
			fs := cmd.Flags()
			if fs.Changed("pattern") {
				cfg.Pattern = name
			}
			if fs.Changed("color") {
				cfg.Color = color
			}
			if fs.Changed("fps") {
				cfg.FPS = fps
			}
			if fs.Changed("preview") {
				cfg.Preview = preview
			}
			if err := cfg.Validate(); err != nil {
				return err
			}
			log := g.logger(cmd, cfg)

			p, err := patternFor(cfg)
			if err != nil {
				return err
			}
			s, line, err := hw.NewStrip(cfg, log, nil)
			if err != nil {
				return err
			}
			defer func() { err = multierr.Append(err, s.Close()) }()
			if err := s.Begin(); err != nil {
				return err
			}

			l := loop.New(s, p, cfg.Interval(), log)
			if cfg.Preview {
				l.SetPreview(screen1d.New(&screen1d.Opts{X: s.NumPixels()}))
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			if watch && g.config != "" {
				w := config.NewWatcher(g.config, 0, log)
				w.OnReload(func(c *config.Config) { applyReload(l, c, log) })
				go func() {
					if err := w.Run(ctx); err != nil {
						log.Warn().Err(err).Msg("config watcher stopped")
					}
				}()
			}

			log.Info().Str("pin", line.Pin.String()).Bool("sim", line.Sim).
				Str("pattern", cfg.Pattern).Int("fps", cfg.FPS).Msg("running")
			if err := l.Run(ctx); err != nil && !stopped(err) {
				return err
			}
			log.Info().Uint64("frames", l.Frames()).Msg("stopped")
			return s.Halt()
		},
	}
	fs := cmd.Flags()
	fs.StringVarP(&name, "pattern", "p", "", "pattern name (see the patterns command)")
	fs.StringVar(&color, "color", "", "pattern color #RRGGBB")
	fs.IntVar(&fps, "fps", 0, "frames per second")
	fs.BoolVar(&preview, "preview", false, "mirror frames to the terminal")
	fs.BoolVar(&watch, "watch", true, "reload brightness, pattern and fps when the config file changes")
	return cmd
}

// stopped reports whether err is the loop ending because its context did.
func stopped(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}

func patternFor(c *config.Config) (pattern.Pattern, error) {
	col, err := config.ParseColor(c.Color)
	if err != nil {
		return nil, err
	}
	return pattern.New(c.Pattern, col)
}

// applyReload pushes the live settings of c into the loop. Pin and LED count
// need a restart.
func applyReload(l *loop.Looper, c *config.Config, log zerolog.Logger) {
	l.SetBrightness(uint8(c.Brightness))
	l.SetInterval(c.Interval())
	p, err := patternFor(c)
	if err != nil {
		log.Warn().Err(err).Msg("reload: keeping current pattern")
		return
	}
	l.SetPattern(p)
	log.Info().Str("pattern", c.Pattern).Int("brightness", c.Brightness).Int("fps", c.FPS).Msg("config reloaded")
}
