package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/multierr"

	"github.com/coreman2200/radioshack-strip/internal/config"
	"github.com/coreman2200/radioshack-strip/internal/hw"
	"github.com/coreman2200/radioshack-strip/strip"
)

func newFillCmd(g *globals) *cobra.Command {
	return &cobra.Command{
		Use:   "fill <#RRGGBB>",
		Short: "Set every LED to one color and show it once",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := config.ParseColor(args[0])
			if err != nil {
				return err
			}
			return showOnce(cmd, g, c)
		},
	}
}

func newOffCmd(g *globals) *cobra.Command {
	return &cobra.Command{
		Use:   "off",
		Short: "Turn every LED off",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return showOnce(cmd, g, 0)
		},
	}
}

func showOnce(cmd *cobra.Command, g *globals, color uint32) (err error) {
	cfg, err := g.load(cmd)
	if err != nil {
		return err
	}
	log := g.logger(cmd, cfg)

	s, line, err := hw.NewStrip(cfg, log, nil)
	if err != nil {
		return err
	}
	defer func() { err = multierr.Append(err, s.Close()) }()
	if err := s.Begin(); err != nil {
		return err
	}
	for i := 0; i < s.NumPixels(); i++ {
		s.SetPixel(i, color)
	}
	if err := s.Show(); err != nil {
		return err
	}
	log.Info().Str("pin", line.Pin.String()).Bool("sim", line.Sim).
		Int("leds", s.NumPixels()).Str("color", hex(color)).Msg("shown")
	fmt.Fprintln(cmd.OutOrStdout(), preview(s))
	return nil
}

func hex(c uint32) string {
	return fmt.Sprintf("#%06X", c&0xFFFFFF)
}

// preview is a one-line text dump of the strip, pixel colors in index order.
func preview(s *strip.Strip) string {
	out := make([]byte, 0, s.NumPixels()*8)
	for i := 0; i < s.NumPixels(); i++ {
		if i > 0 {
			out = append(out, ' ')
		}
		out = append(out, hex(s.PixelColor(i))...)
	}
	return string(out)
}
