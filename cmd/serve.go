package cmd

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/multierr"

	"github.com/coreman2200/radioshack-strip/internal/config"
	"github.com/coreman2200/radioshack-strip/internal/hw"
	"github.com/coreman2200/radioshack-strip/internal/metrics"
	"github.com/coreman2200/radioshack-strip/internal/ws"
)

func newServeCmd(g *globals) *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve websocket control, frame stream and metrics",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) (err error) {
			cfg, err := g.load(cmd)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("addr") {
				cfg.Addr = addr
			}
			log := g.logger(cmd, cfg)

			rec := metrics.New()
			s, line, err := hw.NewStrip(cfg, log, rec)
			if err != nil {
				return err
			}
			defer func() { err = multierr.Append(err, s.Close()) }()
			if err := s.Begin(); err != nil {
				return err
			}

			state := ws.NewState(s, log)
			mux := http.NewServeMux()
			state.Routes(mux)
			mux.Handle("/metrics", rec.Handler())

			srv := &http.Server{
				Addr:         cfg.Addr,
				Handler:      withCORS(mux),
				ReadTimeout:  5 * time.Second,
				WriteTimeout: 10 * time.Second,
				IdleTimeout:  60 * time.Second,
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			if g.config != "" {
				w := config.NewWatcher(g.config, 0, log)
				w.OnReload(func(c *config.Config) {
					if err := state.Apply(ws.Message{Op: "brightness", Level: c.Brightness}); err != nil {
						log.Warn().Err(err).Msg("reload brightness")
						return
					}
					log.Info().Int("brightness", c.Brightness).Msg("config reloaded")
				})
				go func() {
					if err := w.Run(ctx); err != nil {
						log.Warn().Err(err).Msg("config watcher stopped")
					}
				}()
			}

			ln, err := net.Listen("tcp", cfg.Addr)
			if err != nil {
				return err
			}
			errc := make(chan error, 1)
			go func() {
				errc <- srv.Serve(ln)
			}()
			log.Info().Str("addr", ln.Addr().String()).Str("pin", line.Pin.String()).Bool("sim", line.Sim).Msg("HTTP server listening")

			select {
			case err := <-errc:
				if !errors.Is(err, http.ErrServerClosed) {
					return err
				}
				return nil
			case <-ctx.Done():
			}
			log.Info().Msg("shutting down")
			sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return srv.Shutdown(sctx)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "HTTP listen address")
	return cmd
}

func withCORS(h http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		h.ServeHTTP(w, r)
	})
}
