package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/recera/netgraph/internal/logging"
	"github.com/recera/netgraph/internal/watch"
	"github.com/recera/netgraph/pkg/graphdata"
	"github.com/recera/netgraph/pkg/live"
)

func newServeCommand(g *globals) *cobra.Command {
	var addr string
	var watchFile bool

	cmd := &cobra.Command{
		Use:   "serve DATA",
		Short: "Serve an interactive diagram in the browser",
		Long: `Starts an HTTP server with a live diagram of the data file. Every browser tab
gets its own layout; pointer input and scene updates travel over a WebSocket.
With --watch the data is reloaded whenever the file changes.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := g.load(cmd)
			if err != nil {
				return err
			}
			if !cmd.Flags().Changed("addr") {
				addr = cfg.Serve.Addr()
			}
			if !cmd.Flags().Changed("watch") {
				watchFile = cfg.Serve.Watch
			}
			interval, err := cfg.Serve.FrameInterval()
			if err != nil {
				return err
			}

			log := logging.Log()
			d, err := graphdata.Load(args[0])
			if err != nil {
				return err
			}
			opts := cfg.Options()
			opts.Logger = log
			srv := live.NewServer(live.Options{Component: opts, Interval: interval, Logger: log})
			if err := srv.SetData(d); err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			eg, ctx := errgroup.WithContext(ctx)

			if watchFile {
				w, err := watch.New(args[0], srv.SetData, log)
				if err != nil {
					return err
				}
				eg.Go(func() error { return ignoreCanceled(w.Run(ctx)) })
			}
			eg.Go(func() error {
				brand.Fprint(cmd.ErrOrStderr(), "serving ")
				subtle.Fprintf(cmd.ErrOrStderr(), "http://%s\n", addr)
				err := srv.ListenAndServe(ctx, addr)
				if errors.Is(err, http.ErrServerClosed) {
					return nil
				}
				return err
			})
			return eg.Wait()
		},
	}
	cmd.Flags().StringVarP(&addr, "addr", "a", "localhost:8080", "Listen address")
	cmd.Flags().BoolVarP(&watchFile, "watch", "w", false, "Reload the data file on change")
	return cmd
}

func ignoreCanceled(err error) error {
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
