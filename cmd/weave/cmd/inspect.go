package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/go-drift/weave/pkg/diagnostics"
	"github.com/go-drift/weave/pkg/logging"
)

const shutdownTimeout = 5 * time.Second

func newInspectCommand(opts *options) *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "inspect [path...]",
		Short: "Serve the running app over the diagnostics server",
		Long: `Build the app, navigate through each given path, and serve it until
interrupted.

Endpoints:
  GET /health    Liveness
  GET /tree      Element tree with component phase, state and listeners
  GET /html      Serialized document
  GET /router    Current router path and data
  GET /metrics   Prometheus metrics`,
		Example: `  weave inspect
  weave inspect --addr 127.0.0.1:7070 /about`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInspect(cmd, opts, addr, args)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "Listen address (default: debug.addr from the manifest)")
	return cmd
}

func runInspect(cmd *cobra.Command, opts *options, addr string, paths []string) error {
	a, log, err := setup(opts, cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	defer a.Close()

	srv := diagnostics.NewServer(a.Doc, a.Router, logging.Component(log, "diagnostics"))
	srv.Lock()
	a.Navigate(paths...)
	srv.Unlock()

	if addr == "" {
		addr = a.Config.Debug.Addr
	}
	bound, err := srv.Start(addr)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Inspecting %s at http://%s\n", a.Config.App.Name, bound)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
