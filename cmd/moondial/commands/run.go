package commands

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"git.home.luguber.info/inful/moondial/internal/daemon"
)

// RunCmd implements the 'run' command.
type RunCmd struct {
	ShutdownTimeout time.Duration `help:"How long to wait for a graceful stop" default:"30s"`
}

func (r *RunCmd) Run(g *Global, root *CLI) error {
	cfg, err := root.LoadConfig(g)
	if err != nil {
		return err
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	d, err := daemon.NewDaemon(cfg, root.configPathIfPresent(), daemon.WithLogger(g.Logger))
	if err != nil {
		return err
	}
	if err := d.Start(ctx); err != nil {
		_ = d.Stop(context.Background())
		return err
	}

	g.Logger.InfoContext(ctx, "Daemon started, waiting for shutdown signal")
	<-ctx.Done()
	g.Logger.Info("Shutdown signal received, stopping daemon")

	stopCtx, stopCancel := context.WithTimeout(context.Background(), r.ShutdownTimeout)
	defer stopCancel()
	return d.Stop(stopCtx)
}
