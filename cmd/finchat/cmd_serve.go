package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/alecthomas/kong"
)

// ServeCmd runs the HTTP API until interrupted
type ServeCmd struct {
	Addr string `help:"Listen address, overrides the config file"`
}

func (c *ServeCmd) Run(kctx *kong.Context, cli *CLI) error {
	if err := loadDotEnv(); err != nil {
		return err
	}
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, logger, err := openApp(ctx, cli, "")
	if err != nil {
		return err
	}
	defer a.Close()

	if c.Addr != "" {
		a.Config.Server.Addr = c.Addr
	}
	if !a.Config.Credentials().HasModelKey() {
		logger.Warn("no model API keys configured; every request must bring its own")
	}
	if a.Config.MarketData.APIKey == "" {
		logger.Warn("no market data API key configured; market tools need a per-request key")
	}

	srv, err := a.NewServer()
	if err != nil {
		return err
	}
	return srv.Run(ctx)
}
