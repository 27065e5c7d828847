package main

import (
	"fmt"
	"os"
	"time"

	"github.com/alecthomas/kong"

	"github.com/elee1766/finchat/src/server/middleware"
)

// TokenCmd mints a session token, for development and scripts
type TokenCmd struct {
	User string        `arg:"" optional:"" default:"local" help:"User ID to put in the token subject"`
	TTL  time.Duration `help:"Token lifetime (defaults to auth.token_ttl)"`
}

func (c *TokenCmd) Run(kctx *kong.Context, cli *CLI) error {
	if err := loadDotEnv(); err != nil {
		return err
	}
	cfg, err := loadConfig(cli)
	if err != nil {
		return err
	}
	ttl := c.TTL
	if ttl == 0 {
		ttl = cfg.Auth.TokenTTL.Std()
	}
	token, exp, err := middleware.NewTokens(cfg.Auth.JWTSecret, ttl).Issue(c.User)
	if err != nil {
		return err
	}
	fmt.Println(token)
	fmt.Fprintf(os.Stderr, "expires %s\n", exp.Local().Format(time.RFC3339))
	return nil
}
