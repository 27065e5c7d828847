package main

import (
	"context"
	"fmt"

	"github.com/alecthomas/kong"

	"github.com/elee1766/finchat/src/storage"
)

// MigrateCmd manages database migrations
type MigrateCmd struct {
	Up     MigrateUpCmd     `cmd:"" help:"Run pending migrations"`
	Status MigrateStatusCmd `cmd:"" help:"Show migration status"`
}

// MigrateUpCmd runs pending migrations
type MigrateUpCmd struct {
	DBPath string `help:"Database path (defaults to config)"`
}

// Run executes the migrate up command. Opening the database applies every
// pending migration.
func (c *MigrateUpCmd) Run(ctx *kong.Context, cli *CLI) error {
	db, err := openDB(cli, c.DBPath)
	if err != nil {
		return err
	}
	defer db.Close()

	v, err := db.Version(context.Background())
	if err != nil {
		return fmt.Errorf("failed to read schema version: %w", err)
	}
	fmt.Printf("Database %s is at version %d\n", db.Path(), v)
	return nil
}

// MigrateStatusCmd shows migration status
type MigrateStatusCmd struct {
	DBPath string `help:"Database path (defaults to config)"`
}

func (c *MigrateStatusCmd) Run(ctx *kong.Context, cli *CLI) error {
	db, err := openDB(cli, c.DBPath)
	if err != nil {
		return err
	}
	defer db.Close()

	v, err := db.Version(context.Background())
	if err != nil {
		return fmt.Errorf("failed to read schema version: %w", err)
	}
	fmt.Printf("path:    %s\nversion: %d\nlatest:  %d\n", db.Path(), v, storage.LatestVersion())
	return nil
}

func openDB(cli *CLI, path string) (*storage.DB, error) {
	if path == "" {
		cfg, err := loadConfig(cli)
		if err != nil {
			return nil, err
		}
		path = cfg.Database.Path
	}
	db, err := storage.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	return db, nil
}
