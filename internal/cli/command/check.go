package command

import (
	"context"
	"fmt"
	"time"

	"github.com/urfave/cli/v2"
)

// checkTimeout bounds the reachability probe.
const checkTimeout = 10 * time.Second

// CheckCommand returns the store reachability probe command.
func CheckCommand() *cli.Command {
	return &cli.Command{
		Name:   "check",
		Usage:  "Probe the session store and report reachability",
		Action: runCheck,
	}
}

func runCheck(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}

	log := newLogger(cfg)
	store, err := buildStore(cfg, log, nil)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), checkTimeout)
	defer cancel()

	if err := store.CheckConnection(ctx); err != nil {
		return cli.Exit(fmt.Sprintf("store unreachable: %v", err), 1)
	}

	fmt.Printf("store reachable: %s/%s\n", cfg.Store.URL, cfg.Store.Database)
	return nil
}
