package command

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/urfave/cli/v2"

	cloudantstore "github.com/SteffenDE/connect-cloudant-store"
)

// cleanupTimeout bounds one cleanup invocation end to end.
const cleanupTimeout = 2 * time.Minute

// CleanupCommand returns the one-shot cleanup command.
func CleanupCommand() *cli.Command {
	return &cli.Command{
		Name:  "cleanup",
		Usage: "Remove one batch of expired sessions",
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:  "batch",
				Usage: "Maximum sessions to remove in this run",
			},
		},
		Action: runCleanup,
	}
}

func runCleanup(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	if c.IsSet("batch") {
		cfg.Cleanup.Batch = c.Int("batch")
	}

	log := newLogger(cfg)
	store, err := buildStore(cfg, log, nil)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), cleanupTimeout)
	defer cancel()

	removed, err := store.CleanupExpired(ctx)

	var partial *cloudantstore.PartialCleanupError
	switch {
	case errors.As(err, &partial):
		fmt.Printf("removed %d expired sessions, %d failed\n", removed, len(partial.Failures))
		return cli.Exit("some sessions could not be removed", 1)
	case err != nil:
		return fmt.Errorf("cleanup: %w", err)
	}

	fmt.Printf("removed %d expired sessions\n", removed)
	return nil
}
