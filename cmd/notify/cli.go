package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/JaimeStill/tickler/internal/api"
	"github.com/JaimeStill/tickler/internal/config"
	"github.com/JaimeStill/tickler/internal/infrastructure"
	"github.com/JaimeStill/tickler/internal/notifications"
	"github.com/JaimeStill/tickler/pkg/calendar"
)

const (
	exitStoreUnavailable = 2
	exitUsage            = 64
)

func newApp() *cli.App {
	return &cli.App{
		Name:  "tickler-notify",
		Usage: "Send expiry notifications for files expiring within the horizon",
		Commands: []*cli.Command{
			runCmd,
		},
	}
}

var runCmd = &cli.Command{
	Name:  "run",
	Usage: "Scan for expiring files, notify their owners, and print the manifest",
	Flags: []cli.Flag{
		&cli.IntFlag{
			Name:  "horizon",
			Usage: "Days ahead to scan (default: notifications.horizon_days)",
		},
		&cli.StringFlag{
			Name:  "now",
			Usage: "Reference date (YYYY-MM-DD) or instant (RFC 3339) instead of the clock",
		},
		&cli.BoolFlag{
			Name:  "dry-run",
			Usage: "List candidates without sending or marking anything",
		},
		&cli.DurationFlag{
			Name:  "timeout",
			Value: 5 * time.Minute,
			Usage: "Stop dispatching after this long; unprocessed files stay pending",
		},
	},
	Action: func(c *cli.Context) error {
		opts, err := runOptions(c)
		if err != nil {
			return cli.Exit(err, exitUsage)
		}

		cfg, err := config.Load()
		if err != nil {
			return fmt.Errorf("config load failed: %w", err)
		}

		infra, err := infrastructure.New(cfg)
		if err != nil {
			return err
		}
		defer infra.Database.Pool().Close()

		domain := api.NewDomain(api.NewRuntime(cfg, infra))

		ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
		defer stop()
		ctx, cancel := context.WithTimeout(ctx, c.Duration("timeout"))
		defer cancel()

		manifest, err := domain.Notifications.Run(ctx, opts)
		if err != nil {
			return cli.Exit(err, exitCode(err))
		}

		enc := json.NewEncoder(c.App.Writer)
		enc.SetIndent("", "  ")
		return enc.Encode(manifest)
	},
}

func runOptions(c *cli.Context) (notifications.RunOptions, error) {
	opts := notifications.RunOptions{DryRun: c.Bool("dry-run")}

	if c.IsSet("horizon") {
		h := c.Int("horizon")
		opts.HorizonDays = &h
	}

	if v := c.String("now"); v != "" {
		today, now, err := parseNow(v)
		if err != nil {
			return opts, err
		}
		opts.Today, opts.Now = today, now
	}

	return opts, nil
}

// parseNow accepts a calendar date, which pins the window start, or an
// RFC 3339 instant, which is converted into the configured zone.
func parseNow(v string) (*calendar.Date, time.Time, error) {
	if d, err := calendar.ParseDate(v); err == nil {
		return &d, time.Time{}, nil
	}
	t, err := time.Parse(time.RFC3339, v)
	if err != nil {
		return nil, time.Time{}, fmt.Errorf("invalid --now %q: want YYYY-MM-DD or RFC 3339", v)
	}
	return nil, t, nil
}

func exitCode(err error) int {
	switch {
	case errors.Is(err, notifications.ErrStoreUnavailable):
		return exitStoreUnavailable
	case errors.Is(err, notifications.ErrInvalidHorizon):
		return exitUsage
	default:
		return 1
	}
}
