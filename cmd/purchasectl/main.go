package main

import (
	"errors"
	"fmt"
	"io/fs"
	"log"
	"os"

	"github.com/joho/godotenv"
	"github.com/urfave/cli/v2"

	"github.com/odyssey-erp/purchase-insights/internal/platform/cache"
	"github.com/odyssey-erp/purchase-insights/internal/purchase"
	"github.com/odyssey-erp/purchase-insights/internal/purchase/pgstore"
)

func pgDSNFlag() *cli.StringFlag {
	return &cli.StringFlag{
		Name:     "pg-dsn",
		Usage:    "PostgreSQL connection string",
		Required: true,
		EnvVars:  []string{"PG_DSN"},
	}
}

func redisAddrFlag() *cli.StringFlag {
	return &cli.StringFlag{
		Name:    "redis-addr",
		Usage:   "Redis address used for the cache and the job queue",
		Value:   "127.0.0.1:6379",
		EnvVars: []string{"REDIS_ADDR"},
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:  "purchasectl",
		Usage: "Operate the purchase insights service",
		Commands: []*cli.Command{
			{
				Name:  "migrate",
				Usage: "Apply or roll back the reporting schema",
				Subcommands: []*cli.Command{
					{
						Name:   "up",
						Usage:  "Apply all pending migrations",
						Flags:  []cli.Flag{pgDSNFlag()},
						Action: func(c *cli.Context) error { return pgstore.Migrate(c.String("pg-dsn"), false) },
					},
					{
						Name:   "down",
						Usage:  "Roll back all migrations",
						Flags:  []cli.Flag{pgDSNFlag()},
						Action: func(c *cli.Context) error { return pgstore.Migrate(c.String("pg-dsn"), true) },
					},
				},
			},
			{
				Name:  "seed",
				Usage: "Load a reporting snapshot from a JSON file",
				Flags: []cli.Flag{
					pgDSNFlag(),
					&cli.StringFlag{
						Name:     "file",
						Aliases:  []string{"f"},
						Usage:    "JSON file with companyCodes, suppliers, turnover, outstanding and outstandingPeriods",
						Required: true,
					},
				},
				Action: runSeed,
			},
			{
				Name:  "cache",
				Usage: "Manage the report cache",
				Subcommands: []*cli.Command{
					{
						Name:   "bump",
						Usage:  "Invalidate every cached report",
						Flags:  []cli.Flag{redisAddrFlag()},
						Action: runCacheBump,
					},
				},
			},
			{
				Name:  "jobs",
				Usage: "Inspect and trigger background jobs",
				Flags: []cli.Flag{redisAddrFlag()},
				Subcommands: []*cli.Command{
					{
						Name:      "trigger",
						Usage:     "Enqueue a job by task type",
						ArgsUsage: "<task-type>",
						Flags: []cli.Flag{
							&cli.StringSliceFlag{Name: "company-code", Usage: "Company codes for the warmup job"},
							&cli.StringFlag{Name: "reason", Usage: "Reason recorded by the cache bump job"},
						},
						Action: runJobsTrigger,
					},
					{
						Name:   "stats",
						Usage:  "Show queue statistics",
						Action: runJobsStats,
					},
					{
						Name:   "scheduled",
						Usage:  "List scheduled tasks",
						Flags:  []cli.Flag{&cli.IntFlag{Name: "size", Value: 10}},
						Action: runJobsScheduled,
					},
				},
			},
			reportCommand(),
		},
	}
}

func runCacheBump(c *cli.Context) error {
	client, err := cache.New(c.Context, c.String("redis-addr"))
	if err != nil {
		return err
	}
	defer func() { _ = client.Close() }()
	version, err := purchase.NewCache(client, 0).Bump(c.Context)
	if err != nil {
		return fmt.Errorf("bump cache: %w", err)
	}
	_, _ = fmt.Fprintf(c.App.Writer, "report cache version %d\n", version)
	return nil
}

func main() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		log.Printf("warning: could not load .env file: %v", err)
	}
	if err := newApp().Run(os.Args); err != nil {
		log.Fatal(err)
	}
}
