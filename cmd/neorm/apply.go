package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sort"

	"github.com/rlch/neorm"
	neo4jdb "github.com/rlch/neorm/databases/neo4j"
	"github.com/urfave/cli/v3"
	"go.uber.org/zap"
)

// Apply command errors.
var (
	ErrNoNeo4jConfig = errors.New("no neo4j connection configured (use .neorm.yaml or --uri)")
	ErrNoModels      = errors.New("no models declared in .neorm.yaml")
	ErrApplyFailed   = errors.New("schema apply failed")
)

func connectionFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "uri",
			Usage:   "database connection URI",
			Sources: cli.EnvVars("NEORM_URI"),
		},
		&cli.StringFlag{
			Name:    "username",
			Aliases: []string{"u"},
			Usage:   "database username",
			Sources: cli.EnvVars("NEORM_USER"),
		},
		&cli.StringFlag{
			Name:    "password",
			Aliases: []string{"p"},
			Usage:   "database password",
			Sources: cli.EnvVars("NEORM_PASS"),
		},
		&cli.StringFlag{
			Name:    "database",
			Aliases: []string{"d"},
			Usage:   "database name",
			Sources: cli.EnvVars("NEORM_DATABASE"),
		},
	}
}

func applyCommand() *cli.Command {
	return &cli.Command{
		Name:  "apply",
		Usage: "Reconcile declared indexes and constraints with the live schema",
		Flags: append(connectionFlags(),
			&cli.BoolFlag{
				Name:    "verbose",
				Aliases: []string{"v"},
				Usage:   "verbose output",
			},
		),
		Action: runApply,
	}
}

func runApply(ctx context.Context, c *cli.Command) error {
	log, err := newLogger(c.Bool("verbose"))
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}

	if len(cfg.Models) == 0 {
		return ErrNoModels
	}

	gate := neorm.NewGate()
	defer gate.Close()

	names := make([]string, 0, len(cfg.Models))
	for name := range cfg.Models {
		names = append(names, name)
	}

	sort.Strings(names)

	models := make([]*neorm.Model, 0, len(names))
	for _, name := range names {
		models = append(models, cfg.Models[name].Model(name,
			neorm.WithGate(gate),
			neorm.WithLogger(log.Named(name)),
		))
	}

	sess, err := neo4jdb.New(ctx, cfg.Neo4j)
	if err != nil {
		return err
	}
	defer func() { _ = sess.Close(ctx) }()

	gate.Bind(ctx, sess)

	failed := 0

	for _, m := range models {
		if err := m.Wait(ctx); err != nil {
			failed++

			log.Error("schema apply failed",
				zap.String("model", m.Name()),
				zap.Error(err))

			continue
		}

		log.Info("schema applied",
			zap.String("model", m.Name()),
			zap.Strings("labels", m.Labels()),
			zap.Strings("indexed", m.IndexedProperties()))
	}

	if failed > 0 {
		return fmt.Errorf("%w: %d of %d models", ErrApplyFailed, failed, len(models))
	}

	return nil
}

// loadConfig reads the nearest .neorm.yaml and overlays connection flags.
func loadConfig(c *cli.Command) (*neorm.Config, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return nil, err
	}

	cfg, err := neorm.LoadConfig(cwd)
	if errors.Is(err, neorm.ErrConfigNotFound) {
		cfg = &neorm.Config{}
	} else if err != nil {
		return nil, err
	}

	if cfg.Neo4j == nil {
		cfg.Neo4j = &neorm.Neo4jConfig{}
	}

	if uri := c.String("uri"); uri != "" {
		cfg.Neo4j.URI = uri
	}

	if user := c.String("username"); user != "" {
		cfg.Neo4j.Username = user
	}

	if pass := c.String("password"); pass != "" {
		cfg.Neo4j.Password = pass
	}

	if db := c.String("database"); db != "" {
		cfg.Neo4j.Database = db
	}

	if cfg.Neo4j.URI == "" {
		return nil, ErrNoNeo4jConfig
	}

	return cfg, nil
}

func newLogger(verbose bool) (*zap.Logger, error) {
	if verbose {
		return zap.NewDevelopment()
	}

	return zap.NewProduction()
}
