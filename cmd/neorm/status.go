package main

import (
	"context"
	"fmt"
	"strings"

	neo4jdb "github.com/rlch/neorm/databases/neo4j"
	"github.com/urfave/cli/v3"
)

func statusCommand() *cli.Command {
	return &cli.Command{
		Name:   "status",
		Usage:  "Show live indexes and constraints",
		Flags:  connectionFlags(),
		Action: runStatus,
	}
}

func runStatus(ctx context.Context, c *cli.Command) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}

	sess, err := neo4jdb.New(ctx, cfg.Neo4j)
	if err != nil {
		return err
	}
	defer func() { _ = sess.Close(ctx) }()

	indexes, err := sess.Run(ctx,
		"SHOW INDEXES YIELD name, type, labelsOrTypes, properties WHERE type <> 'LOOKUP'", nil)
	if err != nil {
		return err
	}

	constraints, err := sess.Run(ctx,
		"SHOW CONSTRAINTS YIELD name, type, labelsOrTypes, properties", nil)
	if err != nil {
		return err
	}

	fmt.Printf("Indexes (%d):\n", len(indexes))
	printSchemaRows(indexes)

	fmt.Printf("\nConstraints (%d):\n", len(constraints))
	printSchemaRows(constraints)

	return nil
}

func printSchemaRows(rows []map[string]any) {
	for _, row := range rows {
		fmt.Printf("  %-32v %-20v %v(%v)\n",
			row["name"],
			row["type"],
			joinAny(row["labelsOrTypes"]),
			joinAny(row["properties"]))
	}
}

func joinAny(v any) string {
	list, ok := v.([]any)
	if !ok {
		return fmt.Sprint(v)
	}

	parts := make([]string, len(list))
	for i, item := range list {
		parts[i] = fmt.Sprint(item)
	}

	return strings.Join(parts, ",")
}
