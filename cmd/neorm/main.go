// Command neorm applies declared model schema to a Neo4j database.
//
// Models are declared in .neorm.yaml alongside the connection settings:
//
//	neo4j:
//	  uri: bolt://localhost:7687
//	  username: neo4j
//	  password: password
//	models:
//	  User:
//	    labels: [Person]
//	    id: id
//	    index: [name]
//	    unique: [email]
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/urfave/cli/v3"
)

func main() {
	cmd := &cli.Command{
		Name:  "neorm",
		Usage: "Declarative schema management for Neo4j models",
		Commands: []*cli.Command{
			applyCommand(),
			statusCommand(),
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "neorm: %v\n", err)
		os.Exit(1)
	}
}
