// Package neo4j provides a neorm Session backed by the official Neo4j driver.
package neo4j

import (
	"context"
	"fmt"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"github.com/neo4j/neo4j-go-driver/v5/neo4j/dbtype"
	"github.com/rlch/neorm"
)

// Session implements neorm.Session over a Neo4j driver connection.
type Session struct {
	driver  neo4j.DriverWithContext
	session neo4j.SessionWithContext
}

// New opens a driver connection from the given configuration and verifies
// connectivity before returning.
func New(ctx context.Context, cfg *neorm.Neo4jConfig) (*Session, error) {
	auth := neo4j.NoAuth()
	if cfg.Username != "" {
		auth = neo4j.BasicAuth(cfg.Username, cfg.Password, "")
	}

	driver, err := neo4j.NewDriverWithContext(cfg.URI, auth)
	if err != nil {
		return nil, fmt.Errorf("neo4j: failed to create driver: %w", err)
	}

	if err := driver.VerifyConnectivity(ctx); err != nil {
		_ = driver.Close(ctx)

		return nil, fmt.Errorf("neo4j: failed to connect: %w", err)
	}

	sessionCfg := neo4j.SessionConfig{
		AccessMode: neo4j.AccessModeWrite,
	}
	if cfg.Database != "" {
		sessionCfg.DatabaseName = cfg.Database
	}

	return &Session{
		driver:  driver,
		session: driver.NewSession(ctx, sessionCfg),
	}, nil
}

// Run executes a Cypher statement and returns the result rows flattened so
// that node/relationship properties are accessible as "alias.property" keys
// (e.g. "n.email" for RETURN n).
func (s *Session) Run(ctx context.Context, cypher string, params map[string]any) ([]map[string]any, error) {
	result, err := s.session.Run(ctx, cypher, params)
	if err != nil {
		return nil, fmt.Errorf("neo4j: query execution failed: %w", err)
	}

	records, err := result.Collect(ctx)
	if err != nil {
		return nil, fmt.Errorf("neo4j: failed to collect results: %w", err)
	}

	rows := make([]map[string]any, len(records))
	for i, record := range records {
		rows[i] = flattenRecord(record.Keys, record.Values)
	}

	return rows, nil
}

// Label returns a handle bound to the given label. Handles are lightweight
// and resolved on demand; nothing is cached across operations.
func (s *Session) Label(name string) neorm.Label {
	return &Label{name: name, sess: s}
}

// Close releases the session and the underlying driver.
func (s *Session) Close(ctx context.Context) error {
	if s.session != nil {
		if err := s.session.Close(ctx); err != nil {
			return fmt.Errorf("neo4j: failed to close session: %w", err)
		}
	}

	if s.driver != nil {
		if err := s.driver.Close(ctx); err != nil {
			return fmt.Errorf("neo4j: failed to close driver: %w", err)
		}
	}

	return nil
}

// flattenRecord converts a Neo4j record into a flat map. Nodes and
// relationships are expanded so their properties are accessible as
// "alias.property" (e.g. n.email, r.since).
func flattenRecord(keys []string, values []any) map[string]any {
	result := make(map[string]any)

	for i, key := range keys {
		flattenValue(result, key, values[i])
	}

	return result
}

func flattenValue(result map[string]any, key string, value any) {
	switch v := value.(type) {
	case dbtype.Node:
		for prop, propVal := range v.Props {
			result[key+"."+prop] = propVal
		}

		result[key+".labels"] = v.Labels
		result[key+".elementId"] = v.ElementId

	case dbtype.Relationship:
		for prop, propVal := range v.Props {
			result[key+"."+prop] = propVal
		}

		result[key+".type"] = v.Type
		result[key+".elementId"] = v.ElementId

	case map[string]any:
		for k, val := range v {
			result[key+"."+k] = val
		}

	default:
		result[key] = v
	}
}

// Compile-time interface check.
var _ neorm.Session = (*Session)(nil)
