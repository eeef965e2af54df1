package neorm

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/google/uuid"
)

// Create persists a new node carrying all of the model's mapped labels.
// When the identity property is absent from props a random UUID is
// generated for it. The returned map is the full property set written.
func (m *Model) Create(ctx context.Context, sess Session, props map[string]any) (map[string]any, error) {
	out := make(map[string]any, len(props)+1)
	for k, v := range props {
		out[k] = v
	}

	if _, ok := out[m.identity]; !ok {
		out[m.identity] = uuid.NewString()
	}

	cy := fmt.Sprintf("CREATE (n%s) SET n = $props", m.labelPattern())
	if _, err := sess.Run(ctx, cy, map[string]any{"props": out}); err != nil {
		return nil, fmt.Errorf("creating %s node: %w", m.name, err)
	}

	return out, nil
}

// FindOrCreate merges a node on the given match properties. When the merge
// creates the node, extra properties are set alongside a generated identity
// (unless one was supplied). A matched node is returned unchanged.
func (m *Model) FindOrCreate(ctx context.Context, sess Session, match, extra map[string]any) (map[string]any, error) {
	onCreate := make(map[string]any, len(extra)+1)
	for k, v := range extra {
		onCreate[k] = v
	}

	if _, ok := match[m.identity]; !ok {
		if _, ok := onCreate[m.identity]; !ok {
			onCreate[m.identity] = uuid.NewString()
		}
	}

	return m.merge(ctx, sess, match, onCreate, nil)
}

// Merge upserts a node on the given match properties, applying onCreate
// when the node is new and onMatch when it already exists. It returns the
// node's resulting properties.
func (m *Model) Merge(ctx context.Context, sess Session, match, onCreate, onMatch map[string]any) (map[string]any, error) {
	return m.merge(ctx, sess, match, onCreate, onMatch)
}

func (m *Model) merge(ctx context.Context, sess Session, match, onCreate, onMatch map[string]any) (map[string]any, error) {
	if len(match) == 0 {
		return nil, ErrNoMatchProperties
	}

	keys := make([]string, 0, len(match))
	for k := range match {
		keys = append(keys, k)
	}

	sort.Strings(keys)

	params := make(map[string]any, len(match)+2)

	var pattern strings.Builder
	for i, k := range keys {
		if i > 0 {
			pattern.WriteString(", ")
		}

		param := fmt.Sprintf("p%d", i)
		fmt.Fprintf(&pattern, "%s: $%s", escapeName(k), param)
		params[param] = match[k]
	}

	var cy strings.Builder
	fmt.Fprintf(&cy, "MERGE (n%s {%s})", m.labelPattern(), pattern.String())

	if len(onCreate) > 0 {
		cy.WriteString(" ON CREATE SET n += $onCreate")
		params["onCreate"] = onCreate
	}

	if len(onMatch) > 0 {
		cy.WriteString(" ON MATCH SET n += $onMatch")
		params["onMatch"] = onMatch
	}

	cy.WriteString(" RETURN n")

	rows, err := sess.Run(ctx, cy.String(), params)
	if err != nil {
		return nil, fmt.Errorf("merging %s node: %w", m.name, err)
	}

	if len(rows) == 0 {
		return nil, fmt.Errorf("neorm: merge on %s returned no rows", m.name)
	}

	return nodeProps(rows[0], "n"), nil
}

// labelPattern renders the model's labels as a Cypher node pattern suffix,
// e.g. ":`User`:`Person`".
func (m *Model) labelPattern() string {
	var sb strings.Builder
	for _, l := range m.labels {
		sb.WriteString(":")
		sb.WriteString(escapeName(l))
	}

	return sb.String()
}

// escapeName backtick-quotes a label or property name for use in Cypher.
func escapeName(s string) string {
	return "`" + strings.ReplaceAll(s, "`", "``") + "`"
}

// nodeProps rebuilds a node's property map from a flattened result row,
// dropping the alias metadata keys the session layer adds.
func nodeProps(row map[string]any, alias string) map[string]any {
	out := make(map[string]any)
	prefix := alias + "."

	for k, v := range row {
		name, ok := strings.CutPrefix(k, prefix)
		if !ok || name == "labels" || name == "elementId" {
			continue
		}

		out[name] = v
	}

	return out
}
