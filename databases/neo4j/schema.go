package neo4j

import (
	"context"
	"fmt"
	"strings"

	"github.com/rlch/neorm"
)

// Label is a neorm.Label bound to one label on a Session. Schema state is
// read through SHOW INDEXES / SHOW CONSTRAINTS and mutated with the
// corresponding CREATE/DROP statements.
type Label struct {
	name string
	sess *Session
}

// Name returns the bound label.
func (l *Label) Name() string { return l.name }

// Indexes returns the property-key tuples of the label's existing indexes.
// Token lookup indexes are excluded; they are label-wide, not per-property.
func (l *Label) Indexes(ctx context.Context) ([][]string, error) {
	rows, err := l.sess.Run(ctx,
		"SHOW INDEXES YIELD name, type, labelsOrTypes, properties WHERE type <> 'LOOKUP'", nil)
	if err != nil {
		return nil, err
	}

	var tuples [][]string

	for _, row := range rows {
		if !containsString(row["labelsOrTypes"], l.name) {
			continue
		}

		tuples = append(tuples, toStrings(row["properties"]))
	}

	return tuples, nil
}

// CreateIndex creates a single-property range index on the label. Index
// names follow the idx_<label>_<property> convention.
func (l *Label) CreateIndex(ctx context.Context, property string) error {
	cy := fmt.Sprintf("CREATE INDEX %s IF NOT EXISTS FOR (n:%s) ON (n.%s)",
		escape(indexName(l.name, property)), escape(l.name), escape(property))

	_, err := l.sess.Run(ctx, cy, nil)

	return err
}

// DropIndex drops the label's single-property index on property, whatever
// its name. Absence is a no-op.
func (l *Label) DropIndex(ctx context.Context, property string) error {
	name, err := l.findIndex(ctx, property)
	if err != nil {
		return err
	}

	if name == "" {
		return nil
	}

	_, err = l.sess.Run(ctx, fmt.Sprintf("DROP INDEX %s IF EXISTS", escape(name)), nil)

	return err
}

// CreateConstraint creates a constraint on the label per spec. Only
// uniqueness constraints are supported.
func (l *Label) CreateConstraint(ctx context.Context, property string, spec neorm.ConstraintSpec) error {
	if spec.Type != neorm.ConstraintUnique {
		return fmt.Errorf("%w: %q", neorm.ErrUnsupportedConstraint, spec.Type)
	}

	cy := fmt.Sprintf("CREATE CONSTRAINT %s IF NOT EXISTS FOR (n:%s) REQUIRE n.%s IS UNIQUE",
		escape(constraintName(l.name, property)), escape(l.name), escape(property))

	_, err := l.sess.Run(ctx, cy, nil)

	return err
}

// DropConstraint drops the uniqueness constraint on property, whatever its
// name. Absence is a no-op.
func (l *Label) DropConstraint(ctx context.Context, property string, spec neorm.ConstraintSpec) error {
	if spec.Type != neorm.ConstraintUnique {
		return fmt.Errorf("%w: %q", neorm.ErrUnsupportedConstraint, spec.Type)
	}

	name, err := l.findConstraint(ctx, property)
	if err != nil {
		return err
	}

	if name == "" {
		return nil
	}

	_, err = l.sess.Run(ctx, fmt.Sprintf("DROP CONSTRAINT %s IF EXISTS", escape(name)), nil)

	return err
}

// ConstraintExists reports whether a uniqueness constraint exists for the
// label/property pair.
func (l *Label) ConstraintExists(ctx context.Context, property string) (bool, error) {
	name, err := l.findConstraint(ctx, property)
	if err != nil {
		return false, err
	}

	return name != "", nil
}

// findIndex returns the name of the label's single-property index on
// property, or "" when none exists.
func (l *Label) findIndex(ctx context.Context, property string) (string, error) {
	rows, err := l.sess.Run(ctx,
		"SHOW INDEXES YIELD name, type, labelsOrTypes, properties WHERE type <> 'LOOKUP'", nil)
	if err != nil {
		return "", err
	}

	return matchSchemaRow(rows, l.name, property), nil
}

// findConstraint returns the name of the uniqueness constraint on
// label/property, or "" when none exists.
func (l *Label) findConstraint(ctx context.Context, property string) (string, error) {
	rows, err := l.sess.Run(ctx,
		"SHOW CONSTRAINTS YIELD name, type, labelsOrTypes, properties WHERE type CONTAINS 'UNIQUENESS'", nil)
	if err != nil {
		return "", err
	}

	return matchSchemaRow(rows, l.name, property), nil
}

// matchSchemaRow finds the first row whose labels contain label and whose
// property tuple is exactly [property], returning its name column.
func matchSchemaRow(rows []map[string]any, label, property string) string {
	for _, row := range rows {
		if !containsString(row["labelsOrTypes"], label) {
			continue
		}

		props := toStrings(row["properties"])
		if len(props) == 1 && props[0] == property {
			name, _ := row["name"].(string)

			return name
		}
	}

	return ""
}

func indexName(label, property string) string {
	return "idx_" + label + "_" + property
}

func constraintName(label, property string) string {
	return "uniq_" + label + "_" + property
}

// escape backtick-quotes an identifier for use in Cypher.
func escape(s string) string {
	return "`" + strings.ReplaceAll(s, "`", "``") + "`"
}

func toStrings(v any) []string {
	list, ok := v.([]any)
	if !ok {
		return nil
	}

	out := make([]string, 0, len(list))

	for _, item := range list {
		if s, ok := item.(string); ok {
			out = append(out, s)
		}
	}

	return out
}

func containsString(v any, want string) bool {
	for _, s := range toStrings(v) {
		if s == want {
			return true
		}
	}

	return false
}

// Compile-time interface check.
var _ neorm.Label = (*Label)(nil)
