package neorm

import "context"

// Session is the minimal database surface the schema and persistence layers
// need. Implementations return rows flattened so that node and relationship
// properties are accessible as "alias.property" keys (e.g. "n.email" for
// RETURN n), matching databases/neo4j.
type Session interface {
	// Run executes a Cypher statement and returns the flattened result rows.
	Run(ctx context.Context, cypher string, params map[string]any) ([]map[string]any, error)

	// Label resolves a handle for the given label, creating one if absent.
	// Handles are cheap and not cached across operations.
	Label(name string) Label
}

// Label is a capability bound to a single schema label. It exposes the
// index and constraint primitives the synchronizer reconciles against.
type Label interface {
	// Name returns the label this handle is bound to.
	Name() string

	// Indexes returns the property-key tuples of the label's existing
	// indexes. Single-property indexes appear as one-element tuples.
	Indexes(ctx context.Context) ([][]string, error)

	// CreateIndex creates a single-property index on the label.
	CreateIndex(ctx context.Context, property string) error

	// DropIndex drops the single-property index on the label, if present.
	DropIndex(ctx context.Context, property string) error

	// CreateConstraint creates a constraint on the label per spec.
	CreateConstraint(ctx context.Context, property string, spec ConstraintSpec) error

	// DropConstraint drops the constraint on the label matching spec, if present.
	DropConstraint(ctx context.Context, property string, spec ConstraintSpec) error

	// ConstraintExists reports whether a unique constraint exists for the
	// label/property pair.
	ConstraintExists(ctx context.Context, property string) (bool, error)
}

// ConstraintType identifies the kind of a constraint.
type ConstraintType string

// Constraint types. Only uniqueness is recognized today.
const (
	ConstraintUnique ConstraintType = "unique"
)

// ConstraintSpec describes a constraint to create or drop.
type ConstraintSpec struct {
	Type ConstraintType
}

// Unique returns the spec for a uniqueness constraint.
func Unique() ConstraintSpec {
	return ConstraintSpec{Type: ConstraintUnique}
}
