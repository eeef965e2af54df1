package neorm

import (
	"context"
	"fmt"

	"go.uber.org/zap"
)

// Index declares that prop should be index-backed on every mapped label.
// The reconciliation is deferred until the model's gate has a session:
//
//   - an existing unique constraint for the property is dropped first (an
//     index request downgrades a constraint; the two states are mutually
//     exclusive for a property);
//   - the local declaration is flagged indexed, unless prop is the identity
//     property, which is implicitly unique and keeps its flags untouched;
//   - each mapped label receives an index unless it already has a
//     single-property index on exactly prop.
func (m *Model) Index(prop string) *Task {
	return m.track(m.gate.Do(func(ctx context.Context, sess Session) error {
		return m.ensureIndex(ctx, sess, prop)
	}))
}

// Constraint declares a constraint on prop for the model's primary label.
// Only Unique is recognized. Deferred like Index. An existing plain index on
// the property is dropped first: the constraint subsumes it, and overlapping
// definitions are a database error.
func (m *Model) Constraint(prop string, spec ConstraintSpec) *Task {
	return m.track(m.gate.Do(func(ctx context.Context, sess Session) error {
		return m.ensureConstraint(ctx, sess, prop, spec)
	}))
}

// DropIndex removes the index on prop. The optional label handle overrides
// the model's primary label. A missing property declaration is tolerated.
func (m *Model) DropIndex(prop string, label ...Label) *Task {
	return m.track(m.gate.Do(func(ctx context.Context, sess Session) error {
		h := m.resolveLabel(sess, label...)

		return m.dropIndex(ctx, h, prop)
	}))
}

// DropConstraint removes the constraint matching spec on prop.
func (m *Model) DropConstraint(prop string, spec ConstraintSpec) *Task {
	return m.track(m.gate.Do(func(ctx context.Context, sess Session) error {
		return m.dropConstraint(ctx, sess.Label(m.labels[0]), prop, spec)
	}))
}

// HasIndex reports whether the primary label currently has a single-property
// index on exactly prop.
func (m *Model) HasIndex(ctx context.Context, sess Session, prop string) (bool, error) {
	return hasSingleIndex(ctx, sess.Label(m.labels[0]), prop)
}

func (m *Model) resolveLabel(sess Session, label ...Label) Label {
	if len(label) > 0 && label[0] != nil {
		return label[0]
	}

	return sess.Label(m.labels[0])
}

func (m *Model) ensureIndex(ctx context.Context, sess Session, prop string) error {
	primary := sess.Label(m.labels[0])

	exists, err := primary.ConstraintExists(ctx, prop)
	if err != nil {
		return fmt.Errorf("checking constraint on %s.%s: %w", primary.Name(), prop, err)
	}

	if exists {
		if err := m.dropConstraint(ctx, primary, prop, Unique()); err != nil {
			return err
		}
	}

	if prop != m.identity {
		m.setFlags(prop, (*Property).markIndexed)
	}

	m.appendIndexed(prop)

	for _, name := range m.Labels() {
		h := sess.Label(name)

		has, err := hasSingleIndex(ctx, h, prop)
		if err != nil {
			return err
		}

		if has {
			continue
		}

		if err := h.CreateIndex(ctx, prop); err != nil {
			return fmt.Errorf("creating index on %s.%s: %w", name, prop, err)
		}

		m.log.Debug("created index",
			zap.String("label", name),
			zap.String("property", prop))
	}

	return nil
}

func (m *Model) ensureConstraint(ctx context.Context, sess Session, prop string, spec ConstraintSpec) error {
	if spec.Type != ConstraintUnique {
		return fmt.Errorf("%w: %q", ErrUnsupportedConstraint, spec.Type)
	}

	h := sess.Label(m.labels[0])

	exists, err := h.ConstraintExists(ctx, prop)
	if err != nil {
		return fmt.Errorf("checking constraint on %s.%s: %w", h.Name(), prop, err)
	}

	if exists {
		return nil
	}

	has, err := hasSingleIndex(ctx, h, prop)
	if err != nil {
		return err
	}

	if has {
		if err := m.dropIndex(ctx, h, prop); err != nil {
			return err
		}
	}

	if prop != m.identity {
		m.setFlags(prop, (*Property).markConstrained)
	}

	if err := h.CreateConstraint(ctx, prop, spec); err != nil {
		return fmt.Errorf("creating constraint on %s.%s: %w", h.Name(), prop, err)
	}

	m.log.Debug("created constraint",
		zap.String("label", h.Name()),
		zap.String("property", prop),
		zap.String("type", string(spec.Type)))

	return nil
}

func (m *Model) dropIndex(ctx context.Context, h Label, prop string) error {
	m.setFlags(prop, (*Property).unmarkIndexed)

	if err := h.DropIndex(ctx, prop); err != nil {
		return fmt.Errorf("dropping index on %s.%s: %w", h.Name(), prop, err)
	}

	m.log.Debug("dropped index",
		zap.String("label", h.Name()),
		zap.String("property", prop))

	return nil
}

func (m *Model) dropConstraint(ctx context.Context, h Label, prop string, spec ConstraintSpec) error {
	m.setFlags(prop, (*Property).unmarkConstrained)

	if err := h.DropConstraint(ctx, prop, spec); err != nil {
		return fmt.Errorf("dropping constraint on %s.%s: %w", h.Name(), prop, err)
	}

	m.log.Debug("dropped constraint",
		zap.String("label", h.Name()),
		zap.String("property", prop))

	return nil
}

// setFlags applies fn to the property's declaration if one exists.
func (m *Model) setFlags(prop string, fn func(*Property)) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if p, ok := m.props[prop]; ok {
		fn(p)
	}
}

func hasSingleIndex(ctx context.Context, h Label, prop string) (bool, error) {
	tuples, err := h.Indexes(ctx)
	if err != nil {
		return false, fmt.Errorf("listing indexes on %s: %w", h.Name(), err)
	}

	for _, t := range tuples {
		if len(t) == 1 && t[0] == prop {
			return true, nil
		}
	}

	return false, nil
}
