package neorm

// Property is the local declaration of a model attribute. It is pure
// bookkeeping: the flags mirror what the synchronizer last reconciled, they
// never touch the database themselves.
type Property struct {
	name        string
	indexed     bool
	constrained bool
}

// Name returns the declared property name.
func (p *Property) Name() string { return p.name }

// Indexed reports whether the property is flagged as index-backed.
func (p *Property) Indexed() bool { return p.indexed }

// Constrained reports whether the property is flagged as constraint-backed.
func (p *Property) Constrained() bool { return p.constrained }

func (p *Property) markIndexed()       { p.indexed = true }
func (p *Property) unmarkIndexed()     { p.indexed = false }
func (p *Property) markConstrained()   { p.constrained = true }
func (p *Property) unmarkConstrained() { p.constrained = false }
