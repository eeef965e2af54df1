package neorm_test

import (
	"context"
	"fmt"
	"sync"

	"github.com/rlch/neorm"
)

// fakeGraph is an in-memory schema catalog shared by fake sessions and
// label handles. Every mutating call is recorded so tests can assert on
// exactly which schema operations ran.
type fakeGraph struct {
	mu          sync.Mutex
	indexes     map[string]map[string]bool
	constraints map[string]map[string]bool
	calls       []string
	failOn      map[string]error
}

func newFakeGraph() *fakeGraph {
	return &fakeGraph{
		indexes:     make(map[string]map[string]bool),
		constraints: make(map[string]map[string]bool),
		failOn:      make(map[string]error),
	}
}

func callKey(op, label, prop string) string {
	return fmt.Sprintf("%s %s.%s", op, label, prop)
}

// record logs a call and returns the injected error, if any.
func (g *fakeGraph) record(op, label, prop string) error {
	key := callKey(op, label, prop)
	g.calls = append(g.calls, key)

	return g.failOn[key]
}

func (g *fakeGraph) countCalls(op, label, prop string) int {
	g.mu.Lock()
	defer g.mu.Unlock()

	n := 0

	for _, c := range g.calls {
		if c == callKey(op, label, prop) {
			n++
		}
	}

	return n
}

func (g *fakeGraph) addIndex(label, prop string) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.indexes[label] == nil {
		g.indexes[label] = make(map[string]bool)
	}

	g.indexes[label][prop] = true
}

func (g *fakeGraph) addConstraint(label, prop string) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.constraints[label] == nil {
		g.constraints[label] = make(map[string]bool)
	}

	g.constraints[label][prop] = true
}

func (g *fakeGraph) hasIndex(label, prop string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	return g.indexes[label][prop]
}

func (g *fakeGraph) hasConstraint(label, prop string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	return g.constraints[label][prop]
}

// fakeSession implements neorm.Session. Raw Run calls are recorded and
// answered with canned rows; label handles share the fake schema catalog.
type fakeSession struct {
	graph *fakeGraph

	mu      sync.Mutex
	queries []string
	params  []map[string]any
	rows    []map[string]any
	runErr  error
}

func newFakeSession() *fakeSession {
	return &fakeSession{graph: newFakeGraph()}
}

func (s *fakeSession) Run(_ context.Context, cypher string, params map[string]any) ([]map[string]any, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.queries = append(s.queries, cypher)
	s.params = append(s.params, params)

	return s.rows, s.runErr
}

func (s *fakeSession) Label(name string) neorm.Label {
	return &fakeLabel{name: name, graph: s.graph}
}

func (s *fakeSession) lastQuery() string {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.queries) == 0 {
		return ""
	}

	return s.queries[len(s.queries)-1]
}

func (s *fakeSession) lastParams() map[string]any {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.params) == 0 {
		return nil
	}

	return s.params[len(s.params)-1]
}

// fakeLabel implements neorm.Label against the shared fake catalog.
type fakeLabel struct {
	name  string
	graph *fakeGraph
}

func (l *fakeLabel) Name() string { return l.name }

func (l *fakeLabel) Indexes(_ context.Context) ([][]string, error) {
	l.graph.mu.Lock()
	defer l.graph.mu.Unlock()

	var tuples [][]string
	for prop := range l.graph.indexes[l.name] {
		tuples = append(tuples, []string{prop})
	}

	return tuples, nil
}

func (l *fakeLabel) CreateIndex(_ context.Context, property string) error {
	l.graph.mu.Lock()
	defer l.graph.mu.Unlock()

	if err := l.graph.record("CREATE INDEX", l.name, property); err != nil {
		return err
	}

	if l.graph.indexes[l.name] == nil {
		l.graph.indexes[l.name] = make(map[string]bool)
	}

	l.graph.indexes[l.name][property] = true

	return nil
}

func (l *fakeLabel) DropIndex(_ context.Context, property string) error {
	l.graph.mu.Lock()
	defer l.graph.mu.Unlock()

	if err := l.graph.record("DROP INDEX", l.name, property); err != nil {
		return err
	}

	delete(l.graph.indexes[l.name], property)

	return nil
}

func (l *fakeLabel) CreateConstraint(_ context.Context, property string, spec neorm.ConstraintSpec) error {
	if spec.Type != neorm.ConstraintUnique {
		return neorm.ErrUnsupportedConstraint
	}

	l.graph.mu.Lock()
	defer l.graph.mu.Unlock()

	if err := l.graph.record("CREATE CONSTRAINT", l.name, property); err != nil {
		return err
	}

	if l.graph.constraints[l.name] == nil {
		l.graph.constraints[l.name] = make(map[string]bool)
	}

	l.graph.constraints[l.name][property] = true

	return nil
}

func (l *fakeLabel) DropConstraint(_ context.Context, property string, spec neorm.ConstraintSpec) error {
	if spec.Type != neorm.ConstraintUnique {
		return neorm.ErrUnsupportedConstraint
	}

	l.graph.mu.Lock()
	defer l.graph.mu.Unlock()

	if err := l.graph.record("DROP CONSTRAINT", l.name, property); err != nil {
		return err
	}

	delete(l.graph.constraints[l.name], property)

	return nil
}

func (l *fakeLabel) ConstraintExists(_ context.Context, property string) (bool, error) {
	l.graph.mu.Lock()
	defer l.graph.mu.Unlock()

	return l.graph.constraints[l.name][property], nil
}

// Compile-time interface checks.
var (
	_ neorm.Session = (*fakeSession)(nil)
	_ neorm.Label   = (*fakeLabel)(nil)
)
