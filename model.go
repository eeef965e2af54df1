package neorm

import (
	"context"
	"reflect"
	"strings"
	"sync"

	"github.com/go-openapi/inflect"
	"go.uber.org/zap"
)

// Node is the embeddable marker for struct-defined models. The neo4j tag on
// the embedded field carries the model's primary label:
//
//	type User struct {
//		neorm.Node `neo4j:"User"`
//
//		ID    string `neo4j:"id,id"`
//		Name  string `neo4j:"name,index"`
//		Email string `neo4j:"email,unique"`
//	}
//
// Embedding another model type contributes its label as an additional
// mapped label (multi-label inheritance):
//
//	type Admin struct {
//		User `neo4j:"Admin"`
//
//		Scope string `neo4j:"scope"`
//	}
type Node struct{}

const neo4jTag = "neo4j"

// DefaultIdentity is the identity property used when none is declared.
const DefaultIdentity = "id"

// Model holds the declared schema for one mapped node type: its labels, its
// property registry, and the ordered set of indexed properties. Schema
// directives declared on a Model are deferred through its gate until a
// session is bound.
type Model struct {
	name     string
	identity string
	labels   []string
	gate     *Gate
	log      *zap.Logger

	mu      sync.Mutex
	props   map[string]*Property
	indexed []string
	tasks   []*Task
}

// Option configures a Model.
type Option func(*Model)

// WithLabels appends additional mapped labels.
func WithLabels(labels ...string) Option {
	return func(m *Model) { m.labels = append(m.labels, labels...) }
}

// WithIdentity sets the identity (primary key) property.
func WithIdentity(property string) Option {
	return func(m *Model) { m.identity = property }
}

// WithGate attaches a shared session gate. Models created without one get
// their own unbound gate.
func WithGate(g *Gate) Option {
	return func(m *Model) { m.gate = g }
}

// WithLogger attaches a logger. Defaults to a nop logger.
func WithLogger(log *zap.Logger) Option {
	return func(m *Model) { m.log = log }
}

// NewModel creates a model whose primary label is name.
func NewModel(name string, opts ...Option) *Model {
	m := &Model{
		name:     name,
		identity: DefaultIdentity,
		labels:   []string{name},
		props:    make(map[string]*Property),
	}

	for _, opt := range opts {
		opt(m)
	}

	if m.gate == nil {
		m.gate = NewGate()
	}

	if m.log == nil {
		m.log = zap.NewNop()
	}

	return m
}

// Name returns the model name (its primary label).
func (m *Model) Name() string { return m.name }

// Labels returns a copy of the mapped labels. The first is the primary label.
func (m *Model) Labels() []string {
	out := make([]string, len(m.labels))
	copy(out, m.labels)

	return out
}

// Identity returns the identity property name.
func (m *Model) Identity() string { return m.identity }

// Gate returns the model's session gate.
func (m *Model) Gate() *Gate { return m.gate }

// DeclareProperty registers a property declaration, returning the existing
// one if already declared.
func (m *Model) DeclareProperty(name string) *Property {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.declareLocked(name)
}

func (m *Model) declareLocked(name string) *Property {
	if p, ok := m.props[name]; ok {
		return p
	}

	p := &Property{name: name}
	m.props[name] = p

	return p
}

// Property looks up a declaration. Absence is not an error.
func (m *Model) Property(name string) (*Property, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	p, ok := m.props[name]

	return p, ok
}

// IndexedProperties returns the ordered set of properties registered for
// indexing, in declaration order, without duplicates.
func (m *Model) IndexedProperties() []string {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]string, len(m.indexed))
	copy(out, m.indexed)

	return out
}

// appendIndexed registers prop into the ordered indexed set, once.
func (m *Model) appendIndexed(prop string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, p := range m.indexed {
		if p == prop {
			return
		}
	}

	m.indexed = append(m.indexed, prop)
}

func (m *Model) track(t *Task) *Task {
	m.mu.Lock()
	m.tasks = append(m.tasks, t)
	m.mu.Unlock()

	return t
}

// Tasks returns the schema tasks issued by this model so far.
func (m *Model) Tasks() []*Task {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]*Task, len(m.tasks))
	copy(out, m.tasks)

	return out
}

// Wait blocks until every issued schema task has completed and returns the
// first error encountered, in task order.
func (m *Model) Wait(ctx context.Context) error {
	for _, t := range m.Tasks() {
		if err := t.Wait(ctx); err != nil {
			return err
		}
	}

	return nil
}

// Define builds a Model from a struct's neo4j tags.
//
// The embedded Node marker's tag carries the primary label; it defaults to
// the struct's type name when absent. Field tags take the form
// "name[,option...]" with options:
//
//	id      mark as the identity property
//	index   declare an index on the property
//	unique  declare a uniqueness constraint on the property
//
// Fields tagged "-" and relationship markers ("->", "<-") are skipped.
// Untagged exported fields declare a property named after the field,
// lower-camelized (CreatedAt -> createdAt). Embedded model structs
// contribute their labels and properties (multi-label inheritance).
func Define(v any, opts ...Option) (*Model, error) {
	t := reflect.TypeOf(v)
	for t != nil && t.Kind() == reflect.Ptr {
		t = t.Elem()
	}

	if t == nil || t.Kind() != reflect.Struct {
		return nil, ErrNotAStruct
	}

	var def structDef
	collectStruct(t, &def)

	if def.label == "" {
		def.label = t.Name()
	}

	if def.label == "" {
		return nil, ErrNoLabel
	}

	m := NewModel(def.label, opts...)
	m.labels = dedupe(append(m.labels, def.extraLabels...))

	// An explicit WithIdentity option wins over the tag.
	if def.identity != "" && m.identity == DefaultIdentity {
		m.identity = def.identity
	}

	for _, f := range def.fields {
		m.DeclareProperty(f.name)
	}

	// Tag-driven directives queue through the gate like explicit calls.
	for _, f := range def.fields {
		if f.unique {
			m.Constraint(f.name, Unique())
		} else if f.index {
			m.Index(f.name)
		}
	}

	return m, nil
}

type fieldDef struct {
	name   string
	index  bool
	unique bool
}

type structDef struct {
	label       string
	extraLabels []string
	identity    string
	fields      []fieldDef
}

var nodeType = reflect.TypeOf(Node{})

func collectStruct(t reflect.Type, def *structDef) {
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		tag := f.Tag.Get(neo4jTag)

		if f.Anonymous {
			collectEmbedded(f, tag, def)

			continue
		}

		if !f.IsExported() {
			continue
		}

		name, optStr, _ := strings.Cut(tag, ",")
		if name == "-" || name == "->" || name == "<-" {
			continue
		}

		if name == "" {
			name = inflect.CamelizeDownFirst(f.Name)
		}

		fd := fieldDef{name: name}

		for _, opt := range strings.Split(optStr, ",") {
			switch opt {
			case "id":
				def.identity = name
			case "index":
				fd.index = true
			case "unique":
				fd.unique = true
			}
		}

		def.fields = append(def.fields, fd)
	}
}

func collectEmbedded(f reflect.StructField, tag string, def *structDef) {
	ft := f.Type
	for ft.Kind() == reflect.Ptr {
		ft = ft.Elem()
	}

	if ft == nodeType {
		if def.label == "" {
			def.label = tag
		}

		return
	}

	if ft.Kind() != reflect.Struct {
		return
	}

	// Embedded model: its tag (or type name) becomes an extra label, its
	// fields fold into this model's registry.
	var parent structDef
	collectStruct(ft, &parent)

	if tag != "" {
		def.extraLabels = append(def.extraLabels, tag)
	}

	if parent.label != "" {
		def.extraLabels = append(def.extraLabels, parent.label)
	} else if ft.Name() != "" {
		def.extraLabels = append(def.extraLabels, ft.Name())
	}

	if def.identity == "" {
		def.identity = parent.identity
	}

	def.extraLabels = append(def.extraLabels, parent.extraLabels...)
	def.fields = append(def.fields, parent.fields...)
}

func dedupe(labels []string) []string {
	seen := make(map[string]struct{}, len(labels))
	out := labels[:0]

	for _, l := range labels {
		if _, ok := seen[l]; ok {
			continue
		}

		seen[l] = struct{}{}
		out = append(out, l)
	}

	return out
}
