package model

import (
	"context"
	"log/slog"

	"github.com/latticemodel/lattice/gid"
	"github.com/latticemodel/lattice/internal/trace"
	"github.com/latticemodel/lattice/registry"
)

// State is a Model's position in its lifecycle state machine: construct →
// defineFields → applyDefaults → live ↔ batch → destroyed.
type State uint8

const (
	StateConstructing State = iota
	StateLive
	StateBatch
	StateDestroyed
)

// Constructor is implemented by package factory. Model depends on this
// interface, not on factory directly, so a Field can construct nested
// Models (adoption rule "plain object & declared type is a Model subclass
// → construct via Factory") without creating a model↔factory import cycle.
type Constructor interface {
	Create(ctx context.Context, class *ClassDef, data map[string]any, root bool) (*Model, error)
}

// Model is a record identified by a globally-unique gid with a set of
// declared Fields (component C3). Every Model is either a root or is owned
// by exactly one parent Field on one parent Model.
type Model struct {
	class *ClassDef
	gid   gid.ID
	reg   *registry.Registry[*Model]
	ctor  Constructor
	strict bool
	logger *slog.Logger

	root        bool
	parentField *Field

	fields map[string]*Field
	order  []string

	watchers []*Watcher
	state    State

	batch *batchState
}

// GID returns the Model's registry identifier. Implements registry.Entry.
func (m *Model) GID() gid.ID {
	if m == nil {
		return gid.Empty
	}
	return m.gid
}

// Class returns the Model's declared type.
func (m *Model) Class() *ClassDef {
	if m == nil {
		return nil
	}
	return m.class
}

// IsRoot reports whether the Model was explicitly constructed as a root.
func (m *Model) IsRoot() bool {
	return m != nil && m.root
}

// State returns the Model's current lifecycle state.
func (m *Model) State() State {
	if m == nil {
		return StateDestroyed
	}
	return m.state
}

func (m *Model) destroyed() bool {
	return m == nil || m.state == StateDestroyed
}

// newModel allocates a Model shell against class, without assigning a gid
// or registering it — the caller (typically factory.Factory) finishes
// construction via SetData and then Register. Declared defaults are
// applied here, as each Field is built by newField.
func newModel(ctx context.Context, class *ClassDef, reg *registry.Registry[*Model], ctor Constructor, strict bool, logger *slog.Logger) (*Model, error) {
	if ctx == nil {
		panic("model: nil context")
	}
	if class.dynamic {
		class = class.clone()
	}
	m := &Model{
		class:  class,
		reg:    reg,
		ctor:   ctor,
		strict: strict,
		logger: logger,
		fields: make(map[string]*Field, len(class.fields)),
		order:  class.FieldNames(),
		state:  StateConstructing,
	}
	for _, fd := range class.fields {
		f, err := newField(ctx, m, fd)
		if err != nil {
			return nil, err
		}
		m.fields[fd.Name] = f
	}
	m.state = StateLive
	return m, nil
}

// constructChild builds a fresh owned child Model for a Model-kind field
// via the injected Constructor, then adopts it under def.
func (m *Model) constructChild(ctx context.Context, def *FieldDef, data map[string]any) (*Model, error) {
	if def.ModelClass == nil {
		return nil, invariantErr("field %q: no ModelClass declared", def.Name)
	}
	if m.ctor == nil {
		return nil, invariantErr("field %q: no constructor available to build a child Model", def.Name)
	}
	child, err := m.ctor.Create(ctx, def.ModelClass, data, false)
	if err != nil {
		return nil, err
	}
	if err := m.adoptChild(child, m.fields[def.Name]); err != nil {
		return nil, err
	}
	return child, nil
}

// adoptChild enforces ownership uniqueness (invariant a): child must not
// already be owned by a different field.
func (m *Model) adoptChild(child *Model, owner *Field) error {
	if child.parentField != nil && child.parentField != owner {
		return invariantErr("gid %q is already owned by field %q", child.GID(), child.parentField.def.Name)
	}
	if child.reg != m.reg {
		return invariantErr("cross-registry adoption of gid %q is not permitted", child.GID())
	}
	child.parentField = owner
	child.root = false
	return nil
}

// FieldNames returns the Model's declared field names in declaration order.
func (m *Model) FieldNames() []string {
	if m == nil {
		return nil
	}
	return append([]string(nil), m.order...)
}

// Has reports whether name is a declared field.
func (m *Model) Has(name string) bool {
	if m == nil {
		return false
	}
	_, ok := m.fields[name]
	return ok
}

// FieldAt returns the Field for name, or nil if undeclared.
func (m *Model) FieldAt(name string) *Field {
	if m == nil {
		return nil
	}
	return m.fields[name]
}

// Get returns the current value of the named field.
func (m *Model) Get(name string) (any, error) {
	if m.destroyed() {
		return nil, useAfterDestroyErr(name)
	}
	f := m.fields[name]
	if f == nil {
		return nil, notFoundPathErr(name)
	}
	return f.Get(true)
}

func (m *Model) getRaw(name string) (any, bool) {
	f := m.fields[name]
	if f == nil {
		return nil, false
	}
	v, err := f.Get(true)
	if err != nil {
		return nil, false
	}
	return v, true
}

// Set assigns value to the named field, per Field.Set's pipeline.
func (m *Model) Set(ctx context.Context, name string, value any, init, merge bool) (bool, error) {
	if m.destroyed() {
		return false, useAfterDestroyErr(name)
	}
	f := m.fields[name]
	if f == nil {
		return false, notFoundPathErr(name)
	}
	return f.Set(ctx, value, init, merge)
}

// SetPath sets a leaf at a dotted path, lazily creating intermediate
// Model-typed fields on demand when initAlongPath is true.
func (m *Model) SetPath(ctx context.Context, p string, value any, initAlongPath bool) error {
	segs := splitPath(p)
	return m.setPathSegs(ctx, segs, value, initAlongPath)
}

func (m *Model) setPathSegs(ctx context.Context, segs []string, value any, initAlongPath bool) error {
	if m.destroyed() {
		return useAfterDestroyErr(joinPath(segs))
	}
	head, rest := segs[0], segs[1:]
	if len(rest) == 0 {
		_, err := m.Set(ctx, head, value, true, false)
		return err
	}
	f := m.fields[head]
	if f == nil {
		return notFoundPathErr(joinPath(segs))
	}
	cur, _ := f.Get(true)
	sub, ok := cur.(*Model)
	if !ok {
		if !initAlongPath {
			return notFoundPathErr(joinPath(segs))
		}
		if f.def.Kind != KindModel {
			return notFoundPathErr(joinPath(segs))
		}
		if _, err := f.Set(ctx, map[string]any{}, true, false); err != nil {
			return err
		}
		cur, _ = f.Get(true)
		sub, ok = cur.(*Model)
		if !ok {
			return notFoundPathErr(joinPath(segs))
		}
	}
	return sub.setPathSegs(ctx, rest, value, initAlongPath)
}

// SetData performs a bulk assignment within a single batch so watchers see
// aggregated notifications. In merge=false mode every declared field is
// written (a missing key clears it to its zero/default); in merge=true
// mode only present keys are written.
func (m *Model) SetData(ctx context.Context, data map[string]any, merge bool) error {
	if m.destroyed() {
		return useAfterDestroyErr("")
	}
	token := m.StartBatch()
	defer m.EndBatch(token)

	if m.class.dynamic {
		for name, v := range data {
			if !m.Has(name) {
				m.declareInferred(ctx, name, v)
			}
		}
	}

	if !merge {
		for _, name := range m.order {
			fd := m.fields[name].def
			v, present := data[name]
			if !present {
				if _, err := m.clearField(ctx, name); err != nil {
					return err
				}
				continue
			}
			if _, err := m.Set(ctx, name, v, true, false); err != nil {
				if m.strict {
					return err
				}
			}
			_ = fd
		}
		return nil
	}

	for name, v := range data {
		if !m.Has(name) {
			continue
		}
		if _, err := m.Set(ctx, name, v, true, true); err != nil {
			if m.strict {
				return err
			}
		}
	}
	return nil
}

func (m *Model) clearField(ctx context.Context, name string) (bool, error) {
	f := m.fields[name]
	if f == nil {
		return false, notFoundPathErr(name)
	}
	if f.def.Required && f.def.Default == nil {
		// A required field with no default can't be cleared to null.
		if f.def.Kind == KindModel || f.def.Kind == KindList {
			return false, nil // owned structures keep their existing instance
		}
		return false, invariantErr("field %q is required and cannot be cleared", name)
	}
	zero := f.def.defaultValue()
	if zero == nil {
		zero = zeroValue(f.def)
	}
	if zero == nil && f.def.Kind == KindList {
		zero = []any{}
	}
	return f.Set(ctx, zero, true, false)
}

// detachChild clears child's owning field and, if it is not a root,
// destroys it immediately; no deferred self-destruct tick is scheduled.
func (m *Model) detachChild(ctx context.Context, child *Model) {
	if child == nil {
		return
	}
	child.parentField = nil
	if !child.root {
		child.Destroy(ctx)
	}
}

// SetParentField reassigns the Model's owning field, enforcing ownership
// uniqueness. A locked Model (already owned by a different field) refuses
// re-parenting.
func (m *Model) SetParentField(field *Field) error {
	if m.parentField != nil && m.parentField != field {
		return invariantErr("model %q is already owned by field %q; locked against re-parenting", m.gid, m.parentField.def.Name)
	}
	m.parentField = field
	m.root = false
	return nil
}

// Detach clears the Model's owning field. If makeRoot is true the Model
// becomes a root and survives; otherwise it is destroyed immediately, in
// this call, with no deferred tick in which it could be re-adopted.
func (m *Model) Detach(ctx context.Context, makeRoot bool) {
	m.parentField = nil
	if makeRoot {
		m.root = true
		return
	}
	m.Destroy(ctx)
}

// Destroy marks the Model destroyed, recursively destroys owned children,
// drops its watchers, and deregisters from the Registry. It does not clear
// the parent's owning field, which keeps the destroyed Model as its value;
// reference fields pointing at it read nil only because the Registry
// lookup misses once it is deregistered.
func (m *Model) Destroy(ctx context.Context) {
	if m.state == StateDestroyed {
		return
	}
	op := trace.Begin(ctx, m.logger, "model.model.destroy", slog.String("gid", m.gid.String()))
	defer op.End(nil)

	for _, name := range m.order {
		f := m.fields[name]
		switch {
		case f.def.Kind == KindModel && !f.def.Reference:
			if child, ok := f.value.(*Model); ok && child != nil {
				child.Destroy(ctx)
			}
		case f.def.Kind == KindList && f.def.ElementKind == KindModel && !f.def.Reference:
			if fl, ok := f.value.(*FieldList); ok {
				for _, item := range fl.items {
					if child, ok2 := item.(*Model); ok2 && child != nil {
						child.Destroy(ctx)
					}
				}
			}
		}
	}

	m.state = StateDestroyed
	m.watchers = nil
	if m.reg != nil {
		m.reg.Remove(ctx, m.gid)
	}
}

// CloneDeep constructs a new Model tree via the Constructor from this
// Model's export() output. By default the clone lives in a new Registry,
// since the Constructor passed in governs that.
func (m *Model) CloneDeep(ctx context.Context, ctor Constructor) (*Model, error) {
	data := m.Export(ExportOptions{})
	return ctor.Create(ctx, m.class, data, m.root)
}

// ResolveReferences walks owned fields and attempts lazy resolution of any
// unresolved reference fields, recursing into owned Model and List fields.
func (m *Model) ResolveReferences(ctx context.Context) {
	m.ResolveReferencesContext(ctx)
}

// ResolveReferencesContext is the cancellable variant of ResolveReferences:
// it checks ctx.Err() between steps so a very deep tree can be abandoned
// promptly.
func (m *Model) ResolveReferencesContext(ctx context.Context) error {
	if ctx == nil {
		panic("model: nil context")
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	for _, name := range m.order {
		f := m.fields[name]
		if f.def.Reference {
			_, _ = f.Get(true)
			continue
		}
		switch v := f.value.(type) {
		case *Model:
			if v != nil {
				if err := v.ResolveReferencesContext(ctx); err != nil {
					return err
				}
			}
		case *FieldList:
			for _, item := range v.items {
				if child, ok := item.(*Model); ok && child != nil {
					if err := child.ResolveReferencesContext(ctx); err != nil {
						return err
					}
				}
			}
		}
		if err := ctx.Err(); err != nil {
			return err
		}
	}
	return nil
}

// assignGID is used by factory to assign a gid after construction, before
// registration.
func (m *Model) assignGID(id gid.ID) {
	m.gid = id
}

func (m *Model) setRoot(root bool) {
	m.root = root
}

// NewModel is the exported entry point package factory uses to allocate a
// Model shell; see newModel.
func NewModel(ctx context.Context, class *ClassDef, reg *registry.Registry[*Model], ctor Constructor, strict bool, logger *slog.Logger) (*Model, error) {
	return newModel(ctx, class, reg, ctor, strict, logger)
}

// AssignGID is the exported entry point package factory uses to stamp a
// freshly constructed Model with its gid before registration.
func AssignGID(m *Model, id gid.ID) {
	m.assignGID(id)
}

// SetRoot is the exported entry point package factory uses to mark a
// freshly constructed Model as a root or an as-yet-unadopted child.
func SetRoot(m *Model, root bool) {
	m.setRoot(root)
}
