package factory

import (
	"context"
	"log/slog"
	"strconv"
	"sync"

	"github.com/latticemodel/lattice/gid"
	"github.com/latticemodel/lattice/internal/trace"
	"github.com/latticemodel/lattice/model"
	"github.com/latticemodel/lattice/modelerr"
	"github.com/latticemodel/lattice/registry"
)

// Option configures a Factory at construction time.
type Option func(*Factory)

// WithLogger attaches a logger used for operation-boundary tracing.
func WithLogger(logger *slog.Logger) Option {
	return func(f *Factory) { f.logger = logger }
}

// WithStrict controls whether constructed Models reject (true, the
// default) or downgrade (false) a type-mismatched field value. See
// model.Model's strict flag.
func WithStrict(strict bool) Option {
	return func(f *Factory) { f.strict = strict }
}

// Factory is the single construction entry point for a Registry: it holds
// the set of known ClassDefs, assigns gids, and builds + registers Model
// trees (component C5).
type Factory struct {
	mu sync.RWMutex

	reg        *registry.Registry[*model.Model]
	classes    map[string]*model.ClassDef // by ClassDef.Name
	byTypeName map[string]*model.ClassDef // by ClassDef.TypeName, for `_type` dispatch

	strict bool
	logger *slog.Logger
}

// New creates a Factory bound to reg. Panics if reg is nil: there is no way
// to construct Models without somewhere to register them.
func New(reg *registry.Registry[*model.Model], opts ...Option) *Factory {
	if reg == nil {
		panic("factory.New: nil registry")
	}
	f := &Factory{
		reg:        reg,
		classes:    make(map[string]*model.ClassDef),
		byTypeName: make(map[string]*model.ClassDef),
		strict:     true,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Register makes class available for construction by name and, if it
// declares one, by its `_type` discriminator.
func (f *Factory) Register(class *model.ClassDef) {
	if class == nil {
		panic("factory.Register: nil class")
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.classes[class.Name] = class
	if class.HasType() {
		f.byTypeName[class.TypeName] = class
	}
}

// Class looks up a previously Registered ClassDef by its Go-side name.
func (f *Factory) Class(name string) (*model.ClassDef, bool) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	c, ok := f.classes[name]
	return c, ok
}

// Create builds a new Model against class, populated from data, assigns it
// a gid, and registers it. Implements model.Constructor.
//
// Create panics on a nil context: a missing context is a programmer error,
// not a condition callers should recover from.
func (f *Factory) Create(ctx context.Context, class *model.ClassDef, data map[string]any, root bool) (*model.Model, error) {
	if ctx == nil {
		panic("factory.Create: nil context")
	}
	if class == nil {
		return nil, modelerr.New(modelerr.InvariantViolation, "factory.Create: nil class")
	}

	op := trace.Begin(ctx, f.logger, "factory.factory.create", slog.String("class", class.Name))
	var retErr error
	defer func() { op.End(retErr) }()

	resolved := f.resolveType(class, data)

	m, err := model.NewModel(ctx, resolved, f.reg, f, f.strict, f.logger)
	if err != nil {
		retErr = err
		return nil, retErr
	}

	model.SetRoot(m, root)

	if err := m.SetData(ctx, data, false); err != nil {
		retErr = err
		return nil, retErr
	}
	id, err := f.assignGID(data)
	if err != nil {
		retErr = err
		return nil, retErr
	}
	model.AssignGID(m, id)
	if err := f.reg.Register(ctx, m); err != nil {
		retErr = err
		return nil, retErr
	}
	return m, nil
}

// CreateRoot is a convenience wrapper for constructing a top-level Model.
func (f *Factory) CreateRoot(ctx context.Context, class *model.ClassDef, data map[string]any) (*model.Model, error) {
	return f.Create(ctx, class, data, true)
}

// CreateSet constructs several root Models in one call and then runs a
// resolution pass over all of them, so forward references between the
// batch's own members (a later-listed Model referencing an earlier one,
// or vice versa) resolve once every Model exists in the Registry.
func (f *Factory) CreateSet(ctx context.Context, class *model.ClassDef, items []map[string]any) ([]*model.Model, error) {
	if ctx == nil {
		panic("factory.CreateSet: nil context")
	}
	built := make([]*model.Model, 0, len(items))
	for _, data := range items {
		m, err := f.Create(ctx, class, data, true)
		if err != nil {
			return built, err
		}
		built = append(built, m)
	}
	for _, m := range built {
		if err := m.ResolveReferencesContext(ctx); err != nil {
			return built, err
		}
	}
	return built, nil
}

// resolveType implements the `_type` discriminator dispatch: if data
// carries a `_type` key naming a registered class, that class is used
// instead of the statically-declared one. An unrecognized `_type` value
// logs a warning and falls back to the declared class rather than failing
// construction outright.
func (f *Factory) resolveType(class *model.ClassDef, data map[string]any) *model.ClassDef {
	raw, ok := data["_type"]
	if !ok {
		return class
	}
	name, ok := raw.(string)
	if !ok {
		return class
	}
	f.mu.RLock()
	resolved, found := f.byTypeName[name]
	f.mu.RUnlock()
	if !found {
		if f.logger != nil {
			f.logger.Warn("factory: unknown _type discriminator, falling back to declared class",
				slog.String("type", name), slog.String("declared", class.Name))
		}
		return class
	}
	return resolved
}

// assignGID honors an explicit "gid" key in data; otherwise it picks the
// next integer greater than the current maximum integer-shaped gid in the
// Registry, or a fresh UUID if any existing gid isn't integer-shaped.
func (f *Factory) assignGID(data map[string]any) (gid.ID, error) {
	if raw, ok := data["gid"]; ok {
		return gid.FromAny(raw)
	}

	var max int64 = -1
	allIntegral := true
	for _, entry := range f.reg.All() {
		n, err := strconv.ParseInt(entry.GID().String(), 10, 64)
		if err != nil {
			allIntegral = false
			break
		}
		if n > max {
			max = n
		}
	}
	if allIntegral && f.reg.Len() > 0 {
		return gid.FromInt(max + 1), nil
	}
	if f.reg.Len() == 0 {
		return gid.FromInt(1), nil
	}
	return gid.Generate(), nil
}
