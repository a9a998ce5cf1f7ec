package model

import "context"

// NewDynamicClass declares an open-map class: a Model constructed against
// it declares new fields at runtime the first time SetData encounters an
// undeclared key, rather than requiring every field to be declared upfront.
//
// The ClassDef returned here is a template; each Model constructed against
// it gets its own private clone (see newModel) so runtime Declare calls
// never leak a field into other instances of the same dynamic class.
func NewDynamicClass(name string, fields ...*FieldDef) *ClassDef {
	c := buildClass(name, name, nil, fields)
	c.dynamic = true
	return c
}

// IsDynamic reports whether c declares fields at runtime via Declare.
func (c *ClassDef) IsDynamic() bool {
	return c != nil && c.dynamic
}

// Declare adds a new field to m's instance-private class. It is a no-op if
// the field is already declared. Only valid on a Model constructed against
// a dynamic ClassDef.
func (m *Model) Declare(ctx context.Context, name string, kind FieldKind) error {
	if !m.class.dynamic {
		return invariantErr("model %q is not a dynamic model", m.gid)
	}
	if m.Has(name) {
		return nil
	}
	fd := &FieldDef{Name: name, Kind: kind}
	m.class.byName[name] = fd
	m.class.fields = append(m.class.fields, fd)
	m.order = append(m.order, name)
	f, err := newField(ctx, m, fd)
	if err != nil {
		return err
	}
	m.fields[name] = f
	return nil
}

// declareInferred declares name with a kind inferred from v's JSON-decoded
// Go type, used by SetData on a dynamic Model when it encounters an
// undeclared key.
func (m *Model) declareInferred(ctx context.Context, name string, v any) {
	kind := KindUndefined
	switch v.(type) {
	case float64, int:
		kind = KindNumber
	case string:
		kind = KindString
	case bool:
		kind = KindBoolean
	case map[string]any:
		kind = KindUndefined // plain nested data with no declared ModelClass
	case []any:
		kind = KindList
	}
	fd := &FieldDef{Name: name, Kind: kind}
	if kind == KindList {
		fd.ElementKind = KindUndefined
	}
	m.class.byName[name] = fd
	m.class.fields = append(m.class.fields, fd)
	m.order = append(m.order, name)
	f, _ := newField(ctx, m, fd)
	m.fields[name] = f
}
