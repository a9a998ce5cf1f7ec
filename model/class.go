package model

import "maps"

// FieldKind enumerates the runtime types a Field may declare, per the data
// model's "number, string, boolean, alphanumeric, function, Model subclass,
// or undefined" list plus the List<T> sequence shape.
type FieldKind uint8

const (
	KindNumber FieldKind = iota
	KindString
	KindBoolean
	// KindAlphanumeric accepts either a string or a number.
	KindAlphanumeric
	KindFunction
	// KindModel declares the field's value as an owned (or, if Reference is
	// set, referenced) instance of ModelClass.
	KindModel
	// KindUndefined accepts any primitive value.
	KindUndefined
	// KindList declares an ordered sequence field; ElementKind (and, for
	// element Models, ElementClass) describe the item type.
	KindList
)

func (k FieldKind) String() string {
	switch k {
	case KindNumber:
		return "number"
	case KindString:
		return "string"
	case KindBoolean:
		return "boolean"
	case KindAlphanumeric:
		return "alphanumeric"
	case KindFunction:
		return "function"
	case KindModel:
		return "model"
	case KindUndefined:
		return "undefined"
	case KindList:
		return "list"
	default:
		return "unknown"
	}
}

// DefaultFunc produces a fresh default value for a field at construction
// time. Used instead of a static Default when the zero value must not be
// shared between instances (e.g. a fresh sub-Model or a fresh slice).
type DefaultFunc func() any

// FieldDef declares one field of a ClassDef: its name, runtime type, and
// whether it is required, a reference, and an optional default value or
// factory.
type FieldDef struct {
	Name string
	Kind FieldKind

	// ElementKind and ElementClass describe the item type when Kind is
	// KindList.
	ElementKind  FieldKind
	ElementClass *ClassDef

	// ModelClass is set when Kind is KindModel.
	ModelClass *ClassDef

	// Default is either a concrete value or a DefaultFunc. Nil means "no
	// explicit default" — required fields without one auto-generate a
	// type-appropriate zero value.
	Default any

	Required  bool
	Reference bool
}

func (f *FieldDef) defaultValue() any {
	switch d := f.Default.(type) {
	case nil:
		return nil
	case DefaultFunc:
		return d()
	default:
		return d
	}
}

// ClassDef is a named, immutable set of FieldDefs — a declared record type,
// built once via a class-side registration step rather than per-instance
// field declarations.
type ClassDef struct {
	Name string
	// TypeName is the string used as the `_type` discriminator on export
	// and Factory dispatch. Empty means the class has no `_type` of its
	// own and none is emitted on export.
	TypeName string

	fields  []*FieldDef
	byName  map[string]*FieldDef
	dynamic bool
}

// NewClass declares a new record type with the given fields.
func NewClass(name string, fields ...*FieldDef) *ClassDef {
	return buildClass(name, name, nil, fields)
}

// NewClassWithType declares a new record type whose `_type` discriminator
// differs from its Go-side Name.
func NewClassWithType(name, typeName string, fields ...*FieldDef) *ClassDef {
	return buildClass(name, typeName, nil, fields)
}

// Extend declares a new class that merge-inherits parent's field set: the
// child's own fields are added to (and may override by name) the parent's.
func Extend(parent *ClassDef, name string, extraFields ...*FieldDef) *ClassDef {
	return buildClass(name, name, parent, extraFields)
}

func buildClass(name, typeName string, parent *ClassDef, fields []*FieldDef) *ClassDef {
	byName := make(map[string]*FieldDef)
	var order []*FieldDef
	if parent != nil {
		for _, fd := range parent.fields {
			byName[fd.Name] = fd
			order = append(order, fd)
		}
	}
	for _, fd := range fields {
		if _, exists := byName[fd.Name]; exists {
			// Override in place, preserving original declaration order.
			for i, existing := range order {
				if existing.Name == fd.Name {
					order[i] = fd
					break
				}
			}
		} else {
			order = append(order, fd)
		}
		byName[fd.Name] = fd
	}
	return &ClassDef{Name: name, TypeName: typeName, fields: order, byName: byName}
}

// FieldDef returns the declaration for name, or nil if undeclared.
func (c *ClassDef) FieldDef(name string) *FieldDef {
	return c.byName[name]
}

// FieldNames returns the declared field names in declaration order.
func (c *ClassDef) FieldNames() []string {
	names := make([]string, len(c.fields))
	for i, fd := range c.fields {
		names[i] = fd.Name
	}
	return names
}

// HasType reports whether the class owns a `_type` discriminator, per the
// export rule "`_type` key present iff the class owns a static `type`".
func (c *ClassDef) HasType() bool {
	return c.TypeName != ""
}

// clone returns a defensive copy of c's field index, used when building a
// DynamicModel's mutable class so runtime Declare calls don't mutate a
// shared static ClassDef.
func (c *ClassDef) clone() *ClassDef {
	cp := &ClassDef{
		Name:     c.Name,
		TypeName: c.TypeName,
		dynamic:  c.dynamic,
		fields:   append([]*FieldDef(nil), c.fields...),
		byName:   make(map[string]*FieldDef, len(c.byName)),
	}
	maps.Copy(cp.byName, c.byName)
	return cp
}
