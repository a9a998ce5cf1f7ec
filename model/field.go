package model

import (
	"context"

	"github.com/latticemodel/lattice/gid"
	"github.com/latticemodel/lattice/modelerr"
)

// Field is one typed slot of one owner Model (component C2). It holds the
// current value, an optional validation error recorded in non-strict mode,
// and, for reference fields, an unresolved pointer gid.
type Field struct {
	def   *FieldDef
	owner *Model

	value any // *Model, *FieldList, or a primitive; nil if unset/unresolved

	refPointer gid.ID // set when def.Reference and the target isn't resolved
	isDefault  bool
	lastErr    *modelerr.Error
}

// Name returns the field's declared name. Safe to call on a nil Field.
func (f *Field) Name() string {
	if f == nil {
		return ""
	}
	return f.def.Name
}

// Def returns the field's declaration. Safe to call on a nil Field.
func (f *Field) Def() *FieldDef {
	if f == nil {
		return nil
	}
	return f.def
}

// IsDefault reports whether the field still holds its constructed default,
// used by export's nonDefault option.
func (f *Field) IsDefault() bool {
	if f == nil {
		return true
	}
	return f.isDefault
}

// LastError returns the type-mismatch error recorded the last time a
// non-strict Model accepted a wrongly-typed value for this field, or nil.
func (f *Field) LastError() *modelerr.Error {
	if f == nil {
		return nil
	}
	return f.lastErr
}

// newField constructs a Field for def on owner, applying the declared
// default (or, for a required field with none, a type-appropriate zero
// value).
func newField(ctx context.Context, owner *Model, def *FieldDef) (*Field, error) {
	f := &Field{def: def, owner: owner, isDefault: true}

	if def.Reference && def.Required && def.Default == nil {
		return nil, invariantErr("field %q: required reference field has no default", def.Name)
	}

	switch {
	case def.Kind == KindList:
		f.value = newFieldList(owner, f)
		if dv := def.defaultValue(); dv != nil {
			if arr, ok := dv.([]any); ok {
				for _, item := range arr {
					if _, err := f.value.(*FieldList).appendRaw(ctx, item, true); err != nil {
						return nil, err
					}
				}
			}
		}
	case def.Kind == KindModel && !def.Reference:
		if dv := def.defaultValue(); dv != nil {
			m, err := coerceToModel(ctx, owner, def, dv, true)
			if err != nil {
				return nil, err
			}
			if m != nil {
				m.parentField = f
			}
			f.value = m
		} else if def.Required {
			m, err := owner.constructChild(ctx, def, map[string]any{})
			if err != nil {
				return nil, err
			}
			m.parentField = f
			f.value = m
		}
	case def.Reference:
		if dv := def.defaultValue(); dv != nil {
			id, err := gid.FromAny(dv)
			if err == nil {
				f.refPointer = id
			}
		}
	default:
		if dv := def.defaultValue(); dv != nil {
			f.value = dv
		} else if def.Required {
			f.value = zeroValue(def)
		}
	}
	return f, nil
}

// Get returns the field's current value. When resolveReference is true (the
// default) and this is an unresolved reference field, it attempts
// resolution via the owner's Registry, storing the result (even a miss, as
// nil) as the new value.
func (f *Field) Get(resolveReference bool) (any, error) {
	if f.owner.destroyed() {
		return nil, useAfterDestroyErr(f.def.Name)
	}
	if f.def.Reference && resolveReference && !f.refPointer.IsEmpty() {
		target, ok := f.owner.reg.ByGID(f.refPointer)
		if ok {
			f.value = target
		} else {
			f.value = nil
		}
	}
	return f.value, nil
}

// Set applies input to the field through the type/adoption pipeline. init
// enables the adoption rules; merge is forwarded to nested setData calls.
// Returns false without error when a validator vetoed the change.
func (f *Field) Set(ctx context.Context, input any, init, merge bool) (bool, error) {
	if f.owner.destroyed() {
		return false, useAfterDestroyErr(f.def.Name)
	}

	finalValue, refPtr, isRef, err := f.resolveCandidate(ctx, input, init, merge)
	if err != nil {
		return false, err
	}

	path := []string{f.def.Name}
	oldValue := f.value
	allowed := f.owner.runValidators(path, finalValue)
	if !allowed {
		// Revert: nothing has mutated yet and no watcher has been notified
		// of the candidate; a synthetic change with old and new both equal
		// to the kept value still fires so watchers see the rejected write.
		f.owner.notifyChange(path, oldValue, oldValue)
		return false, nil
	}

	if f.def.Kind == KindModel && !f.def.Reference {
		if oldModel, ok := f.value.(*Model); ok && oldModel != nil {
			if newModel, ok2 := finalValue.(*Model); !ok2 || newModel != oldModel {
				f.owner.detachChild(ctx, oldModel)
			}
		}
	}

	f.value = finalValue
	f.isDefault = false
	if isRef {
		f.refPointer = refPtr
	}

	if f.owner.inBatch() {
		f.owner.markDirty(f.def.Name, path, oldValue, finalValue)
	} else {
		f.owner.notifyChange(path, oldValue, finalValue)
	}
	return true, nil
}

// resolveCandidate runs the type/adoption pipeline and returns the value to
// store, plus reference bookkeeping when the field is a reference.
func (f *Field) resolveCandidate(ctx context.Context, input any, init, merge bool) (value any, refPtr gid.ID, isRef bool, err error) {
	if input == nil && !f.def.Required && (f.def.Reference || f.def.Kind == KindModel || f.def.Kind == KindFunction) {
		return nil, gid.Empty, f.def.Reference, nil
	}
	if f.def.Reference {
		id, refOK := referenceGID(input)
		if refOK {
			return nil, id, true, nil
		}
		if init {
			if m, ok := input.(*Model); ok {
				return m, m.GID(), true, nil
			}
		}
		return nil, gid.Empty, false, f.rejectOrDowngrade(input)
	}

	if matchesKind(input, f.def.Kind) {
		return input, gid.Empty, false, nil
	}

	if init {
		adopted, ok, aerr := f.adopt(ctx, input, merge)
		if aerr != nil {
			return nil, gid.Empty, false, aerr
		}
		if ok {
			return adopted, gid.Empty, false, nil
		}
	}

	if converted, ok := convertPrimitive(input, f.def.Kind); ok {
		return converted, gid.Empty, false, nil
	}

	return nil, gid.Empty, false, f.rejectOrDowngrade(input)
}

func (f *Field) rejectOrDowngrade(input any) error {
	if !f.owner.strict {
		f.lastErr = typeMismatchErr(f.def.Name, f.def.Kind, input)
		return nil
	}
	return typeMismatchErr(f.def.Name, f.def.Kind, input)
}

// adopt implements the field-assignment adoption rules available when init
// is true: a plain array adopted into a List field, or a plain object
// adopted into a Model field.
func (f *Field) adopt(ctx context.Context, input any, merge bool) (any, bool, error) {
	switch f.def.Kind {
	case KindList:
		arr, ok := input.([]any)
		if !ok {
			return nil, false, nil
		}
		fl, _ := f.value.(*FieldList)
		if fl == nil {
			fl = newFieldList(f.owner, f)
			f.value = fl
		}
		if err := fl.applyDiff(ctx, arr); err != nil {
			return nil, false, err
		}
		return fl, true, nil
	case KindModel:
		m, err := coerceToModel(ctx, f.owner, f.def, input, merge)
		if err != nil {
			return nil, false, err
		}
		if m == nil {
			return nil, false, nil
		}
		return m, true, nil
	default:
		return nil, false, nil
	}
}

// coerceToModel implements the Model-field adoption sub-rules: {gid}-only
// resolve-and-adopt, matching-gid in-place mutate, or fresh construction.
func coerceToModel(ctx context.Context, owner *Model, def *FieldDef, input any, merge bool) (*Model, error) {
	if m, ok := input.(*Model); ok {
		if err := owner.adoptChild(m, owner.fields[def.Name]); err != nil {
			return nil, err
		}
		return m, nil
	}
	data, ok := input.(map[string]any)
	if !ok {
		return nil, nil
	}

	if idRaw, has := data["gid"]; has && len(data) == 1 {
		id, err := gid.FromAny(idRaw)
		if err != nil {
			return nil, nil
		}
		resolved, found := owner.reg.ByGID(id)
		if !found {
			return nil, referenceUnresolvedErr(def.Name, id.String())
		}
		if def.ModelClass != nil && resolved.class != def.ModelClass {
			return nil, typeMismatchErr(def.Name, KindModel, resolved)
		}
		if err := owner.adoptChild(resolved, owner.fields[def.Name]); err != nil {
			return nil, err
		}
		return resolved, nil
	}

	if idRaw, has := data["gid"]; has {
		id, err := gid.FromAny(idRaw)
		if err == nil {
			if cur, ok := owner.getRaw(def.Name); ok {
				if curModel, ok2 := cur.(*Model); ok2 && curModel.GID() == id {
					rest := make(map[string]any, len(data)-1)
					for k, v := range data {
						if k != "gid" {
							rest[k] = v
						}
					}
					if err := curModel.SetData(ctx, rest, merge); err != nil {
						return nil, err
					}
					return curModel, nil
				}
			}
		}
	}

	return owner.constructChild(ctx, def, data)
}

// referenceGID extracts a gid from a plain {gid} object addressed at a
// reference field, per "setting a plain object with only {gid} on a
// reference field stores the pointer even if unresolvable now".
func referenceGID(input any) (gid.ID, bool) {
	data, ok := input.(map[string]any)
	if !ok {
		return gid.Empty, false
	}
	raw, has := data["gid"]
	if !has {
		return gid.Empty, false
	}
	id, err := gid.FromAny(raw)
	if err != nil {
		return gid.Empty, false
	}
	return id, true
}
