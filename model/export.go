package model

// ExportOptions configures Model.Export.
type ExportOptions struct {
	// Keys restricts the top-level output to these field names, if non-nil.
	Keys []string
	// Shallow truncates owned Model values to {"gid": ...} instead of
	// recursing.
	Shallow bool
	// NonDefault omits fields still at their constructed default.
	NonDefault bool
}

// Export produces a plain mapping of declared field names to exported
// values, suitable for round-tripping through a Factory of the same class.
func (m *Model) Export(opts ExportOptions) map[string]any {
	out := make(map[string]any)
	if m.class.HasType() {
		out["_type"] = m.class.TypeName
	}

	allow := func(string) bool { return true }
	if opts.Keys != nil {
		set := make(map[string]bool, len(opts.Keys))
		for _, k := range opts.Keys {
			set[k] = true
		}
		allow = func(name string) bool { return set[name] }
	}

	for _, name := range m.order {
		if !allow(name) {
			continue
		}
		f := m.fields[name]
		if opts.NonDefault && f.IsDefault() {
			continue
		}
		out[name] = exportFieldValue(f, opts)
	}
	out["gid"] = m.gid.String()
	return out
}

func exportFieldValue(f *Field, opts ExportOptions) any {
	if f.def.Reference {
		if f.refPointer.IsEmpty() {
			return nil
		}
		return map[string]any{"gid": f.refPointer.String()}
	}

	switch f.def.Kind {
	case KindModel:
		child, ok := f.value.(*Model)
		if !ok || child == nil {
			return nil
		}
		if opts.Shallow {
			return map[string]any{"gid": child.GID().String()}
		}
		return child.Export(ExportOptions{Shallow: opts.Shallow})
	case KindList:
		fl, ok := f.value.(*FieldList)
		if !ok || fl == nil {
			return []any{}
		}
		items := make([]any, fl.Len())
		for i, item := range fl.items {
			if child, ok := item.(*Model); ok && child != nil {
				if opts.Shallow {
					items[i] = map[string]any{"gid": child.GID().String()}
				} else {
					items[i] = child.Export(ExportOptions{Shallow: opts.Shallow})
				}
			} else {
				items[i] = item
			}
		}
		return items
	default:
		return f.value
	}
}
