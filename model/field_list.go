package model

import (
	"context"
	"strconv"
)

// FieldList is the value backing a List<T> field: an ordered, zero-based
// sequence. The list itself is never replaced, only mutated in place, and
// per-index change events fan as "<field>.<index>"; no before-change event
// is emitted.
type FieldList struct {
	owner *Model
	field *Field
	items []any
}

func newFieldList(owner *Model, field *Field) *FieldList {
	return &FieldList{owner: owner, field: field}
}

// Len returns the number of elements.
func (l *FieldList) Len() int {
	if l == nil {
		return 0
	}
	return len(l.items)
}

// GetOK returns the element at i and true if i is in range.
func (l *FieldList) GetOK(i int) (any, bool) {
	if l == nil || i < 0 || i >= len(l.items) {
		return nil, false
	}
	return l.items[i], true
}

// Items returns a defensive copy of the backing slice.
func (l *FieldList) Items() []any {
	out := make([]any, len(l.items))
	copy(out, l.items)
	return out
}

func (l *FieldList) indexPath(i int) []string {
	return []string{l.field.def.Name, strconv.Itoa(i)}
}

// SetIndex mutates the element at i, firing a change notification (after
// the mutation; there is no before-change notification) at
// "<field>.<index>" and detaching any owned Model previously at that slot.
func (l *FieldList) SetIndex(ctx context.Context, i int, input any) (bool, error) {
	if i < 0 || i >= len(l.items) {
		return false, notFoundPathErr(strconv.Itoa(i))
	}
	resolved, err := l.coerceItem(ctx, input, true)
	if err != nil {
		return false, err
	}
	path := l.indexPath(i)
	old := l.items[i]
	if !l.owner.runValidators(path, resolved) {
		l.owner.notifyChange(path, old, old)
		return false, nil
	}
	if oldModel, ok := old.(*Model); ok && l.elementIsOwnedModel() {
		if newModel, ok2 := resolved.(*Model); !ok2 || newModel != oldModel {
			l.owner.detachChild(ctx, oldModel)
		}
	}
	l.items[i] = resolved
	if l.owner.inBatch() {
		l.owner.markDirty(l.field.def.Name, path, old, resolved)
	} else {
		l.owner.notifyChange(path, old, resolved)
	}
	return true, nil
}

// Append adds an element to the end of the list.
func (l *FieldList) Append(ctx context.Context, input any) (int, error) {
	return l.appendRaw(ctx, input, true)
}

func (l *FieldList) appendRaw(ctx context.Context, input any, init bool) (int, error) {
	resolved, err := l.coerceItem(ctx, input, init)
	if err != nil {
		return -1, err
	}
	i := len(l.items)
	l.items = append(l.items, resolved)
	path := l.indexPath(i)
	if l.owner.inBatch() {
		l.owner.markDirty(l.field.def.Name, path, nil, resolved)
	} else {
		l.owner.notifyChange(path, nil, resolved)
	}
	return i, nil
}

// Remove deletes the element at i, detaching it if it was an owned Model.
func (l *FieldList) Remove(ctx context.Context, i int) error {
	if i < 0 || i >= len(l.items) {
		return notFoundPathErr(strconv.Itoa(i))
	}
	old := l.items[i]
	if oldModel, ok := old.(*Model); ok && l.elementIsOwnedModel() {
		l.owner.detachChild(ctx, oldModel)
	}
	l.items = append(l.items[:i], l.items[i+1:]...)
	path := l.indexPath(i)
	if l.owner.inBatch() {
		l.owner.markDirty(l.field.def.Name, path, old, nil)
	} else {
		l.owner.notifyChange(path, old, nil)
	}
	return nil
}

// applyDiff replaces the list contents with arr, firing collection-changed
// notifications only for indices whose value actually differs
// (index-by-index diff) rather than a blanket changed-event for every
// index.
func (l *FieldList) applyDiff(ctx context.Context, arr []any) error {
	resolvedNew := make([]any, len(arr))
	for i, raw := range arr {
		v, err := l.coerceItem(ctx, raw, true)
		if err != nil {
			return err
		}
		resolvedNew[i] = v
	}

	maxLen := len(l.items)
	if len(resolvedNew) > maxLen {
		maxLen = len(resolvedNew)
	}

	changes := make(map[int][2]any) // index -> [old, new]
	for i := 0; i < maxLen; i++ {
		var oldV, newV any
		if i < len(l.items) {
			oldV = l.items[i]
		}
		if i < len(resolvedNew) {
			newV = resolvedNew[i]
		}
		if !sameValue(oldV, newV) {
			changes[i] = [2]any{oldV, newV}
			if oldModel, ok := oldV.(*Model); ok && l.elementIsOwnedModel() {
				if newModel, ok2 := newV.(*Model); !ok2 || newModel != oldModel {
					l.owner.detachChild(ctx, oldModel)
				}
			}
		}
	}

	l.items = resolvedNew
	for i := 0; i < maxLen; i++ {
		pair, changed := changes[i]
		if !changed {
			continue
		}
		path := l.indexPath(i)
		if l.owner.inBatch() {
			l.owner.markDirty(l.field.def.Name, path, pair[0], pair[1])
		} else {
			l.owner.notifyChange(path, pair[0], pair[1])
		}
	}
	return nil
}

func (l *FieldList) elementIsOwnedModel() bool {
	return l.field.def.ElementKind == KindModel && !l.field.def.Reference
}

func (l *FieldList) coerceItem(ctx context.Context, input any, init bool) (any, error) {
	kind := l.field.def.ElementKind
	if matchesKind(input, kind) {
		return input, nil
	}
	if kind == KindModel && init {
		fakeDef := &FieldDef{Name: l.field.def.Name, Kind: KindModel, ModelClass: l.field.def.ElementClass, Reference: l.field.def.Reference}
		return coerceToModel(ctx, l.owner, fakeDef, input, false)
	}
	if converted, ok := convertPrimitive(input, kind); ok {
		return converted, nil
	}
	if !l.owner.strict {
		return input, nil
	}
	return nil, typeMismatchErr(l.field.def.Name, kind, input)
}

func sameValue(a, b any) bool {
	am, aok := a.(*Model)
	bm, bok := b.(*Model)
	if aok || bok {
		return aok && bok && am == bm
	}
	return a == b
}

