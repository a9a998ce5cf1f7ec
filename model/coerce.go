package model

import (
	"strconv"

	"golang.org/x/text/unicode/norm"
)

// coerceString NFC-normalizes a string field value on set, so two
// registries that received the same logical string over different Unicode
// encodings compare equal.
func coerceString(s string) string {
	if norm.NFC.IsNormalString(s) {
		return s
	}
	return norm.NFC.String(s)
}

// convertPrimitive attempts a coercion between wrong-but-convertible
// primitive types on assignment: "3"→3, 1→true, etc. Returns the
// converted value and true on success.
func convertPrimitive(v any, kind FieldKind) (any, bool) {
	switch kind {
	case KindNumber:
		switch t := v.(type) {
		case string:
			if f, err := strconv.ParseFloat(t, 64); err == nil {
				return f, true
			}
		case bool:
			if t {
				return float64(1), true
			}
			return float64(0), true
		}
	case KindString:
		switch t := v.(type) {
		case float64:
			return coerceString(strconv.FormatFloat(t, 'g', -1, 64)), true
		case int:
			return coerceString(strconv.Itoa(t)), true
		case bool:
			return coerceString(strconv.FormatBool(t)), true
		}
	case KindBoolean:
		switch t := v.(type) {
		case float64:
			return t != 0, true
		case string:
			switch t {
			case "true", "1":
				return true, true
			case "false", "0", "":
				return false, true
			}
		}
	}
	return nil, false
}

// matchesKind reports whether v already has the declared runtime type,
// without any coercion.
func matchesKind(v any, kind FieldKind) bool {
	switch kind {
	case KindNumber:
		_, ok := v.(float64)
		return ok
	case KindString:
		_, ok := v.(string)
		return ok
	case KindBoolean:
		_, ok := v.(bool)
		return ok
	case KindAlphanumeric:
		switch v.(type) {
		case string, float64:
			return true
		}
		return false
	case KindFunction:
		_, ok := v.(func(...any) any)
		return ok
	case KindUndefined:
		return true
	case KindModel:
		_, ok := v.(*Model)
		return ok
	case KindList:
		_, ok := v.(*FieldList)
		return ok
	default:
		return false
	}
}

func zeroValue(fd *FieldDef) any {
	switch fd.Kind {
	case KindNumber:
		return float64(0)
	case KindString:
		return ""
	case KindBoolean:
		return false
	case KindAlphanumeric:
		return ""
	case KindUndefined:
		return nil
	case KindList:
		return nil // populated by newField as an empty *FieldList
	case KindModel:
		return nil // populated by newField via Constructor
	default:
		return nil
	}
}
