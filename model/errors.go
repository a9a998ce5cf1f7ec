package model

import "github.com/latticemodel/lattice/modelerr"

func typeMismatchErr(field string, want FieldKind, got any) *modelerr.Error {
	return modelerr.New(modelerr.TypeMismatch, "field %q expects %s, got %T", field, want, got).WithField(field)
}

func invariantErr(format string, args ...any) *modelerr.Error {
	return modelerr.New(modelerr.InvariantViolation, format, args...)
}

func useAfterDestroyErr(field string) *modelerr.Error {
	return modelerr.New(modelerr.UseAfterDestroy, "model destroyed").WithField(field)
}

func referenceUnresolvedErr(field string, id string) *modelerr.Error {
	return modelerr.New(modelerr.ReferenceUnresolved, "gid %q not found in registry", id).WithField(field)
}

func notFoundPathErr(path string) *modelerr.Error {
	return modelerr.New(modelerr.NotFoundPath, "no field at path %q", path).WithPath(path)
}

func unknownTypeErr(typeName string) *modelerr.Error {
	return modelerr.New(modelerr.UnknownType, "type %q not registered", typeName)
}
