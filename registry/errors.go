package registry

import (
	"github.com/latticemodel/lattice/gid"
	"github.com/latticemodel/lattice/modelerr"
)

func registryErrorEmptyGID() error {
	return modelerr.New(modelerr.InvariantViolation, "cannot register an entry with an empty gid")
}

func registryErrorDuplicateGID(id gid.ID) error {
	return modelerr.New(modelerr.InvariantViolation, "gid %q already registered", id)
}
