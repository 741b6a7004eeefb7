package ecs

import (
	"github.com/grailbio/base/errors"
)

// Recoverable conditions are returned as ordinary Go errors built with
// errors.E. Contract violations — caller bugs from which the World makes
// no promise of a consistent post-state — panic with the same error type
// instead of returning one, so an embedder cannot accidentally continue
// operating on a World left in an unspecified state.

func fatalf(args ...interface{}) {
	panic(errors.E(args...))
}
