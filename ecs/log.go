package ecs

import (
	"v.io/x/lib/vlog"
)

// verbosef reports the handful of diagnostic lines the original C core
// emitted (commented out) around the rare, expensive renumber pass. Kept
// behind vlog's verbosity gate so a normal tick loop never pays for it.
func verbosef(format string, args ...interface{}) {
	vlog.VI(1).Infof(format, args...)
}
