// Package logging is a thin wrapper around github.com/edaniels/golog, the
// structured logging library go.viam.com/rdk uses throughout its component
// packages (octree, lidar, sensor). It exists only to give this module a
// single import site for the logger constructor, matching how sibling
// packages take a golog.Logger at construction rather than reaching for a
// package-level global.
package logging

import (
	"testing"

	"github.com/edaniels/golog"
)

// Logger is re-exported so callers only need to import this package.
type Logger = golog.Logger

// NewDevelopmentLogger returns a logger suitable for local development,
// mirroring golog.NewDevelopmentLogger's use across rdk command-line tools.
func NewDevelopmentLogger(name string) Logger {
	return golog.NewDevelopmentLogger(name)
}

// NewTestLogger returns a logger appropriate for use inside a *testing.T,
// following the same helper name rdk's test suites reach for.
func NewTestLogger(t testing.TB) Logger {
	return golog.NewTestLogger(t)
}
