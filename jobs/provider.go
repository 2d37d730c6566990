package jobs

import (
	"github.com/google/wire"
	"github.com/ncobase/taskrunner/export"
	"github.com/ncobase/taskrunner/task"
)

// ProviderSet is the wire provider set for the jobs package.
var ProviderSet = wire.NewSet(ProvideRegistry)

// ProvideRegistry builds the production registry.
func ProvideRegistry(exporter *export.Exporter) *task.Registry {
	return NewRegistry(Deps{Exporter: exporter})
}
