package source

import "github.com/google/wire"

// ProviderSet is the wire provider set for the source package.
var ProviderSet = wire.NewSet(New)
