package store

import "github.com/google/wire"

// ProviderSet is the wire provider set for the store package.
var ProviderSet = wire.NewSet(New)
