package oss

import "github.com/google/wire"

// ProviderSet is the wire provider set for the oss package.
// It binds *Storage as the Uploader.
var ProviderSet = wire.NewSet(
	NewStorage,
	wire.Bind(new(Uploader), new(*Storage)),
)
