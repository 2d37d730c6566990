// Package version exposes build metadata for the taskrunner binary.
//
// The variables are set at build time with ldflags:
//
//	go build -ldflags "\
//	  -X github.com/ncobase/taskrunner/version.Version=1.2.3 \
//	  -X github.com/ncobase/taskrunner/version.Branch=main \
//	  -X github.com/ncobase/taskrunner/version.Revision=abc123 \
//	  -X 'github.com/ncobase/taskrunner/version.BuiltAt=$(date)'" ./cmd/taskrunner
//
// When they are left unset, GetVersionInfo falls back to the VCS stamp the Go
// toolchain embeds in the binary. Lambda images carry no git checkout, so
// nothing is read from the working tree at runtime.
package version
