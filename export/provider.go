package export

import (
	"github.com/google/wire"
	"github.com/juju/clock"
	"github.com/ncobase/taskrunner/archive"
	"github.com/ncobase/taskrunner/config"
	"github.com/ncobase/taskrunner/data/source"
	"github.com/ncobase/taskrunner/messaging/email"
	"github.com/ncobase/taskrunner/oss"
)

// ProviderSet is the wire provider set for the export package.
var ProviderSet = wire.NewSet(ProvideExporter)

// ProvideExporter builds the production exporter: CSV from src, zip
// archives, the configured uploader and mailer, and the wall clock.
func ProvideExporter(src source.Source, uploader oss.Uploader, mailer email.Sender, cfg *config.Export) *Exporter {
	e := &Exporter{
		Tables:   CSVExporter{Source: src},
		Archive:  archive.Build,
		Uploader: uploader,
		Mailer:   mailer,
		Clock:    clock.WallClock,
	}
	if cfg != nil {
		e.Timeouts = Timeouts{
			Archive: cfg.ArchiveTimeout,
			Upload:  cfg.UploadTimeout,
			Email:   cfg.EmailTimeout,
		}
	}
	return e
}
