package config

import (
	"time"

	"github.com/spf13/viper"
)

// Runner configures task dispatch.
type Runner struct {
	// QueueTable is used when a stream record carries no table ARN.
	QueueTable    string        `json:"queue_table" yaml:"queue_table"`
	EventSource   string        `json:"event_source" yaml:"event_source"`
	MaxConcurrent int           `json:"max_concurrent" yaml:"max_concurrent"`
	TaskTimeout   time.Duration `json:"task_timeout" yaml:"task_timeout"`
}

func getRunnerConfig(v *viper.Viper) *Runner {
	return &Runner{
		QueueTable:    getStringOrDefault(v, "runner.queue_table", "tasks"),
		EventSource:   getStringOrDefault(v, "runner.event_source", "aws:dynamodb"),
		MaxConcurrent: getIntOrDefault(v, "runner.max_concurrent", 10),
		TaskTimeout:   getDurationOrDefault(v, "runner.task_timeout", 10*time.Minute),
	}
}

// Export bounds the slow steps of the export tasks.
type Export struct {
	ArchiveTimeout time.Duration `json:"archive_timeout" yaml:"archive_timeout"`
	UploadTimeout  time.Duration `json:"upload_timeout" yaml:"upload_timeout"`
	EmailTimeout   time.Duration `json:"email_timeout" yaml:"email_timeout"`
}

func getExportConfig(v *viper.Viper) *Export {
	return &Export{
		ArchiveTimeout: getDurationOrDefault(v, "export.archive_timeout", 2*time.Minute),
		UploadTimeout:  getDurationOrDefault(v, "export.upload_timeout", 5*time.Minute),
		EmailTimeout:   getDurationOrDefault(v, "export.email_timeout", 30*time.Second),
	}
}
