package config

import (
	"github.com/spf13/viper"
)

// MongoDB mongodb config struct
type MongoDB struct {
	URI      string `json:"uri" yaml:"uri"`
	Database string `json:"database" yaml:"database"`
	Logging  bool   `json:"logging" yaml:"logging"`
	// Collections restricts the export to these collections.
	Collections []string `json:"collections" yaml:"collections"`
}

// getMongoDBConfigs reads MongoDB configurations
func getMongoDBConfigs(v *viper.Viper) *MongoDB {
	return &MongoDB{
		URI:         v.GetString("data.mongodb.uri"),
		Database:    v.GetString("data.mongodb.database"),
		Logging:     v.GetBool("data.mongodb.logging"),
		Collections: v.GetStringSlice("data.mongodb.collections"),
	}
}
