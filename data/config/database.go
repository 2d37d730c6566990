package config

import (
	"time"

	"github.com/spf13/viper"
)

// Database database config struct
type Database struct {
	Master  *DBNode `json:"master" yaml:"master"`
	Migrate bool    `json:"migrate" yaml:"migrate"`
	// Tables restricts the export to these tables, in this order.
	// When empty the tables are discovered from the database catalog.
	Tables []string `json:"tables" yaml:"tables"`
}

// DBNode represents a single database node configuration
type DBNode struct {
	Driver          string        `json:"driver" yaml:"driver"`
	Source          string        `json:"source" yaml:"source"`
	Logging         bool          `json:"logging" yaml:"logging"`
	MaxIdleConn     int           `json:"max_idle_conn" yaml:"max_idle_conn"`
	MaxOpenConn     int           `json:"max_open_conn" yaml:"max_open_conn"`
	ConnMaxLifeTime time.Duration `json:"conn_max_life_time" yaml:"conn_max_life_time"`
}

// getDatabaseConfig reads database configurations
func getDatabaseConfig(v *viper.Viper) *Database {
	return &Database{
		Master: &DBNode{
			Driver:          v.GetString("data.database.master.driver"),
			Source:          v.GetString("data.database.master.source"),
			Logging:         v.GetBool("data.database.master.logging"),
			MaxIdleConn:     v.GetInt("data.database.master.max_idle_conn"),
			MaxOpenConn:     v.GetInt("data.database.master.max_open_conn"),
			ConnMaxLifeTime: v.GetDuration("data.database.master.max_life_time"),
		},
		Migrate: v.GetBool("data.database.migrate"),
		Tables:  v.GetStringSlice("data.database.tables"),
	}
}
