package config

import (
	"github.com/ncobase/taskrunner/oss"
	"github.com/spf13/viper"
)

// getStorageConfig get storage config
func getStorageConfig(v *viper.Viper) *oss.Config {
	return &oss.Config{
		Provider: v.GetString("storage.provider"),
		ID:       v.GetString("storage.id"),
		Secret:   v.GetString("storage.secret"),
		Region:   v.GetString("storage.region"),
		Bucket:   v.GetString("storage.bucket"),
		Endpoint: v.GetString("storage.endpoint"),
		Prefix:   v.GetString("storage.prefix"),
		UseSSL:   v.GetBool("storage.use_ssl"),
	}
}
