package config

import (
	"github.com/spf13/viper"
)

// DynamoDB dynamodb config struct
type DynamoDB struct {
	Region   string `json:"region" yaml:"region"`
	Endpoint string `json:"endpoint" yaml:"endpoint"`
	ID       string `json:"id" yaml:"id"`
	Secret   string `json:"secret" yaml:"secret"`
}

// getDynamoDBConfigs reads DynamoDB configurations
func getDynamoDBConfigs(v *viper.Viper) *DynamoDB {
	return &DynamoDB{
		Region:   v.GetString("data.dynamodb.region"),
		Endpoint: v.GetString("data.dynamodb.endpoint"),
		ID:       v.GetString("data.dynamodb.id"),
		Secret:   v.GetString("data.dynamodb.secret"),
	}
}
