package config

import (
	"github.com/spf13/viper"
)

// Config data config struct
type Config struct {
	// Store selects the task record store driver: memory, dynamodb, sql or redis.
	Store string `yaml:"store" json:"store"`
	// Source selects the export data source: sql, mongodb or static.
	Source string `yaml:"source" json:"source"`

	*Database `yaml:"database" json:"database"`
	*DynamoDB `yaml:"dynamodb" json:"dynamodb"`
	*Redis    `yaml:"redis" json:"redis"`
	*MongoDB  `yaml:"mongodb" json:"mongodb"`
	*RabbitMQ `yaml:"rabbitmq" json:"rabbitmq"`
	*Kafka    `yaml:"kafka" json:"kafka"`
}

// GetConfig returns data config
func GetConfig(v *viper.Viper) *Config {
	store := v.GetString("data.store")
	if store == "" {
		store = "memory"
	}
	source := v.GetString("data.source")
	if source == "" {
		source = "sql"
	}

	return &Config{
		Store:    store,
		Source:   source,
		Database: getDatabaseConfig(v),
		DynamoDB: getDynamoDBConfigs(v),
		Redis:    getRedisConfigs(v),
		MongoDB:  getMongoDBConfigs(v),
		RabbitMQ: getRabbitMQConfigs(v),
		Kafka:    getKafkaConfigs(v),
	}
}
