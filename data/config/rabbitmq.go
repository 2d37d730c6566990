package config

import (
	"time"

	"github.com/spf13/viper"
)

// RabbitMQ rabbitmq config struct
type RabbitMQ struct {
	URL               string
	Queue             string
	Prefetch          int
	BatchWait         time.Duration
	HeartbeatInterval time.Duration
}

// getRabbitMQConfigs reads RabbitMQ configurations
func getRabbitMQConfigs(v *viper.Viper) *RabbitMQ {
	prefetch := v.GetInt("data.rabbitmq.prefetch")
	if prefetch <= 0 {
		prefetch = 50
	}
	batchWait := v.GetDuration("data.rabbitmq.batch_wait")
	if batchWait <= 0 {
		batchWait = time.Second
	}
	return &RabbitMQ{
		URL:               v.GetString("data.rabbitmq.url"),
		Queue:             v.GetString("data.rabbitmq.queue"),
		Prefetch:          prefetch,
		BatchWait:         batchWait,
		HeartbeatInterval: v.GetDuration("data.rabbitmq.heartbeat_interval"),
	}
}
