package connection

import (
	"context"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
)

// ServiceHealth is the result of probing one backend.
type ServiceHealth struct {
	Healthy    bool   `json:"healthy"`
	ResponseMS int64  `json:"response_ms"`
	Error      string `json:"error,omitempty"`
}

// Health is the aggregated probe result. Status is "healthy" or "degraded".
type Health struct {
	Timestamp time.Time                `json:"timestamp"`
	Status    string                   `json:"status"`
	Services  map[string]ServiceHealth `json:"services"`
}

// Health probes every open connection. Backends that were not dialed are skipped.
func (c *Connections) Health(ctx context.Context) Health {
	h := Health{
		Timestamp: time.Now(),
		Status:    "healthy",
		Services:  make(map[string]ServiceHealth),
	}

	if c.DB != nil {
		h.record("database", probe(func() error { return c.DB.PingContext(ctx) }))
	}
	if c.RC != nil {
		h.record("redis", probe(func() error { return c.RC.Ping(ctx).Err() }))
	}
	if c.MG != nil {
		h.record("mongodb", probe(func() error { return c.MG.Ping(ctx, nil) }))
	}
	if c.DDB != nil {
		h.record("dynamodb", probe(func() error {
			_, err := c.DDB.ListTables(ctx, &dynamodb.ListTablesInput{Limit: aws.Int32(1)})
			return err
		}))
	}

	return h
}

func (h *Health) record(name string, s ServiceHealth) {
	h.Services[name] = s
	if !s.Healthy {
		h.Status = "degraded"
	}
}

func probe(fn func() error) ServiceHealth {
	start := time.Now()
	err := fn()
	s := ServiceHealth{Healthy: err == nil, ResponseMS: time.Since(start).Milliseconds()}
	if err != nil {
		s.Error = err.Error()
	}
	return s
}
