package connection

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/ncobase/taskrunner/data"
	"github.com/ncobase/taskrunner/data/config"
	"github.com/ncobase/taskrunner/logging/logger"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
)

// Connections holds the clients opened for the configured data section.
// Only backends named by Store or Source are dialed.
type Connections struct {
	DB      *sql.DB
	Dialect data.Dialect
	RC      *redis.Client
	MG      *mongo.Client
	DDB     *dynamodb.Client

	closed bool
	mu     sync.Mutex
}

// New opens the connections required by conf.Store and conf.Source.
func New(ctx context.Context, conf *config.Config) (*Connections, error) {
	if conf == nil {
		return nil, errors.New("data configuration is nil")
	}
	c := &Connections{}
	needs := map[string]bool{conf.Store: true, conf.Source: true}

	var err error
	if needs["sql"] {
		if conf.Database == nil {
			return nil, errors.New("sql backend selected but data.database is not configured")
		}
		c.DB, c.Dialect, err = data.Open(ctx, conf.Database.Master)
		if err != nil {
			return nil, err
		}
	}

	if needs["redis"] {
		c.RC, err = newRedisClient(ctx, conf.Redis)
		if err != nil {
			c.closeAll(ctx)
			return nil, err
		}
	}

	if needs["mongodb"] {
		c.MG, err = newMongoClient(ctx, conf.MongoDB)
		if err != nil {
			c.closeAll(ctx)
			return nil, err
		}
	}

	if needs["dynamodb"] {
		c.DDB, err = newDynamoClient(ctx, conf.DynamoDB)
		if err != nil {
			c.closeAll(ctx)
			return nil, err
		}
	}

	return c, nil
}

// Close releases every open connection. It is safe to call more than once.
func (c *Connections) Close(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil
	}
	c.closed = true
	return c.closeAll(ctx)
}

func (c *Connections) closeAll(ctx context.Context) error {
	var errs []error
	if c.DB != nil {
		if err := c.DB.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close database: %w", err))
		}
	}
	if c.RC != nil {
		if err := c.RC.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close redis: %w", err))
		}
	}
	if c.MG != nil {
		if err := c.MG.Disconnect(ctx); err != nil {
			errs = append(errs, fmt.Errorf("close mongodb: %w", err))
		}
	}
	if len(errs) > 0 {
		err := errors.Join(errs...)
		logger.Errorf(ctx, "Error closing data connections: %v", err)
		return err
	}
	return nil
}
