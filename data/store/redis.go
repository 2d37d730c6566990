package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/ncobase/taskrunner/ecode"
	"github.com/ncobase/taskrunner/task"
	"github.com/redis/go-redis/v9"
)

// putScript creates the hash only when the key is absent.
var putScript = redis.NewScript(`
if redis.call('EXISTS', KEYS[1]) == 1 then
	return 0
end
redis.call('HSET', KEYS[1], unpack(ARGV))
return 1
`)

// updateScript compares and sets the status field.
// Returns -1 when missing, 0 on mismatch, 1 on success.
var updateScript = redis.NewScript(`
local current = redis.call('HGET', KEYS[1], 'status')
if not current then
	return -1
end
if current ~= ARGV[1] then
	return 0
end
redis.call('HSET', KEYS[1], 'status', ARGV[2])
if ARGV[3] ~= '' then
	redis.call('HSET', KEYS[1], 'taskResult', ARGV[3])
end
return 1
`)

// RedisStore keeps one hash per record at <prefix><table>:<id>.
type RedisStore struct {
	rc     redis.Cmdable
	prefix string
}

// NewRedisStore wraps a go-redis client.
func NewRedisStore(rc redis.Cmdable, prefix string) *RedisStore {
	return &RedisStore{rc: rc, prefix: prefix}
}

func (s *RedisStore) key(table, id string) string {
	return s.prefix + table + ":" + id
}

// Get loads one record.
func (s *RedisStore) Get(ctx context.Context, table, id string) (*task.Record, error) {
	fields, err := s.rc.HGetAll(ctx, s.key(table, id)).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("get %s/%s: %w", table, id, err)
	}
	if len(fields) == 0 {
		return nil, notFound(table, id)
	}
	rec := &task.Record{
		ID:        fields["id"],
		TaskType:  task.Type(fields["taskType"]),
		TaskData:  []byte(fields["taskData"]),
		Status:    task.Status(fields["status"]),
		CreatedAt: fields["createdAt"],
	}
	if r := fields["taskResult"]; r != "" {
		rec.TaskResult = []byte(r)
	}
	return rec, nil
}

// Put inserts a new record.
func (s *RedisStore) Put(ctx context.Context, table string, record *task.Record) error {
	if record == nil || record.ID == "" {
		return fmt.Errorf("put %s: %s", table, ecode.FieldIsRequired("record id"))
	}
	args := []any{
		"id", record.ID,
		"taskType", string(record.TaskType),
		"taskData", string(record.TaskData),
		"status", string(record.Status),
		"createdAt", record.CreatedAt,
	}
	if len(record.TaskResult) > 0 {
		args = append(args, "taskResult", string(record.TaskResult))
	}
	n, err := putScript.Run(ctx, s.rc, []string{s.key(table, record.ID)}, args...).Int()
	if err != nil {
		return fmt.Errorf("put %s/%s: %w", table, record.ID, err)
	}
	if n == 0 {
		return fmt.Errorf("%w: %s/%s", ErrAlreadyExists, table, record.ID)
	}
	return nil
}

// UpdateStatus applies update when the stored status equals expect.
func (s *RedisStore) UpdateStatus(ctx context.Context, table, id string, expect task.Status, update task.StatusUpdate) error {
	n, err := updateScript.Run(ctx, s.rc, []string{s.key(table, id)},
		string(expect), string(update.Status), string(update.TaskResult)).Int()
	if err != nil {
		return fmt.Errorf("update %s/%s: %w", table, id, err)
	}
	switch n {
	case 1:
		return nil
	case -1:
		return notFound(table, id)
	}
	current, err := s.Get(ctx, table, id)
	if err != nil {
		return err
	}
	return conflict(table, id, expect, current.Status)
}
