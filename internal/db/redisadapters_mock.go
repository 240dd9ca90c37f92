package db

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// Implements the LimitedRedisClient interface with an in-memory map.
// Only suitable for development and testing. Contexts are ignored and expired keys are dropped
// lazily when they are accessed.
type MockRedisClient struct {
	lock      sync.Mutex
	store     map[string]map[string]string
	expiresAt map[string]time.Time
}

func NewMockRedisClient() *MockRedisClient {
	return &MockRedisClient{store: map[string]map[string]string{}, expiresAt: map[string]time.Time{}}
}

// NewMockRedisAdapter creates an adapter backed by a fresh MockRedisClient.
func NewMockRedisAdapter(options ...RedisAdapterOption) (*RedisAdapter, error) {
	return NewRedisAdapter(append([]RedisAdapterOption{withRedisClient(NewMockRedisClient())}, options...)...)
}

func convertValuesToMap(values ...any) (map[string]string, error) {
	if len(values)%2 != 0 {
		return map[string]string{}, fmt.Errorf("number of provided values must be even")
	}
	output := map[string]string{}
	for i := 0; i < len(values); i += 2 {
		key, ok := values[i].(string)
		if !ok {
			return map[string]string{}, fmt.Errorf("hash field %v is not a string", values[i])
		}
		output[key] = fmt.Sprint(values[i+1])
	}
	return output, nil
}

// hash returns the live hash stored at key, the caller holds the lock.
func (m *MockRedisClient) hash(key string) (map[string]string, bool) {
	expiresAt, hasExpiry := m.expiresAt[key]
	if hasExpiry && !time.Now().Before(expiresAt) {
		delete(m.store, key)
		delete(m.expiresAt, key)
		return nil, false
	}
	val, found := m.store[key]
	return val, found
}

func (m *MockRedisClient) Ping(_ context.Context) *redis.StatusCmd {
	res := redis.StatusCmd{}
	res.SetVal("PONG")
	return &res
}

func (m *MockRedisClient) HSet(_ context.Context, key string, values ...any) *redis.IntCmd {
	m.lock.Lock()
	defer m.lock.Unlock()
	res := redis.IntCmd{}
	val, err := convertValuesToMap(values...)
	if err != nil {
		res.SetErr(err)
		return &res
	}
	existing, found := m.hash(key)
	if !found {
		existing = map[string]string{}
		m.store[key] = existing
	}
	var added int64
	for k, v := range val {
		if _, ok := existing[k]; !ok {
			added++
		}
		existing[k] = v
	}
	res.SetVal(added)
	return &res
}

func (m *MockRedisClient) HGet(_ context.Context, key, field string) *redis.StringCmd {
	m.lock.Lock()
	defer m.lock.Unlock()
	res := redis.StringCmd{}
	val, found := m.hash(key)
	if !found {
		res.SetErr(redis.Nil)
		return &res
	}
	fieldVal, found := val[field]
	if !found {
		res.SetErr(redis.Nil)
		return &res
	}
	res.SetVal(fieldVal)
	return &res
}

func (m *MockRedisClient) HGetAll(_ context.Context, key string) *redis.MapStringStringCmd {
	m.lock.Lock()
	defer m.lock.Unlock()
	res := redis.MapStringStringCmd{}
	output := map[string]string{}
	val, found := m.hash(key)
	if found {
		for k, v := range val {
			output[k] = v
		}
	}
	res.SetVal(output)
	return &res
}

func (m *MockRedisClient) HDel(_ context.Context, key string, fields ...string) *redis.IntCmd {
	m.lock.Lock()
	defer m.lock.Unlock()
	res := redis.IntCmd{}
	val, found := m.hash(key)
	if !found {
		res.SetVal(0)
		return &res
	}
	var removed int64
	for _, f := range fields {
		if _, ok := val[f]; ok {
			delete(val, f)
			removed++
		}
	}
	// redis removes hashes that have no fields left
	if len(val) == 0 {
		delete(m.store, key)
		delete(m.expiresAt, key)
	}
	res.SetVal(removed)
	return &res
}

func (m *MockRedisClient) Del(_ context.Context, keys ...string) *redis.IntCmd {
	m.lock.Lock()
	defer m.lock.Unlock()
	var removed int64
	for _, k := range keys {
		if _, found := m.hash(k); found {
			removed++
		}
		delete(m.store, k)
		delete(m.expiresAt, k)
	}
	res := redis.IntCmd{}
	res.SetVal(removed)
	return &res
}

func (m *MockRedisClient) ExpireAt(_ context.Context, key string, tm time.Time) *redis.BoolCmd {
	m.lock.Lock()
	defer m.lock.Unlock()
	res := redis.BoolCmd{}
	if _, found := m.hash(key); !found {
		res.SetVal(false)
		return &res
	}
	m.expiresAt[key] = tm
	res.SetVal(true)
	return &res
}
