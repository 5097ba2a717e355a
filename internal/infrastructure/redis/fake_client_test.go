package redis

import (
	"context"
	"fmt"
	"sync"
	"time"

	sharedRedis "github.com/nastyazhadan/trade-settlement/shared/infra/redis"
)

type fakeClient struct {
	mu      sync.Mutex
	values  map[string][]byte
	ttls    map[string]time.Duration
	counter map[string]int64
	err     error
}

func newFakeClient() *fakeClient {
	return &fakeClient{
		values:  make(map[string][]byte),
		ttls:    make(map[string]time.Duration),
		counter: make(map[string]int64),
	}
}

func (f *fakeClient) Get(_ context.Context, key string) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.err != nil {
		return nil, f.err
	}
	value, found := f.values[key]
	if !found {
		return nil, sharedRedis.ErrNil
	}

	return value, nil
}

func (f *fakeClient) SetWithTTL(_ context.Context, key string, value any, ttl time.Duration) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.err != nil {
		return f.err
	}
	data, ok := value.([]byte)
	if !ok {
		return fmt.Errorf("unexpected value type %T", value)
	}
	f.values[key] = data
	f.ttls[key] = ttl

	return nil
}

func (f *fakeClient) Del(_ context.Context, keys ...string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.err != nil {
		return f.err
	}
	for _, key := range keys {
		delete(f.values, key)
	}

	return nil
}

func (f *fakeClient) Incr(_ context.Context, key string) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.err != nil {
		return 0, f.err
	}
	f.counter[key]++

	return f.counter[key], nil
}

func (f *fakeClient) Expire(_ context.Context, key string, expiration time.Duration) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.ttls[key] = expiration
	return f.err
}

func (f *fakeClient) Ping(context.Context) error {
	return f.err
}
