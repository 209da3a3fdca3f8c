package cache

import (
	"context"
	"encoding"
	"fmt"
	"strconv"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/seu-repo/autospace/internal/ports"
)

// LocalCache is the in-process Cache used when Redis is disabled. Values are
// encoded the way go-redis encodes command arguments so both backends read
// back the same strings. Expired keys are dropped on read and by a periodic
// sweep.
type LocalCache struct {
	mu    sync.Mutex
	items map[string]localItem
	now   func() time.Time
	log   *zap.Logger

	done chan struct{}
	once sync.Once
}

type localItem struct {
	value    string
	deadline time.Time // zero means no expiry
}

func NewLocalCache(sweepEvery time.Duration, log *zap.Logger) ports.Cache {
	if sweepEvery <= 0 {
		sweepEvery = time.Minute
	}
	c := &LocalCache{
		items: make(map[string]localItem),
		now:   time.Now,
		log:   log,
		done:  make(chan struct{}),
	}
	go c.sweepLoop(sweepEvery)
	return c
}

func (c *LocalCache) Get(ctx context.Context, key string) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	item, ok := c.items[key]
	if !ok {
		return "", nil
	}
	if c.expired(item) {
		delete(c.items, key)
		return "", nil
	}
	return item.value, nil
}

func (c *LocalCache) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error {
	s, err := encodeValue(value)
	if err != nil {
		return err
	}

	item := localItem{value: s}
	if expiration > 0 {
		item.deadline = c.now().Add(expiration)
	}

	c.mu.Lock()
	c.items[key] = item
	c.mu.Unlock()
	return nil
}

func (c *LocalCache) Delete(ctx context.Context, key string) error {
	c.mu.Lock()
	delete(c.items, key)
	c.mu.Unlock()
	return nil
}

func (c *LocalCache) Ping(ctx context.Context) error {
	select {
	case <-c.done:
		return fmt.Errorf("local cache is closed")
	default:
		return ctx.Err()
	}
}

// Close stops the sweeper. It is safe to call more than once.
func (c *LocalCache) Close() error {
	c.once.Do(func() { close(c.done) })
	return nil
}

func (c *LocalCache) expired(item localItem) bool {
	return !item.deadline.IsZero() && !c.now().Before(item.deadline)
}

func (c *LocalCache) sweepLoop(every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-c.done:
			return
		case <-ticker.C:
			if n := c.sweep(); n > 0 {
				c.log.Debug("Swept expired cache keys", zap.Int("count", n))
			}
		}
	}
}

func (c *LocalCache) sweep() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	n := 0
	for key, item := range c.items {
		if c.expired(item) {
			delete(c.items, key)
			n++
		}
	}
	return n
}

// encodeValue mirrors go-redis argument encoding.
func encodeValue(v interface{}) (string, error) {
	switch v := v.(type) {
	case nil:
		return "", nil
	case string:
		return v, nil
	case []byte:
		return string(v), nil
	case int:
		return strconv.Itoa(v), nil
	case int32:
		return strconv.FormatInt(int64(v), 10), nil
	case int64:
		return strconv.FormatInt(v, 10), nil
	case uint32:
		return strconv.FormatUint(uint64(v), 10), nil
	case uint64:
		return strconv.FormatUint(v, 10), nil
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64), nil
	case bool:
		if v {
			return "1", nil
		}
		return "0", nil
	case time.Time:
		return v.Format(time.RFC3339Nano), nil
	case time.Duration:
		return strconv.FormatInt(v.Nanoseconds(), 10), nil
	case encoding.BinaryMarshaler:
		b, err := v.MarshalBinary()
		if err != nil {
			return "", err
		}
		return string(b), nil
	default:
		return "", fmt.Errorf("cache: can't marshal %T (implement encoding.BinaryMarshaler)", v)
	}
}
