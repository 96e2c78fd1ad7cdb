package testutil

import (
	"errors"
	"fmt"
	"sync/atomic"
)

// Common test errors
var (
	ErrTest        = errors.New("test error")
	ErrIntentional = errors.New("intentional error")
	ErrConstructor = errors.New("constructor error")
)

// Config is a leaf fixture, typically declared as an instance.
type Config struct {
	DSN string
}

// Database depends on Config through its constructor.
type Database struct {
	Config *Config
}

func NewDatabase(cfg *Config) *Database {
	return &Database{Config: cfg}
}

// Cache depends on Config through its constructor.
type Cache struct {
	Config *Config
}

func NewCache(cfg *Config) *Cache {
	return &Cache{Config: cfg}
}

// Service sits at the top of the diamond: both of its dependencies share
// the Config leaf.
type Service struct {
	DB    *Database
	Cache *Cache
}

func NewService(db *Database, cache *Cache) *Service {
	return &Service{DB: db, Cache: cache}
}

// Repository mixes constructor and property injection: DB arrives
// positionally, Cache is patched in after construction.
type Repository struct {
	DB    *Database
	Cache *Cache
}

// Counter counts invocations of a factory, for singleton and transient
// lifecycle assertions.
type Counter struct {
	calls atomic.Int64
}

func (c *Counter) Calls() int64 { return c.calls.Load() }

// Widget is produced by counting factories.
type Widget struct {
	Serial int64
}

// CountingFactory returns a Widget factory that records each invocation on
// the counter.
func CountingFactory(c *Counter) func() *Widget {
	return func() *Widget {
		return &Widget{Serial: c.calls.Add(1)}
	}
}

// FailingFactory returns a factory that fails the first n invocations and
// succeeds afterward.
func FailingFactory(n int64) func() (*Widget, error) {
	var calls atomic.Int64
	return func() (*Widget, error) {
		call := calls.Add(1)
		if call <= n {
			return nil, fmt.Errorf("attempt %d: %w", call, ErrConstructor)
		}
		return &Widget{Serial: call}, nil
	}
}
