// Package redis provides a ReadModelStore on Redis. Each read model lives in
// a single key holding a JSON document of the form {"version": N, "model":
// {...}}; a Lua script makes the version check and the overwrite one atomic
// step.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	goredis "github.com/redis/go-redis/v9"

	"github.com/terraskye/projections"
)

// replaceScript overwrites the document only when the stored version matches
// ARGV[1]. An absent key counts as version 0. Returns -1 on success, the
// actual stored version otherwise.
var replaceScript = goredis.NewScript(`
local current = redis.call("GET", KEYS[1])
local actual = 0
if current then
  local doc = cjson.decode(current)
  actual = doc.version
end
if tostring(actual) == ARGV[1] then
  redis.call("SET", KEYS[1], ARGV[2])
  return -1
end
return actual
`)

type document[T any] struct {
	Version uint64 `json:"version"`
	Model   *T     `json:"model"`
}

// StoreOption configures a Store.
type StoreOption func(*storeOptions)

type storeOptions struct {
	keyPrefix string
}

// WithKeyPrefix sets the key prefix, so multiple read model types can share
// one Redis database. Defaults to "readmodel:".
func WithKeyPrefix(prefix string) StoreOption {
	return func(o *storeOptions) { o.keyPrefix = prefix }
}

// Store implements projections.ReadModelStore[T] on a Redis client.
type Store[T any] struct {
	client    goredis.UniversalClient
	keyPrefix string
}

func NewStore[T any](client goredis.UniversalClient, opts ...StoreOption) *Store[T] {
	cfg := storeOptions{keyPrefix: "readmodel:"}
	for _, o := range opts {
		o(&cfg)
	}
	return &Store[T]{client: client, keyPrefix: cfg.keyPrefix}
}

func (s *Store[T]) key(id string) string {
	return s.keyPrefix + id
}

func (s *Store[T]) Get(ctx context.Context, id string) (projections.ReadModelEnvelope[T], error) {
	data, err := s.client.Get(ctx, s.key(id)).Bytes()
	if errors.Is(err, goredis.Nil) {
		return projections.EmptyReadModelEnvelope[T](id), nil
	}
	if err != nil {
		return projections.EmptyReadModelEnvelope[T](id), classify(fmt.Errorf("get read model %q: %w", id, err))
	}

	var doc document[T]
	if err := json.Unmarshal(data, &doc); err != nil {
		return projections.EmptyReadModelEnvelope[T](id), fmt.Errorf("get read model %q: decode: %w", id, err)
	}
	return projections.NewReadModelEnvelope(id, doc.Model, doc.Version), nil
}

func (s *Store[T]) Replace(ctx context.Context, envelope projections.ReadModelEnvelope[T], expectedVersion uint64) error {
	data, err := json.Marshal(document[T]{Version: envelope.Version, Model: envelope.ReadModel})
	if err != nil {
		return fmt.Errorf("replace read model %q: encode: %w", envelope.ReadModelID, err)
	}

	res, err := replaceScript.Run(ctx, s.client,
		[]string{s.key(envelope.ReadModelID)},
		strconv.FormatUint(expectedVersion, 10), string(data),
	).Int64()
	if err != nil {
		return classify(fmt.Errorf("replace read model %q: %w", envelope.ReadModelID, err))
	}
	if res >= 0 {
		return &projections.VersionConflictError{
			ReadModelID:     envelope.ReadModelID,
			ExpectedVersion: expectedVersion,
			ActualVersion:   uint64(res),
		}
	}
	return nil
}

func (s *Store[T]) Delete(ctx context.Context, id string) error {
	if err := s.client.Del(ctx, s.key(id)).Err(); err != nil {
		return classify(fmt.Errorf("delete read model %q: %w", id, err))
	}
	return nil
}

// classify wraps Redis failures as transient: for the commands used here any
// error short of cancellation means the server was unreachable or unhealthy,
// and a later attempt can succeed.
func classify(err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	return projections.Transient(err)
}
