package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/valkey-io/valkey-go"
)

// ErrMiss is returned by ValkeyCache.Get for absent keys.
var ErrMiss = errors.New("cache: miss")

// ValkeyCache stores raw provider payloads (Overpass responses) in Valkey so
// separate runs over the same area skip the network fetch.
type ValkeyCache struct {
	client valkey.Client
	prefix string
}

// NewValkey connects to the Valkey server at addr.
func NewValkey(addr, prefix string) (*ValkeyCache, error) {
	client, err := valkey.NewClient(valkey.ClientOption{
		InitAddress: []string{addr},
	})
	if err != nil {
		return nil, fmt.Errorf("valkey connect: %w", err)
	}
	return &ValkeyCache{client: client, prefix: prefix}, nil
}

func (c *ValkeyCache) Get(ctx context.Context, key string) ([]byte, error) {
	cmd := c.client.Do(ctx, c.client.B().Get().Key(c.prefix+key).Build())
	if err := cmd.Error(); err != nil {
		if valkey.IsValkeyNil(err) {
			return nil, ErrMiss
		}
		return nil, err
	}
	return cmd.AsBytes()
}

// Set stores value under key. A ttl below one second stores it without
// expiry, since SET EX rejects zero.
func (c *ValkeyCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	set := c.client.B().Set().Key(c.prefix + key).Value(valkey.BinaryString(value))
	var cmd valkey.Completed
	if ttl >= time.Second {
		cmd = set.Ex(ttl).Build()
	} else {
		cmd = set.Build()
	}
	return c.client.Do(ctx, cmd).Error()
}

// Delete removes key. Deleting an absent key is not an error.
func (c *ValkeyCache) Delete(ctx context.Context, key string) error {
	return c.client.Do(ctx, c.client.B().Del().Key(c.prefix+key).Build()).Error()
}

func (c *ValkeyCache) Close() {
	c.client.Close()
}
