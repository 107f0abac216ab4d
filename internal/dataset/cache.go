package dataset

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"log/slog"
	"time"

	"worldmap-server/internal/pointcloud"
	sharedredis "worldmap-server/internal/shared/redis"

	"github.com/klauspost/compress/zstd"
	"github.com/redis/go-redis/v9"
)

// Cache keeps loaded point sets in Redis as zstd-compressed JSON. A Cache
// built with a nil client does nothing.
type Cache struct {
	client  *sharedredis.Client
	ttl     time.Duration
	logger  *slog.Logger
	encoder *zstd.Encoder
	decoder *zstd.Decoder
}

func NewCache(client *sharedredis.Client, ttl time.Duration, logger *slog.Logger) (*Cache, error) {
	encoder, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return nil, fmt.Errorf("failed to create zstd encoder: %w", err)
	}
	decoder, err := zstd.NewReader(nil)
	if err != nil {
		encoder.Close()
		return nil, fmt.Errorf("failed to create zstd decoder: %w", err)
	}
	return &Cache{client: client, ttl: ttl, logger: logger, encoder: encoder, decoder: decoder}, nil
}

// Close releases the decoder's background goroutines.
func (c *Cache) Close() {
	if c == nil {
		return
	}
	c.decoder.Close()
	_ = c.encoder.Close()
}

func cacheKey(id int) string {
	return fmt.Sprintf("dataset:%d:set", id)
}

func (c *Cache) Get(ctx context.Context, id int) (*pointcloud.Set, bool) {
	if c == nil || c.client == nil {
		return nil, false
	}
	logger := c.logger.With("component", "dataset_cache", "operation", "get", "dataset_id", id)

	data, err := c.client.Get(ctx, cacheKey(id)).Bytes()
	if err != nil {
		if !stderrors.Is(err, redis.Nil) {
			logger.Warn("Failed to read cached dataset", "error", err)
		}
		return nil, false
	}

	set, err := c.decodeSet(data)
	if err != nil {
		logger.Warn("Discarding unreadable cached dataset", "error", err)
		return nil, false
	}
	return set, true
}

func (c *Cache) Put(ctx context.Context, id int, set *pointcloud.Set) {
	if c == nil || c.client == nil {
		return
	}
	logger := c.logger.With("component", "dataset_cache", "operation", "put", "dataset_id", id)

	data, err := c.encodeSet(set)
	if err != nil {
		logger.Warn("Failed to encode dataset", "error", err)
		return
	}
	if err := c.client.Set(ctx, cacheKey(id), data, c.ttl).Err(); err != nil {
		logger.Warn("Failed to cache dataset", "error", err)
		return
	}
	logger.Debug("Dataset cached", "bytes", len(data))
}

func (c *Cache) Evict(ctx context.Context, id int) {
	if c == nil || c.client == nil {
		return
	}
	if err := c.client.Del(ctx, cacheKey(id)).Err(); err != nil {
		c.logger.Warn("Failed to evict cached dataset", "dataset_id", id, "error", err)
	}
}

func (c *Cache) encodeSet(set *pointcloud.Set) ([]byte, error) {
	raw, err := json.Marshal(set)
	if err != nil {
		return nil, err
	}
	return c.encoder.EncodeAll(raw, make([]byte, 0, len(raw)/4)), nil
}

func (c *Cache) decodeSet(data []byte) (*pointcloud.Set, error) {
	raw, err := c.decoder.DecodeAll(data, nil)
	if err != nil {
		return nil, fmt.Errorf("decompress: %w", err)
	}
	var set pointcloud.Set
	if err := json.Unmarshal(raw, &set); err != nil {
		return nil, fmt.Errorf("decode: %w", err)
	}
	return &set, nil
}
