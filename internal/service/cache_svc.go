package service

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/mathieu-neron/adwatch/internal/middleware"
	"github.com/mathieu-neron/adwatch/internal/model"
)

// ActiveCampaignsTTL outlives a couple of refresh ticks so a slow worker does not empty the cache.
const ActiveCampaignsTTL = time.Minute

const activeCampaignsKey = "campaigns:active"

// CacheService provides a Redis cache-aside layer for the campaign catalog.
type CacheService struct {
	rdb *redis.Client
}

// NewCacheService creates a new CacheService. If redisURL is empty or connection
// fails, it returns a CacheService with a nil client (cache operations become no-ops).
func NewCacheService(redisURL string) *CacheService {
	if redisURL == "" {
		middleware.Logger.Info().Msg("redis: no URL configured, caching disabled")
		return &CacheService{}
	}

	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		middleware.Logger.Warn().Err(err).Msg("redis: invalid URL, caching disabled")
		return &CacheService{}
	}

	rdb := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		middleware.Logger.Warn().Err(err).Msg("redis: connection failed, caching disabled")
		_ = rdb.Close()
		return &CacheService{}
	}

	middleware.Logger.Info().Msg("redis: connected, caching enabled")
	return &CacheService{rdb: rdb}
}

// NewCacheServiceWithClient wraps an existing client. A nil client disables caching.
func NewCacheServiceWithClient(rdb *redis.Client) *CacheService {
	return &CacheService{rdb: rdb}
}

// Client returns the underlying Redis client (for health checks). May be nil.
func (c *CacheService) Client() *redis.Client {
	return c.rdb
}

// GetActiveCampaigns returns the cached catalog, or nil if not cached or cache is disabled.
func (c *CacheService) GetActiveCampaigns(ctx context.Context) ([]model.Campaign, error) {
	if c.rdb == nil {
		return nil, nil
	}
	data, err := c.rdb.Get(ctx, activeCampaignsKey).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var campaigns []model.Campaign
	if err := json.Unmarshal(data, &campaigns); err != nil {
		return nil, err
	}
	return campaigns, nil
}

// SetActiveCampaigns stores the catalog in cache.
func (c *CacheService) SetActiveCampaigns(ctx context.Context, campaigns []model.Campaign) error {
	if c.rdb == nil {
		return nil
	}
	if campaigns == nil {
		campaigns = []model.Campaign{}
	}
	b, err := json.Marshal(campaigns)
	if err != nil {
		return err
	}
	return c.rdb.Set(ctx, activeCampaignsKey, b, ActiveCampaignsTTL).Err()
}

// Close shuts down the Redis connection.
func (c *CacheService) Close() error {
	if c.rdb == nil {
		return nil
	}
	return c.rdb.Close()
}
