package mysql

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"strings"
	"time"

	"msigwallet/internal/application"
	"msigwallet/internal/domain"

	"github.com/redis/go-redis/v9"
)

const (
	activityCacheVersionKey = "msigwallet:activities:version"
	activityCacheKeyPrefix  = "msigwallet:activities:v"
	defaultCacheTTL         = 30 * time.Second
)

type CacheConfig struct {
	Addr string
	TTL  time.Duration
}

// CachedRepository serves journal queries from redis. Every write bumps a
// version key, which orphans all cached query results at once.
type CachedRepository struct {
	*Repository
	cache redis.UniversalClient
	ttl   time.Duration
}

func NewCachedRepository(base *Repository, cfg CacheConfig) (*CachedRepository, error) {
	if base == nil {
		return nil, errors.New("base repository is required")
	}
	if strings.TrimSpace(cfg.Addr) == "" {
		return &CachedRepository{Repository: base}, nil
	}
	client := redis.NewClient(&redis.Options{Addr: cfg.Addr})
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, err
	}
	return newCachedRepository(base, client, cfg.TTL), nil
}

func newCachedRepository(base *Repository, client redis.UniversalClient, ttl time.Duration) *CachedRepository {
	if ttl <= 0 {
		ttl = defaultCacheTTL
	}
	return &CachedRepository{Repository: base, cache: client, ttl: ttl}
}

func (r *CachedRepository) RecordActivity(ctx context.Context, activity domain.Activity) error {
	return r.StoreActivities(ctx, []domain.Activity{activity})
}

func (r *CachedRepository) StoreActivities(ctx context.Context, activities []domain.Activity) error {
	if err := r.Repository.StoreActivities(ctx, activities); err != nil {
		return err
	}
	if len(activities) > 0 {
		r.invalidate(ctx)
	}
	return nil
}

func (r *CachedRepository) QueryActivities(ctx context.Context, filter application.ActivityFilter) ([]domain.Activity, error) {
	if r.cache == nil {
		return r.Repository.QueryActivities(ctx, filter)
	}
	version, ok := r.cacheVersion(ctx)
	if !ok {
		return r.Repository.QueryActivities(ctx, filter)
	}
	key := activityCacheKey(version, filter)
	if cached, err := r.cache.Get(ctx, key).Result(); err == nil {
		var activities []domain.Activity
		if err := json.Unmarshal([]byte(cached), &activities); err == nil {
			return activities, nil
		}
	}

	activities, err := r.Repository.QueryActivities(ctx, filter)
	if err != nil {
		return nil, err
	}
	if payload, err := json.Marshal(activities); err == nil {
		_ = r.cache.Set(ctx, key, payload, r.ttl).Err()
	}
	return activities, nil
}

func (r *CachedRepository) Close() error {
	if r.cache != nil {
		_ = r.cache.Close()
	}
	return r.Repository.Close()
}

func (r *CachedRepository) cacheVersion(ctx context.Context) (string, bool) {
	version, err := r.cache.Get(ctx, activityCacheVersionKey).Result()
	if err == nil {
		return version, true
	}
	if errors.Is(err, redis.Nil) {
		return "0", true
	}
	return "", false
}

func (r *CachedRepository) invalidate(ctx context.Context) {
	if r.cache == nil {
		return
	}
	_ = r.cache.Incr(ctx, activityCacheVersionKey).Err()
}

func activityCacheKey(version string, filter application.ActivityFilter) string {
	var b strings.Builder
	b.Grow(128)
	b.WriteString(activityCacheKeyPrefix)
	b.WriteString(version)
	b.WriteString(":chain=")
	if filter.ChainID != nil {
		b.WriteString(strconv.FormatUint(*filter.ChainID, 10))
	} else {
		b.WriteString("all")
	}
	b.WriteString(":wallet=")
	b.WriteString(orAny(strings.ToLower(filter.Wallet)))
	b.WriteString(":op=")
	b.WriteString(orAny(filter.Operation))
	b.WriteString(":tx=")
	b.WriteString(orAny(filter.TxHash))
	b.WriteString(":limit=")
	b.WriteString(strconv.Itoa(application.NormalizeLimit(filter.Limit)))
	return b.String()
}

func orAny(value string) string {
	if value == "" {
		return "any"
	}
	return value
}
