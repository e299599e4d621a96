package cache

import (
	"time"

	"backend-picshare/internal/config"

	"github.com/redis/go-redis/v9"
)

// Connect returns nil when no address is configured, which leaves the feed
// uncached.
func Connect(cfg config.Config) *redis.Client {
	if cfg.RedisAddr == "" {
		return nil
	}
	return redis.NewClient(&redis.Options{
		Addr:         cfg.RedisAddr,
		Password:     cfg.RedisPassword,
		ClientName:   "picshare-api",
		DialTimeout:  2 * time.Second,
		ReadTimeout:  500 * time.Millisecond,
		WriteTimeout: 500 * time.Millisecond,
	})
}
