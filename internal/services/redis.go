package services

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

var RedisClient *redis.Client

const ratingCacheTTL = 5 * time.Minute

// InitRedis initializes the Redis client
func InitRedis() error {
	redisURL := os.Getenv("REDIS_URL")
	if redisURL == "" {
		redisURL = "redis://redis:6379" // Default Redis address for Docker
	}

	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return fmt.Errorf("failed to parse Redis URL: %v", err)
	}

	RedisClient = redis.NewClient(opt)

	// Test the connection
	ctx := context.Background()
	_, err = RedisClient.Ping(ctx).Result()
	if err != nil {
		RedisClient = nil
		return fmt.Errorf("failed to connect to Redis: %v", err)
	}

	return nil
}

// CacheDriverRating stores a driver's aggregate rating with a short TTL.
func CacheDriverRating(ctx context.Context, driverID uint, rating float64) error {
	if RedisClient == nil {
		return nil
	}
	key := fmt.Sprintf("driver:rating:%d", driverID)
	return RedisClient.Set(ctx, key, strconv.FormatFloat(rating, 'f', -1, 64), ratingCacheTTL).Err()
}

// GetCachedDriverRating retrieves a cached aggregate rating. The second
// return value is false on a cache miss or when Redis is unavailable.
func GetCachedDriverRating(ctx context.Context, driverID uint) (float64, bool) {
	if RedisClient == nil {
		return 0, false
	}
	key := fmt.Sprintf("driver:rating:%d", driverID)
	result, err := RedisClient.Get(ctx, key).Result()
	if err != nil {
		return 0, false
	}
	rating, err := strconv.ParseFloat(result, 64)
	if err != nil {
		return 0, false
	}
	return rating, true
}

// InvalidateDriverRating evicts a driver's cached rating after a new review.
func InvalidateDriverRating(ctx context.Context, driverID uint) error {
	if RedisClient == nil {
		return nil
	}
	key := fmt.Sprintf("driver:rating:%d", driverID)
	return RedisClient.Del(ctx, key).Err()
}

// PublishRideUpdate publishes ride status update to Redis pub/sub
func PublishRideUpdate(ctx context.Context, rideID uint, status string, data map[string]interface{}) error {
	if RedisClient == nil {
		return nil
	}

	updateData := map[string]interface{}{
		"rideId":    rideID,
		"status":    status,
		"data":      data,
		"timestamp": time.Now().Unix(),
	}

	jsonData, err := json.Marshal(updateData)
	if err != nil {
		return err
	}

	return RedisClient.Publish(ctx, "ride:updates", jsonData).Err()
}
