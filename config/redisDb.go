package config

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"os"
	"strings"
	"time"

	"github.com/bsm/redislock"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
)

var (
	rdb    *redis.Client
	locker *redislock.Client
)

func GetRedisDB() *redis.Client {
	return rdb
}

func GetRedisLock() *redislock.Client {
	return locker
}

// RedisConfigured reports whether REDIS_ADDRESS is set. Without it the
// session store runs in process memory.
func RedisConfigured() bool {
	return strings.TrimSpace(os.Getenv("REDIS_ADDRESS")) != ""
}

// StoreReady is true once either redis or the memory store is usable.
func StoreReady() bool {
	return rdb != nil || memoryStoreReady()
}

func GetRedisObject(ctx context.Context, key string, dest interface{}) (bool, error) {
	val, ok, err := GetRedisBytes(ctx, key)
	if err != nil || !ok {
		return false, err
	}
	if err := json.Unmarshal(val, dest); err != nil {
		return false, err
	}
	return true, nil
}

func SetRedisObject(ctx context.Context, key string, obj interface{}, exp time.Duration) error {
	objInByte, err := json.Marshal(obj)
	if err != nil {
		return err
	}
	return SetRedisBytes(ctx, key, objInByte, exp)
}

func GetRedisValue(ctx context.Context, key string) (string, bool, error) {
	val, ok, err := GetRedisBytes(ctx, key)
	if err != nil || !ok {
		return "", false, err
	}
	return string(val), true, nil
}

func SetRedisValue(ctx context.Context, key string, value string, exp time.Duration) error {
	return SetRedisBytes(ctx, key, []byte(value), exp)
}

func GetRedisBytes(ctx context.Context, key string) ([]byte, bool, error) {
	if rdb == nil {
		return memoryGet(key)
	}
	val, err := rdb.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, false, nil
		}
		return nil, false, err
	}
	return val, true, nil
}

func SetRedisBytes(ctx context.Context, key string, data []byte, exp time.Duration) error {
	if rdb == nil {
		return memorySet(key, data, exp)
	}
	return rdb.Set(ctx, key, data, exp).Err()
}

func RemoveRedisKey(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	if rdb == nil {
		memoryRemove(keys...)
		return nil
	}
	_, err := rdb.Del(ctx, keys...).Result()
	return err
}

func init() {
	// Load env from .env
	godotenv.Load()
}

// ConnectRedisWithRetry connects and sets the global Redis client + lock client.
// Call this from main() AFTER the HTTP server is listening.
func ConnectRedisWithRetry() {
	redisAddr := os.Getenv("REDIS_ADDRESS")
	if redisAddr == "" {
		redisAddr = "localhost:6379"
		log.Printf("REDIS_ADDRESS not set; defaulting to %s", redisAddr)
	}

	ctx := context.Background()
	var attempt int
	for {
		attempt++
		client := redis.NewClient(&redis.Options{
			Addr:     redisAddr,
			Password: os.Getenv("REDIS_PASSWORD"),
			DB:       0, // use default DB
			PoolSize: 20,
		})
		err := client.Ping(ctx).Err()
		if err == nil {
			rdb = client
			locker = redislock.New(rdb)
			log.Printf("connected to redis (attempt=%d addr=%s)", attempt, redisAddr)
			return
		}
		_ = client.Close()
		sleep := time.Second * time.Duration(1<<min(attempt, 5))
		if sleep > 30*time.Second {
			sleep = 30 * time.Second
		}
		log.Printf("failed to connect redis (attempt=%d addr=%s): %v; retrying in %s", attempt, redisAddr, err, sleep)
		time.Sleep(sleep)
	}
}
