package config

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/bsm/redislock"
	"github.com/redis/go-redis/v9"
)

// Redis carries three key families for this backend:
//
//	Token:$token          session token -> username (TTL)
//	Tokens:$username      set of the user's live tokens
//	UserAccount:$username cached user record
//	<Entity>:$companyId:$id  cached master records (see models/generics.go)
//	Sequence:*            per-company document number counters
//
// Every helper is a no-op while rdb is nil so handlers degrade gracefully
// until ConnectRedisWithRetry has finished.
var (
	rdb      *redis.Client
	locker   *redislock.Client
	redisCtx = context.Background()
)

func GetRedisDB() *redis.Client {
	return rdb
}

func GetRedisLock() *redislock.Client {
	return locker
}

func GetRedisObject(key string, dest interface{}) (bool, error) {
	if rdb == nil {
		return false, nil
	}
	val, err := rdb.Get(redisCtx, key).Result()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if err := json.Unmarshal([]byte(val), dest); err != nil {
		return false, err
	}
	return true, nil
}

func GetRedisValue(key string) (string, bool, error) {
	if rdb == nil {
		return "", false, nil
	}
	val, err := rdb.Get(redisCtx, key).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return val, true, nil
}

func SetRedisObject(key string, obj interface{}, exp time.Duration) error {
	if rdb == nil {
		return nil
	}
	raw, err := json.Marshal(obj)
	if err != nil {
		return err
	}
	return rdb.Set(redisCtx, key, raw, exp).Err()
}

func SetRedisValue(key string, value string, exp time.Duration) error {
	if rdb == nil {
		return nil
	}
	return rdb.Set(redisCtx, key, value, exp).Err()
}

// token sets, so logout-all and password changes can revoke every session
func AddRedisSet(setKey string, member string) error {
	if rdb == nil {
		return nil
	}
	return rdb.SAdd(redisCtx, setKey, member).Err()
}

func GetRedisSetMembers(setKey string) ([]string, error) {
	if rdb == nil {
		return nil, nil
	}
	return rdb.SMembers(redisCtx, setKey).Result()
}

func RemoveRedisSetMember(setKey string, member string) error {
	if rdb == nil {
		return nil
	}
	return rdb.SRem(redisCtx, setKey, member).Err()
}

func RemoveRedisKey(keys ...string) error {
	if rdb == nil {
		return nil
	}
	return rdb.Del(redisCtx, keys...).Err()
}

// GetRedisCounter increments and returns the counter, creating it at 1.
// Document sequences fall back to the database when this returns 0.
func GetRedisCounter(ctx context.Context, key string) (int64, error) {
	if rdb == nil {
		return 0, nil
	}
	return rdb.Incr(ctx, key).Result()
}

// ConnectRedisWithRetry connects and sets the global client + lock client.
// Call this from main() after the HTTP server is listening; startup must
// not block on redis.
func ConnectRedisWithRetry() {
	redisAddr := os.Getenv("REDIS_ADDRESS")
	if redisAddr == "" {
		redisAddr = "localhost:6379"
		log.Printf("REDIS_ADDRESS not set; defaulting to %s", redisAddr)
	}
	redisDb := 0
	if raw := os.Getenv("REDIS_DB"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil {
			redisDb = n
		}
	}

	var attempt int
	for {
		attempt++
		rdb = redis.NewClient(&redis.Options{
			Addr:     redisAddr,
			Password: os.Getenv("REDIS_PASSWORD"),
			DB:       redisDb,
			PoolSize: 100,
		})
		if err := rdb.Ping(redisCtx).Err(); err == nil {
			locker = redislock.New(rdb)
			log.Printf("connected to redis (attempt=%d addr=%s)", attempt, redisAddr)
			return
		} else {
			sleep := time.Second * time.Duration(1<<min(attempt, 5))
			if sleep > 30*time.Second {
				sleep = 30 * time.Second
			}
			log.Printf("failed to connect redis (attempt=%d addr=%s): %v; retrying in %s", attempt, redisAddr, err, sleep)
			time.Sleep(sleep)
		}
	}
}
