package initializers

import (
	"context"
	"log"

	"github.com/Codingstar67/ping-buddy/internals/config"

	"github.com/redis/go-redis/v9"
)

// Global Redis client holding the login challenges.
// Challenge records carry their own TTL, so no cleanup janitor is needed.
var Redis *redis.Client

func ConnectToRedis() {
	addr := config.GetEnvAsStr("REDIS_ADDR", "localhost:6379")
	log.Println("Connecting to redis at:", addr)

	Redis = redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: config.GetEnvAsStr("REDIS_PASSWORD", ""),
	})

	if err := Redis.Ping(context.Background()).Err(); err != nil {
		panic("Failed to connect to redis: " + err.Error())
	}
}
