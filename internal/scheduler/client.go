// Package scheduler moves parked notification deliveries through asynq: the
// dispatcher polls the outbox and enqueues due rows, the worker consumes the
// queue and performs the actual sends.
package scheduler

import (
	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"
)

func redisClientOpt(redisURL string) (asynq.RedisClientOpt, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return asynq.RedisClientOpt{}, err
	}

	return asynq.RedisClientOpt{
		Addr:      opt.Addr,
		Password:  opt.Password,
		DB:        opt.DB,
		TLSConfig: opt.TLSConfig,
	}, nil
}
