package monitoring

import (
	"context"
	"net"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisHook records per-command latency through go-redis's hook chain.
type RedisHook struct{}

func (RedisHook) DialHook(next redis.DialHook) redis.DialHook {
	return func(ctx context.Context, network, addr string) (net.Conn, error) {
		start := time.Now()
		conn, err := next(ctx, network, addr)
		RedisCommandDuration.WithLabelValues("dial").Observe(time.Since(start).Seconds())
		return conn, err
	}
}

func (RedisHook) ProcessHook(next redis.ProcessHook) redis.ProcessHook {
	return func(ctx context.Context, cmd redis.Cmder) error {
		start := time.Now()
		err := next(ctx, cmd)
		RedisCommandDuration.WithLabelValues(cmd.Name()).Observe(time.Since(start).Seconds())
		return err
	}
}

func (RedisHook) ProcessPipelineHook(next redis.ProcessPipelineHook) redis.ProcessPipelineHook {
	return func(ctx context.Context, cmds []redis.Cmder) error {
		start := time.Now()
		err := next(ctx, cmds)
		RedisCommandDuration.WithLabelValues("pipeline").Observe(time.Since(start).Seconds())
		return err
	}
}

// InstrumentRedisClient attaches the metrics hook and returns the same
// client for chaining.
func InstrumentRedisClient(client *redis.Client) *redis.Client {
	client.AddHook(RedisHook{})
	return client
}
