package throttle

import (
	"context"
	"log/slog"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
	"go.uber.org/fx"

	"credgate/config"
	"credgate/internal/domain/lifecycle"
	"credgate/internal/domain/service"
)

// Params defines the dependencies of the login throttle
type Params struct {
	fx.In

	Lifecycle fx.Lifecycle
	Config    *config.Config
	Logger    *slog.Logger
}

// New returns the Redis-backed throttle when enabled, otherwise Noop.
func New(params Params) (service.LoginThrottle, error) {
	cfg := params.Config.LoginThrottle
	if cfg == nil || !cfg.Enabled {
		params.Logger.Info("Login throttle disabled")

		return Noop{}, nil
	}

	opts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		return nil, errors.Wrap(err, "parse loginThrottle.redisUrl")
	}

	client := redis.NewClient(opts)

	params.Lifecycle.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			ctx, cancel := context.WithTimeout(ctx, lifecycle.DefaultTimeout)
			defer cancel()

			if err := client.Ping(ctx).Err(); err != nil {
				return errors.Wrap(err, "ping redis for login throttle")
			}
			params.Logger.Info("Login throttle connected", slog.String("addr", opts.Addr))

			return nil
		},
		OnStop: func(ctx context.Context) error {
			return errors.Wrap(client.Close(), "close redis client")
		},
	})

	return NewRedisThrottle(client, RedisOptions{
		KeyPrefix:   cfg.KeyPrefix,
		MaxAttempts: cfg.MaxAttempts,
		Window:      cfg.Window,
		Lockout:     cfg.Lockout,
	}), nil
}
