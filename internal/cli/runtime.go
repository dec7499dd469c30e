package cli

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"greendrake/po/internal/cache"
	"greendrake/po/internal/config"
	"greendrake/po/internal/db"
	"greendrake/po/internal/notify"
	"greendrake/po/internal/services"
	"greendrake/po/internal/storage"
)

// recorderCapacity bounds the notifications kept for the service API.
const recorderCapacity = 200

// NewLogger builds a production zap logger at the given level.
func NewLogger(level string) (*zap.Logger, error) {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("invalid LOG_LEVEL: %w", err)
	}
	zcfg := zap.NewProductionConfig()
	zcfg.Level = zap.NewAtomicLevelAt(lvl)
	return zcfg.Build()
}

// Runtime is the wired application: storage backend, notification sinks,
// order store and the editing session.
type Runtime struct {
	Config   *config.Config
	Logger   *zap.Logger
	Store    services.IPOStore
	Session  services.ISessionService
	Recorder *notify.Recorder
	Redis    *redis.Client

	closers []func() error
}

// Bootstrap connects the configured backend and builds the session on top of it.
func Bootstrap(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*Runtime, error) {
	rt := &Runtime{Config: cfg, Logger: logger}

	kv, err := rt.openBackend(ctx)
	if err != nil {
		rt.Close()
		return nil, err
	}

	sinks := notify.NewComposite(notify.NewLogSink(logger))
	if cfg.MockServices {
		rdb, err := rt.redisClient(ctx)
		if err != nil {
			rt.Close()
			return nil, err
		}
		logger.Info("MOCK_SERVICES enabled: notifications are mirrored to Redis")
		sinks.Add(notify.NewRedisSink(rdb))
	} else {
		rt.Recorder = notify.NewBoundedRecorder(recorderCapacity)
		sinks.Add(rt.Recorder)
	}
	if cfg.LogNotifications != "" {
		fileSink, err := notify.NewFileSink(cfg.LogNotifications)
		if err != nil {
			logger.Warn("file notification sink disabled", zap.String("path", cfg.LogNotifications), zap.Error(err))
		} else {
			sinks.Add(fileSink)
		}
	}
	dispatcher := notify.NewDispatcher(logger, sinks)

	rt.Store = services.NewPOStore(kv, cfg.StorageKey, dispatcher)
	rt.Session = services.NewSessionService(ctx, rt.Store, dispatcher, services.OrderTemplate{
		PaymentTerms:  cfg.DefaultPaymentTerms,
		DeliveryTerms: cfg.DefaultDeliveryTerms,
		Unit:          cfg.DefaultUnit,
	}, nil)

	logger.Info("purchase order store ready",
		zap.String("backend", cfg.StorageBackend),
		zap.Int("orders", rt.Store.Len()))
	return rt, nil
}

func (rt *Runtime) redisClient(ctx context.Context) (*redis.Client, error) {
	if rt.Redis != nil {
		return rt.Redis, nil
	}
	rdb, err := cache.ConnectRedis(ctx, rt.Logger, rt.Config.RedisAddr, rt.Config.RedisPassword, rt.Config.RedisDB)
	if err != nil {
		return nil, err
	}
	rt.Redis = rdb
	rt.closers = append(rt.closers, func() error { return cache.DisconnectRedis(rt.Logger, rdb) })
	return rdb, nil
}

func (rt *Runtime) openBackend(ctx context.Context) (storage.IKeyValueStore, error) {
	cfg := rt.Config
	switch cfg.StorageBackend {
	case config.BackendFile:
		return storage.NewFileKV(cfg.StorageFile), nil
	case config.BackendMemory:
		return storage.NewMemoryKV(), nil
	case config.BackendRedis:
		rdb, err := rt.redisClient(ctx)
		if err != nil {
			return nil, err
		}
		return storage.NewRedisKV(rdb, "po:"), nil
	case config.BackendMongo:
		client, database, err := db.ConnectMongo(ctx, rt.Logger, cfg.MongoURI, cfg.MongoDbName)
		if err != nil {
			return nil, err
		}
		rt.closers = append(rt.closers, func() error { return db.DisconnectMongo(rt.Logger, client) })
		return storage.NewMongoKV(database), nil
	case config.BackendPostgres:
		gdb, err := db.ConnectPostgres(ctx, rt.Logger, cfg.DatabaseURL)
		if err != nil {
			return nil, err
		}
		rt.closers = append(rt.closers, func() error { return db.DisconnectPostgres(rt.Logger, gdb) })
		return storage.NewPostgresKV(ctx, gdb)
	case config.BackendS3:
		return storage.NewS3KV(ctx, cfg)
	}
	return nil, fmt.Errorf("unsupported storage backend %q", cfg.StorageBackend)
}

// Close releases backend connections in reverse order of opening.
func (rt *Runtime) Close() {
	for i := len(rt.closers) - 1; i >= 0; i-- {
		if err := rt.closers[i](); err != nil {
			rt.Logger.Warn("error during shutdown", zap.Error(err))
		}
	}
	rt.closers = nil
}
