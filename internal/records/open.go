package records

import (
	"context"
	"errors"
	"fmt"

	"github.com/karunyatrust/cms/internal/config"
	"github.com/karunyatrust/cms/internal/database"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
)

// Clients carries connections opened by the caller for backends that need them.
type Clients struct {
	Mongo *mongo.Client
	Redis *redis.Client
}

// Open builds the Store selected by cfg.Records.Backend. The returned close
// function releases resources Open itself acquired; it never closes Clients.
func Open(ctx context.Context, cfg *config.Config, clients Clients) (Store, func() error, error) {
	noop := func() error { return nil }
	switch cfg.Records.Backend {
	case "", "file":
		s, err := NewFileStore(cfg.Records.DataDir)
		if err != nil {
			return nil, nil, err
		}
		return s, noop, nil
	case "memory":
		return NewMemoryStore(), noop, nil
	case "mongo":
		if clients.Mongo == nil {
			return nil, nil, errors.New("records: mongo backend selected but no Mongo client available")
		}
		col := clients.Mongo.Database(cfg.MongoDB.Database).Collection(cfg.Records.MongoCollection)
		return NewMongoStore(col), noop, nil
	case "redis":
		if clients.Redis == nil {
			return nil, nil, errors.New("records: redis backend selected but no Redis client available")
		}
		return NewRedisStore(clients.Redis, cfg.Records.RedisPrefix), noop, nil
	case "sqlite":
		db, err := database.OpenSQLite(ctx, cfg.Records.SQLitePath)
		if err != nil {
			return nil, nil, err
		}
		s, err := NewSQLiteStore(ctx, db)
		if err != nil {
			_ = db.Close()
			return nil, nil, err
		}
		return s, db.Close, nil
	}
	return nil, nil, fmt.Errorf("records: unknown backend %q", cfg.Records.Backend)
}

// Dial connects the clients cfg asks for: Mongo when it backs the record
// store, Redis whenever REDIS_HOST is set. A Redis failure is fatal only
// for the redis backend. The returned function disconnects both.
func Dial(ctx context.Context, cfg *config.Config) (Clients, func(), error) {
	var c Clients
	closeAll := func() {
		if c.Redis != nil {
			_ = c.Redis.Close()
		}
		if c.Mongo != nil {
			_ = c.Mongo.Disconnect(context.Background())
		}
	}

	if cfg.Redis.Host != "" {
		rc, err := database.ConnectRedis(ctx, cfg.Redis.Addr(), cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			if cfg.Records.Backend == "redis" {
				return Clients{}, func() {}, err
			}
			log.Warnf("redis unavailable, continuing without it: %v", err)
		} else {
			c.Redis = rc
		}
	}
	if cfg.Records.Backend == "mongo" {
		mc, err := database.ConnectMongoWithRetry(ctx, cfg.MongoDB.URI, cfg.MongoDB.Timeout, 5)
		if err != nil {
			closeAll()
			return Clients{}, func() {}, err
		}
		c.Mongo = mc
	}
	return c, closeAll, nil
}
