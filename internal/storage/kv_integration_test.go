package storage

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"greendrake/po/internal/cache"
	"greendrake/po/internal/db"
	"greendrake/po/internal/utils"
)

// The backends below need a live server and are skipped unless the matching
// TEST_* variable (environment or .env) points at one.

func TestRedisKV_Integration(t *testing.T) {
	addr := utils.TestEnv(t, "TEST_REDIS_ADDR")
	ctx := context.Background()
	client, err := cache.ConnectRedis(ctx, zap.NewNop(), addr, "", 0)
	require.NoError(t, err)
	defer cache.DisconnectRedis(zap.NewNop(), client)

	prefix := "test:" + uuid.NewString() + ":"
	exerciseKV(t, NewRedisKV(client, prefix))
	client.Del(ctx, prefix+"savedPurchaseOrders", prefix+"other")
}

func TestMongoKV_Integration(t *testing.T) {
	uri := utils.TestEnv(t, "TEST_MONGO_URI")
	ctx := context.Background()
	client, database, err := db.ConnectMongo(ctx, zap.NewNop(), uri, "po_test_"+uuid.NewString()[:8])
	require.NoError(t, err)
	defer func() {
		_ = database.Drop(ctx)
		_ = db.DisconnectMongo(zap.NewNop(), client)
	}()

	exerciseKV(t, NewMongoKV(database))
}

func TestPostgresKV_Integration(t *testing.T) {
	dsn := utils.TestEnv(t, "TEST_DATABASE_URL")
	ctx := context.Background()
	gdb, err := db.ConnectPostgres(ctx, zap.NewNop(), dsn)
	require.NoError(t, err)
	defer db.DisconnectPostgres(zap.NewNop(), gdb)

	kv, err := NewPostgresKV(ctx, gdb)
	require.NoError(t, err)
	gdb.Where("key IN ?", []string{"savedPurchaseOrders", "other"}).Delete(&KVEntry{})
	exerciseKV(t, kv)
}
