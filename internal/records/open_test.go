package records

import (
	"context"
	"path/filepath"
	"testing"

	mr "github.com/alicebob/miniredis/v2"
	"github.com/karunyatrust/cms/internal/config"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

func TestOpen(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	cases := []struct {
		backend string
		want    string
	}{
		{"file", "file"},
		{"", "file"},
		{"memory", "memory"},
		{"sqlite", "sqlite"},
	}
	for _, tc := range cases {
		cfg := &config.Config{}
		cfg.Records.Backend = tc.backend
		cfg.Records.DataDir = filepath.Join(dir, "data")
		cfg.Records.SQLitePath = filepath.Join(dir, "cms.db")

		s, closeFn, err := Open(ctx, cfg, Clients{})
		require.NoError(t, err, tc.backend)
		require.Equal(t, tc.want, NewCollections(s).Backend())
		require.NoError(t, closeFn())
	}
}

func TestOpen_Redis(t *testing.T) {
	m, err := mr.Run()
	require.NoError(t, err)
	defer m.Close()
	client := redis.NewClient(&redis.Options{Addr: m.Addr()})

	cfg := &config.Config{}
	cfg.Records.Backend = "redis"

	_, _, err = Open(context.Background(), cfg, Clients{})
	require.Error(t, err)

	s, _, err := Open(context.Background(), cfg, Clients{Redis: client})
	require.NoError(t, err)
	require.IsType(t, &RedisStore{}, s)
}

func TestOpen_MongoRequiresClient(t *testing.T) {
	cfg := &config.Config{}
	cfg.Records.Backend = "mongo"
	_, _, err := Open(context.Background(), cfg, Clients{})
	require.Error(t, err)
}

func TestOpen_Unknown(t *testing.T) {
	cfg := &config.Config{}
	cfg.Records.Backend = "etcd"
	_, _, err := Open(context.Background(), cfg, Clients{})
	require.ErrorContains(t, err, "unknown backend")
}

func TestDial_Redis(t *testing.T) {
	m, err := mr.Run()
	require.NoError(t, err)
	defer m.Close()

	cfg := &config.Config{}
	cfg.Records.Backend = "redis"
	cfg.Redis.Host = m.Host()
	cfg.Redis.Port = m.Port()

	clients, closeFn, err := Dial(context.Background(), cfg)
	require.NoError(t, err)
	defer closeFn()
	require.NotNil(t, clients.Redis)
	require.Nil(t, clients.Mongo)

	s, _, err := Open(context.Background(), cfg, clients)
	require.NoError(t, err)
	require.NoError(t, s.Write(context.Background(), "users", []Record{{"_id": "u1"}}))
	require.True(t, m.Exists("cms:collection:users"))
}

func TestDial_RedisDown(t *testing.T) {
	m, err := mr.Run()
	require.NoError(t, err)
	host, port := m.Host(), m.Port()
	m.Close()

	cfg := &config.Config{}
	cfg.Redis.Host = host
	cfg.Redis.Port = port

	// optional for the file backend
	cfg.Records.Backend = "file"
	clients, closeFn, err := Dial(context.Background(), cfg)
	require.NoError(t, err)
	closeFn()
	require.Nil(t, clients.Redis)

	// required for the redis backend
	cfg.Records.Backend = "redis"
	_, _, err = Dial(context.Background(), cfg)
	require.Error(t, err)
}
