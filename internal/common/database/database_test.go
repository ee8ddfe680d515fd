package database

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"roster-optimizer/internal/common/config"
	apperrors "roster-optimizer/internal/common/errors"
)

// ==========================
// Postgres
// ==========================

func TestEnsureRosterSchema(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec("CREATE TABLE IF NOT EXISTS roster_runs").
		WillReturnResult(sqlmock.NewResult(0, 0))

	client := &PostgresClient{DB: db}
	require.NoError(t, client.Migrate(context.Background()))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEnsureRosterSchema_Error(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec("CREATE TABLE").WillReturnError(assert.AnError)

	err = EnsureRosterSchema(context.Background(), db)
	assert.ErrorIs(t, err, assert.AnError)
}

func TestPostgresPing_Failure(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectPing().WillReturnError(assert.AnError)

	err = (&PostgresClient{DB: db}).Ping(context.Background())
	require.Error(t, err)
	assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeDatabaseConnectionFailed))
	assert.Contains(t, err.Error(), assert.AnError.Error())
}

func TestPostgresConfigDSN(t *testing.T) {
	cfg := config.PostgresConfig{Host: "db", Port: 5432, User: "u", Password: "p", Database: "roster", SSLMode: "disable"}
	assert.Equal(t, "host=db port=5432 user=u password=p dbname=roster sslmode=disable", cfg.GetDSN())
}

// ==========================
// Redis
// ==========================

type cached struct {
	Group string  `json:"group"`
	Total float64 `json:"total"`
}

func TestJSONCacheRoundTrip(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	client, err := NewRedis(config.RedisConfig{Address: mr.Addr()})
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })

	ctx := context.Background()
	require.NoError(t, client.Ping(ctx))

	var miss cached
	found, err := GetJSON(ctx, client.Client, "roster:solve:x", &miss)
	require.NoError(t, err)
	assert.False(t, found)

	require.NoError(t, SetJSON(ctx, client.Client, "roster:solve:x", cached{Group: "Bears", Total: 17}, time.Minute))

	var hit cached
	found, err = GetJSON(ctx, client.Client, "roster:solve:x", &hit)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, cached{Group: "Bears", Total: 17}, hit)

	mr.FastForward(2 * time.Minute)
	found, err = GetJSON(ctx, client.Client, "roster:solve:x", &hit)
	require.NoError(t, err)
	assert.False(t, found, "entry expires with its ttl")
}

func TestGetJSON_CorruptEntry(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)
	require.NoError(t, mr.Set("k", "{not json"))

	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	var dst cached
	_, err = GetJSON(context.Background(), rdb, "k", &dst)
	assert.Error(t, err)
}

// ==========================
// Elasticsearch
// ==========================

func newESServer(t *testing.T, exists bool) (*httptest.Server, *[]string) {
	t.Helper()
	var mu sync.Mutex
	var calls []string

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		calls = append(calls, r.Method+" "+r.URL.Path)
		mu.Unlock()

		w.Header().Set("X-Elastic-Product", "Elasticsearch")
		w.Header().Set("Content-Type", "application/json")
		switch {
		case r.Method == http.MethodHead && exists:
			w.WriteHeader(http.StatusOK)
		case r.Method == http.MethodHead:
			w.WriteHeader(http.StatusNotFound)
		case r.Method == http.MethodPut:
			_, _ = w.Write([]byte(`{"acknowledged":true,"index":"roster-standings"}`))
		default:
			_, _ = w.Write([]byte(`{}`))
		}
	}))
	t.Cleanup(srv.Close)
	return srv, &calls
}

func TestEnsureIndex_Creates(t *testing.T) {
	srv, calls := newESServer(t, false)

	client, err := NewElasticsearch(config.ElasticsearchConfig{Addresses: []string{srv.URL}})
	require.NoError(t, err)

	require.NoError(t, client.EnsureIndex(context.Background(), "roster-standings", StandingsMapping))
	assert.Equal(t, []string{"HEAD /roster-standings", "PUT /roster-standings"}, *calls)
}

func TestEnsureIndex_AlreadyExists(t *testing.T) {
	srv, calls := newESServer(t, true)

	client, err := NewElasticsearch(config.ElasticsearchConfig{Addresses: []string{srv.URL}})
	require.NoError(t, err)

	require.NoError(t, client.EnsureIndex(context.Background(), "roster-standings", StandingsMapping))
	assert.Equal(t, []string{"HEAD /roster-standings"}, *calls)
}
