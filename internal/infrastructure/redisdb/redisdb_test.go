package redisdb

import (
	"context"
	"strconv"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vivekkundariya/opskit/internal/domain/credential"
	"github.com/vivekkundariya/opskit/internal/domain/environment"
	errUtils "github.com/vivekkundariya/opskit/internal/errors"
)

func resolved(values map[string]string) *credential.Resolved {
	r := credential.NewResolved(credential.NewRequest("REDIS", environment.Dev))
	for k, v := range values {
		r.Set(k, v, credential.SourceEnv)
	}
	return r
}

func setup(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return mr, client
}

func run(t *testing.T, c redis.Cmdable, name string, in Input) string {
	t.Helper()
	cmd, ok := Find(name)
	require.True(t, ok, name)
	require.NoError(t, cmd.CheckArgs(in.Args))
	res, err := cmd.Run(context.Background(), c, in)
	require.NoError(t, err)
	return res.Text
}

func TestConfigFromCredentials(t *testing.T) {
	cfg, err := ConfigFromCredentials(resolved(nil))
	require.NoError(t, err)
	assert.Equal(t, Config{Host: "localhost", Port: 6379}, cfg)
	assert.Equal(t, "localhost:6379", cfg.Addr())

	cfg, err = ConfigFromCredentials(resolved(map[string]string{
		"HOST": "cache.internal", "PORT": "6380", "DB": "2", "SSL": "True", "PASSWORD": "pw",
	}))
	require.NoError(t, err)
	assert.Equal(t, Config{Host: "cache.internal", Port: 6380, DB: 2, SSL: true, Password: "pw"}, cfg)

	_, err = ConfigFromCredentials(resolved(map[string]string{"PORT": "abc"}))
	assert.ErrorIs(t, err, errUtils.ErrInvalidConfig)
}

func TestNewClient(t *testing.T) {
	mr := miniredis.RunT(t)
	port, err := strconv.Atoi(mr.Port())
	require.NoError(t, err)

	client, err := NewClient(context.Background(), Config{Host: mr.Host(), Port: port})
	require.NoError(t, err)
	defer client.Close()

	mr.Close()
	_, err = NewClient(context.Background(), Config{Host: "127.0.0.1", Port: port})
	require.Error(t, err)
	assert.NotEmpty(t, errUtils.Hints(err))
}

func TestStringCommands(t *testing.T) {
	mr, c := setup(t)

	assert.Equal(t, "(nil)", run(t, c, "get", Input{Args: []string{"missing"}}))
	assert.Equal(t, "OK", run(t, c, "set", Input{Args: []string{"user:1", "alice"}}))
	assert.Equal(t, "alice", run(t, c, "get", Input{Args: []string{"user:1"}}))
	assert.Equal(t, "string", run(t, c, "type", Input{Args: []string{"user:1"}}))
	assert.Equal(t, "Yes", run(t, c, "exists", Input{Args: []string{"user:1"}}))
	assert.Equal(t, "No", run(t, c, "exists", Input{Args: []string{"user:2"}}))

	assert.Equal(t, "Key has no expiration", run(t, c, "ttl", Input{Args: []string{"user:1"}}))
	assert.Equal(t, "Key does not exist", run(t, c, "ttl", Input{Args: []string{"user:2"}}))

	assert.Equal(t, "OK", run(t, c, "set", Input{Args: []string{"session", "x"}, TTL: time.Minute}))
	assert.Equal(t, time.Minute, mr.TTL("session"))
	assert.Equal(t, "60 seconds", run(t, c, "ttl", Input{Args: []string{"session"}}))

	assert.Equal(t, "OK", run(t, c, "expire", Input{Args: []string{"user:1", "30"}}))
	assert.Equal(t, "Key does not exist", run(t, c, "expire", Input{Args: []string{"nope", "30"}}))

	assert.Equal(t, "Deleted 2 key(s)", run(t, c, "del", Input{Args: []string{"user:1", "session", "nope"}}))
	assert.False(t, mr.Exists("user:1"))
}

func TestKeysSorted(t *testing.T) {
	mr, c := setup(t)
	require.NoError(t, mr.Set("b:1", "x"))
	require.NoError(t, mr.Set("a:1", "x"))
	require.NoError(t, mr.Set("other", "x"))

	cmd, _ := Find("keys")
	res, err := cmd.Run(context.Background(), c, Input{Args: []string{"*:1"}})
	require.NoError(t, err)
	assert.Equal(t, []string{"a:1", "b:1"}, res.List)
	assert.Equal(t, "(2 keys)", res.Footer)
}

func TestHashCommands(t *testing.T) {
	_, c := setup(t)

	assert.Equal(t, "Fields added: 1", run(t, c, "hset", Input{Args: []string{"h", "name", "bob"}}))
	assert.Equal(t, "Fields added: 1", run(t, c, "hset", Input{Args: []string{"h", "age", "42"}}))
	assert.Equal(t, "Fields added: 0", run(t, c, "hset", Input{Args: []string{"h", "age", "43"}}))
	assert.Equal(t, "43", run(t, c, "hget", Input{Args: []string{"h", "age"}}))
	assert.Equal(t, "2", run(t, c, "hlen", Input{Args: []string{"h"}}))

	cmd, _ := Find("hgetall")
	res, err := cmd.Run(context.Background(), c, Input{Args: []string{"h"}})
	require.NoError(t, err)
	require.Len(t, res.Fields, 2)
	assert.Equal(t, "age", res.Fields[0].Key)
	assert.Equal(t, "name", res.Fields[1].Key)

	assert.Equal(t, "Deleted 1 field(s)", run(t, c, "hdel", Input{Args: []string{"h", "age", "missing"}}))
}

func TestListCommands(t *testing.T) {
	_, c := setup(t)

	assert.Equal(t, "List length: 2", run(t, c, "rpush", Input{Args: []string{"q", "a", "b"}}))
	assert.Equal(t, "List length: 3", run(t, c, "lpush", Input{Args: []string{"q", "z"}}))
	assert.Equal(t, "3", run(t, c, "llen", Input{Args: []string{"q"}}))

	cmd, _ := Find("lrange")
	res, err := cmd.Run(context.Background(), c, Input{Args: []string{"q", "0", "-1"}})
	require.NoError(t, err)
	assert.Equal(t, []string{"z", "a", "b"}, res.List)

	assert.Equal(t, "z", run(t, c, "lpop", Input{Args: []string{"q"}}))
	assert.Equal(t, "b", run(t, c, "rpop", Input{Args: []string{"q"}}))

	_, err = cmd.Run(context.Background(), c, Input{Args: []string{"q", "x", "1"}})
	assert.ErrorIs(t, err, errUtils.ErrInvalidArgument)
}

func TestSetAndSortedSetCommands(t *testing.T) {
	_, c := setup(t)

	assert.Equal(t, "Members added: 2", run(t, c, "sadd", Input{Args: []string{"s", "x", "y"}}))
	assert.Equal(t, "Yes", run(t, c, "sismember", Input{Args: []string{"s", "x"}}))
	assert.Equal(t, "2", run(t, c, "scard", Input{Args: []string{"s"}}))
	assert.Equal(t, "Members removed: 1", run(t, c, "srem", Input{Args: []string{"s", "x"}}))

	assert.Equal(t, "Members added: 1", run(t, c, "zadd", Input{Args: []string{"z", "2.5", "m1"}}))
	assert.Equal(t, "Members added: 1", run(t, c, "zadd", Input{Args: []string{"z", "1", "m0"}}))
	assert.Equal(t, "2.5", run(t, c, "zscore", Input{Args: []string{"z", "m1"}}))
	assert.Equal(t, "(nil)", run(t, c, "zscore", Input{Args: []string{"z", "nope"}}))
	assert.Equal(t, "2", run(t, c, "zcard", Input{Args: []string{"z"}}))

	cmd, _ := Find("zrange")
	res, err := cmd.Run(context.Background(), c, Input{Args: []string{"z", "0", "-1"}, WithScores: true})
	require.NoError(t, err)
	require.NotNil(t, res.Table)
	assert.Equal(t, [][]string{{"m0", "1"}, {"m1", "2.5"}}, res.Table.Rows)

	assert.Equal(t, "Members removed: 1", run(t, c, "zrem", Input{Args: []string{"z", "m0"}}))
}

func TestServerCommands(t *testing.T) {
	mr, c := setup(t)
	require.NoError(t, mr.Set("k", "v"))

	assert.Equal(t, "PONG", run(t, c, "ping", Input{}))
	assert.Equal(t, "1", run(t, c, "dbsize", Input{}))
	assert.Equal(t, "OK", run(t, c, "flushdb", Input{}))
	assert.Equal(t, "0", run(t, c, "dbsize", Input{}))
}

func TestCheckArgs(t *testing.T) {
	get, _ := Find("GET")
	assert.NoError(t, get.CheckArgs([]string{"k"}))
	assert.ErrorIs(t, get.CheckArgs(nil), errUtils.ErrInvalidArgument)
	assert.ErrorIs(t, get.CheckArgs([]string{"a", "b"}), errUtils.ErrInvalidArgument)

	del, _ := Find("del")
	assert.NoError(t, del.CheckArgs([]string{"a", "b", "c"}))

	_, ok := Find("eval")
	assert.False(t, ok)
}

func TestSummary(t *testing.T) {
	assert.Equal(t, "SET on key 'user:1'", Summary("set", Input{Args: []string{"user:1", "v"}}, 0))
	assert.Equal(t, "DEL on keys a, b", Summary("del", Input{Args: []string{"a", "b"}}, 0))
	assert.Equal(t, "FLUSHDB on ALL KEYS in DB 3", Summary("flushdb", Input{}, 3))
	assert.Equal(t, "PING", Summary("ping", Input{}, 0))
}

func TestParseInfo(t *testing.T) {
	raw := "# Server\r\nredis_version:7.2.4\r\nuptime_in_seconds:100\r\n\r\n# Clients\r\nconnected_clients:3\r\n"
	fields := ParseInfo(raw)
	require.Len(t, fields, 3)
	assert.Equal(t, "redis_version", fields[0].Key)
	assert.Equal(t, "7.2.4", fields[0].Value)
	assert.Equal(t, "connected_clients", fields[2].Key)
}
