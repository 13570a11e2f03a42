package redisdb

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	errUtils "github.com/vivekkundariya/opskit/internal/errors"
	"github.com/vivekkundariya/opskit/internal/output"
)

// Input carries the positional arguments and flags of one command.
type Input struct {
	Args       []string
	TTL        time.Duration
	WithScores bool
	Section    string
}

// Command is one supported Redis verb.
type Command struct {
	Name  string
	Use   string
	Short string
	// MinArgs is the number of required positional arguments. Commands
	// accepting a variable tail set Variadic.
	MinArgs  int
	Variadic bool
	Run      func(ctx context.Context, c redis.Cmdable, in Input) (*output.Result, error)
}

var commands = []Command{
	{Name: "get", Use: "get <key>", Short: "Get the value of a key", MinArgs: 1, Run: runGet},
	{Name: "set", Use: "set <key> <value>", Short: "Set a key, optionally with --ttl", MinArgs: 2, Run: runSet},
	{Name: "del", Use: "del <key>...", Short: "Delete one or more keys", MinArgs: 1, Variadic: true, Run: runDel},
	{Name: "keys", Use: "keys <pattern>", Short: "List keys matching a pattern", MinArgs: 1, Run: runKeys},
	{Name: "type", Use: "type <key>", Short: "Show the type of a key", MinArgs: 1, Run: runType},
	{Name: "ttl", Use: "ttl <key>", Short: "Show the remaining time to live of a key", MinArgs: 1, Run: runTTL},
	{Name: "exists", Use: "exists <key>", Short: "Check whether a key exists", MinArgs: 1, Run: runExists},
	{Name: "expire", Use: "expire <key> <seconds>", Short: "Set a timeout on a key", MinArgs: 2, Run: runExpire},
	{Name: "hget", Use: "hget <key> <field>", Short: "Get a hash field", MinArgs: 2, Run: runHGet},
	{Name: "hset", Use: "hset <key> <field> <value>", Short: "Set a hash field", MinArgs: 3, Run: runHSet},
	{Name: "hgetall", Use: "hgetall <key>", Short: "Get all fields of a hash", MinArgs: 1, Run: runHGetAll},
	{Name: "hdel", Use: "hdel <key> <field>...", Short: "Delete hash fields", MinArgs: 2, Variadic: true, Run: runHDel},
	{Name: "hkeys", Use: "hkeys <key>", Short: "List hash fields", MinArgs: 1, Run: runHKeys},
	{Name: "hlen", Use: "hlen <key>", Short: "Count hash fields", MinArgs: 1, Run: runHLen},
	{Name: "lrange", Use: "lrange <key> <start> <stop>", Short: "Get a range of list elements", MinArgs: 3, Run: runLRange},
	{Name: "lpush", Use: "lpush <key> <value>...", Short: "Prepend values to a list", MinArgs: 2, Variadic: true, Run: runPush(true)},
	{Name: "rpush", Use: "rpush <key> <value>...", Short: "Append values to a list", MinArgs: 2, Variadic: true, Run: runPush(false)},
	{Name: "llen", Use: "llen <key>", Short: "Get the length of a list", MinArgs: 1, Run: runLLen},
	{Name: "lpop", Use: "lpop <key>", Short: "Remove and return the first list element", MinArgs: 1, Run: runPop(true)},
	{Name: "rpop", Use: "rpop <key>", Short: "Remove and return the last list element", MinArgs: 1, Run: runPop(false)},
	{Name: "smembers", Use: "smembers <key>", Short: "List set members", MinArgs: 1, Run: runSMembers},
	{Name: "sadd", Use: "sadd <key> <member>...", Short: "Add set members", MinArgs: 2, Variadic: true, Run: runSAdd},
	{Name: "srem", Use: "srem <key> <member>...", Short: "Remove set members", MinArgs: 2, Variadic: true, Run: runSRem},
	{Name: "sismember", Use: "sismember <key> <member>", Short: "Check set membership", MinArgs: 2, Run: runSIsMember},
	{Name: "scard", Use: "scard <key>", Short: "Count set members", MinArgs: 1, Run: runSCard},
	{Name: "zrange", Use: "zrange <key> <start> <stop>", Short: "Get a range of sorted set members", MinArgs: 3, Run: runZRange},
	{Name: "zadd", Use: "zadd <key> <score> <member>", Short: "Add a sorted set member", MinArgs: 3, Run: runZAdd},
	{Name: "zscore", Use: "zscore <key> <member>", Short: "Get the score of a sorted set member", MinArgs: 2, Run: runZScore},
	{Name: "zrem", Use: "zrem <key> <member>...", Short: "Remove sorted set members", MinArgs: 2, Variadic: true, Run: runZRem},
	{Name: "zcard", Use: "zcard <key>", Short: "Count sorted set members", MinArgs: 1, Run: runZCard},
	{Name: "info", Use: "info", Short: "Show server information, optionally one --section", Run: runInfo},
	{Name: "dbsize", Use: "dbsize", Short: "Count keys in the current database", Run: runDBSize},
	{Name: "ping", Use: "ping", Short: "Check the connection", Run: runPing},
	{Name: "flushdb", Use: "flushdb", Short: "Delete all keys in the current database", Run: runFlushDB},
	{Name: "flushall", Use: "flushall", Short: "Delete all keys in every database", Run: runFlushAll},
}

// Commands returns the supported verbs in display order.
func Commands() []Command {
	return commands
}

// Find looks up a verb case-insensitively.
func Find(name string) (Command, bool) {
	name = strings.ToLower(name)
	for _, c := range commands {
		if c.Name == name {
			return c, true
		}
	}
	return Command{}, false
}

// CheckArgs validates the positional argument count.
func (c Command) CheckArgs(args []string) error {
	switch {
	case len(args) < c.MinArgs:
		return fmt.Errorf("%w: usage: %s", errUtils.ErrInvalidArgument, c.Use)
	case !c.Variadic && len(args) > c.MinArgs:
		return fmt.Errorf("%w: usage: %s", errUtils.ErrInvalidArgument, c.Use)
	}
	return nil
}

// Summary describes the command for confirmation prompts.
func Summary(name string, in Input, db int) string {
	verb := strings.ToUpper(name)
	switch name {
	case "flushdb":
		return fmt.Sprintf("%s on ALL KEYS in DB %d", verb, db)
	case "flushall":
		return verb + " on ALL KEYS in ALL DATABASES"
	}
	if len(in.Args) == 0 {
		return verb
	}
	if name == "del" && len(in.Args) > 1 {
		return fmt.Sprintf("%s on keys %s", verb, strings.Join(in.Args, ", "))
	}
	return fmt.Sprintf("%s on key '%s'", verb, in.Args[0])
}

func nilOr(s string, err error) (*output.Result, error) {
	if errors.Is(err, redis.Nil) {
		return &output.Result{Text: "(nil)", Data: nil}, nil
	}
	if err != nil {
		return nil, err
	}
	return &output.Result{Text: s, Data: s}, nil
}

func count(n int64) *output.Result {
	return &output.Result{Text: strconv.FormatInt(n, 10), Data: n}
}

func yesNo(b bool) *output.Result {
	if b {
		return &output.Result{Text: "Yes", Data: true}
	}
	return &output.Result{Text: "No", Data: false}
}

func list(values []string) *output.Result {
	if len(values) == 0 {
		return &output.Result{Text: "(empty)", Data: []string{}}
	}
	return &output.Result{List: values, Data: values}
}

func parseInt(name, s string) (int64, error) {
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %s must be an integer, got %q", errUtils.ErrInvalidArgument, name, s)
	}
	return n, nil
}

func runGet(ctx context.Context, c redis.Cmdable, in Input) (*output.Result, error) {
	return nilOr(c.Get(ctx, in.Args[0]).Result())
}

func runSet(ctx context.Context, c redis.Cmdable, in Input) (*output.Result, error) {
	if err := c.Set(ctx, in.Args[0], in.Args[1], in.TTL).Err(); err != nil {
		return nil, err
	}
	return output.Message("OK"), nil
}

func runDel(ctx context.Context, c redis.Cmdable, in Input) (*output.Result, error) {
	n, err := c.Del(ctx, in.Args...).Result()
	if err != nil {
		return nil, err
	}
	return &output.Result{Text: fmt.Sprintf("Deleted %d key(s)", n), Data: n}, nil
}

func runKeys(ctx context.Context, c redis.Cmdable, in Input) (*output.Result, error) {
	keys, err := c.Keys(ctx, in.Args[0]).Result()
	if err != nil {
		return nil, err
	}
	sort.Strings(keys)
	r := list(keys)
	if len(keys) > 0 {
		r.Footer = fmt.Sprintf("(%d keys)", len(keys))
	}
	return r, nil
}

func runType(ctx context.Context, c redis.Cmdable, in Input) (*output.Result, error) {
	t, err := c.Type(ctx, in.Args[0]).Result()
	if err != nil {
		return nil, err
	}
	return &output.Result{Text: t, Data: t}, nil
}

func runTTL(ctx context.Context, c redis.Cmdable, in Input) (*output.Result, error) {
	ttl, err := c.TTL(ctx, in.Args[0]).Result()
	if err != nil {
		return nil, err
	}
	// go-redis passes the -2 and -1 sentinels through unscaled.
	switch ttl {
	case -2:
		return &output.Result{Text: "Key does not exist", Data: -2}, nil
	case -1:
		return &output.Result{Text: "Key has no expiration", Data: -1}, nil
	}
	secs := int64(ttl / time.Second)
	return &output.Result{Text: fmt.Sprintf("%d seconds", secs), Data: secs}, nil
}

func runExists(ctx context.Context, c redis.Cmdable, in Input) (*output.Result, error) {
	n, err := c.Exists(ctx, in.Args[0]).Result()
	if err != nil {
		return nil, err
	}
	return yesNo(n > 0), nil
}

func runExpire(ctx context.Context, c redis.Cmdable, in Input) (*output.Result, error) {
	secs, err := parseInt("seconds", in.Args[1])
	if err != nil {
		return nil, err
	}
	ok, err := c.Expire(ctx, in.Args[0], time.Duration(secs)*time.Second).Result()
	if err != nil {
		return nil, err
	}
	if !ok {
		return output.Message("Key does not exist"), nil
	}
	return output.Message("OK"), nil
}

func runHGet(ctx context.Context, c redis.Cmdable, in Input) (*output.Result, error) {
	return nilOr(c.HGet(ctx, in.Args[0], in.Args[1]).Result())
}

func runHSet(ctx context.Context, c redis.Cmdable, in Input) (*output.Result, error) {
	n, err := c.HSet(ctx, in.Args[0], in.Args[1], in.Args[2]).Result()
	if err != nil {
		return nil, err
	}
	return &output.Result{Text: fmt.Sprintf("Fields added: %d", n), Data: n}, nil
}

func runHGetAll(ctx context.Context, c redis.Cmdable, in Input) (*output.Result, error) {
	m, err := c.HGetAll(ctx, in.Args[0]).Result()
	if err != nil {
		return nil, err
	}
	if len(m) == 0 {
		return &output.Result{Text: "(empty)", Data: map[string]string{}}, nil
	}
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	fields := make([]output.Field, len(keys))
	for i, k := range keys {
		fields[i] = output.Field{Key: k, Value: m[k]}
	}
	return &output.Result{Fields: fields, Data: m}, nil
}

func runHDel(ctx context.Context, c redis.Cmdable, in Input) (*output.Result, error) {
	n, err := c.HDel(ctx, in.Args[0], in.Args[1:]...).Result()
	if err != nil {
		return nil, err
	}
	return &output.Result{Text: fmt.Sprintf("Deleted %d field(s)", n), Data: n}, nil
}

func runHKeys(ctx context.Context, c redis.Cmdable, in Input) (*output.Result, error) {
	keys, err := c.HKeys(ctx, in.Args[0]).Result()
	if err != nil {
		return nil, err
	}
	sort.Strings(keys)
	return list(keys), nil
}

func runHLen(ctx context.Context, c redis.Cmdable, in Input) (*output.Result, error) {
	n, err := c.HLen(ctx, in.Args[0]).Result()
	if err != nil {
		return nil, err
	}
	return count(n), nil
}

func parseRange(in Input) (int64, int64, error) {
	start, err := parseInt("start", in.Args[1])
	if err != nil {
		return 0, 0, err
	}
	stop, err := parseInt("stop", in.Args[2])
	if err != nil {
		return 0, 0, err
	}
	return start, stop, nil
}

func runLRange(ctx context.Context, c redis.Cmdable, in Input) (*output.Result, error) {
	start, stop, err := parseRange(in)
	if err != nil {
		return nil, err
	}
	values, err := c.LRange(ctx, in.Args[0], start, stop).Result()
	if err != nil {
		return nil, err
	}
	return list(values), nil
}

func runPush(left bool) func(context.Context, redis.Cmdable, Input) (*output.Result, error) {
	return func(ctx context.Context, c redis.Cmdable, in Input) (*output.Result, error) {
		values := make([]any, len(in.Args)-1)
		for i, v := range in.Args[1:] {
			values[i] = v
		}
		var cmd *redis.IntCmd
		if left {
			cmd = c.LPush(ctx, in.Args[0], values...)
		} else {
			cmd = c.RPush(ctx, in.Args[0], values...)
		}
		n, err := cmd.Result()
		if err != nil {
			return nil, err
		}
		return &output.Result{Text: fmt.Sprintf("List length: %d", n), Data: n}, nil
	}
}

func runLLen(ctx context.Context, c redis.Cmdable, in Input) (*output.Result, error) {
	n, err := c.LLen(ctx, in.Args[0]).Result()
	if err != nil {
		return nil, err
	}
	return count(n), nil
}

func runPop(left bool) func(context.Context, redis.Cmdable, Input) (*output.Result, error) {
	return func(ctx context.Context, c redis.Cmdable, in Input) (*output.Result, error) {
		if left {
			return nilOr(c.LPop(ctx, in.Args[0]).Result())
		}
		return nilOr(c.RPop(ctx, in.Args[0]).Result())
	}
}

func members(args []string) []any {
	out := make([]any, len(args))
	for i, a := range args {
		out[i] = a
	}
	return out
}

func runSMembers(ctx context.Context, c redis.Cmdable, in Input) (*output.Result, error) {
	values, err := c.SMembers(ctx, in.Args[0]).Result()
	if err != nil {
		return nil, err
	}
	sort.Strings(values)
	return list(values), nil
}

func runSAdd(ctx context.Context, c redis.Cmdable, in Input) (*output.Result, error) {
	n, err := c.SAdd(ctx, in.Args[0], members(in.Args[1:])...).Result()
	if err != nil {
		return nil, err
	}
	return &output.Result{Text: fmt.Sprintf("Members added: %d", n), Data: n}, nil
}

func runSRem(ctx context.Context, c redis.Cmdable, in Input) (*output.Result, error) {
	n, err := c.SRem(ctx, in.Args[0], members(in.Args[1:])...).Result()
	if err != nil {
		return nil, err
	}
	return &output.Result{Text: fmt.Sprintf("Members removed: %d", n), Data: n}, nil
}

func runSIsMember(ctx context.Context, c redis.Cmdable, in Input) (*output.Result, error) {
	ok, err := c.SIsMember(ctx, in.Args[0], in.Args[1]).Result()
	if err != nil {
		return nil, err
	}
	return yesNo(ok), nil
}

func runSCard(ctx context.Context, c redis.Cmdable, in Input) (*output.Result, error) {
	n, err := c.SCard(ctx, in.Args[0]).Result()
	if err != nil {
		return nil, err
	}
	return count(n), nil
}

type scored struct {
	Member string  `json:"member"`
	Score  float64 `json:"score"`
}

func runZRange(ctx context.Context, c redis.Cmdable, in Input) (*output.Result, error) {
	start, stop, err := parseRange(in)
	if err != nil {
		return nil, err
	}
	if !in.WithScores {
		values, err := c.ZRange(ctx, in.Args[0], start, stop).Result()
		if err != nil {
			return nil, err
		}
		return list(values), nil
	}

	zs, err := c.ZRangeWithScores(ctx, in.Args[0], start, stop).Result()
	if err != nil {
		return nil, err
	}
	if len(zs) == 0 {
		return &output.Result{Text: "(empty)", Data: []scored{}}, nil
	}
	rows := make([][]string, len(zs))
	data := make([]scored, len(zs))
	for i, z := range zs {
		m := fmt.Sprint(z.Member)
		rows[i] = []string{m, formatScore(z.Score)}
		data[i] = scored{Member: m, Score: z.Score}
	}
	return &output.Result{
		Table: &output.Table{Columns: []string{"member", "score"}, Rows: rows},
		Data:  data,
	}, nil
}

func formatScore(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

func runZAdd(ctx context.Context, c redis.Cmdable, in Input) (*output.Result, error) {
	score, err := strconv.ParseFloat(in.Args[1], 64)
	if err != nil {
		return nil, fmt.Errorf("%w: score must be a number, got %q", errUtils.ErrInvalidArgument, in.Args[1])
	}
	n, err := c.ZAdd(ctx, in.Args[0], redis.Z{Score: score, Member: in.Args[2]}).Result()
	if err != nil {
		return nil, err
	}
	return &output.Result{Text: fmt.Sprintf("Members added: %d", n), Data: n}, nil
}

func runZScore(ctx context.Context, c redis.Cmdable, in Input) (*output.Result, error) {
	score, err := c.ZScore(ctx, in.Args[0], in.Args[1]).Result()
	if errors.Is(err, redis.Nil) {
		return &output.Result{Text: "(nil)"}, nil
	}
	if err != nil {
		return nil, err
	}
	return &output.Result{Text: formatScore(score), Data: score}, nil
}

func runZRem(ctx context.Context, c redis.Cmdable, in Input) (*output.Result, error) {
	n, err := c.ZRem(ctx, in.Args[0], members(in.Args[1:])...).Result()
	if err != nil {
		return nil, err
	}
	return &output.Result{Text: fmt.Sprintf("Members removed: %d", n), Data: n}, nil
}

func runZCard(ctx context.Context, c redis.Cmdable, in Input) (*output.Result, error) {
	n, err := c.ZCard(ctx, in.Args[0]).Result()
	if err != nil {
		return nil, err
	}
	return count(n), nil
}

func runInfo(ctx context.Context, c redis.Cmdable, in Input) (*output.Result, error) {
	var sections []string
	if in.Section != "" {
		sections = append(sections, in.Section)
	}
	raw, err := c.Info(ctx, sections...).Result()
	if err != nil {
		return nil, err
	}
	fields := ParseInfo(raw)
	data := make(map[string]string, len(fields))
	for _, f := range fields {
		data[f.Key] = f.Value
	}
	return &output.Result{Fields: fields, Data: data}, nil
}

// ParseInfo turns INFO output into ordered key/value fields, skipping
// section headers and blank lines.
func ParseInfo(raw string) []output.Field {
	var fields []output.Field
	for _, line := range strings.Split(raw, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		k, v, ok := strings.Cut(line, ":")
		if !ok {
			continue
		}
		fields = append(fields, output.Field{Key: k, Value: v})
	}
	return fields
}

func runDBSize(ctx context.Context, c redis.Cmdable, _ Input) (*output.Result, error) {
	n, err := c.DBSize(ctx).Result()
	if err != nil {
		return nil, err
	}
	return count(n), nil
}

func runPing(ctx context.Context, c redis.Cmdable, _ Input) (*output.Result, error) {
	pong, err := c.Ping(ctx).Result()
	if err != nil {
		return nil, err
	}
	return &output.Result{Text: pong, Data: pong}, nil
}

func runFlushDB(ctx context.Context, c redis.Cmdable, _ Input) (*output.Result, error) {
	if err := c.FlushDB(ctx).Err(); err != nil {
		return nil, err
	}
	return output.Message("OK"), nil
}

func runFlushAll(ctx context.Context, c redis.Cmdable, _ Input) (*output.Result, error) {
	if err := c.FlushAll(ctx).Err(); err != nil {
		return nil, err
	}
	return output.Message("OK"), nil
}
