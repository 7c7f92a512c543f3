package redis

import (
	"context"
	"errors"
	"sort"

	"github.com/redis/rueidis"

	"github.com/kailas-cloud/smartdesk/internal/db"
)

// hsetIf writes ARGV[2..] as field/value pairs when EXISTS KEYS[1] equals ARGV[1].
// Returns 1 when the hash was written.
var hsetIf = rueidis.NewLuaScript(`
if redis.call('EXISTS', KEYS[1]) ~= tonumber(ARGV[1]) then
  return 0
end
redis.call('HSET', KEYS[1], unpack(ARGV, 2))
return 1
`)

var errNoFields = errors.New("no fields to write")

// scanCount is the SCAN page size hint used by DeletePrefix.
const scanCount = 100

// HSet sets hash fields. Fields not named are left untouched.
func (s *Store) HSet(ctx context.Context, key string, fields map[string]string) error {
	if err := s.do(ctx, s.hsetCmd(key, fields)).Error(); err != nil {
		return &db.Error{Op: db.OpHSet, Key: key, Err: err}
	}
	return nil
}

// HSetMulti writes several hashes in one DoMulti round trip.
func (s *Store) HSetMulti(ctx context.Context, items []db.HashSetItem) error {
	if len(items) == 0 {
		return nil
	}

	cmds := make(rueidis.Commands, len(items))
	for i, item := range items {
		cmds[i] = s.hsetCmd(item.Key, item.Fields)
	}
	for i, res := range s.client.DoMulti(ctx, cmds...) {
		if err := res.Error(); err != nil {
			return &db.Error{Op: db.OpHSet, Key: items[i].Key, Err: err}
		}
	}
	return nil
}

// HSetIfExists updates fields of an existing hash and never creates one.
func (s *Store) HSetIfExists(ctx context.Context, key string, fields map[string]string) (bool, error) {
	return s.hsetIf(ctx, key, fields, "1")
}

// HSetIfAbsent creates the hash only when key does not exist.
func (s *Store) HSetIfAbsent(ctx context.Context, key string, fields map[string]string) (bool, error) {
	return s.hsetIf(ctx, key, fields, "0")
}

func (s *Store) hsetIf(ctx context.Context, key string, fields map[string]string, want string) (bool, error) {
	if len(fields) == 0 {
		return false, &db.Error{Op: db.OpEval, Key: key, Err: errNoFields}
	}
	args := append([]string{want}, fieldPairs(fields)...)
	n, err := hsetIf.Exec(ctx, s.client, []string{key}, args).AsInt64()
	if err != nil {
		return false, &db.Error{Op: db.OpEval, Key: key, Err: err}
	}
	return n == 1, nil
}

// HGetAll returns every field of a hash; a missing key yields an empty map.
func (s *Store) HGetAll(ctx context.Context, key string) (map[string]string, error) {
	m, err := s.do(ctx, s.b().Hgetall().Key(key).Build()).AsStrMap()
	if err != nil {
		return nil, &db.Error{Op: db.OpHGetAll, Key: key, Err: err}
	}
	return m, nil
}

// DeletePrefix unlinks every key starting with prefix, one SCAN page at a time.
// Returns the number of keys removed.
func (s *Store) DeletePrefix(ctx context.Context, prefix string) (int, error) {
	var (
		cursor  uint64
		removed int
	)
	for {
		cmd := s.b().Scan().Cursor(cursor).Match(prefix + "*").Count(scanCount).Build()
		page, err := s.do(ctx, cmd).AsScanEntry()
		if err != nil {
			return removed, &db.Error{Op: db.OpScan, Err: err}
		}
		if len(page.Elements) > 0 {
			n, err := s.do(ctx, s.b().Unlink().Key(page.Elements...).Build()).AsInt64()
			if err != nil {
				return removed, &db.Error{Op: db.OpUnlink, Err: err}
			}
			removed += int(n)
		}
		cursor = page.Cursor
		if cursor == 0 {
			return removed, nil
		}
	}
}

func (s *Store) hsetCmd(key string, fields map[string]string) rueidis.Completed {
	cmd := s.b().Hset().Key(key).FieldValue()
	pairs := fieldPairs(fields)
	for i := 0; i < len(pairs); i += 2 {
		cmd = cmd.FieldValue(pairs[i], pairs[i+1])
	}
	return cmd.Build()
}

// fieldPairs flattens fields into name/value pairs sorted by name.
func fieldPairs(fields map[string]string) []string {
	names := make([]string, 0, len(fields))
	for k := range fields {
		names = append(names, k)
	}
	sort.Strings(names)
	out := make([]string, 0, 2*len(names))
	for _, k := range names {
		out = append(out, k, fields[k])
	}
	return out
}
