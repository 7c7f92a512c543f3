package redis

import (
	"context"
	"fmt"
	"sort"
	"strconv"

	"github.com/redis/rueidis"

	"github.com/kailas-cloud/smartdesk/internal/db"
)

// scoreField is the distance attribute FT.SEARCH adds to KNN hits.
const scoreField = "__vector_score"

// SearchKNN runs FT.SEARCH "*=>[KNN k @field $BLOB]" with DIALECT 2.
func (s *Store) SearchKNN(ctx context.Context, q *db.KNNQuery) (*db.SearchResult, error) {
	if err := q.Validate(); err != nil {
		return nil, &db.Error{Op: db.OpSearch, Err: err}
	}

	cmd := s.b().Arbitrary(db.OpSearch).Args(knnArgs(q)...).Build()
	raw, err := s.do(ctx, cmd).ToArray()
	if err != nil {
		if isMissingIndex(err) {
			return nil, db.ErrIndexNotFound
		}
		return nil, &db.Error{Op: db.OpSearch, Err: err}
	}
	return parseKNNReply(q, raw)
}

func knnArgs(q *db.KNNQuery) []string {
	k := strconv.Itoa(q.K)
	args := []string{q.IndexName, fmt.Sprintf("*=>[KNN %s @%s $BLOB]", k, q.VectorField())}
	if len(q.ReturnFields) > 0 {
		// RETURN drops the distance unless it is named explicitly.
		args = append(args, "RETURN", strconv.Itoa(len(q.ReturnFields)+1))
		args = append(args, q.ReturnFields...)
		args = append(args, scoreField)
	}
	return append(args,
		"PARAMS", "2", "BLOB", db.EncodeVector(q.Vector),
		"LIMIT", "0", k,
		"DIALECT", "2",
	)
}

// parseKNNReply reads the RESP2 reply [total, key1, [f, v, ...], key2, ...].
// Hits are re-sorted nearest first whatever order the server used.
func parseKNNReply(q *db.KNNQuery, raw []rueidis.RedisMessage) (*db.SearchResult, error) {
	if len(raw) == 0 {
		return &db.SearchResult{}, nil
	}
	total, err := raw[0].AsInt64()
	if err != nil {
		return nil, fmt.Errorf("parse total: %w", err)
	}

	entries := make([]db.SearchEntry, 0, (len(raw)-1)/2)
	for i := 1; i+1 < len(raw); i += 2 {
		key, err := raw[i].ToString()
		if err != nil {
			continue
		}
		pairs, err := raw[i+1].ToArray()
		if err != nil {
			continue
		}

		fields := fieldMap(pairs)
		entry := db.SearchEntry{Key: key, Fields: fields}
		if d, err := strconv.ParseFloat(fields[scoreField], 64); err == nil {
			entry.Score = q.Score(d)
		}
		delete(fields, scoreField)
		entries = append(entries, entry)
	}

	sort.SliceStable(entries, func(i, j int) bool { return q.Less(entries[i].Score, entries[j].Score) })
	return &db.SearchResult{Total: int(total), Entries: entries}, nil
}

func fieldMap(pairs []rueidis.RedisMessage) map[string]string {
	m := make(map[string]string, len(pairs)/2)
	for j := 0; j+1 < len(pairs); j += 2 {
		name, err := pairs[j].ToString()
		if err != nil {
			continue
		}
		value, err := pairs[j+1].ToString()
		if err != nil {
			continue
		}
		m[name] = value
	}
	return m
}
