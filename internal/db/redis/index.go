package redis

import (
	"context"
	"strconv"

	"github.com/kailas-cloud/smartdesk/internal/db"
)

// CreateIndex runs FT.CREATE ... ON HASH for def.
func (s *Store) CreateIndex(ctx context.Context, def *db.IndexDefinition) error {
	args, err := ftCreateArgs(def)
	if err != nil {
		return &db.Error{Op: db.OpCreateIndex, Err: err}
	}

	if err := s.do(ctx, s.b().Arbitrary(db.OpCreateIndex).Args(args...).Build()).Error(); err != nil {
		if isRedisErr(err, "index already exists") {
			return db.ErrIndexExists
		}
		return &db.Error{Op: db.OpCreateIndex, Err: err}
	}
	return nil
}

// DropIndex removes an index; the indexed hashes stay.
func (s *Store) DropIndex(ctx context.Context, name string) error {
	if err := s.do(ctx, s.b().Arbitrary(db.OpDropIndex).Args(name).Build()).Error(); err != nil {
		if isMissingIndex(err) {
			return db.ErrIndexNotFound
		}
		return &db.Error{Op: db.OpDropIndex, Err: err}
	}
	return nil
}

// IndexExists probes the index with FT.INFO.
func (s *Store) IndexExists(ctx context.Context, name string) (bool, error) {
	if err := s.do(ctx, s.b().Arbitrary(db.OpIndexInfo).Args(name).Build()).Error(); err != nil {
		if isMissingIndex(err) {
			return false, nil
		}
		return false, &db.Error{Op: db.OpIndexInfo, Err: err}
	}
	return true, nil
}

// ftCreateArgs renders def as FT.CREATE arguments:
//
//	name ON HASH [PREFIX n p...] SCHEMA field [AS alias] TAG | VECTOR algo n attrs...
func ftCreateArgs(def *db.IndexDefinition) ([]string, error) {
	if err := def.Validate(); err != nil {
		return nil, err
	}

	args := []string{def.Name, "ON", "HASH"}
	if len(def.Prefixes) > 0 {
		args = append(args, "PREFIX", strconv.Itoa(len(def.Prefixes)))
		args = append(args, def.Prefixes...)
	}
	args = append(args, "SCHEMA")

	for _, f := range def.Fields {
		args = append(args, f.Name)
		if f.Alias != "" {
			args = append(args, "AS", f.Alias)
		}
		if f.Vector == nil {
			args = append(args, "TAG")
			continue
		}
		args = append(args, vectorAttrs(*f.Vector)...)
	}
	return args, nil
}

// vectorAttrs renders VECTOR algo nargs TYPE FLOAT32 DIM d DISTANCE_METRIC m.
func vectorAttrs(v db.VectorSpec) []string {
	attrs := []string{
		"TYPE", "FLOAT32",
		"DIM", strconv.Itoa(v.Dim),
		"DISTANCE_METRIC", string(v.Distance()),
	}
	return append([]string{"VECTOR", string(v.Algo()), strconv.Itoa(len(attrs))}, attrs...)
}
