package db

import (
	"errors"
	"fmt"
	"strings"
)

// DistanceMetric of a vector field.
type DistanceMetric string

// Metrics accepted by FT.CREATE. L2 is squared Euclidean distance.
const (
	DistanceL2     DistanceMetric = "L2"
	DistanceIP     DistanceMetric = "IP"
	DistanceCosine DistanceMetric = "COSINE"
)

// VectorAlgorithm of a vector field. Only FLAT is built by this service;
// HNSW is accepted for completeness of the schema.
type VectorAlgorithm string

const (
	VectorFlat VectorAlgorithm = "FLAT"
	VectorHNSW VectorAlgorithm = "HNSW"
)

// VectorSpec describes a FLOAT32 vector field.
type VectorSpec struct {
	Algorithm VectorAlgorithm // FLAT when empty
	Dim       int
	Metric    DistanceMetric // L2 when empty
}

// Algo returns the algorithm with the FLAT default applied.
func (v VectorSpec) Algo() VectorAlgorithm {
	if v.Algorithm == "" {
		return VectorFlat
	}
	return v.Algorithm
}

// Distance returns the metric with the L2 default applied.
func (v VectorSpec) Distance() DistanceMetric {
	if v.Metric == "" {
		return DistanceL2
	}
	return v.Metric
}

// IndexField is one SCHEMA entry. A nil Vector makes it a TAG field.
type IndexField struct {
	Name   string // hash field
	Alias  string // AS name used in queries, optional
	Vector *VectorSpec
}

// QueryName is how queries address the field.
func (f IndexField) QueryName() string {
	if f.Alias != "" {
		return f.Alias
	}
	return f.Name
}

// IndexDefinition is a search index over the hashes under Prefixes.
type IndexDefinition struct {
	Name     string
	Prefixes []string
	Fields   []IndexField
}

// VectorField returns the field queried as name, falling back to the first
// vector field when name is empty or unknown.
func (idx *IndexDefinition) VectorField(name string) (IndexField, bool) {
	var first *IndexField
	for i := range idx.Fields {
		f := &idx.Fields[i]
		if f.Vector == nil {
			continue
		}
		if name != "" && (f.Name == name || f.Alias == name) {
			return *f, true
		}
		if first == nil {
			first = f
		}
	}
	if first == nil {
		return IndexField{}, false
	}
	return *first, true
}

// Validate rejects definitions the server would refuse.
func (idx *IndexDefinition) Validate() error {
	if !IsValidIdentifier(idx.Name) {
		return fmt.Errorf("index name %q: must match [A-Za-z0-9_:-]+", idx.Name)
	}
	if len(idx.Fields) == 0 {
		return errors.New("index needs at least one field")
	}

	seen := make(map[string]struct{}, len(idx.Fields))
	for i, f := range idx.Fields {
		if f.Name == "" {
			return fmt.Errorf("field %d: name is required", i)
		}
		q := f.QueryName()
		if _, dup := seen[q]; dup {
			return fmt.Errorf("field %q declared twice", q)
		}
		seen[q] = struct{}{}

		if f.Vector != nil && f.Vector.Dim <= 0 {
			return fmt.Errorf("vector field %q: DIM must be positive, got %d", q, f.Vector.Dim)
		}
	}
	return nil
}

// IsValidIdentifier reports whether s is a non-empty run of [A-Za-z0-9_:-].
func IsValidIdentifier(s string) bool {
	return s != "" && !strings.ContainsFunc(s, func(r rune) bool {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			return false
		case r == '_', r == ':', r == '-':
			return false
		}
		return true
	})
}

// IndexBuilder assembles an IndexDefinition.
//
//	db.NewIndex("smartdesk:kb_idx").Prefix("smartdesk:kb:").Tag("id").
//		FlatVector("vector", "", 384, db.DistanceL2).Build()
type IndexBuilder struct {
	def IndexDefinition
}

// NewIndex starts a definition named name.
func NewIndex(name string) *IndexBuilder {
	return &IndexBuilder{def: IndexDefinition{Name: name}}
}

// Prefix adds key prefixes covered by the index.
func (b *IndexBuilder) Prefix(prefixes ...string) *IndexBuilder {
	b.def.Prefixes = append(b.def.Prefixes, prefixes...)
	return b
}

// Tag adds a TAG field.
func (b *IndexBuilder) Tag(name string) *IndexBuilder {
	b.def.Fields = append(b.def.Fields, IndexField{Name: name})
	return b
}

// FlatVector adds an exhaustive FLOAT32 vector field stored in hash field
// name. alias may be empty.
func (b *IndexBuilder) FlatVector(name, alias string, dim int, metric DistanceMetric) *IndexBuilder {
	b.def.Fields = append(b.def.Fields, IndexField{
		Name:   name,
		Alias:  alias,
		Vector: &VectorSpec{Algorithm: VectorFlat, Dim: dim, Metric: metric},
	})
	return b
}

// Build validates and returns a copy of the definition.
func (b *IndexBuilder) Build() (*IndexDefinition, error) {
	def := b.def
	def.Prefixes = append([]string(nil), b.def.Prefixes...)
	def.Fields = append([]IndexField(nil), b.def.Fields...)
	if err := def.Validate(); err != nil {
		return nil, err
	}
	return &def, nil
}
