package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"recipeagent/catalog"
)

// SnapshotStore searches a catalog document held in memory. The document maps collection names to
// arrays of objects:
//
//	{"ingredients": [{"id": 1, "name": "Apple"}], "hacks_or_tips": [{"_id": "t1", "title": "Salt early"}]}
//
// Ids may be strings, numbers or Mongo-style {"$oid": "..."} objects under "id" or "_id".
type SnapshotStore struct {
	entities map[catalog.Collection][]map[string]any
}

// NewSnapshotStore loads and decodes the document from src once.
func NewSnapshotStore(ctx context.Context, src Source) (*SnapshotStore, error) {
	b, err := src.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load catalog snapshot: %w", err)
	}

	dec := json.NewDecoder(bytes.NewReader(b))
	dec.UseNumber()

	var doc map[catalog.Collection][]map[string]any
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("decode catalog snapshot: %w", err)
	}
	return &SnapshotStore{entities: doc}, nil
}

// Search scans the collection in document order. Entries without an id or a string label are skipped.
func (s *SnapshotStore) Search(ctx context.Context, q catalog.Query) ([]catalog.Record, error) {
	if err := checkSearchable(q); err != nil {
		return nil, err
	}

	out := []catalog.Record{}
	for _, e := range s.entities[q.Collection] {
		if q.Limit > 0 && len(out) >= q.Limit {
			break
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		label, ok := e[q.Field].(string)
		if !ok || !strings.Contains(strings.ToLower(label), q.Pattern) {
			continue
		}
		id, ok := entityID(e)
		if !ok {
			continue
		}
		out = append(out, catalog.Record{ID: id, Label: label})
	}
	return out, nil
}

func entityID(e map[string]any) (string, bool) {
	for _, key := range []string{"id", "_id"} {
		switch v := e[key].(type) {
		case string:
			return v, v != ""
		case json.Number:
			return v.String(), true
		case map[string]any:
			if oid, ok := v["$oid"].(string); ok && oid != "" {
				return oid, true
			}
		}
	}
	return "", false
}
