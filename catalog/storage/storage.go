// Package storage holds the catalog.Store implementations and the raw document sources they load from.
package storage

import (
	"context"
	"errors"
)

// Source yields the raw bytes of a catalog snapshot document.
type Source interface {
	Load(ctx context.Context) ([]byte, error)
}

// TestSource is a simple in-memory implementation for testing
type TestSource struct {
	data  []byte
	err   error
	loads int
}

func NewTestSource(data []byte) *TestSource {
	return &TestSource{data: data}
}

func NewTestSourceWithError() *TestSource {
	return &TestSource{err: errors.New("not found")}
}

func (t *TestSource) Load(ctx context.Context) ([]byte, error) {
	t.loads++
	if t.err != nil {
		return nil, t.err
	}
	return t.data, nil
}

// Loads reports how many times Load was called.
func (t *TestSource) Loads() int { return t.loads }
