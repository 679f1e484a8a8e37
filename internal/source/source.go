// Package source lists candidate plugin packages for the periodic scan.
package source

import (
	"bytes"
	"context"
	"io"
)

// Candidate is one package a source offers for loading.
type Candidate struct {
	// Name identifies the candidate, a file path or ConfigMap entry.
	Name string

	open func(ctx context.Context) (io.ReadCloser, error)
}

// NewCandidate creates a candidate read through open.
func NewCandidate(name string, open func(ctx context.Context) (io.ReadCloser, error)) Candidate {
	return Candidate{Name: name, open: open}
}

// BytesCandidate creates a candidate served from memory.
func BytesCandidate(name string, data []byte) Candidate {
	return NewCandidate(name, func(context.Context) (io.ReadCloser, error) {
		return io.NopCloser(bytes.NewReader(data)), nil
	})
}

// Open returns the package stream.
func (c Candidate) Open(ctx context.Context) (io.ReadCloser, error) {
	return c.open(ctx)
}

// Source lists candidate packages.
type Source interface {
	Candidates(ctx context.Context) ([]Candidate, error)
	String() string
}
