// Package stream defines the narrow capability surface a stream backend
// must expose to act as a transaction log: describe its topology, hand out
// read cursors, read one record at a time, and publish opaque payloads.
// Drivers (kafka, postgres, memory) implement it; package txlog consumes it.
package stream

import (
	"context"
	"errors"
)

// ErrThroughputExceeded is the transient signal that the backend is being
// read faster than its allotted rate. Drivers wrap their vendor-specific
// throttling errors with it; callers match with errors.Is.
var ErrThroughputExceeded = errors.New("stream: throughput exceeded")

// CursorMode selects where AcquireCursor positions the read cursor.
type CursorMode int

const (
	// TrimHorizon starts at the oldest record still retained by the shard.
	TrimHorizon CursorMode = iota
	// AfterPosition starts strictly after a given sequence position.
	AfterPosition
)

// Status of a stream as reported by its backend.
type Status string

const (
	StatusActive  Status = "ACTIVE"
	StatusUnknown Status = "UNKNOWN"
)

// Topology describes a stream: its readiness and the ordered partitions
// (shards) it is split into.
type Topology struct {
	Status Status
	Shards []string
}

// Cursor is an opaque backend-issued token describing where the next read
// should start. Callers never inspect it.
type Cursor string

// Record is one entry of the shard: the textual sequence position the
// backend assigned on append, plus the opaque payload. Sequence positions
// are decimal, arbitrarily large and strictly increasing within a shard;
// the zero value is never assigned (it is reserved for "unset" cursors).
type Record struct {
	Sequence string
	Data     []byte
}

// Stream is the backend capability interface.
//
// ReadRecord returns at most one record per call; (nil, nil) means nothing
// is currently available past the cursor. Publish appends exactly one
// record atomically and returns its assigned sequence position.
type Stream interface {
	DescribeTopology(ctx context.Context) (Topology, error)
	AcquireCursor(ctx context.Context, shardID string, mode CursorMode, afterPosition string) (Cursor, error)
	ReadRecord(ctx context.Context, cursor Cursor) (*Record, error)
	Publish(ctx context.Context, partitionKey string, data []byte) (string, error)
	Close() error
}
