// Package memory is an in-process stream driver: a mutex-guarded append
// log with monotonically assigned sequence positions. It backs the txlog
// tests and doubles as a scratch driver for local development.
package memory

import (
	"context"
	"fmt"
	"strconv"
	"sync"

	"shardlog/stream"
)

// Log implements stream.Stream over a slice. Sequence positions start at 1
// so the zero value stays reserved for unset cursors. It is safe for
// concurrent use.
type Log struct {
	mu      sync.Mutex
	records []stream.Record
	nextSeq int64
	trimmed int64 // sequences <= trimmed are no longer retained

	status stream.Status
	shards []string

	failReads int // next n ReadRecord calls report throttling

	describes int
	acquires  int
	reads     int
	publishes int
}

func New() *Log {
	return &Log{
		nextSeq: 1,
		status:  stream.StatusActive,
		shards:  []string{"shard-0"},
	}
}

func init() {
	stream.Register("memory", func(string) (stream.Stream, error) { return New(), nil })
}

func (l *Log) DescribeTopology(_ context.Context) (stream.Topology, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.describes++
	return stream.Topology{Status: l.status, Shards: append([]string(nil), l.shards...)}, nil
}

// AcquireCursor returns a cursor encoding the exclusive lower bound
// sequence for the next read.
func (l *Log) AcquireCursor(_ context.Context, shardID string, mode stream.CursorMode, afterPosition string) (stream.Cursor, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.acquires++
	if len(l.shards) == 0 || shardID != l.shards[0] {
		return "", fmt.Errorf("memory: unknown shard %q", shardID)
	}
	switch mode {
	case stream.TrimHorizon:
		return "0", nil
	case stream.AfterPosition:
		if _, err := strconv.ParseInt(afterPosition, 10, 64); err != nil {
			return "", fmt.Errorf("memory: bad position %q: %w", afterPosition, err)
		}
		return stream.Cursor(afterPosition), nil
	default:
		return "", fmt.Errorf("memory: unknown cursor mode %d", mode)
	}
}

func (l *Log) ReadRecord(_ context.Context, cursor stream.Cursor) (*stream.Record, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.reads++
	if l.failReads > 0 {
		l.failReads--
		return nil, fmt.Errorf("memory: simulated throttling: %w", stream.ErrThroughputExceeded)
	}
	after, err := strconv.ParseInt(string(cursor), 10, 64)
	if err != nil {
		return nil, fmt.Errorf("memory: bad cursor %q: %w", cursor, err)
	}
	if after < l.trimmed {
		after = l.trimmed
	}
	for _, rec := range l.records {
		seq, _ := strconv.ParseInt(rec.Sequence, 10, 64)
		if seq > after {
			out := rec
			return &out, nil
		}
	}
	return nil, nil
}

func (l *Log) Publish(_ context.Context, _ string, data []byte) (string, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.publishes++
	seq := strconv.FormatInt(l.nextSeq, 10)
	l.nextSeq++
	l.records = append(l.records, stream.Record{Sequence: seq, Data: append([]byte(nil), data...)})
	return seq, nil
}

func (l *Log) Close() error { return nil }

// Trim drops the oldest n retained records, moving the trim horizon past
// them the way a retention policy would.
func (l *Log) Trim(n int) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if n > len(l.records) {
		n = len(l.records)
	}
	if n == 0 {
		return
	}
	last, _ := strconv.ParseInt(l.records[n-1].Sequence, 10, 64)
	l.trimmed = last
	l.records = append([]stream.Record(nil), l.records[n:]...)
}

// FailReads makes the next n ReadRecord calls report throughput-exceeded.
func (l *Log) FailReads(n int) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.failReads = n
}

// SetStatus overrides the reported stream status.
func (l *Log) SetStatus(s stream.Status) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.status = s
}

// SetShards overrides the reported shard list.
func (l *Log) SetShards(ids ...string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.shards = ids
}

func (l *Log) DescribeCalls() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.describes
}

func (l *Log) AcquireCalls() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.acquires
}

func (l *Log) ReadCalls() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.reads
}

func (l *Log) PublishCalls() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.publishes
}
