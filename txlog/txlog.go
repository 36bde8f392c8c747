// Package txlog adapts a single-shard append-only stream into a
// linearizable transaction log: writers append opaque payloads as atomic
// records, and a single reader replays them in sequence order from an
// arbitrary resume point.
package txlog

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/big"
	"time"

	"shardlog/internal/logging"
	"shardlog/internal/telemetry"
	"shardlog/stream"
)

const (
	// Cursor acquisition is budgeted separately by the backend; cap it at
	// four calls per second.
	minCursorAcquireInterval = 250 * time.Millisecond

	// Fixed wait before retrying a throttled read.
	throttleBackoff = 100 * time.Millisecond

	// The shard is predetermined and unique, so key-based routing is
	// irrelevant; the publish API simply requires a key.
	uselessPartitionKey = "uselessPartitionKey"
)

// Store is the adapter. It owns the resume cursor and the acquisition rate
// gate for exactly one logical reader; polls must be serialized by the
// caller. Appends may come from any number of goroutines.
type Store struct {
	backend    stream.Stream
	streamName string
	shardID    string

	gate *pollGate
	// Last delivered sequence position; nil or zero means nothing consumed
	// yet. Mutated only by PollNextTransaction and SeekTransactionPoll.
	seekPos *big.Int

	log *slog.Logger
}

// New builds a Store over an already-active stream. Creating the stream or
// waiting for it to become ready is the caller's responsibility. Fails
// permanently when the stream is not active or does not contain exactly
// one shard; the topology is not re-checked afterwards.
func New(ctx context.Context, backend stream.Stream, streamName string) (*Store, error) {
	topo, err := backend.DescribeTopology(ctx)
	if err != nil {
		return nil, fmt.Errorf("txlog: describe stream %q: %w", streamName, err)
	}
	if topo.Status != stream.StatusActive {
		return nil, fmt.Errorf("txlog: stream %q is not active (status %q)", streamName, topo.Status)
	}
	if n := len(topo.Shards); n != 1 {
		return nil, fmt.Errorf("txlog: stream %q must contain a single shard, it contains %d shards", streamName, n)
	}
	return &Store{
		backend:    backend,
		streamName: streamName,
		shardID:    topo.Shards[0],
		gate:       newPollGate(minCursorAcquireInterval),
		log:        logging.Stream(streamName, topo.Shards[0]),
	}, nil
}

// SeekTransactionPoll sets the resume point for the next poll without
// contacting the backend. A nil or zero position means "start from the
// oldest record still retained".
func (s *Store) SeekTransactionPoll(latestProcessed *big.Int) {
	s.seekPos = latestProcessed
}

// PollNextTransaction returns the next transaction after the resume point,
// or (nil, nil) when none is currently available. The timeout parameter is
// advisory: a single attempt is bounded by one backend round trip plus
// throttling backoff, and callers are expected to re-invoke. Cancelling
// ctx during a throttling backoff is fatal.
func (s *Store) PollNextTransaction(ctx context.Context, _ time.Duration) (*Transaction, error) {
	rec, err := s.nextRecord(ctx)
	if err != nil || rec == nil {
		return nil, err
	}
	seq, ok := new(big.Int).SetString(rec.Sequence, 10)
	if !ok {
		return nil, fmt.Errorf("txlog: stream %q shard %q returned malformed sequence position %q",
			s.streamName, s.shardID, rec.Sequence)
	}
	s.seekPos = seq
	telemetry.Polls.WithLabelValues("delivered").Inc()
	return &Transaction{seq: seq, data: rec.Data}, nil
}

func (s *Store) nextRecord(ctx context.Context) (*stream.Record, error) {
	if !s.gate.allow() {
		telemetry.Polls.WithLabelValues("rate_limited").Inc()
		return nil, nil
	}
	var (
		cursor stream.Cursor
		err    error
	)
	if s.seekPos == nil || s.seekPos.Sign() == 0 {
		// Nothing consumed yet: start from the oldest retained record.
		cursor, err = s.backend.AcquireCursor(ctx, s.shardID, stream.TrimHorizon, "")
	} else {
		cursor, err = s.backend.AcquireCursor(ctx, s.shardID, stream.AfterPosition, s.seekPos.String())
	}
	if err != nil {
		return nil, fmt.Errorf("txlog: acquire cursor on stream %q shard %q: %w", s.streamName, s.shardID, err)
	}
	return s.readRecord(ctx, cursor)
}

// readRecord fetches at most one record. Throughput-exceeded is the only
// retried failure: it is absorbed with a fixed backoff and never surfaced
// to the caller, only felt as latency.
func (s *Store) readRecord(ctx context.Context, cursor stream.Cursor) (*stream.Record, error) {
	for {
		rec, err := s.backend.ReadRecord(ctx, cursor)
		if err == nil {
			if rec == nil {
				telemetry.Polls.WithLabelValues("empty").Inc()
			}
			return rec, nil
		}
		if !errors.Is(err, stream.ErrThroughputExceeded) {
			return nil, fmt.Errorf("txlog: read stream %q shard %q: %w", s.streamName, s.shardID, err)
		}
		telemetry.ThrottleRetries.Inc()
		s.log.Debug("throughput exceeded; backing off", "backoff", throttleBackoff)
		select {
		case <-time.After(throttleBackoff):
		case <-ctx.Done():
			return nil, fmt.Errorf("txlog: interrupted while backing off on throttled stream %q shard %q: %w",
				s.streamName, s.shardID, ctx.Err())
		}
	}
}
