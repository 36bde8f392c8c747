package txlog

import (
	"bytes"
	"context"
	"errors"
	"io"

	"shardlog/internal/telemetry"
)

// ErrOutputClosed is returned when writing to an already-finalized
// transaction output.
var ErrOutputClosed = errors.New("txlog: transaction output already closed")

// CreateTransactionOutput opens a write-once byte sink for one transaction.
// Bytes are buffered in memory; Close publishes them as a single atomic
// record and blocks until the backend acknowledges. Publish errors
// propagate unmodified and are not retried here; the read path's throttle
// retry deliberately does not apply to appends. Each output is independent,
// so concurrent writers get interleaving at whole-record granularity only.
func (s *Store) CreateTransactionOutput(ctx context.Context) io.WriteCloser {
	return &transactionOutput{store: s, ctx: ctx}
}

type transactionOutput struct {
	store  *Store
	ctx    context.Context
	buf    bytes.Buffer
	closed bool
}

func (o *transactionOutput) Write(p []byte) (int, error) {
	if o.closed {
		return 0, ErrOutputClosed
	}
	return o.buf.Write(p)
}

// Close finalizes the transaction. It publishes exactly once; further
// Close calls are no-ops.
func (o *transactionOutput) Close() error {
	if o.closed {
		return nil
	}
	o.closed = true
	data := o.buf.Bytes()
	seq, err := o.store.backend.Publish(o.ctx, uselessPartitionKey, data)
	if err != nil {
		return err
	}
	telemetry.Appends.Inc()
	telemetry.AppendBytes.Add(float64(len(data)))
	o.store.log.Debug("transaction published", "sequence", seq, "bytes", len(data))
	return nil
}
