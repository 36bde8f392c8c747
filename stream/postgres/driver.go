// Package postgres drives an append-only table as the shard: the bigserial
// position column is the sequence, so positions start at 1 and the zero
// value stays reserved for unset cursors.
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"

	"shardlog/stream"

	"github.com/lib/pq"
)

type Driver struct {
	db    *sql.DB
	table string
}

func init() {
	stream.Register("postgres", Open)
}

// Open loads the driver config from path and connects.
func Open(path string) (stream.Stream, error) {
	cfg, err := LoadConfig(path)
	if err != nil {
		return nil, err
	}
	return New(cfg)
}

func New(cfg Config) (*Driver, error) {
	db, err := sql.Open("postgres", cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("postgres: open: %w", err)
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("postgres: ping: %w", err)
	}
	return &Driver{db: db, table: cfg.Table}, nil
}

// InitSchema creates the transaction table if it does not exist.
func (d *Driver) InitSchema(ctx context.Context) error {
	query := fmt.Sprintf(`
	CREATE TABLE IF NOT EXISTS %s (
		position BIGSERIAL PRIMARY KEY,
		partition_key VARCHAR(255) NOT NULL,
		payload BYTEA NOT NULL,
		appended_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT now()
	);
	`, d.table)
	_, err := d.db.ExecContext(ctx, query)
	return err
}

// DescribeTopology reports a single synthetic shard "0"; the table is the
// whole stream.
func (d *Driver) DescribeTopology(ctx context.Context) (stream.Topology, error) {
	var one int
	err := d.db.QueryRowContext(ctx, fmt.Sprintf("SELECT 1 FROM %s LIMIT 1", d.table)).Scan(&one)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return stream.Topology{Status: stream.StatusUnknown}, fmt.Errorf("postgres: probe %s: %w", d.table, err)
	}
	return stream.Topology{Status: stream.StatusActive, Shards: []string{"0"}}, nil
}

// AcquireCursor encodes the exclusive lower bound position for the next
// read. This never touches the database, but it still counts against the
// adapter's acquisition budget upstream.
func (d *Driver) AcquireCursor(_ context.Context, shardID string, mode stream.CursorMode, afterPosition string) (stream.Cursor, error) {
	if shardID != "0" {
		return "", fmt.Errorf("postgres: unknown shard %q", shardID)
	}
	switch mode {
	case stream.TrimHorizon:
		return "0", nil
	case stream.AfterPosition:
		if _, err := strconv.ParseInt(afterPosition, 10, 64); err != nil {
			return "", fmt.Errorf("postgres: bad position %q: %w", afterPosition, err)
		}
		return stream.Cursor(afterPosition), nil
	default:
		return "", fmt.Errorf("postgres: unknown cursor mode %d", mode)
	}
}

func (d *Driver) ReadRecord(ctx context.Context, cursor stream.Cursor) (*stream.Record, error) {
	after, err := strconv.ParseInt(string(cursor), 10, 64)
	if err != nil {
		return nil, fmt.Errorf("postgres: bad cursor %q: %w", cursor, err)
	}
	query := fmt.Sprintf(`
		SELECT position, payload FROM %s
		WHERE position > $1
		ORDER BY position ASC
		LIMIT 1
	`, d.table)
	var (
		position int64
		payload  []byte
	)
	err = d.db.QueryRowContext(ctx, query, after).Scan(&position, &payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, mapErr(err)
	}
	return &stream.Record{Sequence: strconv.FormatInt(position, 10), Data: payload}, nil
}

func (d *Driver) Publish(ctx context.Context, partitionKey string, data []byte) (string, error) {
	query := fmt.Sprintf(`
		INSERT INTO %s (partition_key, payload)
		VALUES ($1, $2)
		RETURNING position
	`, d.table)
	var position int64
	if err := d.db.QueryRowContext(ctx, query, partitionKey, data).Scan(&position); err != nil {
		return "", fmt.Errorf("postgres: insert transaction: %w", err)
	}
	return strconv.FormatInt(position, 10), nil
}

func (d *Driver) Close() error {
	return d.db.Close()
}

// mapErr translates Postgres resource exhaustion (class 53, e.g.
// too_many_connections) into the portable throttling sentinel.
func mapErr(err error) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code.Class() == "53" {
		return fmt.Errorf("postgres: %v: %w", pqErr.Message, stream.ErrThroughputExceeded)
	}
	return err
}
