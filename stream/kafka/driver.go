// Package kafka drives a single-partition Kafka topic as the shard.
// Offsets are exposed as one-based sequence positions (offset+1) so the
// zero position stays reserved for unset cursors.
package kafka

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"shardlog/stream"

	"github.com/IBM/sarama"
)

type Driver struct {
	cfg      Config
	cl       sarama.Client
	consumer sarama.Consumer
	producer sarama.SyncProducer
}

func init() {
	stream.Register("kafka", Open)
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
	ver, err := sarama.ParseKafkaVersion(cfg.Version)
	if err != nil {
		return nil, err
	}
	sc := sarama.NewConfig()
	sc.Version = ver
	sc.Producer.RequiredAcks = sarama.WaitForAll
	sc.Producer.Return.Successes = true
	if cfg.TLSEn {
		sc.Net.TLS.Enable = true
	}
	if cfg.SASLUser != "" {
		sc.Net.SASL.Enable = true
		sc.Net.SASL.User, sc.Net.SASL.Password = cfg.SASLUser, cfg.SASLPass
	}

	d := &Driver{cfg: cfg}
	if d.cl, err = sarama.NewClient(cfg.Brokers, sc); err != nil {
		return nil, err
	}
	if d.consumer, err = sarama.NewConsumerFromClient(d.cl); err != nil {
		_ = d.cl.Close()
		return nil, err
	}
	if d.producer, err = sarama.NewSyncProducerFromClient(d.cl); err != nil {
		_ = d.consumer.Close()
		_ = d.cl.Close()
		return nil, err
	}
	return d, nil
}

func (d *Driver) DescribeTopology(_ context.Context) (stream.Topology, error) {
	if err := d.cl.RefreshMetadata(d.cfg.Topic); err != nil {
		return stream.Topology{Status: stream.StatusUnknown}, fmt.Errorf("kafka: refresh metadata for %q: %w", d.cfg.Topic, err)
	}
	parts, err := d.cl.Partitions(d.cfg.Topic)
	if err != nil {
		return stream.Topology{Status: stream.StatusUnknown}, fmt.Errorf("kafka: partitions of %q: %w", d.cfg.Topic, err)
	}
	shards := make([]string, len(parts))
	for i, p := range parts {
		shards[i] = strconv.FormatInt(int64(p), 10)
	}
	return stream.Topology{Status: stream.StatusActive, Shards: shards}, nil
}

// AcquireCursor maps the requested mode to the next Kafka offset to read
// and encodes it, with the partition, as the cursor token.
func (d *Driver) AcquireCursor(_ context.Context, shardID string, mode stream.CursorMode, afterPosition string) (stream.Cursor, error) {
	p64, err := strconv.ParseInt(shardID, 10, 32)
	if err != nil {
		return "", fmt.Errorf("kafka: bad shard id %q: %w", shardID, err)
	}
	partition := int32(p64)
	oldest, err := d.cl.GetOffset(d.cfg.Topic, partition, sarama.OffsetOldest)
	if err != nil {
		return "", mapErr(err)
	}
	var next int64
	switch mode {
	case stream.TrimHorizon:
		next = oldest
	case stream.AfterPosition:
		pos, err := strconv.ParseInt(afterPosition, 10, 64)
		if err != nil {
			return "", fmt.Errorf("kafka: bad position %q: %w", afterPosition, err)
		}
		// position p is offset p-1, so reading after p starts at offset p
		next = pos
		if next < oldest {
			next = oldest
		}
	default:
		return "", fmt.Errorf("kafka: unknown cursor mode %d", mode)
	}
	return stream.Cursor(fmt.Sprintf("%d:%d", partition, next)), nil
}

func (d *Driver) ReadRecord(ctx context.Context, cursor stream.Cursor) (*stream.Record, error) {
	partition, offset, err := parseCursor(cursor)
	if err != nil {
		return nil, err
	}
	newest, err := d.cl.GetOffset(d.cfg.Topic, partition, sarama.OffsetNewest)
	if err != nil {
		return nil, mapErr(err)
	}
	if offset >= newest {
		return nil, nil
	}
	pc, err := d.consumer.ConsumePartition(d.cfg.Topic, partition, offset)
	if err != nil {
		return nil, mapErr(err)
	}
	defer func() { _ = pc.Close() }()

	select {
	case msg := <-pc.Messages():
		return &stream.Record{
			Sequence: strconv.FormatInt(msg.Offset+1, 10),
			Data:     msg.Value,
		}, nil
	case cerr := <-pc.Errors():
		return nil, mapErr(cerr.Err)
	case <-time.After(d.cfg.FetchWait):
		return nil, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (d *Driver) Publish(_ context.Context, partitionKey string, data []byte) (string, error) {
	msg := &sarama.ProducerMessage{
		Topic: d.cfg.Topic,
		Key:   sarama.StringEncoder(partitionKey),
		Value: sarama.ByteEncoder(data),
	}
	_, offset, err := d.producer.SendMessage(msg)
	if err != nil {
		return "", err
	}
	return strconv.FormatInt(offset+1, 10), nil
}

func (d *Driver) Close() error {
	_ = d.producer.Close()
	_ = d.consumer.Close()
	return d.cl.Close()
}

func parseCursor(c stream.Cursor) (int32, int64, error) {
	var partition int32
	var offset int64
	if _, err := fmt.Sscanf(string(c), "%d:%d", &partition, &offset); err != nil {
		return 0, 0, fmt.Errorf("kafka: bad cursor %q: %w", c, err)
	}
	return partition, offset, nil
}

// mapErr translates Kafka's quota signal into the portable throttling
// sentinel; everything else passes through.
func mapErr(err error) error {
	if errors.Is(err, sarama.ErrThrottlingQuotaExceeded) {
		return fmt.Errorf("kafka: %v: %w", err, stream.ErrThroughputExceeded)
	}
	return err
}
