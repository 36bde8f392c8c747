package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"shardlog/internal/config"
	"shardlog/internal/logging"
	"shardlog/internal/telemetry"
	"shardlog/stream"
	"shardlog/txlog"

	// registered drivers
	_ "shardlog/stream/kafka"
	_ "shardlog/stream/memory"
	_ "shardlog/stream/postgres"
)

func main() {
	cfgPath := flag.String("config", "shardlog.yml", "profile path")
	mode := flag.String("mode", "tail", "tail|append")
	flag.Parse()

	logging.InitFromEnv()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	prof, drvPath, err := config.LoadProfile(*cfgPath)
	if err != nil {
		log.Fatalf("profile: %v", err)
	}
	backend, err := stream.Open(prof.Stream.Driver, drvPath)
	if err != nil {
		log.Fatalf("driver %s: %v", prof.Stream.Driver, err)
	}
	defer backend.Close()

	if prof.MetricsPort > 0 {
		telemetry.Expose(prof.MetricsPort)
	}

	// The stream must already exist and be active; provisioning is not
	// this binary's job.
	store, err := txlog.New(ctx, backend, prof.Stream.Name)
	if err != nil {
		log.Fatalf("txlog: %v", err)
	}

	switch *mode {
	case "tail":
		err = tail(ctx, store)
	case "append":
		err = appendStdin(ctx, store)
	default:
		err = fmt.Errorf("unknown mode %q", *mode)
	}
	if err != nil && !errors.Is(err, context.Canceled) {
		log.Fatalf("%s: %v", *mode, err)
	}
}

// tail polls the log and prints every transaction until interrupted. Polls
// short of the acquisition interval come back empty immediately, so pace
// the loop instead of spinning.
func tail(ctx context.Context, store *txlog.Store) error {
	for {
		tx, err := store.PollNextTransaction(ctx, time.Second)
		if err != nil {
			return err
		}
		if tx == nil {
			select {
			case <-time.After(100 * time.Millisecond):
				continue
			case <-ctx.Done():
				return ctx.Err()
			}
		}
		body, err := io.ReadAll(tx.Reader())
		if err != nil {
			return err
		}
		fmt.Printf("%s\t%s\n", tx.SequenceNumber(), body)
	}
}

func appendStdin(ctx context.Context, store *txlog.Store) error {
	out := store.CreateTransactionOutput(ctx)
	n, err := io.Copy(out, os.Stdin)
	if err != nil {
		return err
	}
	if err := out.Close(); err != nil {
		return err
	}
	logging.L().Info("transaction appended", "bytes", n)
	return nil
}
