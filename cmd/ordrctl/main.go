package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/casperin/ordr"
	"github.com/casperin/ordr/internal/blob"
	"github.com/casperin/ordr/observer/socketio"
)

// main is the entrypoint for the ordrctl demo binary.
func main() {
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	})))

	if err := run(os.Stdout, os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// run loads a job file, builds and runs a plan, and prints the outcome. It
// is separated from main so it can be exercised without os.Exit.
func run(outW io.Writer, args []string) error {
	cfg, err := loadConfig(args)
	if err != nil {
		return err
	}
	setLogLevel(cfg.LogLevel)

	jf, err := loadJobFile(cfg.JobFile)
	if err != nil {
		return err
	}
	seed, err := jf.seedSnapshot()
	if err != nil {
		return err
	}

	if cfg.ResumeFrom != "" {
		prior, err := loadSnapshot(cfg.ResumeFrom)
		if err != nil {
			return fmt.Errorf("ordrctl: resume from %q: %w", cfg.ResumeFrom, err)
		}
		for id, v := range prior {
			seed[id] = v
		}
	}

	registry := buildRegistry()
	builder := ordr.NewBuilder(registry)
	for _, t := range jf.Targets {
		builder.Add(ordr.Identity(t))
	}
	builder.WithData(seed)

	plan, err := builder.Build()
	if err != nil {
		return fmt.Errorf("ordrctl: build plan: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	opts := []ordr.Option{ordr.WithConcurrencyCap(cfg.ConcurrencyCap)}
	if cfg.EventsURL != "" {
		obs, err := socketio.Connect(ctx, cfg.EventsURL, "/")
		if err != nil {
			return fmt.Errorf("ordrctl: connect events: %w", err)
		}
		defer obs.Close()
		opts = append(opts, ordr.WithObserver(obs))
	}

	w := ordr.NewWorker(plan, ctx, opts...)
	if err := w.Run(); err != nil {
		return fmt.Errorf("ordrctl: run: %w", err)
	}
	outcome := w.GetOutput()

	printOutcome(outW, outcome)

	if err := saveSnapshot(cfg.SnapshotOut, outcome.Snapshot()); err != nil {
		return fmt.Errorf("ordrctl: save snapshot: %w", err)
	}
	if outcome.Kind == ordr.Failed {
		return outcome.Err()
	}
	return nil
}

func setLogLevel(level string) {
	var l slog.Level
	if err := l.UnmarshalText([]byte(level)); err != nil {
		l = slog.LevelInfo
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: l})))
}

// loadSnapshot reads a msgpack-encoded Snapshot previously written by
// saveSnapshot, used to resume a job from where an earlier run left off.
func loadSnapshot(path string) (ordr.Snapshot, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return blob.Decode[ordr.Snapshot](raw)
}

// saveSnapshot writes snap to path as msgpack, so a later run with
// ORDRCTL_RESUME_FROM set to path can read it back with loadSnapshot.
func saveSnapshot(path string, snap ordr.Snapshot) error {
	raw, err := blob.Encode(snap)
	if err != nil {
		return err
	}
	return os.WriteFile(path, raw, 0o644)
}
