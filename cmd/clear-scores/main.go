// Command clear-scores empties both leaderboards of a score database.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"candy-rush/config"
	"candy-rush/scores/sqlite"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, flag.CommandLine, os.Args[1:], os.Stdout); err != nil {
		log.Fatalf("clear-scores: %v", err)
	}
}

func run(ctx context.Context, fs *flag.FlagSet, args []string, out io.Writer) error {
	var cfg struct {
		ScoresPath string `env:"CANDY_RUSH_SCORES_PATH" envDefault:"scores.db"`
	}
	if err := config.ParseEnv(&cfg); err != nil {
		return err
	}
	fs.StringVar(&cfg.ScoresPath, "scores", cfg.ScoresPath, "SQLite score database path")
	timeout := fs.Duration("timeout", 30*time.Second, "overall timeout")
	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("parse flags: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, *timeout)
	defer cancel()

	store, err := sqlite.Open(cfg.ScoresPath)
	if err != nil {
		return err
	}
	defer store.Close()

	res, err := store.Clear(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "Cleared %s\n", cfg.ScoresPath)
	fmt.Fprintf(out, "Single scores: %d rows\n", res.SingleCount)
	fmt.Fprintf(out, "Multiplayer scores: %d rows\n", res.MultiCount)
	return nil
}
