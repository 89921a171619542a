package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"candy-rush/auth"
	"candy-rush/config"
	"candy-rush/game"
	"candy-rush/handlers"
	"candy-rush/scores"
	"candy-rush/scores/sqlite"
	"candy-rush/telemetry"
	"candy-rush/webrtc"
)

const shutdownTimeout = 10 * time.Second

func main() {
	log.SetPrefix("[candy-rush] ")
	log.SetFlags(log.LstdFlags | log.Lmicroseconds)

	cfg, err := config.Load(flag.CommandLine, os.Args[1:])
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		log.Fatalf("server: %v", err)
	}
}

func run(ctx context.Context, cfg config.Config) error {
	shutdownTracing, err := telemetry.Setup(ctx, "candy-rush", cfg.OTelEndpoint)
	if err != nil {
		return err
	}
	defer func() {
		tctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := shutdownTracing(tctx); err != nil {
			log.Printf("Tracing shutdown: %v", err)
		}
	}()

	repo, closeRepo, err := openScores(cfg.ScoresPath)
	if err != nil {
		return err
	}
	defer closeRepo()

	gameManager := game.NewGameManager(repo, game.DefaultTuning(), nil)
	webrtcManager := webrtc.NewManager(cfg.ICEServers, cfg.ICEUsername, cfg.ICECredential, nil)

	router := handlers.NewRouter(handlers.Deps{
		GameManager:   gameManager,
		Scores:        repo,
		Issuer:        auth.NewIssuer(cfg.JWTSecret),
		WebRTC:        webrtcManager,
		AllowedOrigin: cfg.AllowedOrigin,
	})

	srv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Printf("Server starting on port %s", cfg.Port)
		log.Printf("WebSocket endpoint: /ws  WebRTC offers: /webrtc/offer  Scores: /api/scores")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Printf("Shutting down")
		sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		err := srv.Shutdown(sctx)
		webrtcManager.Shutdown()
		gameManager.Shutdown()
		return err
	})
	return g.Wait()
}

// openScores selects the sqlite store, or memory when path is empty.
func openScores(path string) (scores.Repository, func(), error) {
	if path == "" {
		log.Printf("Scores kept in memory")
		return scores.NewMemoryStore(), func() {}, nil
	}
	store, err := sqlite.Open(path)
	if err != nil {
		return nil, nil, err
	}
	log.Printf("Scores stored in %s", path)
	return store, func() {
		if err := store.Close(); err != nil {
			log.Printf("Close scores: %v", err)
		}
	}, nil
}
