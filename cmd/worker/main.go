package main

import (
	"log"

	"github.com/hibiken/asynq"
	"github.com/joho/godotenv"

	"podcast-studio/internal/config"
	"podcast-studio/internal/feed"
	"podcast-studio/internal/opencast"
	"podcast-studio/internal/store"
	"podcast-studio/internal/watcher"
	"podcast-studio/pkg/tasks"
)

// CommitSHA is set at build time via ldflags
var CommitSHA = "unknown"

func main() {
	err := godotenv.Load()
	if err != nil {
		log.Println("Error loading .env file")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	st, err := store.Connect(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	oc := opencast.NewClient(cfg.OpencastURL, cfg.OpencastUser, cfg.OpencastPassword, cfg.OpencastWorkflow)
	feeds := feed.NewBuilder(st, cfg.BaseURL, cfg.FeedDir)
	w := watcher.New(st, oc, feeds)

	srv := asynq.NewServer(
		asynq.RedisClientOpt{Addr: cfg.RedisAddr},
		asynq.Config{
			// One cycle at a time; the reconciliation loop is sequential
			// and a second concurrent cycle would only race on the same
			// pending episodes.
			Concurrency: 1,
		},
	)

	mux := asynq.NewServeMux()
	mux.HandleFunc(tasks.TypeCheckPublications, w.HandleCheckPublicationsTask)

	log.Printf("Worker starting (commit: %s)", CommitSHA)
	if err := srv.Run(mux); err != nil {
		log.Fatalf("could not run server: %v", err)
	}
}
