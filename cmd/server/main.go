package main

import (
	"html/template"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/gorilla/mux"
	"github.com/hibiken/asynq"
	"github.com/joho/godotenv"
	"golang.org/x/time/rate"

	"podcast-studio/internal/config"
	"podcast-studio/internal/feed"
	"podcast-studio/internal/handlers"
	"podcast-studio/internal/middleware"
	"podcast-studio/internal/opencast"
	"podcast-studio/internal/store"
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

	for _, dir := range []string{cfg.UploadDir, cfg.UploadTmpDir, cfg.FeedDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			log.Fatalf("Failed to create directory %s: %v", dir, err)
		}
	}

	client := asynq.NewClient(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	defer client.Close()

	oc := opencast.NewClient(cfg.OpencastURL, cfg.OpencastUser, cfg.OpencastPassword, cfg.OpencastWorkflow)
	feeds := feed.NewBuilder(st, cfg.BaseURL, cfg.FeedDir)

	templates, err := template.ParseGlob(filepath.Join("web", "templates", "*.html"))
	if err != nil {
		log.Fatalf("Failed to parse templates: %v", err)
	}

	h := handlers.New(templates, st, oc, feeds, client, cfg.UploadDir, cfg.UploadTmpDir, cfg.FeedDir)
	limiter := middleware.NewRateLimiterMiddleware(rate.Every(time.Second), 5)

	r := mux.NewRouter()
	r.HandleFunc("/", h.Index).Methods(http.MethodGet)
	r.Handle("/", limiter.Middleware(http.HandlerFunc(h.CreatePodcast))).Methods(http.MethodPost)
	r.HandleFunc("/p/{podcast_id}", h.ShowPodcast).Methods(http.MethodGet)
	r.Handle("/p/{podcast_id}", limiter.Middleware(http.HandlerFunc(h.CreateEpisode))).Methods(http.MethodPost)
	r.HandleFunc("/i/{image}", h.ServeImage).Methods(http.MethodGet)
	r.HandleFunc("/r/{podcast_id}.xml", h.ServeFeed).Methods(http.MethodGet)

	log.Printf("Starting server on :%s (commit: %s)", cfg.Port, CommitSHA)
	if err := http.ListenAndServe(":"+cfg.Port, r); err != nil {
		log.Fatal(err)
	}
}
