package handlers

import (
	"context"
	"html/template"
	"log"
	"net/http"

	"podcast-studio/internal/models"
	"podcast-studio/internal/store"
	"podcast-studio/pkg/tasks"
)

// PublishingClient is the part of the Opencast client the front door uses.
type PublishingClient interface {
	CreateSeries(ctx context.Context, p *models.Podcast) error
	Submit(ctx context.Context, e *models.Episode, mediaPath, imagePath string) error
}

// FeedRebuilder regenerates the public feed of a podcast.
type FeedRebuilder interface {
	Rebuild(ctx context.Context, podcastID string) error
}

type Handlers struct {
	templates    *template.Template
	store        *store.Store
	publisher    PublishingClient
	feeds        FeedRebuilder
	asynqClient  tasks.TaskEnqueuer
	uploadDir    string
	uploadTmpDir string
	feedDir      string
}

func New(templates *template.Template, st *store.Store, publisher PublishingClient, feeds FeedRebuilder,
	asynqClient tasks.TaskEnqueuer, uploadDir, uploadTmpDir, feedDir string) *Handlers {
	return &Handlers{
		templates:    templates,
		store:        st,
		publisher:    publisher,
		feeds:        feeds,
		asynqClient:  asynqClient,
		uploadDir:    uploadDir,
		uploadTmpDir: uploadTmpDir,
		feedDir:      feedDir,
	}
}

// Index renders the podcast overview with the new-podcast form.
func (h *Handlers) Index(w http.ResponseWriter, r *http.Request) {
	podcasts, err := h.store.Podcasts(r.Context())
	if err != nil {
		log.Printf("Error listing podcasts: %v", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	data := struct {
		Podcasts []models.Podcast
	}{Podcasts: podcasts}

	if err := h.templates.ExecuteTemplate(w, "index.html", data); err != nil {
		http.Error(w, "Internal server error", http.StatusInternalServerError)
	}
}
