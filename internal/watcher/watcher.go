package watcher

import (
	"context"
	"fmt"
	"log"

	"github.com/hibiken/asynq"

	"podcast-studio/internal/models"
	"podcast-studio/internal/opencast"
)

// EpisodeStore is the slice of the store the watcher needs.
type EpisodeStore interface {
	ListPendingEpisodes(ctx context.Context) ([]models.Episode, error)
	ResolveEpisode(ctx context.Context, episodeID, mediaURL string, mediaSize, mediaDuration int64) error
}

// PublicationChecker reports whether the publishing platform has finished
// processing an episode.
type PublicationChecker interface {
	QueryStatus(ctx context.Context, episodeID string) (*opencast.ResolvedMedia, error)
}

// FeedRebuilder regenerates the public feed of a podcast.
type FeedRebuilder interface {
	Rebuild(ctx context.Context, podcastID string) error
}

// Watcher reconciles pending episodes against the publishing platform. Each
// cycle takes a snapshot of the pending episodes, asks Opencast about each
// one, persists resolved media and regenerates the affected feed. A failure
// for one episode never aborts the rest of the cycle; the next scheduled
// cycle is the retry mechanism.
type Watcher struct {
	store    EpisodeStore
	opencast PublicationChecker
	feeds    FeedRebuilder
}

func New(store EpisodeStore, checker PublicationChecker, feeds FeedRebuilder) *Watcher {
	return &Watcher{
		store:    store,
		opencast: checker,
		feeds:    feeds,
	}
}

// HandleCheckPublicationsTask runs one reconciliation cycle. The scheduler
// enqueues this task at the polling interval; the web server enqueues it
// once right after an episode submission.
func (w *Watcher) HandleCheckPublicationsTask(ctx context.Context, t *asynq.Task) error {
	return w.RunCycle(ctx)
}

// RunCycle checks every pending episode once.
func (w *Watcher) RunCycle(ctx context.Context) error {
	episodes, err := w.store.ListPendingEpisodes(ctx)
	if err != nil {
		return fmt.Errorf("failed to list pending episodes: %w", err)
	}

	for _, episode := range episodes {
		log.Printf("Episode %s: checking publication", episode.EpisodeID)
		media, err := w.opencast.QueryStatus(ctx, episode.EpisodeID)
		if err != nil {
			log.Printf("Episode %s: publication check failed: %v", episode.EpisodeID, err)
			continue
		}
		if media == nil {
			// Still processing, check again next cycle.
			continue
		}

		log.Printf("Episode %s: published as %s", episode.EpisodeID, media.URL)
		if err := w.store.ResolveEpisode(ctx, episode.EpisodeID, media.URL, media.Size, media.Duration); err != nil {
			log.Printf("Episode %s: failed to store media: %v", episode.EpisodeID, err)
			continue
		}

		// The episode stays resolved even if the rebuild fails here; the
		// feed catches up when the next episode of this podcast resolves.
		if err := w.feeds.Rebuild(ctx, episode.PodcastID); err != nil {
			log.Printf("Podcast %s: feed rebuild failed: %v", episode.PodcastID, err)
		}
	}
	return nil
}
