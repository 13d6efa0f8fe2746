package store

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"podcast-studio/internal/models"
)

// CreateEpisode inserts a new episode with the media fields unset. It
// returns ErrNotFound if the parent podcast does not exist.
func (s *Store) CreateEpisode(ctx context.Context, e *models.Episode) error {
	return s.inTx(ctx, func(tx *sqlx.Tx) error {
		query := `
			INSERT INTO episodes (episode_id, podcast_id, title, description, author, image, media, published_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		`
		_, err := tx.ExecContext(ctx, query,
			e.EpisodeID, e.PodcastID, e.Title, e.Description, e.Author, e.Image, e.Media, e.PublishedAt)
		if err != nil {
			return fmt.Errorf("failed to insert episode %s: %w", e.EpisodeID, translate(err))
		}
		return nil
	})
}

// ListPendingEpisodes returns all episodes, across all podcasts, whose media
// has not been resolved yet.
func (s *Store) ListPendingEpisodes(ctx context.Context) ([]models.Episode, error) {
	var episodes []models.Episode
	err := s.inTx(ctx, func(tx *sqlx.Tx) error {
		query := `
			SELECT episode_id, podcast_id, title, description, author, image, media,
			       published_at, media_url, media_size, media_duration, created_at
			FROM episodes
			WHERE media_url IS NULL
			ORDER BY created_at
		`
		return tx.SelectContext(ctx, &episodes, query)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list pending episodes: %w", err)
	}
	return episodes, nil
}

// ResolveEpisode records the media delivered by the publishing platform.
// The update only touches episodes that are still pending, so a concurrent
// or repeated resolution of the same episode is a no-op.
func (s *Store) ResolveEpisode(ctx context.Context, episodeID, mediaURL string, mediaSize, mediaDuration int64) error {
	return s.inTx(ctx, func(tx *sqlx.Tx) error {
		query := `
			UPDATE episodes
			SET media_url = $2, media_size = $3, media_duration = $4
			WHERE episode_id = $1 AND media_url IS NULL
		`
		_, err := tx.ExecContext(ctx, query, episodeID, mediaURL, mediaSize, mediaDuration)
		if err != nil {
			return fmt.Errorf("failed to resolve episode %s: %w", episodeID, err)
		}
		return nil
	})
}
