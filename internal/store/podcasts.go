package store

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"podcast-studio/internal/models"
)

// CreatePodcast inserts a new podcast. It returns ErrConflict if the
// identifier is already taken.
func (s *Store) CreatePodcast(ctx context.Context, p *models.Podcast) error {
	return s.inTx(ctx, func(tx *sqlx.Tx) error {
		query := `
			INSERT INTO podcasts (podcast_id, title, description, author, language, category, explicit, image)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		`
		_, err := tx.ExecContext(ctx, query,
			p.PodcastID, p.Title, p.Description, p.Author, p.Language, p.Category, p.Explicit, p.Image)
		if err != nil {
			return fmt.Errorf("failed to insert podcast %s: %w", p.PodcastID, translate(err))
		}
		return nil
	})
}

// Podcasts returns all podcasts ordered by creation time.
func (s *Store) Podcasts(ctx context.Context) ([]models.Podcast, error) {
	var podcasts []models.Podcast
	err := s.inTx(ctx, func(tx *sqlx.Tx) error {
		query := `
			SELECT podcast_id, title, description, author, language, category, explicit, image, created_at
			FROM podcasts
			ORDER BY created_at
		`
		return tx.SelectContext(ctx, &podcasts, query)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list podcasts: %w", err)
	}
	return podcasts, nil
}

// GetPodcast loads a podcast together with its episodes, oldest first. It
// returns ErrNotFound if the podcast does not exist.
func (s *Store) GetPodcast(ctx context.Context, podcastID string) (*models.Podcast, error) {
	podcast := &models.Podcast{}
	err := s.inTx(ctx, func(tx *sqlx.Tx) error {
		query := `
			SELECT podcast_id, title, description, author, language, category, explicit, image, created_at
			FROM podcasts
			WHERE podcast_id = $1
		`
		if err := tx.GetContext(ctx, podcast, query, podcastID); err != nil {
			return fmt.Errorf("failed to get podcast %s: %w", podcastID, translate(err))
		}
		query = `
			SELECT episode_id, podcast_id, title, description, author, image, media,
			       published_at, media_url, media_size, media_duration, created_at
			FROM episodes
			WHERE podcast_id = $1
			ORDER BY created_at
		`
		if err := tx.SelectContext(ctx, &podcast.Episodes, query, podcastID); err != nil {
			return fmt.Errorf("failed to get episodes for podcast %s: %w", podcastID, err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return podcast, nil
}
