package models

import "time"

// Episode represents a single podcast episode. The media fields stay NULL
// until the publishing platform has finished processing the episode; the
// watcher then fills all three in one update.
type Episode struct {
	EpisodeID     string    `db:"episode_id"`
	PodcastID     string    `db:"podcast_id"`
	Title         string    `db:"title"`
	Description   string    `db:"description"`
	Author        string    `db:"author"`
	Image         string    `db:"image"`
	Media         string    `db:"media"`
	PublishedAt   time.Time `db:"published_at"`
	MediaURL      *string   `db:"media_url"`
	MediaSize     *int64    `db:"media_size"`
	MediaDuration *int64    `db:"media_duration"`
	CreatedAt     time.Time `db:"created_at"`
}

// Resolved reports whether the publishing platform has delivered the media
// for this episode.
func (e Episode) Resolved() bool {
	return e.MediaURL != nil
}
