package models

import "time"

// Podcast represents a podcast series. The identifier is chosen by the user
// and appears in public URLs, so it is restricted to lowercase alphanumerics
// and hyphens.
type Podcast struct {
	PodcastID   string    `db:"podcast_id"`
	Title       string    `db:"title"`
	Description string    `db:"description"`
	Author      string    `db:"author"`
	Language    string    `db:"language"`
	Category    string    `db:"category"`
	Explicit    string    `db:"explicit"`
	Image       string    `db:"image"`
	CreatedAt   time.Time `db:"created_at"`

	// Episodes is filled by the store when loading a full podcast.
	Episodes []Episode `db:"-"`
}
