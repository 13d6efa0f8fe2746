package feed

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/eduncan911/podcast"

	"podcast-studio/internal/models"
)

// PodcastStore loads a podcast together with its episodes.
type PodcastStore interface {
	GetPodcast(ctx context.Context, podcastID string) (*models.Podcast, error)
}

// Builder regenerates the public RSS document of a podcast from the current
// store contents. The feed file is a cache: it can be rebuilt at any time.
type Builder struct {
	store   PodcastStore
	baseURL string
	feedDir string
}

func NewBuilder(store PodcastStore, baseURL, feedDir string) *Builder {
	return &Builder{
		store:   store,
		baseURL: strings.TrimRight(baseURL, "/"),
		feedDir: feedDir,
	}
}

// Rebuild regenerates the feed document for a podcast and atomically
// replaces the previous one. Episodes whose media has not been resolved yet
// are left out.
func (b *Builder) Rebuild(ctx context.Context, podcastID string) error {
	p, err := b.store.GetPodcast(ctx, podcastID)
	if err != nil {
		return fmt.Errorf("failed to load podcast %s: %w", podcastID, err)
	}

	feed := podcast.New(p.Title, fmt.Sprintf("%s/p/%s", b.baseURL, p.PodcastID), p.Description, nil, nil)
	feed.Language = p.Language
	feed.IAuthor = p.Author
	if p.Explicit != "" {
		feed.IExplicit = p.Explicit
	}
	feed.AddImage(fmt.Sprintf("%s/i/%s", b.baseURL, p.Image))
	feed.AddAtomLink(fmt.Sprintf("%s/r/%s.xml", b.baseURL, p.PodcastID))
	if p.Category != "" {
		// "Category, Subcategory" as submitted by the form
		parts := strings.SplitN(p.Category, ", ", 2)
		if len(parts) == 2 {
			feed.AddCategory(parts[0], []string{parts[1]})
		} else {
			feed.AddCategory(parts[0], nil)
		}
	}

	for _, episode := range p.Episodes {
		if !episode.Resolved() {
			continue
		}
		item := podcast.Item{
			Title:       episode.Title,
			Description: episode.Description,
			Link:        fmt.Sprintf("%s/p/%s/%s", b.baseURL, p.PodcastID, episode.EpisodeID),
			IAuthor:     episode.Author,
		}
		publishedAt := episode.PublishedAt
		item.AddPubDate(&publishedAt)
		item.AddImage(fmt.Sprintf("%s/i/%s", b.baseURL, episode.Image))
		item.AddDuration(*episode.MediaDuration)
		item.AddEnclosure(*episode.MediaURL, enclosureType(*episode.MediaURL), *episode.MediaSize)
		if _, err := feed.AddItem(item); err != nil {
			return fmt.Errorf("failed to add episode %s to feed: %w", episode.EpisodeID, err)
		}
	}

	return b.write(podcastID, &feed)
}

// write publishes the feed via a temporary file and an atomic rename, so
// readers never see a partially written document.
func (b *Builder) write(podcastID string, feed *podcast.Podcast) error {
	path := filepath.Join(b.feedDir, podcastID+".xml")
	tmp, err := os.CreateTemp(b.feedDir, podcastID+"-*.xml.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temporary feed file: %w", err)
	}
	if err := feed.Encode(tmp); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to encode feed for %s: %w", podcastID, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to close temporary feed file: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to replace feed for %s: %w", podcastID, err)
	}
	return nil
}

func enclosureType(mediaURL string) podcast.EnclosureType {
	switch strings.ToLower(filepath.Ext(mediaURL)) {
	case ".m4a":
		return podcast.M4A
	case ".m4v":
		return podcast.M4V
	case ".mp4":
		return podcast.MP4
	default:
		return podcast.MP3
	}
}
