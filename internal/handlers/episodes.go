package handlers

import (
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"podcast-studio/internal/models"
	"podcast-studio/internal/store"
	"podcast-studio/pkg/tasks"
)

var mediaExtensions = map[string]bool{
	"mp3": true,
	"m4a": true,
}

// ShowPodcast renders a podcast page with its episodes and the new-episode
// form.
func (h *Handlers) ShowPodcast(w http.ResponseWriter, r *http.Request) {
	podcastID := mux.Vars(r)["podcast_id"]

	podcast, err := h.store.GetPodcast(r.Context(), podcastID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			http.Error(w, "No such podcast", http.StatusNotFound)
			return
		}
		log.Printf("Error loading podcast %s: %v", podcastID, err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	if err := h.templates.ExecuteTemplate(w, "podcast.html", podcast); err != nil {
		http.Error(w, "Internal server error", http.StatusInternalServerError)
	}
}

// CreateEpisode handles the new-episode form. The media file is staged to a
// temporary directory just long enough to hand it to Opencast; the episode
// is then persisted as pending and a publication check is enqueued so the
// watcher picks it up without waiting a full interval.
func (h *Handlers) CreateEpisode(w http.ResponseWriter, r *http.Request) {
	podcastID := mux.Vars(r)["podcast_id"]

	podcast, err := h.store.GetPodcast(r.Context(), podcastID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			http.Error(w, "No such podcast", http.StatusNotFound)
			return
		}
		log.Printf("Error loading podcast %s: %v", podcastID, err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	if err := r.ParseMultipartForm(512 << 20); err != nil {
		http.Error(w, "Failed to parse form", http.StatusBadRequest)
		return
	}

	episode := &models.Episode{
		EpisodeID:   uuid.NewString(),
		PodcastID:   podcastID,
		Title:       r.FormValue("title"),
		Description: r.FormValue("description"),
		Author:      r.FormValue("author"),
		PublishedAt: time.Now(),
	}

	media, mediaHeader, err := r.FormFile("media")
	if err != nil {
		http.Error(w, "Media file is missing", http.StatusBadRequest)
		return
	}
	defer media.Close()

	ext := fileExtension(mediaHeader.Filename)
	if !mediaExtensions[ext] {
		http.Error(w, "Invalid media type", http.StatusBadRequest)
		return
	}
	episode.Media = fmt.Sprintf("%s-%s.%s", podcastID, episode.EpisodeID, ext)
	mediaTmpPath := filepath.Join(h.uploadTmpDir, episode.Media)
	if err := saveUpload(media, mediaTmpPath); err != nil {
		log.Printf("Error staging media for episode %s: %v", episode.EpisodeID, err)
		http.Error(w, "Failed to save media", http.StatusInternalServerError)
		return
	}

	imagePath, err := h.saveEpisodeImage(r, episode, podcast)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	if err := h.publisher.Submit(r.Context(), episode, mediaTmpPath, imagePath); err != nil {
		log.Printf("Error ingesting episode %s: %v", episode.EpisodeID, err)
		http.Error(w, "Failed to submit episode to Opencast", http.StatusBadGateway)
		return
	}

	log.Printf("Deleting temporary file %s", episode.Media)
	if err := os.Remove(mediaTmpPath); err != nil {
		log.Printf("Error deleting temporary file %s: %v", mediaTmpPath, err)
	}

	if err := h.store.CreateEpisode(r.Context(), episode); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			http.Error(w, "No such podcast", http.StatusNotFound)
			return
		}
		log.Printf("Error creating episode %s: %v", episode.EpisodeID, err)
		http.Error(w, "Failed to create episode", http.StatusInternalServerError)
		return
	}

	task, err := tasks.NewCheckPublicationsTask()
	if err != nil {
		log.Printf("Error creating publication check task: %v", err)
	} else if _, err := h.asynqClient.Enqueue(task); err != nil {
		log.Printf("Error enqueuing publication check task: %v", err)
	}

	http.Redirect(w, r, fmt.Sprintf("/p/%s", podcastID), http.StatusSeeOther)
}

// saveEpisodeImage stores the uploaded episode image, or falls back to the
// podcast cover when none was provided. It returns the path handed to the
// Opencast ingest.
func (h *Handlers) saveEpisodeImage(r *http.Request, episode *models.Episode, podcast *models.Podcast) (string, error) {
	image, imageHeader, err := r.FormFile("image")
	if err != nil {
		// No episode image, use the podcast's cover image.
		episode.Image = podcast.Image
		return filepath.Join(h.uploadDir, podcast.Image), nil
	}
	defer image.Close()

	ext := fileExtension(imageHeader.Filename)
	if !imageExtensions[ext] {
		return "", errors.New("Invalid image type")
	}
	episode.Image = fmt.Sprintf("%s-%s.%s", episode.PodcastID, episode.EpisodeID, ext)
	path := filepath.Join(h.uploadDir, episode.Image)
	if err := saveUpload(image, path); err != nil {
		log.Printf("Error saving image for episode %s: %v", episode.EpisodeID, err)
		return "", errors.New("Failed to save image")
	}
	return path, nil
}
