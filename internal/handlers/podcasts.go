package handlers

import (
	"errors"
	"fmt"
	"io"
	"log"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"podcast-studio/internal/models"
	"podcast-studio/internal/store"
)

// Identifiers end up in public URLs and file names, so they are kept to a
// narrow pattern.
var podcastIDPattern = regexp.MustCompile(`^[a-z0-9-]{2,32}$`)

var imageExtensions = map[string]bool{
	"jpg":  true,
	"jpeg": true,
	"png":  true,
}

// CreatePodcast handles the new-podcast form: it stores the cover image,
// registers the podcast as an Opencast series, persists it and writes the
// initial (empty) feed.
func (h *Handlers) CreatePodcast(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		http.Error(w, "Failed to parse form", http.StatusBadRequest)
		return
	}

	identifier := r.FormValue("id")
	if !podcastIDPattern.MatchString(identifier) {
		http.Error(w, "Invalid identifier", http.StatusBadRequest)
		return
	}

	file, header, err := r.FormFile("image")
	if err != nil {
		http.Error(w, "Image is missing", http.StatusBadRequest)
		return
	}
	defer file.Close()

	ext := fileExtension(header.Filename)
	if !imageExtensions[ext] {
		http.Error(w, "Invalid image type", http.StatusBadRequest)
		return
	}

	filename := fmt.Sprintf("%s.%s", identifier, ext)
	if err := saveUpload(file, filepath.Join(h.uploadDir, filename)); err != nil {
		log.Printf("Error saving cover image for %s: %v", identifier, err)
		http.Error(w, "Failed to save image", http.StatusInternalServerError)
		return
	}

	podcast := &models.Podcast{
		PodcastID:   identifier,
		Title:       r.FormValue("title"),
		Description: r.FormValue("description"),
		Author:      r.FormValue("author"),
		Language:    r.FormValue("language"),
		Category:    r.FormValue("category"),
		Explicit:    r.FormValue("explicit"),
		Image:       filename,
	}

	if err := h.publisher.CreateSeries(r.Context(), podcast); err != nil {
		log.Printf("Error creating series %s: %v", identifier, err)
		http.Error(w, "Failed to register podcast with Opencast", http.StatusBadGateway)
		return
	}

	if err := h.store.CreatePodcast(r.Context(), podcast); err != nil {
		if errors.Is(err, store.ErrConflict) {
			http.Error(w, "Identifier already exists", http.StatusConflict)
			return
		}
		log.Printf("Error creating podcast %s: %v", identifier, err)
		http.Error(w, "Failed to create podcast", http.StatusInternalServerError)
		return
	}

	// The feed is a cache, so a failure here only delays it until the
	// first episode resolves.
	if err := h.feeds.Rebuild(r.Context(), identifier); err != nil {
		log.Printf("Error writing initial feed for %s: %v", identifier, err)
	}

	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func fileExtension(filename string) string {
	parts := strings.Split(strings.ToLower(filename), ".")
	return parts[len(parts)-1]
}

func saveUpload(src multipart.File, path string) error {
	dst, err := os.Create(path)
	if err != nil {
		return err
	}
	defer dst.Close()
	_, err = io.Copy(dst, src)
	return err
}
