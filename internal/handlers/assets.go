package handlers

import (
	"net/http"
	"path/filepath"
	"strings"

	"github.com/gorilla/mux"
)

// ServeImage delivers an uploaded cover or episode image.
func (h *Handlers) ServeImage(w http.ResponseWriter, r *http.Request) {
	image := mux.Vars(r)["image"]
	if strings.Contains(image, "/") || strings.Contains(image, "..") {
		http.Error(w, "No such image", http.StatusNotFound)
		return
	}
	http.ServeFile(w, r, filepath.Join(h.uploadDir, image))
}

// ServeFeed delivers the generated RSS document of a podcast.
func (h *Handlers) ServeFeed(w http.ResponseWriter, r *http.Request) {
	podcastID := mux.Vars(r)["podcast_id"]
	if !podcastIDPattern.MatchString(podcastID) {
		http.Error(w, "No such feed", http.StatusNotFound)
		return
	}
	w.Header().Set("Content-Type", "application/rss+xml")
	http.ServeFile(w, r, filepath.Join(h.feedDir, podcastID+".xml"))
}
