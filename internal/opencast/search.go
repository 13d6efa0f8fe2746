package opencast

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
)

// The search API encodes single-element collections as plain objects and
// larger ones as arrays. oneOrMany accepts both shapes.
type oneOrMany[T any] []T

func (l *oneOrMany[T]) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if bytes.Equal(trimmed, []byte("null")) {
		*l = nil
		return nil
	}
	if len(trimmed) > 0 && trimmed[0] == '[' {
		var items []T
		if err := json.Unmarshal(trimmed, &items); err != nil {
			return err
		}
		*l = items
		return nil
	}
	var item T
	if err := json.Unmarshal(trimmed, &item); err != nil {
		return err
	}
	*l = []T{item}
	return nil
}

type searchResponse struct {
	SearchResults struct {
		Result oneOrMany[searchResult] `json:"result"`
	} `json:"search-results"`
}

type searchResult struct {
	Mediapackage struct {
		Media struct {
			Track oneOrMany[track] `json:"track"`
		} `json:"media"`
	} `json:"mediapackage"`
}

type track struct {
	Type     string `json:"type"`
	URL      string `json:"url"`
	Size     int64  `json:"size"`
	Duration int64  `json:"duration"`
}

// parseAudioTrack extracts the processed audio track from a search response.
// It returns nil when the episode has not been published yet.
func parseAudioTrack(r io.Reader) (*track, error) {
	var response searchResponse
	if err := json.NewDecoder(r).Decode(&response); err != nil {
		return nil, fmt.Errorf("failed to decode search response: %w", err)
	}

	results := response.SearchResults.Result
	if len(results) == 0 {
		return nil, nil
	}
	for _, t := range results[0].Mediapackage.Media.Track {
		if t.Type == "presenter/audio" {
			return &t, nil
		}
	}
	return nil, nil
}
