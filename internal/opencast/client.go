package opencast

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"podcast-studio/internal/models"
)

// publicACL grants anonymous read access to published media.
const publicACL = `{"acl": {"ace": [{"allow": true,"role": "ROLE_ANONYMOUS","action": "read"}]}}`

// UpstreamError reports a transport or HTTP failure while talking to the
// Opencast server. "Not published yet" is not an upstream error.
type UpstreamError struct {
	Op         string
	StatusCode int
	Err        error
}

func (e *UpstreamError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("opencast %s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("opencast %s: unexpected status %d", e.Op, e.StatusCode)
}

func (e *UpstreamError) Unwrap() error {
	return e.Err
}

// ResolvedMedia is the processed audio track published by Opencast.
type ResolvedMedia struct {
	URL      string
	Size     int64
	Duration int64
}

// Client talks to an Opencast server using basic auth.
type Client struct {
	baseURL    string
	username   string
	password   string
	workflow   string
	httpClient *http.Client
}

// NewClient creates a client for the given Opencast server. The workflow
// identifier selects the processing pipeline used for ingested episodes.
func NewClient(baseURL, username, password, workflow string) *Client {
	return &Client{
		baseURL:  strings.TrimRight(baseURL, "/"),
		username: username,
		password: password,
		workflow: workflow,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

func (c *Client) do(req *http.Request, op string) (*http.Response, error) {
	req.SetBasicAuth(c.username, c.password)
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &UpstreamError{Op: op, Err: err}
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		resp.Body.Close()
		return nil, &UpstreamError{Op: op, StatusCode: resp.StatusCode}
	}
	return resp, nil
}

// CreateSeries registers a podcast as an Opencast series.
func (c *Client) CreateSeries(ctx context.Context, p *models.Podcast) error {
	form := url.Values{}
	form.Set("identifier", p.PodcastID)
	form.Set("publisher", p.Author)
	form.Set("title", p.Title)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/series/", strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("failed to build series request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.do(req, "create series")
	if err != nil {
		return err
	}
	resp.Body.Close()
	return nil
}

// Submit ingests an episode's metadata, cover image and media file into the
// configured workflow. The uploaded media is readable anonymously once
// processing finishes.
func (c *Client) Submit(ctx context.Context, e *models.Episode, mediaPath, imagePath string) error {
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)

	fields := [][2]string{
		{"acl", publicACL},
		{"identifier", e.EpisodeID},
		{"title", e.Title},
		{"publisher", e.Author},
		{"isPartOf", e.PodcastID},
	}
	for _, field := range fields {
		if err := mw.WriteField(field[0], field[1]); err != nil {
			return fmt.Errorf("failed to write field %s: %w", field[0], err)
		}
	}
	for _, path := range []string{imagePath, mediaPath} {
		if err := mw.WriteField("flavor", "presenter/source"); err != nil {
			return fmt.Errorf("failed to write flavor field: %w", err)
		}
		if err := attachFile(mw, path); err != nil {
			return err
		}
	}
	if err := mw.Close(); err != nil {
		return fmt.Errorf("failed to finalize upload body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		fmt.Sprintf("%s/ingest/addMediaPackage/%s", c.baseURL, c.workflow), &body)
	if err != nil {
		return fmt.Errorf("failed to build ingest request: %w", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	resp, err := c.do(req, "ingest episode")
	if err != nil {
		return err
	}
	resp.Body.Close()
	return nil
}

func attachFile(mw *multipart.Writer, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open upload %s: %w", path, err)
	}
	defer f.Close()

	part, err := mw.CreateFormFile("BODY", filepath.Base(path))
	if err != nil {
		return fmt.Errorf("failed to create upload part: %w", err)
	}
	if _, err := io.Copy(part, f); err != nil {
		return fmt.Errorf("failed to copy upload %s: %w", path, err)
	}
	return nil
}

// QueryStatus asks Opencast whether processing for an episode has finished.
// It returns nil without an error while the episode is still unpublished.
func (c *Client) QueryStatus(ctx context.Context, episodeID string) (*ResolvedMedia, error) {
	query := url.Values{}
	query.Set("id", episodeID)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		c.baseURL+"/search/episode.json?"+query.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build search request: %w", err)
	}

	resp, err := c.do(req, "search episode")
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	track, err := parseAudioTrack(resp.Body)
	if err != nil {
		return nil, &UpstreamError{Op: "search episode", Err: err}
	}
	if track == nil {
		return nil, nil
	}
	return &ResolvedMedia{
		URL:      track.URL,
		Size:     track.Size,
		Duration: track.Duration,
	}, nil
}
