package handlers

import (
	"bytes"
	"context"
	"database/sql"
	"html/template"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/gorilla/mux"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"podcast-studio/internal/models"
	"podcast-studio/internal/test"
	"podcast-studio/pkg/tasks"
)

type fakePublisher struct {
	series    []*models.Podcast
	submitted []*models.Episode
	// paths passed to Submit, and whether the media file existed then
	mediaPath      string
	imagePath      string
	mediaExistedAt bool
	seriesErr      error
	submitErr      error
}

func (f *fakePublisher) CreateSeries(ctx context.Context, p *models.Podcast) error {
	if f.seriesErr != nil {
		return f.seriesErr
	}
	f.series = append(f.series, p)
	return nil
}

func (f *fakePublisher) Submit(ctx context.Context, e *models.Episode, mediaPath, imagePath string) error {
	if f.submitErr != nil {
		return f.submitErr
	}
	f.submitted = append(f.submitted, e)
	f.mediaPath = mediaPath
	f.imagePath = imagePath
	_, err := os.Stat(mediaPath)
	f.mediaExistedAt = err == nil
	return nil
}

type fakeRebuilder struct {
	rebuilt []string
}

func (f *fakeRebuilder) Rebuild(ctx context.Context, podcastID string) error {
	f.rebuilt = append(f.rebuilt, podcastID)
	return nil
}

type testEnv struct {
	handlers  *Handlers
	mock      sqlmock.Sqlmock
	publisher *fakePublisher
	feeds     *fakeRebuilder
	enqueuer  *test.MockTaskEnqueuer
	uploadDir string
	tmpDir    string
}

func newTestEnv(t *testing.T) *testEnv {
	st, mock := test.NewMockStore(t)
	publisher := &fakePublisher{}
	feeds := &fakeRebuilder{}
	enqueuer := &test.MockTaskEnqueuer{}
	uploadDir := t.TempDir()
	tmpDir := t.TempDir()
	feedDir := t.TempDir()

	templates := template.Must(template.New("t").Parse(
		`{{define "index.html"}}index{{end}}{{define "podcast.html"}}{{.Title}}{{end}}`))

	return &testEnv{
		handlers:  New(templates, st, publisher, feeds, enqueuer, uploadDir, tmpDir, feedDir),
		mock:      mock,
		publisher: publisher,
		feeds:     feeds,
		enqueuer:  enqueuer,
		uploadDir: uploadDir,
		tmpDir:    tmpDir,
	}
}

func multipartBody(t *testing.T, fields map[string]string, files map[string][2]string) (*bytes.Buffer, string) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for key, value := range fields {
		require.NoError(t, mw.WriteField(key, value))
	}
	for field, file := range files {
		part, err := mw.CreateFormFile(field, file[0])
		require.NoError(t, err)
		_, err = part.Write([]byte(file[1]))
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())
	return &buf, mw.FormDataContentType()
}

func expectGetPodcast(mock sqlmock.Sqlmock, podcastID string) {
	now := time.Now()
	mock.ExpectBegin()
	mock.ExpectQuery("FROM podcasts").
		WithArgs(podcastID).
		WillReturnRows(sqlmock.NewRows([]string{"podcast_id", "title", "description", "author",
			"language", "category", "explicit", "image", "created_at"}).
			AddRow(podcastID, "Lecture Series", "Recorded lectures", "Jane Doe",
				"en", "Education, Courses", "no", podcastID+".png", now))
	mock.ExpectQuery("FROM episodes").
		WithArgs(podcastID).
		WillReturnRows(sqlmock.NewRows([]string{"episode_id", "podcast_id", "title", "description",
			"author", "image", "media", "published_at", "media_url", "media_size", "media_duration", "created_at"}))
	mock.ExpectCommit()
}

func TestCreatePodcast(t *testing.T) {
	env := newTestEnv(t)

	body, contentType := multipartBody(t,
		map[string]string{
			"id":          "lecture-series",
			"title":       "Lecture Series",
			"description": "Recorded lectures",
			"author":      "Jane Doe",
			"language":    "en",
			"category":    "Education, Courses",
			"explicit":    "no",
		},
		map[string][2]string{"image": {"cover.PNG", "image-bytes"}})

	env.mock.ExpectBegin()
	env.mock.ExpectExec("INSERT INTO podcasts").
		WithArgs("lecture-series", "Lecture Series", "Recorded lectures", "Jane Doe",
			"en", "Education, Courses", "no", "lecture-series.png").
		WillReturnResult(sqlmock.NewResult(0, 1))
	env.mock.ExpectCommit()

	req := httptest.NewRequest(http.MethodPost, "/", body)
	req.Header.Set("Content-Type", contentType)
	rr := httptest.NewRecorder()

	env.handlers.CreatePodcast(rr, req)

	assert.Equal(t, http.StatusSeeOther, rr.Code)
	require.Len(t, env.publisher.series, 1)
	assert.Equal(t, "lecture-series", env.publisher.series[0].PodcastID)
	assert.Equal(t, []string{"lecture-series"}, env.feeds.rebuilt)

	saved, err := os.ReadFile(filepath.Join(env.uploadDir, "lecture-series.png"))
	require.NoError(t, err)
	assert.Equal(t, "image-bytes", string(saved))

	if err := env.mock.ExpectationsWereMet(); err != nil {
		t.Errorf("there were unfulfilled expectations: %s", err)
	}
}

func TestCreatePodcastInvalidIdentifier(t *testing.T) {
	env := newTestEnv(t)

	body, contentType := multipartBody(t,
		map[string]string{"id": "Invalid_ID!"},
		map[string][2]string{"image": {"cover.png", "image-bytes"}})

	req := httptest.NewRequest(http.MethodPost, "/", body)
	req.Header.Set("Content-Type", contentType)
	rr := httptest.NewRecorder()

	env.handlers.CreatePodcast(rr, req)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Empty(t, env.publisher.series)
}

func TestCreatePodcastMissingImage(t *testing.T) {
	env := newTestEnv(t)

	body, contentType := multipartBody(t, map[string]string{"id": "lecture-series"}, nil)

	req := httptest.NewRequest(http.MethodPost, "/", body)
	req.Header.Set("Content-Type", contentType)
	rr := httptest.NewRecorder()

	env.handlers.CreatePodcast(rr, req)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestCreatePodcastConflict(t *testing.T) {
	env := newTestEnv(t)

	body, contentType := multipartBody(t,
		map[string]string{"id": "lecture-series", "title": "Lecture Series"},
		map[string][2]string{"image": {"cover.png", "image-bytes"}})

	env.mock.ExpectBegin()
	env.mock.ExpectExec("INSERT INTO podcasts").
		WillReturnError(&pq.Error{Code: "23505"})
	env.mock.ExpectRollback()

	req := httptest.NewRequest(http.MethodPost, "/", body)
	req.Header.Set("Content-Type", contentType)
	rr := httptest.NewRecorder()

	env.handlers.CreatePodcast(rr, req)

	assert.Equal(t, http.StatusConflict, rr.Code)
	assert.Empty(t, env.feeds.rebuilt)
}

func TestCreateEpisode(t *testing.T) {
	env := newTestEnv(t)

	body, contentType := multipartBody(t,
		map[string]string{
			"title":       "Episode 1",
			"description": "First lecture",
			"author":      "Jane Doe",
		},
		map[string][2]string{"media": {"lecture.mp3", "media-bytes"}})

	expectGetPodcast(env.mock, "lecture-series")
	env.mock.ExpectBegin()
	env.mock.ExpectExec("INSERT INTO episodes").
		WithArgs(sqlmock.AnyArg(), "lecture-series", "Episode 1", "First lecture",
			"Jane Doe", "lecture-series.png", sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	env.mock.ExpectCommit()

	req := httptest.NewRequest(http.MethodPost, "/p/lecture-series", body)
	req.Header.Set("Content-Type", contentType)
	req = mux.SetURLVars(req, map[string]string{"podcast_id": "lecture-series"})
	rr := httptest.NewRecorder()

	env.handlers.CreateEpisode(rr, req)

	assert.Equal(t, http.StatusSeeOther, rr.Code)
	require.Len(t, env.publisher.submitted, 1)
	episode := env.publisher.submitted[0]
	assert.Equal(t, "lecture-series", episode.PodcastID)
	// Episode inherits the podcast cover when no image is uploaded.
	assert.Equal(t, "lecture-series.png", episode.Image)
	assert.True(t, env.publisher.mediaExistedAt)

	// The staged media file is deleted once Opencast has it.
	_, err := os.Stat(env.publisher.mediaPath)
	assert.True(t, os.IsNotExist(err))

	require.Len(t, env.enqueuer.EnqueuedTasks, 1)
	assert.Equal(t, tasks.TypeCheckPublications, env.enqueuer.EnqueuedTasks[0].Type())

	if err := env.mock.ExpectationsWereMet(); err != nil {
		t.Errorf("there were unfulfilled expectations: %s", err)
	}
}

func TestCreateEpisodeInvalidMediaType(t *testing.T) {
	env := newTestEnv(t)

	body, contentType := multipartBody(t,
		map[string]string{"title": "Episode 1"},
		map[string][2]string{"media": {"lecture.wav", "media-bytes"}})

	expectGetPodcast(env.mock, "lecture-series")

	req := httptest.NewRequest(http.MethodPost, "/p/lecture-series", body)
	req.Header.Set("Content-Type", contentType)
	req = mux.SetURLVars(req, map[string]string{"podcast_id": "lecture-series"})
	rr := httptest.NewRecorder()

	env.handlers.CreateEpisode(rr, req)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Empty(t, env.publisher.submitted)
	assert.Empty(t, env.enqueuer.EnqueuedTasks)
}

func TestCreateEpisodeUnknownPodcast(t *testing.T) {
	env := newTestEnv(t)

	body, contentType := multipartBody(t,
		map[string]string{"title": "Episode 1"},
		map[string][2]string{"media": {"lecture.mp3", "media-bytes"}})

	env.mock.ExpectBegin()
	env.mock.ExpectQuery("FROM podcasts").
		WithArgs("missing").
		WillReturnError(sql.ErrNoRows)
	env.mock.ExpectRollback()

	req := httptest.NewRequest(http.MethodPost, "/p/missing", body)
	req.Header.Set("Content-Type", contentType)
	req = mux.SetURLVars(req, map[string]string{"podcast_id": "missing"})
	rr := httptest.NewRecorder()

	env.handlers.CreateEpisode(rr, req)

	assert.Equal(t, http.StatusNotFound, rr.Code)
	assert.Empty(t, env.publisher.submitted)
}

func TestServeImageRejectsTraversal(t *testing.T) {
	env := newTestEnv(t)

	req := httptest.NewRequest(http.MethodGet, "/i/secret", nil)
	req = mux.SetURLVars(req, map[string]string{"image": "../secret"})
	rr := httptest.NewRecorder()

	env.handlers.ServeImage(rr, req)

	assert.Equal(t, http.StatusNotFound, rr.Code)
}
