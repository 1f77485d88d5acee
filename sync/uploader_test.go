// ABOUTME: Tests for the upload client and sequential upload queue
// ABOUTME: Covers form encoding, location gating, and per-item success/failure handling
package sync

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harperreed/fieldwork/assets"
	"github.com/harperreed/fieldwork/db"
	"github.com/harperreed/fieldwork/models"
	"github.com/harperreed/fieldwork/response"
)

type fakeLocator struct {
	loc  *models.Location
	err  error
	hits int
}

func (f *fakeLocator) Locate(ctx context.Context) (*models.Location, error) {
	f.hits++
	return f.loc, f.err
}

type fakeConfirmer struct {
	answers []bool
	asked   int
}

func (f *fakeConfirmer) Confirm(prompt string) bool {
	if f.asked >= len(f.answers) {
		return false
	}
	answer := f.answers[f.asked]
	f.asked++
	return answer
}

// uploadServer records upload requests and fails the request indexes
// listed in failOn.
type uploadServer struct {
	*httptest.Server
	requests []*http.Request
	forms    []map[string]string
	failOn   map[int]bool
}

func newUploadServer(t *testing.T, failOn ...int) *uploadServer {
	t.Helper()
	s := &uploadServer{failOn: make(map[int]bool)}
	for _, i := range failOn {
		s.failOn[i] = true
	}
	s.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		form := make(map[string]string)
		for k := range r.PostForm {
			form[k] = r.PostForm.Get(k)
		}
		index := len(s.requests)
		s.requests = append(s.requests, r)
		s.forms = append(s.forms, form)

		w.Header().Set("Content-Type", "application/json")
		if s.failOn[index] {
			_, _ = w.Write([]byte(`{"result":"failure","errors":[{"code":"0103","text":"invalid password"}]}`))
			return
		}
		_, _ = w.Write([]byte(`{"result":"success"}`))
	}))
	t.Cleanup(s.Close)
	return s
}

func setupUploader(t *testing.T, server *uploadServer, locator response.Locator, confirm Confirmer) (*Uploader, *response.Store, *sql.DB) {
	t.Helper()
	database, err := sql.Open("sqlite3", ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = database.Close() })
	require.NoError(t, db.InitSchema(database))

	images, err := assets.Open(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { _ = images.Close() })

	store := response.NewStore(database, images, locator)
	client := NewClient(server.URL, "jdoe", "hunter2", "fieldwork-test")
	return NewUploader(client, store, confirm), store, database
}

func submitted(t *testing.T, store *response.Store, answer string) *response.Handle {
	t.Helper()
	h, err := store.Begin("daily_checkin", "urn:campaign:test", "2026-01-02 10:00:00")
	require.NoError(t, err)
	require.NoError(t, h.Respond("mood", answer, false))
	require.NoError(t, h.Submit())
	return h
}

func noLocation() *bool {
	v := false
	return &v
}

func TestUploadFormFields(t *testing.T) {
	server := newUploadServer(t)
	uploader, store, _ := setupUploader(t, server, nil, nil)

	h := submitted(t, store, "4")
	require.NoError(t, uploader.Upload(context.Background(), h, noLocation()))

	require.Len(t, server.forms, 1)
	form := server.forms[0]
	assert.Equal(t, "urn:campaign:test", form["campaign_urn"])
	assert.Equal(t, "2026-01-02 10:00:00", form["campaign_creation_timestamp"])
	assert.Equal(t, "jdoe", form["user"])
	assert.Equal(t, "hunter2", form["password"])
	assert.Equal(t, "fieldwork-test", form["client"])

	var surveys []models.UploadItem
	require.NoError(t, json.Unmarshal([]byte(form["surveys"]), &surveys))
	require.Len(t, surveys, 1, "surveys field is a one-element JSON array")
	assert.Equal(t, h.Key(), surveys[0].SurveyKey)
	assert.Equal(t, "daily_checkin", surveys[0].SurveyID)

	var images map[string]string
	require.NoError(t, json.Unmarshal([]byte(form["images"]), &images))
	assert.Empty(t, images)

	assert.False(t, h.Deleted(), "single upload does not delete; the caller decides")
}

func TestUploadServerRejection(t *testing.T) {
	server := newUploadServer(t, 0)
	uploader, store, _ := setupUploader(t, server, nil, nil)

	h := submitted(t, store, "4")
	err := uploader.Upload(context.Background(), h, noLocation())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid password")
}

func TestUploadRecentSubmitWantsLocation(t *testing.T) {
	server := newUploadServer(t)
	locator := &fakeLocator{loc: &models.Location{Provider: "gps", Latitude: 1, Longitude: 2}}
	uploader, store, _ := setupUploader(t, server, locator, nil)

	h := submitted(t, store, "4")
	require.NoError(t, uploader.Upload(context.Background(), h, nil))

	assert.Equal(t, 1, locator.hits, "a just-submitted response triggers a location fix")

	var surveys []models.UploadItem
	require.NoError(t, json.Unmarshal([]byte(server.forms[0]["surveys"]), &surveys))
	require.NotNil(t, surveys[0].Location, "location travels on the wire once acquired")
	assert.Equal(t, models.LocationValid, surveys[0].LocationStatus)
}

func TestUploadOldSubmitSkipsLocation(t *testing.T) {
	server := newUploadServer(t)
	locator := &fakeLocator{loc: &models.Location{Provider: "gps"}}
	uploader, store, _ := setupUploader(t, server, locator, nil)

	h := submitted(t, store, "4")
	// Pretend the clock moved three minutes past the submit timestamp.
	uploader.now = func() time.Time { return h.SubmittedAt().Add(3 * time.Minute) }

	require.NoError(t, uploader.Upload(context.Background(), h, nil))
	assert.Equal(t, 0, locator.hits, "an old response does not re-prompt for location")
}

func TestUploadLocationRetryLoop(t *testing.T) {
	server := newUploadServer(t)
	locator := &fakeLocator{err: errors.New("no fix")}
	confirm := &fakeConfirmer{answers: []bool{true, true, false}}
	uploader, store, _ := setupUploader(t, server, locator, confirm)

	h := submitted(t, store, "4")
	require.NoError(t, uploader.Upload(context.Background(), h, nil))

	assert.Equal(t, 3, locator.hits, "retry until the user gives up")
	assert.Equal(t, 3, confirm.asked)
	require.Len(t, server.forms, 1, "giving up still uploads, without a location")

	var surveys []models.UploadItem
	require.NoError(t, json.Unmarshal([]byte(server.forms[0]["surveys"]), &surveys))
	assert.Nil(t, surveys[0].Location)
	assert.Equal(t, models.LocationUnavailable, surveys[0].LocationStatus)
}

func TestUploadAllSequentialWithMiddleFailure(t *testing.T) {
	server := newUploadServer(t, 1)
	uploader, store, database := setupUploader(t, server, nil, nil)

	first := submitted(t, store, "1")
	second := submitted(t, store, "2")
	third := submitted(t, store, "3")

	count, err := uploader.UploadAll(context.Background(), noLocation())
	require.NoError(t, err)
	assert.Equal(t, 2, count, "two of three uploads succeeded")
	require.Len(t, server.forms, 3, "a failure does not abort iteration")

	// First and third are gone; the second is still queued for retry.
	_, err = store.Restore(first.Key())
	assert.True(t, errors.Is(err, response.ErrNotFound))
	_, err = store.Restore(third.Key())
	assert.True(t, errors.Is(err, response.ErrNotFound))
	retained, err := store.Restore(second.Key())
	require.NoError(t, err)
	assert.NotNil(t, retained.SubmittedAt())

	var rows int
	require.NoError(t, database.QueryRow("SELECT COUNT(*) FROM responses").Scan(&rows))
	assert.Equal(t, 1, rows)

	// The failed item is re-offered on the next run.
	count, err = uploader.UploadAll(context.Background(), noLocation())
	require.NoError(t, err)
	assert.Equal(t, 1, count)
	_, err = store.Restore(second.Key())
	assert.True(t, errors.Is(err, response.ErrNotFound))
}

func TestUploadAllOrdering(t *testing.T) {
	server := newUploadServer(t)
	uploader, store, _ := setupUploader(t, server, nil, nil)

	a := submitted(t, store, "a")
	b := submitted(t, store, "b")
	c := submitted(t, store, "c")

	_, err := uploader.UploadAll(context.Background(), noLocation())
	require.NoError(t, err)

	var keys []string
	for _, form := range server.forms {
		var surveys []models.UploadItem
		require.NoError(t, json.Unmarshal([]byte(form["surveys"]), &surveys))
		keys = append(keys, surveys[0].SurveyKey)
	}
	assert.Equal(t, []string{a.Key(), b.Key(), c.Key()}, keys,
		"uploads run strictly in queue order")
}

func TestUploadDeletedHandleIsNoOp(t *testing.T) {
	server := newUploadServer(t)
	uploader, store, _ := setupUploader(t, server, nil, nil)

	h := submitted(t, store, "4")
	require.NoError(t, h.Delete())
	require.NoError(t, uploader.Upload(context.Background(), h, noLocation()))
	assert.Empty(t, server.forms, "uploading a deleted response makes no network call")
}

func TestUploadIncludesImages(t *testing.T) {
	server := newUploadServer(t)
	uploader, store, _ := setupUploader(t, server, nil, nil)

	h, err := store.Begin("daily_checkin", "urn:campaign:test", "2026-01-02 10:00:00")
	require.NoError(t, err)
	id, err := h.AttachImage([]byte("jpeg-bytes"))
	require.NoError(t, err)
	require.NoError(t, h.Respond("photo", id, true))
	require.NoError(t, h.Submit())

	require.NoError(t, uploader.Upload(context.Background(), h, noLocation()))

	var images map[string]string
	require.NoError(t, json.Unmarshal([]byte(server.forms[0]["images"]), &images))
	require.Len(t, images, 1)
	assert.NotEmpty(t, images[id])
}
