// ABOUTME: Tests for the response store and handle lifecycle
// ABOUTME: Covers begin/restore, idempotent submit, location retries, and image cleanup
package response

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harperreed/fieldwork/assets"
	"github.com/harperreed/fieldwork/db"
	"github.com/harperreed/fieldwork/models"
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

func setupStore(t *testing.T, locator Locator) (*Store, *sql.DB, *assets.Store) {
	t.Helper()
	database, err := sql.Open("sqlite3", ":memory:")
	require.NoError(t, err, "open sqlite")
	t.Cleanup(func() { _ = database.Close() })
	require.NoError(t, db.InitSchema(database), "init schema")

	images, err := assets.Open(t.TempDir())
	require.NoError(t, err, "open asset store")
	t.Cleanup(func() { _ = images.Close() })

	return NewStore(database, images, locator), database, images
}

func TestBeginAssignsUniqueKeys(t *testing.T) {
	store, _, _ := setupStore(t, nil)

	a, err := store.Begin("daily_checkin", "urn:campaign:test", "2026-01-02 10:00:00")
	require.NoError(t, err)
	b, err := store.Begin("daily_checkin", "urn:campaign:test", "2026-01-02 10:00:00")
	require.NoError(t, err)

	assert.NotEmpty(t, a.Key())
	assert.NotEqual(t, a.Key(), b.Key(), "keys must be globally unique")
	assert.Equal(t, models.LocationUnavailable, a.LocationStatus())
	assert.Nil(t, a.SubmittedAt(), "fresh response is not submitted")
}

func TestRespondPersistsImmediately(t *testing.T) {
	store, _, _ := setupStore(t, nil)

	h, err := store.Begin("daily_checkin", "urn:campaign:test", "2026-01-02 10:00:00")
	require.NoError(t, err)
	require.NoError(t, h.Respond("mood", 4, false))

	// A fresh handle restored from storage sees the answer.
	restored, err := store.Restore(h.Key())
	require.NoError(t, err)
	got := restored.Responses()["mood"]
	assert.Equal(t, float64(4), got.Value, "answer should survive a restore")
}

func TestRespondOverwritesWholeRecord(t *testing.T) {
	store, _, _ := setupStore(t, nil)

	h, err := store.Begin("daily_checkin", "urn:campaign:test", "2026-01-02 10:00:00")
	require.NoError(t, err)
	require.NoError(t, h.Respond("mood", models.Skipped, false))
	require.NoError(t, h.Respond("mood", 2, false))

	restored, err := store.Restore(h.Key())
	require.NoError(t, err)
	assert.Equal(t, float64(2), restored.Responses()["mood"].Value,
		"re-answering replaces the sentinel")
}

func TestRestoreNotFound(t *testing.T) {
	store, _, _ := setupStore(t, nil)

	_, err := store.Restore("01HDOESNOTEXIST0000000000")
	assert.True(t, errors.Is(err, ErrNotFound), "expected ErrNotFound, got %v", err)
}

func TestSubmitIdempotent(t *testing.T) {
	store, database, _ := setupStore(t, nil)

	h, err := store.Begin("daily_checkin", "urn:campaign:test", "2026-01-02 10:00:00")
	require.NoError(t, err)

	require.NoError(t, h.Submit())
	first := h.SubmittedAt()
	require.NotNil(t, first)

	require.NoError(t, h.Submit())
	second := h.SubmittedAt()
	require.NotNil(t, second)
	assert.False(t, second.Before(*first), "second submit only refreshes the timestamp")

	var count int
	require.NoError(t, database.QueryRow("SELECT COUNT(*) FROM responses").Scan(&count))
	assert.Equal(t, 1, count, "submit must never duplicate the persisted row")

	restored, err := store.Restore(h.Key())
	require.NoError(t, err)
	assert.NotNil(t, restored.SubmittedAt(), "still retrievable by its original key")
}

func TestSetLocationSuccess(t *testing.T) {
	locator := &fakeLocator{loc: &models.Location{
		Provider: "gps", Latitude: 41.88, Longitude: -87.63, Accuracy: 12,
	}}
	store, _, _ := setupStore(t, locator)

	h, err := store.Begin("daily_checkin", "urn:campaign:test", "2026-01-02 10:00:00")
	require.NoError(t, err)

	ok, err := h.SetLocation(context.Background())
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, models.LocationValid, h.LocationStatus())

	restored, err := store.Restore(h.Key())
	require.NoError(t, err)
	assert.Equal(t, models.LocationValid, restored.LocationStatus(), "location fix is persisted")
}

func TestSetLocationFailureIsRetryable(t *testing.T) {
	locator := &fakeLocator{err: errors.New("timeout")}
	store, _, _ := setupStore(t, locator)

	h, err := store.Begin("daily_checkin", "urn:campaign:test", "2026-01-02 10:00:00")
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		ok, err := h.SetLocation(context.Background())
		require.NoError(t, err)
		assert.False(t, ok)
		assert.Equal(t, models.LocationUnavailable, h.LocationStatus())
	}

	// A later successful attempt still lands.
	locator.err = nil
	locator.loc = &models.Location{Provider: "network", Latitude: 1, Longitude: 2}
	ok, err := h.SetLocation(context.Background())
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, models.LocationValid, h.LocationStatus())
	assert.Equal(t, 4, locator.hits)
}

func TestDeleteRemovesImages(t *testing.T) {
	store, _, images := setupStore(t, nil)

	h, err := store.Begin("daily_checkin", "urn:campaign:test", "2026-01-02 10:00:00")
	require.NoError(t, err)

	first, err := h.AttachImage([]byte("photo-one"))
	require.NoError(t, err)
	require.NoError(t, h.Respond("photo_1", first, true))
	second, err := h.AttachImage([]byte("photo-two"))
	require.NoError(t, err)
	require.NoError(t, h.Respond("photo_2", second, true))

	// An unrelated asset must survive.
	other, err := images.Put([]byte("someone-elses"))
	require.NoError(t, err)

	require.NoError(t, h.Delete())

	_, err = images.Get(first)
	assert.True(t, errors.Is(err, assets.ErrNotFound), "first image should be gone")
	_, err = images.Get(second)
	assert.True(t, errors.Is(err, assets.ErrNotFound), "second image should be gone")
	_, err = images.Get(other.String())
	assert.NoError(t, err, "unrelated asset untouched")

	_, err = store.Restore(h.Key())
	assert.True(t, errors.Is(err, ErrNotFound), "response row should be gone")
}

func TestDeleteWithoutImagesLeavesNamespace(t *testing.T) {
	store, _, images := setupStore(t, nil)

	other, err := images.Put([]byte("bystander"))
	require.NoError(t, err)

	h, err := store.Begin("daily_checkin", "urn:campaign:test", "2026-01-02 10:00:00")
	require.NoError(t, err)
	require.NoError(t, h.Respond("mood", 3, false))
	require.NoError(t, h.Delete())

	count, err := images.Count()
	require.NoError(t, err)
	assert.Equal(t, 1, count, "image namespace untouched")
	_, err = images.Get(other.String())
	assert.NoError(t, err)
}

func TestDeleteTwiceIsNoOp(t *testing.T) {
	store, _, _ := setupStore(t, nil)

	h, err := store.Begin("daily_checkin", "urn:campaign:test", "2026-01-02 10:00:00")
	require.NoError(t, err)
	require.NoError(t, h.Delete())
	require.NoError(t, h.Delete(), "second delete is a no-op")
	assert.True(t, h.Deleted())

	// Mutations after delete are silently ignored.
	require.NoError(t, h.Respond("mood", 1, false))
	require.NoError(t, h.Submit())
	_, err = store.Restore(h.Key())
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestUploadDataSeparatesImages(t *testing.T) {
	store, _, _ := setupStore(t, nil)

	h, err := store.Begin("daily_checkin", "urn:campaign:test", "2026-01-02 10:00:00")
	require.NoError(t, err)
	require.NoError(t, h.Respond("mood", 5, false))
	id, err := h.AttachImage([]byte("jpeg"))
	require.NoError(t, err)
	require.NoError(t, h.Respond("photo", id, true))
	require.NoError(t, h.Submit())

	item, imgs, err := h.UploadData()
	require.NoError(t, err)

	assert.Equal(t, h.Key(), item.SurveyKey)
	assert.Equal(t, "daily_checkin", item.SurveyID)
	assert.NotZero(t, item.Time, "submit time travels on the wire")
	require.Len(t, item.Responses, 2)
	assert.Equal(t, "mood", item.Responses[0].PromptID, "responses ordered by prompt id")
	assert.Equal(t, "photo", item.Responses[1].PromptID)
	assert.Equal(t, id, item.Responses[1].Value, "image record carries the asset uuid")

	require.Len(t, imgs, 1)
	assert.Equal(t, "anBlZw==", imgs[id], "payload is base64 without a data-URI prefix")
}
