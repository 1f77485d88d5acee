// ABOUTME: Response store owning survey response lifecycle and identity
// ABOUTME: Creates, restores, and lists persisted responses behind one lock
package response

import (
	"context"
	"database/sql"
	"errors"
	"math/rand"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/harperreed/fieldwork/assets"
	"github.com/harperreed/fieldwork/db"
	"github.com/harperreed/fieldwork/models"
)

// ErrNotFound is returned when no response exists for a key.
var ErrNotFound = errors.New("response not found")

// Locator acquires a device location fix. It resolves to exactly one of a
// location or an error; there is no cancellation beyond the context.
type Locator interface {
	Locate(ctx context.Context) (*models.Location, error)
}

// Store owns every persisted survey response. The mutex keeps mutations
// single-writer per store, matching the one-writer model the persistence
// layout assumes.
type Store struct {
	database *sql.DB
	images   *assets.Store
	locator  Locator

	mu      sync.Mutex
	now     func() time.Time
	entropy *ulid.MonotonicEntropy
}

// NewStore creates a response store over the given database and image
// store. locator may be nil when location capture is unavailable.
func NewStore(database *sql.DB, images *assets.Store, locator Locator) *Store {
	return &Store{
		database: database,
		images:   images,
		locator:  locator,
		now:      time.Now,
		entropy:  ulid.Monotonic(rand.New(rand.NewSource(time.Now().UnixNano())), 0),
	}
}

// newKey generates the globally unique response key. Monotonic ULIDs
// sort by creation time, which keeps the upload queue in submit order.
func (s *Store) newKey() string {
	t := s.now()
	return ulid.MustNew(ulid.Timestamp(t), s.entropy).String()
}

// Begin creates a fresh survey response: a new key, the launch context,
// and location status unavailable. The response is persisted immediately.
func (s *Store) Begin(surveyID, campaignURN, campaignCreated string) (*Handle, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	zone, _ := now.Zone()
	rec := &models.SurveyResponse{
		Key:             s.newKey(),
		CampaignURN:     campaignURN,
		CampaignCreated: campaignCreated,
		SurveyID:        surveyID,
		LaunchTime:      now.UnixMilli(),
		LaunchTimezone:  zone,
		LocationStatus:  models.LocationUnavailable,
		Responses:       map[string]models.Response{},
	}
	if err := db.SaveResponse(s.database, rec); err != nil {
		return nil, err
	}
	return &Handle{store: s, rec: rec}, nil
}

// Restore rehydrates a handle from persisted storage by key. Used to
// resume an in-progress response after a restart, or to load a completed
// one for review. Returns ErrNotFound when the key is unknown.
func (s *Store) Restore(key string) (*Handle, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, err := db.GetResponse(s.database, key)
	if errors.Is(err, db.ErrNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &Handle{store: s, rec: rec}, nil
}

// PendingUploads returns a handle for every submitted response still in
// the store, in creation order.
func (s *Store) PendingUploads() ([]*Handle, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	pending, err := db.ListPendingUploads(s.database)
	if err != nil {
		return nil, err
	}
	handles := make([]*Handle, len(pending))
	for i, rec := range pending {
		handles[i] = &Handle{store: s, rec: rec}
	}
	return handles, nil
}
