// ABOUTME: Handle over one in-progress or completed survey response
// ABOUTME: Mutations persist immediately; delete removes images then the row
package response

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"time"

	"github.com/harperreed/fieldwork/assets"
	"github.com/harperreed/fieldwork/db"
	"github.com/harperreed/fieldwork/models"
)

// Handle wraps one survey response. All mutations go through the owning
// store's lock and are persisted before they return.
type Handle struct {
	store   *Store
	rec     *models.SurveyResponse
	deleted bool
}

// Key returns the response's immutable key.
func (h *Handle) Key() string {
	return h.rec.Key
}

// SurveyID returns the id of the survey this response answers.
func (h *Handle) SurveyID() string {
	return h.rec.SurveyID
}

// CampaignURN returns the owning campaign's urn.
func (h *Handle) CampaignURN() string {
	return h.rec.CampaignURN
}

// CampaignCreated returns the campaign creation timestamp sent on upload.
func (h *Handle) CampaignCreated() string {
	return h.rec.CampaignCreated
}

// SubmittedAt returns the submit timestamp, nil while in progress.
func (h *Handle) SubmittedAt() *time.Time {
	if h.rec.SubmittedAt == nil {
		return nil
	}
	t := *h.rec.SubmittedAt
	return &t
}

// LocationStatus returns the current location status.
func (h *Handle) LocationStatus() models.LocationStatus {
	return h.rec.LocationStatus
}

// Responses returns a copy of the captured record map, keyed by prompt id.
func (h *Handle) Responses() map[string]models.Response {
	out := make(map[string]models.Response, len(h.rec.Responses))
	for id, rec := range h.rec.Responses {
		out[id] = rec
	}
	return out
}

// Respond overwrites the record for promptID and persists. A record is
// never partially written; this replaces the whole value.
func (h *Handle) Respond(promptID string, value any, isImage bool) error {
	h.store.mu.Lock()
	defer h.store.mu.Unlock()

	if h.deleted {
		return nil
	}
	prev, had := h.rec.Responses[promptID]
	h.rec.Responses[promptID] = models.Response{Value: value, IsImage: isImage}
	if err := db.SaveResponse(h.store.database, h.rec); err != nil {
		if had {
			h.rec.Responses[promptID] = prev
		} else {
			delete(h.rec.Responses, promptID)
		}
		return err
	}
	return nil
}

// AttachImage stores a captured photo payload and returns the asset uuid
// to record as the prompt's value.
func (h *Handle) AttachImage(payload []byte) (string, error) {
	id, err := h.store.images.Put(payload)
	if err != nil {
		return "", err
	}
	return id.String(), nil
}

// SetLocation asks the locator for a fix. On success the location is
// attached with status valid; on failure the location is cleared and the
// status set to unavailable. Either way the response is persisted and
// stays consistent, so a failed attempt can simply be retried.
func (h *Handle) SetLocation(ctx context.Context) (bool, error) {
	if h.store.locator == nil {
		return false, nil
	}
	loc, locErr := h.store.locator.Locate(ctx)

	h.store.mu.Lock()
	defer h.store.mu.Unlock()
	if h.deleted {
		return false, nil
	}

	if locErr != nil || loc == nil {
		h.rec.Location = nil
		h.rec.LocationStatus = models.LocationUnavailable
		if err := db.SaveResponse(h.store.database, h.rec); err != nil {
			return false, err
		}
		return false, nil
	}

	h.rec.Location = loc
	h.rec.LocationStatus = models.LocationValid
	if err := db.SaveResponse(h.store.database, h.rec); err != nil {
		return false, err
	}
	return true, nil
}

// Submit stamps the response with the current time and persists it.
// Submitting twice only refreshes the timestamp; the key, and therefore
// the persisted row, never changes.
func (h *Handle) Submit() error {
	h.store.mu.Lock()
	defer h.store.mu.Unlock()

	if h.deleted {
		return nil
	}
	now := h.store.now()
	h.rec.SubmittedAt = &now
	return db.SaveResponse(h.store.database, h.rec)
}

// UploadData projects the response into the wire shape plus the base64
// image payloads referenced by its records.
func (h *Handle) UploadData() (models.UploadItem, map[string]string, error) {
	h.store.mu.Lock()
	defer h.store.mu.Unlock()

	item := h.rec.UploadItem()
	images := make(map[string]string)
	for _, id := range h.rec.ImageIDs() {
		payload, err := h.store.images.Get(id)
		if errors.Is(err, assets.ErrNotFound) {
			return models.UploadItem{}, nil, fmt.Errorf("image asset %s missing: %w", id, err)
		}
		if err != nil {
			return models.UploadItem{}, nil, err
		}
		images[id] = base64.StdEncoding.EncodeToString(payload)
	}
	return item, images, nil
}

// Delete removes the referenced image assets and then the persisted
// response. Calling Delete on an already-deleted handle is a no-op.
func (h *Handle) Delete() error {
	h.store.mu.Lock()
	defer h.store.mu.Unlock()

	if h.deleted {
		return nil
	}
	if ids := h.rec.ImageIDs(); len(ids) > 0 {
		if err := h.store.images.DeleteAll(ids); err != nil {
			return err
		}
	}
	if _, err := db.DeleteResponse(h.store.database, h.rec.Key); err != nil {
		return err
	}
	h.deleted = true
	return nil
}

// Deleted reports whether this handle's response has been removed.
func (h *Handle) Deleted() bool {
	return h.deleted
}
