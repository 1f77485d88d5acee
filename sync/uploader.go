// ABOUTME: Upload queue engine for submitted survey responses
// ABOUTME: Sequential uploads with location gating and per-item deletion on success
package sync

import (
	"context"
	"time"

	"github.com/harperreed/fieldwork/log"
	"github.com/harperreed/fieldwork/models"
	"github.com/harperreed/fieldwork/response"
)

// locationRecency is how fresh a submission must be for the uploader to
// assume it still wants a location fix. An older, previously failed
// upload should not re-prompt for location on every retry.
const locationRecency = 120 * time.Second

// Confirmer asks the user a yes/no question. It is the one place user
// interaction gates the upload pipeline.
type Confirmer interface {
	Confirm(prompt string) bool
}

// Uploader drains the queue of submitted survey responses.
type Uploader struct {
	client  *Client
	store   *response.Store
	confirm Confirmer
	now     func() time.Time
}

// NewUploader creates an uploader. confirm may be nil, in which case a
// failed location fix is never retried interactively.
func NewUploader(client *Client, store *response.Store, confirm Confirmer) *Uploader {
	return &Uploader{
		client:  client,
		store:   store,
		confirm: confirm,
		now:     time.Now,
	}
}

// Upload sends one response. When requireLocation is nil it defaults to
// true only if the response was submitted within the last 120 seconds.
// If a location is wanted but unavailable, the user is offered a retry
// loop; giving up proceeds without a location. On success the response
// is NOT deleted; callers decide when to release it.
func (u *Uploader) Upload(ctx context.Context, h *response.Handle, requireLocation *bool) error {
	if h.Deleted() {
		// Caller misuse; the queue entry is already gone.
		return nil
	}

	want := false
	if requireLocation != nil {
		want = *requireLocation
	} else if sub := h.SubmittedAt(); sub != nil && u.now().Sub(*sub) <= locationRecency {
		want = true
	}

	if want && h.LocationStatus() != models.LocationValid {
		for {
			ok, err := h.SetLocation(ctx)
			if err != nil {
				return err
			}
			if ok {
				break
			}
			if u.confirm == nil || !u.confirm.Confirm("Could not get a location fix. Try again?") {
				break
			}
		}
	}

	item, images, err := h.UploadData()
	if err != nil {
		return err
	}
	return u.client.Upload(ctx, h.CampaignURN(), h.CampaignCreated(), item, images)
}

// UploadAll drains the pending queue strictly sequentially: each item
// completes before the next starts. A successful item is deleted from
// the store before advancing; a failed item is left in place for the
// next run and iteration continues. Returns the number of successful
// uploads only; failures stay discoverable because the queue still
// contains them.
func (u *Uploader) UploadAll(ctx context.Context, requireLocation *bool) (int, error) {
	pending, err := u.store.PendingUploads()
	if err != nil {
		return 0, err
	}

	count := 0
	for _, h := range pending {
		if err := u.Upload(ctx, h, requireLocation); err != nil {
			log.Warnf("upload of %s failed, leaving in queue: %v", h.Key(), err)
			continue
		}
		if err := h.Delete(); err != nil {
			log.Warnf("could not delete uploaded response %s: %v", h.Key(), err)
			continue
		}
		count++
	}
	return count, nil
}
