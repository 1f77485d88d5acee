// ABOUTME: Data models for surveys, prompts, responses, and reminders
// ABOUTME: Defines the entities shared by the sequencer, stores, and sync engine
package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Survey is an ordered list of prompts with a title and description.
// Surveys come from an installed campaign's configuration and are
// immutable at runtime.
type Survey struct {
	ID          string   `json:"id"`
	Title       string   `json:"title"`
	Description string   `json:"description,omitempty"`
	Prompts     []Prompt `json:"prompts"`
}

// Prompt is one question unit within a survey.
type Prompt struct {
	ID         string     `json:"id"`
	Type       string     `json:"prompt_type"`
	Text       string     `json:"prompt_text"`
	Condition  string     `json:"condition,omitempty"`
	Skippable  bool       `json:"skippable,omitempty"`
	SkipLabel  string     `json:"skip_label,omitempty"`
	Min        *float64   `json:"min,omitempty"`
	Max        *float64   `json:"max,omitempty"`
	Default    any        `json:"default,omitempty"`
	Properties []Property `json:"properties,omitempty"`
}

// Property is one choice option of a single_choice or multi_choice prompt.
// Custom properties are user-added options persisted separately from the
// campaign configuration.
type Property struct {
	Key    string `json:"key"`
	Label  string `json:"label"`
	Custom bool   `json:"custom,omitempty"`
}

// Prompt types.
const (
	TypeSingleChoice   = "single_choice"
	TypeMultiChoice    = "multi_choice"
	TypeText           = "text"
	TypeNumber         = "number"
	TypePhoto          = "photo"
	TypeTimestamp      = "timestamp"
	TypeHoursBeforeNow = "hours_before_now"
	TypeRemoteActivity = "remote_activity"
)

// Reserved response values recorded in place of a real answer.
const (
	Skipped      = "SKIPPED"
	NotDisplayed = "NOT_DISPLAYED"
)

// DecodedCondition returns the prompt's condition expression with encoded
// angle-bracket entities decoded. Campaign XML arrives with < and > escaped;
// the evaluator expects the raw operators.
func (p *Prompt) DecodedCondition() string {
	c := strings.ReplaceAll(p.Condition, "&lt;", "<")
	return strings.ReplaceAll(c, "&gt;", ">")
}

// PromptByID returns the prompt with the given id, or nil.
func (s *Survey) PromptByID(id string) *Prompt {
	for i := range s.Prompts {
		if s.Prompts[i].ID == id {
			return &s.Prompts[i]
		}
	}
	return nil
}

// Response is one prompt's captured answer. Value holds a scalar, a list
// of choice keys, an image asset uuid, or one of the reserved values.
// Mutation is whole-record replace, never a partial write.
type Response struct {
	Value   any  `json:"value"`
	IsImage bool `json:"is_image,omitempty"`
}

// LocationStatus describes the quality of the location attached to a
// survey response.
type LocationStatus string

const (
	LocationUnavailable LocationStatus = "unavailable"
	LocationValid       LocationStatus = "valid"
	LocationInaccurate  LocationStatus = "inaccurate"
	LocationStale       LocationStatus = "stale"
)

// Location is a device location fix.
type Location struct {
	Provider  string  `json:"provider"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Accuracy  float64 `json:"accuracy"`
	Time      int64   `json:"time"`
	Timezone  string  `json:"timezone"`
}

// SurveyResponse is the aggregate response for one survey attempt. The key
// is generated once at creation and never changes.
type SurveyResponse struct {
	Key             string              `json:"key"`
	CampaignURN     string              `json:"campaign_urn"`
	CampaignCreated string              `json:"campaign_created"`
	SurveyID        string              `json:"survey_id"`
	LaunchTime      int64               `json:"launch_time"`
	LaunchTimezone  string              `json:"launch_timezone"`
	SubmittedAt     *time.Time          `json:"submitted_at,omitempty"`
	Location        *Location           `json:"location,omitempty"`
	LocationStatus  LocationStatus      `json:"location_status"`
	Responses       map[string]Response `json:"responses"`
}

// Submitted reports whether the response has been submitted and therefore
// belongs to the upload queue.
func (r *SurveyResponse) Submitted() bool {
	return r.SubmittedAt != nil
}

// ImageIDs returns the asset uuids referenced by image responses.
func (r *SurveyResponse) ImageIDs() []string {
	var ids []string
	for _, rec := range r.Responses {
		if !rec.IsImage {
			continue
		}
		if id, ok := rec.Value.(string); ok && id != "" {
			ids = append(ids, id)
		}
	}
	return ids
}

// ReminderNotification is one scheduled fire event of a reminder.
type ReminderNotification struct {
	ID int       `json:"id"`
	At time.Time `json:"at"`
}

// Reminder is a recurring local notification tied to a (campaign, survey)
// pair. Completing the survey suppresses notifications that fall inside
// the suppression window.
type Reminder struct {
	ID                uuid.UUID              `json:"id"`
	CampaignURN       string                 `json:"campaign_urn"`
	SurveyID          string                 `json:"survey_id"`
	Title             string                 `json:"title"`
	Message           string                 `json:"message"`
	SuppressionWindow int                    `json:"suppression_window"` // hours
	ExcludeWeekends   bool                   `json:"exclude_weekends"`
	Notifications     []ReminderNotification `json:"notifications"`
}

// IsExpired reports whether the reminder has no scheduled notifications
// left, or its last one is already in the past.
func (r *Reminder) IsExpired(now time.Time) bool {
	if len(r.Notifications) == 0 {
		return true
	}
	return r.Notifications[len(r.Notifications)-1].At.Before(now)
}
