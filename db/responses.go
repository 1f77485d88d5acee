// ABOUTME: Database operations for persisted survey responses
// ABOUTME: Every mutation of a response is saved through here, whole-row replace
package db

import (
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/harperreed/fieldwork/models"
)

// SaveResponse persists a survey response, replacing any existing row with
// the same key. Callers save after every mutation so there is never
// unsaved in-memory state.
func SaveResponse(database *sql.DB, r *models.SurveyResponse) error {
	responsesJSON, err := json.Marshal(r.Responses)
	if err != nil {
		return fmt.Errorf("failed to encode responses: %w", err)
	}

	var submittedAt sql.NullTime
	if r.SubmittedAt != nil {
		submittedAt = sql.NullTime{Time: *r.SubmittedAt, Valid: true}
	}

	var provider, timezone sql.NullString
	var latitude, longitude, accuracy sql.NullFloat64
	var locTime sql.NullInt64
	if r.Location != nil {
		provider = sql.NullString{String: r.Location.Provider, Valid: true}
		latitude = sql.NullFloat64{Float64: r.Location.Latitude, Valid: true}
		longitude = sql.NullFloat64{Float64: r.Location.Longitude, Valid: true}
		accuracy = sql.NullFloat64{Float64: r.Location.Accuracy, Valid: true}
		locTime = sql.NullInt64{Int64: r.Location.Time, Valid: true}
		timezone = sql.NullString{String: r.Location.Timezone, Valid: true}
	}

	_, err = database.Exec(`
		INSERT INTO responses (
			key, campaign_urn, campaign_created, survey_id,
			launch_time, launch_timezone, submitted_at, location_status,
			location_provider, location_latitude, location_longitude,
			location_accuracy, location_time, location_timezone, responses_json
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET
			campaign_urn = excluded.campaign_urn,
			campaign_created = excluded.campaign_created,
			survey_id = excluded.survey_id,
			launch_time = excluded.launch_time,
			launch_timezone = excluded.launch_timezone,
			submitted_at = excluded.submitted_at,
			location_status = excluded.location_status,
			location_provider = excluded.location_provider,
			location_latitude = excluded.location_latitude,
			location_longitude = excluded.location_longitude,
			location_accuracy = excluded.location_accuracy,
			location_time = excluded.location_time,
			location_timezone = excluded.location_timezone,
			responses_json = excluded.responses_json
	`, r.Key, r.CampaignURN, r.CampaignCreated, r.SurveyID,
		r.LaunchTime, r.LaunchTimezone, submittedAt, string(r.LocationStatus),
		provider, latitude, longitude, accuracy, locTime, timezone,
		string(responsesJSON))

	if err != nil {
		return fmt.Errorf("failed to save response: %w", err)
	}
	return nil
}

// GetResponse retrieves a survey response by key. Returns ErrNotFound when
// no row exists.
func GetResponse(database *sql.DB, key string) (*models.SurveyResponse, error) {
	row := database.QueryRow(`
		SELECT key, campaign_urn, campaign_created, survey_id,
			launch_time, launch_timezone, submitted_at, location_status,
			location_provider, location_latitude, location_longitude,
			location_accuracy, location_time, location_timezone, responses_json
		FROM responses
		WHERE key = ?
	`, key)
	return scanResponse(row)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanResponse(row rowScanner) (*models.SurveyResponse, error) {
	var r models.SurveyResponse
	var submittedAt sql.NullTime
	var status string
	var provider, timezone sql.NullString
	var latitude, longitude, accuracy sql.NullFloat64
	var locTime sql.NullInt64
	var responsesJSON string

	err := row.Scan(
		&r.Key, &r.CampaignURN, &r.CampaignCreated, &r.SurveyID,
		&r.LaunchTime, &r.LaunchTimezone, &submittedAt, &status,
		&provider, &latitude, &longitude,
		&accuracy, &locTime, &timezone, &responsesJSON,
	)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get response: %w", err)
	}

	r.LocationStatus = models.LocationStatus(status)
	if submittedAt.Valid {
		t := submittedAt.Time
		r.SubmittedAt = &t
	}
	if provider.Valid {
		r.Location = &models.Location{
			Provider:  provider.String,
			Latitude:  latitude.Float64,
			Longitude: longitude.Float64,
			Accuracy:  accuracy.Float64,
			Time:      locTime.Int64,
			Timezone:  timezone.String,
		}
	}
	if err := json.Unmarshal([]byte(responsesJSON), &r.Responses); err != nil {
		return nil, fmt.Errorf("failed to decode responses: %w", err)
	}
	if r.Responses == nil {
		r.Responses = map[string]models.Response{}
	}
	return &r, nil
}

// DeleteResponse removes a persisted response. Deleting a key that does
// not exist is a no-op; the return value reports whether a row was
// actually removed.
func DeleteResponse(database *sql.DB, key string) (bool, error) {
	result, err := database.Exec(`DELETE FROM responses WHERE key = ?`, key)
	if err != nil {
		return false, fmt.Errorf("failed to delete response: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to delete response: %w", err)
	}
	return n > 0, nil
}

// ListPendingUploads returns every submitted-but-not-yet-deleted response,
// ordered by key. Keys are ULIDs, so the order follows creation time.
func ListPendingUploads(database *sql.DB) ([]*models.SurveyResponse, error) {
	rows, err := database.Query(`
		SELECT key, campaign_urn, campaign_created, survey_id,
			launch_time, launch_timezone, submitted_at, location_status,
			location_provider, location_latitude, location_longitude,
			location_accuracy, location_time, location_timezone, responses_json
		FROM responses
		WHERE submitted_at IS NOT NULL
		ORDER BY key
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query pending uploads: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var pending []*models.SurveyResponse
	for rows.Next() {
		r, err := scanResponse(rows)
		if err != nil {
			return nil, err
		}
		pending = append(pending, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating pending uploads: %w", err)
	}
	return pending, nil
}
