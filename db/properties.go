// ABOUTME: Database operations for user-added custom prompt properties
// ABOUTME: Keyed by (campaign, survey, prompt) so custom choices survive restarts
package db

import (
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/harperreed/fieldwork/models"
)

// SaveCustomProperties persists the custom choice options a user has added
// to a choice prompt.
func SaveCustomProperties(database *sql.DB, campaignURN, surveyID, promptID string, props []models.Property) error {
	propsJSON, err := json.Marshal(props)
	if err != nil {
		return fmt.Errorf("failed to encode properties: %w", err)
	}

	_, err = database.Exec(`
		INSERT INTO prompt_properties (campaign_urn, survey_id, prompt_id, properties_json)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(campaign_urn, survey_id, prompt_id) DO UPDATE SET
			properties_json = excluded.properties_json
	`, campaignURN, surveyID, promptID, string(propsJSON))

	if err != nil {
		return fmt.Errorf("failed to save custom properties: %w", err)
	}
	return nil
}

// GetCustomProperties returns the custom choice options stored for a
// prompt, or nil when none exist.
func GetCustomProperties(database *sql.DB, campaignURN, surveyID, promptID string) ([]models.Property, error) {
	var propsJSON string
	err := database.QueryRow(`
		SELECT properties_json FROM prompt_properties
		WHERE campaign_urn = ? AND survey_id = ? AND prompt_id = ?
	`, campaignURN, surveyID, promptID).Scan(&propsJSON)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get custom properties: %w", err)
	}

	var props []models.Property
	if err := json.Unmarshal([]byte(propsJSON), &props); err != nil {
		return nil, fmt.Errorf("failed to decode custom properties: %w", err)
	}
	return props, nil
}
