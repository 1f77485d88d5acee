// ABOUTME: Database schema definitions
// ABOUTME: Handles SQLite table creation for responses, reminders, and prompt properties
package db

import (
	"database/sql"
)

const schema = `
CREATE TABLE IF NOT EXISTS responses (
	key TEXT PRIMARY KEY,
	campaign_urn TEXT NOT NULL,
	campaign_created TEXT NOT NULL,
	survey_id TEXT NOT NULL,
	launch_time INTEGER NOT NULL,
	launch_timezone TEXT NOT NULL,
	submitted_at DATETIME,
	location_status TEXT NOT NULL,
	location_provider TEXT,
	location_latitude REAL,
	location_longitude REAL,
	location_accuracy REAL,
	location_time INTEGER,
	location_timezone TEXT,
	responses_json TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_responses_submitted ON responses(submitted_at);
CREATE INDEX IF NOT EXISTS idx_responses_survey ON responses(survey_id);

CREATE TABLE IF NOT EXISTS reminders (
	id TEXT PRIMARY KEY,
	campaign_urn TEXT NOT NULL,
	survey_id TEXT NOT NULL,
	title TEXT NOT NULL,
	message TEXT NOT NULL,
	suppression_hours INTEGER NOT NULL,
	exclude_weekends INTEGER NOT NULL DEFAULT 0,
	notifications_json TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_reminders_survey ON reminders(survey_id);

CREATE TABLE IF NOT EXISTS prompt_properties (
	campaign_urn TEXT NOT NULL,
	survey_id TEXT NOT NULL,
	prompt_id TEXT NOT NULL,
	properties_json TEXT NOT NULL,
	PRIMARY KEY (campaign_urn, survey_id, prompt_id)
);
`

// InitSchema creates all tables if they do not exist.
func InitSchema(database *sql.DB) error {
	_, err := database.Exec(schema)
	return err
}
