// ABOUTME: Database operations for survey reminders
// ABOUTME: Persists reminder entities and their scheduled notification lists
package db

import (
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/harperreed/fieldwork/models"
)

// SaveReminder persists a reminder, replacing any existing row.
func SaveReminder(database *sql.DB, r *models.Reminder) error {
	notificationsJSON, err := json.Marshal(r.Notifications)
	if err != nil {
		return fmt.Errorf("failed to encode notifications: %w", err)
	}

	excludeWeekends := 0
	if r.ExcludeWeekends {
		excludeWeekends = 1
	}

	_, err = database.Exec(`
		INSERT INTO reminders (
			id, campaign_urn, survey_id, title, message,
			suppression_hours, exclude_weekends, notifications_json
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			campaign_urn = excluded.campaign_urn,
			survey_id = excluded.survey_id,
			title = excluded.title,
			message = excluded.message,
			suppression_hours = excluded.suppression_hours,
			exclude_weekends = excluded.exclude_weekends,
			notifications_json = excluded.notifications_json
	`, r.ID.String(), r.CampaignURN, r.SurveyID, r.Title, r.Message,
		r.SuppressionWindow, excludeWeekends, string(notificationsJSON))

	if err != nil {
		return fmt.Errorf("failed to save reminder: %w", err)
	}
	return nil
}

// GetReminder retrieves a reminder by id. Returns ErrNotFound when no row
// exists.
func GetReminder(database *sql.DB, id uuid.UUID) (*models.Reminder, error) {
	row := database.QueryRow(`
		SELECT id, campaign_urn, survey_id, title, message,
			suppression_hours, exclude_weekends, notifications_json
		FROM reminders
		WHERE id = ?
	`, id.String())

	r, err := scanReminder(row)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	return r, err
}

func scanReminder(row rowScanner) (*models.Reminder, error) {
	var r models.Reminder
	var id string
	var excludeWeekends int
	var notificationsJSON string

	err := row.Scan(&id, &r.CampaignURN, &r.SurveyID, &r.Title, &r.Message,
		&r.SuppressionWindow, &excludeWeekends, &notificationsJSON)
	if err == sql.ErrNoRows {
		return nil, sql.ErrNoRows
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan reminder: %w", err)
	}

	r.ID, err = uuid.Parse(id)
	if err != nil {
		return nil, fmt.Errorf("invalid reminder id %q: %w", id, err)
	}
	r.ExcludeWeekends = excludeWeekends != 0
	if err := json.Unmarshal([]byte(notificationsJSON), &r.Notifications); err != nil {
		return nil, fmt.Errorf("failed to decode notifications: %w", err)
	}
	return &r, nil
}

// DeleteReminder removes a reminder. Deleting an absent id is a no-op.
func DeleteReminder(database *sql.DB, id uuid.UUID) error {
	_, err := database.Exec(`DELETE FROM reminders WHERE id = ?`, id.String())
	if err != nil {
		return fmt.Errorf("failed to delete reminder: %w", err)
	}
	return nil
}

// ListReminders returns every reminder ordered by id.
func ListReminders(database *sql.DB) ([]*models.Reminder, error) {
	return queryReminders(database, `
		SELECT id, campaign_urn, survey_id, title, message,
			suppression_hours, exclude_weekends, notifications_json
		FROM reminders
		ORDER BY id
	`)
}

// RemindersForSurvey returns the reminders bound to a survey, ordered by id.
func RemindersForSurvey(database *sql.DB, surveyID string) ([]*models.Reminder, error) {
	return queryReminders(database, `
		SELECT id, campaign_urn, survey_id, title, message,
			suppression_hours, exclude_weekends, notifications_json
		FROM reminders
		WHERE survey_id = ?
		ORDER BY id
	`, surveyID)
}

func queryReminders(database *sql.DB, query string, args ...any) ([]*models.Reminder, error) {
	rows, err := database.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query reminders: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var reminders []*models.Reminder
	for rows.Next() {
		r, err := scanReminder(rows)
		if err != nil {
			return nil, err
		}
		reminders = append(reminders, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating reminders: %w", err)
	}
	return reminders, nil
}
