// ABOUTME: Reminder scheduling, recurrence generation, and suppression
// ABOUTME: Drives the notification plugin and persists reminder state
package reminders

import (
	"database/sql"
	"time"

	"github.com/google/uuid"

	"github.com/harperreed/fieldwork/db"
	"github.com/harperreed/fieldwork/log"
	"github.com/harperreed/fieldwork/models"
)

// Notifier is the local notification plugin. Each call schedules or
// cancels one OS-level fire event.
type Notifier interface {
	Add(id int, at time.Time, message string) error
	Cancel(id int) error
	CancelAll() error
}

// Scheduler owns reminder lifecycle: creation with recurrence, editing,
// suppression after a survey is completed, and expiry cleanup.
type Scheduler struct {
	database *sql.DB
	notifier Notifier
	now      func() time.Time
}

// NewScheduler creates a scheduler over the given database and
// notification plugin.
func NewScheduler(database *sql.DB, notifier Notifier) *Scheduler {
	return &Scheduler{
		database: database,
		notifier: notifier,
		now:      time.Now,
	}
}

// Create builds a reminder with count recurrences starting at base. A
// base already in the past moves to the next day. Each recurrence fires
// 24 hours after the prior one; with excludeWeekends set, Saturdays and
// Sundays are stepped over before scheduling.
func (s *Scheduler) Create(campaignURN, surveyID, title, message string, base time.Time, count, suppressionHours int, excludeWeekends bool) (*models.Reminder, error) {
	rem := &models.Reminder{
		ID:                uuid.New(),
		CampaignURN:       campaignURN,
		SurveyID:          surveyID,
		Title:             title,
		Message:           message,
		SuppressionWindow: suppressionHours,
		ExcludeWeekends:   excludeWeekends,
	}

	id, err := s.nextNotificationID()
	if err != nil {
		return nil, err
	}

	at := base
	if at.Before(s.now()) {
		at = at.Add(24 * time.Hour)
	}
	for i := 0; i < count; i++ {
		if excludeWeekends {
			for at.Weekday() == time.Saturday || at.Weekday() == time.Sunday {
				at = at.Add(24 * time.Hour)
			}
		}
		if err := s.notifier.Add(id, at, message); err != nil {
			s.unwind(rem.Notifications)
			return nil, err
		}
		rem.Notifications = append(rem.Notifications, models.ReminderNotification{ID: id, At: at})
		id++
		at = at.Add(24 * time.Hour)
	}

	if err := db.SaveReminder(s.database, rem); err != nil {
		s.unwind(rem.Notifications)
		return nil, err
	}
	return rem, nil
}

// unwind cancels fire events registered for a reminder that was never
// persisted. Without this their ids are recorded nowhere and the plugin
// entries could never be canceled.
func (s *Scheduler) unwind(ns []models.ReminderNotification) {
	for _, n := range ns {
		if err := s.notifier.Cancel(n.ID); err != nil {
			log.Warnf("could not cancel notification %d during rollback: %v", n.ID, err)
		}
	}
}

// AddNotification schedules one extra fire event for the reminder and
// persists the extended list.
func (s *Scheduler) AddNotification(rem *models.Reminder, at time.Time) error {
	id, err := s.nextNotificationID()
	if err != nil {
		return err
	}
	if err := s.notifier.Add(id, at, rem.Message); err != nil {
		return err
	}
	rem.Notifications = append(rem.Notifications, models.ReminderNotification{ID: id, At: at})
	if err := db.SaveReminder(s.database, rem); err != nil {
		rem.Notifications = rem.Notifications[:len(rem.Notifications)-1]
		s.unwind([]models.ReminderNotification{{ID: id, At: at}})
		return err
	}
	return nil
}

// CancelAllNotifications cancels every scheduled fire event but keeps
// the reminder entity, for editing a reminder in place.
func (s *Scheduler) CancelAllNotifications(rem *models.Reminder) error {
	for _, n := range rem.Notifications {
		if err := s.notifier.Cancel(n.ID); err != nil {
			return err
		}
	}
	rem.Notifications = nil
	return db.SaveReminder(s.database, rem)
}

// Suppress cancels and removes every notification whose fire time falls
// within the suppression window measured backward from cutoff. When the
// list empties, the reminder itself is deleted; otherwise the reduced
// list is persisted.
func (s *Scheduler) Suppress(rem *models.Reminder, cutoff time.Time) error {
	window := time.Duration(rem.SuppressionWindow) * time.Hour

	var kept []models.ReminderNotification
	for _, n := range rem.Notifications {
		behind := cutoff.Sub(n.At)
		if behind >= 0 && behind < window {
			if err := s.notifier.Cancel(n.ID); err != nil {
				return err
			}
			continue
		}
		kept = append(kept, n)
	}
	rem.Notifications = kept

	if len(kept) == 0 {
		return db.DeleteReminder(s.database, rem.ID)
	}
	return db.SaveReminder(s.database, rem)
}

// SuppressSurveyReminders is triggered by survey completion: it finds the
// first non-expired reminder bound to the survey and suppresses its
// notifications due within the suppression window, stopping after the
// first reminder it successfully suppresses.
func (s *Scheduler) SuppressSurveyReminders(surveyID string) error {
	rems, err := db.RemindersForSurvey(s.database, surveyID)
	if err != nil {
		return err
	}
	now := s.now()
	for _, rem := range rems {
		if rem.IsExpired(now) {
			continue
		}
		window := time.Duration(rem.SuppressionWindow) * time.Hour
		if err := s.Suppress(rem, now.Add(window)); err != nil {
			log.Warnf("could not suppress reminder %s: %v", rem.ID, err)
			continue
		}
		return nil
	}
	return nil
}

// Delete cancels the reminder's notifications and removes the entity.
func (s *Scheduler) Delete(rem *models.Reminder) error {
	for _, n := range rem.Notifications {
		if err := s.notifier.Cancel(n.ID); err != nil {
			return err
		}
	}
	return db.DeleteReminder(s.database, rem.ID)
}

// PruneExpired removes every reminder whose notifications have all
// fired. Returns the number removed.
func (s *Scheduler) PruneExpired() (int, error) {
	rems, err := db.ListReminders(s.database)
	if err != nil {
		return 0, err
	}
	now := s.now()
	removed := 0
	for _, rem := range rems {
		if !rem.IsExpired(now) {
			continue
		}
		if err := db.DeleteReminder(s.database, rem.ID); err != nil {
			return removed, err
		}
		removed++
	}
	return removed, nil
}

// nextNotificationID returns one greater than the highest notification
// id across all persisted reminders. Ids are small integers because the
// notification plugin requires them.
func (s *Scheduler) nextNotificationID() (int, error) {
	rems, err := db.ListReminders(s.database)
	if err != nil {
		return 0, err
	}
	max := 0
	for _, rem := range rems {
		for _, n := range rem.Notifications {
			if n.ID > max {
				max = n.ID
			}
		}
	}
	return max + 1, nil
}
