// ABOUTME: Reminder management CLI commands
// ABOUTME: List, prune, and delete scheduled survey reminders
package cli

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/harperreed/fieldwork/db"
	"github.com/harperreed/fieldwork/reminders"
)

// RemindersListCommand prints every reminder and its next fire time.
func RemindersListCommand(database *sql.DB) error {
	rems, err := db.ListReminders(database)
	if err != nil {
		return err
	}
	if len(rems) == 0 {
		fmt.Println("No reminders")
		return nil
	}
	for _, rem := range rems {
		fmt.Printf("%s  %s  %q  %d notification(s)\n",
			rem.ID, rem.SurveyID, rem.Title, len(rem.Notifications))
		for _, n := range rem.Notifications {
			fmt.Printf("    #%d at %s\n", n.ID, n.At.Format("2006-01-02 15:04"))
		}
	}
	return nil
}

// RemindersDeleteCommand cancels and removes one reminder.
func RemindersDeleteCommand(database *sql.DB, sched *reminders.Scheduler, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: reminders delete <id>")
	}
	id, err := uuid.Parse(args[0])
	if err != nil {
		return fmt.Errorf("invalid reminder id %q: %w", args[0], err)
	}
	rem, err := db.GetReminder(database, id)
	if errors.Is(err, db.ErrNotFound) {
		return fmt.Errorf("no reminder with id %s", id)
	}
	if err != nil {
		return err
	}
	if err := sched.Delete(rem); err != nil {
		return err
	}
	fmt.Printf("Deleted reminder %s\n", id)
	return nil
}

// RemindersPruneCommand removes expired reminders.
func RemindersPruneCommand(sched *reminders.Scheduler) error {
	removed, err := sched.PruneExpired()
	if err != nil {
		return err
	}
	fmt.Printf("Removed %d expired reminder(s)\n", removed)
	return nil
}
