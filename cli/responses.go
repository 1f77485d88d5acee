// ABOUTME: Response management CLI commands
// ABOUTME: Inspect and delete persisted survey responses by key
package cli

import (
	"errors"
	"fmt"

	"github.com/harperreed/fieldwork/response"
)

// ResponseShowCommand prints one persisted response.
func ResponseShowCommand(store *response.Store, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: responses show <key>")
	}
	h, err := store.Restore(args[0])
	if errors.Is(err, response.ErrNotFound) {
		return fmt.Errorf("no response with key %s", args[0])
	}
	if err != nil {
		return err
	}

	fmt.Printf("Key:      %s\n", h.Key())
	fmt.Printf("Survey:   %s\n", h.SurveyID())
	fmt.Printf("Campaign: %s\n", h.CampaignURN())
	if at := h.SubmittedAt(); at != nil {
		fmt.Printf("Submitted %s\n", at.Format("2006-01-02 15:04:05"))
	} else {
		fmt.Println("In progress")
	}
	for id, rec := range h.Responses() {
		marker := ""
		if rec.IsImage {
			marker = " (image)"
		}
		fmt.Printf("  %s = %v%s\n", id, rec.Value, marker)
	}
	return nil
}

// ResponseDeleteCommand deletes a persisted response and its images.
func ResponseDeleteCommand(store *response.Store, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: responses delete <key>")
	}
	h, err := store.Restore(args[0])
	if errors.Is(err, response.ErrNotFound) {
		return fmt.Errorf("no response with key %s", args[0])
	}
	if err != nil {
		return err
	}
	if err := h.Delete(); err != nil {
		return err
	}
	fmt.Printf("Deleted %s\n", args[0])
	return nil
}
