// ABOUTME: Upload CLI commands
// ABOUTME: Drains the pending queue and lists what is still waiting
package cli

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/harperreed/fieldwork/config"
	"github.com/harperreed/fieldwork/response"
	"github.com/harperreed/fieldwork/sync"
)

// stdinConfirmer asks yes/no questions on the terminal.
type stdinConfirmer struct{}

func (stdinConfirmer) Confirm(prompt string) bool {
	fmt.Printf("%s [y/N]: ", prompt)
	reader := bufio.NewReader(os.Stdin)
	line, err := reader.ReadString('\n')
	if err != nil {
		return false
	}
	answer := strings.ToLower(strings.TrimSpace(line))
	return answer == "y" || answer == "yes"
}

// UploadCommand uploads every pending survey response sequentially.
func UploadCommand(cfg *config.Config, store *response.Store, args []string) error {
	fs := flag.NewFlagSet("upload", flag.ExitOnError)
	skipLocation := fs.Bool("no-location", false, "never prompt for a location fix")
	_ = fs.Parse(args)

	if err := cfg.ValidateUpload(); err != nil {
		return err
	}

	client := sync.NewClient(cfg.Server, cfg.User, cfg.Password, cfg.ClientName)
	uploader := sync.NewUploader(client, store, stdinConfirmer{})

	var requireLocation *bool
	if *skipLocation {
		v := false
		requireLocation = &v
	}

	count, err := uploader.UploadAll(context.Background(), requireLocation)
	if err != nil {
		return err
	}
	fmt.Printf("Uploaded %d response(s)\n", count)

	pending, err := store.PendingUploads()
	if err != nil {
		return err
	}
	if len(pending) > 0 {
		fmt.Printf("%d response(s) still queued; run upload again to retry\n", len(pending))
	}
	return nil
}

// PendingCommand lists the submitted responses waiting for upload.
func PendingCommand(store *response.Store) error {
	pending, err := store.PendingUploads()
	if err != nil {
		return err
	}
	if len(pending) == 0 {
		fmt.Println("Upload queue is empty")
		return nil
	}
	for _, h := range pending {
		fmt.Printf("%s  %s  submitted %s\n",
			h.Key(), h.SurveyID(), h.SubmittedAt().Format("2006-01-02 15:04:05"))
	}
	return nil
}
