// ABOUTME: Entry point for the fieldwork survey engine CLI
// ABOUTME: Routes subcommands for the upload queue, responses, and reminders
package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/harperreed/fieldwork/assets"
	"github.com/harperreed/fieldwork/cli"
	"github.com/harperreed/fieldwork/config"
	"github.com/harperreed/fieldwork/db"
	"github.com/harperreed/fieldwork/log"
	"github.com/harperreed/fieldwork/reminders"
	"github.com/harperreed/fieldwork/response"
)

const version = "0.1.0"

// stubNotifier stands in for the platform notification plugin when
// running from the command line; it only logs what would fire.
type stubNotifier struct{}

func (stubNotifier) Add(id int, at time.Time, message string) error {
	log.Debugf("notification %d scheduled for %s: %s", id, at.Format(time.RFC3339), message)
	return nil
}

func (stubNotifier) Cancel(id int) error {
	log.Debugf("notification %d canceled", id)
	return nil
}

func (stubNotifier) CancelAll() error {
	log.Debugf("all notifications canceled")
	return nil
}

func main() {
	showVersion := flag.Bool("version", false, "Show version and exit")
	_ = flag.CommandLine.Parse(os.Args[1:])

	if *showVersion {
		fmt.Printf("fieldwork version %s\n", version)
		os.Exit(0)
	}

	args := flag.Args()
	if len(args) == 0 {
		printUsage()
		os.Exit(0)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	log.SetDebug(cfg.Debug)

	database, err := db.Open(cfg.DBPath)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer func() { _ = database.Close() }()

	images, err := assets.Open(cfg.ImageDir)
	if err != nil {
		log.Fatalf("Failed to open image store: %v", err)
	}
	defer func() { _ = images.Close() }()

	store := response.NewStore(database, images, nil)
	sched := reminders.NewScheduler(database, stubNotifier{})

	command := args[0]
	commandArgs := args[1:]

	switch command {
	case "upload":
		err = cli.UploadCommand(cfg, store, commandArgs)

	case "pending":
		err = cli.PendingCommand(store)

	case "responses":
		if len(commandArgs) == 0 {
			err = fmt.Errorf("responses requires a subcommand: show, delete")
			break
		}
		switch commandArgs[0] {
		case "show":
			err = cli.ResponseShowCommand(store, commandArgs[1:])
		case "delete":
			err = cli.ResponseDeleteCommand(store, commandArgs[1:])
		default:
			err = fmt.Errorf("unknown responses subcommand: %s", commandArgs[0])
		}

	case "reminders":
		if len(commandArgs) == 0 {
			err = fmt.Errorf("reminders requires a subcommand: list, delete, prune")
			break
		}
		switch commandArgs[0] {
		case "list":
			err = cli.RemindersListCommand(database)
		case "delete":
			err = cli.RemindersDeleteCommand(database, sched, commandArgs[1:])
		case "prune":
			err = cli.RemindersPruneCommand(sched)
		default:
			err = fmt.Errorf("unknown reminders subcommand: %s", commandArgs[0])
		}

	default:
		fmt.Printf("Unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}

	if err != nil {
		log.Fatalf("%v", err)
	}
}

func printUsage() {
	fmt.Println(`fieldwork - offline survey response engine

Usage:
  fieldwork upload [-no-location]   Upload all pending responses
  fieldwork pending                 List responses waiting for upload
  fieldwork responses show <key>    Print one persisted response
  fieldwork responses delete <key>  Delete a response and its images
  fieldwork reminders list          List scheduled reminders
  fieldwork reminders delete <id>   Cancel and remove a reminder
  fieldwork reminders prune         Remove expired reminders
  fieldwork -version                Show version`)
}
