package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"meetman/internal/database"
	"meetman/internal/logging"
	"meetman/internal/notifier"
	"meetman/internal/services"
)

const usage = `Usage: meetmanctl <command> [flags]

Commands:
  send-reminders    Run the individual-reminder sweep
  send-daily        Send the daily agenda broadcast
  test-connection   Probe the WhatsApp gateway and record the result
  cleanup           Prune old notification ledger entries

Run 'meetmanctl <command> -h' for command flags.
`

func main() {
	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}

	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		fmt.Fprintf(os.Stderr, "failed to load .env: %v\n", err)
		os.Exit(1)
	}

	logger := logging.New()

	if err := database.InitDB(); err != nil {
		logger.WithError(err).Fatal("failed to initialize database")
	}

	loc := time.Local
	if tz := os.Getenv("APP_TIMEZONE"); tz != "" {
		parsed, err := time.LoadLocation(tz)
		if err != nil {
			logger.WithError(err).Fatal("invalid APP_TIMEZONE")
		}
		loc = parsed
	}

	gateway := services.NewWhatsAppService(logger)
	engine := notifier.New(database.GetDB(), gateway, logger, notifier.Options{
		Location:    loc,
		GroupNumber: gateway.GroupNumber(),
	})

	ctx := context.Background()

	var err error
	switch os.Args[1] {
	case "send-reminders":
		err = runSendReminders(ctx, engine, os.Args[2:])
	case "send-daily":
		err = runSendDaily(ctx, engine, os.Args[2:])
	case "test-connection":
		err = runTestConnection(ctx, engine)
	case "cleanup":
		err = runCleanup(engine, os.Args[2:])
	case "-h", "--help", "help":
		fmt.Print(usage)
		return
	default:
		fmt.Fprintf(os.Stderr, "unknown command %q\n\n%s", os.Args[1], usage)
		os.Exit(2)
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

// runSendReminders runs one reminder sweep under the job lock and
// exits nonzero if any send failed, so external monitors can alert on
// the exit status alone.
func runSendReminders(ctx context.Context, engine *notifier.Service, args []string) error {
	fs := flag.NewFlagSet("send-reminders", flag.ExitOnError)
	force := fs.Bool("force", false, "send even if reminder_sent_at is already set")
	fs.Parse(args)

	release, err := engine.AcquireLock(notifier.JobReminders, notifier.DefaultLockLease)
	if err != nil {
		if errors.Is(err, notifier.ErrLockHeld) {
			return fmt.Errorf("another reminder run is in progress")
		}
		return err
	}
	defer release()

	summary, err := engine.SendReminders(ctx, *force)
	if err != nil {
		return err
	}

	fmt.Printf("Reminder sweep: %s\n", summary)
	if !summary.Ok() {
		return fmt.Errorf("%d reminder(s) failed", summary.Failed)
	}
	return nil
}

func runSendDaily(ctx context.Context, engine *notifier.Service, args []string) error {
	fs := flag.NewFlagSet("send-daily", flag.ExitOnError)
	force := fs.Bool("force", false, "send even if the day is already stamped")
	dateStr := fs.String("date", "", "specific date to send for (YYYY-MM-DD, default today)")
	fs.Parse(args)

	date := time.Now().In(engine.Location())
	if *dateStr != "" {
		parsed, err := time.Parse("2006-01-02", *dateStr)
		if err != nil {
			return fmt.Errorf("invalid -date, expected YYYY-MM-DD: %w", err)
		}
		date = parsed
	}

	release, err := engine.AcquireLock(notifier.JobDailyAgenda, notifier.DefaultLockLease)
	if err != nil {
		if errors.Is(err, notifier.ErrLockHeld) {
			return fmt.Errorf("another daily notification run is in progress")
		}
		return err
	}
	defer release()

	summary, err := engine.SendDailyAgenda(ctx, date, *force)
	if err != nil {
		return err
	}

	fmt.Printf("Daily notifications: %s\n", summary)
	if !summary.Ok() {
		return fmt.Errorf("daily broadcast failed")
	}
	return nil
}

func runTestConnection(ctx context.Context, engine *notifier.Service) error {
	connected, err := engine.TestGateway(ctx)
	if err != nil {
		return err
	}
	if !connected {
		return fmt.Errorf("WhatsApp gateway connection failed")
	}
	fmt.Println("WhatsApp gateway connection successful")
	return nil
}

// runCleanup counts first, asks for confirmation (unless -yes), then
// deletes and reports the remaining count.
func runCleanup(engine *notifier.Service, args []string) error {
	fs := flag.NewFlagSet("cleanup", flag.ExitOnError)
	days := fs.Int("days", notifier.DefaultRetentionDays, "number of days of ledger history to keep")
	yes := fs.Bool("yes", false, "skip the confirmation prompt (for scheduled runs)")
	fs.Parse(args)

	if *days <= 0 {
		return fmt.Errorf("-days must be positive")
	}

	count, cutoff, err := engine.CountPrunable(*days)
	if err != nil {
		return err
	}
	if count == 0 {
		// Nothing to delete; run the sweep anyway so the report still
		// carries the remaining ledger size.
		result, err := engine.PruneLedger(*days)
		if err != nil {
			return err
		}
		fmt.Printf("No old notifications found to clean up, %d remaining.\n", result.Remaining)
		return nil
	}

	fmt.Printf("Found %d notifications older than %s.\n", count, cutoff.Format("2006-01-02 15:04:05"))
	if !*yes {
		fmt.Printf("Delete %d notifications? [y/N]: ", count)
		reader := bufio.NewReader(os.Stdin)
		answer, _ := reader.ReadString('\n')
		answer = strings.ToLower(strings.TrimSpace(answer))
		if answer != "y" && answer != "yes" {
			fmt.Println("Cleanup cancelled.")
			return nil
		}
	}

	result, err := engine.PruneLedger(*days)
	if err != nil {
		return err
	}
	fmt.Printf("Deleted %d notifications, %d remaining.\n", result.Deleted, result.Remaining)
	return nil
}
