// spendsplit runs one expense report from local files: it parses a
// spreadsheet export, attributes transactions to the configured roster, and
// either writes the rendered HTML or sends the summary email.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/alecthomas/kong"
	"github.com/joho/godotenv"

	"github.com/rpetrillo/spendsplit/internal/config"
	"github.com/rpetrillo/spendsplit/internal/csvparse"
	"github.com/rpetrillo/spendsplit/internal/models"
	"github.com/rpetrillo/spendsplit/internal/report"
	"github.com/rpetrillo/spendsplit/internal/services"
)

var cli struct {
	CSV         string `arg:"" help:"Path to the spreadsheet export." type:"existingfile"`
	Config      string `env:"SPENDSPLIT_CONFIG" help:"${env} - Path to the report config document" default:"config.json" type:"existingfile"`
	Date        string `help:"Report reference date (YYYY-MM-DD). Defaults to a date found in the CSV filename, else today."`
	MonthFilter bool   `help:"Only attribute transactions in the report month."`
	Send        bool   `help:"Send the summary email instead of writing HTML."`
	Out         string `help:"Write the rendered HTML to this file instead of stdout."`
}

func main() {
	// A .env next to the binary supplies the service endpoints for --send.
	_ = godotenv.Load()

	kctx := kong.Parse(&cli,
		kong.Name("spendsplit"),
		kong.Description("Generate an expense-splitting summary from a spreadsheet export."),
	)
	kctx.FatalIfErrorf(run())
}

func run() error {
	cfgDoc, err := os.ReadFile(cli.Config)
	if err != nil {
		return fmt.Errorf("failed to read config: %w", err)
	}
	cfg, err := config.Parse(cfgDoc)
	if err != nil {
		return err
	}
	if cli.MonthFilter {
		cfg.MonthFilter = true
	}

	content, err := os.ReadFile(cli.CSV)
	if err != nil {
		return fmt.Errorf("failed to read spreadsheet: %w", err)
	}

	date, err := referenceDate()
	if err != nil {
		return err
	}

	summary, err := models.NewSummary(date, cfg)
	if err != nil {
		return err
	}

	transactions, warnings := csvparse.Parse(string(content), summary.Categories)
	summary.AddTransactions(transactions)
	slog.Info("parsed spreadsheet",
		"transactions", len(transactions), "skipped_rows", len(warnings))

	email := report.Render(summary, warnings)

	if cli.Send {
		sender, err := services.NewEmailService(nil)
		if err != nil {
			return err
		}
		ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
		defer cancel()
		return sender.Send(ctx, email)
	}

	if cli.Out != "" {
		if err := os.WriteFile(cli.Out, []byte(email.HTMLBody), 0o644); err != nil {
			return fmt.Errorf("failed to write output: %w", err)
		}
		slog.Info("wrote report", "path", cli.Out, "subject", email.Subject)
		return nil
	}

	fmt.Println(email.HTMLBody)
	return nil
}

func referenceDate() (time.Time, error) {
	if cli.Date != "" {
		d, err := time.Parse(models.DateFormat, cli.Date)
		if err != nil {
			return time.Time{}, fmt.Errorf("invalid --date %q", cli.Date)
		}
		return d, nil
	}
	return report.DateFromObjectKey(cli.CSV), nil
}
