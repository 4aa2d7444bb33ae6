// quote prints the estimated bill for a rental without starting the server.
package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/ds124wfegd/lensmaster/config"
	"github.com/ds124wfegd/lensmaster/internal/billing"
	"github.com/ds124wfegd/lensmaster/internal/entity"

	"github.com/spf13/pflag"
)

type quoteOutput struct {
	Camera   string `json:"camera"`
	Currency string `json:"currency"`
	billing.Quote
}

func main() {
	if err := run(os.Args[1:], os.Stdout); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(args []string, out io.Writer) error {
	flags := pflag.NewFlagSet("quote", pflag.ContinueOnError)
	flags.SetOutput(out)

	start := flags.StringP("start", "s", "", "rental start date (2006-01-02)")
	end := flags.StringP("end", "e", "", "rental end date (2006-01-02)")
	camera := flags.StringP("camera", "c", "", "camera id from the catalog")
	configDir := flags.String("config", "./config", "directory containing config.yaml")
	asJSON := flags.Bool("json", false, "print the quote as JSON")

	if err := flags.Parse(args); err != nil {
		return err
	}
	if *start == "" || *end == "" {
		flags.PrintDefaults()
		return fmt.Errorf("--start and --end are required")
	}
	if _, err := entity.ParseDate(*start); err != nil {
		return fmt.Errorf("start date: %w", err)
	}
	if _, err := entity.ParseDate(*end); err != nil {
		return fmt.Errorf("end date: %w", err)
	}

	v, err := config.LoadConfigFrom(*configDir)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	cfg, err := config.ParseConfig(v)
	if err != nil {
		return fmt.Errorf("parse config: %w", err)
	}

	calc := billing.NewCalculator(cfg.Catalog, cfg.Billing.DailyRate)
	result := quoteOutput{
		Camera:   billing.ResolveCameraName(*camera, cfg.Catalog),
		Currency: cfg.Billing.Currency,
		Quote:    calc.Quote(*start, *end),
	}

	if *asJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	}

	fmt.Fprintf(out, "Camera:   %s\n", result.Camera)
	fmt.Fprintf(out, "Duration: %d day(s)\n", result.DurationDays)
	fmt.Fprintf(out, "Rate:     %s%d/day\n", result.Currency, result.DailyRate)
	fmt.Fprintf(out, "Total:    %s%d\n", result.Currency, result.TotalPrice)
	return nil
}
