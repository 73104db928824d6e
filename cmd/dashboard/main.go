// Command dashboard prints the MedShelf summary and card list for a running
// API, and optionally downloads the XLSX report.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ghuser/medshelf/pkg/client"
	"github.com/ghuser/medshelf/pkg/dashboard"
	"github.com/ghuser/medshelf/pkg/logger"
)

func main() {
	apiURL := flag.String("api", envOr("MEDSHELF_API_URL", "http://localhost:4000"), "MedShelf API base URL")
	search := flag.String("q", "", "filter cards by name")
	report := flag.String("report", "", "write the XLSX report to this file")
	logLevel := flag.String("log-level", "warn", "log level")
	flag.Parse()

	log := logger.NewWithWriter(os.Stderr, "text", *logLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	api := client.New(*apiURL)
	d := dashboard.New(api,
		dashboard.WithLogger(log),
		dashboard.WithNotifier(func(n dashboard.Notice) {
			if n.Kind == dashboard.NoticeError {
				fmt.Fprintln(os.Stderr, n)
			}
		}),
	)

	if err := d.Load(ctx); err != nil {
		os.Exit(1)
	}
	d.Search(*search)

	if err := d.Render(os.Stdout, time.Now()); err != nil {
		log.Error("render dashboard", "error", err)
		os.Exit(1)
	}

	if *report != "" {
		if err := writeReport(ctx, api, *search, *report); err != nil {
			log.Error("download report", "error", err)
			os.Exit(1)
		}
		fmt.Fprintf(os.Stderr, "report written to %s\n", *report)
	}
}

func writeReport(ctx context.Context, api *client.Client, search, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := api.Report(ctx, search, f); err != nil {
		_ = f.Close()
		_ = os.Remove(path)
		return err
	}
	return f.Close()
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
