package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"mp-watch/config"
	"mp-watch/models"
	"mp-watch/scraper/interests"
	"mp-watch/scraper/ipsa"
	"mp-watch/scraper/votes"
	"mp-watch/services"
	"mp-watch/storage"
	"mp-watch/utils"
)

var version = "0.1.0"

func main() {
	rootCmd := &cobra.Command{
		Use:   "mp-watch",
		Short: "UK Parliament public-data pipeline",
		Long: `mp-watch collects public data on sitting MPs and turns it into
per-MP narrative summaries.

It pulls three sources:
  - IPSA staffing and business costs (expenses)
  - The Register of Members' Financial Interests
  - Commons division (voting) records

and produces a collated dataset, scored plain-English analysis per MP,
a summary CSV, and a PostgreSQL table for the presentation layer.`,
		Version: version,
	}

	rootCmd.AddCommand(acquireCmd())
	rootCmd.AddCommand(voteCmd())
	rootCmd.AddCommand(collateCmd())
	rootCmd.AddCommand(analyseCmd())
	rootCmd.AddCommand(runCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func acquireCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "acquire",
		Short: "Refresh expenses and register-of-interests data",
		Long: `Scrape the IPSA site for every MP in the roster file and download
any register-of-interests versions missing from the local archive.
Tracked votes are fetched separately with "mp-watch vote".`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.Load()
			logger := utils.NewLogger(cfg.LogFile)
			defer logger.Close()

			return acquire(cmd.Context(), cfg, logger)
		},
	}
}

func voteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "vote <division-id>",
		Short: "Fetch one Commons division record",
		Long: `Fetch a single Commons division by ID and save the member lists the
collation step reads. New divisions also need an entry in the tracked
votes file before they influence the analysis.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.Load()
			logger := utils.NewLogger(cfg.LogFile)
			defer logger.Close()

			fetcher := votes.New(cfg, logger)
			div, raw, err := fetcher.Fetch(args[0])
			if err != nil {
				return err
			}
			if err := fetcher.Save(div, raw); err != nil {
				return err
			}

			logger.Info("Voting record saved, don't forget to add it to the tracked votes file if it should influence the analysis.")
			return nil
		},
	}
}

func collateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "collate",
		Short: "Build the per-MP dataset from the raw data",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.Load()
			logger := utils.NewLogger(cfg.LogFile)
			defer logger.Close()

			_, err := collate(cfg, logger)
			return err
		},
	}
}

func analyseCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "analyse",
		Short: "Collate, score and publish the per-MP summary",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.Load()
			logger := utils.NewLogger(cfg.LogFile)
			defer logger.Close()

			return analyse(cfg, logger)
		},
	}
}

func runCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Acquire fresh data, then collate, score and publish",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.Load()
			logger := utils.NewLogger(cfg.LogFile)
			defer logger.Close()

			if err := acquire(cmd.Context(), cfg, logger); err != nil {
				return err
			}
			return analyse(cfg, logger)
		},
	}
}

func acquire(ctx context.Context, cfg *config.Config, logger *utils.Logger) error {
	logger.Info("=== mp-watch acquisition starting ===")
	logger.Info("Config: concurrency: %d | rate: %dms | timeout: %ds",
		cfg.MaxConcurrency, cfg.RateLimitMs, cfg.HTTPTimeoutSec)

	updates, err := storage.LoadLastUpdates(cfg.LastUpdatesFile)
	if err != nil {
		return err
	}

	scraper := ipsa.New(cfg, logger)
	results, err := scraper.Scrape(ctx)
	if err != nil {
		return err
	}
	if err := scraper.Save(results, updates); err != nil {
		return err
	}

	downloader := interests.New(cfg, logger)
	if err := downloader.Update(updates); err != nil {
		return err
	}

	logger.Info("=== Acquisition complete ===")
	return nil
}

// collate builds the per-MP dataset from whatever raw data is on disk.
func collate(cfg *config.Config, logger *utils.Logger) (*models.Dataset, error) {
	logger.Info("=== mp-watch collation starting ===")

	updates, err := storage.LoadLastUpdates(cfg.LastUpdatesFile)
	if err != nil {
		return nil, err
	}

	rawIpsa := filepath.Join(cfg.RawDataDir, "expenses", "mp_data_ipsa.json")
	filteredIpsa := filepath.Join(cfg.RawDataDir, "expenses", "mp_data_ipsa_filtered.json")
	if err := ipsa.FilterExpenses(rawIpsa, filteredIpsa); err != nil {
		return nil, err
	}

	collator := services.NewCollator(logger)
	ds, err := collator.BuildRoster(filteredIpsa)
	if err != nil {
		return nil, err
	}

	tracked, err := config.LoadVotes(cfg.VotesFile)
	if err != nil {
		return nil, err
	}
	votesDir := filepath.Join(cfg.RawDataDir, "votes")
	for _, vote := range tracked {
		if err := collator.JoinVote(ds, votesDir, vote); err != nil {
			return nil, err
		}
	}

	interestsDir := filepath.Join(cfg.RawDataDir, "interests")
	propertyCSV := filepath.Join(interestsDir, "PublishedInterest-Category_6.csv")
	if err := collator.CollateProperties(ds, propertyCSV, time.Now()); err != nil {
		return nil, err
	}

	donors := services.LoadDonorCategories(cfg.DonorsFile, logger)

	hospitalityCSV := filepath.Join(interestsDir, "PublishedInterest-Category_3.csv")
	if err := services.CollateHospitality(ds, hospitalityCSV, donors, logger); err != nil {
		return nil, err
	}

	tripsCSV := filepath.Join(interestsDir, "PublishedInterest-Category_4.csv")
	if err := services.CollateTrips(ds, tripsCSV, logger); err != nil {
		return nil, err
	}

	refreshDate := updates.RefreshDate("interests", time.Now().Format("2006-01-02"))
	combinedOut := filepath.Join(cfg.OutputDir, "earnings_combined.csv")
	if err := services.CollateOutsideEarnings(ds, interestsDir, refreshDate, combinedOut, logger); err != nil {
		return nil, err
	}

	services.RankExpenseFields(ds)

	logger.Info("=== Collation complete: %d MPs ===", ds.Len())
	return ds, nil
}

func analyse(cfg *config.Config, logger *utils.Logger) error {
	ds, err := collate(cfg, logger)
	if err != nil {
		return err
	}

	donors := services.LoadDonorCategories(cfg.DonorsFile, logger)
	analyzer := services.NewAnalyzer(logger, donors)
	analyzer.Analyse(ds)

	csvWriter, err := storage.NewCSVWriter(cfg.SummaryPath)
	if err != nil {
		return err
	}
	defer csvWriter.Close()

	if err := csvWriter.WriteSummary(ds); err != nil {
		return err
	}
	logger.Info("Summary saved to %s", cfg.SummaryPath)

	pgWriter, err := storage.NewPostgresWriter(cfg.DSN())
	if err != nil {
		logger.Error("Failed to connect to PostgreSQL: %v", err)
		logger.Error("Make sure Docker is running: docker compose up -d")
		return err
	}
	defer pgWriter.Close()

	if err := pgWriter.WriteSummary(ds); err != nil {
		return err
	}
	logger.Info("Summary stored in PostgreSQL (table: mp_summary)")

	updates, err := storage.LoadLastUpdates(cfg.LastUpdatesFile)
	if err != nil {
		return err
	}
	if len(updates.Sources) > 0 {
		if err := updates.UpdateDataRef(cfg.DataRefFile); err != nil {
			logger.Warn("Could not stamp data reference file: %v", err)
		}
	}

	reportSvc := services.NewReportService(logger)
	reportSvc.Print(reportSvc.Generate(ds))

	fmt.Printf("  Done. Summary CSV: %s | PostgreSQL table: mp_summary\n\n", cfg.SummaryPath)
	return nil
}
