package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/spigell/resume-matcher/internal/dashboard"
	"github.com/spigell/resume-matcher/internal/filtering"
	"github.com/spigell/resume-matcher/internal/jobs"
	"github.com/spigell/resume-matcher/internal/logger"
)

var dashboardCmd = &cobra.Command{
	Use:   "dashboard",
	Short: "Print job market metrics over the jobs table",
	Run: func(cmd *cobra.Command, _ []string) {
		runDashboard(cmd)
	},
}

func init() {
	rootCmd.AddCommand(dashboardCmd)
	addDashboardFlags(dashboardCmd)
}

func addDashboardFlags(cmd *cobra.Command) {
	cmd.Flags().String("from", "", "first posting date, YYYY-MM-DD")
	cmd.Flags().String("to", "", "last posting date, YYYY-MM-DD")
	cmd.Flags().StringSlice("company", nil, "companies to keep (repeatable)")
	cmd.Flags().StringSlice("title", nil, "base positions to keep (repeatable)")
	cmd.Flags().StringSlice("location", nil, "cities to keep (repeatable)")
	cmd.Flags().String("status", filtering.StatusAll, "All, Active or Expired")
	cmd.Flags().String("search", "", "keep listings whose position, company or location contains this text")
	cmd.Flags().Int("page", 1, "listing page to print")
	cmd.Flags().Int("page-size", dashboard.DefaultPageSize, "listings per page")
	cmd.Flags().Bool("options", false, "print the selectable filter values and exit")
	cmd.Flags().Bool("dump", false, "dump the listed postings to a temp file")
}

func runDashboard(cmd *cobra.Command) {
	ctx := context.Background()
	log, config := setup()
	defer log.Sync()

	source, closeSource, err := newJobsSource(ctx, config.Jobs, log)
	if err != nil {
		log.Fatal("building jobs source", zap.Error(err),
			zap.String("hint", fmt.Sprintf("set %s and %s, or %s", envSupabaseURL, envSupabaseKey, envDatabaseURL)),
		)
	}
	defer closeSource()

	service := dashboard.New(source, logger.Named(log, "dashboard"),
		dashboard.WithDisabledFilters(config.Jobs.DisabledFilters...),
	)

	if only, _ := cmd.Flags().GetBool("options"); only {
		opts, err := service.Options(ctx)
		if err != nil {
			log.Fatal("loading filter options", zap.Error(err))
		}
		if err := printJSON(cmd, opts); err != nil {
			log.Fatal("printing options", zap.Error(err))
		}
		return
	}

	filters, err := dashboardFilters(cmd)
	if err != nil {
		log.Fatal("parsing filters", zap.Error(err))
	}

	view, err := service.View(ctx, filters, dashboardListing(cmd))
	if err != nil {
		log.Fatal("building dashboard", zap.Error(err))
	}

	log.Info("dashboard",
		zap.Int("total", view.Metrics.Summary.Total),
		zap.Int("active", view.Metrics.Summary.Active),
		zap.Int("unique_companies", view.Metrics.Summary.UniqueCompanies),
		zap.Float64("average_rating", view.Metrics.Summary.AverageRating),
		zap.Int("dropped_rows", view.DroppedRows),
		zap.Int("listed", view.Total),
		zap.String("page", fmt.Sprintf("%d/%d", view.Page, view.Pages)),
	)

	report := struct {
		Summary      jobs.Summary     `json:"summary"`
		TopCompanies []jobs.Count     `json:"top_companies"`
		TopPositions []jobs.Count     `json:"top_positions"`
		TopCities    []jobs.Count     `json:"top_cities"`
		TopRated     []jobs.Average   `json:"top_rated_companies"`
		Salary       jobs.SalaryStats `json:"salary"`
		Listings     []jobs.Posting   `json:"listings"`
	}{
		Summary:      view.Metrics.Summary,
		TopCompanies: view.Metrics.TopCompanies,
		TopPositions: view.Metrics.TopPositions,
		TopCities:    view.Metrics.TopCities,
		TopRated:     view.Metrics.TopRatedCompanies,
		Salary:       view.Metrics.Salary,
		Listings:     view.Postings,
	}
	if err := printJSON(cmd, report); err != nil {
		log.Fatal("printing report", zap.Error(err))
	}

	if dump, _ := cmd.Flags().GetBool("dump"); dump {
		filename, err := dashboard.DumpToTmpFile(view.Postings)
		if err != nil {
			log.Fatal("dump postings to file", zap.Error(err))
		}
		log.Info("dumping postings to file", zap.String("filename", filename), zap.Int("count", len(view.Postings)))
	}
}

func dashboardFilters(cmd *cobra.Command) (*filtering.Config, error) {
	cfg := &filtering.Config{}

	for flag, target := range map[string]*time.Time{"from": &cfg.From, "to": &cfg.To} {
		value, _ := cmd.Flags().GetString(flag)
		if value == "" {
			continue
		}
		t, err := time.Parse(time.DateOnly, value)
		if err != nil {
			return nil, fmt.Errorf("--%s: %w", flag, err)
		}
		*target = t
	}

	cfg.Companies, _ = cmd.Flags().GetStringSlice("company")
	cfg.Titles, _ = cmd.Flags().GetStringSlice("title")
	cfg.Locations, _ = cmd.Flags().GetStringSlice("location")
	cfg.Status, _ = cmd.Flags().GetString("status")

	return cfg, nil
}

func dashboardListing(cmd *cobra.Command) dashboard.Listing {
	var listing dashboard.Listing
	listing.Search, _ = cmd.Flags().GetString("search")
	listing.Page, _ = cmd.Flags().GetInt("page")
	listing.PageSize, _ = cmd.Flags().GetInt("page-size")
	return listing
}
