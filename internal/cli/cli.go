package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pfrederiksen/kebiao-ics/internal/config"
	"github.com/pfrederiksen/kebiao-ics/internal/logger"
)

const (
	ExitSuccess = 0
	ExitError   = 1
)

var (
	flagConfig    string
	flagYear      string
	flagTerm      string
	flagCookie    string
	flagStudentID string
	flagWeeks     int
	flagOutputDir string
	flagMetrics   string
	flagOffline   bool
	flagXLSX      bool
	flagVerbose   bool
	flagFormat    string
	flagSort      string
)

// flagKeys binds flags to configuration keys.
var flagKeys = map[string]string{
	"term.year":     "year",
	"term.code":     "term",
	"term.weeks":    "weeks",
	"portal.cookie": "cookie",
	"student_id":    "student-id",
	"dirs.output":   "output-dir",
	"metrics_file":  "metrics-file",
	"offline":       "offline",
	"xlsx":          "xlsx",
}

// NewRootCmd creates the root command
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "kebiao-ics",
		Short: "Export a graduate school class schedule as an iCalendar file",
		Long: `Scrapes the weekly class schedule of one student from the graduate school
portal for a whole term, fills in classroom locations the portal leaves
open, and writes the result as an .ics file any calendar app can import.

The portal session cookie comes from a logged-in browser (--cookie or
KEBIAO_PORTAL_COOKIE).`,
		SilenceUsage: true,
		RunE:         runGenerate,
	}

	cmd.Flags().StringVar(&flagConfig, "config", "", "Config file merged over the defaults (default ./"+config.DefaultFile+" if present)")
	cmd.Flags().StringVar(&flagYear, "year", "", "Academic year, e.g. 2023")
	cmd.Flags().StringVar(&flagTerm, "term", "", "Term code, e.g. 11")
	cmd.Flags().StringVar(&flagCookie, "cookie", "", "Portal session cookie, e.g. JSESSIONID=...")
	cmd.Flags().StringVar(&flagStudentID, "student-id", "", "Student number (default: read from the schedule page)")
	cmd.Flags().IntVar(&flagWeeks, "weeks", 0, "Number of term weeks to fetch")
	cmd.Flags().StringVar(&flagOutputDir, "output-dir", "", "Directory for the session list and calendar")
	cmd.Flags().StringVar(&flagMetrics, "metrics-file", "", "Write run metrics to this Prometheus textfile")
	cmd.Flags().BoolVar(&flagOffline, "offline", false, "Re-parse stored week pages instead of fetching")
	cmd.Flags().BoolVar(&flagXLSX, "xlsx", false, "Also export the sessions as a spreadsheet")
	cmd.Flags().BoolVar(&flagVerbose, "verbose", false, "Enable verbose logging and list every session")
	cmd.Flags().StringVar(&flagFormat, "format", "text", "Output format: text or json")
	cmd.Flags().StringVar(&flagSort, "sort", string(SortByWeek), "Session order in verbose output: week or course")

	return cmd
}

// runGenerate is the main command logic
func runGenerate(cmd *cobra.Command, args []string) error {
	format := OutputFormat(strings.ToLower(flagFormat))
	if format != FormatText && format != FormatJSON {
		return fmt.Errorf("invalid format: %s (must be 'text' or 'json')", flagFormat)
	}
	order := SortOrder(strings.ToLower(flagSort))
	if order != SortByWeek && order != SortByCourse {
		return fmt.Errorf("invalid sort order: %s (must be 'week' or 'course')", flagSort)
	}

	cfg, err := config.Load(config.Options{
		File:     flagConfig,
		Flags:    cmd.Flags(),
		FlagKeys: flagKeys,
	})
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	if err := setupLogger(cmd, cfg.Log); err != nil {
		return err
	}
	defer logger.Sync()

	pipeline, err := NewPipeline(cfg)
	if err != nil {
		return err
	}

	result, err := pipeline.Run(cmd.Context())
	if err != nil {
		logger.Error("Run failed", logger.Fields{"term": cfg.Term.Year + "/" + cfg.Term.Code}, err)
		return err
	}

	sortSessions(result.SessionList, order)
	if err := WriteOutput(cmd.OutOrStdout(), result, format, flagVerbose); err != nil {
		return fmt.Errorf("writing output: %w", err)
	}
	return nil
}

func setupLogger(cmd *cobra.Command, lc config.LogConfig) error {
	level, err := logger.ParseLevel(lc.Level)
	if err != nil {
		return err
	}
	if flagVerbose {
		level = logger.LevelDebug
	}
	logger.SetDefault(logger.NewWithFormat(level, logger.Format(lc.Format), cmd.ErrOrStderr()))
	return nil
}

// Execute runs the CLI
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(ExitError)
	}
}
