package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/admissions-triage/core/internal/config"
	"github.com/admissions-triage/core/internal/database"
	"github.com/admissions-triage/core/internal/repository"
)

var opts pipelineOptions
var yearsFlag string

var rootCmd = &cobra.Command{
	Use:   "triage",
	Short: "Runs the admissions triage pipeline end to end",
	Long: "triage ingests an applicant cycle, scores it against the rubric, trains and\n" +
		"evaluates the two-stage model, and writes triage results for every applicant\n" +
		"in the pool, in one invocation (§4-§6).",
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		if yearsFlag != "" {
			years, err := parseYears(yearsFlag)
			if err != nil {
				return configError(err)
			}
			opts.years = years
		}
		return run(cmd.Context(), opts)
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&opts.skipIngestion, "skip-ingestion", false, "reuse the last applicant snapshot instead of re-parsing raw cycle files")
	rootCmd.PersistentFlags().BoolVar(&opts.skipRubric, "skip-rubric", false, "reuse the rubric cache as-is instead of calling the LLM scorer")
	rootCmd.PersistentFlags().BoolVar(&opts.twoStage, "two-stage", true, "train and evaluate the two-stage model (disable for a rubric-only dry run)")
	rootCmd.PersistentFlags().BoolVar(&opts.bakeoff, "bakeoff", false, "log the ranker alpha the quantile sweep selected")
	rootCmd.PersistentFlags().BoolVar(&opts.resume, "resume", false, "skip rubric dimensions already fully cached for an applicant")
	rootCmd.PersistentFlags().StringVar(&opts.idFile, "id-file", "", "restrict the run to the AMCAS IDs listed in this file, one per line")
	rootCmd.PersistentFlags().StringVar(&yearsFlag, "years", "", "comma-separated list of cycle years to ingest, e.g. 2022,2023")
	rootCmd.PersistentFlags().IntVar(&opts.cycleYear, "cycle-year", 0, "cycle year this run's manifest is recorded under")
}

func run(ctx context.Context, opts pipelineOptions) error {
	manager, err := config.NewManager()
	if err != nil {
		return configError(fmt.Errorf("loading configuration: %w", err))
	}
	cfg := manager.GetConfig()
	if err := manager.Validate(); err != nil {
		return configError(fmt.Errorf("invalid configuration: %w", err))
	}

	log := config.NewLogger(cfg.Logging)

	db, err := database.NewConnection(ctx, database.ConfigFromDomain(cfg.Database), log)
	if err != nil {
		return configError(fmt.Errorf("connecting to database: %w", err))
	}
	defer db.Close()

	deps := &runDeps{
		cfg:           cfg,
		log:           log,
		runManifests:  repository.NewRunManifestRepository(db.Pool, log),
		triageResults: repository.NewTriageResultRepository(db.Pool, log),
	}

	return runPipeline(ctx, deps, opts)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rootCmd.SetContext(ctx)
	err := rootCmd.Execute()
	os.Exit(exitCodeFor(err))
}
