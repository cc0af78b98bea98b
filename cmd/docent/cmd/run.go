package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/hugo-lorenzo-mato/docent/internal/config"
	"github.com/hugo-lorenzo-mato/docent/internal/control"
	"github.com/hugo-lorenzo-mato/docent/internal/core"
	"github.com/hugo-lorenzo-mato/docent/internal/events"
	"github.com/hugo-lorenzo-mato/docent/internal/gateway"
	"github.com/hugo-lorenzo-mato/docent/internal/logging"
	"github.com/hugo-lorenzo-mato/docent/internal/report"
	"github.com/hugo-lorenzo-mato/docent/internal/service"
	"github.com/hugo-lorenzo-mato/docent/internal/service/session"
	"github.com/hugo-lorenzo-mato/docent/internal/store"
)

var runCmd = &cobra.Command{
	Use:   "run [file]",
	Short: "Run a study session over a document",
	Long: `Split the document into sections and run the student/teacher Q&A
session over them. Reads the document from the file argument, or from
stdin when no argument is given.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runSession,
}

var (
	runTurns      int
	runOutput     string
	runNoHistory  bool
	runNoFollowup bool
)

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().IntVar(&runTurns, "turns", 5, "Number of sections to study")
	runCmd.Flags().Int("concurrency", 3, "Maximum in-flight LLM calls")
	runCmd.Flags().BoolVar(&runNoFollowup, "no-followups", false, "Disable follow-up questions")
	runCmd.Flags().Float64("followup-threshold", 0.6, "Complexity score that triggers a follow-up")
	runCmd.Flags().Int("max-followups", 3, "Maximum follow-up rounds per section")
	runCmd.Flags().StringSlice("keywords", nil, "Keywords to assign to sections, one each")
	runCmd.Flags().StringVarP(&runOutput, "output", "o", "", "Report output directory")
	runCmd.Flags().String("model", "", "Model to use for all roles")
	runCmd.Flags().BoolVar(&runNoHistory, "no-history", false, "Skip persisting the run to history")

	_ = viper.BindPFlag("study.turns", runCmd.Flags().Lookup("turns"))
	_ = viper.BindPFlag("study.concurrency", runCmd.Flags().Lookup("concurrency"))
	_ = viper.BindPFlag("study.followup_threshold", runCmd.Flags().Lookup("followup-threshold"))
	_ = viper.BindPFlag("study.max_followups", runCmd.Flags().Lookup("max-followups"))
	_ = viper.BindPFlag("study.keywords", runCmd.Flags().Lookup("keywords"))
	_ = viper.BindPFlag("gateway.model", runCmd.Flags().Lookup("model"))
}

func runSession(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if runNoFollowup {
		cfg.Study.EnableFollowup = false
	}
	if runOutput != "" {
		cfg.Report.Dir = runOutput
	}

	document, err := readDocument(args)
	if err != nil {
		return err
	}

	logger := newLogger(cfg)

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	// First interrupt requests cooperative cancellation; the second
	// tears the context down.
	plane := control.New()
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)
	go func() {
		<-sigCh
		fmt.Fprintln(os.Stderr, "\nInterrupt received, finishing in-flight exchanges...")
		plane.Cancel()
		<-sigCh
		cancel()
	}()

	return executeSession(ctx, cfg, logger, plane, document)
}

func executeSession(ctx context.Context, cfg *config.Config, logger *logging.Logger, plane *control.Plane, document string) error {
	prompts, err := service.NewPromptRenderer()
	if err != nil {
		return err
	}

	timeout, _ := time.ParseDuration(cfg.Gateway.Timeout)
	gw := gateway.NewOpenAI(gateway.Config{
		BaseURL:     cfg.Gateway.BaseURL,
		APIKey:      cfg.Gateway.APIKey,
		Model:       cfg.Gateway.Model,
		MaxTokens:   cfg.Gateway.MaxTokens,
		Temperature: cfg.Gateway.Temperature,
		Timeout:     timeout,
		MaxRetries:  cfg.Gateway.MaxRetries,
	}, logger)

	sections, err := service.NewSplitter(cfg.Study.Turns).Split(document)
	if err != nil {
		return err
	}

	sessionID := core.NewSessionID()

	// Session events drive the console output; the bus decouples it
	// from the orchestrator's goroutines.
	bus := events.New(256)
	defer bus.Close()
	drained := consumeSessionEvents(bus, logger)

	orch := session.New(gw, prompts,
		session.WithControlPlane(plane),
		session.WithLogger(logger),
		session.WithBus(bus),
	)

	fmt.Printf("Session %s: %d sections\n", sessionID, len(sections))

	summary, err := orch.Summarize(ctx, document)
	if err != nil {
		// The session is still worth running without a summary.
		logger.Warn("document summary failed", "error", err)
		summary = ""
	}

	sessionCfg := session.Config{
		Concurrency:       cfg.Study.Concurrency,
		EnableFollowup:    cfg.Study.EnableFollowup,
		FollowupThreshold: cfg.Study.FollowupThreshold,
		MaxFollowups:      cfg.Study.MaxFollowups,
		Keywords:          cfg.Study.Keywords,
		CallTimeout:       timeout,
	}

	results, err := orch.Run(ctx, sessionID, sections, sessionCfg, nil)
	bus.Close()
	<-drained
	if err != nil {
		return err
	}

	finalReport, err := orch.FinalReport(ctx, summary, results)
	if err != nil {
		logger.Warn("final report generation failed", "error", err)
		finalReport = ""
	}

	rec := &core.SessionRecord{
		ID:        sessionID,
		Document:  document,
		Summary:   summary,
		Report:    finalReport,
		Results:   results,
		CreatedAt: time.Now(),
	}

	writer := report.NewWriter(report.Config{Dir: cfg.Report.Dir, UseUTC: true}, logger)
	path, err := writer.Write(ctx, rec)
	if err != nil {
		return err
	}

	if cfg.History.Enabled && !runNoHistory {
		if err := saveHistory(ctx, cfg, rec); err != nil {
			logger.Warn("saving run history failed", "error", err)
		}
	}

	failed := 0
	for _, r := range results {
		if !r.Succeeded() {
			failed++
		}
	}
	fmt.Printf("Done: %d sections, %d failed. Report: %s\n", len(results), failed, path)
	if failed > 0 {
		return fmt.Errorf("%d of %d sections failed", failed, len(results))
	}
	return nil
}

// consumeSessionEvents subscribes to the run's session events and turns
// them into console output. The returned channel closes once the bus is
// closed and every buffered event has been handled.
func consumeSessionEvents(bus *events.Bus, logger *logging.Logger) <-chan struct{} {
	ch := bus.Subscribe(
		events.TypeSectionStarted,
		events.TypeSectionCompleted,
		events.TypeExchange,
		events.TypeProgress,
	)
	drained := make(chan struct{})

	go func() {
		defer close(drained)
		for ev := range ch {
			switch e := ev.(type) {
			case events.SectionStartedEvent:
				logger.Debug("section started",
					"section", e.SectionIndex,
					"keyword", e.Keyword,
				)
			case events.ExchangeEvent:
				logger.Debug("exchange",
					"section", e.SectionIndex,
					"kind", e.Kind,
					"ordinal", e.Ordinal,
				)
			case events.SectionCompletedEvent:
				if e.Status != string(core.SectionStatusDone) {
					fmt.Fprintf(os.Stderr, "  section %d %s: %s\n", e.SectionIndex+1, e.Status, e.Error)
				}
			case events.ProgressEvent:
				fmt.Printf("  [%d/%d] sections completed\n", e.Completed, e.Total)
			}
		}
	}()

	return drained
}

func saveHistory(ctx context.Context, cfg *config.Config, rec *core.SessionRecord) error {
	s, err := store.NewSQLiteStore(cfg.History.Path)
	if err != nil {
		return err
	}
	defer func() { _ = s.Close() }()
	return s.SaveSession(ctx, rec)
}

func readDocument(args []string) (string, error) {
	if len(args) == 1 {
		data, err := os.ReadFile(args[0])
		if err != nil {
			return "", fmt.Errorf("reading document: %w", err)
		}
		return string(data), nil
	}

	stat, err := os.Stdin.Stat()
	if err == nil && (stat.Mode()&os.ModeCharDevice) != 0 {
		return "", fmt.Errorf("no document given: pass a file or pipe text on stdin")
	}
	data, err := io.ReadAll(os.Stdin)
	if err != nil {
		return "", fmt.Errorf("reading stdin: %w", err)
	}
	return string(data), nil
}
