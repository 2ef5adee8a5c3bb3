package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/claimlens/claimlens/internal/analyze"
	"github.com/claimlens/claimlens/internal/logging"
	"github.com/claimlens/claimlens/internal/model"
	"github.com/claimlens/claimlens/internal/pipeline"
	"github.com/claimlens/claimlens/internal/progress"
	"github.com/claimlens/claimlens/internal/service"
	"github.com/claimlens/claimlens/internal/store"
	"github.com/claimlens/claimlens/internal/worker"
)

var (
	processTariffs       string
	processHospitalID    string
	processPayerID       string
	processIgnoreDisc    bool
	processNoPayerList   bool
	processJSONOut       string
	processTimeout       time.Duration
	processAnalyzer      string
	processAnalyzerModel string
	processWorkers       int
)

// processCmd runs one claim end to end from a directory of documents.
var processCmd = &cobra.Command{
	Use:   "process <directory>",
	Short: "Process a claim from a directory of documents",
	Long: `Process all documents in a directory as one cashless claim.

Each file is analyzed into a structured extraction (or parsed directly
when --analyzer json is used with pre-extracted JSON files), the
extractions are categorized and merged, quality checks run concurrently
and the final report is printed or written to a file.

Examples:
  claimlens process ./claim-docs
  claimlens process ./claim-docs --tariffs tariffs.json --hospital-id H-12 --payer-id P-7
  claimlens process ./claim-docs --analyzer json --json report.json`,
	Args: cobra.ExactArgs(1),
	RunE: runProcess,
}

func init() {
	processCmd.Flags().StringVar(&processTariffs, "tariffs", "", "tariff reference JSON file (enables the tariff check)")
	processCmd.Flags().StringVar(&processHospitalID, "hospital-id", "", "hospital identifier for tariff matching")
	processCmd.Flags().StringVar(&processPayerID, "payer-id", "", "payer identifier for tariff matching")
	processCmd.Flags().BoolVar(&processIgnoreDisc, "ignore-discrepancies", false, "remove discrepant entries from score denominators")
	processCmd.Flags().BoolVar(&processNoPayerList, "no-payer-checklist", false, "skip the payer supporting-document checklist")
	processCmd.Flags().StringVar(&processJSONOut, "json", "", "write the full report JSON to this file")
	processCmd.Flags().DurationVar(&processTimeout, "timeout", 0, "processing deadline (default 2m)")
	processCmd.Flags().StringVar(&processAnalyzer, "analyzer", "", "analysis provider: openai or json (default from config)")
	processCmd.Flags().StringVar(&processAnalyzerModel, "model", "", "analysis model name")
	processCmd.Flags().IntVar(&processWorkers, "workers", 0, "concurrent analysis calls")

	rootCmd.AddCommand(processCmd)
}

func runProcess(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	applyProcessFlags(cfg)
	logging.Init("claimlens", cfg.Logging.Environment, cfg.Logging.Level)

	docs, err := readDocuments(args[0])
	if err != nil {
		return err
	}
	if len(docs) == 0 {
		return fmt.Errorf("no readable documents in %s", args[0])
	}

	opts := pipeline.Options{
		IgnoreDiscrepancies:   processIgnoreDisc,
		IncludePayerChecklist: !processNoPayerList,
		HospitalID:            processHospitalID,
		PayerID:               processPayerID,
	}
	if processTariffs != "" {
		tariffs, err := loadTariffs(processTariffs)
		if err != nil {
			return err
		}
		opts.EnableTariffCheck = true
		opts.Tariffs = tariffs
	}

	analyzer, err := analyze.NewAnalyzer(cfg.Analysis)
	if err != nil {
		return err
	}

	st := store.NewMemoryStore(cfg.Pipeline.StoreTTL)
	registry := progress.NewRegistry(cfg.Pipeline.ProgressBuffer)
	limiter := worker.NewLimiter(cfg.Analysis.RequestsPerSecond, cfg.Analysis.Burst)
	pool := worker.NewPool(cfg.Analysis.Workers, limiter, cfg.Analysis.Provider)
	svc := service.New(st, registry, pipeline.New(cfg, analyzer, pool, st))

	receipt, err := svc.Submit(cmd.Context(), docs, opts)
	if err != nil {
		return err
	}
	fmt.Fprintf(os.Stderr, "Claim %s accepted (%d documents)\n", receipt.ClaimNumber, len(docs))

	events := svc.OnProgress(receipt.SessionID)
	for ev := range events {
		fmt.Fprintf(os.Stderr, "  [%3d%%] %s\n", ev.Progress, ev.Message)
		if ev.Step == progress.StepCompleted || ev.Step == progress.StepError {
			break
		}
	}
	svc.Unsubscribe(receipt.SessionID)

	claim, err := svc.GetClaim(cmd.Context(), receipt.ClaimID)
	if err != nil {
		return err
	}
	if claim.Status == model.StatusFailed {
		return fmt.Errorf("claim processing failed: %s", claim.Error)
	}

	return writeReport(claim)
}

func applyProcessFlags(cfg *model.Config) {
	if processTimeout > 0 {
		cfg.Pipeline.Timeout = processTimeout
	}
	if processAnalyzer != "" {
		cfg.Analysis.Provider = processAnalyzer
	}
	if processAnalyzerModel != "" {
		cfg.Analysis.Model = processAnalyzerModel
	}
	if processWorkers > 0 {
		cfg.Analysis.Workers = processWorkers
	}
}

// readDocuments loads every regular file in the directory, skipping
// duplicates by name and hidden files.
func readDocuments(dir string) ([]analyze.Document, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read document directory: %w", err)
	}

	seen := make(map[string]bool)
	var docs []analyze.Document
	for _, entry := range entries {
		if entry.IsDir() || strings.HasPrefix(entry.Name(), ".") {
			continue
		}
		if seen[entry.Name()] {
			continue
		}
		seen[entry.Name()] = true

		path := filepath.Join(dir, entry.Name())
		content, err := os.ReadFile(path)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Warning: skipping unreadable file %s: %v\n", path, err)
			continue
		}
		docs = append(docs, analyze.Document{
			Name:    entry.Name(),
			Path:    path,
			Content: content,
		})
	}
	sort.Slice(docs, func(i, j int) bool { return docs[i].Name < docs[j].Name })
	return docs, nil
}

// loadTariffs parses a tariff reference file. Both a JSON array of
// entries and an object keyed by item code are accepted.
func loadTariffs(path string) ([]model.TariffEntry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read tariff file: %w", err)
	}

	var entries []model.TariffEntry
	if err := json.Unmarshal(data, &entries); err == nil {
		if len(entries) == 0 {
			return nil, fmt.Errorf("tariff file %s contains no entries", path)
		}
		return entries, nil
	}

	var keyed map[string]model.TariffEntry
	if err := json.Unmarshal(data, &keyed); err != nil {
		return nil, fmt.Errorf("parse tariff file %s: %w", path, err)
	}
	if len(keyed) == 0 {
		return nil, fmt.Errorf("tariff file %s contains no entries", path)
	}
	for code, entry := range keyed {
		if entry.ItemCode == "" {
			entry.ItemCode = code
		}
		entries = append(entries, entry)
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].ItemCode < entries[j].ItemCode })
	return entries, nil
}

func writeReport(claim *model.Claim) error {
	if processJSONOut != "" {
		data, err := json.MarshalIndent(claim.Report, "", "  ")
		if err != nil {
			return fmt.Errorf("encode report: %w", err)
		}
		if err := os.WriteFile(processJSONOut, data, 0644); err != nil {
			return fmt.Errorf("write report: %w", err)
		}
		fmt.Fprintf(os.Stderr, "Report written to %s\n", processJSONOut)
	}

	score := claim.Score
	fmt.Printf("\nClaim %s\n", claim.ClaimNumber)
	fmt.Printf("  Accuracy score: %.1f / 100 (threshold %.1f)\n", score.Score, score.Threshold)
	if score.Passed {
		fmt.Printf("  Verdict:        PASS\n")
	} else {
		fmt.Printf("  Verdict:        FAIL\n")
	}

	var cats []string
	for cat := range score.Breakdown {
		cats = append(cats, cat)
	}
	sort.Strings(cats)
	for _, cat := range cats {
		fmt.Printf("    %-16s %6.1f  (weight %.2f)\n", cat, score.Breakdown[cat], score.Weights[cat])
	}
	for _, cat := range score.Excluded {
		fmt.Printf("    %-16s excluded\n", cat)
	}

	if rep := claim.Report; rep != nil {
		if len(rep.Discrepancies) > 0 {
			fmt.Printf("\n  Discrepancies: %d\n", len(rep.Discrepancies))
			for _, d := range rep.Discrepancies {
				fmt.Printf("    [%-6s] %s\n", d.Severity, d.Description)
			}
		}
		fmt.Printf("\n  Risk: %s\n", rep.PredictiveAnalysis.RiskLevel)
		for _, c := range rep.Metadata.Caveats {
			fmt.Printf("  Caveat: %s\n", c)
		}
	}
	return nil
}
