package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"counciltrack/internal/agenda"
	"counciltrack/internal/config"
	"counciltrack/internal/docstore"
	"counciltrack/internal/fetch"
	"counciltrack/internal/pipeline"
	"counciltrack/internal/storage"
	"counciltrack/internal/summarize"
)

// openRunner builds the pipeline and its stores from config. The returned
// cleanup closes the catalog.
func openRunner(cfg config.Config) (*pipeline.Runner, *docstore.Store, *storage.Store, func(), error) {
	store, err := storage.Open(cfg.Storage.DataDir)
	if err != nil {
		return nil, nil, nil, nil, fmt.Errorf("opening storage: %w", err)
	}
	docs := docstore.New(cfg.Storage.DataDir)
	parser := agenda.NewParser(cfg.Portal.BaseURL)
	runner := pipeline.NewRunner(parser, docs, store, cfg.Pipeline.Parallelism)
	cleanup := func() {
		if err := store.Close(); err != nil {
			fmt.Fprintf(os.Stderr, "warning: closing storage: %v\n", err)
		}
	}
	return runner, docs, store, cleanup, nil
}

func agendaHTMLPath(dataDir string, templateID int) string {
	return filepath.Join(dataDir, "agenda_html", fmt.Sprintf("agenda_%d.html", templateID))
}

// --- fetch ---

var fetchCmd = &cobra.Command{
	Use:   "fetch",
	Short: "Download an agenda page from the portal",
	Long: `Download the agenda HTML for one meeting template and store it under
<data-dir>/agenda_html/ for later parsing.

Example:
  counciltrack fetch --template-id 16377`,
	RunE: func(cmd *cobra.Command, args []string) error {
		templateID, _ := cmd.Flags().GetInt("template-id")
		if templateID == 0 {
			return fmt.Errorf("--template-id is required")
		}

		cfg, err := config.Load()
		if err != nil {
			return err
		}

		client := fetch.New(cfg.Portal.BaseURL)
		printStep("Fetching %s", client.AgendaURL(templateID))
		body, err := client.AgendaHTML(cmd.Context(), templateID)
		if err != nil {
			return err
		}

		path := agendaHTMLPath(cfg.Storage.DataDir, templateID)
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return fmt.Errorf("creating agenda_html dir: %w", err)
		}
		if err := os.WriteFile(path, body, 0o644); err != nil {
			return fmt.Errorf("writing agenda html: %w", err)
		}

		printSuccess("Saved %d bytes to %s", len(body), path)
		return nil
	},
}

func init() {
	fetchCmd.Flags().Int("template-id", 0, "portal meeting template ID")
}

// --- parse ---

var parseCmd = &cobra.Command{
	Use:   "parse <agenda.html>",
	Short: "Parse one agenda HTML file into a meeting document",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		meetingID, _ := cmd.Flags().GetInt("meeting-id")
		templateID, _ := cmd.Flags().GetInt("template-id")
		if meetingID == 0 {
			return fmt.Errorf("--meeting-id is required")
		}

		cfg, err := config.Load()
		if err != nil {
			return err
		}
		runner, _, _, cleanup, err := openRunner(cfg)
		if err != nil {
			return err
		}
		defer cleanup()

		parsed, skipped, err := runner.ParseMeetings(cmd.Context(), []pipeline.AgendaInput{
			{MeetingID: meetingID, TemplateID: templateID, Path: args[0]},
		})
		if err != nil {
			return err
		}
		if skipped > 0 {
			printError("meeting %d could not be parsed", meetingID)
			return fmt.Errorf("parse failed")
		}
		printSuccess("Parsed %d meeting(s)", parsed)
		return nil
	},
}

func init() {
	parseCmd.Flags().Int("meeting-id", 0, "portal meeting ID")
	parseCmd.Flags().Int("template-id", 0, "portal meeting template ID")
}

// --- aggregate ---

var aggregateCmd = &cobra.Command{
	Use:   "aggregate",
	Short: "Rebuild council file records from stored meeting documents",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		runner, _, _, cleanup, err := openRunner(cfg)
		if err != nil {
			return err
		}
		defer cleanup()

		count, err := runner.Aggregate()
		if err != nil {
			return err
		}
		printSuccess("Aggregated %d council file(s)", count)
		return nil
	},
}

// --- run ---

// manifestEntry is one line of the run manifest: which meetings to parse and
// where their HTML lives.
type manifestEntry struct {
	MeetingID  int    `json:"meeting_id"`
	TemplateID int    `json:"template_id"`
	Path       string `json:"path,omitempty"`
}

var runCmd = &cobra.Command{
	Use:   "run --manifest <meetings.json>",
	Short: "Run the full pipeline: parse every manifest meeting, then aggregate",
	Long: `Run the full pipeline under a recorded run. The manifest is a JSON
array of {meeting_id, template_id, path} objects; entries without a path use
the HTML previously saved by fetch.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		manifestPath, _ := cmd.Flags().GetString("manifest")
		if manifestPath == "" {
			return fmt.Errorf("--manifest is required")
		}

		cfg, err := config.Load()
		if err != nil {
			return err
		}

		data, err := os.ReadFile(manifestPath)
		if err != nil {
			return fmt.Errorf("reading manifest: %w", err)
		}
		var entries []manifestEntry
		if err := json.Unmarshal(data, &entries); err != nil {
			return fmt.Errorf("parsing manifest: %w", err)
		}
		if len(entries) == 0 {
			return fmt.Errorf("manifest lists no meetings")
		}

		inputs := make([]pipeline.AgendaInput, 0, len(entries))
		for _, e := range entries {
			path := e.Path
			if path == "" {
				path = agendaHTMLPath(cfg.Storage.DataDir, e.TemplateID)
			}
			inputs = append(inputs, pipeline.AgendaInput{
				MeetingID:  e.MeetingID,
				TemplateID: e.TemplateID,
				Path:       path,
			})
		}

		runner, _, _, cleanup, err := openRunner(cfg)
		if err != nil {
			return err
		}
		defer cleanup()

		printStep("Running pipeline over %d meeting(s)", len(inputs))
		run, err := runner.Run(cmd.Context(), inputs)
		if err != nil {
			printError("run %s failed: %v", run.ID, err)
			return err
		}
		printSuccess("Run %s completed: %d parsed, %d skipped, %d council files",
			run.ID, run.MeetingsParsed, run.MeetingsSkipped, run.CouncilFiles)
		return nil
	},
}

func init() {
	runCmd.Flags().String("manifest", "", "path to the meetings manifest JSON")
}

// --- triage ---

var triageCmd = &cobra.Command{
	Use:   "triage",
	Short: "Show which attachments are worth summarizing",
	Long: `Categorize every attachment without a summary and show the
processing plan for a staged summarization pass.

Stages: 1 = high-value documents, 2 = a fixed-size sample of the rest,
3 = all remaining documents.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		stage, _ := cmd.Flags().GetInt("stage")
		sample, _ := cmd.Flags().GetInt("sample")

		cfg, err := config.Load()
		if err != nil {
			return err
		}
		docs := docstore.New(cfg.Storage.DataDir)

		files, err := docs.LoadCouncilFiles()
		if err != nil {
			return err
		}
		if len(files) == 0 {
			printWarning("no council files found; run aggregation first")
			return nil
		}

		pending := summarize.CollectPending(files)
		var high, medium, skip int
		for _, p := range pending {
			switch p.Priority {
			case summarize.PriorityHigh:
				high++
			case summarize.PriorityMedium:
				medium++
			default:
				skip++
			}
		}
		printStatus("Pending attachments", "%d", len(pending))
		printStatus("High-value", "%d", high)
		printStatus("Other", "%d", medium)
		printStatus("Skippable", "%d", skip)

		selected := summarize.SelectStage(pending, stage, sample)
		printStep("Stage %d would process %d document(s)", stage, len(selected))
		for _, p := range selected {
			fmt.Printf("  %s  %-18s %s\n", p.CouncilFile, p.Category, p.Title)
		}
		return nil
	},
}

func init() {
	triageCmd.Flags().Int("stage", 1, "processing stage (1, 2, or 3)")
	triageCmd.Flags().Int("sample", 150, "sample size for stage 2")
}

// --- summarize ---

var summarizeCmd = &cobra.Command{
	Use:   "summarize",
	Short: "Summarize pending attachments in stages",
	Long: `Download, extract, and summarize the attachments selected by the
staged triage heuristics, writing one summary record per document.

Requires a summarization backend: set COUNCILTRACK_SUMMARIZE_API_KEY.
Re-run aggregate afterwards to fold the new summaries into the council
file records.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		stage, _ := cmd.Flags().GetInt("stage")
		sample, _ := cmd.Flags().GetInt("sample")

		cfg, err := config.Load()
		if err != nil {
			return err
		}
		if cfg.Summarize.APIKey == "" {
			return fmt.Errorf("no summarization backend configured: set COUNCILTRACK_SUMMARIZE_API_KEY")
		}

		docs := docstore.New(cfg.Storage.DataDir)
		files, err := docs.LoadCouncilFiles()
		if err != nil {
			return err
		}

		pending := summarize.CollectPending(files)
		selected := summarize.SelectStage(pending, stage, sample)
		if len(selected) == 0 {
			printSuccess("Nothing to summarize at stage %d", stage)
			return nil
		}

		worker := summarize.NewWorker(
			fetch.New(cfg.Portal.BaseURL),
			summarize.NewClaudeBackend(cfg.Summarize.APIKey, cfg.Summarize.Model),
			docs,
		)

		printStep("Summarizing %d document(s) at stage %d", len(selected), stage)
		report, err := worker.ProcessPending(cmd.Context(), selected)
		if err != nil {
			return err
		}
		if report.Failed > 0 {
			printWarning("%d document(s) failed", report.Failed)
		}
		printSuccess("Summarized %d document(s), $%.4f", report.Processed, report.CostUSD)
		return nil
	},
}

func init() {
	summarizeCmd.Flags().Int("stage", 1, "processing stage (1, 2, or 3)")
	summarizeCmd.Flags().Int("sample", 150, "sample size for stage 2")
}

// --- status ---

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show catalog contents and recent pipeline runs",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		_, docs, store, cleanup, err := openRunner(cfg)
		if err != nil {
			return err
		}
		defer cleanup()

		meetings, err := store.ListMeetings()
		if err != nil {
			return err
		}
		printStatus("Meetings", "%d", len(meetings))

		recent, err := store.ListRecentCouncilFiles(1000)
		if err != nil {
			return err
		}
		printStatus("Council files", "%d", len(recent))

		if idx, err := docs.ReadIndex(); err == nil {
			printStatus("Index generated", "%s", idx.GeneratedAt)
		} else {
			printStatus("Index", "not built")
		}

		runs, err := store.ListRuns(5)
		if err != nil {
			return err
		}
		for _, r := range runs {
			printStatus("Run "+r.ID[:8], "%s at %s (%d parsed, %d council files)",
				r.Status, r.StartedAt, r.MeetingsParsed, r.CouncilFiles)
		}
		return nil
	},
}

// --- config ---

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show or update configuration",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}

		keys := config.ShowAll(cfg)
		for _, k := range keys {
			fmt.Printf("  %s = %s\n", colorize(colorBold, k.Key), k.Value)
		}
		return nil
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a configuration value",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		key, value := args[0], args[1]

		if err := config.SetKey(key, value); err != nil {
			return err
		}

		printSuccess("Set %s = %s", key, value)
		return nil
	},
}

func init() {
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configSetCmd)
}
