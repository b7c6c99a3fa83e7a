package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/quill-ai/quill/internal/agent"
	"github.com/quill-ai/quill/internal/clipper"
	"github.com/quill-ai/quill/internal/config"
	apperrors "github.com/quill-ai/quill/internal/errors"
	"github.com/quill-ai/quill/internal/mcpserver"
	"github.com/quill-ai/quill/internal/model"
	"github.com/quill-ai/quill/internal/search"
	"github.com/quill-ai/quill/internal/stats"
	"github.com/quill-ai/quill/internal/tools"
	"github.com/quill-ai/quill/internal/tui"
	"github.com/quill-ai/quill/internal/vault"
)

var (
	// Global flags
	verbose    bool
	configPath string
	vaultPath  string

	cfg    *config.Config
	logger *zap.Logger
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "quill",
	Short: "Quill - Chat with your notes",
	Long: `Quill answers questions using your note vault as context.

It searches your notes for relevant material, grounds every answer in
what it finds, and can read, create and edit notes on request.

Run without arguments to start the interactive chat interface.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load(configPath)
		if err != nil {
			return err
		}
		if vaultPath != "" {
			cfg.Vault.Path = vaultPath
		}

		// The chat interface owns the terminal, so it gets a silent logger
		// unless verbosity is requested.
		if (cmd.Name() == "quill" || cmd.Name() == "chat") && !verbose {
			logger = zap.NewNop()
			return nil
		}

		zcfg := zap.NewProductionConfig()
		if verbose {
			zcfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
		}
		logger, err = zcfg.Build()
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
	RunE: runChat,
}

// chatCmd is the explicit spelling of the default command.
var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Start the interactive chat interface",
	RunE:  runChat,
}

func runChat(cmd *cobra.Command, args []string) error {
	v, err := openVault()
	if err != nil {
		return err
	}
	return tui.Run(buildAgent(v), buildEngine(v), cfg.Agent.ToolsEnabled)
}

// askCmd answers a single question and exits.
var askCmd = &cobra.Command{
	Use:   "ask [question]",
	Short: "Ask a single question about your notes",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runAsk,
}

var (
	askNoTools  bool
	askNoSearch bool
)

// searchCmd searches the vault without calling the model.
var searchCmd = &cobra.Command{
	Use:   "search [query]",
	Short: "Search notes by relevance",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runSearch,
}

// clipCmd saves a web page into the vault.
var clipCmd = &cobra.Command{
	Use:   "clip [url]",
	Short: "Save a web page as a markdown note",
	Args:  cobra.ExactArgs(1),
	RunE:  runClip,
}

var clipFolder string

// mcpCmd serves vault tools over MCP on stdio.
var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Serve vault tools over the Model Context Protocol (stdio)",
	RunE:  runMCP,
}

// statsCmd prints recorded usage.
var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show recorded token usage",
	RunE:  runStats,
}

var statsDays int

// configInitCmd writes a default config file.
var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a default config file",
	RunE: func(cmd *cobra.Command, args []string) error {
		if _, err := os.Stat(configPath); err == nil {
			return fmt.Errorf("config already exists at %s", configPath)
		}
		if err := config.Default().Save(configPath); err != nil {
			return err
		}
		fmt.Printf("Wrote %s\n", configPath)
		return nil
	},
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration",
}

func runAsk(cmd *cobra.Command, args []string) error {
	question := strings.Join(args, " ")

	v, err := openVault()
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	var grounding []search.Result
	if engine := buildEngine(v); engine != nil && !askNoSearch {
		grounding, err = engine.Search(ctx, question)
		if err != nil {
			return err
		}
	}

	start := time.Now()
	result, err := buildAgent(v).Run(ctx, agent.Request{
		Message:   question,
		Grounding: grounding,
		UseTools:  cfg.Agent.ToolsEnabled && !askNoTools,
	})
	recordUsage(ctx, result, time.Since(start), err)
	if err != nil {
		return fmt.Errorf("%s", apperrors.FormatUserMessage(err))
	}

	fmt.Println(result.Answer)
	return nil
}

func runSearch(cmd *cobra.Command, args []string) error {
	query := strings.Join(args, " ")

	v, err := openVault()
	if err != nil {
		return err
	}

	results, err := search.NewEngine(v, cfg.Search.MaxResults).Search(cmd.Context(), query)
	if err != nil {
		return err
	}
	if len(results) == 0 {
		fmt.Printf("No notes matched %q.\n", query)
		return nil
	}

	for _, r := range results {
		fmt.Printf("%-6.1f %s\n", r.Score, r.Note.Path)
		for _, line := range r.Matches {
			fmt.Printf("       > %s\n", line)
		}
	}
	return nil
}

func runClip(cmd *cobra.Command, args []string) error {
	v, err := openVault()
	if err != nil {
		return err
	}

	note, err := clipper.New(v).Clip(cmd.Context(), args[0], clipFolder)
	if err != nil {
		return fmt.Errorf("%s", apperrors.FormatUserMessage(err))
	}
	fmt.Printf("Clipped to %s\n", note.Path)
	return nil
}

func runMCP(cmd *cobra.Command, args []string) error {
	v, err := openVault()
	if err != nil {
		return err
	}
	server := mcpserver.New(v, search.NewEngine(v, cfg.Search.MaxResults), logger)
	return server.Run(cmd.Context())
}

func runStats(cmd *cobra.Command, args []string) error {
	store, err := stats.Open(cfg.Paths.StatsDB)
	if err != nil {
		return err
	}
	defer store.Close()

	var since time.Time
	if statsDays > 0 {
		since = time.Now().AddDate(0, 0, -statsDays)
	}

	summary, err := store.Summarize(cmd.Context(), since)
	if err != nil {
		return err
	}

	fmt.Printf("Requests:   %d (%d failed)\n", summary.Requests, summary.Errors)
	fmt.Printf("Tokens:     %d\n", summary.TotalTokens)
	fmt.Printf("Tool calls: %d\n", summary.ToolCalls)
	fmt.Printf("Latency:    %.0f ms avg\n", summary.AvgLatencyMs)
	for _, m := range summary.ByModel {
		fmt.Printf("  %-40s %6d req %10d tok\n", m.Model, m.Requests, m.TotalTokens)
	}
	return nil
}

func openVault() (*vault.FS, error) {
	if cfg.Vault.Path == "" {
		return nil, apperrors.Config(apperrors.CodeConfigInvalid, "no vault path configured").
			WithSuggestion("set vault.path in " + configPath).
			WithSuggestion("or pass --vault")
	}
	return vault.NewFS(cfg.Vault.Path, cfg.Vault.Extension)
}

func buildEngine(v vault.Vault) *search.Engine {
	if !cfg.Search.Enabled {
		return nil
	}
	return search.NewEngine(v, cfg.Search.MaxResults)
}

func buildAgent(v vault.Vault) *agent.Agent {
	client := model.NewOpenRouterClient(&model.OpenRouterConfig{
		APIKey:  cfg.OpenRouter.APIKey,
		BaseURL: cfg.OpenRouter.BaseURL,
		Model:   cfg.OpenRouter.Model,
		Timeout: time.Duration(cfg.OpenRouter.TimeoutSeconds) * time.Second,
	})
	return agent.New(agent.Config{
		Client:        client,
		Tools:         tools.NewRegistry(v),
		Logger:        logger,
		MaxIterations: cfg.Agent.MaxIterations,
		ExcerptChars:  cfg.Search.ExcerptChars,
	})
}

// recordUsage appends one run to the stats database. Failures here never
// surface; usage tracking is best effort.
func recordUsage(ctx context.Context, result *agent.Result, elapsed time.Duration, runErr error) {
	store, err := stats.Open(cfg.Paths.StatsDB)
	if err != nil {
		logger.Debug("stats unavailable", zap.Error(err))
		return
	}
	defer store.Close()

	record := stats.Record{
		Model:      cfg.OpenRouter.Model,
		DurationMs: elapsed.Milliseconds(),
		Succeeded:  runErr == nil,
	}
	if result != nil {
		record.Iterations = result.Iterations
		record.PromptTokens = result.Usage.PromptTokens
		record.CompletionTokens = result.Usage.CompletionTokens
		record.TotalTokens = result.Usage.TotalTokens
		for _, m := range result.Messages {
			if m.Role == model.RoleTool {
				record.ToolCalls++
			}
		}
	}
	if err := store.Add(ctx, record); err != nil {
		logger.Debug("failed to record usage", zap.Error(err))
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", config.DefaultPath(), "config file path")
	rootCmd.PersistentFlags().StringVar(&vaultPath, "vault", "", "vault directory (overrides config)")

	askCmd.Flags().BoolVar(&askNoTools, "no-tools", false, "answer with a single completion, no tool use")
	askCmd.Flags().BoolVar(&askNoSearch, "no-search", false, "skip vault search grounding")
	clipCmd.Flags().StringVar(&clipFolder, "folder", "Clippings", "vault folder for clipped notes")
	statsCmd.Flags().IntVar(&statsDays, "days", 0, "only include the last N days")

	configCmd.AddCommand(configInitCmd)
	rootCmd.AddCommand(chatCmd, askCmd, searchCmd, clipCmd, mcpCmd, statsCmd, configCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
