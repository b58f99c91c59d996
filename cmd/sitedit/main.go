package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"

	"sitedit/internal/config"
	"sitedit/internal/editor"
	"sitedit/internal/llm"
	"sitedit/internal/patch"
	"sitedit/internal/server"
	"sitedit/internal/storage"

	"github.com/spf13/cobra"
)

var (
	rootCmd = &cobra.Command{
		Use:   "sitedit",
		Short: "Generate and iteratively edit HTML pages with a language model",
	}
	configPath string
	dbPath     string
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "config.yaml", "Path to the YAML configuration file")
	rootCmd.PersistentFlags().StringVarP(&dbPath, "db", "d", "", "Path to the history database (SQLite); overrides storage.path")

	applyCmd.Flags().String("doc", "", "HTML document to edit")
	applyCmd.Flags().String("reply", "-", "Model reply containing SEARCH/REPLACE blocks ('-' for stdin)")
	applyCmd.Flags().Bool("write", false, "Write the edited document back to --doc")
	applyCmd.Flags().Bool("diff", false, "Print a line diff of the edit")
	_ = applyCmd.MarkFlagRequired("doc")

	historyCmd.Flags().String("session", "default", "Session to list")
	historyCmd.Flags().Int("limit", 10, "Maximum number of versions to show")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(applyCmd)
	rootCmd.AddCommand(historyCmd)
}

func loadConfig() *config.Config {
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if dbPath != "" {
		cfg.Storage.Path = dbPath
	}
	return cfg
}

// clientFactory returns per-request clients. A key sent with the request
// wins over the configured one, as does a requested model.
func clientFactory(cfg *config.Config) editor.ClientFactory {
	return func(ctx context.Context, apiKey, model string) (llm.Client, error) {
		if apiKey == "" {
			apiKey = cfg.AI.APIKey
		}
		if model == "" {
			model = cfg.AI.Model
		}
		return llm.NewClient(ctx, llm.Options{
			Provider: cfg.AI.Provider,
			APIKey:   apiKey,
			Model:    model,
			BaseURL:  cfg.AI.BaseURL,
		})
	}
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	Run: func(cmd *cobra.Command, args []string) {
		cfg := loadConfig()

		logger, err := config.NewLogger(cfg.Log)
		if err != nil {
			log.Fatalf("Invalid log configuration: %v", err)
		}

		store, err := storage.NewSQLiteStore(cfg.Storage.Path)
		if err != nil {
			log.Fatalf("Failed to initialize database: %v", err)
		}
		defer store.Close()

		svc := editor.NewService(clientFactory(cfg), store, logger, cfg.AI.FollowUpModel)
		srv := server.New(svc, store, logger)

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		fmt.Printf("🚀 Listening on %s (provider: %s)\n", cfg.Server.Addr, cfg.AI.Provider)
		if err := srv.ListenAndServe(ctx, cfg.Server.Addr); err != nil {
			log.Fatalf("Server stopped: %v", err)
		}
		fmt.Println("👋 Server shut down.")
	},
}

var applyCmd = &cobra.Command{
	Use:   "apply",
	Short: "Apply SEARCH/REPLACE blocks from a saved model reply to a document",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		docPath, _ := cmd.Flags().GetString("doc")
		replyPath, _ := cmd.Flags().GetString("reply")
		write, _ := cmd.Flags().GetBool("write")
		showDiff, _ := cmd.Flags().GetBool("diff")

		doc, err := os.ReadFile(docPath)
		if err != nil {
			log.Fatalf("Failed to read document: %v", err)
		}
		reply, err := readInput(replyPath)
		if err != nil {
			log.Fatalf("Failed to read reply: %v", err)
		}

		instructions := patch.Extract(reply)
		if len(instructions) == 0 {
			log.Fatalf("No SEARCH/REPLACE blocks found in the reply.")
		}

		res := patch.Apply(string(doc), instructions)
		fmt.Fprintf(os.Stderr, "📝 %d block(s) found, %d applied.\n", len(instructions), len(instructions)-len(res.Unmatched))
		for _, i := range res.Unmatched {
			fmt.Fprintf(os.Stderr, "⚠️  Block %d: search text not found, skipped.\n", i+1)
		}
		for _, i := range res.Ambiguous {
			fmt.Fprintf(os.Stderr, "⚠️  Block %d: search text occurs more than once, first occurrence replaced.\n", i+1)
		}

		if showDiff {
			fmt.Fprintln(os.Stderr, patch.LineDiff(string(doc), res.Document))
		}

		if write {
			if err := os.WriteFile(docPath, []byte(res.Document), 0o644); err != nil {
				log.Fatalf("Failed to write document: %v", err)
			}
			ins, del := patch.ChangedCharacters(string(doc), res.Document)
			fmt.Fprintf(os.Stderr, "✅ Wrote %s (+%d/-%d chars).\n", docPath, ins, del)
		} else {
			fmt.Print(res.Document)
		}

		lines, err := json.Marshal(nonNilRanges(res.Changes))
		if err != nil {
			log.Fatalf("Failed to encode line ranges: %v", err)
		}
		fmt.Fprintf(os.Stderr, "updatedLines: %s\n", lines)
	},
}

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List saved document versions",
	Run: func(cmd *cobra.Command, args []string) {
		session, _ := cmd.Flags().GetString("session")
		limit, _ := cmd.Flags().GetInt("limit")

		cfg := loadConfig()
		store, err := storage.NewSQLiteStore(cfg.Storage.Path)
		if err != nil {
			log.Fatalf("Failed to initialize database: %v", err)
		}
		defer store.Close()

		entries, err := store.List(context.Background(), session, limit)
		if err != nil {
			log.Fatalf("Failed to load history: %v", err)
		}
		if len(entries) == 0 {
			fmt.Printf("📭 No history for session %q.\n", session)
			return
		}
		for _, e := range entries {
			fmt.Printf("%s  %s  %6d bytes  %s\n", e.CreatedAt.Local().Format("2006-01-02 15:04:05"), shortID(e.ID), len(e.HTML), e.Prompt)
		}
	},
}

func readInput(path string) (string, error) {
	if path == "-" {
		b, err := io.ReadAll(os.Stdin)
		return string(b), err
	}
	b, err := os.ReadFile(path)
	return string(b), err
}

func nonNilRanges(r []patch.Range) []patch.Range {
	if r == nil {
		return []patch.Range{}
	}
	return r
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
