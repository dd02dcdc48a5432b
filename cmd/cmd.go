// Package cmd provides the CLI commands for solon.
//
// Commands:
//   - ingest: ingest a document into a user's private or session pool
//   - ingest-public: ingest a document into the public knowledge base
//   - ask: answer a question over the hybrid document pools
//   - summary: summarize a stored document
//   - migrate: apply pending database migrations
package cmd

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/solon0/solon/internal/log"
)

// Version information (injected at build time via ldflags).
var (
	AppVersion = "development"
	BuildTime  = "unknown"
	GitCommit  = "unknown"
)

// Execute is the main entry point for the solon CLI.
func Execute() error {
	logger := log.New(log.Config{
		Level: logLevel(),
		JSON:  os.Getenv("SOLON_LOG_JSON") != "",
	})

	if len(os.Args) < 2 {
		runHelp()
		return nil
	}

	switch os.Args[1] {
	case "ingest":
		return runIngest(logger, os.Args[2:])
	case "ingest-public":
		return runIngestPublic(logger, os.Args[2:])
	case "ask":
		return runAsk(logger, os.Args[2:])
	case "summary":
		return runSummary(logger, os.Args[2:])
	case "migrate":
		return runMigrate(logger)
	case "version", "--version", "-v":
		runVersion()
		return nil
	case "help", "--help", "-h":
		runHelp()
		return nil
	default:
		return fmt.Errorf("unknown command: %s", os.Args[1])
	}
}

func logLevel() slog.Level {
	if os.Getenv("DEBUG") != "" {
		return slog.LevelDebug
	}
	return slog.LevelInfo
}

// runHelp displays the help message.
func runHelp() {
	fmt.Println("solon - legal document question answering")
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Println("  solon ingest -user ID -file PATH [flags]    Ingest a document for a user")
	fmt.Println("  solon ingest-public -admin ID -file PATH    Ingest into the public knowledge base")
	fmt.Println("  solon ask -user ID QUESTION [flags]         Answer a question")
	fmt.Println("  solon summary -doc ID                       Summarize a stored document")
	fmt.Println("  solon migrate                               Apply database migrations")
	fmt.Println("  solon version                               Show version information")
	fmt.Println("  solon help                                  Show this help")
	fmt.Println()
	fmt.Println("Environment Variables:")
	fmt.Println("  GEMINI_API_KEY          Required: Gemini API key")
	fmt.Println("  GEMINI_BACKUP_API_KEY   Optional: backup key for quota fallback")
	fmt.Println("  DATABASE_URL            Optional: overrides postgres_* config")
	fmt.Println("  DEBUG                   Optional: enable debug logging")
}
