package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/solon0/solon/internal/chunker"
	"github.com/solon0/solon/internal/log"
	"github.com/solon0/solon/internal/rag"
)

// runIngest ingests a text document into a user's private pool, or into a
// session pool when -session is given.
func runIngest(logger log.Logger, args []string) error {
	fs := flag.NewFlagSet("ingest", flag.ContinueOnError)
	userID := fs.String("user", "", "owner user id (required)")
	file := fs.String("file", "", "path to the document text (required)")
	sessionID := fs.String("session", "", "chat session id (scopes the document to the session)")
	name := fs.String("name", "", "display name (default: file name)")
	description := fs.String("desc", "", "document description")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *userID == "" || *file == "" {
		fs.Usage()
		return fmt.Errorf("-user and -file are required")
	}

	text, meta, err := readDocument(*file, *name, *description)
	if err != nil {
		return err
	}

	ctx := context.Background()
	a, err := newApp(ctx, logger)
	if err != nil {
		return err
	}
	defer a.close()

	result, err := a.service.ProcessDocument(ctx,
		rag.AuthenticatedUser{ID: *userID}, *sessionID, text, meta)
	if err != nil {
		return fmt.Errorf("ingesting document: %w", err)
	}

	fmt.Printf("Ingested %s\n", meta.DisplayName)
	fmt.Printf("  Document ID: %s\n", result.DocumentID)
	fmt.Printf("  Chunks: %d (%d tokens)\n", result.ChunkCount, result.TokenCount)
	return nil
}

// runIngestPublic ingests a document into the public knowledge base.
func runIngestPublic(logger log.Logger, args []string) error {
	fs := flag.NewFlagSet("ingest-public", flag.ContinueOnError)
	adminID := fs.String("admin", "", "admin user id (required)")
	file := fs.String("file", "", "path to the document text (required)")
	category := fs.String("category", "", "knowledge base category (required)")
	name := fs.String("name", "", "display name (default: file name)")
	description := fs.String("desc", "", "document description")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *adminID == "" || *file == "" || *category == "" {
		fs.Usage()
		return fmt.Errorf("-admin, -file and -category are required")
	}

	text, meta, err := readDocument(*file, *name, *description)
	if err != nil {
		return err
	}

	ctx := context.Background()
	a, err := newApp(ctx, logger)
	if err != nil {
		return err
	}
	defer a.close()

	result, err := a.service.ProcessAdminDocument(ctx,
		rag.AuthenticatedUser{ID: *adminID}, *category, text, meta)
	if err != nil {
		return fmt.Errorf("ingesting public document: %w", err)
	}

	fmt.Printf("Ingested %s into the public knowledge base (%s)\n", meta.DisplayName, *category)
	fmt.Printf("  Document ID: %s\n", result.DocumentID)
	fmt.Printf("  Chunks: %d (%d tokens)\n", result.ChunkCount, result.TokenCount)
	return nil
}

func readDocument(path, name, description string) (string, chunker.DocumentMetadata, error) {
	data, err := os.ReadFile(path) // #nosec G304 -- user-supplied path is the point of the command
	if err != nil {
		return "", chunker.DocumentMetadata{}, fmt.Errorf("reading document: %w", err)
	}
	filename := filepath.Base(path)
	if name == "" {
		name = strings.TrimSuffix(filename, filepath.Ext(filename))
	}
	return string(data), chunker.DocumentMetadata{
		Filename:    filename,
		FileType:    strings.TrimPrefix(filepath.Ext(filename), "."),
		DisplayName: name,
		Description: description,
	}, nil
}
