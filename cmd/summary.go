package cmd

import (
	"context"
	"flag"
	"fmt"

	"github.com/google/uuid"

	"github.com/solon0/solon/internal/log"
)

// runSummary generates a summary of a stored document.
func runSummary(logger log.Logger, args []string) error {
	fs := flag.NewFlagSet("summary", flag.ContinueOnError)
	docID := fs.String("doc", "", "document id (required)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *docID == "" {
		fs.Usage()
		return fmt.Errorf("-doc is required")
	}
	id, err := uuid.Parse(*docID)
	if err != nil {
		return fmt.Errorf("invalid document id: %w", err)
	}

	ctx := context.Background()
	a, err := newApp(ctx, logger)
	if err != nil {
		return err
	}
	defer a.close()

	gen, err := a.service.DocumentSummary(ctx, id)
	if err != nil {
		return fmt.Errorf("summarizing document: %w", err)
	}
	fmt.Println(gen.Response)
	return nil
}
