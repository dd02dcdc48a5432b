package cmd

import (
	"context"
	"flag"
	"fmt"
	"strings"

	"github.com/solon0/solon/internal/log"
	"github.com/solon0/solon/internal/prompt"
	"github.com/solon0/solon/internal/rag"
)

// runAsk answers a question over the hybrid document pools.
func runAsk(logger log.Logger, args []string) error {
	fs := flag.NewFlagSet("ask", flag.ContinueOnError)
	userID := fs.String("user", "", "requesting user id (required)")
	sessionID := fs.String("session", "", "chat session id (enables the session pool)")
	lawyer := fs.Bool("lawyer", false, "answer for a professional audience")
	noPublic := fs.Bool("no-public", false, "skip the public knowledge base")
	noUserDocs := fs.Bool("no-user-docs", false, "skip the user's private documents")
	category := fs.String("category", "", "restrict the public pool to one category")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *userID == "" {
		fs.Usage()
		return fmt.Errorf("-user is required")
	}
	question := strings.Join(fs.Args(), " ")
	if strings.TrimSpace(question) == "" {
		return fmt.Errorf("question is empty")
	}

	userType := prompt.UserTypeNormal
	if *lawyer {
		userType = prompt.UserTypeLawyer
	}
	var categories []string
	if *category != "" {
		categories = []string{*category}
	}

	ctx := context.Background()
	a, err := newApp(ctx, logger)
	if err != nil {
		return err
	}
	defer a.close()

	answer, err := a.service.Answer(ctx, rag.AuthenticatedUser{ID: *userID}, rag.AnswerParams{
		Query:           question,
		SessionID:       *sessionID,
		UserType:        userType,
		IncludePublic:   !*noPublic,
		IncludeUserDocs: !*noUserDocs,
		Categories:      categories,
	})
	if err != nil {
		return fmt.Errorf("answering question: %w", err)
	}

	fmt.Println(answer.Response)
	if len(answer.Sources) > 0 {
		fmt.Println()
		fmt.Println("Sources:")
		for _, s := range answer.Sources {
			fmt.Printf("  - %s [%s] (similarity %.2f)\n", s.Title, s.Source, s.Similarity)
		}
	}
	return nil
}
