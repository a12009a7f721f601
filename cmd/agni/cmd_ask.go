package main

import (
	"fmt"
	"strings"

	"agni/internal/backend"
	"agni/internal/logging"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// askCmd sends one question and prints the reply.
var askCmd = &cobra.Command{
	Use:   "ask [question...]",
	Short: "Ask a single question and print the answer",
	Long: `Sends one message to POST /chat and prints the response.
The enhanced query, when the backend returns one, is printed beneath it.

Example:
  agni ask "What does the contract say about termination?"`,
	Args: cobra.MinimumNArgs(1),
	RunE: runAsk,
}

func runAsk(cmd *cobra.Command, args []string) error {
	ctx, stop := signalContext(cmd.Context())
	defer stop()

	question := strings.Join(args, " ")
	ctx = logging.ToContext(ctx, logging.CategoryChat)

	resp, err := newClient(appCfg).Chat(ctx, question)
	if err != nil {
		logging.Get(logging.CategoryChat).Warn("ask failed",
			zap.Error(err),
			zap.Int("status", backend.StatusCode(err)),
		)
		return fmt.Errorf("chat request failed: %w", err)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, resp.Response)
	if resp.EnhancedQuery != "" {
		fmt.Fprintf(out, "\nEnhanced Query: %s\n", resp.EnhancedQuery)
	}
	return nil
}
