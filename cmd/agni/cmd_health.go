package main

import (
	"fmt"

	"agni/internal/logging"

	"github.com/spf13/cobra"
)

// healthCmd checks that the backend is reachable.
var healthCmd = &cobra.Command{
	Use:   "health",
	Short: "Check the backend health endpoint",
	Args:  cobra.NoArgs,
	RunE:  runHealth,
}

func runHealth(cmd *cobra.Command, args []string) error {
	ctx, stop := signalContext(cmd.Context())
	defer stop()

	resp, err := newClient(appCfg).Health(logging.ToContext(ctx, logging.CategoryAPI))
	if err != nil {
		return fmt.Errorf("backend %s unreachable: %w", appCfg.Backend.BaseURL, err)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "status: %s\n", resp.Status)
	if resp.System != "" {
		fmt.Fprintf(out, "system: %s\n", resp.System)
	}
	return nil
}
