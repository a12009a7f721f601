package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"agni/cmd/agni/chat"
	"agni/internal/backend"
	"agni/internal/config"
	"agni/internal/logging"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// version is reported in the User-Agent header.
const version = "0.1.0"

var (
	// Global flags
	verbose    bool
	configPath string
	baseURL    string

	// Effective configuration, resolved before every command.
	appCfg *config.Config
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "agni",
	Short: "Agni RAG Assistant - terminal chat console",
	Long: `agni is a terminal console for a retrieval-augmented-generation backend.

Upload documents from the sidebar, then ask questions about them. Retrieval,
embedding and generation all happen in the backend; agni talks to it over
POST /chat and POST /api/documents/ingest.

Run without arguments to start the interactive console.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		appCfg = cfg

		if err := logging.Initialize(cfg.Logging, verbose); err != nil {
			return fmt.Errorf("failed to initialize logging: %w", err)
		}
		logging.Boot("command starting",
			zap.String("command", cmd.CommandPath()),
			zap.String("base_url", cfg.Backend.BaseURL),
			zap.String("version", version),
		)
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		logging.Sync()
	},
	RunE: runConsole,
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging to the log file")
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Config file (default: .agni/config.yaml or the user config dir)")
	rootCmd.PersistentFlags().StringVar(&baseURL, "base-url", "", "Backend base URL for this run (overrides config)")

	rootCmd.AddCommand(askCmd)
	rootCmd.AddCommand(ingestCmd)
	rootCmd.AddCommand(healthCmd)
	rootCmd.AddCommand(configCmd)
}

func main() {
	err := rootCmd.Execute()
	logging.CloseAll()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// loadConfig resolves the configuration and applies --base-url.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	if baseURL != "" {
		cfg.Backend.BaseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
		if err := cfg.Validate(); err != nil {
			return nil, err
		}
	}
	return cfg, nil
}

func newClient(cfg *config.Config) *backend.Client {
	return backend.New(cfg.Backend,
		backend.WithUserAgent("agni/"+version),
		backend.WithLogger(logging.Get(logging.CategoryAPI).With(zap.String("version", version))),
	)
}

// signalContext is cancelled on SIGINT or SIGTERM.
func signalContext(parent context.Context) (context.Context, context.CancelFunc) {
	if parent == nil {
		parent = context.Background()
	}
	return signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
}

// runConsole launches the interactive console.
func runConsole(cmd *cobra.Command, args []string) error {
	ctx, stop := signalContext(cmd.Context())
	defer stop()

	return chat.Run(chat.Config{
		App:     appCfg,
		Client:  newClient(appCfg),
		Context: ctx,
	})
}
