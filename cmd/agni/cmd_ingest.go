package main

import (
	"fmt"
	"path/filepath"

	"agni/internal/backend"
	"agni/internal/documents"
	"agni/internal/logging"
	"agni/internal/session"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// ingestCmd uploads documents without opening the console.
var ingestCmd = &cobra.Command{
	Use:   "ingest [file...]",
	Short: "Upload documents to the backend in one request",
	Long: `Uploads every accepted file as one multipart request to the ingestion
endpoint. Files with an unsupported extension are skipped with a warning.

Example:
  agni ingest handbook.pdf notes.txt`,
	Args: cobra.MinimumNArgs(1),
	RunE: runIngest,
}

func runIngest(cmd *cobra.Command, args []string) error {
	ctx, stop := signalContext(cmd.Context())
	defer stop()

	policy := documents.NewPolicy(appCfg.Upload.AllowedExtensions)
	accepted, rejected := policy.Filter(args)
	for _, p := range rejected {
		fmt.Fprintf(cmd.ErrOrStderr(), "skipping %v\n", policy.Check(p))
	}
	if len(accepted) == 0 {
		return backend.ErrNoFiles
	}

	ctx = logging.ToContext(ctx, logging.CategoryUpload)
	files, err := documents.Load(ctx, accepted, appCfg.Upload.MaxFileSize)
	if err != nil {
		return fmt.Errorf("%s: %w", session.UploadFailedText, err)
	}

	resp, err := newClient(appCfg).Ingest(ctx, files)
	if err != nil {
		logging.Get(logging.CategoryUpload).Warn("ingest failed", zap.Error(err))
		return fmt.Errorf("%s: %w", session.UploadFailedText, err)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, session.UploadSucceededText)
	for _, p := range accepted {
		fmt.Fprintf(out, "  %s\n", filepath.Base(p))
	}
	if resp != nil && resp.ChunksProcessed > 0 {
		fmt.Fprintf(out, "chunks processed: %d\n", resp.ChunksProcessed)
	}
	return nil
}
