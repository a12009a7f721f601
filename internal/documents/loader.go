package documents

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"agni/internal/backend"
	"agni/internal/logging"

	"github.com/gabriel-vasile/mimetype"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// maxConcurrentReads bounds parallel file reads.
const maxConcurrentReads = 4

var (
	// ErrNotRegular is returned for directories and other non-regular files.
	ErrNotRegular = errors.New("not a regular file")

	// ErrTooLarge is returned when a file exceeds the configured size limit.
	ErrTooLarge = errors.New("file exceeds size limit")
)

// Load reads paths into ingestion parts, preserving order. Each part is named
// by the file's base name and carries a sniffed content type. maxSize of zero
// disables the size check. The first failure cancels remaining reads.
func Load(ctx context.Context, paths []string, maxSize int64) ([]backend.File, error) {
	files := make([]backend.File, len(paths))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrentReads)

	for i, path := range paths {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			f, err := readOne(path, maxSize)
			if err != nil {
				return err
			}
			files[i] = f
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	logging.Upload("documents loaded", zap.Int("count", len(files)))
	return files, nil
}

func readOne(path string, maxSize int64) (backend.File, error) {
	info, err := os.Stat(path)
	if err != nil {
		return backend.File{}, fmt.Errorf("stat %s: %w", path, err)
	}
	if !info.Mode().IsRegular() {
		return backend.File{}, fmt.Errorf("%s: %w", path, ErrNotRegular)
	}
	if maxSize > 0 && info.Size() > maxSize {
		return backend.File{}, fmt.Errorf("%s (%d bytes): %w", path, info.Size(), ErrTooLarge)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return backend.File{}, fmt.Errorf("read %s: %w", path, err)
	}

	return backend.File{
		Name:        filepath.Base(path),
		Content:     data,
		ContentType: mimetype.Detect(data).String(),
	}, nil
}
