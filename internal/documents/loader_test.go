package documents

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoad_PreservesOrderAndNames(t *testing.T) {
	dir := t.TempDir()
	paths := []string{
		writeFile(t, dir, "c.txt", "third"),
		writeFile(t, dir, "a.txt", "first"),
		writeFile(t, dir, "doc.pdf", "%PDF-1.4\n%test"),
		writeFile(t, dir, "b.txt", "second"),
		writeFile(t, dir, "e.txt", "fifth"),
		writeFile(t, dir, "d.txt", "fourth"),
	}

	files, err := Load(context.Background(), paths, 0)
	require.NoError(t, err)
	require.Len(t, files, len(paths))

	var names []string
	for _, f := range files {
		names = append(names, f.Name)
	}
	assert.Equal(t, []string{"c.txt", "a.txt", "doc.pdf", "b.txt", "e.txt", "d.txt"}, names)
	assert.Equal(t, "third", string(files[0].Content))
	assert.True(t, strings.HasPrefix(files[0].ContentType, "text/plain"))
	assert.Equal(t, "application/pdf", files[2].ContentType)
}

func TestLoad_Missing(t *testing.T) {
	dir := t.TempDir()
	ok := writeFile(t, dir, "ok.txt", "x")

	_, err := Load(context.Background(), []string{ok, filepath.Join(dir, "gone.txt")}, 0)
	require.Error(t, err)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestLoad_Directory(t *testing.T) {
	dir := t.TempDir()
	sub := filepath.Join(dir, "folder.pdf")
	require.NoError(t, os.Mkdir(sub, 0755))

	_, err := Load(context.Background(), []string{sub}, 0)
	assert.ErrorIs(t, err, ErrNotRegular)
}

func TestLoad_TooLarge(t *testing.T) {
	dir := t.TempDir()
	big := writeFile(t, dir, "big.txt", strings.Repeat("x", 64))

	_, err := Load(context.Background(), []string{big}, 32)
	assert.ErrorIs(t, err, ErrTooLarge)

	files, err := Load(context.Background(), []string{big}, 64)
	require.NoError(t, err)
	assert.Len(t, files, 1)
}

func TestLoad_CanceledContext(t *testing.T) {
	dir := t.TempDir()
	p := writeFile(t, dir, "a.txt", "x")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Load(ctx, []string{p}, 0)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestLoad_Empty(t *testing.T) {
	files, err := Load(context.Background(), nil, 0)
	require.NoError(t, err)
	assert.Empty(t, files)
}
