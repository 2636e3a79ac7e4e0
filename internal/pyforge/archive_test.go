package pyforge

import (
	"archive/tar"
	"os"
	"path/filepath"
	"testing"

	"github.com/klauspost/pgzip"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// writeReleaseTarball creates a minimal Python-style tarball: a single
// top-level directory wrapping the tree.
func writeReleaseTarball(t *testing.T, path string) {
	t.Helper()

	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()

	gz := pgzip.NewWriter(f)
	defer gz.Close()
	tw := tar.NewWriter(gz)
	defer tw.Close()

	require.NoError(t, tw.WriteHeader(&tar.Header{
		Name:     "Python-9.9.9/",
		Typeflag: tar.TypeDir,
		Mode:     0o755,
	}))

	content := []byte("#!/bin/sh\nexit 0\n")
	require.NoError(t, tw.WriteHeader(&tar.Header{
		Name:     "Python-9.9.9/configure",
		Typeflag: tar.TypeReg,
		Mode:     0o755,
		Size:     int64(len(content)),
	}))
	_, err = tw.Write(content)
	require.NoError(t, err)

	readme := []byte("docs\n")
	require.NoError(t, tw.WriteHeader(&tar.Header{
		Name:     "Python-9.9.9/Doc/README.rst",
		Typeflag: tar.TypeReg,
		Mode:     0o644,
		Size:     int64(len(readme)),
	}))
	_, err = tw.Write(readme)
	require.NoError(t, err)
}

func TestExtractArchiveStripsTopLevelDir(t *testing.T) {
	dir := t.TempDir()
	archive := filepath.Join(dir, "Python-9.9.9.tar.gz")
	writeReleaseTarball(t, archive)

	dest := filepath.Join(dir, "src")
	require.NoError(t, extractArchive(archive, dest))

	// The destination itself is the source tree, not dest/Python-9.9.9.
	_, err := os.Stat(filepath.Join(dest, "configure"))
	assert.NoError(t, err)
	_, err = os.Stat(filepath.Join(dest, "Doc", "README.rst"))
	assert.NoError(t, err)
	_, err = os.Stat(filepath.Join(dest, "Python-9.9.9"))
	assert.True(t, os.IsNotExist(err))
}

func TestExtractArchiveRejectsUnknownFormat(t *testing.T) {
	dir := t.TempDir()
	archive := filepath.Join(dir, "Python-9.9.9.rar")
	require.NoError(t, os.WriteFile(archive, []byte("not an archive"), 0o644))

	err := extractArchive(archive, filepath.Join(dir, "src"))
	assert.Error(t, err)
}

func TestNewestRelease(t *testing.T) {
	assert.Equal(t, "3.12.11", newestRelease([]string{"3.12.2", "3.12.11", "3.12.9"}))
	assert.Equal(t, "", newestRelease(nil))
}
