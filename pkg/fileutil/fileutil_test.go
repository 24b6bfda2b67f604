package fileutil_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/rohmanhakim/record-finder/pkg/failure"
	"github.com/rohmanhakim/record-finder/pkg/fileutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetFileExtension(t *testing.T) {
	tests := []struct {
		name     string
		path     string
		expected string
	}{
		{name: "simple", path: "listing.html", expected: "html"},
		{name: "multiple dots", path: "config.local.yaml", expected: "yaml"},
		{name: "uppercase", path: "CONFIG.JSON", expected: "json"},
		{name: "no extension", path: "Makefile", expected: ""},
		{name: "dotfile", path: ".env", expected: "env"},
		{name: "directories", path: "/tmp/pages/shop.htm", expected: "htm"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, fileutil.GetFileExtension(tt.path))
		})
	}
}

func TestEnsureDir_CreatesNestedDirectories(t *testing.T) {
	root := t.TempDir()

	err := fileutil.EnsureDir(root, "reports", "2026")
	require.Nil(t, err)

	info, statErr := os.Stat(filepath.Join(root, "reports", "2026"))
	require.NoError(t, statErr)
	assert.True(t, info.IsDir())

	// already existing is fine
	assert.Nil(t, fileutil.EnsureDir(root, "reports", "2026"))
}

func TestEnsureDir_FailsBelowAFile(t *testing.T) {
	root := t.TempDir()
	file := filepath.Join(root, "occupied")
	require.NoError(t, os.WriteFile(file, []byte("x"), 0o644))

	err := fileutil.EnsureDir(file, "child")

	require.NotNil(t, err)
	assert.Equal(t, failure.SeverityFatal, err.Severity())
	var fileErr *fileutil.FileError
	require.ErrorAs(t, err, &fileErr)
	assert.Equal(t, fileutil.ErrCausePathError, fileErr.Cause)
}
