package validation

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "orderprep/internal/errors"
	"orderprep/internal/shared/testutil"
)

func TestFileValidator_ValidateOutputDirectory(t *testing.T) {
	tests := []struct {
		name    string
		setup   func(t *testing.T, base string) string
		wantErr string
	}{
		{
			name: "creates nested directory",
			setup: func(t *testing.T, base string) string {
				return filepath.Join(base, "data", "processed")
			},
		},
		{
			name: "existing directory",
			setup: func(t *testing.T, base string) string {
				return base
			},
		},
		{
			name: "path is a file",
			setup: func(t *testing.T, base string) string {
				path := filepath.Join(base, "processed")
				require.NoError(t, os.WriteFile(path, []byte("x"), 0644))
				return path
			},
			wantErr: "output path is a file",
		},
		{
			name: "parent is a file",
			setup: func(t *testing.T, base string) string {
				blocker := filepath.Join(base, "data")
				require.NoError(t, os.WriteFile(blocker, []byte("x"), 0644))
				return filepath.Join(blocker, "processed")
			},
			wantErr: "cannot create output directory",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger, handler := testutil.NewTestLogger(t)
			v := NewFileValidator(logger)
			dir := tt.setup(t, t.TempDir())

			err := v.ValidateOutputDirectory(dir)
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.True(t, apperrors.IsType(err, apperrors.ErrTypeStorage))
				assert.Contains(t, err.Error(), tt.wantErr)
				assert.Contains(t, err.Error(), dir)
				testutil.AssertLogAttr(t, handler, "directory", dir)
				return
			}

			require.NoError(t, err)
			entries, err := os.ReadDir(dir)
			require.NoError(t, err)
			assert.Empty(t, entries, "write check file is removed")
			testutil.AssertNoErrors(t, handler)
		})
	}
}

func TestFileValidator_ValidateOutputDirectories(t *testing.T) {
	base := t.TempDir()
	blocker := filepath.Join(base, "visuals")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0644))

	v := NewFileValidator(nil)
	processed := filepath.Join(base, "data", "processed")

	require.NoError(t, v.ValidateOutputDirectories())
	require.NoError(t, v.ValidateOutputDirectories(processed))

	err := v.ValidateOutputDirectories(processed, blocker)
	require.Error(t, err)
	assert.Contains(t, err.Error(), blocker)
}
