package files

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"testing/iotest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScratch_Save(t *testing.T) {
	tests := []struct {
		name     string
		fileName string
		content  string
		limit    int64
		wantBase string
		wantErr  error
	}{
		{name: "plain", fileName: "sales.csv", content: "a,b\n", wantBase: "sales.csv"},
		{name: "path components stripped", fileName: "../../etc/sales.csv", content: "x", wantBase: "sales.csv"},
		{name: "windows path stripped", fileName: `C:\exports\sales.xlsx`, content: "x", wantBase: "sales.xlsx"},
		{name: "exactly at limit", fileName: "a.csv", content: "12345", limit: 5, wantBase: "a.csv"},
		{name: "over limit", fileName: "a.csv", content: "123456", limit: 5, wantErr: ErrFileTooLarge},
		{name: "empty name", fileName: "", content: "x", wantErr: ErrInvalidFileName},
		{name: "dot dot", fileName: "..", content: "x", wantErr: ErrInvalidFileName},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := newTestManager(t).NewScratch()
			require.NoError(t, err)
			defer s.Release()

			path, err := s.Save(tt.fileName, strings.NewReader(tt.content), tt.limit)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				entries, readErr := os.ReadDir(s.Dir())
				require.NoError(t, readErr)
				assert.Empty(t, entries, "rejected uploads leave nothing behind")
				return
			}

			require.NoError(t, err)
			assert.Equal(t, filepath.Join(s.Dir(), tt.wantBase), path)
			data, err := os.ReadFile(path)
			require.NoError(t, err)
			assert.Equal(t, tt.content, string(data))
		})
	}
}

func TestScratch_Save_ReaderError(t *testing.T) {
	s, err := newTestManager(t).NewScratch()
	require.NoError(t, err)
	defer s.Release()

	readErr := errors.New("connection reset")
	_, err = s.Save("a.csv", iotest.ErrReader(readErr), 0)
	assert.ErrorIs(t, err, readErr)
	assert.NoFileExists(t, filepath.Join(s.Dir(), "a.csv"))
}

func TestScratch_ReleaseIsIdempotent(t *testing.T) {
	s, err := newTestManager(t).NewScratch()
	require.NoError(t, err)

	_, err = s.Save("a.csv", strings.NewReader("x"), 0)
	require.NoError(t, err)

	assert.NoError(t, s.Release())
	assert.NoError(t, s.Release())
	assert.NoDirExists(t, s.Dir())
}
