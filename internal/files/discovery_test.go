package files

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"haulpulse/internal/dataprocessing"
)

// writeFiles creates the named files in dir, each one minute newer than the previous.
func writeFiles(t *testing.T, dir string, names ...string) {
	t.Helper()
	base := time.Date(2024, 1, 1, 8, 0, 0, 0, time.UTC)
	for i, name := range names {
		path := filepath.Join(dir, name)
		require.NoError(t, os.WriteFile(path, []byte("FECHA;TONELAJE\n"), 0o644))
		mtime := base.Add(time.Duration(i) * time.Minute)
		require.NoError(t, os.Chtimes(path, mtime, mtime))
	}
}

func TestFindShipmentFiles(t *testing.T) {
	tests := []struct {
		name  string
		files []string
		want  []string
	}{
		{
			name:  "workbooks and csv oldest first",
			files: []string{"despachos_0101.xlsx", "despachos_0102.csv", "despachos_0103.XLSM"},
			want:  []string{"despachos_0101.xlsx", "despachos_0102.csv", "despachos_0103.XLSM"},
		},
		{
			name:  "unsupported and lock files skipped",
			files: []string{"notes.txt", "old.xls", "~$despachos.xlsx", "despachos.xlsx"},
			want:  []string{"despachos.xlsx"},
		},
		{
			name:  "empty directory",
			files: nil,
			want:  nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			writeFiles(t, dir, tt.files...)
			require.NoError(t, os.Mkdir(filepath.Join(dir, "archive.csv"), 0o755))

			found, err := FindShipmentFiles(dir)
			require.NoError(t, err)

			var names []string
			for _, f := range found {
				names = append(names, f.Name)
				assert.Equal(t, filepath.Join(dir, f.Name), f.Path)
				assert.Positive(t, f.Size)
			}
			assert.Equal(t, tt.want, names)
		})
	}
}

func TestFindShipmentFilesSkipsEmpty(t *testing.T) {
	dir := t.TempDir()
	writeFiles(t, dir, "despachos.csv")
	require.NoError(t, os.WriteFile(filepath.Join(dir, "blank.csv"), nil, 0o644))

	found, err := FindShipmentFiles(dir)
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, "despachos.csv", found[0].Name)
}

func TestGetLatestFile(t *testing.T) {
	_, ok := GetLatestFile(nil)
	assert.False(t, ok)

	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	latest, ok := GetLatestFile([]FileInfo{
		{Name: "a.csv", ModTime: base},
		{Name: "c.csv", ModTime: base.Add(2 * time.Hour)},
		{Name: "b.csv", ModTime: base.Add(time.Hour)},
	})
	require.True(t, ok)
	assert.Equal(t, "c.csv", latest.Name)
}

func TestResolveInput(t *testing.T) {
	dir := t.TempDir()
	writeFiles(t, dir, "despachos_0101.csv", "despachos_0102.xlsx", "readme.txt")

	empty := t.TempDir()
	blank := filepath.Join(dir, "blank.csv")
	require.NoError(t, os.WriteFile(blank, nil, 0o644))

	tests := []struct {
		name    string
		path    string
		want    string
		wantErr error
		errText string
	}{
		{name: "file", path: filepath.Join(dir, "despachos_0101.csv"), want: filepath.Join(dir, "despachos_0101.csv")},
		{name: "directory picks newest export", path: dir, want: filepath.Join(dir, "despachos_0102.xlsx")},
		{name: "directory without exports", path: empty, wantErr: ErrNoShipmentFiles},
		{name: "unsupported file", path: filepath.Join(dir, "readme.txt"), wantErr: dataprocessing.ErrUnsupportedFormat},
		{name: "empty file", path: blank, errText: "is empty"},
		{name: "missing", path: filepath.Join(dir, "nope.csv"), wantErr: os.ErrNotExist},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ResolveInput(tt.path)
			switch {
			case tt.wantErr != nil:
				assert.ErrorIs(t, err, tt.wantErr)
			case tt.errText != "":
				assert.ErrorContains(t, err, tt.errText)
			default:
				require.NoError(t, err)
				assert.Equal(t, tt.want, got)
			}
		})
	}
}
