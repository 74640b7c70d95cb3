package files

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"haulpulse/internal/dataprocessing"
)

// ErrNoShipmentFiles is returned when a directory holds no readable export.
var ErrNoShipmentFiles = errors.New("no shipment files found")

// FileInfo represents information about a discovered file
type FileInfo struct {
	Path    string
	Name    string
	Size    int64
	ModTime time.Time
}

// FindShipmentFiles lists the workbooks and CSV files in dir, oldest first.
// Office lock files (~$name.xlsx) and empty files are skipped.
func FindShipmentFiles(dir string) ([]FileInfo, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read directory %s: %w", dir, err)
	}

	var files []FileInfo
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}

		name := entry.Name()
		if strings.HasPrefix(name, "~$") || !dataprocessing.Supported(name) {
			continue
		}
		info, err := entry.Info()
		if err != nil || info.Size() == 0 {
			continue
		}

		files = append(files, FileInfo{
			Path:    filepath.Join(dir, name),
			Name:    name,
			Size:    info.Size(),
			ModTime: info.ModTime(),
		})
	}

	sort.SliceStable(files, func(i, j int) bool {
		return files[i].ModTime.Before(files[j].ModTime)
	})
	return files, nil
}

// GetLatestFile returns the most recently modified file from a list
func GetLatestFile(files []FileInfo) (FileInfo, bool) {
	if len(files) == 0 {
		return FileInfo{}, false
	}

	latest := files[0]
	for _, file := range files[1:] {
		if !file.ModTime.Before(latest.ModTime) {
			latest = file
		}
	}
	return latest, true
}

// ResolveInput turns a command-line path into a shipment file. A directory
// resolves to its most recently modified export; a file must exist, be
// non-empty and have a supported extension.
func ResolveInput(path string) (string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return "", fmt.Errorf("failed to open %s: %w", path, err)
	}

	if info.IsDir() {
		found, err := FindShipmentFiles(path)
		if err != nil {
			return "", err
		}
		latest, ok := GetLatestFile(found)
		if !ok {
			return "", fmt.Errorf("%w in %s", ErrNoShipmentFiles, path)
		}
		return latest.Path, nil
	}

	if !info.Mode().IsRegular() {
		return "", fmt.Errorf("%s is not a regular file", path)
	}
	if info.Size() == 0 {
		return "", fmt.Errorf("%s is empty", path)
	}
	if !dataprocessing.Supported(path) {
		return "", fmt.Errorf("%w: %s", dataprocessing.ErrUnsupportedFormat, path)
	}
	return path, nil
}
