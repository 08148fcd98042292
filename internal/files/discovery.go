package files

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// FileInfo represents information about a discovered file
type FileInfo struct {
	Path    string
	Name    string
	Size    int64
	ModTime time.Time
}

// DatasetExtensions are the file types the ingestor reads.
var DatasetExtensions = []string{".csv", ".xlsx"}

// Discovery finds ridership exports below a base directory.
type Discovery struct {
	basePath string
}

// NewDiscovery creates a new file discovery instance
func NewDiscovery(basePath string) *Discovery {
	return &Discovery{basePath: basePath}
}

// FindDatasets lists the exports directly inside dir, oldest first.
// Spreadsheet lock files (~$name.xlsx) and hidden files are skipped.
func (d *Discovery) FindDatasets(dir string) ([]FileInfo, error) {
	fullPath := dir
	if !filepath.IsAbs(dir) && d.basePath != "" {
		fullPath = filepath.Join(d.basePath, dir)
	}

	entries, err := os.ReadDir(fullPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read directory %s: %w", fullPath, err)
	}

	var files []FileInfo
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || strings.HasPrefix(name, "~$") || strings.HasPrefix(name, ".") {
			continue
		}
		if !IsDataset(name) {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		files = append(files, FileInfo{
			Path:    filepath.Join(fullPath, name),
			Name:    name,
			Size:    info.Size(),
			ModTime: info.ModTime(),
		})
	}

	sort.SliceStable(files, func(i, j int) bool {
		if files[i].ModTime.Equal(files[j].ModTime) {
			return files[i].Name < files[j].Name
		}
		return files[i].ModTime.Before(files[j].ModTime)
	})
	return files, nil
}

// IsDataset reports whether name has a readable extension.
func IsDataset(name string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	for _, e := range DatasetExtensions {
		if ext == e {
			return true
		}
	}
	return false
}

// GetLatestFile returns the most recently modified file
func GetLatestFile(files []FileInfo) (FileInfo, bool) {
	if len(files) == 0 {
		return FileInfo{}, false
	}
	latest := files[0]
	for _, f := range files[1:] {
		if !f.ModTime.Before(latest.ModTime) {
			latest = f
		}
	}
	return latest, true
}

// ResolveDataset returns path itself when it names a file. When it names a
// directory, the newest export inside it is used instead. A path that does
// not exist is returned unchanged so the load reports it.
func (d *Discovery) ResolveDataset(path string) (string, error) {
	info, err := os.Stat(path)
	if err != nil || !info.IsDir() {
		return path, nil
	}

	files, err := d.FindDatasets(path)
	if err != nil {
		return "", err
	}
	latest, ok := GetLatestFile(files)
	if !ok {
		return "", fmt.Errorf("no .csv or .xlsx export in %s", path)
	}
	return latest.Path, nil
}
