package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/szooyang/ai-project01/pkg/contracts/domain"
)

// Paths contains the directories the application reads from and writes to.
// Everything is resolved relative to the executable so the binary behaves the
// same from any working directory.
type Paths struct {
	ExecutableDir string
	DataDir       string
	ExportsDir    string
	LogsDir       string
}

// GetPaths resolves Paths from the running executable.
func GetPaths() (*Paths, error) {
	exe, err := os.Executable()
	if err != nil {
		return nil, fmt.Errorf("failed to get executable path: %w", err)
	}
	if resolved, err := filepath.EvalSymlinks(exe); err == nil {
		exe = resolved
	}
	return NewPaths(filepath.Dir(exe)), nil
}

// NewPaths lays out the standard directories under base.
func NewPaths(base string) *Paths {
	dataDir := filepath.Join(base, "data")
	return &Paths{
		ExecutableDir: base,
		DataDir:       dataDir,
		ExportsDir:    filepath.Join(dataDir, "exports"),
		LogsDir:       filepath.Join(base, "logs"),
	}
}

// EnsureDirectories creates the writable directories if they don't exist.
func (p *Paths) EnsureDirectories() error {
	for _, dir := range []string{p.DataDir, p.ExportsDir, p.LogsDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}
	return nil
}

// ResolveDataFile finds a dataset file. Absolute paths are returned as is; a
// relative path is tried against the working directory first and the
// executable directory second. When neither exists the working directory
// form is returned so the load error names the path the user gave.
func (p *Paths) ResolveDataFile(file string) string {
	if filepath.IsAbs(file) {
		return file
	}
	if FileExists(file) {
		return file
	}

	candidate := filepath.Join(p.ExecutableDir, file)
	if FileExists(candidate) {
		slog.Debug("dataset resolved next to executable",
			slog.String("configured", file),
			slog.String("resolved", candidate))
		return candidate
	}
	return file
}

// FileExists checks if a file exists
func FileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// Scope converts the configured year and month into a MonthScope.
func (d DatasetConfig) Scope() domain.MonthScope {
	return domain.MonthScope{Year: d.Year, Month: time.Month(d.Month)}
}
