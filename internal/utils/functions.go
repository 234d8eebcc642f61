package utils

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

func ParseHeaderArgs(headers []string) map[string]string {
	result := make(map[string]string)
	for _, header := range headers {
		parts := strings.SplitN(header, ":", 2)
		if len(parts) == 2 {
			key := strings.TrimSpace(parts[0])
			value := strings.TrimSpace(parts[1])
			result[key] = value
		}
	}
	return result
}

// RunLogDir is MCSCS/logs/<yyyymmddhhmm> for the given start time.
func RunLogDir(workDir string, start time.Time) string {
	return filepath.Join(workDir, LogsDir, start.Format(LogTimeLayout))
}

func EnsureDir(path string) error {
	if err := os.MkdirAll(path, 0755); err != nil {
		return fmt.Errorf("error creating directory %s: %w", path, err)
	}
	return nil
}
