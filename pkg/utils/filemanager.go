// =============================================================================
// Sales Analytics - File Manager Utility
// =============================================================================
//
// This module provides the file utilities used when writing run outputs:
//   - Directory management
//   - Output file naming ({uuid}, {timestamp}, {date} placeholders)
//   - Atomic writes (temp file in the target directory, then rename)
//   - Error log generation
//
// WRITE STRATEGY:
//   Every output is rendered through WriteFileAtomic so a failed or
//   interrupted run never leaves a half-written report behind. A previous
//   output at the same path stays intact until the rename succeeds.
//   StageFile splits the write from the rename, so several outputs can be
//   written first and committed together.
//
// =============================================================================

package utils

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
)

// =============================================================================
// DIRECTORY MANAGEMENT
// =============================================================================

// EnsureDirectories creates every directory in dirs that doesn't exist.
// Empty entries are skipped.
func EnsureDirectories(dirs ...string) error {
	for _, dir := range dirs {
		if dir == "" || dir == "." {
			continue
		}
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}
	return nil
}

// =============================================================================
// OUTPUT FILE NAMING
// =============================================================================

// ExpandFileName expands the placeholders in an output path.
//
// PARAMETERS:
//   - pattern: The configured path.
//              Placeholders:
//                {uuid}      - The run ID
//                {timestamp} - Run start (YYYYMMDD_HHMMSS)
//                {date}      - Run start date (YYYYMMDD)
//   - runID: The run's UUID.
//   - now: The run start time.
//
// EXAMPLE:
//   pattern: "output/sales_report_{date}.txt"
//   output:  "output/sales_report_20241201.txt"
func ExpandFileName(pattern string, runID uuid.UUID, now time.Time) string {
	if pattern == "" {
		return ""
	}
	return strings.NewReplacer(
		"{uuid}", runID.String(),
		"{timestamp}", now.Format("20060102_150405"),
		"{date}", now.Format("20060102"),
	).Replace(pattern)
}

// =============================================================================
// ATOMIC WRITES
// =============================================================================

// WriteFileAtomic writes a file by streaming write into a temporary file in
// the same directory and renaming it over path. The parent directory is
// created when missing. On any error the temporary file is removed and path
// is left untouched.
func WriteFileAtomic(path string, write func(w io.Writer) error) error {
	staged, err := StageFile(path, write)
	if err != nil {
		return err
	}
	return staged.Commit()
}

// StagedFile is a fully written temporary file waiting to be renamed over
// its destination. Exactly one of Commit or Discard should be called.
type StagedFile struct {
	path string
	tmp  string
}

// StageFile writes a temporary file next to path without touching path
// itself. The parent directory is created when missing.
//
// PARAMETERS:
//   - path: The final destination.
//   - write: Streams the file contents.
//
// RETURNS:
//   - The staged file, ready to Commit.
//   - An error if the temporary file could not be written. Nothing is left
//     on disk in that case.
func StageFile(path string, write func(w io.Writer) error) (staged *StagedFile, err error) {
	dir := filepath.Dir(path)
	if err := EnsureDirectories(dir); err != nil {
		return nil, err
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return nil, fmt.Errorf("failed to create temp file: %w", err)
	}
	defer func() {
		if err != nil {
			tmp.Close()
			os.Remove(tmp.Name())
		}
	}()

	writer := bufio.NewWriter(tmp)
	if err := write(writer); err != nil {
		return nil, err
	}
	if err := writer.Flush(); err != nil {
		return nil, fmt.Errorf("failed to flush %s: %w", path, err)
	}
	if err := tmp.Sync(); err != nil {
		return nil, fmt.Errorf("failed to sync %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		return nil, fmt.Errorf("failed to close %s: %w", path, err)
	}
	if err := os.Chmod(tmp.Name(), 0644); err != nil {
		return nil, fmt.Errorf("failed to set permissions on %s: %w", path, err)
	}
	return &StagedFile{path: path, tmp: tmp.Name()}, nil
}

// Path returns the destination the file is committed to.
func (s *StagedFile) Path() string { return s.path }

// Commit renames the temporary file over the destination.
func (s *StagedFile) Commit() error {
	if err := os.Rename(s.tmp, s.path); err != nil {
		os.Remove(s.tmp)
		return fmt.Errorf("failed to move %s into place: %w", s.path, err)
	}
	return nil
}

// Discard removes the temporary file, leaving the destination untouched.
func (s *StagedFile) Discard() {
	os.Remove(s.tmp)
}

// =============================================================================
// ERROR LOG GENERATION
// =============================================================================

// ErrorLogEntry represents a single error log entry.
type ErrorLogEntry struct {
	TransactionID string
	ErrorType     string
	ErrorMessage  string
	FieldName     string
	FieldValue    string
}

// WriteErrorLog writes error entries to a timestamped file in outputDir.
//
// PARAMETERS:
//   - entries: The error entries to write.
//   - outputDir: The directory to write the log file.
//   - source: The input file the errors came from.
//   - now: The run start time, used in the file name and header.
//
// RETURNS:
//   - The path to the error log file, or "" when there are no entries.
//   - An error if writing fails.
func WriteErrorLog(entries []ErrorLogEntry, outputDir, source string, now time.Time) (string, error) {
	if len(entries) == 0 {
		return "", nil
	}

	logPath := filepath.Join(outputDir, fmt.Sprintf("validation_errors_%s.txt", now.Format("20060102_150405")))

	err := WriteFileAtomic(logPath, func(w io.Writer) error {
		fmt.Fprintf(w, "Sales Analytics - Validation Error Log\n"+
			"Generated: %s\n"+
			"Source: %s\n"+
			"Total Errors: %d\n"+
			"================================================================================\n\n",
			now.Format("2006-01-02 15:04:05"),
			source,
			len(entries))

		for i, entry := range entries {
			fmt.Fprintf(w, "Error #%d\n"+
				"  Transaction ID: %s\n"+
				"  Error Type:     %s\n"+
				"  Message:        %s\n",
				i+1,
				entry.TransactionID,
				entry.ErrorType,
				entry.ErrorMessage)
			if entry.FieldName != "" {
				fmt.Fprintf(w, "  Field:          %s\n", entry.FieldName)
			}
			if entry.FieldValue != "" {
				fmt.Fprintf(w, "  Value:          %s\n", entry.FieldValue)
			}
			fmt.Fprintln(w)
		}

		_, err := io.WriteString(w, "================================================================================\n"+
			"End of Error Log\n")
		return err
	})
	if err != nil {
		return "", fmt.Errorf("failed to write error log: %w", err)
	}

	return logPath, nil
}
