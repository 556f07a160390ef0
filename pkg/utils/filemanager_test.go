package utils

import (
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnsureDirectories(t *testing.T) {
	root := t.TempDir()
	a := filepath.Join(root, "a", "b")
	c := filepath.Join(root, "c")

	require.NoError(t, EnsureDirectories(a, "", c, "."))

	assert.DirExists(t, a)
	assert.DirExists(t, c)
}

func TestExpandFileName(t *testing.T) {
	id := uuid.MustParse("0b5f3a3e-9c1d-4a7e-8f00-1234567890ab")
	now := time.Date(2024, 12, 1, 14, 30, 22, 0, time.UTC)

	tests := []struct {
		pattern string
		want    string
	}{
		{"output/report.txt", "output/report.txt"},
		{"output/report_{date}.txt", "output/report_20241201.txt"},
		{"output/{timestamp}/{uuid}.txt", "output/20241201_143022/0b5f3a3e-9c1d-4a7e-8f00-1234567890ab.txt"},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.pattern, func(t *testing.T) {
			assert.Equal(t, tt.want, ExpandFileName(tt.pattern, id, now))
		})
	}
}

func TestWriteFileAtomic(t *testing.T) {
	t.Run("creates parent directories", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "nested", "report.txt")

		err := WriteFileAtomic(path, func(w io.Writer) error {
			_, err := io.WriteString(w, "hello\n")
			return err
		})

		require.NoError(t, err)
		data, err := os.ReadFile(path)
		require.NoError(t, err)
		assert.Equal(t, "hello\n", string(data))
	})

	t.Run("failure keeps the previous file and leaves no temp files", func(t *testing.T) {
		dir := t.TempDir()
		path := filepath.Join(dir, "report.txt")
		require.NoError(t, os.WriteFile(path, []byte("old"), 0644))

		boom := errors.New("boom")
		err := WriteFileAtomic(path, func(w io.Writer) error {
			io.WriteString(w, "partial")
			return boom
		})

		assert.ErrorIs(t, err, boom)
		data, err := os.ReadFile(path)
		require.NoError(t, err)
		assert.Equal(t, "old", string(data))

		entries, err := os.ReadDir(dir)
		require.NoError(t, err)
		assert.Len(t, entries, 1)
	})
}

func TestStageFile(t *testing.T) {
	write := func(w io.Writer) error {
		_, err := io.WriteString(w, "new")
		return err
	}

	t.Run("commit replaces the destination", func(t *testing.T) {
		dir := t.TempDir()
		path := filepath.Join(dir, "enriched.txt")
		require.NoError(t, os.WriteFile(path, []byte("old"), 0644))

		staged, err := StageFile(path, write)
		require.NoError(t, err)
		assert.Equal(t, path, staged.Path())

		data, err := os.ReadFile(path)
		require.NoError(t, err)
		assert.Equal(t, "old", string(data))

		require.NoError(t, staged.Commit())
		data, err = os.ReadFile(path)
		require.NoError(t, err)
		assert.Equal(t, "new", string(data))

		entries, err := os.ReadDir(dir)
		require.NoError(t, err)
		assert.Len(t, entries, 1)
	})

	t.Run("discard leaves nothing behind", func(t *testing.T) {
		dir := t.TempDir()

		staged, err := StageFile(filepath.Join(dir, "enriched.txt"), write)
		require.NoError(t, err)
		staged.Discard()

		entries, err := os.ReadDir(dir)
		require.NoError(t, err)
		assert.Empty(t, entries)
	})
}

func TestWriteErrorLog(t *testing.T) {
	now := time.Date(2024, 12, 1, 9, 0, 0, 0, time.UTC)

	t.Run("no entries writes nothing", func(t *testing.T) {
		dir := t.TempDir()

		path, err := WriteErrorLog(nil, dir, "sales.txt", now)

		require.NoError(t, err)
		assert.Empty(t, path)
		entries, _ := os.ReadDir(dir)
		assert.Empty(t, entries)
	})

	t.Run("itemises each entry", func(t *testing.T) {
		dir := t.TempDir()
		entries := []ErrorLogEntry{
			{TransactionID: "X1", ErrorType: "transaction_id_prefix", ErrorMessage: "must start with \"T\"", FieldName: "TransactionID", FieldValue: "X1"},
			{TransactionID: "T2", ErrorType: "customer_and_region_required", ErrorMessage: "required", FieldName: "CustomerID"},
		}

		path, err := WriteErrorLog(entries, dir, "sales.txt", now)

		require.NoError(t, err)
		assert.Equal(t, filepath.Join(dir, "validation_errors_20241201_090000.txt"), path)
		data, err := os.ReadFile(path)
		require.NoError(t, err)
		content := string(data)
		assert.Contains(t, content, "Total Errors: 2")
		assert.Contains(t, content, "Source: sales.txt")
		assert.Contains(t, content, "Error #2")
		assert.Contains(t, content, "  Value:          X1")
		assert.Contains(t, content, "End of Error Log")
	})
}
