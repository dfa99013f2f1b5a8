// Package storage persists chunk sets to local files in JSON or CSV form.
package storage

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spherical/docpipe/internal/domain"
)

// JSONWriter serializes chunks as a single JSON document.
type JSONWriter struct{}

type jsonPayload struct {
	Chunks      []string `json:"chunks"`
	TotalChunks int      `json:"total_chunks"`
}

func (JSONWriter) Write(chunks []string, path string) error {
	payload := jsonPayload{Chunks: chunks, TotalChunks: len(chunks)}
	data, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return domain.StorageError("marshal chunks", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return domain.StorageError("write chunk file", err)
	}
	return nil
}

// CSVWriter serializes chunks as chunk_id,content rows.
type CSVWriter struct{}

func (CSVWriter) Write(chunks []string, path string) error {
	file, err := os.Create(path)
	if err != nil {
		return domain.StorageError("create chunk file", err)
	}
	defer file.Close()

	w := csv.NewWriter(file)
	if err := w.Write([]string{"chunk_id", "content"}); err != nil {
		return domain.StorageError("write csv header", err)
	}
	for i, chunk := range chunks {
		if err := w.Write([]string{strconv.Itoa(i + 1), chunk}); err != nil {
			return domain.StorageError(fmt.Sprintf("write csv row %d", i+1), err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return domain.StorageError("flush csv", err)
	}
	return nil
}

// Manager picks the writer for a format and handles output paths.
type Manager struct{}

// NewManager creates a storage manager.
func NewManager() *Manager {
	return &Manager{}
}

// writerFor returns the writer for a format. Unknown formats default to JSON.
func (m *Manager) writerFor(format string) domain.ChunkWriter {
	if strings.EqualFold(format, "csv") {
		return CSVWriter{}
	}
	return JSONWriter{}
}

// SaveChunks writes chunks to path in the given format, creating parent
// directories as needed.
func (m *Manager) SaveChunks(chunks []string, path, format string) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return domain.StorageError("create output directory", err)
		}
	}
	return m.writerFor(format).Write(chunks, path)
}

// UniquePath returns path unchanged when it does not exist yet, otherwise
// the first non-existing name_1.ext, name_2.ext variant. Used when
// overwriting prior output is disabled.
func UniquePath(path string) string {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return path
	}

	ext := filepath.Ext(path)
	stem := strings.TrimSuffix(path, ext)
	for counter := 1; ; counter++ {
		candidate := fmt.Sprintf("%s_%d%s", stem, counter, ext)
		if _, err := os.Stat(candidate); os.IsNotExist(err) {
			return candidate
		}
	}
}
