package storage

import (
	"cmp"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"sync"

	"feedScope/internal/model"
)

// JsonlStorage appends message records to a JSONL file, one record per line.
// Within a batch records are written in ascending feed index, so a file built by
// successive syncs reads in chain order.
type JsonlStorage struct {
	path string
	mu   sync.Mutex
}

func NewJsonlStorage(path string) *JsonlStorage {
	return &JsonlStorage{path: path}
}

// PutMessageBatch appends records and syncs the file before returning, so a checkpoint
// saved afterwards never points past data that is not on disk.
func (s *JsonlStorage) PutMessageBatch(ctx context.Context, records []model.MessageRecord) error {
	if len(records) == 0 {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	ordered := slices.Clone(records)
	slices.SortStableFunc(ordered, func(a, b model.MessageRecord) int {
		if c := cmp.Compare(a.Topic, b.Topic); c != 0 {
			return c
		}
		return cmp.Compare(a.Index, b.Index)
	})

	s.mu.Lock()
	defer s.mu.Unlock()

	if dir := filepath.Dir(s.path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create output dir: %w", err)
		}
	}
	file, err := os.OpenFile(s.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("open output file: %w", err)
	}

	enc := json.NewEncoder(file)
	enc.SetEscapeHTML(false)
	for _, record := range ordered {
		if err := enc.Encode(record); err != nil {
			file.Close()
			return fmt.Errorf("write %s message %d: %w", record.Topic, record.Index, err)
		}
	}
	if err := file.Sync(); err != nil {
		file.Close()
		return fmt.Errorf("sync output: %w", err)
	}
	return file.Close()
}
