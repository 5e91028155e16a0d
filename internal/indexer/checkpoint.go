package indexer

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"feedScope/internal/storage/postgres"
)

// StateStore persists the next unsynced message index per feed.
type StateStore interface {
	Load(ctx context.Context, name string) (uint64, bool, error)
	Save(ctx context.Context, name string, next uint64) error
}

// StateName identifies one feed of one contract in a StateStore.
func StateName(contract, topic string) string {
	return fmt.Sprintf("feed:%s:%s", contract, topic)
}

// FileStateStore stores every feed's checkpoint in one local JSON file.
type FileStateStore struct {
	Path string
}

type stateRecord struct {
	NextIndex uint64 `json:"next_index"`
	UpdatedAt string `json:"updated_at"`
}

func (s *FileStateStore) Load(_ context.Context, name string) (uint64, bool, error) {
	if s == nil || s.Path == "" {
		return 0, false, nil
	}
	records, err := s.read()
	if err != nil {
		return 0, false, err
	}
	rec, ok := records[name]
	if !ok {
		return 0, false, nil
	}
	return rec.NextIndex, true, nil
}

func (s *FileStateStore) Save(_ context.Context, name string, next uint64) error {
	if s == nil || s.Path == "" {
		return nil
	}
	records, err := s.read()
	if err != nil {
		return err
	}
	records[name] = stateRecord{
		NextIndex: next,
		UpdatedAt: time.Now().UTC().Format(time.RFC3339Nano),
	}

	dir := filepath.Dir(s.Path)
	if dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create checkpoint dir: %w", err)
		}
	}
	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal checkpoint: %w", err)
	}

	tmpPath := s.Path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0o644); err != nil {
		return fmt.Errorf("write checkpoint tmp: %w", err)
	}
	if err := os.Rename(tmpPath, s.Path); err != nil {
		return fmt.Errorf("rename checkpoint: %w", err)
	}
	return nil
}

func (s *FileStateStore) read() (map[string]stateRecord, error) {
	records := make(map[string]stateRecord)

	stat, err := os.Stat(s.Path)
	if err != nil {
		if os.IsNotExist(err) {
			return records, nil
		}
		return nil, fmt.Errorf("stat checkpoint: %w", err)
	}
	if stat.IsDir() {
		return nil, fmt.Errorf("checkpoint path is a directory")
	}

	data, err := os.ReadFile(s.Path)
	if err != nil {
		return nil, fmt.Errorf("read checkpoint: %w", err)
	}
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("parse checkpoint: %w", err)
	}
	return records, nil
}

// DBStateStore stores checkpoints in the feed_state table.
type DBStateStore struct {
	Store *postgres.Store
}

func (s *DBStateStore) Load(ctx context.Context, name string) (uint64, bool, error) {
	if s == nil || s.Store == nil {
		return 0, false, nil
	}
	return s.Store.LoadState(ctx, name)
}

func (s *DBStateStore) Save(ctx context.Context, name string, next uint64) error {
	if s == nil || s.Store == nil {
		return nil
	}
	return s.Store.SaveState(ctx, name, next)
}
