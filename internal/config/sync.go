package config

import (
	"github.com/spf13/pflag"
)

// SyncConfig holds configuration for the sync command.
type SyncConfig struct {
	Config
	Topics     []string
	Out        string
	PGDSN      string
	Checkpoint string
	BatchSize  uint64
}

// LoadSync merges config file, environment variables, and flags into SyncConfig.
// Without --topic the registry and evidence feeds are synced.
func LoadSync(cfgFile string, flags *pflag.FlagSet) (SyncConfig, error) {
	v, err := newViper(cfgFile, flags, map[string]any{
		"out":        "./data/messages.jsonl",
		"checkpoint": "./data/checkpoint.json",
		"batch-size": uint64(100),
	})
	if err != nil {
		return SyncConfig{}, err
	}

	cfg := SyncConfig{
		Config:     common(v),
		Topics:     getStringSlice(v, "topic"),
		Out:        v.GetString("out"),
		PGDSN:      v.GetString("pg-dsn"),
		Checkpoint: v.GetString("checkpoint"),
		BatchSize:  v.GetUint64("batch-size"),
	}
	if len(cfg.Topics) == 0 {
		cfg.Topics = []string{cfg.RegistryTopic, cfg.EvidenceTopic}
	}
	return cfg, nil
}
