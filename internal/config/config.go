package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Defaults shared by every command.
const (
	DefaultRPC               = "https://base.llamarpc.com"
	DefaultContract          = "0x00000000B24D62781dB359b07880a105cD0b64e6"
	DefaultRegistryTopic     = "BAI-registry"
	DefaultEvidenceTopic     = "BAI-Official"
	DefaultApplicationsTopic = "bai-registry-applications"
)

// Config holds the settings every command needs to read feeds.
type Config struct {
	RPCURL            string
	Contract          string
	LogLevel          string
	MaxRetries        int
	RetryBackoff      time.Duration
	RegistryTopic     string
	EvidenceTopic     string
	ApplicationsTopic string
}

// Load merges config file, environment variables, and flags into Config.
func Load(cfgFile string, flags *pflag.FlagSet) (Config, error) {
	v, err := newViper(cfgFile, flags, nil)
	if err != nil {
		return Config{}, err
	}
	return common(v), nil
}

// newViper builds one command's viper instance: defaults, FEEDSCOPE_* env, bound flags, then the config file.
func newViper(cfgFile string, flags *pflag.FlagSet, defaults map[string]any) (*viper.Viper, error) {
	v := viper.New()
	v.SetEnvPrefix("FEEDSCOPE")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	v.SetDefault("rpc", DefaultRPC)
	v.SetDefault("contract", DefaultContract)
	v.SetDefault("log-level", "info")
	v.SetDefault("max-retries", 3)
	v.SetDefault("retry-backoff", 300*time.Millisecond)
	v.SetDefault("registry-topic", DefaultRegistryTopic)
	v.SetDefault("evidence-topic", DefaultEvidenceTopic)
	v.SetDefault("applications-topic", DefaultApplicationsTopic)
	for key, value := range defaults {
		v.SetDefault(key, value)
	}

	if flags != nil {
		if err := v.BindPFlags(flags); err != nil {
			return nil, fmt.Errorf("bind flags: %w", err)
		}
	}

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
	} else {
		v.SetConfigName("config")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
				return nil, fmt.Errorf("read config: %w", err)
			}
		}
	}

	return v, nil
}

func common(v *viper.Viper) Config {
	return Config{
		RPCURL:            v.GetString("rpc"),
		Contract:          v.GetString("contract"),
		LogLevel:          v.GetString("log-level"),
		MaxRetries:        v.GetInt("max-retries"),
		RetryBackoff:      v.GetDuration("retry-backoff"),
		RegistryTopic:     v.GetString("registry-topic"),
		EvidenceTopic:     v.GetString("evidence-topic"),
		ApplicationsTopic: v.GetString("applications-topic"),
	}
}

func getStringSlice(v *viper.Viper, key string) []string {
	if !v.IsSet(key) {
		return nil
	}

	val := v.Get(key)
	switch typed := val.(type) {
	case []string:
		return cleanStrings(typed)
	case string:
		return splitAndClean(typed)
	case []interface{}:
		items := make([]string, 0, len(typed))
		for _, item := range typed {
			items = append(items, fmt.Sprintf("%v", item))
		}
		return cleanStrings(items)
	default:
		return nil
	}
}

func splitAndClean(input string) []string {
	if input == "" {
		return nil
	}
	parts := strings.Split(input, ",")
	return cleanStrings(parts)
}

func cleanStrings(items []string) []string {
	out := make([]string, 0, len(items))
	for _, item := range items {
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}
		out = append(out, item)
	}
	return out
}
