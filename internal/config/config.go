package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"poolsort/internal/bench"
	"poolsort/internal/logger"

	"gopkg.in/yaml.v3"
)

// FileConfig は設定ファイルの構造
type FileConfig struct {
	Bench  BenchConfig  `yaml:"bench" json:"bench"`
	Log    LogConfig    `yaml:"log" json:"log"`
	Server ServerConfig `yaml:"server" json:"server"`
}

// BenchConfig はベンチマーク設定
type BenchConfig struct {
	Preset        string `yaml:"preset" json:"preset"`
	Name          string `yaml:"name" json:"name"`
	Description   string `yaml:"description" json:"description"`
	Elements      int    `yaml:"elements" json:"elements"`
	Threads       int    `yaml:"threads" json:"threads"`
	Runs          int    `yaml:"runs" json:"runs"`
	Seed          uint64 `yaml:"seed" json:"seed"`
	SortThreshold int    `yaml:"sort_threshold" json:"sort_threshold"`
	Baseline      *bool  `yaml:"baseline" json:"baseline"`
}

// LogConfig はログ設定
type LogConfig struct {
	Level string `yaml:"level" json:"level"`
}

// ServerConfig はAPIサーバー設定
type ServerConfig struct {
	Addr string `yaml:"addr" json:"addr"`
}

// LoadFile は設定ファイルを読み込む
func LoadFile(path string) (*FileConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config FileConfig
	ext := strings.ToLower(filepath.Ext(path))

	switch ext {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &config); err != nil {
			return nil, fmt.Errorf("failed to parse YAML: %w", err)
		}
	case ".json":
		if err := json.Unmarshal(data, &config); err != nil {
			return nil, fmt.Errorf("failed to parse JSON: %w", err)
		}
	default:
		return nil, fmt.Errorf("unsupported config format: %s", ext)
	}

	return &config, nil
}

// ToBenchConfig はFileConfigをbench.Configに変換する
// preset が指定されていればそれを、なければ bench.DefaultConfig を土台にする。
func (f *FileConfig) ToBenchConfig() (bench.Config, error) {
	bc := f.Bench

	config := bench.DefaultConfig()
	if bc.Preset != "" {
		preset, ok := bench.GetPreset(bc.Preset)
		if !ok {
			return config, fmt.Errorf("unknown preset: %s", bc.Preset)
		}
		config = preset
	}

	if bc.Name != "" {
		config.Name = bc.Name
	}
	if bc.Description != "" {
		config.Description = bc.Description
	}
	if bc.Elements > 0 {
		config.Elements = bc.Elements
	}
	if bc.Threads > 0 {
		config.Threads = bc.Threads
	}
	if bc.Runs > 0 {
		config.Runs = bc.Runs
	}
	if bc.Seed != 0 {
		config.Seed = bc.Seed
	}
	if bc.SortThreshold > 0 {
		config.SortThreshold = bc.SortThreshold
	}
	if bc.Baseline != nil {
		config.Baseline = *bc.Baseline
	}

	return config, nil
}

// LogLevel はログレベルを返す。未指定ならInfo
func (f *FileConfig) LogLevel() (logger.Level, error) {
	return logger.ParseLevel(f.Log.Level)
}

// Validate は設定を検証する
func (f *FileConfig) Validate() error {
	bc := f.Bench

	if bc.Elements < 0 {
		return fmt.Errorf("bench.elements must be non-negative")
	}

	if bc.Threads < 0 {
		return fmt.Errorf("bench.threads must be non-negative")
	}

	if bc.Runs < 0 {
		return fmt.Errorf("bench.runs must be non-negative")
	}

	if bc.SortThreshold < 0 {
		return fmt.Errorf("bench.sort_threshold must be non-negative")
	}

	if bc.Preset != "" {
		if _, ok := bench.GetPreset(bc.Preset); !ok {
			return fmt.Errorf("unknown preset: %s", bc.Preset)
		}
	}

	if _, err := logger.ParseLevel(f.Log.Level); err != nil {
		return fmt.Errorf("log.level: %w", err)
	}

	return nil
}
