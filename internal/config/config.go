package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server     ServerConfig     `yaml:"server"`
	Database   DatabaseConfig   `yaml:"database"`
	Redis      RedisConfig      `yaml:"redis"`
	Storage    StorageConfig    `yaml:"storage"`
	Upload     UploadConfig     `yaml:"upload"`
	Classifier ClassifierConfig `yaml:"classifier"`
	Logging    LoggingConfig    `yaml:"logging"`
}

type ServerConfig struct {
	Port            int           `yaml:"port"`
	BodyLimit       string        `yaml:"body_limit"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

type DatabaseConfig struct {
	URL string `yaml:"url"`
}

type RedisConfig struct {
	Addr           string        `yaml:"addr"`
	Password       string        `yaml:"password"`
	DB             int           `yaml:"db"`
	RenderQueue    string        `yaml:"render_queue"`
	EnqueueTimeout time.Duration `yaml:"enqueue_timeout"`
}

type StorageConfig struct {
	StagingRoot string `yaml:"staging_root"`
	MediaRoot   string `yaml:"media_root"`
}

type UploadConfig struct {
	MaxFiles      int   `yaml:"max_files"`
	MaxTotalBytes int64 `yaml:"max_total_bytes"`
}

// ClassifierConfig holds the token lists the series classifier matches
// against. They are data, not code, so deployments can extend them for
// other naming conventions without a rebuild.
type ClassifierConfig struct {
	SeriesPrefixes     []string `yaml:"series_prefixes"`
	SolutionIndicators []string `yaml:"solution_indicators"`
}

type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

func Load() (*Config, error) {
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "config.yaml"
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	cfg.applyDefaults()
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Server.Port == 0 {
		c.Server.Port = 8080
	}
	if c.Server.BodyLimit == "" {
		c.Server.BodyLimit = "200M"
	}
	if c.Server.ShutdownTimeout == 0 {
		c.Server.ShutdownTimeout = 10 * time.Second
	}
	if c.Redis.RenderQueue == "" {
		c.Redis.RenderQueue = "goldmine:render:jobs"
	}
	if c.Redis.EnqueueTimeout == 0 {
		c.Redis.EnqueueTimeout = 2 * time.Second
	}
	if c.Storage.StagingRoot == "" {
		c.Storage.StagingRoot = "data/uploads"
	}
	if c.Storage.MediaRoot == "" {
		c.Storage.MediaRoot = "data/lectures"
	}
	if c.Upload.MaxFiles == 0 {
		c.Upload.MaxFiles = 2000
	}
	if c.Upload.MaxTotalBytes == 0 {
		c.Upload.MaxTotalBytes = 1 << 30
	}
	if len(c.Classifier.SeriesPrefixes) == 0 {
		c.Classifier.SeriesPrefixes = []string{"serie", "series", "sheet", "uebung", "übung", "blatt", "ex"}
	}
	if len(c.Classifier.SolutionIndicators) == 0 {
		c.Classifier.SolutionIndicators = []string{"solution", "sol", "loesung", "lösung", "loes"}
	}
}
