// Package config provides configuration management for the chunking service.
package config

import (
	"errors"
	"fmt"

	"github.com/spf13/viper"

	"github.com/hsn0918/mdchunk/internal/chunker"
)

// Common configuration errors.
var (
	ErrConfigNotFound = errors.New("configuration file not found")
	ErrInvalidConfig  = errors.New("invalid configuration")
)

// ServiceConfig holds common configuration for external service clients.
type ServiceConfig struct {
	// Connection settings
	BaseURL string `mapstructure:"base_url"`
	APIKey  string `mapstructure:"api_key"`

	// Service settings
	Model string `mapstructure:"model"`
}

// Enabled reports whether the service has been configured at all.
func (s ServiceConfig) Enabled() bool {
	return s.BaseURL != ""
}

// ChunkingConfig mirrors the full chunker option set.
type ChunkingConfig struct {
	MaxChunkSize         int     `mapstructure:"max_chunk_size"`
	MinChunkSize         int     `mapstructure:"min_chunk_size"`
	OverlapSize          int     `mapstructure:"overlap_size"`
	OverlapPercentage    float64 `mapstructure:"overlap_percentage"`
	EnableOverlap        bool    `mapstructure:"enable_overlap"`
	EnableFallback       bool    `mapstructure:"enable_fallback"`
	CodeThreshold        float64 `mapstructure:"code_threshold"`
	StructureThreshold   int     `mapstructure:"structure_threshold"`
	SectionBoundaryLevel int     `mapstructure:"section_boundary_level"`
	PreserveAtomicBlocks bool    `mapstructure:"preserve_atomic_blocks"`
	ExtractPreamble      bool    `mapstructure:"extract_preamble"`
	Tolerance            float64 `mapstructure:"tolerance"`
	StrictValidation     bool    `mapstructure:"strict_validation"`
}

// ChunkerConfig converts the section into the core configuration record.
func (c ChunkingConfig) ChunkerConfig() chunker.Config {
	return chunker.Config{
		MaxChunkSize:         c.MaxChunkSize,
		MinChunkSize:         c.MinChunkSize,
		OverlapSize:          c.OverlapSize,
		OverlapPercentage:    c.OverlapPercentage,
		EnableOverlap:        c.EnableOverlap,
		EnableFallback:       c.EnableFallback,
		CodeThreshold:        c.CodeThreshold,
		StructureThreshold:   c.StructureThreshold,
		SectionBoundaryLevel: c.SectionBoundaryLevel,
		PreserveAtomicBlocks: c.PreserveAtomicBlocks,
		ExtractPreamble:      c.ExtractPreamble,
		Tolerance:            c.Tolerance,
		StrictValidation:     c.StrictValidation,
	}
}

// Validate delegates bounds checking to the core record.
func (c *ChunkingConfig) Validate() error {
	cc := c.ChunkerConfig()
	if err := cc.Validate(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	return nil
}

// Config represents the complete application configuration.
type Config struct {
	// Server configuration
	Server struct {
		Host string `mapstructure:"host"`
		Port string `mapstructure:"port"`
	} `mapstructure:"server"`

	// Database configuration
	Database struct {
		Host     string `mapstructure:"host"`
		Port     int    `mapstructure:"port"`
		User     string `mapstructure:"user"`
		Password string `mapstructure:"password"`
		DBName   string `mapstructure:"dbname"`
	} `mapstructure:"database"`

	// Cache configuration
	Redis struct {
		Host     string `mapstructure:"host"`
		Port     int    `mapstructure:"port"`
		Password string `mapstructure:"password"`
		DB       int    `mapstructure:"db"`
	} `mapstructure:"redis"`

	// Object storage configuration
	MinIO struct {
		Endpoint        string `mapstructure:"endpoint"`
		AccessKeyID     string `mapstructure:"access_key_id"`
		SecretAccessKey string `mapstructure:"secret_access_key"`
		BucketName      string `mapstructure:"bucket_name"`
		UseSSL          bool   `mapstructure:"use_ssl"`
	} `mapstructure:"minio"`

	// Processing configuration
	Chunking ChunkingConfig `mapstructure:"chunking"`

	// External services configuration
	Services struct {
		Embedding ServiceConfig `mapstructure:"embedding"`
	} `mapstructure:"services"`
}

// Validate performs configuration validation.
func (c *Config) Validate() error {
	if err := c.Chunking.Validate(); err != nil {
		return fmt.Errorf("chunking config: %w", err)
	}
	return nil
}

// LoadConfig loads configuration from file and environment variables.
func LoadConfig(configPath string) (*Config, error) {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(configPath)
	viper.AutomaticEnv()

	setDefaults()

	if err := viper.ReadInConfig(); err != nil {
		if errors.As(err, &viper.ConfigFileNotFoundError{}) {
			return nil, fmt.Errorf("%w: %v", ErrConfigNotFound, err)
		}
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &config, nil
}

// setDefaults configures sensible default values.
func setDefaults() {
	// Server defaults
	viper.SetDefault("server.host", "0.0.0.0")
	viper.SetDefault("server.port", "8080")

	// Chunking defaults mirror the core record defaults.
	viper.SetDefault("chunking.max_chunk_size", chunker.DefaultMaxChunkSize)
	viper.SetDefault("chunking.min_chunk_size", chunker.DefaultMinChunkSize)
	viper.SetDefault("chunking.overlap_size", chunker.DefaultOverlapSize)
	viper.SetDefault("chunking.overlap_percentage", chunker.DefaultOverlapPercentage)
	viper.SetDefault("chunking.enable_overlap", true)
	viper.SetDefault("chunking.enable_fallback", true)
	viper.SetDefault("chunking.code_threshold", chunker.DefaultCodeThreshold)
	viper.SetDefault("chunking.structure_threshold", chunker.DefaultStructureThreshold)
	viper.SetDefault("chunking.section_boundary_level", chunker.DefaultSectionBoundaryLevel)
	viper.SetDefault("chunking.preserve_atomic_blocks", true)
	viper.SetDefault("chunking.extract_preamble", true)
	viper.SetDefault("chunking.tolerance", chunker.DefaultTolerance)

	// Redis defaults
	viper.SetDefault("redis.host", "localhost")
	viper.SetDefault("redis.port", 6379)
	viper.SetDefault("redis.db", 0)

	// MinIO defaults
	viper.SetDefault("minio.use_ssl", false)
	viper.SetDefault("minio.bucket_name", "mdchunk-documents")
}

// MustLoadConfig loads configuration and panics on failure. Use only in
// main() or init() where failure should be fatal.
func MustLoadConfig(configPath string) *Config {
	config, err := LoadConfig(configPath)
	if err != nil {
		panic(fmt.Sprintf("failed to load configuration: %v", err))
	}
	return config
}
