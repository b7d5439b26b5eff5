// Package config loads the storefront configuration from config.yaml, .env and the environment.
package config

import (
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

type Config struct {
	HTTPServer struct {
		Port           int `koanf:"port"`
		MaxHeaderBytes int `koanf:"maxHeaderBytes"`
		Timeout        struct {
			Read       time.Duration `koanf:"read"`
			Write      time.Duration `koanf:"write"`
			Idle       time.Duration `koanf:"idle"`
			ReadHeader time.Duration `koanf:"readHeader"`
		} `koanf:"timeout"`
	} `koanf:"server"`

	GRPCServer struct {
		Port       int  `koanf:"port"`
		Reflection bool `koanf:"reflection"`
	} `koanf:"grpc"`

	Database struct {
		Enabled bool          `koanf:"enabled"`
		URL     string        `koanf:"url"`
		Timeout time.Duration `koanf:"timeout"`
	} `koanf:"database"`

	Shutdown struct {
		Timeout time.Duration `koanf:"timeout"`
	} `koanf:"shutdown"`

	Log struct {
		Level string `koanf:"level"`
	} `koanf:"log"`

	Catalog CatalogConfig `koanf:"catalog"`
}

// CatalogConfig describes the promotions and products the store opens with.
type CatalogConfig struct {
	Promotions []PromotionConfig `koanf:"promotions"`
	Products   []ProductConfig   `koanf:"products"`
}

// PromotionConfig declares a promotion; products refer to it by name.
type PromotionConfig struct {
	Name    string  `koanf:"name"`
	Kind    string  `koanf:"kind"`
	Percent float64 `koanf:"percent"`
}

// ProductConfig declares a product. Kind is one of standard, unlimited or capped.
type ProductConfig struct {
	Name        string `koanf:"name"`
	Kind        string `koanf:"kind"`
	Price       string `koanf:"price"`
	Quantity    int    `koanf:"quantity"`
	MaxPerOrder int    `koanf:"maxPerOrder"`
	Promotion   string `koanf:"promotion"`
}

func (c Config) String() string {
	return fmt.Sprintf("server.port=%d, server.maxHeaderBytes=%d , server.timeout.read=%v, server.timeout.write=%v, server.timeout.idle=%v, server.timeout.readHeader=%v, grpc.port=%d, grpc.reflection=%t, database.enabled=%t, database_url=%v, database.timeout=%v, shutdown.timeout=%v, log_level= %s, catalog.promotions=%d, catalog.products=%d.",
		c.HTTPServer.Port,
		c.HTTPServer.MaxHeaderBytes,
		c.HTTPServer.Timeout.Read,
		c.HTTPServer.Timeout.Write,
		c.HTTPServer.Timeout.Idle,
		c.HTTPServer.Timeout.ReadHeader,
		c.GRPCServer.Port,
		c.GRPCServer.Reflection,
		c.Database.Enabled,
		maskURL(c.Database.URL),
		c.Database.Timeout,
		c.Shutdown.Timeout,
		c.Log.Level,
		len(c.Catalog.Promotions),
		len(c.Catalog.Products))
}

func maskURL(url string) string {
	if url == "" {
		return "<not configured>"
	}
	// Mask the URL by replacing the username and password with "****"
	parts := strings.Split(url, "@")
	if len(parts) == 2 {
		return "****@" + parts[1]
	}
	return "****"
}

const (
	envPrefix         = "storefront_"
	defaultEnvFile    = ".env"
	defaultConfigFile = "config.yaml"
)

// Load reads the configuration from config.yaml, .env and environment variables
func Load() (*Config, error) {
	return LoadFrom(defaultConfigFile, defaultEnvFile)
}

// LoadFrom reads the configuration from the given yaml and .env files, then from environment variables.
// Missing files are skipped.
func LoadFrom(configFile, envFile string) (*Config, error) {
	// Create a new Koanf instance
	var k = koanf.New(".")

	// 0. Defaults, the lowest priority
	if err := k.Load(confmap.Provider(defaults(), "."), nil); err != nil {
		return nil, fmt.Errorf("error loading defaults: %w", err)
	}

	// 1. Load configuration from yaml file
	if err := k.Load(file.Provider(configFile), yaml.Parser()); err != nil {
		if !os.IsNotExist(err) {
			log.Printf("WARN: error loading YAML config: %v", err)
		}
	}

	// 2. Load environment variables from .env file
	if envFileMap, err := godotenv.Read(envFile); err == nil {
		envMap := make(map[string]interface{})
		for key, value := range envFileMap {
			if !isOwnKey(key) {
				continue
			}
			envMap[keyTransformer(key)] = value
		}
		// Load the envMap into Koanf
		if err := k.Load(confmap.Provider(envMap, "."), nil); err != nil {
			log.Printf("WARN: error loading .env config: %v", err)
		}
	} else if !os.IsNotExist(err) {
		log.Printf("WARN: error reading .env file: %v", err)
	}

	// 3. Load environment variables from the system, the highest priority
	if err := k.Load(env.Provider(strings.ToUpper(envPrefix), ".", keyTransformer), nil); err != nil {
		log.Printf("WARN: error loading env vars: %v", err)
	}

	var cfg Config
	// 4. Unmarshal the configuration into the Config struct
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("error unmarshalling config: %w", err)
	}

	// 5. Validate the configuration
	if err := validateConfig(cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// defaults holds the values used when neither a file nor the environment sets them.
func defaults() map[string]interface{} {
	return map[string]interface{}{
		"server.port":               8080,
		"server.maxHeaderBytes":     1 << 20,
		"server.timeout.read":       "5s",
		"server.timeout.write":      "10s",
		"server.timeout.idle":       "60s",
		"server.timeout.readHeader": "2s",
		"grpc.port":                 9090,
		"grpc.reflection":           false,
		"database.enabled":          false,
		"database.timeout":          "10s",
		"shutdown.timeout":          "15s",
		"log.level":                 "info",
	}
}

// validateConfig checks if the configuration values are valid
func validateConfig(cfg Config) error {
	if cfg.HTTPServer.Port <= 0 || cfg.HTTPServer.Port > 65535 {
		return fmt.Errorf("invalid HTTP server port: %d", cfg.HTTPServer.Port)
	}
	if cfg.HTTPServer.Timeout.Read <= 0 {
		return fmt.Errorf("invalid HTTP server read timeout: %v", cfg.HTTPServer.Timeout.Read)
	}
	if cfg.HTTPServer.Timeout.Write <= 0 {
		return fmt.Errorf("invalid HTTP server write timeout: %v", cfg.HTTPServer.Timeout.Write)
	}
	if cfg.HTTPServer.Timeout.Idle <= 0 {
		return fmt.Errorf("invalid HTTP server idle timeout: %v", cfg.HTTPServer.Timeout.Idle)
	}
	if cfg.GRPCServer.Port <= 0 || cfg.GRPCServer.Port > 65535 {
		return fmt.Errorf("invalid gRPC server port: %d", cfg.GRPCServer.Port)
	}
	if cfg.GRPCServer.Port == cfg.HTTPServer.Port {
		return fmt.Errorf("gRPC and HTTP servers cannot share port %d", cfg.GRPCServer.Port)
	}
	if cfg.Shutdown.Timeout <= 0 {
		return fmt.Errorf("invalid shutdown timeout: %v", cfg.Shutdown.Timeout)
	}
	if !cfg.Database.Enabled {
		return nil
	}
	if cfg.Database.Timeout <= 0 {
		return fmt.Errorf("invalid database timeout: %v", cfg.Database.Timeout)
	}
	if cfg.Database.URL == "" {
		return fmt.Errorf("database URL is not configured")
	}
	if !isValidPostgresURL(cfg.Database.URL) {
		return fmt.Errorf("database URL must start with 'postgres://': %s", maskURL(cfg.Database.URL))
	}
	return nil
}

// isValidPostgresURL checks if the provided URL is a valid PostgreSQL URL
func isValidPostgresURL(url string) bool {
	return strings.HasPrefix(url, "postgres://") ||
		strings.HasPrefix(url, "postgresql://")
}

// isOwnKey reports whether an .env key belongs to the storefront.
func isOwnKey(key string) bool {
	return strings.HasPrefix(strings.ToLower(key), envPrefix)
}

// keyTransformer transforms environment variable keys to match the expected format
func keyTransformer(key string) string {
	key = strings.ToLower(key)
	key = strings.TrimPrefix(key, envPrefix)
	return strings.ReplaceAll(key, "_", ".")
}
