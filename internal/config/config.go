package config

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/spf13/viper"

	"github.com/insightdelivered/upi-statement-converter/internal/classifier"
	"github.com/insightdelivered/upi-statement-converter/internal/models"
)

// EnvPrefix is prepended to every environment override, e.g. UPI_SERVER_PORT.
const EnvPrefix = "UPI"

// Config represents the application configuration
type Config struct {
	USDToINR        float64          `mapstructure:"usd_to_inr"`
	DefaultCategory string           `mapstructure:"default_category"`
	Server          ServerConfig     `mapstructure:"server"`
	Log             LogConfig        `mapstructure:"log"`
	Categories      []CategoryConfig `mapstructure:"categories"`
}

// ServerConfig holds the HTTP listener settings
type ServerConfig struct {
	Port        int `mapstructure:"port"`
	BodyLimitMB int `mapstructure:"body_limit_mb"`
}

// LogConfig holds logger settings
type LogConfig struct {
	Level string `mapstructure:"level"`
}

// CategoryConfig is one entry of the keyword table. Entries are matched in
// file order.
type CategoryConfig struct {
	Name     string   `mapstructure:"name"`
	Keywords []string `mapstructure:"keywords"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("usd_to_inr", 83.0)
	v.SetDefault("default_category", string(models.CategoryOthers))
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.body_limit_mb", 32)
	v.SetDefault("log.level", "info")
}

// Load reads configuration from a TOML file and UPI_* environment variables.
// An empty path skips the file and uses defaults plus environment.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("toml")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate rejects values the pipeline cannot run with.
func (c *Config) Validate() error {
	if c.USDToINR <= 0 {
		return fmt.Errorf("usd_to_inr must be positive, got %v", c.USDToINR)
	}
	if c.Server.Port < 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port out of range: %d", c.Server.Port)
	}
	if c.Server.BodyLimitMB <= 0 {
		return fmt.Errorf("server.body_limit_mb must be positive, got %d", c.Server.BodyLimitMB)
	}
	for i, cat := range c.Categories {
		if strings.TrimSpace(cat.Name) == "" {
			return fmt.Errorf("categories[%d]: missing name", i)
		}
	}
	return nil
}

// Rate returns the USD to INR conversion rate.
func (c *Config) Rate() decimal.Decimal {
	return decimal.NewFromFloat(c.USDToINR)
}

// BodyLimit is the upload limit in bytes.
func (c *Config) BodyLimit() int {
	return c.Server.BodyLimitMB << 20
}

// Classifier builds the keyword classifier. Configured categories replace
// the built-in table entirely.
func (c *Config) Classifier() *classifier.Classifier {
	fallback := models.Category(c.DefaultCategory)
	if len(c.Categories) == 0 {
		return classifier.New(classifier.DefaultTable(), fallback)
	}
	rules := make([]classifier.Rule, 0, len(c.Categories))
	for _, cat := range c.Categories {
		rules = append(rules, classifier.Rule{
			Category: models.Category(strings.TrimSpace(cat.Name)),
			Keywords: cat.Keywords,
		})
	}
	return classifier.New(rules, fallback)
}
