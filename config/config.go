package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/scenariotools/pipekit/logger"
)

// Config is the full run configuration.
type Config struct {
	// Output is the base output path for generated artifacts.
	Output string `mapstructure:"output" validate:"required"`
	// Seed fixes all pseudo-randomness consumed through the run context.
	Seed int64 `mapstructure:"seed"`
	// Workers is the default parallelism degree for parallel map stages.
	// 0 or 1 means sequential.
	Workers int `mapstructure:"workers" validate:"gte=0"`
	// Program is the path of a YAML pipeline definition. Empty selects the
	// built-in pipeline of the command.
	Program string `mapstructure:"program"`

	Log       logger.Config   `mapstructure:"log"`
	Telemetry TelemetryConfig `mapstructure:"telemetry"`
}

// TelemetryConfig configures optional OTLP export.
type TelemetryConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Endpoint string `mapstructure:"endpoint"`
	Insecure bool   `mapstructure:"insecure"`
}

// ApplyDefaults applies default values.
func (c *Config) ApplyDefaults() {
	if c.Output == "" {
		c.Output = "./out"
	}
	if c.Telemetry.Endpoint == "" {
		c.Telemetry.Endpoint = "localhost:4318"
	}
	c.Log.ApplyDefaults()
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		if verrs, ok := err.(validator.ValidationErrors); ok && len(verrs) > 0 {
			e := verrs[0]
			return fmt.Errorf("config: field %s failed %q validation", e.Namespace(), e.Tag())
		}
		return fmt.Errorf("config: %w", err)
	}
	return c.Log.Validate()
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Load reads configuration from the given YAML file (optional), a .env file
// in the working directory (optional) and PIPEKIT_* environment variables,
// applies defaults and validates the result.
func Load(path string) (*Config, error) {
	// Missing .env files are fine, only report real load failures.
	if _, err := os.Stat(".env"); err == nil {
		if err := godotenv.Load(); err != nil {
			return nil, fmt.Errorf("config: loading .env: %w", err)
		}
	}

	v := viper.New()
	v.SetEnvPrefix("PIPEKIT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("config: reading %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("config: unmarshaling: %w", err)
	}

	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}
