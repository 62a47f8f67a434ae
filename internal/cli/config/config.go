package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/idsession/idsession/internal/session"
)

const ConfigFileName = "idsession.yaml"

// Profile represents one identity provider project
type Profile struct {
	Alias         string `yaml:"alias" validate:"required"`
	APIKey        string `yaml:"api_key" validate:"required"`
	AuthEndpoint  string `yaml:"auth_endpoint,omitempty" validate:"omitempty,url"`
	TokenEndpoint string `yaml:"token_endpoint,omitempty" validate:"omitempty,url"`
	// ContinueURL is where verification emails send the user after verifying
	ContinueURL string `yaml:"continue_url,omitempty" validate:"omitempty,url"`
}

// Config represents the CLI configuration file
type Config struct {
	Locale   string    `yaml:"locale,omitempty" validate:"omitempty,locale"`
	Profiles []Profile `yaml:"profiles" validate:"dive"`
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())

	// BCP 47 tag that resolves to a supported message catalog
	v.RegisterValidation("locale", func(fl validator.FieldLevel) bool {
		return session.ValidLocale(fl.Field().String())
	})

	return v
}

// Validate checks field formats and that aliases are unique
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			msgs := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				msgs = append(msgs, fmt.Sprintf("%s: failed '%s' check", fe.Namespace(), fe.Tag()))
			}
			return fmt.Errorf("invalid config: %s", strings.Join(msgs, "; "))
		}
		return fmt.Errorf("invalid config: %w", err)
	}

	seen := make(map[string]bool, len(c.Profiles))
	for _, p := range c.Profiles {
		if seen[p.Alias] {
			return fmt.Errorf("invalid config: duplicate profile alias '%s'", p.Alias)
		}
		seen[p.Alias] = true
	}
	return nil
}

// FindConfigFile searches for idsession.yaml in current directory and parent directories
func FindConfigFile() (string, error) {
	currentDir, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("failed to get current directory: %w", err)
	}

	// Search upwards until we find idsession.yaml or reach root
	dir := currentDir
	for {
		configPath := filepath.Join(dir, ConfigFileName)
		if _, err := os.Stat(configPath); err == nil {
			return configPath, nil
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			// Reached root
			break
		}
		dir = parent
	}

	return "", fmt.Errorf("%s not found in %s or any parent directory", ConfigFileName, currentDir)
}

// Load reads and validates the configuration file
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// LoadFromCurrentDir loads config from current directory or parent directories
func LoadFromCurrentDir() (*Config, error) {
	configPath, err := FindConfigFile()
	if err != nil {
		return nil, err
	}

	return Load(configPath)
}

// Save writes the configuration to a file
func Save(path string, cfg *Config) error {
	if err := cfg.Validate(); err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// GetProfileByAlias returns a profile by its alias
func (c *Config) GetProfileByAlias(alias string) (*Profile, error) {
	for i := range c.Profiles {
		if c.Profiles[i].Alias == alias {
			return &c.Profiles[i], nil
		}
	}
	return nil, fmt.Errorf("profile with alias '%s' not found", alias)
}

// GetDefaultProfile returns the first profile in the list
func (c *Config) GetDefaultProfile() (*Profile, error) {
	if len(c.Profiles) == 0 {
		return nil, fmt.Errorf("no profiles configured in %s", ConfigFileName)
	}
	return &c.Profiles[0], nil
}
