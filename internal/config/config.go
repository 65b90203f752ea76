package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config holds application configuration
type Config struct {
	Server struct {
		Port           string `yaml:"port"`
		MaxImageSizeMB int64  `yaml:"max_image_size_mb"`
	} `yaml:"server"`

	Gemini struct {
		APIKey    string `yaml:"api_key"`
		ModelName string `yaml:"model_name"`
	} `yaml:"gemini"`

	Firebase struct {
		CredentialsFile string `yaml:"credentials_file"`
		DatabaseURL     string `yaml:"database_url"`
		SensorPath      string `yaml:"sensor_path"`
		FeedbackPath    string `yaml:"feedback_path"`
	} `yaml:"firebase"`

	Database struct {
		Path string `yaml:"path"`
	} `yaml:"database"`
}

// LoadConfig loads configuration from YAML file
func LoadConfig(configPath string) (*Config, error) {
	config := &Config{}

	file, err := os.Open(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open config file: %w", err)
	}
	defer file.Close()

	decoder := yaml.NewDecoder(file)
	if err := decoder.Decode(config); err != nil {
		return nil, fmt.Errorf("failed to decode config file: %w", err)
	}

	// Expand environment variables in secrets and paths
	config.Gemini.APIKey = os.ExpandEnv(config.Gemini.APIKey)
	config.Firebase.CredentialsFile = os.ExpandEnv(config.Firebase.CredentialsFile)
	config.Firebase.DatabaseURL = os.ExpandEnv(config.Firebase.DatabaseURL)

	// Set defaults
	if config.Server.Port == "" {
		config.Server.Port = "8080"
	}

	if config.Server.MaxImageSizeMB == 0 {
		config.Server.MaxImageSizeMB = 10
	}

	if config.Gemini.ModelName == "" {
		config.Gemini.ModelName = "gemini-1.5-flash-latest"
	}

	if config.Firebase.SensorPath == "" {
		config.Firebase.SensorPath = "/sensors2"
	}

	if config.Firebase.FeedbackPath == "" {
		config.Firebase.FeedbackPath = "/feedback"
	}

	if config.Database.Path == "" {
		config.Database.Path = "./data/diagnoses.db"
	}

	return config, nil
}

// Validate checks the settings the service cannot run without.
func (c *Config) Validate() error {
	if c.Gemini.APIKey == "" {
		return fmt.Errorf("gemini api key not configured (set GEMINI_API_KEY or gemini.api_key)")
	}

	if c.Firebase.CredentialsFile == "" {
		return fmt.Errorf("firebase credentials file not configured (set GOOGLE_APPLICATION_CREDENTIALS or firebase.credentials_file)")
	}

	if _, err := os.Stat(c.Firebase.CredentialsFile); err != nil {
		return fmt.Errorf("firebase credentials file not found at %s: %w", c.Firebase.CredentialsFile, err)
	}

	if c.Firebase.DatabaseURL == "" {
		return fmt.Errorf("firebase database url not configured")
	}

	return nil
}
