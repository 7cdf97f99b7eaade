package config

import (
	"fmt"
	"os"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

type ServerConfig struct {
	Port int `yaml:"port" validate:"gt=0"`
}

type MapConfig struct {
	PBFPath string `yaml:"pbfPath" validate:"required"`
}

type MatcherConfig struct {
	DistanceEpsilon   float64 `yaml:"distanceEpsilon" validate:"gt=0"`
	SimilarityCutoff  float64 `yaml:"similarityCutoff" validate:"gte=0,lte=1"`
	CuttingThreshold  float64 `yaml:"cuttingThreshold" validate:"gt=0"`
	RandomCuts        int     `yaml:"randomCuts" validate:"gte=0"`
	DistanceThreshold float64 `yaml:"distanceThreshold" validate:"gt=0"`
}

type AppConfig struct {
	Server   ServerConfig  `yaml:"server" validate:"required"`
	Map      MapConfig     `yaml:"map" validate:"required"`
	Matcher  MatcherConfig `yaml:"matcher"`
	LogLevel string        `yaml:"logLevel" validate:"omitempty,oneof=debug info warn error"`
}

// Default returns the configuration used when a field is absent from the
// config file.
func Default() AppConfig {
	return AppConfig{
		Server: ServerConfig{Port: 8080},
		Matcher: MatcherConfig{
			DistanceEpsilon:   50.0,
			SimilarityCutoff:  0.9,
			CuttingThreshold:  10.0,
			RandomCuts:        0,
			DistanceThreshold: 10000.0,
		},
		LogLevel: "info",
	}
}

// Load reads and validates a YAML config file, filling unset fields from
// Default.
func Load(path string) (AppConfig, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("reading config file: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parsing config file: %w", err)
	}

	if err := validator.New().Struct(cfg); err != nil {
		return cfg, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}
