// Package config loads application configuration.
// Precedence: defaults, then .env / environment variables, then CLI flags.
package config

import (
	"flag"

	"github.com/caarlos0/env/v6"
	"github.com/joho/godotenv"
)

type Config struct {
	Addr          string `env:"VISIONASK_ADDR"`            // HTTP listen address
	InferenceURL  string `env:"VISIONASK_INFERENCE_URL"`   // Hosted VQA endpoint
	TokenHelpURL  string `env:"VISIONASK_TOKEN_HELP_URL"`  // "Obtain a token" link shown next to the credential field
	MaxImageBytes int64  `env:"VISIONASK_MAX_IMAGE_BYTES"` // Upload ceiling, enforced before encoding
	SamplesDir    string `env:"VISIONASK_SAMPLES_DIR"`     // Directory of sample images offered by the form
	DebugMode     bool   `env:"VISIONASK_DEBUG"`           // Verbose development logging
}

// Defaults returns the configuration with preset values. These are
// overridden by .env, environment variables and CLI flags.
func Defaults() *Config {
	return &Config{
		Addr:          ":8090",
		InferenceURL:  "https://api-inference.huggingface.co/models/dandelin/vilt-b32-finetuned-vqa",
		TokenHelpURL:  "https://huggingface.co/settings/tokens",
		MaxImageBytes: 10 << 20,
		SamplesDir:    "samples",
		DebugMode:     false,
	}
}

// NewConfig loads the application configuration.
func NewConfig() *Config {
	_ = godotenv.Load()

	cfg := Defaults()
	_ = env.Parse(cfg)

	flag.StringVar(&cfg.Addr, "addr", cfg.Addr, "HTTP listen address")
	flag.StringVar(&cfg.InferenceURL, "inference-url", cfg.InferenceURL, "hosted VQA inference endpoint")
	flag.StringVar(&cfg.TokenHelpURL, "token-help-url", cfg.TokenHelpURL, "link for obtaining an API token")
	flag.Int64Var(&cfg.MaxImageBytes, "max-image-bytes", cfg.MaxImageBytes, "upload size ceiling in bytes")
	flag.StringVar(&cfg.SamplesDir, "samples-dir", cfg.SamplesDir, "directory of sample images")
	flag.BoolVar(&cfg.DebugMode, "debug", cfg.DebugMode, "enable verbose development logging")
	flag.Parse()

	return cfg
}
