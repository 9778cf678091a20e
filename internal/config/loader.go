package config

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

const (
	envPrefix  = "PLATECHECK_"
	envFileVar = envPrefix + "ENV_FILE"
	configVar  = envPrefix + "CONFIG"
)

// Load builds a Config by layering, from low to high precedence:
//  1. defaults (New(ctx))
//  2. YAML file if PLATECHECK_CONFIG is set
//  3. env (prefix PLATECHECK_), after loading a .env file if present
//
// The .env path is PLATECHECK_ENV_FILE or ".env". Variables already set in
// the process environment win over the file.
func Load(ctx context.Context) (*Config, error) {
	envFile := os.Getenv(envFileVar)
	if envFile == "" {
		envFile = ".env"
	}
	if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s: %w", ErrLoadConfig, envFile, err)
	}

	base := New(ctx)
	k := koanf.New(".")

	if path := os.Getenv(configVar); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("%w: %s: %w", ErrLoadConfig, path, err)
		}
	}

	// PLATECHECK_QUEUE_SIZE -> queue_size; underscores match the koanf tags.
	envProvider := env.Provider(envPrefix, ".", func(s string) string {
		return strings.TrimPrefix(strings.ToLower(s), strings.ToLower(envPrefix))
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("%w: env: %w", ErrLoadConfig, err)
	}

	cfg := *base
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks sizes, provider names and the credentials each selected
// provider needs.
func (c *Config) Validate() error {
	var problems []string
	add := func(format string, args ...any) {
		problems = append(problems, fmt.Sprintf(format, args...))
	}

	if c.Addr == "" {
		add("addr must not be empty")
	}
	if c.QueueSize <= 0 {
		add("queue_size must be positive")
	}
	if c.MaxUploadMB <= 0 {
		add("max_upload_mb must be positive")
	}
	if c.MaxBatchImages <= 0 {
		add("max_batch_images must be positive")
	}
	if c.UpstreamTimeoutMS <= 0 {
		add("upstream_timeout_ms must be positive")
	}
	switch c.LogFormat {
	case "text", "json":
	default:
		add("log_format %q is not text or json", c.LogFormat)
	}

	switch c.VisionProvider {
	case VisionAzureOpenAI:
		if c.AzureEndpoint == "" || c.AzureAPIKey == "" || c.AzureDeployment == "" {
			add("azure_openai needs azure_endpoint, azure_api_key and azure_deployment")
		}
	case VisionGemini:
		if c.GeminiAPIKey == "" {
			add("gemini needs gemini_api_key")
		}
	case VisionStub:
	default:
		add("unknown vision_provider %q", c.VisionProvider)
	}

	switch c.OCRProvider {
	case OCRClova:
		if c.ClovaURL == "" || c.ClovaSecret == "" {
			add("clova needs clova_url and clova_secret")
		}
	case OCRRekognition:
		if c.RekognitionRegion == "" {
			add("rekognition needs rekognition_region")
		}
	case OCRNone, "":
	default:
		add("unknown ocr_provider %q", c.OCRProvider)
	}

	if len(problems) > 0 {
		return fmt.Errorf("%w: %s", ErrInvalidConfig, strings.Join(problems, "; "))
	}
	return nil
}
