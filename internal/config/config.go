// Package config defines service configuration and how it is loaded.
package config

import (
	"context"
	"runtime"
)

// Provider names.
const (
	VisionAzureOpenAI = "azure_openai"
	VisionGemini      = "gemini"
	VisionStub        = "stub"

	OCRClova       = "clova"
	OCRRekognition = "rekognition"
	OCRNone        = "none"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`
	// LogFormat is "text" or "json".
	LogFormat string `koanf:"log_format"`

	// Addr configures the HTTP listen address, e.g. ":8080".
	Addr string `koanf:"addr"`

	// QueueSize bounds the number of pending asynchronous batches.
	QueueSize int `koanf:"queue_size"`
	// WorkerCount sets the number of batch workers.
	WorkerCount int `koanf:"worker_count"`
	// DedupeSize bounds the remembered batch ids.
	DedupeSize int `koanf:"dedupe_size"`

	MaxUploadMB    int `koanf:"max_upload_mb"`
	MaxBatchImages int `koanf:"max_batch_images"`

	// UpstreamTimeoutMS bounds every single provider call.
	UpstreamTimeoutMS int `koanf:"upstream_timeout_ms"`

	VisionProvider string `koanf:"vision_provider"`
	// VisionPrompt overrides the built-in two-criteria instruction.
	VisionPrompt string `koanf:"vision_prompt"`

	AzureEndpoint    string  `koanf:"azure_endpoint"`
	AzureAPIKey      string  `koanf:"azure_api_key"`
	AzureDeployment  string  `koanf:"azure_deployment"`
	AzureAPIVersion  string  `koanf:"azure_api_version"`
	AzureMaxTokens   int     `koanf:"azure_max_tokens"`
	AzureTemperature float32 `koanf:"azure_temperature"`
	AzureTopP        float32 `koanf:"azure_top_p"`

	GeminiAPIKey string `koanf:"gemini_api_key"`
	GeminiModel  string `koanf:"gemini_model"`

	OCRProvider string `koanf:"ocr_provider"`
	ClovaURL    string `koanf:"clova_url"`
	ClovaSecret string `koanf:"clova_secret"`
	// ClovaProxyURL is prefixed to ClovaURL when set.
	ClovaProxyURL     string `koanf:"clova_proxy_url"`
	RekognitionRegion string `koanf:"rekognition_region"`

	// PremiumPasswordHash is the bcrypt hash unlocking the premium tier.
	// Empty disables the premium tier.
	PremiumPasswordHash string `koanf:"premium_password_hash"`

	// ExportBucket enables uploading CSV exports to object storage.
	ExportBucket   string `koanf:"export_bucket"`
	MinioEndpoint  string `koanf:"minio_endpoint"`
	MinioAccessKey string `koanf:"minio_access_key"`
	MinioSecretKey string `koanf:"minio_secret_key"`
	MinioUseSSL    bool   `koanf:"minio_use_ssl"`
}

// New returns a Config holding the defaults.
func New(_ context.Context) *Config {
	return &Config{
		LogLevel:          "info",
		LogFormat:         "text",
		Addr:              ":9080",
		QueueSize:         64,
		WorkerCount:       runtime.NumCPU(),
		DedupeSize:        10_000,
		MaxUploadMB:       20,
		MaxBatchImages:    100,
		UpstreamTimeoutMS: 60_000,
		VisionProvider:    VisionStub,
		AzureDeployment:   "gpt-4o",
		AzureAPIVersion:   "2025-01-01-preview",
		AzureMaxTokens:    800,
		AzureTemperature:  0.7,
		AzureTopP:         0.95,
		GeminiModel:       "gemini-1.5-flash",
		OCRProvider:       OCRNone,
		RekognitionRegion: "ap-northeast-2",
	}
}

// PremiumEnabled reports whether a premium password is configured.
func (c *Config) PremiumEnabled() bool { return c.PremiumPasswordHash != "" }

// ExportUploadEnabled reports whether CSV exports can be uploaded.
func (c *Config) ExportUploadEnabled() bool {
	return c.ExportBucket != "" && c.MinioEndpoint != ""
}
