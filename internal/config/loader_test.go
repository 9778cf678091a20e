package config_test

import (
	"context"
	"errors"
	"os"
	"runtime"
	"testing"

	"github.com/okian/platecheck/internal/config"
	"github.com/smartystreets/goconvey/convey"
)

func TestConfig_New(t *testing.T) {
	convey.Convey("Given a new config with defaults", t, func() {
		cfg := config.New(context.Background())

		convey.Convey("Then it has sensible defaults", func() {
			convey.So(cfg.Addr, convey.ShouldEqual, ":9080")
			convey.So(cfg.QueueSize, convey.ShouldEqual, 64)
			convey.So(cfg.WorkerCount, convey.ShouldEqual, runtime.NumCPU())
			convey.So(cfg.VisionProvider, convey.ShouldEqual, config.VisionStub)
			convey.So(cfg.OCRProvider, convey.ShouldEqual, config.OCRNone)
			convey.So(cfg.AzureAPIVersion, convey.ShouldEqual, "2025-01-01-preview")
			convey.So(cfg.AzureMaxTokens, convey.ShouldEqual, 800)
			convey.So(cfg.PremiumEnabled(), convey.ShouldBeFalse)
			convey.So(cfg.ExportUploadEnabled(), convey.ShouldBeFalse)
			convey.So(cfg.Validate(), convey.ShouldBeNil)
		})
	})
}

func TestConfig_Validate(t *testing.T) {
	convey.Convey("Given a default config", t, func() {
		cfg := config.New(context.Background())

		convey.Convey("When Azure is selected without credentials", func() {
			cfg.VisionProvider = config.VisionAzureOpenAI
			err := cfg.Validate()

			convey.Convey("Then validation names the missing keys", func() {
				convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
				convey.So(err.Error(), convey.ShouldContainSubstring, "azure_api_key")
			})
		})

		convey.Convey("When Gemini is selected with a key", func() {
			cfg.VisionProvider = config.VisionGemini
			cfg.GeminiAPIKey = "k"

			convey.Convey("Then it is valid", func() {
				convey.So(cfg.Validate(), convey.ShouldBeNil)
			})
		})

		convey.Convey("When Clova OCR lacks a secret", func() {
			cfg.OCRProvider = config.OCRClova
			cfg.ClovaURL = "https://ocr.example/general"

			convey.Convey("Then it is invalid", func() {
				convey.So(cfg.Validate(), convey.ShouldNotBeNil)
			})
		})

		convey.Convey("When providers are unknown and sizes are zero", func() {
			cfg.VisionProvider = "llava"
			cfg.OCRProvider = "tesseract"
			cfg.QueueSize = 0
			cfg.LogFormat = "xml"
			err := cfg.Validate()

			convey.Convey("Then every problem is reported at once", func() {
				convey.So(err, convey.ShouldNotBeNil)
				convey.So(err.Error(), convey.ShouldContainSubstring, "llava")
				convey.So(err.Error(), convey.ShouldContainSubstring, "tesseract")
				convey.So(err.Error(), convey.ShouldContainSubstring, "queue_size")
				convey.So(err.Error(), convey.ShouldContainSubstring, "log_format")
			})
		})
	})
}

func TestConfigLoader(t *testing.T) {
	convey.Convey("Given a config loader", t, func() {
		ctx := context.Background()
		clearConfigEnvVars()

		convey.Convey("When loading with defaults only", func() {
			cfg, err := config.Load(ctx)

			convey.Convey("Then it loads the defaults", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":9080")
				convey.So(cfg.DedupeSize, convey.ShouldEqual, 10_000)
			})
		})

		convey.Convey("When loading with environment variables", func() {
			_ = os.Setenv("PLATECHECK_ADDR", ":8080")
			_ = os.Setenv("PLATECHECK_QUEUE_SIZE", "16")
			_ = os.Setenv("PLATECHECK_WORKER_COUNT", "2")
			_ = os.Setenv("PLATECHECK_AZURE_TEMPERATURE", "0.2")
			_ = os.Setenv("PLATECHECK_MINIO_USE_SSL", "true")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then env overrides defaults", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":8080")
				convey.So(cfg.QueueSize, convey.ShouldEqual, 16)
				convey.So(cfg.WorkerCount, convey.ShouldEqual, 2)
				convey.So(cfg.AzureTemperature, convey.ShouldAlmostEqual, 0.2, 0.0001)
				convey.So(cfg.MinioUseSSL, convey.ShouldBeTrue)
			})
		})

		convey.Convey("When loading with a YAML file and env", func() {
			tmpFile := createTempFile("platecheck-config-*.yaml", `
# comment
addr: ":9090"
queue_size: 32
vision_provider: gemini
gemini_api_key: from-file
`)
			defer func() { _ = os.Remove(tmpFile) }()
			_ = os.Setenv("PLATECHECK_CONFIG", tmpFile)
			_ = os.Setenv("PLATECHECK_ADDR", ":7070")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then env wins over the file and the file over defaults", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":7070")
				convey.So(cfg.QueueSize, convey.ShouldEqual, 32)
				convey.So(cfg.VisionProvider, convey.ShouldEqual, config.VisionGemini)
				convey.So(cfg.GeminiAPIKey, convey.ShouldEqual, "from-file")
				convey.So(cfg.MaxBatchImages, convey.ShouldEqual, 100)
			})
		})

		convey.Convey("When a .env file is present", func() {
			envFile := createTempFile("platecheck-*.env", "PLATECHECK_GEMINI_MODEL=gemini-test\nPLATECHECK_ADDR=:6060\n")
			defer func() { _ = os.Remove(envFile) }()
			_ = os.Setenv("PLATECHECK_ENV_FILE", envFile)
			_ = os.Setenv("PLATECHECK_ADDR", ":5050")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then its values load but never override the real environment", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.GeminiModel, convey.ShouldEqual, "gemini-test")
				convey.So(cfg.Addr, convey.ShouldEqual, ":5050")
			})
		})

		convey.Convey("When the YAML file is invalid", func() {
			tmpFile := createTempFile("platecheck-config-*.yaml", `invalid: yaml: content: [`)
			defer func() { _ = os.Remove(tmpFile) }()
			_ = os.Setenv("PLATECHECK_CONFIG", tmpFile)
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then a load error is returned", func() {
				convey.So(errors.Is(err, config.ErrLoadConfig), convey.ShouldBeTrue)
				convey.So(cfg, convey.ShouldBeNil)
			})
		})

		convey.Convey("When the YAML file does not exist", func() {
			_ = os.Setenv("PLATECHECK_CONFIG", "/non/existent/file.yaml")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it returns an error", func() {
				convey.So(err, convey.ShouldNotBeNil)
				convey.So(cfg, convey.ShouldBeNil)
			})
		})

		convey.Convey("When addr is emptied through env", func() {
			_ = os.Setenv("PLATECHECK_ADDR", "")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then validation fails", func() {
				convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
				convey.So(err.Error(), convey.ShouldContainSubstring, "addr must not be empty")
				convey.So(cfg, convey.ShouldBeNil)
			})
		})
	})
}

// Helper functions.

func clearConfigEnvVars() {
	for _, envVar := range []string{
		"PLATECHECK_CONFIG",
		"PLATECHECK_ENV_FILE",
		"PLATECHECK_ADDR",
		"PLATECHECK_QUEUE_SIZE",
		"PLATECHECK_WORKER_COUNT",
		"PLATECHECK_AZURE_TEMPERATURE",
		"PLATECHECK_MINIO_USE_SSL",
		"PLATECHECK_GEMINI_MODEL",
	} {
		_ = os.Unsetenv(envVar)
	}
}

func createTempFile(pattern, content string) string {
	tmpFile, err := os.CreateTemp("", pattern)
	if err != nil {
		panic(err)
	}
	if _, err := tmpFile.WriteString(content); err != nil {
		panic(err)
	}
	if err := tmpFile.Close(); err != nil {
		panic(err)
	}
	return tmpFile.Name()
}
