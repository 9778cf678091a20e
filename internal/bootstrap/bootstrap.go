// Package bootstrap turns a loaded Config into ready-to-use providers,
// the premium gate and the export uploader, shared by the server and the
// batch command.
package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/okian/platecheck/internal/access"
	"github.com/okian/platecheck/internal/adapters/export"
	"github.com/okian/platecheck/internal/adapters/ocr"
	"github.com/okian/platecheck/internal/adapters/vision"
	service "github.com/okian/platecheck/internal/app"
	"github.com/okian/platecheck/internal/config"
	"github.com/okian/platecheck/internal/domain/recognition"
	"github.com/okian/platecheck/pkg/logger"
)

// ErrUnknownProvider is returned for provider names Validate would reject.
var ErrUnknownProvider = errors.New("unknown provider")

// Components are the configured collaborators of the service.
type Components struct {
	Vision recognition.VisionProvider
	// Text is nil when OCR is disabled.
	Text recognition.TextProvider
	Gate *access.Gate
	// Uploader is nil when export uploads are disabled.
	Uploader *export.MinioUploader

	closers []func() error
}

// Build creates every component cfg asks for.
func Build(ctx context.Context, cfg *config.Config, log logger.Logger) (*Components, error) {
	c := &Components{}

	v, err := c.buildVision(ctx, cfg)
	if err != nil {
		return nil, err
	}
	c.Vision = v

	if c.Text, err = buildText(ctx, cfg, log); err != nil {
		_ = c.Close()
		return nil, err
	}

	if c.Gate, err = access.NewGate(cfg.PremiumPasswordHash); err != nil {
		_ = c.Close()
		return nil, err
	}

	if cfg.ExportUploadEnabled() {
		c.Uploader, err = export.NewMinioUploader(ctx, export.MinioConfig{
			Endpoint:  cfg.MinioEndpoint,
			AccessKey: cfg.MinioAccessKey,
			SecretKey: cfg.MinioSecretKey,
			Bucket:    cfg.ExportBucket,
			UseSSL:    cfg.MinioUseSSL,
		}, log.Named("export"))
		if err != nil {
			_ = c.Close()
			return nil, fmt.Errorf("export uploader: %w", err)
		}
	}

	log.Info(ctx, "components ready",
		logger.String("vision", c.Vision.Name()),
		logger.String("ocr", textName(c.Text)),
		logger.Bool("premium", c.Gate.Enabled()),
		logger.Bool("export_upload", c.Uploader != nil),
	)
	return c, nil
}

func (c *Components) buildVision(ctx context.Context, cfg *config.Config) (recognition.VisionProvider, error) {
	switch cfg.VisionProvider {
	case config.VisionAzureOpenAI:
		return vision.NewAzureOpenAI(vision.AzureConfig{
			Endpoint:    cfg.AzureEndpoint,
			APIKey:      cfg.AzureAPIKey,
			Deployment:  cfg.AzureDeployment,
			APIVersion:  cfg.AzureAPIVersion,
			MaxTokens:   cfg.AzureMaxTokens,
			Temperature: cfg.AzureTemperature,
			TopP:        cfg.AzureTopP,
			Prompt:      cfg.VisionPrompt,
		}), nil
	case config.VisionGemini:
		g, err := vision.NewGemini(ctx, cfg.GeminiAPIKey, cfg.GeminiModel, cfg.VisionPrompt)
		if err != nil {
			return nil, fmt.Errorf("gemini: %w", err)
		}
		c.closers = append(c.closers, g.Close)
		return g, nil
	case config.VisionStub:
		return vision.NewStatic(""), nil
	default:
		return nil, fmt.Errorf("%w: vision %q", ErrUnknownProvider, cfg.VisionProvider)
	}
}

func buildText(ctx context.Context, cfg *config.Config, log logger.Logger) (recognition.TextProvider, error) {
	switch cfg.OCRProvider {
	case config.OCRClova:
		return ocr.NewClova(ocr.ClovaConfig{
			URL:      cfg.ClovaURL,
			Secret:   cfg.ClovaSecret,
			ProxyURL: cfg.ClovaProxyURL,
		})
	case config.OCRRekognition:
		log.Warn(ctx, "rekognition does not read Hangul; premium plate cross-checks will rarely find a plate",
			logger.String("region", cfg.RekognitionRegion))
		return ocr.NewRekognition(ctx, cfg.RekognitionRegion)
	case config.OCRNone, "":
		return nil, nil
	default:
		return nil, fmt.Errorf("%w: ocr %q", ErrUnknownProvider, cfg.OCRProvider)
	}
}

// ServiceOptions maps cfg and the components onto service options.
func (c *Components) ServiceOptions(cfg *config.Config, log logger.Logger) []service.Option {
	opts := []service.Option{
		service.WithLogger(log),
		service.WithVisionProvider(c.Vision),
		service.WithWorkerCount(cfg.WorkerCount),
		service.WithQueueSize(cfg.QueueSize),
		service.WithDedupeSize(cfg.DedupeSize),
		service.WithUpstreamTimeout(time.Duration(cfg.UpstreamTimeoutMS) * time.Millisecond),
	}
	if c.Text != nil {
		opts = append(opts, service.WithTextProvider(c.Text))
	}
	return opts
}

// Close releases provider clients.
func (c *Components) Close() error {
	var errs []error
	for _, closeFn := range c.closers {
		if err := closeFn(); err != nil {
			errs = append(errs, err)
		}
	}
	c.closers = nil
	return errors.Join(errs...)
}

func textName(t recognition.TextProvider) string {
	if t == nil {
		return "none"
	}
	return t.Name()
}
