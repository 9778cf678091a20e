package vision

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/okian/platecheck/internal/domain/model"
	"github.com/okian/platecheck/internal/domain/recognition"
	"github.com/okian/platecheck/pkg/metrics"
	"github.com/sashabaranov/go-openai"
)

// AzureConfig holds the Azure OpenAI deployment settings.
type AzureConfig struct {
	Endpoint    string
	APIKey      string
	Deployment  string
	APIVersion  string
	MaxTokens   int
	Temperature float32
	TopP        float32
	Prompt      string
	HTTPClient  *http.Client
}

// AzureOpenAI asks a GPT-4o class deployment for both reports.
type AzureOpenAI struct {
	client *openai.Client
	cfg    AzureConfig
}

var _ recognition.VisionProvider = (*AzureOpenAI)(nil)

// NewAzureOpenAI builds the client. Requests go to
// {endpoint}/openai/deployments/{deployment}/chat/completions.
func NewAzureOpenAI(cfg AzureConfig) *AzureOpenAI {
	oc := openai.DefaultAzureConfig(cfg.APIKey, cfg.Endpoint)
	if cfg.APIVersion != "" {
		oc.APIVersion = cfg.APIVersion
	}
	deployment := cfg.Deployment
	oc.AzureModelMapperFunc = func(string) string { return deployment }
	if cfg.HTTPClient != nil {
		oc.HTTPClient = cfg.HTTPClient
	}
	cfg.Prompt = promptOrDefault(cfg.Prompt)
	return &AzureOpenAI{client: openai.NewClientWithConfig(oc), cfg: cfg}
}

func (a *AzureOpenAI) Name() string { return "azure_openai" }

func (a *AzureOpenAI) Analyze(ctx context.Context, img model.Image) (recognition.VisionReport, error) {
	start := time.Now()
	report, err := a.analyze(ctx, img)
	metrics.RecordUpstreamCall(a.Name(), float64(time.Since(start).Milliseconds()), err != nil)
	return report, err
}

func (a *AzureOpenAI) analyze(ctx context.Context, img model.Image) (recognition.VisionReport, error) {
	dataURL := fmt.Sprintf("data:%s;base64,%s", img.MediaType(), base64.StdEncoding.EncodeToString(img.Data))

	resp, err := a.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: a.cfg.Deployment,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleSystem,
				Content: a.cfg.Prompt,
			},
			{
				Role: openai.ChatMessageRoleUser,
				MultiContent: []openai.ChatMessagePart{
					{Type: openai.ChatMessagePartTypeText, Text: userInstruction},
					{
						Type:     openai.ChatMessagePartTypeImageURL,
						ImageURL: &openai.ChatMessageImageURL{URL: dataURL, Detail: openai.ImageURLDetailHigh},
					},
				},
			},
		},
		MaxTokens:   a.cfg.MaxTokens,
		Temperature: a.cfg.Temperature,
		TopP:        a.cfg.TopP,
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
	})
	if err != nil {
		return recognition.VisionReport{}, classifyAzureError(err)
	}
	if len(resp.Choices) == 0 {
		return recognition.VisionReport{}, recognition.ErrEmptyResponse
	}
	return parseReport(resp.Choices[0].Message.Content)
}

func classifyAzureError(err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.HTTPStatusCode {
		case http.StatusUnauthorized:
			return fmt.Errorf("%w: %w", ErrInvalidKey, err)
		case http.StatusNotFound:
			return fmt.Errorf("%w: %w", ErrDeploymentNotFound, err)
		}
		return fmt.Errorf("azure openai: %s (status %d): %w", apiErr.Message, apiErr.HTTPStatusCode, err)
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		switch reqErr.HTTPStatusCode {
		case http.StatusUnauthorized:
			return fmt.Errorf("%w: %w", ErrInvalidKey, err)
		case http.StatusNotFound:
			return fmt.Errorf("%w: %w", ErrDeploymentNotFound, err)
		}
	}
	return fmt.Errorf("azure openai: %w", err)
}
