package vision

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/generative-ai-go/genai"
	"github.com/okian/platecheck/internal/domain/model"
	"github.com/okian/platecheck/internal/domain/recognition"
	"github.com/okian/platecheck/pkg/metrics"
	"google.golang.org/api/option"
)

// contentGenerator is the part of *genai.GenerativeModel the adapter uses.
type contentGenerator interface {
	GenerateContent(ctx context.Context, parts ...genai.Part) (*genai.GenerateContentResponse, error)
}

// Gemini asks a Gemini model for both reports.
type Gemini struct {
	client *genai.Client
	model  contentGenerator
}

var _ recognition.VisionProvider = (*Gemini)(nil)

// NewGemini opens a client for modelName. Close releases it.
func NewGemini(ctx context.Context, apiKey, modelName, prompt string) (*Gemini, error) {
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}
	m := client.GenerativeModel(modelName)
	m.ResponseMIMEType = "application/json"
	m.SystemInstruction = genai.NewUserContent(genai.Text(promptOrDefault(prompt)))
	return &Gemini{client: client, model: m}, nil
}

func (g *Gemini) Name() string { return "gemini" }

func (g *Gemini) Analyze(ctx context.Context, img model.Image) (recognition.VisionReport, error) {
	start := time.Now()
	report, err := g.analyze(ctx, img)
	metrics.RecordUpstreamCall(g.Name(), float64(time.Since(start).Milliseconds()), err != nil)
	return report, err
}

func (g *Gemini) analyze(ctx context.Context, img model.Image) (recognition.VisionReport, error) {
	resp, err := g.model.GenerateContent(ctx,
		genai.Text(userInstruction),
		genai.Blob{MIMEType: img.MediaType(), Data: img.Data},
	)
	if err != nil {
		return recognition.VisionReport{}, fmt.Errorf("gemini: %w", err)
	}
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return recognition.VisionReport{}, recognition.ErrEmptyResponse
	}

	var sb strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if text, ok := part.(genai.Text); ok {
			sb.WriteString(string(text))
		}
	}
	return parseReport(sb.String())
}

// Close releases the underlying client.
func (g *Gemini) Close() error {
	if g.client == nil {
		return nil
	}
	return g.client.Close()
}
