// Package ocr implements recognition.TextProvider against dedicated text
// recognition services.
package ocr

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/okian/platecheck/internal/domain/model"
	"github.com/okian/platecheck/internal/domain/recognition"
	"github.com/okian/platecheck/pkg/metrics"
)

const (
	maxErrorBody = 4 << 10
	inferSuccess = "SUCCESS"
)

// ClovaConfig configures the Naver Clova OCR general endpoint.
type ClovaConfig struct {
	URL    string
	Secret string
	// ProxyURL is prefixed to URL, for deployments that can only reach the
	// OCR gateway through a forwarding proxy.
	ProxyURL   string
	HTTPClient *http.Client
}

// Clova calls the Clova OCR V2 API and joins every recognized field.
type Clova struct {
	cfg    ClovaConfig
	client *http.Client
	now    func() time.Time
}

var _ recognition.TextProvider = (*Clova)(nil)

// NewClova returns a Clova client. It fails when URL or Secret is empty.
func NewClova(cfg ClovaConfig) (*Clova, error) {
	if cfg.URL == "" || cfg.Secret == "" {
		return nil, fmt.Errorf("%w: clova url and secret are required", ErrNotConfigured)
	}
	client := cfg.HTTPClient
	if client == nil {
		client = &http.Client{}
	}
	return &Clova{cfg: cfg, client: client, now: time.Now}, nil
}

func (c *Clova) Name() string { return "clova" }

type clovaImage struct {
	Format string `json:"format"`
	Name   string `json:"name"`
	Data   string `json:"data"`
}

type clovaRequest struct {
	Images    []clovaImage `json:"images"`
	RequestID string       `json:"requestId"`
	Timestamp int64        `json:"timestamp"`
	Version   string       `json:"version"`
}

type clovaResponse struct {
	Images []struct {
		InferResult string `json:"inferResult"`
		Message     string `json:"message"`
		Fields      []struct {
			InferText string `json:"inferText"`
		} `json:"fields"`
	} `json:"images"`
}

func (c *Clova) ReadText(ctx context.Context, img model.Image) (recognition.RawText, error) {
	start := time.Now()
	text, err := c.readText(ctx, img)
	metrics.RecordUpstreamCall(c.Name(), float64(time.Since(start).Milliseconds()), err != nil)
	return text, err
}

func (c *Clova) readText(ctx context.Context, img model.Image) (recognition.RawText, error) {
	now := c.now()
	body, err := json.Marshal(clovaRequest{
		Images: []clovaImage{{
			Format: img.Format(),
			Name:   "batch_proc_vehicle",
			Data:   base64.StdEncoding.EncodeToString(img.Data),
		}},
		RequestID: "batch-" + uuid.NewString(),
		Timestamp: now.UnixMilli(),
		Version:   "V2",
	})
	if err != nil {
		return recognition.RawText{}, fmt.Errorf("encode clova request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint(), bytes.NewReader(body))
	if err != nil {
		return recognition.RawText{}, fmt.Errorf("build clova request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-OCR-SECRET", c.cfg.Secret)

	resp, err := c.client.Do(req)
	if err != nil {
		return recognition.RawText{}, fmt.Errorf("clova request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return recognition.RawText{}, fmt.Errorf("%w: %d %s", ErrUpstreamStatus, resp.StatusCode, strings.TrimSpace(string(snippet)))
	}

	var decoded clovaResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return recognition.RawText{}, fmt.Errorf("decode clova response: %w", err)
	}
	if len(decoded.Images) == 0 {
		return recognition.RawText{}, fmt.Errorf("%w: no image result in response", ErrInferFailed)
	}
	result := decoded.Images[0]
	if result.InferResult != inferSuccess {
		return recognition.RawText{}, fmt.Errorf("%w: inferResult %q: %s", ErrInferFailed, result.InferResult, result.Message)
	}
	fields := result.Fields
	texts := make([]string, 0, len(fields))
	for _, f := range fields {
		texts = append(texts, f.InferText)
	}
	return recognition.RawText{Text: strings.Join(texts, " ")}, nil
}

// endpoint prefixes the proxy, inserting a slash between the two only when
// neither side provides one.
func (c *Clova) endpoint() string {
	proxy := c.cfg.ProxyURL
	if proxy == "" {
		return c.cfg.URL
	}
	if !strings.HasSuffix(proxy, "/") && !strings.HasPrefix(c.cfg.URL, "/") {
		proxy += "/"
	}
	return proxy + c.cfg.URL
}
