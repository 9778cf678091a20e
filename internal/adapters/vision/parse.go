// Package vision implements recognition.VisionProvider against multimodal
// model APIs. One call carries both prompt sets and returns both reports.
package vision

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/okian/platecheck/internal/domain/recognition"
)

// parseReport decodes the model's JSON answer. Models sometimes wrap JSON in
// a markdown fence even when asked not to.
func parseReport(content string) (recognition.VisionReport, error) {
	body := strings.TrimSpace(content)
	if strings.HasPrefix(body, "```") {
		body = strings.TrimPrefix(body, "```json")
		body = strings.TrimPrefix(body, "```")
		body = strings.TrimSuffix(body, "```")
		body = strings.TrimSpace(body)
	}
	if body == "" {
		return recognition.VisionReport{}, recognition.ErrEmptyResponse
	}

	var report recognition.VisionReport
	if err := json.Unmarshal([]byte(body), &report); err != nil {
		return recognition.VisionReport{}, fmt.Errorf("%w: %w", ErrMalformedResponse, err)
	}
	if report.PlateFocus.Status == "" && report.DamageFocus.Status == "" {
		return recognition.VisionReport{}, fmt.Errorf("%w: no analysis statuses", ErrMalformedResponse)
	}
	return report, nil
}

func promptOrDefault(p string) string {
	if strings.TrimSpace(p) == "" {
		return DefaultPrompt
	}
	return p
}
