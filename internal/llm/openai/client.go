package openai

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/venturedraft/memopilot/internal/common"
	"github.com/venturedraft/memopilot/internal/llm"
)

// GenerateSection implements llm.ContentGenerator using text-only
// chat/completions with a JSON response format.
func (c *Client) GenerateSection(ctx context.Context, req llm.SectionRequest) (any, error) {
	return c.complete(ctx,
		"llm.generate.section",
		req.SectionKey,
		llm.BuildSectionSystemPrompt(req),
		llm.BuildSectionUserPrompt(req),
		llm.BuildSectionJSONSchema(),
	)
}

// GenerateQuickTake implements llm.ContentGenerator for the closing verdict.
func (c *Client) GenerateQuickTake(ctx context.Context, req llm.QuickTakeRequest) (any, error) {
	return c.complete(ctx,
		"llm.generate.quick_take",
		"quick_take",
		llm.BuildQuickTakeSystemPrompt(req),
		llm.BuildQuickTakeUserPrompt(req),
		llm.BuildQuickTakeJSONSchema(),
	)
}

func (c *Client) complete(ctx context.Context, event, key, sys, user string, schema map[string]any) (any, error) {
	rid := uuid.New().String()
	start := time.Now()

	c.logger.Info(event+".start",
		"req_id", rid,
		"key", key,
		"model", c.cfg.Model,
		"temp", c.cfg.Temperature,
		"prompt_len", len(user),
	)

	body := map[string]any{
		"model":           c.cfg.Model,
		"temperature":     c.cfg.Temperature,
		"response_format": map[string]any{"type": "json_object"},
		"messages": []map[string]any{
			{"role": "system", "content": sys},
			{"role": "user", "content": user + "\n\nReturn ONLY JSON that matches the provided schema."},
			{"role": "system", "content": "JSON Schema:\n" + mustJSON(schema)},
		},
	}

	endpoint := strings.TrimRight(c.cfg.BaseURL, "/") + "/chat/completions"
	headers := map[string]string{"Authorization": "Bearer " + c.cfg.APIKey}
	raw, status, err := llm.SendJSON(ctx, c.http, endpoint, body, headers, c.logger)
	if err != nil {
		c.logger.Error(event+".http_error",
			"req_id", rid, "key", key, "status", status, "error", err,
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return nil, common.NewExternalServiceError(status, snippet(raw), err)
	}

	var cc struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.Unmarshal(raw, &cc); err != nil {
		c.logger.Error(event+".decode_error",
			"req_id", rid, "key", key, "error", err, "raw_bytes", len(raw),
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return nil, common.NewExternalServiceError(status, "undecodable completion envelope", err)
	}
	if len(cc.Choices) == 0 {
		c.logger.Error(event+".no_choices",
			"req_id", rid, "key", key, "raw", snippet(raw),
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return nil, common.NewExternalServiceError(status, "no choices in completion response", nil)
	}

	content := trimFences(strings.TrimSpace(cc.Choices[0].Message.Content))
	var value any
	if err := json.Unmarshal([]byte(content), &value); err != nil {
		c.logger.Error(event+".content_not_json",
			"req_id", rid, "key", key, "error", err, "content", snippet([]byte(content)),
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return nil, common.NewExternalServiceError(status, "completion content is not valid JSON", err)
	}

	// Schema drift is diagnostic only; the memo sanitizer owns shape safety.
	if vErr := llm.ValidateJSONAgainstSchema(schema, []byte(content)); vErr != nil {
		c.logger.Warn(event+".schema_mismatch",
			"req_id", rid, "key", key, "error", vErr,
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
	}

	c.logger.Info(event+".ok",
		"req_id", rid,
		"key", key,
		"content_bytes", len(content),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return value, nil
}

// trimFences strips a markdown code fence the model sometimes wraps
// around the JSON despite the response format.
func trimFences(s string) string {
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}

func snippet(raw []byte) string {
	const max = 280
	s := strings.TrimSpace(string(raw))
	if len(s) > max {
		return s[:max] + "…"
	}
	return s
}

func mustJSON(v any) string {
	b, _ := json.MarshalIndent(v, "", "  ")
	return string(b)
}
