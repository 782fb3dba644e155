// Package enrich derives a short title and category for note content via
// the OpenAI API. Enrichment is advisory: every failure is absorbed here
// and callers always receive a usable pair.
package enrich

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"

	"github.com/kuitang/cloudnotes/internal/i18n"
	"github.com/kuitang/cloudnotes/internal/logutil"
	"github.com/kuitang/cloudnotes/internal/obs"
)

const (
	// DefaultModel is used when OPENAI_MODEL is not set.
	DefaultModel = "gpt-4o-mini"

	// requestTimeout bounds one enrichment exchange. There is no retry:
	// the fallback pair covers every failure mode.
	requestTimeout = 15 * time.Second

	logPreviewChars = 120
)

// Result is the derived (title, category) pair. It is always populated:
// on any failure it carries the per-language fallback pair with Fallback
// set, so callers can pick an informational rather than success message
// without ever handling an error.
type Result struct {
	Title    string `json:"title"`
	Category string `json:"category"`
	Fallback bool   `json:"-"`
}

// Enricher is the capability consumed by the note lifecycle controller.
// Implementations never return an error; failure handling lives inside.
type Enricher interface {
	Enhance(ctx context.Context, content string, lang i18n.Lang) Result
}

// Service calls the OpenAI chat completions API with a strict JSON schema
// response format.
type Service struct {
	client openai.Client
	model  string
	log    *slog.Logger
}

// NewService creates the OpenAI-backed enricher. baseURL overrides the API
// endpoint when non-empty (tests point it at a local fake).
func NewService(apiKey, model, baseURL string) *Service {
	opts := []option.RequestOption{option.WithAPIKey(apiKey)}
	if baseURL != "" {
		opts = append(opts, option.WithBaseURL(baseURL))
	}
	if model == "" {
		model = DefaultModel
	}
	return &Service{
		client: openai.NewClient(opts...),
		model:  model,
		log:    obs.Pkg("enrich"),
	}
}

// enrichmentSchema constrains the response to exactly {title, category}.
var enrichmentSchema = map[string]any{
	"type": "object",
	"properties": map[string]any{
		"title":    map[string]any{"type": "string"},
		"category": map[string]any{"type": "string"},
	},
	"required":             []string{"title", "category"},
	"additionalProperties": false,
}

// Enhance requests a ~2-word title and a category for content, in the
// given language. On any failure (transport, empty choice, malformed JSON,
// schema drift) it logs the cause and returns the fixed fallback pair.
func (s *Service) Enhance(ctx context.Context, content string, lang i18n.Lang) Result {
	ctx, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()

	resp, err := s.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: openai.ChatModel(s.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.UserMessage(prompt(content, lang)),
		},
		ResponseFormat: openai.ChatCompletionNewParamsResponseFormatUnion{
			OfJSONSchema: &openai.ResponseFormatJSONSchemaParam{
				JSONSchema: openai.ResponseFormatJSONSchemaJSONSchemaParam{
					Name:   "note_enrichment",
					Schema: enrichmentSchema,
					Strict: openai.Bool(true),
				},
			},
		},
	})
	if err != nil {
		return s.fallback(lang, "request failed", err)
	}
	if len(resp.Choices) == 0 {
		return s.fallback(lang, "empty response", nil)
	}

	raw := strings.TrimSpace(resp.Choices[0].Message.Content)
	if raw == "" {
		return s.fallback(lang, "empty completion content", nil)
	}

	result, err := parseResult(raw)
	if err != nil {
		s.log.Warn("enrichment response rejected",
			"reason", err,
			"body", logutil.TruncateForLog(raw, logPreviewChars))
		return i18nFallback(lang)
	}
	return result
}

func (s *Service) fallback(lang i18n.Lang, reason string, err error) Result {
	s.log.Warn("enrichment failed, using fallback pair", "reason", reason, "error", err)
	return i18nFallback(lang)
}

func i18nFallback(lang i18n.Lang) Result {
	p := i18n.FallbackPair(lang)
	return Result{Title: p.Title, Category: p.Category, Fallback: true}
}

// parseResult decodes the completion strictly: exactly title and category,
// both non-empty strings. Anything else is a schema violation.
func parseResult(raw string) (Result, error) {
	dec := json.NewDecoder(strings.NewReader(raw))
	dec.DisallowUnknownFields()

	var r Result
	if err := dec.Decode(&r); err != nil {
		return Result{}, fmt.Errorf("malformed enrichment JSON: %w", err)
	}
	if strings.TrimSpace(r.Title) == "" {
		return Result{}, fmt.Errorf("enrichment title is empty")
	}
	if strings.TrimSpace(r.Category) == "" {
		return Result{}, fmt.Errorf("enrichment category is empty")
	}
	return r, nil
}

func prompt(content string, lang i18n.Lang) string {
	if lang == i18n.Arabic {
		return fmt.Sprintf("حلل هذه الملاحظة باللغة العربية: %q. اعطني عنواناً مختصراً (كلمتين) وتصنيفاً.", content)
	}
	return fmt.Sprintf("Analyze this note in English: %q. Give me a short title (2 words) and a category.", content)
}
